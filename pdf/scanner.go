// seehuhn.de/go/pdfmerge - a library for merging PDF files
// Copyright (C) 2026  Jochen Voss <voss@seehuhn.de>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package pdf

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"strconv"
)

// maxNesting limits the depth of nested arrays and dictionaries.
const maxNesting = 256

// A scanner reads PDF objects from an in-memory copy of a file.
type scanner struct {
	buf []byte
	pos int

	// getInt is used to resolve the /Length of streams.  If getInt is nil,
	// only direct integers are accepted.
	getInt func(Object) (Integer, error)

	// lenient enables recovery from wrong stream lengths and missing
	// keywords.
	lenient bool

	depth int
}

func newScanner(buf []byte, pos int, getInt func(Object) (Integer, error)) *scanner {
	return &scanner{
		buf:    buf,
		pos:    pos,
		getInt: getInt,
	}
}

// ReadIndirectObject reads an object of the form "N G obj ... endobj".
func (s *scanner) ReadIndirectObject() (Reference, Object, error) {
	// Some files point the xref entries at the end of the previous line.
	// Try to fix this up by skipping any leading white space.
	s.SkipWhiteSpace()

	number, err := s.ReadInteger()
	if err != nil {
		return 0, nil, err
	}
	s.SkipWhiteSpace()
	generation, err := s.ReadInteger()
	if err != nil {
		return 0, nil, err
	}
	if number < 0 || number > math.MaxUint32 || generation < 0 || generation > math.MaxUint16 {
		return 0, nil, malformed(s.pos, "invalid object identifier")
	}
	ref := NewReference(uint32(number), uint16(generation))

	s.SkipWhiteSpace()
	err = s.SkipString("obj")
	if err != nil {
		return 0, nil, err
	}
	s.SkipWhiteSpace()

	obj, err := s.ReadObject()
	if err != nil {
		return 0, nil, err
	}
	s.SkipWhiteSpace()

	if s.atKeyword("endobj") {
		s.pos += len("endobj")
	} else if !s.lenient {
		return 0, nil, malformed(s.pos, "missing endobj")
	}

	return ref, obj, nil
}

// ReadObject reads a direct object.  References of the form "N G R" are
// recognised here.
func (s *scanner) ReadObject() (Object, error) {
	buf := s.Peek(5) // len("false") == 5

	switch {
	case len(buf) == 0:
		// Test this first, so that we can use buf[0] in the following cases.
		return nil, &MalformedFileError{Pos: int64(s.pos), Err: io.ErrUnexpectedEOF}
	case s.atKeyword("null"):
		s.pos += 4
		return nil, nil
	case s.atKeyword("true"):
		s.pos += 4
		return Boolean(true), nil
	case s.atKeyword("false"):
		s.pos += 5
		return Boolean(false), nil
	case buf[0] == '/':
		return s.ReadName()
	case buf[0] >= '0' && buf[0] <= '9', buf[0] == '+', buf[0] == '-', buf[0] == '.':
		num, err := s.ReadNumber()
		if err != nil {
			return nil, err
		}
		if a, ok := num.(Integer); ok && buf[0] >= '0' && buf[0] <= '9' {
			if ref, ok := s.tryReference(a); ok {
				return ref, nil
			}
		}
		return num, nil
	case bytes.HasPrefix(buf, []byte("<<")):
		dict, err := s.ReadDict()
		if err != nil {
			return nil, err
		}

		// check whether this is the start of a stream
		save := s.pos
		s.SkipWhiteSpace()
		if !s.atKeyword("stream") {
			s.pos = save
			return dict, nil
		}
		return s.ReadStreamData(dict)
	case buf[0] == '(':
		s.pos++
		return s.ReadQuotedString()
	case buf[0] == '<':
		s.pos++
		return s.ReadHexString()
	case buf[0] == '[':
		s.pos++
		return s.ReadArray()
	}
	return nil, &MalformedFileError{
		Pos: int64(s.pos),
		Err: fmt.Errorf("unexpected input %q", buf),
	}
}

// tryReference checks whether the integer a just read is the start of a
// reference "a b R".  If not, the read position is left unchanged.
func (s *scanner) tryReference(a Integer) (Reference, bool) {
	save := s.pos
	s.SkipWhiteSpace()
	buf := s.Peek(1)
	if len(buf) == 0 || buf[0] < '0' || buf[0] > '9' {
		s.pos = save
		return 0, false
	}
	b, err := s.ReadInteger()
	if err != nil || a > math.MaxUint32 || b > math.MaxUint16 {
		s.pos = save
		return 0, false
	}
	s.SkipWhiteSpace()
	if !s.atKeyword("R") {
		s.pos = save
		return 0, false
	}
	s.pos++
	return NewReference(uint32(a), uint16(b)), true
}

// ReadInteger reads an integer.
func (s *scanner) ReadInteger() (Integer, error) {
	start := s.pos
	first := true
	s.ScanBytes(func(c byte) bool {
		ok := c >= '0' && c <= '9' || first && (c == '+' || c == '-')
		first = false
		return ok
	})

	x, err := strconv.ParseInt(string(s.buf[start:s.pos]), 10, 64)
	if err != nil {
		return 0, &MalformedFileError{
			Pos: int64(start),
			Err: err,
		}
	}
	return Integer(x), nil
}

// ReadNumber reads an integer or real number.
func (s *scanner) ReadNumber() (Object, error) {
	start := s.pos
	hasDot := false
	first := true
	s.ScanBytes(func(c byte) bool {
		ok := true
		if !hasDot && c == '.' {
			hasDot = true
		} else if first && (c == '+' || c == '-') {
			// pass
		} else if c < '0' || c > '9' {
			ok = false
		}
		first = false
		return ok
	})
	res := string(s.buf[start:s.pos])

	if hasDot {
		x, err := strconv.ParseFloat(res, 64)
		if err != nil {
			return nil, &MalformedFileError{Pos: int64(start), Err: err}
		}
		return Real(x), nil
	}

	x, err := strconv.ParseInt(res, 10, 64)
	if err != nil {
		// very large integers are sometimes used where reals are expected
		if y, err2 := strconv.ParseFloat(res, 64); err2 == nil && s.lenient {
			return Real(y), nil
		}
		return nil, &MalformedFileError{Pos: int64(start), Err: err}
	}
	return Integer(x), nil
}

// ReadQuotedString reads a ()-delimited string, starting after the opening
// bracket.
func (s *scanner) ReadQuotedString() (String, error) {
	start := s.pos
	var res []byte
	parenCount := 0
	for s.pos < len(s.buf) {
		c := s.buf[s.pos]
		s.pos++

		switch c {
		case '\\':
			if s.pos >= len(s.buf) {
				continue
			}
			c = s.buf[s.pos]
			s.pos++
			switch c {
			case 'n':
				res = append(res, '\n')
			case 'r':
				res = append(res, '\r')
			case 't':
				res = append(res, '\t')
			case 'b':
				res = append(res, '\b')
			case 'f':
				res = append(res, '\f')
			case '\r':
				if s.pos < len(s.buf) && s.buf[s.pos] == '\n' {
					s.pos++
				}
			case '\n':
				// line continuation
			case '0', '1', '2', '3', '4', '5', '6', '7':
				val := c - '0'
				for k := 0; k < 2 && s.pos < len(s.buf); k++ {
					d := s.buf[s.pos]
					if d < '0' || d > '7' {
						break
					}
					val = val*8 + (d - '0')
					s.pos++
				}
				res = append(res, val)
			default:
				res = append(res, c)
			}
		case '(':
			parenCount++
			res = append(res, c)
		case ')':
			if parenCount == 0 {
				return String(res), nil
			}
			parenCount--
			res = append(res, c)
		case '\r':
			// end-of-line markers are normalised to "\n"
			if s.pos < len(s.buf) && s.buf[s.pos] == '\n' {
				s.pos++
			}
			res = append(res, '\n')
		default:
			res = append(res, c)
		}
	}
	return nil, &MalformedFileError{Pos: int64(start), Err: io.ErrUnexpectedEOF}
}

// ReadHexString reads a <>-delimited string, starting after the opening
// angled bracket.
func (s *scanner) ReadHexString() (String, error) {
	var res []byte
	var hexVal byte
	first := true
	s.ScanBytes(func(c byte) bool {
		var d byte
		if c >= '0' && c <= '9' {
			d = c - '0'
		} else if c >= 'A' && c <= 'F' {
			d = c - 'A' + 10
		} else if c >= 'a' && c <= 'f' {
			d = c - 'a' + 10
		} else if c == '>' {
			return false
		} else {
			return true
		}
		if first {
			hexVal = d
		} else {
			res = append(res, 16*hexVal+d)
		}
		first = !first
		return true
	})
	if !first {
		res = append(res, 16*hexVal)
	}

	// If we reach the end of the file, the trailing ">" will be missing.
	if s.pos < len(s.buf) {
		s.pos++
	} else if !s.lenient {
		return nil, &MalformedFileError{Pos: int64(s.pos), Err: io.ErrUnexpectedEOF}
	}

	return String(res), nil
}

// ReadName reads a PDF name object.
func (s *scanner) ReadName() (Name, error) {
	err := s.SkipString("/")
	if err != nil {
		return "", err
	}

	var res []byte
	for s.pos < len(s.buf) {
		c := s.buf[s.pos]
		if isSpace[c] || isDelimiter[c] {
			break
		}
		s.pos++
		if c == '#' && s.pos+1 < len(s.buf) {
			hi, ok1 := hexDigit(s.buf[s.pos])
			lo, ok2 := hexDigit(s.buf[s.pos+1])
			if ok1 && ok2 {
				res = append(res, hi<<4|lo)
				s.pos += 2
				continue
			}
		}
		res = append(res, c)
	}

	return Name(res), nil
}

func hexDigit(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	}
	return 0, false
}

// ReadArray reads an array, starting after the opening "[".
func (s *scanner) ReadArray() (Array, error) {
	s.depth++
	defer func() { s.depth-- }()
	if s.depth > maxNesting {
		return nil, malformed(s.pos, "arrays nested too deeply")
	}

	array := Array{}
	for {
		s.SkipWhiteSpace()

		buf := s.Peek(1)
		if len(buf) == 0 {
			return nil, &MalformedFileError{Pos: int64(s.pos), Err: io.ErrUnexpectedEOF}
		}
		if buf[0] == ']' {
			break
		}

		obj, err := s.ReadObject()
		if err != nil {
			return nil, err
		}
		array = append(array, obj)
	}
	s.pos++ // we have already seen the closing "]"

	return array, nil
}

// ReadDict reads a PDF dictionary.
func (s *scanner) ReadDict() (Dict, error) {
	s.depth++
	defer func() { s.depth-- }()
	if s.depth > maxNesting {
		return nil, malformed(s.pos, "dictionaries nested too deeply")
	}

	err := s.SkipString("<<")
	if err != nil {
		return nil, err
	}

	dict := Dict{}
	for {
		s.SkipWhiteSpace()
		buf := s.Peek(2)
		if bytes.Equal(buf, []byte(">>")) {
			break
		}
		if len(buf) == 0 {
			return nil, &MalformedFileError{Pos: int64(s.pos), Err: io.ErrUnexpectedEOF}
		}

		key, err := s.ReadName()
		if err != nil {
			return nil, err
		}
		s.SkipWhiteSpace()

		val, err := s.ReadObject()
		if err != nil {
			return nil, err
		}

		// null values are equivalent to missing entries
		if val != nil {
			dict[key] = val
		}
	}
	s.pos += 2

	return dict, nil
}

// ReadStreamData reads the data of a PDF Stream, starting after the Dict.
func (s *scanner) ReadStreamData(dict Dict) (*Stream, error) {
	s.SkipWhiteSpace()
	err := s.SkipString("stream")
	if err != nil {
		return nil, err
	}

	buf := s.Peek(2)
	if len(buf) >= 1 && buf[0] == '\n' {
		s.pos++
	} else if len(buf) >= 2 && buf[0] == '\r' && buf[1] == '\n' {
		s.pos += 2
	} else if len(buf) >= 1 && buf[0] == '\r' && s.lenient {
		s.pos++
	} else if !s.lenient {
		return nil, malformed(s.pos, "missing end-of-line after stream keyword")
	}
	start := s.pos

	var length Integer = -1
	if s.getInt != nil {
		if l, err := s.getInt(dict["Length"]); err == nil {
			length = l
		}
	} else if l, ok := dict["Length"].(Integer); ok {
		length = l
	}

	if length >= 0 && int64(start)+int64(length) <= int64(len(s.buf)) {
		end := start + int(length)
		p := end
		for p < len(s.buf) && isSpace[s.buf[p]] {
			p++
		}
		if bytes.HasPrefix(s.buf[p:], []byte("endstream")) {
			s.pos = p + len("endstream")
			return &Stream{
				Dict: dict,
				Data: bytes.Clone(s.buf[start:end]),
			}, nil
		}
	}
	if !s.lenient {
		return nil, malformed(start, "invalid stream length")
	}

	// Recovery: use everything up to the next "endstream" keyword.
	idx := bytes.Index(s.buf[start:], []byte("endstream"))
	if idx < 0 {
		return nil, malformed(start, "missing endstream")
	}
	end := start + idx
	if end > start && s.buf[end-1] == '\n' {
		end--
	}
	if end > start && s.buf[end-1] == '\r' {
		end--
	}
	s.pos = start + idx + len("endstream")
	return &Stream{
		Dict: dict,
		Data: bytes.Clone(s.buf[start:end]),
	}, nil
}

// readHeaderVersion locates the "%PDF-x.y" header near the start of the
// buffer.  It returns the offset of the header and the version.
func readHeaderVersion(buf []byte) (int, Version, error) {
	const searchLimit = 1024
	head := buf
	if len(head) > searchLimit {
		head = head[:searchLimit]
	}
	offs := bytes.Index(head, []byte("%PDF-"))
	if offs < 0 || len(buf) < offs+8 {
		return 0, 0, &MalformedFileError{
			Err: errHeaderNotFound,
		}
	}
	verString := string(buf[offs+5 : offs+8])
	version, err := ParseVersion(verString)
	if err != nil {
		return 0, 0, &MalformedFileError{Pos: int64(offs + 5), Err: err}
	}
	return offs, version, nil
}

// Peek returns a view of the next n bytes of input.  At the end of the
// input, a short slice is returned.
func (s *scanner) Peek(n int) []byte {
	end := s.pos + n
	if end > len(s.buf) {
		end = len(s.buf)
	}
	return s.buf[s.pos:end]
}

// ScanBytes advances the read position while accept returns true.
func (s *scanner) ScanBytes(accept func(c byte) bool) {
	for s.pos < len(s.buf) && accept(s.buf[s.pos]) {
		s.pos++
	}
}

// SkipWhiteSpace skips white space and comments.
func (s *scanner) SkipWhiteSpace() {
	isComment := false
	s.ScanBytes(func(c byte) bool {
		if isComment {
			if c == '\r' || c == '\n' {
				isComment = false
			}
		} else if c == '%' {
			isComment = true
		} else {
			return isSpace[c]
		}
		return true
	})
}

// SkipString skips the literal text pat, or returns an error if the input
// does not continue with pat.
func (s *scanner) SkipString(pat string) error {
	buf := s.Peek(len(pat))
	if !bytes.Equal(buf, []byte(pat)) {
		return &MalformedFileError{
			Pos: int64(s.pos),
			Err: fmt.Errorf("expected %q but found %q", pat, string(buf)),
		}
	}
	s.pos += len(pat)
	return nil
}

// atKeyword reports whether the input continues with the keyword kw,
// followed by white space, a delimiter, or the end of input.
func (s *scanner) atKeyword(kw string) bool {
	if !bytes.HasPrefix(s.buf[s.pos:], []byte(kw)) {
		return false
	}
	next := s.pos + len(kw)
	return next >= len(s.buf) || isSpace[s.buf[next]] || isDelimiter[s.buf[next]]
}

var (
	isSpace = map[byte]bool{
		0:  true,
		9:  true,
		10: true,
		12: true,
		13: true,
		32: true,
	}
	isDelimiter = map[byte]bool{
		'(': true,
		')': true,
		'<': true,
		'>': true,
		'[': true,
		']': true,
		'{': true,
		'}': true,
		'/': true,
		'%': true,
	}
)
