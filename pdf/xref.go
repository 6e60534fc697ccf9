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
	"errors"
	"fmt"
	"math"
	"strconv"
)

type xRefEntry struct {
	// Pos is the byte offset of the object, or -1 for free entries.
	// For objects stored in an object stream, Pos is the index of the
	// object inside the stream.
	Pos        int64
	Generation uint16

	// InStream is the object stream containing the object, or 0 if the
	// object is stored directly in the file.
	InStream Reference
}

func (entry *xRefEntry) IsFree() bool {
	return entry == nil || entry.Pos < 0 && entry.InStream == 0
}

type xRefSubSection struct {
	Start, Size int
}

func findXRef(buf []byte) (int, error) {
	pos := bytes.LastIndex(buf, []byte("startxref"))
	if pos < 0 {
		return 0, malformed(0, "startxref not found")
	}
	s := newScanner(buf, pos+len("startxref"), nil)
	s.SkipWhiteSpace()
	xRefPos, err := s.ReadInteger()
	if err != nil {
		return 0, err
	}
	if xRefPos <= 0 || int64(xRefPos) >= int64(len(buf)) {
		return 0, malformed(s.pos, "invalid xref position")
	}
	return int(xRefPos), nil
}

// readXRef reads the chain of cross-reference sections, starting with the
// one given after the final "startxref" keyword.  Entries from later
// sections take precedence over earlier ones.  The returned trailer contains
// the /Root, /Encrypt, /Info and /ID entries of the newest trailer.
func readXRef(buf []byte) (map[uint32]*xRefEntry, Dict, error) {
	start, err := findXRef(buf)
	if err != nil {
		return nil, nil, err
	}

	xref := make(map[uint32]*xRefEntry)
	trailer := Dict{}
	first := true
	seen := make(map[int]bool)
	for {
		// avoid xref loops
		if seen[start] {
			break
		}
		seen[start] = true

		s := newScanner(buf, start, nil)
		s.SkipWhiteSpace()

		var dict Dict
		if s.atKeyword("xref") {
			dict, err = readXRefTable(xref, s)
			if err != nil {
				return nil, nil, err
			}

			// hybrid-reference files
			if xRefStm, ok := dict["XRefStm"]; ok {
				zStart, ok := xRefStm.(Integer)
				if !ok || zStart <= 0 || int64(zStart) >= int64(len(buf)) {
					return nil, nil, malformed(start, "invalid /XRefStm")
				}
				_, err = readXRefStream(xref, newScanner(buf, int(zStart), nil))
			}
		} else {
			dict, err = readXRefStream(xref, s)
		}
		if err != nil {
			return nil, nil, err
		}

		if first {
			for _, key := range []Name{"Root", "Encrypt", "Info", "ID"} {
				val, ok := dict[key]
				if ok {
					trailer[key] = val
				}
			}
			first = false
		}

		prev := dict["Prev"]
		if prev == nil {
			break
		}
		prevStart, ok := prev.(Integer)
		if !ok || prevStart <= 0 || int64(prevStart) >= int64(len(buf)) {
			return nil, nil, &MalformedFileError{
				Pos: int64(start),
				Err: fmt.Errorf("invalid /Prev value %s", Format(prev)),
			}
		}
		start = int(prevStart)
	}

	return xref, trailer, nil
}

func readXRefTable(xref map[uint32]*xRefEntry, s *scanner) (Dict, error) {
	err := s.SkipString("xref")
	if err != nil {
		return nil, err
	}
	s.SkipWhiteSpace()

	for {
		buf := s.Peek(1)
		if len(buf) == 0 || buf[0] < '0' || buf[0] > '9' {
			break
		}

		start, err := s.ReadInteger()
		if err != nil {
			return nil, err
		}
		s.SkipWhiteSpace()
		length, err := s.ReadInteger()
		if err != nil {
			return nil, err
		}
		if start < 0 || length < 0 || start+length > math.MaxUint32 {
			return nil, malformed(s.pos, "invalid xref subsection")
		}
		s.SkipWhiteSpace()

		err = decodeXRefSection(xref, s, int(start), int(start+length))
		if err != nil {
			return nil, err
		}
		s.SkipWhiteSpace()
	}

	err = s.SkipString("trailer")
	if err != nil {
		return nil, err
	}
	s.SkipWhiteSpace()
	return s.ReadDict()
}

func decodeXRefSection(xref map[uint32]*xRefEntry, s *scanner, start, end int) error {
	for i := start; i < end; i++ {
		// Entries are nominally 20 bytes long, but some writers use a
		// single-byte end-of-line marker.
		buf := s.Peek(20)
		if len(buf) < 18 {
			return malformed(s.pos, "truncated xref table")
		}

		a, err := strconv.ParseInt(string(buf[:10]), 10, 64)
		if err != nil {
			return &MalformedFileError{Pos: int64(s.pos), Err: err}
		}
		b, err := strconv.ParseUint(string(buf[11:16]), 10, 16)
		if err != nil {
			// fix a common error in some PDF files
			if bytes.HasPrefix(buf, []byte("0000000000 65536 ")) {
				b = 65535
			} else {
				return &MalformedFileError{Pos: int64(s.pos), Err: err}
			}
		}
		c := buf[17]

		if xref[uint32(i)] == nil {
			switch c {
			case 'f':
				xref[uint32(i)] = &xRefEntry{
					Pos:        -1,
					Generation: uint16(b),
				}
			case 'n':
				xref[uint32(i)] = &xRefEntry{
					Pos:        a,
					Generation: uint16(b),
				}
			default:
				return malformed(s.pos, "malformed xref table")
			}
		}

		s.pos += 18
		s.ScanBytes(func(c byte) bool { return c == ' ' || c == '\r' || c == '\n' })
	}
	return nil
}

func readXRefStream(xref map[uint32]*xRefEntry, s *scanner) (Dict, error) {
	_, obj, err := s.ReadIndirectObject()
	if err != nil {
		return nil, err
	}
	stream, ok := obj.(*Stream)
	if !ok {
		return nil, malformed(s.pos, "invalid xref stream")
	}
	dict := stream.Dict

	w, ss, err := checkXRefStreamDict(dict)
	if err != nil {
		return nil, err
	}
	data, err := stream.Decode()
	if err != nil {
		return nil, &MalformedFileError{Pos: int64(s.pos), Err: err}
	}
	err = decodeXRefStream(xref, data, w, ss)
	if err != nil {
		return nil, err
	}

	return dict, nil
}

var errXRefStreamDict = errors.New("invalid xref stream dictionary")

func checkXRefStreamDict(dict Dict) ([]int, []xRefSubSection, error) {
	size, ok := dict["Size"].(Integer)
	if !ok || size < 0 || size > math.MaxUint32 {
		return nil, nil, &MalformedFileError{Err: errXRefStreamDict}
	}
	W, ok := dict["W"].(Array)
	if !ok || len(W) < 3 {
		return nil, nil, &MalformedFileError{Err: errXRefStreamDict}
	}
	var w []int
	for _, Wi := range W[:3] {
		wi, ok := Wi.(Integer)
		if !ok || wi < 0 || wi > 8 {
			return nil, nil, &MalformedFileError{Err: errXRefStreamDict}
		}
		w = append(w, int(wi))
	}

	var ss []xRefSubSection
	switch ind := dict["Index"].(type) {
	case nil:
		ss = append(ss, xRefSubSection{0, int(size)})
	case Array:
		if len(ind)%2 != 0 {
			return nil, nil, &MalformedFileError{Err: errXRefStreamDict}
		}
		for i := 0; i < len(ind); i += 2 {
			start, ok1 := ind[i].(Integer)
			size, ok2 := ind[i+1].(Integer)
			if !ok1 || !ok2 || start < 0 || size < 0 || start+size > math.MaxUint32 {
				return nil, nil, &MalformedFileError{Err: errXRefStreamDict}
			}
			ss = append(ss, xRefSubSection{int(start), int(size)})
		}
	default:
		return nil, nil, &MalformedFileError{Err: errXRefStreamDict}
	}
	return w, ss, nil
}

func decodeXRefStream(xref map[uint32]*xRefEntry, data []byte, w []int, ss []xRefSubSection) error {
	w0, w1, w2 := w[0], w[1], w[2]
	rowLen := w0 + w1 + w2
	if rowLen == 0 {
		return &MalformedFileError{Err: errXRefStreamDict}
	}

	for _, sec := range ss {
		for i := sec.Start; i < sec.Start+sec.Size; i++ {
			if len(data) < rowLen {
				return malformed(0, "truncated xref stream")
			}
			row := data[:rowLen]
			data = data[rowLen:]

			if xref[uint32(i)] != nil {
				continue
			}

			tp := decodeInt(row[:w0])
			if w0 == 0 {
				tp = 1
			}
			a := decodeInt(row[w0 : w0+w1])
			b := decodeInt(row[w0+w1:])
			switch tp {
			case 0:
				// free object
				xref[uint32(i)] = &xRefEntry{
					Pos:        -1,
					Generation: uint16(b),
				}
			case 1:
				// a = byte offset, b = generation number
				xref[uint32(i)] = &xRefEntry{
					Pos:        a,
					Generation: uint16(b),
				}
			case 2:
				// a = number of the object stream, b = index within the stream
				xref[uint32(i)] = &xRefEntry{
					Pos:      b,
					InStream: NewReference(uint32(a), 0),
				}
			}
		}
	}
	return nil
}

func decodeInt(buf []byte) (res int64) {
	for _, x := range buf {
		res = res<<8 | int64(x)
	}
	return res
}
