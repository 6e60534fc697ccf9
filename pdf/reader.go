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
	"io"

	"golang.org/x/exp/slices"
)

// ReaderOptions controls how PDF files are read.
type ReaderOptions struct {
	// Lenient enables recovery from damaged files.  If the cross-reference
	// information is unusable, the object table is rebuilt by scanning the
	// file for "N G obj" headers.  Objects which cannot be parsed are
	// skipped, and wrong stream lengths are tolerated.
	Lenient bool
}

// Read reads a complete PDF file into memory.
func Read(r io.ReaderAt, size int64, opt *ReaderOptions) (*Data, error) {
	if size < 0 {
		return nil, errors.New("negative file size")
	}
	buf := make([]byte, size)
	n, err := r.ReadAt(buf, 0)
	if err != nil && !(err == io.EOF && int64(n) == size) {
		return nil, err
	}
	return Load(buf, opt)
}

// Load parses a PDF file held in memory.
//
// All objects stored directly in the file are loaded.  Objects stored inside
// object streams are not decoded; the object streams themselves are kept as
// ordinary stream objects.  Cross-reference streams are not included in the
// result.  Encrypted files are rejected with [ErrEncrypted].
func Load(buf []byte, opt *ReaderOptions) (*Data, error) {
	if opt == nil {
		opt = &ReaderOptions{}
	}

	_, version, err := readHeaderVersion(buf)
	if err != nil {
		return nil, err
	}

	l := &loader{
		buf:     buf,
		lenient: opt.Lenient,
	}

	var d *Data
	xref, trailer, err := readXRef(buf)
	if err == nil {
		l.xref = xref
		d, err = l.loadFromXRef(version, trailer)
	}
	if err != nil {
		if !opt.Lenient || errors.Is(err, ErrEncrypted) {
			return nil, err
		}
		d, err = l.reconstruct(version)
		if err != nil {
			return nil, err
		}
	}

	// The document catalog can override the version from the file header.
	if catalog, err := d.Catalog(); err == nil {
		if name, ok := catalog["Version"].(Name); ok {
			if v, err := ParseVersion(string(name)); err == nil && v > d.Version {
				d.Version = v
			}
		}
	}

	return d, nil
}

type loader struct {
	buf     []byte
	lenient bool
	xref    map[uint32]*xRefEntry
}

func (l *loader) loadFromXRef(version Version, trailer Dict) (*Data, error) {
	if _, isEncrypted := trailer["Encrypt"]; isEncrypted {
		return nil, ErrEncrypted
	}
	if _, ok := trailer["Root"].(Reference); !ok {
		return nil, malformed(0, "missing or invalid /Root in trailer")
	}

	d := NewData(version)
	for _, key := range []Name{"Root", "Info", "ID"} {
		if val, ok := trailer[key]; ok {
			d.Trailer[key] = val
		}
	}

	numbers := make([]uint32, 0, len(l.xref))
	for number := range l.xref {
		numbers = append(numbers, number)
	}
	slices.Sort(numbers)
	for _, number := range numbers {
		entry := l.xref[number]
		if entry.IsFree() || entry.InStream != 0 {
			// objects inside object streams are not decoded
			continue
		}
		if entry.Pos <= 0 || entry.Pos >= int64(len(l.buf)) {
			if l.lenient {
				continue
			}
			return nil, malformed(0, fmt.Sprintf("object %d: invalid file offset %d", number, entry.Pos))
		}

		s := newScanner(l.buf, int(entry.Pos), l.getInt)
		s.lenient = l.lenient
		ref, obj, err := s.ReadIndirectObject()
		if err == nil && ref.Number() != number {
			err = malformed(int(entry.Pos), fmt.Sprintf("expected object %d, found %d", number, ref.Number()))
		}
		if err != nil {
			if l.lenient {
				continue
			}
			return nil, err
		}
		if isXRefStream(obj) {
			continue
		}
		d.Put(ref, obj)
	}
	return d, nil
}

// getInt resolves the /Length of a stream, which may be an indirect object.
func (l *loader) getInt(obj Object) (Integer, error) {
	switch x := obj.(type) {
	case Integer:
		return x, nil
	case Reference:
		entry := l.xref[x.Number()]
		if entry.IsFree() || entry.InStream != 0 || entry.Pos <= 0 || entry.Pos >= int64(len(l.buf)) {
			return 0, fmt.Errorf("stream length %s not found", x)
		}
		s := newScanner(l.buf, int(entry.Pos), nil)
		_, val, err := s.ReadIndirectObject()
		if err != nil {
			return 0, err
		}
		length, ok := val.(Integer)
		if !ok {
			return 0, fmt.Errorf("stream length %s is not an integer", x)
		}
		return length, nil
	}
	return 0, fmt.Errorf("invalid stream length %s", Format(obj))
}

// reconstruct rebuilds the document by scanning the whole file for
// indirect objects and trailer dictionaries.  Where an object number occurs
// more than once, the last occurrence wins, as in an incrementally updated
// file.
func (l *loader) reconstruct(version Version) (*Data, error) {
	d := NewData(version)
	var trailer Dict

	// Stream lengths can only be resolved once the objects have been
	// located, so we do two passes.
	l.xref = make(map[uint32]*xRefEntry)
	for _, pos := range findObjectHeaders(l.buf) {
		s := newScanner(l.buf, pos, nil)
		s.lenient = true
		ref, _, err := s.ReadIndirectObject()
		if err == nil {
			l.xref[ref.Number()] = &xRefEntry{Pos: int64(pos), Generation: ref.Generation()}
		}
	}

	for _, pos := range findObjectHeaders(l.buf) {
		s := newScanner(l.buf, pos, l.getInt)
		s.lenient = true
		ref, obj, err := s.ReadIndirectObject()
		if err != nil {
			continue
		}
		if isXRefStream(obj) {
			if stm, ok := obj.(*Stream); ok && stm.Dict["Root"] != nil {
				trailer = stm.Dict
			}
			continue
		}
		d.Put(ref, obj)
	}

	for pos := 0; ; {
		idx := bytes.Index(l.buf[pos:], []byte("trailer"))
		if idx < 0 {
			break
		}
		s := newScanner(l.buf, pos+idx+len("trailer"), nil)
		s.lenient = true
		s.SkipWhiteSpace()
		dict, err := s.ReadDict()
		if err == nil && dict["Root"] != nil {
			trailer = dict
		}
		pos += idx + len("trailer")
	}

	if _, isEncrypted := trailer["Encrypt"]; isEncrypted {
		return nil, ErrEncrypted
	}
	for _, key := range []Name{"Root", "Info", "ID"} {
		if val, ok := trailer[key]; ok {
			d.Trailer[key] = val
		}
	}

	if root, ok := d.Root(); !ok || !d.Has(root) {
		root, found := findCatalog(d)
		if !found {
			return nil, malformed(0, "document catalog not found")
		}
		d.SetRoot(root)
	}
	return d, nil
}

// findObjectHeaders returns the positions of all "N G obj" headers in buf.
func findObjectHeaders(buf []byte) []int {
	var res []int
	pos := 0
	for {
		idx := bytes.Index(buf[pos:], []byte("obj"))
		if idx < 0 {
			break
		}
		idx += pos
		pos = idx + 3
		if pos < len(buf) && !isSpace[buf[pos]] && !isDelimiter[buf[pos]] {
			continue
		}

		// walk backwards over "N G "
		i := idx
		ok := true
		for part := 0; part < 2 && ok; part++ {
			j := i
			for j > 0 && isSpace[buf[j-1]] {
				j--
			}
			if j == i {
				ok = false
				break
			}
			k := j
			for k > 0 && buf[k-1] >= '0' && buf[k-1] <= '9' {
				k--
			}
			if k == j {
				ok = false
				break
			}
			i = k
		}
		if !ok || i > 0 && !isSpace[buf[i-1]] && !isDelimiter[buf[i-1]] {
			continue
		}
		res = append(res, i)
	}
	return res
}

func findCatalog(d *Data) (Reference, bool) {
	for _, ref := range d.Refs() {
		dict, ok := d.objects[ref].(Dict)
		if ok && dict["Type"] == Name("Catalog") {
			return ref, true
		}
	}
	return 0, false
}

func isXRefStream(obj Object) bool {
	stm, ok := obj.(*Stream)
	return ok && stm.Dict["Type"] == Name("XRef")
}
