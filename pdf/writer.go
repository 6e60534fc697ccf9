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
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"math/bits"

	"golang.org/x/exp/slices"
)

// XRefFormat selects the format of the cross-reference section.
type XRefFormat int

// These are the supported cross-reference formats.
const (
	// XRefAuto uses a cross-reference stream for PDF 1.5 and newer, and a
	// cross-reference table otherwise.
	XRefAuto XRefFormat = iota

	// XRefTable always uses a classic cross-reference table.
	XRefTable

	// XRefStream always uses a compressed cross-reference stream.
	XRefStream
)

// WriterOptions controls how PDF files are written.
type WriterOptions struct {
	XRef XRefFormat
}

// Bytes returns the PDF file representation of the document.
func (d *Data) Bytes(opt *WriterOptions) ([]byte, error) {
	buf := &bytes.Buffer{}
	err := d.Write(buf, opt)
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Write writes the document to w, as a complete PDF file.
//
// Objects are written in order of increasing object number.  The /Length
// of every stream is set to the length of the stream data.
func (d *Data) Write(w io.Writer, opt *WriterOptions) error {
	if opt == nil {
		opt = &WriterOptions{}
	}
	if _, ok := d.Root(); !ok {
		return errNoRoot
	}
	verString, err := d.Version.ToString()
	if err != nil {
		return err
	}

	useStream := opt.XRef == XRefStream
	if opt.XRef == XRefAuto && d.Version >= V1_5 {
		useStream = true
	}
	if useStream && d.Version < V1_5 {
		return fmt.Errorf("xref streams require PDF 1.5, have %s", d.Version)
	}

	bw := bufio.NewWriter(w)
	pw := &posWriter{w: bw}

	_, err = fmt.Fprintf(pw, "%%PDF-%s\n%%\x80\x80\x80\x80\n", verString)
	if err != nil {
		return err
	}

	xref := make(map[uint32]*xRefEntry)
	for _, ref := range d.Refs() {
		number := ref.Number()
		if number == 0 {
			return errors.New("invalid object number 0")
		}
		if _, seen := xref[number]; seen {
			return fmt.Errorf("duplicate object number %d", number)
		}
		xref[number] = &xRefEntry{Pos: pw.pos, Generation: ref.Generation()}

		_, err = fmt.Fprintf(pw, "%d %d obj\n", number, ref.Generation())
		if err != nil {
			return err
		}
		err = d.objects[ref].PDF(pw)
		if err != nil {
			return fmt.Errorf("object %s: %w", ref, err)
		}
		_, err = pw.Write([]byte("\nendobj\n"))
		if err != nil {
			return err
		}
	}

	trailer := Dict{}
	for _, key := range []Name{"Root", "Info", "ID"} {
		if val, ok := d.Trailer[key]; ok {
			trailer[key] = val
		}
	}

	xRefPos := pw.pos
	if useStream {
		err = writeXRefStream(pw, xref, d.maxNumber, trailer)
	} else {
		err = writeXRefTable(pw, xref, d.maxNumber, trailer)
	}
	if err != nil {
		return err
	}

	_, err = fmt.Fprintf(pw, "\nstartxref\n%d\n%%%%EOF\n", xRefPos)
	if err != nil {
		return err
	}
	return bw.Flush()
}

func writeXRefTable(w io.Writer, xref map[uint32]*xRefEntry, maxNumber uint32, trailer Dict) error {
	trailer["Size"] = Integer(int64(maxNumber) + 1)

	_, err := w.Write([]byte("xref\n"))
	if err != nil {
		return err
	}
	for _, sec := range xRefSections(xref) {
		_, err = fmt.Fprintf(w, "%d %d\n", sec.Start, sec.Size)
		if err != nil {
			return err
		}
		for i := sec.Start; i < sec.Start+sec.Size; i++ {
			entry := xref[uint32(i)]
			if !entry.IsFree() {
				_, err = fmt.Fprintf(w, "%010d %05d n\r\n", entry.Pos, entry.Generation)
			} else {
				_, err = w.Write([]byte("0000000000 65535 f\r\n"))
			}
			if err != nil {
				return err
			}
		}
	}

	_, err = w.Write([]byte("trailer\n"))
	if err != nil {
		return err
	}
	return trailer.PDF(w)
}

func writeXRefStream(w *posWriter, xref map[uint32]*xRefEntry, maxNumber uint32, dict Dict) error {
	if maxNumber == math.MaxUint32 {
		return errors.New("no object number left for the xref stream")
	}
	self := NewReference(maxNumber+1, 0)
	xref[self.Number()] = &xRefEntry{Pos: w.pos}
	size := int64(self.Number()) + 1

	maxPos := int64(0)
	maxGen := uint16(0)
	for _, entry := range xref {
		if entry.Pos > maxPos {
			maxPos = entry.Pos
		}
		if entry.Generation > maxGen {
			maxGen = entry.Generation
		}
	}
	w2 := (bits.Len64(uint64(maxPos)) + 7) / 8
	w3 := (bits.Len16(maxGen) + 7) / 8

	sections := xRefSections(xref)
	var index Array
	data := &bytes.Buffer{}
	for _, sec := range sections {
		index = append(index, Integer(sec.Start), Integer(sec.Size))
		for i := sec.Start; i < sec.Start+sec.Size; i++ {
			entry := xref[uint32(i)]
			if entry.IsFree() {
				data.WriteByte(0)
				encodeInt(data, 0, w2)
				encodeInt(data, 0, w3)
			} else {
				data.WriteByte(1)
				encodeInt(data, uint64(entry.Pos), w2)
				encodeInt(data, uint64(entry.Generation), w3)
			}
		}
	}
	compressed, err := flateEncode(data.Bytes())
	if err != nil {
		return err
	}

	dict["Type"] = Name("XRef")
	dict["Size"] = Integer(size)
	if len(sections) > 1 {
		dict["Index"] = index
	}
	dict["W"] = Array{Integer(1), Integer(w2), Integer(w3)}
	dict["Filter"] = Name("FlateDecode")
	stm := &Stream{Dict: dict, Data: compressed}

	_, err = fmt.Fprintf(w, "%d 0 obj\n", self.Number())
	if err != nil {
		return err
	}
	err = stm.PDF(w)
	if err != nil {
		return err
	}
	_, err = w.Write([]byte("\nendobj"))
	return err
}

// xRefSections groups the object numbers in xref, together with the free
// object 0, into runs of consecutive numbers.  Gaps between the runs are
// not listed in the cross-reference section, so the size of the section
// only depends on the number of objects.
func xRefSections(xref map[uint32]*xRefEntry) []xRefSubSection {
	numbers := make([]uint32, 0, len(xref)+1)
	numbers = append(numbers, 0)
	for number := range xref {
		if number != 0 {
			numbers = append(numbers, number)
		}
	}
	slices.Sort(numbers)

	var res []xRefSubSection
	for _, number := range numbers {
		k := len(res) - 1
		if k >= 0 && uint32(res[k].Start+res[k].Size) == number {
			res[k].Size++
			continue
		}
		res = append(res, xRefSubSection{Start: int(number), Size: 1})
	}
	return res
}

func encodeInt(data *bytes.Buffer, x uint64, w int) {
	for i := w - 1; i >= 0; i-- {
		data.WriteByte(byte(x >> (i * 8)))
	}
}

type posWriter struct {
	w   io.Writer
	pos int64
}

func (w *posWriter) Write(p []byte) (int, error) {
	n, err := w.w.Write(p)
	w.pos += int64(n)
	return n, err
}
