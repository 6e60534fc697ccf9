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

package merge

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"seehuhn.de/go/pdfmerge/pdf"
)

func makeFile(t *testing.T, name string, numPages int, xref pdf.XRefFormat) []byte {
	t.Helper()
	buf, err := makeDocument(name, numPages).Bytes(&pdf.WriterOptions{XRef: xref})
	if err != nil {
		t.Fatal(err)
	}
	return buf
}

func TestBytes(t *testing.T) {
	bufs := [][]byte{
		makeFile(t, "a", 2, pdf.XRefTable),
		makeFile(t, "b", 3, pdf.XRefStream),
	}
	for _, format := range []pdf.XRefFormat{pdf.XRefTable, pdf.XRefStream} {
		out, err := Bytes(context.Background(), bufs, &Options{XRef: format, Workers: 1})
		if err != nil {
			t.Fatal(err)
		}
		if !bytes.HasPrefix(out, []byte("%PDF-1.7")) {
			t.Errorf("wrong header %q", out[:8])
		}

		merged, err := pdf.Load(out, nil)
		if err != nil {
			t.Fatal(err)
		}
		want := []string{"a-1", "a-2", "b-1", "b-2", "b-3"}
		if d := cmp.Diff(want, pageLabels(t, merged)); d != "" {
			t.Errorf("unexpected pages (-want +got):\n%s", d)
		}
	}
}

func TestBytesErrors(t *testing.T) {
	good := makeFile(t, "a", 1, pdf.XRefTable)
	garbage := []byte("%PDF-1.7\nthis is not a PDF file\n")

	type testCase struct {
		name  string
		bufs  [][]byte
		kind  error
		index int
	}
	cases := []testCase{
		{"empty list", nil, ErrEmptyInput, -1},
		{"empty file", [][]byte{good, {}}, ErrInvalidInput, 1},
		{"garbage", [][]byte{good, garbage}, ErrUnparseable, 1},
		{"lowest index", [][]byte{good, good, garbage, garbage}, ErrUnparseable, 2},
		{"first file", [][]byte{garbage, good}, ErrUnparseable, 0},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			out, err := Bytes(context.Background(), c.bufs, nil)
			if out != nil {
				t.Error("output produced on error")
			}
			if !errors.Is(err, c.kind) {
				t.Fatalf("expected %v, got %v", c.kind, err)
			}
			if c.index < 0 {
				return
			}
			var inputErr *InputError
			if !errors.As(err, &inputErr) {
				t.Fatalf("expected InputError, got %T", err)
			}
			if inputErr.Index != c.index {
				t.Errorf("wrong index %d != %d", inputErr.Index, c.index)
			}
		})
	}
}

func TestBytesEncrypted(t *testing.T) {
	enc := makeFile(t, "b", 1, pdf.XRefTable)
	enc = bytes.Replace(enc, []byte("trailer\n<<"), []byte("trailer\n<</Encrypt 1 0 R"), 1)
	bufs := [][]byte{makeFile(t, "a", 1, pdf.XRefTable), enc}

	for _, lenient := range []bool{false, true} {
		_, err := Bytes(context.Background(), bufs, &Options{Lenient: lenient})
		if !errors.Is(err, ErrUnsupported) || !errors.Is(err, pdf.ErrEncrypted) {
			t.Errorf("lenient=%t: expected ErrUnsupported, got %v", lenient, err)
		}
	}
}

func TestBytesLenient(t *testing.T) {
	damaged := makeFile(t, "b", 2, pdf.XRefTable)
	damaged = damaged[:bytes.LastIndex(damaged, []byte("endobj"))+len("endobj\n")]
	bufs := [][]byte{makeFile(t, "a", 1, pdf.XRefTable), damaged}

	_, err := Bytes(context.Background(), bufs, nil)
	if !errors.Is(err, ErrUnparseable) {
		t.Fatalf("damaged file accepted in strict mode: %v", err)
	}

	core, logs := observer.New(zap.InfoLevel)
	opt := &Options{Lenient: true, Logger: zap.New(core)}
	out, err := Bytes(context.Background(), bufs, opt)
	if err != nil {
		t.Fatal(err)
	}
	merged, err := pdf.Load(out, nil)
	if err != nil {
		t.Fatal(err)
	}
	if d := cmp.Diff([]string{"a-1", "b-1", "b-2"}, pageLabels(t, merged)); d != "" {
		t.Errorf("unexpected pages (-want +got):\n%s", d)
	}

	entries := logs.FilterMessage("damaged input repaired").All()
	if len(entries) != 1 {
		t.Fatalf("expected one log entry, got %d", len(entries))
	}
	if idx := entries[0].ContextMap()["index"]; idx != int64(1) {
		t.Errorf("wrong index logged: %v", idx)
	}
}

func TestLoadCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Load(ctx, [][]byte{makeFile(t, "a", 1, pdf.XRefTable)}, nil)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestBytesSparseNumbers(t *testing.T) {
	doc := makeDocument("a", 2)
	doc.Put(pdf.NewReference(5000000, 0), pdf.Dict{"Unused": pdf.Name("far")})
	buf, err := doc.Bytes(&pdf.WriterOptions{XRef: pdf.XRefTable})
	if err != nil {
		t.Fatal(err)
	}
	bufs := [][]byte{buf, makeFile(t, "b", 1, pdf.XRefTable)}

	for _, format := range []pdf.XRefFormat{pdf.XRefTable, pdf.XRefStream} {
		out, err := Bytes(context.Background(), bufs, &Options{XRef: format})
		if err != nil {
			t.Fatal(err)
		}
		if len(out) > 8*(len(bufs[0])+len(bufs[1])) {
			t.Errorf("%d bytes of input gave %d bytes of output", len(bufs[0])+len(bufs[1]), len(out))
		}
		merged, err := pdf.Load(out, nil)
		if err != nil {
			t.Fatal(err)
		}
		if d := cmp.Diff([]string{"a-1", "a-2", "b-1"}, pageLabels(t, merged)); d != "" {
			t.Errorf("unexpected pages (-want +got):\n%s", d)
		}
	}
}
