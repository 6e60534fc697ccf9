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

package metadata

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/text/language"
	"seehuhn.de/go/xmp"

	"seehuhn.de/go/pdfmerge/pdf"
)

func makeDocument(v pdf.Version) *pdf.Data {
	d := pdf.NewData(v)
	catalog := d.Alloc()
	d.Put(catalog, pdf.Dict{"Type": pdf.Name("Catalog")})
	d.SetRoot(catalog)
	return d
}

func TestStampRoundTrip(t *testing.T) {
	d := makeDocument(pdf.V1_7)
	now := time.Date(2026, 10, 18, 12, 30, 0, 0, time.UTC)
	info := &Info{
		Title:        "Merged Document",
		Author:       "Jane Doe",
		Subject:      "Quarterly reports",
		Keywords:     "merge, pdf",
		Producer:     "pdf-merge",
		CreationDate: now,
		ModDate:      now,
	}
	err := Stamp(d, info)
	if err != nil {
		t.Fatal(err)
	}

	// go through the file format once
	buf, err := d.Bytes(nil)
	if err != nil {
		t.Fatal(err)
	}
	d, err = pdf.Load(buf, nil)
	if err != nil {
		t.Fatal(err)
	}

	got, err := Read(d)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(info, got); diff != "" {
		t.Errorf("unexpected info (-want +got):\n%s", diff)
	}

	packet, err := XMP(d)
	if err != nil {
		t.Fatal(err)
	}
	if packet == nil {
		t.Fatal("no XMP metadata")
	}
	want := &xmp.DublinCore{}
	want.Title.Set(language.Und, info.Title)
	want.Creator.Append(xmp.NewProperName(info.Author))
	want.Description.Set(language.Und, info.Subject)
	var gotDC xmp.DublinCore
	packet.Get(&gotDC)
	if diff := cmp.Diff(*want, gotDC); diff != "" {
		t.Errorf("unexpected Dublin Core data (-want +got):\n%s", diff)
	}
}

func TestStampKeepsEntries(t *testing.T) {
	d := makeDocument(pdf.V1_3)
	infoRef := d.Alloc()
	orig := pdf.Dict{
		"Title":  pdf.String("Old Title"),
		"Author": pdf.String("Someone"),
	}
	d.Put(infoRef, orig)
	d.Trailer["Info"] = infoRef

	err := Stamp(d, &Info{Title: "New Title"})
	if err != nil {
		t.Fatal(err)
	}

	got, err := Read(d)
	if err != nil {
		t.Fatal(err)
	}
	if got.Title != "New Title" || got.Author != "Someone" {
		t.Errorf("unexpected info %+v", got)
	}
	if string(orig["Title"].(pdf.String)) != "Old Title" {
		t.Error("original dictionary modified")
	}
	if d.Trailer["Info"] != infoRef {
		t.Error("information dictionary moved")
	}

	// no XMP metadata before PDF 1.4
	catalog, _ := d.Catalog()
	if catalog["Metadata"] != nil {
		t.Error("XMP metadata added to PDF 1.3 file")
	}
}

func TestTitle(t *testing.T) {
	d := makeDocument(pdf.V1_7)
	if title := Title(d); title != "" {
		t.Errorf("unexpected title %q", title)
	}
	err := Stamp(d, &Info{Title: "Grüße aus Köln"})
	if err != nil {
		t.Fatal(err)
	}
	if title := Title(d); title != "Grüße aus Köln" {
		t.Errorf("wrong title %q", title)
	}
}

func TestParseDate(t *testing.T) {
	cases := []struct {
		in   string
		want time.Time
		ok   bool
	}{
		{"D:2026", time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), true},
		{"D:20261018", time.Date(2026, 10, 18, 0, 0, 0, 0, time.UTC), true},
		{"D:20261018123456Z", time.Date(2026, 10, 18, 12, 34, 56, 0, time.UTC), true},
		{"D:20261018123456+02'00'", time.Date(2026, 10, 18, 10, 34, 56, 0, time.UTC), true},
		{"20261018123456-05'30", time.Date(2026, 10, 18, 18, 4, 56, 0, time.UTC), true},
		{"D:202", time.Time{}, false},
		{"D:20261318", time.Time{}, false},
		{"yesterday", time.Time{}, false},
	}
	for _, test := range cases {
		got, err := parseDate(test.in)
		if test.ok != (err == nil) {
			t.Errorf("%q: unexpected error %v", test.in, err)
			continue
		}
		if test.ok && !got.Equal(test.want) {
			t.Errorf("%q: got %s, want %s", test.in, got, test.want)
		}
	}
}
