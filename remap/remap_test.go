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

package remap

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"

	"seehuhn.de/go/pdfmerge/pdf"
)

func ref(number uint32, generation uint16) pdf.Reference {
	return pdf.NewReference(number, generation)
}

func TestAllocate(t *testing.T) {
	refs := []pdf.Reference{ref(7, 0), ref(2, 3), ref(2, 0), ref(7, 0)}
	table, next := Allocate(refs, 10)

	want := Table{
		ref(2, 0): ref(10, 0),
		ref(2, 3): ref(11, 0),
		ref(7, 0): ref(12, 0),
	}
	if d := cmp.Diff(want, table); d != "" {
		t.Errorf("unexpected table (-want +got):\n%s", d)
	}
	if next != 13 {
		t.Errorf("wrong counter %d", next)
	}

	// the input must not be reordered
	if refs[0] != ref(7, 0) || refs[1] != ref(2, 3) {
		t.Error("input modified")
	}
}

func TestAllocateEmpty(t *testing.T) {
	table, next := Allocate(nil, 5)
	if len(table) != 0 || next != 5 {
		t.Errorf("got %v, %d", table, next)
	}
}

func TestAllocateLarge(t *testing.T) {
	refs := []pdf.Reference{ref(1, 0), ref(2, 0)}
	_, next := Allocate(refs, MaxNumber)
	if next != MaxNumber+2 {
		t.Errorf("counter overflowed: %d", next)
	}
	if next <= math.MaxUint32 {
		t.Error("exhausted object numbers not visible in counter")
	}
}

func TestRewrite(t *testing.T) {
	table := Table{
		ref(1, 0): ref(101, 0),
		ref(2, 5): ref(102, 0),
	}

	in := pdf.Dict{
		"Type":   pdf.Name("Page"),
		"Parent": ref(1, 0),
		"Kids":   pdf.Array{ref(2, 5), ref(3, 0), pdf.Integer(4)},
		"Nested": pdf.Dict{
			"A": pdf.Array{pdf.Array{ref(1, 0)}},
			"B": pdf.String("1 0 R"),
		},
		"Gen": ref(2, 0),
	}
	want := pdf.Dict{
		"Type":   pdf.Name("Page"),
		"Parent": ref(101, 0),
		"Kids":   pdf.Array{ref(102, 0), ref(3, 0), pdf.Integer(4)},
		"Nested": pdf.Dict{
			"A": pdf.Array{pdf.Array{ref(101, 0)}},
			"B": pdf.String("1 0 R"),
		},
		"Gen": ref(2, 0),
	}

	got := Rewrite(in, table)
	if d := cmp.Diff(want, got); d != "" {
		t.Errorf("unexpected result (-want +got):\n%s", d)
	}

	// the input must be unchanged
	if in["Parent"] != ref(1, 0) {
		t.Error("input modified")
	}
	got.(pdf.Dict)["Nested"].(pdf.Dict)["B"] = pdf.Integer(0)
	if _, ok := in["Nested"].(pdf.Dict)["B"].(pdf.String); !ok {
		t.Error("copy shares structure with the input")
	}
}

func TestRewriteStream(t *testing.T) {
	table := Table{ref(4, 0): ref(8, 0)}
	data := []byte("q 1 0 0 1 0 0 cm /Im1 Do Q")
	in := &pdf.Stream{
		Dict: pdf.Dict{
			"Length":    ref(4, 0),
			"Resources": pdf.Dict{"XObject": pdf.Dict{"Im1": ref(4, 0)}},
		},
		Data: data,
	}

	got, ok := Rewrite(in, table).(*pdf.Stream)
	if !ok {
		t.Fatal("stream not returned as stream")
	}
	if got == in {
		t.Error("stream not copied")
	}
	wantDict := pdf.Dict{
		"Length":    ref(8, 0),
		"Resources": pdf.Dict{"XObject": pdf.Dict{"Im1": ref(8, 0)}},
	}
	if d := cmp.Diff(wantDict, got.Dict); d != "" {
		t.Errorf("unexpected dict (-want +got):\n%s", d)
	}
	if string(got.Data) != string(data) {
		t.Errorf("stream data changed: %q", got.Data)
	}
	if in.Dict["Length"] != ref(4, 0) {
		t.Error("input modified")
	}
}

func TestRewriteScalars(t *testing.T) {
	table := Table{ref(1, 0): ref(2, 0)}
	for _, obj := range []pdf.Object{
		nil,
		pdf.Boolean(true),
		pdf.Integer(1),
		pdf.Real(1.5),
		pdf.Name("R"),
		pdf.String("x"),
		ref(9, 0),
	} {
		got := Rewrite(obj, table)
		if d := cmp.Diff(obj, got); d != "" {
			t.Errorf("%v changed (-want +got):\n%s", obj, d)
		}
	}
}

func TestRewriteCycle(t *testing.T) {
	// a page and its parent refer to each other
	table := Table{ref(1, 0): ref(11, 0), ref(2, 0): ref(12, 0)}
	parent := pdf.Dict{"Kids": pdf.Array{ref(2, 0)}}
	page := pdf.Dict{"Parent": ref(1, 0)}

	gotParent := Rewrite(parent, table).(pdf.Dict)
	gotPage := Rewrite(page, table).(pdf.Dict)
	if gotParent["Kids"].(pdf.Array)[0] != ref(12, 0) || gotPage["Parent"] != ref(11, 0) {
		t.Errorf("wrong result %v %v", gotParent, gotPage)
	}
}

func TestTableRefs(t *testing.T) {
	table := Table{ref(1, 0): ref(11, 0), ref(2, 0): ref(12, 0)}

	got, _, ok := table.Refs([]pdf.Reference{ref(2, 0), ref(1, 0)})
	if !ok {
		t.Fatal("translation failed")
	}
	if d := cmp.Diff([]pdf.Reference{ref(12, 0), ref(11, 0)}, got); d != "" {
		t.Errorf("unexpected references (-want +got):\n%s", d)
	}

	_, missing, ok := table.Refs([]pdf.Reference{ref(1, 0), ref(3, 0)})
	if ok || missing != ref(3, 0) {
		t.Errorf("missing reference not reported: %v %s", ok, missing)
	}
}
