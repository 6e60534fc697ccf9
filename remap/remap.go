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

// Package remap translates object references between the namespaces of
// different PDF documents.
//
// [Allocate] assigns new object numbers to the objects of a source
// document, and [Rewrite] copies objects while translating all
// references they contain.
package remap

import (
	"math"

	"golang.org/x/exp/slices"

	"seehuhn.de/go/pdfmerge/pdf"
)

// MaxNumber is the largest object number which can be used in a PDF file.
const MaxNumber = math.MaxUint32

// A Table maps references in a source document to references in the
// target document.
type Table map[pdf.Reference]pdf.Reference

// Allocate assigns new references to all of refs.
//
// The new object numbers are next, next+1, ..., in the order of the source
// references, and the generation numbers are always 0.  The returned
// counter is the first object number not used by the table.  Duplicate
// entries in refs are allocated only once.
//
// The counter may exceed [MaxNumber]; callers must check this before
// using the table.
func Allocate(refs []pdf.Reference, next uint64) (Table, uint64) {
	sorted := slices.Clone(refs)
	slices.SortFunc(sorted, pdf.Reference.Compare)
	sorted = slices.Compact(sorted)

	t := make(Table, len(sorted))
	for _, ref := range sorted {
		t[ref] = pdf.NewReference(uint32(next), 0)
		next++
	}
	return t, next
}

// Rewrite returns a copy of obj, where all references which appear as keys
// in t are replaced by the corresponding values.  References not listed in
// t are left unchanged.
//
// Arrays, dictionaries and stream dictionaries are copied recursively.
// The data of streams is not decoded and is shared between the original
// and the copy.  References are never followed, so this terminates even
// for cyclic object graphs.
func Rewrite(obj pdf.Object, t Table) pdf.Object {
	switch x := obj.(type) {
	case pdf.Reference:
		if y, ok := t[x]; ok {
			return y
		}
		return x
	case pdf.Array:
		return rewriteArray(x, t)
	case pdf.Dict:
		return rewriteDict(x, t)
	case *pdf.Stream:
		if x == nil {
			return x
		}
		return &pdf.Stream{
			Dict: rewriteDict(x.Dict, t),
			Data: x.Data,
		}
	default:
		return obj
	}
}

func rewriteArray(a pdf.Array, t Table) pdf.Array {
	if a == nil {
		return nil
	}
	res := make(pdf.Array, len(a))
	for i, val := range a {
		res[i] = Rewrite(val, t)
	}
	return res
}

func rewriteDict(d pdf.Dict, t Table) pdf.Dict {
	if d == nil {
		return nil
	}
	res := make(pdf.Dict, len(d))
	for key, val := range d {
		res[key] = Rewrite(val, t)
	}
	return res
}

// Refs translates a list of references through the table.  The second
// return value is false if any of the references is missing from t; in this
// case the first missing reference is returned.
func (t Table) Refs(refs []pdf.Reference) ([]pdf.Reference, pdf.Reference, bool) {
	res := make([]pdf.Reference, len(refs))
	for i, ref := range refs {
		newRef, ok := t[ref]
		if !ok {
			return nil, ref, false
		}
		res[i] = newRef
	}
	return res, 0, true
}
