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

// Package pagetree reads and rewrites the page tree of a PDF document.
package pagetree

import (
	"errors"
	"fmt"

	"golang.org/x/exp/maps"

	"seehuhn.de/go/pdfmerge/pdf"
)

// These errors describe problems with the page tree root.
var (
	ErrNoPageRoot           = errors.New("catalog has no /Pages entry")
	ErrPageRootNotReference = errors.New("/Pages is not an indirect reference")
	ErrPageRootMissing      = errors.New("page tree root object not found")
	ErrPageRootNotDict      = errors.New("page tree root is not a dictionary")
)

var errInvalidPageTree = errors.New("invalid page tree")

// Root returns the reference to the root of the page tree, together with
// the root dictionary.
func Root(d *pdf.Data) (pdf.Reference, pdf.Dict, error) {
	catalog, err := d.Catalog()
	if err != nil {
		return 0, nil, fmt.Errorf("%w: %w", ErrNoPageRoot, err)
	}
	pagesObj, ok := catalog["Pages"]
	if !ok || pagesObj == nil {
		return 0, nil, ErrNoPageRoot
	}
	pagesRef, ok := pagesObj.(pdf.Reference)
	if !ok {
		return 0, nil, ErrPageRootNotReference
	}
	obj, _ := d.Get(pagesRef)
	if obj == nil {
		return 0, nil, fmt.Errorf("%s: %w", pagesRef, ErrPageRootMissing)
	}
	root, ok := obj.(pdf.Dict)
	if !ok {
		return 0, nil, fmt.Errorf("%s: %w", pagesRef, ErrPageRootNotDict)
	}
	return pagesRef, root, nil
}

// FindPages returns the references of all pages in the document, in the
// order they appear in the document.
//
// Page tree nodes are visited depth first.  A node is treated as a page if
// its /Type is /Page, or if it has neither /Type nor /Kids.  Intermediate
// nodes without /Kids contribute no pages.  Nodes which are referenced
// more than once are only visited the first time, so the result contains
// no duplicates.
func FindPages(d *pdf.Data) ([]pdf.Reference, error) {
	rootRef, _, err := Root(d)
	if err != nil {
		return nil, err
	}

	var res []pdf.Reference
	todo := []pdf.Reference{rootRef}
	seen := map[pdf.Reference]bool{
		rootRef: true,
	}
	for len(todo) > 0 {
		k := len(todo) - 1
		ref := todo[k]
		todo = todo[:k]

		node, err := pdf.GetDict(d, ref)
		if err != nil {
			return nil, fmt.Errorf("page tree node %s: %w", ref, err)
		}
		if node == nil {
			// dangling references are ignored
			continue
		}
		tp, err := pdf.GetName(d, node["Type"])
		if err != nil {
			return nil, fmt.Errorf("page tree node %s: %w", ref, errInvalidPageTree)
		}
		kidsObj, hasKids := node["Kids"]
		if tp == "Page" || (tp == "" && !hasKids) {
			if ref != rootRef {
				res = append(res, ref)
			}
			continue
		}

		kids, err := pdf.GetArray(d, kidsObj)
		if err != nil {
			return nil, fmt.Errorf("page tree node %s: %w", ref, errInvalidPageTree)
		}
		for i := len(kids) - 1; i >= 0; i-- {
			kidRef, ok := kids[i].(pdf.Reference)
			if !ok || seen[kidRef] {
				continue
			}
			todo = append(todo, kidRef)
			seen[kidRef] = true
		}
	}

	return res, nil
}

// Flatten replaces the page tree of d by a single node, whose children are
// the given pages.
//
// The /Kids entry of the page tree root is set to pages and /Count is set
// to the number of pages.  Intermediate page tree nodes are no longer
// referenced afterwards, and inheritable attributes they held are lost.
// The root dictionary is replaced by a modified copy; the original
// dictionary is not changed.
func Flatten(d *pdf.Data, pages []pdf.Reference) error {
	rootRef, root, err := Root(d)
	if err != nil {
		return err
	}

	kids := make(pdf.Array, len(pages))
	for i, ref := range pages {
		kids[i] = ref
	}

	newRoot := maps.Clone(root)
	newRoot["Kids"] = kids
	newRoot["Count"] = pdf.Integer(len(pages))
	d.Put(rootRef, newRoot)
	return nil
}

// NumPages returns the number of pages in the document, as given by the
// /Count entry of the page tree root.
func NumPages(d *pdf.Data) (int, error) {
	_, root, err := Root(d)
	if err != nil {
		return 0, err
	}
	count, err := pdf.GetInteger(d, root["Count"])
	if err != nil {
		return 0, err
	}
	if count < 0 || int64(count) > int64(d.Len()) {
		return 0, errInvalidPageTree
	}
	return int(count), nil
}
