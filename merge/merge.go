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

// Package merge combines several PDF documents into one.
//
// The first document is used as the base of the merged document.  The
// objects of all further documents are copied into the base under new
// object numbers, and their pages are appended to the page tree of the
// base.  The result has a single page tree node, which lists all pages in
// order.
package merge

import (
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/exp/slices"

	"seehuhn.de/go/pdfmerge/metadata"
	"seehuhn.de/go/pdfmerge/pagetree"
	"seehuhn.de/go/pdfmerge/pdf"
	"seehuhn.de/go/pdfmerge/remap"
)

// Options controls how documents are merged.
// The zero value, and a nil *Options, give the default behaviour.
type Options struct {
	// SkipFeatureCheck disables the check for object streams and
	// encryption, see [CheckFeatures].
	SkipFeatureCheck bool

	// Lenient allows damaged input files to be repaired.  This is only
	// tried after the normal parser has failed.
	Lenient bool

	// Workers limits the number of input files parsed concurrently by
	// [Bytes].  If this is zero, all files are parsed concurrently.
	Workers int

	// Metadata, if set, is added to the merged document.
	Metadata *metadata.Info

	// XRef selects the cross-reference format of the output.
	XRef pdf.XRefFormat

	// Logger receives debug messages.  If this is nil, nothing is logged.
	Logger *zap.Logger
}

func (opt *Options) logger() *zap.Logger {
	if opt == nil || opt.Logger == nil {
		return zap.NewNop()
	}
	return opt.Logger
}

// Documents merges the given documents into one.
//
// The pages of the merged document are the pages of docs[0], followed by
// the pages of docs[1], and so on.  All objects of all documents are
// included in the result, whether they are used or not.  The catalog,
// document information and file identifier are taken from docs[0].
// Documents other than docs[0] which have no pages are skipped.
//
// The input documents are not modified, and the same document may appear
// more than once in docs.  On error, no document is returned.
func Documents(docs []*pdf.Data, opt *Options) (*pdf.Data, error) {
	if len(docs) == 0 {
		return nil, ErrEmptyInput
	}
	if opt == nil {
		opt = &Options{}
	}
	log := opt.logger()

	for i, doc := range docs {
		if doc == nil {
			return nil, inputError(i, ErrInvalidInput, errors.New("missing document"))
		}
	}
	if !opt.SkipFeatureCheck {
		for i, doc := range docs {
			err := CheckFeatures(doc)
			if err != nil {
				return nil, inputError(i, ErrUnsupported, err)
			}
		}
	}

	basePages, err := pagetree.FindPages(docs[0])
	if err != nil {
		return nil, pageTreeError(0, err)
	}
	merged := docs[0].Clone()
	pages := slices.Clone(basePages)
	log.Debug("base document",
		zap.Int("objects", merged.Len()),
		zap.Int("pages", len(pages)),
		zap.Stringer("version", merged.Version))

	next := uint64(merged.MaxNumber()) + 1
	for i := 1; i < len(docs); i++ {
		doc := docs[i]

		docPages, err := pagetree.FindPages(doc)
		if err != nil {
			return nil, pageTreeError(i, err)
		}
		if len(docPages) == 0 {
			log.Debug("skipping document without pages", zap.Int("index", i))
			continue
		}

		refs := doc.Refs()
		table, newNext := remap.Allocate(refs, next)
		if newNext-1 > remap.MaxNumber {
			return nil, inputError(i, ErrTooManyObjects,
				fmt.Errorf("object number %d out of range", newNext-1))
		}
		for _, ref := range refs {
			obj, _ := doc.Get(ref)
			merged.Put(table[ref], remap.Rewrite(obj, table))
		}

		newPages, missing, ok := table.Refs(docPages)
		if !ok {
			return nil, inputError(i, ErrPageUnresolved, fmt.Errorf("page %s", missing))
		}
		pages = append(pages, newPages...)
		next = newNext

		if doc.Version > merged.Version {
			merged.Version = doc.Version
		}

		log.Debug("document merged",
			zap.Int("index", i),
			zap.Int("objects", len(refs)),
			zap.Int("pages", len(docPages)),
			zap.Uint64("next", next))
	}

	err = pagetree.Flatten(merged, pages)
	if err != nil {
		return nil, err
	}

	if opt.Metadata != nil {
		err = metadata.Stamp(merged, opt.Metadata)
		if err != nil {
			return nil, err
		}
	}

	log.Debug("merge complete",
		zap.Int("documents", len(docs)),
		zap.Int("objects", merged.Len()),
		zap.Int("pages", len(pages)))
	return merged, nil
}
