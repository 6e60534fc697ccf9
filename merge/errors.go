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
	"errors"
	"strconv"

	"seehuhn.de/go/pdfmerge/pagetree"
)

// These errors classify the failures of a merge.  Use [errors.Is] to test
// for them.  A missing or broken page tree root is reported using the
// errors from the pagetree package, see [IsPageRootError].
var (
	ErrEmptyInput     = errors.New("no input documents")
	ErrInvalidInput   = errors.New("invalid input")
	ErrUnparseable    = errors.New("cannot parse PDF document")
	ErrUnsupported    = errors.New("unsupported PDF feature")
	ErrPageUnresolved = errors.New("page reference not resolved")
	ErrTooManyObjects = errors.New("too many objects")
	ErrSerialization  = errors.New("cannot write merged document")
)

// InputError reports a problem with one of the input documents.
type InputError struct {
	// Index is the position of the offending document in the input list,
	// starting from 0.
	Index int

	// Kind is one of the Err* values of this package, or one of the
	// page tree root errors from the pagetree package.
	Kind error

	Err error
}

func (err *InputError) Error() string {
	msg := "input " + strconv.Itoa(err.Index)
	if err.Err == nil {
		return msg + ": " + err.Kind.Error()
	}
	if errors.Is(err.Err, err.Kind) {
		return msg + ": " + err.Err.Error()
	}
	return msg + ": " + err.Kind.Error() + ": " + err.Err.Error()
}

// Unwrap allows [errors.Is] to match both the kind and the cause of the
// error.
func (err *InputError) Unwrap() []error {
	if err.Err == nil {
		return []error{err.Kind}
	}
	return []error{err.Kind, err.Err}
}

func inputError(index int, kind, err error) *InputError {
	return &InputError{Index: index, Kind: kind, Err: err}
}

var pageRootErrors = []error{
	pagetree.ErrNoPageRoot,
	pagetree.ErrPageRootNotReference,
	pagetree.ErrPageRootMissing,
	pagetree.ErrPageRootNotDict,
}

// IsPageRootError reports whether err is caused by a missing or invalid
// page tree root.
func IsPageRootError(err error) bool {
	return pageRootKind(err) != nil
}

func pageRootKind(err error) error {
	for _, kind := range pageRootErrors {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}

// pageTreeError wraps an error returned while reading the page tree of the
// i-th document.  Problems with the page tree root keep their own kind,
// everything else is a parse error.
func pageTreeError(i int, err error) *InputError {
	if kind := pageRootKind(err); kind != nil {
		return inputError(i, kind, err)
	}
	return inputError(i, ErrUnparseable, err)
}
