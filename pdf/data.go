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
	"errors"
	"fmt"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// Data is an in-memory representation of a PDF document.
//
// The document is an object store, mapping references to objects, together
// with the trailer dictionary which identifies the document catalog.
// References between objects are plain values; nothing in the store is
// linked by Go pointers.
type Data struct {
	// Version is the PDF version of the document.
	Version Version

	// Trailer holds the /Root, /Info and /ID entries of the trailer
	// dictionary.  Entries related to the cross-reference table are not
	// stored here; they are regenerated when the document is written.
	Trailer Dict

	objects   map[Reference]Object
	maxNumber uint32
}

// NewData creates an empty document.
func NewData(v Version) *Data {
	return &Data{
		Version: v,
		Trailer: Dict{},
		objects: map[Reference]Object{},
	}
}

// Clone returns a copy of d which can be modified without affecting d.
// The objects themselves are shared between the two copies, so callers
// must replace objects using [Data.Put] rather than modifying them in place.
func (d *Data) Clone() *Data {
	return &Data{
		Version:   d.Version,
		Trailer:   maps.Clone(d.Trailer),
		objects:   maps.Clone(d.objects),
		maxNumber: d.maxNumber,
	}
}

// Get returns the object stored under ref.
// If no such object exists, nil (the PDF null object) is returned.
// This implements the [Getter] interface.
func (d *Data) Get(ref Reference) (Object, error) {
	return d.objects[ref], nil
}

// Has reports whether an object is stored under ref.
func (d *Data) Has(ref Reference) bool {
	_, ok := d.objects[ref]
	return ok
}

// Put stores obj under the reference ref, replacing any previous object.
// If obj is nil, the object is removed from the store.
func (d *Data) Put(ref Reference, obj Object) {
	if obj == nil {
		delete(d.objects, ref)
		return
	}
	d.objects[ref] = obj
	if n := ref.Number(); n > d.maxNumber {
		d.maxNumber = n
	}
}

// Alloc allocates a new object number for an indirect object.
func (d *Data) Alloc() Reference {
	d.maxNumber++
	return NewReference(d.maxNumber, 0)
}

// MaxNumber returns the largest object number used in the document.
// This is at least as large as the number of every reference stored
// in the document.
func (d *Data) MaxNumber() uint32 {
	return d.maxNumber
}

// Len returns the number of objects in the store.
func (d *Data) Len() int {
	return len(d.objects)
}

// Refs returns the references of all objects in the store, in increasing
// order.
func (d *Data) Refs() []Reference {
	refs := make([]Reference, 0, len(d.objects))
	for ref := range d.objects {
		refs = append(refs, ref)
	}
	slices.SortFunc(refs, Reference.Compare)
	return refs
}

// Root returns the reference to the document catalog.
func (d *Data) Root() (Reference, bool) {
	ref, ok := d.Trailer["Root"].(Reference)
	return ref, ok
}

// SetRoot sets the reference to the document catalog.
func (d *Data) SetRoot(ref Reference) {
	if d.Trailer == nil {
		d.Trailer = Dict{}
	}
	d.Trailer["Root"] = ref
}

// Catalog returns the document catalog.
func (d *Data) Catalog() (Dict, error) {
	root, ok := d.Root()
	if !ok {
		return nil, errNoRoot
	}
	catalog, ok := d.objects[root].(Dict)
	if !ok {
		return nil, fmt.Errorf("catalog %s: %w", root, errNoCatalog)
	}
	return catalog, nil
}

var (
	errNoRoot    = errors.New("missing /Root in trailer")
	errNoCatalog = errors.New("document catalog is not a dictionary")
)

// Getter is implemented by object stores which can look up indirect
// objects.
type Getter interface {
	Get(ref Reference) (Object, error)
}

// maxRefChain limits the number of references followed by [Resolve].
const maxRefChain = 16

// Resolve resolves references to indirect objects.
//
// If obj is a [Reference], the corresponding object is looked up in r.
// Chains of references are followed.  Other objects are returned unchanged.
func Resolve(r Getter, obj Object) (Object, error) {
	for i := 0; i < maxRefChain; i++ {
		ref, ok := obj.(Reference)
		if !ok {
			return obj, nil
		}
		var err error
		obj, err = r.Get(ref)
		if err != nil {
			return nil, err
		}
	}
	return nil, errors.New("too many levels of indirection")
}

// GetDict resolves references to indirect objects and makes sure the
// resulting object is a dictionary.  Null objects are returned as nil.
func GetDict(r Getter, obj Object) (Dict, error) {
	obj, err := Resolve(r, obj)
	if err != nil || obj == nil {
		return nil, err
	}
	dict, ok := obj.(Dict)
	if !ok {
		return nil, fmt.Errorf("wrong type, expected Dict but got %T", obj)
	}
	return dict, nil
}

// GetArray resolves references to indirect objects and makes sure the
// resulting object is an array.  Null objects are returned as nil.
func GetArray(r Getter, obj Object) (Array, error) {
	obj, err := Resolve(r, obj)
	if err != nil || obj == nil {
		return nil, err
	}
	array, ok := obj.(Array)
	if !ok {
		return nil, fmt.Errorf("wrong type, expected Array but got %T", obj)
	}
	return array, nil
}

// GetName resolves references to indirect objects and makes sure the
// resulting object is a name.  Null objects are returned as "".
func GetName(r Getter, obj Object) (Name, error) {
	obj, err := Resolve(r, obj)
	if err != nil || obj == nil {
		return "", err
	}
	name, ok := obj.(Name)
	if !ok {
		return "", fmt.Errorf("wrong type, expected Name but got %T", obj)
	}
	return name, nil
}

// GetInteger resolves references to indirect objects and makes sure the
// resulting object is an integer.
func GetInteger(r Getter, obj Object) (Integer, error) {
	obj, err := Resolve(r, obj)
	if err != nil {
		return 0, err
	}
	x, ok := obj.(Integer)
	if !ok {
		return 0, fmt.Errorf("wrong type, expected Integer but got %T", obj)
	}
	return x, nil
}

// GetNumber resolves references to indirect objects and makes sure the
// resulting object is an integer or a real number.
func GetNumber(r Getter, obj Object) (float64, error) {
	obj, err := Resolve(r, obj)
	if err != nil {
		return 0, err
	}
	switch x := obj.(type) {
	case Integer:
		return float64(x), nil
	case Real:
		return float64(x), nil
	}
	return 0, fmt.Errorf("wrong type, expected number but got %T", obj)
}
