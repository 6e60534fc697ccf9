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

package pagetree

import (
	"errors"
	"fmt"
	"math"

	"seehuhn.de/go/geom/rect"

	"seehuhn.de/go/pdfmerge/pdf"
)

// maxDepth limits the number of /Parent links followed.
const maxDepth = 64

// Inherited returns the value of an inheritable page attribute.  If the
// page dictionary does not contain key, the /Parent chain is searched.
// If the attribute is not found, nil is returned.
func Inherited(d *pdf.Data, page pdf.Reference, key pdf.Name) (pdf.Object, error) {
	var node pdf.Object = page
	for depth := 0; depth < maxDepth; depth++ {
		dict, err := pdf.GetDict(d, node)
		if err != nil {
			return nil, err
		}
		if dict == nil {
			return nil, nil
		}
		if val, ok := dict[key]; ok && val != nil {
			return val, nil
		}
		node = dict["Parent"]
		if node == nil {
			return nil, nil
		}
	}
	return nil, errInvalidPageTree
}

var errNoRectangle = errors.New("not a rectangle")

// letter is used for pages which do not specify a media box.
var letter = rect.Rect{URx: 612, URy: 792}

// MediaBox returns the media box of a page, taking inheritance from parent
// nodes into account.  If no media box is given, US Letter size is assumed.
func MediaBox(d *pdf.Data, page pdf.Reference) (rect.Rect, error) {
	obj, err := Inherited(d, page, "MediaBox")
	if err != nil {
		return rect.Rect{}, err
	}
	if obj == nil {
		return letter, nil
	}
	box, err := getRect(d, obj)
	if err != nil {
		return rect.Rect{}, fmt.Errorf("page %s: /MediaBox: %w", page, err)
	}
	return box, nil
}

// Rotate returns the rotation of a page in degrees, as a multiple of 90 in
// the range 0 to 270.
func Rotate(d *pdf.Data, page pdf.Reference) (int, error) {
	obj, err := Inherited(d, page, "Rotate")
	if err != nil || obj == nil {
		return 0, err
	}
	r, err := pdf.GetInteger(d, obj)
	if err != nil {
		return 0, err
	}
	if r%90 != 0 {
		return 0, fmt.Errorf("page %s: invalid /Rotate %d", page, r)
	}
	return int((r%360 + 360) % 360), nil
}

func getRect(d *pdf.Data, obj pdf.Object) (rect.Rect, error) {
	a, err := pdf.GetArray(d, obj)
	if err != nil {
		return rect.Rect{}, err
	}
	if len(a) != 4 {
		return rect.Rect{}, errNoRectangle
	}
	var values [4]float64
	for i, x := range a {
		values[i], err = pdf.GetNumber(d, x)
		if err != nil {
			return rect.Rect{}, err
		}
	}
	return rect.Rect{
		LLx: math.Min(values[0], values[2]),
		LLy: math.Min(values[1], values[3]),
		URx: math.Max(values[0], values[2]),
		URy: math.Max(values[1], values[3]),
	}, nil
}
