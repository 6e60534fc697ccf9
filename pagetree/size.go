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
	"seehuhn.de/go/pdfmerge/pdf"
)

// Size is the size of a page as displayed, in PDF units (1/72 inch).
type Size struct {
	Width, Height float64
}

// Sizes returns the sizes of all pages of the document, in page order.
// The page rotation is taken into account.
func Sizes(d *pdf.Data) ([]Size, error) {
	pages, err := FindPages(d)
	if err != nil {
		return nil, err
	}

	res := make([]Size, len(pages))
	for i, page := range pages {
		box, err := MediaBox(d, page)
		if err != nil {
			return nil, err
		}
		rot, err := Rotate(d, page)
		if err != nil {
			return nil, err
		}
		if rot == 90 || rot == 270 {
			res[i] = Size{Width: box.Dy(), Height: box.Dx()}
		} else {
			res[i] = Size{Width: box.Dx(), Height: box.Dy()}
		}
	}
	return res, nil
}
