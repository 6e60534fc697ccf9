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
	"fmt"

	"seehuhn.de/go/pdfmerge/pdf"
)

// CheckFeatures checks whether a document uses features which cannot be
// merged.
//
// Object streams hold several objects in one compressed stream.  The
// objects inside are not loaded, so merging such a document would silently
// lose them.  Encrypted documents cannot be merged either.  The returned
// error wraps [ErrUnsupported].
func CheckFeatures(d *pdf.Data) error {
	if _, isEncrypted := d.Trailer["Encrypt"]; isEncrypted {
		return fmt.Errorf("%w: encryption", ErrUnsupported)
	}
	for _, ref := range d.Refs() {
		obj, _ := d.Get(ref)
		stm, ok := obj.(*pdf.Stream)
		if !ok {
			continue
		}
		if stm.Dict["Type"] == pdf.Name("ObjStm") {
			return fmt.Errorf("%w: object stream %s", ErrUnsupported, ref)
		}
	}
	return nil
}
