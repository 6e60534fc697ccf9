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
	"errors"
	"strings"
	"time"
)

var errInvalidDate = errors.New("invalid PDF date")

// parseDate parses a date string of the form "D:YYYYMMDDHHmmSSOHH'mm'".
// All fields after the year are optional.
func parseDate(s string) (time.Time, error) {
	s = strings.TrimPrefix(s, "D:")
	s = strings.TrimSpace(s)

	// separate the time zone
	var zone string
	if idx := strings.IndexAny(s, "Z+-"); idx >= 0 {
		zone = s[idx:]
		s = s[:idx]
	}
	if len(s) < 4 || len(s) > 14 || len(s)%2 != 0 {
		return time.Time{}, errInvalidDate
	}

	// fill in defaults for the missing fields
	s += "0101000000"[len(s)-4:]
	t, err := time.Parse("20060102150405", s)
	if err != nil {
		return time.Time{}, errInvalidDate
	}

	loc := time.UTC
	if zone != "" && zone[0] != 'Z' {
		digits := strings.Map(func(r rune) rune {
			if r >= '0' && r <= '9' {
				return r
			}
			return -1
		}, zone[1:])
		var hh, mm int
		switch len(digits) {
		case 4:
			mm = int(digits[2]-'0')*10 + int(digits[3]-'0')
			fallthrough
		case 2:
			hh = int(digits[0]-'0')*10 + int(digits[1]-'0')
		default:
			return time.Time{}, errInvalidDate
		}
		offset := hh*3600 + mm*60
		if zone[0] == '-' {
			offset = -offset
		}
		loc = time.FixedZone("", offset)
	}

	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, loc), nil
}
