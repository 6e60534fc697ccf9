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

package server

import (
	"github.com/cespare/xxhash/v2"
	lru "github.com/hashicorp/golang-lru/v2"

	"seehuhn.de/go/pdfmerge/pagetree"
)

// cacheKey identifies an uploaded file by its hash and length.
type cacheKey struct {
	hash uint64
	size int
}

func keyFor(buf []byte) cacheKey {
	return cacheKey{hash: xxhash.Sum64(buf), size: len(buf)}
}

// countCache remembers the page sizes of recently uploaded files.
// The cache is safe for concurrent use.
type countCache struct {
	entries *lru.Cache[cacheKey, []pagetree.Size]
}

func newCountCache(size int) (*countCache, error) {
	entries, err := lru.New[cacheKey, []pagetree.Size](size)
	if err != nil {
		return nil, err
	}
	return &countCache{entries: entries}, nil
}

func (c *countCache) Get(buf []byte) ([]pagetree.Size, bool) {
	if c == nil {
		return nil, false
	}
	return c.entries.Get(keyFor(buf))
}

func (c *countCache) Add(buf []byte, sizes []pagetree.Size) {
	if c == nil {
		return
	}
	c.entries.Add(keyFor(buf), sizes)
}
