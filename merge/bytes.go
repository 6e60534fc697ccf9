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
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"seehuhn.de/go/pdfmerge/pdf"
)

// Bytes merges PDF files held in memory and returns the merged file.
//
// The files are parsed concurrently, and then merged using [Documents].
// If several inputs cannot be parsed, the error for the first of these is
// returned.
func Bytes(ctx context.Context, bufs [][]byte, opt *Options) ([]byte, error) {
	if opt == nil {
		opt = &Options{}
	}

	docs, err := Load(ctx, bufs, opt)
	if err != nil {
		return nil, err
	}

	merged, err := Documents(docs, opt)
	if err != nil {
		return nil, err
	}

	out, err := merged.Bytes(&pdf.WriterOptions{XRef: opt.XRef})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerialization, err)
	}
	return out, nil
}

// Load parses PDF files held in memory.
//
// If opt.Lenient is set, files which cannot be parsed normally are read
// again in lenient mode.  If this fails as well, the error from the first
// attempt is reported.
func Load(ctx context.Context, bufs [][]byte, opt *Options) ([]*pdf.Data, error) {
	if len(bufs) == 0 {
		return nil, ErrEmptyInput
	}
	if opt == nil {
		opt = &Options{}
	}
	for i, buf := range bufs {
		if len(buf) == 0 {
			return nil, inputError(i, ErrInvalidInput, errors.New("empty file"))
		}
	}

	docs := make([]*pdf.Data, len(bufs))
	errs := make([]error, len(bufs))

	g := &errgroup.Group{}
	if opt.Workers > 0 {
		g.SetLimit(opt.Workers)
	}
	for i, buf := range bufs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			docs[i], errs[i] = loadOne(i, buf, opt)
			return nil
		})
	}
	err := g.Wait()
	if err != nil {
		return nil, err
	}

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return docs, nil
}

func loadOne(i int, buf []byte, opt *Options) (*pdf.Data, error) {
	doc, err := pdf.Load(buf, nil)
	if err == nil {
		return doc, nil
	}
	if errors.Is(err, pdf.ErrEncrypted) {
		return nil, inputError(i, ErrUnsupported, err)
	}

	if opt.Lenient {
		doc, lenientErr := pdf.Load(buf, &pdf.ReaderOptions{Lenient: true})
		if lenientErr == nil {
			opt.logger().Info("damaged input repaired",
				zap.Int("index", i),
				zap.Error(err))
			return doc, nil
		}
	}
	return nil, inputError(i, ErrUnparseable, err)
}
