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

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"seehuhn.de/go/pdfmerge/merge"
	"seehuhn.de/go/pdfmerge/metadata"
	"seehuhn.de/go/pdfmerge/pagetree"
	"seehuhn.de/go/pdfmerge/pdf"
)

func (a *app) countCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "count input.pdf...",
		Short: "Print the number of pages of PDF files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			total := 0
			for _, name := range args {
				doc, err := a.load(cmd.Context(), name)
				if err != nil {
					return err
				}
				pages, err := pagetree.FindPages(doc)
				if err != nil {
					return fmt.Errorf("%s: %w", name, err)
				}
				fmt.Fprintf(out, "%s\t%d\n", name, len(pages))
				total += len(pages)
			}
			if len(args) > 1 {
				fmt.Fprintf(out, "total\t%d\n", total)
			}
			return nil
		},
	}
}

func (a *app) infoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info input.pdf",
		Short: "Print information about a PDF file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			doc, err := a.load(cmd.Context(), name)
			if err != nil {
				return err
			}
			sizes, err := pagetree.Sizes(doc)
			if err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 8, 2, ' ', 0)
			fmt.Fprintf(tw, "file:\t%s\n", name)
			fmt.Fprintf(tw, "version:\t%s\n", doc.Version)
			if title := metadata.Title(doc); title != "" {
				fmt.Fprintf(tw, "title:\t%s\n", title)
			}
			fmt.Fprintf(tw, "objects:\t%d\n", doc.Len())
			fmt.Fprintf(tw, "pages:\t%d\n", len(sizes))
			for i, size := range sizes {
				fmt.Fprintf(tw, "page %d:\t%g x %g\n", i+1, size.Width, size.Height)
			}
			return tw.Flush()
		},
	}
}

// load reads and parses a single PDF file.  Local files are read in place,
// other locations are downloaded first.
func (a *app) load(ctx context.Context, name string) (*pdf.Data, error) {
	if strings.Contains(name, "://") {
		buf, err := a.readInput(ctx, name)
		if err != nil {
			return nil, err
		}
		opt := &merge.Options{Lenient: a.lenient, Logger: a.log}
		docs, err := merge.Load(ctx, [][]byte{buf}, opt)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		return docs[0], nil
	}

	doc, err := a.readLocal(name)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return doc, nil
}

func (a *app) readLocal(name string) (*pdf.Data, error) {
	fd, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer fd.Close()
	fi, err := fd.Stat()
	if err != nil {
		return nil, err
	}

	doc, err := pdf.Read(fd, fi.Size(), nil)
	if err == nil || !a.lenient || errors.Is(err, pdf.ErrEncrypted) {
		return doc, err
	}
	doc, lenientErr := pdf.Read(fd, fi.Size(), &pdf.ReaderOptions{Lenient: true})
	if lenientErr != nil {
		return nil, err
	}
	a.log.Info("damaged input repaired",
		zap.String("file", name),
		zap.Error(err))
	return doc, nil
}
