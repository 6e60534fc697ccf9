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
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var errTerminal = errors.New("refusing to write PDF data to a terminal")

// location converts a file name into a URL for afs.  Names which already
// contain a scheme are returned unchanged.
func location(name string) (string, error) {
	if strings.Contains(name, "://") {
		return name, nil
	}
	abs, err := filepath.Abs(name)
	if err != nil {
		return "", err
	}
	return "file://" + filepath.ToSlash(abs), nil
}

func (a *app) readInput(ctx context.Context, name string) ([]byte, error) {
	url, err := location(name)
	if err != nil {
		return nil, err
	}
	data, err := a.fs.DownloadWithURL(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return data, nil
}

func (a *app) exists(ctx context.Context, name string) (bool, error) {
	url, err := location(name)
	if err != nil {
		return false, err
	}
	return a.fs.Exists(ctx, url)
}

// writeOutput stores data under the given name.  The name "-" denotes
// standard output.
func (a *app) writeOutput(ctx context.Context, cmd *cobra.Command, name string, data []byte) error {
	if name == "-" {
		w := cmd.OutOrStdout()
		if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
			return errTerminal
		}
		_, err := w.Write(data)
		return err
	}

	url, err := location(name)
	if err != nil {
		return err
	}
	err = a.fs.Upload(ctx, url, 0o644, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}
