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

// Pdf-merge concatenates PDF files.
//
// All objects of the input files are copied into the output file, and the
// pages of all inputs are listed in order in a single page tree.  Input and
// output files can be local paths or URLs supported by github.com/viant/afs.
//
// Usage:
//
//	pdf-merge [flags] input.pdf...
//	pdf-merge count input.pdf...
//	pdf-merge info input.pdf
//	pdf-merge serve [--config pdfmerge.yaml]
//	pdf-merge version
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newApp().run(ctx, os.Args[1:])
	cancel()
	if err != nil {
		os.Exit(1)
	}
}
