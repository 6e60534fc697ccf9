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

// Package profile writes CPU and memory profiles for the command line tool.
package profile

import (
	"fmt"
	"os"
	"runtime"
	"runtime/pprof"

	"go.uber.org/zap"
)

// Start begins CPU profiling (if cpuprofile is non-empty) and returns a stop
// function that stops CPU profiling and writes the memory profile (if
// memprofile is non-empty).  Problems while writing the profiles are
// reported to log.
func Start(cpuprofile, memprofile string, log *zap.Logger) (stop func(), err error) {
	var cpuFile *os.File
	if cpuprofile != "" {
		cpuFile, err = os.Create(cpuprofile)
		if err != nil {
			return nil, fmt.Errorf("could not create CPU profile: %w", err)
		}
		if err = pprof.StartCPUProfile(cpuFile); err != nil {
			cpuFile.Close()
			return nil, fmt.Errorf("could not start CPU profile: %w", err)
		}
	}

	stop = func() {
		if cpuFile != nil {
			pprof.StopCPUProfile()
			cpuFile.Close()
		}
		if memprofile != "" {
			err := writeHeap(memprofile)
			if err != nil {
				log.Error("memory profile", zap.String("file", memprofile), zap.Error(err))
			}
		}
	}
	return stop, nil
}

func writeHeap(fname string) error {
	f, err := os.Create(fname)
	if err != nil {
		return err
	}
	runtime.GC()
	allocs := pprof.Lookup("allocs")
	if allocs == nil {
		f.Close()
		return fmt.Errorf("could not lookup memory profile")
	}
	err = allocs.WriteTo(f, 0)
	if err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
