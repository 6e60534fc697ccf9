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
	"io"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/viant/afs"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"seehuhn.de/go/pdfmerge/internal/buildinfo"
	"seehuhn.de/go/pdfmerge/internal/profile"
	"seehuhn.de/go/pdfmerge/merge"
	"seehuhn.de/go/pdfmerge/metadata"
)

const toolName = "pdf-merge"

// app holds the state shared by all subcommands.
type app struct {
	fs     afs.Service
	log    *zap.Logger
	stdout io.Writer

	verbose    bool
	cpuprofile string
	memprofile string
	lenient    bool

	// merge flags
	output         string
	force          bool
	noFeatureCheck bool
	title          string
}

func newApp() *app {
	return &app{
		fs:  afs.New(),
		log: zap.NewNop(),
	}
}

func (a *app) run(ctx context.Context, args []string) error {
	root := a.rootCmd()
	root.SetArgs(args)
	if a.stdout != nil {
		root.SetOut(a.stdout)
	}

	var stop func()
	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		log, err := newLogger(a.verbose)
		if err != nil {
			return err
		}
		a.log = log

		stop, err = profile.Start(a.cpuprofile, a.memprofile, a.log)
		return err
	}

	err := root.ExecuteContext(ctx)
	if stop != nil {
		stop()
	}
	_ = a.log.Sync()
	return err
}

func (a *app) rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          toolName + " [flags] input.pdf...",
		Short:        "Concatenate PDF files",
		Version:      buildinfo.Version(),
		Args:         cobra.MinimumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.merge(cmd, args)
		},
	}

	pflags := cmd.PersistentFlags()
	pflags.BoolVarP(&a.verbose, "verbose", "v", false, "print debug messages")
	pflags.StringVar(&a.cpuprofile, "cpuprofile", "", "write CPU profile to `file`")
	pflags.StringVar(&a.memprofile, "memprofile", "", "write memory profile to `file`")
	pflags.BoolVar(&a.lenient, "lenient", false, "try to repair damaged input files")

	a.mergeFlags(cmd.Flags())

	cmd.AddCommand(
		a.countCmd(),
		a.infoCmd(),
		a.serveCmd(),
		a.versionCmd(),
	)
	return cmd
}

func (a *app) mergeFlags(flags *pflag.FlagSet) {
	flags.StringVarP(&a.output, "output", "o", "merged.pdf", "output `file`, or - for standard output")
	flags.BoolVarP(&a.force, "force", "f", false, "overwrite the output file if it exists")
	flags.BoolVar(&a.noFeatureCheck, "no-feature-check", false, "merge files which use object streams")
	flags.StringVar(&a.title, "title", "", "set the document title of the output")
}

func (a *app) merge(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	if a.output != "-" && !a.force {
		exists, err := a.exists(ctx, a.output)
		if err != nil {
			return err
		}
		if exists {
			return fmt.Errorf("output file %q already exists", a.output)
		}
	}

	bufs := make([][]byte, len(args))
	for i, fname := range args {
		buf, err := a.readInput(ctx, fname)
		if err != nil {
			return err
		}
		bufs[i] = buf
	}

	opt := &merge.Options{
		SkipFeatureCheck: a.noFeatureCheck,
		Lenient:          a.lenient,
		Logger:           a.log,
	}
	if a.title != "" {
		opt.Metadata = &metadata.Info{
			Title:    a.title,
			Producer: buildinfo.Short(toolName),
			ModDate:  time.Now(),
		}
	}

	out, err := merge.Bytes(ctx, bufs, opt)
	if err != nil {
		var inputErr *merge.InputError
		if errors.As(err, &inputErr) && inputErr.Index < len(args) {
			return fmt.Errorf("%s: %w", args[inputErr.Index], err)
		}
		return err
	}

	err = a.writeOutput(ctx, cmd, a.output, out)
	if err != nil {
		return err
	}
	a.log.Info("merged",
		zap.Int("inputs", len(args)),
		zap.String("output", a.output),
		zap.Int("bytes", len(out)))
	return nil
}

func newLogger(verbose bool) (*zap.Logger, error) {
	cfg := zap.NewDevelopmentConfig()
	cfg.DisableStacktrace = true
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	if !verbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	return cfg.Build()
}
