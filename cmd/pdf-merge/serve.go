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
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"seehuhn.de/go/pdfmerge/internal/buildinfo"
	"seehuhn.de/go/pdfmerge/internal/config"
	"seehuhn.de/go/pdfmerge/server"
)

func (a *app) serveCmd() *cobra.Command {
	var configFile, addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP merge service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cfg := config.Default()
			if configFile != "" {
				url, err := location(configFile)
				if err != nil {
					return err
				}
				cfg, err = config.Load(ctx, url)
				if err != nil {
					return err
				}
			}
			if addr != "" {
				cfg.Server.Address = addr
			}
			if cmd.Flags().Changed("lenient") {
				cfg.Merge.Lenient = a.lenient
			}

			log := a.log
			if !a.verbose {
				var err error
				log, err = zap.NewProduction()
				if err != nil {
					return err
				}
				defer log.Sync()
			}

			s, err := server.New(cfg, log)
			if err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}
			return s.ListenAndServe(ctx)
		},
	}
	cmd.Flags().StringVar(&configFile, "config", "", "read configuration from `file`")
	cmd.Flags().StringVar(&addr, "addr", "", "listen on `address`, overriding the configuration")
	return cmd
}

func (a *app) versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version of " + toolName,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), buildinfo.Short(toolName))
			return err
		},
	}
}
