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

// Package config holds the settings for the pdf-merge server.
//
// Settings are read from a YAML file.  Values missing from the file keep
// their defaults, see [Default].
package config

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/viant/afs"
	"gopkg.in/yaml.v3"
)

// Config is the top-level configuration.
type Config struct {
	Server Server `yaml:"server"`
	Merge  Merge  `yaml:"merge"`
	Cache  Cache  `yaml:"cache"`
}

// Server configures the HTTP listener.
type Server struct {
	Address string `yaml:"address"`

	// BodyLimit is the maximum size of a request body, in bytes.
	BodyLimit int64 `yaml:"body_limit"`

	// CORSOrigins lists the origins allowed to call the API.
	CORSOrigins []string `yaml:"cors_origins"`

	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// Merge configures how uploaded files are merged.
type Merge struct {
	// MinFiles is the smallest number of files accepted by the merge
	// endpoint.
	MinFiles int `yaml:"min_files"`

	// Workers limits the number of files parsed concurrently for one
	// request.  Zero means no limit.
	Workers int `yaml:"workers"`

	Lenient      bool `yaml:"lenient"`
	FeatureCheck bool `yaml:"feature_check"`
}

// Cache configures the page count cache.
type Cache struct {
	// Size is the number of entries kept.  Zero disables the cache.
	Size int `yaml:"size"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Server: Server{
			Address:      "localhost:8080",
			BodyLimit:    64 << 20,
			CORSOrigins:  []string{"http://localhost:3000"},
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 60 * time.Second,
		},
		Merge: Merge{
			MinFiles:     2,
			Workers:      4,
			FeatureCheck: true,
		},
		Cache: Cache{
			Size: 256,
		},
	}
}

// Load reads the configuration from the given location.  The location can
// be a file name or any URL supported by github.com/viant/afs.
func Load(ctx context.Context, location string) (*Config, error) {
	fs := afs.New()
	data, err := fs.DownloadWithURL(ctx, location)
	if err != nil {
		return nil, err
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", location, err)
	}
	return cfg, nil
}

// Parse decodes a YAML configuration.  Unknown keys are an error.
func Parse(data []byte) (*Config, error) {
	cfg := Default()

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	err := dec.Decode(cfg)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}

	err = cfg.Validate()
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for invalid values.
func (cfg *Config) Validate() error {
	if cfg.Server.Address == "" {
		return errors.New("server.address is empty")
	}
	if cfg.Server.BodyLimit <= 0 {
		return fmt.Errorf("invalid server.body_limit %d", cfg.Server.BodyLimit)
	}
	if cfg.Merge.MinFiles < 1 {
		return fmt.Errorf("invalid merge.min_files %d", cfg.Merge.MinFiles)
	}
	if cfg.Merge.Workers < 0 {
		return fmt.Errorf("invalid merge.workers %d", cfg.Merge.Workers)
	}
	if cfg.Cache.Size < 0 {
		return fmt.Errorf("invalid cache.size %d", cfg.Cache.Size)
	}
	return nil
}
