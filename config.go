// Copyright 2026 cloudeng llc. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package extsort

import (
	"context"
	"fmt"
	"time"

	"cloudeng.io/cmdutil/cmdyaml"
	"cloudeng.io/errors"
	"cloudeng.io/extsort/runs"
	"gopkg.in/yaml.v3"
)

// Config represents the configuration of a sort as read from a
// YAML file, for example:
//
//	batch_size: 1000
//	workers: 4
//	parallel: true
//	grace_period: 5s
//	work_dir: /tmp/extsort
//	encoding: binary
//
// Zero values are replaced by their defaults.
type Config struct {
	BatchSize   int           `yaml:"batch_size"`
	Workers     int           `yaml:"workers"`
	Parallel    bool          `yaml:"parallel"`
	GracePeriod time.Duration `yaml:"grace_period"`
	WorkDir     string        `yaml:"work_dir"`
	Encoding    string        `yaml:"encoding"`
}

// DefaultConfig returns a Config with all defaults applied.
func DefaultConfig() Config {
	return Config{}.WithDefaults()
}

// WithDefaults returns a copy of c with defaults substituted
// for zero values.
func (c Config) WithDefaults() Config {
	if c.BatchSize == 0 {
		c.BatchSize = DefaultBatchSize
	}
	if c.Workers == 0 {
		c.Workers = DefaultWorkers
	}
	if c.GracePeriod == 0 {
		c.GracePeriod = DefaultGracePeriod
	}
	if len(c.Encoding) == 0 {
		c.Encoding = runs.Text.String()
	}
	return c
}

// Validate returns an error describing all of the invalid fields in c.
func (c Config) Validate() error {
	c = c.WithDefaults()
	var errs errors.M
	if c.BatchSize < 1 {
		errs.Append(fmt.Errorf("batch_size must be at least 1: %v", c.BatchSize))
	}
	if c.Workers < 1 {
		errs.Append(fmt.Errorf("workers must be at least 1: %v", c.Workers))
	}
	if c.GracePeriod < 0 {
		errs.Append(fmt.Errorf("grace_period must not be negative: %v", c.GracePeriod))
	}
	if _, err := runs.ParseEncoding(c.Encoding); err != nil {
		errs.Append(err)
	}
	return errs.Err()
}

// Options validates c and returns the corresponding options and the
// encoding to be used for runs.
func (c Config) Options() ([]Option, runs.Encoding, error) {
	if err := c.Validate(); err != nil {
		return nil, runs.Text, fmt.Errorf("invalid configuration: %w", err)
	}
	c = c.WithDefaults()
	encoding, _ := runs.ParseEncoding(c.Encoding)
	return []Option{
		WithBatchSize(c.BatchSize),
		WithWorkers(c.Workers),
		WithParallel(c.Parallel),
		WithGracePeriod(c.GracePeriod),
	}, encoding, nil
}

// YAML returns the YAML representation of c.
func (c Config) YAML() (string, error) {
	out, err := yaml.Marshal(c)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// LoadConfig reads a Config from the specified YAML file.
func LoadConfig(filename string) (Config, error) {
	var cfg Config
	if err := cmdyaml.ParseConfigFile(context.Background(), filename, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
