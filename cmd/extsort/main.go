// Copyright 2026 cloudeng llc. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

// Command extsort sorts files of newline delimited integers that are too
// large to be sorted in memory. It also provides commands to generate
// random input and to verify that a file is sorted.
package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"math/rand"
	"os"
	"strconv"
	"strings"
	"time"

	"cloudeng.io/cmdutil"
	"cloudeng.io/cmdutil/subcmd"
	"cloudeng.io/extsort"
	"cloudeng.io/logging/ctxlog"
)

const cmdSpec = `name: extsort
summary: external sort for files of newline delimited integers
commands:
  - name: sort
    summary: sort the integers in <input>, writing them in ascending order to <output>
    arguments:
      - <input>
      - <output>
  - name: generate
    summary: write random integers, one per line, to <output>
    arguments:
      - <output>
  - name: verify
    summary: verify that the integers in <file> are in ascending order
    arguments:
      - <file>
  - name: config
    summary: display the configuration that would be used by the sort command
`

var cmdSet = subcmd.MustFromYAML(cmdSpec)

// stdout is used for all non-logging output.
var stdout io.Writer = os.Stdout

type ConfigFlags struct {
	Config      string        `subcmd:"config,,'yaml configuration file, see the config command'"`
	Parallel    bool          `subcmd:"parallel,false,'partition the input using concurrent workers'"`
	BatchSize   int           `subcmd:"batch-size,0,'maximum number of values per run, overrides the configuration file'"`
	Workers     int           `subcmd:"workers,0,'number of concurrent workers, overrides the configuration file'"`
	GracePeriod time.Duration `subcmd:"grace-period,0s,'time allowed for workers to complete once the input is exhausted, overrides the configuration file'"`
	WorkDir     string        `subcmd:"work-dir,,'directory for intermediate runs, a temporary directory is used if not specified'"`
	Encoding    string        `subcmd:"encoding,,'encoding for intermediate runs: text or binary'"`
}

type sortFlags struct {
	ConfigFlags
	cmdutil.LoggingFlags
}

type generateFlags struct {
	Count int   `subcmd:"count,10000,number of integers to generate"`
	Seed  int64 `subcmd:"seed,0,'seed for the random number generator, the current time is used if zero'"`
}

type verifyFlags struct{}

func init() {
	cmdSet.Set("sort").MustRunner(sortCmd, &sortFlags{})
	cmdSet.Set("generate").MustRunner(generateCmd, &generateFlags{})
	cmdSet.Set("verify").MustRunner(verifyCmd, &verifyFlags{})
	cmdSet.Set("config").MustRunner(configCmd, &ConfigFlags{})
}

func main() {
	subcmd.Dispatch(context.Background(), cmdSet)
}

// config returns the configuration file, if any, overridden by any
// flags that were specified.
func (cf ConfigFlags) config() (extsort.Config, error) {
	var cfg extsort.Config
	if len(cf.Config) > 0 {
		var err error
		if cfg, err = extsort.LoadConfig(cf.Config); err != nil {
			return cfg, err
		}
	}
	if cf.Parallel {
		cfg.Parallel = true
	}
	if cf.BatchSize != 0 {
		cfg.BatchSize = cf.BatchSize
	}
	if cf.Workers != 0 {
		cfg.Workers = cf.Workers
	}
	if cf.GracePeriod != 0 {
		cfg.GracePeriod = cf.GracePeriod
	}
	if len(cf.WorkDir) > 0 {
		cfg.WorkDir = cf.WorkDir
	}
	if len(cf.Encoding) > 0 {
		cfg.Encoding = cf.Encoding
	}
	cfg = cfg.WithDefaults()
	return cfg, cfg.Validate()
}

func sortCmd(ctx context.Context, values interface{}, args []string) error {
	fv := values.(*sortFlags)
	cfg, err := fv.config()
	if err != nil {
		return err
	}
	logger, err := fv.LoggingConfig().NewLogger()
	if err != nil {
		return err
	}
	defer logger.Close()
	ctx = ctxlog.WithLogger(ctx, logger.Logger)
	stats, err := extsort.SortFile(ctx, cfg, args[0], args[1])
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "sorted %v values using %v runs (partition: %v, merge: %v)\n",
		stats.Values, stats.Runs, stats.Partition.Round(time.Millisecond), stats.Merge.Round(time.Millisecond))
	return nil
}

func generateCmd(_ context.Context, values interface{}, args []string) error {
	fv := values.(*generateFlags)
	if fv.Count < 0 {
		return fmt.Errorf("count must not be negative: %v", fv.Count)
	}
	seed := fv.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rnd := rand.New(rand.NewSource(seed)) // #nosec: G404
	f, err := os.Create(args[0])
	if err != nil {
		return err
	}
	wr := bufio.NewWriter(f)
	buf := make([]byte, 0, 24)
	for range fv.Count {
		buf = strconv.AppendInt(buf[:0], rnd.Int63()-rnd.Int63(), 10)
		buf = append(buf, '\n')
		if _, err := wr.Write(buf); err != nil {
			f.Close()
			return err
		}
	}
	if err := wr.Flush(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func verifyCmd(_ context.Context, _ interface{}, args []string) error {
	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer f.Close()
	sc := bufio.NewScanner(f)
	var prev, n int64
	for sc.Scan() {
		v, err := strconv.ParseInt(strings.TrimSpace(sc.Text()), 10, 64)
		if err != nil {
			return fmt.Errorf("%v: line %v: %w", args[0], n+1, err)
		}
		if n > 0 && v < prev {
			return fmt.Errorf("%v: line %v: not sorted: %v follows %v", args[0], n+1, v, prev)
		}
		prev = v
		n++
	}
	if err := sc.Err(); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "%v: %v values in ascending order\n", args[0], n)
	return nil
}

func configCmd(_ context.Context, values interface{}, _ []string) error {
	cfg, err := values.(*ConfigFlags).config()
	if err != nil {
		return err
	}
	out, err := cfg.YAML()
	if err != nil {
		return err
	}
	fmt.Fprint(stdout, out)
	return nil
}
