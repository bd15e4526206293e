// Copyright 2026 cloudeng llc. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package extsort

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"cloudeng.io/errors"
	"cloudeng.io/extsort/runs"
	"cloudeng.io/file/localfs"
	"cloudeng.io/logging/ctxlog"
)

// Stats records the outcome of a sort.
type Stats struct {
	Values      int64         // Number of values sorted.
	Runs        int           // Number of runs created.
	Generations int           // Number of worker generations, parallel mode only.
	Partition   time.Duration // Time spent creating runs.
	Merge       time.Duration // Time spent merging runs.
}

// Sorter sorts streams of integers using a runs.Store for
// intermediate storage.
type Sorter struct {
	store runs.Store
	opts  options
}

// New returns a new instance of Sorter.
func New(store runs.Store, opts ...Option) *Sorter {
	return &Sorter{store: store, opts: newOptions(opts)}
}

type partitioner interface {
	Partition(ctx context.Context, src *Source) ([]runs.ID, error)
}

// Sort reads newline delimited integers from in and writes them in
// non-decreasing order to out. On error, all runs created by the sort
// are deleted and out may contain an incomplete, but ordered, prefix of
// the sorted output.
func (s *Sorter) Sort(ctx context.Context, in io.Reader, out io.Writer) (Stats, error) {
	var stats Stats
	src := NewSource(in)
	opts := []Option{
		WithBatchSize(s.opts.batchSize),
		WithWorkers(s.opts.workers),
		WithGracePeriod(s.opts.grace),
		WithIDAllocator(s.opts.allocator()),
	}
	var pt partitioner
	var pool *Pool
	if s.opts.parallel {
		pool = NewPool(s.store, opts...)
		pt = pool
	} else {
		pt = NewPartitioner(s.store, opts...)
	}

	start := time.Now()
	ids, err := pt.Partition(ctx, src)
	stats.Partition = time.Since(start)
	stats.Values = src.Values()
	if pool != nil {
		stats.Generations = pool.Generations()
	}
	if err != nil {
		return stats, err
	}
	stats.Runs = len(ids)
	logger := ctxlog.Logger(ctx)
	logger.Info("partitioned input",
		"values", stats.Values,
		"runs", stats.Runs,
		"parallel", s.opts.parallel,
		"generations", stats.Generations,
		"duration", stats.Partition)

	start = time.Now()
	n, err := NewMerger(s.store).Merge(ctx, ids, out)
	stats.Merge = time.Since(start)
	if err != nil {
		return stats, err
	}
	if n != stats.Values {
		return stats, newError("merge", ErrStorage,
			fmt.Errorf("merged %v values, but read %v", n, stats.Values))
	}
	logger.Info("merged runs", "values", n, "runs", stats.Runs, "duration", stats.Merge)
	return stats, nil
}

// SortFile sorts the contents of the file input, writing the result to
// output, using the local file system for intermediate storage as
// configured by cfg. The output is written to a temporary file in the same
// directory as output that is renamed to output only when the sort
// succeeds. If cfg.WorkDir is empty a temporary working directory is
// created and removed once the sort is complete.
func SortFile(ctx context.Context, cfg Config, input, output string) (Stats, error) {
	opts, encoding, err := cfg.Options()
	if err != nil {
		return Stats{}, err
	}
	lfs := localfs.New()
	in, err := lfs.OpenCtx(ctx, input)
	if err != nil {
		return Stats{}, newError("open input", ErrStream, err)
	}
	defer in.Close()

	workDir := cfg.WorkDir
	if len(workDir) == 0 {
		workDir, err = os.MkdirTemp("", "extsort-")
		if err != nil {
			return Stats{}, newError("create working directory", ErrStorage, err)
		}
		defer os.RemoveAll(workDir)
	}
	store, err := runs.NewLocal(ctx, workDir, runs.WithEncoding(encoding))
	if err != nil {
		return Stats{}, newError("open working directory", ErrStorage, err)
	}
	defer store.Close()

	out, err := os.CreateTemp(filepath.Dir(output), "."+filepath.Base(output)+".*.tmp")
	if err != nil {
		return Stats{}, newError("create output", ErrStream, err)
	}
	tmp := out.Name()
	discard := func(err error) (Stats, error) {
		return Stats{}, withCleanup(err, errors.NewM(out.Close(), os.Remove(tmp)))
	}

	stats, err := New(store, opts...).Sort(ctx, in, out)
	if err != nil {
		ctxlog.Logger(ctx).Warn("sort failed, discarding output", "output", output, "error", err)
		_, err = discard(err)
		return stats, err
	}
	if err := out.Sync(); err != nil {
		return discard(newError("write output", ErrStream, err))
	}
	if err := out.Close(); err != nil {
		return Stats{}, withCleanup(newError("write output", ErrStream, err), os.Remove(tmp))
	}
	if err := os.Rename(tmp, output); err != nil {
		return Stats{}, withCleanup(newError("write output", ErrStream, err), os.Remove(tmp))
	}
	return stats, nil
}
