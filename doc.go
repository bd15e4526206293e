// Copyright 2026 cloudeng llc. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

// Package extsort provides an external sort for streams of newline
// delimited decimal integers that are too large to be sorted in memory.
//
// Sorting proceeds in two phases. In the first, the input is read in
// batches of at most BatchSize values, each batch is sorted in memory and
// written to a runs.Store as a sorted 'run'. This phase may be performed
// sequentially by a Partitioner or by a Pool of concurrent workers that
// share the input via a Source. In the second phase a Merger performs a
// k-way merge of all of the runs, using a min-heap keyed by the current
// head of each run, to produce the sorted output. Each run is deleted as
// soon as it has been fully merged.
//
// Sort may be used with any runs.Store and io.Reader/io.Writer, SortFile
// operates on local files and ensures that the output file is only created
// if the sort succeeds:
//
//	cfg := extsort.DefaultConfig()
//	cfg.Parallel = true
//	stats, err := extsort.SortFile(ctx, cfg, "input.txt", "output.txt")
//
// All failures are reported as errors that match one of ErrStream,
// ErrParse, ErrStorage or ErrConcurrency via errors.Is. Any runs created
// before a failure are deleted before the error is returned. Logging is
// via the slog.Logger, if any, stored in the context using
// cloudeng.io/logging/ctxlog.
package extsort
