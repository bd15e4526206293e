// Copyright 2026 cloudeng llc. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package extsort

import "time"

const (
	// DefaultBatchSize is the default maximum number of values in a run.
	DefaultBatchSize = 1000
	// DefaultWorkers is the default number of concurrent workers used
	// when partitioning in parallel.
	DefaultWorkers = 4
	// DefaultGracePeriod is the default time allowed for the remaining
	// workers in a generation to complete once the end of the input has
	// been reached.
	DefaultGracePeriod = 5 * time.Second
)

// Option represents an option accepted by New, NewPartitioner and NewPool.
type Option func(o *options)

type options struct {
	batchSize int
	workers   int
	parallel  bool
	grace     time.Duration
	ids       IDAllocator
}

func newOptions(opts []Option) options {
	o := options{
		batchSize: DefaultBatchSize,
		workers:   DefaultWorkers,
		grace:     DefaultGracePeriod,
	}
	for _, fn := range opts {
		fn(&o)
	}
	if o.batchSize < 1 {
		o.batchSize = 1
	}
	if o.workers < 1 {
		o.workers = 1
	}
	return o
}

// allocator returns the configured IDAllocator or a new Sequence
// starting at zero.
func (o options) allocator() IDAllocator {
	if o.ids != nil {
		return o.ids
	}
	return NewSequence(0)
}

// WithBatchSize sets the maximum number of values read, sorted and
// stored as a single run.
func WithBatchSize(n int) Option {
	return func(o *options) {
		o.batchSize = n
	}
}

// WithWorkers sets the number of concurrent workers used for
// parallel partitioning.
func WithWorkers(n int) Option {
	return func(o *options) {
		o.workers = n
	}
}

// WithParallel requests parallel, rather than sequential, partitioning.
func WithParallel(v bool) Option {
	return func(o *options) {
		o.parallel = v
	}
}

// WithGracePeriod sets the time that the remaining workers in a generation
// are allowed to complete once any worker has reached the end of the input.
// Workers still running once it expires are canceled.
func WithGracePeriod(d time.Duration) Option {
	return func(o *options) {
		o.grace = d
	}
}

// WithIDAllocator sets the IDAllocator used for new runs.
func WithIDAllocator(ids IDAllocator) Option {
	return func(o *options) {
		o.ids = ids
	}
}
