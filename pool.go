// Copyright 2026 cloudeng llc. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package extsort

import (
	"context"
	"fmt"
	"sync"
	"time"

	"cloudeng.io/errors"
	"cloudeng.io/extsort/runs"
	"cloudeng.io/logging/ctxlog"
	"cloudeng.io/sync/errgroup"
)

// Pool splits its input into sorted runs using a fixed number of concurrent
// workers. Work is issued in generations: each generation runs exactly one
// task per worker and a new generation is only started once every task in
// the previous one has completed. Each task reads a single batch from the
// shared Source, sorts it and stores it as a run. Once any task finds the
// Source to be exhausted no further generations are started, and the
// remaining tasks in the current generation are allowed the configured grace
// period to complete before being canceled.
type Pool struct {
	store       runs.Store
	opts        options
	generations int
}

// NewPool returns a new instance of Pool. The WithBatchSize, WithWorkers,
// WithGracePeriod and WithIDAllocator options are honoured.
func NewPool(store runs.Store, opts ...Option) *Pool {
	return &Pool{store: store, opts: newOptions(opts)}
}

// Generations returns the number of generations dispatched by the most
// recent call to Partition.
func (p *Pool) Generations() int {
	return p.generations
}

// Partition reads src until it is exhausted and returns the ids of the runs
// created. The order of the ids is not significant. The first failure
// encountered by any task cancels the remaining tasks in its generation and
// is returned; all of the runs created so far are deleted before returning.
func (p *Pool) Partition(ctx context.Context, src *Source) ([]runs.ID, error) {
	ids := p.opts.allocator()
	batches := make([][]int64, p.opts.workers)
	for i := range batches {
		batches[i] = make([]int64, p.opts.batchSize)
	}
	p.generations = 0
	var created []runs.ID
	for {
		if err := ctx.Err(); err != nil {
			err = newError("partition", ErrConcurrency, err)
			return nil, withCleanup(err, deleteRuns(ctx, p.store, created))
		}
		p.generations++
		produced, exhausted, err := p.generation(ctx, src, ids, batches)
		created = append(created, produced...)
		if err != nil {
			return nil, withCleanup(err, deleteRuns(ctx, p.store, created))
		}
		if exhausted {
			ctxlog.Logger(ctx).Debug("input exhausted", "generations", p.generations, "runs", len(created))
			return created, nil
		}
	}
}

// generation runs a single generation of tasks and returns the ids of the
// runs that were successfully created, even when an error is returned, and
// whether the end of the input was reached.
func (p *Pool) generation(ctx context.Context, src *Source, ids IDAllocator, batches [][]int64) ([]runs.ID, bool, error) {
	gctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g := errgroup.WithCancel(cancel)

	var once sync.Once
	exhausted := make(chan struct{})
	slots := make([]runs.ID, len(batches))
	produced := make([]bool, len(batches))

	for i := range batches {
		slots[i] = ids.Next()
		g.Go(func() error {
			n, err := src.ReadBatch(gctx, batches[i])
			if err != nil {
				return err
			}
			if n == 0 {
				once.Do(func() { close(exhausted) })
				return nil
			}
			if err := sortAndStore(gctx, p.store, slots[i], batches[i][:n]); err != nil {
				return err
			}
			produced[i] = true
			return nil
		})
	}

	done := make(chan error, 1)
	go func() {
		done <- g.Wait()
	}()

	var err error
	reachedEnd := false
	select {
	case err = <-done:
	case <-exhausted:
		reachedEnd = true
		err = p.awaitGrace(cancel, done)
	}
	select {
	case <-exhausted:
		reachedEnd = true
	default:
	}

	var created []runs.ID
	for i, ok := range produced {
		if ok {
			created = append(created, slots[i])
		}
	}
	if err != nil {
		return created, reachedEnd, newError("partition", ErrConcurrency, err)
	}
	return created, reachedEnd, nil
}

// awaitGrace waits for the remaining tasks in a generation to complete,
// canceling them if they do not do so within the grace period.
func (p *Pool) awaitGrace(cancel func(), done <-chan error) error {
	timer := time.NewTimer(p.opts.grace)
	defer timer.Stop()
	select {
	case err := <-done:
		return err
	case <-timer.C:
	}
	cancel()
	// Canceled tasks abort their runs and return promptly.
	err := <-done
	timeout := fmt.Errorf("tasks still running %v after the end of the input was reached", p.opts.grace)
	return errors.NewM(newError("partition", ErrConcurrency, timeout), err)
}
