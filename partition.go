// Copyright 2026 cloudeng llc. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package extsort

import (
	"context"
	"slices"

	"cloudeng.io/errors"
	"cloudeng.io/extsort/runs"
	"cloudeng.io/logging/ctxlog"
)

// Partitioner splits its input into sorted runs using a single goroutine.
type Partitioner struct {
	store runs.Store
	opts  options
}

// NewPartitioner returns a new instance of Partitioner. The
// WithBatchSize and WithIDAllocator options are honoured.
func NewPartitioner(store runs.Store, opts ...Option) *Partitioner {
	return &Partitioner{store: store, opts: newOptions(opts)}
}

// Partition reads src until it is exhausted, storing every batch as a
// sorted run and returning the ids of the runs in the order that they
// were created. On error, all of the runs created so far are deleted.
func (p *Partitioner) Partition(ctx context.Context, src *Source) ([]runs.ID, error) {
	ids := p.opts.allocator()
	batch := make([]int64, p.opts.batchSize)
	var created []runs.ID
	for {
		n, err := src.ReadBatch(ctx, batch)
		if err != nil {
			return nil, withCleanup(err, deleteRuns(ctx, p.store, created))
		}
		if n == 0 {
			return created, nil
		}
		id := ids.Next()
		if err := sortAndStore(ctx, p.store, id, batch[:n]); err != nil {
			return nil, withCleanup(err, deleteRuns(ctx, p.store, created))
		}
		created = append(created, id)
	}
}

// appendCheckInterval is the number of values appended to a run
// between checks for cancelation.
const appendCheckInterval = 4096

// sortAndStore sorts batch in place and writes it as run id. The run
// is either completely written or not created at all.
func sortAndStore(ctx context.Context, store runs.Store, id runs.ID, batch []int64) error {
	slices.Sort(batch)
	w, err := store.Create(ctx, id)
	if err != nil {
		if ctx.Err() != nil {
			return newError("create run", ErrConcurrency, err)
		}
		return newError("create run", ErrStorage, err)
	}
	for i, v := range batch {
		if i%appendCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return newError("write run", ErrConcurrency, errors.NewM(err, w.Abort()))
			}
		}
		if err := w.Append(v); err != nil {
			return newError("write run", ErrStorage, errors.NewM(err, w.Abort()))
		}
	}
	if err := w.Close(); err != nil {
		return newError("close run", ErrStorage, err)
	}
	ctxlog.Logger(ctx).Debug("created run", "id", id, "values", len(batch))
	return nil
}

// deleteRuns deletes all of the supplied runs, it is used to clean up
// after a failure and hence ignores any cancelation of ctx.
func deleteRuns(ctx context.Context, store runs.Store, ids []runs.ID) error {
	ctx = context.WithoutCancel(ctx)
	var errs errors.M
	for _, id := range ids {
		if err := store.Delete(ctx, id); err != nil {
			ctxlog.Logger(ctx).Warn("failed to delete run", "id", id, "error", err)
			errs.Append(err)
			continue
		}
		ctxlog.Logger(ctx).Debug("deleted run", "id", id)
	}
	return errs.Err()
}
