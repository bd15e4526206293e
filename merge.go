// Copyright 2026 cloudeng llc. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package extsort

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"

	"cloudeng.io/algo/container/heap"
	"cloudeng.io/errors"
	"cloudeng.io/extsort/runs"
	"cloudeng.io/logging/ctxlog"
)

// entry is the current head of an active run.
type entry struct {
	value int64
	run   runs.ID
}

// Less implements heap.Value. Equal values are ordered by run id.
func (e entry) Less(o entry) bool {
	if e.value == o.value {
		return e.run < o.run
	}
	return e.value < o.value
}

// mergeCheckInterval is the number of values written between checks
// for cancelation.
const mergeCheckInterval = 1024

// Merger performs a k-way merge of sorted runs.
type Merger struct {
	store runs.Store
}

// NewMerger returns a new instance of Merger.
func NewMerger(store runs.Store) *Merger {
	return &Merger{store: store}
}

type mergeState struct {
	store   runs.Store
	cursors map[runs.ID]runs.Reader
	pending map[runs.ID]struct{}
}

// release closes and deletes an exhausted run.
func (ms *mergeState) release(ctx context.Context, id runs.ID) error {
	rd := ms.cursors[id]
	delete(ms.cursors, id)
	if err := rd.Close(); err != nil {
		return newError("close run", ErrStorage, err)
	}
	delete(ms.pending, id)
	if err := ms.store.Delete(ctx, id); err != nil {
		return newError("delete run", ErrStorage, err)
	}
	ctxlog.Logger(ctx).Debug("merged run", "id", id)
	return nil
}

// abandon closes any open cursors and deletes all runs that have not
// already been deleted.
func (ms *mergeState) abandon(ctx context.Context) error {
	ctx = context.WithoutCancel(ctx)
	var errs errors.M
	for _, rd := range ms.cursors {
		errs.Append(rd.Close())
	}
	for id := range ms.pending {
		if err := ms.store.Delete(ctx, id); err != nil {
			ctxlog.Logger(ctx).Warn("failed to delete run", "id", id, "error", err)
			errs.Append(err)
		}
	}
	return errs.Err()
}

// Merge writes the values from all of the specified runs to out in
// non-decreasing order, one decimal value per line, and returns the number
// of values written. Each run is deleted as soon as its last value has been
// written. On error, all of the runs that have not yet been deleted are
// deleted and the contents of out are incomplete.
func (m *Merger) Merge(ctx context.Context, ids []runs.ID, out io.Writer) (int64, error) {
	ms := &mergeState{
		store:   m.store,
		cursors: make(map[runs.ID]runs.Reader, len(ids)),
		pending: make(map[runs.ID]struct{}, len(ids)),
	}
	for _, id := range ids {
		if _, ok := ms.pending[id]; ok {
			err := newError("merge", ErrStorage, fmt.Errorf("run %v: appears more than once", id))
			return 0, withCleanup(err, ms.abandon(ctx))
		}
		ms.pending[id] = struct{}{}
	}
	n, err := m.merge(ctx, ms, ids, out)
	if err != nil {
		return n, withCleanup(err, ms.abandon(ctx))
	}
	return n, nil
}

func (m *Merger) merge(ctx context.Context, ms *mergeState, ids []runs.ID, out io.Writer) (int64, error) {
	h := make(heap.Heap[entry], 0, len(ids))
	for _, id := range ids {
		rd, err := m.store.Open(ctx, id)
		if err != nil {
			return 0, newError("open run", ErrStorage, err)
		}
		ms.cursors[id] = rd
		if !rd.Scan() {
			if err := rd.Err(); err != nil {
				return 0, newError("read run", ErrStorage, err)
			}
			if err := ms.release(ctx, id); err != nil {
				return 0, err
			}
			continue
		}
		h = append(h, entry{value: rd.Value(), run: id})
	}
	h.Init()

	wr := bufio.NewWriter(out)
	buf := make([]byte, 0, 24)
	var written int64
	for h.Len() > 0 {
		if written%mergeCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return written, newError("merge", ErrConcurrency, err)
			}
		}
		head := h[0]
		buf = strconv.AppendInt(buf[:0], head.value, 10)
		buf = append(buf, '\n')
		if _, err := wr.Write(buf); err != nil {
			return written, newError("write output", ErrStream, err)
		}
		written++
		rd := ms.cursors[head.run]
		if rd.Scan() {
			h[0] = entry{value: rd.Value(), run: head.run}
			heap.Fix(h, 0)
			continue
		}
		if err := rd.Err(); err != nil {
			return written, newError("read run", ErrStorage, err)
		}
		h.Pop()
		if err := ms.release(ctx, head.run); err != nil {
			return written, err
		}
	}
	if err := wr.Flush(); err != nil {
		return written, newError("write output", ErrStream, err)
	}
	return written, nil
}
