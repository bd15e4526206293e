// Copyright 2026 cloudeng llc. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package runs

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"cloudeng.io/errors"
)

var (
	// ErrUnsorted is returned when a value smaller than its predecessor is
	// appended to, or read from, a run.
	ErrUnsorted = errors.New("value out of order")
	// ErrExists is returned by Create for an id that is already in use.
	ErrExists = errors.New("run already exists")
	// ErrNotFound is returned by Open and Delete for an unknown id.
	ErrNotFound = errors.New("run not found")
	// ErrClosed is returned when a Writer is used after Close or Abort.
	ErrClosed = errors.New("run writer is closed")
)

// ID identifies a run within a single sort operation.
type ID uint64

// String implements fmt.Stringer.
func (id ID) String() string {
	return strconv.FormatUint(uint64(id), 10)
}

// Store represents the storage used for runs.
type Store interface {
	// Create returns a Writer for a new run with the specified id.
	Create(ctx context.Context, id ID) (Writer, error)
	// Open returns a Reader for a previously created, and closed, run.
	Open(ctx context.Context, id ID) (Reader, error)
	// Delete removes the run. It must only be called once all reads
	// of the run have completed.
	Delete(ctx context.Context, id ID) error
	// List returns the ids of all of the runs in the store, including
	// those that are still being written.
	List(ctx context.Context) ([]ID, error)
}

// Writer is an append-only, sequential writer for a single run.
type Writer interface {
	// Append appends v to the run; v must not be less than the previously
	// appended value.
	Append(v int64) error
	// Len returns the number of values appended so far.
	Len() int64
	// Close finalizes the run and makes it available to Open. If Close
	// fails the run is discarded.
	Close() error
	// Abort discards the run. It is a no-op if the Writer has already
	// been closed or aborted.
	Abort() error
}

// Reader is a forward-only cursor over a single run. It follows the
// same Scan/Value/Err pattern as bufio.Scanner.
type Reader interface {
	// Scan advances to the next value and returns false when there are no
	// more values or an error was encountered. Once Scan returns false it
	// will always return false.
	Scan() bool
	// Value returns the value most recently read by Scan.
	Value() int64
	// Err returns the first non-EOF error encountered.
	Err() error
	// Close releases the resources associated with the Reader.
	Close() error
}

// writer implements the run invariants common to all stores.
type writer struct {
	id     ID
	enc    encoder
	last   int64
	n      int64
	closed bool
	commit func() error
	abort  func() error
}

func (w *writer) Append(v int64) error {
	if w.closed {
		return ErrClosed
	}
	if w.n > 0 && v < w.last {
		return fmt.Errorf("run %v: %w: %v follows %v", w.id, ErrUnsorted, v, w.last)
	}
	if err := w.enc.encode(v); err != nil {
		return fmt.Errorf("run %v: %w", w.id, err)
	}
	w.last = v
	w.n++
	return nil
}

func (w *writer) Len() int64 {
	return w.n
}

func (w *writer) Close() error {
	if w.closed {
		return ErrClosed
	}
	w.closed = true
	if err := w.enc.flush(); err != nil {
		return errors.NewM(fmt.Errorf("run %v: %w", w.id, err), w.abort())
	}
	return w.commit()
}

func (w *writer) Abort() error {
	if w.closed {
		return nil
	}
	w.closed = true
	return w.abort()
}

type reader struct {
	id     ID
	dec    decoder
	closer io.Closer
	v      int64
	n      int64
	err    error
	done   bool
}

func (r *reader) Scan() bool {
	if r.done {
		return false
	}
	v, err := r.dec.decode()
	if err != nil {
		r.done = true
		if err != io.EOF {
			r.err = fmt.Errorf("run %v: %w", r.id, err)
		}
		return false
	}
	if r.n > 0 && v < r.v {
		r.done = true
		r.err = fmt.Errorf("run %v: %w: %v follows %v", r.id, ErrUnsorted, v, r.v)
		return false
	}
	r.v = v
	r.n++
	return true
}

func (r *reader) Value() int64 {
	return r.v
}

func (r *reader) Err() error {
	return r.err
}

func (r *reader) Close() error {
	r.done = true
	if r.closer == nil {
		return nil
	}
	err := r.closer.Close()
	r.closer = nil
	return err
}
