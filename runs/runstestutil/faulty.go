// Copyright 2026 cloudeng llc. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

// Package runstestutil provides support for testing code that uses
// runs.Store.
package runstestutil

import (
	"context"
	"sync"

	"cloudeng.io/errors"
	"cloudeng.io/extsort/runs"
)

// ErrInjected is returned by all operations that Faulty is configured
// to fail.
var ErrInjected = errors.New("injected failure")

type op int

const (
	opCreate op = iota
	opAppend
	opClose
	opOpen
	opScan
	opDelete
	numOps
)

// Option configures the failures injected by Faulty. The value n is the
// 1-based count, across the entire store, of the call that is to fail. All
// subsequent calls succeed.
type Option func(f *Faulty)

// FailCreate fails the n'th call to Create.
func FailCreate(n int) Option {
	return func(f *Faulty) { f.fail[opCreate] = n }
}

// FailAppend fails the n'th call to Writer.Append.
func FailAppend(n int) Option {
	return func(f *Faulty) { f.fail[opAppend] = n }
}

// FailClose fails the n'th call to Writer.Close; the run is aborted.
func FailClose(n int) Option {
	return func(f *Faulty) { f.fail[opClose] = n }
}

// FailOpen fails the n'th call to Open.
func FailOpen(n int) Option {
	return func(f *Faulty) { f.fail[opOpen] = n }
}

// FailScan fails the n'th call to Reader.Scan.
func FailScan(n int) Option {
	return func(f *Faulty) { f.fail[opScan] = n }
}

// FailDelete fails the n'th call to Delete, the run is not deleted.
func FailDelete(n int) Option {
	return func(f *Faulty) { f.fail[opDelete] = n }
}

// Faulty wraps a runs.Store and injects failures as configured by
// its options.
type Faulty struct {
	store runs.Store
	mu    sync.Mutex
	fail  [numOps]int
	calls [numOps]int // GUARDED_BY(mu)
}

// NewFaulty returns a new instance of Faulty.
func NewFaulty(store runs.Store, opts ...Option) *Faulty {
	f := &Faulty{store: store}
	for _, fn := range opts {
		fn(f)
	}
	return f
}

func (f *Faulty) inject(o op) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[o]++
	return f.fail[o] != 0 && f.calls[o] == f.fail[o]
}

// Calls returns the number of calls made to Create, Open and Delete.
func (f *Faulty) Calls() (creates, opens, deletes int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[opCreate], f.calls[opOpen], f.calls[opDelete]
}

// Create implements runs.Store.
func (f *Faulty) Create(ctx context.Context, id runs.ID) (runs.Writer, error) {
	if f.inject(opCreate) {
		return nil, ErrInjected
	}
	w, err := f.store.Create(ctx, id)
	if err != nil {
		return nil, err
	}
	return &writer{Writer: w, f: f}, nil
}

// Open implements runs.Store.
func (f *Faulty) Open(ctx context.Context, id runs.ID) (runs.Reader, error) {
	if f.inject(opOpen) {
		return nil, ErrInjected
	}
	rd, err := f.store.Open(ctx, id)
	if err != nil {
		return nil, err
	}
	return &reader{Reader: rd, f: f}, nil
}

// Delete implements runs.Store.
func (f *Faulty) Delete(ctx context.Context, id runs.ID) error {
	if f.inject(opDelete) {
		return ErrInjected
	}
	return f.store.Delete(ctx, id)
}

// List implements runs.Store.
func (f *Faulty) List(ctx context.Context) ([]runs.ID, error) {
	return f.store.List(ctx)
}

type writer struct {
	runs.Writer
	f *Faulty
}

func (w *writer) Append(v int64) error {
	if w.f.inject(opAppend) {
		return ErrInjected
	}
	return w.Writer.Append(v)
}

func (w *writer) Close() error {
	if w.f.inject(opClose) {
		return errors.NewM(ErrInjected, w.Writer.Abort())
	}
	return w.Writer.Close()
}

type reader struct {
	runs.Reader
	f   *Faulty
	err error
}

func (r *reader) Scan() bool {
	if r.err != nil {
		return false
	}
	if r.f.inject(opScan) {
		r.err = ErrInjected
		return false
	}
	return r.Reader.Scan()
}

func (r *reader) Err() error {
	if r.err != nil {
		return r.err
	}
	return r.Reader.Err()
}
