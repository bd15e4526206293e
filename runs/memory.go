// Copyright 2026 cloudeng llc. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package runs

import (
	"bytes"
	"context"
	"fmt"
	"slices"
	"sync"
)

// Memory is an in-memory implementation of Store. It is safe for
// concurrent use.
type Memory struct {
	encoding Encoding
	mu       sync.Mutex
	runs     map[ID][]byte   // GUARDED_BY(mu)
	pending  map[ID]struct{} // GUARDED_BY(mu)
}

// NewMemory returns a new instance of Memory.
func NewMemory(opts ...Option) *Memory {
	var o options
	for _, fn := range opts {
		fn(&o)
	}
	return &Memory{
		encoding: o.encoding,
		runs:     map[ID][]byte{},
		pending:  map[ID]struct{}{},
	}
}

// Create implements Store.
func (m *Memory) Create(_ context.Context, id ID) (Writer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.runs[id]; ok {
		return nil, fmt.Errorf("run %v: %w", id, ErrExists)
	}
	if _, ok := m.pending[id]; ok {
		return nil, fmt.Errorf("run %v: %w", id, ErrExists)
	}
	m.pending[id] = struct{}{}
	buf := &bytes.Buffer{}
	return &writer{
		id:  id,
		enc: newEncoder(m.encoding, buf),
		commit: func() error {
			m.mu.Lock()
			defer m.mu.Unlock()
			delete(m.pending, id)
			m.runs[id] = buf.Bytes()
			return nil
		},
		abort: func() error {
			m.mu.Lock()
			defer m.mu.Unlock()
			delete(m.pending, id)
			return nil
		},
	}, nil
}

// Open implements Store.
func (m *Memory) Open(_ context.Context, id ID) (Reader, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.runs[id]
	if !ok {
		return nil, fmt.Errorf("run %v: %w", id, ErrNotFound)
	}
	return &reader{
		id:  id,
		dec: newDecoder(m.encoding, bytes.NewReader(data)),
	}, nil
}

// Delete implements Store.
func (m *Memory) Delete(_ context.Context, id ID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.runs[id]; !ok {
		return fmt.Errorf("run %v: %w", id, ErrNotFound)
	}
	delete(m.runs, id)
	return nil
}

// List implements Store.
func (m *Memory) List(_ context.Context) ([]ID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]ID, 0, len(m.runs)+len(m.pending))
	for id := range m.runs {
		ids = append(ids, id)
	}
	for id := range m.pending {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids, nil
}
