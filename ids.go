// Copyright 2026 cloudeng llc. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package extsort

import (
	"sync/atomic"

	"cloudeng.io/extsort/runs"
)

// IDAllocator allocates the ids for newly created runs. Ids must be unique
// within a single sort.
type IDAllocator interface {
	Next() runs.ID
}

// Sequence is an IDAllocator that returns monotonically increasing ids.
// It is safe for concurrent use.
type Sequence struct {
	next atomic.Uint64
}

// NewSequence returns a Sequence whose first id is start.
func NewSequence(start runs.ID) *Sequence {
	s := &Sequence{}
	s.next.Store(uint64(start))
	return s
}

// Next implements IDAllocator.
func (s *Sequence) Next() runs.ID {
	return runs.ID(s.next.Add(1) - 1)
}
