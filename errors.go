// Copyright 2026 cloudeng llc. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package extsort

import (
	"fmt"

	"cloudeng.io/errors"
)

var (
	// ErrStream indicates that the input or output stream could not be
	// opened, read or written.
	ErrStream = errors.New("stream failure")
	// ErrParse indicates that an input record is not a valid integer.
	ErrParse = errors.New("parse failure")
	// ErrStorage indicates that a run could not be created, read or deleted.
	ErrStorage = errors.New("storage failure")
	// ErrConcurrency indicates that a worker or the sort as a whole was
	// canceled or timed out.
	ErrConcurrency = errors.New("concurrency failure")
)

type opError struct {
	op   string
	kind error
	err  error
}

func (e *opError) Error() string {
	return fmt.Sprintf("extsort: %v: %v: %v", e.op, e.kind, e.err)
}

func (e *opError) Unwrap() []error {
	return []error{e.kind, e.err}
}

// newError annotates err with the operation and kind of failure
// unless it has already been so annotated.
func newError(op string, kind, err error) error {
	var oe *opError
	if errors.As(err, &oe) {
		return err
	}
	return &opError{op: op, kind: kind, err: err}
}

// ParseError records the location of an input record that is not
// a valid integer.
type ParseError struct {
	Line int64
	Text string
	Err  error
}

// Error implements error.
func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d: %q: %v", e.Line, e.Text, e.Err)
}

// Unwrap supports errors.Unwrap.
func (e *ParseError) Unwrap() error {
	return e.Err
}

// Is supports errors.Is, a ParseError is always an ErrParse.
func (e *ParseError) Is(target error) bool {
	return target == ErrParse
}

// withCleanup returns err combined with the outcome of cleanup, if
// cleanup fails.
func withCleanup(err error, cleanup error) error {
	if cleanup == nil {
		return err
	}
	return errors.NewM(err, fmt.Errorf("cleanup: %w", cleanup))
}
