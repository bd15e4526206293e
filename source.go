// Copyright 2026 cloudeng llc. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package extsort

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"strconv"
	"sync"
)

// Source provides exclusive, batch-at-a-time, access to a stream of
// newline delimited decimal integers. It is safe for concurrent use, with
// each call to ReadBatch being atomic with respect to all others so that
// no value is ever read twice or skipped.
type Source struct {
	mu     sync.Mutex
	sc     *bufio.Scanner // GUARDED_BY(mu)
	lines  int64          // GUARDED_BY(mu)
	err    error          // GUARDED_BY(mu)
	closed bool           // GUARDED_BY(mu)
}

// NewSource returns a new instance of Source that reads from rd.
func NewSource(rd io.Reader) *Source {
	return &Source{sc: bufio.NewScanner(rd)}
}

// ReadBatch reads up to len(batch) values into batch and returns the number
// read. It returns 0 and a nil error once the stream is exhausted. Any
// read or parse error is sticky and is returned by all subsequent calls.
func (s *Source) ReadBatch(ctx context.Context, batch []int64) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, newError("read", ErrConcurrency, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return 0, s.err
	}
	n := 0
	for n < len(batch) && !s.closed {
		if !s.sc.Scan() {
			if err := s.sc.Err(); err != nil {
				s.err = newError("read", ErrStream, err)
				return 0, s.err
			}
			s.closed = true
			break
		}
		s.lines++
		v, err := parseValue(s.sc.Bytes())
		if err != nil {
			s.err = newError("read", ErrParse, &ParseError{
				Line: s.lines,
				Text: s.sc.Text(),
				Err:  err,
			})
			return 0, s.err
		}
		batch[n] = v
		n++
	}
	return n, nil
}

// Values returns the number of values read so far.
func (s *Source) Values() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lines
}

func parseValue(line []byte) (int64, error) {
	return strconv.ParseInt(string(bytes.TrimSpace(line)), 10, 64)
}
