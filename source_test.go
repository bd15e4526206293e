// Copyright 2026 cloudeng llc. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package extsort_test

import (
	"context"
	"errors"
	"io"
	"slices"
	"strings"
	"sync"
	"testing"
	"testing/iotest"

	"cloudeng.io/extsort"
)

func TestSourceBatches(t *testing.T) {
	ctx := context.Background()
	src := extsort.NewSource(strings.NewReader(" 5\n-3\r\n8\t\n1\n"))
	batch := make([]int64, 3)
	n, err := src.ReadBatch(ctx, batch)
	if err != nil {
		t.Fatal(err)
	}
	if got, want := batch[:n], []int64{5, -3, 8}; !slices.Equal(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
	n, err = src.ReadBatch(ctx, batch)
	if err != nil {
		t.Fatal(err)
	}
	if got, want := batch[:n], []int64{1}; !slices.Equal(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
	for range 2 {
		n, err = src.ReadBatch(ctx, batch)
		if err != nil || n != 0 {
			t.Errorf("expected an exhausted source: %v, %v", n, err)
		}
	}
	if got, want := src.Values(), int64(4); got != want {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestSourceErrors(t *testing.T) {
	ctx := context.Background()
	for _, tc := range []struct {
		input string
		line  int64
		text  string
	}{
		{"1\n2\nthree\n", 3, "three"},
		{"1\n\n2\n", 2, ""},
		{"1.5\n", 1, "1.5"},
		{"99999999999999999999\n", 1, "99999999999999999999"},
	} {
		src := extsort.NewSource(strings.NewReader(tc.input))
		batch := make([]int64, 10)
		_, err := src.ReadBatch(ctx, batch)
		if !errors.Is(err, extsort.ErrParse) {
			t.Errorf("%q: expected a parse error: %v", tc.input, err)
			continue
		}
		var pe *extsort.ParseError
		if !errors.As(err, &pe) {
			t.Errorf("%q: expected a ParseError: %v", tc.input, err)
			continue
		}
		if got, want := pe.Line, tc.line; got != want {
			t.Errorf("%q: got %v, want %v", tc.input, got, want)
		}
		if got, want := pe.Text, tc.text; got != want {
			t.Errorf("%q: got %q, want %q", tc.input, got, want)
		}
		// Errors are sticky.
		if _, err := src.ReadBatch(ctx, batch); !errors.Is(err, extsort.ErrParse) {
			t.Errorf("%q: expected a parse error: %v", tc.input, err)
		}
	}

	src := extsort.NewSource(iotest.ErrReader(io.ErrUnexpectedEOF))
	_, err := src.ReadBatch(ctx, make([]int64, 1))
	if !errors.Is(err, extsort.ErrStream) || !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Errorf("expected a stream error: %v", err)
	}

	cctx, cancel := context.WithCancel(ctx)
	cancel()
	src = extsort.NewSource(strings.NewReader("1\n"))
	_, err = src.ReadBatch(cctx, make([]int64, 1))
	if !errors.Is(err, extsort.ErrConcurrency) || !errors.Is(err, context.Canceled) {
		t.Errorf("expected a concurrency error: %v", err)
	}
}

func TestSourceConcurrent(t *testing.T) {
	ctx := context.Background()
	vals := randomValues(1, 10007, 1000)
	src := extsort.NewSource(strings.NewReader(lines(vals...)))
	var mu sync.Mutex
	var all []int64
	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			batch := make([]int64, 13)
			for {
				n, err := src.ReadBatch(ctx, batch)
				if err != nil {
					t.Error(err)
					return
				}
				if n == 0 {
					return
				}
				mu.Lock()
				all = append(all, batch[:n]...)
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	slices.Sort(all)
	slices.Sort(vals)
	if !slices.Equal(all, vals) {
		t.Errorf("values were lost or duplicated: got %v, want %v", len(all), len(vals))
	}
}
