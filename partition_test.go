// Copyright 2026 cloudeng llc. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package extsort_test

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"testing"

	"cloudeng.io/extsort"
	"cloudeng.io/extsort/runs"
	"cloudeng.io/extsort/runs/runstestutil"
)

func TestPartitionBoundaries(t *testing.T) {
	ctx := context.Background()
	for _, tc := range []struct {
		input []int64
		runs  [][]int64
	}{
		{[]int64{5, 3, 8, 1, 9, 2, 7, 4, 6, 0},
			[][]int64{{3, 5, 8}, {1, 2, 9}, {4, 6, 7}, {0}}},
		{nil, nil},
		{[]int64{42}, [][]int64{{42}}},
		{[]int64{3, 1, 2}, [][]int64{{1, 2, 3}}},
		{[]int64{3, 1, 2, 2, 2, 2}, [][]int64{{1, 2, 3}, {2, 2, 2}}},
	} {
		st := runs.NewMemory()
		p := extsort.NewPartitioner(st, extsort.WithBatchSize(3))
		ids, err := p.Partition(ctx, extsort.NewSource(strings.NewReader(lines(tc.input...))))
		if err != nil {
			t.Fatal(err)
		}
		if got, want := len(ids), len(tc.runs); got != want {
			t.Errorf("%v: got %v, want %v", tc.input, got, want)
			continue
		}
		for i, id := range ids {
			if got, want := id, runs.ID(i); got != want {
				t.Errorf("%v: got %v, want %v", tc.input, got, want)
			}
			if got, want := readRun(ctx, t, st, id), tc.runs[i]; !slices.Equal(got, want) {
				t.Errorf("%v: run %v: got %v, want %v", tc.input, id, got, want)
			}
		}
	}
}

func TestPartitionIDAllocator(t *testing.T) {
	ctx := context.Background()
	st := runs.NewMemory()
	seq := extsort.NewSequence(100)
	p := extsort.NewPartitioner(st, extsort.WithBatchSize(2), extsort.WithIDAllocator(seq))
	ids, err := p.Partition(ctx, extsort.NewSource(strings.NewReader(lines(1, 2, 3))))
	if err != nil {
		t.Fatal(err)
	}
	if got, want := ids, []runs.ID{100, 101}; !slices.Equal(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
	if got, want := seq.Next(), runs.ID(102); got != want {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestPartitionFailures(t *testing.T) {
	ctx := context.Background()
	input := lines(5, 3, 8, 1, 9, 2, 7, 4, 6, 0)
	for i, tc := range []struct {
		opt  runstestutil.Option
		kind error
	}{
		{runstestutil.FailCreate(3), extsort.ErrStorage},
		{runstestutil.FailAppend(8), extsort.ErrStorage},
		{runstestutil.FailClose(4), extsort.ErrStorage},
		{runstestutil.FailCreate(1), extsort.ErrStorage},
	} {
		st := runstestutil.NewFaulty(runs.NewMemory(), tc.opt)
		p := extsort.NewPartitioner(st, extsort.WithBatchSize(3))
		ids, err := p.Partition(ctx, extsort.NewSource(strings.NewReader(input)))
		if !errors.Is(err, tc.kind) || !errors.Is(err, runstestutil.ErrInjected) {
			t.Errorf("%v: unexpected error: %v", i, err)
		}
		if ids != nil {
			t.Errorf("%v: unexpected ids: %v", i, ids)
		}
		assertNoRuns(ctx, t, st)
	}

	// A parse error part way through the input.
	st := runs.NewMemory()
	p := extsort.NewPartitioner(st, extsort.WithBatchSize(2))
	_, err := p.Partition(ctx, extsort.NewSource(strings.NewReader("1\n2\n3\n4\nx\n")))
	if !errors.Is(err, extsort.ErrParse) {
		t.Errorf("unexpected error: %v", err)
	}
	assertNoRuns(ctx, t, st)

	// A failure to clean up is reported along with the original error.
	fst := runstestutil.NewFaulty(runs.NewMemory(), runstestutil.FailCreate(2), runstestutil.FailDelete(1))
	p = extsort.NewPartitioner(fst, extsort.WithBatchSize(3))
	_, err = p.Partition(ctx, extsort.NewSource(strings.NewReader(input)))
	if !errors.Is(err, extsort.ErrStorage) {
		t.Errorf("unexpected error: %v", err)
	}
	if got, want := strings.Count(err.Error(), runstestutil.ErrInjected.Error()), 2; got != want {
		t.Errorf("got %v, want %v: %v", got, want, err)
	}
	if _, _, deletes := fst.Calls(); deletes != 1 {
		t.Errorf("got %v, want 1", deletes)
	}
}

func TestPartitionCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	st := runs.NewMemory()
	p := extsort.NewPartitioner(st, extsort.WithBatchSize(3))
	_, err := p.Partition(ctx, extsort.NewSource(strings.NewReader(lines(1, 2, 3))))
	if !errors.Is(err, extsort.ErrConcurrency) {
		t.Errorf("unexpected error: %v", err)
	}
	assertNoRuns(context.Background(), t, st)
}

func ExamplePartitioner() {
	ctx := context.Background()
	st := runs.NewMemory()
	p := extsort.NewPartitioner(st, extsort.WithBatchSize(3))
	src := extsort.NewSource(strings.NewReader("5\n3\n8\n1\n9\n2\n7\n4\n6\n0\n"))
	ids, err := p.Partition(ctx, src)
	if err != nil {
		panic(err)
	}
	for _, id := range ids {
		rd, _ := st.Open(ctx, id)
		var vals []int64
		for rd.Scan() {
			vals = append(vals, rd.Value())
		}
		rd.Close()
		fmt.Println(id, vals)
	}
	// Output:
	// 0 [3 5 8]
	// 1 [1 2 9]
	// 2 [4 6 7]
	// 3 [0]
}
