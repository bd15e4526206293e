// Copyright 2026 cloudeng llc. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package extsort_test

import (
	"context"
	"math/rand"
	"strconv"
	"strings"
	"testing"

	"cloudeng.io/extsort/runs"
)

func lines(vals ...int64) string {
	var out strings.Builder
	for _, v := range vals {
		out.WriteString(strconv.FormatInt(v, 10))
		out.WriteByte('\n')
	}
	return out.String()
}

func parseLines(t *testing.T, s string) []int64 {
	t.Helper()
	var vals []int64
	for _, l := range strings.Split(strings.TrimSuffix(s, "\n"), "\n") {
		if len(l) == 0 {
			continue
		}
		v, err := strconv.ParseInt(l, 10, 64)
		if err != nil {
			t.Fatal(err)
		}
		vals = append(vals, v)
	}
	return vals
}

func randomValues(seed int64, n int, limit int64) []int64 {
	rnd := rand.New(rand.NewSource(seed)) // #nosec: G404
	vals := make([]int64, n)
	for i := range vals {
		vals[i] = rnd.Int63n(2*limit) - limit
	}
	return vals
}

func readRun(ctx context.Context, t *testing.T, st runs.Store, id runs.ID) []int64 {
	t.Helper()
	rd, err := st.Open(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	defer rd.Close()
	var vals []int64
	for rd.Scan() {
		vals = append(vals, rd.Value())
	}
	if err := rd.Err(); err != nil {
		t.Fatal(err)
	}
	return vals
}

func writeRun(ctx context.Context, t *testing.T, st runs.Store, id runs.ID, vals ...int64) {
	t.Helper()
	w, err := st.Create(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	for _, v := range vals {
		if err := w.Append(v); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
}

func assertNoRuns(ctx context.Context, t *testing.T, st runs.Store) {
	t.Helper()
	ids, err := st.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if got, want := len(ids), 0; got != want {
		t.Errorf("got %v runs (%v), want %v", got, ids, want)
	}
}
