// Copyright 2026 cloudeng llc. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

// Package runs provides storage for the sorted runs created and consumed by
// an external sort. A run is a non-decreasing sequence of int64 values that
// is written once, sequentially, read once, sequentially, and then deleted.
//
// A run only becomes visible to Open once its Writer has been successfully
// closed; a run whose Writer is aborted, or whose Close fails, is discarded.
// Hence a run is either complete and valid, or it does not exist.
//
//	w, err := store.Create(ctx, id)
//	...
//	for _, v := range sorted {
//		if err := w.Append(v); err != nil {
//			w.Abort()
//			return err
//		}
//	}
//	if err := w.Close(); err != nil {
//		return err
//	}
//	rd, err := store.Open(ctx, id)
//	...
//	for rd.Scan() {
//		fmt.Println(rd.Value())
//	}
//	if err := rd.Err(); err != nil {
//		...
//	}
//	rd.Close()
//	store.Delete(ctx, id)
//
// Two implementations are provided: Local, which stores each run as a file
// in a working directory, and Memory which is intended for tests and small
// inputs.
package runs
