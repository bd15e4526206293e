// Copyright 2026 cloudeng llc. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package runs

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"slices"
	"strconv"
	"strings"

	"cloudeng.io/errors"
	"cloudeng.io/file/localfs"
	"cloudeng.io/os/lockedfile"
)

const (
	runSuffix = ".run"
	tmpSuffix = ".run.tmp"
	// LockFile is the name of the lock file used to serialize access
	// to a working directory.
	LockFile = "extsort.lock"
)

// Local is an implementation of Store that stores each run as a file,
// named <id>.run, in a working directory. Runs are written to <id>.run.tmp
// and renamed on Close. The working directory is locked, using LockFile,
// for the lifetime of the store and hence concurrent sorts that share a
// working directory are serialized.
type Local struct {
	lfs      *localfs.T
	dir      string
	encoding Encoding
	unlock   func()
}

// NewLocal returns a new instance of Local, creating dir if required. It
// blocks until the lock on dir is acquired. Close must be called to release
// that lock.
func NewLocal(ctx context.Context, dir string, opts ...Option) (*Local, error) {
	var o options
	for _, fn := range opts {
		fn(&o)
	}
	lfs := localfs.New()
	if err := lfs.EnsurePrefix(ctx, dir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create working directory %q: %w", dir, err)
	}
	unlock, err := lockedfile.MutexAt(lfs.Join(dir, LockFile)).Lock()
	if err != nil {
		return nil, fmt.Errorf("failed to lock working directory %q: %w", dir, err)
	}
	return &Local{
		lfs:      lfs,
		dir:      dir,
		encoding: o.encoding,
		unlock:   unlock,
	}, nil
}

// Dir returns the working directory used by the store.
func (l *Local) Dir() string {
	return l.dir
}

// Close releases the lock on the working directory. It does not
// delete any runs.
func (l *Local) Close() error {
	if l.unlock != nil {
		l.unlock()
		l.unlock = nil
	}
	return nil
}

func (l *Local) filename(id ID) string {
	return l.lfs.Join(l.dir, id.String()+runSuffix)
}

func (l *Local) tmpname(id ID) string {
	return l.lfs.Join(l.dir, id.String()+tmpSuffix)
}

// Create implements Store.
func (l *Local) Create(ctx context.Context, id ID) (Writer, error) {
	name, tmp := l.filename(id), l.tmpname(id)
	if _, err := l.lfs.Stat(ctx, name); err == nil {
		return nil, fmt.Errorf("run %v: %w", id, ErrExists)
	} else if !l.lfs.IsNotExist(err) {
		return nil, err
	}
	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return nil, fmt.Errorf("run %v: %w", id, ErrExists)
		}
		return nil, err
	}
	return &writer{
		id:  id,
		enc: newEncoder(l.encoding, f),
		commit: func() error {
			if err := f.Sync(); err != nil {
				return errors.NewM(err, f.Close(), l.lfs.Delete(ctx, tmp))
			}
			if err := f.Close(); err != nil {
				return errors.NewM(err, l.lfs.Delete(ctx, tmp))
			}
			if err := os.Rename(tmp, name); err != nil {
				return errors.NewM(err, l.lfs.Delete(ctx, tmp))
			}
			return nil
		},
		abort: func() error {
			return errors.NewM(f.Close(), l.lfs.Delete(ctx, tmp))
		},
	}, nil
}

// Open implements Store.
func (l *Local) Open(ctx context.Context, id ID) (Reader, error) {
	f, err := l.lfs.OpenCtx(ctx, l.filename(id))
	if err != nil {
		if l.lfs.IsNotExist(err) {
			return nil, fmt.Errorf("run %v: %w", id, ErrNotFound)
		}
		return nil, err
	}
	return &reader{
		id:     id,
		dec:    newDecoder(l.encoding, f),
		closer: f,
	}, nil
}

// Delete implements Store.
func (l *Local) Delete(ctx context.Context, id ID) error {
	if err := l.lfs.Delete(ctx, l.filename(id)); err != nil {
		if l.lfs.IsNotExist(err) {
			return fmt.Errorf("run %v: %w", id, ErrNotFound)
		}
		return err
	}
	return nil
}

// List implements Store.
func (l *Local) List(_ context.Context) ([]ID, error) {
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		return nil, err
	}
	seen := map[ID]struct{}{}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		base, ok := strings.CutSuffix(name, tmpSuffix)
		if !ok {
			if base, ok = strings.CutSuffix(name, runSuffix); !ok {
				continue
			}
		}
		id, err := strconv.ParseUint(base, 10, 64)
		if err != nil {
			continue
		}
		seen[ID(id)] = struct{}{}
	}
	ids := make([]ID, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids, nil
}
