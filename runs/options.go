// Copyright 2026 cloudeng llc. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package runs

// Option represents an option accepted by NewLocal and NewMemory.
type Option func(o *options)

type options struct {
	encoding Encoding
}

// WithEncoding sets the encoding used for the runs in the store.
func WithEncoding(e Encoding) Option {
	return func(o *options) {
		o.encoding = e
	}
}
