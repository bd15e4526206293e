// Copyright 2026 cloudeng llc. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package runs

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Encoding determines how the values in a run are stored.
type Encoding int

const (
	// Text stores one decimal value per line. It is the default.
	Text Encoding = iota
	// Binary stores the first value as a varint and every subsequent
	// value as the uvarint difference from its predecessor, which is
	// never negative since runs are sorted.
	Binary
)

// String implements fmt.Stringer.
func (e Encoding) String() string {
	switch e {
	case Text:
		return "text"
	case Binary:
		return "binary"
	}
	return "unknown(" + strconv.Itoa(int(e)) + ")"
}

// ParseEncoding returns the Encoding named by s. The empty string
// is treated as Text.
func ParseEncoding(s string) (Encoding, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "text":
		return Text, nil
	case "binary":
		return Binary, nil
	}
	return Text, fmt.Errorf("unsupported run encoding: %q", s)
}

type encoder interface {
	encode(v int64) error
	flush() error
}

type decoder interface {
	// decode returns io.EOF when there are no more values.
	decode() (int64, error)
}

func newEncoder(e Encoding, w io.Writer) encoder {
	bw := bufio.NewWriter(w)
	if e == Binary {
		return &binaryEncoder{wr: bw, buf: make([]byte, 0, binary.MaxVarintLen64)}
	}
	return &textEncoder{wr: bw, buf: make([]byte, 0, 24)}
}

func newDecoder(e Encoding, r io.Reader) decoder {
	if e == Binary {
		return &binaryDecoder{rd: bufio.NewReader(r)}
	}
	return &textDecoder{sc: bufio.NewScanner(r)}
}

type textEncoder struct {
	wr  *bufio.Writer
	buf []byte
}

func (e *textEncoder) encode(v int64) error {
	e.buf = strconv.AppendInt(e.buf[:0], v, 10)
	e.buf = append(e.buf, '\n')
	_, err := e.wr.Write(e.buf)
	return err
}

func (e *textEncoder) flush() error {
	return e.wr.Flush()
}

type textDecoder struct {
	sc *bufio.Scanner
}

func (d *textDecoder) decode() (int64, error) {
	if !d.sc.Scan() {
		if err := d.sc.Err(); err != nil {
			return 0, err
		}
		return 0, io.EOF
	}
	return strconv.ParseInt(d.sc.Text(), 10, 64)
}

type binaryEncoder struct {
	wr    *bufio.Writer
	buf   []byte
	last  int64
	first bool
}

func (e *binaryEncoder) encode(v int64) error {
	if !e.first {
		e.buf = binary.AppendVarint(e.buf[:0], v)
		e.first = true
	} else {
		e.buf = binary.AppendUvarint(e.buf[:0], uint64(v)-uint64(e.last))
	}
	e.last = v
	_, err := e.wr.Write(e.buf)
	return err
}

func (e *binaryEncoder) flush() error {
	return e.wr.Flush()
}

type binaryDecoder struct {
	rd    *bufio.Reader
	last  int64
	first bool
}

func (d *binaryDecoder) decode() (int64, error) {
	if !d.first {
		v, err := binary.ReadVarint(d.rd)
		if err != nil {
			return 0, err
		}
		d.first = true
		d.last = v
		return v, nil
	}
	delta, err := binary.ReadUvarint(d.rd)
	if err != nil {
		return 0, err
	}
	d.last = int64(uint64(d.last) + delta)
	return d.last, nil
}
