// Copyright (c) 2016 Company 0, LLC.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package wire implements the length-prefixed integer codec used on the
// handshake wire: a 4-byte little-endian length followed by that many
// little-endian magnitude bytes.
package wire

import (
	"encoding/binary"
	"errors"
	"io"
	"math/big"
)

// MaxIntegerBytes is the largest magnitude, in bytes, that GetUint will accept.
const MaxIntegerBytes = 1024

var (
	// ErrOversizedInteger is returned by GetUint when the encoded length
	// exceeds MaxIntegerBytes.
	ErrOversizedInteger = errors.New("oversized integer")
)

// PutUint writes x to w as a 4-byte little-endian length followed by the
// little-endian magnitude bytes of x. x must be non-negative. Zero is
// encoded as a length of 1 and a single zero byte.
func PutUint(w io.Writer, x *big.Int) error {
	if x.Sign() < 0 {
		return errors.New("wire: negative integer")
	}

	b := x.Bytes() // big-endian magnitude, no leading zero
	if len(b) == 0 {
		b = []byte{0}
	}
	le := reverse(b)

	var length [4]byte
	binary.LittleEndian.PutUint32(length[:], uint32(len(le)))

	if err := writeFull(w, length[:]); err != nil {
		return err
	}
	return writeFull(w, le)
}

// GetUint reads a length-prefixed integer from r as written by PutUint.
func GetUint(r io.Reader) (*big.Int, error) {
	var length [4]byte
	if err := readFull(r, length[:]); err != nil {
		return nil, err
	}
	n := binary.LittleEndian.Uint32(length[:])
	if n > MaxIntegerBytes {
		return nil, ErrOversizedInteger
	}
	if n == 0 {
		return nil, errors.New("wire: zero-length integer")
	}

	le := make([]byte, n)
	if err := readFull(r, le); err != nil {
		return nil, err
	}

	return new(big.Int).SetBytes(reverse(le)), nil
}

// reverse returns a newly allocated, byte-order-reversed copy of b.
func reverse(b []byte) []byte {
	out := make([]byte, len(b))
	for i, v := range b {
		out[len(b)-1-i] = v
	}
	return out
}

// readFull reads exactly len(p) bytes from r, retrying on transient short
// reads, and never returns a partial read to the caller.
func readFull(r io.Reader, p []byte) error {
	_, err := io.ReadFull(r, p)
	return err
}

// writeFull writes all of p to w, retrying on short writes, and never
// returns having written only part of p.
func writeFull(w io.Writer, p []byte) error {
	for len(p) > 0 {
		n, err := w.Write(p)
		if err != nil {
			return err
		}
		p = p[n:]
	}
	return nil
}
