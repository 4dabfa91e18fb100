// Copyright (c) 2016 Company 0, LLC.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

import (
	"bytes"
	"math/big"
	"testing"
)

func TestRoundTrip(t *testing.T) {
	values := []*big.Int{
		big.NewInt(0),
		big.NewInt(1),
		big.NewInt(255),
		big.NewInt(256),
		new(big.Int).Lsh(big.NewInt(1), 1023*8 - 1),
	}

	for _, v := range values {
		var buf bytes.Buffer
		if err := PutUint(&buf, v); err != nil {
			t.Fatalf("PutUint(%v): %v", v, err)
		}
		got, err := GetUint(&buf)
		if err != nil {
			t.Fatalf("GetUint(%v): %v", v, err)
		}
		if got.Cmp(v) != 0 {
			t.Fatalf("round trip mismatch: put %v, got %v", v, got)
		}
	}
}

func TestZeroEncoding(t *testing.T) {
	var buf bytes.Buffer
	if err := PutUint(&buf, big.NewInt(0)); err != nil {
		t.Fatal(err)
	}
	if buf.Len() != 4+1 {
		t.Fatalf("expected 5 bytes, got %d", buf.Len())
	}
	want := []byte{1, 0, 0, 0, 0}
	if !bytes.Equal(buf.Bytes(), want) {
		t.Fatalf("zero encoding = %x, want %x", buf.Bytes(), want)
	}
}

func TestOversizedInteger(t *testing.T) {
	var buf bytes.Buffer
	var length [4]byte
	length[0] = 0x01 // 1025 little-endian
	length[1] = 0x04
	buf.Write(length[:])
	buf.Write(make([]byte, 1025))

	_, err := GetUint(&buf)
	if err != ErrOversizedInteger {
		t.Fatalf("expected ErrOversizedInteger, got %v", err)
	}
}

func TestNegativeRejected(t *testing.T) {
	var buf bytes.Buffer
	if err := PutUint(&buf, big.NewInt(-1)); err == nil {
		t.Fatal("expected error for negative integer")
	}
}
