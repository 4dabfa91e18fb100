// Copyright (c) 2016 Company 0, LLC.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package tools

import (
	"bytes"
	"errors"
	"testing"
)

type shortReader struct{}

func (shortReader) Read(p []byte) (int, error) {
	return 0, errors.New("short read")
}

func TestRandomUint64ErrorPath(t *testing.T) {
	if _, err := randomUint64(shortReader{}); err == nil {
		t.Fatal("expected error from a failing reader")
	}
}

func TestRandomUint64Distinct(t *testing.T) {
	a, err := RandomUint64()
	if err != nil {
		t.Fatal(err)
	}
	b, err := RandomUint64()
	if err != nil {
		t.Fatal(err)
	}
	if a == b {
		t.Fatal("two random values collided, suspiciously")
	}
}

func TestDefaultRootPath(t *testing.T) {
	root, err := DefaultRootPath()
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Contains([]byte(root), []byte(".securechat")) {
		t.Fatalf("expected root to contain .securechat, got %q", root)
	}
}
