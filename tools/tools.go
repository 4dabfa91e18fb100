// Copyright (c) 2016 Company 0, LLC.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package tools holds small helpers shared by the cmd/securechat and
// cmd/securechat-keygen binaries: home-directory resolution and a
// random display identifier, grounded on zkutil.DefaultServerRootPath
// and this package's own RandomUint64 in the teacher repo.
package tools

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"io"
	"os/user"
	"path/filepath"
)

// DefaultRootPath returns the default root directory for securechat's
// key files, config, and logs: ~/.securechat.
func DefaultRootPath() (string, error) {
	usr, err := user.Current()
	if err != nil {
		return "", fmt.Errorf("user.Current: %v", err)
	}
	return filepath.Join(usr.HomeDir, ".securechat"), nil
}

// randomUint64 returns a cryptographically random uint64, taking a
// reader so the error path can be exercised with a fake one in tests.
func randomUint64(r io.Reader) (uint64, error) {
	var b [8]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(b[:]), nil
}

// RandomUint64 returns a cryptographically random uint64, used by
// cmd/securechat to tag a completed session with a short identifier in
// the debug log.
func RandomUint64() (uint64, error) {
	return randomUint64(rand.Reader)
}
