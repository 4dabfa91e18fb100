// Copyright (c) 2016 Company 0, LLC.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package identity loads and manages the long-term key material used by
// the handshake engine. Trust in a peer's long-term public key is
// trust-on-first-use: this package has no signature or certificate
// machinery, it only loads and zeroizes files.
package identity

import (
	"math/big"
	"path/filepath"

	"github.com/kareemv/securechat/dh"
)

const (
	// ServerKeyFilename is the server's own long-term keypair file.
	ServerKeyFilename = "server_long_term_key"
	// ClientKeyFilename is the client's own long-term keypair file.
	ClientKeyFilename = "client_long_term_key"
)

// LongTermKeyPair is the long-term identity material used for one
// handshake: this side's own DH keypair (secret retained until the
// handshake completes) and the peer's public element, loaded from a
// locally trusted file.
type LongTermKeyPair struct {
	Own  *dh.KeyPair
	Peer *big.Int
}

// Zeroize clears the secret half of Own. Peer holds no secret material.
func (lt *LongTermKeyPair) Zeroize() {
	if lt == nil {
		return
	}
	dh.Zeroize(lt.Own)
}

// LoadListener loads the listener's long-term keypair
// (server_long_term_key) and the connector's trusted public key
// (client_long_term_key.pub) from root.
func LoadListener(root string) (*LongTermKeyPair, error) {
	return load(root, ServerKeyFilename, ClientKeyFilename+".pub")
}

// LoadConnector loads the connector's long-term keypair
// (client_long_term_key) and the listener's trusted public key
// (server_long_term_key.pub) from root.
func LoadConnector(root string) (*LongTermKeyPair, error) {
	return load(root, ClientKeyFilename, ServerKeyFilename+".pub")
}

func load(root, ownKeyFile, peerPubFile string) (*LongTermKeyPair, error) {
	own, err := dh.ReadKeyPair(filepath.Join(root, ownKeyFile))
	if err != nil {
		return nil, err
	}
	peer, err := dh.ReadPublic(filepath.Join(root, peerPubFile))
	if err != nil {
		return nil, err
	}
	return &LongTermKeyPair{Own: own, Peer: peer}, nil
}
