// Copyright (c) 2016 Company 0, LLC.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package identity

import (
	"math/big"
	"path/filepath"
	"testing"

	"github.com/kareemv/securechat/dh"
)

func testParams(t *testing.T) *dh.Params {
	t.Helper()
	p, _ := new(big.Int).SetString("2357", 10)
	q, _ := new(big.Int).SetString("1178", 10)
	return &dh.Params{P: p, G: big.NewInt(2), Q: q}
}

func TestLoadListenerAndConnector(t *testing.T) {
	params := testParams(t)
	server, err := dh.Generate(params)
	if err != nil {
		t.Fatal(err)
	}
	client, err := dh.Generate(params)
	if err != nil {
		t.Fatal(err)
	}

	dir := t.TempDir()
	if err := dh.WriteKeyPair(filepath.Join(dir, ServerKeyFilename), server); err != nil {
		t.Fatal(err)
	}
	if err := dh.WritePublic(filepath.Join(dir, ServerKeyFilename+".pub"), server.Public); err != nil {
		t.Fatal(err)
	}
	if err := dh.WriteKeyPair(filepath.Join(dir, ClientKeyFilename), client); err != nil {
		t.Fatal(err)
	}
	if err := dh.WritePublic(filepath.Join(dir, ClientKeyFilename+".pub"), client.Public); err != nil {
		t.Fatal(err)
	}

	listenerLT, err := LoadListener(dir)
	if err != nil {
		t.Fatal(err)
	}
	if listenerLT.Own.Secret.Cmp(server.Secret) != 0 {
		t.Fatal("listener did not load its own secret correctly")
	}
	if listenerLT.Peer.Cmp(client.Public) != 0 {
		t.Fatal("listener did not load the connector's public key correctly")
	}

	connectorLT, err := LoadConnector(dir)
	if err != nil {
		t.Fatal(err)
	}
	if connectorLT.Own.Secret.Cmp(client.Secret) != 0 {
		t.Fatal("connector did not load its own secret correctly")
	}
	if connectorLT.Peer.Cmp(server.Public) != 0 {
		t.Fatal("connector did not load the listener's public key correctly")
	}

	listenerLT.Zeroize()
	if listenerLT.Own.Secret.Sign() != 0 {
		t.Fatal("Zeroize did not clear the secret")
	}
}
