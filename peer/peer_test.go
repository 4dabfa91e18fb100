// Copyright (c) 2016 Company 0, LLC.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package peer

import (
	"context"
	"math/big"
	"net"
	"path/filepath"
	"testing"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kareemv/securechat/dh"
	"github.com/kareemv/securechat/identity"
	"github.com/kareemv/securechat/session"
)

func testParams(t *testing.T) *dh.Params {
	t.Helper()
	p, _ := new(big.Int).SetString("23279", 10)
	q, _ := new(big.Int).SetString("11639", 10)
	return &dh.Params{P: p, G: big.NewInt(5), Q: q}
}

func writeIdentities(t *testing.T, dir string, params *dh.Params) (*identity.LongTermKeyPair, *identity.LongTermKeyPair) {
	t.Helper()

	serverKP, err := dh.Generate(params)
	if err != nil {
		t.Fatal(err)
	}
	clientKP, err := dh.Generate(params)
	if err != nil {
		t.Fatal(err)
	}
	if err := dh.WriteKeyPair(filepath.Join(dir, identity.ServerKeyFilename), serverKP); err != nil {
		t.Fatal(err)
	}
	if err := dh.WriteKeyPair(filepath.Join(dir, identity.ClientKeyFilename), clientKP); err != nil {
		t.Fatal(err)
	}
	if err := dh.WritePublic(filepath.Join(dir, identity.ServerKeyFilename+".pub"), serverKP.Public); err != nil {
		t.Fatal(err)
	}
	if err := dh.WritePublic(filepath.Join(dir, identity.ClientKeyFilename+".pub"), clientKP.Public); err != nil {
		t.Fatal(err)
	}

	listenerLT, err := identity.LoadListener(dir)
	if err != nil {
		t.Fatal(err)
	}
	connectorLT, err := identity.LoadConnector(dir)
	if err != nil {
		t.Fatal(err)
	}
	return listenerLT, connectorLT
}

// findFreePort picks an ephemeral TCP port by binding and releasing it;
// ListenAndAccept takes a bare port number rather than a net.Listener,
// so tests can't use the usual ":0"-then-inspect-Addr trick directly.
func findFreePort(t *testing.T) int {
	t.Helper()
	ln, err := (&net.ListenConfig{}).Listen(context.Background(), "tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	port := ln.Addr().(*net.TCPAddr).Port
	ln.Close()
	return port
}

func TestListenAndAcceptConnectTo(t *testing.T) {
	params := testParams(t)
	dir := t.TempDir()
	listenerLT, connectorLT := writeIdentities(t, dir, params)
	port := findFreePort(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var eg errgroup.Group
	var listenerSess *session.Session
	eg.Go(func() error {
		sess, err := ListenAndAccept(ctx, port, listenerLT, params, nil)
		if err != nil {
			return err
		}
		listenerSess = sess
		return nil
	})

	// Give the listener a moment to bind before the connector dials.
	time.Sleep(50 * time.Millisecond)

	connectorSess, err := ConnectTo(ctx, "127.0.0.1", port, connectorLT, params, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer connectorSess.Shutdown()

	if err := eg.Wait(); err != nil {
		t.Fatal(err)
	}
	defer listenerSess.Shutdown()

	if err := connectorSess.Send([]byte("hello\n")); err != nil {
		t.Fatal(err)
	}
	got, err := listenerSess.Receive()
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "hello\n" {
		t.Fatalf("got %q, want %q", got, "hello\n")
	}
}

func TestListenAndAcceptContextCancel(t *testing.T) {
	params := testParams(t)
	dir := t.TempDir()
	listenerLT, _ := writeIdentities(t, dir, params)
	port := findFreePort(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := ListenAndAccept(ctx, port, listenerLT, params, nil); err == nil {
		t.Fatal("expected error from canceled context")
	}
}
