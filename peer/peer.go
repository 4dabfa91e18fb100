// Copyright (c) 2016 Company 0, LLC.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package peer implements the two role entry points from SPEC_FULL.md
// §4.6: ListenAndAccept binds a single-use listening socket and accepts
// exactly one connection, ConnectTo dials out. Both run the matching
// session handshake side to completion and hand back a ready channel.
// Grounded on original_source/chat.c's initServerNet/initClientNet,
// reworked onto net.Listen/net.Dial and context cancellation instead of
// raw sockets and a GTK main loop.
package peer

import (
	"context"
	"fmt"
	"net"
	"syscall"

	"github.com/kareemv/securechat/debug"
	"github.com/kareemv/securechat/dh"
	"github.com/kareemv/securechat/identity"
	"github.com/kareemv/securechat/session"
)

// ListenAndAccept binds port with SO_REUSEADDR, accepts exactly one
// inbound connection, closes the listening socket, and runs the
// listener side of the handshake over the accepted connection. ctx
// cancellation aborts a pending Accept; it does not interrupt an
// in-progress handshake, and no I/O deadline is set on the accepted
// connection, so a stalled peer blocks the handshake indefinitely.
func ListenAndAccept(ctx context.Context, port int, lt *identity.LongTermKeyPair, params *dh.Params, log *debug.Debug) (*session.Session, error) {
	lc := net.ListenConfig{
		Control: reuseAddrControl,
	}
	ln, err := lc.Listen(ctx, "tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return nil, err
	}
	logf(log, "listening on port %d", port)

	conn, err := acceptOne(ctx, ln)
	ln.Close()
	if err != nil {
		return nil, err
	}
	logf(log, "connection accepted, starting handshake")

	return session.RunListener(conn, lt, params, log)
}

// ConnectTo dials host:port and runs the connector side of the
// handshake over the resulting connection.
func ConnectTo(ctx context.Context, host string, port int, lt *identity.LongTermKeyPair, params *dh.Params, log *debug.Debug) (*session.Session, error) {
	var d net.Dialer
	addr := fmt.Sprintf("%s:%d", host, port)
	logf(log, "connecting to %s", addr)

	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, err
	}
	logf(log, "connected, starting handshake")

	return session.RunConnector(conn, lt, params, log)
}

// acceptOne accepts a single connection, honoring ctx cancellation by
// racing Accept against ctx.Done and closing the listener to unblock
// it if the context is canceled first.
func acceptOne(ctx context.Context, ln net.Listener) (net.Conn, error) {
	type result struct {
		conn net.Conn
		err  error
	}
	done := make(chan result, 1)
	go func() {
		conn, err := ln.Accept()
		done <- result{conn, err}
	}()

	select {
	case <-ctx.Done():
		ln.Close()
		<-done
		return nil, ctx.Err()
	case r := <-done:
		return r.conn, r.err
	}
}

// reuseAddrControl sets SO_REUSEADDR on the listening socket before
// bind, matching initServerNet's setsockopt call so a just-restarted
// listener can immediately reclaim a port still in TIME_WAIT.
func reuseAddrControl(network, address string, c syscall.RawConn) error {
	var sockErr error
	err := c.Control(func(fd uintptr) {
		sockErr = syscall.SetsockoptInt(int(fd), syscall.SOL_SOCKET, syscall.SO_REUSEADDR, 1)
	})
	if err != nil {
		return err
	}
	return sockErr
}

func logf(log *debug.Debug, format string, args ...interface{}) {
	if log == nil {
		return
	}
	log.Dbg(debug.SubsystemPeer, format, args...)
}
