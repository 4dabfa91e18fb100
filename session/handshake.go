// Copyright (c) 2016 Company 0, LLC.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package session drives the authenticated key-agreement handshake and
// owns the live encrypted channel that follows it. It is structured
// after the teacher's session.KX (session/kx.go in the example pack):
// one struct holding the connection and derived key material, a pair of
// role-asymmetric phase functions (here RunListener/RunConnector instead
// of Respond/Initiate), and Send/Receive/Shutdown on the resulting
// Session.
package session

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha512"
	"crypto/subtle"
	"io"
	"math/big"
	"net"
	"time"

	"github.com/kareemv/securechat/debug"
	"github.com/kareemv/securechat/dh"
	"github.com/kareemv/securechat/identity"
	"github.com/kareemv/securechat/internal/wire"
)

const (
	ivSize           = 16
	sessionKeySize   = 64 // K_enc (32) || K_mac (32)
	confirmTokenSize = 64 // HMAC-SHA512 output
)

var confirmMessage = []byte("auth-verification-token")

// RunListener drives the listener side of the handshake to completion
// over conn, using lt for long-term identity and params for the DH
// group. On success it returns a ready-to-use Session. On any failure it
// drains and closes conn and zeroizes lt before returning.
func RunListener(conn net.Conn, lt *identity.LongTermKeyPair, params *dh.Params, log *debug.Debug) (*Session, error) {
	return runHandshake(conn, lt, params, log, true)
}

// RunConnector drives the connector side of the handshake to completion
// over conn. See RunListener for the failure contract.
func RunConnector(conn net.Conn, lt *identity.LongTermKeyPair, params *dh.Params, log *debug.Debug) (*Session, error) {
	return runHandshake(conn, lt, params, log, false)
}

func runHandshake(conn net.Conn, lt *identity.LongTermKeyPair, params *dh.Params, log *debug.Debug, isListener bool) (sess *Session, err error) {
	defer func() {
		lt.Zeroize()
		if err != nil {
			drainAndClose(conn)
		}
	}()

	logf(log, isListener, "beginning ephemeral key exchange")

	ephemeral, err := dh.Generate(params)
	if err != nil {
		return nil, err
	}

	peerEph, err := exchangeEphemeralPublics(conn, isListener, ephemeral.Public)
	if err != nil {
		return nil, err
	}
	logf(log, isListener, "ephemeral keys exchanged")

	secret, err := dh.Combine3(params, isListener, lt.Own.Secret, ephemeral.Secret, lt.Peer, peerEph, sessionKeySize)
	dh.Zeroize(ephemeral)
	if err != nil {
		return nil, err
	}
	kEnc := secret[:32]
	kMac := secret[32:64]
	logf(log, isListener, "session secret derived")

	ok, err := confirmSecret(conn, isListener, secret)
	if err != nil {
		return nil, err
	}
	if !ok {
		logf(log, isListener, "confirmation token mismatch")
		return nil, ErrAuthFailed
	}
	logf(log, isListener, "confirmation token verified")

	iv, err := exchangeIV(conn, isListener)
	if err != nil {
		return nil, err
	}
	logf(log, isListener, "iv exchanged, channel ready")

	sendStream, err := newCipherStream(kEnc, iv)
	if err != nil {
		return nil, err
	}
	recvStream, err := newCipherStream(kEnc, iv)
	if err != nil {
		return nil, err
	}

	sess = &Session{
		conn:   conn,
		log:    log,
		kEnc:   kEnc,
		kMac:   kMac,
		iv:     iv,
		send: &sendState{stream: sendStream},
		recv: &recvState{stream: recvStream, first: true},
	}

	return sess, nil
}

// exchangeEphemeralPublics performs the listener-sends-first ephemeral
// public key exchange from SPEC_FULL.md §4.3 phase 1; swapping this order
// deadlocks both peers.
func exchangeEphemeralPublics(conn net.Conn, isListener bool, ownPublic *big.Int) (*big.Int, error) {
	if isListener {
		if err := wire.PutUint(conn, ownPublic); err != nil {
			return nil, ErrIo
		}
		peer, err := wire.GetUint(conn)
		if err != nil {
			return nil, translateWireErr(err)
		}
		return peer, nil
	}

	peer, err := wire.GetUint(conn)
	if err != nil {
		return nil, translateWireErr(err)
	}
	if err := wire.PutUint(conn, ownPublic); err != nil {
		return nil, ErrIo
	}
	return peer, nil
}

// confirmSecret performs phase 3: the listener sends an HMAC-SHA512
// confirmation token, the connector verifies it in constant time and
// replies with a single success/failure byte, and the listener reads
// that byte.
func confirmSecret(conn net.Conn, isListener bool, secret []byte) (bool, error) {
	token := hmac.New(sha512.New, secret)
	token.Write(confirmMessage)
	want := token.Sum(nil)

	if isListener {
		if err := writeFull(conn, want); err != nil {
			return false, ErrIo
		}
		var resp [1]byte
		if _, err := io.ReadFull(conn, resp[:]); err != nil {
			return false, ErrIo
		}
		return resp[0] == 1, nil
	}

	var got [confirmTokenSize]byte
	if _, err := io.ReadFull(conn, got[:]); err != nil {
		return false, ErrIo
	}
	match := subtle.ConstantTimeCompare(got[:], want) == 1

	resp := byte(0)
	if match {
		resp = 1
	}
	if err := writeFull(conn, []byte{resp}); err != nil {
		return false, ErrIo
	}
	return match, nil
}

// exchangeIV performs phase 4: the connector generates and sends a fresh
// random IV, the listener reads it.
func exchangeIV(conn net.Conn, isListener bool) ([]byte, error) {
	if isListener {
		var iv [ivSize]byte
		if _, err := io.ReadFull(conn, iv[:]); err != nil {
			return nil, ErrIo
		}
		return iv[:], nil
	}

	iv := make([]byte, ivSize)
	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return nil, ErrIo
	}
	if err := writeFull(conn, iv); err != nil {
		return nil, ErrIo
	}
	return iv, nil
}

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

// translateWireErr maps internal/wire's own error taxonomy onto this
// package's: everything except an oversized integer is a plain I/O
// failure from the handshake's point of view.
func translateWireErr(err error) error {
	if err == wire.ErrOversizedInteger {
		return err
	}
	return ErrIo
}

// drainAndClose half-closes conn for writing, drains any residual bytes
// until EOF, an error, or a short read deadline, and closes it. Used by
// Shutdown and on every handshake failure path.
func drainAndClose(conn net.Conn) {
	if hc, ok := conn.(interface{ CloseWrite() error }); ok {
		hc.CloseWrite()
	}
	conn.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
	var dummy [64]byte
	for {
		_, err := conn.Read(dummy[:])
		if err != nil {
			break
		}
	}
	conn.Close()
}

func logf(log *debug.Debug, isListener bool, format string, args ...interface{}) {
	if log == nil {
		return
	}
	role := "connector"
	if isListener {
		role = "listener"
	}
	log.Dbg(debug.SubsystemHandshake, role+": "+format, args...)
}
