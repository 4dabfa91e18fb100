// Copyright (c) 2016 Company 0, LLC.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package session

import (
	"io"
	"net"
	"sync"

	"github.com/kareemv/securechat/debug"
)

// Session owns the socket and cipher state of a completed handshake. It
// offers a blocking Send/Receive pair and an idempotent Shutdown. Per
// SPEC_FULL.md §5, Send must only ever be called from one context and
// Receive from another: the encrypt stream and send counter belong to
// the sender, the decrypt stream and receive counter belong to the
// receiver, and K_mac is read-only and safe to share. No locking is
// needed on the hot path as long as that split is honored.
type Session struct {
	conn net.Conn
	log  *debug.Debug

	kEnc []byte // 32 bytes, retained only so Shutdown can zeroize it
	kMac []byte // 32 bytes, read-only after handshake, shared by both directions
	iv   []byte // 16 bytes

	send *sendState
	recv *recvState

	shutdownOnce sync.Once
}

// Send encrypts plaintext into one frame and writes it. It blocks until
// the full frame is written. Only the sending context may call Send.
func (s *Session) Send(plaintext []byte) error {
	frame, err := s.send.encrypt(s.kMac, plaintext)
	if err != nil {
		return err
	}
	if err := writeFull(s.conn, frame); err != nil {
		return ErrIo
	}
	return nil
}

// Receive reads one frame and decrypts it, blocking until a full frame
// arrives or the peer performs an orderly shutdown (ErrPeerClosed). Only
// the receiving context may call Receive.
//
// FrameTooShort, MacFailed, and Replay are all fatal to the session: once
// any of them occurs, the two peers' cipher states can no longer be
// assumed to be in lockstep, so the channel is no longer trustworthy.
// Receive does not close the session itself on those errors; the caller
// is expected to call Shutdown.
func (s *Session) Receive() ([]byte, error) {
	frame, err := s.readFrame()
	if err != nil {
		if err == io.EOF {
			return nil, ErrPeerClosed
		}
		return nil, ErrIo
	}

	return s.recv.decrypt(s.kMac, frame)
}

// readFrame reads exactly one frame: a nonce, a variable-length
// ciphertext, and a mac. Frames carry no explicit length prefix on the
// wire (the frame is a single write of nonce||ciphertext||mac, the same
// as the original C implementation's recv()), so readFrame treats
// whatever one Read() returns as a complete frame. A stream socket does
// not guarantee that a single Read() returns exactly one write's worth
// of bytes; this limitation is recorded in DESIGN.md's Open Question
// decisions rather than handled here.
func (s *Session) readFrame() ([]byte, error) {
	buf := make([]byte, nonceSize+MaxPlaintextSize+macSize)
	n, err := s.conn.Read(buf)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, io.EOF
	}
	return buf[:n], nil
}

// Shutdown zeroizes the session's key material (K_enc, K_mac, and the
// IV), half-closes the socket, drains any residual inbound bytes, and
// closes the socket. The expanded AES key schedules held by the send and
// receive CTR streams are not cleared. Calling Shutdown more than once is
// safe; only the first call has any effect.
func (s *Session) Shutdown() {
	s.shutdownOnce.Do(func() {
		for i := range s.kEnc {
			s.kEnc[i] = 0
		}
		for i := range s.kMac {
			s.kMac[i] = 0
		}
		for i := range s.iv {
			s.iv[i] = 0
		}

		drainAndClose(s.conn)
	})
}
