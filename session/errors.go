// Copyright (c) 2016 Company 0, LLC.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package session

import "errors"

// Error taxonomy for the handshake engine, frame codec, and channel
// session. These are sentinel values, not a type hierarchy, matching the
// teacher's var ErrX = errors.New(...) convention in session/kx.go and
// sigma/sigma.go.
var (
	// ErrIo covers any underlying read/write fault or unexpected EOF
	// encountered during the handshake.
	ErrIo = errors.New("session: i/o error")

	// ErrAuthFailed is returned when the confirmation token does not
	// match: the peers derived different session secrets.
	ErrAuthFailed = errors.New("session: authentication failed")

	// ErrFrameTooShort is returned by Decrypt when a frame is smaller
	// than the minimum nonce+mac size.
	ErrFrameTooShort = errors.New("session: frame too short")

	// ErrMessageTooLarge is returned by Encrypt when the plaintext
	// exceeds MaxPlaintextSize.
	ErrMessageTooLarge = errors.New("session: message too large")

	// ErrMacFailed is returned by Decrypt when the MAC does not
	// verify.
	ErrMacFailed = errors.New("session: mac verification failed")

	// ErrReplay is returned by Decrypt when the frame's nonce is not
	// strictly greater than the last accepted nonce.
	ErrReplay = errors.New("session: replay detected")

	// ErrPeerClosed signals an orderly remote shutdown. It is a
	// terminal signal, not strictly an error.
	ErrPeerClosed = errors.New("session: peer closed the connection")
)
