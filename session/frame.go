// Copyright (c) 2016 Company 0, LLC.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package session

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/binary"
)

const (
	// MaxPlaintextSize is the largest plaintext Encrypt will accept.
	MaxPlaintextSize = 2048

	nonceSize = 8
	macSize   = 32
	// minFrameSize is the smallest a well-formed frame can be: an empty
	// ciphertext plus nonce and mac.
	minFrameSize = nonceSize + macSize
)

// sendState advances the local encrypt keystream and the monotonic
// nonce counter used on outbound frames.
type sendState struct {
	stream  cipher.Stream
	counter uint64
}

// recvState advances the local decrypt keystream and tracks the last
// accepted inbound nonce for replay detection.
type recvState struct {
	stream    cipher.Stream
	first     bool
	lastNonce uint64
}

// newCipherStream builds one direction's AES-256-CTR keystream. Both the
// send and the receive keystream of a session are seeded with the same
// (K_enc, IV) — see SPEC_FULL.md §4.4: this is what keeps the two peers'
// encrypt/decrypt states in lockstep, since the per-frame nonce is not
// fed into the cipher as an IV.
func newCipherStream(encKey, iv []byte) (cipher.Stream, error) {
	block, err := aes.NewCipher(encKey)
	if err != nil {
		return nil, err
	}
	return cipher.NewCTR(block, iv), nil
}

// encrypt produces one frame's wire bytes: nonce(8) || ciphertext(N) ||
// mac(32), advancing s and authenticating with macKey.
func (s *sendState) encrypt(macKey, plaintext []byte) ([]byte, error) {
	if len(plaintext) > MaxPlaintextSize {
		return nil, ErrMessageTooLarge
	}

	nonce := s.counter
	s.counter++

	frame := make([]byte, nonceSize+len(plaintext)+macSize)
	binary.LittleEndian.PutUint64(frame[:nonceSize], nonce)

	ciphertext := frame[nonceSize : nonceSize+len(plaintext)]
	s.stream.XORKeyStream(ciphertext, plaintext)

	m := hmac.New(sha256.New, macKey)
	m.Write(frame[:nonceSize+len(plaintext)])
	copy(frame[nonceSize+len(plaintext):], m.Sum(nil))

	return frame, nil
}

// decrypt parses and verifies one frame, enforcing the monotone-nonce
// replay check, and returns the plaintext.
func (r *recvState) decrypt(macKey, frame []byte) ([]byte, error) {
	if len(frame) < minFrameSize {
		return nil, ErrFrameTooShort
	}

	ciphertext := frame[nonceSize : len(frame)-macSize]
	wantMac := frame[len(frame)-macSize:]

	m := hmac.New(sha256.New, macKey)
	m.Write(frame[:len(frame)-macSize])
	gotMac := m.Sum(nil)
	if subtle.ConstantTimeCompare(gotMac, wantMac) != 1 {
		return nil, ErrMacFailed
	}

	nonce := binary.LittleEndian.Uint64(frame[:nonceSize])
	if r.first {
		r.first = false
		r.lastNonce = nonce
	} else if nonce <= r.lastNonce {
		return nil, ErrReplay
	} else {
		r.lastNonce = nonce
	}

	plaintext := make([]byte, len(ciphertext))
	r.stream.XORKeyStream(plaintext, ciphertext)
	return plaintext, nil
}
