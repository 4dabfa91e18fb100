// Copyright (c) 2016 Company 0, LLC.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package dh wraps the Diffie-Hellman primitives consumed by the
// handshake engine: group parameter loading, ephemeral keypair
// generation, the 3-DH combine, and key-file I/O. The handshake treats
// this package as an opaque capability, the same way session/kx.go in
// the teacher repo treats its KEM library: callers never reach past this
// package into math/big directly.
package dh

import (
	"bytes"
	"crypto/rand"
	"crypto/sha512"
	"errors"
	"io"
	"io/ioutil"
	"math/big"

	xdr "github.com/davecgh/go-xdr/xdr2"
	"golang.org/x/crypto/hkdf"
)

var (
	// ErrBadParameters is returned when a group parameter file is
	// missing or malformed.
	ErrBadParameters = errors.New("bad dh parameters")
)

// Params is a multiplicative-group Diffie-Hellman parameter set: a large
// prime modulus, a generator, and the order of the subgroup generated by
// it. Loaded once at process start and immutable thereafter.
type Params struct {
	P *big.Int // modulus
	G *big.Int // generator
	Q *big.Int // subgroup order
}

// wireParams is the on-disk XDR encoding of Params: decimal strings, since
// big.Int has no fixed-width XDR mapping.
type wireParams struct {
	P string
	G string
	Q string
}

// InitParams loads a group parameter set from path. The file holds the
// XDR encoding of three decimal-string big integers (modulus, generator,
// subgroup order).
func InitParams(path string) (*Params, error) {
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, ErrBadParameters
	}

	var wp wireParams
	if _, err := xdr.Unmarshal(bytes.NewReader(data), &wp); err != nil {
		return nil, ErrBadParameters
	}

	p := &Params{
		P: new(big.Int),
		G: new(big.Int),
		Q: new(big.Int),
	}
	if _, ok := p.P.SetString(wp.P, 10); !ok {
		return nil, ErrBadParameters
	}
	if _, ok := p.G.SetString(wp.G, 10); !ok {
		return nil, ErrBadParameters
	}
	if _, ok := p.Q.SetString(wp.Q, 10); !ok {
		return nil, ErrBadParameters
	}
	if p.P.Sign() <= 0 || p.G.Sign() <= 0 || p.Q.Sign() <= 0 {
		return nil, ErrBadParameters
	}

	return p, nil
}

// WriteParams writes params to path in the format InitParams reads.
func WriteParams(path string, params *Params) error {
	wp := wireParams{
		P: params.P.Text(10),
		G: params.G.Text(10),
		Q: params.Q.Text(10),
	}
	var buf bytes.Buffer
	if _, err := xdr.Marshal(&buf, wp); err != nil {
		return err
	}
	return ioutil.WriteFile(path, buf.Bytes(), 0600)
}

// KeyPair is a Diffie-Hellman keypair: a secret exponent in [1, Q) and
// the corresponding public element G^secret mod P.
type KeyPair struct {
	Secret *big.Int
	Public *big.Int
}

// Generate returns a fresh keypair: a uniform secret exponent in the
// subgroup and its corresponding public element.
func Generate(params *Params) (*KeyPair, error) {
	// sample uniformly from [1, Q)
	qMinus1 := new(big.Int).Sub(params.Q, big.NewInt(1))
	if qMinus1.Sign() <= 0 {
		return nil, ErrBadParameters
	}
	secret, err := rand.Int(rand.Reader, qMinus1)
	if err != nil {
		return nil, err
	}
	secret.Add(secret, big.NewInt(1))

	public := new(big.Int).Exp(params.G, secret, params.P)

	return &KeyPair{Secret: secret, Public: public}, nil
}

// Zeroize clears the secret exponent of kp. Public material and the
// struct itself are left intact; callers that need the memory reclaimed
// entirely should drop the last reference after calling Zeroize.
func Zeroize(kp *KeyPair) {
	if kp == nil || kp.Secret == nil {
		return
	}
	words := kp.Secret.Bits()
	for i := range words {
		words[i] = 0
	}
	kp.Secret.SetInt64(0)
}

// Combine3 derives outLen bytes of deterministic key material from three
// classical DH computations that together authenticate both peers'
// long-term identities and provide forward secrecy from the ephemeral
// pair: own-long-term x peer-ephemeral, own-ephemeral x peer-long-term,
// and own-ephemeral x peer-ephemeral. The three shared secrets are
// concatenated and expanded with HKDF-SHA512.
//
// Both sides of the handshake call Combine3 with their own (long-term,
// ephemeral) secret material and the peer's (long-term, ephemeral)
// public material. DH is commutative, so the two cross terms (own-LT x
// peer-eph, own-eph x peer-LT) take the same two values on both sides,
// but swapped: what one side computes as its first cross term is the
// other side's second. firstParty fixes a canonical concatenation order;
// exactly one side of any given handshake passes true, and the two
// sides must disagree, so both ends assemble the same byte string
// before it reaches HKDF.
func Combine3(params *Params, firstParty bool, ownLTSk *big.Int, ownEphSk *big.Int, peerLTPk, peerEphPk *big.Int, outLen int) ([]byte, error) {
	ltXeph := new(big.Int).Exp(peerEphPk, ownLTSk, params.P)  // own LT x peer eph
	ephXlt := new(big.Int).Exp(peerLTPk, ownEphSk, params.P)  // own eph x peer LT
	ephXeph := new(big.Int).Exp(peerEphPk, ownEphSk, params.P) // own eph x peer eph

	first, second := ltXeph, ephXlt
	if !firstParty {
		first, second = ephXlt, ltXeph
	}

	ikm := make([]byte, 0, 3*((params.P.BitLen()+7)/8))
	ikm = append(ikm, first.Bytes()...)
	ikm = append(ikm, second.Bytes()...)
	ikm = append(ikm, ephXeph.Bytes()...)

	kdf := hkdf.New(sha512.New, ikm, nil, []byte("3dh session key"))
	out := make([]byte, outLen)
	if _, err := io.ReadFull(kdf, out); err != nil {
		return nil, err
	}
	return out, nil
}

// wireKeyPair is the on-disk XDR encoding of a secret+public keypair.
type wireKeyPair struct {
	Secret string
	Public string
}

// rfc3526Group14Hex is the 2048-bit MODP group from RFC 3526 section 3:
// a standardized safe prime, reused rather than searched for fresh.
// Generating a new safe prime is too slow to do interactively; reusing
// a published, widely scrutinized group is the same tradeoff OpenSSH
// and TLS make for their own classical DH groups.
const rfc3526Group14Hex = "FFFFFFFFFFFFFFFFC90FDAA22168C234C4C6628B80DC1CD" +
	"129024E088A67CC74020BBEA63B139B22514A08798E3404DDEF9519B3CD3A43" +
	"1B302B0A6DF25F14374FE1356D6D51C245E485B576625E7EC6F44C42E9A637E" +
	"D6B0BFF5CB6F406B7EDEE386BFB5A899FA5AE9F24117C4B1FE649286651ECE4" +
	"5B3DC2007CB8A163BF0598DA48361C55D39A69163FA8FD24CF5F83655D23DCA" +
	"3AD961C62F356208552BB9ED529077096966D670C354E4ABC9804F1746C08CA" +
	"18217C32905E462E36CE3BE39E772C180E86039B2783A2EC07A28FB5C55DF06" +
	"F4C52C9DE2BCBF6955817183995497CEA956AE515D2261898FA051015728E5A" +
	"8AACAA68FFFFFFFFFFFFFFFF"

// Generate2048Params returns the RFC 3526 2048-bit MODP group (generator
// 2) as a Params value, with Q = (P-1)/2 since the group modulus is a
// safe prime. Used by securechat-keygen's -init-params flag in place of
// searching for a fresh safe prime.
func Generate2048Params() (*Params, error) {
	p, ok := new(big.Int).SetString(rfc3526Group14Hex, 16)
	if !ok {
		return nil, ErrBadParameters
	}
	q := new(big.Int).Rsh(new(big.Int).Sub(p, big.NewInt(1)), 1)
	return &Params{P: p, G: big.NewInt(2), Q: q}, nil
}

// WriteKeyPair writes kp's secret and public values to path.
func WriteKeyPair(path string, kp *KeyPair) error {
	wkp := wireKeyPair{
		Secret: kp.Secret.Text(10),
		Public: kp.Public.Text(10),
	}
	var buf bytes.Buffer
	if _, err := xdr.Marshal(&buf, wkp); err != nil {
		return err
	}
	return ioutil.WriteFile(path, buf.Bytes(), 0600)
}

// ReadKeyPair reads a secret+public keypair written by WriteKeyPair.
func ReadKeyPair(path string) (*KeyPair, error) {
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var wkp wireKeyPair
	if _, err := xdr.Unmarshal(bytes.NewReader(data), &wkp); err != nil {
		return nil, err
	}
	secret, ok := new(big.Int).SetString(wkp.Secret, 10)
	if !ok {
		return nil, errors.New("dh: malformed secret in key file")
	}
	public, ok := new(big.Int).SetString(wkp.Public, 10)
	if !ok {
		return nil, errors.New("dh: malformed public value in key file")
	}
	return &KeyPair{Secret: secret, Public: public}, nil
}

// wirePublic is the on-disk XDR encoding of a public-only element.
type wirePublic struct {
	Public string
}

// WritePublic writes only the public element of kp to path, for
// distribution to a peer as a peer-trust file.
func WritePublic(path string, public *big.Int) error {
	wp := wirePublic{Public: public.Text(10)}
	var buf bytes.Buffer
	if _, err := xdr.Marshal(&buf, wp); err != nil {
		return err
	}
	return ioutil.WriteFile(path, buf.Bytes(), 0644)
}

// ReadPublic reads a public-only element written by WritePublic.
func ReadPublic(path string) (*big.Int, error) {
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var wp wirePublic
	if _, err := xdr.Unmarshal(bytes.NewReader(data), &wp); err != nil {
		return nil, err
	}
	public, ok := new(big.Int).SetString(wp.Public, 10)
	if !ok {
		return nil, errors.New("dh: malformed public key file")
	}
	return public, nil
}
