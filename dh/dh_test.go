// Copyright (c) 2016 Company 0, LLC.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package dh

import (
	"bytes"
	"math/big"
	"os"
	"path/filepath"
	"testing"
)

// testParams returns a small (test-only, not cryptographically strong)
// prime-modulus group so the arithmetic in these tests runs fast.
func testParams(t *testing.T) *Params {
	t.Helper()
	p, ok := new(big.Int).SetString("2357", 10) // prime, (p-1)/2 = 1178 = 2*19*31
	if !ok {
		t.Fatal("bad test prime")
	}
	q, ok := new(big.Int).SetString("1178", 10)
	if !ok {
		t.Fatal("bad test order")
	}
	return &Params{
		P: p,
		G: big.NewInt(2),
		Q: q,
	}
}

func TestGenerateProducesValidPublic(t *testing.T) {
	params := testParams(t)
	kp, err := Generate(params)
	if err != nil {
		t.Fatal(err)
	}
	want := new(big.Int).Exp(params.G, kp.Secret, params.P)
	if want.Cmp(kp.Public) != 0 {
		t.Fatalf("public = %v, want %v", kp.Public, want)
	}
}

func TestCombine3Agreement(t *testing.T) {
	params := testParams(t)

	aliceLT, err := Generate(params)
	if err != nil {
		t.Fatal(err)
	}
	bobLT, err := Generate(params)
	if err != nil {
		t.Fatal(err)
	}
	aliceEph, err := Generate(params)
	if err != nil {
		t.Fatal(err)
	}
	bobEph, err := Generate(params)
	if err != nil {
		t.Fatal(err)
	}

	aliceSecret, err := Combine3(params, true, aliceLT.Secret, aliceEph.Secret, bobLT.Public, bobEph.Public, 64)
	if err != nil {
		t.Fatal(err)
	}
	bobSecret, err := Combine3(params, false, bobLT.Secret, bobEph.Secret, aliceLT.Public, aliceEph.Public, 64)
	if err != nil {
		t.Fatal(err)
	}

	if !bytes.Equal(aliceSecret, bobSecret) {
		t.Fatalf("derived secrets differ:\nalice: %x\nbob:   %x", aliceSecret, bobSecret)
	}
	if len(aliceSecret) != 64 {
		t.Fatalf("expected 64 bytes, got %d", len(aliceSecret))
	}
}

func TestCombine3DisagreesOnWrongIdentity(t *testing.T) {
	params := testParams(t)

	aliceLT, _ := Generate(params)
	bobLT, _ := Generate(params)
	mallorysLT, _ := Generate(params)
	aliceEph, _ := Generate(params)
	bobEph, _ := Generate(params)

	aliceSecret, err := Combine3(params, true, aliceLT.Secret, aliceEph.Secret, bobLT.Public, bobEph.Public, 64)
	if err != nil {
		t.Fatal(err)
	}
	// Bob actually holds mallory's long-term secret, not the one alice trusts.
	bobSecret, err := Combine3(params, false, mallorysLT.Secret, bobEph.Secret, aliceLT.Public, aliceEph.Public, 64)
	if err != nil {
		t.Fatal(err)
	}

	if bytes.Equal(aliceSecret, bobSecret) {
		t.Fatal("secrets should differ when long-term identity doesn't match")
	}
}

func TestZeroize(t *testing.T) {
	params := testParams(t)
	kp, err := Generate(params)
	if err != nil {
		t.Fatal(err)
	}
	if kp.Secret.Sign() == 0 {
		t.Fatal("test setup: secret is already zero")
	}
	Zeroize(kp)
	if kp.Secret.Sign() != 0 {
		t.Fatalf("expected zeroized secret, got %v", kp.Secret)
	}
}

func TestKeyPairFileRoundTrip(t *testing.T) {
	params := testParams(t)
	kp, err := Generate(params)
	if err != nil {
		t.Fatal(err)
	}

	dir := t.TempDir()
	keyPath := filepath.Join(dir, "long_term_key")
	pubPath := filepath.Join(dir, "long_term_key.pub")

	if err := WriteKeyPair(keyPath, kp); err != nil {
		t.Fatal(err)
	}
	if err := WritePublic(pubPath, kp.Public); err != nil {
		t.Fatal(err)
	}

	loaded, err := ReadKeyPair(keyPath)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Secret.Cmp(kp.Secret) != 0 || loaded.Public.Cmp(kp.Public) != 0 {
		t.Fatal("keypair round trip mismatch")
	}

	pub, err := ReadPublic(pubPath)
	if err != nil {
		t.Fatal(err)
	}
	if pub.Cmp(kp.Public) != 0 {
		t.Fatal("public round trip mismatch")
	}
}

func TestParamsFileRoundTrip(t *testing.T) {
	params := testParams(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "params")

	if err := WriteParams(path, params); err != nil {
		t.Fatal(err)
	}
	loaded, err := InitParams(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.P.Cmp(params.P) != 0 || loaded.G.Cmp(params.G) != 0 || loaded.Q.Cmp(params.Q) != 0 {
		t.Fatal("params round trip mismatch")
	}
}

func TestInitParamsBadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "missing")
	if _, err := InitParams(path); err != ErrBadParameters {
		t.Fatalf("expected ErrBadParameters, got %v", err)
	}

	garbage := filepath.Join(dir, "garbage")
	if err := os.WriteFile(garbage, []byte("not xdr"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := InitParams(garbage); err != ErrBadParameters {
		t.Fatalf("expected ErrBadParameters, got %v", err)
	}
}

func TestGenerate2048Params(t *testing.T) {
	params, err := Generate2048Params()
	if err != nil {
		t.Fatal(err)
	}
	if params.P.BitLen() != 2048 {
		t.Fatalf("expected a 2048-bit modulus, got %d bits", params.P.BitLen())
	}
	want := new(big.Int).Rsh(new(big.Int).Sub(params.P, big.NewInt(1)), 1)
	if params.Q.Cmp(want) != 0 {
		t.Fatal("q is not (p-1)/2")
	}
	if params.G.Cmp(big.NewInt(2)) != 0 {
		t.Fatalf("expected generator 2, got %v", params.G)
	}
}
