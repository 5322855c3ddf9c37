// Copyright (c) 2014 The btcsuite developers
// Copyright (c) 2015-2016 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import (
	"math/big"
	"testing"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

func TestBigToCompact(t *testing.T) {
	tests := []struct {
		in  int64
		out uint32
	}{
		{0, 0},
		{-1, 25231360},
	}

	for x, test := range tests {
		n := big.NewInt(test.in)
		r := BigToCompact(n)
		if r != test.out {
			t.Errorf("TestBigToCompact test #%d failed: got %d want %d\n",
				x, r, test.out)
			return
		}
	}
}

func TestCompactToBig(t *testing.T) {
	tests := []struct {
		in  uint32
		out int64
	}{
		{10000000, 0},
		{0x03123456, 0x123456},
		{0x04123456, 0x12345600},
	}

	for x, test := range tests {
		n := CompactToBig(test.in)
		want := big.NewInt(test.out)
		if n.Cmp(want) != 0 {
			t.Errorf("TestCompactToBig test #%d failed: got %d want %d\n",
				x, n.Int64(), want.Int64())
			return
		}
	}
}

func TestCalcWork(t *testing.T) {
	tests := []struct {
		in  uint32
		out int64
	}{
		{10000000, 0},
		{0x207fffff, 2},
	}

	for x, test := range tests {
		r := CalcWork(test.in)
		if r.Int64() != test.out {
			t.Errorf("TestCalcWork test #%d failed: got %v want %d\n",
				x, r.Int64(), test.out)
			return
		}
	}
}

// TestCalcTrust ensures proof-of-work blocks contribute a single unit of
// trust while proof-of-stake blocks contribute the work of their target.
func TestCalcTrust(t *testing.T) {
	if got := calcTrust(0x1d00ffff, false); got.Int64() != 1 {
		t.Fatalf("proof-of-work trust: got %v, want 1", got)
	}
	if got, want := calcTrust(0x1d00ffff, true), CalcWork(0x1d00ffff); got.Cmp(want) != 0 {
		t.Fatalf("proof-of-stake trust: got %v, want %v", got, want)
	}
}

func TestHashToBig(t *testing.T) {
	var h chainhash.Hash
	h[0] = 0x01
	h[31] = 0x80
	want := new(big.Int).Lsh(big.NewInt(0x80), 248)
	want.Add(want, big.NewInt(1))
	if got := HashToBig(&h); got.Cmp(want) != 0 {
		t.Fatalf("HashToBig: got %x, want %x", got, want)
	}
	if h[0] != 0x01 {
		t.Fatal("HashToBig modified its argument")
	}
}
