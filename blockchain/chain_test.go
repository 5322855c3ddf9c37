// Copyright (c) 2013-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import (
	"reflect"
	"testing"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
)

// TestBlockLocator ensures block locators are built for main chain and side
// chain blocks and unknown hashes fall back to the best chain tip.
func TestBlockLocator(t *testing.T) {
	// Construct a synthetic block chain with a block index consisting of
	// the following structure.
	// 	genesis -> 1 -> 2 -> ... -> 15 -> 16  -> 17  -> 18 -> 19 -> 20
	// 	                              \-> 16a -> 17a
	b := newFakeChain(regressionParams())
	genesis := b.bestChain.Genesis()
	branch0Nodes := extendFakeChain(b, genesis, 20, 600, false)
	branch1Nodes := extendFakeChain(b, branch0Nodes[14], 2, 300, false)
	b.bestChain.SetTip(tstTip(branch0Nodes))

	genesisLocator := BlockLocator{&genesis.hash}
	tipLocator := zipLocators(
		locatorHashes(branch0Nodes, 19, 18, 17, 16, 15, 14, 13, 12,
			11, 10, 9, 8, 6, 2), genesisLocator)
	sideLocator := zipLocators(
		locatorHashes(branch1Nodes, 1, 0),
		locatorHashes(branch0Nodes, 14, 13, 12, 11, 10, 9, 8, 7, 6,
			5, 3), genesisLocator)

	tests := []struct {
		name string
		hash *chainhash.Hash
		want BlockLocator
	}{{
		name: "genesis",
		hash: &genesis.hash,
		want: genesisLocator,
	}, {
		name: "short chain",
		hash: &branch0Nodes[2].hash,
		want: zipLocators(locatorHashes(branch0Nodes, 2, 1, 0),
			genesisLocator),
	}, {
		name: "main chain tip",
		hash: &tstTip(branch0Nodes).hash,
		want: tipLocator,
	}, {
		name: "side chain tip",
		hash: &tstTip(branch1Nodes).hash,
		want: sideLocator,
	}, {
		name: "unknown hash",
		hash: &chainhash.Hash{0xff},
		want: tipLocator,
	}}

	for _, test := range tests {
		locator := b.BlockLocatorFromHash(test.hash)
		if !reflect.DeepEqual(locator, test.want) {
			t.Errorf("%s: mismatched locator - got %v, want %v",
				test.name, locator, test.want)
		}
	}

	if locator := b.LatestBlockLocator(); !reflect.DeepEqual(locator, tipLocator) {
		t.Errorf("LatestBlockLocator: mismatched locator - got %v, want %v",
			locator, tipLocator)
	}
}

// TestBlockLocatorLimit ensures locators of very long chains never exceed the
// maximum allowed by the wire protocol and end at the genesis block.
func TestBlockLocatorLimit(t *testing.T) {
	b := newFakeChain(regressionParams())
	genesis := b.bestChain.Genesis()
	nodes := chainedNodes(genesis, 1<<12)
	b.bestChain.SetTip(tstTip(nodes))

	locator := b.LatestBlockLocator()
	if len(locator) > wire.MaxBlockLocatorsPerMsg {
		t.Fatalf("locator has %d entries, max %d", len(locator),
			wire.MaxBlockLocatorsPerMsg)
	}
	if *locator[len(locator)-1] != genesis.hash {
		t.Fatalf("locator ends at %v, want genesis %v",
			locator[len(locator)-1], genesis.hash)
	}
	if want := 12 + int(fastLog2Floor(uint32(tstTip(nodes).height)-10)); len(locator) != want {
		t.Fatalf("locator has %d entries, want %d", len(locator), want)
	}
}
