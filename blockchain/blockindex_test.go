// Copyright (c) 2018 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import (
	"math/big"
	"testing"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/stretchr/testify/require"
)

// mustParseHash converts the passed big-endian hex string into a
// chainhash.Hash and will panic if there is an error.  It only differs from the
// one available in chainhash in that it will panic so errors in the source code
// be detected.  It will only (and must only) be called with hard-coded, and
// therefore known good, hashes.
func mustParseHash(s string) *chainhash.Hash {
	hash, err := chainhash.NewHashFromStr(s)
	if err != nil {
		panic("invalid hash in source file: " + s)
	}
	return hash
}

// TestBlockNodeFlags ensures the proof-of-stake properties of block nodes are
// tracked by their flags.
func TestBlockNodeFlags(t *testing.T) {
	params := regressionParams()
	genesis := newBlockNode(&params.GenesisBlock.Header, nil, false)
	require.False(t, genesis.isProofOfStake())
	require.Equal(t, genesis.hash, *genesis.proofHash())
	require.Equal(t, stakeEntropyBit(&genesis.hash), genesis.entropyBit())

	header := wire.BlockHeader{
		PrevBlock: genesis.hash,
		Bits:      params.PowLimitBits,
		Timestamp: genesis.Time().Add(testBlockSpacing),
	}
	node := newBlockNode(&header, genesis, true)
	node.hashProofOfStake = chainhash.Hash{0x01}
	require.True(t, node.isProofOfStake())
	require.Equal(t, node.hashProofOfStake, *node.proofHash())
	require.Equal(t, int32(1), node.height)
	require.Equal(t, header.Timestamp.Unix(), node.Time().Unix())

	// Proof-of-stake blocks weigh in with the work of their target.
	want := new(big.Int).Add(genesis.workSum, CalcWork(params.PowLimitBits))
	require.Zero(t, want.Cmp(node.workSum))

	node.setStakeModifier(0xfeed, true)
	require.True(t, node.generatedStakeModifier())
	require.Equal(t, uint64(0xfeed), node.stakeModifier)
	node.setStakeModifier(0xfeed, false)
	require.False(t, node.generatedStakeModifier())
	require.True(t, node.isProofOfStake())
}

// TestLastProofOfWork ensures the most recent proof-of-work ancestor is found.
func TestLastProofOfWork(t *testing.T) {
	b := newFakeChain(regressionParams())
	genesis := b.bestChain.Genesis()
	nodes := extendFakeChain(b, genesis, 4, 600, true)

	tests := []struct {
		name string
		node *blockNode
		want *blockNode
	}{
		{"genesis", genesis, genesis},
		{"proof-of-work", nodes[2], nodes[2]},
		{"proof-of-stake", nodes[3], nodes[2]},
		{"after genesis", nodes[1], nodes[0]},
	}
	for _, test := range tests {
		require.Same(t, test.want, test.node.lastProofOfWork(), test.name)
	}

	// A chain without proof-of-work blocks falls back to genesis.
	stake := newFakeNode(b.chainParams, genesis, genesis.timestamp+600, true)
	require.Same(t, genesis, stake.lastProofOfWork())
}

// TestChainTips ensures the index keeps track of the chain tips and finds the
// best tip descending from a node.
func TestChainTips(t *testing.T) {
	bi := newBlockIndex()
	branch0 := chainedNodes(nil, 4)
	for _, node := range branch0 {
		bi.AddNode(node)
	}
	branch1 := chainedNodes(branch0[1], 3)
	for _, node := range branch1 {
		bi.AddNode(node)
	}

	require.True(t, bi.HaveBlock(&branch1[2].hash))
	require.Same(t, branch0[3], bi.LookupNode(&branch0[3].hash))
	require.Nil(t, bi.LookupNode(&chainhash.Hash{0xff}))

	// Only the two branch ends are tips.
	var tips []*blockNode
	for _, nodes := range bi.chainTips {
		tips = append(tips, nodes...)
	}
	require.ElementsMatch(t, []*blockNode{tstTip(branch0), tstTip(branch1)},
		tips)

	tests := []struct {
		name string
		node *blockNode
		want *blockNode
	}{
		{"genesis picks longer branch", branch0[0], tstTip(branch1)},
		{"fork point picks longer branch", branch0[1], tstTip(branch1)},
		{"main branch only", branch0[2], tstTip(branch0)},
		{"side branch", branch1[0], tstTip(branch1)},
		{"tip itself", tstTip(branch0), tstTip(branch0)},
	}
	for _, test := range tests {
		require.Same(t, test.want, bi.bestTipDescending(test.node), test.name)
	}
}
