// Copyright (c) 2014-2016 The btcsuite developers
// Copyright (c) 2015-2017 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package chaincfg

import (
	"time"

	"github.com/btcsuite/btcd/wire"
)

// TestNet identifies the public test network by its message start bytes.
const TestNet wire.BitcoinNet = 0xefc0f2cb

// testNetCheckpointPubKey is the sync checkpoint authority key for the network.
var testNetCheckpointPubKey = hexDecode("04d22e393d8500b017d0d3df9ef961321df12748bbd39a9f18b4cc47002717ad" +
	"4d2f0ba87d1d81b83fff61472fad51ce11677b55b4f0861b4272ca3c6b001f8b1e")

// TestNetParams defines the network parameters for the test network.
var TestNetParams = Params{
	Name:        "testnet",
	Net:         TestNet,
	DefaultPort: "9903",

	// Chain parameters
	GenesisBlock:     &testNetGenesisBlock,
	GenesisHash:      &testNetGenesisHash,
	PowLimit:         testNetPowLimit,
	PowLimitBits:     0x1d0fffff,
	CoinbaseMaturity: 60,

	// Stake parameters
	StakeMinAge:       time.Hour * 2,
	StakeMaxAge:       time.Hour * 24 * 30,
	ModifierInterval:  time.Minute * 20,
	WeightSwitchTime:  0,
	CheckpointMaxSpan: time.Hour * 4,
	CheckpointPubKey:  testNetCheckpointPubKey,

	// Checkpoints ordered from oldest to newest.
	Checkpoints: []Checkpoint{
		{0, &testNetGenesisHash},
	},

	// The test network does not pin stake modifier checksums.
	StakeModifierCheckpoints: nil,
}
