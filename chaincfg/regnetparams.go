// Copyright (c) 2014-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package chaincfg

import (
	"time"

	"github.com/btcsuite/btcd/wire"
)

// RegressionNet identifies the regression test network by its message start
// bytes.
const RegressionNet wire.BitcoinNet = 0xdab5bffa

// RegressionNetParams defines the network parameters for the regression test
// network.  Not to be confused with the test network, this network is
// sometimes simply called "regtest".  The checkpoint authority key is the
// secp256k1 generator point (private key 1) so tests and local setups can
// issue sync checkpoints.
var RegressionNetParams = Params{
	Name:        "regtest",
	Net:         RegressionNet,
	DefaultPort: "19904",

	// Chain parameters
	GenesisBlock:     &regressionGenesisBlock,
	GenesisHash:      &regressionGenesisHash,
	PowLimit:         regressionPowLimit,
	PowLimitBits:     0x207fffff,
	CoinbaseMaturity: 10,

	// Stake parameters
	StakeMinAge:       time.Hour * 2,
	StakeMaxAge:       time.Hour * 24 * 30,
	ModifierInterval:  time.Minute * 20,
	WeightSwitchTime:  0,
	CheckpointMaxSpan: time.Hour * 4,
	CheckpointPubKey:  hexDecode("0279be667ef9dcbbac55a06295ce870b07029bfcdb2dce28d959f2815b16f81798"),

	// Checkpoints ordered from oldest to newest.
	Checkpoints: []Checkpoint{
		{0, &regressionGenesisHash},
	},
}
