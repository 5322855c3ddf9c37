// Copyright (c) 2014-2016 The btcsuite developers
// Copyright (c) 2015-2017 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package chaincfg

import (
	"time"

	"github.com/btcsuite/btcd/wire"
)

// MainNet identifies the main network by its message start bytes.
const MainNet wire.BitcoinNet = 0xe5e9e8e6

// mainCheckpointPubKey is the sync checkpoint authority key for the network.
var mainCheckpointPubKey = hexDecode("04bdd7aa319f16d2682afab4d0d807141be59caac0291802ba7467f0288eaf54" +
	"db9d144f8c78231d61746bb7b5f1ef70f92c62d4b18c5488ab39118e38460304dd")

// MainNetParams defines the network parameters for the main network.
var MainNetParams = Params{
	Name:        "mainnet",
	Net:         MainNet,
	DefaultPort: "9901",

	// Chain parameters
	GenesisBlock:     &genesisBlock,
	GenesisHash:      &genesisHash,
	PowLimit:         mainPowLimit,
	PowLimitBits:     0x1d00ffff,
	CoinbaseMaturity: 500,

	// Stake parameters
	StakeMinAge:       time.Hour * 24 * 10,
	StakeMaxAge:       time.Hour * 24 * 30,
	ModifierInterval:  time.Hour * 6,
	WeightSwitchTime:  1461222000, // 21 Apr 2016 07:00:00 +0000 UTC
	CheckpointMaxSpan: time.Hour * 4,
	CheckpointPubKey:  mainCheckpointPubKey,

	// Checkpoints ordered from oldest to newest.
	Checkpoints: []Checkpoint{
		{0, &genesisHash},
		{50000, newHashFromStr("00000002751f54b06ffac8da64d221babf48e9d82365c08c20e82585d674e6b6")},
		{110465, newHashFromStr("000000022e2e3c4a5d305aaf8d01b1bbb0fc5afccc0fb65dad642b333fdc2cd8")},
		{210943, newHashFromStr("000000029af45dc0e3bcb929fe1e060593a59c2fd983ee57c769bce83d1f6e86")},
		{265734, newHashFromStr("00000004d7a22505fb8a091c6fed6bc6c66f7ccc4789c396dc9fdb6f511d2945")},
		{411000, newHashFromStr("000000010c06d563dfe062ac53d7765dedc18e16de9457d0e5742255887965bc")},
		{750000, newHashFromStr("cda70f71ae25ef36fd7954b27067f7b4e11c6d0f3e162d53086a7516a4b067ca")},
		{1000000, newHashFromStr("356be281863d1a006da922d184f81065db45d5ba1302ccedabed5175b8637994")},
		{2000000, newHashFromStr("0000000002f68f476e4622e6a9e6eb60912df15d9822b0fe9ece9b5d372c88ab")},
		{3000000, newHashFromStr("3a5414c5dd29bd6fac4fe15bf900dff00a95725c39f7096a0fcbb6e40072e75b")},
		{4000000, newHashFromStr("212ed3ddae5f49ee7fe1092f62a393cabc50e2172ee400969dabd673ebd2051d")},
		{5000000, newHashFromStr("7f00f5447153b3331fcd6743f184a9434d5f866f46200cc8c7fc10108659ef45")},
		{5499330, newHashFromStr("aed47152a5cc2db3859dd9428089b8da1d0bdd445cd76e9711f3e304d727330f")},
		{5499331, newHashFromStr("00000000050e13566f81f688f2edd372415685b3c048d5b051457d170c2ea848")},
		{5499332, newHashFromStr("000000003806a3ee782ebc103bd7d7f47aeb753d4cce911a19dab453051e3ce5")},
		{5500000, newHashFromStr("a8f0c882004f2f976ec8af49fa42c45620d4b33d7a1a95de748c9e19fc917962")},
		{5520100, newHashFromStr("8231997f2fe53ab744f37531d619c37983b3d4dfb619169e2034e4d3d9467e6b")},
		{5525100, newHashFromStr("99202c5db266191c3bebba59873b5fb7514d5c9e8926e5099c5d36400f8a0ff4")},
		{5579000, newHashFromStr("74cd42bbe9781749a862317a21fcc97527c3e32569b4e3cd1fd59514210ed50b")},
		{5608000, newHashFromStr("37fb3b685a62047542a8345f031f8199839ebe716679dfe8fa318e8a5ea46d64")},
	},

	// Stake modifier checksums at known heights.  The genesis entry is
	// left out since its checksum depends on the genesis encoding.
	StakeModifierCheckpoints: map[int32]uint32{
		261031:  0x8c12bdb8,
		435735:  0xb956cfa0,
		750000:  0xb86ffee4,
		1000000: 0xa68f1279,
		2000000: 0x029173a3,
		3000000: 0xecd4d6c7,
		4000000: 0xa655151a,
		5000000: 0xe02d611e,
		5499330: 0x3026e5af,
		5499331: 0x0e5f8ce1,
		5499332: 0x91436a27,
		5500000: 0xa053fcf3,
		5520100: 0x5c7752ee,
	},
}
