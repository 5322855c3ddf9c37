// Copyright (c) 2014-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package chaincfg

import (
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
)

// genesisCoinbaseTx is the coinbase transaction for the genesis blocks of all
// networks.  Its output is empty: the genesis block carries no spendable
// value.
var genesisCoinbaseTx = wire.MsgTx{
	Version: 1,
	TxIn: []*wire.TxIn{
		{
			PreviousOutPoint: wire.OutPoint{
				Hash:  chainhash.Hash{},
				Index: 0xffffffff,
			},
			SignatureScript: []byte{
				0x04, 0xff, 0xff, 0x00, 0x1d, 0x02, 0x0f, 0x27,
				0x4b, 0x4d, 0x61, 0x74, 0x6f, 0x6e, 0x69, 0x73,
				0x20, 0x30, 0x37, 0x2d, 0x41, 0x55, 0x47, 0x2d,
				0x32, 0x30, 0x31, 0x32, 0x20, 0x50, 0x61, 0x72,
				0x61, 0x6c, 0x6c, 0x65, 0x6c, 0x20, 0x43, 0x75,
				0x72, 0x72, 0x65, 0x6e, 0x63, 0x69, 0x65, 0x73,
				0x20, 0x41, 0x6e, 0x64, 0x20, 0x54, 0x68, 0x65,
				0x20, 0x52, 0x6f, 0x61, 0x64, 0x6d, 0x61, 0x70,
				0x20, 0x54, 0x6f, 0x20, 0x4d, 0x6f, 0x6e, 0x65,
				0x74, 0x61, 0x72, 0x79, 0x20, 0x46, 0x72, 0x65,
				0x65, 0x64, 0x6f, 0x6d,
			},
			Sequence: 0xffffffff,
		},
	},
	TxOut: []*wire.TxOut{
		{
			Value:    0,
			PkScript: []byte{},
		},
	},
	LockTime: 0,
}

// genesisMerkleRoot is the hash of the only transaction in the genesis
// block.
var genesisMerkleRoot = genesisCoinbaseTx.TxHash()

// genesisBlock defines the genesis block of the block chain which serves as the
// public transaction ledger for the main network.
var genesisBlock = wire.MsgBlock{
	Header: wire.BlockHeader{
		Version:    1,
		PrevBlock:  chainhash.Hash{},
		MerkleRoot: genesisMerkleRoot,
		Timestamp:  time.Unix(1345083810, 0), // 16 Aug 2012 02:23:30 +0000 UTC
		Bits:       0x1d00ffff,
		Nonce:      2179302059,
	},
	Transactions: []*wire.MsgTx{&genesisCoinbaseTx},
}

// genesisHash is the hash of the first block in the block chain for the main
// network (genesis block).
var genesisHash = genesisBlock.BlockHash()

// testNetGenesisBlock defines the genesis block of the block chain which
// serves as the public transaction ledger for the test network.
var testNetGenesisBlock = wire.MsgBlock{
	Header: wire.BlockHeader{
		Version:    1,
		PrevBlock:  chainhash.Hash{},
		MerkleRoot: genesisMerkleRoot,
		Timestamp:  time.Unix(1345090000, 0), // 16 Aug 2012 04:06:40 +0000 UTC
		Bits:       0x1d0fffff,
		Nonce:      122894938,
	},
	Transactions: []*wire.MsgTx{&genesisCoinbaseTx},
}

// testNetGenesisHash is the hash of the first block in the block chain for
// the test network.
var testNetGenesisHash = testNetGenesisBlock.BlockHash()

// regressionGenesisBlock defines the genesis block of the block chain which
// serves as the public transaction ledger for the regression test network.
var regressionGenesisBlock = wire.MsgBlock{
	Header: wire.BlockHeader{
		Version:    1,
		PrevBlock:  chainhash.Hash{},
		MerkleRoot: genesisMerkleRoot,
		Timestamp:  time.Unix(1345090000, 0),
		Bits:       0x207fffff,
		Nonce:      0,
	},
	Transactions: []*wire.MsgTx{&genesisCoinbaseTx},
}

// regressionGenesisHash is the hash of the first block in the block chain for
// the regression test network.
var regressionGenesisHash = regressionGenesisBlock.BlockHash()
