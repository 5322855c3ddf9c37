// Copyright (c) 2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package netsync

import (
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/ppcsuite/kerneld/blockchain"
	ppcwire "github.com/ppcsuite/kerneld/wire"
)

// Peer is a connected peer.  It is satisfied by *peer.Peer of btcd.
type Peer interface {
	// String returns a human readable identifier of the peer for logging.
	String() string

	// QueueMessage queues a message to be sent to the peer.  It must not
	// block on the network.
	QueueMessage(msg wire.Message, doneChan chan<- struct{})

	// Disconnect disconnects the peer.
	Disconnect()
}

// Chain is the part of the block chain the sync manager drives.  It is
// satisfied by *blockchain.BlockChain.
type Chain interface {
	ProcessBlock(block *btcutil.Block) (bool, bool, error)
	GetOrphanRoot(hash *chainhash.Hash) *chainhash.Hash
	WantedByOrphan(hash *chainhash.Hash) *chainhash.Hash
	LatestBlockLocator() blockchain.BlockLocator

	ProcessSyncCheckpoint(msg *ppcwire.MsgCheckpoint, peer blockchain.CheckpointPeer) (bool, error)
	SyncCheckpointMessage() *ppcwire.MsgCheckpoint
	AskForPendingSyncCheckpoint(peer blockchain.CheckpointPeer)
	WantedByPendingSyncCheckpoint(hash *chainhash.Hash) bool
}

// Config is a configuration struct used to initialize a new SyncManager.
type Config struct {
	// Chain is the block chain checkpoints are handed to.
	//
	// This field is required.
	Chain Chain

	// DisableBanning keeps misbehaving peers connected.  Their ban score
	// is still tracked and logged.
	DisableBanning bool

	// BanThreshold is the ban score at which a peer is disconnected.  The
	// default threshold is used when it is zero.
	BanThreshold uint32

	// MaxKnownCheckpoints is the number of checkpoints remembered per peer
	// to avoid relaying a checkpoint back to a peer that knows it.  The
	// default size is used when it is zero.
	MaxKnownCheckpoints uint
}
