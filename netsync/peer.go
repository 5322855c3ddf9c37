// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package netsync

import (
	"sync"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/decred/dcrd/lru"
	"github.com/ppcsuite/kerneld/blockchain"
)

// peerSyncState stores additional information that the SyncManager tracks
// about a peer.
type peerSyncState struct {
	peer Peer

	banScore banScore

	mtx              sync.Mutex
	knownCheckpoints lru.Cache

	// The last getblocks request, used to filter duplicates.
	prevGetBlocksBegin *chainhash.Hash
	prevGetBlocksStop  *chainhash.Hash
}

// newPeerSyncState returns the state of a newly connected peer remembering
// up to maxKnown checkpoints.
func newPeerSyncState(p Peer, maxKnown uint) *peerSyncState {
	return &peerSyncState{
		peer:             p,
		knownCheckpoints: lru.NewCache(maxKnown),
	}
}

// addKnownCheckpoint marks the checkpoint with the given payload hash as
// known to the peer.  It returns false when it already was.
func (state *peerSyncState) addKnownCheckpoint(hash chainhash.Hash) bool {
	state.mtx.Lock()
	defer state.mtx.Unlock()

	if state.knownCheckpoints.Contains(hash) {
		return false
	}
	state.knownCheckpoints.Add(hash)
	return true
}

// PushGetBlocks sends a getblocks message for the provided block locator and
// stop hash.  It will ignore back-to-back duplicate requests.
//
// This function is safe for concurrent access.
func (state *peerSyncState) PushGetBlocks(locator blockchain.BlockLocator, stop *chainhash.Hash) error {
	// Extract the begin hash from the block locator, if one was specified,
	// to use for filtering duplicate getblocks requests.
	var beginHash *chainhash.Hash
	if len(locator) > 0 {
		beginHash = locator[0]
	}

	// Filter duplicate getblocks requests.
	state.mtx.Lock()
	isDuplicate := stop != nil && beginHash != nil &&
		state.prevGetBlocksStop != nil && state.prevGetBlocksBegin != nil &&
		stop.IsEqual(state.prevGetBlocksStop) &&
		beginHash.IsEqual(state.prevGetBlocksBegin)
	state.mtx.Unlock()
	if isDuplicate {
		log.Tracef("Filtering duplicate [getblocks] with begin hash %v, "+
			"stop hash %v", beginHash, stop)
		return nil
	}

	// Construct the getblocks request and queue it to be sent.
	msg := wire.NewMsgGetBlocks(stop)
	for _, hash := range locator {
		if err := msg.AddBlockLocatorHash(hash); err != nil {
			return err
		}
	}
	state.peer.QueueMessage(msg, nil)

	// Update the previous getblocks request information for filtering
	// duplicates.
	state.mtx.Lock()
	state.prevGetBlocksBegin = beginHash
	state.prevGetBlocksStop = stop
	state.mtx.Unlock()
	return nil
}

// AskForBlock requests the block with the given hash from the peer.
//
// This function is safe for concurrent access.
func (state *peerSyncState) AskForBlock(hash *chainhash.Hash) {
	gdmsg := wire.NewMsgGetData()
	gdmsg.AddInvVect(wire.NewInvVect(wire.InvTypeBlock, hash))
	state.peer.QueueMessage(gdmsg, nil)
}
