// Copyright (c) 2013-2016 The btcsuite developers
// Copyright (c) 2015-2016 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import (
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/ppcsuite/kerneld/chaincfg"
)

// Checkpoints returns a slice of the hardened checkpoints of the network
// (regardless of whether they are already known).
//
// This function is safe for concurrent access.
func (b *BlockChain) Checkpoints() []chaincfg.Checkpoint {
	return b.chainParams.Checkpoints
}

// LatestCheckpoint returns the most recent hardened checkpoint (regardless of
// whether it is already known).  It returns nil when the network has none.
//
// This function is safe for concurrent access.
func (b *BlockChain) LatestCheckpoint() *chaincfg.Checkpoint {
	return b.chainParams.LatestCheckpoint()
}

// TotalBlocksEstimate returns the height of the most recent hardened
// checkpoint, which is a lower bound of the height of the best chain.
//
// This function is safe for concurrent access.
func (b *BlockChain) TotalBlocksEstimate() int32 {
	checkpoint := b.chainParams.LatestCheckpoint()
	if checkpoint == nil {
		return 0
	}
	return checkpoint.Height
}

// CheckHardened returns whether the passed block height and hash combination
// match the hard-coded checkpoint data.  It also returns true if there is no
// checkpoint data for the passed block height.
//
// This function is safe for concurrent access.
func (b *BlockChain) CheckHardened(height int32, hash *chainhash.Hash) bool {
	checkpoint, exists := b.checkpointsByHeight[height]
	if !exists {
		return true
	}

	if !checkpoint.Hash.IsEqual(hash) {
		return false
	}

	log.Infof("Verified checkpoint at height %d/block %s", checkpoint.Height,
		checkpoint.Hash)
	return true
}

// lastCheckpoint returns the most recent hardened checkpoint whose block is
// already in the block index, or nil if there is none.
//
// This function MUST be called with the chain state lock held (for reads).
func (b *BlockChain) lastCheckpoint() *chaincfg.Checkpoint {
	checkpoints := b.chainParams.Checkpoints
	for i := len(checkpoints) - 1; i >= 0; i-- {
		if b.index.HaveBlock(checkpoints[i].Hash) {
			return &checkpoints[i]
		}
	}
	return nil
}

// LastCheckpoint returns the most recent hardened checkpoint whose block is
// already known, or nil if there is none.
//
// This function is safe for concurrent access.
func (b *BlockChain) LastCheckpoint() *chaincfg.Checkpoint {
	b.chainLock.RLock()
	checkpoint := b.lastCheckpoint()
	b.chainLock.RUnlock()
	return checkpoint
}
