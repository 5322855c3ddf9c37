// Copyright (c) 2013-2016 The btcsuite developers
// Copyright (c) 2015-2018 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import (
	"errors"
	"fmt"
	"time"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// coinStakeTime returns the timestamp of the coinstake of a block.
func (b *BlockChain) coinStakeTime(block *btcutil.Block, tx *btcutil.Tx) int64 {
	if b.txTimer == nil {
		return block.MsgBlock().Header.Timestamp.Unix()
	}
	return b.txTimer.TxTime(tx.MsgTx())
}

// isProofOfStakeBlock returns whether the second transaction of the block is
// a coinstake.
func isProofOfStakeBlock(block *btcutil.Block) bool {
	txns := block.Transactions()
	return len(txns) > 1 && IsCoinStake(txns[1].MsgTx())
}

// maybeAcceptBlock potentially accepts a block into the block chain and, if
// accepted, returns whether or not it is on the main chain.  It performs
// several validation checks which depend on its position within the block
// chain before adding it.  The block is expected to have already gone
// through ProcessBlock before calling this function with it.
//
// The proof-of-stake block checks are performed here: the coinstake must be
// timestamped like its block and carry a valid kernel.  The stake modifier
// of the block is derived and checked against the modifier checkpoints
// before the block joins the index.
//
// This function MUST be called with the chain state lock held (for writes).
func (b *BlockChain) maybeAcceptBlock(block *btcutil.Block) (bool, error) {
	// The height of this block is one more than the referenced previous
	// block.
	header := &block.MsgBlock().Header
	prevNode := b.index.LookupNode(&header.PrevBlock)
	if prevNode == nil {
		str := fmt.Sprintf("previous block %s is unknown", header.PrevBlock)
		return false, ruleError(ErrMissingParent, str)
	}
	blockHeight := prevNode.height + 1
	block.SetHeight(blockHeight)
	blockHash := block.Hash()

	// Ensure chain matches up to predetermined checkpoints.
	if !b.CheckHardened(blockHeight, blockHash) {
		str := fmt.Sprintf("block at height %d does not match "+
			"checkpoint hash", blockHeight)
		return false, ruleError(ErrBadCheckpoint, str)
	}

	// Ensure the block does not fork the chain below the synchronized
	// checkpoint.
	if err := b.checkSyncPolicy(blockHash, prevNode); err != nil {
		return false, err
	}

	proofOfStake := isProofOfStakeBlock(block)
	newNode := newBlockNode(header, prevNode, proofOfStake)
	if proofOfStake {
		coinStake := block.Transactions()[1]
		timeTx := b.coinStakeTime(block, coinStake)
		if !CheckCoinStakeTimestamp(header.Timestamp.Unix(), timeTx) {
			str := fmt.Sprintf("coinstake timestamp %d does not match "+
				"block timestamp %d", timeTx, header.Timestamp.Unix())
			return false, ruleError(ErrCoinStakeTimestamp, str)
		}

		hashProofOfStake, _, err := b.checkProofOfStake(
			coinStake.MsgTx(), header.Bits, timeTx)
		if err != nil {
			return false, err
		}
		newNode.hashProofOfStake = *hashProofOfStake
	}

	modifier, generated, err := computeNextStakeModifier(b.chainParams,
		prevNode)
	if err != nil {
		return false, fmt.Errorf("compute stake modifier of block %v: %w",
			blockHash, err)
	}
	newNode.setStakeModifier(modifier, generated)
	newNode.stakeModifierChecksum = stakeModifierChecksum(newNode)
	if !CheckStakeModifierCheckpoint(b.chainParams, blockHeight,
		newNode.stakeModifierChecksum) {

		str := fmt.Sprintf("stake modifier checksum %08x of block %v at "+
			"height %d does not match the checkpoint",
			newNode.stakeModifierChecksum, blockHash, blockHeight)
		return false, ruleError(ErrBadStakeModifierChecksum, str)
	}

	b.index.AddNode(newNode)

	// Connect the passed block to the chain while respecting proper chain
	// selection according to the chain with the most trust.
	tip := b.bestChain.Tip()
	if newNode.workSum.Cmp(tip.workSum) <= 0 {
		log.Debugf("Block %v (height %d) extends a side chain", blockHash,
			blockHeight)
		return false, nil
	}
	if err := b.setBestChain(newNode); err != nil {
		return false, err
	}
	return true, nil
}

// processOrphans determines if there are any orphans which depend on the passed
// block hash (they are no longer orphans if true) and potentially accepts them.
// It repeats the process for the newly accepted blocks (to detect further
// orphans which may no longer be orphans) until there are no more.
//
// Orphans failing validation are dropped and the error is logged, since the
// peer that relayed them is no longer known.
//
// This function MUST be called with the chain state lock held (for writes).
func (b *BlockChain) processOrphans(hash *chainhash.Hash) {
	// Start with processing at least the passed hash.  Leave a little room
	// for additional orphan blocks that need to be processed without
	// needing to grow the array in the common case.
	processHashes := make([]*chainhash.Hash, 0, 10)
	processHashes = append(processHashes, hash)
	for len(processHashes) > 0 {
		// Pop the first hash to process from the slice.
		processHash := processHashes[0]
		processHashes[0] = nil // Prevent GC leak.
		processHashes = processHashes[1:]

		// Look up all orphans that are parented by the block we just
		// accepted.  This will typically only be one, but it could
		// be multiple if multiple blocks are mined and broadcast
		// around the same time.  The one with the most trust will
		// eventually win out.  An indexing for loop is intentionally
		// used over a range here as range does not reevaluate the
		// slice on each iteration nor does it adjust the index for the
		// modified slice.
		for i := 0; i < len(b.prevOrphans[*processHash]); i++ {
			orphan := b.prevOrphans[*processHash][i]
			if orphan == nil {
				log.Warnf("Found a nil entry at index %d in the "+
					"orphan dependency list for block %v", i,
					processHash)
				continue
			}

			// Remove the orphan from the orphan pool.
			orphanHash := orphan.block.Hash()
			b.removeOrphanBlock(orphan)
			i--

			// Potentially accept the block into the block chain.
			if _, err := b.maybeAcceptBlock(orphan.block); err != nil {
				log.Warnf("Rejected orphan block %v: %v", orphanHash,
					err)
				continue
			}

			// Add this block to the list of blocks to process so
			// any orphan blocks that depend on this block are
			// handled too.
			processHashes = append(processHashes, orphanHash)
		}
	}
}

// processBlock is the locked part of ProcessBlock.
//
// This function MUST be called with the chain state lock held (for writes).
func (b *BlockChain) processBlock(block *btcutil.Block) (bool, bool, error) {
	blockHash := block.Hash()
	log.Tracef("Processing block %v", blockHash)

	// The block must not already exist in the main chain or side chains.
	if b.index.HaveBlock(blockHash) {
		str := fmt.Sprintf("already have block %v", blockHash)
		return false, false, ruleError(ErrDuplicateBlock, str)
	}

	// The block must not already exist as an orphan.
	if b.IsKnownOrphan(blockHash) {
		str := fmt.Sprintf("already have block (orphan) %v", blockHash)
		return false, false, ruleError(ErrDuplicateBlock, str)
	}

	// Handle orphan blocks.
	prevHash := &block.MsgBlock().Header.PrevBlock
	if !b.index.HaveBlock(prevHash) {
		log.Infof("Adding orphan block %v with parent %v", blockHash,
			prevHash)
		b.addOrphanBlock(block)
		return false, true, nil
	}

	// The block has passed all context independent checks and appears sane
	// enough to potentially accept it into the block chain.
	isMainChain, err := b.maybeAcceptBlock(block)
	if err != nil {
		return false, false, err
	}

	// Accept any orphan blocks that depend on this block (they are
	// no longer orphans) and repeat for those accepted blocks until
	// there are no more.
	b.processOrphans(blockHash)

	log.Debugf("Accepted block %v", blockHash)
	return isMainChain, false, nil
}

// ProcessBlock is the main workhorse for handling insertion of new blocks into
// the block chain.  It includes functionality such as rejecting duplicate
// blocks, ensuring blocks follow all rules, orphan handling, and insertion into
// the block chain along with best chain selection and reorganization.
//
// When no errors occurred during processing, the first return value indicates
// whether or not the block is on the main chain and the second indicates
// whether or not the block is an orphan.
//
// Once a block is accepted, a pending synchronized checkpoint waiting for it
// is accepted, and when a checkpoint master key is configured a new
// synchronized checkpoint is issued if the automatic selection moved.
//
// This function is safe for concurrent access.
func (b *BlockChain) ProcessBlock(block *btcutil.Block) (bool, bool, error) {
	currentTime := time.Now()
	b.chainLock.Lock()
	isMainChain, isOrphan, err := b.processBlock(block)
	b.chainLock.Unlock()
	log.Debugf("Block %v finished processing in %s", block.Hash(),
		time.Since(currentTime))
	if err != nil || isOrphan {
		return isMainChain, isOrphan, err
	}

	if _, err := b.AcceptPendingSyncCheckpoint(); err != nil {
		log.Warnf("Unable to accept pending sync checkpoint: %v", err)
	}

	if b.hasCheckpointPrivKey() {
		hash, changed := b.autoSelectChanged()
		if changed {
			err := b.SendSyncCheckpoint(hash)
			if err != nil && !errors.Is(err, ErrNoCheckpointKey) {
				log.Warnf("Unable to send sync checkpoint %v: %v",
					hash, err)
			}
		}
	}

	return isMainChain, isOrphan, nil
}
