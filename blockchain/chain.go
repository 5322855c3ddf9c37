// Copyright (c) 2013-2018 The btcsuite developers
// Copyright (c) 2015-2018 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import (
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/ppcsuite/kerneld/blockchain/internal/progresslog"
	"github.com/ppcsuite/kerneld/chaincfg"
	"github.com/ppcsuite/kerneld/database"
)

const (
	// maxOrphanBlocks is the maximum number of orphan blocks that can be
	// queued.
	maxOrphanBlocks = 100

	// orphanExpiration is how long an orphan block is kept before it is
	// evicted from the orphan pool.
	orphanExpiration = time.Hour
)

// zeroHash is the zero value for a chainhash.Hash and is defined as
// a package level variable to avoid the need to create a new instance
// every time a check is needed.
var zeroHash chainhash.Hash

// orphanBlock represents a block that we don't yet have the parent for.  It
// is a normal block plus an expiration time to prevent caching the orphan
// forever.
type orphanBlock struct {
	block      *btcutil.Block
	expiration time.Time
}

// BestState houses information about the current best block and other info
// related to the state of the main chain as it exists from the point of view of
// the current best block.
//
// The BestSnapshot method can be used to obtain access to this information
// in a concurrent safe manner and the data will not be changed out from under
// the caller when chain state changes occur as the function name implies.
// However, the returned snapshot must be treated as immutable since it is
// shared by all callers.
type BestState struct {
	Hash                  chainhash.Hash // The hash of the block.
	Height                int32          // The height of the block.
	Bits                  uint32         // The difficulty bits of the block.
	Time                  time.Time      // The timestamp of the block.
	ProofOfStake          bool           // Whether the block is proof-of-stake.
	StakeModifier         uint64         // The stake modifier of the block.
	StakeModifierChecksum uint32         // The stake modifier checksum.
	ChainTrust            *big.Int       // The accumulated chain trust.
}

// newBestState returns a new best stats instance for the given parameters.
func newBestState(node *blockNode) *BestState {
	return &BestState{
		Hash:                  node.hash,
		Height:                node.height,
		Bits:                  node.bits,
		Time:                  node.Time(),
		ProofOfStake:          node.isProofOfStake(),
		StakeModifier:         node.stakeModifier,
		StakeModifierChecksum: node.stakeModifierChecksum,
		ChainTrust:            new(big.Int).Set(node.workSum),
	}
}

// BlockChain provides functions for working with the proof-of-stake block
// chain.  It includes functionality such as rejecting duplicate blocks,
// orphan handling, stake modifier derivation, coinstake kernel validation,
// hardened and synchronized checkpoint enforcement, and best chain selection
// by accumulated trust.
type BlockChain struct {
	// The following fields are set when the instance is created and can't
	// be changed afterwards, so there is no need to protect them with a
	// separate mutex.
	db                  *database.DB
	chainParams         *chaincfg.Params
	checkpointsByHeight map[int32]*chaincfg.Checkpoint
	timeSource          TimeSource
	utxoFetcher         UtxoFetcher
	sigVerifier         SigVerifier
	txTimer             TxTimer
	reorganizer         ChainReorganizer
	relayer             CheckpointRelayer
	checkpointMode      CheckpointMode

	// chainLock protects concurrent access to the vast majority of the
	// fields in this struct below this point.
	chainLock sync.RWMutex

	// These fields are related to the memory block index.  They both have
	// their own locks, however they are often also protected by the chain
	// lock to help prevent logic races when blocks are being processed.
	//
	// index houses the entire block index in memory.  The block index is
	// a tree-shaped structure.
	//
	// bestChain tracks the current active chain by making use of an
	// efficient chain view into the block index.
	index     *blockIndex
	bestChain *chainView

	// These fields are related to handling of orphan blocks.  They are
	// protected by a combination of the chain lock and the orphan lock.
	orphanLock   sync.RWMutex
	orphans      map[chainhash.Hash]*orphanBlock
	prevOrphans  map[chainhash.Hash][]*orphanBlock
	oldestOrphan *orphanBlock

	// ckpt is the synchronized checkpoint state.  It has its own lock,
	// which is always acquired after the chain lock when both are needed.
	ckpt syncCheckpointState

	// progressLogger reports the progress of the main chain.
	progressLogger *progresslog.BlockProgressLogger

	// The state is used as a fairly efficient way to cache information
	// about the current best chain state that is returned to callers when
	// requested.  It operates on the principle of MVCC such that any time
	// a new block becomes the best block, the state pointer is replaced
	// with a new struct and the old state is left untouched.  In this way,
	// multiple callers can be pointing to different best chain states.
	// This is acceptable for most callers because the state is only being
	// queried at a specific point in time.
	stateLock     sync.RWMutex
	stateSnapshot *BestState
}

// HaveBlock returns whether or not the chain instance has the block represented
// by the passed hash.  This includes checking the various places a block can
// be like part of the main chain, on a side chain, or in the orphan pool.
//
// This function is safe for concurrent access.
func (b *BlockChain) HaveBlock(hash *chainhash.Hash) bool {
	return b.index.HaveBlock(hash) || b.IsKnownOrphan(hash)
}

// MainChainHasBlock returns whether or not the block with the given hash is in
// the main chain.
//
// This function is safe for concurrent access.
func (b *BlockChain) MainChainHasBlock(hash *chainhash.Hash) bool {
	node := b.index.LookupNode(hash)
	return node != nil && b.bestChain.Contains(node)
}

// IsKnownOrphan returns whether the passed hash is currently a known orphan.
// Keep in mind that only a limited number of orphans are held onto for a
// limited amount of time, so this function must not be used as an absolute
// way to test if a block is an orphan block.  A full block (as opposed to just
// its hash) must be passed to ProcessBlock for that purpose.  However, calling
// ProcessBlock with an orphan that already exists results in an error, so this
// function provides a mechanism for a caller to intelligently detect *recent*
// duplicate orphans and react accordingly.
//
// This function is safe for concurrent access.
func (b *BlockChain) IsKnownOrphan(hash *chainhash.Hash) bool {
	// Protect concurrent access.  Using a read lock only so multiple
	// readers can query without blocking each other.
	b.orphanLock.RLock()
	_, exists := b.orphans[*hash]
	b.orphanLock.RUnlock()

	return exists
}

// GetOrphanRoot returns the head of the chain for the provided hash from the
// map of orphan blocks.
//
// This function is safe for concurrent access.
func (b *BlockChain) GetOrphanRoot(hash *chainhash.Hash) *chainhash.Hash {
	// Protect concurrent access.  Using a read lock only so multiple
	// readers can query without blocking each other.
	b.orphanLock.RLock()
	defer b.orphanLock.RUnlock()

	// Keep looping while the parent of each orphaned block is
	// known and is an orphan itself.
	orphanRoot := hash
	prevHash := hash
	for {
		orphan, exists := b.orphans[*prevHash]
		if !exists {
			break
		}
		orphanRoot = prevHash
		prevHash = &orphan.block.MsgBlock().Header.PrevBlock
	}

	return orphanRoot
}

// WantedByOrphan returns the hash of the block the orphan chain containing
// the passed orphan is waiting for: the parent of its root.  It returns nil
// when the hash is not a known orphan.
//
// This function is safe for concurrent access.
func (b *BlockChain) WantedByOrphan(hash *chainhash.Hash) *chainhash.Hash {
	b.orphanLock.RLock()
	defer b.orphanLock.RUnlock()

	orphan, exists := b.orphans[*hash]
	if !exists {
		return nil
	}
	for {
		parent, exists := b.orphans[orphan.block.MsgBlock().Header.PrevBlock]
		if !exists {
			break
		}
		orphan = parent
	}
	wanted := orphan.block.MsgBlock().Header.PrevBlock
	return &wanted
}

// removeOrphanBlock removes the passed orphan block from the orphan pool and
// previous orphan index.
func (b *BlockChain) removeOrphanBlock(orphan *orphanBlock) {
	// Protect concurrent access.
	b.orphanLock.Lock()
	defer b.orphanLock.Unlock()

	// Remove the orphan block from the orphan pool.
	orphanHash := orphan.block.Hash()
	delete(b.orphans, *orphanHash)

	// Remove the reference from the previous orphan index too.  An indexing
	// for loop is intentionally used over a range here as range does not
	// reevaluate the slice on each iteration nor does it adjust the index
	// for the modified slice.
	prevHash := &orphan.block.MsgBlock().Header.PrevBlock
	orphans := b.prevOrphans[*prevHash]
	for i := 0; i < len(orphans); i++ {
		hash := orphans[i].block.Hash()
		if hash.IsEqual(orphanHash) {
			copy(orphans[i:], orphans[i+1:])
			orphans[len(orphans)-1] = nil
			orphans = orphans[:len(orphans)-1]
			i--
		}
	}
	b.prevOrphans[*prevHash] = orphans

	// Remove the map entry altogether if there are no longer any orphans
	// which depend on the parent hash.
	if len(b.prevOrphans[*prevHash]) == 0 {
		delete(b.prevOrphans, *prevHash)
	}
}

// addOrphanBlock adds the passed block (which is already determined to be
// an orphan prior calling this function) to the orphan pool.  It lazily cleans
// up any expired blocks so a separate cleanup poller doesn't need to be run.
// It also imposes a maximum limit on the number of outstanding orphan
// blocks and will remove the oldest received orphan block if the limit is
// exceeded.
func (b *BlockChain) addOrphanBlock(block *btcutil.Block) {
	// Remove expired orphan blocks.
	for _, oBlock := range b.orphans {
		if time.Now().After(oBlock.expiration) {
			b.removeOrphanBlock(oBlock)
			if oBlock == b.oldestOrphan {
				b.oldestOrphan = nil
			}
			continue
		}

		// Update the oldest orphan block pointer so it can be discarded
		// in case the orphan pool fills up.
		if b.oldestOrphan == nil ||
			oBlock.expiration.Before(b.oldestOrphan.expiration) {
			b.oldestOrphan = oBlock
		}
	}

	// Limit orphan blocks to prevent memory exhaustion.
	if len(b.orphans)+1 > maxOrphanBlocks && b.oldestOrphan != nil {
		// Remove the oldest orphan to make room for the new one.
		b.removeOrphanBlock(b.oldestOrphan)
		b.oldestOrphan = nil
	}

	// Protect concurrent access.  This is intentionally done here instead
	// of near the top since removeOrphanBlock does its own locking and
	// the range iterator is not invalidated by removing map entries.
	b.orphanLock.Lock()
	defer b.orphanLock.Unlock()

	// Insert the block into the orphan map with an expiration time
	// 1 hour from now.
	oBlock := &orphanBlock{
		block:      block,
		expiration: time.Now().Add(orphanExpiration),
	}
	b.orphans[*block.Hash()] = oBlock

	// Add to previous hash lookup index for faster dependency lookups.
	prevHash := &block.MsgBlock().Header.PrevBlock
	b.prevOrphans[*prevHash] = append(b.prevOrphans[*prevHash], oBlock)
}

// setBestChain makes the passed node the tip of the main chain.  The blocks
// leaving and joining the main chain are handed to the configured
// reorganizer first; when it fails the main chain is left unchanged.
//
// This function MUST be called with the chain state lock held (for writes).
func (b *BlockChain) setBestChain(node *blockNode) error {
	tip := b.bestChain.Tip()
	if node == tip {
		return nil
	}

	fork := b.bestChain.FindFork(node)
	if fork == nil {
		return AssertError(fmt.Sprintf("block %v does not share history "+
			"with the main chain", node.hash))
	}
	var detach, attach []chainhash.Hash
	for n := tip; n != fork; n = n.parent {
		detach = append(detach, n.hash)
	}
	for n := node; n != fork; n = n.parent {
		attach = append(attach, n.hash)
	}
	for i, j := 0, len(attach)-1; i < j; i, j = i+1, j-1 {
		attach[i], attach[j] = attach[j], attach[i]
	}

	if b.reorganizer != nil {
		if err := b.reorganizer.Reorganize(detach, attach); err != nil {
			return fmt.Errorf("reorganize to block %v: %w", node.hash, err)
		}
	}

	if len(detach) > 0 {
		log.Infof("REORGANIZE: Chain forks at %v (height %v)", fork.hash,
			fork.height)
		log.Infof("REORGANIZE: Old best chain head was %v (height %v)",
			tip.hash, tip.height)
		log.Infof("REORGANIZE: New best chain head is %v (height %v)",
			node.hash, node.height)
	}

	b.bestChain.SetTip(node)

	b.stateLock.Lock()
	b.stateSnapshot = newBestState(node)
	b.stateLock.Unlock()

	b.progressLogger.LogBlockHeight(node.height, node.Time(),
		node.isProofOfStake())
	return nil
}

// forceOntoMainChain makes the passed node part of the main chain.  The new
// tip is the chain tip with the most trust among the ones descending from
// the node.
//
// This function MUST be called with the chain state lock held (for writes).
func (b *BlockChain) forceOntoMainChain(node *blockNode) error {
	if b.bestChain.Contains(node) {
		return nil
	}
	return b.setBestChain(b.index.bestTipDescending(node))
}

// BestSnapshot returns information about the current best chain block and
// related state as of the current point in time.  The returned instance must be
// treated as immutable since it is shared by all callers.
//
// This function is safe for concurrent access.
func (b *BlockChain) BestSnapshot() *BestState {
	b.stateLock.RLock()
	snapshot := b.stateSnapshot
	b.stateLock.RUnlock()
	return snapshot
}

// BlockHeightByHash returns the height of the block with the given hash in
// the block index, which includes side chains.
//
// This function is safe for concurrent access.
func (b *BlockChain) BlockHeightByHash(hash *chainhash.Hash) (int32, error) {
	node := b.index.LookupNode(hash)
	if node == nil {
		return 0, fmt.Errorf("block %s is not known", hash)
	}
	return node.height, nil
}

// Config is a descriptor which specifies the blockchain instance configuration.
type Config struct {
	// DB defines the database which houses the synchronized checkpoint.
	//
	// This field is required.
	DB *database.DB

	// ChainParams identifies which chain parameters the chain is associated
	// with.
	//
	// This field is required.
	ChainParams *chaincfg.Params

	// UtxoFetcher resolves the outputs spent by coinstake kernels.
	//
	// This field is required.
	UtxoFetcher UtxoFetcher

	// TimeSource defines the network adjusted time.  The local clock is
	// used when it is not set.
	TimeSource TimeSource

	// SigVerifier verifies coinstake kernel signatures.  The script engine
	// is used when it is not set.
	SigVerifier SigVerifier

	// TxTimer reports coinstake timestamps.  Coinstakes are assumed to
	// carry the timestamp of their block when it is not set.
	TxTimer TxTimer

	// Reorganizer is notified of main chain changes before they are
	// applied and may veto them.  It may be nil.
	Reorganizer ChainReorganizer

	// Relayer broadcasts accepted synchronized checkpoints.  It may be
	// nil.
	Relayer CheckpointRelayer

	// CheckpointMode defines how blocks failing the synchronized
	// checkpoint check are treated.  The zero value is CheckpointStrict.
	CheckpointMode CheckpointMode

	// CheckpointPrivKey is the checkpoint master private key, hex or WIF
	// encoded.  When set, the chain issues a synchronized checkpoint
	// whenever a new block changes the automatically selected one.
	CheckpointPrivKey string
}

// New returns a BlockChain instance using the provided configuration details.
func New(config *Config) (*BlockChain, error) {
	// Enforce required config fields.
	if config.DB == nil {
		return nil, AssertError("blockchain.New database is nil")
	}
	if config.ChainParams == nil {
		return nil, AssertError("blockchain.New chain parameters nil")
	}
	if config.UtxoFetcher == nil {
		return nil, AssertError("blockchain.New utxo fetcher is nil")
	}

	// Generate a checkpoint by height map from the provided checkpoints.
	params := config.ChainParams
	var checkpointsByHeight map[int32]*chaincfg.Checkpoint
	if len(params.Checkpoints) > 0 {
		checkpointsByHeight = make(map[int32]*chaincfg.Checkpoint)
		for i := range params.Checkpoints {
			checkpoint := &params.Checkpoints[i]
			checkpointsByHeight[checkpoint.Height] = checkpoint
		}
	}

	pubKey, err := parseCheckpointPubKey(params.CheckpointPubKey)
	if err != nil {
		return nil, err
	}

	b := BlockChain{
		db:                  config.DB,
		chainParams:         params,
		checkpointsByHeight: checkpointsByHeight,
		timeSource:          config.TimeSource,
		utxoFetcher:         config.UtxoFetcher,
		sigVerifier:         config.SigVerifier,
		txTimer:             config.TxTimer,
		reorganizer:         config.Reorganizer,
		relayer:             config.Relayer,
		checkpointMode:      config.CheckpointMode,
		index:               newBlockIndex(),
		orphans:             make(map[chainhash.Hash]*orphanBlock),
		prevOrphans:         make(map[chainhash.Hash][]*orphanBlock),
		progressLogger:      progresslog.NewBlockProgressLogger("Processed", log),
		ckpt:                syncCheckpointState{pubKey: pubKey},
	}
	if b.timeSource == nil {
		b.timeSource = wallClock{}
	}
	if b.sigVerifier == nil {
		b.sigVerifier = newScriptVerifier()
	}

	// The genesis block generates the first stake modifier, which is zero.
	genesis := newBlockNode(&params.GenesisBlock.Header, nil, false)
	genesis.setStakeModifier(0, true)
	genesis.stakeModifierChecksum = stakeModifierChecksum(genesis)
	if !CheckStakeModifierCheckpoint(params, 0, genesis.stakeModifierChecksum) {
		return nil, AssertError(fmt.Sprintf("genesis stake modifier "+
			"checksum %08x does not match the checkpoint",
			genesis.stakeModifierChecksum))
	}
	b.index.AddNode(genesis)
	b.bestChain = newChainView(genesis)
	b.stateSnapshot = newBestState(genesis)

	if err := b.initSyncCheckpoint(); err != nil {
		return nil, err
	}

	if config.CheckpointPrivKey != "" {
		if err := b.SetCheckpointPrivKey(config.CheckpointPrivKey); err != nil {
			return nil, err
		}
	}

	log.Infof("Chain state (height %d, hash %v, sync checkpoint %v, "+
		"checkpoint mode %v)", genesis.height, genesis.hash,
		b.ckpt.current.hash, b.checkpointMode)

	return &b, nil
}
