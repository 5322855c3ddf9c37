// Copyright (c) 2013-2017 The btcsuite developers
// Copyright (c) 2018 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import (
	"math/big"
	"sync"
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
)

// nodeFlags is a bit field carrying the proof-of-stake properties of a block.
// The values take part in the stake modifier checksum, so they must never
// change.
type nodeFlags uint32

const (
	// flagProofOfStake marks a block whose second transaction is a
	// coinstake.
	flagProofOfStake nodeFlags = 1 << 0

	// flagStakeEntropy holds the stake entropy bit of the block.
	flagStakeEntropy nodeFlags = 1 << 1

	// flagStakeModifier marks a block that generated a new stake modifier
	// rather than inheriting the one of its parent.
	flagStakeModifier nodeFlags = 1 << 2
)

// blockNode represents a block within the block chain and is primarily used to
// aid in selecting the best chain to be the main chain and in deriving the
// stake modifiers.
type blockNode struct {
	// parent is the parent block for this node.
	parent *blockNode

	// hash is the hash of the block this node represents.
	hash chainhash.Hash

	// hashProofOfStake is the kernel hash of the coinstake for
	// proof-of-stake blocks and the zero hash otherwise.
	hashProofOfStake chainhash.Hash

	// workSum is the total chain trust up to and including this node.
	workSum *big.Int

	height    int32
	bits      uint32
	timestamp int64

	// The stake modifier fields are computed once when the node is
	// created and never change afterwards.
	flags                 nodeFlags
	stakeModifier         uint64
	stakeModifierChecksum uint32
}

// newBlockNode returns a new block node for the given block header and parent
// node.  The workSum is calculated based on the parent, or, in the case no
// parent is provided, it will just be the trust for the passed block.  The
// stake modifier fields are left for the caller to populate.
func newBlockNode(blockHeader *wire.BlockHeader, parent *blockNode,
	proofOfStake bool) *blockNode {

	node := blockNode{
		hash:      blockHeader.BlockHash(),
		workSum:   calcTrust(blockHeader.Bits, proofOfStake),
		bits:      blockHeader.Bits,
		timestamp: blockHeader.Timestamp.Unix(),
	}
	if proofOfStake {
		node.flags |= flagProofOfStake
	}
	if stakeEntropyBit(&node.hash) == 1 {
		node.flags |= flagStakeEntropy
	}
	if parent != nil {
		node.parent = parent
		node.height = parent.height + 1
		node.workSum = node.workSum.Add(parent.workSum, node.workSum)
	}
	return &node
}

// isProofOfStake returns whether the node is a proof-of-stake block.
func (node *blockNode) isProofOfStake() bool {
	return node.flags&flagProofOfStake != 0
}

// entropyBit returns the stake entropy bit of the node.
func (node *blockNode) entropyBit() uint64 {
	if node.flags&flagStakeEntropy != 0 {
		return 1
	}
	return 0
}

// generatedStakeModifier returns whether the node generated its stake
// modifier.
func (node *blockNode) generatedStakeModifier() bool {
	return node.flags&flagStakeModifier != 0
}

// setStakeModifier records the stake modifier of the node.
//
// This function is NOT safe for concurrent access.  It must only be called when
// initially creating a node.
func (node *blockNode) setStakeModifier(modifier uint64, generated bool) {
	node.stakeModifier = modifier
	if generated {
		node.flags |= flagStakeModifier
	} else {
		node.flags &^= flagStakeModifier
	}
}

// proofHash returns the hash the stake modifier selection is computed over:
// the kernel hash for proof-of-stake blocks and the block hash otherwise.
func (node *blockNode) proofHash() *chainhash.Hash {
	if node.isProofOfStake() {
		return &node.hashProofOfStake
	}
	return &node.hash
}

// Ancestor returns the ancestor block node at the provided height by following
// the chain backwards from this node.  The returned block will be nil when a
// height is requested that is after the height of the passed node or is less
// than zero.
//
// This function is safe for concurrent access.
func (node *blockNode) Ancestor(height int32) *blockNode {
	if height < 0 || height > node.height {
		return nil
	}

	n := node
	for ; n != nil && n.height != height; n = n.parent {
		// Intentionally left blank
	}

	return n
}

// RelativeAncestor returns the ancestor block node a relative 'distance' blocks
// before this node.  This is equivalent to calling Ancestor with the node's
// height minus provided distance.
//
// This function is safe for concurrent access.
func (node *blockNode) RelativeAncestor(distance int32) *blockNode {
	return node.Ancestor(node.height - distance)
}

// lastProofOfWork returns the most recent proof-of-work ancestor of the node,
// including the node itself, or the genesis node when there is none.
func (node *blockNode) lastProofOfWork() *blockNode {
	n := node
	for n.parent != nil && n.isProofOfStake() {
		n = n.parent
	}
	return n
}

// Time returns the block timestamp of the node.
func (node *blockNode) Time() time.Time {
	return time.Unix(node.timestamp, 0)
}

// blockIndex provides facilities for keeping track of an in-memory index of the
// block chain.  Although the name block chain suggests a single chain of
// blocks, it is actually a tree-shaped structure where any node can have
// multiple children.  However, there can only be one active branch which does
// indeed form a chain from the tip all the way back to the genesis block.
type blockIndex struct {
	sync.RWMutex
	index     map[chainhash.Hash]*blockNode
	chainTips map[int32][]*blockNode
}

// newBlockIndex returns a new empty instance of a block index.
func newBlockIndex() *blockIndex {
	return &blockIndex{
		index:     make(map[chainhash.Hash]*blockNode),
		chainTips: make(map[int32][]*blockNode),
	}
}

// HaveBlock returns whether or not the block index contains the provided hash.
//
// This function is safe for concurrent access.
func (bi *blockIndex) HaveBlock(hash *chainhash.Hash) bool {
	bi.RLock()
	_, hasBlock := bi.index[*hash]
	bi.RUnlock()
	return hasBlock
}

// addNode adds the provided node to the block index.  Duplicate entries are not
// checked so it is up to caller to avoid adding them.
//
// This function MUST be called with the block index lock held (for writes).
func (bi *blockIndex) addNode(node *blockNode) {
	bi.index[node.hash] = node

	// Since the block index does not support nodes that do not connect to
	// an existing node (except the genesis block), all new nodes are either
	// extending an existing chain or are on a side chain, but in either
	// case, are a new chain tip.  In the case the node is extending a
	// chain, the parent is no longer a tip.
	bi.addChainTip(node)
	if node.parent != nil {
		bi.removeChainTip(node.parent)
	}
}

// AddNode adds the provided node to the block index.
//
// This function is safe for concurrent access.
func (bi *blockIndex) AddNode(node *blockNode) {
	bi.Lock()
	bi.addNode(node)
	bi.Unlock()
}

// addChainTip adds the passed block node as a new chain tip.
//
// This function MUST be called with the block index lock held (for writes).
func (bi *blockIndex) addChainTip(tip *blockNode) {
	bi.chainTips[tip.height] = append(bi.chainTips[tip.height], tip)
}

// removeChainTip removes the passed block node from the available chain tips.
//
// This function MUST be called with the block index lock held (for writes).
func (bi *blockIndex) removeChainTip(tip *blockNode) {
	nodes := bi.chainTips[tip.height]
	for i, n := range nodes {
		if n == tip {
			copy(nodes[i:], nodes[i+1:])
			nodes[len(nodes)-1] = nil
			nodes = nodes[:len(nodes)-1]
			break
		}
	}

	// Either update the map entry for the height with the remaining nodes
	// or remove it altogether if there are no more nodes left.
	if len(nodes) == 0 {
		delete(bi.chainTips, tip.height)
	} else {
		bi.chainTips[tip.height] = nodes
	}
}

// bestTipDescending returns the chain tip with the most trust among the tips
// that descend from, or are, the passed node.  It returns the node itself
// when no tip descends from it, which cannot happen for a node in the index.
//
// This function is safe for concurrent access.
func (bi *blockIndex) bestTipDescending(node *blockNode) *blockNode {
	bi.RLock()
	defer bi.RUnlock()

	best := node
	for _, tips := range bi.chainTips {
		for _, tip := range tips {
			if tip.Ancestor(node.height) != node {
				continue
			}
			if tip.workSum.Cmp(best.workSum) > 0 {
				best = tip
			}
		}
	}
	return best
}

// lookupNode returns the block node identified by the provided hash.  It will
// return nil if there is no entry for the hash.
//
// This function MUST be called with the block index lock held (for reads).
func (bi *blockIndex) lookupNode(hash *chainhash.Hash) *blockNode {
	return bi.index[*hash]
}

// LookupNode returns the block node identified by the provided hash.  It will
// return nil if there is no entry for the hash.
//
// This function is safe for concurrent access.
func (bi *blockIndex) LookupNode(hash *chainhash.Hash) *blockNode {
	bi.RLock()
	node := bi.lookupNode(hash)
	bi.RUnlock()
	return node
}
