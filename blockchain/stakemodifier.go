// Copyright (c) 2014-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import (
	"encoding/binary"
	"fmt"
	"math/big"
	"sort"
	"strings"
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/ppcsuite/kerneld/chaincfg"
)

// modifierRounds is the number of blocks selected to contribute one entropy
// bit each to a new stake modifier.
const modifierRounds = 64

// modifierIntervalSecs returns the stake modifier interval of the network in
// seconds.
func modifierIntervalSecs(params *chaincfg.Params) int64 {
	return int64(params.ModifierInterval / time.Second)
}

// selectionIntervalSection returns the length in seconds of the given
// selection round.  Early rounds draw from wider windows than later ones; the
// first section is ModifierIntervalRatio times shorter than the last.
func selectionIntervalSection(params *chaincfg.Params, section int) int64 {
	return modifierIntervalSecs(params) * 63 /
		(63 + (63-int64(section))*(chaincfg.ModifierIntervalRatio-1))
}

// selectionInterval returns the total length in seconds of all selection
// sections, which is the time window stake modifier candidates are drawn
// from.
func selectionInterval(params *chaincfg.Params) int64 {
	var total int64
	for section := 0; section < modifierRounds; section++ {
		total += selectionIntervalSection(params, section)
	}
	return total
}

// stakeEntropyBit returns the entropy bit a block contributes to stake
// modifiers when it is selected: the lowest bit of its hash.
func stakeEntropyBit(hash *chainhash.Hash) uint32 {
	return uint32(hash[0] & 1)
}

// lastStakeModifier returns the most recently generated stake modifier along
// with the time of the block that generated it, walking back from node.
func lastStakeModifier(node *blockNode) (uint64, int64, error) {
	if node == nil {
		return 0, 0, AssertError("lastStakeModifier called with nil node")
	}
	for node.parent != nil && !node.generatedStakeModifier() {
		node = node.parent
	}
	if !node.generatedStakeModifier() {
		return 0, 0, AssertError("no stake modifier generation at genesis block")
	}
	return node.stakeModifier, node.timestamp, nil
}

// candidateSorter sorts stake modifier candidates by timestamp and then by
// hash interpreted as a 256-bit little-endian number.
type candidateSorter []*blockNode

// Len returns the number of candidates in the slice.  It is part of the
// sort.Interface implementation.
func (s candidateSorter) Len() int {
	return len(s)
}

// Swap swaps the candidates at the passed indices.  It is part of the
// sort.Interface implementation.
func (s candidateSorter) Swap(i, j int) {
	s[i], s[j] = s[j], s[i]
}

// Less returns whether the candidate with index i should sort before the
// candidate with index j.  It is part of the sort.Interface implementation.
func (s candidateSorter) Less(i, j int) bool {
	if s[i].timestamp != s[j].timestamp {
		return s[i].timestamp < s[j].timestamp
	}
	hi, hj := &s[i].hash, &s[j].hash
	for k := chainhash.HashSize - 1; k >= 0; k-- {
		if hi[k] != hj[k] {
			return hi[k] < hj[k]
		}
	}
	return false
}

// selectionHash returns the hash a candidate competes with during a selection
// round.  It is the double sha256 of the candidate proof hash followed by the
// previous stake modifier.  Proof-of-stake candidates have it divided by 2^32
// so they are always favored over proof-of-work blocks.
func selectionHash(node *blockNode, prevModifier uint64) *big.Int {
	var buf [chainhash.HashSize + 8]byte
	copy(buf[:], node.proofHash()[:])
	binary.LittleEndian.PutUint64(buf[chainhash.HashSize:], prevModifier)
	hash := chainhash.DoubleHashH(buf[:])

	n := HashToBig(&hash)
	if node.isProofOfStake() {
		n.Rsh(n, 32)
	}
	return n
}

// selectBlockFromCandidates picks the candidate with the smallest selection
// hash among the ones not selected yet and with a timestamp up to
// selectionStop.  The first unselected candidate is always eligible, even past
// the stop, so a round never comes back empty while candidates remain.
func selectBlockFromCandidates(sorted []*blockNode,
	selected map[*blockNode]struct{}, selectionStop int64,
	prevModifier uint64) (*blockNode, error) {

	var best *big.Int
	var bestNode *blockNode
	for _, node := range sorted {
		if bestNode != nil && node.timestamp > selectionStop {
			break
		}
		if _, ok := selected[node]; ok {
			continue
		}

		hash := selectionHash(node, prevModifier)
		if bestNode == nil || hash.Cmp(best) < 0 {
			best = hash
			bestNode = node
		}
	}
	if bestNode == nil {
		return nil, AssertError("no stake modifier candidate left to select")
	}

	log.Tracef("Selected stake modifier candidate %v with selection hash "+
		"%064x", bestNode.hash, best)
	return bestNode, nil
}

// selectionMap renders the blocks considered by a modifier computation for
// debug output.  '-' marks proof-of-work and '=' proof-of-stake blocks that
// were not selected, while 'W' and 'S' mark selected ones.
func selectionMap(prev *blockNode, firstHeight int32,
	selected map[*blockNode]struct{}) string {

	m := []byte(strings.Repeat("-", int(prev.height-firstHeight+1)))
	for n := prev; n != nil && n.height >= firstHeight; n = n.parent {
		_, isSelected := selected[n]
		switch {
		case isSelected && n.isProofOfStake():
			m[n.height-firstHeight] = 'S'
		case isSelected:
			m[n.height-firstHeight] = 'W'
		case n.isProofOfStake():
			m[n.height-firstHeight] = '='
		}
	}
	return string(m)
}

// computeNextStakeModifier computes the stake modifier for a block whose
// parent is prev, along with whether the block generates it or inherits the
// one of its parent.
//
// A new modifier is only generated once per modifier interval.  It is built
// by selecting up to 64 blocks from the selection interval preceding the
// current interval and mixing their entropy bits, bit r coming from the block
// selected in round r.  Nodes are never mutated so the computation is safe
// to run against the index while the chain lock is held for reads.
func computeNextStakeModifier(params *chaincfg.Params, prev *blockNode) (uint64, bool, error) {
	// The genesis block's modifier is zero.
	if prev == nil {
		return 0, true, nil
	}

	modifier, modifierTime, err := lastStakeModifier(prev)
	if err != nil {
		return 0, false, fmt.Errorf("unable to get last modifier: %w", err)
	}

	interval := modifierIntervalSecs(params)
	if modifierTime/interval >= prev.timestamp/interval {
		return modifier, false, nil
	}

	// Collect the candidate blocks from the selection interval preceding
	// the start of the current modifier interval.
	selInterval := selectionInterval(params)
	selectionStart := (prev.timestamp/interval)*interval - selInterval
	var candidates []*blockNode
	node := prev
	for node != nil && node.timestamp >= selectionStart {
		candidates = append(candidates, node)
		node = node.parent
	}
	firstHeight := int32(0)
	if node != nil {
		firstHeight = node.height + 1
	}
	sort.Sort(candidateSorter(candidates))

	rounds := len(candidates)
	if rounds > modifierRounds {
		rounds = modifierRounds
	}
	var newModifier uint64
	selectionStop := selectionStart
	selected := make(map[*blockNode]struct{}, rounds)
	for round := 0; round < rounds; round++ {
		selectionStop += selectionIntervalSection(params, round)
		node, err := selectBlockFromCandidates(candidates, selected,
			selectionStop, modifier)
		if err != nil {
			return 0, false, fmt.Errorf("unable to select block at "+
				"round %d: %w", round, err)
		}

		newModifier |= node.entropyBit() << uint(round)
		selected[node] = struct{}{}
	}

	log.Debugf("New stake modifier %016x at time %v (selection height "+
		"[%d, %d] map %v)", newModifier, prev.Time(), firstHeight,
		prev.height, newLogClosure(func() string {
			return selectionMap(prev, firstHeight, selected)
		}))

	return newModifier, true, nil
}

// stakeModifierChecksum returns the checksum chaining the stake modifier
// state of the node to the one of its parent.  It is the top 32 bits of the
// double sha256 of the parent checksum, the node flags, the proof-of-stake
// hash and the stake modifier.
func stakeModifierChecksum(node *blockNode) uint32 {
	var buf [4 + 4 + chainhash.HashSize + 8]byte
	b := buf[:0]
	if node.parent != nil {
		b = binary.LittleEndian.AppendUint32(b, node.parent.stakeModifierChecksum)
	}
	b = binary.LittleEndian.AppendUint32(b, uint32(node.flags))
	b = append(b, node.hashProofOfStake[:]...)
	b = binary.LittleEndian.AppendUint64(b, node.stakeModifier)

	hash := chainhash.DoubleHashH(b)
	return binary.LittleEndian.Uint32(hash[chainhash.HashSize-4:])
}

// CheckStakeModifierCheckpoint returns whether the stake modifier checksum
// computed for the block at the given height matches the one pinned for that
// height.  Heights without a pinned checksum always pass.
func CheckStakeModifierCheckpoint(params *chaincfg.Params, height int32, checksum uint32) bool {
	want, ok := params.StakeModifierCheckpoints[height]
	return !ok || want == checksum
}

// ComputeNextStakeModifier returns the stake modifier a block building on the
// block with the given hash would carry and whether that block generates it.
//
// This function is safe for concurrent access.
func (b *BlockChain) ComputeNextStakeModifier(prevHash *chainhash.Hash) (uint64, bool, error) {
	b.chainLock.RLock()
	defer b.chainLock.RUnlock()

	prev := b.index.LookupNode(prevHash)
	if prev == nil {
		str := fmt.Sprintf("previous block %v is not known", prevHash)
		return 0, false, ruleError(ErrMissingParent, str)
	}
	return computeNextStakeModifier(b.chainParams, prev)
}

// kernelStakeModifier returns the stake modifier used to hash a kernel whose
// staked coin was confirmed in the block with the given hash.  It is the
// modifier of the first main chain block generated at least a selection
// interval after that block, which was unknown when the coin confirmed.
//
// ErrModifierUnavailable is returned when the main chain does not reach far
// enough yet.
//
// This function MUST be called with the chain state lock held (for reads).
func (b *BlockChain) kernelStakeModifier(hashBlockFrom *chainhash.Hash) (uint64, error) {
	from := b.index.LookupNode(hashBlockFrom)
	if from == nil {
		str := fmt.Sprintf("block %v of the staked coin is not indexed",
			hashBlockFrom)
		return 0, ruleError(ErrMissingPrevOut, str)
	}

	selInterval := selectionInterval(b.chainParams)
	modifierTime := from.timestamp
	node := from
	for modifierTime < from.timestamp+selInterval {
		next := b.bestChain.Next(node)
		if next == nil {
			// The best block was reached, which may happen when the
			// node is behind on the block chain.
			minAge := int64(b.chainParams.StakeMinAge / time.Second)
			if node.timestamp+minAge-selInterval > b.timeSource.AdjustedTime().Unix() {
				log.Errorf("Kernel stake modifier reached best block "+
					"%v at height %d from block %v", node.hash,
					node.height, from.hash)
			} else {
				log.Debugf("Kernel stake modifier for block %v not "+
					"available yet", from.hash)
			}
			return 0, fmt.Errorf("%w: reached best block %v at "+
				"height %d from block %v", ErrModifierUnavailable,
				node.hash, node.height, from.hash)
		}

		node = next
		if node.generatedStakeModifier() {
			modifierTime = node.timestamp
		}
	}
	return node.stakeModifier, nil
}

// KernelStakeModifier returns the stake modifier used to hash a kernel whose
// staked coin was confirmed in the block with the given hash.  The error
// satisfies errors.Is(err, ErrModifierUnavailable) when the chain has not
// advanced far enough past that block yet.
//
// This function is safe for concurrent access.
func (b *BlockChain) KernelStakeModifier(hashBlockFrom *chainhash.Hash) (uint64, error) {
	b.chainLock.RLock()
	defer b.chainLock.RUnlock()
	return b.kernelStakeModifier(hashBlockFrom)
}
