// Copyright (c) 2014-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import (
	"encoding/binary"
	"fmt"
	"math/big"
	"time"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/ppcsuite/kerneld/chaincfg"
)

const (
	// secondsPerDay converts coin-seconds to coin-days.
	secondsPerDay = 24 * 60 * 60

	// maxStakeSearchInterval is the largest number of timestamps tried per
	// coin by a single kernel scan.
	maxStakeSearchInterval = 60
)

// StakeKernel describes the coin spent by the first input of a coinstake,
// which is the data a kernel hash commits to besides the stake modifier and
// the coinstake timestamp.
type StakeKernel struct {
	// BlockFrom is the hash of the block confirming the staked coin.
	BlockFrom chainhash.Hash

	// BlockFromTime is the timestamp of BlockFrom.
	BlockFromTime int64

	// TxPrevOffset is the byte offset of the transaction creating the
	// coin inside BlockFrom.
	TxPrevOffset uint32

	// TxPrevTime is the timestamp of the transaction creating the coin.
	TxPrevTime int64

	// PrevOut identifies the staked output.
	PrevOut wire.OutPoint

	// Value is the value of the staked output.
	Value btcutil.Amount
}

// coinAgeWeight returns the number of seconds of age a coin held from begin
// to end counts for.  Weight starts at zero once the coin reaches the minimum
// stake age and saturates at the maximum stake age.  Intervals ending before
// the weight switch time use the older rule which subtracts the minimum age
// after saturating.
func coinAgeWeight(params *chaincfg.Params, begin, end int64) int64 {
	minAge := int64(params.StakeMinAge / time.Second)
	maxAge := int64(params.StakeMaxAge / time.Second)

	var weight int64
	if end > params.WeightSwitchTime {
		weight = end - begin - minAge
		if weight > maxAge {
			weight = maxAge
		}
	} else {
		weight = end - begin
		if weight > maxAge {
			weight = maxAge
		}
		weight -= minAge
	}
	if weight < 0 {
		weight = 0
	}
	return weight
}

// kernelTarget returns the target a kernel hash must not exceed: the target
// per coin-day encoded by bits scaled by the coin-day weight of the staked
// coin at timeTx.
func kernelTarget(params *chaincfg.Params, bits uint32, k *StakeKernel, timeTx int64) *big.Int {
	coinDayWeight := big.NewInt(int64(k.Value))
	coinDayWeight.Mul(coinDayWeight, big.NewInt(coinAgeWeight(params,
		k.TxPrevTime, timeTx)))
	coinDayWeight.Div(coinDayWeight, big.NewInt(chaincfg.CoinValue))
	coinDayWeight.Div(coinDayWeight, big.NewInt(secondsPerDay))

	return coinDayWeight.Mul(coinDayWeight, CompactToBig(bits))
}

// kernelHash returns the proof-of-stake hash of a kernel.  The fields besides
// the modifier keep minters sharing a coin and a timestamp from colliding.
// Timestamps are serialized as 32-bit values.
func kernelHash(modifier uint64, k *StakeKernel, timeTx int64) chainhash.Hash {
	var buf [8 + 4*5]byte
	binary.LittleEndian.PutUint64(buf[0:], modifier)
	binary.LittleEndian.PutUint32(buf[8:], uint32(k.BlockFromTime))
	binary.LittleEndian.PutUint32(buf[12:], k.TxPrevOffset)
	binary.LittleEndian.PutUint32(buf[16:], uint32(k.TxPrevTime))
	binary.LittleEndian.PutUint32(buf[20:], k.PrevOut.Index)
	binary.LittleEndian.PutUint32(buf[24:], uint32(timeTx))
	return chainhash.DoubleHashH(buf[:])
}

// checkKernelTimes enforces that the coinstake does not predate the coin it
// spends and that the coin has reached the minimum stake age.
func checkKernelTimes(params *chaincfg.Params, k *StakeKernel, timeTx int64) error {
	if timeTx < k.TxPrevTime {
		str := fmt.Sprintf("coinstake time %d is before the time %d of "+
			"the transaction it spends", timeTx, k.TxPrevTime)
		return ruleError(ErrStakeTimeViolation, str)
	}
	minAge := int64(params.StakeMinAge / time.Second)
	if k.BlockFromTime+minAge > timeTx {
		str := fmt.Sprintf("staked coin confirmed at %d has not reached "+
			"the minimum stake age at %d", k.BlockFromTime, timeTx)
		return ruleError(ErrStakeMinAge, str)
	}
	return nil
}

// checkStakeKernelHash checks a kernel against the target implied by bits
// using the given stake modifier.  It returns the kernel hash and the target
// it was checked against.
func checkStakeKernelHash(params *chaincfg.Params, bits uint32, modifier uint64,
	k *StakeKernel, timeTx int64) (*chainhash.Hash, *big.Int, error) {

	if err := checkKernelTimes(params, k, timeTx); err != nil {
		return nil, nil, err
	}

	target := kernelTarget(params, bits, k, timeTx)
	hash := kernelHash(modifier, k, timeTx)
	if HashToBig(&hash).Cmp(target) > 0 {
		str := fmt.Sprintf("kernel hash %v of coin %v is above the "+
			"target %064x", hash, k.PrevOut, target)
		return &hash, target, ruleError(ErrBadKernelHash, str)
	}

	log.Debugf("Kernel of coin %v passes with modifier %016x "+
		"(block from time %d, offset %d, prev time %d, time %d, hash %v)",
		k.PrevOut, modifier, k.BlockFromTime, k.TxPrevOffset,
		k.TxPrevTime, timeTx, hash)
	return &hash, target, nil
}

// checkStakeKernelHash checks a kernel using the stake modifier selected
// for its confirming block.
//
// This function MUST be called with the chain state lock held (for reads).
func (b *BlockChain) checkStakeKernelHash(bits uint32, k *StakeKernel,
	timeTx int64) (*chainhash.Hash, *big.Int, error) {

	if err := checkKernelTimes(b.chainParams, k, timeTx); err != nil {
		return nil, nil, err
	}
	modifier, err := b.kernelStakeModifier(&k.BlockFrom)
	if err != nil {
		return nil, nil, err
	}
	return checkStakeKernelHash(b.chainParams, bits, modifier, k, timeTx)
}

// CheckStakeKernelHash checks whether the kernel meets the proof-of-stake
// target encoded by bits at timestamp timeTx.  It returns the kernel hash and
// the target.  The error satisfies errors.Is(err, ErrModifierUnavailable)
// when the kernel cannot be evaluated yet; it is a RuleError when the kernel
// is invalid.
//
// This function is safe for concurrent access.
func (b *BlockChain) CheckStakeKernelHash(bits uint32, k *StakeKernel,
	timeTx int64) (*chainhash.Hash, *big.Int, error) {

	b.chainLock.RLock()
	defer b.chainLock.RUnlock()
	return b.checkStakeKernelHash(bits, k, timeTx)
}

// StakeCandidate is a coin considered by a kernel scan together with the
// stake modifier its kernel hashes with.
type StakeCandidate struct {
	Kernel        StakeKernel
	StakeModifier uint64
}

// KernelSearch bounds a kernel scan.
type KernelSearch struct {
	// Bits is the proof-of-stake target of the block being minted.
	Bits uint32

	// Time is the latest coinstake timestamp to try.
	Time int64

	// Interval is the number of seconds to search back from Time.  It is
	// capped at 60.
	Interval int64
}

// ScanForStakeKernelHash looks for a coin and a coinstake timestamp whose
// kernel meets the target.  Coins are tried in order and, for each coin,
// timestamps from search.Time backwards.  Coins that would not reach the
// minimum stake age anywhere in the window are skipped.  The first solution
// found is returned along with its timestamp.
func ScanForStakeKernelHash(params *chaincfg.Params, coins []StakeCandidate,
	search KernelSearch) (*StakeCandidate, int64, bool) {

	interval := search.Interval
	if interval > maxStakeSearchInterval {
		interval = maxStakeSearchInterval
	}
	minAge := int64(params.StakeMinAge / time.Second)
	for i := range coins {
		coin := &coins[i]
		if coin.Kernel.BlockFromTime+minAge > search.Time-maxStakeSearchInterval {
			continue
		}

		for n := int64(0); n < interval; n++ {
			timeTx := search.Time - n
			target := kernelTarget(params, search.Bits, &coin.Kernel, timeTx)
			hash := kernelHash(coin.StakeModifier, &coin.Kernel, timeTx)
			if target.Cmp(HashToBig(&hash)) >= 0 {
				log.Debugf("Found kernel for coin %v at time %d: %v",
					coin.Kernel.PrevOut, timeTx, hash)
				return coin, timeTx, true
			}
		}
	}
	return nil, 0, false
}

// IsCoinStake returns whether the transaction has the shape of a coinstake:
// its first input spends a real output and its first output is empty.
func IsCoinStake(tx *wire.MsgTx) bool {
	if len(tx.TxIn) == 0 || len(tx.TxOut) < 2 {
		return false
	}
	prevOut := &tx.TxIn[0].PreviousOutPoint
	if prevOut.Index == wire.MaxPrevOutIndex && prevOut.Hash == zeroHash {
		return false
	}
	first := tx.TxOut[0]
	return first.Value == 0 && len(first.PkScript) == 0
}

// CheckCoinStakeTimestamp returns whether a coinstake timestamp is acceptable
// for a block with the given timestamp.  They must be equal.
func CheckCoinStakeTimestamp(blockTime, txTime int64) bool {
	return blockTime == txTime
}

// checkProofOfStake resolves the kernel input of a coinstake, verifies its
// signature and checks its kernel.
//
// This function MUST be called with the chain state lock held (for reads).
func (b *BlockChain) checkProofOfStake(tx *wire.MsgTx, bits uint32,
	timeTx int64) (*chainhash.Hash, *big.Int, error) {

	if !IsCoinStake(tx) {
		str := fmt.Sprintf("transaction %v is not a coinstake", tx.TxHash())
		return nil, nil, ruleError(ErrBadCoinStake, str)
	}

	prevOut := tx.TxIn[0].PreviousOutPoint
	prev, err := b.utxoFetcher.FetchPrevOut(&prevOut)
	if err != nil {
		return nil, nil, fmt.Errorf("fetch coinstake kernel %v: %w",
			prevOut, err)
	}
	if prev == nil {
		str := fmt.Sprintf("output %v spent by coinstake %v is not "+
			"known", prevOut, tx.TxHash())
		return nil, nil, ruleError(ErrMissingPrevOut, str)
	}

	if err := b.sigVerifier.VerifyInput(tx, 0, prev); err != nil {
		str := fmt.Sprintf("signature of coinstake %v does not "+
			"verify: %v", tx.TxHash(), err)
		return nil, nil, ruleError(ErrBadCoinStakeSig, str)
	}

	blockFrom := b.index.LookupNode(&prev.BlockHash)
	if blockFrom == nil {
		str := fmt.Sprintf("block %v confirming output %v is not known",
			prev.BlockHash, prevOut)
		return nil, nil, ruleError(ErrMissingPrevOut, str)
	}

	kernel := StakeKernel{
		BlockFrom:     blockFrom.hash,
		BlockFromTime: blockFrom.timestamp,
		TxPrevOffset:  prev.TxOffset,
		TxPrevTime:    prev.TxTime,
		PrevOut:       prevOut,
		Value:         prev.Value,
	}
	return b.checkStakeKernelHash(bits, &kernel, timeTx)
}

// CheckProofOfStake validates the coinstake of a proof-of-stake block with
// target bits and coinstake timestamp timeTx.  It returns the kernel hash
// and the target it met.  Use BanScore on the error to decide how to treat
// the peer that relayed it.
//
// This function is safe for concurrent access.
func (b *BlockChain) CheckProofOfStake(tx *wire.MsgTx, bits uint32,
	timeTx int64) (*chainhash.Hash, *big.Int, error) {

	b.chainLock.RLock()
	defer b.chainLock.RUnlock()
	return b.checkProofOfStake(tx, bits, timeTx)
}
