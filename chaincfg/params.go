// Copyright (c) 2014-2016 The btcsuite developers
// Copyright (c) 2015-2018 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package chaincfg

import (
	"encoding/hex"
	"errors"
	"math/big"
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
)

// These variables are the chain proof-of-work limit parameters for each default
// network.
var (
	// bigOne is 1 represented as a big.Int.  It is defined here to avoid
	// the overhead of creating it multiple times.
	bigOne = big.NewInt(1)

	// mainPowLimit is the highest proof of work value a block can have for
	// the main network.  It is the value 2^224 - 1.
	mainPowLimit = new(big.Int).Sub(new(big.Int).Lsh(bigOne, 224), bigOne)

	// testNetPowLimit is the highest proof of work value a block can have
	// for the test network.  It is the value 2^228 - 1.
	testNetPowLimit = new(big.Int).Sub(new(big.Int).Lsh(bigOne, 228), bigOne)

	// regressionPowLimit is the highest proof of work value a block can
	// have for the regression test network.  It is the value 2^255 - 1.
	regressionPowLimit = new(big.Int).Sub(new(big.Int).Lsh(bigOne, 255), bigOne)
)

const (
	// CoinValue is the number of base units in one coin.  Coin-day weight
	// is expressed in whole coins.
	CoinValue = 1000000

	// ModifierIntervalRatio is the ratio of the first to the last stake
	// modifier selection section length.
	ModifierIntervalRatio = 3
)

// Checkpoint identifies a known good point in the block chain.  Using
// checkpoints prevents forks from old blocks.  Hardened checkpoints are
// compiled in and can never be replaced at runtime.
type Checkpoint struct {
	Height int32
	Hash   *chainhash.Hash
}

// Params defines a network by its consensus parameters.  Beyond the usual
// proof-of-work parameters it carries everything the proof-of-stake kernel
// and the synchronized checkpoint protocol need to agree bit for bit with
// every other node on the same network.
type Params struct {
	// Name defines a human-readable identifier for the network.
	Name string

	// Net defines the magic bytes used to identify the network.
	Net wire.BitcoinNet

	// DefaultPort defines the default peer-to-peer port for the network.
	DefaultPort string

	// GenesisBlock defines the first block of the chain.
	GenesisBlock *wire.MsgBlock

	// GenesisHash is the starting block hash.
	GenesisHash *chainhash.Hash

	// PowLimit defines the highest allowed proof of work value for a block
	// as a uint256.
	PowLimit *big.Int

	// PowLimitBits defines the highest allowed proof of work value for a
	// block in compact form.
	PowLimitBits uint32

	// CoinbaseMaturity is the number of blocks required before newly mined
	// coins can be spent.
	CoinbaseMaturity uint16

	// StakeMinAge is the minimum age a coin must reach before it gains
	// any coin-day weight.
	StakeMinAge time.Duration

	// StakeMaxAge is the age at which coin-day weight saturates.
	StakeMaxAge time.Duration

	// ModifierInterval is the time to elapse before a new stake modifier
	// is computed.
	ModifierInterval time.Duration

	// WeightSwitchTime is the unix time after which coin-day weight is
	// computed as clamp(age-min, 0, max) instead of min(age, max)-min.
	WeightSwitchTime int64

	// CheckpointMaxSpan bounds how far back from the best block an
	// automatically selected sync checkpoint may sit.
	CheckpointMaxSpan time.Duration

	// CheckpointPubKey is the serialized public key of the authority that
	// signs synchronized checkpoints for this network.
	CheckpointPubKey []byte

	// Checkpoints ordered from oldest to newest.
	Checkpoints []Checkpoint

	// StakeModifierCheckpoints maps a block height to the expected stake
	// modifier checksum at that height.
	StakeModifierCheckpoints map[int32]uint32
}

// ErrDuplicateNet describes an error where the parameters for a network
// could not be set due to the network already being a standard network or
// previously-registered into this package.
var ErrDuplicateNet = errors.New("duplicate network")

// ErrUnknownNet describes an error where a network name is not known.
var ErrUnknownNet = errors.New("unknown network")

var registeredNets = make(map[wire.BitcoinNet]*Params)

// Register registers the network parameters for a network.  This may error
// with ErrDuplicateNet if the network is already registered.
func Register(params *Params) error {
	if _, ok := registeredNets[params.Net]; ok {
		return ErrDuplicateNet
	}
	registeredNets[params.Net] = params
	return nil
}

// mustRegister performs the same function as Register except it panics if
// there is an error.  This should only be called from package init
// functions.
func mustRegister(params *Params) {
	if err := Register(params); err != nil {
		panic("failed to register network: " + err.Error())
	}
}

// ParamsForName returns the registered parameters for the network with the
// given name.
func ParamsForName(name string) (*Params, error) {
	for _, params := range registeredNets {
		if params.Name == name {
			return params, nil
		}
	}
	return nil, ErrUnknownNet
}

// LatestCheckpoint returns the most recent hardened checkpoint, or nil when
// the network has none.
func (p *Params) LatestCheckpoint() *Checkpoint {
	if len(p.Checkpoints) == 0 {
		return nil
	}
	return &p.Checkpoints[len(p.Checkpoints)-1]
}

// newHashFromStr converts the passed big-endian hex string into a
// chainhash.Hash.  It only differs from the one available in chainhash in
// that it panics on an error since it will only (and must only) be called
// with hard-coded, and therefore known good, hashes.
func newHashFromStr(hexStr string) *chainhash.Hash {
	hash, err := chainhash.NewHashFromStr(hexStr)
	if err != nil {
		panic(err)
	}
	return hash
}

// hexDecode decodes the passed hex string and returns the resulting bytes.  It
// panics if an error occurs.  This is only used in the package init for the
// hard-coded public keys.
func hexDecode(hexStr string) []byte {
	b, err := hex.DecodeString(hexStr)
	if err != nil {
		panic(err)
	}
	return b
}

func init() {
	mustRegister(&MainNetParams)
	mustRegister(&TestNetParams)
	mustRegister(&RegressionNetParams)
}
