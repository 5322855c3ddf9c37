// Copyright (c) 2013-2016 The btcsuite developers
// Copyright (c) 2015-2017 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import (
	"sync"
	"testing"
	"time"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/ppcsuite/kerneld/blockchain/internal/progresslog"
	"github.com/ppcsuite/kerneld/blockchain/internal/testhelper"
	"github.com/ppcsuite/kerneld/chaincfg"
	"github.com/ppcsuite/kerneld/database"
	ppcwire "github.com/ppcsuite/kerneld/wire"
	"github.com/stretchr/testify/require"
)

// testBlockSpacing is the time between the synthetic blocks of the tests.
const testBlockSpacing = 10 * time.Minute

// checkpointKey returns the private key with the given scalar value.  The
// regression test network is signed by the key with scalar 1.
func checkpointKey(scalar byte) *btcec.PrivateKey {
	var raw [btcec.PrivKeyBytesLen]byte
	raw[len(raw)-1] = scalar
	privKey, _ := btcec.PrivKeyFromBytes(raw[:])
	return privKey
}

// fakeUtxoFetcher is a UtxoFetcher backed by a map.
type fakeUtxoFetcher struct {
	mtx  sync.Mutex
	outs map[wire.OutPoint]*PrevOut
}

func newFakeUtxoFetcher() *fakeUtxoFetcher {
	return &fakeUtxoFetcher{outs: make(map[wire.OutPoint]*PrevOut)}
}

func (f *fakeUtxoFetcher) add(outpoint wire.OutPoint, prev *PrevOut) {
	f.mtx.Lock()
	f.outs[outpoint] = prev
	f.mtx.Unlock()
}

func (f *fakeUtxoFetcher) FetchPrevOut(outpoint *wire.OutPoint) (*PrevOut, error) {
	f.mtx.Lock()
	defer f.mtx.Unlock()
	return f.outs[*outpoint], nil
}

// fakeSigVerifier accepts every signature unless err is set.
type fakeSigVerifier struct {
	err error
}

func (v fakeSigVerifier) VerifyInput(*wire.MsgTx, int, *PrevOut) error {
	return v.err
}

// fixedTxTimer reports the same timestamp for every transaction.
type fixedTxTimer int64

func (t fixedTxTimer) TxTime(*wire.MsgTx) int64 {
	return int64(t)
}

// fixedTimeSource is a TimeSource stuck at a given time.
type fixedTimeSource time.Time

func (t fixedTimeSource) AdjustedTime() time.Time {
	return time.Time(t)
}

// recordingRelayer records the checkpoints it is asked to relay.
type recordingRelayer struct {
	mtx  sync.Mutex
	msgs []*ppcwire.MsgCheckpoint
}

func (r *recordingRelayer) RelayCheckpoint(msg *ppcwire.MsgCheckpoint) {
	r.mtx.Lock()
	r.msgs = append(r.msgs, msg)
	r.mtx.Unlock()
}

func (r *recordingRelayer) relayed() []*ppcwire.MsgCheckpoint {
	r.mtx.Lock()
	defer r.mtx.Unlock()
	return append([]*ppcwire.MsgCheckpoint(nil), r.msgs...)
}

// recordingPeer records the blocks it is asked for.
type recordingPeer struct {
	locators []BlockLocator
	stops    []chainhash.Hash
	asked    []chainhash.Hash
}

func (p *recordingPeer) PushGetBlocks(locator BlockLocator, stop *chainhash.Hash) error {
	p.locators = append(p.locators, locator)
	p.stops = append(p.stops, *stop)
	return nil
}

func (p *recordingPeer) AskForBlock(hash *chainhash.Hash) {
	p.asked = append(p.asked, *hash)
}

// recordingReorganizer records main chain changes and fails them when err
// is set.
type recordingReorganizer struct {
	err    error
	detach [][]chainhash.Hash
	attach [][]chainhash.Hash
}

func (r *recordingReorganizer) Reorganize(detach, attach []chainhash.Hash) error {
	if r.err != nil {
		return r.err
	}
	r.detach = append(r.detach, detach)
	r.attach = append(r.attach, attach)
	return nil
}

// regressionParams returns a copy of the regression test network parameters
// with the given hardened checkpoints after the genesis one.
func regressionParams(checkpoints ...chaincfg.Checkpoint) *chaincfg.Params {
	params := chaincfg.RegressionNetParams
	params.Checkpoints = append([]chaincfg.Checkpoint{
		{Height: 0, Hash: params.GenesisHash},
	}, checkpoints...)
	return &params
}

// newTestDB returns an in-memory database closed when the test ends.
func newTestDB(t *testing.T) *database.DB {
	t.Helper()
	db, err := database.Open(database.TypeMemDB, "", true)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

// chainHarness drives a chain instance with synthetic proof-of-work blocks.
type chainHarness struct {
	t       *testing.T
	params  *chaincfg.Params
	db      *database.DB
	chain   *BlockChain
	utxos   *fakeUtxoFetcher
	relayer *recordingRelayer
	reorg   *recordingReorganizer
	blocks  map[chainhash.Hash]*btcutil.Block
	nonce   uint32
}

// newChainHarness returns a harness around a new chain using the given
// parameters.  The configure function, when not nil, may adjust the
// configuration before the chain is created.
func newChainHarness(t *testing.T, params *chaincfg.Params, configure func(*Config)) *chainHarness {
	t.Helper()
	h := &chainHarness{
		t:       t,
		params:  params,
		db:      newTestDB(t),
		utxos:   newFakeUtxoFetcher(),
		relayer: &recordingRelayer{},
		reorg:   &recordingReorganizer{},
		blocks:  make(map[chainhash.Hash]*btcutil.Block),
	}
	genesis := btcutil.NewBlock(params.GenesisBlock)
	genesis.SetHeight(0)
	h.blocks[*params.GenesisHash] = genesis
	h.chain = h.newChain(configure)
	return h
}

// newChain creates another chain instance on the harness database.
func (h *chainHarness) newChain(configure func(*Config)) *BlockChain {
	h.t.Helper()
	config := Config{
		DB:          h.db,
		ChainParams: h.params,
		UtxoFetcher: h.utxos,
		SigVerifier: fakeSigVerifier{},
		Reorganizer: h.reorg,
		Relayer:     h.relayer,
	}
	if configure != nil {
		configure(&config)
	}
	chain, err := New(&config)
	require.NoError(h.t, err)
	return chain
}

// block returns a block built by the harness.
func (h *chainHarness) block(hash *chainhash.Hash) *btcutil.Block {
	h.t.Helper()
	block, ok := h.blocks[*hash]
	require.True(h.t, ok, "unknown block %v", hash)
	return block
}

// child builds, without processing it, a proof-of-work block on top of the
// given parent and spaced after it by testBlockSpacing.
func (h *chainHarness) child(parent *chainhash.Hash, extraTxns ...*wire.MsgTx) *btcutil.Block {
	h.t.Helper()
	prev := h.block(parent)
	height := prev.Height() + 1
	h.nonce++
	coinbase := testhelper.CreateCoinbaseTx(height, uint64(h.nonce),
		50*chaincfg.CoinValue)
	txns := append([]*wire.MsgTx{coinbase}, extraTxns...)
	timestamp := prev.MsgBlock().Header.Timestamp.Add(testBlockSpacing)
	block := testhelper.NewBlock(parent, timestamp, h.params.PowLimitBits,
		h.nonce, txns...)
	block.SetHeight(height)
	h.blocks[*block.Hash()] = block
	return block
}

// process processes the block and fails the test on error.
func (h *chainHarness) process(block *btcutil.Block) (bool, bool) {
	h.t.Helper()
	isMainChain, isOrphan, err := h.chain.ProcessBlock(block)
	require.NoError(h.t, err, "block %v", block.Hash())
	return isMainChain, isOrphan
}

// extend builds and processes n blocks on top of parent and returns them.
func (h *chainHarness) extend(parent *chainhash.Hash, n int) []*btcutil.Block {
	h.t.Helper()
	blocks := make([]*btcutil.Block, 0, n)
	for i := 0; i < n; i++ {
		block := h.child(parent)
		h.process(block)
		blocks = append(blocks, block)
		parent = block.Hash()
	}
	return blocks
}

// tipHash returns the hash of the best block.
func (h *chainHarness) tipHash() chainhash.Hash {
	return h.chain.BestSnapshot().Hash
}

// newFakeChain returns a chain instance that is only usable for tests of the
// block index and the stake engines.  It has no database.
func newFakeChain(params *chaincfg.Params) *BlockChain {
	genesis := newBlockNode(&params.GenesisBlock.Header, nil, false)
	genesis.setStakeModifier(0, true)
	genesis.stakeModifierChecksum = stakeModifierChecksum(genesis)

	index := newBlockIndex()
	index.AddNode(genesis)
	b := &BlockChain{
		chainParams: params,
		timeSource:  wallClock{},
		utxoFetcher: newFakeUtxoFetcher(),
		sigVerifier: fakeSigVerifier{},
		index:       index,
		bestChain:   newChainView(genesis),
		orphans:     make(map[chainhash.Hash]*orphanBlock),
		prevOrphans: make(map[chainhash.Hash][]*orphanBlock),

		progressLogger: progresslog.NewBlockProgressLogger("Processed", log),
		stateSnapshot:  newBestState(genesis),
	}
	b.ckpt.current = genesis
	return b
}

// newFakeNode returns a node on top of parent with the given timestamp and
// the stake modifier it derives.  Proof-of-stake nodes get a kernel hash
// derived from their block hash.
func newFakeNode(params *chaincfg.Params, parent *blockNode, timestamp int64,
	proofOfStake bool) *blockNode {

	header := wire.BlockHeader{
		Bits:      params.PowLimitBits,
		Timestamp: time.Unix(timestamp, 0),
		Nonce:     testNoncePrng.Uint32(),
	}
	if parent != nil {
		header.PrevBlock = parent.hash
	}
	node := newBlockNode(&header, parent, proofOfStake)
	if proofOfStake {
		node.hashProofOfStake = chainhash.DoubleHashH(node.hash[:])
	}
	modifier, generated, err := computeNextStakeModifier(params, parent)
	if err != nil {
		panic(err)
	}
	node.setStakeModifier(modifier, generated)
	node.stakeModifierChecksum = stakeModifierChecksum(node)
	return node
}

// extendFakeChain adds n nodes spaced by spacing seconds on top of parent to
// the index of the fake chain and makes the last one the tip.  The nodes
// with an odd index are proof-of-stake when alternate is set.
func extendFakeChain(b *BlockChain, parent *blockNode, n int, spacing int64,
	alternate bool) []*blockNode {

	nodes := make([]*blockNode, 0, n)
	for i := 0; i < n; i++ {
		node := newFakeNode(b.chainParams, parent,
			parent.timestamp+spacing, alternate && i%2 == 1)
		b.index.AddNode(node)
		nodes = append(nodes, node)
		parent = node
	}
	b.bestChain.SetTip(parent)
	return nodes
}
