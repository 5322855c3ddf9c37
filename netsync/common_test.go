// Copyright (c) 2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package netsync

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/ppcsuite/kerneld/blockchain"
	"github.com/ppcsuite/kerneld/chaincfg"
	"github.com/ppcsuite/kerneld/database"
	ppcwire "github.com/ppcsuite/kerneld/wire"
	"github.com/stretchr/testify/require"
)

/* This file contains mock structs and helper functions that are shared by tests
 * in the netsync package.
 */

// mockPeer records the messages queued to it.
type mockPeer struct {
	name string

	mtx          sync.Mutex
	msgs         []wire.Message
	disconnected bool
}

func newMockPeer(name string) *mockPeer {
	return &mockPeer{name: name}
}

func (p *mockPeer) String() string { return p.name }

func (p *mockPeer) QueueMessage(msg wire.Message, doneChan chan<- struct{}) {
	p.mtx.Lock()
	p.msgs = append(p.msgs, msg)
	p.mtx.Unlock()
	if doneChan != nil {
		doneChan <- struct{}{}
	}
}

func (p *mockPeer) Disconnect() {
	p.mtx.Lock()
	p.disconnected = true
	p.mtx.Unlock()
}

// queued returns the messages queued so far and forgets them.
func (p *mockPeer) queued() []wire.Message {
	p.mtx.Lock()
	defer p.mtx.Unlock()
	msgs := p.msgs
	p.msgs = nil
	return msgs
}

func (p *mockPeer) isDisconnected() bool {
	p.mtx.Lock()
	defer p.mtx.Unlock()
	return p.disconnected
}

// mockChain is a Chain returning canned results.  Accepted checkpoints are
// relayed through the relayer like the block chain does.
type mockChain struct {
	relayer blockchain.CheckpointRelayer

	current     *ppcwire.MsgCheckpoint
	ckptErr     error
	ckptAccept  bool
	processed   []*ppcwire.MsgCheckpoint
	askedPeers  []blockchain.CheckpointPeer
	blockErr    error
	orphan      bool
	orphanRoot  chainhash.Hash
	wanted      *chainhash.Hash
	pendingWant bool
	locator     blockchain.BlockLocator
}

func (c *mockChain) ProcessBlock(*btcutil.Block) (bool, bool, error) {
	if c.blockErr != nil {
		return false, false, c.blockErr
	}
	return !c.orphan, c.orphan, nil
}

func (c *mockChain) GetOrphanRoot(*chainhash.Hash) *chainhash.Hash {
	return &c.orphanRoot
}

func (c *mockChain) WantedByOrphan(*chainhash.Hash) *chainhash.Hash {
	return c.wanted
}

func (c *mockChain) LatestBlockLocator() blockchain.BlockLocator {
	return c.locator
}

func (c *mockChain) ProcessSyncCheckpoint(msg *ppcwire.MsgCheckpoint, _ blockchain.CheckpointPeer) (bool, error) {
	c.processed = append(c.processed, msg)
	if c.ckptErr != nil {
		return false, c.ckptErr
	}
	if c.ckptAccept && c.relayer != nil {
		c.current = msg
		c.relayer.RelayCheckpoint(msg)
	}
	return c.ckptAccept, nil
}

func (c *mockChain) SyncCheckpointMessage() *ppcwire.MsgCheckpoint {
	return c.current
}

func (c *mockChain) AskForPendingSyncCheckpoint(peer blockchain.CheckpointPeer) {
	c.askedPeers = append(c.askedPeers, peer)
}

func (c *mockChain) WantedByPendingSyncCheckpoint(*chainhash.Hash) bool {
	return c.pendingWant
}

// newMockManager returns a sync manager driving a mock chain which relays
// through the manager.
func newMockManager(t *testing.T, config Config) (*SyncManager, *mockChain) {
	t.Helper()
	chain := &mockChain{}
	config.Chain = chain
	sm, err := New(&config)
	require.NoError(t, err)
	chain.relayer = sm
	return sm, chain
}

// relayForwarder hands checkpoints relayed by a block chain to the sync
// manager created after it.
type relayForwarder struct {
	sm *SyncManager
}

func (f *relayForwarder) RelayCheckpoint(msg *ppcwire.MsgCheckpoint) {
	f.sm.RelayCheckpoint(msg)
}

// noUtxos is a UtxoFetcher that knows no outputs.
type noUtxos struct{}

func (noUtxos) FetchPrevOut(*wire.OutPoint) (*blockchain.PrevOut, error) {
	return nil, nil
}

// regressionParams returns a copy of the regression test network parameters.
func regressionParams() *chaincfg.Params {
	params := chaincfg.RegressionNetParams
	return &params
}

// newChainManager returns a sync manager driving a block chain on the
// regression test network kept in memory.
func newChainManager(t *testing.T) (*SyncManager, *blockchain.BlockChain) {
	t.Helper()

	db, err := database.Open(database.TypeMemDB, "", true)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	forwarder := &relayForwarder{}
	chain, err := blockchain.New(&blockchain.Config{
		DB:          db,
		ChainParams: regressionParams(),
		UtxoFetcher: noUtxos{},
		Relayer:     forwarder,
	})
	require.NoError(t, err)

	sm, err := New(&Config{Chain: chain})
	require.NoError(t, err)
	forwarder.sm = sm
	return sm, chain
}

// checkpointKey returns the private key of the regression test network
// checkpoint master public key.
func checkpointKey() *btcec.PrivateKey {
	key, _ := btcec.PrivKeyFromBytes([]byte{31: 0x01})
	return key
}

// childBlock returns a proof-of-work block on top of parent, ten minutes
// later, whose coinbase commits to nonce.
func childBlock(parent *wire.BlockHeader, nonce int64) *btcutil.Block {
	script, err := txscript.NewScriptBuilder().AddInt64(nonce).Script()
	if err != nil {
		panic(fmt.Sprintf("coinbase script: %v", err))
	}
	coinbase := wire.NewMsgTx(1)
	coinbase.AddTxIn(&wire.TxIn{
		PreviousOutPoint: *wire.NewOutPoint(&chainhash.Hash{},
			wire.MaxPrevOutIndex),
		Sequence:        wire.MaxTxInSequenceNum,
		SignatureScript: script,
	})
	coinbase.AddTxOut(wire.NewTxOut(50*chaincfg.CoinValue,
		[]byte{txscript.OP_TRUE}))

	return btcutil.NewBlock(&wire.MsgBlock{
		Header: wire.BlockHeader{
			Version:    1,
			PrevBlock:  parent.BlockHash(),
			MerkleRoot: coinbase.TxHash(),
			Timestamp:  parent.Timestamp.Add(10 * time.Minute),
			Bits:       parent.Bits,
		},
		Transactions: []*wire.MsgTx{coinbase},
	})
}
