// Copyright (c) 2013-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package netsync

import (
	"errors"
	"sync"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/ppcsuite/kerneld/blockchain"
	ppcwire "github.com/ppcsuite/kerneld/wire"
)

const (
	// defaultMaxKnownCheckpoints is the number of checkpoints remembered
	// per peer when no other size is configured.
	defaultMaxKnownCheckpoints = 64
)

// SyncManager relays synchronized checkpoints between the block chain and
// the connected peers.
type SyncManager struct {
	chain          Chain
	disableBanning bool
	banThreshold   uint32
	maxKnown       uint

	mtx        sync.RWMutex
	peerStates map[Peer]*peerSyncState
}

// New constructs a new SyncManager.
func New(config *Config) (*SyncManager, error) {
	if config.Chain == nil {
		return nil, errors.New("netsync.New chain is nil")
	}

	sm := SyncManager{
		chain:          config.Chain,
		disableBanning: config.DisableBanning,
		banThreshold:   config.BanThreshold,
		maxKnown:       config.MaxKnownCheckpoints,
		peerStates:     make(map[Peer]*peerSyncState),
	}
	if sm.banThreshold == 0 {
		sm.banThreshold = DefaultBanThreshold
	}
	if sm.maxKnown == 0 {
		sm.maxKnown = defaultMaxKnownCheckpoints
	}
	return &sm, nil
}

// peerState returns the state of the peer or nil when it is not connected.
func (sm *SyncManager) peerState(p Peer) *peerSyncState {
	sm.mtx.RLock()
	state := sm.peerStates[p]
	sm.mtx.RUnlock()
	return state
}

// NewPeer informs the sync manager of a newly active peer.  The peer is sent
// the current synchronized checkpoint and asked for the block of the pending
// one.
func (sm *SyncManager) NewPeer(p Peer) {
	state := newPeerSyncState(p, sm.maxKnown)
	sm.mtx.Lock()
	if _, exists := sm.peerStates[p]; exists {
		sm.mtx.Unlock()
		log.Warnf("Ignoring duplicate peer %s", p)
		return
	}
	sm.peerStates[p] = state
	sm.mtx.Unlock()

	log.Debugf("New sync peer %s", p)

	if msg := sm.chain.SyncCheckpointMessage(); msg != nil && !msg.IsNull() {
		state.addKnownCheckpoint(msg.PayloadHash())
		p.QueueMessage(msg, nil)
	}
	sm.chain.AskForPendingSyncCheckpoint(state)
}

// DonePeer informs the sync manager that a peer has disconnected.
func (sm *SyncManager) DonePeer(p Peer) {
	sm.mtx.Lock()
	_, exists := sm.peerStates[p]
	delete(sm.peerStates, p)
	sm.mtx.Unlock()

	if !exists {
		log.Warnf("Received done peer message for unknown peer %s", p)
		return
	}
	log.Debugf("Lost sync peer %s", p)
}

// HandleCheckpoint hands a checkpoint message received from the peer to the
// block chain.  Peers sending checkpoints that fail validation have their
// ban score raised by the score of the failure and are disconnected once it
// reaches the ban threshold.  It returns whether the checkpoint was accepted.
func (sm *SyncManager) HandleCheckpoint(msg *ppcwire.MsgCheckpoint, p Peer) bool {
	state := sm.peerState(p)
	if state == nil {
		log.Warnf("Received checkpoint message from unknown peer %s", p)
		return false
	}

	// The peer knows the checkpoint it sent, so it is never relayed back.
	if !state.addKnownCheckpoint(msg.PayloadHash()) {
		log.Tracef("Ignoring known checkpoint from %s", p)
		return false
	}

	accepted, err := sm.chain.ProcessSyncCheckpoint(msg, state)
	if err != nil {
		log.Infof("Rejected checkpoint from %s: %v", p, err)
		sm.addBanScore(state, blockchain.BanScore(err), "checkpoint")
		return false
	}
	return accepted
}

// HandleBlock hands a block received from the peer to the block chain.
// Peers sending blocks that break the consensus rules have their ban score
// raised.  For orphan blocks the peer is asked for the blocks leading up to
// the orphan chain, and directly for the missing parent when the pending
// synchronized checkpoint waits for the orphan.  It returns whether the block
// extended the main chain.
func (sm *SyncManager) HandleBlock(block *btcutil.Block, p Peer) bool {
	state := sm.peerState(p)
	if state == nil {
		log.Warnf("Received block message from unknown peer %s", p)
		return false
	}

	blockHash := block.Hash()
	isMainChain, isOrphan, err := sm.chain.ProcessBlock(block)
	if err != nil {
		log.Infof("Rejected block %v from %s: %v", blockHash, p, err)
		sm.addBanScore(state, blockchain.BanScore(err), "block")
		return false
	}
	if !isOrphan {
		return isMainChain
	}

	// Request the parents of the orphan.
	orphanRoot := sm.chain.GetOrphanRoot(blockHash)
	locator := sm.chain.LatestBlockLocator()
	if err := state.PushGetBlocks(locator, orphanRoot); err != nil {
		log.Warnf("Failed to push getblocksmsg for the latest block: %v",
			err)
	}
	if sm.chain.WantedByPendingSyncCheckpoint(blockHash) {
		if wanted := sm.chain.WantedByOrphan(blockHash); wanted != nil {
			state.AskForBlock(wanted)
		}
	}
	return false
}

// addBanScore increases the persistent ban score of the peer by the passed
// value and disconnects it when the score reaches the ban threshold.  The
// reason is included in the logs.
func (sm *SyncManager) addBanScore(state *peerSyncState, persistent uint32, reason string) {
	if persistent == 0 {
		return
	}

	warnThreshold := sm.banThreshold / 2
	score := state.banScore.Increase(persistent, 0)
	if score > warnThreshold {
		log.Warnf("Misbehaving peer %s: %s -- ban score increased to %d",
			state.peer, reason, score)
	}
	if score < sm.banThreshold {
		return
	}
	if sm.disableBanning {
		log.Warnf("Peer %s crossed the ban threshold, banning is "+
			"disabled", state.peer)
		return
	}
	log.Warnf("Misbehaving peer %s -- disconnecting", state.peer)
	state.peer.Disconnect()
}

// BanScore returns the current ban score of the peer.  It is zero for peers
// that are not connected.
func (sm *SyncManager) BanScore(p Peer) uint32 {
	state := sm.peerState(p)
	if state == nil {
		return 0
	}
	return state.banScore.Int()
}

// RelayCheckpoint sends the checkpoint to every connected peer that does not
// know it yet.  It implements blockchain.CheckpointRelayer.
//
// This function is safe for concurrent access.
func (sm *SyncManager) RelayCheckpoint(msg *ppcwire.MsgCheckpoint) {
	hash := msg.PayloadHash()

	sm.mtx.RLock()
	states := make([]*peerSyncState, 0, len(sm.peerStates))
	for _, state := range sm.peerStates {
		states = append(states, state)
	}
	sm.mtx.RUnlock()

	var relayed int
	for _, state := range states {
		if !state.addKnownCheckpoint(hash) {
			continue
		}
		state.peer.QueueMessage(msg, nil)
		relayed++
	}
	log.Debugf("Relayed checkpoint %v to %d peers", hash, relayed)
}
