// Copyright (c) 2014-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import (
	"encoding/hex"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/ppcsuite/kerneld/chaincfg"
	"github.com/ppcsuite/kerneld/database"
	ppcwire "github.com/ppcsuite/kerneld/wire"
)

// CheckpointMode defines how blocks that fork the chain below the current
// synchronized checkpoint are treated.
type CheckpointMode int

const (
	// CheckpointStrict rejects blocks failing the synchronized checkpoint
	// check.
	CheckpointStrict CheckpointMode = iota

	// CheckpointAdvisory accepts blocks failing the synchronized
	// checkpoint check and logs a warning.
	CheckpointAdvisory

	// CheckpointPermissive accepts blocks failing the synchronized
	// checkpoint check silently.
	CheckpointPermissive
)

// Map of CheckpointMode values back to their names.
var checkpointModeStrings = map[CheckpointMode]string{
	CheckpointStrict:     "strict",
	CheckpointAdvisory:   "advisory",
	CheckpointPermissive: "permissive",
}

// String returns the CheckpointMode as a human-readable name.
func (m CheckpointMode) String() string {
	if s := checkpointModeStrings[m]; s != "" {
		return s
	}
	return fmt.Sprintf("Unknown CheckpointMode (%d)", int(m))
}

// ParseCheckpointMode returns the checkpoint mode with the given name.
func ParseCheckpointMode(s string) (CheckpointMode, error) {
	for mode, name := range checkpointModeStrings {
		if strings.EqualFold(s, name) {
			return mode, nil
		}
	}
	return 0, fmt.Errorf("unknown checkpoint mode %q", s)
}

// syncCheckpointState is the synchronized checkpoint state of a chain.
//
// current always refers to a block in the index.  pending is the hash named
// by the latest signed checkpoint whose block has not arrived yet, and
// invalid the last checkpoint found to conflict with current.
type syncCheckpointState struct {
	mtx            sync.Mutex
	current        *blockNode
	message        *ppcwire.MsgCheckpoint
	pending        *chainhash.Hash
	pendingMessage *ppcwire.MsgCheckpoint
	invalid        *chainhash.Hash
	privKey        *btcec.PrivateKey
	pubKey         *btcec.PublicKey
}

// parseCheckpointPubKey parses the checkpoint master public key of a
// network.
func parseCheckpointPubKey(serialized []byte) (*btcec.PublicKey, error) {
	pubKey, err := btcec.ParsePubKey(serialized)
	if err != nil {
		return nil, fmt.Errorf("invalid checkpoint master public key: %w",
			err)
	}
	return pubKey, nil
}

// ParseCheckpointPrivKey parses a checkpoint master private key given either
// as a hex encoded 32-byte scalar or in wallet import format.
func ParseCheckpointPrivKey(s string) (*btcec.PrivateKey, error) {
	s = strings.TrimSpace(s)
	if raw, err := hex.DecodeString(s); err == nil {
		if len(raw) != btcec.PrivKeyBytesLen {
			return nil, fmt.Errorf("checkpoint private key must be %d "+
				"bytes, got %d", btcec.PrivKeyBytesLen, len(raw))
		}
		privKey, _ := btcec.PrivKeyFromBytes(raw)
		return privKey, nil
	}

	wif, err := btcutil.DecodeWIF(s)
	if err != nil {
		return nil, fmt.Errorf("checkpoint private key is neither hex "+
			"nor WIF: %w", err)
	}
	return wif.PrivKey, nil
}

// SignSyncCheckpoint returns a checkpoint message naming the given block,
// signed with the checkpoint master private key.
func SignSyncCheckpoint(privKey *btcec.PrivateKey, hash *chainhash.Hash) *ppcwire.MsgCheckpoint {
	unsigned := ppcwire.UnsignedSyncCheckpoint{
		Version:        ppcwire.SyncCheckpointVersion,
		HashCheckpoint: *hash,
	}
	msg := ppcwire.NewMsgCheckpoint(unsigned.Bytes(), nil)
	digest := msg.PayloadHash()
	msg.Signature = ecdsa.Sign(privKey, digest[:]).Serialize()
	return msg
}

// VerifySyncCheckpoint checks the signature of a checkpoint message against
// the checkpoint master public key and returns its decoded payload.  The
// error is a RuleError with ErrBadCheckpointSig when the message is not
// signed by the key.
func VerifySyncCheckpoint(pubKey *btcec.PublicKey, msg *ppcwire.MsgCheckpoint) (*ppcwire.UnsignedSyncCheckpoint, error) {
	sig, err := ecdsa.ParseDERSignature(msg.Signature)
	if err != nil {
		str := fmt.Sprintf("malformed checkpoint signature: %v", err)
		return nil, ruleError(ErrBadCheckpointSig, str)
	}
	digest := msg.PayloadHash()
	if !sig.Verify(digest[:], pubKey) {
		return nil, ruleError(ErrBadCheckpointSig,
			"checkpoint signature does not verify")
	}

	unsigned, err := msg.Unsigned()
	if err != nil {
		return nil, ruleError(ErrBadCheckpointSig, err.Error())
	}
	return unsigned, nil
}

// writeSyncCheckpoint persists the node as the synchronized checkpoint and
// makes it current.  The state is left unchanged when the write fails.
//
// This function MUST be called with the chain state lock held (for reads)
// and the checkpoint lock held.
func (b *BlockChain) writeSyncCheckpoint(node *blockNode, msg *ppcwire.MsgCheckpoint) error {
	rec := CheckpointRecord{Height: node.height, Hash: node.hash, Msg: msg}
	err := b.db.Update(func(dbTx database.Tx) error {
		return dbPutSyncCheckpoint(dbTx, &rec)
	})
	if err != nil {
		return fmt.Errorf("failed to write sync checkpoint %v: %w",
			node.hash, err)
	}
	b.ckpt.current = node
	b.ckpt.message = msg
	return nil
}

// initSyncCheckpoint loads the synchronized checkpoint from the database.
// The genesis block is the checkpoint of a new database.  A stored
// checkpoint whose block is not in the index becomes pending, with the
// genesis block current until it arrives.
func (b *BlockChain) initSyncCheckpoint() error {
	rec, err := initDatabase(b.db)
	if err != nil {
		return err
	}

	b.ckpt.mtx.Lock()
	defer b.ckpt.mtx.Unlock()

	genesis := b.bestChain.Genesis()
	if rec == nil {
		return b.writeSyncCheckpoint(genesis, nil)
	}

	if node := b.index.LookupNode(&rec.Hash); node != nil {
		b.ckpt.current = node
		b.ckpt.message = rec.Msg
		return nil
	}

	log.Infof("Sync checkpoint %v (height %d) is pending until its block "+
		"is received", rec.Hash, rec.Height)
	b.ckpt.current = genesis
	pending := rec.Hash
	b.ckpt.pending = &pending
	b.ckpt.pendingMessage = rec.Msg
	return nil
}

// validateSyncCheckpoint checks that the node is on the same branch as the
// current synchronized checkpoint.  It returns true when the node descends
// from the current checkpoint, and false with no error when it is an
// ancestor of it (or the current checkpoint itself) and there is nothing to
// do.  A node on another branch is recorded as invalid and rejected.
//
// This function MUST be called with the chain state lock held (for reads)
// and the checkpoint lock held.
func (b *BlockChain) validateSyncCheckpoint(node *blockNode) (bool, error) {
	current := b.ckpt.current
	if current == nil {
		return false, AssertError("sync checkpoint is not initialized")
	}

	if node.height <= current.height {
		// The received checkpoint must be an ancestor of the current
		// one, in which case it is older and ignored.
		ancestor := current.Ancestor(node.height)
		if ancestor != node {
			b.ckpt.invalid = &node.hash
			str := fmt.Sprintf("new sync checkpoint %v is conflicting "+
				"with current sync checkpoint %v", node.hash,
				current.hash)
			log.Warnf("Rejected sync checkpoint: %s", str)
			return false, ruleError(ErrCheckpointConflict, str)
		}
		return false, nil
	}

	// The received checkpoint must descend from the current one.
	if node.Ancestor(current.height) != current {
		b.ckpt.invalid = &node.hash
		str := fmt.Sprintf("new sync checkpoint %v is not a descendant "+
			"of current sync checkpoint %v", node.hash, current.hash)
		log.Warnf("Rejected sync checkpoint: %s", str)
		return false, ruleError(ErrCheckpointConflict, str)
	}
	return true, nil
}

// ValidateSyncCheckpoint checks the block with the given hash against the
// current synchronized checkpoint.  It returns true when the block descends
// from the current checkpoint and may replace it, and false with no error
// when it is an older checkpoint on the same branch.  A block on a
// conflicting branch fails with ErrCheckpointConflict and is recorded as the
// invalid checkpoint.
//
// This function is safe for concurrent access.
func (b *BlockChain) ValidateSyncCheckpoint(hash *chainhash.Hash) (bool, error) {
	b.chainLock.RLock()
	defer b.chainLock.RUnlock()
	b.ckpt.mtx.Lock()
	defer b.ckpt.mtx.Unlock()

	node := b.index.LookupNode(hash)
	if node == nil {
		return false, fmt.Errorf("block %v of sync checkpoint is not "+
			"known", hash)
	}
	return b.validateSyncCheckpoint(node)
}

// checkSync returns whether a block with the given hash and parent is allowed
// by the current synchronized checkpoint.  Above the checkpoint height the
// block must descend from the checkpoint, at the same height it must be the
// checkpoint, and below it the block must already be known.
//
// This function MUST be called with the chain state lock held (for reads).
func (b *BlockChain) checkSync(hash *chainhash.Hash, prevNode *blockNode) bool {
	b.ckpt.mtx.Lock()
	current := b.ckpt.current
	b.ckpt.mtx.Unlock()

	height := prevNode.height + 1
	switch {
	case height > current.height:
		return prevNode.Ancestor(current.height) == current
	case height == current.height:
		return *hash == current.hash
	default:
		return b.index.HaveBlock(hash)
	}
}

// CheckSync returns whether a block with the given hash whose parent has the
// hash prevHash is allowed by the current synchronized checkpoint.  The
// parent must be known.
//
// This function is safe for concurrent access.
func (b *BlockChain) CheckSync(hash, prevHash *chainhash.Hash) bool {
	b.chainLock.RLock()
	defer b.chainLock.RUnlock()

	prevNode := b.index.LookupNode(prevHash)
	if prevNode == nil {
		return false
	}
	return b.checkSync(hash, prevNode)
}

// checkSyncPolicy applies the checkpoint mode to the synchronized checkpoint
// check of a block.
//
// This function MUST be called with the chain state lock held (for reads).
func (b *BlockChain) checkSyncPolicy(hash *chainhash.Hash, prevNode *blockNode) error {
	if b.checkSync(hash, prevNode) {
		return nil
	}

	switch b.checkpointMode {
	case CheckpointAdvisory:
		log.Warnf("Block %v at height %d forks the chain below the sync "+
			"checkpoint", hash, prevNode.height+1)
		return nil
	case CheckpointPermissive:
		return nil
	}
	str := fmt.Sprintf("block %v at height %d forks the chain below the "+
		"sync checkpoint", hash, prevNode.height+1)
	return ruleError(ErrForkTooOld, str)
}

// acceptSyncCheckpoint makes the node the synchronized checkpoint, first
// moving the main chain onto it when needed.  When the main chain cannot be
// moved the node is recorded as the invalid checkpoint.
//
// This function MUST be called with the chain state lock held (for writes)
// and the checkpoint lock held.
func (b *BlockChain) acceptSyncCheckpoint(node *blockNode, msg *ppcwire.MsgCheckpoint) error {
	if !b.bestChain.Contains(node) {
		if err := b.forceOntoMainChain(node); err != nil {
			b.ckpt.invalid = &node.hash
			str := fmt.Sprintf("unable to move the main chain onto "+
				"sync checkpoint %v: %v", node.hash, err)
			return ruleError(ErrCheckpointReorg, str)
		}
	}
	return b.writeSyncCheckpoint(node, msg)
}

// processSyncCheckpoint is the locked part of ProcessSyncCheckpoint.
//
// This function MUST be called with the chain state lock held (for writes).
func (b *BlockChain) processSyncCheckpoint(msg *ppcwire.MsgCheckpoint,
	hash *chainhash.Hash, peer CheckpointPeer) (bool, error) {

	b.ckpt.mtx.Lock()
	defer b.ckpt.mtx.Unlock()

	node := b.index.LookupNode(hash)
	if node == nil {
		if b.ckpt.pending == nil || *b.ckpt.pending != *hash {
			log.Debugf("Sync checkpoint %v is pending until its block "+
				"is received", hash)
		}
		pending := *hash
		b.ckpt.pending = &pending
		b.ckpt.pendingMessage = msg

		// Ask the peer for the missing blocks, and directly for the
		// block the checkpoint needs in case an earlier copy was
		// rejected.
		if peer != nil {
			err := peer.PushGetBlocks(blockLocator(b.bestChain.Tip()), hash)
			if err != nil {
				log.Warnf("Unable to request blocks up to sync "+
					"checkpoint %v: %v", hash, err)
			}
			want := hash
			if wanted := b.WantedByOrphan(hash); wanted != nil {
				want = wanted
			}
			peer.AskForBlock(want)
		}
		return false, nil
	}

	accept, err := b.validateSyncCheckpoint(node)
	if err != nil || !accept {
		return false, err
	}
	if err := b.acceptSyncCheckpoint(node, msg); err != nil {
		return false, err
	}
	b.ckpt.pending = nil
	b.ckpt.pendingMessage = nil

	log.Infof("Sync checkpoint at %v (height %d)", node.hash, node.height)
	return true, nil
}

// ProcessSyncCheckpoint handles a signed synchronized checkpoint message
// received from the passed peer, which may be nil for locally issued
// checkpoints.  It returns whether the checkpoint was accepted, in which
// case it has been persisted and relayed.
//
// A checkpoint whose block is not known yet becomes pending and the peer is
// asked for the missing blocks.  Checkpoints older than the current one are
// ignored.  Checkpoints on a conflicting branch and messages not signed by
// the checkpoint master key are rejected with a RuleError.
//
// This function is safe for concurrent access.
func (b *BlockChain) ProcessSyncCheckpoint(msg *ppcwire.MsgCheckpoint, peer CheckpointPeer) (bool, error) {
	unsigned, err := VerifySyncCheckpoint(b.ckpt.pubKey, msg)
	if err != nil {
		log.Debugf("Dropped sync checkpoint: %v", err)
		return false, err
	}

	b.chainLock.Lock()
	accepted, err := b.processSyncCheckpoint(msg, &unsigned.HashCheckpoint,
		peer)
	b.chainLock.Unlock()

	if accepted && b.relayer != nil {
		b.relayer.RelayCheckpoint(msg)
	}
	return accepted, err
}

// acceptPendingSyncCheckpoint is the locked part of
// AcceptPendingSyncCheckpoint.  It returns the accepted message.
//
// This function MUST be called with the chain state lock held (for writes).
func (b *BlockChain) acceptPendingSyncCheckpoint() (*ppcwire.MsgCheckpoint, bool, error) {
	b.ckpt.mtx.Lock()
	defer b.ckpt.mtx.Unlock()

	if b.ckpt.pending == nil {
		return nil, false, nil
	}
	node := b.index.LookupNode(b.ckpt.pending)
	if node == nil {
		return nil, false, nil
	}

	accept, err := b.validateSyncCheckpoint(node)
	if err != nil || !accept {
		b.ckpt.pending = nil
		b.ckpt.pendingMessage = nil
		return nil, false, err
	}

	msg := b.ckpt.pendingMessage
	if err := b.acceptSyncCheckpoint(node, msg); err != nil {
		return nil, false, err
	}
	b.ckpt.pending = nil
	b.ckpt.pendingMessage = nil

	log.Infof("Accepted pending sync checkpoint at %v (height %d)",
		node.hash, node.height)
	return msg, true, nil
}

// AcceptPendingSyncCheckpoint accepts the pending synchronized checkpoint
// once its block is known.  It returns whether the pending checkpoint was
// accepted.  A pending checkpoint that turns out older than or conflicting
// with the current one is dropped.
//
// This function is safe for concurrent access.
func (b *BlockChain) AcceptPendingSyncCheckpoint() (bool, error) {
	b.chainLock.Lock()
	msg, accepted, err := b.acceptPendingSyncCheckpoint()
	b.chainLock.Unlock()

	if accepted && msg != nil && b.relayer != nil {
		b.relayer.RelayCheckpoint(msg)
	}
	return accepted, err
}

// ResetSyncCheckpoint makes the most recent hardened checkpoint that is on
// the main chain the synchronized checkpoint.  When the most recent hardened
// checkpoint is known but not on the main chain, the main chain is moved onto
// it first.  When it is not known yet, it becomes pending.  It returns
// whether a hardened checkpoint was found.
//
// This function is safe for concurrent access.
func (b *BlockChain) ResetSyncCheckpoint() (bool, error) {
	b.chainLock.Lock()
	defer b.chainLock.Unlock()
	b.ckpt.mtx.Lock()
	defer b.ckpt.mtx.Unlock()

	if latest := b.chainParams.LatestCheckpoint(); latest != nil {
		node := b.index.LookupNode(latest.Hash)
		switch {
		case node != nil && !b.bestChain.Contains(node):
			log.Infof("Moving the main chain onto hardened checkpoint "+
				"%v", latest.Hash)
			if err := b.forceOntoMainChain(node); err != nil {
				return false, fmt.Errorf("unable to move the main "+
					"chain onto hardened checkpoint %v: %w",
					latest.Hash, err)
			}

		case node == nil:
			pending := *latest.Hash
			b.ckpt.pending = &pending
			b.ckpt.pendingMessage = nil
			log.Infof("Hardened checkpoint %v is pending until its "+
				"block is received", latest.Hash)
		}
	}

	checkpoints := b.chainParams.Checkpoints
	for i := len(checkpoints) - 1; i >= 0; i-- {
		node := b.index.LookupNode(checkpoints[i].Hash)
		if node == nil || !b.bestChain.Contains(node) {
			continue
		}
		if err := b.writeSyncCheckpoint(node, nil); err != nil {
			return false, err
		}
		log.Infof("Sync checkpoint reset to %v (height %d)", node.hash,
			node.height)
		return true, nil
	}
	return false, nil
}

// autoSelectSyncCheckpoint returns the block a checkpoint master would
// checkpoint next: starting from the most recent proof-of-work block of the
// main chain, the first block that is both within the maximum span of the
// best block and within its maturity window.
//
// This function MUST be called with the chain state lock held (for reads).
func (b *BlockChain) autoSelectSyncCheckpoint() *blockNode {
	tip := b.bestChain.Tip()
	maxSpan := int64(b.chainParams.CheckpointMaxSpan / time.Second)
	window := int32(b.chainParams.CoinbaseMaturity) - 20
	if window > 6 {
		window = 6
	}

	node := tip.lastProofOfWork()
	for {
		next := b.bestChain.Next(node)
		if next == nil {
			break
		}
		if node.timestamp+maxSpan > tip.timestamp &&
			node.height+window > tip.height {
			break
		}
		node = next
	}
	return node
}

// AutoSelectSyncCheckpoint returns the hash of the block a checkpoint master
// would checkpoint next.
//
// This function is safe for concurrent access.
func (b *BlockChain) AutoSelectSyncCheckpoint() chainhash.Hash {
	b.chainLock.RLock()
	node := b.autoSelectSyncCheckpoint()
	b.chainLock.RUnlock()
	return node.hash
}

// autoSelectChanged returns the automatically selected checkpoint and whether
// it differs from the current synchronized checkpoint.
func (b *BlockChain) autoSelectChanged() (chainhash.Hash, bool) {
	b.chainLock.RLock()
	defer b.chainLock.RUnlock()
	b.ckpt.mtx.Lock()
	defer b.ckpt.mtx.Unlock()

	node := b.autoSelectSyncCheckpoint()
	return node.hash, node != b.ckpt.current
}

// WantedByPendingSyncCheckpoint returns whether the block with the given hash
// is needed to accept the pending synchronized checkpoint: it is either the
// pending checkpoint block itself or the block the orphan chain of the
// pending checkpoint waits for.
//
// This function is safe for concurrent access.
func (b *BlockChain) WantedByPendingSyncCheckpoint(hash *chainhash.Hash) bool {
	b.ckpt.mtx.Lock()
	defer b.ckpt.mtx.Unlock()

	pending := b.ckpt.pending
	if pending == nil {
		return false
	}
	if *hash == *pending {
		return true
	}
	wanted := b.WantedByOrphan(pending)
	return wanted != nil && *wanted == *hash
}

// AskForPendingSyncCheckpoint asks the peer for the block of the pending
// synchronized checkpoint when it is neither in the index nor an orphan.
//
// This function is safe for concurrent access.
func (b *BlockChain) AskForPendingSyncCheckpoint(peer CheckpointPeer) {
	b.ckpt.mtx.Lock()
	defer b.ckpt.mtx.Unlock()

	pending := b.ckpt.pending
	if peer == nil || pending == nil {
		return
	}
	if b.index.HaveBlock(pending) || b.IsKnownOrphan(pending) {
		return
	}
	peer.AskForBlock(pending)
}

// IsMatureSyncCheckpoint returns whether the synchronized checkpoint is
// outside the maturity window: buried under at least coinbase maturity
// blocks or older than the minimum stake age.
//
// This function is safe for concurrent access.
func (b *BlockChain) IsMatureSyncCheckpoint() bool {
	b.chainLock.RLock()
	defer b.chainLock.RUnlock()
	b.ckpt.mtx.Lock()
	current := b.ckpt.current
	b.ckpt.mtx.Unlock()

	maturity := int32(b.chainParams.CoinbaseMaturity)
	minAge := int64(b.chainParams.StakeMinAge / time.Second)
	return b.bestChain.Height() >= current.height+maturity ||
		current.timestamp+minAge < b.timeSource.AdjustedTime().Unix()
}

// IsSyncCheckpointTooOld returns whether the block of the synchronized
// checkpoint is older than the given duration.
//
// This function is safe for concurrent access.
func (b *BlockChain) IsSyncCheckpointTooOld(age time.Duration) bool {
	b.ckpt.mtx.Lock()
	current := b.ckpt.current
	b.ckpt.mtx.Unlock()

	return current.timestamp+int64(age/time.Second) <
		b.timeSource.AdjustedTime().Unix()
}

// SetCheckpointPrivKey sets the checkpoint master private key, hex or WIF
// encoded.  The key is tested by signing a checkpoint of the genesis block,
// which must verify against the checkpoint master public key of the network.
//
// This function is safe for concurrent access.
func (b *BlockChain) SetCheckpointPrivKey(s string) error {
	privKey, err := ParseCheckpointPrivKey(s)
	if err != nil {
		return err
	}

	msg := SignSyncCheckpoint(privKey, b.chainParams.GenesisHash)
	if _, err := VerifySyncCheckpoint(b.ckpt.pubKey, msg); err != nil {
		return fmt.Errorf("checkpoint private key does not match the "+
			"checkpoint master public key: %w", err)
	}

	b.ckpt.mtx.Lock()
	b.ckpt.privKey = privKey
	b.ckpt.mtx.Unlock()
	return nil
}

// hasCheckpointPrivKey returns whether a checkpoint master private key is
// set.
func (b *BlockChain) hasCheckpointPrivKey() bool {
	b.ckpt.mtx.Lock()
	defer b.ckpt.mtx.Unlock()
	return b.ckpt.privKey != nil
}

// SendSyncCheckpoint signs a synchronized checkpoint naming the block with
// the given hash, processes it locally and relays it.  It fails with
// ErrNoCheckpointKey when no checkpoint master private key is set.
//
// This function is safe for concurrent access.
func (b *BlockChain) SendSyncCheckpoint(hash chainhash.Hash) error {
	b.ckpt.mtx.Lock()
	privKey := b.ckpt.privKey
	b.ckpt.mtx.Unlock()
	if privKey == nil {
		return ErrNoCheckpointKey
	}

	msg := SignSyncCheckpoint(privKey, &hash)
	accepted, err := b.ProcessSyncCheckpoint(msg, nil)
	if err != nil {
		return err
	}
	if !accepted {
		log.Warnf("Failed to process sync checkpoint %v", hash)
		return fmt.Errorf("sync checkpoint %v was not accepted", hash)
	}
	return nil
}

// SyncCheckpoint returns the current synchronized checkpoint.
//
// This function is safe for concurrent access.
func (b *BlockChain) SyncCheckpoint() chaincfg.Checkpoint {
	b.ckpt.mtx.Lock()
	defer b.ckpt.mtx.Unlock()

	hash := b.ckpt.current.hash
	return chaincfg.Checkpoint{Height: b.ckpt.current.height, Hash: &hash}
}

// SyncCheckpointMessage returns the signed message of the current
// synchronized checkpoint, or nil when it was not set from a message.
//
// This function is safe for concurrent access.
func (b *BlockChain) SyncCheckpointMessage() *ppcwire.MsgCheckpoint {
	b.ckpt.mtx.Lock()
	defer b.ckpt.mtx.Unlock()
	return b.ckpt.message
}

// PendingSyncCheckpoint returns the hash of the pending synchronized
// checkpoint, or nil when there is none.
//
// This function is safe for concurrent access.
func (b *BlockChain) PendingSyncCheckpoint() *chainhash.Hash {
	b.ckpt.mtx.Lock()
	defer b.ckpt.mtx.Unlock()
	if b.ckpt.pending == nil {
		return nil
	}
	pending := *b.ckpt.pending
	return &pending
}

// InvalidSyncCheckpoint returns the hash of the last checkpoint found to
// conflict with the current one, or nil when there is none.
//
// This function is safe for concurrent access.
func (b *BlockChain) InvalidSyncCheckpoint() *chainhash.Hash {
	b.ckpt.mtx.Lock()
	defer b.ckpt.mtx.Unlock()
	if b.ckpt.invalid == nil {
		return nil
	}
	invalid := *b.ckpt.invalid
	return &invalid
}
