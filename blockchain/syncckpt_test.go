// Copyright (c) 2014-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import (
	"errors"
	"testing"
	"time"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/ppcsuite/kerneld/chaincfg"
	ppcwire "github.com/ppcsuite/kerneld/wire"
	"github.com/stretchr/testify/require"
)

const (
	// testCheckpointKeyHex is the hex encoded checkpoint master private
	// key of the regression test network.
	testCheckpointKeyHex = "0000000000000000000000000000000000000000000000000000000000000001"

	// testCheckpointKeyWIF is the same key in wallet import format.
	testCheckpointKeyWIF = "KwDiBf89QgGbjEhKnhXJuH7LrciVrZi3qYjgd9M7rFU73sVHnoWn"
)

// TestCheckpointModeStringer tests the stringized output and parsing of the
// checkpoint modes.
func TestCheckpointModeStringer(t *testing.T) {
	tests := []struct {
		in   CheckpointMode
		want string
	}{
		{CheckpointStrict, "strict"},
		{CheckpointAdvisory, "advisory"},
		{CheckpointPermissive, "permissive"},
		{0xffff, "Unknown CheckpointMode (65535)"},
	}

	for i, test := range tests {
		result := test.in.String()
		if result != test.want {
			t.Errorf("String #%d\n got: %s want: %s", i, result,
				test.want)
			continue
		}
	}

	mode, err := ParseCheckpointMode("Advisory")
	require.NoError(t, err)
	require.Equal(t, CheckpointAdvisory, mode)

	_, err = ParseCheckpointMode("lenient")
	require.Error(t, err)
}

// TestParseCheckpointPrivKey ensures checkpoint keys are accepted both hex
// and WIF encoded.
func TestParseCheckpointPrivKey(t *testing.T) {
	want := checkpointKey(1)

	for _, s := range []string{testCheckpointKeyHex, testCheckpointKeyWIF,
		" " + testCheckpointKeyHex + "\n"} {

		privKey, err := ParseCheckpointPrivKey(s)
		require.NoError(t, err, s)
		require.Equal(t, want.Serialize(), privKey.Serialize())
	}

	_, err := ParseCheckpointPrivKey("0102")
	require.Error(t, err)
	_, err = ParseCheckpointPrivKey("not a key")
	require.Error(t, err)
}

// TestSignVerifySyncCheckpoint ensures checkpoint messages only verify
// against the key that signed them.
func TestSignVerifySyncCheckpoint(t *testing.T) {
	pubKey, err := parseCheckpointPubKey(
		chaincfg.RegressionNetParams.CheckpointPubKey)
	require.NoError(t, err)

	hash := chainhash.Hash{0x01, 0x02, 0x03}
	msg := SignSyncCheckpoint(checkpointKey(1), &hash)
	unsigned, err := VerifySyncCheckpoint(pubKey, msg)
	require.NoError(t, err)
	require.Equal(t, hash, unsigned.HashCheckpoint)
	require.Equal(t, int32(ppcwire.SyncCheckpointVersion), unsigned.Version)

	tests := []struct {
		name string
		msg  *ppcwire.MsgCheckpoint
	}{{
		name: "wrong key",
		msg:  SignSyncCheckpoint(checkpointKey(2), &hash),
	}, {
		name: "tampered payload",
		msg: func() *ppcwire.MsgCheckpoint {
			other := chainhash.Hash{0x04}
			unsigned := ppcwire.UnsignedSyncCheckpoint{
				Version:        ppcwire.SyncCheckpointVersion,
				HashCheckpoint: other,
			}
			return ppcwire.NewMsgCheckpoint(unsigned.Bytes(),
				msg.Signature)
		}(),
	}, {
		name: "malformed signature",
		msg:  ppcwire.NewMsgCheckpoint(msg.Payload, []byte{0x30, 0x01}),
	}}

	for _, test := range tests {
		_, err := VerifySyncCheckpoint(pubKey, test.msg)
		if !IsErrorCode(err, ErrBadCheckpointSig) {
			t.Errorf("%s: got error %v, want %v", test.name, err,
				ErrBadCheckpointSig)
		}
	}
}

// TestNewChainSyncCheckpoint ensures a new chain starts with the genesis
// block as its synchronized checkpoint and persists it.
func TestNewChainSyncCheckpoint(t *testing.T) {
	params := regressionParams()
	h := newChainHarness(t, params, nil)

	checkpoint := h.chain.SyncCheckpoint()
	require.Equal(t, int32(0), checkpoint.Height)
	require.Equal(t, *params.GenesisHash, *checkpoint.Hash)
	require.Nil(t, h.chain.SyncCheckpointMessage())
	require.Nil(t, h.chain.PendingSyncCheckpoint())
	require.Nil(t, h.chain.InvalidSyncCheckpoint())

	rec, err := FetchSyncCheckpoint(h.db)
	require.NoError(t, err)
	require.NotNil(t, rec)
	require.Equal(t, *params.GenesisHash, rec.Hash)
	require.Nil(t, rec.Msg)
}

// TestProcessSyncCheckpoint ensures checkpoints advance along the main
// chain only, older ones are ignored and conflicting or unsigned ones are
// rejected.
func TestProcessSyncCheckpoint(t *testing.T) {
	params := regressionParams()
	h := newChainHarness(t, params, nil)
	blocks := h.extend(params.GenesisHash, 5)
	side := h.child(params.GenesisHash)
	isMainChain, _ := h.process(side)
	require.False(t, isMainChain)

	// Advance to the third block.
	msg := SignSyncCheckpoint(checkpointKey(1), blocks[2].Hash())
	accepted, err := h.chain.ProcessSyncCheckpoint(msg, nil)
	require.NoError(t, err)
	require.True(t, accepted)
	require.Equal(t, *blocks[2].Hash(), *h.chain.SyncCheckpoint().Hash)
	require.Equal(t, int32(3), h.chain.SyncCheckpoint().Height)
	require.Same(t, msg, h.chain.SyncCheckpointMessage())
	require.Equal(t, []*ppcwire.MsgCheckpoint{msg}, h.relayer.relayed())

	// Receiving it again or receiving an older one does nothing.
	for _, block := range blocks[1:3] {
		older := SignSyncCheckpoint(checkpointKey(1), block.Hash())
		accepted, err := h.chain.ProcessSyncCheckpoint(older, nil)
		require.NoError(t, err)
		require.False(t, accepted)
	}
	require.Equal(t, *blocks[2].Hash(), *h.chain.SyncCheckpoint().Hash)
	require.Len(t, h.relayer.relayed(), 1)

	// A side chain block conflicts with the current checkpoint.
	conflict := SignSyncCheckpoint(checkpointKey(1), side.Hash())
	accepted, err = h.chain.ProcessSyncCheckpoint(conflict, nil)
	require.True(t, IsErrorCode(err, ErrCheckpointConflict), "got %v", err)
	require.False(t, accepted)
	require.Equal(t, *side.Hash(), *h.chain.InvalidSyncCheckpoint())
	require.Equal(t, uint32(0), BanScore(err))

	// Checkpoints not signed by the master key are rejected.
	forged := SignSyncCheckpoint(checkpointKey(2), blocks[4].Hash())
	accepted, err = h.chain.ProcessSyncCheckpoint(forged, nil)
	require.True(t, IsErrorCode(err, ErrBadCheckpointSig), "got %v", err)
	require.False(t, accepted)
	require.Equal(t, *blocks[2].Hash(), *h.chain.SyncCheckpoint().Hash)

	// The descendant check is also exposed directly.
	ok, err := h.chain.ValidateSyncCheckpoint(blocks[4].Hash())
	require.NoError(t, err)
	require.True(t, ok)
	ok, err = h.chain.ValidateSyncCheckpoint(blocks[0].Hash())
	require.NoError(t, err)
	require.False(t, ok)
	_, err = h.chain.ValidateSyncCheckpoint(&chainhash.Hash{0x01})
	require.Error(t, err)
}

// TestCheckSync ensures blocks are checked against the synchronized
// checkpoint according to their height.
func TestCheckSync(t *testing.T) {
	params := regressionParams()
	h := newChainHarness(t, params, nil)
	blocks := h.extend(params.GenesisHash, 4)

	msg := SignSyncCheckpoint(checkpointKey(1), blocks[1].Hash())
	accepted, err := h.chain.ProcessSyncCheckpoint(msg, nil)
	require.NoError(t, err)
	require.True(t, accepted)

	descendant := h.child(blocks[3].Hash())
	belowCheckpoint := h.child(params.GenesisHash)
	atCheckpoint := h.child(blocks[0].Hash())

	tests := []struct {
		name string
		hash *chainhash.Hash
		prev *chainhash.Hash
		want bool
	}{
		{"descendant", descendant.Hash(), blocks[3].Hash(), true},
		{"checkpoint block", blocks[1].Hash(), blocks[0].Hash(), true},
		{"known block below", blocks[0].Hash(), params.GenesisHash, true},
		{"fork at checkpoint", atCheckpoint.Hash(), blocks[0].Hash(), false},
		{"fork below", belowCheckpoint.Hash(), params.GenesisHash, false},
		{"unknown parent", descendant.Hash(), descendant.Hash(), false},
	}
	for _, test := range tests {
		got := h.chain.CheckSync(test.hash, test.prev)
		if got != test.want {
			t.Errorf("%s: got %v, want %v", test.name, got, test.want)
		}
	}

	// Strict mode rejects the fork.
	_, _, err = h.chain.ProcessBlock(atCheckpoint)
	require.True(t, IsErrorCode(err, ErrForkTooOld), "got %v", err)
	require.Equal(t, uint32(100), BanScore(err))
	require.False(t, h.chain.HaveBlock(atCheckpoint.Hash()))

	// Advisory mode only warns about it.
	h.chain.checkpointMode = CheckpointAdvisory
	isMainChain, isOrphan := h.process(atCheckpoint)
	require.False(t, isMainChain)
	require.False(t, isOrphan)

	h.chain.checkpointMode = CheckpointPermissive
	isMainChain, _ = h.process(belowCheckpoint)
	require.False(t, isMainChain)
}

// TestPendingSyncCheckpoint ensures a checkpoint naming an unknown block is
// kept pending, the peer is asked for the block, and the checkpoint is
// accepted once the block arrives.
func TestPendingSyncCheckpoint(t *testing.T) {
	params := regressionParams()
	h := newChainHarness(t, params, nil)
	blocks := h.extend(params.GenesisHash, 2)
	tip := blocks[1]

	next := h.child(tip.Hash())
	msg := SignSyncCheckpoint(checkpointKey(1), next.Hash())
	peer := &recordingPeer{}
	accepted, err := h.chain.ProcessSyncCheckpoint(msg, peer)
	require.NoError(t, err)
	require.False(t, accepted)
	require.Equal(t, *next.Hash(), *h.chain.PendingSyncCheckpoint())
	require.Equal(t, []chainhash.Hash{*next.Hash()}, peer.stops)
	require.Equal(t, []chainhash.Hash{*next.Hash()}, peer.asked)
	require.Equal(t, *tip.Hash(), *peer.locators[0][0])
	require.True(t, h.chain.WantedByPendingSyncCheckpoint(next.Hash()))
	require.False(t, h.chain.WantedByPendingSyncCheckpoint(tip.Hash()))
	require.Empty(t, h.relayer.relayed())

	// A new peer is asked for the missing block too.
	other := &recordingPeer{}
	h.chain.AskForPendingSyncCheckpoint(other)
	require.Equal(t, []chainhash.Hash{*next.Hash()}, other.asked)

	// The block arrives.
	isMainChain, _ := h.process(next)
	require.True(t, isMainChain)
	require.Nil(t, h.chain.PendingSyncCheckpoint())
	require.Equal(t, *next.Hash(), *h.chain.SyncCheckpoint().Hash)
	require.Equal(t, []*ppcwire.MsgCheckpoint{msg}, h.relayer.relayed())

	// Nothing is asked for once nothing is pending.
	other = &recordingPeer{}
	h.chain.AskForPendingSyncCheckpoint(other)
	require.Empty(t, other.asked)
}

// TestPendingSyncCheckpointOrphan ensures the block an orphan checkpoint
// waits for is the one asked for.
func TestPendingSyncCheckpointOrphan(t *testing.T) {
	params := regressionParams()
	h := newChainHarness(t, params, nil)
	blocks := h.extend(params.GenesisHash, 2)

	first := h.child(blocks[1].Hash())
	second := h.child(first.Hash())
	_, isOrphan := h.process(second)
	require.True(t, isOrphan)

	msg := SignSyncCheckpoint(checkpointKey(1), second.Hash())
	peer := &recordingPeer{}
	accepted, err := h.chain.ProcessSyncCheckpoint(msg, peer)
	require.NoError(t, err)
	require.False(t, accepted)
	require.Equal(t, []chainhash.Hash{*first.Hash()}, peer.asked)
	require.True(t, h.chain.WantedByPendingSyncCheckpoint(first.Hash()))
	require.True(t, h.chain.WantedByPendingSyncCheckpoint(second.Hash()))

	// The pending block is a known orphan, so there is nothing to ask
	// for directly.
	other := &recordingPeer{}
	h.chain.AskForPendingSyncCheckpoint(other)
	require.Empty(t, other.asked)

	h.process(first)
	require.Equal(t, *second.Hash(), h.tipHash())
	require.Equal(t, *second.Hash(), *h.chain.SyncCheckpoint().Hash)
	require.Nil(t, h.chain.PendingSyncCheckpoint())
}

// TestSyncCheckpointReorg ensures accepting a checkpoint on a side chain
// moves the main chain onto it, and that a failed move leaves the chain
// untouched.
func TestSyncCheckpointReorg(t *testing.T) {
	params := regressionParams()
	h := newChainHarness(t, params, nil)
	main := h.extend(params.GenesisHash, 3)
	side := []*btcutil.Block{h.child(params.GenesisHash)}
	h.process(side[0])
	side = append(side, h.child(side[0].Hash()))
	h.process(side[1])
	require.Equal(t, *main[2].Hash(), h.tipHash())

	// The reorganizer vetoes the move.
	msg := SignSyncCheckpoint(checkpointKey(1), side[1].Hash())
	h.reorg.err = errors.New("unable to disconnect")
	accepted, err := h.chain.ProcessSyncCheckpoint(msg, nil)
	require.True(t, IsErrorCode(err, ErrCheckpointReorg), "got %v", err)
	require.False(t, accepted)
	require.Equal(t, *side[1].Hash(), *h.chain.InvalidSyncCheckpoint())
	require.Equal(t, *params.GenesisHash, *h.chain.SyncCheckpoint().Hash)
	require.Equal(t, *main[2].Hash(), h.tipHash())

	// The move succeeds once the reorganizer agrees, even though the side
	// chain carries less trust.
	h.reorg.err = nil
	accepted, err = h.chain.ProcessSyncCheckpoint(msg, nil)
	require.NoError(t, err)
	require.True(t, accepted)
	require.Equal(t, *side[1].Hash(), h.tipHash())
	require.Equal(t, *side[1].Hash(), *h.chain.SyncCheckpoint().Hash)

	last := len(h.reorg.detach) - 1
	require.Equal(t, []chainhash.Hash{*main[2].Hash(), *main[1].Hash(),
		*main[0].Hash()}, h.reorg.detach[last])
	require.Equal(t, []chainhash.Hash{*side[0].Hash(), *side[1].Hash()},
		h.reorg.attach[last])

	// The old main chain can no longer be extended.
	_, _, err = h.chain.ProcessBlock(h.child(main[2].Hash()))
	require.True(t, IsErrorCode(err, ErrForkTooOld), "got %v", err)
}

// TestResetSyncCheckpoint ensures a reset falls back to the hardened
// checkpoints.
func TestResetSyncCheckpoint(t *testing.T) {
	h := newChainHarness(t, regressionParams(), nil)
	genesisHash := h.params.GenesisHash
	first := h.child(genesisHash)
	second := h.child(first.Hash())
	third := h.child(second.Hash())

	// Start over with the second block hardened.
	h.params = regressionParams(chaincfg.Checkpoint{
		Height: 2,
		Hash:   second.Hash(),
	})
	h.chain = h.newChain(nil)

	// The hardened checkpoint is not known yet, so it becomes pending
	// and the genesis block is the synchronized checkpoint meanwhile.
	ok, err := h.chain.ResetSyncCheckpoint()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, *second.Hash(), *h.chain.PendingSyncCheckpoint())
	require.Equal(t, *genesisHash, *h.chain.SyncCheckpoint().Hash)
	require.Equal(t, *genesisHash, *h.chain.LastCheckpoint().Hash)

	// The second block is accepted into the index but the reorganizer
	// keeps it off the main chain.
	h.process(first)
	h.reorg.err = errors.New("unable to connect")
	_, _, err = h.chain.ProcessBlock(second)
	require.Error(t, err)
	require.True(t, h.chain.HaveBlock(second.Hash()))
	require.False(t, h.chain.MainChainHasBlock(second.Hash()))
	require.Equal(t, *second.Hash(), *h.chain.LastCheckpoint().Hash)

	// The reset moves the main chain onto the hardened checkpoint.
	h.reorg.err = nil
	ok, err = h.chain.ResetSyncCheckpoint()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, *second.Hash(), h.tipHash())
	require.Equal(t, *second.Hash(), *h.chain.SyncCheckpoint().Hash)
	require.Nil(t, h.chain.SyncCheckpointMessage())

	h.process(third)
	require.Equal(t, *third.Hash(), h.tipHash())

	// Checkpoints without a message are not relayed.
	require.Empty(t, h.relayer.relayed())
}

// TestResetSyncCheckpointPending ensures a hardened checkpoint made pending
// by a reset is accepted once its block arrives.
func TestResetSyncCheckpointPending(t *testing.T) {
	h := newChainHarness(t, regressionParams(), nil)
	first := h.child(h.params.GenesisHash)
	second := h.child(first.Hash())
	h.params = regressionParams(chaincfg.Checkpoint{
		Height: 2,
		Hash:   second.Hash(),
	})
	h.chain = h.newChain(nil)

	_, err := h.chain.ResetSyncCheckpoint()
	require.NoError(t, err)
	h.process(first)
	h.process(second)
	require.Nil(t, h.chain.PendingSyncCheckpoint())
	require.Equal(t, *second.Hash(), *h.chain.SyncCheckpoint().Hash)
	require.Empty(t, h.relayer.relayed())
}

// TestSyncCheckpointRestart ensures the stored checkpoint is pending after a
// restart until its block is processed again.
func TestSyncCheckpointRestart(t *testing.T) {
	params := regressionParams()
	h := newChainHarness(t, params, nil)
	blocks := h.extend(params.GenesisHash, 3)
	msg := SignSyncCheckpoint(checkpointKey(1), blocks[1].Hash())
	_, err := h.chain.ProcessSyncCheckpoint(msg, nil)
	require.NoError(t, err)

	// The block index is rebuilt from the blocks, so only the genesis
	// block is known on restart.
	h.chain = h.newChain(nil)
	require.Equal(t, *params.GenesisHash, *h.chain.SyncCheckpoint().Hash)
	require.Equal(t, *blocks[1].Hash(), *h.chain.PendingSyncCheckpoint())

	for _, block := range blocks {
		h.process(block)
	}
	require.Nil(t, h.chain.PendingSyncCheckpoint())
	require.Equal(t, *blocks[1].Hash(), *h.chain.SyncCheckpoint().Hash)

	restored := h.chain.SyncCheckpointMessage()
	require.NotNil(t, restored)
	require.Equal(t, msg.Payload, restored.Payload)
	require.Equal(t, msg.Signature, restored.Signature)

	relayed := h.relayer.relayed()
	require.Equal(t, msg.Payload, relayed[len(relayed)-1].Payload)
}

// TestAutoSendSyncCheckpoint ensures a chain holding the checkpoint master
// key checkpoints new blocks as they arrive.
func TestAutoSendSyncCheckpoint(t *testing.T) {
	params := regressionParams()
	h := newChainHarness(t, params, func(config *Config) {
		config.CheckpointPrivKey = testCheckpointKeyWIF
	})
	pubKey, err := parseCheckpointPubKey(params.CheckpointPubKey)
	require.NoError(t, err)

	blocks := h.extend(params.GenesisHash, 3)
	tip := blocks[2]

	// The regression test network coinbase maturity leaves no window, so
	// the tip is selected.
	require.Equal(t, *tip.Hash(), h.chain.AutoSelectSyncCheckpoint())
	require.Equal(t, *tip.Hash(), *h.chain.SyncCheckpoint().Hash)
	require.Len(t, h.relayer.relayed(), 3)

	unsigned, err := VerifySyncCheckpoint(pubKey,
		h.chain.SyncCheckpointMessage())
	require.NoError(t, err)
	require.Equal(t, *tip.Hash(), unsigned.HashCheckpoint)

	// Sending an older block is refused.
	err = h.chain.SendSyncCheckpoint(*blocks[0].Hash())
	require.Error(t, err)
}

// TestCheckpointPrivKeyMismatch ensures only the key matching the network
// checkpoint master public key is accepted.
func TestCheckpointPrivKeyMismatch(t *testing.T) {
	params := regressionParams()
	h := newChainHarness(t, params, nil)

	err := h.chain.SendSyncCheckpoint(*params.GenesisHash)
	require.True(t, errors.Is(err, ErrNoCheckpointKey), "got %v", err)

	err = h.chain.SetCheckpointPrivKey("0000000000000000000000000000000000" +
		"000000000000000000000000000002")
	require.Error(t, err)
	require.False(t, h.chain.hasCheckpointPrivKey())

	_, err = New(&Config{
		DB:                h.db,
		ChainParams:       params,
		UtxoFetcher:       h.utxos,
		CheckpointPrivKey: "garbage",
	})
	require.Error(t, err)

	require.NoError(t, h.chain.SetCheckpointPrivKey(testCheckpointKeyHex))
	require.True(t, h.chain.hasCheckpointPrivKey())
}

// TestIsMatureSyncCheckpoint ensures the maturity of the synchronized
// checkpoint is measured both in blocks and in time.
func TestIsMatureSyncCheckpoint(t *testing.T) {
	params := regressionParams()
	genesisTime := params.GenesisBlock.Header.Timestamp

	h := newChainHarness(t, params, func(config *Config) {
		config.TimeSource = fixedTimeSource(genesisTime.Add(time.Hour))
	})
	require.False(t, h.chain.IsMatureSyncCheckpoint())
	require.True(t, h.chain.IsSyncCheckpointTooOld(30*time.Minute))
	require.False(t, h.chain.IsSyncCheckpointTooOld(2*time.Hour))

	// Buried under a coinbase maturity worth of blocks.
	h.extend(params.GenesisHash, int(params.CoinbaseMaturity)-1)
	require.False(t, h.chain.IsMatureSyncCheckpoint())
	tip := h.tipHash()
	h.extend(&tip, 1)
	require.True(t, h.chain.IsMatureSyncCheckpoint())

	// Older than the minimum stake age.
	tests := []struct {
		now  time.Time
		want bool
	}{
		{genesisTime.Add(params.StakeMinAge), false},
		{genesisTime.Add(params.StakeMinAge + time.Second), true},
	}
	for _, test := range tests {
		h := newChainHarness(t, params, func(config *Config) {
			config.TimeSource = fixedTimeSource(test.now)
		})
		got := h.chain.IsMatureSyncCheckpoint()
		if got != test.want {
			t.Errorf("mature at %v: got %v, want %v", test.now, got,
				test.want)
		}
	}
}
