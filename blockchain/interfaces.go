package blockchain

import (
	"time"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	ppcwire "github.com/ppcsuite/kerneld/wire"
)

// PrevOut describes a transaction output spent by a coinstake kernel along
// with where its transaction was confirmed.
type PrevOut struct {
	// Value is the value of the output.
	Value btcutil.Amount

	// PkScript is the script the output is locked with.
	PkScript []byte

	// TxTime is the timestamp of the transaction creating the output.
	TxTime int64

	// BlockHash is the hash of the block confirming the transaction.
	BlockHash chainhash.Hash

	// TxOffset is the byte offset of the transaction inside its block.
	TxOffset uint32
}

// UtxoFetcher resolves previous outputs.  It is implemented by the
// transaction index of the node.
type UtxoFetcher interface {
	// FetchPrevOut returns the output referenced by the outpoint.  It
	// returns nil with no error when the output is not known, which may
	// happen while the node is still downloading the chain.
	FetchPrevOut(outpoint *wire.OutPoint) (*PrevOut, error)
}

// SigVerifier verifies the signature of a transaction input against the
// output it spends.
type SigVerifier interface {
	VerifyInput(tx *wire.MsgTx, idx int, prev *PrevOut) error
}

// TimeSource provides the network adjusted time.
type TimeSource interface {
	AdjustedTime() time.Time
}

// wallClock is the TimeSource used when none is configured.
type wallClock struct{}

// AdjustedTime returns the local time.
func (wallClock) AdjustedTime() time.Time {
	return time.Unix(time.Now().Unix(), 0)
}

// CheckpointPeer is the peer a sync checkpoint message was received from.
// It is asked for the blocks a pending checkpoint refers to.
type CheckpointPeer interface {
	// PushGetBlocks asks the peer for the inventory of the blocks after
	// the locator up to stop.
	PushGetBlocks(locator BlockLocator, stop *chainhash.Hash) error

	// AskForBlock asks the peer directly for a block.
	AskForBlock(hash *chainhash.Hash)
}

// CheckpointRelayer broadcasts accepted sync checkpoints to connected peers.
// It is invoked without any chain lock held.
type CheckpointRelayer interface {
	RelayCheckpoint(msg *ppcwire.MsgCheckpoint)
}

// ChainReorganizer applies a change of the best chain to the state that is
// built from it, such as the unspent output set.  Detach lists the blocks
// leaving the main chain from the old tip down, attach the blocks joining it
// from the fork point up.  When it fails, the best chain is left unchanged.
type ChainReorganizer interface {
	Reorganize(detach, attach []chainhash.Hash) error
}

// TxTimer reports the timestamp a transaction carries.  Proof-of-stake
// transactions are timestamped on their own; when no TxTimer is configured,
// a coinstake is assumed to carry the timestamp of its block.
type TxTimer interface {
	TxTime(tx *wire.MsgTx) int64
}
