// Package testhelper builds the transactions and blocks the chain tests feed
// through block processing.
package testhelper

import (
	"time"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
)

var (
	// OpTrueScript is simply a public key script that contains the OP_TRUE
	// opcode.  It is defined here to reduce garbage creation.
	OpTrueScript = []byte{txscript.OP_TRUE}

	// LowFee is a single base unit and exists to make the test code more
	// readable.
	LowFee = btcutil.Amount(1)
)

// CreateCoinbaseTx returns a coinbase transaction paying an appropriate
// subsidy based on the passed block height and the block subsidy.  The
// coinbase signature script commits to the height and the extra nonce so
// blocks at the same height can be told apart.
func CreateCoinbaseTx(blockHeight int32, extraNonce uint64, blockSubsidy int64) *wire.MsgTx {
	coinbaseScript, err := StandardCoinbaseScript(blockHeight, extraNonce)
	if err != nil {
		panic(err)
	}

	tx := wire.NewMsgTx(1)
	tx.AddTxIn(&wire.TxIn{
		// Coinbase transactions have no inputs, so previous outpoint is
		// zero hash and max index.
		PreviousOutPoint: *wire.NewOutPoint(&chainhash.Hash{},
			wire.MaxPrevOutIndex),
		Sequence:        wire.MaxTxInSequenceNum,
		SignatureScript: coinbaseScript,
	})
	tx.AddTxOut(&wire.TxOut{
		Value:    blockSubsidy,
		PkScript: OpTrueScript,
	})
	return tx
}

// StandardCoinbaseScript returns a standard script suitable for use as the
// signature script of the coinbase transaction of a new block.  In particular,
// it starts with the block height.
func StandardCoinbaseScript(blockHeight int32, extraNonce uint64) ([]byte, error) {
	return txscript.NewScriptBuilder().AddInt64(int64(blockHeight)).
		AddInt64(int64(extraNonce)).Script()
}

// SpendableOut represents a transaction output that is spendable along with
// additional metadata such as the block its in and how much it pays.
type SpendableOut struct {
	PrevOut wire.OutPoint
	Amount  btcutil.Amount
}

// CreateCoinStakeTx returns a coinstake transaction spending the provided
// output: an empty marker output followed by the staked value and the
// reward, both paid to pkScript.
func CreateCoinStakeTx(spend *SpendableOut, reward btcutil.Amount, pkScript []byte) *wire.MsgTx {
	tx := wire.NewMsgTx(1)
	tx.AddTxIn(&wire.TxIn{
		PreviousOutPoint: spend.PrevOut,
		Sequence:         wire.MaxTxInSequenceNum,
	})
	tx.AddTxOut(wire.NewTxOut(0, nil))
	tx.AddTxOut(wire.NewTxOut(int64(spend.Amount+reward), pkScript))
	return tx
}

// NewBlock returns a block on top of prevHash with the given timestamp,
// difficulty bits and nonce containing the passed transactions.  The merkle
// root commits to the first transaction only, which is enough to make the
// block hash depend on it; merkle roots are not validated by the chain.
func NewBlock(prevHash *chainhash.Hash, timestamp time.Time, bits, nonce uint32,
	txns ...*wire.MsgTx) *btcutil.Block {

	var merkleRoot chainhash.Hash
	if len(txns) > 0 {
		merkleRoot = txns[0].TxHash()
	}
	return btcutil.NewBlock(&wire.MsgBlock{
		Header: wire.BlockHeader{
			Version:    1,
			PrevBlock:  *prevHash,
			MerkleRoot: merkleRoot,
			Timestamp:  timestamp,
			Bits:       bits,
			Nonce:      nonce,
		},
		Transactions: txns,
	})
}
