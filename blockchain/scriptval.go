// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import (
	"fmt"

	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
)

// coinstakeScriptFlags are the script flags coinstake kernel inputs are
// verified with.
const coinstakeScriptFlags = txscript.ScriptBip16 |
	txscript.ScriptVerifyDERSignatures |
	txscript.ScriptVerifyStrictEncoding

// defaultSigCacheSize is the number of signatures remembered by the default
// coinstake signature verifier.
const defaultSigCacheSize = 1000

// scriptVerifier is the SigVerifier used when none is configured.  It runs
// the btcd script engine over the input and the output it spends.
type scriptVerifier struct {
	flags    txscript.ScriptFlags
	sigCache *txscript.SigCache
}

// newScriptVerifier returns a script engine backed SigVerifier.
func newScriptVerifier() *scriptVerifier {
	return &scriptVerifier{
		flags:    coinstakeScriptFlags,
		sigCache: txscript.NewSigCache(defaultSigCacheSize),
	}
}

// VerifyInput executes the signature script of the input at idx against the
// public key script of prev.
func (v *scriptVerifier) VerifyInput(tx *wire.MsgTx, idx int, prev *PrevOut) error {
	if idx < 0 || idx >= len(tx.TxIn) {
		return fmt.Errorf("input index %d out of range for transaction "+
			"with %d inputs", idx, len(tx.TxIn))
	}

	fetcher := txscript.NewCannedPrevOutputFetcher(prev.PkScript,
		int64(prev.Value))
	sigHashes := txscript.NewTxSigHashes(tx, fetcher)
	vm, err := txscript.NewEngine(prev.PkScript, tx, idx, v.flags,
		v.sigCache, sigHashes, int64(prev.Value), fetcher)
	if err != nil {
		return err
	}
	return vm.Execute()
}
