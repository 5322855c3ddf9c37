package leveldb

import (
	"github.com/ppcsuite/kerneld/database/engine"
	"github.com/syndtr/goleveldb/leveldb"
)

var _ engine.Transaction = (*Transaction)(nil)

// NewTransaction wraps an open goleveldb transaction.  goleveldb allows a
// single open transaction per database, so callers must Commit or Discard
// before opening the next one.
func NewTransaction(tx *leveldb.Transaction) engine.Transaction {
	return &Transaction{Transaction: tx}
}

type Transaction struct {
	*leveldb.Transaction
}

func (t *Transaction) Put(key, value []byte) error {
	return t.Transaction.Put(key, value, nil)
}

func (t *Transaction) Delete(key []byte) error {
	return t.Transaction.Delete(key, nil)
}

// Discard is a no-op once the transaction was committed.
func (t *Transaction) Discard() {
	t.Transaction.Discard()
}

func (t *Transaction) Commit() error {
	return t.Transaction.Commit()
}
