// Package leveldb implements the storage engine on top of goleveldb.  It is
// the default backend.
package leveldb

import (
	"github.com/ppcsuite/kerneld/database/engine"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/filter"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/storage"
)

// options returns the goleveldb options shared by the file and memory
// backed stores.
func options(create bool) *opt.Options {
	return &opt.Options{
		ErrorIfExist:   create,
		ErrorIfMissing: !create,
		Strict:         opt.DefaultStrict,
		Compression:    opt.NoCompression,
		Filter:         filter.NewBloomFilter(10),
	}
}

// NewDB opens the store at dbPath.  When create is set the store must not
// already exist, otherwise it must.
func NewDB(dbPath string, create bool) (engine.Engine, error) {
	ldb, err := leveldb.OpenFile(dbPath, options(create))
	if err != nil {
		return nil, err
	}
	return &DB{DB: ldb}, nil
}

// NewMemDB returns a store that lives in memory only.
func NewMemDB() (engine.Engine, error) {
	ldb, err := leveldb.Open(storage.NewMemStorage(), options(true))
	if err != nil {
		return nil, err
	}
	return &DB{DB: ldb}, nil
}

// DB adapts a goleveldb database to engine.Engine.
type DB struct {
	*leveldb.DB
}

func (d *DB) Transaction() (engine.Transaction, error) {
	tx, err := d.DB.OpenTransaction()
	if err != nil {
		return nil, err
	}
	return NewTransaction(tx), nil
}

func (d *DB) Snapshot() (engine.Snapshot, error) {
	snapshot, err := d.DB.GetSnapshot()
	if err != nil {
		return nil, err
	}
	return NewSnapshot(snapshot), nil
}

func (d *DB) Close() error {
	return d.DB.Close()
}
