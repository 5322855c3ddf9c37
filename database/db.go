// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package database provides the durable key/value store that holds the
// consensus metadata owned by the chain: the current synchronized checkpoint
// and the history of accepted checkpoints.  Storage is delegated to one of
// the registered engine drivers.
package database

import (
	"errors"
	"fmt"
	"sync"

	"github.com/ppcsuite/kerneld/database/engine"
	"github.com/ppcsuite/kerneld/database/engine/leveldb"
	"github.com/ppcsuite/kerneld/database/engine/pebbledb"
)

// Errors that the various database functions may return.
var (
	ErrDbUnknownType = errors.New("non-existent database type")
	ErrDbClosed      = errors.New("database is closed")
	ErrKeyNotFound   = engine.ErrNotFound
)

// Supported driver names.
const (
	TypeLevelDB  = "leveldb"
	TypePebbleDB = "pebble"
	TypeMemDB    = "memdb"
)

// DriverDB defines a structure for backend drivers to use when they
// registered themselves as a backend which implements the engine.Engine
// interface.
type DriverDB struct {
	DbType string
	OpenDB func(path string, create bool) (engine.Engine, error)
}

// driverList holds all of the registered database backends.
var driverList = []DriverDB{
	{DbType: TypeLevelDB, OpenDB: leveldb.NewDB},
	{DbType: TypePebbleDB, OpenDB: func(path string, create bool) (engine.Engine, error) {
		return pebbledb.NewDB(path, create, 0, 0)
	}},
	{DbType: TypeMemDB, OpenDB: func(string, bool) (engine.Engine, error) {
		return leveldb.NewMemDB()
	}},
}

// AddDBDriver adds a back end database driver to available interfaces.
// Registering a type twice keeps the first driver.
func AddDBDriver(instance DriverDB) {
	for _, drv := range driverList {
		if drv.DbType == instance.DbType {
			return
		}
	}
	driverList = append(driverList, instance)
}

// SupportedDBs returns a slice of strings that represent the database drivers
// that have been registered and are therefore supported.
func SupportedDBs() []string {
	var supportedDBs []string
	for _, drv := range driverList {
		supportedDBs = append(supportedDBs, drv.DbType)
	}
	return supportedDBs
}

// Tx is a read-write view handed to Update closures.  Reads observe the
// state at the start of the update; writes become visible on commit.
type Tx interface {
	ReadTx
	Put(key, value []byte) error
	Delete(key []byte) error
}

// ReadTx is the read-only view handed to View closures.
type ReadTx interface {
	Get(key []byte) ([]byte, error)
	Has(key []byte) (bool, error)
	ForEach(prefix []byte, fn func(k, v []byte) error) error
}

// DB wraps an engine and serializes writers.
type DB struct {
	mtx    sync.Mutex
	engine engine.Engine
	closed bool
}

// Open opens the database of the given type at path, creating it when
// create is set.
func Open(dbType, path string, create bool) (*DB, error) {
	for _, drv := range driverList {
		if drv.DbType == dbType {
			eng, err := drv.OpenDB(path, create)
			if err != nil {
				return nil, fmt.Errorf("open %s database at %q: %w",
					dbType, path, err)
			}
			log.Debugf("Opened %s database at %s", dbType, path)
			return New(eng), nil
		}
	}
	return nil, ErrDbUnknownType
}

// New wraps an already opened engine.
func New(eng engine.Engine) *DB {
	return &DB{engine: eng}
}

// View runs fn against a consistent snapshot.
func (db *DB) View(fn func(tx ReadTx) error) error {
	db.mtx.Lock()
	if db.closed {
		db.mtx.Unlock()
		return ErrDbClosed
	}
	snap, err := db.engine.Snapshot()
	db.mtx.Unlock()
	if err != nil {
		return err
	}
	defer snap.Release()

	return fn(&readTx{snap: snap})
}

// Update runs fn in a transaction which is committed when fn returns nil
// and discarded otherwise.
func (db *DB) Update(fn func(tx Tx) error) error {
	db.mtx.Lock()
	defer db.mtx.Unlock()
	if db.closed {
		return ErrDbClosed
	}

	snap, err := db.engine.Snapshot()
	if err != nil {
		return err
	}
	defer snap.Release()
	etx, err := db.engine.Transaction()
	if err != nil {
		return err
	}
	defer etx.Discard()

	if err := fn(&writeTx{readTx: readTx{snap: snap}, tx: etx}); err != nil {
		return err
	}
	return etx.Commit()
}

// Close closes the underlying engine.  It is safe to call more than once.
func (db *DB) Close() error {
	db.mtx.Lock()
	defer db.mtx.Unlock()
	if db.closed {
		return nil
	}
	db.closed = true
	return db.engine.Close()
}

type readTx struct {
	snap engine.Snapshot
}

func (r *readTx) Get(key []byte) ([]byte, error) {
	return r.snap.Get(key)
}

func (r *readTx) Has(key []byte) (bool, error) {
	return r.snap.Has(key)
}

// ForEach calls fn for every key with the given prefix in ascending order.
func (r *readTx) ForEach(prefix []byte, fn func(k, v []byte) error) error {
	iter := r.snap.NewIterator(engine.BytesPrefix(prefix))
	defer iter.Release()
	for iter.Next() {
		if err := fn(iter.Key(), iter.Value()); err != nil {
			return err
		}
	}
	return iter.Error()
}

type writeTx struct {
	readTx
	tx engine.Transaction
}

func (w *writeTx) Put(key, value []byte) error {
	return w.tx.Put(key, value)
}

func (w *writeTx) Delete(key []byte) error {
	return w.tx.Delete(key)
}
