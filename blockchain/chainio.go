// Copyright (c) 2015-2016 The btcsuite developers
// Copyright (c) 2016-2018 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	btcwire "github.com/btcsuite/btcd/wire"
	"github.com/ppcsuite/kerneld/blockchain/internal/dbnamespace"
	"github.com/ppcsuite/kerneld/database"
	ppcwire "github.com/ppcsuite/kerneld/wire"
)

const (
	// currentDatabaseVersion indicates what the current version of the
	// checkpoint records is.
	currentDatabaseVersion = 1

	// maxStoredMessageLen bounds the length of the serialized message
	// fields read back from a checkpoint record.
	maxStoredMessageLen = 1024
)

// errDeserialize signifies that a problem was encountered when deserializing
// data.
type errDeserialize string

// Error implements the error interface.
func (e errDeserialize) Error() string {
	return string(e)
}

// isDeserializeErr returns whether or not the passed error is an errDeserialize
// error.
func isDeserializeErr(err error) bool {
	var derr errDeserialize
	return errors.As(err, &derr)
}

// CheckpointRecord is a synchronized checkpoint as persisted in the database.
// Msg is nil for checkpoints that were not accepted from a signed message,
// such as the genesis block or a hardened checkpoint after a reset.
type CheckpointRecord struct {
	Height int32
	Hash   chainhash.Hash
	Msg    *ppcwire.MsgCheckpoint
}

// serializeCheckpointRecord returns the serialization of the record:
//
//	[0:4]   height (little endian)
//	[4:36]  block hash
//	[36:]   varbytes payload, varbytes signature (both empty without message)
func serializeCheckpointRecord(rec *CheckpointRecord) []byte {
	var buf bytes.Buffer
	var height [4]byte
	dbnamespace.ByteOrder.PutUint32(height[:], uint32(rec.Height))
	buf.Write(height[:])
	buf.Write(rec.Hash[:])

	var payload, sig []byte
	if rec.Msg != nil {
		payload, sig = rec.Msg.Payload, rec.Msg.Signature
	}
	_ = btcwire.WriteVarBytes(&buf, 0, payload)
	_ = btcwire.WriteVarBytes(&buf, 0, sig)
	return buf.Bytes()
}

// deserializeCheckpointRecord decodes a record serialized with
// serializeCheckpointRecord.
func deserializeCheckpointRecord(serialized []byte) (*CheckpointRecord, error) {
	if len(serialized) < 4+chainhash.HashSize {
		return nil, errDeserialize("corrupt checkpoint record: short " +
			"header")
	}

	var rec CheckpointRecord
	rec.Height = int32(dbnamespace.ByteOrder.Uint32(serialized[:4]))
	copy(rec.Hash[:], serialized[4:4+chainhash.HashSize])

	r := bytes.NewReader(serialized[4+chainhash.HashSize:])
	payload, err := btcwire.ReadVarBytes(r, 0, maxStoredMessageLen,
		"checkpoint payload")
	if err != nil {
		return nil, errDeserialize(fmt.Sprintf("corrupt checkpoint "+
			"record: %v", err))
	}
	sig, err := btcwire.ReadVarBytes(r, 0, maxStoredMessageLen,
		"checkpoint signature")
	if err != nil {
		return nil, errDeserialize(fmt.Sprintf("corrupt checkpoint "+
			"record: %v", err))
	}
	if len(payload) != 0 {
		rec.Msg = ppcwire.NewMsgCheckpoint(payload, sig)
	}
	return &rec, nil
}

// checkpointHistoryKey returns the history key of a checkpoint at the given
// height.
func checkpointHistoryKey(height int32) []byte {
	prefix := dbnamespace.CheckpointHistoryPrefix
	key := make([]byte, len(prefix)+4)
	copy(key, prefix)
	dbnamespace.KeyOrder.PutUint32(key[len(prefix):], uint32(height))
	return key
}

// dbPutSyncCheckpoint stores the record as the current synchronized
// checkpoint and appends it to the checkpoint history.
func dbPutSyncCheckpoint(dbTx database.Tx, rec *CheckpointRecord) error {
	serialized := serializeCheckpointRecord(rec)
	if err := dbTx.Put(dbnamespace.SyncCheckpointKeyName, serialized); err != nil {
		return err
	}
	return dbTx.Put(checkpointHistoryKey(rec.Height), serialized)
}

// dbFetchSyncCheckpoint loads the current synchronized checkpoint.  It
// returns nil with no error when none has been stored yet.
func dbFetchSyncCheckpoint(dbTx database.ReadTx) (*CheckpointRecord, error) {
	serialized, err := dbTx.Get(dbnamespace.SyncCheckpointKeyName)
	if errors.Is(err, database.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return deserializeCheckpointRecord(serialized)
}

// dbPutVersion stores the version of the checkpoint records.
func dbPutVersion(dbTx database.Tx, version uint32) error {
	var buf [4]byte
	dbnamespace.ByteOrder.PutUint32(buf[:], version)
	return dbTx.Put(dbnamespace.DBInfoVersionKeyName, buf[:])
}

// dbFetchVersion loads the version of the checkpoint records.  It returns
// zero when no version has been stored yet.
func dbFetchVersion(dbTx database.ReadTx) (uint32, error) {
	serialized, err := dbTx.Get(dbnamespace.DBInfoVersionKeyName)
	if errors.Is(err, database.ErrKeyNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	if len(serialized) != 4 {
		return 0, errDeserialize("corrupt database version")
	}
	return dbnamespace.ByteOrder.Uint32(serialized), nil
}

// FetchSyncCheckpoint returns the synchronized checkpoint stored in the
// database, or nil when none has been stored yet.
func FetchSyncCheckpoint(db *database.DB) (*CheckpointRecord, error) {
	var rec *CheckpointRecord
	err := db.View(func(dbTx database.ReadTx) error {
		var err error
		rec, err = dbFetchSyncCheckpoint(dbTx)
		return err
	})
	return rec, err
}

// FetchCheckpointHistory returns every checkpoint ever stored in the database
// ordered by height.  A later checkpoint at the same height replaces an
// earlier one.
func FetchCheckpointHistory(db *database.DB) ([]CheckpointRecord, error) {
	var history []CheckpointRecord
	err := db.View(func(dbTx database.ReadTx) error {
		return dbTx.ForEach(dbnamespace.CheckpointHistoryPrefix,
			func(_, v []byte) error {
				rec, err := deserializeCheckpointRecord(v)
				if err != nil {
					return err
				}
				history = append(history, *rec)
				return nil
			})
	})
	return history, err
}

// initDatabase checks the version of the checkpoint records, storing it when
// the database is new, and returns the stored synchronized checkpoint.
func initDatabase(db *database.DB) (*CheckpointRecord, error) {
	var rec *CheckpointRecord
	err := db.Update(func(dbTx database.Tx) error {
		version, err := dbFetchVersion(dbTx)
		if err != nil {
			return err
		}
		switch {
		case version == 0:
			log.Infof("Initializing checkpoint database (version %d)",
				currentDatabaseVersion)
			return dbPutVersion(dbTx, currentDatabaseVersion)

		case version > currentDatabaseVersion:
			return fmt.Errorf("checkpoint database version %d is newer "+
				"than the supported version %d", version,
				currentDatabaseVersion)
		}

		rec, err = dbFetchSyncCheckpoint(dbTx)
		return err
	})
	return rec, err
}
