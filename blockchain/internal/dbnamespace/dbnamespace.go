// Package dbnamespace contains constants that define the database namespaces
// for the purpose of the blockchain, so that external callers may easily access
// this data.
package dbnamespace

import (
	"encoding/binary"
)

var (
	// ByteOrder is the preferred byte order used for serializing numeric
	// fields for storage in the database.
	ByteOrder = binary.LittleEndian

	// KeyOrder is the byte order used for numeric fields that are part of
	// a key, so that iteration visits them in ascending order.
	KeyOrder = binary.BigEndian

	// DBInfoVersionKeyName is the name of the database key used to house
	// the version of the checkpoint records.
	DBInfoVersionKeyName = []byte("dbinfo-version")

	// SyncCheckpointKeyName is the name of the database key used to house
	// the current synchronized checkpoint.
	SyncCheckpointKeyName = []byte("synccheckpoint")

	// CheckpointHistoryPrefix is the key prefix of the accepted checkpoint
	// history.  Each entry is keyed by the prefix followed by the height of
	// the checkpoint block.
	CheckpointHistoryPrefix = []byte("ckpthist")
)
