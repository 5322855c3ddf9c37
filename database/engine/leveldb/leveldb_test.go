package leveldb

import (
	"path/filepath"
	"testing"

	"github.com/ppcsuite/kerneld/database/engine"
	"github.com/stretchr/testify/require"
)

func TestSuiteLevelDB(t *testing.T) {
	engine.TestSuiteEngine(t, func() engine.Engine {
		dbPath := filepath.Join(t.TempDir(), "leveldb-testsuite")

		leveldb, err := NewDB(dbPath, true)
		require.NoErrorf(t, err, "failed to create leveldb")
		return leveldb
	})
}

func TestSuiteLevelDBMemory(t *testing.T) {
	engine.TestSuiteEngine(t, func() engine.Engine {
		memdb, err := NewMemDB()
		require.NoErrorf(t, err, "failed to create memory leveldb")
		return memdb
	})
}

func TestReopen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "leveldb-reopen")

	// Opening a missing store without creating it must fail.
	_, err := NewDB(dbPath, false)
	require.Error(t, err)

	db, err := NewDB(dbPath, true)
	require.NoError(t, err)
	tx, err := db.Transaction()
	require.NoError(t, err)
	require.NoError(t, tx.Put([]byte("k"), []byte("v")))
	require.NoError(t, tx.Commit())
	require.NoError(t, db.Close())

	// Creating over an existing store must fail.
	_, err = NewDB(dbPath, true)
	require.Error(t, err)

	db, err = NewDB(dbPath, false)
	require.NoError(t, err)
	defer db.Close()
	snap, err := db.Snapshot()
	require.NoError(t, err)
	defer snap.Release()
	v, err := snap.Get([]byte("k"))
	require.NoError(t, err)
	require.Equal(t, []byte("v"), v)
}
