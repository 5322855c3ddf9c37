// Package engine defines the minimal key/value storage contract the
// consensus metadata store is written against, along with a shared test
// suite every backend must pass.
package engine

import "errors"

var (
	// ErrNotFound is returned by Snapshot.Get when the key does not exist.
	// Backends translate their native not-found errors to it.
	ErrNotFound = errors.New("engine: key not found")

	// ErrIterReleased is returned by Iterator.Error after Release.
	ErrIterReleased = errors.New("engine: iterator released")
)

// Engine is an opened key/value store.
type Engine interface {
	Transaction() (Transaction, error)
	Snapshot() (Snapshot, error)
	Close() error
}

// Transaction batches writes which become visible atomically on Commit.
// Discard may be called any number of times, including after Commit.
type Transaction interface {
	Put(key, value []byte) error
	Delete(key []byte) error
	Commit() error
	Discard()
}

// Snapshot is a consistent read view of the store.
type Snapshot interface {
	Get(key []byte) ([]byte, error)
	Has(key []byte) (bool, error)
	NewIterator(*Range) Iterator
	Releaser
}

// Releaser releases the resources held by a snapshot or iterator.  Release
// is safe to call more than once.
type Releaser interface {
	Release()
}

// Iterator walks the key/value pairs of a Range in ascending key order.
type Iterator interface {
	// First moves the iterator to the first key/value pair.  It returns
	// whether such pair exist.
	First() bool

	// Last moves the iterator to the last key/value pair.  It returns
	// whether such pair exist.
	Last() bool

	// Seek moves the iterator to the first key/value pair whose key is
	// greater than or equal to the given key.
	Seek(key []byte) bool

	// Next moves the iterator to the next key/value pair.  It returns
	// false if the iterator is exhausted.
	Next() bool

	// Prev moves the iterator to the previous key/value pair.  It returns
	// false if the iterator is exhausted.
	Prev() bool

	// Error returns any accumulated error.  Exhausting all the key/value
	// pairs is not considered to be an error.
	Error() error

	// Key returns the key of the current key/value pair, or nil if done.
	// The contents may change on the next call to any seek method.
	Key() []byte

	// Value returns the value of the current key/value pair, or nil if
	// done.  The contents may change on the next call to any seek method.
	Value() []byte

	Releaser
}

// Range is a key range.
type Range struct {
	// Start of the key range, include in the range.
	Start []byte

	// Limit of the key range, not include in the range.
	Limit []byte
}

// BytesPrefix returns key range that satisfy the given prefix.
func BytesPrefix(prefix []byte) *Range {
	var limit []byte
	for i := len(prefix) - 1; i >= 0; i-- {
		c := prefix[i]
		if c < 0xff {
			limit = make([]byte, i+1)
			copy(limit, prefix)
			limit[i] = c + 1
			break
		}
	}
	return &Range{prefix, limit}
}
