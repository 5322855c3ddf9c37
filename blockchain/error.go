// Copyright (c) 2014-2016 The btcsuite developers
// Copyright (c) 2015-2016 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import (
	"errors"
	"fmt"
)

// ErrModifierUnavailable is returned when the stake modifier needed to hash a
// kernel has not been generated yet because the main chain has not advanced
// a full selection interval past the block containing the staked coin.  It
// is transient: the same stake may become valid once more blocks arrive.
var ErrModifierUnavailable = errors.New("stake modifier not yet available")

// ErrNoCheckpointKey is returned when a sync checkpoint is to be signed but
// no checkpoint private key has been configured.
var ErrNoCheckpointKey = errors.New("checkpoint master key unavailable")

// AssertError identifies an error that indicates an internal code consistency
// issue and should be treated as a critical and unrecoverable error.
type AssertError string

// Error returns the assertion error as a human-readable string and satisfies
// the error interface.
func (e AssertError) Error() string {
	return "assertion failed: " + string(e)
}

// ErrorCode identifies a kind of error.
type ErrorCode int

// These constants are used to identify a specific RuleError.
const (
	// ErrDuplicateBlock indicates a block with the same hash already
	// exists.
	ErrDuplicateBlock ErrorCode = iota

	// ErrMissingParent indicates that the block was an orphan.
	ErrMissingParent

	// ErrBadCheckpoint indicates a block that is expected to be at a
	// hardened checkpoint height does not match the expected one.
	ErrBadCheckpoint

	// ErrForkTooOld indicates a block is attempting to fork the block chain
	// before the current synchronized checkpoint.
	ErrForkTooOld

	// ErrBadStakeModifierChecksum indicates the stake modifier checksum
	// computed for a block does not match the one pinned for its height.
	ErrBadStakeModifierChecksum

	// ErrStakeTimeViolation indicates a coinstake claims a time before the
	// transaction it spends.
	ErrStakeTimeViolation

	// ErrStakeMinAge indicates the staked coin has not reached the minimum
	// stake age.
	ErrStakeMinAge

	// ErrBadKernelHash indicates the kernel hash does not meet the
	// coin-day weighted target.
	ErrBadKernelHash

	// ErrBadCoinStake indicates a transaction expected to be a coinstake
	// does not have the coinstake shape.
	ErrBadCoinStake

	// ErrCoinStakeTimestamp indicates the block timestamp does not match
	// its coinstake timestamp.
	ErrCoinStakeTimestamp

	// ErrMissingPrevOut indicates the output spent by the coinstake kernel
	// could not be found.
	ErrMissingPrevOut

	// ErrBadCoinStakeSig indicates the coinstake kernel input signature does
	// not verify against the spent output.
	ErrBadCoinStakeSig

	// ErrBadCheckpointSig indicates a sync checkpoint message is not signed
	// by the checkpoint authority of the network.
	ErrBadCheckpointSig

	// ErrCheckpointConflict indicates a sync checkpoint message names a
	// block that is not on the same branch as the current sync checkpoint.
	ErrCheckpointConflict

	// ErrCheckpointReorg indicates the chain could not be reorganized onto
	// an accepted sync checkpoint.
	ErrCheckpointReorg

	// numErrorCodes is the maximum error code number used in tests.
	numErrorCodes
)

// Map of ErrorCode values back to their constant names for pretty printing.
var errorCodeStrings = map[ErrorCode]string{
	ErrDuplicateBlock:           "ErrDuplicateBlock",
	ErrMissingParent:            "ErrMissingParent",
	ErrBadCheckpoint:            "ErrBadCheckpoint",
	ErrForkTooOld:               "ErrForkTooOld",
	ErrBadStakeModifierChecksum: "ErrBadStakeModifierChecksum",
	ErrStakeTimeViolation:       "ErrStakeTimeViolation",
	ErrStakeMinAge:              "ErrStakeMinAge",
	ErrBadKernelHash:            "ErrBadKernelHash",
	ErrBadCoinStake:             "ErrBadCoinStake",
	ErrCoinStakeTimestamp:       "ErrCoinStakeTimestamp",
	ErrMissingPrevOut:           "ErrMissingPrevOut",
	ErrBadCoinStakeSig:          "ErrBadCoinStakeSig",
	ErrBadCheckpointSig:         "ErrBadCheckpointSig",
	ErrCheckpointConflict:       "ErrCheckpointConflict",
	ErrCheckpointReorg:          "ErrCheckpointReorg",
}

// String returns the ErrorCode as a human-readable name.
func (e ErrorCode) String() string {
	if s := errorCodeStrings[e]; s != "" {
		return s
	}
	return fmt.Sprintf("Unknown ErrorCode (%d)", int(e))
}

// RuleError identifies a rule violation.  It is used to indicate that
// processing of a block, coinstake or checkpoint failed due to one of the
// consensus rules.  The caller can use errors.As to determine if a failure
// was specifically due to a rule violation and access the ErrorCode field to
// ascertain the specific reason for the rule violation.
type RuleError struct {
	ErrorCode   ErrorCode // Describes the kind of error
	Description string    // Human readable description of the issue
}

// Error satisfies the error interface and prints human-readable errors.
func (e RuleError) Error() string {
	return e.Description
}

// ruleError creates an RuleError given a set of arguments.
func ruleError(c ErrorCode, desc string) RuleError {
	return RuleError{ErrorCode: c, Description: desc}
}

// IsErrorCode returns whether err is a RuleError with the given code.
func IsErrorCode(err error, c ErrorCode) bool {
	var rerr RuleError
	return errors.As(err, &rerr) && rerr.ErrorCode == c
}

// BanScore returns the misbehavior score a peer earns for relaying data that
// failed with err.  Failures that can occur to honest peers behind on the
// chain score lightly; provably invalid data scores the ban threshold.
func BanScore(err error) uint32 {
	if errors.Is(err, ErrModifierUnavailable) {
		return 1
	}
	var rerr RuleError
	if !errors.As(err, &rerr) {
		return 0
	}
	switch rerr.ErrorCode {
	case ErrMissingPrevOut, ErrBadKernelHash:
		return 1
	case ErrBadCoinStakeSig, ErrForkTooOld, ErrBadCheckpoint,
		ErrBadStakeModifierChecksum, ErrBadCoinStake,
		ErrCoinStakeTimestamp, ErrStakeTimeViolation:
		return 100
	}
	return 0
}
