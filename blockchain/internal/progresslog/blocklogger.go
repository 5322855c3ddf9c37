// Copyright (c) 2016 The btcsuite developers
// Copyright (c) 2016 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package progresslog provides periodic, rate limited logging of block
// acceptance progress.
package progresslog

import (
	"sync"
	"time"

	"github.com/btcsuite/btclog"
)

// BlockProgressLogger provides periodic logging for other services in order
// to show users progress of certain "actions" involving some or all current
// blocks. Ex: syncing to best chain, indexing all blocks, etc.
type BlockProgressLogger struct {
	receivedLogBlocks int64
	receivedLogStake  int64
	lastBlockLogTime  time.Time
	interval          time.Duration

	subsystemLogger btclog.Logger
	progressAction  string
	sync.Mutex
}

// NewBlockProgressLogger returns a new block progress logger.
// The progress message is templated as follows:
//
//	{progressAction} {numProcessed} {blocks|block} in the last {timePeriod}
//	({numStake} proof-of-stake, height {lastBlockHeight}, {lastBlockTimeStamp})
func NewBlockProgressLogger(progressMessage string, logger btclog.Logger) *BlockProgressLogger {
	return &BlockProgressLogger{
		lastBlockLogTime: time.Now(),
		interval:         10 * time.Second,
		progressAction:   progressMessage,
		subsystemLogger:  logger,
	}
}

// LogBlockHeight logs a new block height as an information message to show
// progress to the user.  In order to prevent spam, it limits logging to one
// message every 10 seconds with duration and totals included.  It reports
// whether a message was written.
func (b *BlockProgressLogger) LogBlockHeight(height int32, timestamp time.Time,
	proofOfStake bool) bool {

	b.Lock()
	defer b.Unlock()
	b.receivedLogBlocks++
	if proofOfStake {
		b.receivedLogStake++
	}

	now := time.Now()
	duration := now.Sub(b.lastBlockLogTime)
	if duration < b.interval {
		return false
	}

	// Truncate the duration to 10s of milliseconds.
	durationMillis := int64(duration / time.Millisecond)
	tDuration := 10 * time.Millisecond * time.Duration(durationMillis/10)

	blockStr := "blocks"
	if b.receivedLogBlocks == 1 {
		blockStr = "block"
	}
	b.subsystemLogger.Infof("%s %d %s in the last %s (%d proof-of-stake, "+
		"height %d, %s)", b.progressAction, b.receivedLogBlocks, blockStr,
		tDuration, b.receivedLogStake, height, timestamp)

	b.receivedLogBlocks = 0
	b.receivedLogStake = 0
	b.lastBlockLogTime = now
	return true
}
