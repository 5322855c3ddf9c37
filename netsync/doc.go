// Copyright (c) 2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

/*
Package netsync implements the peer side of the synchronized checkpoint
protocol.

The SyncManager hands checkpoint messages received from peers to the block
chain, scores peers that send invalid checkpoints and disconnects them once
their score crosses the ban threshold.  It is the CheckpointRelayer of the
chain: every checkpoint the chain accepts is relayed to each connected peer
that does not know it yet.  Newly connected peers are sent the current
checkpoint and asked for the block of a pending one.

Since the chain must be created with its relayer while the manager must be
created with its chain, callers typically hand the chain a forwarder that is
pointed at the manager once both exist.
*/
package netsync
