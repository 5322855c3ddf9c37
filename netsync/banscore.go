// Copyright (c) 2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package netsync

import (
	"fmt"
	"math"
	"sync"
	"time"
)

const (
	// halflife defines the time (in seconds) by which the transient part
	// of the ban score decays to one half of its original value.
	halflife = 60
	lambda   = math.Ln2 / halflife

	// lifetime defines the maximum age of the transient part of the ban
	// score to be considered a non-zero score (in seconds).
	lifetime = 1800

	// DefaultBanThreshold is the ban score at which misbehaving peers are
	// disconnected when no other threshold is configured.
	DefaultBanThreshold = 100
)

// banScore is the misbehavior score of a peer.  It consists of a persistent
// part, raised by provably invalid checkpoints, and a transient part that
// decays over time, raised by checkpoints that may be relayed by honest
// peers which lag behind.
//
// The zero value is ready for use.
type banScore struct {
	mtx        sync.Mutex
	lastUnix   int64
	transient  float64
	persistent uint32
}

// String returns the ban score as a human-readable string.
func (s *banScore) String() string {
	s.mtx.Lock()
	last, tran, pers := s.lastUnix, s.transient, s.persistent
	s.mtx.Unlock()
	return fmt.Sprintf("persistent %d + transient %.2f at %d = %d as of now",
		pers, tran, last, s.Int())
}

// Int returns the current ban score, the sum of the persistent and decaying
// scores.
//
// This function is safe for concurrent access.
func (s *banScore) Int() uint32 {
	return s.int(time.Now())
}

// Increase raises the persistent and decaying scores by the passed values
// and returns the resulting score.
//
// This function is safe for concurrent access.
func (s *banScore) Increase(persistent, transient uint32) uint32 {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	return s.increase(persistent, transient, time.Now())
}

// Reset sets both scores to zero.
//
// This function is safe for concurrent access.
func (s *banScore) Reset() {
	s.mtx.Lock()
	s.persistent = 0
	s.transient = 0
	s.lastUnix = 0
	s.mtx.Unlock()
}

// int returns the ban score at the given point in time.
//
// This function is safe for concurrent access.
func (s *banScore) int(t time.Time) uint32 {
	s.mtx.Lock()
	last, tran, pers := s.lastUnix, s.transient, s.persistent
	s.mtx.Unlock()

	dt := t.Unix() - last
	if tran < 1 || dt < 0 || dt > lifetime {
		return pers
	}
	return pers + uint32(tran*math.Exp(-1.0*float64(dt)*lambda))
}

// increase raises the scores as if the misbehavior happened at time t and
// returns the resulting score.
//
// This function MUST be called with the score mutex held.
func (s *banScore) increase(persistent, transient uint32, t time.Time) uint32 {
	s.persistent += persistent
	tu := t.Unix()
	dt := tu - s.lastUnix

	if transient > 0 {
		if dt > lifetime {
			s.transient = 0
		} else if s.transient > 1 && dt > 0 {
			s.transient *= math.Exp(-1.0 * float64(dt) * lambda)
		}
		s.transient += float64(transient)
		s.lastUnix = tu
	}
	return s.persistent + uint32(s.transient)
}
