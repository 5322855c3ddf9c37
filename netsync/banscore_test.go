// Copyright (c) 2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package netsync

import (
	"math"
	"testing"
	"time"
)

// TestBanScore ensures the ban score adds up and its transient part decays.
func TestBanScore(t *testing.T) {
	var bs banScore
	base := time.Now()
	bs.increase(100, 0, base)
	bs.Reset()
	if bs.Int() != 0 {
		t.Errorf("Failed to reset ban score.")
	}

	r := bs.increase(100, 50, base)
	if r != 150 {
		t.Errorf("Unexpected result %d after ban score increase.", r)
	}

	r = bs.int(base.Add(time.Minute))
	if r != 125 {
		t.Errorf("Halflife check failed - %d instead of 125", r)
	}

	r = bs.int(base.Add(7 * time.Minute))
	if r != 100 {
		t.Errorf("Decay after 7m - %d instead of 100", r)
	}

	bs.Reset()
	bs.increase(0, math.MaxUint32, base)
	r = bs.int(base.Add(lifetime * time.Second))
	if r != 3 { // 3, not 4 due to precision loss and truncating 3.999...
		t.Errorf("Pre max age check with MaxUint32 failed - %d", r)
	}
	r = bs.int(base.Add((lifetime + 1) * time.Second))
	if r != 0 {
		t.Errorf("Zero after max age check failed - %d instead of 0", r)
	}
}

// TestBanScoreTransientReset ensures a transient score older than its
// lifetime is dropped before new misbehavior is added.
func TestBanScoreTransientReset(t *testing.T) {
	var bs banScore
	base := time.Unix(1345090000, 0)
	bs.increase(0, 40, base)
	r := bs.increase(1, 10, base.Add((lifetime+1)*time.Second))
	if r != 11 {
		t.Errorf("Unexpected result %d after lifetime expiry, want 11", r)
	}
	if got := bs.int(base.Add(-time.Second)); got != 1 {
		t.Errorf("Score before last increase - %d instead of 1", got)
	}
}
