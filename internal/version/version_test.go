// Copyright (c) 2017 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package version

import (
	"runtime"
	"strings"
	"testing"
)

// TestString ensures invalid pre-release and build characters are dropped.
func TestString(t *testing.T) {
	defer func(pre, build string) {
		PreRelease, BuildMetadata = pre, build
	}(PreRelease, BuildMetadata)

	tests := []struct {
		pre, build string
		want       string
	}{
		{"", "", "0.1.0"},
		{"beta", "", "0.1.0-beta"},
		{"rc.1", "", "0.1.0-rc1"},
		{"beta", "git.abc_def", "0.1.0-beta+git.abcdef"},
		{"!!", "+", "0.1.0"},
	}
	for _, test := range tests {
		PreRelease, BuildMetadata = test.pre, test.build
		if got := String(); got != test.want {
			t.Errorf("String(%q, %q): got %q, want %q", test.pre,
				test.build, got, test.want)
		}
	}
}

func TestFull(t *testing.T) {
	got := Full("ckpttool")
	if !strings.HasPrefix(got, "ckpttool version "+String()) {
		t.Fatalf("unexpected version line %q", got)
	}
	if !strings.Contains(got, runtime.Version()) {
		t.Fatalf("version line %q lacks the Go version", got)
	}
}
