// Copyright (c) 2013-2014 The btcsuite developers
// Copyright (c) 2015-2018 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package version houses the version of kerneld and its tools.
package version

import (
	"fmt"
	"runtime"
	"strings"
)

// semanticAlphabet defines the characters allowed in the pre-release and
// build metadata identifiers.  Build metadata additionally allows dots.
const semanticAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz-"

// These constants define the application version and follow semantic
// versioning 2.0.0 (http://semver.org/).
const (
	Major uint = 0
	Minor uint = 1
	Patch uint = 0
)

var (
	// PreRelease may be overridden at build time with
	// '-ldflags "-X github.com/ppcsuite/kerneld/internal/version.PreRelease=foo"'.
	PreRelease = "beta"

	// BuildMetadata may be overridden at build time with
	// '-ldflags "-X github.com/ppcsuite/kerneld/internal/version.BuildMetadata=foo"'.
	BuildMetadata = ""
)

// normalize strips every character of str not in the alphabet, plus dots
// when allowDots is set.
func normalize(str string, allowDots bool) string {
	return strings.Map(func(r rune) rune {
		if strings.ContainsRune(semanticAlphabet, r) || (allowDots && r == '.') {
			return r
		}
		return -1
	}, str)
}

// String returns the application version as a semantic version string.
// Invalid characters in the pre-release and build metadata are dropped.
func String() string {
	version := fmt.Sprintf("%d.%d.%d", Major, Minor, Patch)
	if pre := normalize(PreRelease, false); pre != "" {
		version += "-" + pre
	}
	if build := normalize(BuildMetadata, true); build != "" {
		version += "+" + build
	}
	return version
}

// Full returns the version line printed by the tools, naming the
// application, its version and the Go runtime it was built with.
func Full(app string) string {
	return fmt.Sprintf("%s version %s (Go version %s %s/%s)", app, String(),
		runtime.Version(), runtime.GOOS, runtime.GOARCH)
}
