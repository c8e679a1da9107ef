package version

import (
	"fmt"
	"runtime"
)

var (
	// Version is the semantic version of the tool. It can be overridden via ldflags.
	Version = "0.1.0"
	// Commit is the short git SHA embedded at build time (or "none").
	Commit = "none"
	// BuildTime is the UTC build timestamp embedded at build time.
	BuildTime = "unknown"
)

// Short returns only the semantic version string.
func Short() string {
	return Version
}

// Full returns the version with commit, build time and the Go toolchain that produced the binary.
func Full() string {
	return fmt.Sprintf("latest-manifest %s (commit %s, built %s, %s)", Short(), Commit, BuildTime, runtime.Version())
}
