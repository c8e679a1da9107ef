// Package version exposes build metadata of the latest-manifest binary.
//
// Version, Commit and BuildTime are injected via Go ldflags.
package version
