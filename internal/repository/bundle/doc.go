// Package bundle locates release artifacts in the installer bundle directory
// and writes the generated manifest next to them.
//
// Lookups are non-recursive and must resolve to exactly one file; anything else
// is reported through DirectoryError or MatchError.
package bundle
