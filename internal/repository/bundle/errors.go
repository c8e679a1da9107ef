package bundle

import (
	"errors"
	"strings"
)

var (
	// ErrDirectoryNotFound is returned when the bundle directory does not exist.
	ErrDirectoryNotFound = errors.New("release bundle directory not found")
	// ErrArtifactNotFound is returned when no file matches a pattern.
	ErrArtifactNotFound = errors.New("no file matches pattern")
	// ErrAmbiguousArtifact is returned when several files match a pattern.
	ErrAmbiguousArtifact = errors.New("multiple files match pattern (is the version wrong?)")
	// ErrInvalidPattern is returned when the interpolated version breaks the pattern syntax.
	ErrInvalidPattern = errors.New("malformed file pattern")
	// ErrNotText is returned when a file expected to hold UTF-8 text does not.
	ErrNotText = errors.New("file is not valid UTF-8 text")
)

// DirectoryError reports a bundle directory that cannot be used.
type DirectoryError struct {
	// Path is the directory that was looked up.
	Path string
	// Err is the classified cause.
	Err error
}

func (e *DirectoryError) Error() string {
	return e.Err.Error() + ": " + e.Path
}

func (e *DirectoryError) Unwrap() error {
	return e.Err
}

// MatchError reports a pattern that did not resolve to exactly one file.
type MatchError struct {
	// Pattern is the glob that was applied.
	Pattern string
	// Matches lists the matched filenames in directory order; empty when nothing matched.
	Matches []string
	// Err is ErrArtifactNotFound, ErrAmbiguousArtifact or ErrInvalidPattern.
	Err error
}

func (e *MatchError) Error() string {
	if len(e.Matches) > 1 {
		return e.Err.Error() + ": " + strings.Join(e.Matches, ", ")
	}

	return e.Err.Error() + ": " + e.Pattern
}

func (e *MatchError) Unwrap() error {
	return e.Err
}
