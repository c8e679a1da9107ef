package bundle

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"unicode/utf8"

	"github.com/oshokin/latest-manifest/internal/config"
	"github.com/oshokin/latest-manifest/internal/logger"
)

// Directory gives access to the files produced by the installer bundler.
type Directory struct {
	// path is the directory location as given, relative paths stay relative.
	path string
}

// InstallerPattern returns the glob for the NSIS installer of version.
// The version is interpolated as is, glob metacharacters included.
func InstallerPattern(version string) string {
	return "*_" + version + "_*setup.exe"
}

// SignaturePattern returns the glob for the detached signature of version.
func SignaturePattern(version string) string {
	return "*_" + version + "_*.exe.sig"
}

// Open checks that path is an existing directory.
func Open(ctx context.Context, path string) (*Directory, error) {
	path = filepath.Clean(path)

	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &DirectoryError{Path: path, Err: ErrDirectoryNotFound}
		}

		return nil, fmt.Errorf("stat bundle directory: %w", err)
	}

	if !info.IsDir() {
		return nil, &DirectoryError{Path: path, Err: ErrDirectoryNotFound}
	}

	logger.DebugKV(ctx, "Resolved bundle directory", "path", path)

	return &Directory{path: path}, nil
}

// Path returns the directory location.
func (d *Directory) Path() string {
	return d.path
}

// FindExact returns the path of the single regular file whose name matches pattern.
// Subdirectories are neither searched nor matched.
func (d *Directory) FindExact(ctx context.Context, pattern string) (string, error) {
	if _, err := filepath.Match(pattern, ""); err != nil {
		return "", &MatchError{Pattern: pattern, Err: ErrInvalidPattern}
	}

	entries, err := os.ReadDir(d.path)
	if err != nil {
		return "", fmt.Errorf("list bundle directory: %w", err)
	}

	var matches []string

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		// The pattern was checked above, so Match cannot fail here.
		if ok, _ := filepath.Match(pattern, entry.Name()); ok {
			matches = append(matches, entry.Name())
		}
	}

	switch len(matches) {
	case 0:
		return "", &MatchError{Pattern: pattern, Err: ErrArtifactNotFound}
	case 1:
		logger.DebugKV(ctx, "Matched artifact", "pattern", pattern, "file", matches[0])

		return filepath.Join(d.path, matches[0]), nil
	default:
		return "", &MatchError{Pattern: pattern, Matches: matches, Err: ErrAmbiguousArtifact}
	}
}

// ReadText reads a UTF-8 text file.
func (d *Directory) ReadText(path string) (string, error) {
	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return "", fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}

	if !utf8.Valid(contents) {
		return "", fmt.Errorf("%w: %s", ErrNotText, filepath.Base(path))
	}

	return string(contents), nil
}

// WriteFile replaces name inside the directory with data and returns the written path.
func (d *Directory) WriteFile(name string, data []byte) (string, error) {
	path := filepath.Join(d.path, name)

	if err := os.WriteFile(path, data, config.DefaultFilePermissions); err != nil {
		return "", fmt.Errorf("write %s: %w", name, err)
	}

	return path, nil
}
