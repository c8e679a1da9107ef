package generator

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/latest-manifest/internal/config"
	"github.com/oshokin/latest-manifest/internal/domain/manifest"
	"github.com/oshokin/latest-manifest/internal/repository/bundle"
)

//nolint:gochecknoglobals // Fixed clock shared by the tests.
var fixedNow = time.Date(2026, time.October, 19, 8, 15, 30, 123456789, time.UTC)

// setup creates a bundle directory with files and a settings file pointing at it.
func setup(t *testing.T, files map[string]string) (string, string) {
	t.Helper()

	root := t.TempDir()
	dir := filepath.Join(root, "nsis")
	require.NoError(t, os.Mkdir(dir, 0o700))

	for name, contents := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(contents), 0o600))
	}

	settings := filepath.Join(root, "settings.yaml")
	require.NoError(t, os.WriteFile(settings, []byte("bundle_dir: "+dir+"\n"), 0o600))

	return dir, settings
}

// TestRun_WritesManifest runs the happy path and checks the written and printed document.
func TestRun_WritesManifest(t *testing.T) {
	t.Parallel()

	dir, settings := setup(t, map[string]string{
		"app_1.0.1_x64-setup.exe":     "installer",
		"app_1.0.1_x64-setup.exe.sig": "\n  SIGDATA\r\n",
	})

	var stdout bytes.Buffer

	err := Run(context.Background(), &Options{
		ConfigPath: settings,
		Version:    "1.0.1",
		Notes:      "fix bug",
		Now:        func() time.Time { return fixedNow },
		Stdout:     &stdout,
	})
	require.NoError(t, err)

	outPath := filepath.Join(dir, config.DefaultOutput)
	written, err := os.ReadFile(outPath)
	require.NoError(t, err)

	var doc manifest.Manifest
	require.NoError(t, json.Unmarshal(written, &doc))
	require.Equal(t, "1.0.1", doc.Version)
	require.Equal(t, "fix bug", doc.Notes)
	require.Equal(t, "2026-10-19T08:15:30Z", doc.PubDate)
	require.Len(t, doc.Platforms, 1)

	platform := doc.Platforms[config.DefaultPlatform]
	require.Equal(t, "SIGDATA", platform.Signature)
	require.Equal(t,
		"https://github.com/LonelyPower/lpe-reminder/releases/download/v1.0.1/app_1.0.1_x64-setup.exe",
		platform.URL,
	)

	require.Equal(t, "[OK] "+outPath+"\n"+string(written)+"\n", stdout.String())
}

// TestRun_Idempotent checks that repeated runs differ only by pub_date.
func TestRun_Idempotent(t *testing.T) {
	t.Parallel()

	dir, settings := setup(t, map[string]string{
		"app_1.0.1_x64-setup.exe":     "installer",
		"app_1.0.1_x64-setup.exe.sig": "line one\nline two",
	})

	run := func(now time.Time) []byte {
		err := Run(context.Background(), &Options{
			ConfigPath: settings,
			Version:    "1.0.1",
			Now:        func() time.Time { return now },
			Stdout:     new(bytes.Buffer),
		})
		require.NoError(t, err)

		data, err := os.ReadFile(filepath.Join(dir, config.DefaultOutput))
		require.NoError(t, err)

		return data
	}

	first := run(fixedNow)
	second := run(fixedNow)
	third := run(fixedNow.Add(time.Hour))

	require.Equal(t, first, second)
	require.Equal(t,
		bytes.Replace(first, []byte("08:15:30Z"), []byte("09:15:30Z"), 1),
		third,
	)
	require.Contains(t, string(first), `"signature": "line one\nline two"`)
}

// TestRun_Failures checks error classification and that no manifest is written.
func TestRun_Failures(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		files   map[string]string
		version string
		strict  bool
		target  error
	}{
		{
			name:    "missing installer",
			files:   map[string]string{"app_1.0.1_x64-setup.exe.sig": "SIG"},
			version: "1.0.1",
			target:  bundle.ErrArtifactNotFound,
		},
		{
			name:    "missing signature",
			files:   map[string]string{"app_1.0.1_x64-setup.exe": "installer"},
			version: "1.0.1",
			target:  bundle.ErrArtifactNotFound,
		},
		{
			name: "ambiguous installer",
			files: map[string]string{
				"app_1.0.1_x64-setup.exe":     "installer",
				"old_1.0.1_x64-setup.exe":     "stale",
				"app_1.0.1_x64-setup.exe.sig": "SIG",
			},
			version: "1.0.1",
			target:  bundle.ErrAmbiguousArtifact,
		},
		{
			name:    "malformed pattern",
			files:   map[string]string{},
			version: "1.0.[",
			target:  bundle.ErrInvalidPattern,
		},
		{
			name:    "empty version",
			files:   map[string]string{},
			version: "",
			target:  ErrInvalidVersion,
		},
		{
			name: "strict non-semver",
			files: map[string]string{
				"app_build42_x64-setup.exe":     "installer",
				"app_build42_x64-setup.exe.sig": "SIG",
			},
			version: "build42",
			strict:  true,
			target:  ErrInvalidVersion,
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			dir, settings := setup(t, tc.files)

			var stdout bytes.Buffer

			err := Run(context.Background(), &Options{
				ConfigPath: settings,
				Version:    tc.version,
				Strict:     tc.strict,
				Stdout:     &stdout,
			})
			require.ErrorIs(t, err, tc.target)
			require.Empty(t, stdout.String())

			_, err = os.Stat(filepath.Join(dir, config.DefaultOutput))
			require.ErrorIs(t, err, os.ErrNotExist)
		})
	}
}

// TestRun_NonSemverAllowed ensures lenient mode keeps the version verbatim.
func TestRun_NonSemverAllowed(t *testing.T) {
	t.Parallel()

	dir, settings := setup(t, map[string]string{
		"app_build42_x64-setup.exe":     "installer",
		"app_build42_x64-setup.exe.sig": "SIG",
	})

	err := Run(context.Background(), &Options{
		ConfigPath: settings,
		Version:    "build42",
		Stdout:     new(bytes.Buffer),
	})
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(dir, config.DefaultOutput))
	require.NoError(t, err)
}

// TestRun_MissingDirectory ensures a missing bundle directory fails before anything is written.
func TestRun_MissingDirectory(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	missing := filepath.Join(root, "nsis")
	settings := filepath.Join(root, "settings.yaml")
	require.NoError(t, os.WriteFile(settings, []byte("bundle_dir: "+missing+"\n"), 0o600))

	err := Run(context.Background(), &Options{
		ConfigPath: settings,
		Version:    "1.0.1",
		Stdout:     new(bytes.Buffer),
	})
	require.ErrorIs(t, err, bundle.ErrDirectoryNotFound)
	require.Contains(t, err.Error(), missing)

	_, err = os.Stat(missing)
	require.ErrorIs(t, err, os.ErrNotExist)
}

// TestRun_Cancelled ensures a cancelled context stops before writing.
func TestRun_Cancelled(t *testing.T) {
	t.Parallel()

	dir, settings := setup(t, map[string]string{
		"app_1.0.1_x64-setup.exe":     "installer",
		"app_1.0.1_x64-setup.exe.sig": "SIG",
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Run(ctx, &Options{
		ConfigPath: settings,
		Version:    "1.0.1",
		Stdout:     new(bytes.Buffer),
	})
	require.ErrorIs(t, err, context.Canceled)

	_, err = os.Stat(filepath.Join(dir, config.DefaultOutput))
	require.ErrorIs(t, err, os.ErrNotExist)
}
