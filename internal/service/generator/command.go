package generator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/mod/semver"

	"github.com/oshokin/latest-manifest/internal/config"
	"github.com/oshokin/latest-manifest/internal/domain/manifest"
	"github.com/oshokin/latest-manifest/internal/logger"
	"github.com/oshokin/latest-manifest/internal/repository/bundle"
)

// Options contains inputs for the generator entry point.
type Options struct {
	// ConfigPath is an optional YAML file overriding the built-in release coordinates.
	ConfigPath string
	// Version is the release version, used verbatim in patterns, the tag and the manifest.
	Version string
	// Notes is free-form release notes.
	Notes string
	// Strict rejects versions that are not semantic versions.
	Strict bool
	// Now supplies the publication time; time.Now when nil.
	Now func() time.Time
	// Stdout receives the confirmation line and the manifest; os.Stdout when nil.
	Stdout io.Writer
}

// generator builds latest.json for a single release.
// It is unexported, callers should use Run, which encapsulates setup and validation.
type generator struct {
	// cfg holds the release coordinates.
	cfg *config.Config
	// opts are the caller inputs with defaults applied.
	opts *Options
	// dir is the resolved bundle directory.
	dir *bundle.Directory
	// installer is the path of the matched installer.
	installer string
	// signature is the path of the matched detached signature.
	signature string
}

// ErrInvalidVersion indicates a version that cannot be used to look up artifacts.
var ErrInvalidVersion = errors.New("invalid version")

// Run executes the manifest generation workflow.
func Run(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "latest-manifest")

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	gen, err := newGenerator(ctx, cfg, opts)
	if err != nil {
		return err
	}

	return gen.Run(ctx)
}

// newGenerator validates the inputs and resolves the bundle directory.
func newGenerator(ctx context.Context, cfg *config.Config, opts *Options) (*generator, error) {
	resolved := *opts
	if resolved.Now == nil {
		resolved.Now = time.Now
	}

	if resolved.Stdout == nil {
		resolved.Stdout = os.Stdout
	}

	if err := checkVersion(ctx, resolved.Version, resolved.Strict); err != nil {
		return nil, err
	}

	dir, err := bundle.Open(ctx, cfg.BundleDir)
	if err != nil {
		return nil, err
	}

	return &generator{
		cfg:  cfg,
		opts: &resolved,
		dir:  dir,
	}, nil
}

// Run locates the artifacts, writes the manifest and reports it.
func (g *generator) Run(ctx context.Context) error {
	ctx = logger.WithKV(ctx, "version", g.opts.Version)

	if err := g.locateArtifacts(ctx); err != nil {
		return err
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := g.buildManifest()
	if err != nil {
		return err
	}

	if err = manifest.Validate(data); err != nil {
		return err
	}

	if err = ctx.Err(); err != nil {
		return err
	}

	path, err := g.dir.WriteFile(g.cfg.Output, data)
	if err != nil {
		return err
	}

	logger.InfoKV(ctx, "Saved update manifest", "path", path)

	if _, err = fmt.Fprintf(g.opts.Stdout, "[OK] %s\n%s\n", path, data); err != nil {
		return fmt.Errorf("print manifest: %w", err)
	}

	g.printNextSteps(ctx, path)

	return nil
}

// locateArtifacts resolves the installer first, then its signature.
func (g *generator) locateArtifacts(ctx context.Context) error {
	var err error

	if g.installer, err = g.dir.FindExact(ctx, bundle.InstallerPattern(g.opts.Version)); err != nil {
		return err
	}

	if g.signature, err = g.dir.FindExact(ctx, bundle.SignaturePattern(g.opts.Version)); err != nil {
		return err
	}

	logger.InfoKV(ctx, "Found release artifacts",
		"directory", g.dir.Path(),
		"installer", filepath.Base(g.installer),
		"signature", filepath.Base(g.signature),
	)

	return nil
}

// buildManifest reads the signature and encodes a fresh manifest.
func (g *generator) buildManifest() ([]byte, error) {
	signature, err := g.dir.ReadText(g.signature)
	if err != nil {
		return nil, err
	}

	artifact := manifest.Platform{
		Signature: strings.TrimSpace(signature),
		URL:       g.cfg.ReleaseBaseURL(manifest.Tag(g.opts.Version)) + "/" + filepath.Base(g.installer),
	}

	m := manifest.New(g.opts.Version, g.opts.Notes, g.opts.Now(), g.cfg.Platform, artifact)

	return manifest.Encode(m)
}

// printNextSteps logs which files have to be attached to the release.
func (g *generator) printNextSteps(ctx context.Context, manifestPath string) {
	var builder strings.Builder

	builder.WriteString("Upload the following files to the release ")
	builder.WriteString(manifest.Tag(g.opts.Version))
	builder.WriteString(" of ")
	builder.WriteString(g.cfg.Owner)
	builder.WriteString("/")
	builder.WriteString(g.cfg.Repository)
	builder.WriteString(":")

	for _, name := range []string{g.installer, g.signature, manifestPath} {
		builder.WriteString("\n  - ")
		builder.WriteString(filepath.Base(name))
	}

	logger.Info(ctx, builder.String())
}

// checkVersion rejects an empty version and, in strict mode, a non-semver one.
// Glob metacharacters are kept as is, FindExact reports malformed patterns.
func checkVersion(ctx context.Context, version string, strict bool) error {
	if version == "" {
		return fmt.Errorf("%w: version must not be empty", ErrInvalidVersion)
	}

	if semver.IsValid(manifest.Tag(version)) {
		return nil
	}

	if strict {
		return fmt.Errorf("%w: %q is not a semantic version", ErrInvalidVersion, version)
	}

	logger.WarnKV(ctx, "Version is not a semantic version, the updater may refuse it", "version", version)

	return nil
}
