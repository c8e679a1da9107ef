package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the release coordinates baked into every generated manifest.
type Config struct {
	// Host is the release-hosting server, e.g. github.com.
	Host string `yaml:"host"`
	// Owner is the account or organization that owns the repository.
	Owner string `yaml:"owner"`
	// Repository is the repository whose releases host the installer.
	Repository string `yaml:"repository"`
	// Platform is the key the update client uses to pick its binary.
	Platform string `yaml:"platform"`
	// BundleDir is the installer directory, relative to the working directory.
	BundleDir string `yaml:"bundle_dir"`
	// Output is the manifest filename written into BundleDir.
	Output string `yaml:"output"`
}

const (
	// DefaultHost is the release-hosting server.
	DefaultHost = "github.com"

	// DefaultOwner is the account publishing releases.
	DefaultOwner = "LonelyPower"

	// DefaultRepository is the repository publishing releases.
	DefaultRepository = "lpe-reminder"

	// DefaultPlatform is the only platform the installer is built for.
	DefaultPlatform = "windows-x86_64"

	// DefaultBundleDir is where the NSIS bundler drops installers and signatures.
	DefaultBundleDir = "src-tauri/target/release/bundle/nsis"

	// DefaultOutput is the manifest filename expected by the update client.
	DefaultOutput = "latest.json"

	// DefaultFilePermissions is the permission for files produced by the tool.
	DefaultFilePermissions = 0o644
)

var (
	// errConfigIsNotSet is returned when a nil configuration is provided.
	errConfigIsNotSet = errors.New("configuration is not set")
	// errOwnerRequired is returned when the release owner is missing.
	errOwnerRequired = errors.New("owner must be provided")
	// errRepositoryRequired is returned when the repository is missing.
	errRepositoryRequired = errors.New("repository must be provided")
	// errPlatformRequired is returned when the platform key is missing.
	errPlatformRequired = errors.New("platform must be provided")
	// errOutputNotFilename is returned when the output escapes the bundle directory.
	errOutputNotFilename = errors.New("output must be a plain filename")
)

// Default returns the built-in release coordinates.
func Default() *Config {
	return &Config{
		Host:       DefaultHost,
		Owner:      DefaultOwner,
		Repository: DefaultRepository,
		Platform:   DefaultPlatform,
		BundleDir:  DefaultBundleDir,
		Output:     DefaultOutput,
	}
}

// Load returns the defaults overlaid with the YAML file at path.
// An empty path yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		return cfg, nil
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}

	if err = yaml.Unmarshal(contents, cfg); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	if err = Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the provided settings for required fields and fills optional ones.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if strings.TrimSpace(cfg.Owner) == "" {
		return errOwnerRequired
	}

	if strings.TrimSpace(cfg.Repository) == "" {
		return errRepositoryRequired
	}

	if strings.TrimSpace(cfg.Platform) == "" {
		return errPlatformRequired
	}

	if cfg.Host == "" {
		cfg.Host = DefaultHost
	}

	if cfg.BundleDir == "" {
		cfg.BundleDir = DefaultBundleDir
	}

	if cfg.Output == "" {
		cfg.Output = DefaultOutput
	}

	if cfg.Output == "." || cfg.Output == ".." || strings.ContainsAny(cfg.Output, `/\`) {
		return fmt.Errorf("%w: %q", errOutputNotFilename, cfg.Output)
	}

	return nil
}

// ReleaseBaseURL returns the download prefix shared by all assets of a release tag.
func (c *Config) ReleaseBaseURL(tag string) string {
	return "https://" + c.Host + "/" + c.Owner + "/" + c.Repository + "/releases/download/" + tag
}
