package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/oshokin/latest-manifest/internal/logger"
	"github.com/oshokin/latest-manifest/internal/repository/bundle"
	"github.com/oshokin/latest-manifest/internal/service/generator"
	"github.com/oshokin/latest-manifest/internal/version"
)

// Exit codes returned by the CLI.
const (
	ExitOK                 = 0
	ExitFailure            = 1
	ExitMissingEnvironment = 2
	ExitMissingArtifact    = 3
	ExitAmbiguousArtifact  = 4
	ExitInvalidVersion     = 5
)

// flags holds raw command-line values before they become generator options.
type flags struct {
	configPath string
	version    string
	notes      string
	logLevel   string
	strict     bool
}

// bindFlags registers the root command flags on fs.
func bindFlags(fs *pflag.FlagSet, f *flags) {
	fs.StringVar(&f.version, "version", "", "release version, e.g. 1.0.1 (required)")
	fs.StringVar(&f.notes, "notes", "", "release notes embedded in the manifest")
	fs.StringVarP(&f.configPath, "config", "c", "", "optional YAML file overriding release coordinates")
	fs.StringVar(&f.logLevel, "log-level", "warn", "diagnostics level written to stderr: debug, info, warn, error")
	fs.BoolVar(&f.strict, "strict", false, "reject versions that are not semantic versions")
}

// newRootCommand builds the latest-manifest command writing to stdout.
func newRootCommand(stdout io.Writer) *cobra.Command {
	f := new(flags)

	root := &cobra.Command{
		Use:   "latest-manifest --version VERSION [--notes NOTES]",
		Short: "Generate latest.json for the desktop auto-updater",
		Long: "Find the NSIS installer and its .sig file for VERSION in the bundle directory, " +
			"then write latest.json next to them and print it.",
		Args:          cobra.NoArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			level, ok := logger.ParseLogLevel(f.logLevel)
			if !ok {
				return fmt.Errorf("unknown log level %q", f.logLevel)
			}

			// Each run logs to its own stderr at its own level.
			ctx := logger.ToContext(cmd.Context(), logger.New(cmd.ErrOrStderr(), level))

			options := &generator.Options{
				ConfigPath: f.configPath,
				Version:    f.version,
				Notes:      f.notes,
				Strict:     f.strict,
				Stdout:     stdout,
			}

			return generator.Run(ctx, options)
		},
	}

	bindFlags(root.Flags(), f)

	_ = root.MarkFlagRequired("version")

	root.SetOut(stdout)
	version.AttachCobraVersionCommand(root)

	return root
}

// Run executes the CLI with args and returns the process exit code.
// Errors are printed to stderr as a single "[ERROR] ..." line.
func Run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	root := newRootCommand(stdout)
	root.SetArgs(args)
	root.SetErr(stderr)

	if err := root.ExecuteContext(ctx); err != nil {
		_, _ = fmt.Fprintf(stderr, "[ERROR] %v\n", err)

		return ExitCode(err)
	}

	return ExitOK
}

// ExitCode maps an error returned by the generator to the process exit status.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, bundle.ErrDirectoryNotFound):
		return ExitMissingEnvironment
	case errors.Is(err, bundle.ErrArtifactNotFound):
		return ExitMissingArtifact
	case errors.Is(err, bundle.ErrAmbiguousArtifact):
		return ExitAmbiguousArtifact
	case errors.Is(err, bundle.ErrInvalidPattern), errors.Is(err, generator.ErrInvalidVersion):
		return ExitInvalidVersion
	default:
		return ExitFailure
	}
}

// Execute runs the latest-manifest CLI and exits with the status matching the outcome.
func Execute() {
	// Setup graceful shutdown handling.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)

	code := Run(ctx, os.Args[1:], os.Stdout, os.Stderr)

	stop()
	os.Exit(code)
}
