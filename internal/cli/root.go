package cli

import (
	"context"
	"errors"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/specify-labs/specify/internal/branding"
	"github.com/specify-labs/specify/internal/config"
	"github.com/specify-labs/specify/internal/logging"
)

var (
	buildVersion string
	buildCommit  string
	buildDate    string
)

var (
	debugMode bool
	logger    = logging.Discard()
)

var rootCmd = &cobra.Command{
	Use:   branding.CLIName(),
	Short: branding.Description(),
	Long: branding.DisplayName() + ` bootstraps projects for Spec-Driven Development.

It downloads the latest template release for your AI assistant and unpacks
it into a new or existing project directory.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		config.Load()
		logger = logging.New(os.Stderr, logging.Options{
			Level: config.Get(config.KeyLogLevel),
			Debug: debugMode,
		})
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Show verbose diagnostic output")
}

// Execute runs the root command with build info injected via ldflags.
// Failures are rendered to stderr before being returned.
func Execute(version, commit, date string) error {
	buildVersion = version
	buildCommit = commit
	buildDate = date

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		renderError(os.Stderr, err, debugMode)
	}
	return err
}

// ExitCode maps an Execute error to a process exit status: 130 when the
// run was interrupted, 1 for any other failure.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, context.Canceled):
		return 130
	default:
		return 1
	}
}
