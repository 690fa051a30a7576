package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/oshokin/bbug/internal/domain/install"
	"github.com/oshokin/bbug/internal/logger"
	"github.com/oshokin/bbug/internal/service/installer"
	"github.com/oshokin/bbug/internal/version"
)

var (
	// logLevel is the minimum level of log messages.
	logLevel string

	errUnknownLogLevel = errors.New("unknown log level")

	// rootCmd represents the base command of the module installer.
	rootCmd = &cobra.Command{
		Use:   "bbug",
		Short: "Build and install platform app modules.",
		Long: `Command line tool that builds an app module, packages it and installs it
for a company through the platform admin API.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			level, ok := logger.ParseLogLevel(logLevel)
			if !ok {
				return fmt.Errorf("%w: %q", errUnknownLogLevel, logLevel)
			}

			logger.SetLevel(level)

			return nil
		},
	}
)

// Execute runs the bbug CLI and exits with non-zero status on error.
func Execute() {
	rootCmd.AddCommand(installer.NewCommand(), version.NewCommand())

	if err := rootCmd.Execute(); err != nil {
		report(context.Background(), err, os.Stderr)
		os.Exit(1)
	}
}

// report shows pre-flight problems as a plain red message and logs
// everything else with the most specific detail and the full cause chain.
func report(ctx context.Context, err error, stderr io.Writer) {
	red := color.New(color.FgRed)

	var failure *install.Error
	if !errors.As(err, &failure) {
		_, _ = red.Fprintln(stderr, err.Error())
		return
	}

	if failure.Kind == install.KindConfiguration {
		_, _ = red.Fprintln(stderr, failure.Detail())
		return
	}

	logger.ErrorKV(ctx, "Install failed",
		"kind", string(failure.Kind),
		"stage", failure.Stage.String(),
		"error", failure.Detail(),
		"cause", failure.Err.Error())
}

// newLogger builds the CLI logger. The failure site is carried by the
// wrapped cause, so no stack trace of the reporting code is attached.
func newLogger(out io.Writer) *zap.SugaredLogger {
	return logger.New(nil, out)
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	logger.SetLogger(newLogger(os.Stderr))

	rootCmd.PersistentFlags().StringVarP(&logLevel, "log-level", "l", "info",
		"log level: debug, info, warn, error")
}
