package installer

import (
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/bbug/internal/bundle"
	"github.com/oshokin/bbug/internal/config"
)

const keepPreviousConfigFlag = "keep-previous-config"

// NewCommand returns the `install` subcommand.
func NewCommand() *cobra.Command {
	var (
		// rootPath is the module project directory.
		rootPath string
		// flags are the connection settings taken from the command line.
		flags config.Flags
		// keep answers the keep question without prompting.
		keep bool
		// bundler is the bundler command line.
		bundler string
	)

	cmd := &cobra.Command{
		Use:   "install",
		Short: "Build the module and install it on the platform.",
		Long: `Validates the module project, builds its entries, packages the build output
and uploads it to the admin API of the configured company.

Connection settings are read from the .bbugrc file in the project root first
and from the command line second. If the project ships a config.json settings
schema, its questions are asked before the upload and the answers are applied
after it, unless the previous configuration is kept.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			opts := &Options{
				RootPath: rootPath,
				Flags:    &flags,
				Bundler:  strings.Fields(bundler),
			}

			if cmd.Flags().Changed(keepPreviousConfigFlag) {
				opts.KeepPreviousConfig = &keep
			}

			_, err := Run(ctx, opts)

			return err
		},
	}

	cmd.Flags().StringVarP(&rootPath, "root", "r", ".", "path to the module project")
	cmd.Flags().StringVar(&flags.Email, "email", "", "admin account email")
	cmd.Flags().StringVar(&flags.Password, "password", "", "admin account password")
	cmd.Flags().StringVar(&flags.Host, "host", "", "admin API host")
	cmd.Flags().IntVar(&flags.Port, "port", 0, "admin API port, 443 selects https (default 443)")
	cmd.Flags().StringVar(&flags.CompanyID, "company-id", "", "company the module is installed for")
	cmd.Flags().BoolVar(&flags.Dev, "dev", false, "build the module in development mode")
	cmd.Flags().StringVarP(&flags.LocalFile, "config", "c", "",
		"path to the local configuration file (default <root>/"+config.DefaultLocalFilename+")")
	cmd.Flags().BoolVar(&keep, keepPreviousConfigFlag, false,
		"keep the previous remote configuration without asking")
	cmd.Flags().StringVar(&bundler, "bundler", strings.Join(bundle.DefaultCommand(), " "), "bundler command line")

	return cmd
}
