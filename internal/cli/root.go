package cli

import (
	"fmt"
	"os"
	"slices"

	"github.com/spf13/cobra"
)

const defaultConfigPath = "configs/worker-service/config.yaml"

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Config  string
	Format  string // "json" | "text"
	Verbose bool
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for gigctl.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	configPath := os.Getenv("GIGCTL_CONFIG_PATH")
	if configPath == "" {
		configPath = defaultConfigPath
	}

	cmd := &cobra.Command{
		Use:   "gigctl",
		Short: "Operate a GigFlow marketplace database",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.Config, "config", "c", configPath, "path to configuration file")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "log to stderr at debug level")

	cmd.AddCommand(NewMigrateCommand(opts))
	cmd.AddCommand(NewAuditCommand(opts))

	return cmd
}
