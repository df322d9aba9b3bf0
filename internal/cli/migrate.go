package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cuongbtq/gigflow-be/shared/database"
)

// MigrateResult is the JSON shape of a migrate run.
type MigrateResult struct {
	Status     string `json:"status"`
	Driver     string `json:"driver"`
	Statements int    `json:"statements"`
}

// NewMigrateCommand creates the migrate command.
func NewMigrateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "migrate",
		Short:         "Apply the embedded schema to the configured database",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrate(cmd, rootOpts)
		},
	}
}

func runMigrate(cmd *cobra.Command, opts *RootOptions) error {
	e, err := openEnv(opts)
	if err != nil {
		return err
	}
	defer e.Close()

	driver := e.client.Driver()
	statements, err := database.Schema(driver)
	if err != nil {
		return err
	}

	if err := e.client.Migrate(cmd.Context()); err != nil {
		return err
	}

	result := MigrateResult{Status: "ok", Driver: string(driver), Statements: len(statements)}
	if opts.Format == "json" {
		return writeJSON(cmd.OutOrStdout(), result)
	}

	_, err = fmt.Fprintf(cmd.OutOrStdout(), "✓ Schema applied (%s, %d statements)\n", result.Driver, result.Statements)
	return err
}
