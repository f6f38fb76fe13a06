package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/auditkit/ismsp/internal/config"
	"github.com/auditkit/ismsp/internal/store"
)

// NewInitCommand creates the init command.
func NewInitCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Provision the database and load the sample requirement catalog",
		Long: `Create the database file if it does not exist, provision the canonical
requirement catalog table and load the sample ISMS-P requirements.
Re-running is safe: existing rows are never overwritten.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(rootOpts, cmd)
		},
	}
}

func runInit(opts *RootOptions, cmd *cobra.Command) error {
	cfg, err := config.Load(opts.Config)
	if err != nil {
		return err
	}

	st, err := store.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer st.Close()

	count, err := st.Seed(context.Background())
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "database ready at %s: %d requirements\n", cfg.DBPath, count)
	return nil
}
