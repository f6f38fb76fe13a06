package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/auditkit/ismsp/internal/config"
	"github.com/auditkit/ismsp/internal/store"
)

// NewVerifyCommand creates the verify command.
func NewVerifyCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "Inspect the database: schema shape, catalog counts, coverage",
		Long: `Print what the audit database actually contains: which catalog shape
was detected, how many requirements each chapter holds, and the current
evidence coverage. Useful after init or when pointing at an externally
provisioned database.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVerify(rootOpts, cmd)
		},
	}
}

func runVerify(opts *RootOptions, cmd *cobra.Command) error {
	cfg, err := config.Load(opts.Config)
	if err != nil {
		return err
	}
	ctx := context.Background()
	out := cmd.OutOrStdout()

	st, err := store.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.EnsureSchema(ctx); err != nil {
		return err
	}

	fmt.Fprintf(out, "database: %s\n", cfg.DBPath)

	total, err := st.CountRequirements(ctx, "")
	if store.IsSchemaMissing(err) {
		fmt.Fprintln(out, "catalog:  missing (run `ismsp init` to provision)")
		return nil
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "catalog:  %d requirements\n", total)

	chapters, err := st.CountByChapter(ctx)
	if err != nil {
		return err
	}
	for _, ch := range chapters {
		fmt.Fprintf(out, "  chapter %s: %d\n", ch.Chapter, ch.Count)
	}

	cov, err := st.OverallCompliance(ctx, "")
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "coverage: %d/%d (%.1f%%)\n", cov.Covered, cov.Total, cov.Rate)
	return nil
}
