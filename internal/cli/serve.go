package cli

import (
	"context"
	"log/slog"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/auditkit/ismsp/internal/config"
	"github.com/auditkit/ismsp/internal/dispatch"
	"github.com/auditkit/ismsp/internal/mcptools"
	"github.com/auditkit/ismsp/internal/store"
)

// Version is set at build time via ldflags.
var Version = "dev"

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the audit operations as MCP tools over stdio",
		Long: `Start the MCP server on stdin/stdout. The database is opened (and
created if missing) at the configured path; the requirement catalog is
adapted to whatever schema the database already carries.

Example:
  ismsp serve
  ISMS_DB_PATH=/var/lib/ismsp/audit.db ismsp serve --verbose`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(rootOpts)
		},
	}
}

func runServe(opts *RootOptions) error {
	cfg, err := config.Load(opts.Config)
	if err != nil {
		return err
	}

	slog.Info("opening database", "path", cfg.DBPath)
	st, err := store.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.EnsureSchema(context.Background()); err != nil {
		return err
	}

	d := dispatch.New(st, cfg.StoreThresholds(), cfg.Workers)
	defer d.Close()

	s := mcptools.New(d, cfg.StoreThresholds(), Version)
	slog.Info("serving MCP over stdio", "workers", cfg.Workers, "version", Version)
	return server.ServeStdio(s)
}
