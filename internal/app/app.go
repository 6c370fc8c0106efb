// Package app assembles the intega command line: the API server, its
// maintenance commands and the API client commands.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/intega/platform/internal/config"
	"github.com/intega/platform/internal/db"
	"github.com/intega/platform/internal/handlers"
	"github.com/intega/platform/internal/httpserver"
	"github.com/intega/platform/internal/logging"
	"github.com/intega/platform/internal/middleware"
)

// ErrReported marks a failure that has already been shown to the user.
var ErrReported = errors.New("error already reported")

// Run bootstraps the Intega command line with args (excluding the program name).
func Run(ctx context.Context, args []string) error {
	return execute(ctx, args, os.Stdout, os.Stderr)
}

func execute(ctx context.Context, args []string, out, errOut io.Writer) error {
	root := newRootCmd()
	root.SetArgs(args)
	root.SetOut(out)
	root.SetErr(errOut)
	return root.ExecuteContext(ctx)
}

// globalFlags are shared by every command.
type globalFlags struct {
	apiURL string
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}
	root := &cobra.Command{
		Use:           "intega",
		Short:         "Intega internship placement platform",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&flags.apiURL, "api", "", "API base URL (defaults to INTEGA_API_URL)")

	root.AddCommand(
		newServeCmd(),
		newMigrateCmd(),
		newSeedCmd(),
		newSignUpCmd(flags),
		newLoginCmd(flags),
		newLogoutCmd(flags),
		newInternshipsCmd(flags),
		newApplicationsCmd(flags),
		newDocumentsCmd(flags),
		newRequestsCmd(flags),
		newPartnershipsCmd(flags),
		newMessagesCmd(flags),
		newDashboardCmd(flags),
	)
	return root
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context())
		},
	}
}

func serve(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := logging.New(os.Stdout, cfg.LogLevel)
	slog.SetDefault(logger)
	if cfg.UsesDevSecret() {
		logger.Warn("using the built-in development JWT secret; set INTEGA_JWT_SECRET in production")
	}

	deps, cleanup, err := buildDependencies(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), httpserver.ShutdownTimeout)
		defer cancel()
		if err := cleanup(shutdownCtx); err != nil {
			logger.Error("release dependencies", "error", err)
		}
	}()

	mux := http.NewServeMux()
	handlers.RegisterRoutes(mux, deps)
	handler := middleware.RequestLogger(logger)(mux)
	if cfg.TrustProxy {
		handler = middleware.ForwardedFor(handler)
	}

	logger.Info("starting http server", "port", cfg.AppPort, "store", cfg.Store, "storage", cfg.Storage.Backend)
	return httpserver.New(cfg.AppPort, handler).Run(ctx, nil, logger)
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "migrate [up|down|status]",
		Short:     "Apply or inspect database migrations",
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"up", "down", "status"},
		RunE: func(cmd *cobra.Command, args []string) error {
			command := "up"
			if len(args) > 0 {
				command = args[0]
			}
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cfg.Store != config.StorePostgres {
				return fmt.Errorf("migrations require the postgres store (INTEGA_STORE=%s)", cfg.Store)
			}
			pool, err := db.Connect(cmd.Context(), cfg.DatabaseURL, int32(cfg.DatabaseMaxConns))
			if err != nil {
				return err
			}
			defer pool.Close()
			return db.Migrate(cmd.Context(), pool, command, cmd.OutOrStdout())
		},
	}
}
