package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/anonto42/nano-midea/feedgate/internal/middleware"
	"github.com/anonto42/nano-midea/feedgate/internal/router"
	"github.com/anonto42/nano-midea/feedgate/pkg/config"
	"github.com/anonto42/nano-midea/feedgate/pkg/firebase"
	"github.com/anonto42/nano-midea/feedgate/validators"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

var rootCmd = &cobra.Command{
	Use:           "feedgate",
	Short:         "Feed backend with optimistic bookmarks and upvotes",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE:  runServe,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the PostgreSQL schema and exit",
	RunE:  runMigrate,
}

func init() {
	rootCmd.AddCommand(serveCmd, migrateCmd)
}

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "loading .env: %v\n", err)
	}
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// bootstrap loads the config, builds the logger and connects the databases
func bootstrap(ctx context.Context) (*config.Config, *zap.Logger, *config.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load config: %w", err)
	}
	logger, err := config.NewLogger(cfg.Env)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("build logger: %w", err)
	}
	db, err := config.InitDB(ctx, cfg, logger)
	if err != nil {
		logger.Sync()
		return nil, nil, nil, err
	}
	return cfg, logger, db, nil
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	_, logger, db, err := bootstrap(cmd.Context())
	if err != nil {
		return err
	}
	defer logger.Sync()
	defer db.CloseDB()

	if err := router.Migrate(db.Postgres); err != nil {
		return err
	}
	logger.Info("PostgreSQL migrations applied")
	return nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, logger, db, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer logger.Sync()
	defer db.CloseDB()

	if err := router.Migrate(db.Postgres); err != nil {
		return err
	}

	fb, err := firebase.Init(ctx, cfg.FirebaseCredentialsPath, logger)
	if err != nil {
		return err
	}
	var opts router.Options
	if fb != nil {
		opts.IDTokens = middleware.IDTokenVerifier(fb.AuthClient)
	}
	opts.Mirror = router.NewCacheMirror(db, cfg)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = validators.NewValidator()
	config.SetupMiddleware(e, logger)

	services, err := router.SetupRoutes(e, cfg, router.NewRepositories(db), opts, logger)
	if err != nil {
		return err
	}
	defer services.Close()

	errc := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("port", cfg.Port), zap.String("env", cfg.Env))
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
