package main

import (
	"context"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/hospify/hospify/internal/config"
	"github.com/hospify/hospify/internal/domain/appointment"
	"github.com/hospify/hospify/internal/domain/chatbot"
	"github.com/hospify/hospify/internal/domain/dispensing"
	"github.com/hospify/hospify/internal/domain/identity"
	"github.com/hospify/hospify/internal/domain/prescription"
	"github.com/hospify/hospify/internal/platform/apperr"
	"github.com/hospify/hospify/internal/platform/auth"
	"github.com/hospify/hospify/internal/platform/db"
	"github.com/hospify/hospify/internal/platform/logging"
	"github.com/hospify/hospify/internal/platform/middleware"
	"github.com/hospify/hospify/internal/platform/reporting"
	"github.com/hospify/hospify/internal/platform/validate"
	"github.com/hospify/hospify/migrations"
)

const tokenIssuer = "hospify"

func main() {
	rootCmd := &cobra.Command{
		Use:   "hospify-server",
		Short: "Hospify clinical workflow API server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(seedCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

// bootstrap loads config, builds the logger and opens the pool shared by
// every subcommand.
func bootstrap(ctx context.Context) (*config.Config, zerolog.Logger, *pgxpool.Pool, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, zerolog.Nop(), nil, err
	}
	logger := logging.New(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, logger, nil, err
	}

	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		return nil, logger, nil, err
	}
	return cfg, logger, pool, nil
}

// migrationSource returns the embedded migrations unless dir overrides them.
func migrationSource(dir string) fs.FS {
	if dir == "" {
		return migrations.FS
	}
	return os.DirFS(dir)
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			ctx := context.Background()
			_, logger, pool, err := bootstrap(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			count, err := db.NewMigrator(pool, migrationSource(dir), logger).Up(ctx)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}

			fmt.Printf("Applied %d migration(s) successfully.\n", count)
			return nil
		},
	}
	upCmd.Flags().String("dir", "", "Read migrations from this directory instead of the embedded set")
	cmd.AddCommand(upCmd)

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			ctx := context.Background()
			_, logger, pool, err := bootstrap(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			statuses, err := db.NewMigrator(pool, migrationSource(dir), logger).Status(ctx)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}

			fmt.Printf("%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
			fmt.Println("---------- ---------------------------------------- ---------- --------------------")
			for _, s := range statuses {
				status := "pending"
				appliedAt := ""
				if s.Applied {
					status = "applied"
					if s.AppliedAt != nil {
						appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
					}
				}
				fmt.Printf("%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
			}
			return nil
		},
	}
	statusCmd.Flags().String("dir", "", "Read migrations from this directory instead of the embedded set")
	cmd.AddCommand(statusCmd)

	return cmd
}

func seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Create the demo accounts and sample appointments",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			cfg, logger, pool, err := bootstrap(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			app, err := newApp(cfg, logger, pool)
			if err != nil {
				return err
			}
			return seed(ctx, app, logger)
		},
	}
}

// app holds the wired services.
type app struct {
	identity     *identity.Service
	appointments *appointment.Service
	prescription *prescription.Service
	dispensing   *dispensing.Service
	reporting    *reporting.Service
	chatbot      *chatbot.Bot
	validator    *validate.Validator
}

func newApp(cfg *config.Config, logger zerolog.Logger, pool *pgxpool.Pool) (*app, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	tx := db.NewTxManager(pool)
	v := validate.New(cfg.PhoneRegion)
	issuer := auth.NewTokenIssuer(tokenIssuer, []byte(cfg.JWTSecret), cfg.TokenTTL())

	idSvc := identity.NewService(identity.NewRepoPG(pool), tx, issuer, v.Phone, logger)
	apptRepo := appointment.NewRepoPG(pool)
	apptSvc := appointment.NewService(apptRepo, tx, idSvc, loc, logger)
	rxSvc := prescription.NewService(prescription.NewRepoPG(pool), apptRepo, tx, logger)

	return &app{
		identity:     idSvc,
		appointments: apptSvc,
		prescription: rxSvc,
		dispensing:   dispensing.NewService(dispensing.NewRepoPG(pool), rxSvc, tx, logger),
		reporting:    reporting.NewService(reporting.NewPoolCounter(pool), loc),
		chatbot:      chatbot.New(chatbot.DefaultRules),
		validator:    v,
	}, nil
}

// newEcho builds the HTTP server with the middleware chain and every route.
func newEcho(cfg *config.Config, logger zerolog.Logger, a *app, pinger db.Pinger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = a.validator
	e.HTTPErrorHandler = apperr.HTTPErrorHandler(logger)

	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", middleware.RequestIDHeader},
	}))
	e.Use(middleware.SecurityHeaders(cfg.IsProduction()))
	e.Use(middleware.BodyLimit("1M"))
	e.Use(middleware.RequestTimeout(30 * time.Second))
	e.Use(auth.JWTMiddleware(auth.JWTConfig{
		Issuer:     tokenIssuer,
		SigningKey: []byte(cfg.JWTSecret),
		Skipper:    auth.AuthSkipper,
	}))
	e.Use(identity.LoadAccount(a.identity))

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	e.GET("/health/db", db.HealthHandler(pinger))

	apiV1 := e.Group("/api/v1")
	rateLimitCfg := middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
	}
	if rateLimitCfg.RequestsPerSecond <= 0 {
		rateLimitCfg = middleware.DefaultRateLimitConfig()
	}
	apiV1.Use(middleware.RateLimit(rateLimitCfg))
	apiV1.Use(middleware.Audit(logger))

	identity.NewHandler(a.identity).RegisterRoutes(apiV1)
	appointment.NewHandler(a.appointments).RegisterRoutes(apiV1)
	prescription.NewHandler(a.prescription).RegisterRoutes(apiV1)
	dispensing.NewHandler(a.dispensing).RegisterRoutes(apiV1)
	reporting.NewHandler(a.reporting).RegisterRoutes(apiV1)
	chatbot.NewHandler(a.chatbot).RegisterRoutes(apiV1)

	e.Server.ReadHeaderTimeout = 10 * time.Second
	e.Server.ReadTimeout = 15 * time.Second
	e.Server.WriteTimeout = 45 * time.Second
	e.Server.IdleTimeout = 60 * time.Second
	return e
}

func runServer() error {
	ctx := context.Background()
	cfg, logger, pool, err := bootstrap(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("startup failed")
		return err
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	a, err := newApp(cfg, logger, pool)
	if err != nil {
		return err
	}
	e := newEcho(cfg, logger, a, pool)

	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server shutdown failed")
		return err
	}
	logger.Info().Msg("server stopped")
	return nil
}
