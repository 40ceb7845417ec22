package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/gumrukcum/gumrukcum-api/internal/application"
	appanalysis "github.com/gumrukcum/gumrukcum-api/internal/application/analysis"
	"github.com/gumrukcum/gumrukcum-api/internal/config"
	"github.com/gumrukcum/gumrukcum-api/internal/domain/account"
	"github.com/gumrukcum/gumrukcum-api/internal/domain/ai"
	domain "github.com/gumrukcum/gumrukcum-api/internal/domain/analysis"
	"github.com/gumrukcum/gumrukcum-api/internal/infra/ai/gemini"
	"github.com/gumrukcum/gumrukcum-api/internal/infra/ai/openai"
	"github.com/gumrukcum/gumrukcum-api/internal/infra/ai/prompt"
	"github.com/gumrukcum/gumrukcum-api/internal/infra/auth"
	"github.com/gumrukcum/gumrukcum-api/internal/infra/cache"
	mysqlp "github.com/gumrukcum/gumrukcum-api/internal/infra/db/mysql"
	"github.com/gumrukcum/gumrukcum-api/internal/infra/db/postgres"
	"github.com/gumrukcum/gumrukcum-api/internal/infra/db/sqlite"
	"github.com/gumrukcum/gumrukcum-api/internal/infra/httpserver"
	minioStore "github.com/gumrukcum/gumrukcum-api/internal/infra/storage"
	"github.com/gumrukcum/gumrukcum-api/internal/middleware"
)

func main() {
	// path config.yaml
	path := "config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		path = v
	}

	cfg, err := config.Load(path)
	if err != nil {
		log.Fatal().Err(err).Msg("config load error")
	}
	setupLogging(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.Fatal().Err(err).Msg("server stopped with error")
	}
	log.Info().Msg("shutdown complete")
}

func setupLogging(cfg *config.Config) {
	level, err := zerolog.ParseLevel(cfg.Log.Level)
	if err != nil || cfg.Log.Level == "" {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	if cfg.Log.Format == "console" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
	// loggers taken from a context without a request scope fall back to the global one
	zerolog.DefaultContextLogger = &log.Logger
}

func run(ctx context.Context, cfg *config.Config) error {
	db, profiles, history, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()
	log.Info().Str("driver", cfg.Database.Driver).Msg("database connected")

	verifier, err := newVerifier(cfg)
	if err != nil {
		return err
	}

	generator, err := newGenerator(ctx, cfg)
	if err != nil {
		return err
	}

	ledger := &appanalysis.Ledger{Profiles: profiles, History: history, Clock: application.SystemClock{}}
	if cfg.Minio.Enabled {
		store, err := minioStore.New(ctx, minioStore.Config{
			Endpoint:  cfg.Minio.Endpoint,
			Region:    cfg.Minio.Region,
			Bucket:    cfg.Minio.BucketName,
			AccessKey: cfg.Minio.AccessKey,
			SecretKey: cfg.Minio.SecretKey,
			UseSSL:    cfg.Minio.UseSSL,
			PublicURL: cfg.Minio.PublicURL,
		})
		if err != nil {
			return fmt.Errorf("minio init: %w", err)
		}
		ledger.Images = store
		log.Info().Str("bucket", cfg.Minio.BucketName).Msg("image archive enabled")
	}

	svc := &appanalysis.Service{
		Verifier:  verifier,
		Profiles:  profiles,
		History:   history,
		Generator: generator,
		Prompts:   prompt.Customs{},
		Tiers:     account.NewTierTable(cfg.TierModels()),
		Ledger:    ledger,
		Timeout:   cfg.AI.Timeout,
	}

	checkers := map[string]middleware.HealthChecker{
		"database": &middleware.DatabaseHealthChecker{DB: db},
	}
	var limiter middleware.Limiter
	if cfg.RateLimit.Enabled {
		if cfg.Redis.URL != "" {
			rc, err := cache.New(ctx, cfg.Redis.URL)
			if err != nil {
				return fmt.Errorf("redis init: %w", err)
			}
			defer rc.Close()
			checkers["redis"] = rc
			limiter = rc.NewRateLimiter(cfg.RateLimit.Burst, cfg.RateLimit.PerMinute)
			log.Info().Msg("rate limiting via redis")
		} else {
			limiter = middleware.NewRateLimiter(ctx, cfg.RateLimit.Burst, cfg.RateLimit.PerMinute)
			log.Info().Msg("rate limiting in memory")
		}
	}

	srv := &http.Server{
		Addr: fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: httpserver.NewRouter(svc, httpserver.Options{
			MaxBodyBytes:   cfg.Server.MaxBodyBytes,
			CORSOrigins:    cfg.CORS.Origins,
			Limiter:        limiter,
			HealthCheckers: checkers,
		}),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("addr", srv.Addr).Str("provider", cfg.AI.Provider).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		log.Info().Msg("shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func openStore(ctx context.Context, cfg *config.Config) (*sql.DB, account.ProfileRepository, domain.HistoryRepository, error) {
	switch cfg.Database.Driver {
	case "mysql":
		db, err := mysqlp.Connect(ctx, cfg.DSN())
		if err != nil {
			return nil, nil, nil, fmt.Errorf("mysql connect: %w", err)
		}
		if cfg.Database.Migrate {
			if err := mysqlp.Migrate(ctx, db); err != nil {
				db.Close()
				return nil, nil, nil, fmt.Errorf("mysql migrate: %w", err)
			}
		}
		return db, mysqlp.NewProfileRepository(db), mysqlp.NewHistoryRepository(db), nil
	case "sqlite":
		db, err := sqlite.Open(ctx, cfg.DSN())
		if err != nil {
			return nil, nil, nil, err
		}
		return db, sqlite.NewProfileRepository(db), sqlite.NewHistoryRepository(db), nil
	default:
		db, err := postgres.Connect(ctx, cfg.DSN())
		if err != nil {
			return nil, nil, nil, fmt.Errorf("postgres connect: %w", err)
		}
		if cfg.Database.Migrate {
			if err := postgres.Migrate(ctx, db); err != nil {
				db.Close()
				return nil, nil, nil, fmt.Errorf("postgres migrate: %w", err)
			}
		}
		return db, postgres.NewProfileRepository(db), postgres.NewHistoryRepository(db), nil
	}
}

func newVerifier(cfg *config.Config) (account.Verifier, error) {
	if cfg.Auth.Mode == "supabase" {
		return auth.NewSupabaseVerifier(cfg.Auth.SupabaseURL, cfg.Auth.SupabaseAnonKey, 0), nil
	}
	v, err := auth.NewJWTVerifier(auth.JWTConfig{
		Secret:   cfg.Auth.JWTSecret,
		JWKSURL:  cfg.Auth.JWKSURL,
		Issuer:   cfg.Auth.Issuer,
		Audience: cfg.Auth.Audience,
	})
	if err != nil {
		return nil, fmt.Errorf("jwt verifier: %w", err)
	}
	return v, nil
}

func newGenerator(ctx context.Context, cfg *config.Config) (ai.Generator, error) {
	if cfg.AI.Provider == "openai" {
		return openai.NewClient(cfg.AI.OpenAIAPIKey, cfg.AI.OpenAIBaseURL), nil
	}
	return gemini.NewClient(ctx, gemini.Config{APIKey: cfg.AI.GeminiAPIKey})
}
