package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"

	"github.com/go-chi/httplog/v2"
	goredis "github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/indicina/url-shortener/internal/adapter/repository/memory"
	"github.com/indicina/url-shortener/internal/config"
	"github.com/indicina/url-shortener/internal/entity"
	"github.com/indicina/url-shortener/internal/shortcode"
	"github.com/indicina/url-shortener/internal/usecase"
	"github.com/indicina/url-shortener/pkg/postgres"

	delivery "github.com/indicina/url-shortener/internal/adapter/delivery/http"
	postgresRepo "github.com/indicina/url-shortener/internal/adapter/repository/postgres"
	redisRepo "github.com/indicina/url-shortener/internal/adapter/repository/redis"
)

type urlStore interface {
	Create(ctx context.Context, url *entity.URL) error
	Get(ctx context.Context, shortCode string) (*entity.URL, error)
	Has(ctx context.Context, shortCode string) (bool, error)
	Values(ctx context.Context) ([]entity.URL, error)
	IncrementVisits(ctx context.Context, shortCode string) (*entity.URL, error)
	IncrementSearches(ctx context.Context, shortCodes ...string) error
	SetStatus(ctx context.Context, shortCode string, status entity.Status) (*entity.URL, error)
	Ping(ctx context.Context) error
}

// NewLogger builds the application logger: JSON in prod, concise text otherwise.
func NewLogger(cfg *config.Config) *httplog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		level = slog.LevelInfo
	}

	prod := cfg.Env == config.EnvProd

	return httplog.NewLogger("url-shortener", httplog.Options{
		LogLevel:       level,
		JSON:           prod,
		Concise:        !prod,
		RequestHeaders: prod,
		Tags: map[string]string{
			"env": cfg.Env,
		},
	})
}

func newStore(ctx context.Context, logger *slog.Logger, cfg *config.Config) (urlStore, func() error, error) {
	const op = "app.newStore"

	switch cfg.Storage.Driver {
	case config.DriverPostgres:
		dsn := cfg.Postgres.DSN()

		db, err := postgres.New(
			ctx,
			dsn,
			postgres.WithConnMaxIdleTime(cfg.Postgres.ConnMaxIdleTime),
			postgres.WithConnMaxLifetime(cfg.Postgres.ConnMaxLifetime),
			postgres.WithMaxIdleConns(cfg.Postgres.MaxIdleConns),
			postgres.WithMaxOpenConns(cfg.Postgres.MaxOpenConns),
		)
		if err != nil {
			return nil, nil, fmt.Errorf("%s: failed to connect to database: %w", op, err)
		}

		version, err := postgres.RunMigrations(cfg.Postgres.MigrationsPath, dsn)
		if err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("%s: failed to run migrations: %w", op, err)
		}
		logger.Info("database schema is up to date", slog.Uint64("version", uint64(version)))

		return postgresRepo.NewURLRepository(db), db.Close, nil
	case config.DriverRedis:
		client := goredis.NewClient(&goredis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})

		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, nil, fmt.Errorf("%s: failed to connect to redis: %w", op, err)
		}

		return redisRepo.NewURLRepository(client), client.Close, nil
	default:
		return memory.NewURLRepository(), func() error { return nil }, nil
	}
}

func Run(ctx context.Context, cfg *config.Config) error {
	const op = "app.Run"

	logger := NewLogger(cfg)

	store, closeStore, err := newStore(ctx, logger.Logger, cfg)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer closeStore()

	codeGen := shortcode.New(
		store,
		shortcode.WithLength(cfg.ShortCode.Length),
		shortcode.WithMaxAttempts(cfg.ShortCode.MaxAttempts),
	)
	urlUseCase := usecase.New(cfg.BaseURL, store, codeGen)

	server := &http.Server{
		Addr:           cfg.HTTPServer.Addr(),
		Handler:        delivery.NewRouter(logger, urlUseCase, store),
		ReadTimeout:    cfg.HTTPServer.ReadTimeout,
		WriteTimeout:   cfg.HTTPServer.WriteTimeout,
		IdleTimeout:    cfg.HTTPServer.IdleTimeout,
		MaxHeaderBytes: cfg.HTTPServer.MaxHeaderBytes,
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("starting server",
			slog.String("addr", server.Addr),
			slog.String("env", cfg.Env),
			slog.String("storage", cfg.Storage.Driver),
		)

		var err error

		switch cfg.Env {
		case config.EnvProd:
			err = server.ListenAndServeTLS(cfg.HTTPServer.CertFile, cfg.HTTPServer.KeyFile)
		default:
			err = server.ListenAndServe()
		}

		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("%s: server error occurred: %w", op, err)
		}

		return nil
	})

	g.Go(func() error {
		<-ctx.Done()

		logger.Info("shutting down server")

		if err := server.Shutdown(context.Background()); err != nil {
			return fmt.Errorf("%s: failed to shutdown server: %w", op, err)
		}

		return nil
	})

	return g.Wait()
}
