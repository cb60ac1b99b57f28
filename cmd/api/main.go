// cmd/api/main.go
package main

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"

	"github.com/briangreenhill/occapi/cache"
	"github.com/briangreenhill/occapi/internal/catalogue"
	"github.com/briangreenhill/occapi/internal/config"
	"github.com/briangreenhill/occapi/internal/entity"
	"github.com/briangreenhill/occapi/internal/fetch"
	"github.com/briangreenhill/occapi/internal/http/routes"
	"github.com/briangreenhill/occapi/internal/meta"
	"github.com/briangreenhill/occapi/internal/providers"
)

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("load config")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid config")
	}
	lvl, _ := cfg.Level()
	logger = logger.Level(lvl)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Providers
	registry, err := providers.LoadFile(cfg.ProvidersFile)
	if err != nil {
		logger.Fatal().Err(err).Str("path", cfg.ProvidersFile).Msg("load providers")
	}

	// Cache
	store, err := cfg.OpenStore(ctx)
	if err != nil {
		logger.Fatal().Err(err).Str("store", cfg.Store).Msg("open cache store")
	}
	if c, ok := store.(io.Closer); ok {
		defer c.Close() //nolint:errcheck
	}

	client := fetch.New(fetch.WithTimeout(cfg.FetchTimeout), fetch.WithLogger(logger))
	loader := cache.NewLoader(store, client, cache.WithLogger(logger))

	// Entities
	var entities entity.Lookup = entity.NewMemoryStore()
	if cfg.HasDatabase() {
		sqlStore, err := entity.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("db error")
		}
		defer sqlStore.Close() //nolint:errcheck
		entities = sqlStore
	} else {
		logger.Warn().Msg("OCCAPI_DATABASE_URL not set, metadata tables will be empty")
	}

	// Router / server
	s := routes.New(routes.ServerOptions{
		Catalogue: catalogue.NewService(registry, loader, catalogue.WithLogger(logger)),
		Registry:  registry,
		Entities:  entities,
		Resolver:  meta.NewResolver(entities, meta.WithLogger(logger)),
	})

	h := hlog.NewHandler(logger)(
		hlog.RequestIDHandler("req_id", "X-Request-Id")(
			hlog.AccessHandler(func(r *http.Request, status, size int, duration time.Duration) {
				hlog.FromRequest(r).Info().
					Str("method", r.Method).
					Stringer("url", r.URL).
					Int("status", status).
					Int("size", size).
					Dur("duration", duration).
					Msg("request")
			})(s.Router),
		),
	)

	srv := &http.Server{Addr: cfg.Addr, Handler: h, ReadHeaderTimeout: 10 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("shutdown")
		}
	}()

	logger.Info().Str("addr", cfg.Addr).Int("providers", len(registry.List())).Msg("starting occapi api")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal().Err(err).Msg("server error")
	}
}
