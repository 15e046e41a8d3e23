package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"passportsheet/internal/http/handlers"
	httpapi "passportsheet/internal/http/httpapi"
	"passportsheet/internal/infra"
	"passportsheet/internal/infra/credentials"
	"passportsheet/internal/infra/geoip"
	"passportsheet/internal/passport"
	"passportsheet/internal/providers/genai"
)

func main() {
	// .env is optional
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var store handlers.CredentialStore
	if cfg.UsesDatabase() {
		dbpool, err := infra.NewDBPool(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect database")
		}
		defer dbpool.Close()
		pgStore := credentials.NewStore(infra.NewSQLRunner(dbpool, logger))
		if err := pgStore.EnsureSchema(ctx); err != nil {
			logger.Fatal().Err(err).Msg("failed to prepare credential table")
		}
		store = pgStore
	} else {
		logger.Warn().Msg("DATABASE_URL not set, stored credentials live in memory only")
		store = credentials.NewMemoryStore()
	}

	resolver, err := geoip.Open(cfg.GeoIPDBPath)
	if err != nil {
		logger.Warn().Err(err).Msg("geoip database unavailable, locale falls back to headers")
	}
	defer resolver.Close()

	client := genai.NewClient(genai.Options{
		BaseURL:    cfg.GeminiBaseURL,
		Model:      cfg.GeminiModel,
		HTTPClient: &http.Client{Timeout: cfg.GeminiTimeout},
		Logger:     &logger,
	})
	svc := passport.NewService(passport.Options{
		Editor:         client,
		Credentials:    store,
		FallbackAPIKey: cfg.GeminiAPIKey,
		Tracker:        passport.NewTracker(cfg.SessionTTL),
		Logger:         &logger,
	})

	app := handlers.NewApp(cfg, logger, svc, store)
	app.CountryLookup = resolver.Lookup()
	server := infra.NewHTTPServer(cfg, httpapi.NewRouter(app))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info().Str("addr", server.Addr()).Str("model", client.Model()).Msg("API listening")
		return server.Start()
	})
	g.Go(func() error {
		return svc.RunJanitor(gctx, cfg.SessionTTL/4)
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error().Err(err).Msg("server stopped with error")
		os.Exit(1)
	}
	logger.Info().Msg("server stopped")
}
