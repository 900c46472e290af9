// File: cmd/app/main.go
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"flixgo-client/internal/config"
	"flixgo-client/internal/domain/ports/adapter"
	"flixgo-client/internal/domain/ports/repository"
	payAdapters "flixgo-client/internal/infra/adapters/payment"
	"flixgo-client/internal/infra/adapters/ui"
	"flixgo-client/internal/infra/api"
	"flixgo-client/internal/infra/api/apiv1"
	"flixgo-client/internal/infra/backend"
	"flixgo-client/internal/infra/i18n"
	"flixgo-client/internal/infra/logging"
	"flixgo-client/internal/infra/metrics"
	red "flixgo-client/internal/infra/redis"
	"flixgo-client/internal/infra/sched"
	"flixgo-client/internal/infra/scheduler"
	"flixgo-client/internal/infra/store"
	"flixgo-client/internal/usecase"
)

var version = "dev"

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (verbose logs, unmasked phone numbers)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		boot := logging.New(config.LogConfig{Level: "info", Format: "console"}, true)
		boot.Fatal().Err(err).Msg("config")
	}
	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Info().Msg("[DEV MODE] Enabled")
	}

	metrics.MustRegister()
	metrics.SetBuildInfo(version, cfg.Store.Driver)

	// ---- Store ----
	kv, closer, err := store.Open(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("store")
	}
	defer closer.Close()
	if cfg.Backend.Token != "" {
		if err := kv.Set(ctx, repository.KeyToken, cfg.Backend.Token); err != nil {
			logger.Fatal().Err(err).Msg("seed token")
		}
	}

	// ---- View layer ----
	tr, err := i18n.NewTranslator(i18n.LocalesFS, cfg.UI.Locale)
	if err != nil {
		logger.Warn().Err(err).Str("locale", cfg.UI.Locale).Msg("unknown locale; falling back to english")
		tr, _ = i18n.NewTranslator(i18n.LocalesFS, i18n.DefaultLocale)
	}
	toaster := ui.NewToaster(os.Stdout, tr, logger)
	router := ui.NewRouter(logger)

	// ---- Backend ----
	apiClient, err := backend.NewClient(backend.Options{
		BaseURL:   cfg.Backend.BaseURL,
		Timeout:   cfg.Backend.Timeout,
		RateLimit: cfg.Backend.RateLimit,
		Burst:     cfg.Backend.Burst,
	}, kv, router, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("backend client")
	}
	var catalog adapter.Catalog = backend.NewCatalog(apiClient, cfg.Backend.MediaBaseURL)

	// ---- Redis (optional: catalog cache + checkout rate limit) ----
	var limiter adapter.RateLimiter
	if cfg.Redis.URL != "" {
		redisClient, err := red.NewClient(ctx, &cfg.Redis)
		if err != nil {
			logger.Fatal().Err(err).Msg("redis")
		}
		defer redisClient.Close()
		cache := red.NewCatalogCacheDecorator(catalog, redisClient, cfg.Redis.CacheTTL, logger)
		catalog = cache
		limiter = red.NewRateLimiter(redisClient, cfg.Payment.RateLimit, cfg.Payment.RateWindow)
		if cfg.Redis.RefreshInterval > 0 {
			refresher := scheduler.NewScheduler(cfg.Redis.RefreshInterval, cache, logger)
			refresher.Start(ctx)
			defer refresher.Stop()
		}
	}

	gateway, err := payAdapters.NewMpesaGateway(apiClient)
	if err != nil {
		logger.Fatal().Err(err).Msg("mpesa gateway")
	}

	// ---- Use cases ----
	planUC := usecase.NewPlanUseCase(catalog, kv, logger)
	progressUC := usecase.NewProgressUseCase(kv, logger)
	checkoutUC := usecase.NewCheckoutUseCase(catalog, gateway, kv, sched.RealScheduler{}, toaster, router, limiter,
		usecase.CheckoutOptions{
			PollInterval:  cfg.Payment.PollInterval,
			MaxAttempts:   cfg.Payment.MaxAttempts,
			RedirectDelay: cfg.Payment.RedirectDelay,
			RevealPII:     cfg.Runtime.Dev,
		}, logger)
	defer checkoutUC.Close()

	// ---- Control API ----
	handler := api.NewRouter(apiv1.NewServer(planUC, checkoutUC, progressUC, logger), cfg.HTTP.RequestTimeout, logger)
	server := api.NewServer(cfg.HTTP.Port, handler, logger)
	go func() {
		if err := server.Start(); err != nil {
			logger.Error().Err(err).Msg("http server error")
			cancel()
		}
	}()

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigc:
	case <-ctx.Done():
	}
	logger.Info().Msg("shutdown requested")

	shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
	defer stop()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("http shutdown")
	}
}
