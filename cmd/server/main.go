package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cot-dashboard/internal/bot"
	"cot-dashboard/internal/cache"
	"cot-dashboard/internal/chart"
	"cot-dashboard/internal/config"
	"cot-dashboard/internal/db"
	"cot-dashboard/internal/handler"
	"cot-dashboard/internal/job"
	"cot-dashboard/internal/logging"
	"cot-dashboard/internal/provider"
	"cot-dashboard/internal/query"
	"cot-dashboard/internal/repository"
	"cot-dashboard/internal/service"
	"cot-dashboard/internal/session"
	"cot-dashboard/pkg/tracing"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	_ "cot-dashboard/docs"
)

var (
	loadEnvFunc            = godotenv.Load
	loadConfigFunc         = config.Load
	newLoggerFunc          = logging.New
	initTracerFunc         = tracing.InitTracer
	connectRedisFunc       = cache.Connect
	connectDBFunc          = db.Connect
	startWarmerFunc        = func(w *job.PriceWarmer, ctx context.Context) { go w.Start(ctx) }
	startSchedulerFunc     = func(s *job.IngestScheduler, ctx context.Context) { go s.Start(ctx) }
	startSweeperFunc       = func(s *job.ChartSweeper, ctx context.Context) { go s.Start(ctx) }
	startTelegramBotFunc   = bot.StartTelegramBot
	newRouterFunc          = gin.Default
	setupSignalNotify      = signal.Notify
	waitForSignalFunc      = func(quit <-chan os.Signal) { <-quit }
	startHTTPServerFunc    = func(srv *http.Server) error { return srv.ListenAndServe() }
	shutdownHTTPServerFunc = func(srv *http.Server, ctx context.Context) error { return srv.Shutdown(ctx) }
)

// @title           COT Dashboard API
// @version         1.0
// @description     Backend for the Commitment of Traders dashboard: ingest, browse and chart COT reports with a price/volume overlay.

// @host      localhost:8080
// @BasePath  /
func main() {
	_ = loadEnvFunc()

	cfg := loadConfigFunc()
	log := newLoggerFunc(cfg.LogLevel, cfg.LogFormat)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tp, tracer, err := initTracerFunc(ctx)
	if err != nil {
		log.WithError(err).Fatal("failed to initialize tracer")
	}
	defer func() {
		if err := tp.Shutdown(ctx); err != nil {
			log.WithError(err).Warn("error shutting down tracer provider")
		}
	}()

	// Redis backs sessions and the price cache; without it both stay in process.
	var (
		sessions   session.Store = session.NewMemoryStore(time.Duration(cfg.SessionTTLHours) * time.Hour)
		priceCache cache.JSONStore
		deps       = handler.Dependencies{CotBackend: cfg.CotAPIBaseURL}
	)
	if cfg.RedisURL != "" {
		client, err := connectRedisFunc(ctx, cfg.RedisURL, log)
		if err != nil {
			log.WithError(err).Warn("redis unavailable, using in-memory sessions and no price cache")
		} else {
			defer client.Close()
			sessions = session.NewRedisStore(client, time.Duration(cfg.SessionTTLHours)*time.Hour)
			priceCache = client
			deps.Redis = true
		}
	}

	var runs service.IngestRunRecorder
	if cfg.DatabaseURL != "" {
		pool, err := connectDBFunc(ctx, cfg.DatabaseURL, log)
		if err != nil {
			log.WithError(err).Warn("postgres unavailable, ingest history disabled")
		} else {
			defer pool.Close()
			runs = repository.NewIngestRunRepository(pool, tracer)
			deps.Postgres = true
		}
	}

	client := provider.NewCotClient(tracer, log,
		provider.WithBaseURL(cfg.CotAPIBaseURL),
		provider.WithPriceLimiter(provider.NewRateLimiter(cfg.PriceRateBurst, time.Duration(cfg.PriceRateRefillSecs)*time.Second)),
	)
	lookback := time.Duration(cfg.PriceLookbackDays) * 24 * time.Hour
	cotService := service.NewCotService(tracer, log, client, runs, cfg.TrendLimit)
	priceService := service.NewPriceService(tracer, log, client, priceCache, time.Duration(cfg.PriceCacheSecs)*time.Second, lookback)
	loader := query.NewLoader(tracer, log, cotService, priceService,
		query.WithTrendLimit(cfg.TrendLimit),
		query.WithLookback(lookback),
	)
	charts := chart.NewRegistry(cfg.QueryDiscardStale)
	startSweeperFunc(job.NewChartSweeper(log, charts, time.Duration(cfg.SessionTTLHours)*time.Hour), ctx)

	// Background work runs as the service account.
	account := session.NewServiceAccount(client, cfg.ServiceUsername, cfg.ServicePassword)
	if account.Configured() {
		startWarmerFunc(job.NewPriceWarmer(tracer, log, priceService, account, nil, cfg.PriceWarmSecs), ctx)

		scheduler := job.NewIngestScheduler(log, cotService, account, cfg.IngestCommodities, cfg.IngestLookbackDays)
		if err := scheduler.Schedule(ctx, cfg.IngestCron); err != nil {
			log.WithError(err).Error("ingest schedule disabled")
		} else {
			startSchedulerFunc(scheduler, ctx)
		}

		startTelegramBotFunc(cfg.TelegramBotToken, log, bot.NewReplies(cotService, account))
	} else {
		log.Info("SERVICE_USERNAME/SERVICE_PASSWORD not set, background jobs and Telegram bot disabled")
	}

	h := handler.New(tracer, log, client, sessions, time.Duration(cfg.SessionTTLHours)*time.Hour, cotService, priceService, loader, charts)
	h.SetDependencies(deps)

	r := newRouterFunc()
	r.Use(otelgin.Middleware("cot-dashboard"))
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", handler.SessionHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	h.RegisterRoutes(r)
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler: r,
	}

	go func() {
		log.WithField("addr", srv.Addr).Info("HTTP server listening")
		if err := startHTTPServerFunc(srv); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("listen")
		}
	}()

	quit := make(chan os.Signal, 1)
	setupSignalNotify(quit, syscall.SIGINT, syscall.SIGTERM)
	waitForSignalFunc(quit)
	log.Info("Shutting down server...")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := shutdownHTTPServerFunc(srv, shutdownCtx); err != nil {
		log.WithError(err).Fatal("Server forced to shutdown")
	}

	log.Info("Server exiting")
}
