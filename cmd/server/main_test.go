package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"testing"
	"time"

	"cot-dashboard/internal/bot"
	"cot-dashboard/internal/config"
	"cot-dashboard/internal/job"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

func TestMainBootstrap(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mr := miniredis.RunT(t)

	var warmerStarted, schedulerStarted, botStarted, sweeperStarted bool
	restore := stubServerDeps(mr.Addr())
	defer restore()
	startSweeperFunc = func(*job.ChartSweeper, context.Context) { sweeperStarted = true }
	startWarmerFunc = func(*job.PriceWarmer, context.Context) { warmerStarted = true }
	startSchedulerFunc = func(*job.IngestScheduler, context.Context) { schedulerStarted = true }
	startTelegramBotFunc = func(string, logrus.FieldLogger, *bot.Replies) { botStarted = true }

	runMain(t)

	if !warmerStarted || !schedulerStarted || !botStarted || !sweeperStarted {
		t.Fatalf("background work not started: warmer=%v scheduler=%v bot=%v sweeper=%v", warmerStarted, schedulerStarted, botStarted, sweeperStarted)
	}
}

func TestMainBootstrapWithoutBackingServices(t *testing.T) {
	gin.SetMode(gin.TestMode)
	restore := stubServerDeps("")
	defer restore()

	loadConfigFunc = func() *config.Config {
		return &config.Config{
			RedisURL:            "localhost:1",
			DatabaseURL:         "postgres://localhost:1/cot",
			HTTPPort:            8080,
			CORSOrigins:         []string{"http://localhost:3000"},
			SessionTTLHours:     24,
			TrendLimit:          999,
			PriceLookbackDays:   730,
			PriceRateBurst:      5,
			PriceRateRefillSecs: 12,
		}
	}
	connectRedisFunc = func(context.Context, string, logrus.FieldLogger) (*redis.Client, error) {
		return nil, errors.New("connection refused")
	}
	connectDBFunc = func(context.Context, string, logrus.FieldLogger) (*pgxpool.Pool, error) {
		return nil, errors.New("connection refused")
	}
	startWarmerFunc = func(*job.PriceWarmer, context.Context) { t.Error("warmer must not start without a service account") }

	runMain(t)
}

func runMain(t *testing.T) {
	t.Helper()
	done := make(chan struct{})
	go func() {
		main()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("main did not exit")
	}
}

func stubServerDeps(redisAddr string) func() {
	origLoadEnv := loadEnvFunc
	origLoadConfig := loadConfigFunc
	origNewLogger := newLoggerFunc
	origInitTracer := initTracerFunc
	origConnectRedis := connectRedisFunc
	origConnectDB := connectDBFunc
	origStartWarmer := startWarmerFunc
	origStartScheduler := startSchedulerFunc
	origStartSweeper := startSweeperFunc
	origStartTelegram := startTelegramBotFunc
	origNewRouter := newRouterFunc
	origSetupSignal := setupSignalNotify
	origWait := waitForSignalFunc
	origStartHTTP := startHTTPServerFunc
	origShutdownHTTP := shutdownHTTPServerFunc

	loadEnvFunc = func(...string) error { return nil }
	loadConfigFunc = func() *config.Config {
		return &config.Config{
			RedisURL:            redisAddr,
			HTTPPort:            8080,
			CORSOrigins:         []string{"http://localhost:3000"},
			SessionTTLHours:     24,
			TrendLimit:          999,
			PriceLookbackDays:   730,
			PriceCacheSecs:      900,
			PriceRateBurst:      5,
			PriceRateRefillSecs: 12,
			PriceWarmSecs:       1800,
			QueryDiscardStale:   true,
			ServiceUsername:     "svc",
			ServicePassword:     "secret",
			IngestCron:          "0 6 * * 6",
			IngestLookbackDays:  14,
		}
	}
	newLoggerFunc = func(string, string) *logrus.Logger {
		log := logrus.New()
		log.SetLevel(logrus.PanicLevel)
		return log
	}
	initTracerFunc = func(ctx context.Context) (*sdktrace.TracerProvider, trace.Tracer, error) {
		tp := sdktrace.NewTracerProvider()
		return tp, tp.Tracer("test"), nil
	}
	connectRedisFunc = func(ctx context.Context, addr string, log logrus.FieldLogger) (*redis.Client, error) {
		return redis.NewClient(&redis.Options{Addr: addr}), nil
	}
	startWarmerFunc = func(*job.PriceWarmer, context.Context) {}
	startSchedulerFunc = func(*job.IngestScheduler, context.Context) {}
	startSweeperFunc = func(*job.ChartSweeper, context.Context) {}
	startTelegramBotFunc = func(string, logrus.FieldLogger, *bot.Replies) {}
	newRouterFunc = func(...gin.OptionFunc) *gin.Engine { return gin.New() }
	setupSignalNotify = func(c chan<- os.Signal, sig ...os.Signal) {}
	waitForSignalFunc = func(<-chan os.Signal) {}
	startHTTPServerFunc = func(*http.Server) error { return http.ErrServerClosed }
	shutdownHTTPServerFunc = func(*http.Server, context.Context) error { return nil }

	return func() {
		loadEnvFunc = origLoadEnv
		loadConfigFunc = origLoadConfig
		newLoggerFunc = origNewLogger
		initTracerFunc = origInitTracer
		connectRedisFunc = origConnectRedis
		connectDBFunc = origConnectDB
		startWarmerFunc = origStartWarmer
		startSchedulerFunc = origStartScheduler
		startSweeperFunc = origStartSweeper
		startTelegramBotFunc = origStartTelegram
		newRouterFunc = origNewRouter
		setupSignalNotify = origSetupSignal
		waitForSignalFunc = origWait
		startHTTPServerFunc = origStartHTTP
		shutdownHTTPServerFunc = origShutdownHTTP
	}
}
