package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	ossignal "os/signal"
	"syscall"
	"time"

	"cot-dashboard/internal/config"
	"cot-dashboard/internal/logging"
	"cot-dashboard/internal/mcpserver"
	"cot-dashboard/internal/provider"
	"cot-dashboard/internal/service"
	"cot-dashboard/internal/session"
	"cot-dashboard/pkg/tracing"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

var (
	loadEnvFunc            = godotenv.Load
	loadConfigFunc         = config.Load
	newLoggerFunc          = logging.New
	initTracerFunc         = tracing.InitTracer
	runStdioFunc           = func(s *mcpserver.Server, ctx context.Context) error { return s.RunStdio(ctx) }
	startHTTPServerFunc    = func(srv *http.Server) error { return srv.ListenAndServe() }
	shutdownHTTPServerFunc = func(srv *http.Server, ctx context.Context) error { return srv.Shutdown(ctx) }
	setupSignalNotify      = ossignal.Notify
	waitForSignalFunc      = func(quit <-chan os.Signal) { <-quit }
)

func main() {
	_ = loadEnvFunc()
	cfg := loadConfigFunc()
	// Logs go to stderr; stdout carries the protocol on the stdio transport.
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

	if !cfg.HasServiceAccount() {
		log.Warn("SERVICE_USERNAME/SERVICE_PASSWORD not set, COT tools will fail until configured")
	}

	client := provider.NewCotClient(tracer, log, provider.WithBaseURL(cfg.CotAPIBaseURL))
	cot := service.NewCotService(tracer, log, client, nil, cfg.TrendLimit)
	account := session.NewServiceAccount(client, cfg.ServiceUsername, cfg.ServicePassword)
	srv := mcpserver.New(cot, account, log, time.Duration(cfg.MCPRequestTimeoutSecs)*time.Second)

	if cfg.MCPTransport == "http" {
		serveHTTP(cfg, srv, log)
		return
	}

	log.Info("MCP server running on stdio")
	if err := runStdioFunc(srv, ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.WithError(err).Error("MCP stdio server stopped")
	}
}

func serveHTTP(cfg *config.Config, srv *mcpserver.Server, log logrus.FieldLogger) {
	if cfg.MCPAuthToken == "" && cfg.MCPHTTPBind != "127.0.0.1" && cfg.MCPHTTPBind != "localhost" {
		log.Warn("MCP HTTP transport bound to a public address without MCP_AUTH_TOKEN")
	}

	mux := http.NewServeMux()
	mux.Handle("/mcp", srv.HTTPHandler(cfg.MCPAuthToken))
	httpSrv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.MCPHTTPBind, cfg.MCPHTTPPort),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.WithField("addr", httpSrv.Addr).Info("MCP HTTP server listening")
		if err := startHTTPServerFunc(httpSrv); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("listen")
		}
	}()

	quit := make(chan os.Signal, 1)
	setupSignalNotify(quit, syscall.SIGINT, syscall.SIGTERM)
	waitForSignalFunc(quit)
	log.Info("Shutting down MCP server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := shutdownHTTPServerFunc(httpSrv, shutdownCtx); err != nil {
		log.WithError(err).Warn("MCP server shutdown error")
	}
}
