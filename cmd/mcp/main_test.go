package main

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"cot-dashboard/internal/config"
	"cot-dashboard/internal/mcpserver"

	"github.com/sirupsen/logrus"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

func TestMainStdio(t *testing.T) {
	restore := stubMCPDeps("stdio")
	defer restore()

	var ran bool
	runStdioFunc = func(s *mcpserver.Server, ctx context.Context) error {
		ran = s != nil
		return nil
	}

	runMain(t)
	if !ran {
		t.Fatal("stdio transport not started")
	}
}

func TestMainHTTP(t *testing.T) {
	restore := stubMCPDeps("http")
	defer restore()

	served := make(chan *http.Server, 1)
	startHTTPServerFunc = func(srv *http.Server) error {
		served <- srv
		return http.ErrServerClosed
	}
	var srv *http.Server
	waitForSignalFunc = func(<-chan os.Signal) { srv = <-served }

	runMain(t)

	handler, addr := srv.Handler, srv.Addr
	if addr != "127.0.0.1:8090" {
		t.Fatalf("unexpected addr %s", addr)
	}
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/mcp", nil))
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without bearer token, got %d", w.Code)
	}
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

func stubMCPDeps(transport string) func() {
	origLoadEnv := loadEnvFunc
	origLoadConfig := loadConfigFunc
	origNewLogger := newLoggerFunc
	origInitTracer := initTracerFunc
	origRunStdio := runStdioFunc
	origStartHTTP := startHTTPServerFunc
	origShutdownHTTP := shutdownHTTPServerFunc
	origSetupSignal := setupSignalNotify
	origWait := waitForSignalFunc

	loadEnvFunc = func(...string) error { return nil }
	loadConfigFunc = func() *config.Config {
		return &config.Config{
			TrendLimit:            999,
			MCPTransport:          transport,
			MCPHTTPBind:           "127.0.0.1",
			MCPHTTPPort:           8090,
			MCPAuthToken:          "s3cret",
			MCPRequestTimeoutSecs: 30,
		}
	}
	newLoggerFunc = func(string, string) *logrus.Logger {
		log := logrus.New()
		log.SetOutput(io.Discard)
		return log
	}
	initTracerFunc = func(ctx context.Context) (*sdktrace.TracerProvider, trace.Tracer, error) {
		tp := sdktrace.NewTracerProvider()
		return tp, tp.Tracer("test"), nil
	}
	runStdioFunc = func(*mcpserver.Server, context.Context) error { return nil }
	startHTTPServerFunc = func(*http.Server) error { return http.ErrServerClosed }
	shutdownHTTPServerFunc = func(*http.Server, context.Context) error { return nil }
	setupSignalNotify = func(c chan<- os.Signal, sig ...os.Signal) {}
	waitForSignalFunc = func(<-chan os.Signal) {}

	return func() {
		loadEnvFunc = origLoadEnv
		loadConfigFunc = origLoadConfig
		newLoggerFunc = origNewLogger
		initTracerFunc = origInitTracer
		runStdioFunc = origRunStdio
		startHTTPServerFunc = origStartHTTP
		shutdownHTTPServerFunc = origShutdownHTTP
		setupSignalNotify = origSetupSignal
		waitForSignalFunc = origWait
	}
}
