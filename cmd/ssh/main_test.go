package main

import (
	"context"
	"errors"
	"io"
	"os"
	"testing"
	"time"

	"cot-dashboard/internal/config"
	"cot-dashboard/internal/domain"
	"cot-dashboard/internal/provider"
	"cot-dashboard/internal/service"

	"github.com/charmbracelet/ssh"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

func TestMainBootstrap(t *testing.T) {
	restore := stubSSHDeps()
	defer restore()

	var opts int
	newWishServerFunc = func(ops ...ssh.Option) (*ssh.Server, error) {
		opts = len(ops)
		return nil, nil
	}

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
	if opts != 4 {
		t.Fatalf("expected address, host key, password auth and middleware options, got %d", opts)
	}
}

type fakeAuth struct {
	calls int
}

func (f *fakeAuth) Login(ctx context.Context, creds domain.Credentials) (domain.Session, error) {
	f.calls++
	if creds.Password != "secret" {
		return domain.Session{}, &provider.APIError{Op: "login", Status: 401, Message: "Invalid credentials"}
	}
	return domain.Session{ID: "s1", Username: creds.Username, Token: "tok"}, nil
}

func testBackends() *backends {
	log := logrus.New()
	log.SetOutput(io.Discard)
	tracer := trace.NewNoopTracerProvider().Tracer("test")
	return &backends{
		tracer:       tracer,
		log:          log,
		cfg:          &config.Config{TrendLimit: 999, DebounceMillis: 5, PriceLookbackDays: 730, QueryDiscardStale: true},
		cot:          service.NewCotService(tracer, log, nil, nil, 999),
		prices:       service.NewPriceService(tracer, log, nil, nil, time.Minute, 730*24*time.Hour),
		loginTimeout: time.Second,
	}
}

func TestLogin(t *testing.T) {
	b := testBackends()
	auth := &fakeAuth{}

	sess, ok := b.login(context.Background(), auth, "alice", "secret")
	if !ok || sess.Username != "alice" || sess.Token != "tok" {
		t.Fatalf("unexpected login result %+v ok=%v", sess, ok)
	}

	if _, ok := b.login(context.Background(), auth, "alice", "wrong"); ok {
		t.Fatal("wrong password must be denied")
	}

	calls := auth.calls
	if _, ok := b.login(context.Background(), auth, "alice", ""); ok {
		t.Fatal("empty password must be denied")
	}
	if auth.calls != calls {
		t.Fatal("empty password must not reach the backend")
	}
}

func TestNewModelClosesOrchestrator(t *testing.T) {
	b := testBackends()
	model, closeFn := b.newModel(domain.Session{ID: "s1", Username: "alice", Token: "tok"})
	if model.Commodity() != domain.SupportedCommodities[0] {
		t.Fatalf("unexpected initial commodity %s", model.Commodity())
	}

	closeFn()
	closeFn()
}

func stubSSHDeps() func() {
	origLoadEnv := loadEnvFunc
	origLoadConfig := loadConfigFunc
	origNewLogger := newLoggerFunc
	origInitTracer := initTracerFunc
	origConnectRedis := connectRedisFunc
	origNewWishServer := newWishServerFunc
	origSetupSignal := setupSignalNotify
	origWait := waitForSignalFunc

	loadEnvFunc = func(...string) error { return nil }
	loadConfigFunc = func() *config.Config {
		return &config.Config{
			RedisURL:            "localhost:1",
			SSHPort:             2222,
			SSHHostKeyPath:      ".ssh/test_key",
			TrendLimit:          999,
			DebounceMillis:      200,
			PriceLookbackDays:   730,
			PriceRateBurst:      5,
			PriceRateRefillSecs: 12,
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
	connectRedisFunc = func(context.Context, string, logrus.FieldLogger) (*redis.Client, error) {
		return nil, errors.New("connection refused")
	}
	newWishServerFunc = func(ops ...ssh.Option) (*ssh.Server, error) {
		return nil, nil
	}
	setupSignalNotify = func(c chan<- os.Signal, sig ...os.Signal) {}
	waitForSignalFunc = func(<-chan os.Signal) {}

	return func() {
		loadEnvFunc = origLoadEnv
		loadConfigFunc = origLoadConfig
		newLoggerFunc = origNewLogger
		initTracerFunc = origInitTracer
		connectRedisFunc = origConnectRedis
		newWishServerFunc = origNewWishServer
		setupSignalNotify = origSetupSignal
		waitForSignalFunc = origWait
	}
}
