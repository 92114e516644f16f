package main

import (
	"context"
	"fmt"
	"os"
	ossignal "os/signal"
	"syscall"
	"time"

	"cot-dashboard/internal/cache"
	"cot-dashboard/internal/config"
	"cot-dashboard/internal/domain"
	"cot-dashboard/internal/logging"
	"cot-dashboard/internal/provider"
	"cot-dashboard/internal/query"
	"cot-dashboard/internal/service"
	"cot-dashboard/internal/session"
	"cot-dashboard/internal/tui"
	"cot-dashboard/pkg/tracing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/ssh"
	"github.com/charmbracelet/wish"
	"github.com/charmbracelet/wish/bubbletea"
	wishlogging "github.com/charmbracelet/wish/logging"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/trace"
)

// ctxKey is a typed context key to avoid collisions.
type ctxKey string

const sessionKey ctxKey = "cot_session"

var (
	loadEnvFunc       = godotenv.Load
	loadConfigFunc    = config.Load
	newLoggerFunc     = logging.New
	initTracerFunc    = tracing.InitTracer
	connectRedisFunc  = cache.Connect
	newWishServerFunc = wish.NewServer
	setupSignalNotify = ossignal.Notify
	waitForSignalFunc = func(quit <-chan os.Signal) { <-quit }
)

// backends are shared by every terminal session.
type backends struct {
	tracer       trace.Tracer
	log          logrus.FieldLogger
	cfg          *config.Config
	cot          *service.CotService
	prices       *service.PriceService
	loginTimeout time.Duration
}

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

	var priceCache cache.JSONStore
	if cfg.RedisURL != "" {
		client, err := connectRedisFunc(ctx, cfg.RedisURL, log)
		if err != nil {
			log.WithError(err).Warn("redis unavailable, price overlay uncached")
		} else {
			defer client.Close()
			priceCache = client
		}
	}

	client := provider.NewCotClient(tracer, log,
		provider.WithBaseURL(cfg.CotAPIBaseURL),
		provider.WithPriceLimiter(provider.NewRateLimiter(cfg.PriceRateBurst, time.Duration(cfg.PriceRateRefillSecs)*time.Second)),
	)
	b := &backends{
		tracer: tracer,
		log:    log,
		cfg:    cfg,
		cot:    service.NewCotService(tracer, log, client, nil, cfg.TrendLimit),
		prices: service.NewPriceService(tracer, log, client, priceCache,
			time.Duration(cfg.PriceCacheSecs)*time.Second,
			time.Duration(cfg.PriceLookbackDays)*24*time.Hour),
		loginTimeout: 20 * time.Second,
	}

	addr := fmt.Sprintf("0.0.0.0:%d", cfg.SSHPort)
	srv, err := newWishServerFunc(
		wish.WithAddress(addr),
		wish.WithHostKeyPath(cfg.SSHHostKeyPath),
		wish.WithPasswordAuth(func(sctx ssh.Context, password string) bool {
			sess, ok := b.login(sctx, client, sctx.User(), password)
			if ok {
				sctx.SetValue(sessionKey, sess)
			}
			return ok
		}),
		wish.WithMiddleware(
			bubbletea.Middleware(func(s ssh.Session) (tea.Model, []tea.ProgramOption) {
				sess, _ := s.Context().Value(sessionKey).(domain.Session)
				model, closeFn := b.newModel(sess)
				go func() {
					<-s.Context().Done()
					closeFn()
				}()

				pty, _, _ := s.Pty()
				model.SetSize(pty.Window.Width, pty.Window.Height)
				return model, []tea.ProgramOption{tea.WithAltScreen()}
			}),
			wishlogging.Middleware(),
		),
	)
	if err != nil {
		log.WithError(err).Fatal("failed to create SSH server")
	}

	if srv != nil {
		go func() {
			log.WithField("addr", addr).Info("SSH server listening")
			if err := srv.ListenAndServe(); err != nil {
				log.WithError(err).Warn("SSH server stopped")
			}
		}()
	}

	quit := make(chan os.Signal, 1)
	setupSignalNotify(quit, syscall.SIGINT, syscall.SIGTERM)
	waitForSignalFunc(quit)
	log.Info("Shutting down SSH server...")

	cancel()

	if srv != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Warn("SSH server shutdown error")
		}
	}

	log.Info("SSH server exited")
}

// login checks SSH credentials against the backend; the resulting session is
// the one every query of the terminal runs under.
func (b *backends) login(ctx context.Context, auth session.Authenticator, user, password string) (domain.Session, bool) {
	if user == "" || password == "" {
		return domain.Session{}, false
	}
	ctx, cancel := context.WithTimeout(ctx, b.loginTimeout)
	defer cancel()

	sess, err := auth.Login(ctx, domain.Credentials{Username: user, Password: password})
	if err != nil {
		b.log.WithError(err).WithField("user", user).Warn("SSH auth denied")
		return domain.Session{}, false
	}
	b.log.WithField("user", user).Info("SSH auth accepted")
	return sess, true
}

// newModel builds the dashboard of one terminal. The returned func stops its
// orchestrator.
func (b *backends) newModel(sess domain.Session) (*tui.AppModel, func()) {
	loader := query.NewLoader(b.tracer, b.log, b.cot, b.prices,
		query.WithTrendLimit(b.cfg.TrendLimit),
		query.WithLookback(time.Duration(b.cfg.PriceLookbackDays)*24*time.Hour),
	)
	orch := query.NewOrchestrator(loader,
		time.Duration(b.cfg.DebounceMillis)*time.Millisecond,
		b.cfg.QueryDiscardStale,
		b.log.WithField("user", sess.Username),
	)
	model := tui.NewAppModel(tui.Services{
		Orchestrator: orch,
		Latest:       b.cot,
		Session:      sess,
	})
	return model, orch.Close
}
