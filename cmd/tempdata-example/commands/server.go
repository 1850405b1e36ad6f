package commands

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/nrednav/cuid2"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/mq-gh-dev/blazor-ssr-tempdata/app"
	"github.com/mq-gh-dev/blazor-ssr-tempdata/internal/config"
	"github.com/mq-gh-dev/blazor-ssr-tempdata/internal/weather"
	"github.com/mq-gh-dev/blazor-ssr-tempdata/middleware"
	"github.com/mq-gh-dev/blazor-ssr-tempdata/relay"
	"github.com/mq-gh-dev/blazor-ssr-tempdata/relay/cookie"
	"github.com/mq-gh-dev/blazor-ssr-tempdata/relay/session"
	"github.com/mq-gh-dev/blazor-ssr-tempdata/relay/sqlite"
)

const (
	serviceName          = "tempdata-example"
	sessionSweepInterval = 10 * time.Minute
)

// server is the assembled application and the resources it owns.
type server struct {
	app     app.App
	closers []func() error
}

func (s *server) Close() error {
	var first error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// newServer wires the relay transport, middleware and pages from cfg.
func newServer(cfg config.Config, logger *slog.Logger, reg prometheus.Registerer) (*server, error) {
	s := &server{}
	fail := func(err error) (*server, error) {
		_ = s.Close()
		return nil, err
	}

	metrics, err := middleware.NewMetrics(reg, "tempdata")
	if err != nil {
		return fail(err)
	}

	tmpl, err := weather.NewTemplates(cfg.TemplateDir)
	if err != nil {
		return fail(err)
	}
	s.closers = append(s.closers, tmpl.Close)
	if cfg.Dev() {
		if err := tmpl.Watch(logger); err != nil {
			return fail(err)
		}
	}

	a := app.New()
	a.SetLogger(logger)
	a.Use(
		middleware.Recover(middleware.RecoverConfig{EnableStack: cfg.Dev()}),
		middleware.RequestID(middleware.RequestIDConfig{Generator: cuid2.Generate}),
		middleware.Logger(),
		middleware.OTel(serviceName),
		metrics.Middleware(),
		middleware.Gzip(),
		middleware.RequestSize(middleware.RequestSizeConfig{MaxSize: cfg.MaxFormBytes}),
	)

	var (
		provider relay.Provider
		health   middleware.HealthCheckFunc
	)
	switch cfg.Provider {
	case config.ProviderSession:
		var store middleware.Store = middleware.NewMemoryStore()
		if cfg.SessionDB != "" {
			db, err := sqlite.Open(cfg.SessionDB)
			if err != nil {
				return fail(err)
			}
			s.closers = append(s.closers, db.Close)
			store, health = db, db.Ping

			sweep, cancel := context.WithCancel(context.Background())
			s.closers = append(s.closers, func() error { cancel(); return nil })
			go sweepSessions(sweep, sessionSweepInterval, db, logger)
		}
		a.Use(middleware.Sessions(middleware.SessionConfig{
			Store:      store,
			CookiePath: cfg.BasePath,
			Secure:     cfg.CookieSecure,
			HTTPOnly:   true,
		}))
		provider = session.New()
	default:
		key, ok, err := cfg.CookieKey()
		if err != nil {
			return fail(err)
		}
		if !ok {
			logger.Warn("TEMPDATA_KEY not set, using a random key; tempdata cookies will not survive a restart")
			if key, err = cookie.GenerateKey(nil); err != nil {
				return fail(err)
			}
		}
		p, err := cookie.New(key, cookie.Config{Name: cfg.CookieName, Path: cfg.BasePath, Secure: &cfg.CookieSecure})
		if err != nil {
			return fail(err)
		}
		provider = p
	}

	a.Use(
		middleware.TempData(middleware.TempDataConfig{Provider: provider, AutoFlush: true}),
	)
	csrf := middleware.DefaultCSRFConfig()
	csrf.CookieSecure = cfg.CookieSecure
	csrf.CookiePath = cfg.BasePath

	middleware.RegisterHealthCheck(a, middleware.HealthCheckConfig{ServiceName: serviceName, Check: health})

	pages := weather.NewPages(tmpl, cfg.BasePath)
	pages.Register(a.Group(strings.TrimSuffix(cfg.BasePath, "/"), middleware.CSRF(csrf)))

	s.app = a
	return s, nil
}

type expirer interface {
	DeleteExpired(context.Context) (int64, error)
}

// sweepSessions deletes expired sessions every interval until c ends.
func sweepSessions(c context.Context, every time.Duration, store expirer, logger *slog.Logger) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-c.Done():
			return
		case <-t.C:
			n, err := store.DeleteExpired(c)
			if err != nil {
				logger.Error("session sweep failed", "err", err)
				continue
			}
			if n > 0 {
				logger.Debug("expired sessions removed", "count", n)
			}
		}
	}
}
