package commands

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/mq-gh-dev/blazor-ssr-tempdata/internal/config"
)

func serveCmd() *cobra.Command {
	var addr, env string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the weather example server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cmd.Context())
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Addr = addr
			}
			if env != "" {
				cfg.Env = env
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			c, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(c, cfg, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address, overrides ADDR")
	cmd.Flags().StringVar(&env, "env", "", "environment (dev reloads templates), overrides ENV")
	return cmd
}

func newLogger(cfg config.Config, w io.Writer) (*slog.Logger, error) {
	lvl, err := cfg.Level()
	if err != nil {
		return nil, err
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lvl})), nil
}

// serve runs until c is cancelled, then drains both listeners within
// SHUTDOWN_TIMEOUT.
func serve(c context.Context, cfg config.Config, w io.Writer) error {
	logger, err := newLogger(cfg, w)
	if err != nil {
		return err
	}

	if cfg.TraceStdout {
		shutdown, err := setupTracer(serviceName, w)
		if err != nil {
			return errors.Wrap(err, "setting up tracing")
		}
		defer func() { _ = shutdown(context.Background()) }()
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	srv, err := newServer(cfg, logger, reg)
	if err != nil {
		return err
	}
	defer func() { _ = srv.Close() }()

	servers := []*http.Server{{Addr: cfg.Addr, Handler: srv.app, ReadHeaderTimeout: 10 * time.Second}}
	if cfg.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
		servers = append(servers, &http.Server{Addr: cfg.MetricsAddr, Handler: mux, ReadHeaderTimeout: 10 * time.Second})
	}

	errc := make(chan error, len(servers))
	for _, h := range servers {
		go func(h *http.Server) {
			logger.Info("listening", "addr", h.Addr)
			if err := h.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errc <- errors.Wrapf(err, "listening on %s", h.Addr)
			}
		}(h)
	}

	select {
	case <-c.Done():
		logger.Info("shutting down")
	case err = <-errc:
		logger.Error("server failed", "err", err)
	}

	sc, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	for _, h := range servers {
		if serr := h.Shutdown(sc); serr != nil {
			logger.Error("shutdown", "addr", h.Addr, "err", serr)
		}
	}
	logger.Info("server stopped")
	return err
}
