package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/mq-gh-dev/blazor-ssr-tempdata/app"
	"github.com/mq-gh-dev/blazor-ssr-tempdata/ctx"
)

// HealthCheckFunc reports whether a dependency, such as the session database,
// is usable.
type HealthCheckFunc func(context.Context) error

// HealthCheckConfig configures the health endpoint.
type HealthCheckConfig struct {
	Path        string
	ServiceName string
	Check       HealthCheckFunc
	// Timeout bounds Check. Zero means two seconds.
	Timeout time.Duration
	Now     func() time.Time
}

func (cfg *HealthCheckConfig) defaults() {
	if cfg.Path == "" {
		cfg.Path = "/healthz"
	}
	if cfg.ServiceName == "" {
		cfg.ServiceName = "tempdata"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 2 * time.Second
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
}

type healthReport struct {
	Status    string `json:"status"`
	Service   string `json:"service"`
	Timestamp string `json:"timestamp"`
	Error     string `json:"error,omitempty"`
}

// HealthHandler answers with a JSON report and 503 when Check fails.
func HealthHandler(cfg HealthCheckConfig) app.Handler {
	cfg.defaults()
	return func(c ctx.Ctx) error {
		rep := healthReport{Status: "healthy", Service: cfg.ServiceName, Timestamp: cfg.Now().UTC().Format(time.RFC3339)}
		status := http.StatusOK
		if cfg.Check != nil {
			cctx, cancel := context.WithTimeout(c.Context(), cfg.Timeout)
			err := cfg.Check(cctx)
			cancel()
			if err != nil {
				ctx.LoggerFromContext(c.Context()).Error("health check failed", "err", err)
				rep.Status, rep.Error = "unhealthy", err.Error()
				status = http.StatusServiceUnavailable
			}
		}
		b, err := json.Marshal(rep)
		if err != nil {
			return err
		}
		c.Header("Cache-Control", "no-store")
		_, err = c.Send(status, "application/json; charset=utf-8", b)
		return err
	}
}

// RegisterHealthCheck mounts HealthHandler on a.
func RegisterHealthCheck(a app.App, cfg HealthCheckConfig) {
	cfg.defaults()
	a.GET(cfg.Path, HealthHandler(cfg))
}
