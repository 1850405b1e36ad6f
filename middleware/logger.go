package middleware

import (
	"errors"
	"net/http"
	"time"

	"github.com/mq-gh-dev/blazor-ssr-tempdata/app"
	"github.com/mq-gh-dev/blazor-ssr-tempdata/ctx"
)

// redirectSignal matches errors that ask the error handler for a redirect.
type redirectSignal interface {
	error
	Location() string
	StatusCode() int
}

// Logger logs one line per request with method, path, route, status,
// duration, remote address and user agent. The request id comes with the
// request logger when RequestID runs first.
//
// Handlers that redirect return a signal instead of writing the response, so
// the status is not known yet when the line is written. For those the
// signal's status and location are logged.
func Logger() app.Middleware {
	return func(next app.Handler) app.Handler {
		return func(c ctx.Ctx) error {
			start := time.Now()
			err := next(c)
			dur := time.Since(start)

			status := c.StatusCode()
			var location string
			var sig redirectSignal
			if errors.As(err, &sig) && !c.WroteHeader() {
				status, location = sig.StatusCode(), sig.Location()
			}
			if status == 0 {
				if err != nil {
					status = http.StatusInternalServerError
				} else {
					status = http.StatusOK
				}
			}

			ua, remote := "", ""
			if r := c.Request(); r != nil {
				ua = r.UserAgent()
				remote = r.RemoteAddr
			}

			attrs := []any{
				"method", c.Method(),
				"path", c.Path(),
				"route", c.Route(),
				"status", status,
				"duration_ms", float64(dur.Microseconds()) / 1000.0,
				"remote", remote,
				"user_agent", ua,
			}
			if location != "" {
				attrs = append(attrs, "location", location)
			}

			ctx.LoggerFromContext(c.Context()).Info("request", attrs...)
			return err
		}
	}
}
