package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/mq-gh-dev/blazor-ssr-tempdata/app"
	"github.com/mq-gh-dev/blazor-ssr-tempdata/ctx"
)

// RecoverConfig configures the panic recovery middleware.
//
// EnableStack logs the stack trace with the panic. OnPanic is called with
// the recovered value. ErrorResponse replaces the default 500 response.
type RecoverConfig struct {
	EnableStack   bool
	OnPanic       func(ctx.Ctx, any)
	ErrorResponse func(ctx.Ctx, any) error
}

// Recover turns a handler panic into a logged error and a plain 500 response.
// Panic details never reach the client.
//
//	a.Use(middleware.RequestID(), middleware.Logger(), middleware.Recover())
func Recover(cfgs ...RecoverConfig) app.Middleware {
	var cfg RecoverConfig
	if len(cfgs) > 0 {
		cfg = cfgs[0]
	}

	return func(next app.Handler) app.Handler {
		return func(c ctx.Ctx) (err error) {
			defer func() {
				r := recover()
				if r == nil {
					return
				}
				attrs := []any{"panic", fmt.Sprint(r), "method", c.Method(), "path", c.Path()}
				if cfg.EnableStack {
					attrs = append(attrs, "stack", string(debug.Stack()))
				}
				ctx.LoggerFromContext(c.Context()).Error("panic recovered", attrs...)

				if cfg.OnPanic != nil {
					cfg.OnPanic(c, r)
				}
				if cfg.ErrorResponse != nil {
					err = cfg.ErrorResponse(c, r)
					return
				}
				if c.WroteHeader() {
					return
				}
				c.Header("X-Content-Type-Options", "nosniff")
				_ = c.String(http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
			}()
			return next(c)
		}
	}
}
