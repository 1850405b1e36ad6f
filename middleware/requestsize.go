package middleware

import (
	"net/http"

	"github.com/mq-gh-dev/blazor-ssr-tempdata/app"
	"github.com/mq-gh-dev/blazor-ssr-tempdata/ctx"
)

// RequestSizeConfig limits request bodies, mostly posted forms.
type RequestSizeConfig struct {
	MaxSize int64
	// ErrorResponse replaces the default 413 reply for declared oversized
	// bodies. It receives the declared length and the limit.
	ErrorResponse func(c ctx.Ctx, size, limit int64) error
}

// RequestSize rejects bodies whose Content-Length exceeds MaxSize and caps
// the remaining ones with http.MaxBytesReader, so chunked uploads cannot
// bypass the limit. A non-positive MaxSize disables the check.
func RequestSize(cfg RequestSizeConfig) app.Middleware {
	return func(next app.Handler) app.Handler {
		if cfg.MaxSize <= 0 {
			return next
		}
		return func(c ctx.Ctx) error {
			r := c.Request()
			if r.ContentLength > cfg.MaxSize {
				if cfg.ErrorResponse != nil {
					return cfg.ErrorResponse(c, r.ContentLength, cfg.MaxSize)
				}
				c.Header("X-Content-Type-Options", "nosniff")
				return c.String(http.StatusRequestEntityTooLarge, "request entity too large")
			}
			if r.Body != nil && r.Body != http.NoBody {
				r.Body = http.MaxBytesReader(c.ResponseWriter(), r.Body, cfg.MaxSize)
			}
			return next(c)
		}
	}
}
