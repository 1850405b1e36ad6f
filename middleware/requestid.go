package middleware

import (
	"context"
	"crypto/rand"
	"encoding/hex"

	"github.com/mq-gh-dev/blazor-ssr-tempdata/app"
	"github.com/mq-gh-dev/blazor-ssr-tempdata/ctx"
)

// RequestIDConfig configures the RequestID middleware.
type RequestIDConfig struct {
	// Header is the request and response header, default X-Request-ID.
	Header string
	// Generator creates ids for requests that carry none. Defaults to 16
	// random bytes, hex encoded.
	Generator func() string
}

type ridKey struct{}

// RequestID reuses the incoming request id or generates one, echoes it in
// the response header and stores it in the request context. The request
// logger is enriched with a request_id attribute.
//
//	a.Use(middleware.RequestID(middleware.RequestIDConfig{Generator: cuid2.Generate}))
func RequestID(cfgs ...RequestIDConfig) app.Middleware {
	cfg := RequestIDConfig{Header: "X-Request-ID", Generator: newID}
	if len(cfgs) > 0 {
		if cfgs[0].Header != "" {
			cfg.Header = cfgs[0].Header
		}
		if cfgs[0].Generator != nil {
			cfg.Generator = cfgs[0].Generator
		}
	}
	return func(next app.Handler) app.Handler {
		return func(c ctx.Ctx) error {
			id := c.Request().Header.Get(cfg.Header)
			if id == "" {
				id = cfg.Generator()
			}
			c.Header(cfg.Header, id)

			rc := context.WithValue(c.Context(), ridKey{}, id)
			l := ctx.LoggerFromContext(rc).With("request_id", id)
			c.SetRequest(c.Request().WithContext(ctx.ContextWithLogger(rc, l)))
			return next(c)
		}
	}
}

// RequestIDFromContext returns the request id, if any.
func RequestIDFromContext(c context.Context) (string, bool) {
	s, ok := c.Value(ridKey{}).(string)
	return s, ok && s != ""
}

func newID() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
