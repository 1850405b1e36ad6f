package middleware

import (
	"github.com/mq-gh-dev/blazor-ssr-tempdata/app"
	"github.com/mq-gh-dev/blazor-ssr-tempdata/ctx"
	"github.com/mq-gh-dev/blazor-ssr-tempdata/relay"
)

// TempDataConfig configures the TempData middleware.
type TempDataConfig struct {
	Provider relay.Provider
	// AutoFlush flushes the store right before the response header is
	// written, for handlers that read without flushing.
	AutoFlush bool
}

// TempData attaches a relay.Dictionary over the configured provider to every
// request. Handlers reach it with relay.FromContext; redirect.New picks it
// up on its own. The dictionary loads lazily, so requests that never touch
// it cost nothing.
//
//	a.Use(middleware.TempData(middleware.TempDataConfig{Provider: cookies, AutoFlush: true}))
func TempData(cfg TempDataConfig) app.Middleware {
	return func(next app.Handler) app.Handler {
		return func(c ctx.Ctx) error {
			d := relay.NewDictionary(c, cfg.Provider)
			c.SetRequest(c.Request().WithContext(relay.WithStore(c.Context(), d)))
			if cfg.AutoFlush {
				c.SetResponseWriter(&headerWriteInterceptor{
					rw: c.ResponseWriter(),
					before: func() {
						if err := d.Flush(); err != nil {
							ctx.LoggerFromContext(c.Context()).Error("tempdata flush failed", "err", err.Error())
						}
					},
				})
			}
			return next(c)
		}
	}
}
