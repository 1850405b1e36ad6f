// Package tempdata carries small values across a POST-redirect-GET round trip
// in server-rendered Go apps.
//
// A handler stores values and redirects in one step; the next request reads
// them once and they are gone:
//
//	a := tempdata.New()
//	a.Use(middleware.TempData(middleware.TempDataConfig{Provider: cookies, AutoFlush: true}))
//	a.POST("/", func(c tempdata.Ctx) error {
//		return redirect.New(c).RedirectWithStatus("/", "Saved!", status.Success)
//	})
//
// The router, context and middleware live in app, ctx and middleware; the
// relay itself in relay, redirect and status.
package tempdata

import (
	"github.com/mq-gh-dev/blazor-ssr-tempdata/app"
	"github.com/mq-gh-dev/blazor-ssr-tempdata/ctx"
	"github.com/mq-gh-dev/blazor-ssr-tempdata/relay"
	"github.com/mq-gh-dev/blazor-ssr-tempdata/status"
)

// Group is a route group. Re-exported from app.Group.
type Group = app.Group

// App is the router. Re-exported from app.App.
type App = app.App

// Handler is the route handler signature. Re-exported from app.Handler.
type Handler = app.Handler

// Middleware transforms a Handler. Re-exported from app.Middleware.
type Middleware = app.Middleware

// ErrorHandler handles errors returned from handlers. Re-exported from app.ErrorHandler.
type ErrorHandler = app.ErrorHandler

// Ctx is the request context. Re-exported from ctx.Ctx.
type Ctx = ctx.Ctx

// Store is the relay contract. Re-exported from relay.Store.
type Store = relay.Store

// Severity grades status messages. Re-exported from status.Severity.
type Severity = status.Severity

// New creates an App with the default error handler and logger.
func New() App { return app.New() }
