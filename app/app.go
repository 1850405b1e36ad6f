package app

import (
	"log/slog"
	"net/http"
	"os"
	"sync"

	"github.com/julienschmidt/httprouter"
	"github.com/mq-gh-dev/blazor-ssr-tempdata/ctx"
)

// DefaultApp is the router used by the sample server. It implements
// http.Handler on top of httprouter and pools request contexts.
type DefaultApp struct {
	router     *httprouter.Router
	middleware []Middleware
	pool       sync.Pool
	OnError    ErrorHandler
	NotFound   http.Handler
	MethodNA   http.Handler
	logger     *slog.Logger
}

// New creates a DefaultApp with a JSON slog logger at info level, 404/405
// handlers and the default error handler, which performs redirect signals.
func New() App {
	app := &DefaultApp{
		router: httprouter.New(),
	}
	app.pool.New = func() any { return &ctx.DefaultContext{} }

	app.router.HandleMethodNotAllowed = true
	app.SetErrorHandler(defaultErrorHandler)
	app.SetNotFoundHandler(http.NotFoundHandler())
	app.SetMethodNotAllowedHandler(methodNotAllowedHandler())
	app.SetLogger(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})))

	app.router.NotFound = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		app.NotFoundHandler().ServeHTTP(w, r)
	})
	app.router.MethodNotAllowed = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		app.MethodNotAllowedHandler().ServeHTTP(w, r)
	})

	return app
}

// SetLogger sets the logger injected into every request context.
func (a *DefaultApp) SetLogger(l *slog.Logger) { a.logger = l }

// Logger returns the configured logger, or slog.Default if none is set.
func (a *DefaultApp) Logger() *slog.Logger {
	if a.logger != nil {
		return a.logger
	}
	return slog.Default()
}

// Use registers global middleware, applied to all routes registered after
// the call in the order added.
//
//	a.Use(middleware.RequestID(), middleware.Logger(), middleware.TempData(provider))
func (a *DefaultApp) Use(mw ...Middleware) {
	if len(mw) == 0 {
		return
	}
	a.middleware = append(a.middleware, mw...)
}

// ServeHTTP implements http.Handler by delegating to the internal router.
func (a *DefaultApp) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.router.ServeHTTP(w, r)
}

func (a *DefaultApp) SetErrorHandler(h ErrorHandler)            { a.OnError = h }
func (a *DefaultApp) SetNotFoundHandler(h http.Handler)         { a.NotFound = h }
func (a *DefaultApp) SetMethodNotAllowedHandler(h http.Handler) { a.MethodNA = h }

// SetNotFound and SetMethodNotAllowed are the App interface spellings of the
// setters above.
func (a *DefaultApp) SetNotFound(h http.Handler)         { a.SetNotFoundHandler(h) }
func (a *DefaultApp) SetMethodNotAllowed(h http.Handler) { a.SetMethodNotAllowedHandler(h) }

func (a *DefaultApp) ErrorHandler() ErrorHandler            { return a.OnError }
func (a *DefaultApp) NotFoundHandler() http.Handler         { return a.NotFound }
func (a *DefaultApp) MethodNotAllowedHandler() http.Handler { return a.MethodNA }
