package app

import (
	"net/http"

	"github.com/julienschmidt/httprouter"
	"github.com/mq-gh-dev/blazor-ssr-tempdata/ctx"
)

// GET registers a handler for HTTP GET requests on the given path.
// Optionally accepts route-specific middleware.
//
//	a.GET("/forecast", pages.Forecast)
func (a *DefaultApp) GET(path string, h Handler, mws ...Middleware) {
	a.handle(http.MethodGet, path, h, mws...)
}

// POST registers a handler for HTTP POST requests on the given path.
// Form posts that end in a redirect are the typical use:
//
//	a.POST("/", pages.Submit, middleware.CSRF())
func (a *DefaultApp) POST(path string, h Handler, mws ...Middleware) {
	a.handle(http.MethodPost, path, h, mws...)
}

// Handle registers a handler for an arbitrary HTTP method.
func (a *DefaultApp) Handle(method, path string, h Handler, mws ...Middleware) {
	a.handle(method, path, h, mws...)
}

// HandleHTTP mounts a plain net/http handler, bypassing the middleware chain.
//
//	a.HandleHTTP(http.MethodGet, "/metrics", promhttp.Handler())
func (a *DefaultApp) HandleHTTP(method, path string, h http.Handler) {
	a.router.Handler(method, path, h)
}

// handle composes route middleware then global middleware around h and
// registers the result with httprouter. At runtime the order is
// global (left to right), route (left to right), handler.
//
// Each request gets a pooled *ctx.DefaultContext carrying the app logger. A
// non-nil error from the chain, redirect signals included, goes to the
// ErrorHandler before the context returns to the pool.
func (a *DefaultApp) handle(method, path string, h Handler, mws ...Middleware) {
	final := h
	for i := len(mws) - 1; i >= 0; i-- {
		final = mws[i](final)
	}
	for i := len(a.middleware) - 1; i >= 0; i-- {
		final = a.middleware[i](final)
	}

	pattern := path
	a.router.Handle(method, path, func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		r = r.WithContext(ctx.ContextWithLogger(r.Context(), a.Logger()))
		concrete := a.pool.Get().(*ctx.DefaultContext)
		concrete.Reset(w, r, ps, pattern)
		if err := final(concrete); err != nil {
			a.ErrorHandler()(concrete, err)
		}
		concrete.Finish()
		a.pool.Put(concrete)
	})
}
