package app

import (
	"log/slog"
	"net/http"

	"github.com/mq-gh-dev/blazor-ssr-tempdata/ctx"
)

// Handler is the signature of route handlers and of composed middleware.
// A non-nil error is passed to the App's ErrorHandler. Redirect signals are
// errors too: a handler that wants to leave the page returns the signal and the
// ErrorHandler turns it into the response.
//
//	func save(c app.Ctx) error {
//		return redirect.New(c).RedirectWithStatus("/", "Saved", status.Success)
//	}
type Handler func(ctx.Ctx) error

// Middleware transforms a Handler. Middleware registered with Use runs in the
// order added, before route-specific middleware and the handler.
type Middleware func(Handler) Handler

// ErrorHandler translates an error returned from a handler into a response.
type ErrorHandler func(ctx.Ctx, error)

// Ctx is re-exported for package-local convenience.
type Ctx = ctx.Ctx

// Router registers page handlers. Both App and *Group satisfy it, so page
// packages can be mounted at the root or under a base path.
type Router interface {
	GET(path string, h Handler, mws ...Middleware)
	POST(path string, h Handler, mws ...Middleware)
	Handle(method, path string, h Handler, mws ...Middleware)
}

var (
	_ Router = (App)(nil)
	_ Router = (*Group)(nil)
)

// App is the surface of *DefaultApp used by the server and the tests.
type App interface {
	Router
	http.Handler

	Use(mw ...Middleware)
	Group(prefix string, mw ...Middleware) *Group
	// HandleHTTP mounts a plain net/http handler, bypassing middleware.
	HandleHTTP(method, path string, h http.Handler)

	SetLogger(l *slog.Logger)
	Logger() *slog.Logger
	SetErrorHandler(h ErrorHandler)
	SetNotFound(h http.Handler)
	SetMethodNotAllowed(h http.Handler)
}
