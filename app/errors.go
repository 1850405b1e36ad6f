package app

import (
	"errors"
	"net/http"

	"github.com/mq-gh-dev/blazor-ssr-tempdata/ctx"
)

// Responder is implemented by errors that write their own response when they
// reach the error handler. Redirect signals are the main example: the handler
// returns the signal and the pipeline answers with the redirect.
type Responder interface {
	error
	Respond(c ctx.Ctx) error
}

// defaultErrorHandler performs Responder errors and answers every other error
// with 500 Internal Server Error, unless the response has already started.
func defaultErrorHandler(c ctx.Ctx, err error) {
	l := ctx.LoggerFromContext(c.Context())

	var r Responder
	if errors.As(err, &r) {
		if rerr := r.Respond(c); rerr != nil {
			l.Error("respond failed", "err", rerr, "path", c.Path())
			writeInternalError(c)
		}
		return
	}

	l.Error("handler failed", "err", err, "method", c.Method(), "path", c.Path())
	writeInternalError(c)
}

func writeInternalError(c ctx.Ctx) {
	if c.WroteHeader() {
		return
	}
	_ = c.String(http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
}

// methodNotAllowedHandler returns a handler for 405 Method Not Allowed responses.
func methodNotAllowedHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusMethodNotAllowed)
		_, _ = w.Write([]byte(http.StatusText(http.StatusMethodNotAllowed)))
	})
}
