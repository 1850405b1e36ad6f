package app

import (
	"bytes"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mq-gh-dev/blazor-ssr-tempdata/ctx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type locationResponder struct{ to string }

func (r locationResponder) Error() string { return "redirect to " + r.to }
func (r locationResponder) Respond(c ctx.Ctx) error {
	return c.Redirect(http.StatusFound, r.to)
}

type failingResponder struct{}

func (failingResponder) Error() string         { return "failing" }
func (failingResponder) Respond(ctx.Ctx) error { return errors.New("boom") }

func serve(a App, method, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	a.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func TestGETAndPOST(t *testing.T) {
	a := New()
	a.GET("/", func(c ctx.Ctx) error { return c.String(http.StatusOK, "home") })
	a.POST("/", func(c ctx.Ctx) error { return c.String(http.StatusAccepted, "posted") })
	a.Handle(http.MethodHead, "/h", func(c ctx.Ctx) error { return c.String(http.StatusOK, "") })

	rec := serve(a, http.MethodGet, "/")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "home", rec.Body.String())

	rec = serve(a, http.MethodPost, "/")
	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, "posted", rec.Body.String())

	assert.Equal(t, http.StatusOK, serve(a, http.MethodHead, "/h").Code)
}

func TestNotFoundAndMethodNotAllowed(t *testing.T) {
	a := New()
	a.GET("/forecast", func(c ctx.Ctx) error { return c.String(http.StatusOK, "ok") })

	assert.Equal(t, http.StatusNotFound, serve(a, http.MethodGet, "/missing").Code)
	assert.Equal(t, http.StatusMethodNotAllowed, serve(a, http.MethodPost, "/forecast").Code)

	a.SetNotFound(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	a.SetMethodNotAllowed(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
	}))
	assert.Equal(t, http.StatusTeapot, serve(a, http.MethodGet, "/missing").Code)
	assert.Equal(t, http.StatusConflict, serve(a, http.MethodPost, "/forecast").Code)
}

func TestMiddlewareOrder(t *testing.T) {
	a := New()
	var order []string
	mw := func(name string) Middleware {
		return func(next Handler) Handler {
			return func(c ctx.Ctx) error {
				order = append(order, name)
				return next(c)
			}
		}
	}
	a.Use(mw("global"))
	a.Use()
	g := a.Group("/app", mw("group"))
	g.GET("/x", func(c ctx.Ctx) error {
		order = append(order, "handler")
		return c.String(http.StatusOK, "x")
	}, mw("route"))

	rec := serve(a, http.MethodGet, "/app/x")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"global", "group", "route", "handler"}, order)
}

func TestDefaultErrorHandlerWritesInternalError(t *testing.T) {
	a := New()
	var buf bytes.Buffer
	a.SetLogger(slog.New(slog.NewTextHandler(&buf, nil)))
	a.GET("/fail", func(c ctx.Ctx) error { return errors.New("kaput") })

	rec := serve(a, http.MethodGet, "/fail")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, buf.String(), "kaput")
}

func TestDefaultErrorHandlerKeepsStartedResponse(t *testing.T) {
	a := New()
	a.SetLogger(slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))
	a.GET("/half", func(c ctx.Ctx) error {
		_ = c.String(http.StatusOK, "partial")
		return errors.New("late")
	})

	rec := serve(a, http.MethodGet, "/half")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "partial", rec.Body.String())
}

func TestResponderErrorsRespondThemselves(t *testing.T) {
	a := New()
	a.POST("/", func(c ctx.Ctx) error { return locationResponder{to: "/forecast"} })

	rec := serve(a, http.MethodPost, "/")
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/forecast", rec.Header().Get("Location"))
}

func TestWrappedResponderIsFound(t *testing.T) {
	a := New()
	a.POST("/", func(c ctx.Ctx) error {
		return errors.Join(errors.New("context"), locationResponder{to: "/"})
	})

	rec := serve(a, http.MethodPost, "/")
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))
}

func TestFailingResponderFallsBackTo500(t *testing.T) {
	a := New()
	var buf bytes.Buffer
	a.SetLogger(slog.New(slog.NewTextHandler(&buf, nil)))
	a.POST("/", func(c ctx.Ctx) error { return failingResponder{} })

	rec := serve(a, http.MethodPost, "/")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.True(t, strings.Contains(buf.String(), "respond failed"))
}

func TestCustomErrorHandler(t *testing.T) {
	a := New()
	a.SetErrorHandler(func(c ctx.Ctx, err error) { _ = c.String(http.StatusBadGateway, err.Error()) })
	a.GET("/", func(c ctx.Ctx) error { return errors.New("upstream") })

	rec := serve(a, http.MethodGet, "/")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "upstream", rec.Body.String())
}

func TestLoggerInjectedIntoRequestContext(t *testing.T) {
	a := New()
	l := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	a.SetLogger(l)
	var got *slog.Logger
	a.GET("/", func(c ctx.Ctx) error {
		got = ctx.LoggerFromContext(c.Context())
		return c.String(http.StatusOK, "")
	})

	serve(a, http.MethodGet, "/")
	assert.Same(t, l, got)
	assert.Same(t, l, a.Logger())
}

func TestHandleHTTPBypassesMiddleware(t *testing.T) {
	a := New()
	called := false
	a.Use(func(next Handler) Handler {
		return func(c ctx.Ctx) error {
			called = true
			return next(c)
		}
	})
	a.HandleHTTP(http.MethodGet, "/metrics", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("m"))
	}))

	rec := serve(a, http.MethodGet, "/metrics")
	assert.Equal(t, "m", rec.Body.String())
	assert.False(t, called)
}

func TestNestedGroups(t *testing.T) {
	a := New()
	g := a.Group("/app")
	g.Use(func(next Handler) Handler {
		return func(c ctx.Ctx) error {
			c.Header("X-Group", "app")
			return next(c)
		}
	})
	inner := g.Group("weather")
	inner.POST("/submit", func(c ctx.Ctx) error { return c.String(http.StatusOK, c.Route()) })
	inner.Handle(http.MethodGet, "/", func(c ctx.Ctx) error { return c.String(http.StatusOK, "root") })

	rec := serve(a, http.MethodPost, "/app/weather/submit")
	assert.Equal(t, "/app/weather/submit", rec.Body.String())
	assert.Equal(t, "app", rec.Header().Get("X-Group"))

	rec = serve(a, http.MethodGet, "/app/weather")
	assert.Equal(t, "root", rec.Body.String())
}
