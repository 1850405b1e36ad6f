package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mq-gh-dev/blazor-ssr-tempdata/app"
	"github.com/mq-gh-dev/blazor-ssr-tempdata/ctx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSignal struct{}

func (fakeSignal) Error() string           { return "redirect" }
func (fakeSignal) Location() string        { return "/forecast" }
func (fakeSignal) StatusCode() int         { return http.StatusFound }
func (fakeSignal) Respond(c ctx.Ctx) error { return c.Redirect(http.StatusFound, "/forecast") }

func loggedApp(h *captureHandler) app.App {
	a := app.New()
	a.SetLogger(slog.New(h))
	a.Use(RequestID(), Logger())
	return a
}

func serveGET(a app.App, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	a.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestLoggerEmitsRequestLine(t *testing.T) {
	h := newCapture()
	a := loggedApp(h)
	a.GET("/x", func(c ctx.Ctx) error { return c.String(http.StatusCreated, "ok") })

	serveGET(a, "/x")
	r, ok := h.last("request")
	require.True(t, ok)
	assert.Equal(t, int64(http.StatusCreated), r.attrs["status"])
	assert.Equal(t, "/x", r.attrs["path"])
	assert.Equal(t, "GET", r.attrs["method"])
	assert.NotEmpty(t, r.attrs["request_id"])
}

func TestLoggerDefaultStatus(t *testing.T) {
	h := newCapture()
	a := loggedApp(h)
	a.GET("/noop", func(c ctx.Ctx) error { return nil })
	a.GET("/fail", func(c ctx.Ctx) error { return errors.New("boom") })

	serveGET(a, "/noop")
	r, _ := h.last("request")
	assert.Equal(t, int64(http.StatusOK), r.attrs["status"])

	serveGET(a, "/fail")
	r, _ = h.last("request")
	assert.Equal(t, int64(http.StatusInternalServerError), r.attrs["status"])
}

func TestLoggerReportsRedirectSignals(t *testing.T) {
	h := newCapture()
	a := loggedApp(h)
	a.GET("/go", func(c ctx.Ctx) error { return fakeSignal{} })

	rec := serveGET(a, "/go")
	assert.Equal(t, http.StatusFound, rec.Code)
	r, _ := h.last("request")
	assert.Equal(t, int64(http.StatusFound), r.attrs["status"])
	assert.Equal(t, "/forecast", r.attrs["location"])
}
