package redirect

import (
	"bytes"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mq-gh-dev/blazor-ssr-tempdata/app"
	"github.com/mq-gh-dev/blazor-ssr-tempdata/ctx"
	"github.com/mq-gh-dev/blazor-ssr-tempdata/relay"
	"github.com/mq-gh-dev/blazor-ssr-tempdata/status"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	relay.RegisterEnum(func(d time.Weekday) bool { return d >= time.Sunday && d <= time.Saturday })
}

type memProvider struct{ data map[string]any }

func (p *memProvider) Load(ctx.Ctx) (map[string]any, error) {
	out := map[string]any{}
	for k, v := range p.data {
		out[k] = v
	}
	return out, nil
}

func (p *memProvider) Save(_ ctx.Ctx, values map[string]any) error {
	p.data = values
	return nil
}

type failingStore struct{ sets int }

func (s *failingStore) Get(string) (any, bool) { return nil, false }
func (s *failingStore) Set(string, any) error  { s.sets++; return nil }
func (s *failingStore) Flush() error           { return errors.New("cookie too large") }

// withStore attaches a Dictionary over p, as the TempData middleware does.
func withStore(p relay.Provider) app.Middleware {
	return func(next app.Handler) app.Handler {
		return func(c ctx.Ctx) error {
			d := relay.NewDictionary(c, p)
			c.SetRequest(c.Request().WithContext(relay.WithStore(c.Context(), d)))
			return next(c)
		}
	}
}

func do(a app.App, method, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	a.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func newApp(p relay.Provider) app.App {
	a := app.New()
	a.SetLogger(slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))
	a.Use(withStore(p))
	return a
}

func TestRedirectTo(t *testing.T) {
	a := newApp(&memProvider{})
	a.POST("/", func(c ctx.Ctx) error { return New(c).RedirectTo("forecast") })

	rec := do(a, http.MethodPost, "/")
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/forecast", rec.Header().Get("Location"))
}

func TestRedirectToRejectsForeignHosts(t *testing.T) {
	a := newApp(&memProvider{})
	a.POST("/abs", func(c ctx.Ctx) error { return New(c).RedirectTo("https://evil.example/x") })
	a.POST("/proto", func(c ctx.Ctx) error { return New(c).RedirectTo("//evil.example/x") })

	assert.Equal(t, "/x", do(a, http.MethodPost, "/abs").Header().Get("Location"))
	assert.Equal(t, "/x", do(a, http.MethodPost, "/proto").Header().Get("Location"))
}

func TestOptions(t *testing.T) {
	a := newApp(&memProvider{})
	a.POST("/app/", func(c ctx.Ctx) error {
		return New(c, WithBasePath("/app/"), WithStatusCode(http.StatusSeeOther)).RedirectTo("forecast")
	})
	a.POST("/bad", func(c ctx.Ctx) error {
		return New(c, WithStatusCode(http.StatusOK)).RedirectTo("/")
	})

	rec := do(a, http.MethodPost, "/app/")
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/app/forecast", rec.Header().Get("Location"))
	assert.Equal(t, http.StatusFound, do(a, http.MethodPost, "/bad").Code)
}

func TestRedirectToQuery(t *testing.T) {
	a := newApp(&memProvider{})
	a.POST("/", func(c ctx.Ctx) error {
		return New(c).RedirectToQuery("/forecast?old=1#frag", map[string]any{
			"day":  time.Tuesday,
			"page": 2,
			"skip": nil,
			"tag":  []string{"a", "b"},
			"ok":   true,
		})
	})

	rec := do(a, http.MethodPost, "/")
	assert.Equal(t, "/forecast?day=Tuesday&ok=true&page=2&tag=a&tag=b", rec.Header().Get("Location"))
}

func TestRedirectToQueryEmpty(t *testing.T) {
	a := newApp(&memProvider{})
	a.POST("/", func(c ctx.Ctx) error { return New(c).RedirectToQuery("/forecast?old=1", nil) })
	assert.Equal(t, "/forecast", do(a, http.MethodPost, "/").Header().Get("Location"))
}

func TestEncodeQuery(t *testing.T) {
	when := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	got := EncodeQuery(map[string]any{"at": when, "ids": []int{1, 2}, "mix": []any{"x", nil, 3}})
	assert.Equal(t, "at=2024-01-02T03%3A04%3A05Z&ids=1&ids=2&mix=x&mix=3", got)
}

func TestRedirectWithPayloadFlushesBeforeRedirect(t *testing.T) {
	p := &memProvider{}
	a := newApp(p)
	a.POST("/", func(c ctx.Ctx) error {
		return New(c).RedirectWithPayload("/forecast", map[string]any{
			"Description": "Sunny",
			"SelectedDay": time.Tuesday,
			"Bad":         struct{}{},
		})
	})

	rec := do(a, http.MethodPost, "/")
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, map[string]any{"Description": "Sunny", "SelectedDay": 2}, p.data)
}

func TestRedirectWithStatusAndPayloadEnvelopeWins(t *testing.T) {
	p := &memProvider{}
	a := newApp(p)
	a.POST("/", func(c ctx.Ctx) error {
		return New(c).RedirectWithStatusAndPayload("/forecast", "Saved", status.Success, map[string]any{
			"Description":     "Sunny",
			status.MessageKey: "overridden",
		})
	})

	do(a, http.MethodPost, "/")
	assert.Equal(t, map[string]any{
		"Description":      "Sunny",
		status.MessageKey:  "Saved",
		status.SeverityKey: int(status.Success),
	}, p.data)
}

func TestCurrentPageVariants(t *testing.T) {
	p := &memProvider{}
	a := newApp(p)
	a.POST("/page", func(c ctx.Ctx) error {
		keep := c.Query("keep") == "1"
		switch c.Query("v") {
		case "payload":
			return New(c).RedirectToCurrentPageWithPayload(keep, map[string]any{"a": "b"})
		case "status":
			return New(c).RedirectToCurrentPageWithStatus(keep, "A simulated error occurred on the server!", status.Error)
		case "both":
			return New(c).RedirectToCurrentPageWithStatusAndPayload(keep, "ok", status.Info, map[string]any{"a": "b"})
		}
		return New(c).RedirectToCurrentPage(keep)
	})

	assert.Equal(t, "/page", do(a, http.MethodPost, "/page?v=none").Header().Get("Location"))
	assert.Equal(t, "/page?v=none&keep=1", do(a, http.MethodPost, "/page?v=none&keep=1").Header().Get("Location"))

	assert.Equal(t, "/page", do(a, http.MethodPost, "/page?v=payload").Header().Get("Location"))
	assert.Equal(t, map[string]any{"a": "b"}, p.data)

	do(a, http.MethodPost, "/page?v=status")
	assert.Equal(t, "A simulated error occurred on the server!", p.data[status.MessageKey])
	assert.Equal(t, int(status.Error), p.data[status.SeverityKey])

	do(a, http.MethodPost, "/page?v=both")
	assert.Len(t, p.data, 3)
}

func TestRedirectAfterResponseStartedIsInvalidUsage(t *testing.T) {
	p := &memProvider{}
	var got error
	a := newApp(p)
	a.GET("/", func(c ctx.Ctx) error {
		_ = c.String(http.StatusOK, "page")
		got = New(c).RedirectWithPayload("/forecast", map[string]any{"a": "b"})
		return nil
	})

	rec := do(a, http.MethodGet, "/")
	assert.Equal(t, http.StatusOK, rec.Code)
	var iu *InvalidUsageError
	require.True(t, errors.As(got, &iu))
	assert.Equal(t, "RedirectWithPayload", iu.Op)
	assert.Nil(t, p.data, "payload must not be written")
}

func TestSignal(t *testing.T) {
	err := New(nil).RedirectTo("https://evil.example/forecast?d=2")
	var s *Signal
	require.True(t, errors.As(err, &s))
	assert.Equal(t, "/forecast?d=2", s.Location())
	assert.Equal(t, http.StatusFound, s.StatusCode())
	assert.True(t, IsSignal(err))
	assert.False(t, IsSignal(errors.New("x")))
	assert.Contains(t, s.Error(), "/forecast?d=2")

	var c ctx.DefaultContext
	rec := httptest.NewRecorder()
	c.Reset(rec, httptest.NewRequest(http.MethodPost, "/", nil), nil, "/")
	require.NoError(t, s.Respond(&c))
	assert.Equal(t, "/forecast?d=2", rec.Header().Get("Location"))

	var iu *InvalidUsageError
	assert.True(t, errors.As(s.Respond(&c), &iu))
}

func TestMissingRequestDegradesToNavigation(t *testing.T) {
	var buf bytes.Buffer
	d := New(nil, WithLogger(slog.New(slog.NewTextHandler(&buf, nil))))
	err := d.RedirectWithStatus("/forecast", "lost", status.Info)
	assert.True(t, IsSignal(err))
	assert.Contains(t, buf.String(), "without a request")
	assert.Contains(t, buf.String(), "payload dropped")
	assert.True(t, IsSignal(d.RedirectToCurrentPage(true)))
}

func TestFlushErrorDoesNotStopRedirect(t *testing.T) {
	var buf bytes.Buffer
	s := &failingStore{}
	d := New(nil, WithStore(s), WithLogger(slog.New(slog.NewTextHandler(&buf, nil))))
	err := d.RedirectWithPayload("/", map[string]any{"a": "b"})
	assert.True(t, IsSignal(err))
	assert.Equal(t, 1, s.sets)
	assert.Contains(t, buf.String(), "cookie too large")
}

// The payload written by one request is read back by the next one and is
// gone after that reader flushes.
func TestRoundTripThroughStore(t *testing.T) {
	p := &memProvider{}
	a := newApp(p)
	a.POST("/", func(c ctx.Ctx) error {
		return New(c).RedirectWithPayload("/forecast", map[string]any{
			"Description": "Sunny", "SelectedDay": time.Tuesday,
		})
	})
	var (
		desc    string
		day     time.Weekday
		hasDesc bool
	)
	a.GET("/forecast", func(c ctx.Ctx) error {
		err := relay.Read(relay.FromContext(c.Context())).
			TryGet("Description", &desc, &hasDesc).
			TryGet("SelectedDay", &day, nil).
			Flush()
		if err != nil {
			return err
		}
		return c.String(http.StatusOK, desc)
	})

	rec := do(a, http.MethodPost, "/")
	require.Equal(t, http.StatusFound, rec.Code)
	rec = do(a, http.MethodGet, rec.Header().Get("Location"))
	assert.Equal(t, "Sunny", rec.Body.String())
	assert.True(t, hasDesc)
	assert.Equal(t, time.Tuesday, day)
	assert.Empty(t, p.data)
}
