package middleware

import (
	"net/http"
	"testing"

	"github.com/mq-gh-dev/blazor-ssr-tempdata/app"
	"github.com/mq-gh-dev/blazor-ssr-tempdata/ctx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsCountsRequestsAndRedirects(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := NewMetrics(reg, "tempdata")
	require.NoError(t, err)

	a := app.New()
	a.SetLogger(discardLogger())
	a.Use(m.Middleware())
	a.GET("/", func(c ctx.Ctx) error { return c.String(http.StatusOK, "ok") })
	a.GET("/go", func(c ctx.Ctx) error { return fakeSignal{} })

	serveGET(a, "/")
	serveGET(a, "/")
	serveGET(a, "/go")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.requests.WithLabelValues("GET", "/", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("GET", "/go", "302")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.redirects.WithLabelValues("/go", "302")))
	assert.Equal(t, 2, testutil.CollectAndCount(m.duration))

	_, err = NewMetrics(reg, "tempdata")
	assert.Error(t, err, "duplicate registration")
}
