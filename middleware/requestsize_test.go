package middleware

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mq-gh-dev/blazor-ssr-tempdata/app"
	"github.com/mq-gh-dev/blazor-ssr-tempdata/ctx"
)

func sizedApp(cfg RequestSizeConfig) app.App {
	a := app.New()
	a.SetLogger(discardLogger())
	a.Use(RequestSize(cfg))
	a.POST("/", func(c ctx.Ctx) error {
		if _, err := io.ReadAll(c.Request().Body); err != nil {
			var mbe *http.MaxBytesError
			if errors.As(err, &mbe) {
				return c.String(http.StatusRequestEntityTooLarge, "streamed too much")
			}
			return err
		}
		return c.String(http.StatusOK, "accepted")
	})
	return a
}

func post(a app.App, body io.Reader, length int64) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/", body)
	req.ContentLength = length
	rec := httptest.NewRecorder()
	a.ServeHTTP(rec, req)
	return rec
}

func TestRequestSizeWithinLimit(t *testing.T) {
	rec := post(sizedApp(RequestSizeConfig{MaxSize: 64}), strings.NewReader("Description=Rain"), 16)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "accepted", rec.Body.String())
}

func TestRequestSizeRejectsDeclaredLength(t *testing.T) {
	rec := post(sizedApp(RequestSizeConfig{MaxSize: 8}), strings.NewReader(strings.Repeat("x", 32)), 32)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
}

func TestRequestSizeCapsUndeclaredBodies(t *testing.T) {
	rec := post(sizedApp(RequestSizeConfig{MaxSize: 8}), strings.NewReader(strings.Repeat("x", 32)), -1)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Equal(t, "streamed too much", rec.Body.String())
}

func TestRequestSizeCustomResponse(t *testing.T) {
	var gotSize, gotLimit int64
	a := sizedApp(RequestSizeConfig{MaxSize: 4, ErrorResponse: func(c ctx.Ctx, size, limit int64) error {
		gotSize, gotLimit = size, limit
		return c.String(http.StatusBadRequest, "too big")
	}})
	rec := post(a, strings.NewReader("0123456789"), 10)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, int64(10), gotSize)
	assert.Equal(t, int64(4), gotLimit)
}

func TestRequestSizeDisabled(t *testing.T) {
	rec := post(sizedApp(RequestSizeConfig{}), strings.NewReader(strings.Repeat("x", 1024)), 1024)
	assert.Equal(t, http.StatusOK, rec.Code)
}
