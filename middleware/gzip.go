package middleware

import (
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/klauspost/compress/gzip"

	"github.com/mq-gh-dev/blazor-ssr-tempdata/app"
	"github.com/mq-gh-dev/blazor-ssr-tempdata/ctx"
)

// GzipConfig configures the Gzip middleware.
type GzipConfig struct {
	Level int
}

var gzipPools sync.Map // level -> *sync.Pool

func getGzipWriter(level int, w io.Writer) (*gzip.Writer, func()) {
	poolAny, _ := gzipPools.LoadOrStore(level, &sync.Pool{New: func() any {
		gw, _ := gzip.NewWriterLevel(io.Discard, level)
		return gw
	}})
	pool := poolAny.(*sync.Pool)
	gw := pool.Get().(*gzip.Writer)
	gw.Reset(w)
	return gw, func() {
		_ = gw.Close()
		gw.Reset(io.Discard)
		pool.Put(gw)
	}
}

// Gzip compresses page bodies for clients that accept it. Redirects and
// bodiless statuses pass through untouched so relay cookies and Location
// headers reach the client as written.
func Gzip(cfgs ...GzipConfig) app.Middleware {
	cfg := GzipConfig{Level: gzip.DefaultCompression}
	if len(cfgs) > 0 && cfgs[0].Level != 0 {
		cfg.Level = cfgs[0].Level
	}
	return func(next app.Handler) app.Handler {
		return func(c ctx.Ctx) error {
			r := c.Request()
			if !strings.Contains(r.Header.Get("Accept-Encoding"), "gzip") || r.Method == http.MethodHead {
				return next(c)
			}
			grw := &gzipResponseWriter{rw: c.ResponseWriter(), level: cfg.Level}
			c.SetResponseWriter(grw)
			defer grw.Close()
			return next(c)
		}
	}
}

type gzipResponseWriter struct {
	rw          http.ResponseWriter
	gz          *gzip.Writer
	put         func()
	level       int
	wroteHeader bool
	useGzip     bool
}

func (g *gzipResponseWriter) Header() http.Header { return g.rw.Header() }

func (g *gzipResponseWriter) WriteHeader(status int) {
	if g.wroteHeader {
		return
	}
	g.wroteHeader = true
	g.useGzip = compressible(status, g.Header().Get("Content-Encoding"))
	if g.useGzip {
		g.Header().Del("Content-Length")
		g.Header().Set("Content-Encoding", "gzip")
		g.Header().Add("Vary", "Accept-Encoding")
	}
	g.rw.WriteHeader(status)
}

func compressible(status int, encoding string) bool {
	if encoding != "" && encoding != "identity" {
		return false
	}
	switch {
	case status == http.StatusNoContent, status == http.StatusNotModified:
		return false
	case status >= 300 && status < 400:
		return false
	}
	return true
}

func (g *gzipResponseWriter) Write(p []byte) (int, error) {
	if !g.wroteHeader {
		g.WriteHeader(http.StatusOK)
	}
	if !g.useGzip {
		return g.rw.Write(p)
	}
	if g.gz == nil {
		g.gz, g.put = getGzipWriter(g.level, g.rw)
	}
	return g.gz.Write(p)
}

// Close flushes the gzip trailer and returns the writer to its pool.
func (g *gzipResponseWriter) Close() error {
	if g.gz == nil {
		return nil
	}
	g.put()
	g.gz, g.put = nil, nil
	return nil
}

func (g *gzipResponseWriter) Flush() {
	if g.gz != nil {
		_ = g.gz.Flush()
	}
	if f, ok := g.rw.(http.Flusher); ok {
		f.Flush()
	}
}

func (g *gzipResponseWriter) Unwrap() http.ResponseWriter { return g.rw }

var (
	_ http.ResponseWriter = (*gzipResponseWriter)(nil)
	_ http.Flusher        = (*gzipResponseWriter)(nil)
)
