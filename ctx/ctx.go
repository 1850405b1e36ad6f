package ctx

import (
	"context"
	"io"
	"net/http"
	"strconv"
	"time"

	router "github.com/julienschmidt/httprouter"
)

// Ctx is the request/response context handed to handlers and middleware.
// It is implemented by *DefaultContext.
//
//	a.GET("/forecast", func(c ctx.Ctx) error {
//		store := relay.FromContext(c.Context())
//		...
//		return c.HTML(http.StatusOK, page)
//	})
//
// Ctx is not safe for concurrent writes to the underlying http.ResponseWriter.
type Ctx interface {
	// Request returns the underlying *http.Request.
	Request() *http.Request
	// SetRequest replaces the underlying *http.Request, typically to attach a
	// derived context.
	SetRequest(*http.Request)
	// ResponseWriter returns the underlying http.ResponseWriter.
	ResponseWriter() http.ResponseWriter
	// SetResponseWriter replaces the underlying http.ResponseWriter.
	SetResponseWriter(http.ResponseWriter)

	// Context returns the request-scoped context.Context.
	Context() context.Context
	// Method returns the HTTP method.
	Method() string
	// Path returns the request URL path.
	Path() string
	// Route returns the route pattern, e.g. "/forecast".
	Route() string
	// Param returns a path parameter by name ("" if not present).
	Param(name string) string
	// Query returns a query string parameter by key ("" if not present).
	Query(key string) string
	// QueryInt returns a query parameter parsed as int, or def (0) on error.
	QueryInt(key string, def ...int) int

	// Header sets a response header.
	Header(key, value string)
	// Status stages the status code to be written and returns the Ctx.
	Status(code int) Ctx
	// StatusCode returns the status that was or will be written (0 if unset).
	StatusCode() int
	// String writes a text/plain body.
	String(status int, body string) error
	// HTML writes a text/html body.
	HTML(status int, body []byte) error
	// Send writes raw bytes with a content type.
	Send(status int, contentType string, b []byte) (int, error)
	// WroteHeader reports whether the header has been written.
	WroteHeader() bool
	// Redirect writes a redirect response with the given status and location.
	Redirect(status int, url string) error

	// SetCookie adds a Set-Cookie header to the response.
	SetCookie(cookie *http.Cookie)
	// GetCookie reads a request cookie by name.
	GetCookie(name string) (*http.Cookie, error)
	// ClearCookie expires a cookie on the client.
	ClearCookie(name string)

	// BindMap binds a generic map into v using mapstructure.
	BindMap(v any, m map[string]any, opts ...BindOptions) error
	// BindForm binds the posted form fields into v.
	BindForm(v any, opts ...BindOptions) error

	// Get retrieves a value from the request context, with optional default.
	Get(key any, def ...any) any
	// Set stores a value in a derived request context.
	Set(key, value any) Ctx
}

// DefaultContext is the concrete Ctx. It wraps the writer and request and
// tracks route, status and whether the header was written.
type DefaultContext struct {
	w           http.ResponseWriter
	r           *http.Request
	params      router.Params
	status      int
	wroteHeader bool
	wroteBytes  int
	route       string
}

// Reset prepares the context for a new request. Used by the app.
func (c *DefaultContext) Reset(w http.ResponseWriter, r *http.Request, ps router.Params, route string) {
	c.w = w
	c.r = r
	c.params = ps
	c.status = 0
	c.wroteHeader = false
	c.wroteBytes = 0
	c.route = route
}

// Finish drops request references before the context goes back to the pool.
func (c *DefaultContext) Finish() {
	c.w = nil
	c.r = nil
	c.params = nil
}

func (c *DefaultContext) Request() *http.Request                  { return c.r }
func (c *DefaultContext) SetRequest(r *http.Request)              { c.r = r }
func (c *DefaultContext) ResponseWriter() http.ResponseWriter     { return c.w }
func (c *DefaultContext) SetResponseWriter(w http.ResponseWriter) { c.w = w }
func (c *DefaultContext) WroteHeader() bool                       { return c.wroteHeader }
func (c *DefaultContext) Context() context.Context                { return c.r.Context() }
func (c *DefaultContext) Method() string                          { return c.r.Method }
func (c *DefaultContext) Path() string                            { return c.r.URL.Path }
func (c *DefaultContext) Route() string                           { return c.route }
func (c *DefaultContext) Param(name string) string                { return c.params.ByName(name) }
func (c *DefaultContext) Query(key string) string                 { return c.r.URL.Query().Get(key) }

// Set stores a value in the request context and swaps in the derived request.
// Prefer an unexported key type to avoid collisions.
func (c *DefaultContext) Set(key, value any) Ctx {
	ctx := context.WithValue(c.Context(), key, value)
	c.SetRequest(c.Request().WithContext(ctx))
	return c
}

// Get returns a value from the request context by key, or def[0] (or nil)
// when the key is missing.
func (c *DefaultContext) Get(key any, def ...any) any {
	v := c.Context().Value(key)
	if v != nil {
		return v
	}
	if len(def) > 0 {
		return def[0]
	}
	return nil
}

// QueryInt returns the query parameter parsed as int.
// Returns def (or 0) on missing or parse error.
func (c *DefaultContext) QueryInt(key string, def ...int) int {
	fallback := 0
	if len(def) > 0 {
		fallback = def[0]
	}
	s := c.Query(key)
	if s == "" {
		return fallback
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return fallback
	}
	return v
}

// Status stages the response status code without writing the header.
func (c *DefaultContext) Status(code int) Ctx {
	c.status = code
	return c
}

// StatusCode returns the staged status, 200 if the header was written without
// one, or 0.
func (c *DefaultContext) StatusCode() int {
	if c.status != 0 {
		return c.status
	}
	if c.wroteHeader {
		return http.StatusOK
	}
	return 0
}

// Header sets a header on the response. No effect after the header is written.
func (c *DefaultContext) Header(key, value string) { c.w.Header().Set(key, value) }

func (c *DefaultContext) writeHeader(status int) {
	c.status = status
	c.w.WriteHeader(status)
	c.wroteHeader = true
}

// String writes a plain text response with the given status and body.
func (c *DefaultContext) String(status int, body string) error {
	if !c.wroteHeader {
		c.Header("Content-Type", "text/plain; charset=utf-8")
		c.Header("Content-Length", strconv.Itoa(len(body)))
		c.writeHeader(status)
	}
	n, err := io.WriteString(c.w, body)
	c.wroteBytes += n
	return err
}

// HTML writes an HTML response with the given status.
func (c *DefaultContext) HTML(status int, body []byte) error {
	_, err := c.Send(status, "text/html; charset=utf-8", body)
	return err
}

// Send writes raw bytes with the given status and content type.
// If contentType is empty, no Content-Type header is set.
func (c *DefaultContext) Send(status int, contentType string, b []byte) (int, error) {
	if !c.wroteHeader {
		if contentType != "" {
			c.Header("Content-Type", contentType)
		}
		c.Header("Content-Length", strconv.Itoa(len(b)))
		c.writeHeader(status)
	}
	n, err := c.w.Write(b)
	c.wroteBytes += n
	return n, err
}

// Redirect writes a redirect response. It is a no-op once the header is out.
func (c *DefaultContext) Redirect(status int, url string) error {
	if !c.wroteHeader {
		c.Header("Location", url)
		c.writeHeader(status)
	}
	return nil
}

// SetCookie sets a cookie in the response.
func (c *DefaultContext) SetCookie(cookie *http.Cookie) {
	http.SetCookie(c.w, cookie)
}

// GetCookie retrieves a cookie from the request by name.
func (c *DefaultContext) GetCookie(name string) (*http.Cookie, error) {
	return c.r.Cookie(name)
}

// ClearCookie removes a cookie by setting it with an expired date.
func (c *DefaultContext) ClearCookie(name string) {
	c.SetCookie(&http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0).UTC(),
		MaxAge:   -1,
		HttpOnly: true,
	})
}
