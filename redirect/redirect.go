// Package redirect sends the browser to another page and hands it a payload
// through the relay store on the way.
//
// Every Dispatcher operation returns an error the handler must return. On
// success it is a *Signal, which the app's error handler turns into the
// redirect response:
//
//	func submit(c ctx.Ctx) error {
//		...
//		return redirect.New(c).RedirectWithStatusAndPayload("/forecast",
//			"Weather data received successfully on a different page!", status.Success,
//			map[string]any{"Description": form.Description, "SelectedDay": form.SelectedDay})
//	}
package redirect

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/mq-gh-dev/blazor-ssr-tempdata/ctx"
	"github.com/mq-gh-dev/blazor-ssr-tempdata/relay"
	"github.com/mq-gh-dev/blazor-ssr-tempdata/security"
	"github.com/mq-gh-dev/blazor-ssr-tempdata/status"
)

// Signal is the successful outcome of a Dispatcher operation.
type Signal struct {
	URL  string
	Code int
}

func (s *Signal) Error() string { return fmt.Sprintf("redirect %d to %s", s.Code, s.URL) }

// Location returns the redirect target.
func (s *Signal) Location() string { return s.URL }

// StatusCode returns the redirect status.
func (s *Signal) StatusCode() int { return s.Code }

// Respond writes the redirect response.
func (s *Signal) Respond(c ctx.Ctx) error {
	if c.WroteHeader() {
		return &InvalidUsageError{Op: "Respond"}
	}
	return c.Redirect(s.Code, s.URL)
}

// IsSignal reports whether err carries a redirect Signal.
func IsSignal(err error) bool {
	var s *Signal
	return errors.As(err, &s)
}

// InvalidUsageError is returned when a redirect is requested after the
// response has started.
type InvalidUsageError struct {
	Op string
}

func (e *InvalidUsageError) Error() string {
	return "redirect: " + e.Op + " can only be used before the response is written"
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithBasePath sets the path the application is mounted under.
func WithBasePath(p string) Option { return func(d *Dispatcher) { d.basePath = p } }

// WithStore overrides the store found in the request context.
func WithStore(s relay.Store) Option { return func(d *Dispatcher) { d.store = s } }

// WithLogger overrides the request logger.
func WithLogger(l *slog.Logger) Option { return func(d *Dispatcher) { d.logger = l } }

// WithStatusCode sets the redirect status. Codes outside 300-308 are ignored.
func WithStatusCode(code int) Option {
	return func(d *Dispatcher) {
		if code >= http.StatusMultipleChoices && code <= http.StatusPermanentRedirect {
			d.code = code
		}
	}
}

// Dispatcher performs redirects for one request.
type Dispatcher struct {
	c        ctx.Ctx
	store    relay.Store
	logger   *slog.Logger
	basePath string
	code     int
}

// New returns a Dispatcher for the request behind c. The relay store comes
// from the request context. Without a request or a store the Dispatcher
// still redirects but drops payloads.
func New(c ctx.Ctx, opts ...Option) *Dispatcher {
	d := &Dispatcher{c: c, basePath: "/", code: http.StatusFound}
	if c != nil {
		d.store = relay.FromContext(c.Context())
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.logger == nil {
		if c != nil {
			d.logger = ctx.LoggerFromContext(c.Context())
		} else {
			d.logger = slog.Default()
		}
	}
	if c == nil {
		d.logger.Error("redirect dispatcher without a request; payloads will be dropped")
	}
	return d
}

// RedirectTo redirects to uri. Targets outside the application are reduced
// to their path, query and fragment.
func (d *Dispatcher) RedirectTo(uri string) error {
	if d.c != nil && d.c.WroteHeader() {
		return &InvalidUsageError{Op: "RedirectTo"}
	}
	return &Signal{URL: security.RelativeRedirect(uri, d.basePath), Code: d.code}
}

// RedirectToQuery replaces the query of uri with params and redirects. Nil
// values are omitted and slices repeat the key.
func (d *Dispatcher) RedirectToQuery(uri string, params map[string]any) error {
	base, _, _ := strings.Cut(uri, "#")
	base, _, _ = strings.Cut(base, "?")
	q := EncodeQuery(params)
	if q == "" {
		return d.RedirectTo(base)
	}
	return d.RedirectTo(base + "?" + q)
}

// RedirectWithPayload writes payload to the relay store, flushes it and
// redirects to uri. Values the store rejects are logged and skipped.
func (d *Dispatcher) RedirectWithPayload(uri string, payload map[string]any) error {
	if d.c != nil && d.c.WroteHeader() {
		return &InvalidUsageError{Op: "RedirectWithPayload"}
	}
	d.save(payload)
	return d.RedirectTo(uri)
}

// RedirectWithStatus relays a status message to uri.
func (d *Dispatcher) RedirectWithStatus(uri, msg string, sev status.Severity) error {
	return d.RedirectWithPayload(uri, status.Envelope(msg, sev))
}

// RedirectWithStatusAndPayload relays payload plus a status message to uri.
// The status entries override payload entries with the same keys.
func (d *Dispatcher) RedirectWithStatusAndPayload(uri, msg string, sev status.Severity, payload map[string]any) error {
	merged := make(map[string]any, len(payload)+2)
	for k, v := range payload {
		merged[k] = v
	}
	for k, v := range status.Envelope(msg, sev) {
		merged[k] = v
	}
	return d.RedirectWithPayload(uri, merged)
}

// RedirectToCurrentPage redirects to the current path, with its query when
// keepQuery is set.
func (d *Dispatcher) RedirectToCurrentPage(keepQuery bool) error {
	return d.RedirectTo(d.currentPage(keepQuery))
}

// RedirectToCurrentPageWithPayload relays payload to the current page.
func (d *Dispatcher) RedirectToCurrentPageWithPayload(keepQuery bool, payload map[string]any) error {
	return d.RedirectWithPayload(d.currentPage(keepQuery), payload)
}

// RedirectToCurrentPageWithStatus relays a status message to the current page.
func (d *Dispatcher) RedirectToCurrentPageWithStatus(keepQuery bool, msg string, sev status.Severity) error {
	return d.RedirectWithStatus(d.currentPage(keepQuery), msg, sev)
}

// RedirectToCurrentPageWithStatusAndPayload relays payload plus a status
// message to the current page.
func (d *Dispatcher) RedirectToCurrentPageWithStatusAndPayload(keepQuery bool, msg string, sev status.Severity, payload map[string]any) error {
	return d.RedirectWithStatusAndPayload(d.currentPage(keepQuery), msg, sev, payload)
}

func (d *Dispatcher) currentPage(keepQuery bool) string {
	if d.c == nil || d.c.Request() == nil {
		return d.basePath
	}
	u := d.c.Request().URL
	if keepQuery {
		return u.RequestURI()
	}
	return u.EscapedPath()
}

func (d *Dispatcher) save(payload map[string]any) {
	if len(payload) == 0 {
		return
	}
	if d.store == nil {
		d.logger.Warn("no tempdata store; redirect payload dropped", "keys", len(payload))
		return
	}
	keys := make([]string, 0, len(payload))
	for k := range payload {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := d.store.Set(k, payload[k]); err != nil {
			d.logger.Warn("tempdata value skipped", "key", k, "err", err.Error())
		}
	}
	// Flush errors are logged; the redirect still happens.
	if err := d.store.Flush(); err != nil {
		d.logger.Error("tempdata flush failed", "err", err.Error())
	}
}

// EncodeQuery renders params as a sorted query string. Nil values are
// omitted, slices repeat the key, times use RFC 3339 and everything else
// uses its fmt representation.
func EncodeQuery(params map[string]any) string {
	v := url.Values{}
	for k, p := range params {
		switch t := p.(type) {
		case nil:
		case []string:
			v[k] = append(v[k], t...)
		case []any:
			for _, e := range t {
				if e != nil {
					v.Add(k, formatParam(e))
				}
			}
		case []int:
			for _, e := range t {
				v.Add(k, formatParam(e))
			}
		default:
			v.Add(k, formatParam(p))
		}
	}
	return v.Encode()
}

func formatParam(p any) string {
	switch t := p.(type) {
	case time.Time:
		return t.Format(time.RFC3339)
	}
	return fmt.Sprint(p)
}
