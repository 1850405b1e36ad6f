// Package session keeps relay values inside the server-side session managed
// by middleware.Sessions.
package session

import (
	"github.com/cockroachdb/errors"

	"github.com/mq-gh-dev/blazor-ssr-tempdata/ctx"
	"github.com/mq-gh-dev/blazor-ssr-tempdata/middleware"
)

// Key is the session entry holding the relay map.
const Key = "__tempdata"

// ErrNoSession is returned when the Sessions middleware did not run before
// TempData.
var ErrNoSession = errors.New("relay: no session in request context")

// Provider implements relay.Provider over the request session.
type Provider struct{}

// New returns a session backed provider.
func New() *Provider { return &Provider{} }

// Load returns the relay map stored in the session, or nil when there is none.
func (p *Provider) Load(c ctx.Ctx) (map[string]any, error) {
	s := middleware.SessionFromContext(c.Context())
	if s == nil {
		return nil, ErrNoSession
	}
	raw, ok := s.Get(Key)
	if !ok || raw == nil {
		return nil, nil
	}
	values, ok := raw.(map[string]any)
	if !ok {
		return nil, errors.Newf("relay: session entry %q has type %T", Key, raw)
	}
	return values, nil
}

// Save replaces the relay map. An empty map removes the session entry.
func (p *Provider) Save(c ctx.Ctx, values map[string]any) error {
	s := middleware.SessionFromContext(c.Context())
	if s == nil {
		return ErrNoSession
	}
	if len(values) == 0 {
		s.Delete(Key)
		return nil
	}
	s.Set(Key, values)
	return nil
}
