// Package relay carries small values from one request to the next one,
// typically across a POST-redirect-GET round trip.
//
// A Store is a per-request view over a transport (cookie or session). Values
// read from it are removed at Flush, values written are persisted at Flush:
//
//	d := relay.NewDictionary(c, cookieProvider)
//	_ = d.Set("Description", "Sunny")
//	_ = d.Flush() // Set-Cookie written
//
//	// next request
//	var desc string
//	relay.Read(d).TryGet("Description", &desc, nil).Flush() // cookie deleted
package relay

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/mq-gh-dev/blazor-ssr-tempdata/ctx"
)

var (
	// ErrUnsupportedType is returned by Set for values outside the canonical
	// set (strings, booleans, numbers, times, UUIDs, []string and
	// map[string]string).
	ErrUnsupportedType = errors.New("relay: unsupported value type")
	// ErrInvalidDestination is recorded by the Accessor when TryGet is given
	// something other than a non-nil pointer.
	ErrInvalidDestination = errors.New("relay: destination must be a non-nil pointer")
)

// Store is the relay contract used by the redirect dispatcher and the
// typed reader.
type Store interface {
	// Get returns the value under key and marks it for removal at Flush.
	Get(key string) (any, bool)
	// Set inserts or overwrites key. The value survives the next Flush.
	Set(key string, v any) error
	// Flush persists pending insertions and removals to the transport.
	Flush() error
}

// Provider loads and saves the whole relay map for one request.
type Provider interface {
	Load(c ctx.Ctx) (map[string]any, error)
	Save(c ctx.Ctx, values map[string]any) error
}

type storeContextKey struct{}

// WithStore returns a context carrying s.
func WithStore(parent context.Context, s Store) context.Context {
	return context.WithValue(parent, storeContextKey{}, s)
}

// FromContext returns the Store attached by the TempData middleware, or nil.
func FromContext(c context.Context) Store {
	if c == nil {
		return nil
	}
	s, _ := c.Value(storeContextKey{}).(Store)
	return s
}
