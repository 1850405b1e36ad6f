package middleware

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/mq-gh-dev/blazor-ssr-tempdata/app"
	"github.com/mq-gh-dev/blazor-ssr-tempdata/ctx"
)

type sessionContextKey struct{}

// Store persists session values by id.
type Store interface {
	Get(ctx context.Context, id string) (map[string]any, bool, error)
	Save(ctx context.Context, id string, data map[string]any, ttl time.Duration) error
	Delete(ctx context.Context, id string) error
}

// MemoryStore is an in-memory Store with TTL. Sessions are lost on restart
// and are not shared between processes.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]entry
}

type entry struct {
	v   map[string]any
	exp time.Time
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore { return &MemoryStore{data: make(map[string]entry)} }

func (m *MemoryStore) Get(c context.Context, id string) (map[string]any, bool, error) {
	m.mu.RLock()
	e, ok := m.data[id]
	m.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	if !e.exp.IsZero() && time.Now().After(e.exp) {
		return nil, false, m.Delete(c, id)
	}
	return copyMap(e.v), true, nil
}

func (m *MemoryStore) Save(_ context.Context, id string, data map[string]any, ttl time.Duration) error {
	if id == "" {
		return errors.New("empty session id")
	}
	var exp time.Time
	if ttl > 0 {
		exp = time.Now().Add(ttl)
	}
	m.mu.Lock()
	m.data[id] = entry{v: copyMap(data), exp: exp}
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	delete(m.data, id)
	m.mu.Unlock()
	return nil
}

func copyMap(src map[string]any) map[string]any {
	dst := make(map[string]any, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

// Session is the per-request view of a session.
type Session struct {
	ID      string
	Values  map[string]any
	changed bool
	new     bool
}

func (s *Session) Get(key string) (any, bool) { v, ok := s.Values[key]; return v, ok }
func (s *Session) Set(key string, v any)      { s.Values[key] = v; s.changed = true }
func (s *Session) Delete(key string) {
	if _, ok := s.Values[key]; ok {
		delete(s.Values, key)
		s.changed = true
	}
}

// SessionConfig configures the session middleware.
type SessionConfig struct {
	Store      Store
	TTL        time.Duration
	CookieName string
	CookiePath string
	Domain     string
	Secure     bool
	HTTPOnly   bool
	SameSite   http.SameSite
	// IDGenerator creates new session ids. Defaults to 32 random bytes,
	// base64url encoded.
	IDGenerator func() string
}

func defaultSessionConfig() SessionConfig {
	return SessionConfig{
		TTL:         24 * time.Hour,
		CookieName:  "tempdata.sid",
		CookiePath:  "/",
		HTTPOnly:    true,
		SameSite:    http.SameSiteLaxMode,
		IDGenerator: newSessionID,
	}
}

// Sessions loads the session before the handler and saves it right before
// the response header is written, so handlers that redirect still persist
// their changes. A Store error on load is logged and the request continues
// with an empty session.
//
//	a.Use(middleware.Sessions(middleware.SessionConfig{Store: sqliteStore}))
func Sessions(cfg SessionConfig) app.Middleware {
	def := defaultSessionConfig()
	if cfg.Store == nil {
		cfg.Store = NewMemoryStore()
	}
	if cfg.TTL == 0 {
		cfg.TTL = def.TTL
	}
	if cfg.CookieName == "" {
		cfg.CookieName = def.CookieName
	}
	if cfg.CookiePath == "" {
		cfg.CookiePath = def.CookiePath
	}
	if cfg.SameSite == 0 {
		cfg.SameSite = def.SameSite
	}
	if cfg.IDGenerator == nil {
		cfg.IDGenerator = def.IDGenerator
	}

	return func(next app.Handler) app.Handler {
		return func(c ctx.Ctx) error {
			r := c.Request()
			l := ctx.LoggerFromContext(r.Context())

			sess := &Session{Values: map[string]any{}, new: true}
			if ck, err := r.Cookie(cfg.CookieName); err == nil && ck.Value != "" {
				vals, ok, err := cfg.Store.Get(r.Context(), ck.Value)
				switch {
				case err != nil:
					l.Warn("session load failed", "err", err.Error())
				case ok:
					sess = &Session{ID: ck.Value, Values: vals}
				}
			}

			c.SetRequest(r.WithContext(context.WithValue(r.Context(), sessionContextKey{}, sess)))

			flushed := false
			flush := func() {
				if flushed || !sess.changed {
					flushed = true
					return
				}
				flushed = true
				if sess.ID == "" {
					sess.ID = cfg.IDGenerator()
				}
				if err := cfg.Store.Save(c.Context(), sess.ID, sess.Values, cfg.TTL); err != nil {
					l.Error("session save failed", "err", err)
					return
				}
				if sess.new {
					http.SetCookie(c.ResponseWriter(), &http.Cookie{
						Name:     cfg.CookieName,
						Value:    sess.ID,
						Path:     cfg.CookiePath,
						Domain:   cfg.Domain,
						Secure:   cfg.Secure,
						HttpOnly: cfg.HTTPOnly,
						SameSite: cfg.SameSite,
						MaxAge:   int(cfg.TTL / time.Second),
					})
				}
			}
			c.SetResponseWriter(&headerWriteInterceptor{rw: c.ResponseWriter(), before: flush})

			err := next(c)
			flush()
			return err
		}
	}
}

// SessionFromContext returns the session loaded by Sessions, or nil.
func SessionFromContext(c context.Context) *Session {
	s, _ := c.Value(sessionContextKey{}).(*Session)
	return s
}

func newSessionID() string {
	b := make([]byte, 32)
	_, _ = rand.Read(b)
	return base64.RawURLEncoding.EncodeToString(b)
}

// headerWriteInterceptor calls before ahead of the first header write.
type headerWriteInterceptor struct {
	rw      http.ResponseWriter
	before  func()
	written bool
}

func (h *headerWriteInterceptor) Header() http.Header { return h.rw.Header() }

func (h *headerWriteInterceptor) WriteHeader(status int) {
	if !h.written {
		h.written = true
		h.before()
	}
	h.rw.WriteHeader(status)
}

func (h *headerWriteInterceptor) Write(p []byte) (int, error) {
	if !h.written {
		h.WriteHeader(http.StatusOK)
	}
	return h.rw.Write(p)
}

// Unwrap exposes the wrapped writer to http.ResponseController.
func (h *headerWriteInterceptor) Unwrap() http.ResponseWriter { return h.rw }
