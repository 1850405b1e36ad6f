package cookie

import (
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
)

const (
	// DefaultName is the cookie carrying the relay values.
	DefaultName = ".tempdata"
	// DefaultChunkSize keeps every cookie below the 4096 byte browser limit
	// once name and attributes are added.
	DefaultChunkSize = 4050

	SameSiteDefault = "default"
	SameSiteLax     = "lax"
	SameSiteStrict  = "strict"
	SameSiteNone    = "none"
)

var SameSite = map[string]http.SameSite{
	SameSiteDefault: http.SameSiteDefaultMode,
	SameSiteLax:     http.SameSiteLaxMode,
	SameSiteStrict:  http.SameSiteStrictMode,
	SameSiteNone:    http.SameSiteNoneMode,
}

// Config describes the relay cookie.
type Config struct {
	Name      string
	Path      string
	Domain    string
	Secure    *bool
	HTTPOnly  *bool
	SameSite  string
	ChunkSize int
	// MaxAge bounds how long a sealed payload is accepted. Zero means the
	// cookie lives for the browser session.
	MaxAge time.Duration
}

func (c *Config) Default() {
loop:
	for {
		switch {
		case c.Name == "":
			c.Name = DefaultName
		case c.Path == "":
			c.Path = "/"
		case c.Secure == nil:
			b := false
			c.Secure = &b
		case c.HTTPOnly == nil:
			b := true
			c.HTTPOnly = &b
		case c.SameSite == "":
			c.SameSite = SameSiteLax
		case c.ChunkSize <= 0:
			c.ChunkSize = DefaultChunkSize
		default:
			break loop
		}
	}
}

func (c *Config) Validate() error {
	if _, ok := SameSite[strings.ToLower(c.SameSite)]; !ok {
		available := make([]string, 0, len(SameSite))
		for k := range SameSite {
			available = append(available, k)
		}
		sort.Strings(available)

		return errors.Errorf(
			"unexpected same-site value %q, expected one of: %q",
			c.SameSite, available,
		)
	}
	if strings.EqualFold(c.SameSite, SameSiteNone) && !*c.Secure {
		return errors.New("same-site none requires a secure cookie")
	}
	if c.MaxAge < 0 {
		return errors.Errorf("negative max age %s", c.MaxAge)
	}
	return nil
}
