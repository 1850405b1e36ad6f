// Package config reads the example server settings from the environment.
package config

import (
	"context"
	"encoding/base64"
	"encoding/hex"
	"log/slog"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/sethvargo/go-envconfig"

	"github.com/mq-gh-dev/blazor-ssr-tempdata/relay/cookie"
	"github.com/mq-gh-dev/blazor-ssr-tempdata/security"
)

// Providers accepted by TEMPDATA_PROVIDER.
const (
	ProviderCookie  = "cookie"
	ProviderSession = "session"
)

type Config struct {
	Addr            string        `env:"ADDR,default=:8080"`
	Env             string        `env:"ENV,default=dev"`
	LogLevel        string        `env:"LOG_LEVEL,default=info"`
	BasePath        string        `env:"BASE_PATH,default=/"`
	Provider        string        `env:"TEMPDATA_PROVIDER,default=cookie"`
	CookieName      string        `env:"TEMPDATA_COOKIE_NAME,default=.tempdata"`
	Key             string        `env:"TEMPDATA_KEY"`
	CookieSecure    bool          `env:"COOKIE_SECURE,default=false"`
	SessionDB       string        `env:"SESSION_DB"`
	TemplateDir     string        `env:"TEMPLATE_DIR"`
	MetricsAddr     string        `env:"METRICS_ADDR,default=:9090"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT,default=5s"`
	MaxFormBytes    int64         `env:"MAX_FORM_BYTES,default=65536"`
	TraceStdout     bool          `env:"TRACE_STDOUT,default=false"`
}

// Load reads the process environment.
func Load(c context.Context) (Config, error) {
	return load(c, envconfig.OsLookuper())
}

func load(c context.Context, l envconfig.Lookuper) (Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(c, &cfg, l); err != nil {
		return Config{}, errors.Wrap(err, "parsing env vars")
	}
	return cfg, nil
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	if c.Addr == "" {
		return errors.New("ADDR must not be empty")
	}
	switch c.Provider {
	case ProviderCookie, ProviderSession:
	default:
		return errors.Newf("TEMPDATA_PROVIDER must be %q or %q, got %q", ProviderCookie, ProviderSession, c.Provider)
	}
	if !strings.HasPrefix(c.BasePath, "/") {
		return errors.Newf("BASE_PATH must start with /, got %q", c.BasePath)
	}
	if _, err := security.BasePath(c.BasePath); err != nil {
		return errors.Wrap(err, "BASE_PATH")
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	if _, _, err := c.CookieKey(); err != nil {
		return err
	}
	if c.ShutdownTimeout <= 0 {
		return errors.New("SHUTDOWN_TIMEOUT must be positive")
	}
	return nil
}

// Dev reports whether the server runs in development mode.
func (c Config) Dev() bool { return c.Env == "dev" }

// Level parses LOG_LEVEL.
func (c Config) Level() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, errors.Wrapf(err, "LOG_LEVEL %q", c.LogLevel)
	}
	return l, nil
}

// CookieKey decodes TEMPDATA_KEY, given as 64 hex digits or base64 of 32
// bytes. ok is false when the key is unset.
func (c Config) CookieKey() (key *cookie.Key, ok bool, err error) {
	s := strings.TrimSpace(c.Key)
	if s == "" {
		return nil, false, nil
	}
	b, err := decodeKey(s)
	if err != nil {
		return nil, false, err
	}
	key = new(cookie.Key)
	copy(key[:], b)
	return key, true, nil
}

func decodeKey(s string) ([]byte, error) {
	if len(s) == 2*cookie.KeySize {
		if b, err := hex.DecodeString(s); err == nil {
			return b, nil
		}
	}
	for _, enc := range []*base64.Encoding{base64.StdEncoding, base64.RawStdEncoding, base64.URLEncoding, base64.RawURLEncoding} {
		if b, err := enc.DecodeString(s); err == nil && len(b) == cookie.KeySize {
			return b, nil
		}
	}
	return nil, errors.Newf("TEMPDATA_KEY must be %d bytes, hex or base64 encoded", cookie.KeySize)
}
