// Package cookie keeps relay values in an encrypted browser cookie. Large
// payloads are split over several cookies:
//
//	.tempdata=chunks-2; .tempdataC1=...; .tempdataC2=...
package cookie

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/mq-gh-dev/blazor-ssr-tempdata/ctx"
	"github.com/mq-gh-dev/blazor-ssr-tempdata/relay"
)

const (
	chunkPrefix = "chunks-"
	// maxChunks bounds the chunk count a request may claim.
	maxChunks = 64
)

var _ relay.Provider = (*Provider)(nil)

// Provider is a relay.Provider backed by cookies.
type Provider struct {
	config Config
	codec  *Codec
}

// New returns a Provider sealing with key. The config is defaulted and
// validated.
func New(key *Key, c Config) (*Provider, error) {
	if key == nil {
		return nil, errors.New("tempdata cookie key is required")
	}
	c.Default()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &Provider{config: c, codec: NewCodec(key)}, nil
}

// Name returns the primary cookie name.
func (p *Provider) Name() string { return p.config.Name }

// Load reads and opens the request cookie. A missing cookie yields no values.
func (p *Provider) Load(c ctx.Ctx) (map[string]any, error) {
	raw, ok := p.readCookie(c.Request())
	if !ok {
		return nil, nil
	}
	values, err := p.codec.Decode(raw)
	if err != nil {
		return nil, errors.Wrapf(err, "cookie %q", p.config.Name)
	}
	return values, nil
}

// Save seals values into the response cookies. Empty values delete the
// cookie when the request carried one. Set-Cookie headers staged earlier in
// the same request for this cookie are replaced.
func (p *Provider) Save(c ctx.Ctx, values map[string]any) error {
	w := c.ResponseWriter()
	p.dropStaged(w.Header())
	previous := p.requestChunks(c.Request())

	if len(values) == 0 {
		if _, err := c.Request().Cookie(p.config.Name); err == nil {
			p.delete(w, p.config.Name)
			for _, i := range previous {
				p.delete(w, p.chunkName(i))
			}
		}
		return nil
	}

	value, err := p.codec.Encode(values, p.config.MaxAge)
	if err != nil {
		return err
	}

	size := p.config.ChunkSize
	if len(value) <= size {
		p.set(w, p.config.Name, value)
		for _, i := range previous {
			p.delete(w, p.chunkName(i))
		}
		return nil
	}

	n := (len(value) + size - 1) / size
	p.set(w, p.config.Name, chunkPrefix+strconv.Itoa(n))
	for i := 1; i <= n; i++ {
		end := i * size
		if end > len(value) {
			end = len(value)
		}
		p.set(w, p.chunkName(i), value[(i-1)*size:end])
	}
	for _, i := range previous {
		if i > n {
			p.delete(w, p.chunkName(i))
		}
	}
	return nil
}

func (p *Provider) chunkName(i int) string { return p.config.Name + "C" + strconv.Itoa(i) }

// readCookie reassembles the sealed value from the request.
func (p *Provider) readCookie(r *http.Request) (string, bool) {
	ck, err := r.Cookie(p.config.Name)
	if err != nil || ck.Value == "" {
		return "", false
	}
	n, chunked := parseChunkCount(ck.Value)
	if !chunked {
		return ck.Value, true
	}
	var b strings.Builder
	for i := 1; i <= n; i++ {
		part, err := r.Cookie(p.chunkName(i))
		if err != nil {
			// A partial set cannot be opened; treat it as garbage.
			return "", true
		}
		b.WriteString(part.Value)
	}
	return b.String(), true
}

// requestChunks returns the chunk indexes of the cookies the request
// actually carries, whatever the primary cookie claims.
func (p *Provider) requestChunks(r *http.Request) []int {
	var out []int
	seen := make(map[int]bool)
	for _, ck := range r.Cookies() {
		i, ok := p.chunkIndex(ck.Name)
		if ok && !seen[i] {
			seen[i] = true
			out = append(out, i)
		}
	}
	return out
}

func (p *Provider) chunkIndex(name string) (int, bool) {
	rest, ok := strings.CutPrefix(name, p.config.Name+"C")
	if !ok {
		return 0, false
	}
	i, err := strconv.Atoi(rest)
	if err != nil || i <= 0 {
		return 0, false
	}
	return i, true
}

func parseChunkCount(v string) (int, bool) {
	if !strings.HasPrefix(v, chunkPrefix) {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimPrefix(v, chunkPrefix))
	if err != nil || n <= 0 || n > maxChunks {
		return 0, false
	}
	return n, true
}

// dropStaged removes Set-Cookie headers for this cookie and its chunks.
func (p *Provider) dropStaged(h http.Header) {
	staged := h.Values("Set-Cookie")
	if len(staged) == 0 {
		return
	}
	kept := staged[:0:0]
	for _, line := range staged {
		name, _, _ := strings.Cut(line, "=")
		if !p.owns(name) {
			kept = append(kept, line)
		}
	}
	h.Del("Set-Cookie")
	for _, line := range kept {
		h.Add("Set-Cookie", line)
	}
}

func (p *Provider) owns(name string) bool {
	if name == p.config.Name {
		return true
	}
	_, ok := p.chunkIndex(name)
	return ok
}

func (p *Provider) set(w http.ResponseWriter, name, value string) {
	ck := p.cookie(name, value)
	if p.config.MaxAge > 0 {
		ck.MaxAge = int(p.config.MaxAge / time.Second)
	}
	http.SetCookie(w, ck)
}

func (p *Provider) delete(w http.ResponseWriter, name string) {
	ck := p.cookie(name, "")
	ck.MaxAge = -1
	ck.Expires = time.Unix(0, 0).UTC()
	http.SetCookie(w, ck)
}

func (p *Provider) cookie(name, value string) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     p.config.Path,
		Domain:   p.config.Domain,
		Secure:   *p.config.Secure,
		HttpOnly: *p.config.HTTPOnly,
		SameSite: SameSite[strings.ToLower(p.config.SameSite)],
	}
}
