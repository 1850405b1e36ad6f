package security

import (
	"net/url"
	"path"
	"strings"
)

// RelativeRedirect turns raw into a location that stays on this application.
// basePath is the path the app is mounted under ("/" when empty).
//
// Well-formed relative references are resolved against basePath. Absolute
// and protocol-relative URLs are reduced to their path, query and fragment,
// so the host never reaches the Location header:
//
//	RelativeRedirect("forecast", "/app/")               // "/app/forecast"
//	RelativeRedirect("https://evil.example/x", "/")     // "/x"
//	RelativeRedirect(`\\evil.example\x`, "/")           // "/x"
//	RelativeRedirect("/app/forecast?d=2", "/app/")      // "/app/forecast?d=2"
func RelativeRedirect(raw, basePath string) string {
	base := normalizeBase(basePath)
	out := relativeRedirect(raw, base)
	if strings.HasPrefix(out, "//") || strings.HasPrefix(out, `/\`) {
		return base
	}
	return out
}

func relativeRedirect(raw, base string) string {
	raw = strings.ReplaceAll(stripControl(raw), `\`, "/")

	u, err := url.Parse(raw)
	if err == nil && u.Scheme == "" && u.Host == "" && u.User == nil && !strings.HasPrefix(raw, "//") {
		return resolve(base, u.EscapedPath(), u.RawQuery, u.EscapedFragment())
	}

	p, q, f := splitReference(raw)
	if err == nil {
		p, q, f = u.EscapedPath(), u.RawQuery, u.EscapedFragment()
	}
	if strings.HasPrefix(p, base) {
		p = strings.TrimPrefix(p, base)
	} else if p+"/" == base {
		p = ""
	}
	return resolve(base, strings.TrimLeft(p, "/"), q, f)
}

// resolve joins p onto base. A rooted p is taken as given, so an app-absolute
// "/app/forecast" is not prefixed twice.
func resolve(base, p, rawQuery, fragment string) string {
	var out string
	switch {
	case strings.HasPrefix(p, "/"):
		out = cleanLocation(p)
	case p == "":
		out = base
	default:
		out = cleanLocation(base + p)
		if !strings.HasPrefix(out, base) && out+"/" != base {
			out = base
		}
	}
	if rawQuery != "" {
		out += "?" + rawQuery
	}
	if fragment != "" {
		out += "#" + fragment
	}
	return out
}

// stripControl drops ASCII control bytes and surrounding spaces. Browsers
// remove tab, CR and LF from URLs before parsing, so "/\t/host" would
// otherwise arrive as "//host".
func stripControl(raw string) string {
	raw = strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7f {
			return -1
		}
		return r
	}, raw)
	return strings.TrimSpace(raw)
}

func cleanLocation(p string) string {
	trailing := strings.HasSuffix(p, "/") && p != "/"
	c := path.Clean("/" + p)
	if trailing && c != "/" {
		c += "/"
	}
	return c
}

func normalizeBase(b string) string {
	clean, err := BasePath(b)
	if err != nil {
		return "/"
	}
	return clean
}

// splitReference strips scheme and authority from references url.Parse
// rejects, e.g. "https://evil.example/%zz".
func splitReference(raw string) (p, rawQuery, fragment string) {
	rest := raw
	authority := false
	if i := strings.Index(rest, "://"); i >= 0 {
		rest, authority = rest[i+3:], true
	} else if strings.HasPrefix(rest, "//") {
		rest, authority = rest[2:], true
	}
	if authority {
		if i := strings.IndexAny(rest, "/?#"); i < 0 {
			rest = ""
		} else {
			rest = rest[i:]
		}
	}
	rest, fragment, _ = strings.Cut(rest, "#")
	p, rawQuery, _ = strings.Cut(rest, "?")
	return p, rawQuery, fragment
}
