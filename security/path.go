package security

import (
	"net/url"
	"path"
	"regexp"
	"strings"

	"github.com/cockroachdb/errors"
)

// ErrUnsafePath is returned by BasePath for paths that do not decode or that
// carry characters outside the safe set.
var ErrUnsafePath = errors.New("security: unsafe path")

var safePathRegex = regexp.MustCompile(`^[a-zA-Z0-9/_\-.~]*$`)

// BasePath normalises the path an app is mounted under: escapes decoded, dot
// segments and duplicate slashes collapsed, one leading and one trailing
// slash.
//
//	BasePath("app")          // "/app/", nil
//	BasePath("/a/./b//")     // "/a/b/", nil
//	BasePath("/a%2F..%2F..") // "/", nil
//	BasePath("/a b")         // "", ErrUnsafePath
func BasePath(raw string) (string, error) {
	if raw == "" {
		return "/", nil
	}
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return "", errors.Wrapf(ErrUnsafePath, "%q: %v", raw, err)
	}
	clean := path.Clean("/" + decoded)
	if !safePathRegex.MatchString(clean) {
		return "", errors.Wrapf(ErrUnsafePath, "%q", raw)
	}
	if !strings.HasSuffix(clean, "/") {
		clean += "/"
	}
	return clean, nil
}
