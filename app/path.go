package app

import (
	"path"
	"strings"
)

// cleanPath returns p rooted at "/" with duplicate slashes and dot segments
// collapsed. Route patterns registered through groups go through here.
//
//	cleanPath("forecast")    // "/forecast"
//	cleanPath("/app//home/") // "/app/home"
func cleanPath(p string) string {
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return path.Clean(p)
}

// joinPath joins a group prefix and a route path.
func joinPath(prefix, p string) string {
	switch {
	case prefix == "" || prefix == "/":
		return cleanPath(p)
	case p == "" || p == "/":
		return cleanPath(prefix)
	}
	return cleanPath(strings.TrimRight(prefix, "/") + "/" + strings.TrimLeft(p, "/"))
}
