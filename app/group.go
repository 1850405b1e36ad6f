package app

import "net/http"

// Group is a set of routes sharing a URL prefix and middleware.
//
// Middleware order: global (App.Use), then parent group, then child group,
// then route-specific middleware, then the handler.
//
//	pages := a.Group("/", middleware.TempData(provider))
//	pages.GET("/forecast", Forecast)
type Group struct {
	app        *DefaultApp
	prefix     string
	middleware []Middleware
}

// Group creates a route group under prefix with optional middleware.
func (a *DefaultApp) Group(prefix string, mw ...Middleware) *Group {
	return &Group{app: a, prefix: cleanPath(prefix), middleware: mw}
}

// Use adds middleware to the group for routes registered afterwards.
func (g *Group) Use(mw ...Middleware) { g.middleware = append(g.middleware, mw...) }

// Group creates a nested group inheriting the parent's prefix and middleware.
func (g *Group) Group(prefix string, mw ...Middleware) *Group {
	child := &Group{app: g.app, prefix: joinPath(g.prefix, prefix)}
	child.middleware = append(child.middleware, g.middleware...)
	if len(mw) > 0 {
		child.middleware = append(child.middleware, mw...)
	}
	return child
}

func (g *Group) handle(method, p string, h Handler, mws ...Middleware) {
	all := append([]Middleware{}, g.middleware...)
	all = append(all, mws...)
	g.app.handle(method, joinPath(g.prefix, p), h, all...)
}

// GET registers a handler for HTTP GET requests on the group's prefix + path.
func (g *Group) GET(p string, h Handler, mws ...Middleware) { g.handle(http.MethodGet, p, h, mws...) }

// POST registers a handler for HTTP POST requests on the group's prefix + path.
func (g *Group) POST(p string, h Handler, mws ...Middleware) { g.handle(http.MethodPost, p, h, mws...) }

// Handle registers a handler for an arbitrary method on the group's prefix + path.
func (g *Group) Handle(method, p string, h Handler, mws ...Middleware) {
	g.handle(method, p, h, mws...)
}
