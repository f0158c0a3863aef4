// Package routes declares HTTP routes as data and registers them on a
// ServeMux using method-qualified patterns.
package routes

import "net/http"

// Route binds an HTTP method and path pattern to a handler.
type Route struct {
	Method  string
	Pattern string
	Handler http.HandlerFunc
}

// Group collects routes under a shared prefix. Nested groups extend the
// prefix of their parent.
type Group struct {
	Prefix   string
	Routes   []Route
	Children []Group
}

// Patterns returns the ServeMux pattern of every route in g and its
// children, in registration order.
func (g Group) Patterns() []string {
	var patterns []string
	g.walk("", func(pattern string, _ http.HandlerFunc) {
		patterns = append(patterns, pattern)
	})
	return patterns
}

// Register adds every route of groups to mux and returns the registered
// patterns.
func Register(mux *http.ServeMux, groups ...Group) []string {
	var patterns []string
	for _, g := range groups {
		g.walk("", func(pattern string, h http.HandlerFunc) {
			mux.HandleFunc(pattern, h)
			patterns = append(patterns, pattern)
		})
	}
	return patterns
}

func (g Group) walk(parent string, fn func(pattern string, h http.HandlerFunc)) {
	prefix := parent + g.Prefix
	for _, r := range g.Routes {
		fn(r.Method+" "+prefix+r.Pattern, r.Handler)
	}
	for _, child := range g.Children {
		child.walk(prefix, fn)
	}
}
