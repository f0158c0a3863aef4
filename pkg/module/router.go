package module

import (
	"net/http"
	"strings"
)

// Router dispatches requests to mounted modules by path prefix. Unmatched
// paths go to the native mux, and anything the native mux does not know goes
// to the fallback handler when one is set.
type Router struct {
	modules  map[string]*Module
	native   *http.ServeMux
	fallback http.Handler
}

// NewRouter creates a Router with an empty module map and native mux.
func NewRouter() *Router {
	return &Router{
		modules: make(map[string]*Module),
		native:  http.NewServeMux(),
	}
}

// HandleNative registers a handler on the native mux.
func (r *Router) HandleNative(pattern string, handler http.Handler) {
	r.native.Handle(pattern, handler)
}

// Mount registers a module to handle requests matching its prefix.
func (r *Router) Mount(m *Module) {
	r.modules[m.prefix] = m
}

// SetFallback sets the handler for paths matched by neither a module nor the native mux.
func (r *Router) SetFallback(handler http.Handler) {
	r.fallback = handler
}

// ServeHTTP dispatches to the matching module, the native mux, or the fallback.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	path := normalizePath(req)

	if m, ok := r.modules[extractPrefix(path)]; ok {
		m.Serve(w, req)
		return
	}

	if r.fallback != nil {
		if _, pattern := r.native.Handler(req); pattern == "" {
			r.fallback.ServeHTTP(w, req)
			return
		}
	}

	r.native.ServeHTTP(w, req)
}

func extractPrefix(path string) string {
	parts := strings.SplitN(path, "/", 3)
	if len(parts) >= 2 {
		return "/" + parts[1]
	}
	return path
}

func normalizePath(req *http.Request) string {
	path := req.URL.Path
	if len(path) > 1 && strings.HasSuffix(path, "/") {
		path = strings.TrimSuffix(path, "/")
		req.URL.Path = path
	}
	return path
}
