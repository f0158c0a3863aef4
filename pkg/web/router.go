package web

import "net/http"

// Router is a ServeMux that sends requests matching no pattern to NotFound
// instead of the mux's plain-text 404.
type Router struct {
	*http.ServeMux
	NotFound http.Handler
}

// NewRouter creates a Router. A nil notFound keeps the mux's own 404.
func NewRouter(notFound http.Handler) *Router {
	return &Router{ServeMux: http.NewServeMux(), NotFound: notFound}
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	if r.NotFound != nil {
		if _, pattern := r.Handler(req); pattern == "" {
			r.NotFound.ServeHTTP(w, req)
			return
		}
	}
	r.ServeMux.ServeHTTP(w, req)
}
