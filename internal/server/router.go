package server

import (
	"net/http"
	"sort"
	"strings"
)

// BasicRouter implements [Router] on top of [http.ServeMux] for the OAuth callback server.
type BasicRouter struct {
	mux         *http.ServeMux
	middlewares []Middleware
	routes      map[string]string
}

// NewBasicRouter creates an empty [BasicRouter].
func NewBasicRouter() *BasicRouter {
	return &BasicRouter{
		mux:    http.NewServeMux(),
		routes: make(map[string]string),
	}
}

// Use appends middleware; the first added is the outermost.
//
// Only routes registered after the call are wrapped.
func (r *BasicRouter) Use(middleware ...Middleware) {
	r.middlewares = append(r.middlewares, middleware...)
}

// Handle registers handler for method on path. Other methods get 405 with an Allow header.
func (r *BasicRouter) Handle(method, path string, handler http.Handler) {
	method = strings.ToUpper(method)
	wrapped := r.Apply(allowOnly(method, handler))

	r.routes[path] = method
	r.mux.Handle(path, wrapped)
}

// Handler registers every route of a [Handler] for GET, the method browsers use on redirect.
func (r *BasicRouter) Handler(handler Handler) {
	for _, route := range handler.Routes() {
		r.Handle(http.MethodGet, route, handler)
	}
}

// Routes lists the registered routes as "METHOD path", sorted by path.
func (r *BasicRouter) Routes() []string {
	paths := make([]string, 0, len(r.routes))
	for path := range r.routes {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	out := make([]string, len(paths))
	for i, path := range paths {
		out[i] = r.routes[path] + " " + path
	}
	return out
}

// ServeHTTP implements [http.Handler] for the entire router.
func (r *BasicRouter) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// Apply wraps handler with the registered middleware.
func (r *BasicRouter) Apply(handler http.Handler) http.Handler {
	wrapped := handler
	for i := len(r.middlewares) - 1; i >= 0; i-- {
		wrapped = r.middlewares[i](wrapped)
	}
	return wrapped
}

func allowOnly(method string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if req.Method != method {
			w.Header().Set("Allow", method)
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		next.ServeHTTP(w, req)
	})
}
