package rest

import (
	"net/http"

	"github.com/gorilla/mux"
)

// Routes bundles the handlers mounted by NewRouter.
type Routes struct {
	Search  *SearchHandler
	Health  *HealthHandler
	Metrics http.Handler // nil disables the metrics endpoint
	// MetricsPath defaults to /metrics.
	MetricsPath string
	// Middleware run for matched routes only, after routing.
	Middleware []mux.MiddlewareFunc
}

// NewRouter registers the public API, health endpoints and metrics on a mux router.
// Unknown paths get a JSON 404; wrong methods get a JSON 405.
func NewRouter(routes Routes) *mux.Router {
	r := mux.NewRouter()
	r.Use(routes.Middleware...)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/search", routes.Search.Search).Methods(http.MethodGet)
	api.HandleFunc("/courses/{id}", routes.Search.GetCourse).Methods(http.MethodGet)

	r.HandleFunc("/live", routes.Health.Live).Methods(http.MethodGet)
	r.HandleFunc("/ready", routes.Health.Ready).Methods(http.MethodGet)
	r.HandleFunc("/health", routes.Health.Health).Methods(http.MethodGet)

	if routes.Metrics != nil {
		path := routes.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		r.Handle(path, routes.Metrics).Methods(http.MethodGet)
	}

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	return r
}
