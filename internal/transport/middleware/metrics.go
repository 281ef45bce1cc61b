package middleware

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
)

// unmatchedRoute labels requests that did not match a registered route.
const unmatchedRoute = "unmatched"

type httpObserver interface {
	ObserveHTTP(method, route string, status int, took time.Duration)
}

// Metrics returns middleware that reports each request to obs, labelled with
// the matched mux route template (e.g. /api/courses/{id}).
// Register it with mux.Router.Use so the route is known.
func Metrics(obs httpObserver) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := newStatusWriter(w)

			next.ServeHTTP(sw, r)

			obs.ObserveHTTP(r.Method, routeTemplate(r), sw.status, time.Since(start))
		})
	}
}

func routeTemplate(r *http.Request) string {
	route := mux.CurrentRoute(r)
	if route == nil {
		return unmatchedRoute
	}
	tpl, err := route.GetPathTemplate()
	if err != nil {
		return unmatchedRoute
	}
	return tpl
}
