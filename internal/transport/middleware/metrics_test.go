package middleware

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type observation struct {
	method string
	route  string
	status int
}

type mockHTTPObserver struct {
	mu   sync.Mutex
	seen []observation
}

func (m *mockHTTPObserver) ObserveHTTP(method, route string, status int, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seen = append(m.seen, observation{method: method, route: route, status: status})
}

func TestMetrics_RouteTemplateLabel(t *testing.T) {
	t.Parallel()

	obs := &mockHTTPObserver{}
	r := mux.NewRouter()
	r.Use(mux.MiddlewareFunc(Metrics(obs)))
	r.HandleFunc("/api/courses/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}).Methods(http.MethodGet)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/courses/c-404", nil))

	require.Len(t, obs.seen, 1)
	assert.Equal(t, observation{method: http.MethodGet, route: "/api/courses/{id}", status: http.StatusNotFound}, obs.seen[0])
}

func TestMetrics_UnmatchedOutsideRouter(t *testing.T) {
	t.Parallel()

	obs := &mockHTTPObserver{}
	handler := Metrics(obs)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/nowhere", nil))

	require.Len(t, obs.seen, 1)
	assert.Equal(t, unmatchedRoute, obs.seen[0].route)
	assert.Equal(t, http.StatusOK, obs.seen[0].status)
}
