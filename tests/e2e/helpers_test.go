//go:build e2e

package e2e_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/heartmarshall/course-search/internal/adapter/postgres/testhelper"
	"github.com/heartmarshall/course-search/internal/app"
	"github.com/heartmarshall/course-search/internal/config"
	"github.com/heartmarshall/course-search/internal/domain"
	"github.com/heartmarshall/course-search/internal/transport/middleware"
)

type testServer struct {
	URL    string
	Client *http.Client
	Deps   *app.Deps
}

type testLogWriter struct{ t *testing.T }

func (w testLogWriter) Write(p []byte) (int, error) {
	w.t.Log(string(p))
	return len(p), nil
}

type courseJSON struct {
	ID              string     `json:"id"`
	Title           string     `json:"title"`
	Description     string     `json:"description"`
	Category        string     `json:"category"`
	Type            string     `json:"type"`
	GradeRange      string     `json:"gradeRange"`
	MinAge          int        `json:"minAge"`
	MaxAge          int        `json:"maxAge"`
	Price           float64    `json:"price"`
	NextSessionDate *time.Time `json:"nextSessionDate"`
}

type searchJSON struct {
	Total   int64        `json:"total"`
	Courses []courseJSON `json:"courses"`
}

// setupTestServer wires the full HTTP stack against the shared test
// database and loads the embedded sample catalog.
func setupTestServer(t *testing.T) *testServer {
	t.Helper()

	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(testLogWriter{t}, &slog.HandlerOptions{Level: slog.LevelWarn}))

	cfg := &config.Config{
		Database: config.DatabaseConfig{DSN: testhelper.DSN(t), MaxConns: 4, MinConns: 1, MaxConnLifetime: time.Hour, MaxConnIdleTime: time.Minute},
		Search: config.SearchConfig{
			QueryTimeout:    5 * time.Second,
			DefaultPageSize: 10,
			MaxPageSize:     100,
			FuzzyThreshold:  0.4,
			TextPolicy:      config.TextPolicyLengthKeyed,
		},
		Loader:  config.LoaderConfig{BatchSize: 50},
		CORS:    config.CORSConfig{AllowedOrigins: "*", AllowedMethods: "GET,OPTIONS", AllowedHeaders: "Content-Type,X-Request-Id", MaxAge: 600},
		Metrics: config.MetricsConfig{Enabled: true, Path: "/metrics"},
	}

	deps, err := app.NewDeps(ctx, cfg, logger)
	require.NoError(t, err)
	t.Cleanup(deps.Close)

	_, err = deps.Loader.Load(ctx)
	require.NoError(t, err)

	limiter := middleware.NewRateLimiter(time.Minute)
	t.Cleanup(limiter.Stop)

	srv := httptest.NewServer(app.NewHTTPHandler(cfg, logger, deps, limiter))
	t.Cleanup(srv.Close)

	return &testServer{URL: srv.URL, Client: srv.Client(), Deps: deps}
}

// seed inserts courses directly through the repository.
func (ts *testServer) seed(t *testing.T, courses ...domain.Course) {
	t.Helper()
	_, err := ts.Deps.Courses.Upsert(context.Background(), courses)
	require.NoError(t, err)
}

// search calls GET /api/search and decodes a 200 response.
func (ts *testServer) search(t *testing.T, params url.Values) searchJSON {
	t.Helper()

	status, body := ts.get(t, "/api/search?"+params.Encode())
	require.Equal(t, http.StatusOK, status, "body: %s", body)

	var out searchJSON
	require.NoError(t, json.Unmarshal(body, &out))
	require.NotNil(t, out.Courses, "courses must be an array, never null")
	return out
}

func (ts *testServer) get(t *testing.T, path string) (int, []byte) {
	t.Helper()

	resp, err := ts.Client.Get(ts.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()

	var raw json.RawMessage
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&raw))
	return resp.StatusCode, raw
}

func ids(courses []courseJSON) []string {
	out := make([]string, 0, len(courses))
	for _, c := range courses {
		out = append(out, c.ID)
	}
	return out
}

func prices(courses []courseJSON) []float64 {
	out := make([]float64, 0, len(courses))
	for _, c := range courses {
		out = append(out, c.Price)
	}
	return out
}
