package rest

import (
	"context"
	"net/http"
	"time"
)

const healthTimeout = 3 * time.Second

// Health and component states.
const (
	statusOK       = "ok"
	statusDown     = "down"
	statusEmpty    = "empty"
	statusDegraded = "degraded"
)

type dbPinger interface {
	Ping(ctx context.Context) error
}

// catalogCounter reports how many courses are searchable.
type catalogCounter interface {
	Count(ctx context.Context) (int64, error)
}

// HealthHandler serves /live, /ready and /health for the search service.
type HealthHandler struct {
	db      dbPinger
	catalog catalogCounter
	version string
}

// NewHealthHandler creates a HealthHandler. catalog may be nil, in which
// case /health reports the database only.
func NewHealthHandler(db dbPinger, catalog catalogCounter, version string) *HealthHandler {
	return &HealthHandler{db: db, catalog: catalog, version: version}
}

// HealthResponse is the JSON body of every health endpoint.
type HealthResponse struct {
	Status     string                `json:"status"`
	Version    string                `json:"version,omitempty"`
	Components map[string]CompStatus `json:"components,omitempty"`
	Timestamp  time.Time             `json:"timestamp"`
}

// CompStatus is the state of one dependency. Courses is set for the
// catalog component only.
type CompStatus struct {
	Status  string `json:"status"`
	Latency string `json:"latency,omitempty"`
	Courses *int64 `json:"courses,omitempty"`
}

// Live always answers 200 while the process serves HTTP.
func (h *HealthHandler) Live(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: statusOK, Timestamp: time.Now()})
}

// Ready answers 200 when the database accepts queries, 503 otherwise.
// An empty catalog is still ready: searches return no results.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
	defer cancel()

	if err := h.db.Ping(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, HealthResponse{Status: statusDown, Timestamp: time.Now()})
		return
	}
	writeJSON(w, http.StatusOK, HealthResponse{Status: statusOK, Timestamp: time.Now()})
}

// Health reports the database and the catalog.
//
//	database down           -> 503 "down"
//	catalog empty or failed -> 200 "degraded"
//	otherwise               -> 200 "ok"
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
	defer cancel()

	resp := HealthResponse{
		Status:     statusOK,
		Version:    h.version,
		Components: make(map[string]CompStatus, 2),
	}

	database := h.checkDatabase(ctx)
	resp.Components["database"] = database
	if database.Status != statusOK {
		resp.Status = statusDown
		resp.Timestamp = time.Now()
		writeJSON(w, http.StatusServiceUnavailable, resp)
		return
	}

	if h.catalog != nil {
		catalog := h.checkCatalog(ctx)
		resp.Components["catalog"] = catalog
		if catalog.Status != statusOK {
			resp.Status = statusDegraded
		}
	}

	resp.Timestamp = time.Now()
	writeJSON(w, http.StatusOK, resp)
}

func (h *HealthHandler) checkDatabase(ctx context.Context) CompStatus {
	start := time.Now()
	if err := h.db.Ping(ctx); err != nil {
		return CompStatus{Status: statusDown}
	}
	return CompStatus{Status: statusOK, Latency: time.Since(start).String()}
}

func (h *HealthHandler) checkCatalog(ctx context.Context) CompStatus {
	start := time.Now()
	n, err := h.catalog.Count(ctx)
	if err != nil {
		return CompStatus{Status: statusDown}
	}
	st := CompStatus{Status: statusOK, Latency: time.Since(start).String(), Courses: &n}
	if n == 0 {
		st.Status = statusEmpty
	}
	return st
}
