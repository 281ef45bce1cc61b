package rest

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/heartmarshall/course-search/internal/domain"
	"github.com/heartmarshall/course-search/internal/service/search"
)

// searchService defines the minimal interface needed by SearchHandler.
type searchService interface {
	Search(ctx context.Context, input search.SearchInput) (*search.Result, error)
	GetCourse(ctx context.Context, id string) (*domain.Course, error)
}

// SearchHandler serves the course search REST endpoints.
type SearchHandler struct {
	svc         searchService
	log         *slog.Logger
	maxPageSize int
}

// NewSearchHandler creates a SearchHandler. maxPageSize bounds the size
// parameter; 0 disables the bound.
func NewSearchHandler(svc searchService, logger *slog.Logger, maxPageSize int) *SearchHandler {
	return &SearchHandler{svc: svc, log: logger.With("handler", "search"), maxPageSize: maxPageSize}
}

// Search handles GET /api/search.
func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	input, err := parseSearchInput(r.URL.Query(), h.maxPageSize)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	result, err := h.svc.Search(r.Context(), input)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toSearchResponse(result))
}

// GetCourse handles GET /api/courses/{id}.
func (h *SearchHandler) GetCourse(w http.ResponseWriter, r *http.Request) {
	course, err := h.svc.GetCourse(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toCourseResponse(course))
}

func (h *SearchHandler) handleError(w http.ResponseWriter, r *http.Request, err error) {
	var ve *domain.ValidationError
	switch {
	case errors.As(err, &ve):
		writeValidationError(w, ve)
	case errors.Is(err, domain.ErrValidation):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "course not found")
	case errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusGatewayTimeout, "search timed out")
	case errors.Is(err, domain.ErrQueryExecution):
		writeError(w, http.StatusServiceUnavailable, "search unavailable")
	default:
		h.log.ErrorContext(r.Context(), "unhandled error", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}
