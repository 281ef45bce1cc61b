package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/heartmarshall/course-search/internal/config"
	"github.com/heartmarshall/course-search/internal/domain"
)

// ---------------------------------------------------------------------------
// Consumer-defined interfaces (private)
// ---------------------------------------------------------------------------

type courseSearcher interface {
	Search(ctx context.Context, pred domain.Predicate, sort domain.Sort, page, size int) ([]domain.Course, int64, error)
	GetByID(ctx context.Context, id string) (*domain.Course, error)
}

type searchObserver interface {
	ObserveSearch(outcome string, filtered bool, took time.Duration)
}

// fallbackPageSize is used when neither the caller nor the config supplies one.
const fallbackPageSize = 10

// Search outcomes reported to the observer.
const (
	OutcomeOK      = "ok"
	OutcomeError   = "error"
	OutcomeTimeout = "timeout"
)

// ---------------------------------------------------------------------------
// Service
// ---------------------------------------------------------------------------

// Service implements course search: criteria construction, sort selection,
// query execution and result packaging.
type Service struct {
	log      *slog.Logger
	courses  courseSearcher
	observer searchObserver
	cfg      config.SearchConfig
}

// NewService creates a new search service.
func NewService(logger *slog.Logger, courses courseSearcher, cfg config.SearchConfig) *Service {
	return &Service{
		log:     logger.With("service", "search"),
		courses: courses,
		cfg:     cfg,
	}
}

// SetObserver injects the optional search metrics observer.
func (s *Service) SetObserver(o searchObserver) {
	s.observer = o
}

// Search runs one paginated course search. Any failure of the underlying
// engine is returned as *domain.QueryExecutionError; nothing is retried.
func (s *Service) Search(ctx context.Context, input SearchInput) (*Result, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	page, size := s.normalizePage(input.Page, input.Size)
	criteria, filtered := BuildCriteriaWithPolicy(input.Filters, s.cfg.TextPolicy)
	order := SelectSort(input.Sort)

	queryCtx := ctx
	if s.cfg.QueryTimeout > 0 {
		var cancel context.CancelFunc
		queryCtx, cancel = context.WithTimeout(ctx, s.cfg.QueryTimeout)
		defer cancel()
	}

	start := time.Now()
	courses, total, err := s.courses.Search(queryCtx, criteria, order, page, size)
	took := time.Since(start)

	if err != nil {
		s.observe(outcomeOf(err), filtered, took)
		s.log.ErrorContext(ctx, "course search failed",
			slog.String("criteria", criteria.String()),
			slog.String("sort", order.String()),
			slog.Int("page", page),
			slog.Int("size", size),
			slog.String("error", err.Error()),
		)
		return nil, &domain.QueryExecutionError{Err: err}
	}
	s.observe(OutcomeOK, filtered, took)

	if len(courses) > size {
		courses = courses[:size]
	}

	s.log.DebugContext(ctx, "course search",
		slog.String("criteria", criteria.String()),
		slog.String("sort", order.String()),
		slog.Int("page", page),
		slog.Int("size", size),
		slog.Int64("total", total),
		slog.Int("returned", len(courses)),
		slog.Duration("took", took),
	)

	return PackageResult(total, courses), nil
}

// GetCourse returns a single course by id.
func (s *Service) GetCourse(ctx context.Context, id string) (*domain.Course, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, domain.NewValidationError("id", "required")
	}

	course, err := s.courses.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		return nil, &domain.QueryExecutionError{Err: fmt.Errorf("get course %s: %w", id, err)}
	}
	return course, nil
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// normalizePage clamps page to >= 0 and size to (0, MaxPageSize],
// substituting DefaultPageSize for a non-positive size.
func (s *Service) normalizePage(page, size int) (int, int) {
	if page < 0 {
		page = 0
	}
	if size <= 0 {
		size = s.cfg.DefaultPageSize
	}
	if size <= 0 {
		size = fallbackPageSize
	}
	if s.cfg.MaxPageSize > 0 && size > s.cfg.MaxPageSize {
		size = s.cfg.MaxPageSize
	}
	return page, size
}

func (s *Service) observe(outcome string, filtered bool, took time.Duration) {
	if s.observer != nil {
		s.observer.ObserveSearch(outcome, filtered, took)
	}
}

func outcomeOf(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return OutcomeTimeout
	}
	return OutcomeError
}
