package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heartmarshall/course-search/internal/config"
	"github.com/heartmarshall/course-search/internal/domain"
)

// ===========================================================================
// Manual mocks (moq-style with func fields)
// ===========================================================================

type mockCourseSearcher struct {
	SearchFunc  func(ctx context.Context, pred domain.Predicate, sort domain.Sort, page, size int) ([]domain.Course, int64, error)
	GetByIDFunc func(ctx context.Context, id string) (*domain.Course, error)
}

func (m *mockCourseSearcher) Search(ctx context.Context, pred domain.Predicate, sort domain.Sort, page, size int) ([]domain.Course, int64, error) {
	if m.SearchFunc != nil {
		return m.SearchFunc(ctx, pred, sort, page, size)
	}
	return nil, 0, nil
}

func (m *mockCourseSearcher) GetByID(ctx context.Context, id string) (*domain.Course, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, domain.ErrNotFound
}

type observation struct {
	outcome  string
	filtered bool
}

type mockObserver struct {
	mu    sync.Mutex
	calls []observation
}

func (m *mockObserver) ObserveSearch(outcome string, filtered bool, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, observation{outcome: outcome, filtered: filtered})
}

// ===========================================================================
// Helpers
// ===========================================================================

func testConfig() config.SearchConfig {
	return config.SearchConfig{
		QueryTimeout:    time.Second,
		DefaultPageSize: 10,
		MaxPageSize:     50,
		FuzzyThreshold:  0.4,
		TextPolicy:      config.TextPolicyLengthKeyed,
	}
}

func newTestService(courses courseSearcher) *Service {
	return NewService(slog.Default(), courses, testConfig())
}

func makeCourses(n int, price func(i int) float64) []domain.Course {
	out := make([]domain.Course, n)
	for i := range out {
		out[i] = domain.Course{
			ID:     fmt.Sprintf("course-%02d", i),
			Title:  fmt.Sprintf("Course %d", i),
			MinAge: 6,
			MaxAge: 12,
			Price:  price(i),
		}
	}
	return out
}

// ===========================================================================
// Search
// ===========================================================================

func TestService_Search_MathScenario(t *testing.T) {
	t.Parallel()

	var (
		gotPred  domain.Predicate
		gotSort  domain.Sort
		gotPage  int
		gotSize  int
		deadline bool
	)
	courses := makeCourses(3, func(i int) float64 { return float64(i) })
	repo := &mockCourseSearcher{
		SearchFunc: func(ctx context.Context, pred domain.Predicate, sort domain.Sort, page, size int) ([]domain.Course, int64, error) {
			gotPred, gotSort, gotPage, gotSize = pred, sort, page, size
			_, deadline = ctx.Deadline()
			return courses, 42, nil
		},
	}
	svc := newTestService(repo)

	res, err := svc.Search(context.Background(), SearchInput{
		Filters: Filters{Query: domain.Some("math")},
		Page:    0,
		Size:    10,
	})

	require.NoError(t, err)
	assert.Equal(t,
		`OR(title ~fuzzy "math", title ~prefix "math", title ~contains "math", description ~contains "math")`,
		gotPred.String())
	assert.Equal(t, DefaultSort, gotSort)
	assert.Equal(t, 0, gotPage)
	assert.Equal(t, 10, gotSize)
	assert.True(t, deadline, "query context should carry the configured timeout")
	assert.Equal(t, int64(42), res.Total)
	assert.Equal(t, courses, res.Courses)
	assert.GreaterOrEqual(t, res.Total, int64(len(res.Courses)))
}

func TestService_Search_PriceDescSecondPage(t *testing.T) {
	t.Parallel()

	repo := &mockCourseSearcher{
		SearchFunc: func(_ context.Context, _ domain.Predicate, sort domain.Sort, page, size int) ([]domain.Course, int64, error) {
			assert.Equal(t, domain.Sort{Field: domain.FieldPrice, Direction: domain.SortDesc}, sort)
			assert.Equal(t, 1, page)
			assert.Equal(t, 5, size)
			return makeCourses(5, func(i int) float64 { return float64(100 - i) }), 12, nil
		},
	}
	svc := newTestService(repo)

	res, err := svc.Search(context.Background(), SearchInput{Sort: "priceDesc", Page: 1, Size: 5})

	require.NoError(t, err)
	require.Len(t, res.Courses, 5)
	for i := 1; i < len(res.Courses); i++ {
		assert.GreaterOrEqual(t, res.Courses[i-1].Price, res.Courses[i].Price)
	}
}

func TestService_Search_NoFilters_MatchAll(t *testing.T) {
	t.Parallel()

	obs := &mockObserver{}
	repo := &mockCourseSearcher{
		SearchFunc: func(_ context.Context, pred domain.Predicate, _ domain.Sort, _, _ int) ([]domain.Course, int64, error) {
			assert.True(t, domain.IsMatchAll(pred))
			return nil, 0, nil
		},
	}
	svc := newTestService(repo)
	svc.SetObserver(obs)

	res, err := svc.Search(context.Background(), SearchInput{})

	require.NoError(t, err)
	assert.Equal(t, int64(0), res.Total)
	assert.NotNil(t, res.Courses, "empty page must be an empty slice, not nil")
	assert.Empty(t, res.Courses)
	assert.Equal(t, []observation{{outcome: OutcomeOK, filtered: false}}, obs.calls)
}

func TestService_Search_NormalizesPage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name             string
		page, size       int
		wantPage, wantSz int
	}{
		{"defaults", 0, 0, 0, 10},
		{"negative page", -3, 5, 0, 5},
		{"negative size", 2, -1, 2, 10},
		{"clamped size", 0, 500, 0, 50},
		{"max size kept", 1, 50, 1, 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var gotPage, gotSize int
			repo := &mockCourseSearcher{
				SearchFunc: func(_ context.Context, _ domain.Predicate, _ domain.Sort, page, size int) ([]domain.Course, int64, error) {
					gotPage, gotSize = page, size
					return nil, 0, nil
				},
			}
			svc := newTestService(repo)

			_, err := svc.Search(context.Background(), SearchInput{Page: tt.page, Size: tt.size})
			require.NoError(t, err)
			assert.Equal(t, tt.wantPage, gotPage)
			assert.Equal(t, tt.wantSz, gotSize)
		})
	}
}

func TestService_Search_TruncatesOversizedPage(t *testing.T) {
	t.Parallel()

	repo := &mockCourseSearcher{
		SearchFunc: func(_ context.Context, _ domain.Predicate, _ domain.Sort, _, _ int) ([]domain.Course, int64, error) {
			return makeCourses(8, func(int) float64 { return 1 }), 8, nil
		},
	}
	svc := newTestService(repo)

	res, err := svc.Search(context.Background(), SearchInput{Size: 3})

	require.NoError(t, err)
	assert.Len(t, res.Courses, 3)
	assert.Equal(t, int64(8), res.Total)
}

func TestService_Search_DownstreamFailure(t *testing.T) {
	t.Parallel()

	engineErr := errors.New("connection refused")
	obs := &mockObserver{}
	calls := 0
	repo := &mockCourseSearcher{
		SearchFunc: func(_ context.Context, _ domain.Predicate, _ domain.Sort, _, _ int) ([]domain.Course, int64, error) {
			calls++
			return nil, 0, engineErr
		},
	}
	svc := newTestService(repo)
	svc.SetObserver(obs)

	res, err := svc.Search(context.Background(), SearchInput{Filters: Filters{Category: domain.Some("Art")}})

	require.Error(t, err)
	assert.Nil(t, res)
	assert.ErrorIs(t, err, domain.ErrQueryExecution)
	assert.ErrorIs(t, err, engineErr)

	var qe *domain.QueryExecutionError
	assert.ErrorAs(t, err, &qe)
	assert.Equal(t, 1, calls, "failures must not be retried")
	assert.Equal(t, []observation{{outcome: OutcomeError, filtered: true}}, obs.calls)
}

func TestService_Search_Timeout(t *testing.T) {
	t.Parallel()

	obs := &mockObserver{}
	repo := &mockCourseSearcher{
		SearchFunc: func(ctx context.Context, _ domain.Predicate, _ domain.Sort, _, _ int) ([]domain.Course, int64, error) {
			<-ctx.Done()
			return nil, 0, ctx.Err()
		},
	}
	cfg := testConfig()
	cfg.QueryTimeout = 10 * time.Millisecond
	svc := NewService(slog.Default(), repo, cfg)
	svc.SetObserver(obs)

	_, err := svc.Search(context.Background(), SearchInput{})

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrQueryExecution)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, []observation{{outcome: OutcomeTimeout, filtered: false}}, obs.calls)
}

func TestService_Search_CallerCancellationPropagates(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	repo := &mockCourseSearcher{
		SearchFunc: func(ctx context.Context, _ domain.Predicate, _ domain.Sort, _, _ int) ([]domain.Course, int64, error) {
			return nil, 0, ctx.Err()
		},
	}
	svc := newTestService(repo)

	_, err := svc.Search(ctx, SearchInput{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestService_Search_ValidationError(t *testing.T) {
	t.Parallel()

	repo := &mockCourseSearcher{
		SearchFunc: func(_ context.Context, _ domain.Predicate, _ domain.Sort, _, _ int) ([]domain.Course, int64, error) {
			t.Fatal("search must not run for invalid input")
			return nil, 0, nil
		},
	}
	svc := newTestService(repo)

	long := make([]rune, maxQueryLength+1)
	for i := range long {
		long[i] = 'a'
	}

	_, err := svc.Search(context.Background(), SearchInput{Filters: Filters{
		Query: domain.Some(string(long)),
	}})

	require.ErrorIs(t, err, domain.ErrValidation)
	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
	require.Len(t, ve.Errors, 1)
	assert.Equal(t, "q", ve.Errors[0].Field)
}

func TestService_Search_NegativeBoundsPassThrough(t *testing.T) {
	t.Parallel()

	var gotPred domain.Predicate
	repo := &mockCourseSearcher{
		SearchFunc: func(_ context.Context, pred domain.Predicate, _ domain.Sort, _, _ int) ([]domain.Course, int64, error) {
			gotPred = pred
			return nil, 0, nil
		},
	}
	svc := newTestService(repo)

	_, err := svc.Search(context.Background(), SearchInput{Filters: Filters{
		MinAge:   domain.Some(-1),
		MaxPrice: domain.Some(-5.0),
	}})

	require.NoError(t, err)
	assert.Equal(t, `AND(minAge in [-1, *], price in [*, -5])`, gotPred.String())
}

func TestService_Search_Idempotent(t *testing.T) {
	t.Parallel()

	courses := makeCourses(4, func(i int) float64 { return float64(i * 10) })
	repo := &mockCourseSearcher{
		SearchFunc: func(_ context.Context, _ domain.Predicate, _ domain.Sort, _, _ int) ([]domain.Course, int64, error) {
			return courses, 4, nil
		},
	}
	svc := newTestService(repo)
	in := SearchInput{Filters: Filters{Query: domain.Some("course")}, Sort: "priceAsc"}

	first, err := svc.Search(context.Background(), in)
	require.NoError(t, err)
	second, err := svc.Search(context.Background(), in)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestService_Search_SimplePolicy(t *testing.T) {
	t.Parallel()

	var gotPred domain.Predicate
	repo := &mockCourseSearcher{
		SearchFunc: func(_ context.Context, pred domain.Predicate, _ domain.Sort, _, _ int) ([]domain.Course, int64, error) {
			gotPred = pred
			return nil, 0, nil
		},
	}
	cfg := testConfig()
	cfg.TextPolicy = config.TextPolicySimple
	svc := NewService(slog.Default(), repo, cfg)

	_, err := svc.Search(context.Background(), SearchInput{Filters: Filters{Query: domain.Some("math")}})

	require.NoError(t, err)
	assert.Equal(t, `OR(title ~prefix "math", title ~contains "math")`, gotPred.String())
}

// ===========================================================================
// GetCourse
// ===========================================================================

func TestService_GetCourse(t *testing.T) {
	t.Parallel()

	want := &domain.Course{ID: "c-1", Title: "Chess Club", MaxAge: 10}
	repo := &mockCourseSearcher{
		GetByIDFunc: func(_ context.Context, id string) (*domain.Course, error) {
			assert.Equal(t, "c-1", id)
			return want, nil
		},
	}
	svc := newTestService(repo)

	got, err := svc.GetCourse(context.Background(), " c-1 ")
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestService_GetCourse_Errors(t *testing.T) {
	t.Parallel()

	dbErr := errors.New("pool closed")

	tests := []struct {
		name    string
		id      string
		repoErr error
		wantErr error
	}{
		{"blank id", "  ", nil, domain.ErrValidation},
		{"not found", "missing", fmt.Errorf("course missing: %w", domain.ErrNotFound), domain.ErrNotFound},
		{"engine failure", "c-1", dbErr, domain.ErrQueryExecution},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			repo := &mockCourseSearcher{
				GetByIDFunc: func(_ context.Context, _ string) (*domain.Course, error) {
					return nil, tt.repoErr
				},
			}
			svc := newTestService(repo)

			_, err := svc.GetCourse(context.Background(), tt.id)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}
