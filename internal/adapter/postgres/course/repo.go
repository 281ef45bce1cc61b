// Package course implements the course search engine client on PostgreSQL.
// Predicates are translated to SQL with squirrel; fuzzy title matching uses
// pg_trgm word similarity backed by GIN trigram indexes.
package course

import (
	"context"
	"fmt"
	"math"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/heartmarshall/course-search/internal/adapter/postgres"
	"github.com/heartmarshall/course-search/internal/domain"
)

const table = "courses"

var selectColumns = []string{
	"id", "title", "description", "category", "type", "grade_range",
	"min_age", "max_age", "price", "next_session_date",
}

// Repo provides course search and persistence backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
	tr   translator
}

// New creates a new course repository. fuzzyThreshold is the minimum
// trigram word similarity for a fuzzy title match.
func New(pool *pgxpool.Pool, fuzzyThreshold float64) *Repo {
	return &Repo{pool: pool, tr: translator{fuzzyThreshold: fuzzyThreshold}}
}

// ---------------------------------------------------------------------------
// Read operations
// ---------------------------------------------------------------------------

// Search returns one page of courses matching pred in the given order and
// the total number of matches. The count and the page are fetched in a
// single batch round trip.
func (r *Repo) Search(ctx context.Context, pred domain.Predicate, sort domain.Sort, page, size int) ([]domain.Course, int64, error) {
	if size <= 0 {
		return nil, 0, fmt.Errorf("search courses: page size must be > 0 (got %d)", size)
	}
	if page < 0 {
		page = 0
	}

	where, err := r.tr.where(pred)
	if err != nil {
		return nil, 0, fmt.Errorf("search courses: translate predicate: %w", err)
	}
	order, err := orderBy(sort)
	if err != nil {
		return nil, 0, fmt.Errorf("search courses: %w", err)
	}

	countQ := psql.Select("COUNT(*)").From(table)
	if where != nil {
		countQ = countQ.Where(where)
	}
	countSQL, countArgs, err := countQ.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("search courses: build count query: %w", err)
	}

	offset, ok := pageOffset(page, size)
	if !ok {
		// The page starts past any possible row: only the total is needed.
		var total int64
		if err := postgres.QuerierFromCtx(ctx, r.pool).QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
			return nil, 0, fmt.Errorf("search courses: count: %w", err)
		}
		return []domain.Course{}, total, nil
	}

	pageQ := psql.Select(selectColumns...).
		From(table).
		OrderBy(order...).
		Limit(uint64(size)).
		Offset(offset)
	if where != nil {
		pageQ = pageQ.Where(where)
	}
	pageSQL, pageArgs, err := pageQ.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("search courses: build page query: %w", err)
	}

	batch := &pgx.Batch{}
	batch.Queue(countSQL, countArgs...)
	batch.Queue(pageSQL, pageArgs...)

	br := postgres.QuerierFromCtx(ctx, r.pool).SendBatch(ctx, batch)
	defer br.Close()

	var total int64
	if err := br.QueryRow().Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("search courses: count: %w", err)
	}

	rows, err := br.Query()
	if err != nil {
		return nil, 0, fmt.Errorf("search courses: query page: %w", err)
	}
	courses, err := pgx.CollectRows(rows, scanCourse)
	if err != nil {
		return nil, 0, fmt.Errorf("search courses: scan page: %w", err)
	}

	if courses == nil {
		courses = []domain.Course{}
	}
	return courses, total, nil
}

// GetByID returns a course by primary key.
// Returns domain.ErrNotFound if the course does not exist.
func (r *Repo) GetByID(ctx context.Context, id string) (*domain.Course, error) {
	query, args, err := psql.Select(selectColumns...).
		From(table).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("get course: build query: %w", err)
	}

	rows, err := postgres.QuerierFromCtx(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, postgres.MapError(err, "course", id)
	}
	c, err := pgx.CollectExactlyOneRow(rows, scanCourse)
	if err != nil {
		return nil, postgres.MapError(err, "course", id)
	}
	return &c, nil
}

// Count returns the number of indexed courses.
func (r *Repo) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := postgres.QuerierFromCtx(ctx, r.pool).QueryRow(ctx, "SELECT COUNT(*) FROM "+table).Scan(&n); err != nil {
		return 0, fmt.Errorf("count courses: %w", err)
	}
	return n, nil
}

// ---------------------------------------------------------------------------
// Write operations
// ---------------------------------------------------------------------------

// Upsert inserts courses or replaces existing rows with the same id in one
// statement. Returns the number of rows written.
func (r *Repo) Upsert(ctx context.Context, courses []domain.Course) (int64, error) {
	if len(courses) == 0 {
		return 0, nil
	}

	insert := psql.Insert(table).Columns(selectColumns...)
	for _, c := range courses {
		insert = insert.Values(
			c.ID, c.Title, c.Description, c.Category, c.Type, c.GradeRange,
			c.MinAge, c.MaxAge, c.Price, c.NextSessionDate,
		)
	}
	insert = insert.Suffix(`ON CONFLICT (id) DO UPDATE SET
    title             = EXCLUDED.title,
    description       = EXCLUDED.description,
    category          = EXCLUDED.category,
    type              = EXCLUDED.type,
    grade_range       = EXCLUDED.grade_range,
    min_age           = EXCLUDED.min_age,
    max_age           = EXCLUDED.max_age,
    price             = EXCLUDED.price,
    next_session_date = EXCLUDED.next_session_date,
    updated_at        = now()`)

	query, args, err := insert.ToSql()
	if err != nil {
		return 0, fmt.Errorf("upsert courses: build query: %w", err)
	}

	tag, err := postgres.QuerierFromCtx(ctx, r.pool).Exec(ctx, query, args...)
	if err != nil {
		return 0, postgres.MapError(err, "courses", batchLabel(courses))
	}
	return tag.RowsAffected(), nil
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func scanCourse(row pgx.CollectableRow) (domain.Course, error) {
	var (
		c    domain.Course
		next *time.Time
	)
	err := row.Scan(
		&c.ID, &c.Title, &c.Description, &c.Category, &c.Type, &c.GradeRange,
		&c.MinAge, &c.MaxAge, &c.Price, &next,
	)
	if err != nil {
		return domain.Course{}, err
	}
	if next != nil {
		utc := next.UTC()
		c.NextSessionDate = &utc
	}
	return c, nil
}

// pageOffset returns page*size, or false when the product does not fit
// the bigint OFFSET of PostgreSQL.
func pageOffset(page, size int) (uint64, bool) {
	if int64(page) > math.MaxInt64/int64(size) {
		return 0, false
	}
	return uint64(page) * uint64(size), true
}

func batchLabel(courses []domain.Course) string {
	if len(courses) == 1 {
		return courses[0].ID
	}
	return fmt.Sprintf("[%s..%s]", courses[0].ID, courses[len(courses)-1].ID)
}
