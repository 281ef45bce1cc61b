package testhelper

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/heartmarshall/course-search/internal/domain"
)

// UniqueSuffix returns a short unique string for generating non-conflicting test data.
func UniqueSuffix() string {
	return uuid.New().String()[:8]
}

// CourseOption customizes a course built by NewCourse.
type CourseOption func(c *domain.Course)

// WithTitle sets the course title.
func WithTitle(title string) CourseOption { return func(c *domain.Course) { c.Title = title } }

// WithDescription sets the course description.
func WithDescription(d string) CourseOption { return func(c *domain.Course) { c.Description = d } }

// WithCategory sets the course category.
func WithCategory(cat string) CourseOption { return func(c *domain.Course) { c.Category = cat } }

// WithType sets the course type.
func WithType(typ string) CourseOption { return func(c *domain.Course) { c.Type = typ } }

// WithAges sets the course age range.
func WithAges(minAge, maxAge int) CourseOption {
	return func(c *domain.Course) { c.MinAge, c.MaxAge = minAge, maxAge }
}

// WithPrice sets the course price.
func WithPrice(p float64) CourseOption { return func(c *domain.Course) { c.Price = p } }

// WithNextSession sets the next session date; nil clears it.
func WithNextSession(t *time.Time) CourseOption {
	return func(c *domain.Course) { c.NextSessionDate = t }
}

// NewCourse builds a valid course with a unique id and sane defaults.
func NewCourse(opts ...CourseOption) domain.Course {
	suffix := UniqueSuffix()
	next := time.Date(2025, 9, 1, 9, 0, 0, 0, time.UTC)
	c := domain.Course{
		ID:              "course-" + suffix,
		Title:           "Course " + suffix,
		Description:     "Test course " + suffix,
		Category:        "Test",
		Type:            "COURSE",
		GradeRange:      "1st-3rd",
		MinAge:          6,
		MaxAge:          9,
		Price:           50,
		NextSessionDate: &next,
	}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// SeedCourses inserts courses directly, bypassing the repository.
func SeedCourses(t *testing.T, pool *pgxpool.Pool, courses ...domain.Course) {
	t.Helper()
	ctx := context.Background()

	for _, c := range courses {
		_, err := pool.Exec(ctx,
			`INSERT INTO courses (id, title, description, category, type, grade_range, min_age, max_age, price, next_session_date)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
			c.ID, c.Title, c.Description, c.Category, c.Type, c.GradeRange,
			c.MinAge, c.MaxAge, c.Price, c.NextSessionDate,
		)
		if err != nil {
			t.Fatalf("testhelper: SeedCourses insert %s: %v", c.ID, err)
		}
	}
}

// SeedCourse creates one course with the given options and returns it.
func SeedCourse(t *testing.T, pool *pgxpool.Pool, opts ...CourseOption) domain.Course {
	t.Helper()
	c := NewCourse(opts...)
	SeedCourses(t, pool, c)
	return c
}

// UniqueCategory returns a category name no other test uses, so filtered
// searches stay isolated on the shared database.
func UniqueCategory(prefix string) string {
	return fmt.Sprintf("%s-%s", prefix, UniqueSuffix())
}
