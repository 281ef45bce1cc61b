package domain

import (
	"strconv"
	"strings"
	"time"
)

// Course is a single catalog record as stored in the search index.
// The search core only reads courses; the ingestion loader owns writes.
type Course struct {
	ID              string
	Title           string
	Description     string
	Category        string
	Type            string
	GradeRange      string
	MinAge          int
	MaxAge          int
	Price           float64
	NextSessionDate *time.Time
}

// HasNextSession reports whether the course has a scheduled session.
func (c *Course) HasNextSession() bool {
	return c.NextSessionDate != nil
}

// Validate checks the invariants every indexed course must satisfy.
// All violations are collected into a single ValidationError.
func (c *Course) Validate() error {
	var errs []FieldError

	if strings.TrimSpace(c.ID) == "" {
		errs = append(errs, FieldError{Field: "id", Message: "required"})
	}
	if strings.TrimSpace(c.Title) == "" {
		errs = append(errs, FieldError{Field: "title", Message: "required"})
	}
	if c.MinAge < 0 {
		errs = append(errs, FieldError{Field: "minAge", Message: "must be >= 0"})
	}
	if c.MinAge > c.MaxAge {
		errs = append(errs, FieldError{
			Field:   "maxAge",
			Message: "must be >= minAge (" + strconv.Itoa(c.MinAge) + ")",
		})
	}
	if c.Price < 0 {
		errs = append(errs, FieldError{Field: "price", Message: "must be >= 0"})
	}

	if len(errs) > 0 {
		return NewValidationErrors(errs)
	}
	return nil
}
