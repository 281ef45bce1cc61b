package search

import "github.com/heartmarshall/course-search/internal/domain"

// Result is one page of matching courses plus the total match count.
type Result struct {
	Total   int64
	Courses []domain.Course
}

// PackageResult wraps executor output without reordering it.
// Courses is never nil so an empty page serializes as [].
func PackageResult(total int64, courses []domain.Course) *Result {
	if courses == nil {
		courses = []domain.Course{}
	}
	return &Result{Total: total, Courses: courses}
}
