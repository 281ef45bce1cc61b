package rest

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/heartmarshall/course-search/internal/domain"
	"github.com/heartmarshall/course-search/internal/service/search"
)

// SearchResponse is the JSON body of GET /api/search.
type SearchResponse struct {
	Total   int64            `json:"total"`
	Courses []CourseResponse `json:"courses"`
}

// CourseResponse is the wire form of a course.
type CourseResponse struct {
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

// ErrorResponse is the JSON body of every non-2xx response.
type ErrorResponse struct {
	Error  string               `json:"error"`
	Fields []FieldErrorResponse `json:"fields,omitempty"`
}

// FieldErrorResponse names one rejected parameter.
type FieldErrorResponse struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func toSearchResponse(r *search.Result) SearchResponse {
	courses := make([]CourseResponse, 0, len(r.Courses))
	for i := range r.Courses {
		courses = append(courses, toCourseResponse(&r.Courses[i]))
	}
	return SearchResponse{Total: r.Total, Courses: courses}
}

func toCourseResponse(c *domain.Course) CourseResponse {
	return CourseResponse{
		ID:              c.ID,
		Title:           c.Title,
		Description:     c.Description,
		Category:        c.Category,
		Type:            c.Type,
		GradeRange:      c.GradeRange,
		MinAge:          c.MinAge,
		MaxAge:          c.MaxAge,
		Price:           c.Price,
		NextSessionDate: c.NextSessionDate,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}

func writeValidationError(w http.ResponseWriter, ve *domain.ValidationError) {
	fields := make([]FieldErrorResponse, 0, len(ve.Errors))
	for _, fe := range ve.Errors {
		fields = append(fields, FieldErrorResponse{Field: fe.Field, Message: fe.Message})
	}
	writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: ve.Error(), Fields: fields})
}
