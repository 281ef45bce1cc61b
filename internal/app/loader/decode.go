package loader

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/heartmarshall/course-search/internal/domain"
)

// Format is the encoding of a course list.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFromPath picks the format from the file extension; anything other
// than .yaml/.yml is read as JSON.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// record is the on-disk shape of a course.
type record struct {
	ID              string     `json:"id"              yaml:"id"`
	Title           string     `json:"title"           yaml:"title"`
	Description     string     `json:"description"     yaml:"description"`
	Category        string     `json:"category"        yaml:"category"`
	Type            string     `json:"type"            yaml:"type"`
	GradeRange      string     `json:"gradeRange"      yaml:"gradeRange"`
	MinAge          int        `json:"minAge"          yaml:"minAge"`
	MaxAge          int        `json:"maxAge"          yaml:"maxAge"`
	Price           float64    `json:"price"           yaml:"price"`
	NextSessionDate *time.Time `json:"nextSessionDate" yaml:"nextSessionDate"`
}

func (r record) toDomain() domain.Course {
	c := domain.Course{
		ID:          strings.TrimSpace(r.ID),
		Title:       strings.TrimSpace(r.Title),
		Description: r.Description,
		Category:    r.Category,
		Type:        r.Type,
		GradeRange:  r.GradeRange,
		MinAge:      r.MinAge,
		MaxAge:      r.MaxAge,
		Price:       r.Price,
	}
	if r.NextSessionDate != nil {
		t := r.NextSessionDate.UTC()
		c.NextSessionDate = &t
	}
	return c
}

// Decode reads a list of courses and validates every one of them.
// A single invalid record rejects the whole list; the returned
// *domain.ValidationError names each offending record by index.
func Decode(r io.Reader, format Format) ([]domain.Course, error) {
	var records []record

	switch format {
	case FormatYAML:
		if err := yaml.NewDecoder(r).Decode(&records); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("decode yaml: %w", err)
		}
	case FormatJSON:
		if err := json.NewDecoder(r).Decode(&records); err != nil {
			return nil, fmt.Errorf("decode json: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported format %q", format)
	}

	courses := make([]domain.Course, 0, len(records))
	var errs []domain.FieldError

	for i, rec := range records {
		c := rec.toDomain()
		if err := c.Validate(); err != nil {
			var ve *domain.ValidationError
			if errors.As(err, &ve) {
				for _, fe := range ve.Errors {
					errs = append(errs, domain.FieldError{
						Field:   fmt.Sprintf("courses[%d].%s", i, fe.Field),
						Message: fe.Message,
					})
				}
				continue
			}
			return nil, err
		}
		courses = append(courses, c)
	}

	if len(errs) > 0 {
		return nil, domain.NewValidationErrors(errs)
	}
	return courses, nil
}

// dedupe keeps the last record for each id, preserving first-seen order.
// A single upsert statement cannot touch the same row twice.
func dedupe(courses []domain.Course) ([]domain.Course, int) {
	index := make(map[string]int, len(courses))
	out := make([]domain.Course, 0, len(courses))

	for _, c := range courses {
		if i, ok := index[c.ID]; ok {
			out[i] = c
			continue
		}
		index[c.ID] = len(out)
		out = append(out, c)
	}
	return out, len(courses) - len(out)
}
