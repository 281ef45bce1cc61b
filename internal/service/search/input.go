package search

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/heartmarshall/course-search/internal/domain"
)

// maxQueryLength caps the free-text query in runes after trimming.
const maxQueryLength = 200

// Filters holds the optional course filters of a single search call.
// An absent field means the corresponding clause is not applied.
type Filters struct {
	Query     domain.Optional[string]
	MinAge    domain.Optional[int]
	MaxAge    domain.Optional[int]
	Category  domain.Optional[string]
	Type      domain.Optional[string]
	MinPrice  domain.Optional[float64]
	MaxPrice  domain.Optional[float64]
	StartDate domain.Optional[time.Time]
}

// SearchInput holds the parameters for a paginated course search.
type SearchInput struct {
	Filters

	// Sort is "priceAsc", "priceDesc" or anything else for the default order.
	Sort string
	// Page is zero-based. Negative values are treated as 0.
	Page int
	// Size <= 0 selects the configured default page size.
	Size int
}

// Validate checks all fields and collects all errors. Numeric bounds are
// used as given; range checks on them belong to the caller.
func (i *SearchInput) Validate() error {
	var errs []domain.FieldError

	if q, ok := i.Query.Get(); ok && utf8.RuneCountInString(strings.TrimSpace(q)) > maxQueryLength {
		errs = append(errs, domain.FieldError{Field: "q", Message: "too long (max 200)"})
	}

	if len(errs) > 0 {
		return domain.NewValidationErrors(errs)
	}
	return nil
}
