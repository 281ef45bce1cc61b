package search

import (
	"strings"

	"github.com/heartmarshall/course-search/internal/domain"
)

// Recognized sort keys (compared case-insensitively).
const (
	SortPriceAsc  = "priceAsc"
	SortPriceDesc = "priceDesc"
)

// DefaultSort orders courses by the next session, earliest first.
var DefaultSort = domain.Sort{Field: domain.FieldNextSessionDate, Direction: domain.SortAsc}

// SelectSort maps a sort key to a sort order. Unknown or empty keys fall
// back to DefaultSort.
func SelectSort(key string) domain.Sort {
	switch {
	case strings.EqualFold(key, SortPriceAsc):
		return domain.Sort{Field: domain.FieldPrice, Direction: domain.SortAsc}
	case strings.EqualFold(key, SortPriceDesc):
		return domain.Sort{Field: domain.FieldPrice, Direction: domain.SortDesc}
	default:
		return DefaultSort
	}
}
