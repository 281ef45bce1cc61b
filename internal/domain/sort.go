package domain

// SortDirection is the ordering direction of a sort key.
type SortDirection string

const (
	SortAsc  SortDirection = "ASC"
	SortDesc SortDirection = "DESC"
)

// Sort is a single-field ordering applied by the search engine.
type Sort struct {
	Field     Field
	Direction SortDirection
}

func (s Sort) String() string {
	return string(s.Field) + " " + string(s.Direction)
}
