package course

import (
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"

	"github.com/heartmarshall/course-search/internal/domain"
)

// psql builds statements with PostgreSQL $n placeholders.
var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// columnOf maps searchable fields to courses table columns.
var columnOf = map[domain.Field]string{
	domain.FieldID:              "id",
	domain.FieldTitle:           "title",
	domain.FieldDescription:     "description",
	domain.FieldCategory:        "category",
	domain.FieldType:            "type",
	domain.FieldGradeRange:      "grade_range",
	domain.FieldMinAge:          "min_age",
	domain.FieldMaxAge:          "max_age",
	domain.FieldPrice:           "price",
	domain.FieldNextSessionDate: "next_session_date",
}

// textFields are the fields a TextMatchNode may reference.
var textFields = map[domain.Field]bool{
	domain.FieldTitle:       true,
	domain.FieldDescription: true,
	domain.FieldCategory:    true,
	domain.FieldType:        true,
	domain.FieldGradeRange:  true,
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// translator turns a domain predicate tree into a squirrel condition.
type translator struct {
	// fuzzyThreshold is the minimum pg_trgm word_similarity for a fuzzy match.
	fuzzyThreshold float64
}

// where returns the WHERE condition for p, or nil when p matches everything.
func (t translator) where(p domain.Predicate) (sq.Sqlizer, error) {
	if p == nil || domain.IsMatchAll(p) {
		return nil, nil
	}
	return t.translate(p)
}

func (t translator) translate(p domain.Predicate) (sq.Sqlizer, error) {
	switch n := p.(type) {
	case domain.MatchAllNode:
		return sq.Expr("TRUE"), nil

	case domain.AndNode:
		parts, err := t.translateAll(n.Children())
		if err != nil {
			return nil, err
		}
		if len(parts) == 0 {
			return sq.Expr("TRUE"), nil
		}
		return sq.And(parts), nil

	case domain.OrNode:
		parts, err := t.translateAll(n.Children())
		if err != nil {
			return nil, err
		}
		if len(parts) == 0 {
			return sq.Expr("FALSE"), nil
		}
		return sq.Or(parts), nil

	case domain.EqualsNode:
		col, err := column(n.Field)
		if err != nil {
			return nil, err
		}
		return sq.Eq{col: n.Value}, nil

	case domain.RangeNode:
		return rangeCondition(n)

	case domain.TextMatchNode:
		return t.textCondition(n)

	default:
		return nil, fmt.Errorf("unsupported predicate %T", p)
	}
}

func (t translator) translateAll(children []domain.Predicate) ([]sq.Sqlizer, error) {
	parts := make([]sq.Sqlizer, 0, len(children))
	for _, c := range children {
		s, err := t.translate(c)
		if err != nil {
			return nil, err
		}
		parts = append(parts, s)
	}
	return parts, nil
}

func rangeCondition(n domain.RangeNode) (sq.Sqlizer, error) {
	col, err := column(n.Field)
	if err != nil {
		return nil, err
	}

	switch {
	case n.Min != nil && n.Max != nil:
		return sq.And{sq.GtOrEq{col: n.Min}, sq.LtOrEq{col: n.Max}}, nil
	case n.Min != nil:
		return sq.GtOrEq{col: n.Min}, nil
	case n.Max != nil:
		return sq.LtOrEq{col: n.Max}, nil
	default:
		return sq.Expr("TRUE"), nil
	}
}

func (t translator) textCondition(n domain.TextMatchNode) (sq.Sqlizer, error) {
	if !textFields[n.Field] {
		return nil, fmt.Errorf("text match on non-text field %q", n.Field)
	}
	col := columnOf[n.Field]
	escaped := likeEscaper.Replace(n.Text)

	switch n.Mode {
	case domain.MatchFuzzy:
		return sq.Expr("word_similarity(?, "+col+") >= ?", n.Text, t.fuzzyThreshold), nil
	case domain.MatchPrefix:
		// Prefix of the field or of any word in it.
		return sq.Or{
			sq.ILike{col: escaped + "%"},
			sq.ILike{col: "% " + escaped + "%"},
		}, nil
	case domain.MatchContains:
		return sq.ILike{col: "%" + escaped + "%"}, nil
	default:
		return nil, fmt.Errorf("unsupported match mode %s", n.Mode)
	}
}

// orderBy returns ORDER BY terms for s with id as the tie-breaker, so equal
// sort keys page deterministically.
func orderBy(s domain.Sort) ([]string, error) {
	col, err := column(s.Field)
	if err != nil {
		return nil, err
	}

	switch s.Direction {
	case domain.SortAsc, domain.SortDesc:
	default:
		return nil, fmt.Errorf("unsupported sort direction %q", s.Direction)
	}

	if col == "id" {
		return []string{"id " + string(s.Direction)}, nil
	}
	return []string{col + " " + string(s.Direction), "id ASC"}, nil
}

func column(f domain.Field) (string, error) {
	col, ok := columnOf[f]
	if !ok {
		return "", fmt.Errorf("unknown field %q", f)
	}
	return col, nil
}
