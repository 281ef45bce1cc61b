package search

import (
	"strings"
	"unicode/utf8"

	"github.com/heartmarshall/course-search/internal/config"
	"github.com/heartmarshall/course-search/internal/domain"
)

// fuzzyMinLength is the shortest query that gets a fuzzy title clause.
// Shorter queries match too much when compared approximately.
const fuzzyMinLength = 3

// BuildCriteria builds the composite predicate for f using the length-keyed
// free-text clause. The flag reports whether any filter contributed a clause.
func BuildCriteria(f Filters) (domain.Predicate, bool) {
	return BuildCriteriaWithPolicy(f, config.TextPolicyLengthKeyed)
}

// BuildCriteriaWithPolicy is BuildCriteria with an explicit free-text policy
// (config.TextPolicyLengthKeyed or config.TextPolicySimple).
//
// Clauses are AND-combined in a fixed order: text, category, type, age,
// price, start date. Every step binds a new predicate; nothing is mutated.
func BuildCriteriaWithPolicy(f Filters, policy string) (domain.Predicate, bool) {
	criteria := domain.MatchAll()
	hasAnyFilter := false

	if clause, ok := textClause(f.Query, policy); ok {
		criteria = domain.And(criteria, clause)
		hasAnyFilter = true
	}

	if category, ok := f.Category.Get(); ok {
		criteria = domain.And(criteria, domain.Equals(domain.FieldCategory, category))
		hasAnyFilter = true
	}

	if typ, ok := f.Type.Get(); ok {
		criteria = domain.And(criteria, domain.Equals(domain.FieldType, typ))
		hasAnyFilter = true
	}

	// Both age bounds apply to the course's minAge.
	if f.MinAge.IsSet() || f.MaxAge.IsSet() {
		criteria = domain.And(criteria, domain.Range(domain.FieldMinAge, bound(f.MinAge), bound(f.MaxAge)))
		hasAnyFilter = true
	}

	if f.MinPrice.IsSet() || f.MaxPrice.IsSet() {
		criteria = domain.And(criteria, domain.Range(domain.FieldPrice, bound(f.MinPrice), bound(f.MaxPrice)))
		hasAnyFilter = true
	}

	if start, ok := f.StartDate.Get(); ok {
		criteria = domain.And(criteria, domain.Range(domain.FieldNextSessionDate, start, nil))
		hasAnyFilter = true
	}

	if !hasAnyFilter {
		criteria = domain.MatchAll()
	}

	return criteria, hasAnyFilter
}

// textClause returns the OR of per-field text conditions for a non-blank
// query. Clauses match the trimmed text.
func textClause(query domain.Optional[string], policy string) (domain.Predicate, bool) {
	raw, ok := query.Get()
	if !ok {
		return nil, false
	}
	q := strings.TrimSpace(raw)
	if q == "" {
		return nil, false
	}

	if policy == config.TextPolicySimple {
		return domain.Or(
			domain.Text(domain.FieldTitle, domain.MatchPrefix, q),
			domain.Text(domain.FieldTitle, domain.MatchContains, q),
		), true
	}

	// Length is taken from the query as given, surrounding spaces included.
	if utf8.RuneCountInString(raw) >= fuzzyMinLength {
		return domain.Or(
			domain.Text(domain.FieldTitle, domain.MatchFuzzy, q),
			domain.Text(domain.FieldTitle, domain.MatchPrefix, q),
			domain.Text(domain.FieldTitle, domain.MatchContains, q),
			domain.Text(domain.FieldDescription, domain.MatchContains, q),
		), true
	}

	return domain.Or(
		domain.Text(domain.FieldTitle, domain.MatchPrefix, q),
		domain.Text(domain.FieldDescription, domain.MatchContains, q),
	), true
}

// bound converts an optional range bound into the nil-or-value form used by
// domain.Range.
func bound[T any](o domain.Optional[T]) any {
	if v, ok := o.Get(); ok {
		return v
	}
	return nil
}
