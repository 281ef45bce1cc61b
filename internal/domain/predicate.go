package domain

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

// Field names a searchable course attribute. Fields are translated to engine
// columns only at the storage boundary.
type Field string

const (
	FieldID              Field = "id"
	FieldTitle           Field = "title"
	FieldDescription     Field = "description"
	FieldCategory        Field = "category"
	FieldType            Field = "type"
	FieldGradeRange      Field = "gradeRange"
	FieldMinAge          Field = "minAge"
	FieldMaxAge          Field = "maxAge"
	FieldPrice           Field = "price"
	FieldNextSessionDate Field = "nextSessionDate"
)

// MatchMode selects how a text condition compares the query to a field.
type MatchMode int

const (
	// MatchFuzzy tolerates small spelling differences.
	MatchFuzzy MatchMode = iota + 1
	// MatchPrefix matches words starting with the query.
	MatchPrefix
	// MatchContains matches the query anywhere in the field.
	MatchContains
)

func (m MatchMode) String() string {
	switch m {
	case MatchFuzzy:
		return "fuzzy"
	case MatchPrefix:
		return "prefix"
	case MatchContains:
		return "contains"
	default:
		return fmt.Sprintf("MatchMode(%d)", int(m))
	}
}

// Predicate is a node of an immutable boolean condition tree evaluated by
// the search engine. The set of node types is closed:
// MatchAllNode, AndNode, OrNode, EqualsNode, RangeNode and TextMatchNode.
type Predicate interface {
	fmt.Stringer
	predicate()
}

// MatchAllNode matches every document.
type MatchAllNode struct{}

// AndNode matches documents satisfying all children.
type AndNode struct {
	children []Predicate
}

// OrNode matches documents satisfying at least one child.
// An OrNode without children matches nothing.
type OrNode struct {
	children []Predicate
}

// EqualsNode matches documents whose field equals Value exactly.
type EqualsNode struct {
	Field Field
	Value any
}

// RangeNode is an inclusive range condition. A nil bound is open.
type RangeNode struct {
	Field Field
	Min   any
	Max   any
}

// TextMatchNode compares Text against a text field using Mode.
type TextMatchNode struct {
	Field Field
	Mode  MatchMode
	Text  string
}

func (MatchAllNode) predicate()  {}
func (AndNode) predicate()       {}
func (OrNode) predicate()        {}
func (EqualsNode) predicate()    {}
func (RangeNode) predicate()     {}
func (TextMatchNode) predicate() {}

// Children returns a copy of the node's operands.
func (n AndNode) Children() []Predicate { return slices.Clone(n.children) }

// Children returns a copy of the node's operands.
func (n OrNode) Children() []Predicate { return slices.Clone(n.children) }

// MatchAll returns the predicate that selects every document.
func MatchAll() Predicate { return MatchAllNode{} }

// IsMatchAll reports whether p selects every document.
func IsMatchAll(p Predicate) bool {
	_, ok := p.(MatchAllNode)
	return ok
}

// And combines predicates into a new conjunction. Nested conjunctions are
// flattened and MatchAll operands dropped; with no operands left the result
// is MatchAll, with one it is that operand. Inputs are never modified.
func And(ps ...Predicate) Predicate {
	var children []Predicate
	for _, p := range ps {
		switch n := p.(type) {
		case nil, MatchAllNode:
			continue
		case AndNode:
			children = append(children, n.children...)
		default:
			children = append(children, p)
		}
	}

	switch len(children) {
	case 0:
		return MatchAll()
	case 1:
		return children[0]
	default:
		return AndNode{children: children}
	}
}

// Or combines predicates into a new disjunction. Nested disjunctions are
// flattened. A MatchAll operand makes the whole disjunction MatchAll.
func Or(ps ...Predicate) Predicate {
	var children []Predicate
	for _, p := range ps {
		switch n := p.(type) {
		case nil:
			continue
		case MatchAllNode:
			return MatchAll()
		case OrNode:
			children = append(children, n.children...)
		default:
			children = append(children, p)
		}
	}

	if len(children) == 1 {
		return children[0]
	}
	return OrNode{children: children}
}

// Equals returns an exact equality condition.
func Equals(field Field, value any) Predicate {
	return EqualsNode{Field: field, Value: value}
}

// Range returns an inclusive range condition; pass nil for an open bound.
// With both bounds open the condition is MatchAll.
func Range(field Field, min, max any) Predicate {
	if min == nil && max == nil {
		return MatchAll()
	}
	return RangeNode{Field: field, Min: min, Max: max}
}

// Text returns a text match condition.
func Text(field Field, mode MatchMode, text string) Predicate {
	return TextMatchNode{Field: field, Mode: mode, Text: text}
}

func (MatchAllNode) String() string { return "*" }

func (n AndNode) String() string { return joinNodes("AND", n.children) }

func (n OrNode) String() string { return joinNodes("OR", n.children) }

func (n EqualsNode) String() string {
	return fmt.Sprintf("%s = %s", n.Field, formatValue(n.Value))
}

func (n RangeNode) String() string {
	return fmt.Sprintf("%s in [%s, %s]", n.Field, formatBound(n.Min), formatBound(n.Max))
}

func (n TextMatchNode) String() string {
	return fmt.Sprintf("%s ~%s %q", n.Field, n.Mode, n.Text)
}

func joinNodes(op string, children []Predicate) string {
	parts := make([]string, len(children))
	for i, c := range children {
		parts[i] = c.String()
	}
	return op + "(" + strings.Join(parts, ", ") + ")"
}

func formatBound(v any) string {
	if v == nil {
		return "*"
	}
	return formatValue(v)
}

func formatValue(v any) string {
	switch x := v.(type) {
	case string:
		return fmt.Sprintf("%q", x)
	case time.Time:
		return x.UTC().Format(time.RFC3339)
	default:
		return fmt.Sprint(x)
	}
}
