package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnd_DropsMatchAllAndCollapses(t *testing.T) {
	t.Parallel()

	eq := Equals(FieldCategory, "STEM")

	assert.Equal(t, MatchAll(), And())
	assert.Equal(t, MatchAll(), And(MatchAll(), MatchAll()))
	assert.Equal(t, eq, And(MatchAll(), eq))
}

func TestAnd_FlattensNested(t *testing.T) {
	t.Parallel()

	a := Equals(FieldCategory, "STEM")
	b := Equals(FieldType, "COURSE")
	c := Range(FieldPrice, 10.0, nil)

	got := And(And(a, b), c)

	node, ok := got.(AndNode)
	require.True(t, ok, "expected AndNode, got %T", got)
	assert.Equal(t, []Predicate{a, b, c}, node.Children())
}

func TestAnd_DoesNotMutateOperands(t *testing.T) {
	t.Parallel()

	base := And(Equals(FieldCategory, "STEM"), Equals(FieldType, "COURSE"))
	before := base.String()

	_ = And(base, Range(FieldMinAge, 5, nil))
	_ = And(base, Range(FieldMaxAge, nil, 9))

	assert.Equal(t, before, base.String())

	children := base.(AndNode).Children()
	children[0] = MatchAll()
	assert.Equal(t, before, base.String(), "Children must return a copy")
}

func TestOr_FlattensAndShortCircuitsMatchAll(t *testing.T) {
	t.Parallel()

	a := Text(FieldTitle, MatchPrefix, "ma")
	b := Text(FieldDescription, MatchContains, "ma")

	got := Or(Or(a), b)
	node, ok := got.(OrNode)
	require.True(t, ok)
	assert.Equal(t, []Predicate{a, b}, node.Children())

	assert.Equal(t, a, Or(a))
	assert.True(t, IsMatchAll(Or(a, MatchAll())))
}

func TestRange_BothBoundsOpenIsMatchAll(t *testing.T) {
	t.Parallel()

	assert.True(t, IsMatchAll(Range(FieldPrice, nil, nil)))
	assert.False(t, IsMatchAll(Range(FieldPrice, 1.0, nil)))
}

func TestPredicate_String(t *testing.T) {
	t.Parallel()

	start := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	p := And(
		Or(Text(FieldTitle, MatchFuzzy, "math"), Text(FieldDescription, MatchContains, "math")),
		Equals(FieldCategory, "STEM"),
		Range(FieldMinAge, 5, 10),
		Range(FieldNextSessionDate, start, nil),
	)

	want := `AND(OR(title ~fuzzy "math", description ~contains "math"), ` +
		`category = "STEM", minAge in [5, 10], nextSessionDate in [2025-06-01T09:00:00Z, *])`
	assert.Equal(t, want, p.String())
	assert.Equal(t, "*", MatchAll().String())
}

func TestMatchMode_String(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "fuzzy", MatchFuzzy.String())
	assert.Equal(t, "prefix", MatchPrefix.String())
	assert.Equal(t, "contains", MatchContains.String())
	assert.Equal(t, "MatchMode(0)", MatchMode(0).String())
}
