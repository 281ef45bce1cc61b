package rest

import (
	"math"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/heartmarshall/course-search/internal/domain"
	"github.com/heartmarshall/course-search/internal/service/search"
)

const (
	defaultPage = 0
	defaultSize = 10
)

// queryParser reads typed query parameters and collects every failure.
type queryParser struct {
	values url.Values
	errs   []domain.FieldError
}

func (p *queryParser) fail(field, message string) {
	p.errs = append(p.errs, domain.FieldError{Field: field, Message: message})
}

// raw returns the trimmed parameter value; empty means absent.
func (p *queryParser) raw(name string) (string, bool) {
	v := strings.TrimSpace(p.values.Get(name))
	return v, v != ""
}

func (p *queryParser) str(name string) domain.Optional[string] {
	if v, ok := p.raw(name); ok {
		return domain.Some(v)
	}
	return domain.None[string]()
}

// text returns the parameter value as given; only an empty value is absent.
func (p *queryParser) text(name string) domain.Optional[string] {
	if v := p.values.Get(name); v != "" {
		return domain.Some(v)
	}
	return domain.None[string]()
}

func (p *queryParser) integer(name string) domain.Optional[int] {
	v, ok := p.raw(name)
	if !ok {
		return domain.None[int]()
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		p.fail(name, "must be an integer")
		return domain.None[int]()
	}
	return domain.Some(n)
}

func (p *queryParser) decimal(name string) domain.Optional[float64] {
	v, ok := p.raw(name)
	if !ok {
		return domain.None[float64]()
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		p.fail(name, "must be a decimal number")
		return domain.None[float64]()
	}
	return domain.Some(f)
}

func (p *queryParser) instant(name string) domain.Optional[time.Time] {
	v, ok := p.raw(name)
	if !ok {
		return domain.None[time.Time]()
	}
	t, err := time.Parse(time.RFC3339Nano, v)
	if err != nil {
		p.fail(name, "must be an RFC 3339 date-time")
		return domain.None[time.Time]()
	}
	return domain.Some(t.UTC())
}

func (p *queryParser) integerOr(name string, def int) int {
	return p.integer(name).OrElse(def)
}

// parseSearchInput maps the query string of GET /api/search onto a
// SearchInput. Malformed values and out-of-range paging are reported
// together as one ValidationError.
func parseSearchInput(values url.Values, maxPageSize int) (search.SearchInput, error) {
	p := &queryParser{values: values}

	in := search.SearchInput{
		Filters: search.Filters{
			Query:     p.text("q"),
			MinAge:    p.integer("minAge"),
			MaxAge:    p.integer("maxAge"),
			Category:  p.str("category"),
			Type:      p.str("type"),
			MinPrice:  p.decimal("minPrice"),
			MaxPrice:  p.decimal("maxPrice"),
			StartDate: p.instant("startDate"),
		},
		Sort: strings.TrimSpace(values.Get("sort")),
		Page: p.integerOr("page", defaultPage),
		Size: p.integerOr("size", defaultSize),
	}

	nonNegativeInt(p, "minAge", in.MinAge)
	nonNegativeInt(p, "maxAge", in.MaxAge)
	nonNegativeDecimal(p, "minPrice", in.MinPrice)
	nonNegativeDecimal(p, "maxPrice", in.MaxPrice)

	if in.Page < 0 {
		p.fail("page", "must be >= 0")
	}
	if in.Size <= 0 {
		p.fail("size", "must be > 0")
	} else if maxPageSize > 0 && in.Size > maxPageSize {
		p.fail("size", "must be <= "+strconv.Itoa(maxPageSize))
	}

	if len(p.errs) > 0 {
		return search.SearchInput{}, domain.NewValidationErrors(p.errs)
	}
	return in, nil
}

func nonNegativeInt(p *queryParser, name string, v domain.Optional[int]) {
	if n, ok := v.Get(); ok && n < 0 {
		p.fail(name, "must be >= 0")
	}
}

func nonNegativeDecimal(p *queryParser, name string, v domain.Optional[float64]) {
	if f, ok := v.Get(); ok && f < 0 {
		p.fail(name, "must be >= 0")
	}
}
