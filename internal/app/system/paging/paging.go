// internal/app/system/paging/paging.go
package paging

import (
	"net/http"
	"strconv"
	"strings"

	"go.mongodb.org/mongo-driver/mongo/options"
)

// DefaultLimit is the page size used when the caller doesn't ask for one.
const DefaultLimit = 20

// MaxLimit caps the page size a caller may request.
const MaxLimit = 100

// Params is a parsed page request. Page is 1-based.
type Params struct {
	Page  int
	Limit int
}

// Skip returns the number of documents before this page.
func (p Params) Skip() int64 { return int64((p.Page - 1) * p.Limit) }

// FindOptions applies skip/limit to a Find and sorts by sort.
func (p Params) FindOptions(sort any) *options.FindOptions {
	o := options.Find().SetSkip(p.Skip()).SetLimit(int64(p.Limit))
	if sort != nil {
		o.SetSort(sort)
	}
	return o
}

// Parse reads "page" and "limit" from the query string. Invalid or missing
// values fall back to page 1 and DefaultLimit; limit is clamped to MaxLimit.
func Parse(r *http.Request) Params {
	return Params{
		Page:  intParam(r, "page", 1, 1, 0),
		Limit: intParam(r, "limit", DefaultLimit, 1, MaxLimit),
	}
}

// ParseLimit reads only "limit" with the given default, clamped to 1..MaxLimit.
func ParseLimit(r *http.Request, def int) int {
	return intParam(r, "limit", def, 1, MaxLimit)
}

func intParam(r *http.Request, name string, def, min, max int) int {
	s := strings.TrimSpace(r.URL.Query().Get(name))
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < min {
		return def
	}
	if max > 0 && n > max {
		return max
	}
	return n
}

// Page is the envelope returned by list endpoints.
type Page[T any] struct {
	Items   []T   `json:"items"`
	Page    int   `json:"page"`
	Limit   int   `json:"limit"`
	Total   int64 `json:"total"`
	HasNext bool  `json:"has_next"`
}

// NewPage builds the envelope. A nil items slice renders as [].
func NewPage[T any](items []T, p Params, total int64) Page[T] {
	if items == nil {
		items = []T{}
	}
	return Page[T]{
		Items:   items,
		Page:    p.Page,
		Limit:   p.Limit,
		Total:   total,
		HasNext: p.Skip()+int64(len(items)) < total,
	}
}
