// internal/app/system/paging/paging.go
package paging

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/dalemusser/waffle/pantry/query"
	"go.mongodb.org/mongo-driver/bson"
)

// DefaultLimit is the page size used when the caller does not ask for one.
const DefaultLimit = 10

// MaxLimit caps the page size a caller can request.
const MaxLimit = 100

// Options holds parsed page-number pagination parameters.
type Options struct {
	Page      int    // 1-based
	Limit     int    // rows per page
	SortField string // bson field to sort by
	SortOrder int    // 1 ascending, -1 descending
}

// Parse extracts page, limit, and sortBy ("field:asc|desc") query
// parameters. Missing or malformed values fall back to page 1, the
// default limit, and the given default sort field ascending.
func Parse(r *http.Request, defaultSort string) Options {
	o := Options{
		Page:      1,
		Limit:     DefaultLimit,
		SortField: defaultSort,
		SortOrder: 1,
	}

	if s := query.Get(r, "page"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n >= 1 {
			o.Page = n
		}
	}
	if s := query.Get(r, "limit"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n >= 1 {
			o.Limit = n
			if o.Limit > MaxLimit {
				o.Limit = MaxLimit
			}
		}
	}
	if s := query.Get(r, "sortBy"); s != "" {
		field, order := splitSort(s)
		if field != "" {
			o.SortField = field
			o.SortOrder = order
		}
	}

	return o
}

// splitSort parses "field:asc" / "field:desc" / "field".
func splitSort(s string) (field string, order int) {
	order = 1
	field, dir, found := strings.Cut(s, ":")
	field = strings.TrimSpace(field)
	if found && strings.EqualFold(strings.TrimSpace(dir), "desc") {
		order = -1
	}
	return field, order
}

// Skip returns the number of documents to skip for the current page.
func (o Options) Skip() int64 {
	return int64(o.Page-1) * int64(o.Limit)
}

// Limit64 returns the limit as int64 for Find().SetLimit.
func (o Options) Limit64() int64 { return int64(o.Limit) }

// Sort returns the sort document, with _id as a tiebreaker so pages are
// stable across identical sort keys.
func (o Options) Sort() bson.D {
	return bson.D{
		{Key: o.SortField, Value: o.SortOrder},
		{Key: "_id", Value: o.SortOrder},
	}
}

// Page is the paginated result envelope the API returns.
type Page[T any] struct {
	Results      []T   `json:"results"`
	Page         int   `json:"page"`
	Limit        int   `json:"limit"`
	TotalPages   int   `json:"totalPages"`
	TotalResults int64 `json:"totalResults"`
}

// NewPage assembles the envelope from a fetched slice and a total count.
func NewPage[T any](results []T, o Options, total int64) Page[T] {
	if results == nil {
		results = []T{}
	}
	totalPages := int((total + int64(o.Limit) - 1) / int64(o.Limit))
	return Page[T]{
		Results:      results,
		Page:         o.Page,
		Limit:        o.Limit,
		TotalPages:   totalPages,
		TotalResults: total,
	}
}
