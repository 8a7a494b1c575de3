// Package search filters and pages materialized record lists.
package search

import (
	"strings"

	"github.com/use-agent/farmdata/models"
)

// Page size limits.
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// TextFields are the record fields the free-text query is matched against.
var TextFields = []string{"name", "description", "category"}

// Query selects and pages records.
type Query struct {
	// Text is matched case-insensitively as a substring of any TextFields.
	Text string

	// Filters maps a field to a case-insensitive substring that must appear
	// in it. All filters must match.
	Filters map[string]string

	Page     int
	PageSize int
}

// FieldFunc returns the named field of an item, or "" if it has none.
type FieldFunc[T any] func(item T, field string) string

// Page is one page of a filtered list.
type Page[T any] struct {
	Items      []T
	Pagination models.Pagination
}

// Paginate filters items by q and returns the requested page. Items keep
// their input order, so concatenating pages 1..TotalPages reproduces the
// filtered list exactly. items is not modified.
func Paginate[T any](items []T, q Query, field FieldFunc[T]) Page[T] {
	page, size := normalize(q.Page, q.PageSize)
	filtered := Filter(items, q.Text, q.Filters, field)

	total := len(filtered)
	totalPages := (total + size - 1) / size

	start := min((page-1)*size, total)
	end := min(start+size, total)
	out := make([]T, end-start)
	copy(out, filtered[start:end])

	return Page[T]{
		Items: out,
		Pagination: models.Pagination{
			CurrentPage:  page,
			TotalPages:   totalPages,
			TotalResults: total,
			PageSize:     size,
			HasNextPage:  page < totalPages,
			HasPrevPage:  page > 1,
		},
	}
}

// Filter returns the items matching text and every filter, in input order.
func Filter[T any](items []T, text string, filters map[string]string, field FieldFunc[T]) []T {
	text = strings.ToLower(strings.TrimSpace(text))
	active := make(map[string]string, len(filters))
	for k, v := range filters {
		if v = strings.ToLower(strings.TrimSpace(v)); v != "" {
			active[k] = v
		}
	}
	if text == "" && len(active) == 0 {
		return items
	}

	out := make([]T, 0, len(items))
	for _, item := range items {
		if text != "" && !matchesAny(item, text, field) {
			continue
		}
		ok := true
		for k, v := range active {
			if !strings.Contains(strings.ToLower(field(item, k)), v) {
				ok = false
				break
			}
		}
		if ok {
			out = append(out, item)
		}
	}
	return out
}

func matchesAny[T any](item T, text string, field FieldFunc[T]) bool {
	for _, f := range TextFields {
		if strings.Contains(strings.ToLower(field(item, f)), text) {
			return true
		}
	}
	return false
}

func normalize(page, size int) (int, int) {
	if page < 1 {
		page = 1
	}
	switch {
	case size < 1:
		size = DefaultPageSize
	case size > MaxPageSize:
		size = MaxPageSize
	}
	return page, size
}

// SchemeField is the FieldFunc for scheme listings.
func SchemeField(s models.Scheme, field string) string {
	switch field {
	case "id":
		return s.ID
	case "name":
		return s.Name
	case "description":
		return s.Description
	case "category":
		return s.Category
	case "status":
		return s.Status
	case "source":
		return s.Source
	default:
		return ""
	}
}
