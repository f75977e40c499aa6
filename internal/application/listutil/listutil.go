// Package listutil parses paged-list query strings and computes the page
// buttons a pager shows. Pages are zero-based, as in Spring page responses.
package listutil

import (
	"net/url"
	"slices"
	"strconv"
	"strings"
)

// PageParams carries pagination parameters parsed from a request.
type PageParams struct {
	Page int // zero-based page number
	Size int // rows per page
}

// SortParams carries sorting parameters parsed from a request.
type SortParams struct {
	SortBy    string // column key, empty when not allowed
	Direction string // "ASC", "DESC" or empty
}

// ListParams combines paging and sorting.
type ListParams struct {
	PageParams
	SortParams
}

// MaxButtons is the most page numbers PageNumbers returns.
const MaxButtons = 5

// ParsePageParams reads page and size from q.
// PRE: 0 < defaultSize <= maxSize
// POST: Page >= 0 and 0 < Size <= maxSize
func ParsePageParams(q url.Values, defaultSize, maxSize int) PageParams {
	page, err := strconv.Atoi(q.Get("page"))
	if err != nil || page < 0 {
		page = 0
	}
	size, err := strconv.Atoi(q.Get("size"))
	if err != nil || size <= 0 {
		size = defaultSize
	}
	return PageParams{Page: page, Size: min(size, maxSize)}
}

// ParseSortParams reads sort_by and sort_direction from q. Keys outside
// allowed are dropped so the caller's default applies.
// POST: Direction is "ASC", "DESC" or empty
func ParseSortParams(q url.Values, allowed []string) SortParams {
	sp := SortParams{}
	if by := q.Get("sort_by"); slices.Contains(allowed, by) {
		sp.SortBy = by
	}
	switch dir := strings.ToUpper(q.Get("sort_direction")); dir {
	case "ASC", "DESC":
		sp.Direction = dir
	}
	return sp
}

// ParseListParams parses paging and sorting from q.
func ParseListParams(q url.Values, defaultSize, maxSize int, allowedSort []string) ListParams {
	return ListParams{
		PageParams: ParsePageParams(q, defaultSize, maxSize),
		SortParams: ParseSortParams(q, allowedSort),
	}
}

// PageNumbers returns up to MaxButtons zero-based page numbers centred on
// current.
// PRE: totalPages >= 0
// POST: ascending, within [0, totalPages); empty when totalPages is 0
func PageNumbers(current, totalPages int) []int {
	if totalPages <= 0 {
		return []int{}
	}
	current = max(0, min(current, totalPages-1))
	start := max(0, current-MaxButtons/2)
	end := start + MaxButtons
	if end > totalPages {
		end = totalPages
		start = max(0, end-MaxButtons)
	}
	pages := make([]int, 0, end-start)
	for i := start; i < end; i++ {
		pages = append(pages, i)
	}
	return pages
}
