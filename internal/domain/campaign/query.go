package campaign

import (
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// Sort columns accepted by LeadQuery.
const (
	SortSubmittedAt = "submitted_at"
	SortFullName    = "full_name"
	SortEmail       = "email"
)

// Sort directions.
const (
	SortAsc  = "ASC"
	SortDesc = "DESC"
)

// Page size bounds.
const (
	DefaultPageSize = 20
	MaxPageSize     = 200
)

// ErrInvalidRange is returned when submitted_from is after submitted_to.
var ErrInvalidRange = errors.New("submitted_from must not be after submitted_to")

// LeadQuery is the body of the campaign leads endpoint.
type LeadQuery struct {
	AudienceID    string     `json:"audience_id" validate:"required"`
	Page          int        `json:"page" validate:"gte=0"`
	Size          int        `json:"size" validate:"gte=0"`
	SortBy        string     `json:"sort_by"`
	SortDirection string     `json:"sort_direction"`
	SubmittedFrom *time.Time `json:"submitted_from,omitempty"`
	SubmittedTo   *time.Time `json:"submitted_to,omitempty"`
}

// Normalize applies defaults and whitelists the sort parameters.
// PRE: none
// POST: Page >= 0, 0 < Size <= MaxPageSize, SortBy and SortDirection are valid
func (q LeadQuery) Normalize() LeadQuery {
	if q.Page < 0 {
		q.Page = 0
	}
	if q.Size <= 0 {
		q.Size = DefaultPageSize
	}
	if q.Size > MaxPageSize {
		q.Size = MaxPageSize
	}
	switch q.SortBy {
	case SortSubmittedAt, SortFullName, SortEmail:
	default:
		q.SortBy = SortSubmittedAt
	}
	q.SortDirection = strings.ToUpper(q.SortDirection)
	if q.SortDirection != SortAsc {
		q.SortDirection = SortDesc
	}
	return q
}

// Validate checks the query after normalisation.
func (q LeadQuery) Validate() error {
	if strings.TrimSpace(q.AudienceID) == "" {
		return ErrEmptyAudienceID
	}
	if q.SubmittedFrom != nil && q.SubmittedTo != nil && q.SubmittedFrom.After(*q.SubmittedTo) {
		return ErrInvalidRange
	}
	return nil
}

// LeadPage is a Spring-style page of leads.
type LeadPage struct {
	Content       []Lead `json:"content"`
	TotalElements int    `json:"totalElements"`
	TotalPages    int    `json:"totalPages"`
	Number        int    `json:"number"`
	Size          int    `json:"size"`
	Last          bool   `json:"last"`
}

// NewLeadPage assembles page metadata for content at page number of size.
// PRE: size > 0, total >= 0
// POST: Content is never nil; Last is true on the final (or only) page
func NewLeadPage(content []Lead, number, size, total int) LeadPage {
	if content == nil {
		content = []Lead{}
	}
	if size <= 0 {
		size = DefaultPageSize
	}
	totalPages := (total + size - 1) / size
	return LeadPage{
		Content:       content,
		TotalElements: total,
		TotalPages:    totalPages,
		Number:        number,
		Size:          size,
		Last:          number >= totalPages-1,
	}
}

// ObservedFieldIDs returns every custom field id present in the page's rows,
// in first-seen order.
func (p LeadPage) ObservedFieldIDs() []string {
	seen := make(map[string]bool)
	var ids []string
	for _, l := range p.Content {
		for _, id := range sortedKeys(l.CustomFieldValues) {
			if !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
	}
	return ids
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
