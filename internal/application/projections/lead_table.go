package projections

import (
	"context"
	"encoding/csv"
	"io"
	"strconv"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"vacademy/internal/application/listutil"
	"vacademy/internal/domain/campaign"
	"vacademy/internal/domain/customfield"
)

// SubmittedOnLayout formats the submitted-on cell.
const SubmittedOnLayout = "2006-01-02 15:04"

// LeadTable is a rendered page of campaign leads.
type LeadTable struct {
	CampaignID string     `json:"campaign_id"`
	Columns    []Column   `json:"columns"`
	Rows       [][]string `json:"rows"`
	Page       PageMeta   `json:"page"`
}

// PageMeta mirrors the Spring page metadata without the content.
type PageMeta struct {
	TotalElements int  `json:"totalElements"`
	TotalPages    int  `json:"totalPages"`
	Number        int  `json:"number"`
	Size          int  `json:"size"`
	Last          bool `json:"last"`

	// Window lists the zero-based page numbers a pager shows around Number.
	Window []int `json:"window"`
}

// BuildLeadTable renders one cell per column for each lead on the page.
// PRE: cols come from GenerateLeadColumns
// POST: len(Rows) == len(page.Content), every row has len(cols) cells
func BuildLeadTable(cols []Column, page campaign.LeadPage) LeadTable {
	t := LeadTable{
		Columns: cols,
		Rows:    make([][]string, 0, len(page.Content)),
		Page: PageMeta{
			TotalElements: page.TotalElements,
			TotalPages:    page.TotalPages,
			Number:        page.Number,
			Size:          page.Size,
			Last:          page.Last,
			Window:        listutil.PageNumbers(page.Number, page.TotalPages),
		},
	}
	for i, lead := range page.Content {
		row := make([]string, len(cols))
		for j, col := range cols {
			row[j] = cellValue(col, lead, page.Number*page.Size+i+1)
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

func cellValue(col Column, lead campaign.Lead, index int) string {
	switch col.Kind {
	case KindIndex:
		return strconv.Itoa(index)
	case KindName:
		if lead.User.FullName != "" {
			return lead.User.FullName
		}
		return lead.CustomFieldValues[col.FieldID]
	case KindEmail:
		if lead.User.Email != "" {
			return lead.User.Email
		}
		return lead.CustomFieldValues[col.FieldID]
	case KindSubmittedOn:
		if lead.SubmittedAtLocal.IsZero() {
			return ""
		}
		return lead.SubmittedAtLocal.Format(SubmittedOnLayout)
	default:
		return lead.CustomFieldValues[col.ID]
	}
}

// WriteCSV writes the table header and rows as CSV.
func WriteCSV(w io.Writer, t LeadTable) error {
	cw := csv.NewWriter(w)
	header := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		header[i] = c.Header
	}
	if err := cw.Write(header); err != nil {
		return errors.Wrap(err, "write csv header")
	}
	if err := cw.WriteAll(t.Rows); err != nil {
		return errors.Wrap(err, "write csv rows")
	}
	return nil
}

// GetLeadTableQuery carries query parameters.
type GetLeadTableQuery struct {
	CampaignID string
	Page       int
	Size       int
	SortBy     string
	SortDir    string
}

// GetLeadTableDeps holds dependencies for GetLeadTable.
type GetLeadTableDeps struct {
	CampaignStore    CampaignStore
	LeadStore        LeadStore
	CustomFieldStore CustomFieldStore
	Memo             *ColumnMemo // optional
}

// QueryGetLeadTable loads a campaign, its institute's field registry and one
// page of leads, then projects them into a table.
// PRE: CampaignID is non-empty
// POST: Columns follow GenerateLeadColumns; registry failures degrade to fallback labels
func QueryGetLeadTable(ctx context.Context, query GetLeadTableQuery, deps GetLeadTableDeps) (LeadTable, error) {
	c, err := deps.CampaignStore.GetByID(ctx, query.CampaignID)
	if err != nil {
		return LeadTable{}, err
	}

	lq := campaign.LeadQuery{
		AudienceID:    c.AudienceID,
		Page:          query.Page,
		Size:          query.Size,
		SortBy:        query.SortBy,
		SortDirection: query.SortDir,
	}.Normalize()

	var (
		page   campaign.LeadPage
		fields []customfield.Field
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		page, err = deps.LeadStore.Search(gctx, lq)
		return errors.Wrap(err, "search leads")
	})
	g.Go(func() error {
		var err error
		fields, err = deps.CustomFieldStore.ListByInstitute(gctx, c.InstituteID)
		if err != nil {
			// labels fall back to declared names or "Field N"
			zap.S().Warnw("custom_field_registry_unavailable", "institute_id", c.InstituteID, "error", err)
			fields = nil
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return LeadTable{}, err
	}

	reg := customfield.NewRegistry(fields)
	var cols []Column
	if deps.Memo != nil {
		cols = deps.Memo.Columns(c, reg, page.ObservedFieldIDs())
	} else {
		cols = GenerateLeadColumns(c, reg, page.ObservedFieldIDs())
	}

	table := BuildLeadTable(cols, page)
	table.CampaignID = c.ID
	return table, nil
}
