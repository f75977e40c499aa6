package web

import (
	"fmt"
	"io"
	"net/http"

	"vacademy/internal/application/listutil"
	"vacademy/internal/application/orchestrators"
	"vacademy/internal/application/projections"
	"vacademy/internal/domain/campaign"
)

func (s *server) handleListCustomFields(w http.ResponseWriter, r *http.Request) {
	fields, err := s.stores.CustomFieldStore.ListByInstitute(r.Context(), r.PathValue("inst"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, fields)
}

// handleImportCustomFields replaces the registry from a setup payload in any
// of the accepted shapes. ?dry_run=true only decodes.
func (s *server) handleImportCustomFields(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	res, err := orchestrators.ExecuteImportRegistry(r.Context(), orchestrators.ImportRegistryInput{
		InstituteID: r.PathValue("inst"),
		Payload:     raw,
		DryRun:      queryBool(r, "dry_run"),
	}, orchestrators.ImportRegistryDeps{CustomFieldStore: s.stores.CustomFieldStore})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

type createCampaignRequest struct {
	Name         string              `json:"campaign_name" validate:"required"`
	AudienceID   string              `json:"audience_id" validate:"required"`
	Status       string              `json:"status" validate:"omitempty,oneof=ACTIVE INACTIVE DRAFT"`
	CustomFields []campaign.FieldRef `json:"custom_fields"`
}

func (s *server) handleCreateCampaign(w http.ResponseWriter, r *http.Request) {
	var req createCampaignRequest
	if err := decodeAndValidate(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	c, err := orchestrators.ExecuteCreateCampaign(r.Context(), orchestrators.CreateCampaignInput{
		InstituteID:  r.PathValue("inst"),
		Name:         req.Name,
		AudienceID:   req.AudienceID,
		Status:       req.Status,
		CustomFields: req.CustomFields,
	}, orchestrators.CreateCampaignDeps{
		CampaignStore: s.stores.CampaignStore,
		GenerateID:    s.genID,
		Now:           s.now,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (s *server) handleListCampaigns(w http.ResponseWriter, r *http.Request) {
	list, err := s.stores.CampaignStore.ListByInstitute(r.Context(), r.PathValue("inst"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *server) handleGetCampaign(w http.ResponseWriter, r *http.Request) {
	c, err := s.stores.CampaignStore.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

type recordLeadRequest struct {
	User              campaign.User     `json:"user"`
	CustomFieldValues map[string]string `json:"custom_field_values"`
}

func (s *server) handleRecordLead(w http.ResponseWriter, r *http.Request) {
	var req recordLeadRequest
	if err := decodeAndValidate(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	lead, err := orchestrators.ExecuteRecordLead(r.Context(), orchestrators.RecordLeadInput{
		CampaignID:        r.PathValue("id"),
		User:              req.User,
		CustomFieldValues: req.CustomFieldValues,
	}, orchestrators.RecordLeadDeps{
		CampaignStore: s.stores.CampaignStore,
		LeadStore:     s.stores.LeadStore,
		GenerateID:    s.genID,
		Now:           s.now,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, lead)
}

// handleSearchLeads answers with a Spring-style page.
func (s *server) handleSearchLeads(w http.ResponseWriter, r *http.Request) {
	var q campaign.LeadQuery
	if err := decodeAndValidate(w, r, &q); err != nil {
		s.fail(w, r, err)
		return
	}
	page, err := s.stores.LeadStore.Search(r.Context(), q)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// leadSortKeys are the lead table columns a client may sort by.
var leadSortKeys = []string{campaign.SortSubmittedAt, campaign.SortFullName, campaign.SortEmail}

func (s *server) leadTable(r *http.Request) (projections.LeadTable, error) {
	lp := listutil.ParseListParams(r.URL.Query(), campaign.DefaultPageSize, campaign.MaxPageSize, leadSortKeys)
	return projections.QueryGetLeadTable(r.Context(), projections.GetLeadTableQuery{
		CampaignID: r.PathValue("id"),
		Page:       lp.Page,
		Size:       lp.Size,
		SortBy:     lp.SortBy,
		SortDir:    lp.Direction,
	}, projections.GetLeadTableDeps{
		CampaignStore:    s.stores.CampaignStore,
		LeadStore:        s.stores.LeadStore,
		CustomFieldStore: s.stores.CustomFieldStore,
		Memo:             s.memo,
	})
}

func (s *server) handleLeadTable(w http.ResponseWriter, r *http.Request) {
	table, err := s.leadTable(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, table)
}

func (s *server) handleLeadTableCSV(w http.ResponseWriter, r *http.Request) {
	table, err := s.leadTable(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="leads-%s-p%d.csv"`, table.CampaignID, table.Page.Number+1))
	if err := projections.WriteCSV(w, table); err != nil {
		// headers are already out
		s.log.Errorw("csv_write_failed", "campaign_id", table.CampaignID, "error", err)
	}
}
