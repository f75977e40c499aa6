package web

import (
	"encoding/json"
	"io"
	"net/http"

	"vacademy/internal/application/orchestrators"
	"vacademy/internal/domain/template"
)

type templateView struct {
	template.Template
	Placeholders []string `json:"placeholders"`
}

func viewOf(t template.Template) templateView {
	ps := t.Placeholders()
	if ps == nil {
		ps = []string{}
	}
	return templateView{Template: t, Placeholders: ps}
}

func (s *server) handleListTemplates(w http.ResponseWriter, r *http.Request) {
	list, err := s.stores.TemplateStore.ListByInstitute(r.Context(), r.PathValue("inst"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	views := make([]templateView, 0, len(list))
	for _, t := range list {
		views = append(views, viewOf(t))
	}
	writeJSON(w, http.StatusOK, views)
}

// instituteTemplate loads a template and hides it when it belongs to another institute.
func (s *server) instituteTemplate(r *http.Request) (template.Template, error) {
	t, err := s.stores.TemplateStore.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		return template.Template{}, err
	}
	if t.InstituteID != r.PathValue("inst") {
		return template.Template{}, template.ErrNotFound
	}
	return t, nil
}

func (s *server) handleGetTemplate(w http.ResponseWriter, r *http.Request) {
	t, err := s.instituteTemplate(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, viewOf(t))
}

type saveTemplateRequest struct {
	Name    string `json:"name" validate:"required"`
	Subject string `json:"subject"`
	HTML    string `json:"html"`
	Channel string `json:"channel" validate:"omitempty,oneof=email whatsapp"`
}

// handleSaveTemplate serves both create (POST, no id) and update (PUT /{id}).
func (s *server) handleSaveTemplate(w http.ResponseWriter, r *http.Request) {
	var req saveTemplateRequest
	if err := decodeAndValidate(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	id := r.PathValue("id")
	t, err := orchestrators.ExecuteSaveTemplate(r.Context(), orchestrators.SaveTemplateInput{
		ID:          id,
		InstituteID: r.PathValue("inst"),
		Name:        req.Name,
		Subject:     req.Subject,
		HTML:        req.HTML,
		Channel:     req.Channel,
	}, orchestrators.SaveTemplateDeps{
		TemplateStore: s.stores.TemplateStore,
		GenerateID:    s.genID,
		Now:           s.now,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	status := http.StatusOK
	if id == "" {
		status = http.StatusCreated
	}
	writeJSON(w, status, viewOf(t))
}

func (s *server) handleDeleteTemplate(w http.ResponseWriter, r *http.Request) {
	t, err := s.instituteTemplate(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if err := orchestrators.ExecuteDeleteTemplate(r.Context(), t.ID,
		orchestrators.DeleteTemplateDeps{TemplateStore: s.stores.TemplateStore}); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) editorStateDeps() orchestrators.EditorStateDeps {
	return orchestrators.EditorStateDeps{
		TemplateStore:    s.stores.TemplateStore,
		EditorStateStore: s.stores.EditorStateStore,
	}
}

func (s *server) handleGetEditorState(w http.ResponseWriter, r *http.Request) {
	state, err := orchestrators.ExecuteLoadEditorState(r.Context(), r.PathValue("id"), s.editorStateDeps())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(state)
}

func (s *server) handlePutEditorState(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if err := orchestrators.ExecuteSaveEditorState(r.Context(), r.PathValue("id"), json.RawMessage(raw), s.editorStateDeps()); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) handleDeleteEditorState(w http.ResponseWriter, r *http.Request) {
	if err := orchestrators.ExecuteDeleteEditorState(r.Context(), r.PathValue("id"), s.editorStateDeps()); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) handleListMappings(w http.ResponseWriter, r *http.Request) {
	t, err := s.stores.TemplateStore.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	ms, err := s.stores.MappingStore.ListByTemplate(r.Context(), t.ID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ms)
}

type saveMappingsRequest struct {
	Mappings []template.Mapping `json:"mappings"`
}

func (s *server) handleSaveMappings(w http.ResponseWriter, r *http.Request) {
	var req saveMappingsRequest
	if err := strictDecode(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	ms, err := orchestrators.ExecuteSaveMappings(r.Context(), orchestrators.SaveMappingsInput{
		TemplateID: r.PathValue("id"),
		Mappings:   req.Mappings,
	}, orchestrators.SaveMappingsDeps{
		TemplateStore: s.stores.TemplateStore,
		MappingStore:  s.stores.MappingStore,
		GenerateID:    s.genID,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ms)
}

type sendTemplateRequest struct {
	CampaignID string `json:"campaign_id" validate:"required"`
	DryRun     bool   `json:"dry_run"`
}

func (s *server) handleSendTemplate(w http.ResponseWriter, r *http.Request) {
	var req sendTemplateRequest
	if err := decodeAndValidate(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	deps := orchestrators.SendCampaignEmailDeps{
		TemplateStore:    s.stores.TemplateStore,
		MappingStore:     s.stores.MappingStore,
		CampaignStore:    s.stores.CampaignStore,
		LeadStore:        s.stores.LeadStore,
		CustomFieldStore: s.stores.CustomFieldStore,
		EmailSender:      s.sender,
		GenerateID:       s.genID,
		Now:              s.now,
	}
	if s.stores.OutboxStore != nil {
		deps.Outbox = s.stores.OutboxStore
	}
	res, err := orchestrators.ExecuteSendCampaignEmail(r.Context(), orchestrators.SendCampaignEmailInput{
		TemplateID: r.PathValue("id"),
		CampaignID: req.CampaignID,
		DryRun:     req.DryRun,
	}, deps)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
