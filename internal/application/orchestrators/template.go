package orchestrators

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"vacademy/internal/domain/template"
)

// --- Save Template ---

// SaveTemplateInput carries input for creating or updating a template.
type SaveTemplateInput struct {
	ID          string // empty creates
	InstituteID string
	Name        string
	Subject     string
	HTML        string
	Channel     string
}

// SaveTemplateDeps holds dependencies for SaveTemplate.
type SaveTemplateDeps struct {
	TemplateStore TemplateStoreForOrchestrator
	GenerateID    func() string
	Now           func() time.Time
}

// ExecuteSaveTemplate creates or updates a template.
// PRE: input passes template validation; an update names an existing template of the same institute
// POST: Template stored with UpdatedAt set to now
func ExecuteSaveTemplate(ctx context.Context, input SaveTemplateInput, deps SaveTemplateDeps) (template.Template, error) {
	t := template.Template{
		ID:          input.ID,
		InstituteID: input.InstituteID,
		Name:        input.Name,
		Subject:     input.Subject,
		HTML:        input.HTML,
		Channel:     input.Channel,
		UpdatedAt:   deps.Now(),
	}
	if t.Channel == "" {
		t.Channel = template.ChannelEmail
	}
	if err := t.Validate(); err != nil {
		return template.Template{}, err
	}

	if t.ID == "" {
		t.ID = deps.GenerateID()
	} else {
		existing, err := deps.TemplateStore.GetByID(ctx, t.ID)
		if err != nil {
			return template.Template{}, err
		}
		if existing.InstituteID != t.InstituteID {
			return template.Template{}, template.ErrNotFound
		}
	}

	if err := deps.TemplateStore.Save(ctx, t); err != nil {
		return template.Template{}, errors.Wrap(err, "save template")
	}
	zap.S().Infow("template_saved", "template_id", t.ID, "institute_id", t.InstituteID,
		"channel", t.Channel, "placeholders", len(t.Placeholders()))
	return t, nil
}

// --- Delete Template ---

// DeleteTemplateDeps holds dependencies for DeleteTemplate.
type DeleteTemplateDeps struct {
	TemplateStore TemplateStoreForOrchestrator
}

// ExecuteDeleteTemplate removes a template together with its mappings and editor state.
// PRE: id names an existing template
// POST: nothing keyed by the template remains
func ExecuteDeleteTemplate(ctx context.Context, id string, deps DeleteTemplateDeps) error {
	if _, err := deps.TemplateStore.GetByID(ctx, id); err != nil {
		return err
	}
	if err := deps.TemplateStore.Delete(ctx, id); err != nil {
		return errors.Wrap(err, "delete template")
	}
	zap.S().Infow("template_deleted", "template_id", id)
	return nil
}

// --- Save Mappings ---

// SaveMappingsInput carries a template's complete mapping list.
type SaveMappingsInput struct {
	TemplateID string
	Mappings   []template.Mapping
}

// SaveMappingsDeps holds dependencies for SaveMappings.
type SaveMappingsDeps struct {
	TemplateStore TemplateStoreForOrchestrator
	MappingStore  MappingStoreForOrchestrator
	GenerateID    func() string
}

// ExecuteSaveMappings replaces a template's placeholder mappings.
// PRE: every mapping names a placeholder that occurs in the template
// POST: stored mappings equal the input, each with an id and the template id
func ExecuteSaveMappings(ctx context.Context, input SaveMappingsInput, deps SaveMappingsDeps) ([]template.Mapping, error) {
	t, err := deps.TemplateStore.GetByID(ctx, input.TemplateID)
	if err != nil {
		return nil, err
	}
	if err := t.ValidateMappings(input.Mappings); err != nil {
		return nil, err
	}

	ms := make([]template.Mapping, 0, len(input.Mappings))
	for _, m := range input.Mappings {
		if m.ID == "" {
			m.ID = deps.GenerateID()
		}
		m.TemplateID = t.ID
		ms = append(ms, m)
	}
	if err := deps.MappingStore.ReplaceForTemplate(ctx, t.ID, ms); err != nil {
		return nil, errors.Wrap(err, "replace mappings")
	}
	zap.S().Infow("mappings_saved", "template_id", t.ID, "count", len(ms))
	return deps.MappingStore.ListByTemplate(ctx, t.ID)
}

// --- Editor State ---

// EditorStateDeps holds dependencies for the editor state orchestrators.
type EditorStateDeps struct {
	TemplateStore    TemplateStoreForOrchestrator
	EditorStateStore EditorStateStoreForOrchestrator
}

// ExecuteSaveEditorState stores the block-editor JSON for a template under
// its namespaced key. The HTML body is not touched.
// PRE: TemplateID names an existing template; state is a JSON object
// POST: state is retrievable with ExecuteLoadEditorState
func ExecuteSaveEditorState(ctx context.Context, templateID string, state json.RawMessage, deps EditorStateDeps) error {
	if !isJSONObject(state) {
		return template.ErrInvalidEditorState
	}
	if _, err := deps.TemplateStore.GetByID(ctx, templateID); err != nil {
		return err
	}
	key := template.EditorStateKey(templateID)
	if err := deps.EditorStateStore.Put(ctx, key, state); err != nil {
		return errors.Wrap(err, "put editor state")
	}
	zap.S().Debugw("editor_state_saved", "key", key, "bytes", len(state))
	return nil
}

// ExecuteLoadEditorState returns the stored block-editor JSON for a template.
// PRE: templateID is non-empty
// POST: Returns the state or template.ErrEditorStateNotFound
func ExecuteLoadEditorState(ctx context.Context, templateID string, deps EditorStateDeps) (json.RawMessage, error) {
	raw, err := deps.EditorStateStore.Get(ctx, template.EditorStateKey(templateID))
	if err != nil {
		return nil, err
	}
	return json.RawMessage(raw), nil
}

// ExecuteDeleteEditorState drops the stored block-editor JSON. Deleting a
// missing key is not an error.
func ExecuteDeleteEditorState(ctx context.Context, templateID string, deps EditorStateDeps) error {
	return errors.Wrap(deps.EditorStateStore.Delete(ctx, template.EditorStateKey(templateID)), "delete editor state")
}

func isJSONObject(raw json.RawMessage) bool {
	var obj map[string]json.RawMessage
	return json.Unmarshal(raw, &obj) == nil && obj != nil
}
