package template

import (
	"html"
	"regexp"
	"strings"
	"time"

	"github.com/pkg/errors"

	"vacademy/internal/domain/campaign"
	"vacademy/internal/domain/customfield"
)

// Channel constants for message templates.
const (
	ChannelEmail    = "email"
	ChannelWhatsApp = "whatsapp"
)

// editorStatePrefix namespaces editor state by template id.
const editorStatePrefix = "email_template_mjml_"

// Domain errors
var (
	ErrEmptyName           = errors.New("template name cannot be empty")
	ErrEmptyInstituteID    = errors.New("institute id cannot be empty")
	ErrInvalidChannel      = errors.New("channel must be email or whatsapp")
	ErrEmptySubject        = errors.New("email templates need a subject")
	ErrNotFound            = errors.New("template not found")
	ErrEditorStateNotFound = errors.New("editor state not found")
	ErrEmptyPlaceholder    = errors.New("mapping placeholder cannot be empty")
	ErrEmptyFieldKey       = errors.New("mapping field key cannot be empty")
	ErrUnknownPlaceholder  = errors.New("placeholder does not occur in template")
	ErrNotEmailChannel     = errors.New("template is not an email template")
	ErrInvalidEditorState  = errors.New("editor state must be a JSON object")
)

// Template is an email or WhatsApp message body with {{placeholder}} tokens.
type Template struct {
	ID          string    `json:"id"`
	InstituteID string    `json:"institute_id"`
	Name        string    `json:"name"`
	Subject     string    `json:"subject"`
	HTML        string    `json:"html"`
	Channel     string    `json:"channel"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Validate checks if the Template has valid data.
// PRE: Template struct is populated
// POST: Returns nil if valid, error otherwise
func (t *Template) Validate() error {
	if strings.TrimSpace(t.InstituteID) == "" {
		return ErrEmptyInstituteID
	}
	if strings.TrimSpace(t.Name) == "" {
		return ErrEmptyName
	}
	switch t.Channel {
	case ChannelEmail:
		if strings.TrimSpace(t.Subject) == "" {
			return ErrEmptySubject
		}
	case ChannelWhatsApp:
	default:
		return ErrInvalidChannel
	}
	return nil
}

// EditorStateKey returns the key the block-editor JSON for template id is
// stored under.
func EditorStateKey(id string) string {
	return editorStatePrefix + id
}

// Mapping binds a placeholder token to a lead data field.
type Mapping struct {
	ID          string `json:"id"`
	TemplateID  string `json:"template_id"`
	Placeholder string `json:"placeholder"`
	FieldKey    string `json:"field_key"`
}

// Validate checks if the Mapping has valid data.
func (m *Mapping) Validate() error {
	if strings.TrimSpace(m.Placeholder) == "" {
		return ErrEmptyPlaceholder
	}
	if strings.TrimSpace(m.FieldKey) == "" {
		return ErrEmptyFieldKey
	}
	return nil
}

var placeholderRe = regexp.MustCompile(`\{\{\s*([A-Za-z0-9_.\-]+)\s*\}\}`)

// Placeholders lists the distinct tokens in subject then body, in the order
// they first appear.
func (t *Template) Placeholders() []string {
	seen := map[string]bool{}
	var out []string
	for _, src := range []string{t.Subject, t.HTML} {
		for _, m := range placeholderRe.FindAllStringSubmatch(src, -1) {
			if !seen[m[1]] {
				seen[m[1]] = true
				out = append(out, m[1])
			}
		}
	}
	return out
}

// ValidateMappings checks every mapping and that its placeholder occurs in t.
func (t *Template) ValidateMappings(ms []Mapping) error {
	known := map[string]bool{}
	for _, p := range t.Placeholders() {
		known[p] = true
	}
	for _, m := range ms {
		if err := m.Validate(); err != nil {
			return err
		}
		if !known[m.Placeholder] {
			return errors.Wrapf(ErrUnknownPlaceholder, "%q", m.Placeholder)
		}
	}
	return nil
}

// Message is a template personalised for one lead.
type Message struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	HTML    string `json:"html"`
}

// Personalize substitutes mapped placeholders with the lead's values. Values
// are HTML-escaped in the body; unmapped tokens are left as written.
func Personalize(t Template, ms []Mapping, reg *customfield.Registry, lead campaign.Lead) Message {
	values := make(map[string]string, len(ms))
	for _, m := range ms {
		values[m.Placeholder] = LeadValue(lead, reg, m.FieldKey)
	}
	replace := func(src string, escape bool) string {
		return placeholderRe.ReplaceAllStringFunc(src, func(tok string) string {
			name := placeholderRe.FindStringSubmatch(tok)[1]
			v, ok := values[name]
			if !ok {
				return tok
			}
			if escape {
				return html.EscapeString(v)
			}
			return v
		})
	}
	return Message{
		To:      lead.User.Email,
		Subject: replace(t.Subject, false),
		HTML:    replace(t.HTML, true),
	}
}

// LeadValue resolves a field key against a lead. Name and email keys read
// the user first and fall back to the custom value; other keys resolve
// through the registry to a custom field id.
func LeadValue(lead campaign.Lead, reg *customfield.Registry, key string) string {
	switch {
	case customfield.IsNameKey(key) && lead.User.FullName != "":
		return lead.User.FullName
	case customfield.IsEmailKey(key) && lead.User.Email != "":
		return lead.User.Email
	}
	if f, ok := reg.LookupKey(key); ok {
		if v, ok := lead.CustomFieldValues[f.ID]; ok {
			return v
		}
	}
	return lead.CustomFieldValues[key]
}
