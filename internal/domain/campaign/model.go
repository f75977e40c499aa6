package campaign

import (
	"strings"
	"time"

	"github.com/pkg/errors"
)

// Status constants for campaigns.
const (
	StatusActive   = "ACTIVE"
	StatusInactive = "INACTIVE"
	StatusDraft    = "DRAFT"
)

// Domain errors
var (
	ErrEmptyName        = errors.New("campaign name cannot be empty")
	ErrEmptyInstituteID = errors.New("institute id cannot be empty")
	ErrEmptyAudienceID  = errors.New("audience id cannot be empty")
	ErrNotFound         = errors.New("campaign not found")
	ErrEmptyResponseID  = errors.New("response id cannot be empty")
)

// FieldRef declares a custom field on a campaign. Key and name are optional
// hints; the registry is authoritative.
type FieldRef struct {
	CustomFieldID string `json:"custom_field_id"`
	FieldKey      string `json:"field_key,omitempty"`
	FieldName     string `json:"field_name,omitempty"`
	FormOrder     int    `json:"form_order,omitempty"`
}

// Campaign collects lead submissions for an audience.
type Campaign struct {
	ID           string     `json:"id"`
	InstituteID  string     `json:"institute_id"`
	Name         string     `json:"campaign_name"`
	AudienceID   string     `json:"audience_id"`
	Status       string     `json:"status"`
	CustomFields []FieldRef `json:"custom_fields"`
	CreatedAt    time.Time  `json:"created_at"`
}

// Validate checks if the Campaign has valid data.
func (c *Campaign) Validate() error {
	if strings.TrimSpace(c.InstituteID) == "" {
		return ErrEmptyInstituteID
	}
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	if strings.TrimSpace(c.AudienceID) == "" {
		return ErrEmptyAudienceID
	}
	return nil
}

// DeclaredFieldIDs returns the declared custom field ids in declaration order,
// without blanks or duplicates.
func (c *Campaign) DeclaredFieldIDs() []string {
	seen := make(map[string]bool, len(c.CustomFields))
	var ids []string
	for _, f := range c.CustomFields {
		if f.CustomFieldID == "" || seen[f.CustomFieldID] {
			continue
		}
		seen[f.CustomFieldID] = true
		ids = append(ids, f.CustomFieldID)
	}
	return ids
}

// User is the person behind a lead submission.
type User struct {
	ID           string `json:"id"`
	FullName     string `json:"full_name"`
	Email        string `json:"email"`
	MobileNumber string `json:"mobile_number,omitempty"`
}

// Lead is one submission to a campaign's audience.
type Lead struct {
	ResponseID        string            `json:"response_id"`
	AudienceID        string            `json:"audience_id"`
	User              User              `json:"user"`
	CustomFieldValues map[string]string `json:"custom_field_values"`
	SubmittedAtLocal  time.Time         `json:"submitted_at_local"`
}

// Validate checks if the Lead has valid data.
func (l *Lead) Validate() error {
	if strings.TrimSpace(l.ResponseID) == "" {
		return ErrEmptyResponseID
	}
	if strings.TrimSpace(l.AudienceID) == "" {
		return ErrEmptyAudienceID
	}
	return nil
}
