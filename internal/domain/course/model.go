package course

import (
	"strings"

	"github.com/pkg/errors"
)

// Status constants for courses and sessions.
const (
	StatusActive   = "ACTIVE"
	StatusDraft    = "DRAFT"
	StatusInactive = "INACTIVE"
)

// Domain errors
var (
	ErrEmptyName        = errors.New("course name cannot be empty")
	ErrEmptyInstituteID = errors.New("institute id cannot be empty")
	ErrNotFound         = errors.New("course not found")
	ErrDuplicateID      = errors.New("duplicate session or level id")
)

// Course is the root aggregate submitted by the course creation form.
type Course struct {
	ID              string    `json:"id"`
	InstituteID     string    `json:"institute_id,omitempty"`
	CourseName      string    `json:"course_name"`
	ThumbnailFileID string    `json:"thumbnail_file_id"`
	ContainLevels   bool      `json:"contain_levels"`
	Status          string    `json:"status"`
	Sessions        []Session `json:"sessions"`
}

// Session is an enrollment period grouping levels.
// An empty ID with NewSession set marks a session that is not yet persisted.
type Session struct {
	ID          string  `json:"id"`
	SessionName string  `json:"session_name"`
	Status      string  `json:"status"`
	StartDate   string  `json:"start_date,omitempty"`
	NewSession  bool    `json:"new_session,omitempty"`
	Levels      []Level `json:"levels"`
}

// Level is a stage within a session.
type Level struct {
	ID             string `json:"id"`
	LevelName      string `json:"level_name"`
	DurationInDays int    `json:"duration_in_days"`
	ThumbnailID    string `json:"thumbnail_id"`
	NewLevel       bool   `json:"new_level,omitempty"`
}

// Validate checks the fields the submit handler relies on. Session ids must
// be unique within the course and level ids within their session; durations
// are not checked.
func (c *Course) Validate() error {
	if strings.TrimSpace(c.CourseName) == "" {
		return ErrEmptyName
	}
	sessions := make(map[string]bool, len(c.Sessions))
	for _, s := range c.Sessions {
		if s.ID != "" {
			if sessions[s.ID] {
				return errors.Wrapf(ErrDuplicateID, "session %q", s.ID)
			}
			sessions[s.ID] = true
		}
		levels := make(map[string]bool, len(s.Levels))
		for _, l := range s.Levels {
			if l.ID == "" {
				continue
			}
			if levels[l.ID] {
				return errors.Wrapf(ErrDuplicateID, "level %q of session %q", l.ID, s.SessionName)
			}
			levels[l.ID] = true
		}
	}
	return nil
}

// Key identifies a session inside a form. Persisted sessions match by id,
// unpersisted ones by name.
func (s Session) Key() string {
	if s.ID != "" {
		return "id:" + s.ID
	}
	return "new:" + strings.TrimSpace(s.SessionName)
}

// Key identifies a level inside a session, with the same convention as Session.Key.
func (l Level) Key() string {
	if l.ID != "" {
		return "id:" + l.ID
	}
	return "new:" + strings.TrimSpace(l.LevelName)
}

// LevelCount returns the number of levels across all sessions.
func (c *Course) LevelCount() int {
	n := 0
	for _, s := range c.Sessions {
		n += len(s.Levels)
	}
	return n
}
