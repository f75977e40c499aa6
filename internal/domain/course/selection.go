package course

import "strings"

// ToggleLevel returns a new sessions array with (session, level) checked or unchecked.
// The input array is never mutated.
//
// Checking adds the session (carrying only that level) when it is absent,
// otherwise appends the level. Unchecking removes the level but keeps the
// session entry even when its level list becomes empty; empty sessions are
// dropped by PrepareSubmission.
func ToggleLevel(sessions []Session, session Session, level Level, checked bool) []Session {
	out := make([]Session, len(sessions))
	copy(out, sessions)

	idx := indexOfSession(out, session.Key())
	if checked {
		if idx < 0 {
			entry := session
			entry.Levels = []Level{level}
			return append(out, entry)
		}
		if indexOfLevel(out[idx].Levels, level.Key()) >= 0 {
			return out
		}
		levels := make([]Level, 0, len(out[idx].Levels)+1)
		levels = append(levels, out[idx].Levels...)
		out[idx].Levels = append(levels, level)
		return out
	}

	if idx < 0 {
		return out
	}
	lk := level.Key()
	levels := make([]Level, 0, len(out[idx].Levels))
	for _, l := range out[idx].Levels {
		if l.Key() != lk {
			levels = append(levels, l)
		}
	}
	out[idx].Levels = levels
	return out
}

// IsChecked reports whether level is checked for session in sessions.
func IsChecked(sessions []Session, session Session, level Level) bool {
	idx := indexOfSession(sessions, session.Key())
	if idx < 0 {
		return false
	}
	return indexOfLevel(sessions[idx].Levels, level.Key()) >= 0
}

// IsSelected reports whether session has an entry in sessions.
func IsSelected(sessions []Session, session Session) bool {
	return indexOfSession(sessions, session.Key()) >= 0
}

func indexOfSession(sessions []Session, key string) int {
	for i, s := range sessions {
		if s.Key() == key {
			return i
		}
	}
	return -1
}

func indexOfLevel(levels []Level, key string) int {
	for i, l := range levels {
		if l.Key() == key {
			return i
		}
	}
	return -1
}

// Derived is the state computed from the form value after every mutation.
type Derived struct {
	SubmitDisabled     bool `json:"submit_disabled"`
	SelectedLevelCount int  `json:"selected_level_count"`
	EmptySessionCount  int  `json:"empty_session_count"`
}

// Derive recomputes the derived form state from the course value.
// Submit is disabled while the course has no name, or while a course that
// contains levels has no checked level.
func Derive(c Course) Derived {
	d := Derived{}
	for _, s := range c.Sessions {
		d.SelectedLevelCount += len(s.Levels)
		if len(s.Levels) == 0 {
			d.EmptySessionCount++
		}
	}
	d.SubmitDisabled = strings.TrimSpace(c.CourseName) == "" ||
		(c.ContainLevels && d.SelectedLevelCount == 0)
	return d
}

// Form holds an in-progress course edit and its derived state.
type Form struct {
	Value   Course  `json:"form"`
	Derived Derived `json:"derived"`
}

// NewForm wraps c and computes its derived state.
func NewForm(c Course) *Form {
	f := &Form{Value: c}
	f.recompute()
	return f
}

// SetSessions replaces the whole sessions array and recomputes derived state.
func (f *Form) SetSessions(sessions []Session) {
	f.Value.Sessions = sessions
	f.recompute()
}

// SetCourseName updates the course name and recomputes derived state.
func (f *Form) SetCourseName(name string) {
	f.Value.CourseName = name
	f.recompute()
}

// SetContainLevels updates the contain_levels flag and recomputes derived state.
func (f *Form) SetContainLevels(v bool) {
	f.Value.ContainLevels = v
	f.recompute()
}

// Toggle checks or unchecks (session, level).
func (f *Form) Toggle(session Session, level Level, checked bool) {
	f.SetSessions(ToggleLevel(f.Value.Sessions, session, level, checked))
}

func (f *Form) recompute() {
	f.Derived = Derive(f.Value)
}
