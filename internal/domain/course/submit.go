package course

// PrepareSubmission returns the payload that leaves the form.
//
// Sessions without levels are dropped. Status is forced to ACTIVE, also
// when an existing course is edited. New level ids and durations are
// passed through unchecked.
func PrepareSubmission(c Course) Course {
	out := c
	out.Status = StatusActive
	out.Sessions = make([]Session, 0, len(c.Sessions))
	for _, s := range c.Sessions {
		if len(s.Levels) == 0 {
			continue
		}
		levels := make([]Level, len(s.Levels))
		copy(levels, s.Levels)
		s.Levels = levels
		out.Sessions = append(out.Sessions, s)
	}
	return out
}

// AssignIDs gives ids to the course, new sessions and new levels.
// Entities that already have an id keep it. New flags are cleared on
// entities that received an id.
func AssignIDs(c Course, generateID func() string) Course {
	out := c
	if out.ID == "" {
		out.ID = generateID()
	}
	sessions := make([]Session, len(c.Sessions))
	for i, s := range c.Sessions {
		if s.ID == "" {
			s.ID = generateID()
			s.NewSession = false
		}
		if s.Status == "" {
			s.Status = StatusActive
		}
		levels := make([]Level, len(s.Levels))
		for j, l := range s.Levels {
			if l.ID == "" {
				l.ID = generateID()
				l.NewLevel = false
			}
			levels[j] = l
		}
		s.Levels = levels
		sessions[i] = s
	}
	out.Sessions = sessions
	return out
}
