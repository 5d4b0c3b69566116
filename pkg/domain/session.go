package domain

import (
	"maps"
	"strings"
)

// Field names addressable from a script's collect and memoryWrite entries.
const (
	FieldProfile  = "profile"
	FieldGoal     = "goal"
	FieldWhyNow   = "whyNow"
	FieldHabits   = "habits"
	FieldInterest = "interest"
)

// Greeting tracks the welcome-back exchange that precedes the scripted flow.
type Greeting struct {
	// Pending is true while the visitor has not yet answered the welcome-back prompt.
	Pending bool `json:"pending,omitempty"`
	// Remembered is the profile returned by the memory backend.
	Remembered map[string]any `json:"remembered,omitempty"`
}

// Session is the complete mutable state of one visitor's conversation.
// It is only mutated by the dialogue engine and the turn coordinator.
type Session struct {
	ID string `json:"id" mapstructure:"id"`

	// StateID is the current position. Empty means the script start.
	StateID string `json:"stateId,omitempty" mapstructure:"stateId"`

	Profile  map[string]any `json:"profile" mapstructure:"profile"`
	Goal     string         `json:"goal,omitempty" mapstructure:"goal"`
	WhyNow   string         `json:"whyNow,omitempty" mapstructure:"whyNow"`
	Habits   map[string]any `json:"habits" mapstructure:"habits"`
	Interest string         `json:"interest,omitempty" mapstructure:"interest"`

	// Extra holds collected fields that name no known session attribute.
	Extra map[string]any `json:"extra,omitempty" mapstructure:"extra"`

	// OffRouteCount never decreases within a session.
	OffRouteCount int `json:"offrouteCount" mapstructure:"offrouteCount"`

	// AwaitingResume is set after an off-route detour until the next input.
	AwaitingResume bool `json:"awaitingResume,omitempty" mapstructure:"-"`

	Greeting Greeting `json:"greeting,omitempty" mapstructure:"-"`

	// Cards holds the last carousel shown, so a host can resolve a selection by index.
	Cards []Card `json:"cards,omitempty" mapstructure:"-"`
}

// NewSession creates an empty session with the given identifier.
func NewSession(id string) *Session {
	return &Session{
		ID:      id,
		Profile: make(map[string]any),
		Habits:  make(map[string]any),
	}
}

// RecordOffRoute increments the off-route counter and returns the new value.
func (s *Session) RecordOffRoute() int {
	s.OffRouteCount++
	return s.OffRouteCount
}

// Set writes a collected value. Dotted names address keys inside the
// profile and habits maps ("profile.age"); unknown names land in Extra.
func (s *Session) Set(field string, value string) {
	switch field {
	case FieldGoal:
		s.Goal = value
		return
	case FieldWhyNow:
		s.WhyNow = value
		return
	case FieldInterest:
		s.Interest = value
		return
	}

	if group, key, ok := strings.Cut(field, "."); ok && key != "" {
		switch group {
		case FieldProfile:
			if s.Profile == nil {
				s.Profile = make(map[string]any)
			}
			s.Profile[key] = value
			return
		case FieldHabits:
			if s.Habits == nil {
				s.Habits = make(map[string]any)
			}
			s.Habits[key] = value
			return
		}
	}

	if s.Extra == nil {
		s.Extra = make(map[string]any)
	}
	s.Extra[field] = value
}

// Lookup reads a field using the same addressing rules as Set.
func (s *Session) Lookup(field string) (any, bool) {
	switch field {
	case FieldGoal:
		return s.Goal, true
	case FieldWhyNow:
		return s.WhyNow, true
	case FieldInterest:
		return s.Interest, true
	case FieldProfile:
		return maps.Clone(s.Profile), true
	case FieldHabits:
		return maps.Clone(s.Habits), true
	}

	if group, key, ok := strings.Cut(field, "."); ok {
		switch group {
		case FieldProfile:
			v, found := s.Profile[key]
			return v, found
		case FieldHabits:
			v, found := s.Habits[key]
			return v, found
		}
	}

	v, found := s.Extra[field]
	return v, found
}

// MergeProfile copies remembered attributes into the profile without
// overwriting anything collected during this session.
func (s *Session) MergeProfile(remembered map[string]any) {
	if len(remembered) == 0 {
		return
	}
	if s.Profile == nil {
		s.Profile = make(map[string]any)
	}
	for k, v := range remembered {
		if _, exists := s.Profile[k]; !exists {
			s.Profile[k] = v
		}
	}
}

// Snapshot returns a copy that is safe to hand to another goroutine or store.
func (s *Session) Snapshot() *Session {
	if s == nil {
		return nil
	}
	next := *s
	next.Profile = maps.Clone(s.Profile)
	next.Habits = maps.Clone(s.Habits)
	next.Extra = maps.Clone(s.Extra)
	next.Greeting.Remembered = maps.Clone(s.Greeting.Remembered)
	if s.Cards != nil {
		next.Cards = append([]Card(nil), s.Cards...)
	}
	if next.Profile == nil {
		next.Profile = make(map[string]any)
	}
	if next.Habits == nil {
		next.Habits = make(map[string]any)
	}
	return &next
}
