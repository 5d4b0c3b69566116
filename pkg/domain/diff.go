package domain

import (
	"reflect"
)

// SessionDiff represents the changes between two session snapshots.
// It is serialized to JSON for partial updates on subscribed clients.
type SessionDiff struct {
	// SessionID is always present to identify the target.
	SessionID string `json:"session_id"`

	StateID       *string `json:"state_id,omitempty"`
	Goal          *string `json:"goal,omitempty"`
	WhyNow        *string `json:"why_now,omitempty"`
	Interest      *string `json:"interest,omitempty"`
	OffRouteCount *int    `json:"offroute_count,omitempty"`

	// Profile and Habits contain only changed, added or deleted keys.
	// Deleted keys are present with a nil value.
	Profile map[string]any `json:"profile,omitempty"`
	Habits  map[string]any `json:"habits,omitempty"`
}

// Diff calculates the difference between oldSession and newSession.
// If oldSession is nil, it returns a diff representing the entire newSession.
// It returns nil when nothing changed.
func Diff(oldSession, newSession *Session) *SessionDiff {
	if newSession == nil {
		return nil
	}

	diff := &SessionDiff{SessionID: newSession.ID}

	if oldSession == nil {
		oldSession = &Session{}
	}

	diff.StateID = changed(oldSession.StateID, newSession.StateID)
	diff.Goal = changed(oldSession.Goal, newSession.Goal)
	diff.WhyNow = changed(oldSession.WhyNow, newSession.WhyNow)
	diff.Interest = changed(oldSession.Interest, newSession.Interest)
	diff.OffRouteCount = changed(oldSession.OffRouteCount, newSession.OffRouteCount)
	diff.Profile = diffMap(oldSession.Profile, newSession.Profile)
	diff.Habits = diffMap(oldSession.Habits, newSession.Habits)

	if diff.IsEmpty() {
		return nil
	}
	return diff
}

func changed[T comparable](oldVal, newVal T) *T {
	if oldVal == newVal {
		return nil
	}
	return &newVal
}

func diffMap(oldMap, newMap map[string]any) map[string]any {
	delta := make(map[string]any)

	// Added or modified
	for k, newVal := range newMap {
		oldVal, exists := oldMap[k]
		if !exists || !reflect.DeepEqual(oldVal, newVal) {
			delta[k] = newVal
		}
	}

	// Deleted
	for k := range oldMap {
		if _, exists := newMap[k]; !exists {
			delta[k] = nil
		}
	}

	// Return nil if delta is empty so omitempty can remove the key
	if len(delta) == 0 {
		return nil
	}
	return delta
}

// IsEmpty checks if the diff contains any actionable changes.
func (d *SessionDiff) IsEmpty() bool {
	return d.StateID == nil &&
		d.Goal == nil &&
		d.WhyNow == nil &&
		d.Interest == nil &&
		d.OffRouteCount == nil &&
		len(d.Profile) == 0 &&
		len(d.Habits) == 0
}
