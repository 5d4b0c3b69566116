package domain

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"
)

func TestDiff(t *testing.T) {
	tests := []struct {
		name     string
		old      *Session
		new      *Session
		wantDiff *SessionDiff // nil means we expect no diff
	}{
		{
			name: "Initial Load (Old is Nil)",
			old:  nil,
			new: &Session{
				ID:      "sess-1",
				StateID: "S1",
				Profile: map[string]any{"age": "34"},
			},
			wantDiff: &SessionDiff{
				SessionID: "sess-1",
				StateID:   &[]string{"S1"}[0],
				Profile:   map[string]any{"age": "34"},
			},
		},
		{
			name: "No Changes",
			old:  &Session{ID: "sess-1", StateID: "S1", Goal: "run faster"},
			new:  &Session{ID: "sess-1", StateID: "S1", Goal: "run faster"},
		},
		{
			name: "Goal Collected And Advanced",
			old:  &Session{ID: "sess-1", StateID: "S1"},
			new:  &Session{ID: "sess-1", StateID: "S2", Goal: "run faster"},
			wantDiff: &SessionDiff{
				SessionID: "sess-1",
				StateID:   &[]string{"S2"}[0],
				Goal:      &[]string{"run faster"}[0],
			},
		},
		{
			name: "Off-Route Counter",
			old:  &Session{ID: "sess-1", StateID: "S3", OffRouteCount: 1},
			new:  &Session{ID: "sess-1", StateID: "S3", OffRouteCount: 2},
			wantDiff: &SessionDiff{
				SessionID:     "sess-1",
				OffRouteCount: &[]int{2}[0],
			},
		},
		{
			name: "Habit Deletion",
			old:  &Session{Habits: map[string]any{"sleep": "6h", "summary": "busy"}},
			new:  &Session{Habits: map[string]any{"summary": "busy"}},
			wantDiff: &SessionDiff{
				Habits: map[string]any{"sleep": nil},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Diff(tt.old, tt.new)
			if tt.wantDiff == nil {
				if got != nil {
					t.Errorf("Diff() = %+v, want nil", got)
				}
				return
			}
			if got == nil {
				t.Fatalf("Diff() = nil, want %+v", tt.wantDiff)
			}

			if got.SessionID != tt.wantDiff.SessionID {
				t.Errorf("Diff().SessionID = %v, want %v", got.SessionID, tt.wantDiff.SessionID)
			}
			if !equalPtr(got.StateID, tt.wantDiff.StateID) {
				t.Errorf("Diff().StateID = %v, want %v", got.StateID, tt.wantDiff.StateID)
			}
			if !equalPtr(got.Goal, tt.wantDiff.Goal) {
				t.Errorf("Diff().Goal = %v, want %v", got.Goal, tt.wantDiff.Goal)
			}
			if !equalPtr(got.OffRouteCount, tt.wantDiff.OffRouteCount) {
				t.Errorf("Diff().OffRouteCount = %v, want %v", got.OffRouteCount, tt.wantDiff.OffRouteCount)
			}
			if !reflect.DeepEqual(got.Profile, tt.wantDiff.Profile) {
				t.Errorf("Diff().Profile = %v, want %v", got.Profile, tt.wantDiff.Profile)
			}
			if !reflect.DeepEqual(got.Habits, tt.wantDiff.Habits) {
				t.Errorf("Diff().Habits = %v, want %v", got.Habits, tt.wantDiff.Habits)
			}
		})
	}
}

func TestDiffJSONSerialization(t *testing.T) {
	t.Run("Deletions as Null", func(t *testing.T) {
		s1 := &Session{Profile: map[string]any{"a": 1, "b": 2}}
		s2 := &Session{Profile: map[string]any{"a": 1}}
		diff := Diff(s1, s2)
		if diff == nil {
			t.Fatal("Expected diff, got nil")
		}

		bytes, _ := json.Marshal(diff)
		if !strings.Contains(string(bytes), `"b":null`) {
			t.Errorf("JSON should contain 'b':null for deletion, got: %s", string(bytes))
		}
		if strings.Contains(string(bytes), `"habits"`) {
			t.Errorf("JSON should not contain 'habits' when unchanged, got: %s", string(bytes))
		}
	})
}

func equalPtr[T comparable](a, b *T) bool {
	if a == nil && b == nil {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	return *a == *b
}
