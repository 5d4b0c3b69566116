package domain

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// CaptureMode defines how a state captures the visitor's answer into the session.
type CaptureMode string

const (
	// CaptureFreeText stores the raw utterance as-is.
	CaptureFreeText CaptureMode = "free"
)

// ActionKind enumerates the auxiliary behaviors a state may run on entry.
// The set is closed: loaders reject anything not listed here.
type ActionKind string

const (
	ActionNone                ActionKind = ""
	ActionFetchCarousel       ActionKind = "fetch_carousel"
	ActionFetchRecommendation ActionKind = "fetch_recommendation"
)

// Valid reports whether k is a known action kind.
func (k ActionKind) Valid() bool {
	switch k {
	case ActionNone, ActionFetchCarousel, ActionFetchRecommendation:
		return true
	}
	return false
}

// Action is the typed side behavior of a state.
// It decodes from either a bare kind string or an object.
type Action struct {
	Kind ActionKind `json:"kind,omitempty" yaml:"kind,omitempty" mapstructure:"kind"`
	// OnSelect is the state a card selection moves to (carousel only).
	OnSelect string `json:"onSelect,omitempty" yaml:"onSelect,omitempty" mapstructure:"onSelect"`
}

// UnmarshalJSON accepts "fetch_carousel" as well as {"kind": "fetch_carousel"}.
func (a *Action) UnmarshalJSON(data []byte) error {
	var kind string
	if err := json.Unmarshal(data, &kind); err == nil {
		*a = Action{Kind: ActionKind(kind)}
		return nil
	}
	type plain Action
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return fmt.Errorf("action must be a string or an object: %w", err)
	}
	*a = Action(p)
	return nil
}

// UnmarshalYAML mirrors UnmarshalJSON for YAML scripts.
func (a *Action) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		*a = Action{Kind: ActionKind(node.Value)}
		return nil
	}
	type plain Action
	var p plain
	if err := node.Decode(&p); err != nil {
		return fmt.Errorf("action must be a string or a mapping: %w", err)
	}
	*a = Action(p)
	return nil
}

// Messages is an ordered list of assistant messages.
// A single string in the script decodes into a one-element list.
type Messages []string

// UnmarshalJSON accepts a string or a list of strings.
func (m *Messages) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*m = Messages{single}
		return nil
	}
	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return fmt.Errorf("say must be a string or a list of strings: %w", err)
	}
	*m = list
	return nil
}

// UnmarshalYAML accepts a scalar or a sequence.
func (m *Messages) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		*m = Messages{node.Value}
		return nil
	}
	var list []string
	if err := node.Decode(&list); err != nil {
		return fmt.Errorf("say must be a string or a list of strings: %w", err)
	}
	*m = list
	return nil
}

// StateDef is one step of the conversation script.
type StateDef struct {
	ID           string                 `json:"id" yaml:"id"`
	Say          Messages               `json:"say,omitempty" yaml:"say,omitempty"`
	QuickReplies []string               `json:"quickReplies,omitempty" yaml:"quickReplies,omitempty"`
	Collect      map[string]CaptureMode `json:"collect,omitempty" yaml:"collect,omitempty"`
	// Next is empty for terminal states, which wait for an external trigger.
	Next        string   `json:"next,omitempty" yaml:"next,omitempty"`
	MemoryWrite []string `json:"memoryWrite,omitempty" yaml:"memoryWrite,omitempty"`
	Action      Action   `json:"action,omitempty" yaml:"action,omitempty"`
}

// Terminal reports whether the state has no scripted successor.
func (s StateDef) Terminal() bool {
	return s.Next == ""
}

// FlowDocument is the wire form of the conversation script.
type FlowDocument struct {
	Start  string     `json:"start" yaml:"start"`
	States []StateDef `json:"states" yaml:"states"`
}

// Trigger is one off-route rule. Pattern is a case-insensitive regular expression.
type Trigger struct {
	ID      string `json:"id,omitempty" yaml:"id,omitempty" mapstructure:"id"`
	Pattern string `json:"pattern" yaml:"pattern" mapstructure:"pattern"`
	Label   string `json:"label,omitempty" yaml:"label,omitempty" mapstructure:"label"`
}

// Name returns the best human identifier of the trigger.
func (t Trigger) Name() string {
	if t.ID != "" {
		return t.ID
	}
	if t.Label != "" {
		return t.Label
	}
	return t.Pattern
}

// OffRouteDocument is the wire form of the off-route rules.
// Order matters: earlier triggers win.
type OffRouteDocument struct {
	Triggers []Trigger `json:"triggers" yaml:"triggers" mapstructure:"triggers"`
}

// RecommendationRules is opaque to the engine and kept verbatim for hosts and tooling.
type RecommendationRules json.RawMessage

// MarshalJSON keeps the raw document intact.
func (r RecommendationRules) MarshalJSON() ([]byte, error) {
	if len(r) == 0 {
		return []byte("null"), nil
	}
	return json.RawMessage(r).MarshalJSON()
}
