package loam

// Reserved document ids. Every other document is a state.
const (
	OffRouteID = "offroute"
	RulesID    = "recommendation_rules"
)

// Metadata is the frontmatter of a script document.
// It uses "mapstructure" tags to match the YAML keys written by authors.
type Metadata struct {
	ID string `json:"id" mapstructure:"id"`

	// Start marks the state the conversation begins at.
	Start bool `json:"start,omitempty" mapstructure:"start"`

	// Say overrides the document body when present.
	Say          []string          `json:"say,omitempty" mapstructure:"say"`
	QuickReplies []string          `json:"quick_replies,omitempty" mapstructure:"quick_replies"`
	Collect      map[string]string `json:"collect,omitempty" mapstructure:"collect"`
	Next         string            `json:"next,omitempty" mapstructure:"next"`
	MemoryWrite  []string          `json:"memory_write,omitempty" mapstructure:"memory_write"`

	// Action is either a kind ("fetch_recommendation") or a mapping with kind and on_select.
	Action any `json:"action,omitempty" mapstructure:"action"`

	// Triggers is only read from the offroute document.
	Triggers []map[string]any `json:"triggers,omitempty" mapstructure:"triggers"`

	// Rules is only read from the recommendation_rules document.
	Rules map[string]any `json:"rules,omitempty" mapstructure:"rules"`
}

// actionSpec is the mapping form of Metadata.Action.
type actionSpec struct {
	Kind     string `mapstructure:"kind"`
	OnSelect string `mapstructure:"on_select"`
}
