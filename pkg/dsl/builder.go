package dsl

import (
	"fmt"

	"github.com/aretw0/coach/pkg/adapters/memory"
	"github.com/aretw0/coach/pkg/domain"
)

// Builder manages the script construction.
type Builder struct {
	start    string
	order    []string
	states   map[string]*StateBuilder
	triggers []domain.Trigger
	rules    string
}

// New creates a new script builder.
func New() *Builder {
	return &Builder{
		states: make(map[string]*StateBuilder),
	}
}

// Add creates a new state in the script.
// If the state already exists, it returns the existing builder.
// The first state added is the start unless Start says otherwise.
func (b *Builder) Add(id string) *StateBuilder {
	if sb, ok := b.states[id]; ok {
		return sb
	}
	sb := &StateBuilder{
		state: domain.StateDef{
			ID: id,
		},
	}
	b.states[id] = sb
	b.order = append(b.order, id)
	return sb
}

// Start names the state the conversation begins at.
func (b *Builder) Start(id string) *Builder {
	b.start = id
	return b
}

// Trigger adds an off-route trigger.
func (b *Builder) Trigger(id, pattern, label string) *Builder {
	b.triggers = append(b.triggers, domain.Trigger{ID: id, Pattern: pattern, Label: label})
	return b
}

// Rules sets the raw recommendation rules forwarded to the backend.
func (b *Builder) Rules(raw string) *Builder {
	b.rules = raw
	return b
}

// Build compiles the script into a memory loader.
// States keep the order they were added in.
func (b *Builder) Build() (*memory.Loader, error) {
	states := make([]domain.StateDef, 0, len(b.order))
	for _, id := range b.order {
		states = append(states, b.states[id].state)
	}

	loader, err := memory.NewFromStates(states...)
	if err != nil {
		return nil, fmt.Errorf("failed to build memory loader: %w", err)
	}
	if b.start != "" {
		if _, ok := b.states[b.start]; !ok {
			return nil, fmt.Errorf("start state %q was never added", b.start)
		}
		loader.Flow.Start = b.start
	}
	loader.OffRoute.Triggers = b.triggers
	if b.rules != "" {
		loader.WithRules(b.rules)
	}
	return loader, nil
}
