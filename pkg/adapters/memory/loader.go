package memory

import (
	"context"
	"fmt"

	"github.com/aretw0/coach/pkg/domain"
)

// Loader implements ports.ScriptLoader over documents held in memory.
type Loader struct {
	Flow     *domain.FlowDocument
	OffRoute *domain.OffRouteDocument
	Rules    domain.RecommendationRules
}

// NewLoader creates a Loader for the given flow. Off-route triggers and rules are optional.
func NewLoader(flow *domain.FlowDocument, triggers ...domain.Trigger) *Loader {
	return &Loader{
		Flow:     flow,
		OffRoute: &domain.OffRouteDocument{Triggers: triggers},
	}
}

// NewFromStates builds a flow starting at the first state.
// This improves DX for tests.
func NewFromStates(states ...domain.StateDef) (*Loader, error) {
	if len(states) == 0 {
		return nil, fmt.Errorf("at least one state is required")
	}
	return NewLoader(&domain.FlowDocument{Start: states[0].ID, States: states}), nil
}

// WithRules sets the recommendation rules and returns the loader.
func (l *Loader) WithRules(raw string) *Loader {
	l.Rules = domain.RecommendationRules(raw)
	return l
}

// LoadFlow returns the flow document.
func (l *Loader) LoadFlow(ctx context.Context) (*domain.FlowDocument, error) {
	if l.Flow == nil {
		return nil, fmt.Errorf("flow document not set")
	}
	return l.Flow, nil
}

// LoadOffRoute returns the off-route document, empty if unset.
func (l *Loader) LoadOffRoute(ctx context.Context) (*domain.OffRouteDocument, error) {
	if l.OffRoute == nil {
		return &domain.OffRouteDocument{}, nil
	}
	return l.OffRoute, nil
}

// LoadRules returns the recommendation rules.
func (l *Loader) LoadRules(ctx context.Context) (domain.RecommendationRules, error) {
	return l.Rules, nil
}
