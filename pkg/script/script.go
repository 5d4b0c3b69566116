// Package script holds the immutable conversation definition an engine runs.
//
// A Script is assembled from three documents fetched through a ports.ScriptLoader:
// the flow (states and start), the off-route triggers and the recommendation
// rules. Loading validates the whole definition up front so a running
// conversation never meets a dangling reference.
package script

import (
	"context"
	"errors"
	"fmt"

	"github.com/aretw0/coach/internal/classifier"
	"github.com/aretw0/coach/pkg/domain"
	"github.com/aretw0/coach/pkg/ports"
	"golang.org/x/sync/errgroup"
)

// Document names reported in domain.ScriptLoadError.
const (
	DocFlow     = "flow"
	DocOffRoute = "offroute"
	DocRules    = "recommendation_rules"
)

// Script is the validated, read-only conversation definition.
type Script struct {
	start      string
	order      []string
	states     map[string]domain.StateDef
	classifier *classifier.Classifier
	triggers   []domain.Trigger
	rules      domain.RecommendationRules
}

// Load fetches the three documents in parallel and builds a Script.
// Any failure is returned as a *domain.ScriptLoadError.
func Load(ctx context.Context, loader ports.ScriptLoader) (*Script, error) {
	var (
		flow     *domain.FlowDocument
		offRoute *domain.OffRouteDocument
		rules    domain.RecommendationRules
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		doc, err := loader.LoadFlow(gctx)
		if err != nil {
			return &domain.ScriptLoadError{Document: DocFlow, Err: err}
		}
		flow = doc
		return nil
	})
	g.Go(func() error {
		doc, err := loader.LoadOffRoute(gctx)
		if err != nil {
			return &domain.ScriptLoadError{Document: DocOffRoute, Err: err}
		}
		offRoute = doc
		return nil
	})
	g.Go(func() error {
		doc, err := loader.LoadRules(gctx)
		if err != nil {
			return &domain.ScriptLoadError{Document: DocRules, Err: err}
		}
		rules = doc
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return New(flow, offRoute, rules)
}

// New validates already decoded documents and builds a Script.
func New(flow *domain.FlowDocument, offRoute *domain.OffRouteDocument, rules domain.RecommendationRules) (*Script, error) {
	if flow == nil {
		return nil, &domain.ScriptLoadError{Document: DocFlow, Err: errors.New("missing document")}
	}

	s := &Script{
		start:  flow.Start,
		states: make(map[string]domain.StateDef, len(flow.States)),
		rules:  rules,
	}

	if err := s.index(flow); err != nil {
		return nil, &domain.ScriptLoadError{Document: DocFlow, Err: err}
	}

	c, err := classifier.Compile(offRoute)
	if err != nil {
		return nil, &domain.ScriptLoadError{Document: DocOffRoute, Err: err}
	}
	s.classifier = c
	if offRoute != nil {
		s.triggers = append([]domain.Trigger(nil), offRoute.Triggers...)
	}

	return s, nil
}

func (s *Script) index(flow *domain.FlowDocument) error {
	var errs []error
	for i, st := range flow.States {
		if st.ID == "" {
			errs = append(errs, fmt.Errorf("state %d: missing id", i))
			continue
		}
		if _, dup := s.states[st.ID]; dup {
			errs = append(errs, fmt.Errorf("state %s: duplicate id", st.ID))
			continue
		}
		s.states[st.ID] = st
		s.order = append(s.order, st.ID)
	}

	if s.start == "" {
		errs = append(errs, errors.New("missing start state"))
	} else if _, ok := s.states[s.start]; !ok {
		errs = append(errs, fmt.Errorf("start state %q: %w", s.start, domain.ErrUnknownState))
	}

	for _, id := range s.order {
		errs = append(errs, s.check(s.states[id])...)
	}

	return errors.Join(errs...)
}

func (s *Script) check(st domain.StateDef) []error {
	var errs []error
	if st.Next != "" {
		if _, ok := s.states[st.Next]; !ok {
			errs = append(errs, fmt.Errorf("state %s: next %q: %w", st.ID, st.Next, domain.ErrUnknownState))
		}
	}
	for field, mode := range st.Collect {
		if mode != domain.CaptureFreeText {
			errs = append(errs, fmt.Errorf("state %s: collect %s: unsupported capture mode %q", st.ID, field, mode))
		}
	}
	if !st.Action.Kind.Valid() {
		errs = append(errs, fmt.Errorf("state %s: unknown action %q", st.ID, st.Action.Kind))
	}
	if st.Action.OnSelect != "" {
		if st.Action.Kind != domain.ActionFetchCarousel {
			errs = append(errs, fmt.Errorf("state %s: onSelect is only valid for %s", st.ID, domain.ActionFetchCarousel))
		} else if _, ok := s.states[st.Action.OnSelect]; !ok {
			errs = append(errs, fmt.Errorf("state %s: onSelect %q: %w", st.ID, st.Action.OnSelect, domain.ErrUnknownState))
		}
	}
	return errs
}

// Start returns the id of the first state.
func (s *Script) Start() string {
	return s.start
}

// State returns the definition of id.
func (s *Script) State(id string) (domain.StateDef, bool) {
	st, ok := s.states[id]
	return st, ok
}

// States returns the states in declaration order.
func (s *Script) States() []domain.StateDef {
	out := make([]domain.StateDef, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.states[id])
	}
	return out
}

// Triggers returns the off-route rules in precedence order.
func (s *Script) Triggers() []domain.Trigger {
	return append([]domain.Trigger(nil), s.triggers...)
}

// Classify runs the off-route classifier over text.
func (s *Script) Classify(text string) (domain.Trigger, bool) {
	return s.classifier.Classify(text)
}

// Rules returns the opaque recommendation rules.
func (s *Script) Rules() domain.RecommendationRules {
	return s.rules
}
