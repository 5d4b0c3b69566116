package dsl

import "github.com/aretw0/coach/pkg/domain"

// StateBuilder provides a fluent API for configuring a state.
type StateBuilder struct {
	state domain.StateDef
}

// Say appends assistant messages, shown in order.
func (s *StateBuilder) Say(messages ...string) *StateBuilder {
	s.state.Say = append(s.state.Say, messages...)
	return s
}

// Replies sets the quick replies offered with the state.
func (s *StateBuilder) Replies(labels ...string) *StateBuilder {
	s.state.QuickReplies = labels
	return s
}

// Collect captures the next input into field.
func (s *StateBuilder) Collect(field string, mode domain.CaptureMode) *StateBuilder {
	if s.state.Collect == nil {
		s.state.Collect = make(map[string]domain.CaptureMode)
	}
	s.state.Collect[field] = mode
	return s
}

// Remember persists the named session fields to the memory backend on entry.
func (s *StateBuilder) Remember(fields ...string) *StateBuilder {
	s.state.MemoryWrite = append(s.state.MemoryWrite, fields...)
	return s
}

// Go sets the state reached after input.
func (s *StateBuilder) Go(target string) *StateBuilder {
	s.state.Next = target
	return s
}

// Carousel fetches story cards on entry. Selecting one moves to onSelect.
func (s *StateBuilder) Carousel(onSelect string) *StateBuilder {
	s.state.Action = domain.Action{Kind: domain.ActionFetchCarousel, OnSelect: onSelect}
	return s
}

// Recommend fetches the plan recommendation on entry.
func (s *StateBuilder) Recommend() *StateBuilder {
	s.state.Action = domain.Action{Kind: domain.ActionFetchRecommendation}
	return s
}

// Terminal removes the outgoing transition.
func (s *StateBuilder) Terminal() *StateBuilder {
	s.state.Next = ""
	return s
}

// Build returns the underlying domain.StateDef.
func (s *StateBuilder) Build() domain.StateDef {
	return s.state
}
