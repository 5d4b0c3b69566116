// Package render provides reusable ports.Renderer implementations:
// a recorder that turns a turn into a list of events and a fan-out.
package render

import (
	"sync"

	"github.com/aretw0/coach/pkg/domain"
	"github.com/aretw0/coach/pkg/ports"
)

// Kind identifies a render event.
type Kind string

const (
	KindAssistant Kind = "assistant"
	KindUser      Kind = "user"
	KindNotice    Kind = "notice"
	KindReplies   Kind = "quick_replies"
	KindCards     Kind = "cards"
	KindTyping    Kind = "typing"
	KindInput     Kind = "input"
)

// Event is one call made on a Renderer, in a form that can be serialized.
type Event struct {
	Kind    Kind          `json:"kind"`
	Text    string        `json:"text,omitempty"`
	Replies []string      `json:"replies,omitempty"`
	Cards   []domain.Card `json:"cards,omitempty"`
	On      *bool         `json:"on,omitempty"`
}

// Apply replays the event on r.
func (ev Event) Apply(r ports.Renderer) {
	switch ev.Kind {
	case KindAssistant:
		r.ShowAssistantMessage(ev.Text)
	case KindUser:
		r.ShowUserMessage(ev.Text)
	case KindNotice:
		r.ShowSystemNotice(ev.Text)
	case KindReplies:
		r.ShowQuickReplies(ev.Replies)
	case KindCards:
		r.ShowCards(ev.Cards)
	case KindTyping:
		r.SetTypingIndicator(ev.On != nil && *ev.On)
	case KindInput:
		r.SetInputEnabled(ev.On != nil && *ev.On)
	}
}

// Recorder is a Renderer that stores every call. Safe for concurrent use.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) add(ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *Recorder) ShowAssistantMessage(text string) { r.add(Event{Kind: KindAssistant, Text: text}) }
func (r *Recorder) ShowUserMessage(text string)      { r.add(Event{Kind: KindUser, Text: text}) }
func (r *Recorder) ShowSystemNotice(text string)     { r.add(Event{Kind: KindNotice, Text: text}) }

func (r *Recorder) ShowQuickReplies(labels []string) {
	r.add(Event{Kind: KindReplies, Replies: append([]string{}, labels...)})
}

func (r *Recorder) ShowCards(cards []domain.Card) {
	r.add(Event{Kind: KindCards, Cards: append([]domain.Card{}, cards...)})
}

func (r *Recorder) SetTypingIndicator(on bool)   { r.add(Event{Kind: KindTyping, On: &on}) }
func (r *Recorder) SetInputEnabled(enabled bool) { r.add(Event{Kind: KindInput, On: &enabled}) }

// Events returns a copy of everything recorded so far.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// Drain returns the recorded events and resets the recorder.
func (r *Recorder) Drain() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.events
	r.events = nil
	return out
}

// Texts returns the text of every event of kind k, in order.
func (r *Recorder) Texts(k Kind) []string {
	var out []string
	for _, ev := range r.Events() {
		if ev.Kind == k {
			out = append(out, ev.Text)
		}
	}
	return out
}

// LastReplies returns the most recent quick replies, or nil if none were shown.
func (r *Recorder) LastReplies() []string {
	events := r.Events()
	for i := len(events) - 1; i >= 0; i-- {
		if events[i].Kind == KindReplies {
			return events[i].Replies
		}
	}
	return nil
}

// Visible drops typing and input toggles, leaving what a visitor would read.
func Visible(events []Event) []Event {
	out := make([]Event, 0, len(events))
	for _, ev := range events {
		if ev.Kind == KindTyping || ev.Kind == KindInput {
			continue
		}
		out = append(out, ev)
	}
	return out
}

// Multi fans every call out to several renderers in order.
type Multi []ports.Renderer

func (m Multi) ShowAssistantMessage(text string) {
	for _, r := range m {
		r.ShowAssistantMessage(text)
	}
}

func (m Multi) ShowUserMessage(text string) {
	for _, r := range m {
		r.ShowUserMessage(text)
	}
}

func (m Multi) ShowSystemNotice(text string) {
	for _, r := range m {
		r.ShowSystemNotice(text)
	}
}

func (m Multi) ShowQuickReplies(labels []string) {
	for _, r := range m {
		r.ShowQuickReplies(labels)
	}
}

func (m Multi) ShowCards(cards []domain.Card) {
	for _, r := range m {
		r.ShowCards(cards)
	}
}

func (m Multi) SetTypingIndicator(on bool) {
	for _, r := range m {
		r.SetTypingIndicator(on)
	}
}

func (m Multi) SetInputEnabled(enabled bool) {
	for _, r := range m {
		r.SetInputEnabled(enabled)
	}
}

// Nop discards everything.
type Nop struct{}

func (Nop) ShowAssistantMessage(string) {}
func (Nop) ShowUserMessage(string)      {}
func (Nop) ShowSystemNotice(string)     {}
func (Nop) ShowQuickReplies([]string)   {}
func (Nop) ShowCards([]domain.Card)     {}
func (Nop) SetTypingIndicator(bool)     {}
func (Nop) SetInputEnabled(bool)        {}

var (
	_ ports.Renderer = (*Recorder)(nil)
	_ ports.Renderer = Multi(nil)
	_ ports.Renderer = Nop{}
)
