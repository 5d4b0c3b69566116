package conversation

import (
	"sync"

	"github.com/aretw0/coach/pkg/domain"
	"github.com/aretw0/coach/pkg/ports"
)

// gate sits between the engine and the host renderer. It coalesces repeated
// input toggles and drops every call once the conversation is closed.
type gate struct {
	mu     sync.Mutex
	next   ports.Renderer
	closed bool
	input  *bool
}

func newGate(next ports.Renderer) *gate {
	return &gate{next: next}
}

func (g *gate) close() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.closed = true
}

// forward runs fn under the gate lock unless the gate is closed.
func (g *gate) forward(fn func(r ports.Renderer)) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return
	}
	fn(g.next)
}

func (g *gate) ShowAssistantMessage(text string) {
	g.forward(func(r ports.Renderer) { r.ShowAssistantMessage(text) })
}

func (g *gate) ShowUserMessage(text string) {
	g.forward(func(r ports.Renderer) { r.ShowUserMessage(text) })
}

func (g *gate) ShowSystemNotice(text string) {
	g.forward(func(r ports.Renderer) { r.ShowSystemNotice(text) })
}

func (g *gate) ShowQuickReplies(labels []string) {
	g.forward(func(r ports.Renderer) { r.ShowQuickReplies(labels) })
}

func (g *gate) ShowCards(cards []domain.Card) {
	g.forward(func(r ports.Renderer) { r.ShowCards(cards) })
}

func (g *gate) SetTypingIndicator(on bool) {
	g.forward(func(r ports.Renderer) { r.SetTypingIndicator(on) })
}

func (g *gate) SetInputEnabled(enabled bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed || (g.input != nil && *g.input == enabled) {
		return
	}
	g.input = &enabled
	g.next.SetInputEnabled(enabled)
}
