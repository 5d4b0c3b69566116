package ports

import "github.com/aretw0/coach/pkg/domain"

// Renderer is the sink the engine calls to present the conversation.
// It is implemented by the UI host (terminal, HTTP stream, MCP response).
// Implementations must be safe to call from the goroutine running the turn.
type Renderer interface {
	ShowAssistantMessage(text string)
	ShowUserMessage(text string)
	ShowSystemNotice(text string)

	// ShowQuickReplies replaces the suggested replies. An empty list clears them.
	ShowQuickReplies(labels []string)

	ShowCards(cards []domain.Card)
	SetTypingIndicator(on bool)
	SetInputEnabled(enabled bool)
}
