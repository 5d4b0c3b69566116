package runtime

import (
	"context"
	"strings"

	"github.com/aretw0/coach/pkg/domain"
	"github.com/aretw0/coach/pkg/ports"
)

// HandleInput processes one visitor utterance.
//
// Off-route detection runs before the state machine and short-circuits it,
// including while the welcome-back prompt is pending.
// Otherwise the current state's collect fields capture the text and the
// session advances along next. Terminal states keep the session in place.
func (e *Engine) HandleInput(ctx context.Context, session *domain.Session, r ports.Renderer, text string) error {
	defer r.SetInputEnabled(true)

	r.ShowQuickReplies(nil)
	r.ShowUserMessage(text)

	if session.AwaitingResume {
		session.AwaitingResume = false
		if strings.EqualFold(strings.TrimSpace(text), ReplyFinishAssessment) {
			if session.Greeting.Pending {
				return e.promptGreeting(ctx, session, r)
			}
			return e.enter(ctx, session, r, false)
		}
	}

	if trigger, ok := e.script.Classify(text); ok {
		return e.handleOffRoute(ctx, session, r, trigger, text)
	}

	if session.Greeting.Pending {
		return e.answerGreeting(ctx, session, r, text)
	}

	st, ok := e.Current(session)
	if !ok {
		e.logger.Debug("input dropped, no current state", "session_id", session.ID, "state_id", session.StateID)
		return nil
	}

	for field, mode := range st.Collect {
		if mode == domain.CaptureFreeText {
			session.Set(field, text)
		}
	}

	if st.Terminal() {
		return nil
	}
	session.StateID = st.Next
	return e.enter(ctx, session, r, false)
}
