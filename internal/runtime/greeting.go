package runtime

import (
	"context"
	"fmt"
	"strings"

	"github.com/aretw0/coach/pkg/domain"
	"github.com/aretw0/coach/pkg/ports"
)

// greet asks the backend whether the visitor is known. It reports true when
// the welcome-back prompt was shown and the flow is on hold.
func (e *Engine) greet(ctx context.Context, session *domain.Session, r ports.Renderer) (bool, error) {
	var resp *domain.MemoryFetchResponse
	ok, err := e.call(ctx, session, domain.CallMemoryFetch, func() error {
		var err error
		resp, err = e.backend.FetchMemory(ctx, domain.MemoryFetchRequest{SessionID: session.ID})
		return err
	})
	if err != nil || !ok || resp == nil {
		return false, err
	}

	name := stringValue(resp.Profile["name"])
	if name == "" {
		return false, nil
	}

	session.Greeting = domain.Greeting{Pending: true, Remembered: resp.Profile}
	return true, e.promptGreeting(ctx, session, r)
}

// promptGreeting shows the welcome-back question for the remembered name.
func (e *Engine) promptGreeting(ctx context.Context, session *domain.Session, r ports.Renderer) error {
	name := stringValue(session.Greeting.Remembered["name"])
	if err := e.pacer.Say(ctx, r, fmt.Sprintf(MsgWelcomeBack, name), false); err != nil {
		return err
	}
	r.ShowQuickReplies([]string{ReplyResume, ReplyStartOver})
	return nil
}

// answerGreeting resolves the welcome-back prompt. Anything but "Start over"
// resumes; the answer itself is never collected.
func (e *Engine) answerGreeting(ctx context.Context, session *domain.Session, r ports.Renderer, text string) error {
	remembered := session.Greeting.Remembered
	session.Greeting = domain.Greeting{}

	resumed := !strings.EqualFold(strings.TrimSpace(text), ReplyStartOver)
	if resumed {
		session.MergeProfile(remembered)
	}
	e.logger.Debug("greeting answered", "session_id", session.ID, "resumed", resumed)

	session.StateID = e.script.Start()
	return e.enter(ctx, session, r, false)
}
