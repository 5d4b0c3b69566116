package runtime

import (
	"context"
	"maps"

	"github.com/aretw0/coach/pkg/domain"
	"github.com/aretw0/coach/pkg/ports"
)

// handleOffRoute answers a detour through the backend and bridges the visitor
// back to the script. The session never advances here.
func (e *Engine) handleOffRoute(ctx context.Context, session *domain.Session, r ports.Renderer, trigger domain.Trigger, text string) error {
	count := session.RecordOffRoute()
	e.logger.Info("off-route detected", "session_id", session.ID, "state_id", session.StateID, "trigger", trigger.Name(), "count", count)

	if e.hooks.OnOffRoute != nil {
		e.hooks.OnOffRoute(ctx, &domain.OffRouteEvent{
			EventBase: domain.EventBase{Timestamp: e.now(), Type: domain.EventOffRoute, SessionID: session.ID},
			StateID:   session.StateID,
			Trigger:   trigger.Name(),
			Count:     count,
		})
	}

	var resp *domain.MessageResponse
	ok, err := e.call(ctx, session, domain.CallMessage, func() error {
		var err error
		resp, err = e.backend.Message(ctx, domain.MessageRequest{
			SessionID: session.ID,
			Text:      text,
			Context: domain.MessageContext{
				StateID: session.StateID,
				Profile: maps.Clone(session.Profile),
			},
		})
		return err
	})
	if err != nil {
		return err
	}

	switch {
	case !ok:
		if err := e.pacer.Say(ctx, r, MsgOffRouteApology, false); err != nil {
			return err
		}
	case resp != nil && resp.Reply != "":
		if err := e.pacer.Say(ctx, r, resp.Reply, false); err != nil {
			return err
		}
	}

	if err := e.pacer.Say(ctx, r, MsgBridgeBack, false); err != nil {
		return err
	}
	r.ShowQuickReplies([]string{ReplyFinishAssessment})
	session.AwaitingResume = true
	return nil
}
