// Package runtime implements the dialogue state machine.
//
// An Engine interprets a validated script against an explicit session. It
// never owns a session: every call receives the *domain.Session to mutate and
// the ports.Renderer to present through, so one Engine serves any number of
// conversations. Serializing turns of the same session is the caller's job.
package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/coach/internal/logging"
	"github.com/aretw0/coach/pkg/domain"
	"github.com/aretw0/coach/pkg/ports"
	"github.com/aretw0/coach/pkg/script"
)

// Engine is the core state machine runner.
type Engine struct {
	script  *script.Script
	backend ports.Backend
	logger  *slog.Logger
	hooks   domain.LifecycleHooks
	pacer   *Pacer
	now     func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithLifecycleHooks registers observability callbacks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithPacer replaces the default message pacing.
func WithPacer(p *Pacer) Option {
	return func(e *Engine) {
		if p != nil {
			e.pacer = p
		}
	}
}

// NewEngine creates an engine over a loaded script and a backend.
func NewEngine(s *script.Script, backend ports.Backend, opts ...Option) *Engine {
	e := &Engine{
		script:  s,
		backend: backend,
		logger:  logging.NewNop(),
		pacer:   DefaultPacer(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Script returns the script the engine runs.
func (e *Engine) Script() *script.Script {
	return e.script
}

// Current resolves the session's state. An empty StateID means the script start.
func (e *Engine) Current(session *domain.Session) (domain.StateDef, bool) {
	id := session.StateID
	if id == "" {
		id = e.script.Start()
	}
	return e.script.State(id)
}

// Start begins a conversation: it greets a returning visitor or enters the start state.
func (e *Engine) Start(ctx context.Context, session *domain.Session, r ports.Renderer) error {
	defer r.SetInputEnabled(true)

	greeted, err := e.greet(ctx, session, r)
	if err != nil || greeted {
		return err
	}

	session.StateID = e.script.Start()
	return e.enter(ctx, session, r, false)
}

// Enter renders the current state and runs its entry behaviors.
// A session without a resolvable state renders nothing.
func (e *Engine) Enter(ctx context.Context, session *domain.Session, r ports.Renderer) error {
	return e.enter(ctx, session, r, false)
}

// GoTo moves the session to id and enters it. It is the path for external
// triggers such as a card selection.
func (e *Engine) GoTo(ctx context.Context, session *domain.Session, r ports.Renderer, id string) error {
	if _, ok := e.script.State(id); !ok {
		return fmt.Errorf("go to %q: %w", id, domain.ErrUnknownState)
	}
	session.StateID = id
	session.AwaitingResume = false
	return e.enter(ctx, session, r, true)
}

// SelectCard records interest in a carousel card and follows the current
// state's selection target.
func (e *Engine) SelectCard(ctx context.Context, session *domain.Session, r ports.Renderer, card domain.Card) error {
	st, ok := e.Current(session)
	if !ok || st.Action.Kind != domain.ActionFetchCarousel || st.Action.OnSelect == "" {
		return fmt.Errorf("select card %q: %w", card.Name, domain.ErrNoSelection)
	}
	defer r.SetInputEnabled(true)

	session.Set(domain.FieldInterest, "carousel")
	e.logger.Debug("card selected", "session_id", session.ID, "state_id", st.ID, "card", card.Name)
	return e.GoTo(ctx, session, r, st.Action.OnSelect)
}

func (e *Engine) enter(ctx context.Context, session *domain.Session, r ports.Renderer, afterWidget bool) error {
	defer r.SetInputEnabled(true)

	st, ok := e.Current(session)
	if !ok {
		e.logger.Debug("no current state", "session_id", session.ID, "state_id", session.StateID)
		return nil
	}

	if e.hooks.OnStateEnter != nil {
		e.hooks.OnStateEnter(ctx, &domain.StateEvent{
			EventBase: domain.EventBase{Timestamp: e.now(), Type: domain.EventStateEnter, SessionID: session.ID},
			StateID:   st.ID,
			Action:    st.Action.Kind,
		})
	}
	e.logger.Debug("entering state", "session_id", session.ID, "state_id", st.ID)

	if len(st.MemoryWrite) > 0 {
		if err := e.writeMemory(ctx, session, st.MemoryWrite); err != nil {
			return err
		}
	}

	for i, msg := range st.Say {
		if err := e.pacer.Say(ctx, r, msg, afterWidget && i == 0); err != nil {
			return err
		}
	}

	r.ShowQuickReplies(st.QuickReplies)

	switch st.Action.Kind {
	case domain.ActionFetchCarousel:
		return e.showCarousel(ctx, session, r)
	case domain.ActionFetchRecommendation:
		return e.recommend(ctx, session, r)
	}
	return nil
}

// call runs one backend request, reporting its latency and outcome.
// A done context wins over the call's own result so late answers are never applied.
func (e *Engine) call(ctx context.Context, session *domain.Session, name string, fn func() error) (bool, error) {
	start := e.now()
	err := fn()
	elapsed := e.now().Sub(start)

	if e.hooks.OnBackendCall != nil {
		e.hooks.OnBackendCall(ctx, &domain.BackendEvent{
			EventBase: domain.EventBase{Timestamp: start, Type: domain.EventBackendCall, SessionID: session.ID},
			Call:      name,
			Duration:  elapsed,
			Err:       err,
		})
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		return false, ctxErr
	}
	if err != nil {
		e.logger.Debug("backend call failed", "session_id", session.ID, "call", name, "err", err)
		return false, nil
	}
	return true, nil
}
