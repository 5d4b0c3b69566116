// Package conversation coordinates the turns of one visitor's conversation.
//
// A Conversation owns a session and a renderer. It serializes turns, gates
// the input surface around each turn, sanitizes what the visitor types and
// guarantees that nothing reaches the session or the renderer after Close.
package conversation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/aretw0/coach/internal/logging"
	"github.com/aretw0/coach/internal/runtime"
	"github.com/aretw0/coach/pkg/domain"
	"github.com/aretw0/coach/pkg/ports"
	"github.com/google/uuid"
)

// Conversation is a live session bound to a renderer.
type Conversation struct {
	mu      sync.Mutex
	engine  *runtime.Engine
	session *domain.Session
	out     *gate

	ctx    context.Context
	cancel context.CancelFunc
	closed atomic.Bool

	logger   *slog.Logger
	newID    func() string
	maxInput int
}

// Option configures a Conversation.
type Option func(*Conversation)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Conversation) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithIDGenerator replaces the UUID v4 session id generator.
func WithIDGenerator(fn func() string) Option {
	return func(c *Conversation) {
		if fn != nil {
			c.newID = fn
		}
	}
}

// WithMaxInputSize caps the size of a single utterance, in bytes.
func WithMaxInputSize(n int) Option {
	return func(c *Conversation) {
		c.maxInput = n
	}
}

func newConversation(engine *runtime.Engine, r ports.Renderer, opts ...Option) *Conversation {
	ctx, cancel := context.WithCancel(context.Background())
	c := &Conversation{
		engine: engine,
		out:    newGate(r),
		ctx:    ctx,
		cancel: cancel,
		logger: logging.NewNop(),
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Open starts a new conversation: it assigns the session id, greets a
// returning visitor and enters the start state.
func Open(ctx context.Context, engine *runtime.Engine, r ports.Renderer, opts ...Option) (*Conversation, error) {
	c := newConversation(engine, r, opts...)
	c.session = domain.NewSession(c.newID())

	err := c.turn(ctx, func(ctx context.Context, s *domain.Session, r ports.Renderer) error {
		return c.engine.Start(ctx, s, r)
	})
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("open conversation: %w", err)
	}
	c.logger.Info("conversation opened", "session_id", c.session.ID)
	return c, nil
}

// Resume binds an existing session to a renderer without rendering anything.
func Resume(engine *runtime.Engine, session *domain.Session, r ports.Renderer, opts ...Option) *Conversation {
	c := newConversation(engine, r, opts...)
	c.session = session.Snapshot()
	return c
}

// ID returns the session id.
func (c *Conversation) ID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session.ID
}

// Session returns a copy of the current session.
func (c *Conversation) Session() *domain.Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session.Snapshot()
}

// Submit runs one turn for typed text. Blank input is ignored.
func (c *Conversation) Submit(ctx context.Context, text string) error {
	clean, err := utterance(text, c.maxInput)
	if err != nil {
		return err
	}
	if clean == "" {
		return nil
	}
	return c.turn(ctx, func(ctx context.Context, s *domain.Session, r ports.Renderer) error {
		return c.engine.HandleInput(ctx, s, r, clean)
	})
}

// Choose activates a quick reply. It is the same turn as typing the label.
func (c *Conversation) Choose(ctx context.Context, label string) error {
	return c.Submit(ctx, label)
}

// SelectCard follows the current carousel's selection target.
func (c *Conversation) SelectCard(ctx context.Context, card domain.Card) error {
	return c.turn(ctx, func(ctx context.Context, s *domain.Session, r ports.Renderer) error {
		return c.engine.SelectCard(ctx, s, r, card)
	})
}

// SelectCardAt selects the index-th card of the last carousel shown.
func (c *Conversation) SelectCardAt(ctx context.Context, index int) error {
	return c.turn(ctx, func(ctx context.Context, s *domain.Session, r ports.Renderer) error {
		if index < 0 || index >= len(s.Cards) {
			return fmt.Errorf("card %d of %d: %w", index, len(s.Cards), domain.ErrNoSelection)
		}
		return c.engine.SelectCard(ctx, s, r, s.Cards[index])
	})
}

// Close tears the conversation down. An in-flight turn is cancelled and its
// results are discarded. Close is idempotent.
func (c *Conversation) Close() {
	if c.closed.Swap(true) {
		return
	}
	c.out.close()
	c.cancel()
	c.logger.Debug("conversation closed")
}

// Done is closed once the conversation is closed.
func (c *Conversation) Done() <-chan struct{} {
	return c.ctx.Done()
}

type turnFunc func(ctx context.Context, s *domain.Session, r ports.Renderer) error

// turn runs fn on a working copy of the session and commits it only if the
// turn succeeded and the conversation is still open.
func (c *Conversation) turn(ctx context.Context, fn turnFunc) error {
	if c.closed.Load() {
		return domain.ErrConversationClosed
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed.Load() {
		return domain.ErrConversationClosed
	}

	tctx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(c.ctx, cancel)
	defer stop()

	c.out.SetInputEnabled(false)
	defer c.out.SetInputEnabled(true)

	working := c.session.Snapshot()
	err := fn(tctx, working, c.out)

	if c.closed.Load() {
		return domain.ErrConversationClosed
	}
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			c.logger.Debug("turn aborted", "session_id", working.ID, "err", err)
		}
		return err
	}

	c.session = working
	return nil
}
