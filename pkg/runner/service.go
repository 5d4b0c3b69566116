package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/coach/internal/logging"
	"github.com/aretw0/coach/internal/runtime"
	"github.com/aretw0/coach/pkg/conversation"
	"github.com/aretw0/coach/pkg/domain"
	"github.com/aretw0/coach/pkg/render"
	"github.com/aretw0/coach/pkg/session"
	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

// Turn is the outcome of one call on the Service.
type Turn struct {
	Session *domain.Session     `json:"session,omitempty"`
	Events  []render.Event      `json:"events"`
	Diff    *domain.SessionDiff `json:"diff,omitempty"`
	Ended   bool                `json:"ended,omitempty"`
}

// Observer receives every completed turn, e.g. to stream it to subscribers.
type Observer func(ctx context.Context, sessionID string, turn *Turn)

// Service runs turns for many sessions kept in a session store.
type Service struct {
	engine   *runtime.Engine
	sessions *session.Manager
	observer Observer
	logger   *slog.Logger
	newID    func() string
	convOpts []conversation.Option

	limit     rate.Limit
	burst     int
	limitMu   sync.Mutex
	limiters  map[string]*rate.Limiter
	lastSweep time.Time
	now       func() time.Time
}

// limiterSweepInterval is how often idle per-session limiters are dropped.
const limiterSweepInterval = time.Minute

// Option configures a Service.
type Option func(*Service)

// WithObserver publishes every turn to fn.
func WithObserver(fn Observer) Option {
	return func(s *Service) {
		s.observer = fn
	}
}

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithIDGenerator replaces the UUID v4 session id generator.
func WithIDGenerator(fn func() string) Option {
	return func(s *Service) {
		if fn != nil {
			s.newID = fn
		}
	}
}

// WithRateLimit caps how fast a single session may submit input.
func WithRateLimit(limit rate.Limit, burst int) Option {
	return func(s *Service) {
		s.limit = limit
		s.burst = burst
	}
}

// WithConversationOptions forwards options to every conversation the service drives.
func WithConversationOptions(opts ...conversation.Option) Option {
	return func(s *Service) {
		s.convOpts = append(s.convOpts, opts...)
	}
}

// NewService creates a Service over an engine and a session manager.
func NewService(engine *runtime.Engine, sessions *session.Manager, opts ...Option) *Service {
	s := &Service{
		engine:   engine,
		sessions: sessions,
		logger:   logging.NewNop(),
		newID:    uuid.NewString,
		limit:    rate.Inf,
		limiters: make(map[string]*rate.Limiter),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start opens a new session and returns its opening turn.
func (s *Service) Start(ctx context.Context) (*Turn, error) {
	id := s.newID()
	rec := render.NewRecorder()

	var turn *Turn
	err := s.sessions.WithLock(ctx, id, func(ctx context.Context) error {
		opts := append([]conversation.Option{conversation.WithIDGenerator(func() string { return id })}, s.convOpts...)
		conv, err := conversation.Open(ctx, s.engine, rec, opts...)
		if err != nil {
			return err
		}
		defer conv.Close()

		after := conv.Session()
		if err := s.sessions.Store().Save(ctx, after); err != nil {
			return fmt.Errorf("failed to save session: %w", err)
		}
		turn = &Turn{Session: after, Events: rec.Events(), Diff: domain.Diff(nil, after)}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("session started", "session_id", id)
	s.publish(ctx, id, turn)
	return turn, nil
}

// Input submits visitor text to a session.
func (s *Service) Input(ctx context.Context, sessionID, text string) (*Turn, error) {
	if !s.allow(sessionID) {
		return nil, fmt.Errorf("session %s: %w", sessionID, domain.ErrRateLimited)
	}
	return s.run(ctx, sessionID, func(ctx context.Context, conv *conversation.Conversation) error {
		return conv.Submit(ctx, text)
	})
}

// SelectCard selects the index-th card of the session's last carousel.
func (s *Service) SelectCard(ctx context.Context, sessionID string, index int) (*Turn, error) {
	return s.run(ctx, sessionID, func(ctx context.Context, conv *conversation.Conversation) error {
		return conv.SelectCardAt(ctx, index)
	})
}

// End removes a session.
func (s *Service) End(ctx context.Context, sessionID string) error {
	err := s.sessions.WithLock(ctx, sessionID, func(ctx context.Context) error {
		if _, err := s.sessions.Store().Load(ctx, sessionID); err != nil {
			return err
		}
		return s.sessions.Store().Delete(ctx, sessionID)
	})
	if err != nil {
		return err
	}

	s.limitMu.Lock()
	delete(s.limiters, sessionID)
	s.limitMu.Unlock()

	s.logger.Info("session ended", "session_id", sessionID)
	s.publish(ctx, sessionID, &Turn{Ended: true})
	return nil
}

// Get returns the stored session.
func (s *Service) Get(ctx context.Context, sessionID string) (*domain.Session, error) {
	return s.sessions.Load(ctx, sessionID)
}

func (s *Service) run(ctx context.Context, sessionID string, fn func(context.Context, *conversation.Conversation) error) (*Turn, error) {
	rec := render.NewRecorder()

	var turn *Turn
	err := s.sessions.WithLock(ctx, sessionID, func(ctx context.Context) error {
		before, err := s.sessions.Store().Load(ctx, sessionID)
		if err != nil {
			return err
		}

		conv := conversation.Resume(s.engine, before, rec, s.convOpts...)
		defer conv.Close()

		if err := fn(ctx, conv); err != nil {
			return err
		}

		after := conv.Session()
		if err := s.sessions.Store().Save(ctx, after); err != nil {
			return fmt.Errorf("failed to save session: %w", err)
		}
		turn = &Turn{Session: after, Events: rec.Events(), Diff: domain.Diff(before, after)}
		return nil
	})
	if err != nil {
		if !errors.Is(err, domain.ErrSessionNotFound) {
			s.logger.Debug("turn failed", "session_id", sessionID, "err", err)
		}
		return nil, err
	}

	s.publish(ctx, sessionID, turn)
	return turn, nil
}

func (s *Service) allow(sessionID string) bool {
	if s.limit == rate.Inf {
		return true
	}
	now := s.now()
	s.limitMu.Lock()
	defer s.limitMu.Unlock()

	if now.Sub(s.lastSweep) >= limiterSweepInterval {
		s.sweepLimiters(now)
	}
	l, ok := s.limiters[sessionID]
	if !ok {
		l = rate.NewLimiter(s.limit, s.burst)
		s.limiters[sessionID] = l
	}
	return l.AllowN(now, 1)
}

// sweepLimiters drops limiters whose bucket has refilled. A full bucket
// behaves like a new limiter, so sessions abandoned without End are
// forgotten without loosening the limit. limitMu must be held.
func (s *Service) sweepLimiters(now time.Time) {
	s.lastSweep = now
	for id, l := range s.limiters {
		if l.TokensAt(now) >= float64(s.burst) {
			delete(s.limiters, id)
		}
	}
}

func (s *Service) publish(ctx context.Context, sessionID string, turn *Turn) {
	if s.observer != nil {
		s.observer(ctx, sessionID, turn)
	}
}
