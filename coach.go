package coach

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/aretw0/coach/internal/logging"
	"github.com/aretw0/coach/internal/runtime"
	"github.com/aretw0/coach/pkg/adapters/file"
	"github.com/aretw0/coach/pkg/conversation"
	"github.com/aretw0/coach/pkg/domain"
	"github.com/aretw0/coach/pkg/ports"
	"github.com/aretw0/coach/pkg/runner"
	"github.com/aretw0/coach/pkg/script"
	"github.com/aretw0/coach/pkg/session"
)

// InitFailedNotice is the single notice a host shows when the script cannot be loaded.
const InitFailedNotice = "Widget failed to initialize."

//go:embed scripts/default/*.yaml
var defaultScript embed.FS

// DefaultScript returns a loader for the bundled qualification script.
func DefaultScript() ports.ScriptLoader {
	sub, err := fs.Sub(defaultScript, "scripts/default")
	if err != nil {
		panic(err)
	}
	return file.NewFSLoader(sub)
}

// Coach is the high-level entry point of the library.
// It owns a loaded script and the engine running it against a backend.
type Coach struct {
	engine  *runtime.Engine
	script  *script.Script
	backend ports.Backend
	hooks   domain.LifecycleHooks
	pacer   *runtime.Pacer
	logger  *slog.Logger
}

// Option defines a functional option for configuring a Coach.
type Option func(*Coach)

// WithLogger sets the structured logger shared by the engine and conversations.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Coach) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(c *Coach) {
		c.hooks = hooks
	}
}

// WithPacer replaces the typing simulation. Use runtime.InstantPacer in tests.
func WithPacer(p *runtime.Pacer) Option {
	return func(c *Coach) {
		c.pacer = p
	}
}

// New loads the script from loader and builds the engine.
// A failed load is returned as a *domain.ScriptLoadError.
func New(ctx context.Context, loader ports.ScriptLoader, backend ports.Backend, opts ...Option) (*Coach, error) {
	c := &Coach{
		backend: backend,
		pacer:   runtime.DefaultPacer(),
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}

	sc, err := script.Load(ctx, loader)
	if err != nil {
		c.logger.Error("script load failed", "err", err)
		return nil, err
	}
	c.script = sc
	c.engine = runtime.NewEngine(sc, backend,
		runtime.WithLogger(c.logger),
		runtime.WithLifecycleHooks(c.hooks),
		runtime.WithPacer(c.pacer),
	)
	return c, nil
}

// Mount is New followed by Open. When the script cannot be loaded the
// renderer receives InitFailedNotice and no conversation begins.
func Mount(ctx context.Context, loader ports.ScriptLoader, backend ports.Backend, r ports.Renderer, opts ...Option) (*Coach, *conversation.Conversation, error) {
	c, err := New(ctx, loader, backend, opts...)
	if err != nil {
		r.ShowSystemNotice(InitFailedNotice)
		return nil, nil, err
	}
	conv, err := c.Open(ctx, r)
	if err != nil {
		return nil, nil, err
	}
	return c, conv, nil
}

// Open starts a conversation rendered on r.
func (c *Coach) Open(ctx context.Context, r ports.Renderer, opts ...conversation.Option) (*conversation.Conversation, error) {
	opts = append([]conversation.Option{conversation.WithLogger(c.logger)}, opts...)
	conv, err := conversation.Open(ctx, c.engine, r, opts...)
	if err != nil {
		return nil, fmt.Errorf("coach: %w", err)
	}
	return conv, nil
}

// Service builds a per-request turn service over a session store, for HTTP and MCP hosts.
func (c *Coach) Service(sessions *session.Manager, opts ...runner.Option) *runner.Service {
	opts = append([]runner.Option{runner.WithLogger(c.logger)}, opts...)
	return runner.NewService(c.engine, sessions, opts...)
}

// Script returns the loaded script.
func (c *Coach) Script() *script.Script {
	return c.script
}

// Engine returns the dialogue engine.
func (c *Coach) Engine() *runtime.Engine {
	return c.engine
}
