package cli

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/aretw0/coach"
	"github.com/aretw0/coach/internal/config"
	"github.com/aretw0/coach/pkg/adapters/file"
	httpAdapter "github.com/aretw0/coach/pkg/adapters/http"
	loamAdapter "github.com/aretw0/coach/pkg/adapters/loam"
	"github.com/aretw0/coach/pkg/adapters/memory"
	redisAdapter "github.com/aretw0/coach/pkg/adapters/redis"
	"github.com/aretw0/coach/pkg/domain"
	"github.com/aretw0/coach/pkg/persistence/middleware"
	"github.com/aretw0/coach/pkg/ports"
	"github.com/aretw0/coach/pkg/session"
)

// NewLoader picks the script source described by cfg.
// An empty script uses the bundled one.
func NewLoader(cfg *config.Config) (ports.ScriptLoader, error) {
	if cfg.Script == "" {
		return coach.DefaultScript(), nil
	}
	switch source := cfg.ResolveSource(); source {
	case config.SourceHTTP:
		return httpAdapter.NewLoader(cfg.Script, &http.Client{Timeout: cfg.BackendTimeout}), nil
	case config.SourceFile:
		return file.NewLoader(cfg.Script), nil
	case config.SourceLoam:
		var opts []loamAdapter.Option
		if cfg.StartState != "" {
			opts = append(opts, loamAdapter.WithStart(cfg.StartState))
		}
		loader, err := loamAdapter.Open(cfg.Script, opts...)
		if err != nil {
			return nil, err
		}
		return loader, nil
	default:
		return nil, fmt.Errorf("unknown script source %q", source)
	}
}

// NewBackend returns the HTTP backend client, or the offline demo backend when no API base is set.
func NewBackend(cfg *config.Config, logger *slog.Logger) ports.Backend {
	if cfg.APIBase == "" {
		logger.Info("No API base configured, using the offline backend")
		return memory.NewDemoBackend()
	}
	return httpAdapter.NewClient(cfg.APIBase,
		httpAdapter.WithTimeout(cfg.BackendTimeout),
		httpAdapter.WithClientLogger(logger),
	)
}

// NewSessions builds the session manager for request/response hosts.
// The returned close function releases the store's connections.
func NewSessions(cfg *config.Config, logger *slog.Logger) (*session.Manager, func() error, error) {
	noop := func() error { return nil }
	switch cfg.Store {
	case config.StoreMemory:
		return session.NewManager(memory.NewStore(), session.WithLogger(logger)), noop, nil
	case config.StoreFile:
		store, err := ProtectStore(cfg, file.NewStore(cfg.StoreDir))
		if err != nil {
			return nil, nil, err
		}
		return session.NewManager(store, session.WithLogger(logger)), noop, nil
	case config.StoreRedis:
		store := redisAdapter.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, redisAdapter.WithTTL(cfg.SessionTTL))
		if err := store.Client().Ping(context.Background()).Err(); err != nil {
			_ = store.Close()
			return nil, nil, fmt.Errorf("redis at %s: %w", cfg.RedisAddr, err)
		}
		protected, err := ProtectStore(cfg, store)
		if err != nil {
			_ = store.Close()
			return nil, nil, err
		}
		mgr := session.NewManager(protected,
			session.WithLocker(redisAdapter.NewLocker(store.Client(), "coach:lock:")),
			session.WithLogger(logger),
		)
		return mgr, store.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown session store %q", cfg.Store)
	}
}

// ProtectStore wraps a durable store with PII masking and encryption when configured.
// Masking runs first so masked values are what gets encrypted.
func ProtectStore(cfg *config.Config, store ports.SessionStore) (ports.SessionStore, error) {
	var mws []middleware.Middleware
	if len(cfg.PIIKeys) > 0 {
		pii, err := middleware.NewPIIMiddleware(cfg.PIIKeys)
		if err != nil {
			return nil, fmt.Errorf("COACH_PII_KEYS: %w", err)
		}
		mws = append(mws, pii)
	}
	active, fallback, err := cfg.StoreKeys()
	if err != nil {
		return nil, err
	}
	if active != nil {
		enc, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: active, FallbackKeys: fallback})
		if err != nil {
			return nil, err
		}
		mws = append(mws, enc)
	}
	return middleware.Chain(store, mws...), nil
}

// NewCoach loads the script and builds the engine with the configured pacing.
func NewCoach(ctx context.Context, cfg *config.Config, logger *slog.Logger, hooks domain.LifecycleHooks) (*coach.Coach, error) {
	loader, err := NewLoader(cfg)
	if err != nil {
		return nil, fmt.Errorf("error initializing script source: %w", err)
	}
	return coach.New(ctx, loader, NewBackend(cfg, logger),
		coach.WithLogger(logger),
		coach.WithLifecycleHooks(hooks),
		coach.WithPacer(cfg.Pacer()),
	)
}

// DebugHooks logs every engine event at debug level.
func DebugHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnStateEnter: func(ctx context.Context, e *domain.StateEvent) {
			logger.Debug("Enter State", "session_id", e.SessionID, "state_id", e.StateID, "action", e.Action)
		},
		OnOffRoute: func(ctx context.Context, e *domain.OffRouteEvent) {
			logger.Debug("Off Route", "session_id", e.SessionID, "state_id", e.StateID, "trigger", e.Trigger, "count", e.Count)
		},
		OnBackendCall: func(ctx context.Context, e *domain.BackendEvent) {
			if e.Err != nil {
				logger.Debug("Backend Call (Error)", "session_id", e.SessionID, "call", e.Call, "duration", e.Duration, "err", e.Err)
			} else {
				logger.Debug("Backend Call (Success)", "session_id", e.SessionID, "call", e.Call, "duration", e.Duration)
			}
		},
	}
}
