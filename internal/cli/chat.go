package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/aretw0/coach"
	"github.com/aretw0/coach/internal/config"
	"github.com/aretw0/coach/internal/presentation/tui"
	"github.com/aretw0/coach/pkg/adapters/file"
	"github.com/aretw0/coach/pkg/conversation"
	"github.com/aretw0/coach/pkg/domain"
	"github.com/aretw0/coach/pkg/ports"
	"github.com/aretw0/coach/pkg/runner"
)

// ChatOptions configures the terminal host.
type ChatOptions struct {
	// SessionID, when set, persists the session to the file store and resumes it on the next run.
	SessionID string
	// Fresh discards the saved session before starting.
	Fresh bool
	Quiet bool
	Debug bool

	In  io.Reader
	Out io.Writer
}

// RunChat runs one conversation in the terminal until EOF, /quit or a signal.
func RunChat(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts ChatOptions) error {
	if opts.In == nil {
		opts.In = os.Stdin
	}
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if !opts.Quiet {
		tui.PrintBanner(opts.Out)
	}

	chat := runner.NewChat(opts.In, opts.Out)
	view := chat.Observe(tui.NewRenderer(opts.Out))

	var hooks domain.LifecycleHooks
	if opts.Debug {
		hooks = DebugHooks(logger)
	}
	c, err := NewCoach(ctx, cfg, logger, hooks)
	if err != nil {
		view.ShowSystemNotice(coach.InitFailedNotice)
		return err
	}

	var store ports.SessionStore
	if opts.SessionID != "" {
		if store, err = ProtectStore(cfg, file.NewStore(cfg.StoreDir)); err != nil {
			return err
		}
		if opts.Fresh {
			if err := store.Delete(ctx, opts.SessionID); err != nil {
				return fmt.Errorf("failed to reset session: %w", err)
			}
		}
	}

	conv, err := openOrResume(ctx, c, store, opts, view, logger, conversation.WithMaxInputSize(cfg.MaxInputSize))
	if err != nil {
		return err
	}
	defer conv.Close()

	runErr := chat.Run(ctx, conv)

	if store != nil {
		if err := store.Save(context.WithoutCancel(ctx), conv.Session()); err != nil {
			logger.Error("Failed to save session", "session_id", opts.SessionID, "err", err)
		} else if !opts.Quiet {
			fmt.Fprintln(opts.Out)
			printSystemMessage(opts.Out, "Session '%s' saved.", opts.SessionID)
		}
	}

	if isInterrupted(runErr) {
		return nil
	}
	return runErr
}

func openOrResume(ctx context.Context, c *coach.Coach, store ports.SessionStore, opts ChatOptions, view ports.Renderer, logger *slog.Logger, extra ...conversation.Option) (*conversation.Conversation, error) {
	convOpts := append([]conversation.Option{conversation.WithLogger(logger)}, extra...)
	if store == nil {
		return c.Open(ctx, view, convOpts...)
	}

	saved, err := store.Load(ctx, opts.SessionID)
	switch {
	case errors.Is(err, domain.ErrSessionNotFound):
		convOpts = append(convOpts, conversation.WithIDGenerator(func() string { return opts.SessionID }))
		return c.Open(ctx, view, convOpts...)
	case err != nil:
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	conv := conversation.Resume(c.Engine(), saved, view, convOpts...)
	logger.Info("Session Resumed", "session_id", saved.ID, "state_id", saved.StateID)
	if st, ok := c.Engine().Current(saved); ok {
		if !opts.Quiet {
			printSystemMessage(opts.Out, "Resuming at '%s'.", st.ID)
		}
		view.ShowQuickReplies(st.QuickReplies)
	}
	view.SetInputEnabled(true)
	return conv, nil
}
