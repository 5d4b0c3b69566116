package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/aretw0/coach/internal/config"
	"github.com/aretw0/coach/internal/presentation/graph"
	"github.com/aretw0/coach/internal/validator"
	loamAdapter "github.com/aretw0/coach/pkg/adapters/loam"
	"github.com/aretw0/coach/pkg/ports"
	"github.com/aretw0/coach/pkg/script"
)

// ValidateOptions configures the validate command.
type ValidateOptions struct {
	Graph bool
	// Watch re-validates on every change. Only Loam script directories can be watched.
	Watch bool
	Out   io.Writer
}

// RunValidate lints the configured script and optionally prints its Mermaid graph.
func RunValidate(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts ValidateOptions) error {
	loader, err := NewLoader(cfg)
	if err != nil {
		return err
	}

	err = validateOnce(ctx, loader, opts)
	if !opts.Watch {
		return err
	}
	if err != nil {
		fmt.Fprintf(opts.Out, "Validation failed: %v\n", err)
	}

	watchable, ok := loader.(*loamAdapter.Loader)
	if !ok {
		return fmt.Errorf("--watch needs a loam script directory")
	}
	changes, err := watchable.Watch(ctx)
	if err != nil {
		return err
	}
	printSystemMessage(opts.Out, "Watching '%s' for changes.", cfg.Script)
	for {
		select {
		case <-ctx.Done():
			return nil
		case id, ok := <-changes:
			if !ok {
				return nil
			}
			logger.Info("Script changed", "document", id)
			if err := validateOnce(ctx, loader, opts); err != nil {
				fmt.Fprintf(opts.Out, "Validation failed: %v\n", err)
			}
		}
	}
}

func validateOnce(ctx context.Context, loader ports.ScriptLoader, opts ValidateOptions) error {
	flow, err := loader.LoadFlow(ctx)
	if err != nil {
		return fmt.Errorf("failed to load flow: %w", err)
	}

	report := validator.ValidateFlow(flow)
	for _, w := range report.Warnings {
		fmt.Fprintf(opts.Out, "warning: %s\n", w)
	}
	if err := report.Err(); err != nil {
		return err
	}

	// Full load also checks triggers, action kinds and the rules document.
	if _, err := script.Load(ctx, loader); err != nil {
		return err
	}

	if opts.Graph {
		fmt.Fprint(opts.Out, graph.GenerateMermaid(flow, nil))
	}
	fmt.Fprintf(opts.Out, "Script is valid! %d states reachable, %d terminal.\n", len(report.Reachable), len(report.Terminals))
	return nil
}
