package ports

import (
	"context"

	"github.com/aretw0/coach/pkg/domain"
)

// ScriptLoader defines how the engine retrieves the three script documents.
// This allows the source (directory, remote assets, Loam, memory) to be decoupled.
type ScriptLoader interface {
	// LoadFlow returns the conversation script.
	LoadFlow(ctx context.Context) (*domain.FlowDocument, error)

	// LoadOffRoute returns the ordered off-route triggers.
	LoadOffRoute(ctx context.Context) (*domain.OffRouteDocument, error)

	// LoadRules returns the recommendation rules, opaque to the engine.
	LoadRules(ctx context.Context) (domain.RecommendationRules, error)
}
