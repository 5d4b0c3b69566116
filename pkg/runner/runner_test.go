package runner_test

import (
	"testing"

	"github.com/aretw0/coach/internal/runtime"
	"github.com/aretw0/coach/pkg/adapters/memory"
	"github.com/aretw0/coach/pkg/domain"
	"github.com/aretw0/coach/pkg/script"
	"github.com/stretchr/testify/require"
)

func newEngine(t *testing.T, backend *memory.Backend) *runtime.Engine {
	t.Helper()
	flow := &domain.FlowDocument{
		Start: "S1",
		States: []domain.StateDef{
			{ID: "S1", Say: domain.Messages{"What's your goal?"}, Collect: map[string]domain.CaptureMode{"goal": "free"}, Next: "S2"},
			{ID: "S2", Say: domain.Messages{"Ready?"}, QuickReplies: []string{"Show me", "Later"}, Next: "S7"},
			{ID: "S7", Say: domain.Messages{"Stories"}, Action: domain.Action{Kind: domain.ActionFetchCarousel, OnSelect: "S8"}},
			{ID: "S8", Say: domain.Messages{"Your plan."}},
		},
	}
	s, err := script.New(flow, &domain.OffRouteDocument{Triggers: []domain.Trigger{{ID: "pricing", Pattern: "price|cost"}}}, nil)
	require.NoError(t, err)
	return runtime.NewEngine(s, backend, runtime.WithPacer(runtime.InstantPacer()))
}
