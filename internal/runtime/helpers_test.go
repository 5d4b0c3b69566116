package runtime_test

import (
	"testing"

	"github.com/aretw0/coach/internal/runtime"
	"github.com/aretw0/coach/pkg/adapters/memory"
	"github.com/aretw0/coach/pkg/domain"
	"github.com/aretw0/coach/pkg/script"
	"github.com/stretchr/testify/require"
)

// qualificationFlow is the eight-state sales qualification script used across tests.
func qualificationFlow() *domain.FlowDocument {
	return &domain.FlowDocument{
		Start: "S1",
		States: []domain.StateDef{
			{ID: "S1", Say: domain.Messages{"Hi! What's your goal?"}, Collect: map[string]domain.CaptureMode{"goal": "free"}, Next: "S2"},
			{ID: "S2", Say: domain.Messages{"How old are you?"}, QuickReplies: []string{"18-29", "30-44", "45+"}, Collect: map[string]domain.CaptureMode{"profile.age": "free"}, Next: "S3"},
			{ID: "S3", Say: domain.Messages{"Why now?"}, Collect: map[string]domain.CaptureMode{"whyNow": "free"}, Next: "S4", MemoryWrite: []string{"goal", "profile"}},
			{ID: "S4", Say: domain.Messages{"Describe your habits."}, Collect: map[string]domain.CaptureMode{"habits.summary": "free"}, Next: "S7"},
			{ID: "S7", Say: domain.Messages{"Here are people like you."}, Action: domain.Action{Kind: domain.ActionFetchCarousel, OnSelect: "S8"}},
			{ID: "S8", Say: domain.Messages{"Let me build your plan."}, Action: domain.Action{Kind: domain.ActionFetchRecommendation}},
		},
	}
}

func pricingTrigger() domain.Trigger {
	return domain.Trigger{ID: "pricing", Pattern: "price|cost"}
}

func newEngine(t *testing.T, flow *domain.FlowDocument, backend *memory.Backend, opts ...runtime.Option) *runtime.Engine {
	t.Helper()
	s, err := script.New(flow, &domain.OffRouteDocument{Triggers: []domain.Trigger{pricingTrigger()}}, nil)
	require.NoError(t, err)
	opts = append([]runtime.Option{runtime.WithPacer(runtime.InstantPacer())}, opts...)
	return runtime.NewEngine(s, backend, opts...)
}
