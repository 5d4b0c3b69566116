package loam

import (
	"context"
	"testing"

	"github.com/aretw0/coach/internal/testutils"
	"github.com/aretw0/coach/pkg/domain"
	"github.com/aretw0/coach/pkg/script"
	"github.com/aretw0/loam"
	"github.com/aretw0/loam/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var scriptFiles = map[string]string{
	"S1.md": `---
start: true
collect:
  goal: free
next: S2
memory_write: [goal]
---
Hi! I'm your coach.

What's your main goal?`,
	"S2.md": `---
quick_replies: ["Show me", "Later"]
next: S7
---
Great, got it.`,
	"S7.md": `---
action:
  kind: fetch_carousel
  on_select: S8.md
---
People like you did it.`,
	"S8.md": `---
action: fetch_recommendation
say: ["Let me put a plan together."]
---
This body is ignored.`,
	"offroute.md": `---
triggers:
  - id: pricing
    pattern: "price|cost"
  - pattern: "cancel"
    label: cancellation
---`,
	"recommendation_rules.md": `---
rules:
  plans: [Core, Plus]
---`,
}

func TestLoader_LoadsScript(t *testing.T) {
	loader, err := Open(testutils.WriteFiles(t, scriptFiles))
	require.NoError(t, err)

	s, err := script.Load(context.Background(), loader)
	require.NoError(t, err)

	assert.Equal(t, "S1", s.Start())

	st, ok := s.State("S1")
	require.True(t, ok)
	assert.Equal(t, domain.Messages{"Hi! I'm your coach.", "What's your main goal?"}, st.Say)
	assert.Equal(t, map[string]domain.CaptureMode{"goal": domain.CaptureFreeText}, st.Collect)
	assert.Equal(t, "S2", st.Next)
	assert.Equal(t, []string{"goal"}, st.MemoryWrite)

	st, _ = s.State("S2")
	assert.Equal(t, []string{"Show me", "Later"}, st.QuickReplies)

	st, _ = s.State("S7")
	assert.Equal(t, domain.Action{Kind: domain.ActionFetchCarousel, OnSelect: "S8"}, st.Action)

	st, _ = s.State("S8")
	assert.Equal(t, domain.ActionFetchRecommendation, st.Action.Kind)
	assert.Equal(t, domain.Messages{"Let me put a plan together."}, st.Say)
	assert.True(t, st.Terminal())

	triggers := s.Triggers()
	require.Len(t, triggers, 2)
	assert.Equal(t, "pricing", triggers[0].ID)
	assert.Equal(t, "cancellation", triggers[1].Name())

	assert.JSONEq(t, `{"plans":["Core","Plus"]}`, string(s.Rules()))
}

func TestLoader_SavedDocuments(t *testing.T) {
	_, repo := testutils.SetupTestRepo(t)
	ctx := context.Background()

	docs := []core.Document{
		{ID: "welcome.md", Content: "---\nstart: true\nnext: plan\n---\nHello there."},
		{ID: "plan.md", Content: "---\naction: fetch_recommendation\n---\nHere is your plan."},
		{ID: "offroute.md", Content: "---\ntriggers:\n  - id: human\n    pattern: agent\n---"},
		{ID: "recommendation_rules.md", Content: "---\nrules: {}\n---"},
	}
	for _, doc := range docs {
		require.NoError(t, repo.Save(ctx, doc))
	}

	loader := New(loam.NewTypedRepository[Metadata](repo))
	s, err := script.Load(ctx, loader)
	require.NoError(t, err)

	assert.Equal(t, "welcome", s.Start())
	st, ok := s.State("welcome")
	require.True(t, ok)
	assert.Equal(t, "plan", st.Next)
	assert.Equal(t, domain.Messages{"Hello there."}, st.Say)

	trigger, ok := s.Classify("can I talk to an agent?")
	require.True(t, ok)
	assert.Equal(t, "human", trigger.ID)
}

func TestLoader_Start(t *testing.T) {
	t.Run("MissingMarker", func(t *testing.T) {
		loader, err := Open(testutils.WriteFiles(t, map[string]string{"a.md": "---\nnext: b\n---\nA", "b.md": "---\nid: b\n---\nB"}))
		require.NoError(t, err)
		_, err = loader.LoadFlow(context.Background())
		assert.ErrorIs(t, err, ErrNoStart)
	})

	t.Run("ExplicitOption", func(t *testing.T) {
		loader, err := Open(testutils.WriteFiles(t, map[string]string{"a.md": "---\nnext: b\n---\nA", "b.md": "---\nid: b\n---\nB"}), WithStart("b"))
		require.NoError(t, err)
		flow, err := loader.LoadFlow(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "b", flow.Start)
		assert.Len(t, flow.States, 2)
	})

	t.Run("MultipleMarkers", func(t *testing.T) {
		loader, err := Open(testutils.WriteFiles(t, map[string]string{"a.md": "---\nstart: true\n---\nA", "b.md": "---\nstart: true\n---\nB"}))
		require.NoError(t, err)
		_, err = loader.LoadFlow(context.Background())
		assert.ErrorContains(t, err, "multiple start states: a, b")
	})
}

func TestLoader_DetectsCollisions(t *testing.T) {
	loader, err := Open(testutils.WriteFiles(t, map[string]string{
		"foo.md":   "---\nid: foo\nstart: true\n---\nExplicit ID",
		"foo.json": `{"id": "foo"}`,
	}))
	require.NoError(t, err)

	_, err = loader.LoadFlow(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "collision detected")
}

func TestLoader_InvalidAction(t *testing.T) {
	loader, err := Open(testutils.WriteFiles(t, map[string]string{"a.md": "---\nstart: true\naction: [1, 2]\n---\nA"}))
	require.NoError(t, err)

	_, err = loader.LoadFlow(context.Background())
	assert.ErrorContains(t, err, "invalid action type")
}

func TestDecodeAction(t *testing.T) {
	tests := []struct {
		name string
		raw  any
		want domain.Action
	}{
		{"nil", nil, domain.Action{}},
		{"kind", "fetch_recommendation", domain.Action{Kind: domain.ActionFetchRecommendation}},
		{"mapping", map[string]any{"kind": "fetch_carousel", "on_select": "S8"}, domain.Action{Kind: domain.ActionFetchCarousel, OnSelect: "S8"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := decodeAction(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
