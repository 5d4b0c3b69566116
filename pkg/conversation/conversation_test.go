package conversation_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/coach/internal/runtime"
	"github.com/aretw0/coach/pkg/adapters/memory"
	"github.com/aretw0/coach/pkg/conversation"
	"github.com/aretw0/coach/pkg/domain"
	"github.com/aretw0/coach/pkg/render"
	"github.com/aretw0/coach/pkg/script"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func flow() *domain.FlowDocument {
	return &domain.FlowDocument{
		Start: "S1",
		States: []domain.StateDef{
			{ID: "S1", Say: domain.Messages{"Hi! What's your goal?"}, Collect: map[string]domain.CaptureMode{"goal": "free"}, Next: "S2"},
			{ID: "S2", Say: domain.Messages{"Great, got it."}, QuickReplies: []string{"Continue"}, Next: "S7"},
			{ID: "S7", Say: domain.Messages{"Stories"}, Action: domain.Action{Kind: domain.ActionFetchCarousel, OnSelect: "S8"}},
			{ID: "S8", Say: domain.Messages{"Plan time."}},
		},
	}
}

func newEngine(t *testing.T, backend *memory.Backend) *runtime.Engine {
	t.Helper()
	s, err := script.New(flow(), &domain.OffRouteDocument{Triggers: []domain.Trigger{{ID: "pricing", Pattern: "price|cost"}}}, nil)
	require.NoError(t, err)
	return runtime.NewEngine(s, backend, runtime.WithPacer(runtime.InstantPacer()))
}

func fixedID(id string) conversation.Option {
	return conversation.WithIDGenerator(func() string { return id })
}

func inputToggles(rec *render.Recorder) []bool {
	var out []bool
	for _, ev := range rec.Events() {
		if ev.Kind == render.KindInput {
			out = append(out, *ev.On)
		}
	}
	return out
}

func TestOpen(t *testing.T) {
	rec := render.NewRecorder()
	c, err := conversation.Open(context.Background(), newEngine(t, memory.NewBackend()), rec, fixedID("abc"))
	require.NoError(t, err)
	defer c.Close()

	assert.Equal(t, "abc", c.ID())
	assert.Equal(t, "S1", c.Session().StateID)
	assert.Equal(t, []string{"Hi! What's your goal?"}, rec.Texts(render.KindAssistant))
	assert.Equal(t, []bool{false, true}, inputToggles(rec))
}

func TestOpen_GeneratesUUID(t *testing.T) {
	c, err := conversation.Open(context.Background(), newEngine(t, memory.NewBackend()), render.Nop{})
	require.NoError(t, err)
	defer c.Close()

	assert.Len(t, c.ID(), 36)
}

func TestSubmit(t *testing.T) {
	rec := render.NewRecorder()
	c, err := conversation.Open(context.Background(), newEngine(t, memory.NewBackend()), rec, fixedID("abc"))
	require.NoError(t, err)
	defer c.Close()
	rec.Drain()

	require.NoError(t, c.Submit(context.Background(), "  run faster  "))

	s := c.Session()
	assert.Equal(t, "run faster", s.Goal)
	assert.Equal(t, "S2", s.StateID)
	assert.Equal(t, []string{"run faster"}, rec.Texts(render.KindUser))
	assert.Equal(t, []string{"Continue"}, rec.LastReplies())
	assert.Equal(t, []bool{false, true}, inputToggles(rec), "toggles are coalesced to one per edge")
}

func TestSubmit_BlankIgnored(t *testing.T) {
	rec := render.NewRecorder()
	c, err := conversation.Open(context.Background(), newEngine(t, memory.NewBackend()), rec)
	require.NoError(t, err)
	defer c.Close()
	rec.Drain()

	require.NoError(t, c.Submit(context.Background(), "   "))
	assert.Empty(t, rec.Events())
	assert.Equal(t, "S1", c.Session().StateID)
}

func TestSubmit_Rejected(t *testing.T) {
	c, err := conversation.Open(context.Background(), newEngine(t, memory.NewBackend()), render.Nop{}, conversation.WithMaxInputSize(4))
	require.NoError(t, err)
	defer c.Close()

	assert.ErrorIs(t, c.Submit(context.Background(), "too long"), conversation.ErrInputTooLarge)
	assert.Empty(t, c.Session().Goal)
}

func TestChoose_SameAsTyping(t *testing.T) {
	typed := render.NewRecorder()
	chosen := render.NewRecorder()
	engine := newEngine(t, memory.NewBackend())

	a, err := conversation.Open(context.Background(), engine, typed, fixedID("x"))
	require.NoError(t, err)
	defer a.Close()
	b, err := conversation.Open(context.Background(), engine, chosen, fixedID("x"))
	require.NoError(t, err)
	defer b.Close()

	require.NoError(t, a.Submit(context.Background(), "Continue"))
	require.NoError(t, b.Choose(context.Background(), "Continue"))

	assert.Equal(t, typed.Events(), chosen.Events())
	assert.Equal(t, a.Session(), b.Session())
}

func TestSelectCardAt(t *testing.T) {
	backend := memory.NewBackend()
	backend.Cards = []domain.Card{{Name: "Ana"}, {Name: "Bo"}}
	c, err := conversation.Open(context.Background(), newEngine(t, backend), render.Nop{})
	require.NoError(t, err)
	defer c.Close()

	ctx := context.Background()
	require.NoError(t, c.Submit(ctx, "get fit"))
	require.NoError(t, c.Choose(ctx, "Continue"))
	require.Len(t, c.Session().Cards, 2)

	assert.ErrorIs(t, c.SelectCardAt(ctx, 5), domain.ErrNoSelection)

	require.NoError(t, c.SelectCardAt(ctx, 1))
	s := c.Session()
	assert.Equal(t, "S8", s.StateID)
	assert.Equal(t, "carousel", s.Interest)
}

func TestSubmit_SerializesTurns(t *testing.T) {
	backend := memory.NewBackend()
	c, err := conversation.Open(context.Background(), newEngine(t, backend), render.NewRecorder())
	require.NoError(t, err)
	defer c.Close()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, c.Submit(context.Background(), "what's the price"))
		}()
	}
	wg.Wait()

	assert.Equal(t, 10, c.Session().OffRouteCount)
	assert.Len(t, backend.MessageCalls(), 10)
}

func TestClose_DiscardsInFlightTurn(t *testing.T) {
	backend := memory.NewBackend()
	c, err := conversation.Open(context.Background(), newEngine(t, backend), render.Nop{})
	require.NoError(t, err)

	backend.Block = make(chan struct{})
	rec := render.NewRecorder()
	resumed := conversation.Resume(newEngine(t, backend), c.Session(), rec)
	c.Close()

	done := make(chan error, 1)
	go func() {
		done <- resumed.Submit(context.Background(), "how much does it cost")
	}()

	require.Eventually(t, func() bool {
		return len(rec.Texts(render.KindUser)) == 1
	}, time.Second, 5*time.Millisecond)

	resumed.Close()
	before := len(rec.Events())

	select {
	case err := <-done:
		assert.ErrorIs(t, err, domain.ErrConversationClosed)
	case <-time.After(time.Second):
		t.Fatal("turn did not return after Close")
	}

	assert.Equal(t, 0, resumed.Session().OffRouteCount, "late results never reach the session")
	assert.Equal(t, before, len(rec.Events()), "nothing is rendered after Close")
	assert.ErrorIs(t, resumed.Submit(context.Background(), "hello"), domain.ErrConversationClosed)

	<-resumed.Done()
}

func TestClose_Idempotent(t *testing.T) {
	c, err := conversation.Open(context.Background(), newEngine(t, memory.NewBackend()), render.Nop{})
	require.NoError(t, err)

	c.Close()
	c.Close()
	assert.True(t, errors.Is(c.SelectCardAt(context.Background(), 0), domain.ErrConversationClosed))
}

func TestOpen_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := conversation.Open(ctx, newEngine(t, memory.NewBackend()), render.Nop{})
	assert.ErrorIs(t, err, context.Canceled)
}
