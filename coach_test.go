package coach_test

import (
	"context"
	"fmt"
	"log"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/aretw0/coach"
	"github.com/aretw0/coach/internal/runtime"
	"github.com/aretw0/coach/pkg/adapters/file"
	"github.com/aretw0/coach/pkg/adapters/memory"
	"github.com/aretw0/coach/pkg/domain"
	"github.com/aretw0/coach/pkg/render"
	"github.com/aretw0/coach/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func instant() coach.Option {
	return coach.WithPacer(runtime.InstantPacer())
}

func TestDefaultScript(t *testing.T) {
	c, err := coach.New(context.Background(), coach.DefaultScript(), memory.NewDemoBackend(), instant())
	require.NoError(t, err)

	sc := c.Script()
	assert.Equal(t, "S0", sc.Start())
	assert.Len(t, sc.States(), 7)

	trigger, ok := sc.Classify("How much does it COST?")
	require.True(t, ok)
	assert.Equal(t, "pricing", trigger.ID)

	_, ok = sc.Classify("I want to get stronger")
	assert.False(t, ok)
	assert.Contains(t, string(sc.Rules()), "momentum")
}

func TestMount_Walkthrough(t *testing.T) {
	ctx := context.Background()
	rec := render.NewRecorder()

	c, conv, err := coach.Mount(ctx, coach.DefaultScript(), memory.NewDemoBackend(), rec, instant())
	require.NoError(t, err)
	defer conv.Close()
	require.NotNil(t, c)

	assert.Equal(t, []string{"Let's go"}, rec.LastReplies())

	require.NoError(t, conv.Choose(ctx, "Let's go"))
	require.NoError(t, conv.Submit(ctx, "get strong"))
	require.NoError(t, conv.Choose(ctx, "30-44"))
	require.NoError(t, conv.Submit(ctx, "I walk the dog and skip breakfast"))
	require.NoError(t, conv.Submit(ctx, "My sister's wedding"))

	s := conv.Session()
	assert.Equal(t, "S7", s.StateID)
	assert.Equal(t, "get strong", s.Goal)
	assert.Equal(t, "30-44", s.Profile["age"])
	assert.Equal(t, "I walk the dog and skip breakfast", s.Habits["summary"])
	assert.Equal(t, "My sister's wedding", s.WhyNow)
	require.Len(t, s.Cards, 3)

	require.NoError(t, conv.SelectCardAt(ctx, 0))
	s = conv.Session()
	assert.Equal(t, "S8", s.StateID)
	assert.Equal(t, "carousel", s.Interest)

	var planned bool
	for _, text := range rec.Texts(render.KindAssistant) {
		if strings.Contains(text, "Momentum") {
			planned = true
		}
	}
	assert.True(t, planned, "the recommendation is presented")
}

func TestMount_ScriptLoadFailure(t *testing.T) {
	rec := render.NewRecorder()
	loader := file.NewFSLoader(fstest.MapFS{})

	c, conv, err := coach.Mount(context.Background(), loader, memory.NewDemoBackend(), rec, instant())
	assert.Nil(t, c)
	assert.Nil(t, conv)

	var loadErr *domain.ScriptLoadError
	require.ErrorAs(t, err, &loadErr)
	assert.Equal(t, []string{coach.InitFailedNotice}, rec.Texts(render.KindNotice))
	assert.Empty(t, rec.Texts(render.KindAssistant))
}

func TestCoach_Service(t *testing.T) {
	ctx := context.Background()
	c, err := coach.New(ctx, coach.DefaultScript(), memory.NewDemoBackend(), instant())
	require.NoError(t, err)

	svc := c.Service(session.NewManager(memory.NewStore()))
	turn, err := svc.Start(ctx)
	require.NoError(t, err)
	assert.Equal(t, "S0", turn.Session.StateID)

	turn, err = svc.Input(ctx, turn.Session.ID, "Let's go")
	require.NoError(t, err)
	assert.Equal(t, "S1", turn.Session.StateID)
}

func TestVersion(t *testing.T) {
	assert.NotEmpty(t, coach.Version)
	assert.NotContains(t, coach.Version, "\n")
}

// ExampleNew loads the bundled script with the offline backend.
func ExampleNew() {
	c, err := coach.New(context.Background(), coach.DefaultScript(), memory.NewDemoBackend())
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("start: %s\n", c.Script().Start())
	fmt.Printf("states: %d\n", len(c.Script().States()))
	// Output:
	// start: S0
	// states: 7
}
