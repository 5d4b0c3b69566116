package runtime_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/coach/internal/runtime"
	"github.com/aretw0/coach/pkg/render"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunkText(t *testing.T) {
	long := strings.Repeat("word ", 60)

	tests := []struct {
		name  string
		text  string
		max   int
		check func(t *testing.T, got []string)
	}{
		{"Short", "  hello there ", 220, func(t *testing.T, got []string) {
			assert.Equal(t, []string{"hello there"}, got)
		}},
		{"Empty", "   ", 220, func(t *testing.T, got []string) {
			assert.Empty(t, got)
		}},
		{"Word Boundary", "aaa bbb ccc", 7, func(t *testing.T, got []string) {
			assert.Equal(t, []string{"aaa bbb", "ccc"}, got)
		}},
		{"Hard Split", "abcdefghij", 4, func(t *testing.T, got []string) {
			assert.Equal(t, []string{"abcd", "efgh", "ij"}, got)
		}},
		{"Long Message", long, 220, func(t *testing.T, got []string) {
			require.Len(t, got, 2)
			for _, part := range got {
				assert.LessOrEqual(t, len(part), 220)
			}
			assert.Equal(t, strings.TrimSpace(long), strings.Join(got, " "))
		}},
		{"Multibyte", "ééé ééé", 3, func(t *testing.T, got []string) {
			assert.Equal(t, []string{"ééé", "ééé"}, got)
		}},
		{"Disabled", long, 0, func(t *testing.T, got []string) {
			assert.Len(t, got, 1)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, runtime.ChunkText(tt.text, tt.max))
		})
	}
}

func TestPacer_Delay(t *testing.T) {
	p := runtime.DefaultPacer()
	p.Rand = func() float64 { return 0.5 }

	assert.Equal(t, 600*time.Millisecond, p.Delay(false))
	assert.Equal(t, 900*time.Millisecond, p.Delay(true))

	p.Rand = nil
	for i := 0; i < 20; i++ {
		d := p.Delay(false)
		assert.GreaterOrEqual(t, d, 400*time.Millisecond)
		assert.Less(t, d, 800*time.Millisecond)
	}
}

func TestPacer_SayTogglesTyping(t *testing.T) {
	p := runtime.InstantPacer()
	p.ChunkSize = 5

	rec := render.NewRecorder()
	require.NoError(t, p.Say(context.Background(), rec, "hello world", false))

	var kinds []render.Kind
	for _, ev := range rec.Events() {
		kinds = append(kinds, ev.Kind)
	}
	assert.Equal(t, []render.Kind{
		render.KindTyping, render.KindTyping, render.KindAssistant,
		render.KindTyping, render.KindTyping, render.KindAssistant,
	}, kinds)
	assert.Equal(t, []string{"hello", "world"}, rec.Texts(render.KindAssistant))
}

func TestPacer_SayHonorsCancellation(t *testing.T) {
	p := &runtime.Pacer{ChunkSize: 220, Base: time.Hour}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	rec := render.NewRecorder()
	err := p.Say(ctx, rec, "never shown", false)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Empty(t, rec.Texts(render.KindAssistant))

	events := rec.Events()
	require.NotEmpty(t, events)
	assert.False(t, *events[len(events)-1].On, "typing indicator is cleared")
}
