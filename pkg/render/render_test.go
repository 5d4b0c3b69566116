package render_test

import (
	"testing"

	"github.com/aretw0/coach/pkg/domain"
	"github.com/aretw0/coach/pkg/render"
	"github.com/stretchr/testify/assert"
)

func TestRecorder_ReplayThroughMulti(t *testing.T) {
	src := render.NewRecorder()
	src.ShowUserMessage("hi")
	src.SetTypingIndicator(true)
	src.ShowAssistantMessage("hello")
	src.SetTypingIndicator(false)
	src.ShowQuickReplies([]string{"A", "B"})
	src.ShowCards([]domain.Card{{Name: "Ana"}})
	src.ShowSystemNotice("careful")
	src.SetInputEnabled(true)

	a, b := render.NewRecorder(), render.NewRecorder()
	fan := render.Multi{a, b}
	for _, ev := range src.Events() {
		ev.Apply(fan)
	}

	assert.Equal(t, src.Events(), a.Events())
	assert.Equal(t, src.Events(), b.Events())
	assert.Equal(t, []string{"hello"}, a.Texts(render.KindAssistant))
	assert.Equal(t, []string{"A", "B"}, a.LastReplies())
}

func TestVisible(t *testing.T) {
	rec := render.NewRecorder()
	rec.SetInputEnabled(false)
	rec.SetTypingIndicator(true)
	rec.ShowAssistantMessage("x")

	visible := render.Visible(rec.Events())
	assert.Len(t, visible, 1)
	assert.Equal(t, render.KindAssistant, visible[0].Kind)
}

func TestRecorder_Drain(t *testing.T) {
	rec := render.NewRecorder()
	rec.ShowAssistantMessage("x")

	assert.Len(t, rec.Drain(), 1)
	assert.Empty(t, rec.Events())
}

func TestRecorder_ClearRepliesIsRecorded(t *testing.T) {
	rec := render.NewRecorder()
	rec.ShowQuickReplies([]string{"A"})
	rec.ShowQuickReplies(nil)

	assert.NotNil(t, rec.LastReplies())
	assert.Empty(t, rec.LastReplies())
}
