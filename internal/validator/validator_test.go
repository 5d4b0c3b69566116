package validator

import (
	"testing"

	"github.com/aretw0/coach/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateFlow(t *testing.T) {
	t.Run("Valid Flow", func(t *testing.T) {
		flow := &domain.FlowDocument{Start: "start", States: []domain.StateDef{
			{ID: "start", Next: "a"},
			{ID: "a", Action: domain.Action{Kind: domain.ActionFetchCarousel, OnSelect: "b"}},
			{ID: "b"},
		}}

		report := ValidateFlow(flow)
		require.NoError(t, report.Err())
		assert.Equal(t, []string{"start", "a", "b"}, report.Reachable)
		assert.Equal(t, []string{"a", "b"}, report.Terminals)
		assert.Empty(t, report.Unreachable)
		assert.Empty(t, report.Warnings)
	})

	t.Run("Broken Link", func(t *testing.T) {
		flow := &domain.FlowDocument{Start: "broken_start", States: []domain.StateDef{
			{ID: "broken_start", Next: "ghost_state"},
		}}

		err := ValidateFlow(flow).Err()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Missing state: 'ghost_state'")
	})

	t.Run("Unreachable And Dead Ends", func(t *testing.T) {
		flow := &domain.FlowDocument{Start: "start", States: []domain.StateDef{
			{ID: "start", QuickReplies: []string{"Yes", "No"}},
			{ID: "island"},
			{ID: "stories", Action: domain.Action{Kind: domain.ActionFetchCarousel}},
		}}

		report := ValidateFlow(flow)
		require.NoError(t, report.Err())
		assert.Equal(t, []string{"island", "stories"}, report.Unreachable)
		assert.Contains(t, report.Warnings, "State 'start' offers quick replies but has no next state")
	})

	t.Run("Missing Start", func(t *testing.T) {
		report := ValidateFlow(&domain.FlowDocument{})
		assert.Error(t, report.Err())
	})
}
