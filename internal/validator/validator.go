// Package validator lints a flow document for the validate command.
package validator

import (
	"fmt"
	"strings"

	"github.com/aretw0/coach/pkg/domain"
)

// Report is the result of crawling a flow.
type Report struct {
	Reachable   []string
	Unreachable []string
	Terminals   []string
	Errors      []string
	Warnings    []string
}

// Err folds the report's errors into a single error, or nil.
func (r *Report) Err() error {
	if len(r.Errors) == 0 {
		return nil
	}
	return fmt.Errorf("found %d errors:\n- %s", len(r.Errors), strings.Join(r.Errors, "\n- "))
}

// ValidateFlow checks for broken links and unreachable states starting from the flow's start.
// Both next and a carousel's onSelect count as edges.
func ValidateFlow(flow *domain.FlowDocument) *Report {
	report := &Report{}

	states := make(map[string]domain.StateDef, len(flow.States))
	for _, st := range flow.States {
		states[st.ID] = st
	}

	if flow.Start == "" {
		report.Errors = append(report.Errors, "Missing start state")
		return report
	}

	visited := make(map[string]bool)
	queue := []string{flow.Start}

	for len(queue) > 0 {
		currentID := queue[0]
		queue = queue[1:]

		if visited[currentID] {
			continue
		}
		visited[currentID] = true

		st, ok := states[currentID]
		if !ok {
			report.Errors = append(report.Errors, fmt.Sprintf("Missing state: '%s'", currentID))
			continue
		}
		report.Reachable = append(report.Reachable, currentID)

		if st.Terminal() {
			report.Terminals = append(report.Terminals, currentID)
			if len(st.QuickReplies) > 0 && st.Action.OnSelect == "" {
				report.Warnings = append(report.Warnings, fmt.Sprintf("State '%s' offers quick replies but has no next state", currentID))
			}
		}
		if st.Action.Kind == domain.ActionFetchCarousel && st.Action.OnSelect == "" {
			report.Warnings = append(report.Warnings, fmt.Sprintf("Carousel state '%s' has no onSelect target", currentID))
		}

		for _, target := range []string{st.Next, st.Action.OnSelect} {
			if target != "" && !visited[target] {
				queue = append(queue, target)
			}
		}
	}

	for _, st := range flow.States {
		if !visited[st.ID] {
			report.Unreachable = append(report.Unreachable, st.ID)
			report.Warnings = append(report.Warnings, fmt.Sprintf("Unreachable state: '%s'", st.ID))
		}
	}

	return report
}
