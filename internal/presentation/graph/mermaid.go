package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/coach/pkg/domain"
)

// GraphOverlay contains session data to highlight on the graph.
type GraphOverlay struct {
	VisitedStates []string
	CurrentState  string
}

// GenerateMermaid produces a Mermaid flowchart of a flow document.
// Shapes follow what the state does:
// - Start: ((Circle))
// - Backend action: [[Subroutine]]
// - Collects input: [/Parallelogram/]
// - Default: [Rectangle]
// Scripted transitions are solid arrows; carousel selections are dotted.
func GenerateMermaid(flow *domain.FlowDocument, overlay *GraphOverlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	for _, st := range flow.States {
		safeID := sanitizeMermaidID(st.ID)

		opener, closer := "[", "]"
		switch {
		case st.ID == flow.Start:
			opener, closer = "((", "))"
		case st.Action.Kind != "":
			opener, closer = "[[", "]]"
		case len(st.Collect) > 0:
			opener, closer = "[/", "/]"
		}

		label := st.ID
		if st.Action.Kind != "" {
			label = fmt.Sprintf("%s <br/> %s", st.ID, st.Action.Kind)
		}
		fmt.Fprintf(&sb, "    %s%s\"%s\"%s\n", safeID, opener, label, closer)

		if st.Next != "" {
			fmt.Fprintf(&sb, "    %s --> %s\n", safeID, sanitizeMermaidID(st.Next))
		}
		if st.Action.OnSelect != "" {
			fmt.Fprintf(&sb, "    %s -. \"card\" .-> %s\n", safeID, sanitizeMermaidID(st.Action.OnSelect))
		}
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		seen := make(map[string]bool)
		for _, id := range overlay.VisitedStates {
			safeID := sanitizeMermaidID(id)
			if !seen[safeID] && safeID != "" {
				seen[safeID] = true
				fmt.Fprintf(&sb, "    class %s visited;\n", safeID)
			}
		}
		if overlay.CurrentState != "" {
			fmt.Fprintf(&sb, "    class %s current;\n", sanitizeMermaidID(overlay.CurrentState))
		}
	}

	return sb.String()
}

func sanitizeMermaidID(id string) string {
	return strings.NewReplacer(".", "_", "-", "_", "/", "_", "\\", "_", " ", "_").Replace(id)
}
