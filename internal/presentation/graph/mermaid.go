package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/majbot/pkg/domain"
)

// GraphOverlay contains dynamic session data to visualize on the graph.
type GraphOverlay struct {
	VisitedStates []string
	CurrentState  string
}

// GenerateMermaid produces a Mermaid flowchart syntax string from a list of states.
// It applies semantic styling:
// - Entry state: ((Circle))
// - Terminal state (no rules): ([Stadium])
// - Response handler: [[Subroutine]], reached by dispatch rules
// - Default: [Rectangle]
//
// Transition rules are solid edges labelled with their pattern; learn rules are dotted.
func GenerateMermaid(states []domain.State, overlay *GraphOverlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	handlers := make(map[string]bool)
	var handlerOrder []string

	for _, st := range states {
		safeID := sanitizeMermaidID(st.ID)

		opener, closer := "[", "]"
		switch {
		case st.ID == domain.EntryStateID:
			opener, closer = "((", "))"
		case st.IsTerminal():
			opener, closer = "([", "])"
		}
		fmt.Fprintf(&sb, "    %s%s\"%s\"%s\n", safeID, opener, st.ID, closer)

		for _, kw := range st.Keywords {
			label := escapeLabel(kw.Pattern)
			if kw.Variable != "" {
				label += " → [" + kw.Variable + "]"
			}

			switch a := kw.Action.(type) {
			case domain.Dispatch:
				hid := handlerID(a.Handler)
				if !handlers[hid] {
					handlers[hid] = true
					handlerOrder = append(handlerOrder, a.Handler)
				}
				fmt.Fprintf(&sb, "    %s -- \"%s\" --> %s\n", safeID, label, hid)
			case domain.Learn:
				fmt.Fprintf(&sb, "    %s -. \"%s\" .-> %s\n", safeID, label, sanitizeMermaidID(kw.Target()))
			default:
				fmt.Fprintf(&sb, "    %s -- \"%s\" --> %s\n", safeID, label, sanitizeMermaidID(kw.Target()))
			}
		}
	}

	for _, name := range handlerOrder {
		fmt.Fprintf(&sb, "    %s[[\"%s\"]]\n", handlerID(name), name)
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Force black text for contrast on light fills, regardless of theme.
		sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		seen := make(map[string]bool)
		for _, id := range overlay.VisitedStates {
			safeID := sanitizeMermaidID(id)
			if safeID != "" && !seen[safeID] {
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

// Mermaid ids must not start with a digit-only token that clashes with syntax, so state
// ids are prefixed.
func sanitizeMermaidID(id string) string {
	r := strings.NewReplacer(".", "_", "-", "_", "/", "_", "\\", "_", " ", "_")
	return "s" + r.Replace(id)
}

func handlerID(name string) string {
	return "h_" + strings.ReplaceAll(name, " ", "_")
}

func escapeLabel(s string) string {
	return strings.ReplaceAll(s, "\"", "#quot;")
}
