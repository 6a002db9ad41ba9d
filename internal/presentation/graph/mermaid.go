package graph

import (
	"fmt"
	"strings"

	"github.com/patchbay-io/patchbay/pkg/domain"
)

// Overlay carries transient editor state to paint over the static graph:
// the current selection and the node a gesture is focused on.
type Overlay struct {
	Selected []string
	Focused  string
}

// Generate produces a Mermaid flowchart from a graph snapshot.
// Node shapes follow the canvas semantics:
// - Value: ([Stadium]) literal source
// - Component: [[Subroutine]] collapsed reusable block
// - Input/Output: [/Parallelogram/] boundary
// - Group: subgraph frame around its members
// - Default: [Rectangle]
// Wires carry their port pair as the edge label; dashed wires render dotted.
// It also applies overlay styles (Selected/Focused) if provided.
func Generate(nodes []domain.Node, conns []domain.Connection, overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	byID := make(map[string]domain.Node, len(nodes))
	memberOf := make(map[string]string)
	for _, n := range nodes {
		byID[n.ID] = n
		if n.Type == domain.NodeTypeGroup {
			for _, child := range n.Data.ChildNodeIDs {
				memberOf[child] = n.ID
			}
		}
	}

	for _, n := range nodes {
		if _, ok := memberOf[n.ID]; ok {
			// Rendered inside its group frame.
			continue
		}
		if n.Type == domain.NodeTypeGroup {
			sb.WriteString(fmt.Sprintf("    subgraph %s [\"%s\"]\n", sanitizeMermaidID(n.ID), escapeLabel(labelOf(n))))
			for _, child := range n.Data.ChildNodeIDs {
				member, ok := byID[child]
				if !ok {
					continue
				}
				sb.WriteString("    " + nodeLine(member))
			}
			sb.WriteString("    end\n")
			continue
		}
		sb.WriteString(nodeLine(n))
	}

	for _, c := range conns {
		label := escapeLabel(c.SourcePort + " → " + c.TargetPort)
		arrow := fmt.Sprintf("-- \"%s\" -->", label)
		if c.IsDashed {
			arrow = fmt.Sprintf("-. \"%s\" .->", label)
		}
		sb.WriteString(fmt.Sprintf("    %s %s %s\n", sanitizeMermaidID(c.SourceNodeID), arrow, sanitizeMermaidID(c.TargetNodeID)))
	}

	// Apply Overlay Styles
	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Force black text (color:#000) for high-contrast on light backgrounds, regardless of theme (Light/Dark)
		sb.WriteString("    classDef selected fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef focused fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		// Deduplicate selected nodes (using safeIDs)
		selectedSet := make(map[string]bool)
		for _, id := range overlay.Selected {
			safeID := sanitizeMermaidID(id)
			if !selectedSet[safeID] && safeID != "" {
				selectedSet[safeID] = true
				sb.WriteString(fmt.Sprintf("    class %s selected;\n", safeID))
			}
		}

		if overlay.Focused != "" {
			safeFocused := sanitizeMermaidID(overlay.Focused)
			sb.WriteString(fmt.Sprintf("    class %s focused;\n", safeFocused))
		}
	}

	return sb.String()
}

func nodeLine(n domain.Node) string {
	safeID := sanitizeMermaidID(n.ID)

	// Node Shape based on Type
	opener, closer := "[", "]"

	switch n.Type {
	case domain.NodeTypeValue:
		opener, closer = "([", "])" // Stadium
	case domain.NodeTypeComponent:
		opener, closer = "[[", "]]" // Subroutine
	case domain.NodeTypeInput, domain.NodeTypeOutput:
		opener, closer = "[/", "/]" // Parallelogram (Boundary)
	}

	label := escapeLabel(labelOf(n))
	if n.Type == domain.NodeTypeComponent && n.Data.ComponentID != "" {
		// Annotate the instance with its definition id
		label = fmt.Sprintf("%s <br/> ⚙ %s", label, n.Data.ComponentID)
	}
	return fmt.Sprintf("    %s%s\"%s\"%s\n", safeID, opener, label, closer)
}

func labelOf(n domain.Node) string {
	if n.Data.Label != "" {
		return n.Data.Label
	}
	return n.ID
}

// escapeLabel swaps double quotes for singles, which Mermaid cannot hold
// inside a quoted label.
func escapeLabel(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	return s
}
