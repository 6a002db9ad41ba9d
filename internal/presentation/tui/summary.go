package tui

import (
	"fmt"
	"strings"

	"github.com/patchbay-io/patchbay/pkg/document"
)

// Summary builds a markdown overview of a project document, meant to be
// passed through NewRenderer for terminal display.
func Summary(doc *document.GraphDocument) string {
	var sb strings.Builder

	name := doc.Name
	if name == "" {
		name = "(unnamed project)"
	}
	fmt.Fprintf(&sb, "# %s\n\n", name)
	fmt.Fprintf(&sb, "%d nodes, %d connections, %d component definitions\n\n",
		len(doc.Nodes), len(doc.Connections), len(doc.Definitions))

	if len(doc.Nodes) > 0 {
		sb.WriteString("## Nodes\n\n")
		sb.WriteString("| ID | Type | Label | Ports (in/out) |\n")
		sb.WriteString("|----|------|-------|----------------|\n")
		for _, n := range doc.Nodes {
			label := n.Data.Label
			if label == "" {
				label = "-"
			}
			fmt.Fprintf(&sb, "| %s | %s | %s | %d/%d |\n",
				n.ID, n.Type, label, len(n.Data.Inputs), len(n.Data.Outputs))
		}
		sb.WriteString("\n")
	}

	if len(doc.Connections) > 0 {
		sb.WriteString("## Wires\n\n")
		for _, c := range doc.Connections {
			style := ""
			if c.IsDashed {
				style = " (dashed)"
			}
			fmt.Fprintf(&sb, "- `%s:%s` → `%s:%s`%s\n",
				c.SourceNodeID, c.SourcePort, c.TargetNodeID, c.TargetPort, style)
		}
		sb.WriteString("\n")
	}

	if len(doc.Definitions) > 0 {
		sb.WriteString("## Component Definitions\n\n")
		for _, def := range doc.Definitions {
			fmt.Fprintf(&sb, "- **%s** (`%s`): %d internal nodes, %d in, %d out\n",
				def.Name, def.ID, len(def.InternalNodes), len(def.InputPorts), len(def.OutputPorts))
		}
		sb.WriteString("\n")
	}

	return sb.String()
}
