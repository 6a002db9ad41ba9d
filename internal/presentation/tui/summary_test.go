package tui_test

import (
	"strings"
	"testing"

	"github.com/patchbay-io/patchbay/internal/presentation/tui"
	"github.com/patchbay-io/patchbay/pkg/document"
	"github.com/patchbay-io/patchbay/pkg/domain"
)

func TestSummary(t *testing.T) {
	doc := &document.GraphDocument{
		Name: "drum-rack",
		Nodes: []domain.Node{
			{ID: "kick", Type: domain.NodeTypeValue, Data: domain.NodeData{
				Label:   "Kick",
				Outputs: []domain.Port{{ID: "out"}},
			}},
			{ID: "bus", Type: domain.NodeTypeComponent, Data: domain.NodeData{
				ComponentID: "comp-1",
				Inputs:      []domain.Port{{ID: "in-0"}},
			}},
		},
		Connections: []domain.Connection{
			{ID: "c1", SourceNodeID: "kick", SourcePort: "out", TargetNodeID: "bus", TargetPort: "in-0", IsDashed: true},
		},
		Definitions: []domain.ComponentDefinition{
			{ID: "comp-1", Name: "Bus", InputPorts: []domain.Port{{ID: "in-0"}}},
		},
	}

	md := tui.Summary(doc)

	wants := []string{
		"# drum-rack",
		"2 nodes, 1 connections, 1 component definitions",
		"| kick | value | Kick | 0/1 |",
		"| bus | component | - | 1/0 |",
		"- `kick:out` → `bus:in-0` (dashed)",
		"- **Bus** (`comp-1`): 0 internal nodes, 1 in, 0 out",
	}
	for _, want := range wants {
		if !strings.Contains(md, want) {
			t.Errorf("Summary() missing %q in:\n%s", want, md)
		}
	}
}

func TestSummary_EmptyDocument(t *testing.T) {
	md := tui.Summary(document.New(""))

	if !strings.Contains(md, "# (unnamed project)") {
		t.Errorf("Summary() should title unnamed projects, got:\n%s", md)
	}
	if strings.Contains(md, "## Nodes") {
		t.Error("empty document should not render a node table")
	}
}
