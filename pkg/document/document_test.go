package document_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/patchbay-io/patchbay/pkg/document"
	"github.com/patchbay-io/patchbay/pkg/domain"
)

// fullDocument populates every field a store adapter must round-trip.
func fullDocument() *document.GraphDocument {
	return &document.GraphDocument{
		Name: "demo-patch",
		Nodes: []domain.Node{
			{
				ID:       "src",
				Type:     domain.NodeTypeValue,
				Position: domain.Position{X: 120.5, Y: 80},
				Data: domain.NodeData{
					Label:   "Source",
					Outputs: []domain.Port{{ID: "out-0", Label: "Value"}},
					Width:   160,
					Height:  90,
					Extra:   map[string]any{"mode": "constant", "gain": 0.5},
				},
			},
			{
				ID:       "sink",
				Type:     domain.NodeTypeDisplay,
				Position: domain.Position{X: 420, Y: 80},
				Data: domain.NodeData{
					Label:  "Sink",
					Inputs: []domain.Port{{ID: "in-0"}},
					Width:  220,
					Height: 140,
				},
			},
			{
				ID:       "frame",
				Type:     domain.NodeTypeGroup,
				Position: domain.Position{X: 80, Y: 20},
				Data: domain.NodeData{
					Label:        "Stage",
					Width:        600,
					Height:       260,
					ChildNodeIDs: []string{"src", "sink"},
				},
			},
			{
				ID:       "inst",
				Type:     domain.NodeTypeComponent,
				Position: domain.Position{X: 800, Y: 300},
				Data: domain.NodeData{
					Label:       "Reusable",
					Inputs:      []domain.Port{{ID: "in-0", Label: "Signal"}},
					ComponentID: "comp-1",
					Width:       200,
					Height:      120,
				},
			},
		},
		Connections: []domain.Connection{
			{ID: "c1", SourceNodeID: "src", SourcePort: "out-0", TargetNodeID: "sink", TargetPort: "in-0", IsDashed: true},
			{ID: "c2", SourceNodeID: "src", SourcePort: "out-0", TargetNodeID: "inst", TargetPort: "in-0", IsGhost: true},
		},
		Definitions: []domain.ComponentDefinition{
			{
				ID:         "comp-1",
				Name:       "Reusable",
				InputPorts: []domain.Port{{ID: "in-0", Label: "Signal"}},
				InternalNodes: []domain.Node{
					{
						ID:       "inner",
						Type:     domain.NodeTypeTransform,
						Position: domain.Position{X: 10, Y: 20},
						Data: domain.NodeData{
							Label:  "Inner",
							Inputs: []domain.Port{{ID: "i", Label: "In"}},
						},
					},
				},
				InputBindings: []domain.PortBinding{
					{ComponentPortID: "in-0", NodeID: "inner", PortID: "i"},
				},
				Origin: domain.Position{X: 700, Y: 250},
			},
		},
	}
}

func TestRoundTrip(t *testing.T) {
	for _, format := range []document.Format{document.FormatJSON, document.FormatYAML} {
		t.Run(string(format), func(t *testing.T) {
			original := fullDocument()
			data, err := document.Marshal(original, format)
			require.NoError(t, err)

			restored, err := document.Unmarshal(data, format)
			require.NoError(t, err)
			assert.Equal(t, original, restored)
		})
	}
}

func TestParseSniffsFormat(t *testing.T) {
	original := fullDocument()
	for _, format := range []document.Format{document.FormatJSON, document.FormatYAML} {
		data, err := document.Marshal(original, format)
		require.NoError(t, err)

		got := document.Detect(data)
		if got != format {
			t.Errorf("Detect() = %q, want %q", got, format)
		}
		restored, err := document.Parse(data)
		require.NoError(t, err)
		assert.Equal(t, original.Name, restored.Name)
		assert.Len(t, restored.Nodes, len(original.Nodes))
	}
}

func TestUnmarshalIgnoresUnknownFields(t *testing.T) {
	raw := `{
		"name": "exported",
		"viewport": {"pan": {"x": 10, "y": 20}, "zoom": 1.5},
		"nodes": [
			{"id": "a", "type": "value", "position": {"x": 1, "y": 2},
			 "selected": true,
			 "data": {"label": "A", "outputs": [{"id": "out-0"}], "highlight": "red"}}
		],
		"connections": []
	}`
	doc, err := document.Unmarshal([]byte(raw), document.FormatJSON)
	require.NoError(t, err)
	require.Len(t, doc.Nodes, 1)
	assert.Equal(t, "a", doc.Nodes[0].ID)
	assert.Equal(t, "A", doc.Nodes[0].Data.Label)
}

func TestFormatForPath(t *testing.T) {
	cases := map[string]document.Format{
		"patch.json":      document.FormatJSON,
		"patch.yaml":      document.FormatYAML,
		"patch.YML":       document.FormatYAML,
		"patch":           document.FormatJSON,
		"dir/noext/patch": document.FormatJSON,
	}
	for path, want := range cases {
		if got := document.FormatForPath(path); got != want {
			t.Errorf("FormatForPath(%q) = %q, want %q", path, got, want)
		}
	}
}

func TestCloneIsDeep(t *testing.T) {
	original := fullDocument()
	clone := original.Clone()
	require.Equal(t, original, clone)

	clone.Nodes[0].Data.Outputs[0].Label = "mutated"
	clone.Connections[0].TargetPort = "elsewhere"
	clone.Definitions[0].InputBindings[0].PortID = "mutated"

	assert.Equal(t, "Value", original.Nodes[0].Data.Outputs[0].Label)
	assert.Equal(t, "in-0", original.Connections[0].TargetPort)
	assert.Equal(t, "i", original.Definitions[0].InputBindings[0].PortID)
}

func TestValidateAcceptsFullDocument(t *testing.T) {
	require.NoError(t, fullDocument().Validate())
}

func TestValidateFindsEveryProblem(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*document.GraphDocument)
		want   string
	}{
		{
			name:   "missing node id",
			mutate: func(d *document.GraphDocument) { d.Nodes[0].ID = "" },
			want:   "missing an id",
		},
		{
			name:   "duplicate node id",
			mutate: func(d *document.GraphDocument) { d.Nodes[1].ID = "src" },
			want:   "duplicate node id",
		},
		{
			name: "unknown group child",
			mutate: func(d *document.GraphDocument) {
				d.Nodes[2].Data.ChildNodeIDs = append(d.Nodes[2].Data.ChildNodeIDs, "ghost")
			},
			want: "unknown child",
		},
		{
			name:   "unknown definition reference",
			mutate: func(d *document.GraphDocument) { d.Nodes[3].Data.ComponentID = "comp-missing" },
			want:   "unknown definition",
		},
		{
			name:   "missing connection id",
			mutate: func(d *document.GraphDocument) { d.Connections[0].ID = "" },
			want:   "connection is missing an id",
		},
		{
			name:   "duplicate connection id",
			mutate: func(d *document.GraphDocument) { d.Connections[1].ID = "c1" },
			want:   "duplicate connection id",
		},
		{
			name: "duplicate endpoint tuple",
			mutate: func(d *document.GraphDocument) {
				d.Connections[1] = d.Connections[0]
				d.Connections[1].ID = "c2"
			},
			want: "duplicates the endpoints",
		},
		{
			name:   "unknown endpoint node",
			mutate: func(d *document.GraphDocument) { d.Connections[0].TargetNodeID = "ghost" },
			want:   "unknown node",
		},
		{
			name:   "unknown endpoint port",
			mutate: func(d *document.GraphDocument) { d.Connections[0].SourcePort = "nope" },
			want:   "unknown port",
		},
		{
			name:   "duplicate definition id",
			mutate: func(d *document.GraphDocument) { d.Definitions = append(d.Definitions, d.Definitions[0]) },
			want:   "duplicate definition id",
		},
		{
			name: "internal connection endpoint unknown",
			mutate: func(d *document.GraphDocument) {
				d.Definitions[0].InternalConnections = []domain.Connection{
					{ID: "x", SourceNodeID: "ghost", SourcePort: "p", TargetNodeID: "inner", TargetPort: "i"},
				}
			},
			want: "unknown node",
		},
		{
			name: "binding to undeclared component port",
			mutate: func(d *document.GraphDocument) {
				d.Definitions[0].InputBindings[0].ComponentPortID = "undeclared"
			},
			want: "undeclared component port",
		},
		{
			name: "binding to unknown internal node",
			mutate: func(d *document.GraphDocument) {
				d.Definitions[0].InputBindings[0].NodeID = "ghost"
			},
			want: "unknown internal node",
		},
		{
			name: "binding to unknown internal port",
			mutate: func(d *document.GraphDocument) {
				d.Definitions[0].InputBindings[0].PortID = "nope"
			},
			want: "unknown port",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			doc := fullDocument()
			tc.mutate(doc)
			err := doc.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestValidateAggregatesIssues(t *testing.T) {
	doc := fullDocument()
	doc.Connections[0].SourcePort = "nope"
	doc.Nodes[2].Data.ChildNodeIDs = append(doc.Nodes[2].Data.ChildNodeIDs, "ghost")

	err := doc.Validate()
	require.Error(t, err)

	issues := document.Issues(err)
	if len(issues) != 2 {
		t.Fatalf("Issues() returned %d problems, want 2: %v", len(issues), issues)
	}
	if !strings.Contains(err.Error(), "2 problems") {
		t.Errorf("aggregate message should count problems, got %q", err.Error())
	}
	assert.Nil(t, document.Issues(errors.New("unrelated")))
}

func TestMarshalRejectsNilAndUnknownFormat(t *testing.T) {
	_, err := document.Marshal(nil, document.FormatJSON)
	assert.Error(t, err)

	_, err = document.Marshal(fullDocument(), document.Format("toml"))
	assert.Error(t, err)

	_, err = document.Unmarshal([]byte("{}"), document.Format("toml"))
	assert.Error(t, err)
}

func TestIsEmpty(t *testing.T) {
	assert.True(t, document.New("empty").IsEmpty())
	assert.False(t, fullDocument().IsEmpty())
}
