package document_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/patchbay-io/patchbay/pkg/document"
	"github.com/patchbay-io/patchbay/pkg/domain"
)

const legacyExport = `{
	"name": "old-patch",
	"nodes": [
		{"id": "gen", "type": "value", "x": 100, "y": 50, "label": "Gen",
		 "outputs": ["result-out"], "props": {"literal": "42"}},
		{"id": "mix", "type": "merge", "x": 400, "y": 60, "label": "Mix",
		 "inputs": [{"id": "in-0", "label": "First"}],
		 "width": 180, "height": 110},
		{"id": "box", "type": "group", "x": 60, "y": 20,
		 "children": ["gen", "mix"]}
	],
	"edges": [
		{"id": "e1", "from": "gen", "fromPort": "result-out", "to": "mix", "toPort": "in-0"},
		{"from": "gen", "fromPort": "result-out", "to": "mix", "toPort": "aux", "dashed": true}
	]
}`

func TestImportLegacy(t *testing.T) {
	doc, err := document.ImportLegacy([]byte(legacyExport), nil)
	require.NoError(t, err)

	assert.Equal(t, "old-patch", doc.Name)
	require.Len(t, doc.Nodes, 3)
	require.Len(t, doc.Connections, 2)

	// 1. Flat coordinates land in Position, props in Extra.
	gen, ok := doc.Node("gen")
	require.True(t, ok)
	assert.Equal(t, domain.Position{X: 100, Y: 50}, gen.Position)
	assert.Equal(t, "42", gen.Data.Extra["literal"])

	// 2. String port entries become declared ports.
	require.Len(t, gen.Data.Outputs, 1)
	assert.Equal(t, "result-out", gen.Data.Outputs[0].ID)

	// 3. Group membership carries over.
	box, ok := doc.Node("box")
	require.True(t, ok)
	assert.Equal(t, []string{"gen", "mix"}, box.Data.ChildNodeIDs)

	// 4. Edges become connections; the one without an id got one.
	assert.Equal(t, "e1", doc.Connections[0].ID)
	if doc.Connections[1].ID == "" {
		t.Error("imported edge should have been assigned an id")
	}
	assert.True(t, doc.Connections[1].IsDashed)

	// 5. The undeclared "aux" endpoint was materialized as an input,
	// because its id carries no "out" marker.
	mix, sure := doc.Node("mix")
	require.True(t, sure)
	_, role, found := mix.Port("aux")
	require.True(t, found, "undeclared endpoint port should be materialized")
	assert.Equal(t, domain.RoleInput, role)

	// The import as a whole passes current-format validation.
	require.NoError(t, doc.Validate())
}

func TestImportLegacyInfersOutputRoleFromID(t *testing.T) {
	raw := `{
		"nodes": [
			{"id": "a", "type": "value"},
			{"id": "b", "type": "display"}
		],
		"edges": [
			{"id": "e", "from": "a", "fromPort": "main-output", "to": "b", "toPort": "signal"}
		]
	}`
	doc, err := document.ImportLegacy([]byte(raw), nil)
	require.NoError(t, err)

	a, _ := doc.Node("a")
	_, role, ok := a.Port("main-output")
	require.True(t, ok)
	assert.Equal(t, domain.RoleOutput, role, `ids containing "out" become outputs`)

	b, _ := doc.Node("b")
	_, role, ok = b.Port("signal")
	require.True(t, ok)
	assert.Equal(t, domain.RoleInput, role, "everything else becomes an input")
}

func TestImportLegacyNeverOverridesDeclaredPorts(t *testing.T) {
	// "outcome" would infer as an output, but it is already declared as an
	// input; membership always wins over naming.
	raw := `{
		"nodes": [
			{"id": "a", "type": "value", "outputs": ["o"]},
			{"id": "b", "type": "transform", "inputs": [{"id": "outcome"}]}
		],
		"edges": [
			{"id": "e", "from": "a", "fromPort": "o", "to": "b", "toPort": "outcome"}
		]
	}`
	doc, err := document.ImportLegacy([]byte(raw), nil)
	require.NoError(t, err)

	b, _ := doc.Node("b")
	require.Len(t, b.Data.Outputs, 0, "declared input must not be re-materialized")
	_, role, ok := b.Port("outcome")
	require.True(t, ok)
	assert.Equal(t, domain.RoleInput, role)
}

func TestImportLegacyWeakTyping(t *testing.T) {
	// Old exports are sloppy about numbers: strings and integers both appear.
	raw := `{
		"nodes": [
			{"id": "a", "type": "value", "x": "120", "y": 80, "width": "160"}
		],
		"edges": []
	}`
	doc, err := document.ImportLegacy([]byte(raw), nil)
	require.NoError(t, err)

	a, _ := doc.Node("a")
	assert.Equal(t, domain.Position{X: 120, Y: 80}, a.Position)
	assert.Equal(t, 160.0, a.Data.Width)
}

func TestImportLegacyYAML(t *testing.T) {
	raw := `
name: yaml-patch
nodes:
  - id: a
    type: value
    x: 10
    y: 20
    outputs: [out-0]
edges: []
`
	doc, err := document.ImportLegacy([]byte(raw), nil)
	require.NoError(t, err)
	assert.Equal(t, "yaml-patch", doc.Name)
	require.Len(t, doc.Nodes, 1)
	assert.Equal(t, domain.Position{X: 10, Y: 20}, doc.Nodes[0].Position)
}

func TestImportLegacyRejections(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want string
	}{
		{
			name: "node without id",
			raw:  `{"nodes": [{"type": "value"}], "edges": []}`,
			want: "missing an id",
		},
		{
			name: "edge without endpoint",
			raw:  `{"nodes": [{"id": "a"}], "edges": [{"fromPort": "p", "to": "a", "toPort": "q"}]}`,
			want: "missing an endpoint",
		},
		{
			name: "malformed payload",
			raw:  `{"nodes": "not-a-list"}`,
			want: "legacy",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := document.ImportLegacy([]byte(tc.raw), nil)
			require.Error(t, err)
			if !strings.Contains(err.Error(), tc.want) {
				t.Errorf("error %q should mention %q", err, tc.want)
			}
		})
	}
}
