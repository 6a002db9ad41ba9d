package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/patchbay-io/patchbay/pkg/domain"
)

// boundaryFixture loads the canonical fold scenario:
//
//	A.o1 ──► B.o1 (input-boundary member)
//	              B.o1 ──► C.i1 (internal wire)
//	C.i1 (output-boundary member) ──► D.i1
//
// B and C sit inside group "g". The seam wires land on boundary sockets
// directly, the way imported documents wire group proxies.
func boundaryFixture(t *testing.T) *Engine {
	t.Helper()
	e := newTestEngine()
	group := testNode("g", domain.NodeTypeGroup, nil, nil)
	group.Position = domain.Position{X: 400, Y: 200}
	group.Data.Label = "Pipeline"
	group.Data.ChildNodeIDs = []string{"B", "C"}
	group.Data.Width, group.Data.Height = 320, 200

	b := testNode("B", domain.NodeTypeInput, nil, []string{"o1"})
	b.Position = domain.Position{X: 420, Y: 240}
	c := testNode("C", domain.NodeTypeOutput, []string{"i1"}, nil)
	c.Position = domain.Position{X: 600, Y: 240}

	e.LoadSnapshot(&Snapshot{
		Nodes: []domain.Node{
			testNode("A", domain.NodeTypeValue, nil, []string{"o1"}),
			b,
			c,
			testNode("D", domain.NodeTypeDisplay, []string{"i1"}, nil),
			group,
		},
		Connections: []domain.Connection{
			{ID: "ext-in", SourceNodeID: "A", SourcePort: "o1", TargetNodeID: "B", TargetPort: "o1"},
			{ID: "internal", SourceNodeID: "B", SourcePort: "o1", TargetNodeID: "C", TargetPort: "i1"},
			{ID: "ext-out", SourceNodeID: "C", SourcePort: "i1", TargetNodeID: "D", TargetPort: "i1"},
		},
	})
	return e
}

func TestCompileBoundaryScenario(t *testing.T) {
	e := boundaryFixture(t)

	instance, def, err := e.Compile("g")
	require.NoError(t, err)

	// Exactly two ports: one per boundary socket.
	require.Len(t, instance.Data.Inputs, 1)
	require.Len(t, instance.Data.Outputs, 1)
	assert.Equal(t, "in-0", instance.Data.Inputs[0].ID)
	assert.Equal(t, "out-0", instance.Data.Outputs[0].ID)

	require.Len(t, def.InputBindings, 1)
	assert.Equal(t, domain.PortBinding{ComponentPortID: "in-0", NodeID: "B", PortID: "o1"}, def.InputBindings[0])
	require.Len(t, def.OutputBindings, 1)
	assert.Equal(t, domain.PortBinding{ComponentPortID: "out-0", NodeID: "C", PortID: "i1"}, def.OutputBindings[0])

	// External wires keep their ids and their outside ends, re-terminated
	// on the instance.
	extIn, ok := e.Connection("ext-in")
	require.True(t, ok)
	assert.Equal(t, "A", extIn.SourceNodeID)
	assert.Equal(t, instance.ID, extIn.TargetNodeID)
	assert.Equal(t, "in-0", extIn.TargetPort)

	extOut, ok := e.Connection("ext-out")
	require.True(t, ok)
	assert.Equal(t, instance.ID, extOut.SourceNodeID)
	assert.Equal(t, "out-0", extOut.SourcePort)
	assert.Equal(t, "D", extOut.TargetNodeID)

	// No direct references to B or C survive.
	_, ok = e.Node("B")
	assert.False(t, ok)
	_, ok = e.Node("C")
	assert.False(t, ok)
	for _, c := range e.Connections() {
		assert.False(t, c.Touches("B") || c.Touches("C"), "wire %s still references a folded member", c.ID)
	}

	// The definition captured the subgraph: members, the internal wire
	// with its id unchanged, and the group position as origin.
	require.Len(t, def.InternalNodes, 2)
	assert.Equal(t, "B", def.InternalNodes[0].ID)
	assert.Equal(t, "C", def.InternalNodes[1].ID)
	require.Len(t, def.InternalConnections, 1)
	assert.Equal(t, "internal", def.InternalConnections[0].ID)
	assert.Equal(t, domain.Position{X: 400, Y: 200}, def.Origin)

	// Instance carries the group's place, size and name.
	assert.Equal(t, domain.Position{X: 400, Y: 200}, instance.Position)
	assert.Equal(t, 320.0, instance.Data.Width)
	assert.Equal(t, "Pipeline", instance.Data.Label)
	assert.Equal(t, def.ID, instance.Data.ComponentID)

	// Published and resolvable.
	got, err := e.Registry().Resolve(def.ID)
	require.NoError(t, err)
	assert.Equal(t, "Pipeline", got.Name)
}

func TestCompileIsOneUndoStep(t *testing.T) {
	e := boundaryFixture(t)
	before := e.Snapshot()

	_, _, err := e.Compile("g")
	require.NoError(t, err)

	require.True(t, e.Undo())
	assert.Equal(t, before, e.Snapshot(), "one undo must restore group, members and wires together")
}

func TestCompileLabelPrecedence(t *testing.T) {
	e := newTestEngine()

	labeled := testNode("src", domain.NodeTypeInput, nil, nil)
	labeled.Data.Label = "Source Node"
	labeled.Data.Outputs = []domain.Port{
		{ID: "p1", Label: "Socket Label"},
		{ID: "p2"}, // falls back to the node label
	}
	bare := testNode("bare", domain.NodeTypeInput, nil, []string{"p3"}) // falls back to the ordinal

	group := testNode("g", domain.NodeTypeGroup, nil, nil)
	group.Data.ChildNodeIDs = []string{"src", "bare"}

	e.LoadSnapshot(&Snapshot{Nodes: []domain.Node{labeled, bare, group}})

	instance, _, err := e.Compile("g")
	require.NoError(t, err)

	require.Len(t, instance.Data.Inputs, 3)
	assert.Equal(t, "Socket Label", instance.Data.Inputs[0].Label)
	assert.Equal(t, "Source Node", instance.Data.Inputs[1].Label)
	assert.Equal(t, "Input 3", instance.Data.Inputs[2].Label)
}

func TestCompileKeyedPassFanIn(t *testing.T) {
	e := newTestEngine()
	group := testNode("g", domain.NodeTypeGroup, nil, nil)
	group.Data.ChildNodeIDs = []string{"t"}

	e.LoadSnapshot(&Snapshot{
		Nodes: []domain.Node{
			testNode("o1", domain.NodeTypeValue, nil, []string{"out"}),
			testNode("o2", domain.NodeTypeValue, nil, []string{"out"}),
			testNode("t", domain.NodeTypeTransform, []string{"x"}, []string{"y"}),
			testNode("sink1", domain.NodeTypeDisplay, []string{"in"}, nil),
			testNode("sink2", domain.NodeTypeDisplay, []string{"in"}, nil),
			group,
		},
		Connections: []domain.Connection{
			{ID: "c1", SourceNodeID: "o1", SourcePort: "out", TargetNodeID: "t", TargetPort: "x"},
			{ID: "c2", SourceNodeID: "o2", SourcePort: "out", TargetNodeID: "t", TargetPort: "x"},
			{ID: "c3", SourceNodeID: "t", SourcePort: "y", TargetNodeID: "sink1", TargetPort: "in"},
			{ID: "c4", SourceNodeID: "t", SourcePort: "y", TargetNodeID: "sink2", TargetPort: "in"},
		},
	})

	instance, def, err := e.Compile("g")
	require.NoError(t, err)

	// Fan-in shares one synthesized input, fan-out one synthesized output.
	require.Len(t, instance.Data.Inputs, 1)
	require.Len(t, instance.Data.Outputs, 1)
	assert.Equal(t, "x", instance.Data.Inputs[0].Label, "keyed ports take the raw port id when unlabeled")

	for _, id := range []string{"c1", "c2"} {
		c, ok := e.Connection(id)
		require.True(t, ok)
		assert.Equal(t, instance.ID, c.TargetNodeID)
		assert.Equal(t, "in-0", c.TargetPort)
	}
	for _, id := range []string{"c3", "c4"} {
		c, ok := e.Connection(id)
		require.True(t, ok)
		assert.Equal(t, instance.ID, c.SourceNodeID)
		assert.Equal(t, "out-0", c.SourcePort)
	}
	assert.Len(t, def.InputBindings, 1)
	assert.Len(t, def.OutputBindings, 1)
}

func TestCompilePortIDsRunAcrossBothPasses(t *testing.T) {
	e := newTestEngine()
	group := testNode("g", domain.NodeTypeGroup, nil, nil)
	group.Data.ChildNodeIDs = []string{"proxy", "t"}

	e.LoadSnapshot(&Snapshot{
		Nodes: []domain.Node{
			testNode("proxy", domain.NodeTypeInput, nil, []string{"o1"}),
			testNode("t", domain.NodeTypeTransform, []string{"x"}, nil),
			testNode("feed", domain.NodeTypeValue, nil, []string{"out"}),
			group,
		},
		Connections: []domain.Connection{
			{ID: "c1", SourceNodeID: "feed", SourcePort: "out", TargetNodeID: "t", TargetPort: "x"},
		},
	})

	instance, _, err := e.Compile("g")
	require.NoError(t, err)

	// Boundary pass claims in-0, the keyed pass continues with in-1.
	require.Len(t, instance.Data.Inputs, 2)
	assert.Equal(t, "in-0", instance.Data.Inputs[0].ID)
	assert.Equal(t, "in-1", instance.Data.Inputs[1].ID)

	c1, _ := e.Connection("c1")
	assert.Equal(t, "in-1", c1.TargetPort)
}

func TestCompileRejections(t *testing.T) {
	e := boundaryFixture(t)
	before := e.Snapshot()
	defsBefore := e.Registry().Len()
	depthBefore := e.UndoDepth()

	_, _, err := e.Compile("ghost")
	assert.ErrorIs(t, err, domain.ErrNodeNotFound)

	_, _, err = e.Compile("A")
	assert.ErrorIs(t, err, domain.ErrNotAGroup)

	empty, _ := e.Group([]string{"A"}, "")
	// Hollow out the frame to hit the empty-member rejection.
	live, _ := e.Node(empty.ID)
	live.Data.ChildNodeIDs = []string{"dangling"}
	_, _, err = e.Compile(empty.ID)
	assert.ErrorIs(t, err, domain.ErrEmptyGroup)

	e.Undo() // drop the helper frame again

	assert.Equal(t, before, e.Snapshot(), "rejected compiles must commit nothing")
	assert.Equal(t, defsBefore, e.Registry().Len(), "rejected compiles must publish nothing")
	assert.Equal(t, depthBefore, e.UndoDepth())
}

func TestCompileDropsFrameWires(t *testing.T) {
	e := newTestEngine()
	group := testNode("g", domain.NodeTypeGroup, nil, []string{"gp"})
	group.Data.ChildNodeIDs = []string{"m"}

	e.LoadSnapshot(&Snapshot{
		Nodes: []domain.Node{
			testNode("m", domain.NodeTypeValue, nil, []string{"out"}),
			testNode("sink", domain.NodeTypeDisplay, []string{"in"}, nil),
			group,
		},
		Connections: []domain.Connection{
			{ID: "framewire", SourceNodeID: "g", SourcePort: "gp", TargetNodeID: "sink", TargetPort: "in"},
		},
	})

	_, _, err := e.Compile("g")
	require.NoError(t, err)

	_, ok := e.Connection("framewire")
	assert.False(t, ok, "wires attached to the dissolved frame cannot survive")
}

func TestCompileGroupContainingInstance(t *testing.T) {
	e := boundaryFixture(t)
	instance, def1, err := e.Compile("g")
	require.NoError(t, err)

	outer, err := e.Group([]string{instance.ID, "A"}, "Outer")
	require.NoError(t, err)

	outerInstance, def2, err := e.Compile(outer.ID)
	require.NoError(t, err)
	require.NotEqual(t, def1.ID, def2.ID)

	// The captured instance still points at the inner definition.
	var found bool
	for _, n := range def2.InternalNodes {
		if n.Type == domain.NodeTypeComponent && n.Data.ComponentID == def1.ID {
			found = true
		}
	}
	assert.True(t, found, "nested instance must be captured as-is")
	assert.Equal(t, domain.NodeTypeComponent, outerInstance.Type)
}
