package patchbay_test

import (
	"context"
	"errors"
	"testing"

	"github.com/patchbay-io/patchbay"
	"github.com/patchbay-io/patchbay/pkg/document"
	"github.com/patchbay-io/patchbay/pkg/domain"
	"github.com/patchbay-io/patchbay/pkg/registry"
)

func testNode(id, typ string, inputs, outputs []string) domain.Node {
	n := domain.Node{ID: id, Type: typ, Data: domain.NodeData{Label: id}}
	for _, p := range inputs {
		n.Data.Inputs = append(n.Data.Inputs, domain.Port{ID: p})
	}
	for _, p := range outputs {
		n.Data.Outputs = append(n.Data.Outputs, domain.Port{ID: p})
	}
	return n
}

func TestFacade_Integration(t *testing.T) {
	ed := patchbay.New(patchbay.WithName("integration"))

	// 1. Build a two-node graph and wire it.
	src := ed.AddNode(testNode("src", domain.NodeTypeValue, nil, []string{"out"}))
	dst := ed.AddNode(testNode("dst", domain.NodeTypeDisplay, []string{"in"}, nil))

	conn, err := ed.Connect(src.ID, "out", dst.ID, "in")
	if err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	if nodes, conns := ed.Counts(); nodes != 2 || conns != 1 {
		t.Errorf("expected 2 nodes / 1 connection, got %d / %d", nodes, conns)
	}

	// 2. Every mutation is one undo step.
	if !ed.CanUndo() {
		t.Fatal("expected undo to be available")
	}
	if !ed.Undo() {
		t.Fatal("Undo reported nothing to do")
	}
	if _, ok := ed.Connection(conn.ID); ok {
		t.Error("undo left the connection in place")
	}
	if !ed.Redo() {
		t.Fatal("Redo reported nothing to do")
	}
	if _, ok := ed.Connection(conn.ID); !ok {
		t.Error("redo did not bring the connection back")
	}

	// 3. Reads hand out copies, not live state.
	n, ok := ed.Node(src.ID)
	if !ok {
		t.Fatalf("node %q disappeared", src.ID)
	}
	n.Data.Label = "scribbled"
	reread, _ := ed.Node(src.ID)
	if reread.Data.Label != "src" {
		t.Errorf("mutating a returned node leaked into the graph: label %q", reread.Data.Label)
	}
}

func TestFacade_DocumentRoundTrip(t *testing.T) {
	ed := patchbay.New(patchbay.WithName("round-trip"))

	// 1. Build a chain and fold the middle node into a component.
	a := ed.AddNode(testNode("a", domain.NodeTypeValue, nil, []string{"out"}))
	b := ed.AddNode(testNode("b", domain.NodeTypeTransform, []string{"in"}, []string{"out"}))
	c := ed.AddNode(testNode("c", domain.NodeTypeDisplay, []string{"in"}, nil))
	if _, err := ed.Connect(a.ID, "out", b.ID, "in"); err != nil {
		t.Fatal(err)
	}
	if _, err := ed.Connect(b.ID, "out", c.ID, "in"); err != nil {
		t.Fatal(err)
	}
	group, err := ed.Group([]string{b.ID}, "Filter")
	if err != nil {
		t.Fatal(err)
	}
	instance, def, err := ed.Compile(group.ID)
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}

	// 2. Export: the document must carry the definition the instance needs.
	doc := ed.Document()
	if doc.Name != "round-trip" {
		t.Errorf("document name = %q, want round-trip", doc.Name)
	}
	if len(doc.Definitions) != 1 || doc.Definitions[0].ID != def.ID {
		t.Fatalf("expected the exported document to embed definition %q, got %v", def.ID, doc.Definitions)
	}
	if err := doc.Validate(); err != nil {
		t.Fatalf("exported document does not validate: %v", err)
	}

	// 3. Load into a fresh editor and unfold there.
	other := patchbay.New()
	if err := other.LoadDocument(doc); err != nil {
		t.Fatalf("LoadDocument failed: %v", err)
	}
	if other.CanUndo() {
		t.Error("loading a document must reset history")
	}
	if nodes, conns := other.Counts(); nodes != 3 || conns != 2 {
		t.Errorf("loaded graph has %d nodes / %d connections, want 3 / 2", nodes, conns)
	}
	if _, _, err := other.Expand(instance.ID); err != nil {
		t.Fatalf("Expand in the loading editor failed: %v", err)
	}
	if _, ok := other.Node(b.ID); !ok {
		t.Errorf("member %q did not come back from the definition", b.ID)
	}
}

func TestFacade_LoadRejectsInvalidDocument(t *testing.T) {
	ed := patchbay.New()

	doc := document.New("broken")
	doc.Nodes = []domain.Node{testNode("a", domain.NodeTypeValue, nil, []string{"out"})}
	doc.Connections = []domain.Connection{{
		ID:           "dangling",
		SourceNodeID: "a",
		SourcePort:   "out",
		TargetNodeID: "ghost",
		TargetPort:   "in",
	}}

	err := ed.LoadDocument(doc)
	if err == nil {
		t.Fatal("expected a validation error")
	}
	if issues := document.Issues(err); len(issues) == 0 {
		t.Errorf("expected extractable issues from %v", err)
	}
	if nodes, conns := ed.Counts(); nodes != 0 || conns != 0 {
		t.Errorf("a rejected load must leave the editor untouched, got %d nodes / %d connections", nodes, conns)
	}
}

func TestFacade_SyncBypassesHistory(t *testing.T) {
	ed := patchbay.New()
	base := document.New("mirror")
	base.Nodes = []domain.Node{testNode("a", domain.NodeTypeValue, nil, []string{"out"})}
	if err := ed.LoadDocument(base); err != nil {
		t.Fatal(err)
	}

	// A mirrored update swaps state without creating an undo step.
	next := base.Clone()
	next.Nodes = append(next.Nodes, testNode("b", domain.NodeTypeDisplay, []string{"in"}, nil))
	if err := ed.Sync(next); err != nil {
		t.Fatalf("Sync failed: %v", err)
	}
	if nodes, _ := ed.Counts(); nodes != 2 {
		t.Errorf("sync did not apply, %d nodes", nodes)
	}
	if ed.CanUndo() {
		t.Error("sync must not record history")
	}
}

func TestFacade_SharedRegistry(t *testing.T) {
	shared := registry.New()
	author := patchbay.New(patchbay.WithRegistry(shared))
	consumer := patchbay.New(patchbay.WithRegistry(shared))

	// 1. Author folds a component.
	b := author.AddNode(testNode("b", domain.NodeTypeTransform, []string{"in"}, []string{"out"}))
	group, err := author.Group([]string{b.ID}, "Shared Filter")
	if err != nil {
		t.Fatal(err)
	}
	instance, def, err := author.Compile(group.ID)
	if err != nil {
		t.Fatal(err)
	}

	// 2. Consumer stamps a fresh instance of the same definition and
	// unfolds it without ever loading the author's document.
	stamp := instance.Clone()
	stamp.ID = ""
	placed := consumer.AddNode(*stamp)
	if _, _, err := consumer.Expand(placed.ID); err != nil {
		t.Fatalf("Expand against the shared registry failed: %v", err)
	}
	if _, ok := consumer.Node("b"); !ok {
		t.Errorf("definition %q did not unfold in the consumer", def.ID)
	}
}

func TestFacade_NameFollowsLoadedDocument(t *testing.T) {
	ed := patchbay.New()
	if ed.Name() != "" {
		t.Fatalf("fresh editor has name %q", ed.Name())
	}

	doc := document.New("synth-patch")
	doc.Nodes = []domain.Node{testNode("osc", domain.NodeTypeValue, nil, []string{"out"})}
	if err := ed.LoadDocument(doc); err != nil {
		t.Fatal(err)
	}
	if ed.Name() != "synth-patch" {
		t.Errorf("editor name = %q, want synth-patch", ed.Name())
	}
	if out := ed.Document(); out.Name != "synth-patch" {
		t.Errorf("exported name = %q, want synth-patch", out.Name)
	}
}

func TestFacade_HooksObserveMutations(t *testing.T) {
	var events []domain.MutationKind
	ed := patchbay.New(patchbay.WithLifecycleHooks(domain.LifecycleHooks{
		OnMutation: func(_ context.Context, ev *domain.MutationEvent) {
			events = append(events, ev.Kind)
		},
	}))

	src := ed.AddNode(testNode("src", domain.NodeTypeValue, nil, []string{"out"}))
	dst := ed.AddNode(testNode("dst", domain.NodeTypeDisplay, []string{"in"}, nil))
	if _, err := ed.Connect(src.ID, "out", dst.ID, "in"); err != nil {
		t.Fatal(err)
	}

	want := []domain.MutationKind{
		domain.MutationNodesAdded,
		domain.MutationNodesAdded,
		domain.MutationConnectionsAdded,
	}
	if len(events) != len(want) {
		t.Fatalf("saw %d events, want %d: %v", len(events), len(want), events)
	}
	for i := range want {
		if events[i] != want[i] {
			t.Errorf("event[%d] = %v, want %v", i, events[i], want[i])
		}
	}
}

func TestFacade_LoadTwiceKeepsFirstDefinition(t *testing.T) {
	ed := patchbay.New()

	def := domain.ComponentDefinition{
		ID:   "comp-fixed",
		Name: "First",
		InternalNodes: []domain.Node{
			testNode("inner", domain.NodeTypeValue, nil, []string{"out"}),
		},
	}
	doc := document.New("lib")
	doc.Definitions = []domain.ComponentDefinition{def}
	if err := ed.LoadDocument(doc); err != nil {
		t.Fatal(err)
	}

	// A second load with a conflicting definition body must not clobber
	// the published one.
	redef := def
	redef.Name = "Second"
	again := document.New("lib")
	again.Definitions = []domain.ComponentDefinition{redef}
	if err := ed.LoadDocument(again); err != nil {
		t.Fatalf("reload failed: %v", err)
	}

	got, err := ed.Registry().Resolve("comp-fixed")
	if err != nil {
		t.Fatal(err)
	}
	if got.Name != "First" {
		t.Errorf("definition name = %q, published definitions are write-once", got.Name)
	}
}

func TestFacade_NestedDefinitionClosure(t *testing.T) {
	ed := patchbay.New()

	// inner is used only from inside outer, never by a top-level node.
	inner := domain.ComponentDefinition{
		ID:   "comp-inner",
		Name: "Inner",
		InternalNodes: []domain.Node{
			testNode("leaf", domain.NodeTypeValue, nil, []string{"out"}),
		},
	}
	outerInstance := testNode("nested", domain.NodeTypeComponent, []string{"in-0"}, nil)
	outerInstance.Data.ComponentID = "comp-inner"
	outer := domain.ComponentDefinition{
		ID:            "comp-outer",
		Name:          "Outer",
		InternalNodes: []domain.Node{outerInstance},
	}
	if err := ed.Registry().Publish(&inner); err != nil {
		t.Fatal(err)
	}
	if err := ed.Registry().Publish(&outer); err != nil {
		t.Fatal(err)
	}

	top := testNode("use", domain.NodeTypeComponent, []string{"in-0"}, nil)
	top.Data.ComponentID = "comp-outer"
	ed.AddNode(top)

	doc := ed.Document()
	if len(doc.Definitions) != 2 {
		t.Fatalf("expected the closure to carry both definitions, got %d", len(doc.Definitions))
	}
	if doc.Definitions[0].ID != "comp-outer" || doc.Definitions[1].ID != "comp-inner" {
		t.Errorf("closure order = [%s %s], want outer before inner",
			doc.Definitions[0].ID, doc.Definitions[1].ID)
	}
	if err := doc.Validate(); err != nil {
		t.Errorf("closure export does not validate: %v", err)
	}
}

func TestFacade_ErrorsAreSentinels(t *testing.T) {
	ed := patchbay.New()
	if err := ed.MoveNode("ghost", domain.Position{X: 1}); !errors.Is(err, domain.ErrNodeNotFound) {
		t.Errorf("MoveNode on unknown id = %v, want ErrNodeNotFound", err)
	}
	if _, err := ed.Ungroup("ghost"); !errors.Is(err, domain.ErrNodeNotFound) {
		t.Errorf("Ungroup on unknown id = %v, want ErrNodeNotFound", err)
	}
}
