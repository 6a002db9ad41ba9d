package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/patchbay-io/patchbay/pkg/adapters/memory"
	"github.com/patchbay-io/patchbay/pkg/document"
	"github.com/patchbay-io/patchbay/pkg/domain"
	"github.com/patchbay-io/patchbay/pkg/observability"
)

// sourceNode and sinkNode build the minimal wireable pair most tests use.
func sourceNode(id string) domain.Node {
	return domain.Node{
		ID:   id,
		Type: domain.NodeTypeValue,
		Data: domain.NodeData{Outputs: []domain.Port{{ID: "out"}}},
	}
}

func sinkNode(id string) domain.Node {
	return domain.Node{
		ID:   id,
		Type: domain.NodeTypeDisplay,
		Data: domain.NodeData{Inputs: []domain.Port{{ID: "in"}}},
	}
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal %s %s body: %v", method, path, err)
		}
		rd = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, rd)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func createProject(t *testing.T, h http.Handler, id string) {
	t.Helper()
	w := doJSON(t, h, "POST", "/projects", createProjectRequest{ID: id})
	if w.Code != http.StatusCreated {
		t.Fatalf("create project %q: %d %s", id, w.Code, w.Body.String())
	}
}

func TestProjectLifecycle(t *testing.T) {
	store := memory.NewStore()
	h := NewServer(store).Handler()

	// 1. Create
	w := doJSON(t, h, "POST", "/projects", createProjectRequest{ID: "alpha"})
	if w.Code != http.StatusCreated {
		t.Fatalf("create: %d %s", w.Code, w.Body.String())
	}
	var doc document.GraphDocument
	if err := json.Unmarshal(w.Body.Bytes(), &doc); err != nil {
		t.Fatalf("decode create response: %v", err)
	}
	if doc.Name != "alpha" {
		t.Errorf("created document name = %q, want alpha", doc.Name)
	}

	// 2. Creating reserves the id in the store immediately.
	if _, err := store.Load(context.Background(), "alpha"); err != nil {
		t.Fatalf("store should hold the new project: %v", err)
	}

	// 3. List
	w = doJSON(t, h, "GET", "/projects", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list: %d", w.Code)
	}
	var list struct {
		Projects []string `json:"projects"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(list.Projects) != 1 || list.Projects[0] != "alpha" {
		t.Errorf("projects = %v, want [alpha]", list.Projects)
	}

	// 4. Get
	w = doJSON(t, h, "GET", "/projects/alpha", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get: %d %s", w.Code, w.Body.String())
	}

	// 5. Delete, then the id is gone
	w = doJSON(t, h, "DELETE", "/projects/alpha", nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("delete: %d", w.Code)
	}
	w = doJSON(t, h, "GET", "/projects/alpha", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("get after delete = %d, want 404", w.Code)
	}
}

func TestReadsNeverCreateProjects(t *testing.T) {
	store := memory.NewStore()
	h := NewServer(store).Handler()

	probes := []struct{ method, path string }{
		{"GET", "/projects/ghost"},
		{"GET", "/projects/ghost/snapshot"},
		{"GET", "/projects/ghost/history"},
		{"POST", "/projects/ghost/history/undo"},
	}
	for _, probe := range probes {
		w := doJSON(t, h, probe.method, probe.path, nil)
		if w.Code != http.StatusNotFound {
			t.Errorf("%s %s = %d, want 404", probe.method, probe.path, w.Code)
		}
	}

	// Probing must not create the project as a side effect.
	ids, err := store.List(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(ids) != 0 {
		t.Errorf("store ids = %v, want none", ids)
	}
}

func TestEditFlow_SavesThrough(t *testing.T) {
	store := memory.NewStore()
	h := NewServer(store).Handler()
	createProject(t, h, "patch")

	// 1. Two nodes
	w := doJSON(t, h, "POST", "/projects/patch/nodes", sourceNode("osc"))
	if w.Code != http.StatusCreated {
		t.Fatalf("add osc: %d %s", w.Code, w.Body.String())
	}
	w = doJSON(t, h, "POST", "/projects/patch/nodes", sinkNode("amp"))
	if w.Code != http.StatusCreated {
		t.Fatalf("add amp: %d %s", w.Code, w.Body.String())
	}

	// 2. Wire them
	w = doJSON(t, h, "POST", "/projects/patch/connections", connectRequest{
		SourceNodeID: "osc", SourcePort: "out",
		TargetNodeID: "amp", TargetPort: "in",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("connect: %d %s", w.Code, w.Body.String())
	}
	var conn domain.Connection
	if err := json.Unmarshal(w.Body.Bytes(), &conn); err != nil {
		t.Fatalf("decode connection: %v", err)
	}
	if conn.ID == "" {
		t.Error("connection id should be assigned")
	}

	// 3. Every mutation lands in the store before the response returns.
	saved, err := store.Load(context.Background(), "patch")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(saved.Nodes) != 2 || len(saved.Connections) != 1 {
		t.Errorf("saved %d nodes / %d connections, want 2/1", len(saved.Nodes), len(saved.Connections))
	}

	// 4. Undo drops the wire, in memory and in the store.
	w = doJSON(t, h, "POST", "/projects/patch/history/undo", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("undo: %d %s", w.Code, w.Body.String())
	}
	var undo struct {
		Moved   bool            `json:"moved"`
		History historyResponse `json:"history"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &undo); err != nil {
		t.Fatalf("decode undo: %v", err)
	}
	if !undo.Moved {
		t.Error("undo should report movement")
	}
	if !undo.History.CanRedo {
		t.Error("redo should be available after undo")
	}
	saved, err = store.Load(context.Background(), "patch")
	if err != nil {
		t.Fatalf("load after undo: %v", err)
	}
	if len(saved.Connections) != 0 {
		t.Errorf("saved %d connections after undo, want 0", len(saved.Connections))
	}

	// 5. A move shows up in the snapshot.
	w = doJSON(t, h, "PATCH", "/projects/patch/nodes/osc", moveNodeRequest{Position: domain.Position{X: 120, Y: 80}})
	if w.Code != http.StatusOK {
		t.Fatalf("move: %d %s", w.Code, w.Body.String())
	}
	w = doJSON(t, h, "GET", "/projects/patch/snapshot", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("snapshot: %d", w.Code)
	}
	var snap struct {
		Nodes []domain.Node `json:"nodes"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &snap); err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}
	var osc *domain.Node
	for i := range snap.Nodes {
		if snap.Nodes[i].ID == "osc" {
			osc = &snap.Nodes[i]
		}
	}
	if osc == nil {
		t.Fatal("snapshot should contain osc")
	}
	if osc.Position.X != 120 || osc.Position.Y != 80 {
		t.Errorf("osc position = %+v, want {120 80}", osc.Position)
	}
}

func TestGroupCompileExpand(t *testing.T) {
	store := memory.NewStore()
	h := NewServer(store).Handler()
	createProject(t, h, "rack")

	doJSON(t, h, "POST", "/projects/rack/nodes", sourceNode("osc"))
	doJSON(t, h, "POST", "/projects/rack/nodes", sinkNode("amp"))
	doJSON(t, h, "POST", "/projects/rack/connections", connectRequest{
		SourceNodeID: "osc", SourcePort: "out",
		TargetNodeID: "amp", TargetPort: "in",
	})

	// 1. Group the sink
	w := doJSON(t, h, "POST", "/projects/rack/groups", groupRequest{NodeIDs: []string{"amp"}, Label: "Out"})
	if w.Code != http.StatusCreated {
		t.Fatalf("group: %d %s", w.Code, w.Body.String())
	}
	var group domain.Node
	if err := json.Unmarshal(w.Body.Bytes(), &group); err != nil {
		t.Fatalf("decode group: %v", err)
	}
	if group.Type != domain.NodeTypeGroup {
		t.Errorf("group type = %q, want %q", group.Type, domain.NodeTypeGroup)
	}

	// 2. Compile it into a component
	w = doJSON(t, h, "POST", "/projects/rack/groups/"+group.ID+"/compile", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("compile: %d %s", w.Code, w.Body.String())
	}
	var compiled struct {
		Instance   domain.Node                `json:"instance"`
		Definition domain.ComponentDefinition `json:"definition"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &compiled); err != nil {
		t.Fatalf("decode compile: %v", err)
	}
	if compiled.Instance.Type != domain.NodeTypeComponent {
		t.Errorf("instance type = %q, want %q", compiled.Instance.Type, domain.NodeTypeComponent)
	}
	if compiled.Definition.Name != "Out" {
		t.Errorf("definition name = %q, want Out", compiled.Definition.Name)
	}

	// 3. The exported document embeds the definition.
	w = doJSON(t, h, "GET", "/projects/rack", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get: %d", w.Code)
	}
	var doc document.GraphDocument
	if err := json.Unmarshal(w.Body.Bytes(), &doc); err != nil {
		t.Fatalf("decode document: %v", err)
	}
	if len(doc.Definitions) != 1 {
		t.Fatalf("exported %d definitions, want 1", len(doc.Definitions))
	}

	// 4. Expand restores the member under its original id.
	w = doJSON(t, h, "POST", "/projects/rack/components/"+compiled.Instance.ID+"/expand", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expand: %d %s", w.Code, w.Body.String())
	}
	var expanded struct {
		Group    domain.Node   `json:"group"`
		Restored []domain.Node `json:"restored"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &expanded); err != nil {
		t.Fatalf("decode expand: %v", err)
	}
	if len(expanded.Restored) != 1 || expanded.Restored[0].ID != "amp" {
		t.Errorf("restored = %+v, want [amp]", expanded.Restored)
	}
}

func TestErrorStatuses(t *testing.T) {
	store := memory.NewStore()
	h := NewServer(store).Handler()
	createProject(t, h, "patch")
	doJSON(t, h, "POST", "/projects/patch/nodes", sourceNode("osc"))
	doJSON(t, h, "POST", "/projects/patch/nodes", sinkNode("amp"))
	wire := connectRequest{
		SourceNodeID: "osc", SourcePort: "out",
		TargetNodeID: "amp", TargetPort: "in",
	}
	doJSON(t, h, "POST", "/projects/patch/connections", wire)

	cases := []struct {
		name   string
		method string
		path   string
		body   any
		want   int
	}{
		{"empty project id", "POST", "/projects", createProjectRequest{}, http.StatusBadRequest},
		{"duplicate wire", "POST", "/projects/patch/connections", wire, http.StatusConflict},
		{"output to output", "POST", "/projects/patch/connections", connectRequest{
			SourceNodeID: "osc", SourcePort: "out",
			TargetNodeID: "osc", TargetPort: "out",
		}, http.StatusUnprocessableEntity},
		{"missing port", "POST", "/projects/patch/connections", connectRequest{
			SourceNodeID: "osc", SourcePort: "nope",
			TargetNodeID: "amp", TargetPort: "in",
		}, http.StatusNotFound},
		{"ungroup a non-group", "POST", "/projects/patch/groups/osc/ungroup", nil, http.StatusUnprocessableEntity},
		{"expand a non-component", "POST", "/projects/patch/components/osc/expand", nil, http.StatusUnprocessableEntity},
		{"delete unknown connection", "DELETE", "/projects/patch/connections/nope", nil, http.StatusNotFound},
		{"complete without a drag", "POST", "/projects/patch/drag/complete", dragLandRequest{NodeID: "amp", PortID: "in"}, http.StatusUnprocessableEntity},
	}
	for _, tc := range cases {
		w := doJSON(t, h, tc.method, tc.path, tc.body)
		if w.Code != tc.want {
			t.Errorf("%s: %s %s = %d, want %d (%s)", tc.name, tc.method, tc.path, w.Code, tc.want, w.Body.String())
		}
	}

	// Malformed JSON is a 400 before any editor work happens.
	req := httptest.NewRequest("POST", "/projects/patch/nodes", strings.NewReader("{"))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("malformed body = %d, want 400", w.Code)
	}
}

func TestPutProject_ValidatesDocument(t *testing.T) {
	store := memory.NewStore()
	h := NewServer(store).Handler()
	createProject(t, h, "patch")

	// A wire into a node the document does not contain.
	bad := document.GraphDocument{
		Name:  "patch",
		Nodes: []domain.Node{sourceNode("osc")},
		Connections: []domain.Connection{{
			ID: "c1", SourceNodeID: "osc", SourcePort: "out",
			TargetNodeID: "ghost", TargetPort: "in",
		}},
	}
	w := doJSON(t, h, "PUT", "/projects/patch", bad)
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("put invalid = %d %s, want 422", w.Code, w.Body.String())
	}
	var resp errorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	if len(resp.Issues) == 0 {
		t.Error("validation failure should list issues")
	}

	// The stored document is untouched.
	saved, err := store.Load(context.Background(), "patch")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(saved.Nodes) != 0 {
		t.Errorf("store picked up %d nodes from a rejected document", len(saved.Nodes))
	}

	// A valid document replaces the graph and persists.
	good := document.GraphDocument{
		Name:  "patch",
		Nodes: []domain.Node{sourceNode("osc"), sinkNode("amp")},
		Connections: []domain.Connection{{
			ID: "c1", SourceNodeID: "osc", SourcePort: "out",
			TargetNodeID: "amp", TargetPort: "in",
		}},
	}
	w = doJSON(t, h, "PUT", "/projects/patch", good)
	if w.Code != http.StatusOK {
		t.Fatalf("put valid = %d %s", w.Code, w.Body.String())
	}
	saved, err = store.Load(context.Background(), "patch")
	if err != nil {
		t.Fatalf("load after put: %v", err)
	}
	if len(saved.Nodes) != 2 || len(saved.Connections) != 1 {
		t.Errorf("saved %d nodes / %d connections, want 2/1", len(saved.Nodes), len(saved.Connections))
	}
}

func TestDragFlow(t *testing.T) {
	store := memory.NewStore()
	h := NewServer(store).Handler()
	createProject(t, h, "patch")
	doJSON(t, h, "POST", "/projects/patch/nodes", sourceNode("osc"))
	doJSON(t, h, "POST", "/projects/patch/nodes", sinkNode("amp"))

	// 1. No drag yet
	w := doJSON(t, h, "GET", "/projects/patch/drag", nil)
	var state struct {
		Active bool `json:"active"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &state); err != nil {
		t.Fatalf("decode drag state: %v", err)
	}
	if state.Active {
		t.Error("no drag should be active yet")
	}

	// 2. Start from the output port and move the pointer
	w = doJSON(t, h, "POST", "/projects/patch/drag/start", dragStartRequest{
		NodeID: "osc", PortID: "out", Pointer: domain.Position{X: 10, Y: 10},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("drag start: %d %s", w.Code, w.Body.String())
	}
	w = doJSON(t, h, "POST", "/projects/patch/drag/move", dragMoveRequest{Pointer: domain.Position{X: 200, Y: 60}})
	if w.Code != http.StatusNoContent {
		t.Fatalf("drag move: %d", w.Code)
	}
	w = doJSON(t, h, "GET", "/projects/patch/drag", nil)
	if err := json.Unmarshal(w.Body.Bytes(), &state); err != nil {
		t.Fatalf("decode drag state: %v", err)
	}
	if !state.Active {
		t.Error("drag should be active after start")
	}

	// 3. Gesture state never hits the store.
	saved, err := store.Load(context.Background(), "patch")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(saved.Connections) != 0 {
		t.Errorf("store holds %d connections mid-drag, want 0", len(saved.Connections))
	}

	// 4. Landing on the input port commits and persists the wire.
	w = doJSON(t, h, "POST", "/projects/patch/drag/complete", dragLandRequest{NodeID: "amp", PortID: "in"})
	if w.Code != http.StatusCreated {
		t.Fatalf("drag complete: %d %s", w.Code, w.Body.String())
	}
	saved, err = store.Load(context.Background(), "patch")
	if err != nil {
		t.Fatalf("load after complete: %v", err)
	}
	if len(saved.Connections) != 1 {
		t.Errorf("saved %d connections, want 1", len(saved.Connections))
	}
}

func TestActionBracketIsOneUndoStep(t *testing.T) {
	store := memory.NewStore()
	h := NewServer(store).Handler()
	createProject(t, h, "patch")

	// 1. Open the bracket and batch two adds
	w := doJSON(t, h, "POST", "/projects/patch/actions/begin", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("begin: %d %s", w.Code, w.Body.String())
	}
	doJSON(t, h, "POST", "/projects/patch/nodes", sourceNode("osc"))
	doJSON(t, h, "POST", "/projects/patch/nodes", sinkNode("amp"))

	// 2. Closing it coalesces the gesture into a single undo step.
	w = doJSON(t, h, "POST", "/projects/patch/actions/end", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("end: %d %s", w.Code, w.Body.String())
	}
	var hist historyResponse
	if err := json.Unmarshal(w.Body.Bytes(), &hist); err != nil {
		t.Fatalf("decode history: %v", err)
	}
	if hist.UndoDepth != 1 {
		t.Errorf("undo depth = %d, want 1", hist.UndoDepth)
	}

	// 3. One undo drops both nodes.
	w = doJSON(t, h, "POST", "/projects/patch/history/undo", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("undo: %d %s", w.Code, w.Body.String())
	}
	saved, err := store.Load(context.Background(), "patch")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(saved.Nodes) != 0 {
		t.Errorf("undoing the gesture kept %d nodes, want 0", len(saved.Nodes))
	}
}

func TestInfoAndHealth(t *testing.T) {
	h := NewServer(memory.NewStore()).Handler()

	w := doJSON(t, h, "GET", "/healthz", nil)
	if w.Code != http.StatusOK {
		t.Errorf("healthz: %d", w.Code)
	}

	w = doJSON(t, h, "GET", "/info", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("info: %d", w.Code)
	}
	var info struct {
		App     string `json:"app"`
		Version string `json:"version"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &info); err != nil {
		t.Fatalf("decode info: %v", err)
	}
	if info.App != "patchbay-http" {
		t.Errorf("app = %q", info.App)
	}
	if info.Version == "" {
		t.Error("version should not be empty")
	}
}

func TestMetricsEndpoint(t *testing.T) {
	store := memory.NewStore()
	srv := NewServer(store, WithMetrics(observability.NewMetrics()))
	h := srv.Handler()
	createProject(t, h, "patch")
	doJSON(t, h, "POST", "/projects/patch/nodes", sourceNode("osc"))

	w := doJSON(t, h, "GET", "/metrics", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("metrics: %d", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, "patchbay_mutations_total") {
		t.Error("scrape should expose the mutation counter")
	}
	if !strings.Contains(body, "patchbay_graph_nodes 1") {
		t.Error("node gauge should track the add")
	}
}

func TestCORSPreflight(t *testing.T) {
	h := NewServer(memory.NewStore()).Handler()

	req := httptest.NewRequest("OPTIONS", "/projects", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("preflight = %d, want 200", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("allow-origin = %q, want *", got)
	}
	if allow := w.Header().Get("Access-Control-Allow-Methods"); !strings.Contains(allow, "PATCH") {
		t.Errorf("allow-methods %q should include PATCH", allow)
	}
}
