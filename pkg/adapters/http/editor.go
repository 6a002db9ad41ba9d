package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/patchbay-io/patchbay"
	"github.com/patchbay-io/patchbay/pkg/domain"
)

type moveNodeRequest struct {
	Position domain.Position `json:"position"`
}

type removeNodesRequest struct {
	IDs []string `json:"ids"`
}

type connectRequest struct {
	SourceNodeID string `json:"sourceNodeId"`
	SourcePort   string `json:"sourcePort"`
	TargetNodeID string `json:"targetNodeId"`
	TargetPort   string `json:"targetPort"`
}

type groupRequest struct {
	NodeIDs []string `json:"nodeIds"`
	Label   string   `json:"label"`
}

type dragStartRequest struct {
	NodeID  string          `json:"nodeId"`
	PortID  string          `json:"portId"`
	Pointer domain.Position `json:"pointer"`
}

type dragMoveRequest struct {
	Pointer domain.Position `json:"pointer"`
}

type dragLandRequest struct {
	NodeID string `json:"nodeId"`
	PortID string `json:"portId"`
}

type historyResponse struct {
	CanUndo   bool `json:"canUndo"`
	CanRedo   bool `json:"canRedo"`
	UndoDepth int  `json:"undoDepth"`
	RedoDepth int  `json:"redoDepth"`
}

// mutate runs one editor operation with save-through and answers with the
// operation's result.
func (s *Server) mutate(w http.ResponseWriter, r *http.Request, status int, fn func(ed *patchbay.Editor) (any, error)) {
	projectID := chi.URLParam(r, "projectID")
	var result any
	err := s.sessions.Mutate(r.Context(), projectID, func(ed *patchbay.Editor) error {
		var err error
		result, err = fn(ed)
		return err
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, status, result)
}

// open resolves the project's live editor for read-only and gesture
// endpoints, which skip the save-through path. Unknown projects 404.
func (s *Server) open(w http.ResponseWriter, r *http.Request) (*patchbay.Editor, bool) {
	projectID := chi.URLParam(r, "projectID")
	ed, err := s.sessions.Lookup(r.Context(), projectID)
	if err != nil {
		s.writeError(w, r, err)
		return nil, false
	}
	return ed, true
}

// --- Nodes ------------------------------------------------------------------

func (s *Server) handleAddNode(w http.ResponseWriter, r *http.Request) {
	var node domain.Node
	if err := decode(r, &node); err != nil {
		s.writeBadRequest(w, r, err)
		return
	}
	s.mutate(w, r, http.StatusCreated, func(ed *patchbay.Editor) (any, error) {
		return ed.AddNode(node), nil
	})
}

func (s *Server) handleMoveNode(w http.ResponseWriter, r *http.Request) {
	nodeID := chi.URLParam(r, "nodeID")
	var body moveNodeRequest
	if err := decode(r, &body); err != nil {
		s.writeBadRequest(w, r, err)
		return
	}
	s.mutate(w, r, http.StatusOK, func(ed *patchbay.Editor) (any, error) {
		if err := ed.MoveNode(nodeID, body.Position); err != nil {
			return nil, err
		}
		n, _ := ed.Node(nodeID)
		return n, nil
	})
}

func (s *Server) handleRemoveNode(w http.ResponseWriter, r *http.Request) {
	nodeID := chi.URLParam(r, "nodeID")
	s.mutate(w, r, http.StatusOK, func(ed *patchbay.Editor) (any, error) {
		removed := ed.RemoveNodes(nodeID)
		return map[string][]string{"removed": removed}, nil
	})
}

// handleRemoveNodes deletes a whole selection in one transaction, so a
// multi-select delete is a single undo step.
func (s *Server) handleRemoveNodes(w http.ResponseWriter, r *http.Request) {
	var body removeNodesRequest
	if err := decode(r, &body); err != nil {
		s.writeBadRequest(w, r, err)
		return
	}
	s.mutate(w, r, http.StatusOK, func(ed *patchbay.Editor) (any, error) {
		removed := ed.RemoveNodes(body.IDs...)
		return map[string][]string{"removed": removed}, nil
	})
}

// --- Connections ------------------------------------------------------------

func (s *Server) handleConnect(w http.ResponseWriter, r *http.Request) {
	var body connectRequest
	if err := decode(r, &body); err != nil {
		s.writeBadRequest(w, r, err)
		return
	}
	s.mutate(w, r, http.StatusCreated, func(ed *patchbay.Editor) (any, error) {
		return ed.Connect(body.SourceNodeID, body.SourcePort, body.TargetNodeID, body.TargetPort)
	})
}

func (s *Server) handleDeleteConnection(w http.ResponseWriter, r *http.Request) {
	connID := chi.URLParam(r, "connectionID")
	s.mutate(w, r, http.StatusOK, func(ed *patchbay.Editor) (any, error) {
		if !ed.DeleteConnection(connID) {
			return nil, domain.ErrConnectionNotFound
		}
		return map[string]string{"deleted": connID}, nil
	})
}

// --- Groups and components --------------------------------------------------

func (s *Server) handleGroup(w http.ResponseWriter, r *http.Request) {
	var body groupRequest
	if err := decode(r, &body); err != nil {
		s.writeBadRequest(w, r, err)
		return
	}
	s.mutate(w, r, http.StatusCreated, func(ed *patchbay.Editor) (any, error) {
		return ed.Group(body.NodeIDs, body.Label)
	})
}

func (s *Server) handleUngroup(w http.ResponseWriter, r *http.Request) {
	groupID := chi.URLParam(r, "groupID")
	s.mutate(w, r, http.StatusOK, func(ed *patchbay.Editor) (any, error) {
		members, err := ed.Ungroup(groupID)
		if err != nil {
			return nil, err
		}
		return map[string][]string{"members": members}, nil
	})
}

func (s *Server) handleCompile(w http.ResponseWriter, r *http.Request) {
	groupID := chi.URLParam(r, "groupID")
	s.mutate(w, r, http.StatusOK, func(ed *patchbay.Editor) (any, error) {
		instance, def, err := ed.Compile(groupID)
		if err != nil {
			return nil, err
		}
		return map[string]any{"instance": instance, "definition": def}, nil
	})
}

func (s *Server) handleExpand(w http.ResponseWriter, r *http.Request) {
	instanceID := chi.URLParam(r, "instanceID")
	s.mutate(w, r, http.StatusOK, func(ed *patchbay.Editor) (any, error) {
		group, restored, err := ed.Expand(instanceID)
		if err != nil {
			return nil, err
		}
		return map[string]any{"group": group, "restored": restored}, nil
	})
}

// --- History ----------------------------------------------------------------

func historyOf(ed *patchbay.Editor) historyResponse {
	return historyResponse{
		CanUndo:   ed.CanUndo(),
		CanRedo:   ed.CanRedo(),
		UndoDepth: ed.UndoDepth(),
		RedoDepth: ed.RedoDepth(),
	}
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	ed, ok := s.open(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, historyOf(ed))
}

func (s *Server) handleUndo(w http.ResponseWriter, r *http.Request) {
	s.mutate(w, r, http.StatusOK, func(ed *patchbay.Editor) (any, error) {
		moved := ed.Undo()
		resp := map[string]any{"moved": moved, "history": historyOf(ed)}
		return resp, nil
	})
}

func (s *Server) handleRedo(w http.ResponseWriter, r *http.Request) {
	s.mutate(w, r, http.StatusOK, func(ed *patchbay.Editor) (any, error) {
		moved := ed.Redo()
		resp := map[string]any{"moved": moved, "history": historyOf(ed)}
		return resp, nil
	})
}

// Action brackets are deliberately not save-through: the batch is still
// open, and the client ends it with /actions/end which persists the whole
// gesture at once.
func (s *Server) handleBeginAction(w http.ResponseWriter, r *http.Request) {
	ed, ok := s.open(w, r)
	if !ok {
		return
	}
	ed.BeginAction()
	writeJSON(w, http.StatusOK, map[string]string{"status": "open"})
}

func (s *Server) handleEndAction(w http.ResponseWriter, r *http.Request) {
	s.mutate(w, r, http.StatusOK, func(ed *patchbay.Editor) (any, error) {
		ed.EndAction()
		return historyOf(ed), nil
	})
}

// --- Drag gestures ----------------------------------------------------------
//
// Drag state is ephemeral and never part of the document, so start, move
// and cancel skip the save-through path. Completing a drag commits a
// connection and goes through it.

func (s *Server) handleDragState(w http.ResponseWriter, r *http.Request) {
	ed, ok := s.open(w, r)
	if !ok {
		return
	}
	drag := ed.DragState()
	if drag == nil {
		writeJSON(w, http.StatusOK, map[string]any{"active": false})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"active": true, "drag": drag})
}

func (s *Server) handleDragStart(w http.ResponseWriter, r *http.Request) {
	var body dragStartRequest
	if err := decode(r, &body); err != nil {
		s.writeBadRequest(w, r, err)
		return
	}
	ed, ok := s.open(w, r)
	if !ok {
		return
	}
	if err := ed.StartConnection(body.NodeID, body.PortID, body.Pointer); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "dragging"})
}

func (s *Server) handleDragMove(w http.ResponseWriter, r *http.Request) {
	var body dragMoveRequest
	if err := decode(r, &body); err != nil {
		s.writeBadRequest(w, r, err)
		return
	}
	ed, ok := s.open(w, r)
	if !ok {
		return
	}
	ed.UpdateDrag(body.Pointer)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDragComplete(w http.ResponseWriter, r *http.Request) {
	var body dragLandRequest
	if err := decode(r, &body); err != nil {
		s.writeBadRequest(w, r, err)
		return
	}
	s.mutate(w, r, http.StatusCreated, func(ed *patchbay.Editor) (any, error) {
		return ed.CompleteConnection(body.NodeID, body.PortID)
	})
}

func (s *Server) handleDragCancel(w http.ResponseWriter, r *http.Request) {
	ed, ok := s.open(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"cancelled": ed.CancelConnection()})
}
