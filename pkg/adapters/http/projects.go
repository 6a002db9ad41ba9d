package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/patchbay-io/patchbay"
	"github.com/patchbay-io/patchbay/pkg/document"
)

type createProjectRequest struct {
	ID string `json:"id"`
}

// handleListProjects returns every project id in the store.
func (s *Server) handleListProjects(w http.ResponseWriter, r *http.Request) {
	ids, err := s.sessions.List(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	writeJSON(w, http.StatusOK, map[string][]string{"projects": ids})
}

// handleCreateProject opens a project, creating it empty when absent.
func (s *Server) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	var body createProjectRequest
	if err := decode(r, &body); err != nil {
		s.writeBadRequest(w, r, err)
		return
	}
	if body.ID == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "project id is required"})
		return
	}
	ed, err := s.sessions.Open(r.Context(), body.ID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.logger.Info("project opened", "project_id", body.ID)
	writeJSON(w, http.StatusCreated, ed.Document())
}

// handleGetProject exports the project as a self-contained document.
func (s *Server) handleGetProject(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "projectID")
	ed, err := s.sessions.Lookup(r.Context(), projectID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ed.Document())
}

// handlePutProject replaces the project's graph with the posted document
// and persists it.
func (s *Server) handlePutProject(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "projectID")
	var doc document.GraphDocument
	if err := decode(r, &doc); err != nil {
		s.writeBadRequest(w, r, err)
		return
	}
	err := s.sessions.Mutate(r.Context(), projectID, func(ed *patchbay.Editor) error {
		return ed.LoadDocument(&doc)
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "replaced"})
}

// handleDeleteProject removes the project from the store and drops its
// live editor.
func (s *Server) handleDeleteProject(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "projectID")
	if err := s.sessions.Delete(r.Context(), projectID); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.logger.Info("project deleted", "project_id", projectID)
	w.WriteHeader(http.StatusNoContent)
}

// handleSnapshot returns the raw joint graph state, the shape a canvas
// renders from.
func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "projectID")
	ed, err := s.sessions.Lookup(r.Context(), projectID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ed.Snapshot())
}
