// Package http exposes the editor over REST plus an SSE mutation stream,
// the transport a browser canvas talks to.
//
// One Server owns a session manager over a ProjectStore: every request
// addresses a project by id, the manager keeps the live editors, and each
// mutating endpoint saves through to the store before it returns. Mutation
// events fan out to SSE subscribers per project, so every open canvas for a
// project converges without polling.
package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/patchbay-io/patchbay"
	"github.com/patchbay-io/patchbay/internal/logging"
	"github.com/patchbay-io/patchbay/pkg/observability"
	"github.com/patchbay-io/patchbay/pkg/ports"
	"github.com/patchbay-io/patchbay/pkg/session"
)

// Server wires the HTTP surface over a project store.
type Server struct {
	sessions *session.Manager
	streams  *StreamManager
	metrics  *observability.Metrics
	logger   *slog.Logger

	locker     ports.DistributedLocker
	editorOpts []patchbay.Option
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithLocker adds a distributed locker for multi-replica deployments.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(s *Server) {
		s.locker = locker
	}
}

// WithMetrics mounts a prometheus endpoint at /metrics and attaches the
// collector hooks to every editor.
func WithMetrics(m *observability.Metrics) Option {
	return func(s *Server) {
		s.metrics = m
	}
}

// WithEditorOptions sets base options for every editor the server opens.
func WithEditorOptions(opts ...patchbay.Option) Option {
	return func(s *Server) {
		s.editorOpts = append(s.editorOpts, opts...)
	}
}

// NewServer builds the HTTP surface over a project store.
func NewServer(store ports.ProjectStore, opts ...Option) *Server {
	s := &Server{
		streams: NewStreamManager(),
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	mgrOpts := []session.Option{
		session.WithLogger(s.logger),
		session.WithEditorOptions(s.editorOpts...),
		session.WithEditorFactory(s.editorHooks),
	}
	if s.locker != nil {
		mgrOpts = append(mgrOpts, session.WithLocker(s.locker))
	}
	s.sessions = session.NewManager(store, mgrOpts...)
	return s
}

// Sessions returns the session manager, for callers that need lifecycle
// control beyond the HTTP surface (draining on shutdown, warm-up).
func (s *Server) Sessions() *session.Manager {
	return s.sessions
}

// editorHooks attaches the SSE broadcast, and the metrics collectors when
// configured, to a project's editor.
func (s *Server) editorHooks(projectID string) []patchbay.Option {
	combined := s.streams.Hooks(projectID)
	if s.metrics != nil {
		combined = observability.CombineHooks(combined, s.metrics.Hooks())
	}
	return []patchbay.Option{patchbay.WithLifecycleHooks(combined)}
}

// Handler assembles the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", s.handleHealth)
	r.Get("/info", s.handleInfo)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(
			s.metrics.Registry(),
			promhttp.HandlerOpts{},
		))
	}

	r.Route("/projects", func(r chi.Router) {
		r.Get("/", s.handleListProjects)
		r.Post("/", s.handleCreateProject)

		r.Route("/{projectID}", func(r chi.Router) {
			r.Get("/", s.handleGetProject)
			r.Put("/", s.handlePutProject)
			r.Delete("/", s.handleDeleteProject)
			r.Get("/snapshot", s.handleSnapshot)
			r.Get("/events", s.handleEvents)

			r.Post("/nodes", s.handleAddNode)
			r.Patch("/nodes/{nodeID}", s.handleMoveNode)
			r.Delete("/nodes/{nodeID}", s.handleRemoveNode)
			r.Post("/nodes/remove", s.handleRemoveNodes)

			r.Post("/connections", s.handleConnect)
			r.Delete("/connections/{connectionID}", s.handleDeleteConnection)

			r.Post("/groups", s.handleGroup)
			r.Post("/groups/{groupID}/ungroup", s.handleUngroup)
			r.Post("/groups/{groupID}/compile", s.handleCompile)
			r.Post("/components/{instanceID}/expand", s.handleExpand)

			r.Get("/history", s.handleHistory)
			r.Post("/history/undo", s.handleUndo)
			r.Post("/history/redo", s.handleRedo)
			r.Post("/actions/begin", s.handleBeginAction)
			r.Post("/actions/end", s.handleEndAction)

			r.Get("/drag", s.handleDragState)
			r.Post("/drag/start", s.handleDragStart)
			r.Post("/drag/move", s.handleDragMove)
			r.Post("/drag/complete", s.handleDragComplete)
			r.Post("/drag/cancel", s.handleDragCancel)
		})
	})

	return enableCORS(r)
}

// enableCORS opens the API to browser canvases served from another origin.
func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Custom-Header")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// handleHealth reports liveness.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleInfo reports the app identity and version.
func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"app":           "patchbay-http",
		"version":       strings.TrimSpace(patchbay.Version),
		"live_projects": len(s.sessions.Live()),
	})
}

func decode(r *http.Request, into any) error {
	return json.NewDecoder(r.Body).Decode(into)
}
