package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"

	"github.com/patchbay-io/patchbay/pkg/domain"
)

// sseMessage is one framed server-sent event.
type sseMessage struct {
	event string
	data  string
}

// StreamManager handles active SSE connections, keyed by project.
type StreamManager struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan sseMessage]struct{}
}

func NewStreamManager() *StreamManager {
	return &StreamManager{
		subscribers: make(map[string]map[chan sseMessage]struct{}),
	}
}

// Subscribe registers a listener for a project. The returned cancel func
// must be called when the client goes away.
func (sm *StreamManager) Subscribe(projectID string) (chan sseMessage, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	ch := make(chan sseMessage, 16)
	if _, ok := sm.subscribers[projectID]; !ok {
		sm.subscribers[projectID] = make(map[chan sseMessage]struct{})
	}
	sm.subscribers[projectID][ch] = struct{}{}

	return ch, func() {
		sm.mu.Lock()
		defer sm.mu.Unlock()
		if subs, ok := sm.subscribers[projectID]; ok {
			delete(subs, ch)
			close(ch)
			if len(subs) == 0 {
				delete(sm.subscribers, projectID)
			}
		}
	}
}

// Broadcast fans a message out to every subscriber of a project. Slow
// clients lose messages rather than stalling the editor.
func (sm *StreamManager) Broadcast(projectID, event, data string) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	for ch := range sm.subscribers[projectID] {
		select {
		case ch <- sseMessage{event: event, data: data}:
		default:
		}
	}
}

// Hooks returns lifecycle hooks that stream a project's mutation and
// history events to its subscribers. The hooks run under the editor lock,
// so they only marshal and hand off.
func (sm *StreamManager) Hooks(projectID string) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnMutation: func(_ context.Context, ev *domain.MutationEvent) {
			if data, err := json.Marshal(ev); err == nil {
				sm.Broadcast(projectID, "mutation", string(data))
			}
		},
		OnHistory: func(_ context.Context, ev *domain.HistoryEvent) {
			if data, err := json.Marshal(ev); err == nil {
				sm.Broadcast(projectID, "history", string(data))
			}
		},
	}
}

// handleEvents streams a project's mutation feed as server-sent events.
// Every open canvas for a project subscribes here and re-renders from
// /snapshot on each event.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "streaming not supported"})
		s.logger.Error("sse: streaming not supported")
		return
	}

	projectID := chi.URLParam(r, "projectID")
	// Resolving the project installs its broadcast hooks if this is the
	// first touch. Unknown projects 404 instead of being created.
	if _, err := s.sessions.Lookup(r.Context(), projectID); err != nil {
		s.writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch, cancel := s.streams.Subscribe(projectID)
	defer cancel()
	s.logger.Info("sse: client subscribed", "project_id", projectID)

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			s.logger.Info("sse: client disconnected", "project_id", projectID)
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", msg.event, msg.data)
			flusher.Flush()
		}
	}
}
