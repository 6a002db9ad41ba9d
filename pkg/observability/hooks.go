package observability

import (
	"context"
	"log/slog"

	"github.com/patchbay-io/patchbay/pkg/domain"
)

// CombineHooks fans events out to every hook set in order. Nil callbacks
// are skipped, so sparse hook sets compose without wrappers.
func CombineHooks(hooks ...domain.LifecycleHooks) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnMutation: func(ctx context.Context, evt *domain.MutationEvent) {
			for _, h := range hooks {
				if h.OnMutation != nil {
					h.OnMutation(ctx, evt)
				}
			}
		},
		OnHistory: func(ctx context.Context, evt *domain.HistoryEvent) {
			for _, h := range hooks {
				if h.OnHistory != nil {
					h.OnHistory(ctx, evt)
				}
			}
		},
	}
}

// LoggingHooks emits one structured log line per mutation and history
// movement. Mutations log at Info, history bookkeeping at Debug.
func LoggingHooks(log *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnMutation: func(ctx context.Context, evt *domain.MutationEvent) {
			log.InfoContext(ctx, "graph mutated",
				"kind", evt.Kind,
				"nodes", evt.NodeCount,
				"connections", evt.ConnectionCount,
				"restoring", evt.Restoring,
				"took", evt.Duration,
			)
		},
		OnHistory: func(ctx context.Context, evt *domain.HistoryEvent) {
			log.DebugContext(ctx, "history moved",
				"op", evt.Op,
				"undoDepth", evt.UndoDepth,
				"redoDepth", evt.RedoDepth,
			)
		},
	}
}
