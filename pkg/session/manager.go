package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"log/slog"

	"github.com/patchbay-io/patchbay"
	"github.com/patchbay-io/patchbay/internal/logging"
	"github.com/patchbay-io/patchbay/pkg/document"
	"github.com/patchbay-io/patchbay/pkg/domain"
	"github.com/patchbay-io/patchbay/pkg/ports"
)

// lockEntry holds the per-project mutex and its reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Manager maps project ids to live editors and serializes access to them.
// It uses reference counting to garbage collect unused locks, so idle
// projects cost nothing.
type Manager struct {
	store ports.ProjectStore

	mu      sync.Mutex
	locks   map[string]*lockEntry
	editors map[string]*patchbay.Editor

	locker     ports.DistributedLocker
	lockTTL    time.Duration
	logger     *slog.Logger
	editorOpts []patchbay.Option
	perProject func(projectID string) []patchbay.Option
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed locking, for deployments where several
// replicas serve the same project store.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLockTTL sets the distributed lock lease. The default is 30 seconds.
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		m.lockTTL = ttl
	}
}

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithEditorOptions sets base options applied to every editor the manager
// creates.
func WithEditorOptions(opts ...patchbay.Option) Option {
	return func(m *Manager) {
		m.editorOpts = append(m.editorOpts, opts...)
	}
}

// WithEditorFactory adds per-project options, evaluated when a project's
// editor comes to life. Transport layers use this to attach per-project
// event hooks.
func WithEditorFactory(fn func(projectID string) []patchbay.Option) Option {
	return func(m *Manager) {
		m.perProject = fn
	}
}

// NewManager creates a session manager over the given project store.
func NewManager(store ports.ProjectStore, opts ...Option) *Manager {
	m := &Manager{
		store:   store,
		locks:   make(map[string]*lockEntry),
		editors: make(map[string]*patchbay.Editor),
		lockTTL: 30 * time.Second,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller MUST lock entry.mu and call release(projectID) after unlocking.
func (m *Manager) acquire(projectID string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[projectID]
	if !exists {
		entry = &lockEntry{}
		m.locks[projectID] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry at zero.
func (m *Manager) release(projectID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[projectID]
	if !exists {
		return
	}
	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, projectID)
	}
}

// WithLock executes fn while holding the project's lock, the distributed
// one included when configured. Calls must not nest on the same project.
func (m *Manager) WithLock(ctx context.Context, projectID string, fn func(context.Context) error) error {
	entry := m.acquire(projectID)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(projectID)
	}()

	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, projectID, m.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			if err := unlock(ctx); err != nil {
				m.logger.Warn("failed to release distributed lock (will expire via TTL)",
					"project_id", projectID,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}

// Open returns the live editor for a project, loading it from the store on
// first access. A project that does not exist yet is created empty and
// persisted immediately to reserve the id.
func (m *Manager) Open(ctx context.Context, projectID string) (*patchbay.Editor, error) {
	if ed, ok := m.live(projectID); ok {
		return ed, nil
	}

	var ed *patchbay.Editor
	err := m.WithLock(ctx, projectID, func(ctx context.Context) error {
		// Another caller may have raced us here.
		if cached, ok := m.live(projectID); ok {
			ed = cached
			return nil
		}

		doc, err := m.store.Load(ctx, projectID)
		switch {
		case err == nil:
		case errors.Is(err, domain.ErrProjectNotFound):
			doc = document.New(projectID)
			if err := m.store.Save(ctx, projectID, doc); err != nil {
				return fmt.Errorf("failed to initialize project: %w", err)
			}
			m.logger.Info("project created", "project_id", projectID)
		default:
			return fmt.Errorf("failed to check project existence: %w", err)
		}

		ed, err = m.revive(projectID, doc)
		return err
	})
	return ed, err
}

// Lookup returns the live editor for an existing project, loading it from
// the store on first access. Unlike Open, a missing project is an error,
// never an implicit create.
func (m *Manager) Lookup(ctx context.Context, projectID string) (*patchbay.Editor, error) {
	if ed, ok := m.live(projectID); ok {
		return ed, nil
	}

	var ed *patchbay.Editor
	err := m.WithLock(ctx, projectID, func(ctx context.Context) error {
		if cached, ok := m.live(projectID); ok {
			ed = cached
			return nil
		}
		doc, err := m.store.Load(ctx, projectID)
		if err != nil {
			return err
		}
		ed, err = m.revive(projectID, doc)
		return err
	})
	return ed, err
}

// revive builds the live editor for a loaded document and caches it.
// Callers hold the project lock.
func (m *Manager) revive(projectID string, doc *document.GraphDocument) (*patchbay.Editor, error) {
	opts := append([]patchbay.Option{patchbay.WithName(projectID)}, m.editorOpts...)
	if m.perProject != nil {
		opts = append(opts, m.perProject(projectID)...)
	}
	ed := patchbay.New(opts...)
	if err := ed.LoadDocument(doc); err != nil {
		return nil, fmt.Errorf("project %q is not loadable: %w", projectID, err)
	}

	m.mu.Lock()
	m.editors[projectID] = ed
	m.mu.Unlock()
	return ed, nil
}

// Mutate resolves an existing project, applies fn to its editor, and writes
// the result back to the store, all under the project lock. When the save
// fails the in-memory change survives; a later Save can retry.
func (m *Manager) Mutate(ctx context.Context, projectID string, fn func(*patchbay.Editor) error) error {
	ed, err := m.Lookup(ctx, projectID)
	if err != nil {
		return err
	}
	return m.WithLock(ctx, projectID, func(ctx context.Context) error {
		if err := fn(ed); err != nil {
			return err
		}
		return m.store.Save(ctx, projectID, ed.Document())
	})
}

// Save writes a live editor's state back to the store. Projects that are
// not open are already at rest and save trivially.
func (m *Manager) Save(ctx context.Context, projectID string) error {
	ed, ok := m.live(projectID)
	if !ok {
		return nil
	}
	return m.WithLock(ctx, projectID, func(ctx context.Context) error {
		return m.store.Save(ctx, projectID, ed.Document())
	})
}

// Close saves a live editor and evicts it. Closing a project that is not
// open is a no-op.
func (m *Manager) Close(ctx context.Context, projectID string) error {
	ed, ok := m.live(projectID)
	if !ok {
		return nil
	}
	return m.WithLock(ctx, projectID, func(ctx context.Context) error {
		if err := m.store.Save(ctx, projectID, ed.Document()); err != nil {
			return err
		}
		m.evict(projectID)
		return nil
	})
}

// Discard evicts a live editor without saving, dropping unsaved changes.
func (m *Manager) Discard(projectID string) {
	m.evict(projectID)
}

// Delete evicts the live editor, unsaved changes included, and removes the
// project from the store.
func (m *Manager) Delete(ctx context.Context, projectID string) error {
	return m.WithLock(ctx, projectID, func(ctx context.Context) error {
		m.evict(projectID)
		return m.store.Delete(ctx, projectID)
	})
}

// List returns every project id in the store.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	return m.store.List(ctx)
}

// Live returns the ids of projects with an open editor.
func (m *Manager) Live() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.editors))
	for id := range m.editors {
		out = append(out, id)
	}
	return out
}

// Store returns the underlying project store.
func (m *Manager) Store() ports.ProjectStore {
	return m.store
}

func (m *Manager) live(projectID string) (*patchbay.Editor, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ed, ok := m.editors[projectID]
	return ed, ok
}

func (m *Manager) evict(projectID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.editors, projectID)
}
