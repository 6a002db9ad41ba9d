// Package redis persists projects to Redis and provides a distributed
// lock, letting several Patchbay replicas serve the same project pool.
package redis

import (
	"context"
	"fmt"
	"time"

	backend "github.com/redis/go-redis/v9"

	"github.com/patchbay-io/patchbay/pkg/document"
	"github.com/patchbay-io/patchbay/pkg/domain"
)

const defaultPrefix = "patchbay:"

// Store implements ports.ProjectStore on Redis. Documents are stored as
// JSON values; a sorted set indexes project IDs by expiry time so List
// stays a single round trip.
type Store struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
}

// Option configures a Store.
type Option func(*Store)

// WithPrefix sets the key namespace. The default is "patchbay:".
func WithPrefix(prefix string) Option {
	return func(s *Store) { s.prefix = prefix }
}

// WithTTL sets an expiry on stored projects. Zero (the default) keeps
// them forever.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) { s.ttl = ttl }
}

// NewFromClient creates a store on an existing Redis client.
func NewFromClient(client *backend.Client, opts ...Option) *Store {
	s := &Store{
		client: client,
		prefix: defaultPrefix,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) docKey(projectID string) string {
	return s.prefix + "project:" + projectID
}

func (s *Store) indexKey() string {
	return s.prefix + "projects"
}

// Save serializes the document and writes it together with its index
// entry. The index score is the expiry instant (zero when the store has
// no TTL), which lets List prune lazily without a scan.
func (s *Store) Save(ctx context.Context, projectID string, doc *document.GraphDocument) error {
	payload, err := document.Marshal(doc, document.FormatJSON)
	if err != nil {
		return fmt.Errorf("serialize project %q: %w", projectID, err)
	}

	var score float64
	if s.ttl > 0 {
		score = float64(time.Now().Add(s.ttl).UnixNano())
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, s.docKey(projectID), payload, s.ttl)
	pipe.ZAdd(ctx, s.indexKey(), backend.Z{Score: score, Member: projectID})
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis error saving project %q: %w", projectID, err)
	}
	return nil
}

// Load fetches and parses the document.
func (s *Store) Load(ctx context.Context, projectID string) (*document.GraphDocument, error) {
	payload, err := s.client.Get(ctx, s.docKey(projectID)).Bytes()
	if err == backend.Nil {
		return nil, domain.ErrProjectNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis error loading project %q: %w", projectID, err)
	}

	doc, err := document.Unmarshal(payload, document.FormatJSON)
	if err != nil {
		return nil, fmt.Errorf("corrupt project %q: %w", projectID, err)
	}
	return doc, nil
}

// Delete removes the document and its index entry.
func (s *Store) Delete(ctx context.Context, projectID string) error {
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, s.docKey(projectID))
	pipe.ZRem(ctx, s.indexKey(), projectID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis error deleting project %q: %w", projectID, err)
	}
	return nil
}

// List returns the project IDs currently indexed. With a TTL configured
// it first drops entries whose expiry score has passed; the document keys
// themselves expire via Redis, this only keeps the index honest.
func (s *Store) List(ctx context.Context) ([]string, error) {
	if s.ttl > 0 {
		now := fmt.Sprintf("%d", time.Now().UnixNano())
		if err := s.client.ZRemRangeByScore(ctx, s.indexKey(), "(0", now).Err(); err != nil {
			return nil, fmt.Errorf("redis error pruning project index: %w", err)
		}
	}

	projects, err := s.client.ZRange(ctx, s.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("redis error listing projects: %w", err)
	}
	return projects, nil
}
