package middleware

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/golang/snappy"

	"github.com/patchbay-io/patchbay/pkg/document"
	"github.com/patchbay-io/patchbay/pkg/ports"
)

const (
	compressedVaultType  = "compressed"
	compressedPayloadKey = "__snappy__"
)

type compressionMiddleware struct {
	next ports.ProjectStore
}

// NewCompressionMiddleware creates a middleware that snappy-compresses
// documents on their way to the store. Graph documents are repetitive
// (ids, port names, type strings), so even a byte-oriented codec cuts
// them down substantially; worth it for Redis-backed stores with TTLs
// and many large projects.
func NewCompressionMiddleware() Middleware {
	return func(next ports.ProjectStore) ports.ProjectStore {
		return &compressionMiddleware{next: next}
	}
}

func (m *compressionMiddleware) Save(ctx context.Context, projectID string, doc *document.GraphDocument) error {
	plainText, err := document.Marshal(doc, document.FormatJSON)
	if err != nil {
		return fmt.Errorf("failed to marshal project: %w", err)
	}

	compressed := snappy.Encode(nil, plainText)
	envelope := sealEnvelope(doc.Name, compressedVaultType, compressedPayloadKey,
		base64.StdEncoding.EncodeToString(compressed))

	return m.next.Save(ctx, projectID, envelope)
}

func (m *compressionMiddleware) Load(ctx context.Context, projectID string) (*document.GraphDocument, error) {
	envelope, err := m.next.Load(ctx, projectID)
	if err != nil {
		return nil, err
	}

	// Unlike encryption there is nothing to protect here, so documents
	// saved before compression was enabled pass through unchanged.
	payload, ok := openEnvelope(envelope, compressedVaultType, compressedPayloadKey)
	if !ok {
		return envelope, nil
	}

	compressed, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to decode compressed payload base64: %w", err)
	}

	plainText, err := snappy.Decode(nil, compressed)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress project: %w", err)
	}

	doc, err := document.Unmarshal(plainText, document.FormatJSON)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal decompressed project: %w", err)
	}
	return doc, nil
}

func (m *compressionMiddleware) Delete(ctx context.Context, projectID string) error {
	return m.next.Delete(ctx, projectID)
}

func (m *compressionMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}
