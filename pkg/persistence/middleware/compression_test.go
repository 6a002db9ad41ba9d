package middleware_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/patchbay-io/patchbay/pkg/document"
	"github.com/patchbay-io/patchbay/pkg/domain"
	"github.com/patchbay-io/patchbay/pkg/persistence/middleware"
)

// bulkyDocument builds a graph with enough repeated structure for the
// codec to bite on.
func bulkyDocument() *document.GraphDocument {
	doc := document.New("bulky")
	for i := 0; i < 40; i++ {
		doc.Nodes = append(doc.Nodes, domain.Node{
			ID:       fmt.Sprintf("transform-node-%d", i),
			Type:     domain.NodeTypeTransform,
			Position: domain.Position{X: float64(i * 220), Y: 100},
			Data: domain.NodeData{
				Label:   fmt.Sprintf("Transform %d", i),
				Inputs:  []domain.Port{{ID: "in-0", Label: "Value"}, {ID: "in-1", Label: "Factor"}},
				Outputs: []domain.Port{{ID: "out-0", Label: "Result"}},
			},
		})
	}
	for i := 0; i < 39; i++ {
		doc.Connections = append(doc.Connections, domain.Connection{
			ID:           fmt.Sprintf("conn-%d", i),
			SourceNodeID: fmt.Sprintf("transform-node-%d", i),
			SourcePort:   "out-0",
			TargetNodeID: fmt.Sprintf("transform-node-%d", i+1),
			TargetPort:   "in-0",
		})
	}
	return doc
}

func TestCompressionMiddleware_Roundtrip(t *testing.T) {
	underlyingStore := NewMockStore()
	packedStore := middleware.NewCompressionMiddleware()(underlyingStore)

	ctx := context.Background()
	original := bulkyDocument()
	require.NoError(t, packedStore.Save(ctx, "bulky", original))

	// The backend holds an envelope, not the graph.
	stored, err := underlyingStore.Load(ctx, "bulky")
	require.NoError(t, err)
	require.Len(t, stored.Nodes, 1)
	assert.Empty(t, stored.Connections)

	// And the envelope is genuinely smaller than the plain encoding.
	plain, err := document.Marshal(original, document.FormatJSON)
	require.NoError(t, err)
	packed, err := document.Marshal(stored, document.FormatJSON)
	require.NoError(t, err)
	assert.Less(t, len(packed), len(plain), "compressed envelope should be smaller")

	loaded, err := packedStore.Load(ctx, "bulky")
	require.NoError(t, err)
	assert.Equal(t, original, loaded)
}

func TestCompressionMiddleware_PassesThroughPlainDocuments(t *testing.T) {
	underlyingStore := NewMockStore()
	ctx := context.Background()

	// Saved before compression was enabled.
	plainDoc := bulkyDocument()
	require.NoError(t, underlyingStore.Save(ctx, "old", plainDoc))

	packedStore := middleware.NewCompressionMiddleware()(underlyingStore)
	loaded, err := packedStore.Load(ctx, "old")
	require.NoError(t, err)
	assert.Equal(t, plainDoc, loaded, "pre-compression documents must load unchanged")
}

func TestChain_CompressThenEncrypt(t *testing.T) {
	underlyingStore := NewMockStore()
	key := generateKey(t)

	store := middleware.Chain(underlyingStore,
		middleware.NewCompressionMiddleware(),
		middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: key}),
	)

	ctx := context.Background()
	original := bulkyDocument()
	require.NoError(t, store.Save(ctx, "stacked", original))

	// The backend sees the encryption envelope (outer-to-inner on the
	// save path: compress first, then encrypt the compressed envelope).
	stored, err := underlyingStore.Load(ctx, "stacked")
	require.NoError(t, err)
	require.Len(t, stored.Nodes, 1)
	assert.Equal(t, "encrypted", stored.Nodes[0].Type)

	loaded, err := store.Load(ctx, "stacked")
	require.NoError(t, err)
	assert.Equal(t, original, loaded)
}
