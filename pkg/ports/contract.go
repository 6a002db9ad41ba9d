package ports

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/patchbay-io/patchbay/pkg/document"
	"github.com/patchbay-io/patchbay/pkg/domain"
)

// RunProjectStoreContract runs a suite of tests to verify that a
// ProjectStore implementation adheres to the defined interface contract.
func RunProjectStoreContract(t *testing.T, store ProjectStore) {
	ctx := context.Background()
	projectID := "contract-test-project-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		original := contractDocument()

		err := store.Save(ctx, projectID, original)
		require.NoError(t, err, "Save should not return error")

		loaded, err := store.Load(ctx, projectID)
		require.NoError(t, err, "Load should not return error")

		// Every persisted field must come back unchanged.
		assert.Equal(t, original.Name, loaded.Name)
		require.Len(t, loaded.Nodes, len(original.Nodes))
		assert.Equal(t, original.Nodes, loaded.Nodes)
		assert.Equal(t, original.Connections, loaded.Connections)
		assert.Equal(t, original.Definitions, loaded.Definitions)
	})

	t.Run("Save Takes a Private Copy", func(t *testing.T) {
		doc := contractDocument()
		require.NoError(t, store.Save(ctx, projectID, doc))

		// Mutating after Save must not affect what Load returns.
		doc.Nodes[0].Data.Label = "mutated-after-save"
		doc.Connections[0].IsDashed = false

		loaded, err := store.Load(ctx, projectID)
		require.NoError(t, err)
		assert.Equal(t, "Source", loaded.Nodes[0].Data.Label)
		assert.True(t, loaded.Connections[0].IsDashed)
	})

	t.Run("Overwrite", func(t *testing.T) {
		first := contractDocument()
		require.NoError(t, store.Save(ctx, projectID, first))

		second := contractDocument()
		second.Name = "renamed"
		second.Nodes = second.Nodes[:1]
		second.Connections = nil
		require.NoError(t, store.Save(ctx, projectID, second))

		loaded, err := store.Load(ctx, projectID)
		require.NoError(t, err)
		assert.Equal(t, "renamed", loaded.Name)
		assert.Len(t, loaded.Nodes, 1)
		assert.Empty(t, loaded.Connections)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+projectID)
		assert.ErrorIs(t, err, domain.ErrProjectNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, projectID, contractDocument()))

		err := store.Delete(ctx, projectID)
		require.NoError(t, err, "Delete should not return error")

		_, err = store.Load(ctx, projectID)
		assert.ErrorIs(t, err, domain.ErrProjectNotFound, "Load after Delete should return ErrProjectNotFound")

		assert.NoError(t, store.Delete(ctx, projectID), "Delete should be idempotent")
	})

	t.Run("List", func(t *testing.T) {
		id1 := projectID + "-1"
		id2 := projectID + "-2"
		require.NoError(t, store.Save(ctx, id1, contractDocument()))
		require.NoError(t, store.Save(ctx, id2, contractDocument()))

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		projects, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, projects, id1)
		assert.Contains(t, projects, id2)
	})
}

// contractDocument exercises every field the persistence contract covers:
// dashed and ghost flags, sizing, group membership, component instances,
// and an embedded definition with bindings.
func contractDocument() *document.GraphDocument {
	return &document.GraphDocument{
		Name: "contract",
		Nodes: []domain.Node{
			{
				ID:       "src",
				Type:     domain.NodeTypeValue,
				Position: domain.Position{X: 100, Y: 60},
				Data: domain.NodeData{
					Label:   "Source",
					Outputs: []domain.Port{{ID: "out-0", Label: "Value"}},
					Width:   160,
					Height:  90,
					Extra:   map[string]any{"literal": "42"},
				},
			},
			{
				ID:       "inst",
				Type:     domain.NodeTypeComponent,
				Position: domain.Position{X: 400, Y: 60},
				Data: domain.NodeData{
					Label:       "Stage",
					Inputs:      []domain.Port{{ID: "in-0"}},
					ComponentID: "comp-contract",
				},
			},
			{
				ID:       "frame",
				Type:     domain.NodeTypeGroup,
				Position: domain.Position{X: 60, Y: 20},
				Data: domain.NodeData{
					Width:        600,
					Height:       280,
					ChildNodeIDs: []string{"src", "inst"},
				},
			},
		},
		Connections: []domain.Connection{
			{ID: "c1", SourceNodeID: "src", SourcePort: "out-0", TargetNodeID: "inst", TargetPort: "in-0", IsDashed: true, IsGhost: true},
		},
		Definitions: []domain.ComponentDefinition{
			{
				ID:         "comp-contract",
				Name:       "Stage",
				InputPorts: []domain.Port{{ID: "in-0", Label: "Signal"}},
				InternalNodes: []domain.Node{
					{
						ID:   "inner",
						Type: domain.NodeTypeTransform,
						Data: domain.NodeData{Inputs: []domain.Port{{ID: "i"}}},
					},
				},
				InputBindings: []domain.PortBinding{
					{ComponentPortID: "in-0", NodeID: "inner", PortID: "i"},
				},
				Origin: domain.Position{X: 380, Y: 40},
			},
		},
	}
}
