package loam_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	loamstore "github.com/patchbay-io/patchbay/pkg/adapters/loam"
	"github.com/patchbay-io/patchbay/pkg/document"
	"github.com/patchbay-io/patchbay/pkg/domain"
	"github.com/patchbay-io/patchbay/pkg/ports"
)

func newTestLibrary(t *testing.T) *loamstore.Library {
	t.Helper()
	lib, err := loamstore.NewLibrary(t.TempDir())
	require.NoError(t, err, "failed to init library")
	return lib
}

func TestLibrary_Contract(t *testing.T) {
	ports.RunProjectStoreContract(t, newTestLibrary(t))
}

func TestLibrary_FilesAreReadableMarkdown(t *testing.T) {
	lib := newTestLibrary(t)
	ctx := context.Background()

	doc := document.New("synth-patch")
	doc.Nodes = []domain.Node{
		{ID: "osc", Type: domain.NodeTypeValue, Data: domain.NodeData{
			Label:   "Oscillator",
			Outputs: []domain.Port{{ID: "out-0"}},
		}},
	}
	require.NoError(t, lib.Save(ctx, "synth", doc))

	raw, err := os.ReadFile(filepath.Join(lib.Dir(), "synth.md"))
	require.NoError(t, err)

	text := string(raw)
	assert.True(t, strings.HasPrefix(text, "---"), "file should start with frontmatter")
	assert.Contains(t, text, "# synth-patch")
	assert.Contains(t, text, "1 nodes, 0 connections")
	assert.Contains(t, text, "osc", "graph data should be in the frontmatter")
}

func TestLibrary_SurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	first, err := loamstore.NewLibrary(dir)
	require.NoError(t, err)

	doc := document.New("persisted")
	doc.Nodes = []domain.Node{
		{ID: "a", Type: domain.NodeTypeTransform, Position: domain.Position{X: 12.5, Y: 40},
			Data: domain.NodeData{Inputs: []domain.Port{{ID: "in-0", Label: "Value"}}}},
	}
	require.NoError(t, first.Save(ctx, "patch", doc))

	// A fresh Library over the same directory sees the same project.
	second, err := loamstore.NewLibrary(dir)
	require.NoError(t, err)

	loaded, err := second.Load(ctx, "patch")
	require.NoError(t, err)
	assert.Equal(t, "persisted", loaded.Name)
	require.Len(t, loaded.Nodes, 1)
	assert.Equal(t, domain.Position{X: 12.5, Y: 40}, loaded.Nodes[0].Position)
	assert.Equal(t, "Value", loaded.Nodes[0].Data.Inputs[0].Label)

	ids, err := second.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"patch"}, ids)
}
