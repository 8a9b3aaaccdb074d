package notesapi

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/notesphere/notes-gateway/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(s string) *string {
	return &s
}

func workspace(id, name string, parentID *string) models.Workspace {
	return models.Workspace{ID: id, Name: name, ParentID: parentID}
}

// shape renders a tree as nested names so expectations stay readable
func shape(nodes []*models.WorkspaceNode) []any {
	output := []any{}
	for _, node := range nodes {
		if len(node.Children) == 0 {
			output = append(output, node.Name)
			continue
		}
		output = append(output, map[string][]any{node.Name: shape(node.Children)})
	}
	return output
}

func TestBuildTree(t *testing.T) {
	tests := []struct {
		name       string
		workspaces []models.Workspace
		expected   []any
	}{
		{
			name:       "empty",
			workspaces: []models.Workspace{},
			expected:   []any{},
		},
		{
			name: "siblings sorted by name",
			workspaces: []models.Workspace{
				workspace("1", "Work", nil),
				workspace("2", "Archive", nil),
				workspace("3", "Recipes", ptr("1")),
				workspace("4", "Meetings", ptr("1")),
			},
			expected: []any{"Archive", map[string][]any{"Work": {"Meetings", "Recipes"}}},
		},
		{
			name: "unknown parent becomes a root",
			workspaces: []models.Workspace{
				workspace("1", "Orphan", ptr("missing")),
				workspace("2", "Home", nil),
			},
			expected: []any{"Home", "Orphan"},
		},
		{
			name: "self parent becomes a root",
			workspaces: []models.Workspace{
				workspace("1", "Loop", ptr("1")),
			},
			expected: []any{"Loop"},
		},
		{
			name: "cycle is broken at its smallest id",
			workspaces: []models.Workspace{
				workspace("b", "B", ptr("a")),
				workspace("a", "A", ptr("c")),
				workspace("c", "C", ptr("b")),
			},
			expected: []any{map[string][]any{"A": {map[string][]any{"B": {"C"}}}}},
		},
		{
			name: "subtree below a cycle stays attached",
			workspaces: []models.Workspace{
				workspace("x", "X", ptr("y")),
				workspace("y", "Y", ptr("x")),
				workspace("z", "Z", ptr("y")),
			},
			expected: []any{map[string][]any{"X": {map[string][]any{"Y": {"Z"}}}}},
		},
		{
			name: "equal names ordered by id",
			workspaces: []models.Workspace{
				workspace("2", "Same", nil),
				workspace("1", "Same", nil),
			},
			expected: []any{"Same", "Same"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tree := BuildTree(tt.workspaces)
			if diff := cmp.Diff(tt.expected, shape(tree)); diff != "" {
				t.Errorf("unexpected tree (-want +got):\n%s", diff)
			}
		})
	}
}

func TestBuildTreeKeepsEveryWorkspace(t *testing.T) {
	tree := BuildTree([]models.Workspace{
		workspace("2", "Same", nil),
		workspace("1", "Same", nil),
		workspace("1", "Duplicate", nil),
	})

	require.Len(t, tree, 2)
	assert.Equal(t, "1", tree[0].ID)
	assert.Equal(t, "2", tree[1].ID)
}

func TestFlatten(t *testing.T) {
	nested := []*models.WorkspaceNode{
		{
			Workspace: workspace("1", "Work", nil),
			Children: []*models.WorkspaceNode{
				{Workspace: workspace("2", "Meetings", nil)},
				{Workspace: workspace("3", "Recipes", ptr("1"))},
			},
		},
		nil,
	}

	flat := Flatten(nested)

	require.Len(t, flat, 3)
	assert.Nil(t, flat[0].ParentID)
	require.NotNil(t, flat[1].ParentID)
	assert.Equal(t, "1", *flat[1].ParentID)
	assert.Equal(t, "1", *flat[2].ParentID)
}
