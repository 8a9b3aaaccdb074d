package notesapi

import (
	"sort"

	"github.com/notesphere/notes-gateway/internal/models"
)

// Flatten turns a possibly nested list of workspaces into a flat one. Children without
// a parent ID get the ID of the node they were nested under.
func Flatten(nodes []*models.WorkspaceNode) []models.Workspace {
	output := []models.Workspace{}
	var walk func(nodes []*models.WorkspaceNode, parentID *string)
	walk = func(nodes []*models.WorkspaceNode, parentID *string) {
		for _, node := range nodes {
			if node == nil {
				continue
			}
			workspace := node.Workspace
			if workspace.ParentID == nil && parentID != nil {
				id := *parentID
				workspace.ParentID = &id
			}
			output = append(output, workspace)
			id := workspace.ID
			walk(node.Children, &id)
		}
	}
	walk(nodes, nil)
	return output
}

// BuildTree builds the hierarchy from a flat list. Workspaces whose parent is unknown become
// roots, siblings are sorted by name and cycles are broken by promoting one member to a root.
func BuildTree(workspaces []models.Workspace) []*models.WorkspaceNode {
	nodes := map[string]*models.WorkspaceNode{}
	order := []string{}
	for _, workspace := range workspaces {
		if _, found := nodes[workspace.ID]; found {
			continue
		}
		nodes[workspace.ID] = &models.WorkspaceNode{Workspace: workspace, Children: []*models.WorkspaceNode{}}
		order = append(order, workspace.ID)
	}

	parentOf := func(id string) (string, bool) {
		parentID := nodes[id].ParentID
		if parentID == nil || *parentID == id {
			return "", false
		}
		if _, found := nodes[*parentID]; !found {
			return "", false
		}
		return *parentID, true
	}

	roots := []*models.WorkspaceNode{}
	attached := map[string]bool{}
	for _, id := range order {
		parentID, ok := parentOf(id)
		if !ok || inCycle(id, parentOf) {
			continue
		}
		nodes[parentID].Children = append(nodes[parentID].Children, nodes[id])
		attached[id] = true
	}
	for _, id := range order {
		if !attached[id] {
			roots = append(roots, nodes[id])
		}
	}
	sortNodes(roots)
	return roots
}

// inCycle reports whether following the parents of id leads back to id. Only the member of a
// cycle with the smallest ID is detached, so exactly one member of every cycle becomes a root.
func inCycle(id string, parentOf func(string) (string, bool)) bool {
	seen := map[string]bool{id: true}
	smallest := id
	current := id
	for {
		parentID, ok := parentOf(current)
		if !ok {
			return false
		}
		if parentID == id {
			return smallest == id
		}
		if seen[parentID] {
			// a cycle further up, which is broken by one of its own members
			return false
		}
		seen[parentID] = true
		if parentID < smallest {
			smallest = parentID
		}
		current = parentID
	}
}

func sortNodes(nodes []*models.WorkspaceNode) {
	sort.SliceStable(nodes, func(i, j int) bool {
		if nodes[i].Name == nodes[j].Name {
			return nodes[i].ID < nodes[j].ID
		}
		return nodes[i].Name < nodes[j].Name
	})
	for _, node := range nodes {
		sortNodes(node.Children)
	}
}
