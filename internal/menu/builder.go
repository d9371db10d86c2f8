package menu

import (
	"sort"

	"github.com/bizdesk/backoffice/internal/models"
)

// Node is one node of the assembled menu forest. Children is omitted from
// serialized output when empty to keep payloads compact.
type Node struct {
	ID          uint64  `json:"id"`
	ParentID    uint64  `json:"parent_id"`
	Type        string  `json:"type"`
	ProgramCode string  `json:"program_code,omitempty"`
	DisplayName string  `json:"display_name"`
	SortOrder   int     `json:"sort_order"`
	Children    []*Node `json:"children,omitempty"`
}

// BuildTree assembles the flat menu rows into a forest rooted at parent 0.
// When visible is non-nil, rows whose id is not in the set are excluded.
// The function is pure: it may be called repeatedly with different filters
// over the same snapshot.
func BuildTree(items []models.MenuItem, visible map[uint64]struct{}) []*Node {
	byParent := make(map[uint64][]models.MenuItem, len(items))
	for _, item := range items {
		if visible != nil {
			if _, ok := visible[item.ID]; !ok {
				continue
			}
		}
		byParent[item.ParentID] = append(byParent[item.ParentID], item)
	}
	for parent := range byParent {
		rows := byParent[parent]
		sort.Slice(rows, func(i, j int) bool {
			if rows[i].SortOrder != rows[j].SortOrder {
				return rows[i].SortOrder < rows[j].SortOrder
			}
			return rows[i].ID < rows[j].ID
		})
	}
	return buildChildren(byParent, 0)
}

// buildChildren recursively materializes the children of one parent.
func buildChildren(byParent map[uint64][]models.MenuItem, parentID uint64) []*Node {
	rows, ok := byParent[parentID]
	if !ok {
		return nil
	}
	nodes := make([]*Node, 0, len(rows))
	for _, row := range rows {
		node := &Node{
			ID:          row.ID,
			ParentID:    row.ParentID,
			Type:        EffectiveType(row),
			ProgramCode: row.ProgramCode,
			DisplayName: row.DisplayName,
			SortOrder:   row.SortOrder,
		}
		if children := buildChildren(byParent, row.ID); len(children) > 0 {
			node.Children = children
		}
		nodes = append(nodes, node)
	}
	return nodes
}

// EffectiveType degrades a program item to directory-like behavior when
// its client screen has not been built yet.
func EffectiveType(item models.MenuItem) string {
	if item.Type == models.MenuTypeProgram && !item.ClientBuildComplete {
		return models.MenuTypeDirectory
	}
	return item.Type
}

// VisibleMenuIDs expands a set of granted menu ids with every ancestor
// directory so granted leaves stay reachable in the filtered forest.
func VisibleMenuIDs(items []models.MenuItem, granted map[uint64]struct{}) map[uint64]struct{} {
	parents := make(map[uint64]uint64, len(items))
	for _, item := range items {
		parents[item.ID] = item.ParentID
	}
	visible := make(map[uint64]struct{}, len(granted))
	for id := range granted {
		for id != 0 {
			if _, seen := visible[id]; seen {
				break
			}
			visible[id] = struct{}{}
			id = parents[id]
		}
	}
	return visible
}
