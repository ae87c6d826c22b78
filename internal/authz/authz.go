// Package authz resolves role-based access for pages and navigation.
// Everything here is pure: no state, no I/O, no errors. Denial is a false.
package authz

import (
	"slices"

	"medgate/pkg/domain"
)

// NavigationItem is one node of a menu tree.
type NavigationItem struct {
	Title    string           `json:"title"`
	Path     string           `json:"path"`
	Roles    []domain.Role    `json:"roles"`
	Children []NavigationItem `json:"children,omitempty"`
}

// CanAccess reports whether actual is one of required. An empty role or an
// empty required set never grants access.
func CanAccess(required []domain.Role, actual domain.Role) bool {
	if actual == "" {
		return false
	}
	return slices.Contains(required, actual)
}

// FilterTree returns the nodes visible to role. Children are filtered first;
// each node then survives on its own roles alone, so a visible parent whose
// children were all removed is kept with an empty child list. The input is
// not modified.
func FilterTree(tree []NavigationItem, role domain.Role) []NavigationItem {
	out := make([]NavigationItem, 0, len(tree))
	for _, node := range tree {
		var children []NavigationItem
		if node.Children != nil {
			children = FilterTree(node.Children, role)
		}
		if !CanAccess(node.Roles, role) {
			continue
		}
		node.Roles = slices.Clone(node.Roles)
		node.Children = children
		out = append(out, node)
	}
	return out
}
