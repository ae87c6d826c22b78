// Package navigation declares the static menu tree. Page nodes take their
// roles from the route table so menu visibility and page access cannot drift.
package navigation

import (
	"medgate/internal/authz"
	"medgate/pkg/domain"
)

// node is a declaration; path nodes resolve roles from the route table,
// group nodes carry their own.
type node struct {
	title    string
	path     string
	roles    []domain.Role
	children []node
}

var tree = []node{
	{path: "/pages/dashboard"},
	{path: "/pages/appointments"},
	{path: "/pages/records"},
	{path: "/pages/prescriptions", children: []node{
		{path: "/pages/inventory"},
		{path: "/pages/e-prescribe"},
	}},
	{path: "/pages/billing", children: []node{
		{path: "/pages/insurance"},
	}},
	{title: "Hospital", roles: []domain.Role{domain.RoleDoctor, domain.RoleAdmin, domain.RoleAccountant}, children: []node{
		{path: "/pages/beds"},
		{path: "/pages/staff"},
		{path: "/pages/reports"},
	}},
	{path: "/pages/emergency"},
	{path: "/pages/admin"},
}

// Tree builds the full, unfiltered menu. Nodes whose path is missing from
// routes are omitted.
func Tree(routes *authz.RouteTable) []authz.NavigationItem {
	return build(tree, routes)
}

func build(nodes []node, routes *authz.RouteTable) []authz.NavigationItem {
	out := make([]authz.NavigationItem, 0, len(nodes))
	for _, n := range nodes {
		item := authz.NavigationItem{Title: n.title, Path: n.path, Roles: n.roles}
		if n.path != "" {
			r, ok := routes.Lookup(n.path)
			if !ok {
				continue
			}
			item.Roles = r.Roles
			if item.Title == "" {
				item.Title = r.Title
			}
		}
		if n.children != nil {
			item.Children = build(n.children, routes)
		}
		out = append(out, item)
	}
	return out
}

// For returns the menu filtered for role.
func For(routes *authz.RouteTable, role domain.Role) []authz.NavigationItem {
	return authz.FilterTree(Tree(routes), role)
}
