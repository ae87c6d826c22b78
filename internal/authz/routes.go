package authz

import (
	"slices"
	"strings"

	"medgate/pkg/domain"
)

const (
	// PublicLanding is where anonymous visitors are sent.
	PublicLanding = "/"
	// DefaultLanding is where authenticated users land when a page denies them.
	DefaultLanding = "/pages/dashboard"
)

// Route declares the roles allowed on one page path.
type Route struct {
	Path  string        `json:"path"`
	Title string        `json:"title"`
	Roles []domain.Role `json:"roles"`
}

// RouteTable is the single declaration of page access.
type RouteTable struct {
	routes []Route
	byPath map[string]Route
}

func NewRouteTable(routes []Route) *RouteTable {
	t := &RouteTable{byPath: make(map[string]Route, len(routes))}
	for _, r := range routes {
		r.Path = normalizePath(r.Path)
		r.Roles = slices.Clone(r.Roles)
		if _, dup := t.byPath[r.Path]; dup {
			continue
		}
		t.routes = append(t.routes, r)
		t.byPath[r.Path] = r
	}
	return t
}

// Lookup returns the route for path. Trailing slashes are ignored.
func (t *RouteTable) Lookup(path string) (Route, bool) {
	r, ok := t.byPath[normalizePath(path)]
	if !ok {
		return Route{}, false
	}
	r.Roles = slices.Clone(r.Roles)
	return r, true
}

// Routes returns every route in declaration order.
func (t *RouteTable) Routes() []Route {
	out := make([]Route, len(t.routes))
	for i, r := range t.routes {
		r.Roles = slices.Clone(r.Roles)
		out[i] = r
	}
	return out
}

// Allowed lists the routes role may open.
func (t *RouteTable) Allowed(role domain.Role) []Route {
	var out []Route
	for _, r := range t.Routes() {
		if CanAccess(r.Roles, role) {
			out = append(out, r)
		}
	}
	return out
}

func normalizePath(p string) string {
	if p == "" || p == "/" {
		return "/"
	}
	return "/" + strings.Trim(p, "/")
}

var (
	allRoles     = domain.AllRoles()
	clinical     = []domain.Role{domain.RoleDoctor, domain.RoleAdmin}
	patientCare  = []domain.Role{domain.RolePatient, domain.RoleDoctor, domain.RoleAdmin}
	prescription = []domain.Role{domain.RolePatient, domain.RoleDoctor, domain.RolePharmacy}
	pharmacyOnly = []domain.Role{domain.RolePharmacy, domain.RoleAdmin}
	finance      = []domain.Role{domain.RoleAccountant, domain.RoleAdmin, domain.RolePatient}
	adminOnly    = []domain.Role{domain.RoleAdmin}
)

// DefaultRoutes declares the hospital pages.
func DefaultRoutes() []Route {
	return []Route{
		{Path: "/pages/dashboard", Title: "Dashboard", Roles: allRoles},
		{Path: "/pages/profile", Title: "Profile", Roles: allRoles},
		{Path: "/pages/appointments", Title: "Appointments", Roles: patientCare},
		{Path: "/pages/records", Title: "Medical Records", Roles: patientCare},
		{Path: "/pages/prescriptions", Title: "Prescriptions", Roles: prescription},
		{Path: "/pages/e-prescribe", Title: "E-Prescribe", Roles: []domain.Role{domain.RoleDoctor}},
		{Path: "/pages/inventory", Title: "Inventory", Roles: pharmacyOnly},
		{Path: "/pages/billing", Title: "Billing", Roles: finance},
		{Path: "/pages/insurance", Title: "Insurance Claims", Roles: []domain.Role{domain.RoleAccountant, domain.RoleAdmin}},
		{Path: "/pages/staff", Title: "Staff", Roles: adminOnly},
		{Path: "/pages/beds", Title: "Bed Management", Roles: clinical},
		{Path: "/pages/emergency", Title: "Emergency", Roles: allRoles},
		{Path: "/pages/reports", Title: "Reports", Roles: []domain.Role{domain.RoleAdmin, domain.RoleAccountant}},
		{Path: "/pages/admin", Title: "Administration", Roles: adminOnly},
	}
}
