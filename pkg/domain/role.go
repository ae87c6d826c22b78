package domain

import dErrors "medgate/pkg/domain-errors"

// Role drives every authorization decision in the platform.
// Invariant: an identity's role does not change for the life of a session.
type Role string

const (
	RolePatient    Role = "patient"
	RoleDoctor     Role = "doctor"
	RoleAdmin      Role = "admin"
	RolePharmacy   Role = "pharmacy"
	RoleAccountant Role = "accountant"
)

// validRoles is the single source of truth for supported roles.
var validRoles = map[Role]bool{
	RolePatient:    true,
	RoleDoctor:     true,
	RoleAdmin:      true,
	RolePharmacy:   true,
	RoleAccountant: true,
}

// ParseRole constructs a Role from external input.
//
// Errors: returns CodeInvalidInput when the value is empty or unsupported.
func ParseRole(s string) (Role, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "role cannot be empty")
	}
	r := Role(s)
	if !r.IsValid() {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid role")
	}
	return r, nil
}

// IsValid checks if the role is one of the supported enum values.
func (r Role) IsValid() bool {
	return validRoles[r]
}

func (r Role) String() string {
	return string(r)
}

// AllRoles lists every supported role in a stable order.
func AllRoles() []Role {
	return []Role{RolePatient, RoleDoctor, RoleAdmin, RolePharmacy, RoleAccountant}
}
