package domain

import "strings"

// Role is a named access level. Each user holds exactly one at a time;
// every role change goes through the transition policy.
type Role string

const (
	RoleAdmin      Role = "ADMIN"
	RoleManager    Role = "MANAGER"
	RoleTechnician Role = "TECHNICIAN"
	RoleCustomer   Role = "CUSTOMER"
)

// AllRoles lists every recognized role.
func AllRoles() []Role {
	return []Role{RoleAdmin, RoleManager, RoleTechnician, RoleCustomer}
}

// ParseRole resolves a role name, ignoring case. Unknown names return
// false; no whitespace normalization is applied.
func ParseRole(name string) (Role, bool) {
	switch Role(strings.ToUpper(name)) {
	case RoleAdmin:
		return RoleAdmin, true
	case RoleManager:
		return RoleManager, true
	case RoleTechnician:
		return RoleTechnician, true
	case RoleCustomer:
		return RoleCustomer, true
	default:
		return "", false
	}
}

// String implements fmt.Stringer.
func (r Role) String() string {
	return string(r)
}
