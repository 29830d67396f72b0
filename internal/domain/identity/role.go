package identity

import "strings"

type Role string

const (
	RoleEditor     Role = "editor"
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "super_admin"
	// RoleSystem is only ever held by the publication sweep.
	RoleSystem Role = "system"
)

func ParseRole(raw string) (Role, bool) {
	switch r := Role(strings.ToLower(strings.TrimSpace(raw))); r {
	case RoleEditor, RoleAdmin, RoleSuperAdmin:
		return r, true
	default:
		return "", false
	}
}

// Privileged reports admin-level roles.
func (r Role) Privileged() bool {
	return r == RoleAdmin || r == RoleSuperAdmin
}

type AccountStatus string

const (
	StatusActive    AccountStatus = "active"
	StatusSuspended AccountStatus = "suspended"
	StatusDisabled  AccountStatus = "disabled"
)

func ParseAccountStatus(raw string) (AccountStatus, bool) {
	switch s := AccountStatus(strings.ToLower(strings.TrimSpace(raw))); s {
	case StatusActive, StatusSuspended, StatusDisabled:
		return s, true
	default:
		return "", false
	}
}
