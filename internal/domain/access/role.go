package access

import (
	"fmt"
	"strings"
)

type Role string

const (
	RoleAdmin    Role = "admin"
	RoleEmployee Role = "karyawan"
	// RoleSupervisor exists in profile data but no view tree admits it.
	RoleSupervisor Role = "kepala"
)

var Roles = []Role{RoleAdmin, RoleEmployee, RoleSupervisor}

// Known reports whether the role maps to a view tree.
func (r Role) Known() bool {
	return r == RoleAdmin || r == RoleEmployee
}

func (r Role) String() string {
	return string(r)
}

func (r Role) Home() string {
	switch r {
	case RoleAdmin:
		return PathAdminHome
	case RoleEmployee:
		return PathEmployeeHome
	default:
		return PathLogin
	}
}

func ParseRole(value string) (Role, error) {
	normalized := Role(strings.ToLower(strings.TrimSpace(value)))
	for _, role := range Roles {
		if role == normalized {
			return role, nil
		}
	}
	return "", fmt.Errorf("unknown role %q", value)
}
