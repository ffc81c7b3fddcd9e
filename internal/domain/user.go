package domain

import (
	"errors"
	"strings"
)

// Role es el nivel de acceso de un usuario del dashboard.
type Role string

const (
	RoleCISO              Role = "ciso"
	RoleAnalyst           Role = "analyst"
	RoleEngineer          Role = "engineer"
	RoleComplianceOfficer Role = "compliance_officer"
)

var ErrUnknownRole = errors.New("unknown role")

// Roles devuelve todos los roles conocidos en orden estable.
func Roles() []Role {
	return []Role{RoleCISO, RoleAnalyst, RoleEngineer, RoleComplianceOfficer}
}

// ParseRole normaliza y valida un rol recibido como texto.
func ParseRole(raw string) (Role, error) {
	role := Role(strings.ToLower(strings.TrimSpace(raw)))
	if !role.Valid() {
		return "", ErrUnknownRole
	}
	return role, nil
}

func (r Role) Valid() bool {
	switch r {
	case RoleCISO, RoleAnalyst, RoleEngineer, RoleComplianceOfficer:
		return true
	}
	return false
}

func (r Role) String() string { return string(r) }

// User es el usuario autenticado de la sesion. Se persiste tal cual como JSON.
type User struct {
	ID     string `json:"id"`
	Email  string `json:"email"`
	Name   string `json:"name"`
	Role   Role   `json:"role"`
	Avatar string `json:"avatar,omitempty"`
}
