package models

// UserRole represents the roles recognised by the RBAC layer.
type UserRole string

const (
	RoleAdmin   UserRole = "ADMIN"
	RoleTeacher UserRole = "TEACHER"
	RoleManager UserRole = "MANAGER"
	RoleStudent UserRole = "STUDENT"
)

// Valid reports whether the role is one the API recognises.
func (r UserRole) Valid() bool {
	switch r {
	case RoleAdmin, RoleTeacher, RoleManager, RoleStudent:
		return true
	}
	return false
}
