package models

// Roles recognized on users and club member records.
const (
	RoleAdmin   = "admin"
	RoleLeader  = "leader"
	RoleMember  = "member"
	RoleVisitor = "visitor"
)

// IsValidRole reports whether role is one of the four known roles.
func IsValidRole(role string) bool {
	switch role {
	case RoleAdmin, RoleLeader, RoleMember, RoleVisitor:
		return true
	}
	return false
}
