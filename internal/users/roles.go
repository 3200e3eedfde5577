package users

// Role is a user's role within one guide service
type Role string

const (
	RoleOwner         Role = "OWNER"
	RoleOfficeManager Role = "OFFICE_MANAGER"
	RoleGuide         Role = "GUIDE"
)

// ManagementRoles are the roles allowed to manage a service's trips,
// templates, pricing, and roster.
var ManagementRoles = []Role{RoleOwner, RoleOfficeManager}

// IsValidRole reports whether the string is a known role
func IsValidRole(role string) bool {
	switch Role(role) {
	case RoleOwner, RoleOfficeManager, RoleGuide:
		return true
	default:
		return false
	}
}

// CanManage reports whether the role can manage service resources
func (r Role) CanManage() bool {
	return r == RoleOwner || r == RoleOfficeManager
}
