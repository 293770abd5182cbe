package constants

import roles "marketdesk/internal/pkg/constants"

// PermissionRoles maps each console permission to the roles allowed to perform it.
var PermissionRoles = map[string][]string{
	AnswerLeads:      {roles.Seller, roles.Admin},
	RecordSales:      {roles.Seller, roles.Admin},
	ManageListings:   {roles.Seller, roles.Admin},
	ViewDashboard:    {roles.Admin},
	ManageUsers:      {roles.Admin},
	AssignRole:       {roles.Admin},
	ModerateProducts: {roles.Admin},
	ManageSupport:    {roles.Admin},
	ViewOwnActivity:  {roles.Buyer, roles.Seller, roles.Admin},
	EditOwnProfile:   {roles.Buyer, roles.Seller, roles.Admin},
}

// AllowedRole returns true if role is in the list of allowed roles for the permission.
func AllowedRole(permission, role string) bool {
	roles, ok := PermissionRoles[permission]
	if !ok {
		return false
	}
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}
