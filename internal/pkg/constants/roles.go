package constants

const (
	Buyer  = "buyer"
	Seller = "seller"
	Admin  = "admin"
)

// ValidRoles is the set of roles the marketplace API accepts.
var ValidRoles = []string{Buyer, Seller, Admin}

// SelfServiceRoles can be chosen at registration.
var SelfServiceRoles = []string{Buyer, Seller}

// IsValidRole returns true if role is one of the allowed values.
func IsValidRole(role string) bool {
	return contains(ValidRoles, role)
}

// IsSelfServiceRole reports whether a new account may pick role itself.
func IsSelfServiceRole(role string) bool {
	return contains(SelfServiceRoles, role)
}

func contains(list []string, v string) bool {
	for _, r := range list {
		if r == v {
			return true
		}
	}
	return false
}
