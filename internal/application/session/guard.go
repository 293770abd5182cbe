package session

import "marketdesk/internal/pkg/constants"

// Outcome of a route guard check.
type Outcome int

const (
	Allow Outcome = iota
	Wait
	Redirect
)

// Decision tells the route shell what to render.
type Decision struct {
	Outcome Outcome
	To      string
}

// HomePath is where rejected visitors are sent.
const HomePath = "/"

// Guard decides whether a protected screen may render. An empty requiredRole
// only asks for a signed-in user. Admins pass every role check.
func Guard(st State, requiredRole string) Decision {
	switch s := st.(type) {
	case Loading:
		return Decision{Outcome: Wait}
	case Authenticated:
		if requiredRole == "" || s.User.Role == constants.Admin || s.User.Role == requiredRole {
			return Decision{Outcome: Allow}
		}
		return Decision{Outcome: Redirect, To: HomePath}
	}
	return Decision{Outcome: Redirect, To: HomePath}
}
