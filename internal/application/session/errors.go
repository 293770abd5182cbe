package session

import "errors"

var (
	ErrStillLoading           = errors.New("Session is still loading")
	ErrCredentialsRequired    = errors.New("Email and password are required")
	ErrInvalidCredentials     = errors.New("Invalid email or password")
	ErrRegistrationIncomplete = errors.New("Name, email and password are required")
	ErrInvalidName            = errors.New("Name can only contain letters, spaces, hyphens and apostrophes")
	ErrInvalidEmail           = errors.New("Invalid email format")
	ErrWeakPassword           = errors.New("Password must be at least 8 characters and contain a letter, a number and a special character")
	ErrInvalidPhone           = errors.New("Invalid phone number")
	ErrInvalidRole            = errors.New("Role must be buyer or seller")
	ErrNoUser                 = errors.New("Sign-in response carried no user")
)
