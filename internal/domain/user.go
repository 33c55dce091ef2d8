package domain

// Credentials are submitted on login.
type Credentials struct {
	Username string
	Password string
}

// DefaultPrincipal names an authenticated user whose username the
// backend did not return.
const DefaultPrincipal = "User"
