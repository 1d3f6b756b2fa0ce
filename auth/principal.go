// Package auth holds caller identity: the authenticated principal, password
// hashing and signed access tokens.
package auth

import "errors"

// Role is the coarse permission level of a user.
type Role string

const (
	RoleUser    Role = "USER"
	RoleManager Role = "MANAGER"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleManager
}

// Principal is the verified caller of an operation. It is built once from the
// access token and passed down explicitly.
type Principal struct {
	ID   string
	Name string
	Role Role
}

func (p Principal) IsManager() bool { return p.Role == RoleManager }

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrPasswordTooShort   = errors.New("password must be at least 6 characters")
)
