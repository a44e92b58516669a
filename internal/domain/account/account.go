// Package account defines the backend-held user accounts consulted during
// login. The mock backend stores credentials in the clear; this is not a
// security-hardened surface.
package account

import "context"

// Role describes what an authenticated user may do.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// Account is one entry in the backend's account list.
type Account struct {
	Username string
	Password string
	Role     Role
}

// Repository provides read access to the backend account list.
type Repository interface {
	ListAccounts(ctx context.Context) ([]Account, error)
}
