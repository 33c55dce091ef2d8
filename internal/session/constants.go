// Package session holds the process-wide authentication state.
package session

const (
	// TokenKey is the store key holding the persisted session token.
	TokenKey = "token"
)
