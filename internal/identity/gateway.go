// Package identity fronts the identity provider the backend delegates
// authentication to. The rest of the system only sees the Gateway interface:
// a bearer token goes in, a uid comes out, and account records can be
// created, updated and deleted alongside the user store.
package identity

import (
	"context"
	"errors"
)

var (
	// ErrInvalidToken covers missing, malformed, expired and revoked tokens.
	ErrInvalidToken = errors.New("invalid or expired token")
	// ErrInvalidCredentials is returned by IssueToken on a bad email/password pair.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrEmailExists is returned when creating an account with a taken email.
	ErrEmailExists = errors.New("account with this email already exists")
	// ErrAccountNotFound is returned when the referenced account does not exist.
	ErrAccountNotFound = errors.New("account not found")
)

// NewAccount carries the fields needed to provision an account.
type NewAccount struct {
	Email       string
	Password    string
	DisplayName string
}

// AccountUpdate carries optional account changes; empty fields are left as-is.
type AccountUpdate struct {
	Email       string
	DisplayName string
}

// Gateway is the consumed identity capability. Token verification is opaque:
// callers never see how tokens are parsed or signed.
type Gateway interface {
	// VerifyToken resolves a bearer token to the uid it was issued for.
	VerifyToken(ctx context.Context, token string) (string, error)
	// IssueToken exchanges credentials for a bearer token.
	IssueToken(ctx context.Context, email, password string) (string, error)
	// CreateUser provisions an account and returns its newly assigned uid.
	CreateUser(ctx context.Context, account NewAccount) (string, error)
	// UpdateUser applies an account update to an existing uid.
	UpdateUser(ctx context.Context, uid string, update AccountUpdate) error
	// DeleteUser removes the account for the given uid.
	DeleteUser(ctx context.Context, uid string) error
}
