package account

import (
	"context"
	"errors"
)

var ErrAccountNotFound = errors.New("account not found")

// Account is the slice of the platform's user record the gateway needs.
type Account struct {
	ID       string
	Nickname string
}

// Directory resolves a verified subject id to an account. The API server owns
// the user store; the gateway only reads it.
type Directory interface {
	Lookup(ctx context.Context, id string) (*Account, error)
}

// Disabled is a Directory for deployments without database access. Every
// lookup misses, so all connections resolve to anonymous identities.
type Disabled struct{}

func (Disabled) Lookup(context.Context, string) (*Account, error) {
	return nil, ErrAccountNotFound
}
