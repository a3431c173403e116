// Package users stores server accounts keyed by PIN digest.
package users

import (
	"context"

	"github.com/dmitrijs2005/gtdkeeper/internal/server/models"
)

// Repository describes account persistence.
type Repository interface {
	// Create inserts a new account and returns it with the assigned id.
	Create(ctx context.Context, pinDigest string) (*models.User, error)

	// GetByPinDigest returns the account with the given digest, or
	// common.ErrNotFound.
	GetByPinDigest(ctx context.Context, pinDigest string) (*models.User, error)
}
