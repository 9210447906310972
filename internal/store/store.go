package store

import (
	"context"
	"errors"

	"github.com/Akram409/leafora-web-server/internal/models"
)

// ErrNotFound is returned when no record exists for the requested uid.
var ErrNotFound = errors.New("user record not found")

// ListFilter narrows List to records matching the given enum values.
// Empty fields match everything.
type ListFilter struct {
	Role   string
	Status string
	Plan   string
}

// UserStore is the persistence boundary for user records. Documents are keyed
// by the gateway-issued uid; there is no optimistic concurrency, so concurrent
// writers are last-writer-wins.
type UserStore interface {
	Get(ctx context.Context, uid string) (*models.UserRecord, error)
	List(ctx context.Context, filter ListFilter) ([]*models.UserRecord, error)
	Create(ctx context.Context, record *models.UserRecord) error
	Replace(ctx context.Context, record *models.UserRecord) error
	Delete(ctx context.Context, uid string) error
}
