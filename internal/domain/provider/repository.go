package provider

import (
	"context"

	"github.com/google/uuid"
)

// ProviderRepository reads provider snapshots with their reviews attached.
type ProviderRepository interface {
	// FindByID returns one provider or a NotFoundError.
	FindByID(ctx context.Context, id uuid.UUID) (*Provider, error)

	// FindByUserID returns the provider profile owned by an account.
	FindByUserID(ctx context.Context, userID uuid.UUID) (*Provider, error)

	// ListAll returns every provider. The in-region set is small enough to hold in memory.
	ListAll(ctx context.Context) ([]*Provider, error)
}
