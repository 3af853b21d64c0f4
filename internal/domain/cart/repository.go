package cart

import "context"

type Repository interface {
	Insert(ctx context.Context, c *Cart) error
	// Get returns the cart with items and their products loaded.
	Get(ctx context.Context, id string) (*Cart, error)
	FindByUser(ctx context.Context, userID string) (*Cart, error)
	FindBySession(ctx context.Context, sessionID string) (*Cart, error)
	// Save replaces the stored items and total with the cart's current ones.
	Save(ctx context.Context, c *Cart) error
}
