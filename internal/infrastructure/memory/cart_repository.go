package memory

import (
	"context"
	"fmt"

	domain "github.com/Zhima-Mochi/minishop-commerce/internal/domain/cart"
)

type CartRepository struct {
	data *state
}

func (r *CartRepository) Insert(ctx context.Context, c *domain.Cart) error {
	_ = ctx
	if c == nil || c.ID == "" {
		return fmt.Errorf("cart repository: id is required")
	}
	if _, exists := r.data.carts[c.ID]; exists {
		return fmt.Errorf("cart repository: %s already exists", c.ID)
	}
	r.data.carts[c.ID] = r.strip(c)
	return nil
}

func (r *CartRepository) Get(ctx context.Context, id string) (*domain.Cart, error) {
	_ = ctx
	c, ok := r.data.carts[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return r.load(c), nil
}

func (r *CartRepository) FindByUser(ctx context.Context, userID string) (*domain.Cart, error) {
	_ = ctx
	for _, c := range r.data.carts {
		if userID != "" && c.UserID == userID {
			return r.load(c), nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *CartRepository) FindBySession(ctx context.Context, sessionID string) (*domain.Cart, error) {
	_ = ctx
	for _, c := range r.data.carts {
		if sessionID != "" && c.SessionID == sessionID {
			return r.load(c), nil
		}
	}
	return nil, domain.ErrNotFound
}

// Save replaces the stored items and total with those of c.
func (r *CartRepository) Save(ctx context.Context, c *domain.Cart) error {
	_ = ctx
	if c == nil || c.ID == "" {
		return fmt.Errorf("cart repository: id is required")
	}
	if _, exists := r.data.carts[c.ID]; !exists {
		return domain.ErrNotFound
	}
	r.data.carts[c.ID] = r.strip(c)
	return nil
}

func (r *CartRepository) strip(c *domain.Cart) *domain.Cart {
	clone := c.Clone()
	for i := range clone.Items {
		clone.Items[i].Product = nil
	}
	return clone
}

func (r *CartRepository) load(c *domain.Cart) *domain.Cart {
	clone := c.Clone()
	for i := range clone.Items {
		if rec, ok := r.data.products[clone.Items[i].ProductID]; ok {
			clone.Items[i].Product = rec.p.Clone()
		}
	}
	return clone
}
