package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	domain "github.com/Zhima-Mochi/minishop-commerce/internal/domain/cart"
)

type CartRepository struct {
	tx *sql.Tx
}

func (r *CartRepository) Insert(ctx context.Context, c *domain.Cart) error {
	_, err := r.tx.ExecContext(ctx,
		`INSERT INTO carts (id, user_id, session_id, total_amount, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		c.ID, nullable(c.UserID), nullable(c.SessionID), c.TotalAmount.StringFixed(2),
		formatTime(c.CreatedAt), formatTime(c.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("cart repository: insert %s: %w", c.ID, err)
	}
	return r.insertItems(ctx, c)
}

func (r *CartRepository) Get(ctx context.Context, id string) (*domain.Cart, error) {
	return r.findOne(ctx, "id = ?", id)
}

func (r *CartRepository) FindByUser(ctx context.Context, userID string) (*domain.Cart, error) {
	if userID == "" {
		return nil, domain.ErrNotFound
	}
	return r.findOne(ctx, "user_id = ?", userID)
}

func (r *CartRepository) FindBySession(ctx context.Context, sessionID string) (*domain.Cart, error) {
	if sessionID == "" {
		return nil, domain.ErrNotFound
	}
	return r.findOne(ctx, "session_id = ?", sessionID)
}

// Save rewrites the item rows and the cart total.
func (r *CartRepository) Save(ctx context.Context, c *domain.Cart) error {
	res, err := r.tx.ExecContext(ctx,
		`UPDATE carts SET total_amount = ?, updated_at = ? WHERE id = ?`,
		c.TotalAmount.StringFixed(2), formatTime(c.UpdatedAt), c.ID,
	)
	if err != nil {
		return fmt.Errorf("cart repository: save %s: %w", c.ID, err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		return domain.ErrNotFound
	}
	if _, err := r.tx.ExecContext(ctx, `DELETE FROM cart_items WHERE cart_id = ?`, c.ID); err != nil {
		return fmt.Errorf("cart repository: save %s: %w", c.ID, err)
	}
	return r.insertItems(ctx, c)
}

func (r *CartRepository) insertItems(ctx context.Context, c *domain.Cart) error {
	for i, it := range c.Items {
		_, err := r.tx.ExecContext(ctx,
			`INSERT INTO cart_items (id, cart_id, product_id, position, quantity, unit_price, subtotal)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			it.ID, c.ID, it.ProductID, i, it.Quantity, it.UnitPrice.StringFixed(2), it.Subtotal.StringFixed(2),
		)
		if err != nil {
			return fmt.Errorf("cart repository: insert item %s: %w", it.ID, err)
		}
	}
	return nil
}

func (r *CartRepository) findOne(ctx context.Context, cond string, arg any) (*domain.Cart, error) {
	row := r.tx.QueryRowContext(ctx,
		`SELECT id, user_id, session_id, total_amount, created_at, updated_at FROM carts WHERE `+cond, arg)

	var (
		c                    domain.Cart
		userID, sessionID    sql.NullString
		createdAt, updatedAt string
	)
	err := row.Scan(&c.ID, &userID, &sessionID, &c.TotalAmount, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("cart repository: find: %w", err)
	}
	c.UserID, c.SessionID = userID.String, sessionID.String
	if c.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if c.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	if c.Items, err = r.items(ctx, c.ID); err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *CartRepository) items(ctx context.Context, cartID string) ([]domain.Item, error) {
	rows, err := r.tx.QueryContext(ctx,
		`SELECT i.id, i.product_id, i.quantity, i.unit_price, i.subtotal,
		        p.id, p.name, p.description, p.price, p.stock, p.category, p.image_url, p.created_at, p.updated_at
		 FROM cart_items i JOIN products p ON p.id = i.product_id
		 WHERE i.cart_id = ? ORDER BY i.position`, cartID)
	if err != nil {
		return nil, fmt.Errorf("cart repository: items %s: %w", cartID, err)
	}
	defer rows.Close()

	var out []domain.Item
	for rows.Next() {
		var it domain.Item
		p, err := scanProduct(prefixed{rows: rows, head: []any{&it.ID, &it.ProductID, &it.Quantity, &it.UnitPrice, &it.Subtotal}})
		if err != nil {
			return nil, fmt.Errorf("cart repository: items %s: %w", cartID, err)
		}
		it.Product = p
		out = append(out, it)
	}
	return out, rows.Err()
}
