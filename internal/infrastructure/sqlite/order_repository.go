package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	domain "github.com/Zhima-Mochi/minishop-commerce/internal/domain/order"
	"github.com/Zhima-Mochi/minishop-commerce/internal/domain/payment"
)

type OrderRepository struct {
	tx *sql.Tx
}

func (r *OrderRepository) Insert(ctx context.Context, o *domain.Order) error {
	_, err := r.tx.ExecContext(ctx,
		`INSERT INTO orders (id, user_id, total_amount, payment_method, status, transaction_id, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		o.ID, o.UserID, o.TotalAmount.StringFixed(2), string(o.PaymentMethod), string(o.Status),
		nullable(o.TransactionID), formatTime(o.CreatedAt), formatTime(o.UpdatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrConflict
		}
		return fmt.Errorf("order repository: insert %s: %w", o.ID, err)
	}

	for i, l := range o.Lines {
		_, err := r.tx.ExecContext(ctx,
			`INSERT INTO order_items (id, order_id, product_id, position, quantity, unit_price, subtotal)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			l.ID, o.ID, l.ProductID, i, l.Quantity, l.UnitPrice.StringFixed(2), l.Subtotal.StringFixed(2),
		)
		if err != nil {
			return fmt.Errorf("order repository: insert line %s: %w", l.ID, err)
		}
	}
	return nil
}

func (r *OrderRepository) Get(ctx context.Context, id string) (*domain.Order, error) {
	row := r.tx.QueryRowContext(ctx,
		`SELECT id, user_id, total_amount, payment_method, status, transaction_id, created_at, updated_at
		 FROM orders WHERE id = ?`, id)

	var (
		o                    domain.Order
		method, status       string
		txID                 sql.NullString
		createdAt, updatedAt string
	)
	err := row.Scan(&o.ID, &o.UserID, &o.TotalAmount, &method, &status, &txID, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("order repository: get %s: %w", id, err)
	}
	o.PaymentMethod = payment.Method(method)
	o.Status = domain.Status(status)
	o.TransactionID = txID.String
	if o.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if o.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}

	if o.Lines, err = r.lines(ctx, o.ID); err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *OrderRepository) lines(ctx context.Context, orderID string) ([]domain.Line, error) {
	rows, err := r.tx.QueryContext(ctx,
		`SELECT i.id, i.product_id, i.quantity, i.unit_price, i.subtotal,
		        p.id, p.name, p.description, p.price, p.stock, p.category, p.image_url, p.created_at, p.updated_at
		 FROM order_items i JOIN products p ON p.id = i.product_id
		 WHERE i.order_id = ? ORDER BY i.position`, orderID)
	if err != nil {
		return nil, fmt.Errorf("order repository: lines %s: %w", orderID, err)
	}
	defer rows.Close()

	var out []domain.Line
	for rows.Next() {
		var l domain.Line
		p, err := scanProduct(prefixed{rows: rows, head: []any{&l.ID, &l.ProductID, &l.Quantity, &l.UnitPrice, &l.Subtotal}})
		if err != nil {
			return nil, fmt.Errorf("order repository: lines %s: %w", orderID, err)
		}
		l.Product = p
		out = append(out, l)
	}
	return out, rows.Err()
}

func (r *OrderRepository) Update(ctx context.Context, o *domain.Order) error {
	res, err := r.tx.ExecContext(ctx,
		`UPDATE orders SET status = ?, transaction_id = ?, updated_at = ? WHERE id = ?`,
		string(o.Status), nullable(o.TransactionID), formatTime(o.UpdatedAt), o.ID,
	)
	if err != nil {
		return fmt.Errorf("order repository: update %s: %w", o.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// List returns matches newest first; rowid breaks created_at ties.
func (r *OrderRepository) List(ctx context.Context, filter domain.ListFilter) ([]*domain.Order, error) {
	filter = filter.Normalized()

	var (
		where []string
		args  []any
	)
	if filter.UserID != "" {
		where = append(where, "user_id = ?")
		args = append(args, filter.UserID)
	}
	if filter.Status != "" {
		where = append(where, "status = ?")
		args = append(args, string(filter.Status))
	}
	if filter.PaymentMethod != "" {
		where = append(where, "payment_method = ?")
		args = append(args, string(filter.PaymentMethod))
	}
	query := `SELECT id FROM orders`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC, rowid DESC LIMIT ? OFFSET ?"
	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("order repository: list: %w", err)
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	out := make([]*domain.Order, 0, len(ids))
	for _, id := range ids {
		o, err := r.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, nil
}

// prefixed scans leading columns into head and hands the rest to the
// product scanner.
type prefixed struct {
	rows *sql.Rows
	head []any
}

func (p prefixed) Scan(dest ...any) error {
	return p.rows.Scan(append(p.head, dest...)...)
}
