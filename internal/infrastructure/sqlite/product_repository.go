package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	domain "github.com/Zhima-Mochi/minishop-commerce/internal/domain/product"
)

const productColumns = "id, name, description, price, stock, category, image_url, created_at, updated_at"

type ProductRepository struct {
	tx *sql.Tx
}

func (r *ProductRepository) Insert(ctx context.Context, p *domain.Product) error {
	_, err := r.tx.ExecContext(ctx,
		`INSERT INTO products (`+productColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Name, p.Description, p.Price.StringFixed(2), p.Stock, p.Category, p.ImageURL,
		formatTime(p.CreatedAt), formatTime(p.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("product repository: insert %s: %w", p.ID, err)
	}
	return nil
}

func (r *ProductRepository) Get(ctx context.Context, id string) (*domain.Product, error) {
	row := r.tx.QueryRowContext(ctx, `SELECT `+productColumns+` FROM products WHERE id = ?`, id)
	p, err := scanProduct(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("product repository: get %s: %w", id, err)
	}
	return p, nil
}

func (r *ProductRepository) List(ctx context.Context, filter domain.ListFilter) ([]*domain.Product, error) {
	filter = filter.Normalized()

	var (
		where []string
		args  []any
	)
	if filter.Category != "" {
		where = append(where, "category = ?")
		args = append(args, filter.Category)
	}
	if filter.MinPrice != nil {
		where = append(where, "CAST(price AS REAL) >= ?")
		args = append(args, filter.MinPrice.InexactFloat64())
	}
	if filter.MaxPrice != nil {
		where = append(where, "CAST(price AS REAL) <= ?")
		args = append(args, filter.MaxPrice.InexactFloat64())
	}
	if filter.MinStock != nil {
		where = append(where, "stock >= ?")
		args = append(args, *filter.MinStock)
	}

	query := `SELECT ` + productColumns + ` FROM products`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY rowid LIMIT ? OFFSET ?"
	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("product repository: list: %w", err)
	}
	defer rows.Close()

	var out []*domain.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("product repository: list: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// DecrementStock is a single conditional UPDATE; zero affected rows means
// the stock no longer covers quantity (or the product is gone).
func (r *ProductRepository) DecrementStock(ctx context.Context, id string, quantity int) (bool, error) {
	res, err := r.tx.ExecContext(ctx,
		`UPDATE products SET stock = stock - ?, updated_at = ? WHERE id = ? AND stock >= ?`,
		quantity, formatTime(time.Now()), id, quantity,
	)
	if err != nil {
		return false, fmt.Errorf("product repository: decrement %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanProduct(s scanner) (*domain.Product, error) {
	var (
		p                    domain.Product
		createdAt, updatedAt string
	)
	if err := s.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.Stock, &p.Category, &p.ImageURL, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	var err error
	if p.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if p.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}
