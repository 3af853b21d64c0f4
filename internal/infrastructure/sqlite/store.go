package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Zhima-Mochi/minishop-commerce/internal/application"
	"github.com/Zhima-Mochi/minishop-commerce/internal/domain/cart"
	"github.com/Zhima-Mochi/minishop-commerce/internal/domain/order"
	"github.com/Zhima-Mochi/minishop-commerce/internal/domain/product"

	"github.com/mattn/go-sqlite3"
)

// Transactions begin IMMEDIATE so the writer lock is taken at BEGIN and two
// checkouts can never interleave their read-check-decrement sequences.
const dsnParams = "_txlock=immediate&_busy_timeout=5000&_foreign_keys=on"

// Store is the SQLite-backed Transactor.
type Store struct {
	db *sql.DB
}

var _ application.Transactor = (*Store)(nil)

// Open opens (creating if needed) the database file at path.
func Open(path string) (*Store, error) {
	if strings.HasPrefix(path, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		path = filepath.Join(home, path[1:])
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?%s", path, dsnParams))
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: open %s: %w", path, err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// WithinTx commits when fn returns nil and rolls back on error or panic.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, st application.Stores) error) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: begin: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if err := fn(ctx, stores{tx: tx}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: commit: %w", err)
	}
	committed = true
	return nil
}

type stores struct{ tx *sql.Tx }

func (s stores) Products() product.Repository { return &ProductRepository{tx: s.tx} }
func (s stores) Orders() order.Repository     { return &OrderRepository{tx: s.tx} }
func (s stores) Carts() cart.Repository       { return &CartRepository{tx: s.tx} }

// timeLayout is fixed-width so text ordering matches chronological order.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}

func isUniqueViolation(err error) bool {
	var se sqlite3.Error
	if !errors.As(err, &se) {
		return false
	}
	return se.ExtendedCode == sqlite3.ErrConstraintPrimaryKey || se.ExtendedCode == sqlite3.ErrConstraintUnique
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
