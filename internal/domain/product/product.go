package product

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound        = errors.New("product: not found")
	ErrNameRequired    = errors.New("product: name is required")
	ErrNameTooLong     = errors.New("product: name must be at most 255 characters")
	ErrCategoryMissing = errors.New("product: category is required")
	ErrInvalidPrice    = errors.New("product: price must be zero or greater")
	ErrInvalidStock    = errors.New("product: stock must be zero or greater")
)

const maxNameLength = 255

// Product is a catalog entry. Stock only changes through the inventory ledger.
type Product struct {
	ID          string
	Name        string
	Description string
	Price       decimal.Decimal
	Stock       int
	Category    string
	ImageURL    string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func New(id, name, description string, price decimal.Decimal, stock int, category, imageURL string) (*Product, error) {
	name = strings.TrimSpace(name)
	category = strings.TrimSpace(category)
	switch {
	case name == "":
		return nil, ErrNameRequired
	case len([]rune(name)) > maxNameLength:
		return nil, ErrNameTooLong
	case category == "":
		return nil, ErrCategoryMissing
	case price.IsNegative():
		return nil, ErrInvalidPrice
	case stock < 0:
		return nil, ErrInvalidStock
	}

	now := time.Now().UTC()
	return &Product{
		ID:          id,
		Name:        name,
		Description: description,
		Price:       price.Round(2),
		Stock:       stock,
		Category:    category,
		ImageURL:    imageURL,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// IsAvailable reports whether the current stock covers quantity.
func (p *Product) IsAvailable(quantity int) bool {
	return p.Stock >= quantity
}

// Subtotal is price times quantity at currency precision.
func (p *Product) Subtotal(quantity int) decimal.Decimal {
	return p.Price.Mul(decimal.NewFromInt(int64(quantity))).Round(2)
}

func (p *Product) Clone() *Product {
	if p == nil {
		return nil
	}
	clone := *p
	return &clone
}
