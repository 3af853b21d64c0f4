package cart

import (
	"errors"
	"time"

	"github.com/Zhima-Mochi/minishop-commerce/internal/domain/inventory"
	"github.com/Zhima-Mochi/minishop-commerce/internal/domain/product"
	"github.com/shopspring/decimal"
)

var (
	ErrNotFound        = errors.New("cart: not found")
	ErrItemNotFound    = errors.New("cart: item not found")
	ErrEmpty           = errors.New("cart: cart is empty")
	ErrInvalidQuantity = errors.New("cart: quantity must be greater than zero")
	ErrOwnerRequired   = errors.New("cart: exactly one of user id or session id is required")
)

type Item struct {
	ID        string
	ProductID string
	Quantity  int
	// UnitPrice is the product price when the item was first added.
	UnitPrice decimal.Decimal
	Subtotal  decimal.Decimal

	Product *product.Product
}

// Cart is a pre-order basket owned by a user or by an anonymous session,
// never both.
type Cart struct {
	ID          string
	UserID      string
	SessionID   string
	Items       []Item
	TotalAmount decimal.Decimal
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func New(id, userID, sessionID string) (*Cart, error) {
	if (userID == "") == (sessionID == "") {
		return nil, ErrOwnerRequired
	}
	now := time.Now().UTC()
	return &Cart{
		ID:          id,
		UserID:      userID,
		SessionID:   sessionID,
		TotalAmount: decimal.Zero,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// AddItem merges quantity into the line for p, or appends a new line with a
// price snapshot. newItemID is used only when a line is appended.
func (c *Cart) AddItem(newItemID string, p *product.Product, quantity int) (Item, error) {
	if quantity <= 0 {
		return Item{}, ErrInvalidQuantity
	}

	if idx := c.indexOfProduct(p.ID); idx >= 0 {
		item := &c.Items[idx]
		merged := item.Quantity + quantity
		if !p.IsAvailable(merged) {
			return Item{}, inventory.NewInsufficientStock(p, merged)
		}
		item.Quantity = merged
		item.Subtotal = lineSubtotal(item.UnitPrice, merged)
		item.Product = p.Clone()
		c.Recalculate()
		return *item, nil
	}

	if !p.IsAvailable(quantity) {
		return Item{}, inventory.NewInsufficientStock(p, quantity)
	}
	item := Item{
		ID:        newItemID,
		ProductID: p.ID,
		Quantity:  quantity,
		UnitPrice: p.Price,
		Subtotal:  p.Subtotal(quantity),
		Product:   p.Clone(),
	}
	c.Items = append(c.Items, item)
	c.Recalculate()
	return item, nil
}

// UpdateItemQuantity sets an existing line's quantity; p is the line's product
// as currently stored.
func (c *Cart) UpdateItemQuantity(itemID string, p *product.Product, quantity int) (Item, error) {
	if quantity <= 0 {
		return Item{}, ErrInvalidQuantity
	}
	idx := c.indexOfItem(itemID)
	if idx < 0 {
		return Item{}, ErrItemNotFound
	}
	if !p.IsAvailable(quantity) {
		return Item{}, inventory.NewInsufficientStock(p, quantity)
	}

	item := &c.Items[idx]
	item.Quantity = quantity
	item.Subtotal = lineSubtotal(item.UnitPrice, quantity)
	item.Product = p.Clone()
	c.Recalculate()
	return *item, nil
}

func (c *Cart) RemoveItem(itemID string) error {
	idx := c.indexOfItem(itemID)
	if idx < 0 {
		return ErrItemNotFound
	}
	c.Items = append(c.Items[:idx], c.Items[idx+1:]...)
	c.Recalculate()
	return nil
}

func (c *Cart) Clear() {
	c.Items = nil
	c.Recalculate()
}

// Recalculate derives the total from the current items.
func (c *Cart) Recalculate() {
	total := decimal.Zero
	for _, it := range c.Items {
		total = total.Add(it.Subtotal)
	}
	c.TotalAmount = total.Round(2)
	c.UpdatedAt = time.Now().UTC()
}

func (c *Cart) Item(itemID string) (Item, bool) {
	idx := c.indexOfItem(itemID)
	if idx < 0 {
		return Item{}, false
	}
	return c.Items[idx], true
}

func (c *Cart) IsEmpty() bool { return len(c.Items) == 0 }

func (c *Cart) Clone() *Cart {
	if c == nil {
		return nil
	}
	clone := *c
	clone.Items = make([]Item, len(c.Items))
	for i, it := range c.Items {
		it.Product = it.Product.Clone()
		clone.Items[i] = it
	}
	return &clone
}

func (c *Cart) indexOfItem(id string) int {
	for i := range c.Items {
		if c.Items[i].ID == id {
			return i
		}
	}
	return -1
}

func (c *Cart) indexOfProduct(productID string) int {
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			return i
		}
	}
	return -1
}

func lineSubtotal(unit decimal.Decimal, quantity int) decimal.Decimal {
	return unit.Mul(decimal.NewFromInt(int64(quantity))).Round(2)
}
