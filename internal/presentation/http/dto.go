package httppresentation

import (
	"encoding/json"
	"time"

	apporder "github.com/Zhima-Mochi/minishop-commerce/internal/application/order"
	"github.com/Zhima-Mochi/minishop-commerce/internal/domain/cart"
	"github.com/Zhima-Mochi/minishop-commerce/internal/domain/order"
	"github.com/Zhima-Mochi/minishop-commerce/internal/domain/payment"
	"github.com/Zhima-Mochi/minishop-commerce/internal/domain/product"
	"github.com/shopspring/decimal"
)

// envelope is the body shape of every JSON response.
type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// money renders at currency precision as a JSON number.
func money(d decimal.Decimal) json.Number {
	return json.Number(d.StringFixed(2))
}

type productDTO struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Price       json.Number `json:"price"`
	Stock       int         `json:"stock"`
	Category    string      `json:"category"`
	ImageURL    string      `json:"image_url,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
}

func toProductDTO(p *product.Product) *productDTO {
	if p == nil {
		return nil
	}
	return &productDTO{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       money(p.Price),
		Stock:       p.Stock,
		Category:    p.Category,
		ImageURL:    p.ImageURL,
		CreatedAt:   p.CreatedAt,
	}
}

type lineDTO struct {
	ID        string      `json:"id"`
	ProductID string      `json:"product_id"`
	Quantity  int         `json:"quantity"`
	UnitPrice json.Number `json:"unit_price"`
	Subtotal  json.Number `json:"subtotal"`
	Product   *productDTO `json:"product,omitempty"`
}

type orderDTO struct {
	ID            string      `json:"id"`
	UserID        string      `json:"user_id"`
	Status        string      `json:"status"`
	PaymentMethod string      `json:"payment_method"`
	TotalAmount   json.Number `json:"total_amount"`
	TransactionID string      `json:"transaction_id,omitempty"`
	Items         []lineDTO   `json:"items"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

func toOrderDTO(o *order.Order) *orderDTO {
	if o == nil {
		return nil
	}
	items := make([]lineDTO, 0, len(o.Lines))
	for _, l := range o.Lines {
		items = append(items, lineDTO{
			ID:        l.ID,
			ProductID: l.ProductID,
			Quantity:  l.Quantity,
			UnitPrice: money(l.UnitPrice),
			Subtotal:  money(l.Subtotal),
			Product:   toProductDTO(l.Product),
		})
	}
	return &orderDTO{
		ID:            o.ID,
		UserID:        o.UserID,
		Status:        string(o.Status),
		PaymentMethod: string(o.PaymentMethod),
		TotalAmount:   money(o.TotalAmount),
		TransactionID: o.TransactionID,
		Items:         items,
		CreatedAt:     o.CreatedAt,
		UpdatedAt:     o.UpdatedAt,
	}
}

type cartDTO struct {
	ID          string      `json:"id"`
	UserID      string      `json:"user_id,omitempty"`
	SessionID   string      `json:"session_id,omitempty"`
	TotalAmount json.Number `json:"total_amount"`
	Items       []lineDTO   `json:"items"`
}

func toCartDTO(c *cart.Cart) *cartDTO {
	items := make([]lineDTO, 0, len(c.Items))
	for _, it := range c.Items {
		items = append(items, lineDTO{
			ID:        it.ID,
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			UnitPrice: money(it.UnitPrice),
			Subtotal:  money(it.Subtotal),
			Product:   toProductDTO(it.Product),
		})
	}
	return &cartDTO{
		ID:          c.ID,
		UserID:      c.UserID,
		SessionID:   c.SessionID,
		TotalAmount: money(c.TotalAmount),
		Items:       items,
	}
}

type paymentDTO struct {
	Method        string     `json:"payment_method"`
	Success       bool       `json:"success"`
	Message       string     `json:"message"`
	TransactionID string     `json:"transaction_id,omitempty"`
	Barcode       string     `json:"barcode,omitempty"`
	DueDate       *time.Time `json:"due_date,omitempty"`
}

func toPaymentDTO(r payment.Result) paymentDTO {
	out := paymentDTO{
		Method:        string(r.Method),
		Success:       r.Success,
		Message:       r.Message,
		TransactionID: r.TransactionID,
		Barcode:       r.Barcode,
	}
	if !r.DueDate.IsZero() {
		due := r.DueDate
		out.DueDate = &due
	}
	return out
}

type placeOrderDTO struct {
	Order   *orderDTO   `json:"order"`
	Payment *paymentDTO `json:"payment,omitempty"`
}

func toPlaceOrderDTO(res *apporder.PlaceOrderResult) placeOrderDTO {
	out := placeOrderDTO{Order: toOrderDTO(res.Order)}
	if res.Payment.Method != "" {
		p := toPaymentDTO(res.Payment)
		out.Payment = &p
	}
	return out
}
