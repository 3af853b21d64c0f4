package httppresentation

import (
	"fmt"
	"net/http"

	apporder "github.com/Zhima-Mochi/minishop-commerce/internal/application/order"
	"github.com/Zhima-Mochi/minishop-commerce/internal/domain/cart"
	"github.com/gin-gonic/gin"
)

type orderLineRequest struct {
	ProductID string `json:"product_id" binding:"required"`
	Quantity  int    `json:"quantity"`
}

type placeOrderRequest struct {
	UserID        string             `json:"user_id" binding:"required"`
	Items         []orderLineRequest `json:"items" binding:"required,min=1,dive"`
	PaymentMethod string             `json:"payment_method" binding:"required"`
	PaymentData   map[string]string  `json:"payment_data"`
	NotifyEmail   string             `json:"notify_email"`
}

type placeOrderFromCartRequest struct {
	CartID        string            `json:"cart_id"`
	PaymentMethod string            `json:"payment_method" binding:"required"`
	PaymentData   map[string]string `json:"payment_data"`
	NotifyEmail   string            `json:"notify_email"`
}

func (h *Handler) handlePlaceOrder(c *gin.Context) {
	var req placeOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBadRequest(c, err)
		return
	}
	lines := make([]apporder.LineRequest, 0, len(req.Items))
	for _, it := range req.Items {
		lines = append(lines, apporder.LineRequest{ProductID: it.ProductID, Quantity: it.Quantity})
	}
	res, err := h.svc.PlaceOrder.Execute(c.Request.Context(), apporder.PlaceOrderInput{
		UserID:          req.UserID,
		Lines:           lines,
		PaymentMethod:   req.PaymentMethod,
		PaymentData:     req.PaymentData,
		NotifyRecipient: req.NotifyEmail,
	})
	h.respondPlaced(c, res, err)
}

func (h *Handler) handlePlaceOrderFromCart(c *gin.Context) {
	var req placeOrderFromCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBadRequest(c, err)
		return
	}
	ct, ok := h.currentCart(c)
	if !ok {
		return
	}
	// A cart id in the body must name the caller's own cart.
	if req.CartID != "" && req.CartID != ct.ID {
		h.writeDomainError(c, fmt.Errorf("cart %s: %w", req.CartID, cart.ErrNotFound))
		return
	}
	res, err := h.svc.PlaceOrder.PlaceOrderFromCart(c.Request.Context(), apporder.PlaceOrderFromCartInput{
		CartID:          ct.ID,
		UserID:          c.GetHeader(headerUserID),
		PaymentMethod:   req.PaymentMethod,
		PaymentData:     req.PaymentData,
		NotifyRecipient: req.NotifyEmail,
	})
	h.respondPlaced(c, res, err)
}

// respondPlaced answers 201 whenever the order exists; a declined payment is
// reported in the body with the order left pending.
func (h *Handler) respondPlaced(c *gin.Context, res *apporder.PlaceOrderResult, err error) {
	if err != nil {
		h.writeDomainError(c, err)
		return
	}
	msg := "order placed"
	if !res.Payment.Success {
		msg = "order created, payment declined: " + res.Payment.Message
	}
	c.JSON(http.StatusCreated, envelope{Success: true, Message: msg, Data: toPlaceOrderDTO(res)})
}

func (h *Handler) handleListOrders(c *gin.Context) {
	limit, offset, err := queryPage(c)
	if err != nil {
		writeBadRequest(c, err)
		return
	}
	orders, err := h.svc.ListOrders.Execute(c.Request.Context(), apporder.ListOrdersInput{
		UserID:        c.Query("user_id"),
		Status:        c.Query("status"),
		PaymentMethod: c.Query("payment_method"),
		Limit:         limit,
		Offset:        offset,
	})
	if err != nil {
		h.writeDomainError(c, err)
		return
	}
	out := make([]*orderDTO, 0, len(orders))
	for _, o := range orders {
		out = append(out, toOrderDTO(o))
	}
	c.JSON(http.StatusOK, envelope{Success: true, Data: out})
}
