package httppresentation

import (
	"net/http"

	"github.com/Zhima-Mochi/minishop-commerce/internal/domain/cart"
	"github.com/gin-gonic/gin"
)

const (
	headerUserID    = "X-User-ID"
	headerSessionID = "X-Session-ID"
)

type addCartItemRequest struct {
	ProductID string `json:"product_id" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required"`
}

type updateCartItemRequest struct {
	Quantity int `json:"quantity" binding:"required"`
}

// currentCart resolves the caller's cart from the identity headers and
// echoes the session id so anonymous clients can keep using it.
func (h *Handler) currentCart(c *gin.Context) (*cart.Cart, bool) {
	ct, err := h.svc.Carts.GetOrCreate(c.Request.Context(), c.GetHeader(headerUserID), c.GetHeader(headerSessionID))
	if err != nil {
		h.writeDomainError(c, err)
		return nil, false
	}
	if ct.SessionID != "" {
		c.Header(headerSessionID, ct.SessionID)
	}
	return ct, true
}

func (h *Handler) respondCart(c *gin.Context, ct *cart.Cart, err error) {
	if err != nil {
		h.writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, envelope{Success: true, Data: toCartDTO(ct)})
}

func (h *Handler) handleShowCart(c *gin.Context) {
	ct, ok := h.currentCart(c)
	if !ok {
		return
	}
	h.respondCart(c, ct, nil)
}

func (h *Handler) handleClearCart(c *gin.Context) {
	ct, ok := h.currentCart(c)
	if !ok {
		return
	}
	ct, err := h.svc.Carts.Clear(c.Request.Context(), ct.ID)
	h.respondCart(c, ct, err)
}

func (h *Handler) handleAddCartItem(c *gin.Context) {
	var req addCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBadRequest(c, err)
		return
	}
	ct, ok := h.currentCart(c)
	if !ok {
		return
	}
	ct, err := h.svc.Carts.AddItem(c.Request.Context(), ct.ID, req.ProductID, req.Quantity)
	h.respondCart(c, ct, err)
}

func (h *Handler) handleUpdateCartItem(c *gin.Context) {
	var req updateCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBadRequest(c, err)
		return
	}
	ct, ok := h.currentCart(c)
	if !ok {
		return
	}
	ct, err := h.svc.Carts.UpdateItemQuantity(c.Request.Context(), ct.ID, c.Param("itemId"), req.Quantity)
	h.respondCart(c, ct, err)
}

func (h *Handler) handleRemoveCartItem(c *gin.Context) {
	ct, ok := h.currentCart(c)
	if !ok {
		return
	}
	ct, err := h.svc.Carts.RemoveItem(c.Request.Context(), ct.ID, c.Param("itemId"))
	h.respondCart(c, ct, err)
}
