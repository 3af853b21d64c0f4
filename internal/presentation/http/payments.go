package httppresentation

import (
	"net/http"

	appnotification "github.com/Zhima-Mochi/minishop-commerce/internal/application/notification"
	apppayment "github.com/Zhima-Mochi/minishop-commerce/internal/application/payment"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type processPaymentRequest struct {
	PaymentMethod string            `json:"payment_method" binding:"required"`
	Amount        decimal.Decimal   `json:"amount"`
	PaymentData   map[string]string `json:"payment_data"`
	OrderID       string            `json:"order_id"`
}

func (h *Handler) handleProcessPayment(c *gin.Context) {
	var req processPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBadRequest(c, err)
		return
	}
	res, err := h.svc.ProcessPayment.Execute(c.Request.Context(), apppayment.ProcessPaymentInput{
		Method:  req.PaymentMethod,
		Amount:  req.Amount,
		Data:    req.PaymentData,
		OrderID: req.OrderID,
	})
	if err != nil {
		h.writeDomainError(c, err)
		return
	}
	if !res.Success {
		c.JSON(http.StatusBadRequest, envelope{Success: false, Message: res.Message, Data: toPaymentDTO(res)})
		return
	}
	c.JSON(http.StatusOK, envelope{Success: true, Message: res.Message, Data: toPaymentDTO(res)})
}

type sendNotificationRequest struct {
	Channel   string `json:"channel" binding:"required"`
	Recipient string `json:"recipient"`
	Message   string `json:"message"`
}

func (h *Handler) handleSendNotification(c *gin.Context) {
	var req sendNotificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBadRequest(c, err)
		return
	}
	ok, err := h.svc.SendNotification.Execute(c.Request.Context(), appnotification.SendNotificationInput{
		Channel:   req.Channel,
		Recipient: req.Recipient,
		Message:   req.Message,
	})
	if err != nil {
		h.writeDomainError(c, err)
		return
	}
	if !ok {
		c.JSON(http.StatusBadGateway, envelope{Success: false, Message: "notification was not accepted"})
		return
	}
	c.JSON(http.StatusOK, envelope{Success: true, Message: "notification sent"})
}
