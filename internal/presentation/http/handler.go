package httppresentation

import (
	"context"
	"net/http"

	"github.com/Zhima-Mochi/minishop-commerce/internal/application"
	appnotification "github.com/Zhima-Mochi/minishop-commerce/internal/application/notification"
	apporder "github.com/Zhima-Mochi/minishop-commerce/internal/application/order"
	apppayment "github.com/Zhima-Mochi/minishop-commerce/internal/application/payment"
	appproduct "github.com/Zhima-Mochi/minishop-commerce/internal/application/product"
	"github.com/Zhima-Mochi/minishop-commerce/internal/domain/cart"
	"github.com/Zhima-Mochi/minishop-commerce/internal/domain/order"
	"github.com/Zhima-Mochi/minishop-commerce/internal/domain/payment"
	"github.com/Zhima-Mochi/minishop-commerce/internal/domain/product"
	"github.com/Zhima-Mochi/minishop-commerce/internal/observability"
	"github.com/gin-gonic/gin"
)

const componentHTTPHandler = "http_server"

// CartService is the cart surface the handlers need.
type CartService interface {
	GetOrCreate(ctx context.Context, userID, sessionID string) (*cart.Cart, error)
	AddItem(ctx context.Context, cartID, productID string, quantity int) (*cart.Cart, error)
	UpdateItemQuantity(ctx context.Context, cartID, itemID string, quantity int) (*cart.Cart, error)
	RemoveItem(ctx context.Context, cartID, itemID string) (*cart.Cart, error)
	Clear(ctx context.Context, cartID string) (*cart.Cart, error)
}

type OrderPlacer interface {
	Execute(ctx context.Context, cmd apporder.PlaceOrderInput) (*apporder.PlaceOrderResult, error)
	PlaceOrderFromCart(ctx context.Context, cmd apporder.PlaceOrderFromCartInput) (*apporder.PlaceOrderResult, error)
}

// Services bundles the operations exposed over HTTP.
type Services struct {
	CreateProduct    application.UseCase[appproduct.CreateProductInput, *product.Product]
	ListProducts     application.UseCase[appproduct.ListProductsInput, []*product.Product]
	Carts            CartService
	PlaceOrder       OrderPlacer
	ListOrders       application.UseCase[apporder.ListOrdersInput, []*order.Order]
	ProcessPayment   application.UseCase[apppayment.ProcessPaymentInput, payment.Result]
	SendNotification application.UseCase[appnotification.SendNotificationInput, bool]
}

type Handler struct {
	svc     Services
	metrics http.Handler
	log     observability.Logger
	tel     observability.Observability
}

// NewHandler wires the handlers; metricsHandler serves /metrics when non-nil.
func NewHandler(svc Services, metricsHandler http.Handler, tel observability.Observability) *Handler {
	tel = observability.Or(tel)
	return &Handler{
		svc:     svc,
		metrics: metricsHandler,
		log:     tel.Logger().With(observability.F("component", componentHTTPHandler)),
		tel:     tel,
	}
}

func (h *Handler) Router() *gin.Engine {
	r := gin.New()

	// Trace → Request Logger → Metrics → Access Log → Recovery → Handler
	m := h.tel.Metrics()
	r.Use(
		withTrace(),
		withRequestLogger(h.log),
		withHTTPMetrics(
			m.Counter(observability.MHTTPRequests),
			m.Histogram(observability.MHTTPRequestDuration),
		),
		withAccessLog(h.log),
		withRecovery(h.log),
	)

	r.GET("/health", h.handleHealth)
	if h.metrics != nil {
		r.GET("/metrics", gin.WrapH(h.metrics))
	}

	api := r.Group("/api")
	{
		api.GET("/products", h.handleListProducts)
		api.POST("/products", h.handleCreateProduct)

		api.GET("/cart", h.handleShowCart)
		api.DELETE("/cart", h.handleClearCart)
		api.POST("/cart/items", h.handleAddCartItem)
		api.PUT("/cart/items/:itemId", h.handleUpdateCartItem)
		api.DELETE("/cart/items/:itemId", h.handleRemoveCartItem)

		api.GET("/orders", h.handleListOrders)
		api.POST("/orders", h.handlePlaceOrder)
		api.POST("/orders/from-cart", h.handlePlaceOrderFromCart)

		api.POST("/payments/process", h.handleProcessPayment)
		api.POST("/notifications/send", h.handleSendNotification)
	}
	return r
}

func (h *Handler) handleHealth(c *gin.Context) {
	c.String(http.StatusOK, "ok")
}
