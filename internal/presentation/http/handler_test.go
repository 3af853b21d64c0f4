package httppresentation_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Zhima-Mochi/minishop-commerce/internal/application"
	appcart "github.com/Zhima-Mochi/minishop-commerce/internal/application/cart"
	appnotification "github.com/Zhima-Mochi/minishop-commerce/internal/application/notification"
	apporder "github.com/Zhima-Mochi/minishop-commerce/internal/application/order"
	apppayment "github.com/Zhima-Mochi/minishop-commerce/internal/application/payment"
	appproduct "github.com/Zhima-Mochi/minishop-commerce/internal/application/product"
	"github.com/Zhima-Mochi/minishop-commerce/internal/infrastructure/id"
	"github.com/Zhima-Mochi/minishop-commerce/internal/infrastructure/memory"
	notifsenders "github.com/Zhima-Mochi/minishop-commerce/internal/infrastructure/notification"
	"github.com/Zhima-Mochi/minishop-commerce/internal/infrastructure/observability/testkit"
	httppresentation "github.com/Zhima-Mochi/minishop-commerce/internal/presentation/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type response struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type server struct {
	t      *testing.T
	router *gin.Engine
	rec    *testkit.Recorder
}

func newServer(t *testing.T) *server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	rec := testkit.New()
	store := memory.NewStore()
	ids := id.NewUUID()

	dispatcher := appnotification.NewDispatcher(rec.Tel, notifsenders.LogSenders(rec.Tel.Logger())...)
	resolver := apppayment.NewResolver(nil, apppayment.CreditCard{}, apppayment.Pix{}, apppayment.NewBoleto(nil))
	payments := apppayment.NewProcessPaymentUseCase(resolver, time.Second, rec.Tel)
	creator := apporder.NewCreateOrderUseCase(store, ids, rec.Tel)

	svc := httppresentation.Services{
		CreateProduct:    appproduct.NewCreateProductUseCase(store, ids, rec.Tel),
		ListProducts:     appproduct.NewListProductsUseCase(store, rec.Tel),
		Carts:            appcart.NewService(store, ids, rec.Tel),
		PlaceOrder:       apporder.NewPlaceOrderUseCase(creator, payments, store, dispatcher, "cliente@example.com", rec.Tel),
		ListOrders:       apporder.NewListOrdersUseCase(store, rec.Tel),
		ProcessPayment:   payments,
		SendNotification: appnotification.NewSendNotificationUseCase(dispatcher, rec.Tel),
	}
	metrics := promhttp.HandlerFor(rec.Registry, promhttp.HandlerOpts{})
	h := httppresentation.NewHandler(svc, metrics, rec.Tel)
	return &server{t: t, router: h.Router(), rec: rec}
}

func (s *server) do(method, path string, body any, headers ...string) (*httptest.ResponseRecorder, response) {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(s.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var resp response
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(s.t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	}
	return w, resp
}

func (s *server) createProduct(name, price string, stock int) string {
	s.t.Helper()
	w, resp := s.do(http.MethodPost, "/api/products", map[string]any{
		"name": name, "price": price, "stock": stock, "category": "electronics",
	})
	require.Equal(s.t, http.StatusCreated, w.Code, w.Body.String())
	var p struct {
		ID string `json:"id"`
	}
	require.NoError(s.t, json.Unmarshal(resp.Data, &p))
	return p.ID
}

type placedOrder struct {
	Order struct {
		ID            string      `json:"id"`
		Status        string      `json:"status"`
		TotalAmount   json.Number `json:"total_amount"`
		TransactionID string      `json:"transaction_id"`
		Items         []struct {
			Quantity int `json:"quantity"`
		} `json:"items"`
	} `json:"order"`
	Payment *struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	} `json:"payment"`
}

func TestHealth(t *testing.T) {
	s := newServer(t)
	w, _ := s.do(http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", w.Body.String())
}

func TestProducts(t *testing.T) {
	s := newServer(t)
	s.createProduct("Phone", "1500.00", 5)
	s.createProduct("Cable", "19.9", 0)

	w, resp := s.do(http.MethodGet, "/api/products?min_stock=1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list []struct {
		Name  string      `json:"name"`
		Price json.Number `json:"price"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &list))
	require.Len(t, list, 1)
	assert.Equal(t, "Phone", list[0].Name)
	assert.Equal(t, json.Number("1500.00"), list[0].Price)

	w, resp = s.do(http.MethodGet, "/api/products?min_price=abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, resp.Success)

	w, _ = s.do(http.MethodPost, "/api/products", map[string]any{"name": "", "price": "1", "category": "x"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = s.do(http.MethodPost, "/api/products", map[string]any{"name": "Bad", "price": "-1", "category": "x"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = s.do(http.MethodPost, "/api/products", map[string]any{"name": "Free", "stock": 1, "category": "x"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w, resp = s.do(http.MethodGet, "/api/products?category=x", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, "[]", string(resp.Data))
}

func TestPlaceOrder(t *testing.T) {
	s := newServer(t)
	phone := s.createProduct("Phone", "100.00", 5)

	t.Run("approved", func(t *testing.T) {
		w, resp := s.do(http.MethodPost, "/api/orders", map[string]any{
			"user_id":        "u1",
			"items":          []map[string]any{{"product_id": phone, "quantity": 2}},
			"payment_method": "pix",
			"payment_data":   map[string]string{"pix_key": "a@b.com"},
		})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		assert.Equal(t, "order placed", resp.Message)

		var placed placedOrder
		require.NoError(t, json.Unmarshal(resp.Data, &placed))
		assert.Equal(t, "paid", placed.Order.Status)
		assert.Equal(t, json.Number("200.00"), placed.Order.TotalAmount)
		assert.True(t, strings.HasPrefix(placed.Order.TransactionID, "PIX-"))
		require.NotNil(t, placed.Payment)
		assert.True(t, placed.Payment.Success)
	})

	t.Run("declined keeps the order pending", func(t *testing.T) {
		w, resp := s.do(http.MethodPost, "/api/orders", map[string]any{
			"user_id":        "u1",
			"items":          []map[string]any{{"product_id": phone, "quantity": 1}},
			"payment_method": "pix",
		})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		assert.True(t, resp.Success)
		assert.True(t, strings.HasPrefix(resp.Message, "order created, payment declined: "), resp.Message)

		var placed placedOrder
		require.NoError(t, json.Unmarshal(resp.Data, &placed))
		assert.Equal(t, "pending", placed.Order.Status)
		assert.Empty(t, placed.Order.TransactionID)
	})

	t.Run("insufficient stock", func(t *testing.T) {
		w, resp := s.do(http.MethodPost, "/api/orders", map[string]any{
			"user_id":        "u1",
			"items":          []map[string]any{{"product_id": phone, "quantity": 10}},
			"payment_method": "pix",
			"payment_data":   map[string]string{"pix_key": "k"},
		})
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.False(t, resp.Success)
	})

	t.Run("unknown product", func(t *testing.T) {
		w, _ := s.do(http.MethodPost, "/api/orders", map[string]any{
			"user_id":        "u1",
			"items":          []map[string]any{{"product_id": "ghost", "quantity": 1}},
			"payment_method": "pix",
		})
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("unsupported method", func(t *testing.T) {
		w, _ := s.do(http.MethodPost, "/api/orders", map[string]any{
			"user_id":        "u1",
			"items":          []map[string]any{{"product_id": phone, "quantity": 1}},
			"payment_method": "crypto",
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("no items", func(t *testing.T) {
		w, _ := s.do(http.MethodPost, "/api/orders", map[string]any{
			"user_id": "u1", "items": []any{}, "payment_method": "pix",
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	w, resp := s.do(http.MethodGet, "/api/orders?user_id=u1&status=paid", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var orders []json.RawMessage
	require.NoError(t, json.Unmarshal(resp.Data, &orders))
	assert.Len(t, orders, 1)

	w, _ = s.do(http.MethodGet, "/api/orders?status=shipped-to-mars", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCartCheckout(t *testing.T) {
	s := newServer(t)
	book := s.createProduct("Book", "35.50", 3)

	w, resp := s.do(http.MethodGet, "/api/cart", nil)
	require.Equal(t, http.StatusOK, w.Code)
	session := w.Header().Get("X-Session-ID")
	require.NotEmpty(t, session)

	w, resp = s.do(http.MethodPost, "/api/cart/items", map[string]any{"product_id": book, "quantity": 2}, "X-Session-ID", session)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, session, w.Header().Get("X-Session-ID"))
	var ct struct {
		TotalAmount json.Number `json:"total_amount"`
		Items       []struct {
			ID string `json:"id"`
		} `json:"items"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &ct))
	assert.Equal(t, json.Number("71.00"), ct.TotalAmount)
	require.Len(t, ct.Items, 1)

	w, _ = s.do(http.MethodPut, "/api/cart/items/"+ct.Items[0].ID, map[string]any{"quantity": 9}, "X-Session-ID", session)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w, _ = s.do(http.MethodDelete, "/api/cart/items/missing", nil, "X-Session-ID", session)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, resp = s.do(http.MethodPost, "/api/orders/from-cart", map[string]any{
		"payment_method": "credit_card",
		"payment_data":   map[string]string{"card_number": "4111111111111111", "cvv": "123"},
	}, "X-Session-ID", session, "X-User-ID", "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var placed placedOrder
	require.NoError(t, json.Unmarshal(resp.Data, &placed))
	assert.Equal(t, "paid", placed.Order.Status)
	assert.Equal(t, json.Number("71.00"), placed.Order.TotalAmount)

	w, resp = s.do(http.MethodGet, "/api/cart", nil, "X-Session-ID", session)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(resp.Data, &ct))
	assert.Empty(t, ct.Items)

	w, _ = s.do(http.MethodPost, "/api/orders/from-cart", map[string]any{"payment_method": "boleto"}, "X-Session-ID", session)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCartCheckout_RejectsAnotherCallersCart(t *testing.T) {
	s := newServer(t)
	book := s.createProduct("Book", "35.50", 3)

	w, resp := s.do(http.MethodGet, "/api/cart", nil)
	require.Equal(t, http.StatusOK, w.Code)
	owner := w.Header().Get("X-Session-ID")
	var owned struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &owned))
	w, _ = s.do(http.MethodPost, "/api/cart/items", map[string]any{"product_id": book, "quantity": 2}, "X-Session-ID", owner)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w, _ = s.do(http.MethodPost, "/api/orders/from-cart", map[string]any{
		"cart_id":        owned.ID,
		"payment_method": "pix",
		"payment_data":   map[string]string{"pix_key": "k"},
	}, "X-User-ID", "intruder")
	assert.Equal(t, http.StatusNotFound, w.Code, w.Body.String())

	w, resp = s.do(http.MethodGet, "/api/orders", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, "[]", string(resp.Data))

	w, resp = s.do(http.MethodGet, "/api/cart", nil, "X-Session-ID", owner)
	require.Equal(t, http.StatusOK, w.Code)
	var ct struct {
		Items []struct {
			ID string `json:"id"`
		} `json:"items"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &ct))
	assert.Len(t, ct.Items, 1)
}

func TestProcessPayment(t *testing.T) {
	s := newServer(t)

	w, resp := s.do(http.MethodPost, "/api/payments/process", map[string]any{
		"payment_method": "boleto", "amount": "10.00",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var p struct {
		Barcode string     `json:"barcode"`
		DueDate *time.Time `json:"due_date"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &p))
	assert.Len(t, p.Barcode, 44)
	assert.NotNil(t, p.DueDate)

	w, resp = s.do(http.MethodPost, "/api/payments/process", map[string]any{
		"payment_method": "credit_card", "amount": "10.00",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, resp.Success)
	assert.Equal(t, "card number and cvv are required", resp.Message)

	w, _ = s.do(http.MethodPost, "/api/payments/process", map[string]any{
		"payment_method": "bitcoin", "amount": "10.00",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSendNotification(t *testing.T) {
	s := newServer(t)

	w, resp := s.do(http.MethodPost, "/api/notifications/send", map[string]any{
		"channel": "email", "recipient": "a@b.com", "message": "hi",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "notification sent", resp.Message)

	w, _ = s.do(http.MethodPost, "/api/notifications/send", map[string]any{
		"channel": "pigeon", "recipient": "a@b.com", "message": "hi",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRequestMetricsAndTraces(t *testing.T) {
	s := newServer(t)
	s.do(http.MethodGet, "/api/products", nil)
	s.do(http.MethodGet, "/api/products", nil)

	assert.Equal(t, 2.0, s.rec.CounterValue("http_requests_total", map[string]string{
		"method": "GET", "route": "/api/products", "status": "200",
	}))
	assert.Contains(t, s.rec.SpanNames(), application.SpanPrefix+"ListProducts")
	assert.NotEmpty(t, s.rec.Messages("http_access"))

	w, _ := s.do(http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "http_requests_total")
}
