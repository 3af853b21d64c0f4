package httppresentation

import (
	"fmt"
	"net/http"
	"strconv"

	appproduct "github.com/Zhima-Mochi/minishop-commerce/internal/application/product"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type createProductRequest struct {
	Name        string           `json:"name" binding:"required"`
	Description string           `json:"description"`
	Price       *decimal.Decimal `json:"price" binding:"required"`
	Stock       int              `json:"stock"`
	Category    string           `json:"category" binding:"required"`
	ImageURL    string           `json:"image_url"`
}

func (h *Handler) handleCreateProduct(c *gin.Context) {
	var req createProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBadRequest(c, err)
		return
	}
	p, err := h.svc.CreateProduct.Execute(c.Request.Context(), appproduct.CreateProductInput{
		Name:        req.Name,
		Description: req.Description,
		Price:       *req.Price,
		Stock:       req.Stock,
		Category:    req.Category,
		ImageURL:    req.ImageURL,
	})
	if err != nil {
		h.writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, envelope{Success: true, Data: toProductDTO(p)})
}

func (h *Handler) handleListProducts(c *gin.Context) {
	in := appproduct.ListProductsInput{Category: c.Query("category")}

	var err error
	if in.MinPrice, err = queryDecimal(c, "min_price"); err != nil {
		writeBadRequest(c, err)
		return
	}
	if in.MaxPrice, err = queryDecimal(c, "max_price"); err != nil {
		writeBadRequest(c, err)
		return
	}
	if v := c.Query("min_stock"); v != "" {
		n, convErr := strconv.Atoi(v)
		if convErr != nil {
			writeBadRequest(c, fmt.Errorf("min_stock: %w", convErr))
			return
		}
		in.MinStock = &n
	}
	if in.Limit, in.Offset, err = queryPage(c); err != nil {
		writeBadRequest(c, err)
		return
	}

	products, err := h.svc.ListProducts.Execute(c.Request.Context(), in)
	if err != nil {
		h.writeDomainError(c, err)
		return
	}
	out := make([]*productDTO, 0, len(products))
	for _, p := range products {
		out = append(out, toProductDTO(p))
	}
	c.JSON(http.StatusOK, envelope{Success: true, Data: out})
}

func queryDecimal(c *gin.Context, key string) (*decimal.Decimal, error) {
	v := c.Query(key)
	if v == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", key, err)
	}
	return &d, nil
}

func queryPage(c *gin.Context) (limit, offset int, err error) {
	if v := c.Query("limit"); v != "" {
		if limit, err = strconv.Atoi(v); err != nil {
			return 0, 0, fmt.Errorf("limit: %w", err)
		}
	}
	if v := c.Query("offset"); v != "" {
		if offset, err = strconv.Atoi(v); err != nil {
			return 0, 0, fmt.Errorf("offset: %w", err)
		}
	}
	return limit, offset, nil
}
