package cart

import (
	"errors"

	"github.com/Zhima-Mochi/minishop-commerce/internal/application"
	domain "github.com/Zhima-Mochi/minishop-commerce/internal/domain/cart"
	"github.com/Zhima-Mochi/minishop-commerce/internal/domain/inventory"
	"github.com/Zhima-Mochi/minishop-commerce/internal/domain/product"
)

func failureStatus(err error) string {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return statusCartNotFound
	case errors.Is(err, domain.ErrItemNotFound):
		return statusItemNotFound
	case errors.Is(err, product.ErrNotFound):
		return "PRODUCT_NOT_FOUND"
	case errors.Is(err, inventory.ErrInsufficientStock):
		return "INSUFFICIENT_STOCK"
	case errors.Is(err, domain.ErrInvalidQuantity), errors.Is(err, application.ErrValidation):
		return statusInvalidRequest
	default:
		return statusRepoFailure
	}
}
