package cart

import (
	"context"
	"errors"

	"github.com/Zhima-Mochi/minishop-commerce/internal/application"
	domain "github.com/Zhima-Mochi/minishop-commerce/internal/domain/cart"
	"github.com/Zhima-Mochi/minishop-commerce/internal/observability"

	"go.opentelemetry.io/otel/attribute"
)

const (
	cartService          = "cart-service"
	useCaseGetOrCreate   = "cart.get_or_create"
	useCaseGet           = "cart.get"
	useCaseAddItem       = "cart.add_item"
	useCaseUpdateItem    = "cart.update_item"
	useCaseRemoveItem    = "cart.remove_item"
	useCaseClear         = "cart.clear"
	statusCartNotFound   = "CART_NOT_FOUND"
	statusItemNotFound   = "ITEM_NOT_FOUND"
	statusRepoFailure    = "REPO_FAILURE"
	statusInvalidRequest = "VALIDATION_FAILED"
)

// Service groups the cart operations. Each runs in its own transaction and
// returns the cart as stored afterwards.
type Service struct {
	tx    application.Transactor
	idGen application.IDGenerator
	in    application.Instruments
}

func NewService(tx application.Transactor, idGen application.IDGenerator, tel observability.Observability) *Service {
	return &Service{tx: tx, idGen: idGen, in: application.NewInstruments(tel, cartService)}
}

// GetOrCreate finds the cart for userID, else for sessionID, creating it
// when absent. A user id takes precedence; with neither key a cart is
// opened under a fresh session id.
func (s *Service) GetOrCreate(ctx context.Context, userID, sessionID string) (_ *domain.Cart, err error) {
	ctx, run := s.in.Track(ctx, useCaseGetOrCreate, "GetOrCreateCart",
		attribute.Bool("cart.has_user", userID != ""),
	)
	defer func() { run.Done(ctx, err) }()

	if userID != "" {
		sessionID = ""
	} else if sessionID == "" {
		sessionID = s.idGen.NewID()
		run.Status("SESSION_ISSUED")
	}

	var out *domain.Cart
	err = s.tx.WithinTx(ctx, func(ctx context.Context, st application.Stores) error {
		var found *domain.Cart
		var err error
		if userID != "" {
			found, err = st.Carts().FindByUser(ctx, userID)
		} else {
			found, err = st.Carts().FindBySession(ctx, sessionID)
		}
		switch {
		case err == nil:
			out = found
			return nil
		case !errors.Is(err, domain.ErrNotFound):
			return err
		}

		c, err := domain.New(s.idGen.NewID(), userID, sessionID)
		if err != nil {
			return err
		}
		if err := st.Carts().Insert(ctx, c); err != nil {
			return err
		}
		out = c
		return nil
	})
	if err != nil {
		run.Fail(statusRepoFailure)
		return nil, err
	}
	run.Field("cart_id", out.ID)
	return out, nil
}

func (s *Service) Get(ctx context.Context, cartID string) (_ *domain.Cart, err error) {
	ctx, run := s.in.Track(ctx, useCaseGet, "GetCart", attribute.String("cart.id", cartID))
	defer func() { run.Done(ctx, err) }()

	var out *domain.Cart
	err = s.tx.WithinTx(ctx, func(ctx context.Context, st application.Stores) error {
		var err error
		out, err = st.Carts().Get(ctx, cartID)
		return err
	})
	if err != nil {
		run.Fail(failureStatus(err))
		return nil, err
	}
	return out, nil
}

// AddItem merges into the existing line for productID or appends a new one.
func (s *Service) AddItem(ctx context.Context, cartID, productID string, quantity int) (_ *domain.Cart, err error) {
	ctx, run := s.in.Track(ctx, useCaseAddItem, "AddCartItem",
		attribute.String("cart.id", cartID),
		attribute.String("product.id", productID),
		attribute.Int("cart.quantity", quantity),
	)
	defer func() { run.Done(ctx, err) }()

	if productID == "" {
		run.Fail(statusInvalidRequest)
		return nil, application.NewValidation("product id is required")
	}
	if quantity <= 0 {
		run.Fail(statusInvalidRequest)
		return nil, domain.ErrInvalidQuantity
	}

	out, err := s.mutate(ctx, cartID, func(ctx context.Context, st application.Stores, c *domain.Cart) error {
		p, err := st.Products().Get(ctx, productID)
		if err != nil {
			return err
		}
		_, err = c.AddItem(s.idGen.NewID(), p, quantity)
		return err
	})
	if err != nil {
		run.Fail(failureStatus(err))
		return nil, err
	}
	return out, nil
}

func (s *Service) UpdateItemQuantity(ctx context.Context, cartID, itemID string, quantity int) (_ *domain.Cart, err error) {
	ctx, run := s.in.Track(ctx, useCaseUpdateItem, "UpdateCartItem",
		attribute.String("cart.id", cartID),
		attribute.String("cart.item_id", itemID),
		attribute.Int("cart.quantity", quantity),
	)
	defer func() { run.Done(ctx, err) }()

	if quantity <= 0 {
		run.Fail(statusInvalidRequest)
		return nil, domain.ErrInvalidQuantity
	}

	out, err := s.mutate(ctx, cartID, func(ctx context.Context, st application.Stores, c *domain.Cart) error {
		item, ok := c.Item(itemID)
		if !ok {
			return domain.ErrItemNotFound
		}
		p, err := st.Products().Get(ctx, item.ProductID)
		if err != nil {
			return err
		}
		_, err = c.UpdateItemQuantity(itemID, p, quantity)
		return err
	})
	if err != nil {
		run.Fail(failureStatus(err))
		return nil, err
	}
	return out, nil
}

func (s *Service) RemoveItem(ctx context.Context, cartID, itemID string) (_ *domain.Cart, err error) {
	ctx, run := s.in.Track(ctx, useCaseRemoveItem, "RemoveCartItem",
		attribute.String("cart.id", cartID),
		attribute.String("cart.item_id", itemID),
	)
	defer func() { run.Done(ctx, err) }()

	out, err := s.mutate(ctx, cartID, func(_ context.Context, _ application.Stores, c *domain.Cart) error {
		return c.RemoveItem(itemID)
	})
	if err != nil {
		run.Fail(failureStatus(err))
		return nil, err
	}
	return out, nil
}

func (s *Service) Clear(ctx context.Context, cartID string) (_ *domain.Cart, err error) {
	ctx, run := s.in.Track(ctx, useCaseClear, "ClearCart", attribute.String("cart.id", cartID))
	defer func() { run.Done(ctx, err) }()

	out, err := s.mutate(ctx, cartID, func(_ context.Context, _ application.Stores, c *domain.Cart) error {
		c.Clear()
		return nil
	})
	if err != nil {
		run.Fail(failureStatus(err))
		return nil, err
	}
	return out, nil
}

// mutate loads the cart, applies fn and saves it, all in one transaction.
func (s *Service) mutate(
	ctx context.Context,
	cartID string,
	fn func(ctx context.Context, st application.Stores, c *domain.Cart) error,
) (*domain.Cart, error) {
	var out *domain.Cart
	err := s.tx.WithinTx(ctx, func(ctx context.Context, st application.Stores) error {
		c, err := st.Carts().Get(ctx, cartID)
		if err != nil {
			return err
		}
		if err := fn(ctx, st, c); err != nil {
			return err
		}
		if err := st.Carts().Save(ctx, c); err != nil {
			return err
		}
		out, err = st.Carts().Get(ctx, cartID)
		return err
	})
	return out, err
}
