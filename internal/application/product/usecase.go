package product

import (
	"context"
	"errors"

	"github.com/Zhima-Mochi/minishop-commerce/internal/application"
	domain "github.com/Zhima-Mochi/minishop-commerce/internal/domain/product"
	"github.com/Zhima-Mochi/minishop-commerce/internal/observability"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
)

const (
	catalogService       = "catalog-service"
	useCaseProductCreate = "product.create"
	useCaseProductList   = "product.list"
)

type CreateProductInput struct {
	Name        string
	Description string
	Price       decimal.Decimal
	Stock       int
	Category    string
	ImageURL    string
}

type CreateProductUseCase struct {
	tx    application.Transactor
	idGen application.IDGenerator
	in    application.Instruments
}

func NewCreateProductUseCase(tx application.Transactor, idGen application.IDGenerator, tel observability.Observability) *CreateProductUseCase {
	return &CreateProductUseCase{tx: tx, idGen: idGen, in: application.NewInstruments(tel, catalogService)}
}

func (uc *CreateProductUseCase) Execute(ctx context.Context, cmd CreateProductInput) (_ *domain.Product, err error) {
	ctx, run := uc.in.Track(ctx, useCaseProductCreate, "CreateProduct",
		attribute.String("product.category", cmd.Category),
	)
	defer func() { run.Done(ctx, err) }()

	p, err := domain.New(uc.idGen.NewID(), cmd.Name, cmd.Description, cmd.Price, cmd.Stock, cmd.Category, cmd.ImageURL)
	if err != nil {
		run.Fail("VALIDATION_FAILED")
		return nil, application.NewValidation(err.Error())
	}
	err = uc.tx.WithinTx(ctx, func(ctx context.Context, s application.Stores) error {
		return s.Products().Insert(ctx, p)
	})
	if err != nil {
		run.Fail("REPO_INSERT_FAILED")
		return nil, err
	}
	run.Field("product_id", p.ID)
	return p, nil
}

type ListProductsInput struct {
	Category string
	MinPrice *decimal.Decimal
	MaxPrice *decimal.Decimal
	MinStock *int
	Limit    int
	Offset   int
}

type ListProductsUseCase struct {
	tx application.Transactor
	in application.Instruments
}

func NewListProductsUseCase(tx application.Transactor, tel observability.Observability) *ListProductsUseCase {
	return &ListProductsUseCase{tx: tx, in: application.NewInstruments(tel, catalogService)}
}

func (uc *ListProductsUseCase) Execute(ctx context.Context, cmd ListProductsInput) (_ []*domain.Product, err error) {
	ctx, run := uc.in.Track(ctx, useCaseProductList, "ListProducts",
		attribute.String("product.category", cmd.Category),
	)
	defer func() { run.Done(ctx, err) }()

	if cmd.MinPrice != nil && cmd.MaxPrice != nil && cmd.MinPrice.GreaterThan(*cmd.MaxPrice) {
		run.Fail("VALIDATION_FAILED")
		return nil, application.NewValidation("min price must not exceed max price")
	}

	filter := domain.ListFilter{
		Category: cmd.Category,
		MinPrice: cmd.MinPrice,
		MaxPrice: cmd.MaxPrice,
		MinStock: cmd.MinStock,
		Limit:    cmd.Limit,
		Offset:   cmd.Offset,
	}.Normalized()

	var out []*domain.Product
	err = uc.tx.WithinTx(ctx, func(ctx context.Context, s application.Stores) error {
		var err error
		out, err = s.Products().List(ctx, filter)
		return err
	})
	if err != nil {
		run.Fail("REPO_LIST_FAILED")
		if errors.Is(err, context.Canceled) {
			run.Fail("CONTEXT_CANCELED")
		}
		return nil, err
	}
	run.Field("count", len(out))
	return out, nil
}
