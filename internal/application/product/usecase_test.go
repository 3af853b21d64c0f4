package product_test

import (
	"context"
	"testing"

	"github.com/Zhima-Mochi/minishop-commerce/internal/application"
	appproduct "github.com/Zhima-Mochi/minishop-commerce/internal/application/product"
	"github.com/Zhima-Mochi/minishop-commerce/internal/infrastructure/id"
	"github.com/Zhima-Mochi/minishop-commerce/internal/infrastructure/memory"
	"github.com/Zhima-Mochi/minishop-commerce/internal/infrastructure/observability/testkit"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func TestCreateAndListProducts(t *testing.T) {
	store := memory.NewStore()
	rec := testkit.New()
	create := appproduct.NewCreateProductUseCase(store, id.NewUUID(), rec.Tel)
	list := appproduct.NewListProductsUseCase(store, rec.Tel)
	ctx := context.Background()

	for _, in := range []appproduct.CreateProductInput{
		{Name: "Notebook", Price: decimal.RequireFromString("3499.90"), Stock: 4, Category: "electronics"},
		{Name: "Cable", Price: decimal.RequireFromString("29.90"), Stock: 0, Category: "electronics"},
		{Name: "Chair", Price: decimal.RequireFromString("899.00"), Stock: 2, Category: "furniture"},
	} {
		p, err := create.Execute(ctx, in)
		require.NoError(t, err)
		assert.NotEmpty(t, p.ID)
	}

	all, err := list.Execute(ctx, appproduct.ListProductsInput{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "Notebook", all[0].Name)

	inStock := 1
	electronics, err := list.Execute(ctx, appproduct.ListProductsInput{Category: "electronics", MinStock: &inStock})
	require.NoError(t, err)
	require.Len(t, electronics, 1)
	assert.Equal(t, "Notebook", electronics[0].Name)

	mid, err := list.Execute(ctx, appproduct.ListProductsInput{MinPrice: dec("30"), MaxPrice: dec("1000")})
	require.NoError(t, err)
	require.Len(t, mid, 1)
	assert.Equal(t, "Chair", mid[0].Name)

	page, err := list.Execute(ctx, appproduct.ListProductsInput{Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "Cable", page[0].Name)

	assert.Contains(t, rec.SpanNames(), "UC.CreateProduct")
}

func TestCreateProduct_Validation(t *testing.T) {
	create := appproduct.NewCreateProductUseCase(memory.NewStore(), id.NewUUID(), nil)

	_, err := create.Execute(context.Background(), appproduct.CreateProductInput{Name: "x", Price: decimal.NewFromInt(-1), Category: "c"})
	assert.ErrorIs(t, err, application.ErrValidation)

	_, err = create.Execute(context.Background(), appproduct.CreateProductInput{Name: "x", Price: decimal.NewFromInt(1)})
	assert.ErrorIs(t, err, application.ErrValidation)
}

func TestListProducts_RejectsInvertedPriceRange(t *testing.T) {
	list := appproduct.NewListProductsUseCase(memory.NewStore(), nil)
	_, err := list.Execute(context.Background(), appproduct.ListProductsInput{MinPrice: dec("10"), MaxPrice: dec("5")})
	assert.ErrorIs(t, err, application.ErrValidation)
}
