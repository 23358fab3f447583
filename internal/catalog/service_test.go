package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"pos_sales/internal/storage"
)

type stubSource struct {
	products []Product
	err      error
	calls    int
}

func (s *stubSource) FetchProducts(context.Context) ([]Product, error) {
	s.calls++
	return s.products, s.err
}

func yarn() Input {
	return Input{
		Name:           "Yarn",
		RetailPrice:    decimal.NewFromInt(100),
		WholesalePrice: decimal.NewFromInt(85),
		Category:       "materials",
	}
}

func TestService_CreateGetList(t *testing.T) {
	ctx := context.Background()
	svc := NewService(storage.NewMemoryStore(), nil, zaptest.NewLogger(t))

	created, err := svc.Create(ctx, yarn())
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.True(t, created.RetailPrice.Equal(decimal.NewFromInt(100)))

	got, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created, got)

	list, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestService_CreateValidation(t *testing.T) {
	ctx := context.Background()
	svc := NewService(storage.NewMemoryStore(), nil, nil)

	in := yarn()
	in.Name = "  "
	_, err := svc.Create(ctx, in)
	assert.ErrorIs(t, err, ErrInvalidProduct)

	in = yarn()
	in.WholesalePrice = decimal.NewFromInt(-1)
	_, err = svc.Create(ctx, in)
	assert.ErrorIs(t, err, ErrInvalidProduct)
}

func TestService_UpdateAndDelete(t *testing.T) {
	ctx := context.Background()
	svc := NewService(storage.NewMemoryStore(), nil, zaptest.NewLogger(t))

	created, err := svc.Create(ctx, yarn())
	require.NoError(t, err)

	in := yarn()
	in.Name = "Merino yarn"
	in.RetailPrice = decimal.NewFromInt(120)
	updated, err := svc.Update(ctx, created.ID, in)
	require.NoError(t, err)
	assert.Equal(t, "Merino yarn", updated.Name)
	assert.True(t, updated.RetailPrice.Equal(decimal.NewFromInt(120)))

	_, err = svc.Update(ctx, "missing", in)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, svc.Delete(ctx, created.ID))
	_, err = svc.Get(ctx, created.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, svc.Delete(ctx, created.ID), ErrNotFound)
}

func TestService_RefreshFromSource(t *testing.T) {
	ctx := context.Background()
	source := &stubSource{products: []Product{
		{ID: "p1", Name: "Hook", RetailPrice: decimal.NewFromInt(10), WholesalePrice: decimal.NewFromInt(8)},
	}}
	svc := NewService(storage.NewMemoryStore(), source, zaptest.NewLogger(t))

	_, err := svc.Create(ctx, yarn())
	require.NoError(t, err)

	products, err := svc.Refresh(ctx)
	require.NoError(t, err)
	assert.Equal(t, source.products, products)

	stored, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, source.products, stored, "remote catalog replaces the local snapshot")
}

func TestService_RefreshFallsBackToLocal(t *testing.T) {
	ctx := context.Background()
	source := &stubSource{err: errors.New("boom")}
	svc := NewService(storage.NewMemoryStore(), source, zaptest.NewLogger(t))

	created, err := svc.Create(ctx, yarn())
	require.NoError(t, err)

	products, err := svc.Refresh(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, source.calls)
	require.Len(t, products, 1)
	assert.Equal(t, created.ID, products[0].ID)
}

func TestProduct_PriceFor(t *testing.T) {
	p := Product{RetailPrice: decimal.NewFromInt(100), WholesalePrice: decimal.NewFromInt(85)}
	assert.True(t, p.PriceFor(false).Equal(decimal.NewFromInt(100)))
	assert.True(t, p.PriceFor(true).Equal(decimal.NewFromInt(85)))
}
