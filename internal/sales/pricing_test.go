package sales

import (
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pos_sales/internal/catalog"
)

func dec(v int64) decimal.Decimal {
	return decimal.NewFromInt(v)
}

func testProducts() []catalog.Product {
	return []catalog.Product{
		{ID: "yarn", Name: "Yarn", RetailPrice: dec(100), WholesalePrice: dec(85), Category: "materials"},
		{ID: "hook", Name: "Hook", RetailPrice: dec(40), WholesalePrice: dec(30), Category: "tools"},
	}
}

func TestDraft_WorkedExample(t *testing.T) {
	d := NewDraft(testProducts(), DefaultWholesaleThreshold)

	for i := 0; i < 2; i++ {
		idx := d.AddLine()
		require.NoError(t, d.SetProduct(idx, "yarn"))
		require.NoError(t, d.SetQuantity(idx, 2))
	}

	assert.True(t, d.Wholesale)
	assert.Equal(t, 4, d.Quantity)
	for _, it := range d.Items {
		assert.True(t, it.UnitPrice.Equal(dec(85)), "unit price %s", it.UnitPrice)
		assert.True(t, it.Subtotal.Equal(dec(170)), "subtotal %s", it.Subtotal)
	}
	assert.True(t, d.Total.Equal(dec(340)), "total %s", d.Total)
}

func TestDraft_ThresholdIsExclusive(t *testing.T) {
	d := NewDraft(testProducts(), DefaultWholesaleThreshold)

	idx := d.AddLine()
	require.NoError(t, d.SetProduct(idx, "yarn"))
	require.NoError(t, d.SetQuantity(idx, 3))

	assert.False(t, d.Wholesale, "exactly 3 units stays retail")
	assert.True(t, d.Items[0].UnitPrice.Equal(dec(100)))
	assert.True(t, d.Total.Equal(dec(300)))
}

func TestDraft_RepricesEarlierLines(t *testing.T) {
	d := NewDraft(testProducts(), DefaultWholesaleThreshold)

	first := d.AddLine()
	require.NoError(t, d.SetProduct(first, "yarn"))
	require.NoError(t, d.SetQuantity(first, 2))
	assert.True(t, d.Items[first].UnitPrice.Equal(dec(100)))

	second := d.AddLine()
	require.NoError(t, d.SetProduct(second, "hook"))
	require.NoError(t, d.SetQuantity(second, 2))

	// total 4 crosses the threshold: the first line is repriced too
	assert.True(t, d.Wholesale)
	assert.True(t, d.Items[first].UnitPrice.Equal(dec(85)))
	assert.True(t, d.Items[first].Subtotal.Equal(dec(170)))
	assert.True(t, d.Items[second].UnitPrice.Equal(dec(30)))
	assert.True(t, d.Items[second].Subtotal.Equal(dec(60)))
	assert.True(t, d.Total.Equal(dec(230)))

	// dropping back below the threshold restores retail everywhere
	require.NoError(t, d.SetQuantity(second, 1))
	assert.False(t, d.Wholesale)
	assert.True(t, d.Items[first].UnitPrice.Equal(dec(100)))
	assert.True(t, d.Items[second].UnitPrice.Equal(dec(40)))
	assert.True(t, d.Total.Equal(dec(240)))
}

func TestDraft_UnselectedLinesCountTowardsQuantity(t *testing.T) {
	d := NewDraft(testProducts(), DefaultWholesaleThreshold)

	idx := d.AddLine()
	require.NoError(t, d.SetProduct(idx, "yarn"))
	require.NoError(t, d.SetQuantity(idx, 3))

	blank := d.AddLine()
	assert.True(t, d.Wholesale)
	assert.True(t, d.Items[idx].UnitPrice.Equal(dec(85)))
	assert.True(t, d.Items[blank].UnitPrice.IsZero())
	assert.True(t, d.Items[blank].Subtotal.IsZero())
	assert.False(t, d.Complete())

	require.NoError(t, d.RemoveLine(blank))
	assert.False(t, d.Wholesale)
	assert.True(t, d.Complete())
}

func TestDraft_Errors(t *testing.T) {
	d := NewDraft(testProducts(), DefaultWholesaleThreshold)

	assert.ErrorIs(t, d.SetProduct(0, "yarn"), ErrLineOutOfRange)
	assert.ErrorIs(t, d.RemoveLine(-1), ErrLineOutOfRange)

	idx := d.AddLine()
	assert.ErrorIs(t, d.SetProduct(idx, "ghost"), ErrUnknownProduct)
	assert.ErrorIs(t, d.SetQuantity(idx, 0), ErrInvalidQuantity)
	assert.ErrorIs(t, d.SetQuantity(idx, MaxLineQuantity+1), ErrInvalidQuantity)
	assert.ErrorIs(t, d.SetQuantity(idx, math.MaxInt), ErrInvalidQuantity)
	assert.False(t, d.Complete())
}

func TestDraft_MaxLineQuantityIsWholesale(t *testing.T) {
	d := NewDraft(testProducts(), DefaultWholesaleThreshold)

	idx := d.AddLine()
	require.NoError(t, d.SetProduct(idx, "yarn"))
	require.NoError(t, d.SetQuantity(idx, MaxLineQuantity))

	assert.True(t, d.Wholesale)
	assert.Equal(t, MaxLineQuantity, d.Quantity)
	assert.True(t, d.Items[0].UnitPrice.Equal(decimal.NewFromInt(85)))
}

func TestTotalQuantity_Saturates(t *testing.T) {
	items := []Item{{Quantity: math.MaxInt}, {Quantity: 1}, {Quantity: 1}}

	assert.Equal(t, math.MaxInt, TotalQuantity(items))
	assert.True(t, IsWholesale(items, DefaultWholesaleThreshold))
}

func TestReprice_SubtotalInvariant(t *testing.T) {
	products := map[string]catalog.Product{}
	for _, p := range testProducts() {
		products[p.ID] = p
	}
	lookup := func(id string) (catalog.Product, bool) {
		p, ok := products[id]
		return p, ok
	}

	for total := 1; total <= 8; total++ {
		items := []Item{{ProductID: "yarn", Quantity: total}, {ProductID: "hook", Quantity: 1}}
		wholesale := Reprice(items, lookup, DefaultWholesaleThreshold)

		assert.Equal(t, total+1 > DefaultWholesaleThreshold, wholesale)
		for _, it := range items {
			p := products[it.ProductID]
			assert.True(t, it.UnitPrice.Equal(p.PriceFor(wholesale)))
			assert.True(t, it.Subtotal.Equal(it.UnitPrice.Mul(dec(int64(it.Quantity)))))
			assert.Equal(t, p.Name, it.ProductName)
		}
	}
}

func TestParseStatus(t *testing.T) {
	s, err := ParseStatus("pending")
	require.NoError(t, err)
	assert.Equal(t, StatusPending, s)

	_, err = ParseStatus("cancelled")
	assert.ErrorIs(t, err, ErrInvalidStatus)
}
