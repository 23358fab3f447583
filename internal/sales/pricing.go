package sales

import (
	"math"

	"github.com/shopspring/decimal"

	"pos_sales/internal/catalog"
)

// DefaultWholesaleThreshold is the unit count a sale must exceed to be
// priced at wholesale.
const DefaultWholesaleThreshold = 3

// MaxLineQuantity bounds the quantity of a single line.
const MaxLineQuantity = 10000

// TotalQuantity sums quantities over every line, priced or not. The sum
// saturates at math.MaxInt instead of wrapping.
func TotalQuantity(items []Item) int {
	total := 0
	for _, it := range items {
		if it.Quantity > 0 && total > math.MaxInt-it.Quantity {
			return math.MaxInt
		}
		total += it.Quantity
	}
	return total
}

// IsWholesale reports whether items fall into the wholesale tier.
func IsWholesale(items []Item, threshold int) bool {
	return TotalQuantity(items) > threshold
}

// Total sums the line subtotals.
func Total(items []Item) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.Subtotal)
	}
	return total
}

// Reprice applies the tier decision to every line. Lines whose product is
// unknown keep a zero price. Every subtotal is recomputed.
func Reprice(items []Item, lookup func(id string) (catalog.Product, bool), threshold int) bool {
	wholesale := IsWholesale(items, threshold)
	for i := range items {
		if items[i].ProductID == "" {
			items[i].UnitPrice = decimal.Zero
		} else if p, ok := lookup(items[i].ProductID); ok {
			items[i].ProductName = p.Name
			items[i].UnitPrice = p.PriceFor(wholesale)
		}
		items[i].Subtotal = items[i].UnitPrice.Mul(decimal.NewFromInt(int64(items[i].Quantity)))
	}
	return wholesale
}

// Draft is a sale being assembled. Every edit reprices all lines, since
// the tier depends on the quantity of the whole sale.
type Draft struct {
	Items     []Item          `json:"items"`
	Total     decimal.Decimal `json:"total"`
	Quantity  int             `json:"quantity"`
	Wholesale bool            `json:"wholesale"`

	products  map[string]catalog.Product
	threshold int
}

// NewDraft starts an empty draft priced against products.
func NewDraft(products []catalog.Product, threshold int) *Draft {
	byID := make(map[string]catalog.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}
	return &Draft{
		Items:     make([]Item, 0),
		Total:     decimal.Zero,
		products:  byID,
		threshold: threshold,
	}
}

// AddLine appends an empty line with quantity 1 and returns its index.
func (d *Draft) AddLine() int {
	d.Items = append(d.Items, Item{Quantity: 1, UnitPrice: decimal.Zero, Subtotal: decimal.Zero})
	d.reprice()
	return len(d.Items) - 1
}

// SetProduct selects the product of line i.
func (d *Draft) SetProduct(i int, productID string) error {
	if err := d.checkIndex(i); err != nil {
		return err
	}
	if _, ok := d.products[productID]; !ok {
		return ErrUnknownProduct
	}
	d.Items[i].ProductID = productID
	d.reprice()
	return nil
}

// SetQuantity changes the quantity of line i. Quantities start at 1 and
// never exceed MaxLineQuantity.
func (d *Draft) SetQuantity(i int, quantity int) error {
	if err := d.checkIndex(i); err != nil {
		return err
	}
	if quantity < 1 || quantity > MaxLineQuantity {
		return ErrInvalidQuantity
	}
	d.Items[i].Quantity = quantity
	d.reprice()
	return nil
}

// RemoveLine drops line i.
func (d *Draft) RemoveLine(i int) error {
	if err := d.checkIndex(i); err != nil {
		return err
	}
	d.Items = append(d.Items[:i], d.Items[i+1:]...)
	d.reprice()
	return nil
}

// Complete reports whether the draft has lines and each names a product.
func (d *Draft) Complete() bool {
	if len(d.Items) == 0 {
		return false
	}
	for _, it := range d.Items {
		if it.ProductID == "" {
			return false
		}
	}
	return true
}

func (d *Draft) reprice() {
	d.Wholesale = Reprice(d.Items, d.lookup, d.threshold)
	d.Quantity = TotalQuantity(d.Items)
	d.Total = Total(d.Items)
}

func (d *Draft) lookup(id string) (catalog.Product, bool) {
	p, ok := d.products[id]
	return p, ok
}

func (d *Draft) checkIndex(i int) error {
	if i < 0 || i >= len(d.Items) {
		return ErrLineOutOfRange
	}
	return nil
}
