package catalog

import "github.com/shopspring/decimal"

// Product is a catalog entry with its two price tiers.
type Product struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	RetailPrice    decimal.Decimal `json:"retail_price"`
	WholesalePrice decimal.Decimal `json:"wholesale_price"`
	Category       string          `json:"category"`
}

// PriceFor returns the unit price for the requested tier.
func (p Product) PriceFor(wholesale bool) decimal.Decimal {
	if wholesale {
		return p.WholesalePrice
	}
	return p.RetailPrice
}
