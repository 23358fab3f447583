package sales

import (
	"time"

	"github.com/shopspring/decimal"
)

// Status is the lifecycle state of a sale.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	// StatusRejected is never stored: rejected sales are dropped from the
	// pending collection. It is kept so filters accept the value.
	StatusRejected Status = "rejected"
)

func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusPending, StatusApproved, StatusRejected:
		return Status(s), nil
	}
	return "", ErrInvalidStatus
}

// Item is one line of a sale. UnitPrice is a snapshot of the product price
// for the tier the whole sale fell into.
type Item struct {
	ProductID   string          `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Subtotal    decimal.Decimal `json:"subtotal"`
}

// Sale represents a sales transaction in the system.
type Sale struct {
	ID        string          `json:"id"`
	Items     []Item          `json:"items"`
	Total     decimal.Decimal `json:"total"`
	UserID    string          `json:"user_id"`
	UserName  string          `json:"user_name"`
	Date      time.Time       `json:"date"`
	Status    Status          `json:"status"`
	Wholesale bool            `json:"wholesale"`
}

// Quantity returns the number of units across all lines.
func (s Sale) Quantity() int {
	return TotalQuantity(s.Items)
}

// Line is a requested sale line before pricing.
type Line struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}
