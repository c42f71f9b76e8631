package order

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// UnknownProductName is shown for sale items whose product record is missing.
const UnknownProductName = "Produto Desconhecido"

// Receipt is the server's confirmation of a checkout. Raw keeps the complete
// response body for callers that need fields not modelled here.
type Receipt struct {
	ID     string
	Total  decimal.Decimal
	Status string
	Raw    []byte
}

// Sale is a past order as shown in the purchase history.
type Sale struct {
	ID     string
	Total  decimal.Decimal
	Date   time.Time
	Status string
	Items  []SaleItem
}

// SaleItem is a single product within a sale, priced at the time of sale.
type SaleItem struct {
	Name     string
	Price    decimal.Decimal
	Quantity int
}

// API lists the signed-in user's sales.
type API interface {
	List(ctx context.Context) ([]Sale, error)
}
