package product

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested product does not exist.
var ErrNotFound = errors.New("product not found")

// Product is a catalog record as served by the API.
type Product struct {
	ID          string
	Name        string
	Description string
	Price       decimal.Decimal
	Image       string
	Stock       int
	SellerID    string
}

// Catalog provides read access to the product catalog.
type Catalog interface {
	List(ctx context.Context) ([]Product, error)
	Get(ctx context.Context, id string) (*Product, error)
}

// FilterByID returns the products whose ID is in ids, preserving the order of
// products.
func FilterByID(products []Product, ids map[string]struct{}) []Product {
	out := make([]Product, 0, len(ids))
	for _, p := range products {
		if _, ok := ids[p.ID]; ok {
			out = append(out, p)
		}
	}
	return out
}
