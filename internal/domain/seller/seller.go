// Package seller implements product management and the sales dashboard for
// users signed in as sellers.
package seller

import (
	"context"
	"io"
	"reflect"

	"github.com/go-faster/errors"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/xenking/kart-storefront/internal/apierr"
	"github.com/xenking/kart-storefront/internal/domain/product"
)

var (
	// ErrNotSeller is returned when the signed-in user is not a seller.
	ErrNotSeller = errors.New("seller account required")
	// ErrForbidden is returned when deleting a product owned by another seller.
	ErrForbidden = errors.New("only the creating seller may delete this product")
	// ErrInvalidInput wraps local validation failures of product data.
	ErrInvalidInput = errors.New("invalid product")
	// ErrInvalidCSV is returned when an import file lacks the required columns.
	ErrInvalidCSV = errors.New("invalid csv")
)

// NoBestSeller is shown when the metrics carry no best-selling product.
const NoBestSeller = "N/A"

// ProductInput is the create/update form of a product.
type ProductInput struct {
	Name        string          `validate:"required"`
	Price       decimal.Decimal `validate:"gt=0"`
	Description string
	Image       string
	Stock       int `validate:"gte=0"`
}

// Metrics is the raw seller metrics document.
type Metrics struct {
	// SoldBySeller holds total_sold of every productsBySeller row.
	SoldBySeller []int64
	TotalRevenue decimal.Decimal
	// BestSeller is the best-selling product name, empty when absent.
	BestSeller string
}

// Dashboard summarises a seller's catalog and sales.
type Dashboard struct {
	TotalSold     int64
	TotalRevenue  decimal.Decimal
	TotalProducts int
	BestSeller    string
}

// API is the server side of seller product management.
type API interface {
	Inventory(ctx context.Context) ([]product.Product, error)
	Create(ctx context.Context, in ProductInput) error
	Update(ctx context.Context, id string, in ProductInput) error
	Delete(ctx context.Context, id string) error
	// UploadCSV sends a CSV file as the multipart field "file" and returns the
	// server message, if any.
	UploadCSV(ctx context.Context, filename string, r io.Reader) (string, error)
	Metrics(ctx context.Context) (Metrics, error)
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterCustomTypeFunc(func(f reflect.Value) any {
		if d, ok := f.Interface().(decimal.Decimal); ok {
			return d.InexactFloat64()
		}
		return nil
	}, decimal.Decimal{})
	return v
}

// Message returns the user-facing text for err.
func Message(err error) string {
	switch {
	case errors.Is(err, ErrForbidden):
		return "Acesso negado. Apenas o vendedor criador pode excluir este produto."
	case errors.Is(err, ErrNotSeller):
		return "Acesso restrito a vendedores."
	default:
		return apierr.Message(err)
	}
}
