package api

import (
	"context"
	"net/http"

	"github.com/xenking/kart-storefront/internal/domain/order"
)

var _ order.API = (*SaleClient)(nil)

// SaleClient reads the purchase history.
type SaleClient struct {
	c *Client
}

// List returns the signed-in user's sales.
func (sc *SaleClient) List(ctx context.Context) ([]order.Sale, error) {
	resp, err := sc.c.expect(ctx, jsonRequest(http.MethodGet, "/api/sales", nil))
	if err != nil {
		return nil, err
	}
	return decodeSales(resp.body)
}
