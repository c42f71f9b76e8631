package api

import (
	"context"
	"net/http"

	"github.com/go-faster/errors"

	"github.com/xenking/kart-storefront/internal/domain/cart"
	"github.com/xenking/kart-storefront/internal/domain/order"
)

var _ cart.API = (*CartClient)(nil)

// CartClient talks to /api/cart and checkout.
type CartClient struct {
	c *Client
}

// Get returns the raw server cart.
func (cc *CartClient) Get(ctx context.Context) ([]cart.Item, error) {
	resp, err := cc.c.expect(ctx, jsonRequest(http.MethodGet, "/api/cart", nil))
	if err != nil {
		return nil, err
	}
	return decodeCart(resp.body)
}

// Add posts {product_id, quantity}; the server merges into an existing line.
func (cc *CartClient) Add(ctx context.Context, it cart.Item) error {
	_, err := cc.c.expect(ctx, jsonRequest(http.MethodPost, "/api/cart", encodeCartItem(it)))
	return err
}

// Update sets the quantity of a line.
func (cc *CartClient) Update(ctx context.Context, it cart.Item) error {
	_, err := cc.c.expect(ctx, jsonRequest(http.MethodPut, pathID("/api/cart", it.ProductID), encodeQuantity(it.Quantity)))
	return err
}

// Remove deletes a line. A 404 reports found=false without error.
func (cc *CartClient) Remove(ctx context.Context, productID string) (bool, error) {
	resp, err := cc.c.do(ctx, jsonRequest(http.MethodDelete, pathID("/api/cart", productID), nil))
	if err != nil {
		return false, err
	}
	switch {
	case resp.ok():
		return true, nil
	case resp.status == http.StatusNotFound:
		return false, nil
	default:
		return false, resp.err()
	}
}

// Checkout posts the order to /api/sales and returns the decoded receipt.
func (cc *CartClient) Checkout(ctx context.Context, items []cart.Item) (*order.Receipt, error) {
	req := jsonRequest(http.MethodPost, "/api/sales", encodeCheckout(items))
	req.errorKey = "error"
	resp, err := cc.c.expect(ctx, req)
	if err != nil {
		return nil, err
	}
	r, err := decodeReceipt(resp.body)
	if err != nil {
		return nil, errors.Wrap(err, "checkout")
	}
	return r, nil
}
