package api

import (
	"context"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/xenking/kart-storefront/internal/domain/product"
)

var _ product.Catalog = (*CatalogClient)(nil)

// CatalogClient reads /api/products. Listing is public; single product
// lookups carry the session token like every other call.
type CatalogClient struct {
	c *Client
}

// List returns every product in the catalog.
func (cc *CatalogClient) List(ctx context.Context) ([]product.Product, error) {
	req := jsonRequest(http.MethodGet, "/api/products", nil)
	req.public = true
	resp, err := cc.c.expect(ctx, req)
	if err != nil {
		return nil, err
	}
	return cc.c.decodeProducts(resp.body)
}

// Get returns a single product by ID.
func (cc *CatalogClient) Get(ctx context.Context, id string) (*product.Product, error) {
	resp, err := cc.c.expect(ctx, jsonRequest(http.MethodGet, pathID("/api/products", id), nil))
	if err != nil {
		return nil, err
	}
	p, err := cc.c.decodeProduct(jx.DecodeBytes(resp.body))
	if err != nil {
		return nil, errors.Wrapf(err, "decode product %s", id)
	}
	if p.ID == "" {
		p.ID = id
	}
	return &p, nil
}
