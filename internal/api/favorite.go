package api

import (
	"context"
	"net/http"

	"github.com/xenking/kart-storefront/internal/domain/favorite"
)

var _ favorite.API = (*FavoriteClient)(nil)

// FavoriteClient talks to /api/favorites. Toggle failures report the body's
// "error" field first.
type FavoriteClient struct {
	c *Client
}

// List returns the favorited product ids.
func (fc *FavoriteClient) List(ctx context.Context) ([]string, error) {
	resp, err := fc.c.expect(ctx, jsonRequest(http.MethodGet, "/api/favorites", nil))
	if err != nil {
		return nil, err
	}
	return decodeFavorites(resp.body)
}

// Add favorites a product. Only 200 and 201 are accepted.
func (fc *FavoriteClient) Add(ctx context.Context, productID string) error {
	req := jsonRequest(http.MethodPost, "/api/favorites", encodeFavorite(productID))
	req.errorKey = "error"
	resp, err := fc.c.do(ctx, req)
	if err != nil {
		return err
	}
	if resp.status != http.StatusOK && resp.status != http.StatusCreated {
		return resp.err()
	}
	return nil
}

// Remove unfavorites a product. A 404 reports found=false without error.
func (fc *FavoriteClient) Remove(ctx context.Context, productID string) (bool, error) {
	req := jsonRequest(http.MethodDelete, pathID("/api/favorites", productID), nil)
	req.errorKey = "error"
	resp, err := fc.c.do(ctx, req)
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
