package api

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/go-faster/errors"

	"github.com/xenking/kart-storefront/internal/domain/product"
	"github.com/xenking/kart-storefront/internal/domain/seller"
)

var _ seller.API = (*SellerClient)(nil)

// SellerClient manages the signed-in seller's products.
type SellerClient struct {
	c *Client
}

// Inventory lists the seller's own products.
func (sc *SellerClient) Inventory(ctx context.Context) ([]product.Product, error) {
	resp, err := sc.c.expect(ctx, jsonRequest(http.MethodGet, "/api/products/inventory", nil))
	if err != nil {
		return nil, err
	}
	return sc.c.decodeProducts(resp.body)
}

// Create adds a product.
func (sc *SellerClient) Create(ctx context.Context, in seller.ProductInput) error {
	_, err := sc.c.expect(ctx, jsonRequest(http.MethodPost, "/api/products", encodeProductInput(in)))
	return err
}

// Update replaces a product.
func (sc *SellerClient) Update(ctx context.Context, id string, in seller.ProductInput) error {
	_, err := sc.c.expect(ctx, jsonRequest(http.MethodPut, pathID("/api/products", id), encodeProductInput(in)))
	return err
}

// Delete removes a product.
func (sc *SellerClient) Delete(ctx context.Context, id string) error {
	_, err := sc.c.expect(ctx, jsonRequest(http.MethodDelete, pathID("/api/products", id), nil))
	return err
}

// UploadCSV posts the file as multipart field "file".
func (sc *SellerClient) UploadCSV(ctx context.Context, filename string, r io.Reader) (string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return "", errors.Wrap(err, "create form file")
	}
	if _, err := io.Copy(part, r); err != nil {
		return "", errors.Wrap(err, "copy csv")
	}
	if err := mw.Close(); err != nil {
		return "", errors.Wrap(err, "close multipart")
	}

	resp, err := sc.c.expect(ctx, request{
		method:      http.MethodPost,
		path:        "/api/products/upload-csv",
		body:        &buf,
		contentType: mw.FormDataContentType(),
	})
	if err != nil {
		return "", err
	}
	return decodeMessage(resp.body), nil
}

// Metrics returns the seller's sales metrics.
func (sc *SellerClient) Metrics(ctx context.Context) (seller.Metrics, error) {
	resp, err := sc.c.expect(ctx, jsonRequest(http.MethodGet, "/api/metrics", nil))
	if err != nil {
		return seller.Metrics{}, err
	}
	return decodeMetrics(resp.body)
}
