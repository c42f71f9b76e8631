// Package api is the REST client of the storefront API. Each resource has its
// own small client type implementing the matching domain port; all of them
// share one Client for transport, authentication and error mapping.
package api

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/kart-storefront/internal/apierr"
	"github.com/xenking/kart-storefront/internal/domain/auth"
)

// maxBodySize bounds how much of a response body is read.
const maxBodySize = 8 << 20

// Config holds non-dependency configuration for the Client.
type Config struct {
	// BaseURL is the API origin. Endpoint paths such as "/api/cart" are
	// appended to it.
	BaseURL string
	// ImageBaseURL is prepended to relative image paths in product responses.
	// When empty, image paths are returned as served.
	ImageBaseURL string
	// HTTPClient performs the requests. Defaults to a client with a 30s
	// timeout.
	HTTPClient *http.Client
}

// Client sends authenticated requests to the storefront API.
type Client struct {
	baseURL      string
	imageBaseURL string
	http         *http.Client
	sessions     auth.Store
	now          func() time.Time
}

// New constructs a Client. Tokens are read from sessions on every request.
func New(cfg Config, sessions auth.Store) (*Client, error) {
	u, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, errors.Wrap(err, "parse base url")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, errors.Errorf("base url %q: scheme must be http or https", cfg.BaseURL)
	}
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		imageBaseURL: cfg.ImageBaseURL,
		http:         hc,
		sessions:     sessions,
		now:          time.Now,
	}, nil
}

// Carts returns the cart resource client.
func (c *Client) Carts() *CartClient { return &CartClient{c: c} }

// Catalog returns the product catalog client.
func (c *Client) Catalog() *CatalogClient { return &CatalogClient{c: c} }

// Favorites returns the favorites resource client.
func (c *Client) Favorites() *FavoriteClient { return &FavoriteClient{c: c} }

// Users returns the account client.
func (c *Client) Users() *UserClient { return &UserClient{c: c} }

// Sales returns the purchase history client.
func (c *Client) Sales() *SaleClient { return &SaleClient{c: c} }

// Seller returns the seller product management client.
func (c *Client) Seller() *SellerClient { return &SellerClient{c: c} }

type request struct {
	method      string
	path        string
	body        io.Reader
	contentType string
	// public requests carry no bearer token and need no session.
	public bool
	// errorKey is the error body field read first; "message" when empty.
	errorKey string
}

func jsonRequest(method, path string, body []byte) request {
	r := request{method: method, path: path}
	if body != nil {
		r.body = bytes.NewReader(body)
		r.contentType = "application/json"
	}
	return r
}

type response struct {
	status   int
	header   http.Header
	body     []byte
	errorKey string
}

func (r *response) ok() bool {
	return r.status >= 200 && r.status < 300
}

// err maps a non-2xx response to *apierr.ServerError.
func (r *response) err() error {
	msg, ok := decodeErrorBody(r.body, r.errorKey)
	return &apierr.ServerError{
		Status:  r.status,
		Message: msg,
		Opaque:  !ok,
	}
}

// do sends req and reads the whole response. Transport failures are returned
// as *apierr.NetworkError; any status is returned as a response, classifying
// it is up to the caller. Without a session token an authenticated request is
// never sent and apierr.ErrAuthMissing is returned.
func (c *Client) do(ctx context.Context, req request) (*response, error) {
	var token string
	if !req.public {
		sess, err := auth.Require(ctx, c.sessions, c.now())
		if err != nil {
			return nil, err
		}
		token = sess.Token
	}

	hr, err := http.NewRequestWithContext(ctx, req.method, c.baseURL+req.path, req.body)
	if err != nil {
		return nil, errors.Wrap(err, "create request")
	}
	hr.Header.Set("Accept", "application/json")
	if req.contentType != "" {
		hr.Header.Set("Content-Type", req.contentType)
	}
	if token != "" {
		hr.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(hr)
	if err != nil {
		return nil, &apierr.NetworkError{Method: req.method, Path: req.path, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, &apierr.NetworkError{Method: req.method, Path: req.path, Err: err}
	}

	if resp.StatusCode >= 400 {
		zctx.From(ctx).Debug("API request rejected",
			zap.String("method", req.method),
			zap.String("path", req.path),
			zap.Int("status", resp.StatusCode),
		)
	}
	return &response{status: resp.StatusCode, header: resp.Header, body: body, errorKey: req.errorKey}, nil
}

// expect sends req and fails unless the response is 2xx.
func (c *Client) expect(ctx context.Context, req request) (*response, error) {
	resp, err := c.do(ctx, req)
	if err != nil {
		return nil, err
	}
	if !resp.ok() {
		return nil, resp.err()
	}
	return resp, nil
}

func (c *Client) imageURL(p string) string {
	if p == "" || c.imageBaseURL == "" {
		return p
	}
	if u, err := url.Parse(p); err == nil && u.IsAbs() {
		return p
	}
	return strings.TrimRight(c.imageBaseURL, "/") + "/" + strings.TrimLeft(p, "/")
}

func pathID(prefix, id string) string {
	return prefix + "/" + url.PathEscape(id)
}
