package seller

import (
	"bytes"
	"context"
	"encoding/csv"
	"io"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/go-playground/validator/v10"
	"github.com/klauspost/pgzip"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/kart-storefront/internal/apierr"
	"github.com/xenking/kart-storefront/internal/domain/auth"
	"github.com/xenking/kart-storefront/internal/domain/product"
)

// MaxImportSize bounds the decompressed size of a CSV import.
const MaxImportSize = 32 << 20

// ImportResult describes an accepted CSV import.
type ImportResult struct {
	Rows    int
	Message string
}

// Service manages the signed-in seller's products.
type Service struct {
	api      API
	sessions auth.Store
	validate *validator.Validate
	now      func() time.Time
}

// NewService creates a seller Service.
func NewService(api API, sessions auth.Store) *Service {
	return &Service{
		api:      api,
		sessions: sessions,
		validate: newValidator(),
		now:      time.Now,
	}
}

func (s *Service) requireSeller(ctx context.Context) error {
	sess, err := auth.Require(ctx, s.sessions, s.now())
	if err != nil {
		return err
	}
	if !sess.Seller {
		return ErrNotSeller
	}
	return nil
}

// Inventory lists the seller's products.
func (s *Service) Inventory(ctx context.Context) ([]product.Product, error) {
	if err := s.requireSeller(ctx); err != nil {
		return nil, err
	}
	products, err := s.api.Inventory(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "inventory")
	}
	return products, nil
}

// Create adds a product after validating it locally.
func (s *Service) Create(ctx context.Context, in ProductInput) error {
	if err := s.check(ctx, in); err != nil {
		return err
	}
	if err := s.api.Create(ctx, in); err != nil {
		return errors.Wrap(err, "create product")
	}
	zctx.From(ctx).Info("Product created", zap.String("name", in.Name))
	return nil
}

// Update replaces the product's fields.
func (s *Service) Update(ctx context.Context, id string, in ProductInput) error {
	if id == "" {
		return errors.Wrap(ErrInvalidInput, "product id is required")
	}
	if err := s.check(ctx, in); err != nil {
		return err
	}
	if err := s.api.Update(ctx, id, in); err != nil {
		return errors.Wrapf(err, "update product %s", id)
	}
	return nil
}

func (s *Service) check(ctx context.Context, in ProductInput) error {
	if err := s.requireSeller(ctx); err != nil {
		return err
	}
	if err := s.validate.Struct(in); err != nil {
		return errors.Wrap(ErrInvalidInput, err.Error())
	}
	return nil
}

// Delete removes the product. A 403 answer becomes ErrForbidden.
func (s *Service) Delete(ctx context.Context, id string) error {
	if id == "" {
		return errors.Wrap(ErrInvalidInput, "product id is required")
	}
	if err := s.requireSeller(ctx); err != nil {
		return err
	}
	if err := s.api.Delete(ctx, id); err != nil {
		if apierr.IsStatus(err, http.StatusForbidden) {
			return errors.Wrapf(ErrForbidden, "delete product %s", id)
		}
		return errors.Wrapf(err, "delete product %s", id)
	}
	zctx.From(ctx).Info("Product deleted", zap.String("product_id", id))
	return nil
}

// ImportCSV uploads a product CSV. Files named *.gz are decompressed first.
// The header must carry "name" and "price" columns; rows are not otherwise
// validated, the server owns that.
func (s *Service) ImportCSV(ctx context.Context, filename string, r io.Reader) (*ImportResult, error) {
	if err := s.requireSeller(ctx); err != nil {
		return nil, err
	}

	if strings.HasSuffix(strings.ToLower(filename), ".gz") {
		zr, err := pgzip.NewReader(r)
		if err != nil {
			return nil, errors.Wrap(err, "open gzip")
		}
		defer func() { _ = zr.Close() }()
		r = zr
		filename = filename[:len(filename)-len(".gz")]
	}

	data, err := io.ReadAll(io.LimitReader(r, MaxImportSize+1))
	if err != nil {
		return nil, errors.Wrap(err, "read csv")
	}
	if len(data) > MaxImportSize {
		return nil, errors.Wrapf(ErrInvalidCSV, "file exceeds %d bytes", MaxImportSize)
	}

	rows, err := countRows(data)
	if err != nil {
		return nil, err
	}

	msg, err := s.api.UploadCSV(ctx, filename, bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrap(err, "upload csv")
	}
	if msg == "" {
		msg = "Produtos carregados com sucesso!"
	}
	zctx.From(ctx).Info("Products imported",
		zap.String("file", filename),
		zap.Int("rows", rows),
	)
	return &ImportResult{Rows: rows, Message: msg}, nil
}

// countRows checks the header and returns the number of data rows.
func countRows(data []byte) (int, error) {
	cr := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))))
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return 0, errors.Wrap(ErrInvalidCSV, "empty file")
		}
		return 0, errors.Wrap(ErrInvalidCSV, err.Error())
	}
	cols := make([]string, len(header))
	for i, h := range header {
		cols[i] = strings.ToLower(strings.TrimSpace(h))
	}
	for _, required := range []string{"name", "price"} {
		if !slices.Contains(cols, required) {
			return 0, errors.Wrapf(ErrInvalidCSV, "missing %q column", required)
		}
	}

	rows := 0
	for {
		_, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return rows, nil
		}
		if err != nil {
			return 0, errors.Wrap(ErrInvalidCSV, err.Error())
		}
		rows++
	}
}

// Dashboard loads the inventory and the metrics concurrently and summarises
// them.
func (s *Service) Dashboard(ctx context.Context) (*Dashboard, error) {
	if err := s.requireSeller(ctx); err != nil {
		return nil, err
	}

	var (
		products []product.Product
		metrics  Metrics
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		if products, err = s.api.Inventory(gctx); err != nil {
			return errors.Wrap(err, "inventory")
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if metrics, err = s.api.Metrics(gctx); err != nil {
			return errors.Wrap(err, "metrics")
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		zctx.From(ctx).Error("Load dashboard failed", zap.Error(err))
		return nil, err
	}

	d := &Dashboard{
		TotalRevenue:  metrics.TotalRevenue,
		TotalProducts: len(products),
		BestSeller:    metrics.BestSeller,
	}
	for _, n := range metrics.SoldBySeller {
		d.TotalSold += n
	}
	if d.BestSeller == "" {
		d.BestSeller = NoBestSeller
	}
	return d, nil
}
