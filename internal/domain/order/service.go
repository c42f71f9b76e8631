package order

import (
	"context"
	"slices"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/kart-storefront/internal/apierr"
	"github.com/xenking/kart-storefront/internal/domain/auth"
)

// Service reads the purchase history.
type Service struct {
	api      API
	sessions auth.Store
	now      func() time.Time
}

// NewService creates an order Service.
func NewService(api API, sessions auth.Store) *Service {
	return &Service{
		api:      api,
		sessions: sessions,
		now:      time.Now,
	}
}

// History returns the user's sales, newest first. Items without a product
// name are labelled UnknownProductName.
func (s *Service) History(ctx context.Context) ([]Sale, error) {
	if _, err := auth.Require(ctx, s.sessions, s.now()); err != nil {
		return nil, err
	}

	sales, err := s.api.List(ctx)
	if err != nil {
		zctx.From(ctx).Error("Load purchase history failed",
			zap.Int("status", apierr.Status(err)),
			zap.Error(err),
		)
		return nil, errors.Wrap(err, "list sales")
	}

	for i := range sales {
		for j := range sales[i].Items {
			if sales[i].Items[j].Name == "" {
				sales[i].Items[j].Name = UnknownProductName
			}
		}
	}
	slices.SortStableFunc(sales, func(a, b Sale) int {
		return b.Date.Compare(a.Date)
	})
	return sales, nil
}
