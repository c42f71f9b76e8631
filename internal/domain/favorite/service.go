// Package favorite implements the favorites synchronizer: the set of product
// ids the signed-in user has favorited, reconciled against the server.
package favorite

import (
	"context"
	"sync"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/xenking/kart-storefront/internal/apierr"
	"github.com/xenking/kart-storefront/internal/domain/auth"
	"github.com/xenking/kart-storefront/internal/domain/product"
	"github.com/xenking/kart-storefront/internal/notify"
	"github.com/xenking/kart-storefront/internal/telemetry"
	"github.com/xenking/kart-storefront/pkg/seq"
)

const fetchKey = "\x00favorites"

// API is the server-side favorites resource.
type API interface {
	// List returns the favorited product ids.
	List(ctx context.Context) ([]string, error)
	// Add favorites productID. Only a 200 or 201 answer is success.
	Add(ctx context.Context, productID string) error
	// Remove unfavorites productID. found is false when the server answered
	// 404, which is not an error.
	Remove(ctx context.Context, productID string) (found bool, err error)
}

// Options configures a Service.
type Options struct {
	Notifier  notify.Notifier
	Telemetry telemetry.Providers
}

// State is a point-in-time copy of the synchronizer state.
type State struct {
	IDs     []string
	Loading bool
	Err     error
}

// Service is the favorites synchronizer. It is safe for concurrent use.
type Service struct {
	api      API
	catalog  product.Catalog
	sessions auth.Store
	notifier notify.Notifier
	ops      *telemetry.Ops
	now      func() time.Time

	seq seq.Tracker

	mu       sync.RWMutex
	set      Set
	fetching int
	loadErr  error
}

// NewService creates a favorites Service.
func NewService(api API, catalog product.Catalog, sessions auth.Store, opts Options) (*Service, error) {
	ops, err := telemetry.NewOps("storefront/favorite", opts.Telemetry)
	if err != nil {
		return nil, err
	}
	n := opts.Notifier
	if n == nil {
		n = notify.Discard
	}
	return &Service{
		api:      api,
		catalog:  catalog,
		sessions: sessions,
		notifier: n,
		ops:      ops,
		now:      time.Now,
	}, nil
}

// IsFavorite is a pure membership test against the local set. It never
// touches the network and answers false before the first fetch.
func (s *Service) IsFavorite(productID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.set.Has(productID)
}

// IDs returns the favorited ids in lexical order.
func (s *Service) IDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.set.Sorted()
}

// Snapshot returns a copy of the current state.
func (s *Service) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return State{
		IDs:     s.set.Sorted(),
		Loading: s.fetching > 0,
		Err:     s.loadErr,
	}
}

// Reset drops the local set. In-flight responses are discarded.
func (s *Service) Reset() {
	s.seq.Reset()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.set = nil
	s.loadErr = nil
}

// Fetch replaces the local set with the server's. Any failure, including a
// missing session, empties the local set and is returned.
func (s *Service) Fetch(ctx context.Context) (rerr error) {
	ctx, done := s.ops.Start(ctx, "favorite.fetch")
	defer func() { done(rerr) }()

	n := s.seq.Begin(fetchKey)
	s.mu.Lock()
	s.fetching++
	s.mu.Unlock()

	if _, err := auth.Require(ctx, s.sessions, s.now()); err != nil {
		s.commitFetch(ctx, n, nil, err)
		return err
	}

	ids, err := s.api.List(ctx)
	if err != nil {
		lg := zctx.From(ctx)
		if apierr.IsUnauthorized(err) {
			lg.Warn("Favorites rejected the session", zap.Error(err))
		} else {
			lg.Error("Fetch favorites failed", zap.Error(err))
		}
		s.commitFetch(ctx, n, nil, err)
		return errors.Wrap(err, "fetch favorites")
	}
	s.commitFetch(ctx, n, NewSet(ids...), nil)
	return nil
}

func (s *Service) commitFetch(ctx context.Context, n uint64, set Set, loadErr error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.fetching--
	if !s.seq.IsLatest(fetchKey, n) {
		zctx.From(ctx).Debug("Discarding stale favorites fetch", zap.Uint64("seq", n))
		return
	}
	s.set = set
	s.loadErr = loadErr
}

// Toggle flips the membership of productID on the server and, on success,
// locally. It reports whether the toggle took effect. Without a session no
// request is made. Every failure is shown to the user as an alert.
func (s *Service) Toggle(ctx context.Context, productID string) bool {
	ctx, done := s.ops.Start(ctx, "favorite.toggle", attribute.String("product_id", productID))

	if _, err := auth.Require(ctx, s.sessions, s.now()); err != nil {
		s.notifier.Notify(ctx, notify.Alert, "Erro: Usuário não autenticado. Faça login para favoritar produtos.")
		done(err)
		return false
	}

	err := s.toggle(ctx, productID)
	done(err)
	if err != nil {
		zctx.From(ctx).Error("Toggle favorite failed", zap.String("product_id", productID), zap.Error(err))
		s.notifier.Notify(ctx, notify.Alert, "Falha ao atualizar favoritos: "+apierr.Message(err))
		return false
	}
	return true
}

func (s *Service) toggle(ctx context.Context, productID string) error {
	if productID == "" {
		return errors.New("product id is required")
	}

	favored := s.IsFavorite(productID)
	n := s.seq.Begin(productID)

	if favored {
		found, err := s.api.Remove(ctx, productID)
		if err != nil {
			return err
		}
		if !found {
			zctx.From(ctx).Debug("Favorite already gone", zap.String("product_id", productID))
		}
	} else if err := s.api.Add(ctx, productID); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.seq.IsLatest(productID, n) {
		zctx.From(ctx).Debug("Discarding stale favorite toggle",
			zap.String("product_id", productID),
			zap.Uint64("seq", n),
		)
		return nil
	}
	if s.set == nil {
		s.set = Set{}
	}
	if favored {
		delete(s.set, productID)
	} else {
		s.set[productID] = struct{}{}
	}
	// A fetch dispatched before this toggle may not reflect it.
	s.seq.Begin(fetchKey)
	return nil
}

// Products lists the catalog entries that are in the local favorite set.
func (s *Service) Products(ctx context.Context) ([]product.Product, error) {
	products, err := s.catalog.List(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list products")
	}

	s.mu.RLock()
	ids := s.set.Clone()
	s.mu.RUnlock()

	return product.FilterByID(products, ids), nil
}
