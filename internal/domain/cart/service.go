package cart

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/kart-storefront/internal/apierr"
	"github.com/xenking/kart-storefront/internal/domain/auth"
	"github.com/xenking/kart-storefront/internal/domain/order"
	"github.com/xenking/kart-storefront/internal/domain/product"
	"github.com/xenking/kart-storefront/internal/notify"
	"github.com/xenking/kart-storefront/internal/telemetry"
	"github.com/xenking/kart-storefront/pkg/seq"
)

// ErrLoadFailed is the error state recorded when the cart could not be loaded.
var ErrLoadFailed = errors.New("cart could not be loaded")

// LoadFailedMessage is the user-facing text for ErrLoadFailed.
const LoadFailedMessage = "Não foi possível carregar seu carrinho."

// fetchKey is the sequence key of whole-cart fetches.
const fetchKey = "\x00cart"

// API is the server-side cart resource.
type API interface {
	// Get returns the raw cart items (product id and quantity only).
	Get(ctx context.Context) ([]Item, error)
	Add(ctx context.Context, it Item) error
	Update(ctx context.Context, it Item) error
	// Remove deletes the product from the server cart. found is false when
	// the server answered 404, which is not an error.
	Remove(ctx context.Context, productID string) (found bool, err error)
	Checkout(ctx context.Context, items []Item) (*order.Receipt, error)
}

// Options configures a Service.
type Options struct {
	// Concurrency bounds parallel catalog lookups during Fetch.
	// Zero or negative means unbounded.
	Concurrency int
	Notifier    notify.Notifier
	Telemetry   telemetry.Providers
}

// State is a point-in-time copy of the synchronizer state for rendering.
type State struct {
	Items   []LineItem
	Total   decimal.Decimal
	Loading bool
	Err     error
}

// Service is the cart synchronizer: an in-memory cart reconciled against the
// server cart. Mutations are pessimistic (the server is called first) and the
// local copy is only touched after success.
//
// Service is safe for concurrent use. The mutex is never held across network
// calls; stale responses are detected with per-resource sequence numbers.
type Service struct {
	api         API
	catalog     product.Catalog
	sessions    auth.Store
	notifier    notify.Notifier
	ops         *telemetry.Ops
	concurrency int
	now         func() time.Time

	seq seq.Tracker

	mu       sync.RWMutex
	cart     Cart
	fetching int
	loadErr  error
	// fetchSent and fetchApplied are the dispatch and commit numbers of the
	// last fetch whose result replaced the cart.
	fetchSent    uint64
	fetchApplied uint64
}

// NewService creates a cart Service.
func NewService(api API, catalog product.Catalog, sessions auth.Store, opts Options) (*Service, error) {
	ops, err := telemetry.NewOps("storefront/cart", opts.Telemetry)
	if err != nil {
		return nil, err
	}
	n := opts.Notifier
	if n == nil {
		n = notify.Discard
	}
	return &Service{
		api:         api,
		catalog:     catalog,
		sessions:    sessions,
		notifier:    n,
		ops:         ops,
		concurrency: opts.Concurrency,
		now:         time.Now,
	}, nil
}

// Snapshot returns a copy of the current state.
func (s *Service) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return State{
		Items:   s.cart.Items(),
		Total:   s.cart.Total(),
		Loading: s.fetching > 0,
		Err:     s.loadErr,
	}
}

// Items returns a copy of the current line items.
func (s *Service) Items() []LineItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cart.Items()
}

// Total returns Σ price × quantity over the current line items.
func (s *Service) Total() decimal.Decimal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cart.Total()
}

// Reset drops all local state. In-flight responses are discarded.
func (s *Service) Reset() {
	s.seq.Reset()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.cart = Cart{}
	s.loadErr = nil
}

// Fetch loads the authoritative cart and enriches each item from the catalog
// concurrently. The result replaces the local cart as a whole.
//
// A failed catalog lookup degrades that item to a placeholder instead of
// failing the fetch. A failed cart request empties the local cart and records
// ErrLoadFailed. Without a session Fetch returns apierr.ErrAuthMissing and
// leaves state untouched.
func (s *Service) Fetch(ctx context.Context) (rerr error) {
	ctx, done := s.ops.Start(ctx, "cart.fetch")
	defer func() { done(rerr) }()

	if _, err := auth.Require(ctx, s.sessions, s.now()); err != nil {
		return err
	}

	n := s.seq.Begin(fetchKey)
	s.mu.Lock()
	s.fetching++
	s.mu.Unlock()

	lines, err := s.load(ctx)
	if err != nil {
		zctx.From(ctx).Error("Fetch cart failed", zap.Error(err))
		s.commitFetch(ctx, n, Cart{}, ErrLoadFailed)
		return errors.Wrap(err, "fetch cart")
	}
	s.commitFetch(ctx, n, New(lines...), nil)
	return nil
}

func (s *Service) load(ctx context.Context) ([]LineItem, error) {
	raw, err := s.api.Get(ctx)
	if err != nil {
		return nil, err
	}
	return s.enrich(ctx, raw)
}

// enrich looks up every item in the catalog, in parallel. Results keep the
// server order.
func (s *Service) enrich(ctx context.Context, raw []Item) ([]LineItem, error) {
	lines := make([]LineItem, len(raw))

	var g errgroup.Group
	if s.concurrency > 0 {
		g.SetLimit(s.concurrency)
	}
	for i, it := range raw {
		g.Go(func() error {
			lines[i] = s.lookup(ctx, it)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return lines, nil
}

func (s *Service) lookup(ctx context.Context, it Item) LineItem {
	p, err := s.catalog.Get(ctx, it.ProductID)
	if err == nil {
		return LineItem{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			Name:      p.Name,
			Price:     p.Price,
			Image:     p.Image,
		}
	}

	lg := zctx.From(ctx)
	switch {
	case errors.Is(err, apierr.ErrAuthMissing):
		return Placeholder(it, UnknownName)
	case apierr.IsNetwork(err):
		lg.Warn("Product lookup failed", zap.String("product_id", it.ProductID), zap.Error(err))
		return Placeholder(it, NetworkName)
	default:
		lg.Warn("Product unavailable", zap.String("product_id", it.ProductID), zap.Error(err))
		return Placeholder(it, UnavailableName)
	}
}

func (s *Service) commitFetch(ctx context.Context, n uint64, c Cart, loadErr error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.fetching--
	if !s.seq.IsLatest(fetchKey, n) {
		zctx.From(ctx).Debug("Discarding stale cart fetch", zap.Uint64("seq", n))
		return
	}
	s.cart = c
	s.loadErr = loadErr
	s.fetchSent = n
	s.fetchApplied = s.seq.Next()
}

// invalidateFetches makes any fetch dispatched before a local mutation stale,
// since its response may predate the mutation on the server.
// Must be called with s.mu held.
func (s *Service) invalidateFetches() {
	s.seq.Begin(fetchKey)
}

// Add persists quantity units of p on the server and then merges them into the
// local cart, reusing p's display fields. Without a session the user is
// alerted and no request is made.
func (s *Service) Add(ctx context.Context, p product.Product, quantity int) (rerr error) {
	ctx, done := s.ops.Start(ctx, "cart.add", attribute.String("product_id", p.ID))
	defer func() { done(rerr) }()

	if p.ID == "" {
		return ErrInvalidProductID
	}
	if quantity < 1 {
		return ErrInvalidQuantity
	}
	if _, err := auth.Require(ctx, s.sessions, s.now()); err != nil {
		s.notifier.Notify(ctx, notify.Alert, "Erro: Usuário não autenticado. Faça login novamente.")
		return err
	}

	lg := zctx.From(ctx)
	sent := s.seq.Next()
	if err := s.api.Add(ctx, Item{ProductID: p.ID, Quantity: quantity}); err != nil {
		lg.Error("Add to cart failed", zap.String("product_id", p.ID), zap.Error(err))
		s.notifier.Notify(ctx, notify.Alert, "Erro ao adicionar ao carrinho: "+apierr.Message(err))
		return errors.Wrap(err, "add to cart")
	}
	acked := s.seq.Next()

	line := LineItem{
		ProductID: p.ID,
		Quantity:  quantity,
		Name:      p.Name,
		Price:     p.Price,
		Image:     p.Image,
	}
	if s.commitAdd(ctx, sent, acked, line) {
		return nil
	}
	lg.Debug("Cart fetched while adding, refreshing", zap.String("product_id", p.ID))
	if err := s.Fetch(ctx); err != nil {
		lg.Warn("Refresh after add failed", zap.Error(err))
	}
	return nil
}

// commitAdd merges a confirmed add into the local cart unless a fetch applied
// after the add was sent. Such a fetch replaced the cart with server state: if
// it was sent after the add was acknowledged it already holds the new units and
// commitAdd is done. Otherwise it may or may not hold them, and commitAdd
// returns false so the caller refetches.
func (s *Service) commitAdd(ctx context.Context, sent, acked uint64, line LineItem) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case s.fetchApplied < sent:
		s.cart.Add(line)
		s.invalidateFetches()
		return true
	case s.fetchSent > acked:
		zctx.From(ctx).Debug("Add already reflected by fetch", zap.String("product_id", line.ProductID))
		return true
	default:
		return false
	}
}

// UpdateQuantity parses raw as an integer and sets the product's quantity on
// the server, then locally. Leading digits are read and the rest is dropped,
// so "2.5" means 2. Values without leading digits or below 1 are ignored
// without error or request.
func (s *Service) UpdateQuantity(ctx context.Context, productID, raw string) error {
	quantity, ok := ParseQuantity(raw)
	if !ok || quantity < 1 {
		return nil
	}
	return s.SetQuantity(ctx, productID, quantity)
}

// ParseQuantity reads an optionally signed run of decimal digits after any
// leading whitespace and ignores whatever follows it.
func ParseQuantity(raw string) (int, bool) {
	v := strings.TrimLeftFunc(raw, unicode.IsSpace)
	end := 0
	if end < len(v) && (v[end] == '+' || v[end] == '-') {
		end++
	}
	digits := end
	for end < len(v) && v[end] >= '0' && v[end] <= '9' {
		end++
	}
	if end == digits {
		return 0, false
	}
	n, err := strconv.Atoi(v[:end])
	if err != nil {
		return 0, false
	}
	return n, true
}

// SetQuantity is UpdateQuantity for an already parsed value.
func (s *Service) SetQuantity(ctx context.Context, productID string, quantity int) (rerr error) {
	if quantity < 1 {
		return nil
	}
	ctx, done := s.ops.Start(ctx, "cart.update", attribute.String("product_id", productID))
	defer func() { done(rerr) }()

	if _, err := auth.Require(ctx, s.sessions, s.now()); err != nil {
		s.notifier.Notify(ctx, notify.Alert, "Erro: Usuário não autenticado. Faça login novamente.")
		return err
	}

	n := s.seq.Begin(productID)
	if err := s.api.Update(ctx, Item{ProductID: productID, Quantity: quantity}); err != nil {
		zctx.From(ctx).Error("Update quantity failed", zap.String("product_id", productID), zap.Error(err))
		s.notifier.Notify(ctx, notify.Alert, "Erro ao atualizar quantidade: "+apierr.Message(err))
		return errors.Wrap(err, "update quantity")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.seq.IsLatest(productID, n) {
		zctx.From(ctx).Debug("Discarding stale quantity update",
			zap.String("product_id", productID),
			zap.Uint64("seq", n),
		)
		return nil
	}
	s.cart.SetQuantity(productID, quantity)
	s.invalidateFetches()
	return nil
}

// Remove deletes the product on the server and then refetches the whole
// cart. A 404 counts as removed. Any other failure is logged and returned
// without alerting the user; local state is left untouched.
func (s *Service) Remove(ctx context.Context, productID string) (rerr error) {
	ctx, done := s.ops.Start(ctx, "cart.remove", attribute.String("product_id", productID))
	defer func() { done(rerr) }()

	lg := zctx.From(ctx)
	if productID == "" {
		lg.Error("Product id is required for removal")
		return ErrInvalidProductID
	}
	if _, err := auth.Require(ctx, s.sessions, s.now()); err != nil {
		lg.Error("Remove from cart without session", zap.Error(err))
		return err
	}

	found, err := s.api.Remove(ctx, productID)
	if err != nil {
		lg.Error("Remove from cart failed", zap.String("product_id", productID), zap.Error(err))
		return errors.Wrap(err, "remove from cart")
	}
	// Supersede quantity updates still in flight for this product.
	s.seq.Begin(productID)
	if !found {
		lg.Warn("Item not found on server, refreshing cart", zap.String("product_id", productID))
	}
	return s.Fetch(ctx)
}

// Checkout places an order for items. It requires a session, a customer id and
// at least one item; those checks fail locally with an alert. Only product ids
// and quantities are sent. On success the cart is refetched and the server's
// receipt returned. On failure the error is returned for the caller to
// present, and the local cart is kept.
func (s *Service) Checkout(ctx context.Context, customerID string, items []Item) (_ *order.Receipt, rerr error) {
	ctx, done := s.ops.Start(ctx, "cart.checkout", attribute.Int("items", len(items)))
	defer func() { done(rerr) }()

	if _, err := auth.Require(ctx, s.sessions, s.now()); err != nil || customerID == "" {
		s.notifier.Notify(ctx, notify.Alert, "Erro de autenticação para checkout.")
		if err == nil {
			err = apierr.ErrAuthMissing
		}
		return nil, err
	}
	if len(items) == 0 {
		s.notifier.Notify(ctx, notify.Alert, "Carrinho vazio.")
		return nil, ErrEmptyCart
	}

	reduced := make([]Item, len(items))
	for i, it := range items {
		reduced[i] = Item{ProductID: it.ProductID, Quantity: it.Quantity}
	}

	receipt, err := s.api.Checkout(ctx, reduced)
	if err != nil {
		zctx.From(ctx).Error("Checkout failed", zap.Int("status", apierr.Status(err)), zap.Error(err))
		return nil, errors.Wrap(err, "checkout")
	}

	if err := s.Fetch(ctx); err != nil {
		zctx.From(ctx).Warn("Refresh after checkout failed", zap.Error(err))
	}
	return receipt, nil
}

// CheckoutCart places an order for the whole local cart.
func (s *Service) CheckoutCart(ctx context.Context, customerID string) (*order.Receipt, error) {
	s.mu.RLock()
	items := s.cart.OrderItems()
	s.mu.RUnlock()
	return s.Checkout(ctx, customerID, items)
}
