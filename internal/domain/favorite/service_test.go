package favorite

import (
	"context"
	"net/http"
	"sync"
	"testing"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/xenking/kart-storefront/internal/apierr"
	"github.com/xenking/kart-storefront/internal/domain/auth"
	"github.com/xenking/kart-storefront/internal/domain/product"
	"github.com/xenking/kart-storefront/internal/notify"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// --- Mock implementations ---

type mockStore struct {
	sess auth.Session
}

func (m *mockStore) Get(_ context.Context) (auth.Session, error) { return m.sess, nil }
func (m *mockStore) Set(_ context.Context, s auth.Session) error { m.sess = s; return nil }
func (m *mockStore) Clear(_ context.Context) error { m.sess = auth.Session{}; return nil }

type mockAPI struct {
	mu        sync.Mutex
	ids       map[string]bool
	listErr   error
	addErr    error
	removeErr error
	calls     int
}

func newMockAPI(ids ...string) *mockAPI {
	m := &mockAPI{ids: map[string]bool{}}
	for _, id := range ids {
		m.ids[id] = true
	}
	return m
}

func (m *mockAPI) List(_ context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.listErr != nil {
		return nil, m.listErr
	}
	out := make([]string, 0, len(m.ids))
	for id := range m.ids {
		out = append(out, id)
	}
	return out, nil
}

func (m *mockAPI) Add(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.addErr != nil {
		return m.addErr
	}
	m.ids[id] = true
	return nil
}

func (m *mockAPI) Remove(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.removeErr != nil {
		return false, m.removeErr
	}
	found := m.ids[id]
	delete(m.ids, id)
	return found, nil
}

type mockCatalog struct {
	products []product.Product
	err      error
}

func (m *mockCatalog) List(_ context.Context) ([]product.Product, error) {
	return m.products, m.err
}

func (m *mockCatalog) Get(_ context.Context, id string) (*product.Product, error) {
	for _, p := range m.products {
		if p.ID == id {
			return &p, nil
		}
	}
	return nil, product.ErrNotFound
}

type recorder struct {
	mu   sync.Mutex
	msgs []string
}

func (r *recorder) Notify(_ context.Context, _ notify.Level, msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, msg)
}

// --- Helpers ---

func signedIn() *mockStore {
	return &mockStore{sess: auth.Session{Token: "t0k3n", UserID: "u1"}}
}

func newService(t *testing.T, api API, catalog product.Catalog, store auth.Store) (*Service, *recorder) {
	t.Helper()
	rec := &recorder{}
	svc, err := NewService(api, catalog, store, Options{Notifier: rec})
	require.NoError(t, err)
	return svc, rec
}

// --- Tests ---

func TestSet(t *testing.T) {
	s := NewSet("b", "a", "", "b")

	assert.Equal(t, []string{"a", "b"}, s.Sorted())
	assert.True(t, s.Has("a"))
	assert.False(t, s.Has(""))

	var empty Set
	assert.False(t, empty.Has("a"))
	assert.Empty(t, empty.Sorted())
}

func TestFetch(t *testing.T) {
	svc, _ := newService(t, newMockAPI("p1", "p2"), &mockCatalog{}, signedIn())

	assert.False(t, svc.IsFavorite("p1"), "false before the first fetch")
	require.NoError(t, svc.Fetch(context.Background()))

	assert.True(t, svc.IsFavorite("p1"))
	assert.True(t, svc.IsFavorite("p2"))
	assert.False(t, svc.IsFavorite("p3"))
	assert.Equal(t, []string{"p1", "p2"}, svc.IDs())
}

func TestFetch_FailureClearsSet(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{name: "unauthorized", err: &apierr.ServerError{Status: http.StatusUnauthorized, Message: "Token inválido"}},
		{name: "server error", err: &apierr.ServerError{Status: http.StatusInternalServerError, Opaque: true}},
		{name: "network", err: &apierr.NetworkError{Method: http.MethodGet, Path: "/api/favorites", Err: errors.New("refused")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := newMockAPI("p1")
			svc, _ := newService(t, api, &mockCatalog{}, signedIn())
			require.NoError(t, svc.Fetch(context.Background()))
			require.True(t, svc.IsFavorite("p1"))

			api.listErr = tt.err
			err := svc.Fetch(context.Background())

			require.Error(t, err)
			assert.ErrorIs(t, err, tt.err)
			assert.False(t, svc.IsFavorite("p1"))
			assert.Empty(t, svc.IDs())
			assert.Error(t, svc.Snapshot().Err)
		})
	}
}

func TestFetch_NoSessionClearsSet(t *testing.T) {
	api := newMockAPI("p1")
	store := signedIn()
	svc, _ := newService(t, api, &mockCatalog{}, store)
	require.NoError(t, svc.Fetch(context.Background()))

	store.sess = auth.Session{}
	require.ErrorIs(t, svc.Fetch(context.Background()), apierr.ErrAuthMissing)
	assert.Empty(t, svc.IDs())
	assert.Equal(t, 1, api.calls)
}

func TestToggle_NoSession(t *testing.T) {
	api := newMockAPI()
	svc, rec := newService(t, api, &mockCatalog{}, &mockStore{})

	ok := svc.Toggle(context.Background(), "p9")

	assert.False(t, ok)
	assert.Zero(t, api.calls, "no network request")
	require.Len(t, rec.msgs, 1)
	assert.Contains(t, rec.msgs[0], "não autenticado")
}

func TestToggle_TwiceRestoresMembership(t *testing.T) {
	for _, initial := range []bool{false, true} {
		api := newMockAPI()
		if initial {
			api.ids["p1"] = true
		}
		svc, _ := newService(t, api, &mockCatalog{}, signedIn())
		require.NoError(t, svc.Fetch(context.Background()))

		require.True(t, svc.Toggle(context.Background(), "p1"))
		assert.Equal(t, !initial, svc.IsFavorite("p1"))
		require.True(t, svc.Toggle(context.Background(), "p1"))
		assert.Equal(t, initial, svc.IsFavorite("p1"))
	}
}

func TestToggle_RemoveNotFoundIsSuccess(t *testing.T) {
	api := newMockAPI("p1")
	svc, rec := newService(t, api, &mockCatalog{}, signedIn())
	require.NoError(t, svc.Fetch(context.Background()))
	delete(api.ids, "p1")

	assert.True(t, svc.Toggle(context.Background(), "p1"))
	assert.False(t, svc.IsFavorite("p1"))
	assert.Empty(t, rec.msgs)
}

func TestToggle_ServerFailure(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(api *mockAPI)
		favored bool
		wantMsg string
	}{
		{
			name: "add rejected with message",
			setup: func(api *mockAPI) {
				api.addErr = &apierr.ServerError{Status: http.StatusBadRequest, Message: "Produto inexistente"}
			},
			wantMsg: "Falha ao atualizar favoritos: Produto inexistente",
		},
		{
			name: "remove rejected without body",
			setup: func(api *mockAPI) {
				api.ids["p1"] = true
				api.removeErr = &apierr.ServerError{Status: http.StatusInternalServerError, Opaque: true}
			},
			favored: true,
			wantMsg: "Falha ao atualizar favoritos: Falha na requisição (Status: 500).",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := newMockAPI()
			tt.setup(api)
			svc, rec := newService(t, api, &mockCatalog{}, signedIn())
			require.NoError(t, svc.Fetch(context.Background()))

			assert.False(t, svc.Toggle(context.Background(), "p1"))
			assert.Equal(t, tt.favored, svc.IsFavorite("p1"), "state unchanged")
			assert.Equal(t, []string{tt.wantMsg}, rec.msgs)
		})
	}
}

func TestReset(t *testing.T) {
	svc, _ := newService(t, newMockAPI("p1"), &mockCatalog{}, signedIn())
	require.NoError(t, svc.Fetch(context.Background()))

	svc.Reset()
	assert.False(t, svc.IsFavorite("p1"))
}

func TestProducts(t *testing.T) {
	catalog := &mockCatalog{products: []product.Product{
		{ID: "p1", Name: "Widget", Price: decimal.NewFromInt(1)},
		{ID: "p2", Name: "Gadget", Price: decimal.NewFromInt(2)},
		{ID: "p3", Name: "Gizmo", Price: decimal.NewFromInt(3)},
	}}
	svc, _ := newService(t, newMockAPI("p3", "p1"), catalog, signedIn())
	require.NoError(t, svc.Fetch(context.Background()))

	got, err := svc.Products(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "p1", got[0].ID)
	assert.Equal(t, "p3", got[1].ID)
}
