package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/go-faster/jx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/kart-storefront/internal/telemetry"
)

// --- Mock implementations ---

// fakeStore is a minimal storefront API keeping one cart and one favorites
// set in memory.
type fakeStore struct {
	mu        sync.Mutex
	seller    bool
	cart      map[string]int
	order     []string
	favorites map[string]bool
}

func newFakeStore(seller bool) *fakeStore {
	return &fakeStore{
		seller:    seller,
		cart:      map[string]int{},
		favorites: map[string]bool{},
	}
}

func (f *fakeStore) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/users/login", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, fmt.Sprintf(`{"access_token":"tok","user_id":"u1","is_seller":%t}`, f.seller))
	})
	mux.HandleFunc("GET /api/products", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, `[{"id":"p1","name":"Kart","price":10,"stock":4},{"id":"p2","name":"Helmet","price":"5.50","stock":1}]`)
	})
	mux.HandleFunc("GET /api/products/{id}", func(w http.ResponseWriter, r *http.Request) {
		switch r.PathValue("id") {
		case "p1":
			writeJSON(w, http.StatusOK, `{"id":"p1","name":"Kart","price":10,"stock":4}`)
		case "p2":
			writeJSON(w, http.StatusOK, `{"id":"p2","name":"Helmet","price":"5.50","stock":1}`)
		default:
			writeJSON(w, http.StatusNotFound, `{"message":"Produto não encontrado"}`)
		}
	})
	mux.HandleFunc("DELETE /api/products/{id}", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusForbidden, `{"detail":"forbidden"}`)
	})
	mux.HandleFunc("GET /api/cart", func(w http.ResponseWriter, _ *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		var e jx.Encoder
		e.Obj(func(e *jx.Encoder) {
			e.Field("items", func(e *jx.Encoder) {
				e.Arr(func(e *jx.Encoder) {
					for _, id := range f.order {
						e.Obj(func(e *jx.Encoder) {
							e.Field("product_id", func(e *jx.Encoder) { e.Str(id) })
							e.Field("quantity", func(e *jx.Encoder) { e.Int(f.cart[id]) })
						})
					}
				})
			})
		})
		writeJSON(w, http.StatusOK, e.String())
	})
	mux.HandleFunc("POST /api/cart", func(w http.ResponseWriter, r *http.Request) {
		var (
			id  string
			qty int
		)
		body, _ := io.ReadAll(r.Body)
		err := jx.DecodeBytes(body).Obj(func(d *jx.Decoder, key string) error {
			var err error
			switch key {
			case "product_id":
				id, err = d.Str()
			case "quantity":
				qty, err = d.Int()
			default:
				err = d.Skip()
			}
			return err
		})
		if err != nil {
			writeJSON(w, http.StatusBadRequest, `{"message":"bad body"}`)
			return
		}
		f.mu.Lock()
		if _, ok := f.cart[id]; !ok {
			f.order = append(f.order, id)
		}
		f.cart[id] += qty
		f.mu.Unlock()
		writeJSON(w, http.StatusCreated, `{}`)
	})
	mux.HandleFunc("GET /api/favorites", func(w http.ResponseWriter, _ *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		var e jx.Encoder
		e.Arr(func(e *jx.Encoder) {
			for id := range f.favorites {
				e.Obj(func(e *jx.Encoder) {
					e.Field("product_id", func(e *jx.Encoder) { e.Str(id) })
				})
			}
		})
		writeJSON(w, http.StatusOK, e.String())
	})
	mux.HandleFunc("POST /api/favorites", func(w http.ResponseWriter, r *http.Request) {
		var id string
		body, _ := io.ReadAll(r.Body)
		_ = jx.DecodeBytes(body).Obj(func(d *jx.Decoder, key string) error {
			if key != "product_id" {
				return d.Skip()
			}
			var err error
			id, err = d.Str()
			return err
		})
		f.mu.Lock()
		f.favorites[id] = true
		f.mu.Unlock()
		writeJSON(w, http.StatusCreated, `{}`)
	})
	mux.HandleFunc("DELETE /api/favorites/{id}", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		delete(f.favorites, r.PathValue("id"))
		f.mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("GET /api/metrics", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, `{"productsBySeller":[{"total_sold":3},{"total_sold":4}],"totalRevenue":"70.00","bestSeller":{"product_name":"Kart"}}`)
	})
	mux.HandleFunc("GET /api/products/inventory", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, `[{"id":"p1","name":"Kart","price":10,"stock":4}]`)
	})
	return mux
}

// --- Helpers ---

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

type env struct {
	t      *testing.T
	config string
}

func newEnv(t *testing.T, store *fakeStore) *env {
	t.Helper()
	srv := httptest.NewServer(store.handler())
	t.Cleanup(srv.Close)

	dir := t.TempDir()
	cfg := fmt.Sprintf("api_base_url: %s\nsession:\n  backend: file\n  path: %s\nbreaker:\n  enabled: false\n",
		srv.URL, filepath.Join(dir, "session.json"))
	p := filepath.Join(dir, "storefront.yaml")
	require.NoError(t, os.WriteFile(p, []byte(cfg), 0o600))
	return &env{t: t, config: p}
}

type result struct {
	stdout string
	stderr string
	err    error
}

func (e *env) run(args ...string) result {
	e.t.Helper()
	var out, errOut bytes.Buffer
	c := newCLI(strings.NewReader(""), &out, &errOut, telemetry.Providers{})
	err := c.execute(context.Background(), append([]string{"--config", e.config}, args...))
	return result{stdout: out.String(), stderr: errOut.String(), err: err}
}

func (e *env) login() {
	e.t.Helper()
	res := e.run("login", "--email", "ana@example.com", "--password", "secret")
	require.NoError(e.t, res.err, res.stderr)
}

// --- Tests ---

func TestProductsList(t *testing.T) {
	e := newEnv(t, newFakeStore(false))

	res := e.run("products", "list")
	require.NoError(t, res.err, res.stderr)
	assert.Contains(t, res.stdout, "Kart")
	assert.Contains(t, res.stdout, "R$ 5.50")
}

func TestLogin(t *testing.T) {
	e := newEnv(t, newFakeStore(true))

	res := e.run("login", "--email", "ana@example.com", "--password", "secret")
	require.NoError(t, res.err, res.stderr)
	assert.Contains(t, res.stdout, "Login realizado com sucesso")
	assert.Contains(t, res.stdout, "vendedor")

	res = e.run("login", "--email", "not-an-email", "--password", "secret")
	require.Error(t, res.err)
	assert.Contains(t, res.stderr, "! ")
}

func TestCart_AddAndShow(t *testing.T) {
	e := newEnv(t, newFakeStore(false))
	e.login()

	res := e.run("cart", "add", "p1", "2")
	require.NoError(t, res.err, res.stderr)
	assert.Contains(t, res.stdout, "Produto adicionado ao carrinho!")

	res = e.run("cart", "show")
	require.NoError(t, res.err, res.stderr)
	assert.Contains(t, res.stdout, "Kart")
	assert.Contains(t, res.stdout, "R$ 20.00")
}

func TestCart_AddWithoutSession(t *testing.T) {
	e := newEnv(t, newFakeStore(false))

	res := e.run("cart", "add", "p1")
	require.Error(t, res.err)
	assert.Equal(t, 1, strings.Count(res.stderr, "Usuário não autenticado"), res.stderr)
}

func TestCart_ShowEmpty(t *testing.T) {
	e := newEnv(t, newFakeStore(false))
	e.login()

	res := e.run("cart", "show")
	require.NoError(t, res.err, res.stderr)
	assert.Contains(t, res.stdout, "Seu carrinho está vazio.")
}

func TestFavorites_Toggle(t *testing.T) {
	e := newEnv(t, newFakeStore(false))
	e.login()

	res := e.run("favorites", "toggle", "p1")
	require.NoError(t, res.err, res.stderr)
	assert.Contains(t, res.stdout, "adicionado aos favoritos")

	res = e.run("favorites", "check", "p1")
	require.NoError(t, res.err, res.stderr)
	assert.Equal(t, "sim\n", res.stdout)

	res = e.run("favorites", "list")
	require.NoError(t, res.err, res.stderr)
	assert.Contains(t, res.stdout, "Kart")
	assert.NotContains(t, res.stdout, "Helmet")

	res = e.run("favorites", "toggle", "p1")
	require.NoError(t, res.err, res.stderr)
	assert.Contains(t, res.stdout, "removido dos favoritos")
}

func TestSeller(t *testing.T) {
	e := newEnv(t, newFakeStore(true))
	e.login()

	res := e.run("seller", "dashboard")
	require.NoError(t, res.err, res.stderr)
	assert.Contains(t, res.stdout, "7")
	assert.Contains(t, res.stdout, "R$ 70.00")
	assert.Contains(t, res.stdout, "Kart")

	res = e.run("seller", "delete", "p1")
	require.Error(t, res.err)
	assert.Contains(t, res.stderr, "Acesso negado. Apenas o vendedor criador pode excluir este produto.")

	res = e.run("seller", "create", "--name", "Kart", "--price", "abc")
	require.Error(t, res.err)
}

func TestSeller_NotSeller(t *testing.T) {
	e := newEnv(t, newFakeStore(false))
	e.login()

	res := e.run("seller", "inventory")
	require.Error(t, res.err)
	assert.Contains(t, res.stderr, "Acesso restrito a vendedores.")
}

func TestLogoutAndStatus(t *testing.T) {
	e := newEnv(t, newFakeStore(false))
	e.login()

	res := e.run("status")
	require.NoError(t, res.err, res.stderr)
	assert.Contains(t, res.stdout, "Conectado como u1")
	assert.Contains(t, res.stdout, `"status":"ok"`)

	res = e.run("logout")
	require.NoError(t, res.err, res.stderr)

	res = e.run("status")
	require.NoError(t, res.err, res.stderr)
	assert.Contains(t, res.stdout, "Não conectado.")
}

func TestDeactivate_RequiresConfirmation(t *testing.T) {
	e := newEnv(t, newFakeStore(false))
	e.login()

	res := e.run("deactivate")
	require.Error(t, res.err)
	assert.Contains(t, res.stderr, "--yes")
}
