package apierr

import (
	"net/http"
	"testing"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
)

func TestMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "nil",
			err:  nil,
			want: "",
		},
		{
			name: "auth missing",
			err:  errors.Wrap(ErrAuthMissing, "add to cart"),
			want: "Usuário não autenticado. Faça login novamente.",
		},
		{
			name: "server message verbatim",
			err:  &ServerError{Status: http.StatusConflict, Message: "Estoque insuficiente"},
			want: "Estoque insuficiente",
		},
		{
			name: "opaque server error",
			err:  &ServerError{Status: http.StatusBadGateway, Opaque: true},
			want: "Falha na requisição (Status: 502).",
		},
		{
			name: "network failure",
			err:  &NetworkError{Method: http.MethodGet, Path: "/api/cart", Err: errors.New("connection refused")},
			want: "Não foi possível conectar ao servidor. Verifique sua conexão.",
		},
		{
			name: "other",
			err:  errors.New("boom"),
			want: "boom",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Message(tt.err))
		})
	}
}

func TestStatusHelpers(t *testing.T) {
	err := errors.Wrap(&ServerError{Status: http.StatusUnauthorized, Opaque: true}, "list favorites")

	assert.Equal(t, http.StatusUnauthorized, Status(err))
	assert.True(t, IsUnauthorized(err))
	assert.False(t, IsStatus(err, http.StatusNotFound))
	assert.False(t, IsNetwork(err))
	assert.Equal(t, 0, Status(errors.New("plain")))

	var se *ServerError
	if assert.True(t, errors.As(err, &se)) {
		assert.Equal(t, "request failed with status 401", se.Error())
	}
}
