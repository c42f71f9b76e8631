// Package apierr defines the error taxonomy shared by the REST client and the
// synchronizers built on top of it.
package apierr

import (
	"fmt"
	"net/http"

	"github.com/go-faster/errors"
)

// ErrAuthMissing is returned when no usable session token is present. It is
// always detected locally: a request carrying it never reaches the network.
var ErrAuthMissing = errors.New("not authenticated")

// ServerError is a non-2xx response from the API.
//
// When the body carried a parseable message, Message holds it verbatim and
// Opaque is false. Otherwise Opaque is true and Message is empty.
type ServerError struct {
	Status  int
	Message string
	Opaque  bool
}

func (e *ServerError) Error() string {
	if e.Opaque || e.Message == "" {
		return fmt.Sprintf("request failed with status %d", e.Status)
	}
	return e.Message
}

// NetworkError indicates the request could not complete.
type NetworkError struct {
	Method string
	Path   string
	Err    error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Method, e.Path, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// Status returns the HTTP status carried by err, or 0 when err is not a
// ServerError.
func Status(err error) int {
	var se *ServerError
	if errors.As(err, &se) {
		return se.Status
	}
	return 0
}

// IsStatus reports whether err is a ServerError with the given status.
func IsStatus(err error, status int) bool {
	return Status(err) == status
}

// IsUnauthorized reports whether the server rejected the session.
func IsUnauthorized(err error) bool {
	return IsStatus(err, http.StatusUnauthorized)
}

// IsNetwork reports whether err is a transport-level failure.
func IsNetwork(err error) bool {
	var ne *NetworkError
	return errors.As(err, &ne)
}

// Message returns the text shown to the user for err.
func Message(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, ErrAuthMissing) {
		return "Usuário não autenticado. Faça login novamente."
	}
	var se *ServerError
	if errors.As(err, &se) {
		if se.Opaque || se.Message == "" {
			return fmt.Sprintf("Falha na requisição (Status: %d).", se.Status)
		}
		return se.Message
	}
	if IsNetwork(err) {
		return "Não foi possível conectar ao servidor. Verifique sua conexão."
	}
	return err.Error()
}
