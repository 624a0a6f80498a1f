package jwtverify

import (
	"errors"
	"net/http"

	"github.com/lightmesh/jwtverify/verifier"
)

// ErrJWTMissing is returned when no JWT could be extracted from the
// request.
var ErrJWTMissing = errors.New("jwt missing")

// ErrorHandler is a handler which is called when an error occurs in the
// Middleware. Among some general errors, this handler also determines
// the response of the Middleware when a token is not found, invalid, or
// expired. The err can be checked against ErrJWTMissing,
// verifier.ErrTokenExpired, verifier.ErrTokenInvalid,
// verifier.ErrKeyResolution, and verifier.ErrKeyFetch for specific
// cases. If you implement your own ErrorHandler you MUST take these
// error kinds into consideration or the Middleware may not function as
// intended.
type ErrorHandler func(w http.ResponseWriter, r *http.Request, err error)

// DefaultErrorHandler is the default error handler implementation for
// the Middleware. If an error handler is not provided via the
// WithErrorHandler option this will be used.
func DefaultErrorHandler(w http.ResponseWriter, r *http.Request, err error) {
	w.Header().Set("Content-Type", "application/json")

	switch {
	case errors.Is(err, ErrJWTMissing):
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"message":"JWT is missing."}`))
	case errors.Is(err, verifier.ErrTokenExpired):
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"JWT is expired."}`))
	case errors.Is(err, verifier.ErrTokenInvalid):
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"JWT is invalid."}`))
	default:
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"message":"Something went wrong while checking the JWT."}`))
	}
}
