package jwtverify

import (
	"context"
	"net/http"

	"github.com/lightmesh/jwtverify/verifier"
)

// VerifyToken verifies a raw token and returns its claims. A
// *verifier.Verifier's Verify method, with the flag arguments bound,
// satisfies this; WrapVerifier does that binding.
type VerifyToken func(ctx context.Context, token string) (verifier.Claims, error)

// WrapVerifier adapts a Verifier into the VerifyToken shape used by the
// Middleware, verifying tokens with expiry enforced.
func WrapVerifier(v *verifier.Verifier) VerifyToken {
	return func(ctx context.Context, token string) (verifier.Claims, error) {
		return v.Verify(ctx, token, false, verifier.UsageToken)
	}
}

// ContextKey is the key used in the request context where the claims of
// a validated JWT are stored.
type ContextKey struct{}

// Middleware checks the JWT on incoming requests before handing the
// request to the wrapped handler.
type Middleware struct {
	verifyToken         VerifyToken
	errorHandler        ErrorHandler
	tokenExtractor      TokenExtractor
	credentialsOptional bool
	validateOnOptions   bool
}

// Option is how options for the Middleware are set up.
type Option func(*Middleware)

// WithErrorHandler sets the handler called when the middleware
// encounters an error. The default is DefaultErrorHandler.
func WithErrorHandler(h ErrorHandler) Option {
	return func(m *Middleware) {
		m.errorHandler = h
	}
}

// WithTokenExtractor sets the function responsible for extracting the
// JWT from a request. The default is AuthHeaderTokenExtractor.
func WithTokenExtractor(e TokenExtractor) Option {
	return func(m *Middleware) {
		m.tokenExtractor = e
	}
}

// WithCredentialsOptional lets requests without a token through to the
// wrapped handler instead of failing with ErrJWTMissing.
func WithCredentialsOptional(value bool) Option {
	return func(m *Middleware) {
		m.credentialsOptional = value
	}
}

// WithValidateOnOptions controls whether OPTIONS requests have their
// token checked. Enabled by default.
func WithValidateOnOptions(value bool) Option {
	return func(m *Middleware) {
		m.validateOnOptions = value
	}
}

// New constructs a new Middleware around the supplied token verifier.
func New(verifyToken VerifyToken, opts ...Option) *Middleware {
	m := &Middleware{
		verifyToken:       verifyToken,
		errorHandler:      DefaultErrorHandler,
		tokenExtractor:    AuthHeaderTokenExtractor,
		validateOnOptions: true,
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// CheckJWT is an http.Handler middleware that verifies the request's
// JWT and, on success, stores the claims in the request context under
// ContextKey before calling next.
func (m *Middleware) CheckJWT(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !m.validateOnOptions && r.Method == http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}

		token, err := m.tokenExtractor(r)
		if err != nil {
			m.errorHandler(w, r, err)
			return
		}

		if token == "" {
			if m.credentialsOptional {
				next.ServeHTTP(w, r)
				return
			}
			m.errorHandler(w, r, ErrJWTMissing)
			return
		}

		claims, err := m.verifyToken(r.Context(), token)
		if err != nil {
			m.errorHandler(w, r, err)
			return
		}

		r = r.Clone(context.WithValue(r.Context(), ContextKey{}, claims))
		next.ServeHTTP(w, r)
	})
}

// ClaimsFromContext returns the verified claims stored by CheckJWT.
func ClaimsFromContext(ctx context.Context) (verifier.Claims, bool) {
	claims, ok := ctx.Value(ContextKey{}).(verifier.Claims)
	return claims, ok
}
