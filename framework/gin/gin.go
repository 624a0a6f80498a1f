// Package jwtgin adapts the jwtverify middleware for gin-gonic.
package jwtgin

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lightmesh/jwtverify"
	"github.com/lightmesh/jwtverify/verifier"
)

// DefaultClaimsKey is the gin context key under which verified claims
// are stored.
const DefaultClaimsKey = "jwt"

var (
	ErrMissingClaims = errors.New("no JWT claims found in context")
	ErrInvalidClaims = errors.New("invalid JWT claims type")
)

// Option configures the gin middleware.
type Option func(*middlewareConfig)

type middlewareConfig struct {
	errorHandler   func(*gin.Context, error)
	contextKey     string
	tokenExtractor jwtverify.TokenExtractor
}

// WithErrorHandler replaces the default 401-JSON error handler.
func WithErrorHandler(h func(*gin.Context, error)) Option {
	return func(c *middlewareConfig) {
		c.errorHandler = h
	}
}

// WithContextKey changes the gin context key the claims are stored
// under.
func WithContextKey(key string) Option {
	return func(c *middlewareConfig) {
		c.contextKey = key
	}
}

// WithTokenExtractor replaces the default Authorization-header
// extractor.
func WithTokenExtractor(e jwtverify.TokenExtractor) Option {
	return func(c *middlewareConfig) {
		c.tokenExtractor = e
	}
}

// New creates a gin middleware that verifies the request JWT and stores
// the claims in the gin context. The verifyToken implementation must be
// safe for concurrent use.
func New(verifyToken jwtverify.VerifyToken, opts ...Option) gin.HandlerFunc {
	config := &middlewareConfig{
		errorHandler: defaultErrorHandler,
		contextKey:   DefaultClaimsKey,
	}
	for _, opt := range opts {
		opt(config)
	}

	return func(c *gin.Context) {
		extract := config.tokenExtractor
		if extract == nil {
			extract = jwtverify.AuthHeaderTokenExtractor
		}

		token, err := extract(c.Request)
		if err != nil {
			config.errorHandler(c, err)
			c.Abort()
			return
		}
		if token == "" {
			config.errorHandler(c, jwtverify.ErrJWTMissing)
			c.Abort()
			return
		}

		claims, err := verifyToken(c.Request.Context(), token)
		if err != nil {
			config.errorHandler(c, err)
			c.Abort()
			return
		}

		c.Set(config.contextKey, claims)
		c.Next()
	}
}

// GetClaims retrieves the verified claims stored by the middleware.
func GetClaims(c *gin.Context, contextKey string) (verifier.Claims, error) {
	if contextKey == "" {
		contextKey = DefaultClaimsKey
	}
	raw, exists := c.Get(contextKey)
	if !exists {
		return verifier.Claims{}, ErrMissingClaims
	}
	claims, ok := raw.(verifier.Claims)
	if !ok {
		return verifier.Claims{}, ErrInvalidClaims
	}
	return claims, nil
}

func defaultErrorHandler(c *gin.Context, err error) {
	status := http.StatusUnauthorized
	if errors.Is(err, jwtverify.ErrJWTMissing) {
		status = http.StatusBadRequest
	}
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}
