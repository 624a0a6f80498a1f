package jwtgin

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lightmesh/jwtverify"
	"github.com/lightmesh/jwtverify/verifier"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func stubVerify(subject string, err error) jwtverify.VerifyToken {
	return func(context.Context, string) (verifier.Claims, error) {
		if err != nil {
			return verifier.Claims{}, err
		}
		return verifier.NewClaims(map[string]interface{}{"sub": subject}), nil
	}
}

func newRouter(verify jwtverify.VerifyToken, opts ...Option) *gin.Engine {
	router := gin.New()
	router.Use(New(verify, opts...))
	router.GET("/", func(c *gin.Context) {
		claims, err := GetClaims(c, "")
		if err != nil {
			c.String(http.StatusInternalServerError, err.Error())
			return
		}
		c.String(http.StatusOK, claims.Subject())
	})
	return router
}

func doRequest(t *testing.T, router *gin.Engine, authorization string) *httptest.ResponseRecorder {
	t.Helper()
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	if authorization != "" {
		r.Header.Set("Authorization", authorization)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, r)
	return w
}

func TestMiddleware(t *testing.T) {
	t.Run("valid token stores claims in the gin context", func(t *testing.T) {
		router := newRouter(stubVerify("service-a", nil))

		w := doRequest(t, router, "Bearer abc.def.ghi")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "service-a", w.Body.String())
	})

	t.Run("missing token", func(t *testing.T) {
		router := newRouter(stubVerify("service-a", nil))

		w := doRequest(t, router, "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("verification failure", func(t *testing.T) {
		router := newRouter(stubVerify("", verifier.ErrTokenExpired))

		w := doRequest(t, router, "Bearer abc.def.ghi")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("custom error handler", func(t *testing.T) {
		handler := func(c *gin.Context, err error) {
			c.AbortWithStatusJSON(http.StatusTeapot, gin.H{"error": err.Error()})
		}
		router := newRouter(stubVerify("", verifier.ErrTokenExpired), WithErrorHandler(handler))

		w := doRequest(t, router, "Bearer abc.def.ghi")
		assert.Equal(t, http.StatusTeapot, w.Code)
	})

	t.Run("custom context key", func(t *testing.T) {
		router := gin.New()
		router.Use(New(stubVerify("service-a", nil), WithContextKey("claims")))
		router.GET("/", func(c *gin.Context) {
			claims, err := GetClaims(c, "claims")
			require.NoError(t, err)
			c.String(http.StatusOK, claims.Subject())
		})

		w := doRequest(t, router, "Bearer abc.def.ghi")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "service-a", w.Body.String())
	})

	t.Run("custom token extractor", func(t *testing.T) {
		router := newRouter(stubVerify("service-a", nil),
			WithTokenExtractor(jwtverify.ParameterTokenExtractor("access_token")))

		r := httptest.NewRequest(http.MethodGet, "/?access_token=abc", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, r)
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestGetClaims(t *testing.T) {
	t.Run("missing claims", func(t *testing.T) {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		_, err := GetClaims(c, "")
		assert.ErrorIs(t, err, ErrMissingClaims)
	})

	t.Run("wrong claims type", func(t *testing.T) {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Set(DefaultClaimsKey, "not claims")
		_, err := GetClaims(c, "")
		assert.ErrorIs(t, err, ErrInvalidClaims)
	})
}
