package jwtverify

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetJWTFromAuthorizationHeader(t *testing.T) {
	testCases := []struct {
		name          string
		authorization string
		want          string
	}{
		{
			name:          "bearer token",
			authorization: "Bearer abc.def.ghi",
			want:          "abc.def.ghi",
		},
		{
			name:          "scheme is case-insensitive",
			authorization: "bearer abc",
			want:          "abc",
		},
		{
			name:          "uppercase scheme",
			authorization: "BEARER abc",
			want:          "abc",
		},
		{
			name:          "wrong scheme",
			authorization: "Basic abc",
			want:          "",
		},
		{
			name:          "scheme without token",
			authorization: "Bearer",
			want:          "",
		},
		{
			name:          "too many parts",
			authorization: "Bearer abc def",
			want:          "",
		},
		{
			name:          "empty header",
			authorization: "",
			want:          "",
		},
		{
			name:          "extra whitespace between parts",
			authorization: "Bearer   abc.def.ghi",
			want:          "abc.def.ghi",
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			assert.Equal(t, testCase.want, GetJWTFromAuthorizationHeader(testCase.authorization))
		})
	}
}

func TestAuthHeaderTokenExtractor(t *testing.T) {
	r, err := http.NewRequest(http.MethodGet, "https://example.com", nil)
	require.NoError(t, err)
	r.Header.Set("Authorization", "Bearer abc.def.ghi")

	token, err := AuthHeaderTokenExtractor(r)
	require.NoError(t, err)
	assert.Equal(t, "abc.def.ghi", token)
}

func TestParameterTokenExtractor(t *testing.T) {
	r, err := http.NewRequest(http.MethodGet, "https://example.com?access_token=abc", nil)
	require.NoError(t, err)

	token, err := ParameterTokenExtractor("access_token")(r)
	require.NoError(t, err)
	assert.Equal(t, "abc", token)
}
