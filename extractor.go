package jwtverify

import (
	"net/http"
	"strings"
)

const bearerScheme = "Bearer"

// GetJWTFromAuthorizationHeader extracts the bearer token from an
// Authorization header value. The value must split on whitespace into
// exactly two parts with the first matching "Bearer" case-insensitively;
// anything else yields the empty string. Pure and stateless.
func GetJWTFromAuthorizationHeader(authorization string) string {
	parts := strings.Fields(authorization)
	if len(parts) != 2 {
		return ""
	}
	if !strings.EqualFold(parts[0], bearerScheme) {
		return ""
	}
	return parts[1]
}

// TokenExtractor is a function that takes a request as input and
// returns either a token or an error. An error should only be returned
// if an attempt to specify a token was found, but the information was
// somehow incorrectly formed. In the case where a token is simply not
// present, this should not be treated as an error. An empty string
// should be returned in that case.
type TokenExtractor func(r *http.Request) (string, error)

// AuthHeaderTokenExtractor is a TokenExtractor that reads the bearer
// token from the Authorization header.
func AuthHeaderTokenExtractor(r *http.Request) (string, error) {
	return GetJWTFromAuthorizationHeader(r.Header.Get("Authorization")), nil
}

// ParameterTokenExtractor returns a TokenExtractor that extracts the
// token from the specified query string parameter.
func ParameterTokenExtractor(param string) TokenExtractor {
	return func(r *http.Request) (string, error) {
		return r.URL.Query().Get(param), nil
	}
}
