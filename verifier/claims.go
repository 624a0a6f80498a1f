package verifier

import (
	"errors"
	"fmt"
	"time"
)

// ErrMalformedClaim is returned when a claim is present with an
// unusable type, or when a required time claim is absent.
var ErrMalformedClaim = errors.New("malformed claim")

// Claims is the verified payload of a token: registered and custom
// claim names mapped to their values. A Claims value is produced only
// by a successful verification (or the unsigned pre-parse on the way to
// one) and is immutable after creation.
type Claims struct {
	values map[string]interface{}
}

func newClaims(values map[string]interface{}) Claims {
	return Claims{values: values}
}

// NewClaims builds a Claims value from a claim map. Verification
// produces claims internally; this constructor exists for adapters and
// for tests of code that consumes claims. The map is copied.
func NewClaims(values map[string]interface{}) Claims {
	copied := make(map[string]interface{}, len(values))
	for k, v := range values {
		copied[k] = v
	}
	return Claims{values: copied}
}

// Get returns the named claim value and whether it is present.
func (c Claims) Get(name string) (interface{}, bool) {
	v, ok := c.values[name]
	return v, ok
}

// Subject returns the sub claim, or the empty string if absent.
func (c Claims) Subject() string {
	if s, ok := c.values["sub"].(string); ok {
		return s
	}
	return ""
}

// Expiration returns the exp claim as a time. A missing exp or one of
// an unusable type yields an error wrapping ErrMalformedClaim.
func (c Claims) Expiration() (time.Time, error) {
	raw, ok := c.values["exp"]
	if !ok {
		return time.Time{}, fmt.Errorf("%w: missing exp", ErrMalformedClaim)
	}
	switch exp := raw.(type) {
	case time.Time:
		return exp, nil
	case float64:
		return time.Unix(int64(exp), 0), nil
	case int64:
		return time.Unix(exp, 0), nil
	case int:
		return time.Unix(int64(exp), 0), nil
	default:
		return time.Time{}, fmt.Errorf("%w: exp has type %T", ErrMalformedClaim, raw)
	}
}

// AsMap returns a copy of all claims.
func (c Claims) AsMap() map[string]interface{} {
	out := make(map[string]interface{}, len(c.values))
	for k, v := range c.values {
		out[k] = v
	}
	return out
}

// Len returns the number of claims.
func (c Claims) Len() int {
	return len(c.values)
}
