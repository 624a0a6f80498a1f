package verifier

import (
	"errors"
	"fmt"
)

var (
	// ErrTokenExpired is returned when the token's expiration time is in
	// the past beyond the allowed clock skew.
	ErrTokenExpired = errors.New("token expired")

	// ErrTokenInvalid is returned when the token fails structural parsing,
	// carries a malformed claim, or fails signature/claim verification.
	// It is typically wrapped by *InvalidTokenError.
	ErrTokenInvalid = errors.New("token invalid")

	// ErrKeyResolution is returned when no usable certificate or JWK could
	// be obtained for a kid after exhausting local and remote sources.
	ErrKeyResolution = errors.New("no verification key")

	// ErrKeyFetch is returned when fetching key material from the remote
	// key server fails at the transport or decode level.
	ErrKeyFetch = errors.New("key fetch failed")
)

// Machine-readable sub-codes carried by InvalidTokenError.
const (
	CodeMalformedToken  = "malformed_token"
	CodeMalformedExpiry = "malformed_expiry"
	CodeVerifyFailed    = "verify_failed"
)

// InvalidTokenError wraps a token validation failure with a
// machine-readable code so callers can branch without matching on
// message text. It supports equality to ErrTokenInvalid via errors.Is.
type InvalidTokenError struct {
	// Code is one of the Code* constants.
	Code string

	// Cause is the underlying parse or verification error.
	Cause error
}

func (e *InvalidTokenError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s (%s): %s", ErrTokenInvalid, e.Code, e.Cause)
	}
	return fmt.Sprintf("%s (%s)", ErrTokenInvalid, e.Code)
}

// Is allows the error to support equality to ErrTokenInvalid.
func (e *InvalidTokenError) Is(target error) bool {
	return target == ErrTokenInvalid
}

// Unwrap returns the underlying cause.
func (e *InvalidTokenError) Unwrap() error {
	return e.Cause
}

// KeyResolutionError reports that resolution exhausted every tier for a
// kid. It supports equality to ErrKeyResolution via errors.Is.
type KeyResolutionError struct {
	KID   string
	Cause error
}

func (e *KeyResolutionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s for kid %q: %s", ErrKeyResolution, e.KID, e.Cause)
	}
	return fmt.Sprintf("%s for kid %q", ErrKeyResolution, e.KID)
}

func (e *KeyResolutionError) Is(target error) bool {
	return target == ErrKeyResolution
}

func (e *KeyResolutionError) Unwrap() error {
	return e.Cause
}

// KeyFetchError reports a remote key fetch failure. Op names the fetch
// operation ("key set", "token certificate", "signing certificate").
// It supports equality to ErrKeyFetch via errors.Is. Fetch failures are
// fatal to the single verification attempt; retry policy belongs to the
// caller.
type KeyFetchError struct {
	Op    string
	Cause error
}

func (e *KeyFetchError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %s", ErrKeyFetch, e.Op, e.Cause)
	}
	return fmt.Sprintf("%s: %s", ErrKeyFetch, e.Op)
}

func (e *KeyFetchError) Is(target error) bool {
	return target == ErrKeyFetch
}

func (e *KeyFetchError) Unwrap() error {
	return e.Cause
}
