// Package verifier implements JWT verification with tiered key
// resolution and claims caching.
//
// Verification is two-phase: an unsigned structural parse extracts the
// kid and claims, expiry is enforced against the configured clock skew,
// and only then is a verification key resolved and the signature
// checked. Verified claims are cached by raw token string for a fixed
// window so repeat requests skip signature verification.
//
// Keys resolve through three tiers: a local certificate store loaded at
// construction, a remote single-certificate fetch, and a remote JWK
// set, in that fixed order.
package verifier
