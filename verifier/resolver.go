package verifier

import (
	"context"
	"crypto/x509"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/lestrrat-go/jwx/v2/jws"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

// KeyUsage selects which remote endpoint a certificate fetch targets.
type KeyUsage int

const (
	// UsageToken resolves a key for access-token verification.
	UsageToken KeyUsage = iota
	// UsageSigning resolves a key for signature verification of signed
	// payloads other than access tokens.
	UsageSigning
)

// KeyFetcher obtains key material from a remote key-issuing server. The
// keyfetch package provides the HTTP implementation. Implementations
// must not retry internally and should report failures as
// *KeyFetchError so callers can classify them.
type KeyFetcher interface {
	// FetchKeySet retrieves the server's full JWK set. It is
	// kid-agnostic; the server returns every active key.
	FetchKeySet(ctx context.Context) (jwk.Set, error)

	// FetchCertificateForToken retrieves the single raw certificate for
	// a kid from the token-verification endpoint (legacy path).
	FetchCertificateForToken(ctx context.Context, kid string) (*x509.Certificate, error)

	// FetchCertificateForSigning is FetchCertificateForToken against the
	// signing-key endpoint.
	FetchCertificateForSigning(ctx context.Context, kid string) (*x509.Certificate, error)
}

// KeySource is a verification key resolved for one token: either a
// single X.509 certificate or a JWK set. The set of implementations is
// closed.
type KeySource interface {
	// verifyOptions returns the parse options that bind this key source
	// to a verifying parse. alg is the signature algorithm announced in
	// the token header; the certificate variant needs it, the JWK-set
	// variant infers algorithms from the keys themselves.
	verifyOptions(alg jwa.SignatureAlgorithm) []jwt.ParseOption
}

// certKeySource verifies against a single certificate's public key.
// There is no thumbprint matching; a token that omits a thumbprint
// header is matched by kid alone, which is how the certificate was
// selected in the first place.
type certKeySource struct {
	cert *x509.Certificate
}

func (s certKeySource) verifyOptions(alg jwa.SignatureAlgorithm) []jwt.ParseOption {
	return []jwt.ParseOption{jwt.WithKey(alg, s.cert.PublicKey)}
}

// jwksKeySource verifies against a JWK set, matching by kid when the
// token carries one and trying every key otherwise.
type jwksKeySource struct {
	keys jwk.Set
}

func (s jwksKeySource) verifyOptions(jwa.SignatureAlgorithm) []jwt.ParseOption {
	return []jwt.ParseOption{
		jwt.WithKeySet(s.keys,
			jws.WithInferAlgorithmFromKey(true),
			jws.WithRequireKid(false),
		),
	}
}

// ResolveKey returns a verification key source for the kid, trying the
// certificate store, then a remote single-certificate fetch, then the
// JWK-set tier. Certificate resolution is always attempted before JWK
// resolution; the order is fixed.
//
// Concurrent misses for the same unseen kid may race and perform
// duplicate remote fetches. That is tolerated: inserts are idempotent
// overwrites and duplicate fetches converge to the same answer.
func (v *Verifier) ResolveKey(ctx context.Context, kid string, usage KeyUsage) (KeySource, error) {
	if cert, ok := v.certs.get(kid); ok {
		v.logger.Debugf("got certificate for kid %q from local store", kid)
		v.metrics.IncCounter(MetricKeyStoreHit, map[string]string{"tier": "certificate"})
		return certKeySource{cert: cert}, nil
	}

	if v.fetcher == nil {
		return nil, &KeyResolutionError{KID: kid}
	}

	cert, err := v.fetchCertificate(ctx, kid, usage)
	if err != nil {
		// The JWK tier is still worth trying; deployments that have
		// moved off the legacy certificate endpoint fail here routinely.
		v.logger.Warnf("certificate fetch for kid %q failed, falling back to JWK set: %v", kid, err)
	} else if cert != nil {
		v.certs.put(kid, cert)
		return certKeySource{cert: cert}, nil
	}

	return v.resolveJWKS(ctx, kid)
}

func (v *Verifier) fetchCertificate(ctx context.Context, kid string, usage KeyUsage) (*x509.Certificate, error) {
	v.metrics.IncCounter(MetricKeyFetch, map[string]string{"tier": "certificate"})
	if usage == UsageToken {
		return v.fetcher.FetchCertificateForToken(ctx, kid)
	}
	return v.fetcher.FetchCertificateForSigning(ctx, kid)
}

func (v *Verifier) resolveJWKS(ctx context.Context, kid string) (KeySource, error) {
	v.jwksMu.RLock()
	set, ok := v.jwks[kid]
	v.jwksMu.RUnlock()
	if ok {
		v.logger.Debugf("got JWK set for kid %q from local cache", kid)
		v.metrics.IncCounter(MetricKeyStoreHit, map[string]string{"tier": "jwks"})
		return jwksKeySource{keys: set}, nil
	}

	v.metrics.IncCounter(MetricKeyFetch, map[string]string{"tier": "jwks"})
	set, err := v.fetcher.FetchKeySet(ctx)
	if err != nil {
		return nil, err
	}
	if set == nil || set.Len() == 0 {
		return nil, &KeyResolutionError{KID: kid}
	}

	// Once populated for a kid the set is never re-fetched for it.
	v.jwksMu.Lock()
	v.jwks[kid] = set
	v.jwksMu.Unlock()
	v.logger.Infof("got JWK set for kid %q from key server", kid)

	return jwksKeySource{keys: set}, nil
}
