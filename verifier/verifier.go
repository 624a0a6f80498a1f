package verifier

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/lestrrat-go/jwx/v2/jws"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

// The verifying parse must never re-fail on expiry: expiry has already
// been checked, authoritatively and with the configured skew, before
// the signature pass. Ten years of acceptable skew disables the check
// without forking the parse configuration.
const disabledExpirySkew = 315360000 * time.Second

const defaultClockSkew = time.Minute

// Verifier validates JWT structure and signatures, resolving
// verification keys from a local certificate store, a cached JWK set,
// or a remote key server, and caching verified claims.
//
// A Verifier is safe for concurrent use. Each Verifier owns its key and
// claims caches; two Verifiers with different configurations share
// nothing.
type Verifier struct {
	clockSkew               time.Duration
	cacheEnabled            bool
	strategy                Strategy
	bootstrapFromKeyService bool
	certPaths               map[string]string
	certLoader              CertLoader

	fetcher KeyFetcher
	certs   *certStore
	cache   *claimsCache

	jwksMu sync.RWMutex
	jwks   map[string]jwk.Set

	logger  Logger
	metrics Metrics
}

// New builds a Verifier. Certificate files are read (or, for the JWKS
// strategy, the initial key set fetched) during construction; ctx
// bounds that startup I/O. A nil fetcher leaves the verifier restricted
// to locally configured certificates.
func New(ctx context.Context, fetcher KeyFetcher, opts ...Option) (*Verifier, error) {
	v := &Verifier{
		clockSkew:    defaultClockSkew,
		cacheEnabled: true,
		strategy:     StrategyCertificate,
		certLoader:   defaultCertLoader,
		fetcher:      fetcher,
		certs:        newCertStore(),
		jwks:         make(map[string]jwk.Set),
		logger:       &DefaultLogger{},
		metrics:      &NoopMetrics{},
	}

	for _, opt := range opts {
		if err := opt(v); err != nil {
			return nil, err
		}
	}

	if v.cacheEnabled {
		v.cache = newClaimsCache(claimsCacheTTL)
	}

	switch v.strategy {
	case StrategyJWKS:
		if err := v.bootstrapJWKS(ctx); err != nil {
			return nil, err
		}
	case StrategyCertificate:
		// Local certificates are loaded only when the key service is not
		// the bootstrap source.
		if !v.bootstrapFromKeyService {
			v.certs.load(v.certPaths, v.certLoader, v.logger)
		}
	}

	return v, nil
}

// bootstrapJWKS eagerly fetches the key server's JWK set. The bootstrap
// fetch has no requested kid, so the set is cached under the first
// key's own kid.
func (v *Verifier) bootstrapJWKS(ctx context.Context) error {
	if v.fetcher == nil {
		return errors.New("JWKS strategy requires a key fetcher")
	}
	set, err := v.fetcher.FetchKeySet(ctx)
	if err != nil {
		return err
	}
	if set == nil || set.Len() == 0 {
		return &KeyResolutionError{}
	}
	first, _ := set.Key(0)
	v.jwksMu.Lock()
	v.jwks[first.KeyID()] = set
	v.jwksMu.Unlock()
	v.logger.Debugf("cached bootstrap JWK set under kid %q", first.KeyID())
	return nil
}

// Verify validates the raw token and returns its claims.
//
// When ignoreExpiry is false the expiration claim is enforced with the
// configured clock skew; a cached token past expiry fails with
// ErrTokenExpired without re-verifying the signature, and a fresh token
// past expiry fails before any key is fetched. usage selects which
// remote endpoint serves a certificate miss.
func (v *Verifier) Verify(ctx context.Context, token string, ignoreExpiry bool, usage KeyUsage) (Claims, error) {
	start := time.Now()
	defer func() {
		v.metrics.ObserveHistogram(MetricVerifyDuration, time.Since(start).Seconds(), nil)
	}()

	if v.cacheEnabled {
		if claims, ok := v.cache.get(token); ok {
			v.metrics.IncCounter(MetricCacheHit, nil)
			if !ignoreExpiry {
				exp, err := claims.Expiration()
				switch {
				case err != nil:
					// Cached claims were structurally validated before
					// caching, so a malformed expiry here is logged and
					// tolerated rather than failing the request.
					v.logger.Errorf("computing expiration of cached claims: %v", err)
				case v.expired(exp):
					v.logger.Infof("cached token is expired")
					v.metrics.IncCounter(MetricVerifyFailure, map[string]string{"reason": "expired"})
					return Claims{}, ErrTokenExpired
				}
			}
			// Signature was verified before the entry was cached.
			return claims, nil
		}
		v.metrics.IncCounter(MetricCacheMiss, nil)
	}

	// Lowest-trust structural parse: no signature check, no claim
	// validation. The verification key depends on the kid, which is only
	// available from the token header.
	unverified, err := jwt.ParseInsecure([]byte(token))
	if err != nil {
		v.metrics.IncCounter(MetricVerifyFailure, map[string]string{"reason": "malformed"})
		return Claims{}, &InvalidTokenError{Code: CodeMalformedToken, Cause: err}
	}
	kid, alg, err := tokenHeader(token)
	if err != nil {
		v.metrics.IncCounter(MetricVerifyFailure, map[string]string{"reason": "malformed"})
		return Claims{}, &InvalidTokenError{Code: CodeMalformedToken, Cause: err}
	}

	// Expiry is enforced before the signature pass so that expired or
	// structurally broken tokens are rejected before spending a remote
	// key fetch.
	if !ignoreExpiry {
		values, err := unverified.AsMap(ctx)
		if err != nil {
			return Claims{}, &InvalidTokenError{Code: CodeMalformedToken, Cause: err}
		}
		exp, err := newClaims(values).Expiration()
		if err != nil {
			v.metrics.IncCounter(MetricVerifyFailure, map[string]string{"reason": "malformed_expiry"})
			return Claims{}, &InvalidTokenError{Code: CodeMalformedExpiry, Cause: err}
		}
		if v.expired(exp) {
			v.logger.Infof("token is expired")
			v.metrics.IncCounter(MetricVerifyFailure, map[string]string{"reason": "expired"})
			return Claims{}, ErrTokenExpired
		}
	}

	source, err := v.ResolveKey(ctx, kid, usage)
	if err != nil {
		v.metrics.IncCounter(MetricVerifyFailure, map[string]string{"reason": "key_resolution"})
		return Claims{}, err
	}

	parseOpts := append([]jwt.ParseOption{
		jwt.WithContext(ctx),
		jwt.WithValidate(true),
		jwt.WithRequiredClaim("exp"),
		jwt.WithAcceptableSkew(disabledExpirySkew),
	}, source.verifyOptions(alg)...)

	verified, err := jwt.Parse([]byte(token), parseOpts...)
	if err != nil {
		v.metrics.IncCounter(MetricVerifyFailure, map[string]string{"reason": "verify"})
		return Claims{}, &InvalidTokenError{Code: CodeVerifyFailed, Cause: err}
	}

	values, err := verified.AsMap(ctx)
	if err != nil {
		return Claims{}, &InvalidTokenError{Code: CodeVerifyFailed, Cause: err}
	}
	claims := newClaims(values)

	if v.cacheEnabled {
		v.cache.put(token, claims)
	}
	return claims, nil
}

// Fingerprints returns the fingerprints of the locally configured
// certificates, one per successfully loaded certificate, in load order.
// The list is computed at construction and stable across reads.
func (v *Verifier) Fingerprints() []string {
	return v.certs.fingerprintList()
}

// expired reports whether exp is in the past beyond the allowed skew.
func (v *Verifier) expired(exp time.Time) bool {
	return time.Now().Unix()-int64(v.clockSkew/time.Second) >= exp.Unix()
}

// tokenHeader extracts the kid and signature algorithm from the token's
// protected JWS header without verifying anything.
func tokenHeader(token string) (string, jwa.SignatureAlgorithm, error) {
	msg, err := jws.Parse([]byte(token))
	if err != nil {
		return "", "", err
	}
	sigs := msg.Signatures()
	if len(sigs) == 0 {
		return "", "", errors.New("token has no signature")
	}
	hdr := sigs[0].ProtectedHeaders()
	return hdr.KeyID(), hdr.Algorithm(), nil
}
