package verifier

import (
	"errors"
	"time"
)

// Strategy selects how verification keys are resolved at construction.
type Strategy string

const (
	// StrategyCertificate loads locally configured X.509 certificates at
	// construction and resolves lazily from the key server on miss.
	StrategyCertificate = Strategy("X509Certificate")

	// StrategyJWKS bootstraps a JWK set from the key server at
	// construction.
	StrategyJWKS = Strategy("JsonWebKeySet")
)

// Option is how options for the Verifier are set up. Options return
// errors to enable validation during construction.
type Option func(*Verifier) error

// WithClockSkew sets the tolerance subtracted from "now" when comparing
// against the expiration claim. If not set, the default is one minute.
func WithClockSkew(skew time.Duration) Option {
	return func(v *Verifier) error {
		if skew < 0 {
			return errors.New("clock skew cannot be negative")
		}
		v.clockSkew = skew
		return nil
	}
}

// WithCacheEnabled controls whether verified claims are cached by raw
// token string. Enabled by default.
func WithCacheEnabled(enabled bool) Option {
	return func(v *Verifier) error {
		v.cacheEnabled = enabled
		return nil
	}
}

// WithStrategy sets the key-resolution strategy. The default is
// StrategyCertificate.
func WithStrategy(s Strategy) Option {
	return func(v *Verifier) error {
		if s != StrategyCertificate && s != StrategyJWKS {
			return errors.New("unsupported key resolution strategy: " + string(s))
		}
		v.strategy = s
		return nil
	}
}

// WithCertificates sets the kid-to-certificate-identifier mapping read
// at construction when the certificate strategy is active.
func WithCertificates(paths map[string]string) Option {
	return func(v *Verifier) error {
		v.certPaths = paths
		return nil
	}
}

// WithCertLoader sets the collaborator that reads certificate bytes for
// an identifier. The default reads from the local filesystem.
func WithCertLoader(loader CertLoader) Option {
	return func(v *Verifier) error {
		if loader == nil {
			return errors.New("certificate loader cannot be nil")
		}
		v.certLoader = loader
		return nil
	}
}

// WithBootstrapFromKeyService skips local certificate loading entirely;
// every certificate is obtained lazily from the key server.
func WithBootstrapFromKeyService(enabled bool) Option {
	return func(v *Verifier) error {
		v.bootstrapFromKeyService = enabled
		return nil
	}
}

// WithLogger sets the logger for the documented soft-failure paths.
func WithLogger(logger Logger) Option {
	return func(v *Verifier) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		v.logger = logger
		return nil
	}
}

// WithMetrics sets the metrics sink. The default is NoopMetrics.
func WithMetrics(metrics Metrics) Option {
	return func(v *Verifier) error {
		if metrics == nil {
			return errors.New("metrics cannot be nil")
		}
		v.metrics = metrics
		return nil
	}
}
