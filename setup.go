package jwtverify

import (
	"context"
	"time"

	"github.com/lightmesh/jwtverify/config"
	"github.com/lightmesh/jwtverify/keyfetch"
	"github.com/lightmesh/jwtverify/verifier"
)

// NewVerifier builds a configured Verifier and its key-server client
// from a security configuration. Extra options override what the
// configuration decided.
func NewVerifier(ctx context.Context, cfg config.Config, opts ...verifier.Option) (*verifier.Verifier, error) {
	var fetcher verifier.KeyFetcher
	if cfg.KeyServer.ServerURL != "" {
		clientOpts := []keyfetch.Option{
			keyfetch.WithInsecureSkipVerify(!cfg.KeyServer.VerifyHostname),
		}
		if cfg.KeyServer.TokenKeyPath != "" {
			clientOpts = append(clientOpts, keyfetch.WithTokenKeyPath(cfg.KeyServer.TokenKeyPath))
		}
		if cfg.KeyServer.SignKeyPath != "" {
			clientOpts = append(clientOpts, keyfetch.WithSignKeyPath(cfg.KeyServer.SignKeyPath))
		}
		client, err := keyfetch.New(cfg.KeyServer.ServerURL, clientOpts...)
		if err != nil {
			return nil, err
		}
		fetcher = client
	}

	verifierOpts := []verifier.Option{
		verifier.WithClockSkew(time.Duration(cfg.JWT.ClockSkewSeconds) * time.Second),
		verifier.WithCacheEnabled(cfg.EnableJWTCache),
		verifier.WithStrategy(verifier.Strategy(cfg.JWT.KeyResolver)),
		verifier.WithCertificates(cfg.JWT.Certificates),
		verifier.WithBootstrapFromKeyService(cfg.BootstrapFromKeyService),
	}
	verifierOpts = append(verifierOpts, opts...)

	return verifier.New(ctx, fetcher, verifierOpts...)
}
