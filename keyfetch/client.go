// Package keyfetch implements the HTTP client for the key-issuing
// server: JWK set retrieval plus the legacy single-certificate
// endpoints for token verification and signing keys.
package keyfetch

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwk"

	"github.com/lightmesh/jwtverify/verifier"
)

// Default endpoint paths, relative to the server URL.
const (
	DefaultTokenKeyPath = "/oauth2/key"
	DefaultSignKeyPath  = "/oauth2/sign/key"
)

const defaultTimeout = 30 * time.Second

// Response bodies larger than this are rejected; key sets and
// certificates are small.
const maxResponseBytes = 1 * 1024 * 1024

// Client fetches key material from a key-issuing server. It implements
// verifier.KeyFetcher. The client never retries; a failed fetch is
// fatal to the verification attempt that triggered it.
type Client struct {
	serverURL    *url.URL
	httpClient   *http.Client
	tokenKeyPath string
	signKeyPath  string
}

// Option is how options for the Client are set up.
type Option func(*Client) error

// WithHTTPClient replaces the default HTTP client. Timeout behavior
// belongs to this transport; the verifier imposes none of its own.
func WithHTTPClient(c *http.Client) Option {
	return func(k *Client) error {
		if c == nil {
			return errors.New("http client cannot be nil")
		}
		k.httpClient = c
		return nil
	}
}

// WithInsecureSkipVerify disables TLS certificate and hostname
// verification for the outbound connection. For test and development
// servers only.
func WithInsecureSkipVerify(skip bool) Option {
	return func(k *Client) error {
		if !skip {
			return nil
		}
		k.httpClient.Transport = &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		}
		return nil
	}
}

// WithTokenKeyPath overrides the token-verification key endpoint path.
func WithTokenKeyPath(p string) Option {
	return func(k *Client) error {
		k.tokenKeyPath = p
		return nil
	}
}

// WithSignKeyPath overrides the signing key endpoint path.
func WithSignKeyPath(p string) Option {
	return func(k *Client) error {
		k.signKeyPath = p
		return nil
	}
}

// New builds a Client against the given key server base URL.
func New(serverURL string, opts ...Option) (*Client, error) {
	if serverURL == "" {
		return nil, errors.New("key server URL is required")
	}
	u, err := url.Parse(serverURL)
	if err != nil {
		return nil, fmt.Errorf("invalid key server URL: %w", err)
	}

	c := &Client{
		serverURL:    u,
		httpClient:   &http.Client{Timeout: defaultTimeout},
		tokenKeyPath: DefaultTokenKeyPath,
		signKeyPath:  DefaultSignKeyPath,
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// FetchKeySet retrieves the server's JWK set. The request is
// kid-agnostic: the token key endpoint without a kid segment returns
// every active key.
func (c *Client) FetchKeySet(ctx context.Context) (jwk.Set, error) {
	body, err := c.get(ctx, c.endpoint(c.tokenKeyPath, ""))
	if err != nil {
		return nil, &verifier.KeyFetchError{Op: "key set", Cause: err}
	}
	set, err := jwk.Parse(body)
	if err != nil {
		return nil, &verifier.KeyFetchError{Op: "key set", Cause: fmt.Errorf("could not parse JWK set: %w", err)}
	}
	return set, nil
}

// FetchCertificateForToken retrieves the raw certificate for a kid from
// the token-verification endpoint.
func (c *Client) FetchCertificateForToken(ctx context.Context, kid string) (*x509.Certificate, error) {
	return c.fetchCertificate(ctx, "token certificate", c.endpoint(c.tokenKeyPath, kid))
}

// FetchCertificateForSigning retrieves the raw certificate for a kid
// from the signing-key endpoint.
func (c *Client) FetchCertificateForSigning(ctx context.Context, kid string) (*x509.Certificate, error) {
	return c.fetchCertificate(ctx, "signing certificate", c.endpoint(c.signKeyPath, kid))
}

func (c *Client) fetchCertificate(ctx context.Context, op, endpoint string) (*x509.Certificate, error) {
	body, err := c.get(ctx, endpoint)
	if err != nil {
		return nil, &verifier.KeyFetchError{Op: op, Cause: err}
	}
	cert, err := decodeCertificate(body)
	if err != nil {
		return nil, &verifier.KeyFetchError{Op: op, Cause: err}
	}
	return cert, nil
}

func (c *Client) endpoint(basePath, kid string) string {
	u := *c.serverURL
	u.Path = path.Join(u.Path, basePath, kid)
	return u.String()
}

func (c *Client) get(ctx context.Context, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("could not build request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("key server returned status %d for %s", resp.StatusCode, endpoint)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("could not read response body: %w", err)
	}
	return body, nil
}

// decodeCertificate parses a PEM or bare DER X.509 certificate.
func decodeCertificate(raw []byte) (*x509.Certificate, error) {
	der := raw
	if block, _ := pem.Decode(raw); block != nil {
		der = block.Bytes
	}
	cert, err := x509.ParseCertificate(der)
	if err != nil {
		return nil, fmt.Errorf("could not decode certificate: %w", err)
	}
	return cert, nil
}
