// Package jwtest provides a mock key-issuing server and token signer
// for testing applications that use jwtverify. The issuer serves the
// same endpoints a real key server would (a JWK set plus the legacy
// per-kid certificate endpoints) and signs tokens that verify against
// them, so integration-style tests need no real auth server.
package jwtest

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/json"
	"encoding/pem"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwk"
)

// Issuer is a mock key server backed by a generated RSA key and a
// self-signed certificate. Call Close when done.
type Issuer struct {
	server *httptest.Server
	key    *rsa.PrivateKey
	cert   *x509.Certificate
	pemed  []byte
	kid    string

	mu           sync.Mutex
	requests     map[string]int
	certsEnabled bool
	keySetBody   []byte
}

// NewIssuer creates a mock key server with a fresh 2048-bit RSA key
// under the given kid.
func NewIssuer(kid string) (*Issuer, error) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		return nil, err
	}

	template := &x509.Certificate{
		SerialNumber:          big.NewInt(time.Now().UnixNano()),
		Subject:               pkix.Name{CommonName: "jwtest issuer"},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().Add(24 * time.Hour),
		KeyUsage:              x509.KeyUsageDigitalSignature | x509.KeyUsageCertSign,
		BasicConstraintsValid: true,
	}
	der, err := x509.CreateCertificate(rand.Reader, template, template, &key.PublicKey, key)
	if err != nil {
		return nil, err
	}
	cert, err := x509.ParseCertificate(der)
	if err != nil {
		return nil, err
	}

	keySetBody, err := marshalKeySet(&key.PublicKey, kid)
	if err != nil {
		return nil, err
	}

	iss := &Issuer{
		key:          key,
		cert:         cert,
		pemed:        pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der}),
		kid:          kid,
		requests:     make(map[string]int),
		certsEnabled: true,
		keySetBody:   keySetBody,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/oauth2/key", iss.handleKeySet)
	mux.HandleFunc("/oauth2/key/", iss.handleCertificate)
	mux.HandleFunc("/oauth2/sign/key/", iss.handleCertificate)
	iss.server = httptest.NewServer(mux)
	return iss, nil
}

// URL returns the base URL of the mock key server.
func (i *Issuer) URL() string {
	return i.server.URL
}

// KID returns the key id the issuer signs with.
func (i *Issuer) KID() string {
	return i.kid
}

// Certificate returns the issuer's self-signed certificate.
func (i *Issuer) Certificate() *x509.Certificate {
	return i.cert
}

// CertificatePEM returns the PEM encoding of the certificate, suitable
// for writing to a file consumed by the certificate store.
func (i *Issuer) CertificatePEM() []byte {
	return i.pemed
}

// Close shuts down the mock server.
func (i *Issuer) Close() {
	i.server.Close()
}

// SignToken creates a signed RS256 JWT carrying the issuer's kid in the
// header.
func (i *Issuer) SignToken(claims jwt.MapClaims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = i.kid
	return token.SignedString(i.key)
}

// DisableCertEndpoints makes the per-kid certificate endpoints return
// 404, forcing clients onto the JWK-set tier.
func (i *Issuer) DisableCertEndpoints() {
	i.mu.Lock()
	i.certsEnabled = false
	i.mu.Unlock()
}

// Requests returns how many times each endpoint path was hit.
func (i *Issuer) Requests() map[string]int {
	i.mu.Lock()
	defer i.mu.Unlock()
	out := make(map[string]int, len(i.requests))
	for k, v := range i.requests {
		out[k] = v
	}
	return out
}

func (i *Issuer) count(path string) {
	i.mu.Lock()
	i.requests[path]++
	i.mu.Unlock()
}

func (i *Issuer) handleKeySet(w http.ResponseWriter, r *http.Request) {
	i.count(r.URL.Path)
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(i.keySetBody)
}

func (i *Issuer) handleCertificate(w http.ResponseWriter, r *http.Request) {
	i.count(r.URL.Path)
	i.mu.Lock()
	enabled := i.certsEnabled
	i.mu.Unlock()

	kid := r.URL.Path[strings.LastIndex(r.URL.Path, "/")+1:]
	if !enabled || kid != i.kid {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "application/x-pem-file")
	_, _ = w.Write(i.pemed)
}

func marshalKeySet(pub *rsa.PublicKey, kid string) ([]byte, error) {
	key, err := jwk.FromRaw(pub)
	if err != nil {
		return nil, err
	}
	if err := key.Set(jwk.KeyIDKey, kid); err != nil {
		return nil, err
	}
	if err := key.Set(jwk.AlgorithmKey, jwa.RS256); err != nil {
		return nil, err
	}
	set := jwk.NewSet()
	if err := set.AddKey(key); err != nil {
		return nil, err
	}
	return json.Marshal(set)
}
