package verifier

import (
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"os"
	"sort"
	"sync"
)

// CertLoader returns the raw bytes of a certificate for the given
// identifier (typically a file path), or an error if it cannot be
// found. The default loader reads from the local filesystem.
type CertLoader func(name string) ([]byte, error)

func defaultCertLoader(name string) ([]byte, error) {
	return os.ReadFile(name)
}

// certStore is the in-memory kid-to-certificate mapping. It is loaded
// once at construction from configuration and populated lazily by the
// resolver after remote fetches. Entries never expire; a later lazy
// fetch for the same kid overwrites (last writer wins).
type certStore struct {
	mu           sync.RWMutex
	certs        map[string]*x509.Certificate
	fingerprints []string
}

func newCertStore() *certStore {
	return &certStore{certs: make(map[string]*x509.Certificate)}
}

// load reads every configured certificate through the loader. A per-kid
// failure is logged and the kid left unmapped so the remaining kids
// stay usable. Kids are loaded in sorted order so the fingerprint list
// is deterministic.
func (s *certStore) load(paths map[string]string, loader CertLoader, logger Logger) {
	kids := make([]string, 0, len(paths))
	for kid := range paths {
		kids = append(kids, kid)
	}
	sort.Strings(kids)

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, kid := range kids {
		cert, err := readCertificate(paths[kid], loader)
		if err != nil {
			logger.Errorf("loading certificate for kid %q from %q: %v", kid, paths[kid], err)
			continue
		}
		s.certs[kid] = cert
		s.fingerprints = append(s.fingerprints, CertFingerprint(cert))
	}
}

func (s *certStore) get(kid string) (*x509.Certificate, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cert, ok := s.certs[kid]
	return cert, ok
}

func (s *certStore) put(kid string, cert *x509.Certificate) {
	s.mu.Lock()
	s.certs[kid] = cert
	s.mu.Unlock()
}

// fingerprintList returns a copy of the fingerprints in load order.
// The list is written once during load and never recomputed.
func (s *certStore) fingerprintList() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, len(s.fingerprints))
	copy(out, s.fingerprints)
	return out
}

// readCertificate loads and decodes a single X.509 certificate. PEM is
// tried first; bare DER is accepted as a fallback.
func readCertificate(name string, loader CertLoader) (*x509.Certificate, error) {
	raw, err := loader(name)
	if err != nil {
		return nil, fmt.Errorf("could not read certificate: %w", err)
	}
	der := raw
	if block, _ := pem.Decode(raw); block != nil {
		der = block.Bytes
	}
	cert, err := x509.ParseCertificate(der)
	if err != nil {
		return nil, fmt.Errorf("could not parse certificate: %w", err)
	}
	return cert, nil
}
