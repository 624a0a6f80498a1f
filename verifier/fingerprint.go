package verifier

import (
	"crypto/sha1"
	"crypto/x509"
	"encoding/hex"
)

// CertFingerprint returns the lowercase hex SHA-1 fingerprint of the
// certificate's DER encoding. Exposed so audit tooling can compare
// fingerprints computed elsewhere against Fingerprints output.
func CertFingerprint(cert *x509.Certificate) string {
	sum := sha1.Sum(cert.Raw)
	return hex.EncodeToString(sum[:])
}
