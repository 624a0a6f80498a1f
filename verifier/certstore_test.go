package verifier

import (
	"bytes"
	"encoding/pem"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lightmesh/jwtverify/jwtest"
)

func TestCertStore_Load(t *testing.T) {
	issA := newTestIssuer(t)
	issB, err := jwtest.NewIssuer("other-key")
	require.NoError(t, err)
	t.Cleanup(issB.Close)

	pems := map[string][]byte{
		"a.crt": issA.CertificatePEM(),
		"b.crt": issB.CertificatePEM(),
	}
	loader := func(name string) ([]byte, error) {
		raw, ok := pems[name]
		if !ok {
			return nil, errors.New("no such file")
		}
		return raw, nil
	}

	t.Run("loads every configured certificate", func(t *testing.T) {
		store := newCertStore()
		store.load(map[string]string{"kid-a": "a.crt", "kid-b": "b.crt"}, loader, &DefaultLogger{})

		cert, ok := store.get("kid-a")
		require.True(t, ok)
		assert.True(t, cert.Equal(issA.Certificate()))

		cert, ok = store.get("kid-b")
		require.True(t, ok)
		assert.True(t, cert.Equal(issB.Certificate()))
	})

	t.Run("fingerprints follow sorted kid order", func(t *testing.T) {
		store := newCertStore()
		store.load(map[string]string{"kid-b": "b.crt", "kid-a": "a.crt"}, loader, &DefaultLogger{})

		fp := store.fingerprintList()
		require.Len(t, fp, 2)
		assert.Equal(t, CertFingerprint(issA.Certificate()), fp[0])
		assert.Equal(t, CertFingerprint(issB.Certificate()), fp[1])
	})

	t.Run("unreadable certificate is skipped", func(t *testing.T) {
		store := newCertStore()
		store.load(map[string]string{"kid-a": "a.crt", "kid-x": "missing.crt"}, loader, &DefaultLogger{})

		_, ok := store.get("kid-x")
		assert.False(t, ok)
		_, ok = store.get("kid-a")
		assert.True(t, ok)
		assert.Len(t, store.fingerprintList(), 1)
	})

	t.Run("undecodable certificate is skipped", func(t *testing.T) {
		store := newCertStore()
		badLoader := func(string) ([]byte, error) { return []byte("not a certificate"), nil }
		store.load(map[string]string{"kid-a": "a.crt"}, badLoader, &DefaultLogger{})

		_, ok := store.get("kid-a")
		assert.False(t, ok)
		assert.Empty(t, store.fingerprintList())
	})

	t.Run("lazy puts do not grow the fingerprint list", func(t *testing.T) {
		store := newCertStore()
		store.load(map[string]string{"kid-a": "a.crt"}, loader, &DefaultLogger{})
		store.put("kid-b", issB.Certificate())

		_, ok := store.get("kid-b")
		assert.True(t, ok)
		assert.Len(t, store.fingerprintList(), 1)
	})
}

func TestReadCertificate(t *testing.T) {
	iss := newTestIssuer(t)

	t.Run("decodes PEM", func(t *testing.T) {
		loader := func(string) ([]byte, error) { return iss.CertificatePEM(), nil }
		cert, err := readCertificate("any", loader)
		require.NoError(t, err)
		assert.True(t, cert.Equal(iss.Certificate()))
	})

	t.Run("decodes bare DER", func(t *testing.T) {
		loader := func(string) ([]byte, error) { return iss.Certificate().Raw, nil }
		cert, err := readCertificate("any", loader)
		require.NoError(t, err)
		assert.True(t, cert.Equal(iss.Certificate()))
	})

	t.Run("rejects PEM with a non-certificate payload", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, pem.Encode(&buf, &pem.Block{Type: "CERTIFICATE", Bytes: []byte("junk")}))
		loader := func(string) ([]byte, error) { return buf.Bytes(), nil }
		_, err := readCertificate("any", loader)
		assert.Error(t, err)
	})
}

func TestCertFingerprint(t *testing.T) {
	iss := newTestIssuer(t)

	fp := CertFingerprint(iss.Certificate())
	assert.Len(t, fp, 40, "hex-encoded SHA-1 is 40 characters")
	assert.Equal(t, fp, CertFingerprint(iss.Certificate()), "stable for the same certificate")

	other, err := jwtest.NewIssuer("other-key")
	require.NoError(t, err)
	defer other.Close()
	assert.NotEqual(t, fp, CertFingerprint(other.Certificate()))
}
