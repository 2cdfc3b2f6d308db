package verifier

import (
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testPEM = "-----BEGIN PUBLIC KEY-----\nMCowBQYDK2VwAyEA\n-----END PUBLIC KEY-----\n"

func TestParseAlgorithms(t *testing.T) {
	testCases := []struct {
		name    string
		in      []string
		want    []SignatureAlgorithm
		wantErr string
	}{
		{name: "single", in: []string{"HS256"}, want: []SignatureAlgorithm{HS256}},
		{name: "trims spaces", in: []string{" RS256", "ES384 "}, want: []SignatureAlgorithm{RS256, ES384}},
		{name: "none is rejected", in: []string{"none"}, wantErr: `unsupported signature algorithm: "none"`},
		{name: "unknown is rejected", in: []string{"HS256", "XX999"}, wantErr: `unsupported signature algorithm: "XX999"`},
		{name: "empty input", in: nil, want: []SignatureAlgorithm{}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseAlgorithms(tc.in...)
			if tc.wantErr != "" {
				assert.EqualError(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestDefaultAlgorithms(t *testing.T) {
	rsaKey, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	ecKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	edPub, edPriv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	testCases := []struct {
		name string
		key  any
		want []SignatureAlgorithm
	}{
		{name: "string secret", key: "secret", want: []SignatureAlgorithm{HS256, HS384, HS512}},
		{name: "byte secret", key: []byte("secret"), want: []SignatureAlgorithm{HS256, HS384, HS512}},
		{name: "PEM bytes", key: []byte(testPEM), want: []SignatureAlgorithm{RS256, RS384, RS512, PS256, PS384, PS512, ES256, ES384, ES512, EdDSA}},
		{name: "PEM string", key: testPEM, want: []SignatureAlgorithm{RS256, RS384, RS512, PS256, PS384, PS512, ES256, ES384, ES512, EdDSA}},
		{name: "RSA public key", key: &rsaKey.PublicKey, want: []SignatureAlgorithm{RS256, RS384, RS512, PS256, PS384, PS512}},
		{name: "ECDSA private key", key: ecKey, want: []SignatureAlgorithm{ES256, ES384, ES512}},
		{name: "Ed25519 public key", key: edPub, want: []SignatureAlgorithm{EdDSA}},
		{name: "Ed25519 private key", key: edPriv, want: []SignatureAlgorithm{EdDSA}},
		{name: "unsupported key", key: 42, want: nil},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, DefaultAlgorithms(tc.key))
		})
	}
}

func TestDefaultSigningAlgorithm(t *testing.T) {
	p384, err := ecdsa.GenerateKey(elliptic.P384(), rand.Reader)
	require.NoError(t, err)
	p521, err := ecdsa.GenerateKey(elliptic.P521(), rand.Reader)
	require.NoError(t, err)

	assert.Equal(t, HS256, DefaultSigningAlgorithm("secret"))
	assert.Equal(t, RS256, DefaultSigningAlgorithm([]byte(testPEM)))
	assert.Equal(t, RS256, DefaultSigningAlgorithm(testPEM))
	assert.Equal(t, ES384, DefaultSigningAlgorithm(p384))
	assert.Equal(t, ES512, DefaultSigningAlgorithm(p521))
}

func TestPEMKey(t *testing.T) {
	assert.Equal(t, []byte(testPEM), PEMKey(testPEM))
	assert.Equal(t, "secret", PEMKey("secret"))
	assert.Equal(t, 42, PEMKey(42))
}

func TestSecretBytes(t *testing.T) {
	t.Run("string", func(t *testing.T) {
		b, err := SecretBytes("secret")
		require.NoError(t, err)
		assert.Equal(t, []byte("secret"), b)
	})

	t.Run("PEM is refused", func(t *testing.T) {
		_, err := SecretBytes([]byte("  " + testPEM))
		assert.ErrorIs(t, err, ErrKeyInvalid)
	})

	t.Run("empty is refused", func(t *testing.T) {
		_, err := SecretBytes("")
		assert.ErrorIs(t, err, ErrKeyInvalid)
	})

	t.Run("other types are refused", func(t *testing.T) {
		_, err := SecretBytes(12)
		assert.ErrorIs(t, err, ErrKeyInvalid)
	})
}

func TestAllowed(t *testing.T) {
	algs := []SignatureAlgorithm{HS256, RS256}
	assert.True(t, Allowed(algs, "RS256"))
	assert.False(t, Allowed(algs, "none"))
	assert.False(t, Allowed(algs, "hs256"))
	assert.False(t, Allowed(nil, "HS256"))
}
