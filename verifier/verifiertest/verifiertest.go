// Package verifiertest provides a conformance suite for verifier.TokenVerifier
// implementations. Every backend runs the same cases so they stay
// interchangeable.
package verifiertest

import (
	"context"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/auth0/go-jwt-strategy/verifier"
)

// Factory builds the verifier under test.
type Factory func(opts ...verifier.Option) verifier.TokenVerifier

// Secret is the HMAC secret used throughout the suite.
const Secret = "s3cr3t"

// Now is the fixed clock the suite runs at.
var Now = time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)

// Clock returns Now.
func Clock() time.Time { return Now }

// Run executes the conformance suite against the verifier built by newVerifier.
func Run(t *testing.T, newVerifier Factory) {
	t.Helper()

	ctx := context.Background()
	v := newVerifier(verifier.WithClock(Clock))

	t.Run("object payload round trips with iat", func(t *testing.T) {
		token, err := v.Sign(map[string]any{"username": "example@example.com"}, Secret)
		require.NoError(t, err)

		claims, err := v.Verify(ctx, token, Secret, verifier.WithAlgorithms(verifier.HS256))
		require.NoError(t, err)

		want := map[string]any{
			"username": "example@example.com",
			"iat":      float64(Now.Unix()),
		}
		if diff := cmp.Diff(want, claims); diff != "" {
			t.Errorf("claims mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("struct payload is encoded as an object", func(t *testing.T) {
		payload := struct {
			Subject string `json:"sub"`
		}{Subject: "user-1"}

		token, err := v.Sign(payload, Secret)
		require.NoError(t, err)

		claims, err := v.Verify(ctx, token, Secret)
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"sub": "user-1", "iat": float64(Now.Unix())}, claims)
	})

	t.Run("existing iat is kept", func(t *testing.T) {
		iat := Now.Add(-time.Minute).Unix()
		token, err := v.Sign(map[string]any{"iat": iat}, Secret)
		require.NoError(t, err)

		claims, err := v.Verify(ctx, token, Secret)
		require.NoError(t, err)
		assert.Equal(t, float64(iat), claims.(map[string]any)["iat"])
	})

	t.Run("sign is deterministic", func(t *testing.T) {
		payload := map[string]any{"sub": "user-1", "scope": "read write"}

		first, err := v.Sign(payload, Secret)
		require.NoError(t, err)
		second, err := v.Sign(payload, Secret)
		require.NoError(t, err)

		assert.Equal(t, first, second)
		assert.NotContains(t, payload, "iat", "sign must not modify the caller's payload")
	})

	t.Run("string payload round trips", func(t *testing.T) {
		token, err := v.Sign("hello", Secret)
		require.NoError(t, err)

		claims, err := v.Verify(ctx, token, Secret)
		require.NoError(t, err)
		assert.Equal(t, "hello", claims)
	})

	t.Run("empty object payload is returned as a present result", func(t *testing.T) {
		token, err := v.Sign(map[string]any{}, Secret, verifier.WithoutTimestamp())
		require.NoError(t, err)

		claims, err := v.Verify(ctx, token, Secret)
		require.NoError(t, err)
		require.NotNil(t, claims)
		assert.Equal(t, map[string]any{}, claims)
	})

	t.Run("wrong secret", func(t *testing.T) {
		token, err := v.Sign(map[string]any{"sub": "user-1"}, Secret)
		require.NoError(t, err)

		claims, err := v.Verify(ctx, token, "another-secret")
		assert.Nil(t, claims)
		assertCode(t, err, verifier.ErrorCodeInvalidSignature, verifier.ErrInvalidSignature)
	})

	t.Run("tampered payload", func(t *testing.T) {
		token, err := v.Sign(map[string]any{"sub": "user-1"}, Secret)
		require.NoError(t, err)

		forged := replacePayload(t, token, `{"sub":"admin"}`)

		_, err = v.Verify(ctx, forged, Secret)
		assertCode(t, err, verifier.ErrorCodeInvalidSignature, verifier.ErrInvalidSignature)
	})

	t.Run("algorithm outside the allowed set", func(t *testing.T) {
		token, err := v.Sign(map[string]any{"sub": "user-1"}, Secret)
		require.NoError(t, err)

		_, err = v.Verify(ctx, token, Secret, verifier.WithAlgorithms(verifier.HS512))
		assertCode(t, err, verifier.ErrorCodeInvalidAlgorithm, verifier.ErrAlgorithmNotAllowed)
	})

	t.Run("none algorithm is rejected", func(t *testing.T) {
		token := segment(`{"alg":"none","typ":"JWT"}`) + "." + segment(`{"sub":"admin"}`) + "." + segment("sig")

		_, err := v.Verify(ctx, token, Secret)
		assertCode(t, err, verifier.ErrorCodeInvalidAlgorithm, verifier.ErrAlgorithmNotAllowed)
	})

	t.Run("expired token", func(t *testing.T) {
		token, err := v.Sign(map[string]any{"sub": "user-1", "exp": Now.Add(-time.Hour).Unix()}, Secret)
		require.NoError(t, err)

		_, err = v.Verify(ctx, token, Secret)
		assertCode(t, err, verifier.ErrorCodeTokenExpired, verifier.ErrTokenExpired)
	})

	t.Run("leeway accepts recently expired token", func(t *testing.T) {
		lenient := newVerifier(verifier.WithClock(Clock), verifier.WithLeeway(2*time.Hour))
		token, err := lenient.Sign(map[string]any{"sub": "user-1", "exp": Now.Add(-time.Hour).Unix()}, Secret)
		require.NoError(t, err)

		claims, err := lenient.Verify(ctx, token, Secret)
		require.NoError(t, err)
		assert.Equal(t, "user-1", claims.(map[string]any)["sub"])
	})

	t.Run("token not valid yet", func(t *testing.T) {
		token, err := v.Sign(map[string]any{"sub": "user-1", "nbf": Now.Add(time.Hour).Unix()}, Secret)
		require.NoError(t, err)

		_, err = v.Verify(ctx, token, Secret)
		assertCode(t, err, verifier.ErrorCodeTokenNotYetValid, verifier.ErrTokenNotYetValid)
	})

	t.Run("malformed token", func(t *testing.T) {
		_, err := v.Verify(ctx, "not-a-token", Secret)
		assertCode(t, err, verifier.ErrorCodeTokenMalformed, verifier.ErrTokenMalformed)
	})

	t.Run("JSON serialization is malformed", func(t *testing.T) {
		token, err := v.Sign(map[string]any{"sub": "user-1"}, Secret)
		require.NoError(t, err)

		parts := strings.Split(token, ".")
		require.Len(t, parts, 3)
		serialized := fmt.Sprintf(`{"payload":%q,"protected":%q,"signature":%q}`, parts[1], parts[0], parts[2])

		claims, err := v.Verify(ctx, serialized, Secret)
		assert.Nil(t, claims)
		assertCode(t, err, verifier.ErrorCodeTokenMalformed, verifier.ErrTokenMalformed)
	})

	t.Run("PEM material is never an HMAC secret", func(t *testing.T) {
		token, err := v.Sign(map[string]any{"sub": "user-1"}, Secret)
		require.NoError(t, err)

		_, pub := rsaKeys(t)
		_, err = v.Verify(ctx, token, pub, verifier.WithAlgorithms(verifier.HS256))
		assertCode(t, err, verifier.ErrorCodeKeyInvalid, verifier.ErrKeyInvalid)
	})

	t.Run("RSA keys", func(t *testing.T) {
		priv, pubPEM := rsaKeys(t)

		token, err := v.Sign(map[string]any{"sub": "user-1"}, priv)
		require.NoError(t, err)

		claims, err := v.Verify(ctx, token, &priv.PublicKey)
		require.NoError(t, err)
		assert.Equal(t, "user-1", claims.(map[string]any)["sub"])

		claims, err = v.Verify(ctx, token, pubPEM)
		require.NoError(t, err)
		assert.Equal(t, "user-1", claims.(map[string]any)["sub"])

		claims, err = v.Verify(ctx, token, string(pubPEM))
		require.NoError(t, err)
		assert.Equal(t, "user-1", claims.(map[string]any)["sub"])
	})

	t.Run("PEM string private key signs", func(t *testing.T) {
		priv, _ := rsaKeys(t)
		der, err := x509.MarshalPKCS8PrivateKey(priv)
		require.NoError(t, err)
		privPEM := string(pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der}))

		token, err := v.Sign(map[string]any{"sub": "user-1"}, privPEM)
		require.NoError(t, err)

		claims, err := v.Verify(ctx, token, &priv.PublicKey, verifier.WithAlgorithms(verifier.RS256))
		require.NoError(t, err)
		assert.Equal(t, "user-1", claims.(map[string]any)["sub"])
	})

	t.Run("PEM string public key refuses an HMAC token", func(t *testing.T) {
		_, pubPEM := rsaKeys(t)
		token, err := v.Sign(map[string]any{"sub": "admin"}, Secret)
		require.NoError(t, err)

		_, err = v.Verify(ctx, token, string(pubPEM))
		assertCode(t, err, verifier.ErrorCodeInvalidAlgorithm, verifier.ErrAlgorithmNotAllowed)
	})

	t.Run("HMAC token is rejected by an RSA public key", func(t *testing.T) {
		priv, _ := rsaKeys(t)

		token, err := v.Sign(map[string]any{"sub": "admin"}, Secret)
		require.NoError(t, err)

		_, err = v.Verify(ctx, token, &priv.PublicKey)
		assertCode(t, err, verifier.ErrorCodeInvalidAlgorithm, verifier.ErrAlgorithmNotAllowed)
	})

	t.Run("ECDSA keys", func(t *testing.T) {
		priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
		require.NoError(t, err)

		token, err := v.Sign(map[string]any{"sub": "user-1"}, priv)
		require.NoError(t, err)

		claims, err := v.Verify(ctx, token, &priv.PublicKey, verifier.WithAlgorithms(verifier.ES256))
		require.NoError(t, err)
		assert.Equal(t, "user-1", claims.(map[string]any)["sub"])
	})

	t.Run("Ed25519 keys", func(t *testing.T) {
		pub, priv, err := ed25519.GenerateKey(rand.Reader)
		require.NoError(t, err)

		token, err := v.Sign(map[string]any{"sub": "user-1"}, priv)
		require.NoError(t, err)

		claims, err := v.Verify(ctx, token, pub)
		require.NoError(t, err)
		assert.Equal(t, "user-1", claims.(map[string]any)["sub"])
	})

	t.Run("unusable key type", func(t *testing.T) {
		_, err := v.Verify(ctx, "a.b.c", 42)
		assertCode(t, err, verifier.ErrorCodeKeyInvalid, verifier.ErrKeyInvalid)
	})

	t.Run("concurrent verification", func(t *testing.T) {
		const n = 32
		tokens := make([]string, n)
		for i := range tokens {
			token, err := v.Sign(map[string]any{"sub": fmt.Sprintf("user-%d", i)}, Secret)
			require.NoError(t, err)
			tokens[i] = token
		}

		var wg sync.WaitGroup
		subjects := make([]any, n)
		errs := make([]error, n)
		for i := range tokens {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				claims, err := v.Verify(ctx, tokens[i], Secret)
				errs[i] = err
				if m, ok := claims.(map[string]any); ok {
					subjects[i] = m["sub"]
				}
			}(i)
		}
		wg.Wait()

		for i := range tokens {
			require.NoError(t, errs[i])
			assert.Equal(t, fmt.Sprintf("user-%d", i), subjects[i])
		}
	})
}

func assertCode(t *testing.T, err error, code string, sentinel error) {
	t.Helper()

	require.Error(t, err)
	assert.ErrorIs(t, err, verifier.ErrTokenInvalid)
	assert.ErrorIs(t, err, sentinel)

	var verr *verifier.VerificationError
	if assert.True(t, errors.As(err, &verr), "expected *verifier.VerificationError, got %T", err) {
		assert.Equal(t, code, verr.Code)
	}
}

func segment(s string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(s))
}

func replacePayload(t *testing.T, token, payload string) string {
	t.Helper()

	parts := strings.Split(token, ".")
	require.Len(t, parts, 3)
	return parts[0] + "." + segment(payload) + "." + parts[2]
}

func rsaKeys(t *testing.T) (*rsa.PrivateKey, []byte) {
	t.Helper()

	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	der, err := x509.MarshalPKIXPublicKey(&priv.PublicKey)
	require.NoError(t, err)

	return priv, pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der})
}
