// Package jwxv2 implements verifier.TokenVerifier on top of
// github.com/lestrrat-go/jwx/v2.
//
// The signature is checked with jws, the payload is decoded with the shared
// verifier codec and time based claims of object payloads are validated with
// jwt.Validate, so claims come back in the same shape as the jwtgo backend.
package jwxv2

import (
	"context"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/rsa"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/lestrrat-go/jwx/v2/jws"
	"github.com/lestrrat-go/jwx/v2/jwt"

	"github.com/auth0/go-jwt-strategy/verifier"
)

// Verifier is a verifier.TokenVerifier backed by jwx.
// It holds no mutable state and is safe for concurrent use.
type Verifier struct {
	opts verifier.Options
}

var _ verifier.TokenVerifier = (*Verifier)(nil)

// New sets up a new Verifier.
func New(opts ...verifier.Option) *Verifier {
	return &Verifier{opts: verifier.NewOptions(opts...)}
}

// Verify validates the passed in JWT using the jwx package.
func (v *Verifier) Verify(ctx context.Context, token string, key any, opts ...verifier.VerifyOption) (any, error) {
	vo := verifier.NewVerifyOptions(key, opts...)
	if len(vo.Algorithms) == 0 {
		return nil, verifier.NewVerificationError(
			verifier.ErrorCodeKeyInvalid,
			fmt.Sprintf("no signature algorithms can be used with a key of type %T", key),
			nil,
		)
	}

	src := []byte(token)
	msg, err := jws.Parse(src, jws.WithCompact())
	if err != nil {
		return nil, verifier.NewVerificationError(verifier.ErrorCodeTokenMalformed, "token is malformed", err)
	}

	sigs := msg.Signatures()
	if len(sigs) != 1 {
		return nil, verifier.NewVerificationError(
			verifier.ErrorCodeTokenMalformed,
			fmt.Sprintf("expected exactly one signature, got %d", len(sigs)),
			nil,
		)
	}

	alg := sigs[0].ProtectedHeaders().Algorithm()
	if !verifier.Allowed(vo.Algorithms, alg.String()) {
		return nil, verifier.NewVerificationError(
			verifier.ErrorCodeInvalidAlgorithm,
			fmt.Sprintf("signing algorithm %q is not allowed", alg.String()),
			nil,
		)
	}

	verifyKey, err := verifyKey(verifier.SignatureAlgorithm(alg.String()), key)
	if err != nil {
		return nil, err
	}

	payload, err := jws.Verify(src, jws.WithCompact(), jws.WithKey(alg, verifyKey))
	if err != nil {
		return nil, verifier.NewVerificationError(verifier.ErrorCodeInvalidSignature, "token signature is invalid", err)
	}

	claims, err := verifier.DecodePayload(payload)
	if err != nil {
		return nil, err
	}

	if _, ok := claims.(map[string]any); ok {
		if err := v.validate(src); err != nil {
			return nil, err
		}
	}

	return claims, nil
}

func (v *Verifier) validate(src []byte) error {
	tok, err := jwt.ParseInsecure(src)
	if err != nil {
		return verifier.NewVerificationError(verifier.ErrorCodeInvalidClaims, "token claims are invalid", err)
	}

	validateOpts := []jwt.ValidateOption{
		jwt.WithClock(jwt.ClockFunc(v.opts.Clock)),
	}
	if v.opts.Leeway > 0 {
		validateOpts = append(validateOpts, jwt.WithAcceptableSkew(v.opts.Leeway))
	}

	err = jwt.Validate(tok, validateOpts...)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, jwt.ErrTokenExpired()):
		return verifier.NewVerificationError(verifier.ErrorCodeTokenExpired, "token is expired", err)
	case errors.Is(err, jwt.ErrTokenNotYetValid()):
		return verifier.NewVerificationError(verifier.ErrorCodeTokenNotYetValid, "token is not valid yet", err)
	default:
		return verifier.NewVerificationError(verifier.ErrorCodeInvalidClaims, "token claims are invalid", err)
	}
}

// Sign encodes payload into a compact JWS signed with key.
func (v *Verifier) Sign(payload any, key any, opts ...verifier.SignOption) (string, error) {
	so := verifier.NewSignOptions(key, opts...)
	if !verifier.Supported(so.Algorithm) {
		return "", fmt.Errorf("unsupported signature algorithm: %q", so.Algorithm)
	}

	value, err := verifier.PreparePayload(payload, v.opts.Clock(), !so.NoTimestamp)
	if err != nil {
		return "", err
	}
	data, err := json.Marshal(value)
	if err != nil {
		return "", fmt.Errorf("could not encode payload: %w", err)
	}

	signingKey, err := signKey(so.Algorithm, key)
	if err != nil {
		return "", err
	}

	hdrs := jws.NewHeaders()
	if err := hdrs.Set(jws.TypeKey, "JWT"); err != nil {
		return "", err
	}

	signed, err := jws.Sign(data, jws.WithKey(
		jwa.SignatureAlgorithm(so.Algorithm.String()),
		signingKey,
		jws.WithProtectedHeaders(hdrs),
	))
	if err != nil {
		return "", fmt.Errorf("could not sign payload: %w", err)
	}
	return string(signed), nil
}

func verifyKey(alg verifier.SignatureAlgorithm, key any) (any, error) {
	if alg.IsHMAC() {
		return verifier.SecretBytes(key)
	}
	switch k := verifier.PEMKey(key).(type) {
	case *rsa.PublicKey, *ecdsa.PublicKey, ed25519.PublicKey:
		return k, nil
	case *rsa.PrivateKey:
		return &k.PublicKey, nil
	case *ecdsa.PrivateKey:
		return &k.PublicKey, nil
	case ed25519.PrivateKey:
		return k.Public(), nil
	case []byte:
		return parsePEM(k)
	}
	return nil, keyTypeError(alg, key)
}

func signKey(alg verifier.SignatureAlgorithm, key any) (any, error) {
	if alg.IsHMAC() {
		return verifier.SecretBytes(key)
	}
	switch k := verifier.PEMKey(key).(type) {
	case *rsa.PrivateKey, *ecdsa.PrivateKey, ed25519.PrivateKey:
		return k, nil
	case []byte:
		return parsePEM(k)
	}
	return nil, keyTypeError(alg, key)
}

func parsePEM(data []byte) (jwk.Key, error) {
	if !verifier.IsPEM(data) {
		return nil, verifier.NewVerificationError(verifier.ErrorCodeKeyInvalid, "asymmetric algorithms require PEM encoded key material", nil)
	}
	k, err := jwk.ParseKey(data, jwk.WithPEM(true))
	if err != nil {
		return nil, verifier.NewVerificationError(verifier.ErrorCodeKeyInvalid, "could not parse PEM key", err)
	}
	return k, nil
}

func keyTypeError(alg verifier.SignatureAlgorithm, key any) error {
	return verifier.NewVerificationError(
		verifier.ErrorCodeKeyInvalid,
		fmt.Sprintf("key of type %T cannot be used with %s", key, alg),
		nil,
	)
}
