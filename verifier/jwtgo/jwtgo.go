// Package jwtgo implements verifier.TokenVerifier on top of
// github.com/golang-jwt/jwt/v5.
package jwtgo

import (
	"context"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/rsa"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"github.com/auth0/go-jwt-strategy/verifier"
)

// Verifier is a verifier.TokenVerifier backed by golang-jwt.
// It holds no mutable state and is safe for concurrent use.
type Verifier struct {
	opts verifier.Options
}

var _ verifier.TokenVerifier = (*Verifier)(nil)

// New sets up a new Verifier.
func New(opts ...verifier.Option) *Verifier {
	return &Verifier{opts: verifier.NewOptions(opts...)}
}

// Verify validates the passed in JWT using the jwt-go package.
func (v *Verifier) Verify(ctx context.Context, token string, key any, opts ...verifier.VerifyOption) (any, error) {
	vo := verifier.NewVerifyOptions(key, opts...)
	if len(vo.Algorithms) == 0 {
		return nil, verifier.NewVerificationError(
			verifier.ErrorCodeKeyInvalid,
			fmt.Sprintf("no signature algorithms can be used with a key of type %T", key),
			nil,
		)
	}

	methods := make([]string, 0, len(vo.Algorithms))
	for _, alg := range vo.Algorithms {
		methods = append(methods, alg.String())
	}

	parserOpts := []jwt.ParserOption{
		jwt.WithValidMethods(methods),
		jwt.WithTimeFunc(v.opts.Clock),
		jwt.WithIssuedAt(),
	}
	if v.opts.Leeway > 0 {
		parserOpts = append(parserOpts, jwt.WithLeeway(v.opts.Leeway))
	}

	claims := &payloadClaims{}
	tok, err := jwt.NewParser(parserOpts...).ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return verifyKey(verifier.SignatureAlgorithm(t.Method.Alg()), key)
	})
	if err != nil {
		return nil, classify(tok, vo.Algorithms, err)
	}

	return claims.value, nil
}

// Sign encodes payload into a compact JWS signed with key.
func (v *Verifier) Sign(payload any, key any, opts ...verifier.SignOption) (string, error) {
	so := verifier.NewSignOptions(key, opts...)
	if !verifier.Supported(so.Algorithm) {
		return "", fmt.Errorf("unsupported signature algorithm: %q", so.Algorithm)
	}
	method := jwt.GetSigningMethod(so.Algorithm.String())
	if method == nil {
		return "", fmt.Errorf("signing method %q is unavailable", so.Algorithm)
	}

	value, err := verifier.PreparePayload(payload, v.opts.Clock(), !so.NoTimestamp)
	if err != nil {
		return "", err
	}

	signingKey, err := signKey(so.Algorithm, key)
	if err != nil {
		return "", err
	}

	return jwt.NewWithClaims(method, &payloadClaims{value: value}).SignedString(signingKey)
}

func classify(tok *jwt.Token, algs []verifier.SignatureAlgorithm, err error) error {
	var verr *verifier.VerificationError
	if errors.As(err, &verr) {
		return verr
	}

	if tok != nil {
		if alg, _ := tok.Header["alg"].(string); !verifier.Allowed(algs, alg) {
			return verifier.NewVerificationError(
				verifier.ErrorCodeInvalidAlgorithm,
				fmt.Sprintf("signing algorithm %q is not allowed", alg),
				err,
			)
		}
	}

	switch {
	case errors.Is(err, jwt.ErrTokenMalformed):
		return verifier.NewVerificationError(verifier.ErrorCodeTokenMalformed, "token is malformed", err)
	case errors.Is(err, jwt.ErrTokenExpired):
		return verifier.NewVerificationError(verifier.ErrorCodeTokenExpired, "token is expired", err)
	case errors.Is(err, jwt.ErrTokenNotValidYet):
		return verifier.NewVerificationError(verifier.ErrorCodeTokenNotYetValid, "token is not valid yet", err)
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return verifier.NewVerificationError(verifier.ErrorCodeInvalidSignature, "token signature is invalid", err)
	default:
		return verifier.NewVerificationError(verifier.ErrorCodeInvalidClaims, "token claims are invalid", err)
	}
}

func verifyKey(alg verifier.SignatureAlgorithm, key any) (any, error) {
	if !alg.IsHMAC() {
		key = verifier.PEMKey(key)
	}
	switch alg {
	case verifier.HS256, verifier.HS384, verifier.HS512:
		return verifier.SecretBytes(key)
	case verifier.RS256, verifier.RS384, verifier.RS512, verifier.PS256, verifier.PS384, verifier.PS512:
		switch k := key.(type) {
		case *rsa.PublicKey:
			return k, nil
		case *rsa.PrivateKey:
			return &k.PublicKey, nil
		case []byte:
			return parsePEM(jwt.ParseRSAPublicKeyFromPEM, k)
		}
	case verifier.ES256, verifier.ES384, verifier.ES512:
		switch k := key.(type) {
		case *ecdsa.PublicKey:
			return k, nil
		case *ecdsa.PrivateKey:
			return &k.PublicKey, nil
		case []byte:
			return parsePEM(jwt.ParseECPublicKeyFromPEM, k)
		}
	case verifier.EdDSA:
		switch k := key.(type) {
		case ed25519.PublicKey:
			return k, nil
		case ed25519.PrivateKey:
			return k.Public(), nil
		case []byte:
			return parsePEM(jwt.ParseEdPublicKeyFromPEM, k)
		}
	}
	return nil, keyTypeError(alg, key)
}

func signKey(alg verifier.SignatureAlgorithm, key any) (any, error) {
	if !alg.IsHMAC() {
		key = verifier.PEMKey(key)
	}
	switch alg {
	case verifier.HS256, verifier.HS384, verifier.HS512:
		return verifier.SecretBytes(key)
	case verifier.RS256, verifier.RS384, verifier.RS512, verifier.PS256, verifier.PS384, verifier.PS512:
		switch k := key.(type) {
		case *rsa.PrivateKey:
			return k, nil
		case []byte:
			return parsePEM(jwt.ParseRSAPrivateKeyFromPEM, k)
		}
	case verifier.ES256, verifier.ES384, verifier.ES512:
		switch k := key.(type) {
		case *ecdsa.PrivateKey:
			return k, nil
		case []byte:
			return parsePEM(jwt.ParseECPrivateKeyFromPEM, k)
		}
	case verifier.EdDSA:
		switch k := key.(type) {
		case ed25519.PrivateKey:
			return k, nil
		case []byte:
			return parsePEM(jwt.ParseEdPrivateKeyFromPEM, k)
		}
	}
	return nil, keyTypeError(alg, key)
}

func parsePEM[K any](parse func([]byte) (K, error), data []byte) (any, error) {
	k, err := parse(data)
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

// payloadClaims lets golang-jwt carry both object and string payloads.
// Time based claims are read from the object form, string payloads have none.
type payloadClaims struct {
	value any
}

var _ jwt.Claims = (*payloadClaims)(nil)

func (p *payloadClaims) UnmarshalJSON(data []byte) error {
	value, err := verifier.DecodePayload(data)
	if err != nil {
		return err
	}
	p.value = value
	return nil
}

func (p *payloadClaims) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.value)
}

func (p *payloadClaims) object() jwt.MapClaims {
	m, _ := p.value.(map[string]any)
	return jwt.MapClaims(m)
}

func (p *payloadClaims) GetExpirationTime() (*jwt.NumericDate, error) {
	return p.object().GetExpirationTime()
}

func (p *payloadClaims) GetIssuedAt() (*jwt.NumericDate, error) {
	return p.object().GetIssuedAt()
}

func (p *payloadClaims) GetNotBefore() (*jwt.NumericDate, error) {
	return p.object().GetNotBefore()
}

func (p *payloadClaims) GetIssuer() (string, error) {
	return p.object().GetIssuer()
}

func (p *payloadClaims) GetSubject() (string, error) {
	return p.object().GetSubject()
}

func (p *payloadClaims) GetAudience() (jwt.ClaimStrings, error) {
	return p.object().GetAudience()
}
