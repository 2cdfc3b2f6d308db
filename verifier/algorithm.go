package verifier

import (
	"bytes"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/rsa"
	"fmt"
	"strings"
)

// Signature algorithms
const (
	EdDSA = SignatureAlgorithm("EdDSA")
	HS256 = SignatureAlgorithm("HS256") // HMAC using SHA-256
	HS384 = SignatureAlgorithm("HS384") // HMAC using SHA-384
	HS512 = SignatureAlgorithm("HS512") // HMAC using SHA-512
	RS256 = SignatureAlgorithm("RS256") // RSASSA-PKCS-v1.5 using SHA-256
	RS384 = SignatureAlgorithm("RS384") // RSASSA-PKCS-v1.5 using SHA-384
	RS512 = SignatureAlgorithm("RS512") // RSASSA-PKCS-v1.5 using SHA-512
	ES256 = SignatureAlgorithm("ES256") // ECDSA using P-256 and SHA-256
	ES384 = SignatureAlgorithm("ES384") // ECDSA using P-384 and SHA-384
	ES512 = SignatureAlgorithm("ES512") // ECDSA using P-521 and SHA-512
	PS256 = SignatureAlgorithm("PS256") // RSASSA-PSS using SHA256 and MGF1-SHA256
	PS384 = SignatureAlgorithm("PS384") // RSASSA-PSS using SHA384 and MGF1-SHA384
	PS512 = SignatureAlgorithm("PS512") // RSASSA-PSS using SHA512 and MGF1-SHA512
)

// SignatureAlgorithm is a JWS signature algorithm name as it appears in the
// "alg" header of a token.
type SignatureAlgorithm string

// String returns the algorithm name.
func (a SignatureAlgorithm) String() string { return string(a) }

// IsHMAC reports whether the algorithm uses a shared secret.
func (a SignatureAlgorithm) IsHMAC() bool {
	return a == HS256 || a == HS384 || a == HS512
}

var allowedSigningAlgorithms = map[SignatureAlgorithm]bool{
	EdDSA: true,
	HS256: true,
	HS384: true,
	HS512: true,
	RS256: true,
	RS384: true,
	RS512: true,
	ES256: true,
	ES384: true,
	ES512: true,
	PS256: true,
	PS384: true,
	PS512: true,
}

var (
	hmacAlgorithms    = []SignatureAlgorithm{HS256, HS384, HS512}
	rsaAlgorithms     = []SignatureAlgorithm{RS256, RS384, RS512, PS256, PS384, PS512}
	ecdsaAlgorithms   = []SignatureAlgorithm{ES256, ES384, ES512}
	ed25519Algorithms = []SignatureAlgorithm{EdDSA}
)

// ParseAlgorithms converts algorithm names into SignatureAlgorithms, rejecting
// anything outside the supported set. "none" is never supported.
func ParseAlgorithms(names ...string) ([]SignatureAlgorithm, error) {
	algs := make([]SignatureAlgorithm, 0, len(names))
	for _, name := range names {
		alg := SignatureAlgorithm(strings.TrimSpace(name))
		if !allowedSigningAlgorithms[alg] {
			return nil, fmt.Errorf("unsupported signature algorithm: %q", name)
		}
		algs = append(algs, alg)
	}
	return algs, nil
}

// Supported reports whether alg is a signature algorithm this package knows.
func Supported(alg SignatureAlgorithm) bool {
	return allowedSigningAlgorithms[alg]
}

// Allowed reports whether alg is part of algs.
func Allowed(algs []SignatureAlgorithm, alg string) bool {
	for _, a := range algs {
		if string(a) == alg {
			return true
		}
	}
	return false
}

// DefaultAlgorithms returns the algorithms accepted for key when the caller
// did not configure any. The set is derived from the kind of key material so
// that a shared secret can never be used to accept an asymmetric token and
// vice versa.
func DefaultAlgorithms(key any) []SignatureAlgorithm {
	switch k := PEMKey(key).(type) {
	case string:
		return clone(hmacAlgorithms)
	case []byte:
		if IsPEM(k) {
			return concat(rsaAlgorithms, ecdsaAlgorithms, ed25519Algorithms)
		}
		return clone(hmacAlgorithms)
	case *rsa.PublicKey, *rsa.PrivateKey:
		return clone(rsaAlgorithms)
	case *ecdsa.PublicKey, *ecdsa.PrivateKey:
		return clone(ecdsaAlgorithms)
	case ed25519.PublicKey, ed25519.PrivateKey:
		return clone(ed25519Algorithms)
	default:
		return nil
	}
}

// DefaultSigningAlgorithm returns the algorithm Sign uses for key when none
// was requested.
func DefaultSigningAlgorithm(key any) SignatureAlgorithm {
	switch k := PEMKey(key).(type) {
	case *rsa.PrivateKey:
		return RS256
	case *ecdsa.PrivateKey:
		switch k.Curve.Params().BitSize {
		case 384:
			return ES384
		case 521:
			return ES512
		default:
			return ES256
		}
	case ed25519.PrivateKey:
		return EdDSA
	case []byte:
		if IsPEM(k) {
			return RS256
		}
		return HS256
	default:
		return HS256
	}
}

// IsPEM reports whether b looks like PEM encoded key material.
func IsPEM(b []byte) bool {
	return bytes.HasPrefix(bytes.TrimSpace(b), []byte("-----BEGIN "))
}

// PEMKey returns PEM encoded key material given as a string as []byte, so
// PEM keys behave the same whichever form they are supplied in. Any other
// key is returned unchanged.
func PEMKey(key any) any {
	if s, ok := key.(string); ok && IsPEM([]byte(s)) {
		return []byte(s)
	}
	return key
}

// SecretBytes returns the HMAC secret for key. PEM encoded material is
// refused so that a public key can never double as an HMAC secret.
func SecretBytes(key any) ([]byte, error) {
	var b []byte
	switch k := key.(type) {
	case string:
		b = []byte(k)
	case []byte:
		b = k
	default:
		return nil, NewVerificationError(ErrorCodeKeyInvalid, "HMAC algorithms require a string or []byte secret", nil)
	}
	if IsPEM(b) {
		return nil, NewVerificationError(ErrorCodeKeyInvalid, "PEM key material cannot be used as an HMAC secret", nil)
	}
	if len(b) == 0 {
		return nil, NewVerificationError(ErrorCodeKeyInvalid, "secret is empty", nil)
	}
	return b, nil
}

func clone(algs []SignatureAlgorithm) []SignatureAlgorithm {
	return append([]SignatureAlgorithm(nil), algs...)
}

func concat(sets ...[]SignatureAlgorithm) []SignatureAlgorithm {
	var out []SignatureAlgorithm
	for _, s := range sets {
		out = append(out, s...)
	}
	return out
}
