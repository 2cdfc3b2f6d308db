// Package backend selects a verifier.TokenVerifier implementation by name.
// The choice is made once at startup and the result is handed to the strategy
// through jwtstrategy.WithVerifier.
package backend

import (
	"fmt"
	"strings"

	"github.com/auth0/go-jwt-strategy/verifier"
	"github.com/auth0/go-jwt-strategy/verifier/jwtgo"
	"github.com/auth0/go-jwt-strategy/verifier/jwxv2"
)

// Kind names a TokenVerifier backend.
type Kind string

const (
	// JWTGo is backed by github.com/golang-jwt/jwt/v5.
	JWTGo Kind = "jwtgo"
	// JWX is backed by github.com/lestrrat-go/jwx/v2.
	JWX Kind = "jwx"
)

// Kinds lists every available backend.
func Kinds() []Kind {
	return []Kind{JWTGo, JWX}
}

// Parse returns the Kind for name. Matching ignores case and surrounding
// spaces; an empty name selects JWTGo.
func Parse(name string) (Kind, error) {
	switch Kind(strings.ToLower(strings.TrimSpace(name))) {
	case "", JWTGo:
		return JWTGo, nil
	case JWX, "jwxv2":
		return JWX, nil
	}
	return "", fmt.Errorf("unknown verifier backend %q", name)
}

// New builds the verifier for kind.
func New(kind Kind, opts ...verifier.Option) (verifier.TokenVerifier, error) {
	switch kind {
	case JWTGo:
		return jwtgo.New(opts...), nil
	case JWX:
		return jwxv2.New(opts...), nil
	}
	return nil, fmt.Errorf("unknown verifier backend %q", kind)
}
