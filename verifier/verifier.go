// Package verifier defines the TokenVerifier contract used by the JWT
// strategy along with the pieces every backend shares: the algorithm
// catalogue, payload encoding and typed verification errors.
//
// Two backends implement the contract:
//
//   - github.com/auth0/go-jwt-strategy/verifier/jwtgo (github.com/golang-jwt/jwt/v5)
//   - github.com/auth0/go-jwt-strategy/verifier/jwxv2 (github.com/lestrrat-go/jwx/v2)
//
// They are interchangeable and are run against the same conformance suite in
// package verifiertest.
package verifier

import (
	"context"
	"time"
)

// TokenVerifier verifies compact JWS tokens and signs payloads into them.
//
// Verify returns the decoded payload: map[string]any for JSON objects or
// string for JSON strings. A (nil, nil) return means the backend produced no
// result; callers treat it differently from an error.
type TokenVerifier interface {
	Verify(ctx context.Context, token string, key any, opts ...VerifyOption) (any, error)
	Sign(payload any, key any, opts ...SignOption) (string, error)
}

// Options configure a backend at construction time.
type Options struct {
	Clock  func() time.Time
	Leeway time.Duration
}

// Option is how options for a backend are set up.
type Option func(*Options)

// WithClock sets the time source used for iat stamping and time based claim
// validation. Defaults to time.Now.
func WithClock(clock func() time.Time) Option {
	return func(o *Options) {
		if clock != nil {
			o.Clock = clock
		}
	}
}

// WithLeeway sets the tolerance applied to exp, nbf and iat.
func WithLeeway(leeway time.Duration) Option {
	return func(o *Options) {
		if leeway > 0 {
			o.Leeway = leeway
		}
	}
}

// NewOptions applies opts over the defaults.
func NewOptions(opts ...Option) Options {
	o := Options{Clock: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// VerifyOptions are per-call verification settings.
type VerifyOptions struct {
	// Algorithms restricts the accepted "alg" header values. When empty the
	// set returned by DefaultAlgorithms for the key is used.
	Algorithms []SignatureAlgorithm
}

// VerifyOption configures a single Verify call.
type VerifyOption func(*VerifyOptions)

// WithAlgorithms restricts the algorithms a token may be signed with.
func WithAlgorithms(algs ...SignatureAlgorithm) VerifyOption {
	return func(o *VerifyOptions) {
		o.Algorithms = append([]SignatureAlgorithm(nil), algs...)
	}
}

// NewVerifyOptions applies opts and resolves the algorithm set for key.
func NewVerifyOptions(key any, opts ...VerifyOption) VerifyOptions {
	var o VerifyOptions
	for _, opt := range opts {
		opt(&o)
	}
	if len(o.Algorithms) == 0 {
		o.Algorithms = DefaultAlgorithms(key)
	}
	return o
}

// SignOptions are per-call signing settings.
type SignOptions struct {
	Algorithm   SignatureAlgorithm
	NoTimestamp bool
}

// SignOption configures a single Sign call.
type SignOption func(*SignOptions)

// WithSigningAlgorithm selects the algorithm used by Sign.
func WithSigningAlgorithm(alg SignatureAlgorithm) SignOption {
	return func(o *SignOptions) {
		o.Algorithm = alg
	}
}

// WithoutTimestamp disables automatic iat stamping of object payloads.
func WithoutTimestamp() SignOption {
	return func(o *SignOptions) {
		o.NoTimestamp = true
	}
}

// NewSignOptions applies opts and resolves the signing algorithm for key.
func NewSignOptions(key any, opts ...SignOption) SignOptions {
	var o SignOptions
	for _, opt := range opts {
		opt(&o)
	}
	if o.Algorithm == "" {
		o.Algorithm = DefaultSigningAlgorithm(key)
	}
	return o
}
