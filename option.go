package jwtstrategy

import (
	"errors"
	"fmt"

	"github.com/auth0/go-jwt-strategy/verifier"
)

// Option configures a Strategy. Options are applied once by New; the
// resulting Strategy is immutable.
// Returns error for validation failures.
type Option func(*options) error

type options struct {
	secret     any
	algorithms []verifier.SignatureAlgorithm
	extractor  TokenExtractor
	verifier   verifier.TokenVerifier
	host       any
	logger     Logger
	metrics    Metrics
	tracer     Tracer
}

// WithSecret sets the key tokens are verified against (REQUIRED). It may
// be a shared secret (string or []byte), PEM encoded public key material or
// a parsed public key.
func WithSecret(key any) Option {
	return func(o *options) error {
		switch k := key.(type) {
		case nil:
			return ErrSecretMissing
		case string:
			if k == "" {
				return ErrSecretMissing
			}
		case []byte:
			if len(k) == 0 {
				return ErrSecretMissing
			}
		}
		o.secret = key
		return nil
	}
}

// WithAlgorithms restricts the signing algorithms tokens may use.
//
// Default: verifier.DefaultAlgorithms for the configured secret, resolved
// once by New.
func WithAlgorithms(algs ...verifier.SignatureAlgorithm) Option {
	return func(o *options) error {
		if len(algs) == 0 {
			return ErrAlgorithmsEmpty
		}
		for _, alg := range algs {
			if !verifier.Supported(alg) {
				return fmt.Errorf("unsupported signature algorithm %q", alg)
			}
		}
		o.algorithms = append([]verifier.SignatureAlgorithm(nil), algs...)
		return nil
	}
}

// WithTokenExtractor sets the function to extract the token from the request.
//
// Default: AuthHeaderTokenExtractor
func WithTokenExtractor(e TokenExtractor) Option {
	return func(o *options) error {
		if e == nil {
			return ErrTokenExtractorNil
		}
		o.extractor = e
		return nil
	}
}

// WithVerifier sets the TokenVerifier backend (REQUIRED).
//
// Example:
//
//	v, err := backend.New(backend.JWTGo)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	strategy, err := jwtstrategy.New(verify,
//	    jwtstrategy.WithVerifier(v),
//	    jwtstrategy.WithSecret("s3cr3t"),
//	)
func WithVerifier(v verifier.TokenVerifier) Option {
	return func(o *options) error {
		if v == nil {
			return ErrVerifierNil
		}
		o.verifier = v
		return nil
	}
}

// WithHost sets the Host that receives authentication outcomes. Its user
// type must match the Strategy's.
//
// Default: DefaultHost
func WithHost[U any](h Host[U]) Option {
	return func(o *options) error {
		if h == nil {
			return ErrHostNil
		}
		o.host = h
		return nil
	}
}

// WithLogger sets an optional logger for the strategy.
//
// The logger interface is compatible with log/slog.Logger and similar loggers.
func WithLogger(logger Logger) Option {
	return func(o *options) error {
		if logger == nil {
			return ErrLoggerNil
		}
		o.logger = logger
		return nil
	}
}

// WithMetrics sets the Metrics sink.
//
// Default: NoopMetrics
func WithMetrics(m Metrics) Option {
	return func(o *options) error {
		if m == nil {
			return ErrMetricsNil
		}
		o.metrics = m
		return nil
	}
}

// WithTracer sets the Tracer used to open one span per authentication.
//
// Default: NoopTracer
func WithTracer(t Tracer) Option {
	return func(o *options) error {
		if t == nil {
			return ErrTracerNil
		}
		o.tracer = t
		return nil
	}
}

// Sentinel errors for configuration validation
var (
	ErrVerifyFuncNil     = errors.New("verify function cannot be nil")
	ErrVerifierNil       = errors.New("verifier cannot be nil (use WithVerifier)")
	ErrSecretMissing     = errors.New("secret is required (use WithSecret)")
	ErrAlgorithmsEmpty   = errors.New("algorithms list cannot be empty")
	ErrTokenExtractorNil = errors.New("tokenExtractor cannot be nil")
	ErrHostNil           = errors.New("host cannot be nil")
	ErrHostType          = errors.New("host user type does not match the strategy")
	ErrLoggerNil         = errors.New("logger cannot be nil")
	ErrMetricsNil        = errors.New("metrics cannot be nil")
	ErrTracerNil         = errors.New("tracer cannot be nil")
)
