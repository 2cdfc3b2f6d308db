package jwtstrategy

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/auth0/go-jwt-strategy/verifier"
)

// StrategyName is the name every Strategy reports.
const StrategyName = "jwt"

// VerifyParams is handed to the VerifyFunc for every verified token.
type VerifyParams struct {
	// Payload is the decoded token: map[string]any or string.
	Payload any

	// Context is AuthenticateOptions.Context, nil when none was supplied.
	Context any
}

// VerifyFunc resolves the user for a verified token. A returned error, or a
// value passed to panic, fails the authentication; see Classify for how it
// is reported.
type VerifyFunc[U any] func(ctx context.Context, params VerifyParams) (U, error)

// Strategy authenticates requests carrying a JWT bearer token.
//
// A Strategy holds only immutable configuration and is safe for concurrent
// use.
type Strategy[U any] struct {
	verify     VerifyFunc[U]
	secret     any
	algorithms []verifier.SignatureAlgorithm
	extractor  TokenExtractor
	verifier   verifier.TokenVerifier
	host       Host[U]
	logger     Logger
	metrics    Metrics
	tracer     Tracer
}

// New constructs a Strategy that resolves users with verify.
// WithSecret and WithVerifier are required.
//
// Example:
//
//	strategy, err := jwtstrategy.New(
//	    func(ctx context.Context, p jwtstrategy.VerifyParams) (*User, error) {
//	        claims, _ := p.Payload.(map[string]any)
//	        return users.Find(ctx, claims["sub"])
//	    },
//	    jwtstrategy.WithVerifier(jwtgo.New()),
//	    jwtstrategy.WithSecret(os.Getenv("JWT_SECRET")),
//	    jwtstrategy.WithAlgorithms(verifier.HS256),
//	)
func New[U any](verify VerifyFunc[U], opts ...Option) (*Strategy[U], error) {
	if verify == nil {
		return nil, fmt.Errorf("invalid strategy configuration: %w", ErrVerifyFuncNil)
	}

	o := &options{}
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, fmt.Errorf("invalid option: %w", err)
		}
	}

	if err := o.validate(); err != nil {
		return nil, fmt.Errorf("invalid strategy configuration: %w", err)
	}

	s := &Strategy[U]{
		verify:     verify,
		secret:     o.secret,
		algorithms: o.algorithms,
		extractor:  o.extractor,
		verifier:   o.verifier,
		logger:     o.logger,
		metrics:    o.metrics,
		tracer:     o.tracer,
	}

	switch h := o.host.(type) {
	case nil:
		s.host = DefaultHost[U]{}
	case Host[U]:
		s.host = h
	default:
		return nil, fmt.Errorf("invalid strategy configuration: %w: %T", ErrHostType, o.host)
	}

	if len(s.algorithms) == 0 {
		s.algorithms = verifier.DefaultAlgorithms(s.secret)
		if len(s.algorithms) == 0 {
			return nil, fmt.Errorf("invalid strategy configuration: no signature algorithms can be used with a secret of type %T", s.secret)
		}
	}
	if s.extractor == nil {
		s.extractor = AuthHeaderTokenExtractor
	}
	if s.metrics == nil {
		s.metrics = &NoopMetrics{}
	}
	if s.tracer == nil {
		s.tracer = &NoopTracer{}
	}

	return s, nil
}

func (o *options) validate() error {
	if o.verifier == nil {
		return ErrVerifierNil
	}
	if o.secret == nil {
		return ErrSecretMissing
	}
	return nil
}

// Name returns the name of the strategy, "jwt".
func (s *Strategy[U]) Name() string {
	return StrategyName
}

// Algorithms returns the signing algorithms the strategy accepts.
func (s *Strategy[U]) Algorithms() []verifier.SignatureAlgorithm {
	return append([]verifier.SignatureAlgorithm(nil), s.algorithms...)
}

// Authenticate extracts the token from r, verifies it, resolves the user
// through the VerifyFunc and reports the outcome to the Host. Whatever the
// Host returns is returned unchanged.
func (s *Strategy[U]) Authenticate(ctx context.Context, r *http.Request, session Session, opts AuthenticateOptions) (U, error) {
	ctx, span := s.tracer.StartSpan(ctx, "jwtstrategy.Authenticate")
	defer span.Finish()

	start := time.Now()
	out := s.evaluate(ctx, r, opts)
	s.observe(r, span, out, time.Since(start))

	if out.Failure != nil {
		return s.host.Failure(ctx, out.Failure.Message, r, session, opts, out.Failure.Cause)
	}
	return s.host.Success(ctx, out.User, r, session, opts)
}

// evaluate runs extraction, verification and the callback. A panic in any
// of them is recovered and classified under the stage that raised it.
func (s *Strategy[U]) evaluate(ctx context.Context, r *http.Request, opts AuthenticateOptions) (out Outcome[U]) {
	stage := FailureExtraction
	defer func() {
		if v := recover(); v != nil {
			out = classified[U](stage, v)
		}
	}()

	token, err := s.extractor(ctx, r)
	if err != nil {
		return classified[U](FailureExtraction, err)
	}
	if token == "" {
		return failed[U](FailureMissingToken, MessageMissingToken, nil)
	}

	stage = FailureVerification
	claims, err := s.verifier.Verify(ctx, token, s.secret, verifier.WithAlgorithms(s.algorithms...))
	if err != nil {
		return classified[U](FailureVerification, err)
	}
	if claims == nil {
		return failed[U](FailureInvalidToken, MessageInvalidToken, nil)
	}

	stage = FailureCallback
	user, err := s.verify(ctx, VerifyParams{Payload: claims, Context: opts.Context})
	if err != nil {
		return classified[U](FailureCallback, err)
	}
	return succeeded(user)
}

func (s *Strategy[U]) observe(r *http.Request, span Span, out Outcome[U], duration time.Duration) {
	outcome, kind := "success", "none"
	if out.Failure != nil {
		outcome, kind = "failure", string(out.Failure.Kind)
	}

	span.SetTag("jwt.outcome", outcome)
	span.SetTag("jwt.failure_kind", kind)
	s.metrics.IncCounter(MetricAuthenticationsTotal, map[string]string{"outcome": outcome, "kind": kind})
	s.metrics.ObserveHistogram(MetricAuthenticationSecs, duration.Seconds(), map[string]string{"outcome": outcome})

	if out.Failure != nil && out.Failure.Cause != nil {
		span.RecordError(out.Failure.Cause)
	}

	if s.logger == nil {
		return
	}

	var method, path string
	if r != nil {
		method = r.Method
		if r.URL != nil {
			path = r.URL.Path
		}
	}

	switch {
	case out.Failure == nil:
		s.logger.Debug("authentication succeeded",
			"duration", duration,
			"method", method,
			"path", path)
	case out.Failure.Kind == FailureMissingToken:
		s.logger.Debug("no token found in request",
			"method", method,
			"path", path)
	default:
		s.logger.Warn("authentication failed",
			"kind", string(out.Failure.Kind),
			"error", out.Failure.Message,
			"duration", duration,
			"method", method,
			"path", path)
	}
}
