package jwtgrpc

import (
	"context"

	jwtstrategy "github.com/auth0/go-jwt-strategy"
)

// Option defines a functional option for configuring the interceptors.
type Option func(*config)

// WithErrorHandler sets a custom gRPC error handler. It receives the error
// returned by Authenticate and returns the error sent to the client.
func WithErrorHandler(handler func(ctx context.Context, err error) error) Option {
	return func(cfg *config) {
		cfg.errorHandler = handler
	}
}

// WithExcludedMethods allows configuring a list of gRPC methods to exclude from authentication.
func WithExcludedMethods(methods ...string) Option {
	methodSet := make(map[string]struct{}, len(methods))
	for _, m := range methods {
		methodSet[m] = struct{}{}
	}
	return func(cfg *config) {
		cfg.exclusionChecker = func(method string) bool {
			_, ok := methodSet[method]
			return ok
		}
	}
}

// WithExclusionChecker allows configuring a custom exclusion checker for gRPC methods.
func WithExclusionChecker(checker func(string) bool) Option {
	return func(cfg *config) {
		cfg.exclusionChecker = checker
	}
}

// WithAuthenticateOptions sets the options passed to Authenticate.
func WithAuthenticateOptions(opts jwtstrategy.AuthenticateOptions) Option {
	return func(cfg *config) {
		cfg.authOptions = opts
	}
}

// WithContextFunc derives AuthenticateOptions.Context from each call.
func WithContextFunc(fn func(ctx context.Context, method string) any) Option {
	return func(cfg *config) {
		cfg.contextFunc = fn
	}
}
