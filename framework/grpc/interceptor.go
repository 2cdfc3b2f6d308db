// Package jwtgrpc authenticates gRPC calls with a jwtstrategy.Strategy.
package jwtgrpc

import (
	"context"
	"errors"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	jwtstrategy "github.com/auth0/go-jwt-strategy"
)

type config struct {
	errorHandler     func(ctx context.Context, err error) error
	exclusionChecker func(method string) bool
	authOptions      jwtstrategy.AuthenticateOptions
	contextFunc      func(ctx context.Context, method string) any
}

// Interceptor provides unary and stream server interceptors that
// authenticate every call with a Strategy.
type Interceptor[U any] struct {
	strategy *jwtstrategy.Strategy[U]
	config   *config
}

// New creates an Interceptor for s.
func New[U any](s *jwtstrategy.Strategy[U], opts ...Option) *Interceptor[U] {
	cfg := &config{
		errorHandler: defaultErrorHandler,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.authOptions.Name == "" {
		cfg.authOptions.Name = s.Name()
	}
	return &Interceptor[U]{strategy: s, config: cfg}
}

// authenticate returns ctx carrying the authenticated user, or the error to
// send to the client.
func (i *Interceptor[U]) authenticate(ctx context.Context, method string) (context.Context, error) {
	if i.config.exclusionChecker != nil && i.config.exclusionChecker(method) {
		return ctx, nil
	}

	authOpts := i.config.authOptions
	if i.config.contextFunc != nil {
		authOpts.Context = i.config.contextFunc(ctx, method)
	}
	user, err := i.strategy.Authenticate(ctx, requestFromContext(ctx, method), nil, authOpts)
	if err != nil {
		return nil, i.config.errorHandler(ctx, err)
	}
	return jwtstrategy.WithUser(ctx, user), nil
}

// UnaryServerInterceptor returns a gRPC unary server interceptor.
func (i *Interceptor[U]) UnaryServerInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		authCtx, err := i.authenticate(ctx, info.FullMethod)
		if err != nil {
			return nil, err
		}
		return handler(authCtx, req)
	}
}

// StreamServerInterceptor returns a gRPC stream server interceptor.
func (i *Interceptor[U]) StreamServerInterceptor() grpc.StreamServerInterceptor {
	return func(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		authCtx, err := i.authenticate(ss.Context(), info.FullMethod)
		if err != nil {
			return err
		}
		return handler(srv, &wrappedServerStream{ServerStream: ss, ctx: authCtx})
	}
}

// wrappedServerStream wraps a grpc.ServerStream to override the context.
type wrappedServerStream struct {
	grpc.ServerStream
	ctx context.Context
}

// Context returns the wrapped context.
func (w *wrappedServerStream) Context() context.Context {
	return w.ctx
}

func defaultErrorHandler(_ context.Context, err error) error {
	var (
		authErr *jwtstrategy.AuthorizationError
		respErr *jwtstrategy.ResponseError
	)
	switch {
	case errors.As(err, &authErr):
		return status.Error(codes.Unauthenticated, authErr.Message)
	case errors.As(err, &respErr) && errors.Is(err, jwtstrategy.ErrUnauthorized):
		return status.Error(codes.Unauthenticated, respErr.Message)
	case errors.As(err, &respErr):
		return status.Error(codes.PermissionDenied, respErr.Message)
	case errors.Is(err, jwtstrategy.ErrUnauthorized):
		return status.Error(codes.Unauthenticated, "unauthenticated")
	}
	return status.Error(codes.Internal, "authentication failed")
}
