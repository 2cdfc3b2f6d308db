package jwtstrategy

import (
	"context"
	"fmt"
	"net/http"
)

// Session is the per-request session collaborator handed to the host.
// *session.Session satisfies it.
type Session interface {
	Get(key string) any
	Set(key string, value any)
	Flash(key string, value any)
}

// AuthenticateOptions are the per-call settings supplied by the host
// pipeline.
type AuthenticateOptions struct {
	// Name is the name the strategy was registered under by the host.
	Name string

	// SessionKey is where a successful user is stored in the session.
	SessionKey string

	// SessionErrorKey is where the failure message is flashed.
	SessionErrorKey string

	// SessionStrategyKey is where the strategy name is stored on success.
	SessionStrategyKey string

	// ThrowOnError makes failures return an *AuthorizationError instead of a
	// response.
	ThrowOnError bool

	// Context is passed through to the VerifyFunc untouched. Leave it nil
	// when there is nothing to pass.
	Context any
}

// Host receives the outcome of Authenticate. Whatever it returns is what
// Authenticate returns, errors included.
type Host[U any] interface {
	Success(ctx context.Context, user U, r *http.Request, session Session, opts AuthenticateOptions) (U, error)
	Failure(ctx context.Context, message string, r *http.Request, session Session, opts AuthenticateOptions, cause error) (U, error)
}

// AuthorizationError is returned by DefaultHost on failure when
// ThrowOnError is set.
type AuthorizationError struct {
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *AuthorizationError) Error() string {
	return e.Message
}

// Unwrap returns the cause of the failure.
func (e *AuthorizationError) Unwrap() error {
	return e.Cause
}

// Is allows the error to be compared with ErrUnauthorized.
func (e *AuthorizationError) Is(target error) bool {
	return target == ErrUnauthorized
}

// ResponseError is returned by DefaultHost on failure when ThrowOnError is
// not set. It describes the response the transport should write.
type ResponseError struct {
	StatusCode int
	Message    string
}

// Error implements the error interface.
func (e *ResponseError) Error() string {
	return fmt.Sprintf("%d %s: %s", e.StatusCode, http.StatusText(e.StatusCode), e.Message)
}

// Is allows the error to be compared with ErrUnauthorized.
func (e *ResponseError) Is(target error) bool {
	return target == ErrUnauthorized && e.StatusCode == http.StatusUnauthorized
}

// DefaultHost is the Host used when none is configured.
//
// On success it records the user and the strategy name in the session and
// returns the user. On failure it either returns an *AuthorizationError
// (ThrowOnError) or flashes {"message": msg} under SessionErrorKey and
// returns a 401 *ResponseError.
type DefaultHost[U any] struct{}

var _ Host[any] = DefaultHost[any]{}

// Success implements Host.
func (DefaultHost[U]) Success(_ context.Context, user U, _ *http.Request, session Session, opts AuthenticateOptions) (U, error) {
	if session != nil {
		if opts.SessionKey != "" {
			session.Set(opts.SessionKey, user)
		}
		if opts.SessionStrategyKey != "" {
			session.Set(opts.SessionStrategyKey, opts.Name)
		}
	}
	return user, nil
}

// Failure implements Host.
func (DefaultHost[U]) Failure(_ context.Context, message string, _ *http.Request, session Session, opts AuthenticateOptions, cause error) (U, error) {
	var zero U
	if opts.ThrowOnError {
		return zero, &AuthorizationError{Message: message, Cause: cause}
	}
	if session != nil && opts.SessionErrorKey != "" {
		session.Flash(opts.SessionErrorKey, map[string]any{"message": message})
	}
	return zero, &ResponseError{StatusCode: http.StatusUnauthorized, Message: message}
}
