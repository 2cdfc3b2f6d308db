// Package jwtecho authenticates echo requests with a jwtstrategy.Strategy.
package jwtecho

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	jwtstrategy "github.com/auth0/go-jwt-strategy"
)

// DefaultUserKey is the echo context key the authenticated user is stored
// under.
var DefaultUserKey = "user"

// echoMiddlewareConfig holds all configuration for the middleware
type echoMiddlewareConfig struct {
	errorHandler func(echo.Context, error) error
	userKey      string
	authOptions  jwtstrategy.AuthenticateOptions
	skipper      func(echo.Context) bool
	contextFunc  func(echo.Context) any
}

// Option is a function that configures the middleware
type Option func(*echoMiddlewareConfig)

// WithErrorHandler sets a custom error handler. Its return value is
// returned from the middleware.
func WithErrorHandler(handler func(echo.Context, error) error) Option {
	return func(config *echoMiddlewareConfig) {
		config.errorHandler = handler
	}
}

// WithUserKey sets a custom context key to store the user
func WithUserKey(key string) Option {
	return func(config *echoMiddlewareConfig) {
		config.userKey = key
	}
}

// WithAuthenticateOptions sets the options passed to Authenticate.
func WithAuthenticateOptions(opts jwtstrategy.AuthenticateOptions) Option {
	return func(config *echoMiddlewareConfig) {
		config.authOptions = opts
	}
}

// WithSkipper skips authentication for requests it returns true for.
func WithSkipper(skipper func(echo.Context) bool) Option {
	return func(config *echoMiddlewareConfig) {
		config.skipper = skipper
	}
}

// WithContextFunc derives AuthenticateOptions.Context from each request.
func WithContextFunc(fn func(echo.Context) any) Option {
	return func(config *echoMiddlewareConfig) {
		config.contextFunc = fn
	}
}

// New returns echo middleware that authenticates every request with s.
func New[U any](s *jwtstrategy.Strategy[U], opts ...Option) echo.MiddlewareFunc {
	config := &echoMiddlewareConfig{
		errorHandler: defaultEchoErrorHandler,
		userKey:      DefaultUserKey,
	}
	for _, opt := range opts {
		opt(config)
	}
	if config.authOptions.Name == "" {
		config.authOptions.Name = s.Name()
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if config.skipper != nil && config.skipper(c) {
				return next(c)
			}

			r := c.Request()
			authOpts := config.authOptions
			if config.contextFunc != nil {
				authOpts.Context = config.contextFunc(c)
			}
			user, err := s.Authenticate(r.Context(), r, nil, authOpts)
			if err != nil {
				return config.errorHandler(c, err)
			}

			c.Set(config.userKey, user)
			c.SetRequest(r.WithContext(jwtstrategy.WithUser(r.Context(), user)))
			return next(c)
		}
	}
}

// defaultEchoErrorHandler turns authentication failures into an
// *echo.HTTPError so the echo error handler writes the response.
func defaultEchoErrorHandler(_ echo.Context, err error) error {
	var (
		authErr *jwtstrategy.AuthorizationError
		respErr *jwtstrategy.ResponseError
	)
	switch {
	case errors.As(err, &respErr):
		return echo.NewHTTPError(respErr.StatusCode, respErr.Message).SetInternal(err)
	case errors.As(err, &authErr):
		return echo.NewHTTPError(http.StatusUnauthorized, authErr.Message).SetInternal(err)
	case errors.Is(err, jwtstrategy.ErrUnauthorized):
		return echo.NewHTTPError(http.StatusUnauthorized).SetInternal(err)
	}
	return echo.NewHTTPError(http.StatusInternalServerError).SetInternal(err)
}

// GetUser extracts the authenticated user from the echo context
func GetUser[U any](c echo.Context, key string) (U, bool) {
	if key == "" {
		key = DefaultUserKey
	}
	user, ok := c.Get(key).(U)
	return user, ok
}
