// Package jwtgin authenticates gin requests with a jwtstrategy.Strategy.
package jwtgin

import (
	"errors"

	"github.com/gin-gonic/gin"

	jwtstrategy "github.com/auth0/go-jwt-strategy"
)

// DefaultUserKey is the gin context key the authenticated user is stored
// under.
const DefaultUserKey = "user"

var (
	ErrMissingUser = errors.New("no authenticated user found in context")
	ErrInvalidUser = errors.New("invalid authenticated user type")
)

type config struct {
	errorHandler func(*gin.Context, error)
	userKey      string
	authOptions  jwtstrategy.AuthenticateOptions
	contextFunc  func(*gin.Context) any
}

// Option configures the middleware returned by New.
type Option func(*config)

// WithErrorHandler sets the handler called when authentication fails. The
// handler is responsible for aborting the chain.
func WithErrorHandler(handler func(*gin.Context, error)) Option {
	return func(c *config) {
		c.errorHandler = handler
	}
}

// WithUserKey sets the gin context key the user is stored under.
func WithUserKey(key string) Option {
	return func(c *config) {
		c.userKey = key
	}
}

// WithAuthenticateOptions sets the options passed to Authenticate.
func WithAuthenticateOptions(opts jwtstrategy.AuthenticateOptions) Option {
	return func(c *config) {
		c.authOptions = opts
	}
}

// WithContextFunc derives AuthenticateOptions.Context from the gin context.
func WithContextFunc(fn func(*gin.Context) any) Option {
	return func(c *config) {
		c.contextFunc = fn
	}
}

// New returns gin middleware that authenticates every request with s. The
// user is stored under the configured key and in the request context.
func New[U any](s *jwtstrategy.Strategy[U], opts ...Option) gin.HandlerFunc {
	cfg := &config{
		errorHandler: defaultErrorHandler,
		userKey:      DefaultUserKey,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.authOptions.Name == "" {
		cfg.authOptions.Name = s.Name()
	}

	return func(c *gin.Context) {
		authOpts := cfg.authOptions
		if cfg.contextFunc != nil {
			authOpts.Context = cfg.contextFunc(c)
		}

		user, err := s.Authenticate(c.Request.Context(), c.Request, nil, authOpts)
		if err != nil {
			cfg.errorHandler(c, err)
			return
		}

		c.Set(cfg.userKey, user)
		c.Request = c.Request.WithContext(jwtstrategy.WithUser(c.Request.Context(), user))
		c.Next()
	}
}

func defaultErrorHandler(c *gin.Context, err error) {
	jwtstrategy.DefaultErrorHandler(c.Writer, c.Request, err)
	c.Abort()
}

// User returns the authenticated user stored by the middleware.
func User[U any](c *gin.Context, key string) (U, error) {
	var zero U
	if key == "" {
		key = DefaultUserKey
	}
	v, ok := c.Get(key)
	if !ok {
		return zero, ErrMissingUser
	}
	user, ok := v.(U)
	if !ok {
		return zero, ErrInvalidUser
	}
	return user, nil
}
