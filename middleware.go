package jwtstrategy

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/auth0/go-jwt-strategy/session"
)

// MiddlewareOption configures Strategy.Middleware.
type MiddlewareOption func(*middleware) error

type middleware struct {
	errorHandler      ErrorHandler
	sessions          *session.Manager
	authOptions       AuthenticateOptions
	contextFunc       func(r *http.Request) any
	exclusionHandler  func(r *http.Request) bool
	validateOnOptions bool
}

// WithErrorHandler sets the handler called when authentication fails.
//
// Default: DefaultErrorHandler
func WithErrorHandler(h ErrorHandler) MiddlewareOption {
	return func(m *middleware) error {
		if h == nil {
			return ErrErrorHandlerNil
		}
		m.errorHandler = h
		return nil
	}
}

// WithSessionManager loads a session for every request, hands it to the
// Host and commits it before the response is written.
func WithSessionManager(sm *session.Manager) MiddlewareOption {
	return func(m *middleware) error {
		if sm == nil {
			return ErrSessionManagerNil
		}
		m.sessions = sm
		return nil
	}
}

// WithAuthenticateOptions sets the AuthenticateOptions passed on every
// request. An empty Name is replaced with the strategy name.
func WithAuthenticateOptions(opts AuthenticateOptions) MiddlewareOption {
	return func(m *middleware) error {
		m.authOptions = opts
		return nil
	}
}

// WithContextFunc derives AuthenticateOptions.Context from each request.
func WithContextFunc(fn func(r *http.Request) any) MiddlewareOption {
	return func(m *middleware) error {
		if fn == nil {
			return ErrContextFuncNil
		}
		m.contextFunc = fn
		return nil
	}
}

// WithExclusionURLs configures URL patterns to exclude from authentication.
// URLs can be full URLs or just paths.
func WithExclusionURLs(exclusions ...string) MiddlewareOption {
	return func(m *middleware) error {
		if len(exclusions) == 0 {
			return ErrExclusionURLsEmpty
		}
		m.exclusionHandler = func(r *http.Request) bool {
			for _, exclusion := range exclusions {
				if r.URL.String() == exclusion || r.URL.Path == exclusion {
					return true
				}
			}
			return false
		}
		return nil
	}
}

// WithValidateOnOptions sets whether OPTIONS requests are authenticated.
//
// Default: true
func WithValidateOnOptions(value bool) MiddlewareOption {
	return func(m *middleware) error {
		m.validateOnOptions = value
		return nil
	}
}

// Sentinel errors for middleware configuration
var (
	ErrErrorHandlerNil    = errors.New("errorHandler cannot be nil")
	ErrSessionManagerNil  = errors.New("session manager cannot be nil")
	ErrContextFuncNil     = errors.New("context func cannot be nil")
	ErrExclusionURLsEmpty = errors.New("exclusion URLs list cannot be empty")
)

// Middleware returns net/http middleware that authenticates every request
// with the strategy and stores the user in the request context, where
// UserFromContext can read it.
func (s *Strategy[U]) Middleware(opts ...MiddlewareOption) (func(http.Handler) http.Handler, error) {
	m := &middleware{
		errorHandler:      DefaultErrorHandler,
		validateOnOptions: true,
	}
	for _, opt := range opts {
		if err := opt(m); err != nil {
			return nil, fmt.Errorf("invalid option: %w", err)
		}
	}
	if m.authOptions.Name == "" {
		m.authOptions.Name = s.Name()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if m.exclusionHandler != nil && m.exclusionHandler(r) {
				if s.logger != nil {
					s.logger.Debug("skipping authentication for excluded URL",
						"method", r.Method,
						"path", r.URL.Path)
				}
				next.ServeHTTP(w, r)
				return
			}
			if !m.validateOnOptions && r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			ctx := r.Context()
			authOpts := m.authOptions
			if m.contextFunc != nil {
				authOpts.Context = m.contextFunc(r)
			}

			var sess Session
			var loaded *session.Session
			if m.sessions != nil {
				var err error
				loaded, err = m.sessions.Load(ctx, r)
				if err != nil {
					if s.logger != nil {
						s.logger.Error("failed to load session", "error", err)
					}
					m.errorHandler(w, r, fmt.Errorf("error loading session: %w", err))
					return
				}
				sess = loaded
			}

			user, err := s.Authenticate(ctx, r, sess, authOpts)

			if loaded != nil {
				if cerr := m.sessions.Commit(ctx, w, loaded); cerr != nil {
					if s.logger != nil {
						s.logger.Error("failed to commit session", "error", cerr)
					}
					if err == nil {
						m.errorHandler(w, r, fmt.Errorf("error committing session: %w", cerr))
						return
					}
				}
			}

			if err != nil {
				m.errorHandler(w, r, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(ctx, user)))
		})
	}, nil
}
