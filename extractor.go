package jwtstrategy

import (
	"context"
	"errors"
	"net/http"
	"strings"
)

// TokenExtractor is a function that takes a request as input and returns
// either a token or an error. An error should only be returned if an attempt
// to specify a token was found, but the information was somehow incorrectly
// formed. In the case where a token is simply not present, this should not
// be treated as an error. An empty string should be returned in that case.
//
// Extractors may block, e.g. to look a token up remotely, and should honour
// ctx when they do.
type TokenExtractor func(ctx context.Context, r *http.Request) (string, error)

// ErrInvalidAuthHeader is returned by BearerTokenExtractor for an
// Authorization header that is not of the form "Bearer <token>".
var ErrInvalidAuthHeader = errors.New("Authorization header format must be Bearer {token}")

// AuthHeaderTokenExtractor is the default TokenExtractor. It splits the
// Authorization header on whitespace and returns the second field, so the
// scheme itself is not checked.
func AuthHeaderTokenExtractor(_ context.Context, r *http.Request) (string, error) {
	parts := strings.Fields(r.Header.Get("Authorization"))
	if len(parts) < 2 {
		return "", nil // No error, just no token.
	}
	return parts[1], nil
}

// BearerTokenExtractor is a stricter TokenExtractor that requires the
// header to be exactly "Bearer <token>".
func BearerTokenExtractor(_ context.Context, r *http.Request) (string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", nil
	}

	parts := strings.Fields(authHeader)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", ErrInvalidAuthHeader
	}
	return parts[1], nil
}

// CookieTokenExtractor builds a TokenExtractor that takes a request and
// extracts the token from the cookie using the passed in cookieName.
func CookieTokenExtractor(cookieName string) TokenExtractor {
	return func(_ context.Context, r *http.Request) (string, error) {
		cookie, err := r.Cookie(cookieName)
		if errors.Is(err, http.ErrNoCookie) {
			return "", nil // No cookie, then no token, so no error.
		}
		if err != nil {
			return "", err
		}
		return cookie.Value, nil
	}
}

// ParameterTokenExtractor returns a TokenExtractor that extracts
// the token from the specified query string parameter.
func ParameterTokenExtractor(param string) TokenExtractor {
	return func(_ context.Context, r *http.Request) (string, error) {
		return r.URL.Query().Get(param), nil
	}
}

// MultiTokenExtractor returns a TokenExtractor that runs multiple TokenExtractors
// and takes the one that does not return an empty token. If a TokenExtractor
// returns an error that error is immediately returned.
func MultiTokenExtractor(extractors ...TokenExtractor) TokenExtractor {
	return func(ctx context.Context, r *http.Request) (string, error) {
		for _, ex := range extractors {
			token, err := ex(ctx, r)
			if err != nil {
				return "", err
			}

			if token != "" {
				return token, nil
			}
		}
		return "", nil
	}
}
