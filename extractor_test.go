package jwtstrategy

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_AuthHeaderTokenExtractor(t *testing.T) {
	testCases := []struct {
		name      string
		header    string
		wantToken string
	}{
		{name: "no header"},
		{name: "bearer token", header: "Bearer i-am-a-token", wantToken: "i-am-a-token"},
		{name: "scheme is not checked", header: "Token i-am-a-token", wantToken: "i-am-a-token"},
		{name: "extra whitespace", header: "  Bearer   i-am-a-token ", wantToken: "i-am-a-token"},
		{name: "scheme only", header: "Bearer"},
		{name: "token only", header: "i-am-a-token"},
		{name: "extra fields", header: "Bearer i-am-a-token trailing", wantToken: "i-am-a-token"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "https://example.com", nil)
			if tc.header != "" {
				r.Header.Set("Authorization", tc.header)
			}

			token, err := AuthHeaderTokenExtractor(context.Background(), r)
			require.NoError(t, err)
			assert.Equal(t, tc.wantToken, token)
		})
	}
}

func Test_BearerTokenExtractor(t *testing.T) {
	testCases := []struct {
		name      string
		header    string
		wantToken string
		wantError error
	}{
		{name: "no header"},
		{name: "bearer token", header: "Bearer i-am-a-token", wantToken: "i-am-a-token"},
		{name: "lowercase scheme", header: "bearer i-am-a-token", wantToken: "i-am-a-token"},
		{name: "other scheme", header: "Basic dXNlcjpwYXNz", wantError: ErrInvalidAuthHeader},
		{name: "too many fields", header: "Bearer a b", wantError: ErrInvalidAuthHeader},
		{name: "scheme only", header: "Bearer", wantError: ErrInvalidAuthHeader},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "https://example.com", nil)
			if tc.header != "" {
				r.Header.Set("Authorization", tc.header)
			}

			token, err := BearerTokenExtractor(context.Background(), r)
			assert.ErrorIs(t, err, tc.wantError)
			assert.Equal(t, tc.wantToken, token)
		})
	}
}

func Test_CookieTokenExtractor(t *testing.T) {
	testCases := []struct {
		name      string
		cookie    *http.Cookie
		wantToken string
	}{
		{name: "no cookie"},
		{name: "cookie with token", cookie: &http.Cookie{Name: "token", Value: "i-am-a-token"}, wantToken: "i-am-a-token"},
		{name: "other cookie", cookie: &http.Cookie{Name: "other", Value: "i-am-a-token"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "https://example.com", nil)
			if tc.cookie != nil {
				r.AddCookie(tc.cookie)
			}

			token, err := CookieTokenExtractor("token")(context.Background(), r)
			require.NoError(t, err)
			assert.Equal(t, tc.wantToken, token)
		})
	}
}

func Test_ParameterTokenExtractor(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "https://example.com/?access_token=i-am-a-token", nil)

	token, err := ParameterTokenExtractor("access_token")(context.Background(), r)
	require.NoError(t, err)
	assert.Equal(t, "i-am-a-token", token)

	token, err = ParameterTokenExtractor("missing")(context.Background(), r)
	require.NoError(t, err)
	assert.Empty(t, token)
}

func Test_MultiTokenExtractor(t *testing.T) {
	noopExtractor := func(context.Context, *http.Request) (string, error) { return "", nil }
	extractor := func(token string) TokenExtractor {
		return func(context.Context, *http.Request) (string, error) { return token, nil }
	}
	errorExtractor := func(context.Context, *http.Request) (string, error) {
		return "", errors.New("extraction failure")
	}

	testCases := []struct {
		name       string
		extractors []TokenExtractor
		wantToken  string
		wantError  string
	}{
		{name: "no extractors"},
		{name: "first token wins", extractors: []TokenExtractor{noopExtractor, extractor("a"), extractor("b")}, wantToken: "a"},
		{name: "no token", extractors: []TokenExtractor{noopExtractor, noopExtractor}},
		{name: "error stops the chain", extractors: []TokenExtractor{errorExtractor, extractor("a")}, wantError: "extraction failure"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			token, err := MultiTokenExtractor(tc.extractors...)(context.Background(), httptest.NewRequest(http.MethodGet, "/", nil))
			if tc.wantError != "" {
				assert.EqualError(t, err, tc.wantError)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.wantToken, token)
		})
	}
}
