package jwtstrategy

import (
	"encoding/json"
	"errors"
	"net/http"
)

// ErrUnauthorized is matched by every authentication failure reported by
// DefaultHost, whichever mode produced it.
var ErrUnauthorized = errors.New("unauthorized")

// ErrorHandler is a handler which is called when Authenticate returns an
// error in the Middleware. It determines the response written for a failed
// authentication. The err can be checked against ErrUnauthorized or
// unwrapped into *AuthorizationError / *ResponseError for specific cases.
// The default handler will return a status code of 401 for authentication
// failures and 500 for all other errors.
type ErrorHandler func(w http.ResponseWriter, r *http.Request, err error)

// DefaultErrorHandler is the default error handler implementation for the
// Middleware. If an error handler is not provided via the WithErrorHandler
// option this will be used.
func DefaultErrorHandler(w http.ResponseWriter, r *http.Request, err error) {
	var (
		authErr *AuthorizationError
		respErr *ResponseError
	)

	switch {
	case errors.As(err, &respErr):
		writeJSONError(w, respErr.StatusCode, respErr.Message)
	case errors.As(err, &authErr):
		writeJSONError(w, http.StatusUnauthorized, authErr.Message)
	case errors.Is(err, ErrUnauthorized):
		writeJSONError(w, http.StatusUnauthorized, "Unauthorized.")
	default:
		writeJSONError(w, http.StatusInternalServerError, "Something went wrong while authenticating the request.")
	}
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	if status == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", `Bearer realm="api"`)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"message": message})
}
