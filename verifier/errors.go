package verifier

import "errors"

// Sentinel errors for token verification. Every *VerificationError matches
// ErrTokenInvalid and the sentinel of its code through errors.Is.
var (
	// ErrTokenInvalid is matched by every verification failure.
	ErrTokenInvalid = errors.New("token invalid")

	ErrTokenMalformed      = errors.New("token malformed")
	ErrInvalidSignature    = errors.New("token signature invalid")
	ErrAlgorithmNotAllowed = errors.New("token signing algorithm not allowed")
	ErrTokenExpired        = errors.New("token expired")
	ErrTokenNotYetValid    = errors.New("token not yet valid")
	ErrInvalidClaims       = errors.New("token claims invalid")
	ErrKeyInvalid          = errors.New("verification key invalid")
)

// Error codes
const (
	ErrorCodeTokenMalformed   = "token_malformed"
	ErrorCodeInvalidSignature = "invalid_signature"
	ErrorCodeInvalidAlgorithm = "invalid_algorithm"
	ErrorCodeTokenExpired     = "token_expired"
	ErrorCodeTokenNotYetValid = "token_not_yet_valid"
	ErrorCodeInvalidClaims    = "invalid_claims"
	ErrorCodeKeyInvalid       = "key_invalid"
)

var sentinels = map[string]error{
	ErrorCodeTokenMalformed:   ErrTokenMalformed,
	ErrorCodeInvalidSignature: ErrInvalidSignature,
	ErrorCodeInvalidAlgorithm: ErrAlgorithmNotAllowed,
	ErrorCodeTokenExpired:     ErrTokenExpired,
	ErrorCodeTokenNotYetValid: ErrTokenNotYetValid,
	ErrorCodeInvalidClaims:    ErrInvalidClaims,
	ErrorCodeKeyInvalid:       ErrKeyInvalid,
}

// VerificationError wraps a backend failure with a machine-readable code.
// Backends always return this type so callers can classify failures without
// knowing which JWT library is in use.
type VerificationError struct {
	// Code is a machine-readable error code (e.g., "token_expired", "invalid_signature")
	Code string

	// Message is a human-readable error message
	Message string

	// Details contains the underlying error
	Details error
}

// Error implements the error interface.
func (e *VerificationError) Error() string {
	if e.Details != nil {
		return e.Message + ": " + e.Details.Error()
	}
	return e.Message
}

// Unwrap returns the underlying error for error unwrapping.
func (e *VerificationError) Unwrap() error {
	return e.Details
}

// Is allows the error to be compared with ErrTokenInvalid and the sentinel
// matching its code.
func (e *VerificationError) Is(target error) bool {
	if target == ErrTokenInvalid {
		return true
	}
	sentinel, ok := sentinels[e.Code]
	return ok && target == sentinel
}

// NewVerificationError creates a new VerificationError with the given code and message.
func NewVerificationError(code, message string, details error) *VerificationError {
	return &VerificationError{
		Code:    code,
		Message: message,
		Details: details,
	}
}

// AsVerificationError returns err as a *VerificationError. Errors produced
// elsewhere are wrapped with fallbackCode.
func AsVerificationError(err error, fallbackCode string) *VerificationError {
	var verr *VerificationError
	if errors.As(err, &verr) {
		return verr
	}
	return NewVerificationError(fallbackCode, "token verification failed", err)
}
