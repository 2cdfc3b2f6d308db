package jwtstrategy

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Failure messages produced by the strategy itself.
const (
	MessageMissingToken = "Format is Authorization: Bearer [token]"
	MessageInvalidToken = "Invalid token"
	MessageUnknownError = "Unknown error"
)

// FailureKind tags the stage of Authenticate that produced a Failure.
type FailureKind string

const (
	// FailureExtraction is an error raised by the token extractor.
	FailureExtraction FailureKind = "extraction"
	// FailureMissingToken means the request carried no token.
	FailureMissingToken FailureKind = "missing_token"
	// FailureVerification is an error raised by the TokenVerifier.
	FailureVerification FailureKind = "verification"
	// FailureInvalidToken means the TokenVerifier produced no result.
	FailureInvalidToken FailureKind = "invalid_token"
	// FailureCallback is an error raised by the VerifyFunc.
	FailureCallback FailureKind = "callback"
)

// Failure is the uniform shape every failed authentication is reduced to.
// Cause is nil for FailureMissingToken and FailureInvalidToken.
type Failure struct {
	Kind    FailureKind
	Message string
	Cause   error
}

// Outcome is the terminal result of the authentication pipeline: either a
// user or a Failure, never both.
type Outcome[U any] struct {
	User    U
	Failure *Failure
}

// OK reports whether the outcome is a success.
func (o Outcome[U]) OK() bool {
	return o.Failure == nil
}

func succeeded[U any](user U) Outcome[U] {
	return Outcome[U]{User: user}
}

func failed[U any](kind FailureKind, message string, cause error) Outcome[U] {
	return Outcome[U]{Failure: &Failure{Kind: kind, Message: message, Cause: cause}}
}

func classified[U any](kind FailureKind, v any) Outcome[U] {
	message, cause := Classify(v)
	return failed[U](kind, message, cause)
}

// Classify maps a failure value to a message and a cause.
//
// An error keeps its own message and is returned as the cause unchanged.
// A string becomes the message and the cause is a new error with the same
// text. Anything else yields MessageUnknownError with a cause holding the
// value serialized as indented JSON.
func Classify(v any) (string, error) {
	switch e := v.(type) {
	case error:
		return e.Error(), e
	case string:
		return e, errors.New(e)
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return MessageUnknownError, fmt.Errorf("%#v", v)
	}
	return MessageUnknownError, errors.New(strings.TrimSuffix(buf.String(), "\n"))
}
