package verifier

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// IssuedAtKey is the reserved claim stamped onto object payloads by Sign.
const IssuedAtKey = "iat"

// DecodePayload decodes a verified JWS payload. JSON objects decode into
// map[string]any with float64 numbers and JSON strings into string. Any other
// shape is reported as ErrTokenMalformed.
func DecodePayload(data []byte) (any, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, NewVerificationError(ErrorCodeTokenMalformed, "token payload is empty", nil)
	}

	switch trimmed[0] {
	case '{':
		claims := map[string]any{}
		if err := json.Unmarshal(trimmed, &claims); err != nil {
			return nil, NewVerificationError(ErrorCodeTokenMalformed, "could not decode token payload", err)
		}
		return claims, nil
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return nil, NewVerificationError(ErrorCodeTokenMalformed, "could not decode token payload", err)
		}
		return s, nil
	default:
		return nil, NewVerificationError(
			ErrorCodeTokenMalformed,
			"token payload must be a JSON object or string",
			nil,
		)
	}
}

// PreparePayload normalizes a payload handed to Sign into either a string or
// a map[string]any. Object payloads get an iat claim set to now unless they
// already carry one or stamp is false. The input is never modified.
func PreparePayload(payload any, now time.Time, stamp bool) (any, error) {
	switch p := payload.(type) {
	case nil:
		return nil, errors.New("payload is required")
	case string:
		return p, nil
	case []byte:
		return string(p), nil
	case map[string]any:
		return stampIssuedAt(copyClaims(p), now, stamp), nil
	}

	b, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("could not encode payload: %w", err)
	}
	claims := map[string]any{}
	if err := json.Unmarshal(b, &claims); err != nil {
		return nil, fmt.Errorf("payload must encode to a JSON object: %w", err)
	}
	return stampIssuedAt(claims, now, stamp), nil
}

func copyClaims(in map[string]any) map[string]any {
	out := make(map[string]any, len(in)+1)
	for k, v := range in {
		out[k] = v
	}
	return out
}

func stampIssuedAt(claims map[string]any, now time.Time, stamp bool) map[string]any {
	if !stamp {
		return claims
	}
	if _, ok := claims[IssuedAtKey]; !ok {
		claims[IssuedAtKey] = now.Unix()
	}
	return claims
}
