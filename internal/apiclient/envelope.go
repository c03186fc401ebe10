package apiclient

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Envelope is the platform's response wrapper: {success, message, data}.
type Envelope struct {
	Success *bool           `json:"success,omitempty"`
	Message string          `json:"message,omitempty"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Failed reports whether the server explicitly flagged the call as failed.
func (e Envelope) Failed() bool {
	return e.Success != nil && !*e.Success
}

// DecodeEnvelope is the single place response bodies are interpreted.
// An object carrying a "data" member yields that member as payload. An
// object without one is itself the payload, as is any non-object JSON.
// Nested data members are left as the caller's type describes them.
func DecodeEnvelope(body []byte) (Envelope, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return Envelope{}, nil
	}
	if !json.Valid(trimmed) {
		return Envelope{}, fmt.Errorf("%w: invalid json", ErrMalformedResponse)
	}
	if trimmed[0] != '{' {
		return Envelope{Data: json.RawMessage(trimmed)}, nil
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &fields); err != nil {
		return Envelope{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	var env Envelope
	if raw, ok := fields["success"]; ok {
		var success bool
		if err := json.Unmarshal(raw, &success); err != nil {
			return Envelope{}, fmt.Errorf("%w: success is not a boolean", ErrMalformedResponse)
		}
		env.Success = &success
	}
	if raw, ok := fields["message"]; ok {
		if err := json.Unmarshal(raw, &env.Message); err != nil {
			return Envelope{}, fmt.Errorf("%w: message is not a string", ErrMalformedResponse)
		}
	}
	if raw, ok := fields["error"]; ok {
		if err := json.Unmarshal(raw, &env.Error); err != nil {
			return Envelope{}, fmt.Errorf("%w: error is not a string", ErrMalformedResponse)
		}
	}

	if raw, ok := fields["data"]; ok {
		env.Data = raw
	} else {
		env.Data = json.RawMessage(trimmed)
	}
	return env, nil
}

// Decode unmarshals the envelope payload into T. A missing or null payload
// yields T's zero value.
func Decode[T any](env Envelope) (T, error) {
	var out T
	data := bytes.TrimSpace(env.Data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return out, nil
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return out, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return out, nil
}
