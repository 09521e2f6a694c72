// Package wire implements the JSON wire protocol spoken with the
// venue: one UTF-8 JSON object per message, shaped as
// {"header": {...}, "body": {...}}, with the body's concrete type
// determined solely by header.type. The codec is stateless and pure.
package wire

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	// ErrInvalidEnumCode reports an unrecognized enum code in a
	// message body. It is scoped to the single message being decoded.
	ErrInvalidEnumCode = errors.New("invalid enum code")
)

// Encode serializes an envelope to its wire form.
func Encode(env Envelope) ([]byte, error) {
	data, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s envelope: %w", env.Header.Type, err)
	}
	return data, nil
}

// Decode parses a wire message. The header is parsed first; body
// parsing dispatches on header.type. Message types the client does not
// understand keep their body as an opaque field mapping so newer venue
// builds can add types without breaking older clients.
func Decode(data []byte) (Envelope, error) {
	var raw struct {
		Header MessageHeader   `json:"header"`
		Body   json.RawMessage `json:"body"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return Envelope{}, fmt.Errorf("failed to decode envelope: %w", err)
	}

	env := Envelope{Header: raw.Header}
	if len(raw.Body) == 0 || string(raw.Body) == "null" {
		return env, nil
	}

	switch raw.Header.Type {
	case MsgNewOrder:
		var body NewOrderRequest
		if err := json.Unmarshal(raw.Body, &body); err != nil {
			return Envelope{}, fmt.Errorf("failed to decode new order body: %w", err)
		}
		env.Body = body
	case MsgCancel:
		var body CancelRequest
		if err := json.Unmarshal(raw.Body, &body); err != nil {
			return Envelope{}, fmt.Errorf("failed to decode cancel body: %w", err)
		}
		env.Body = body
	case MsgAck:
		var body Ack
		if err := json.Unmarshal(raw.Body, &body); err != nil {
			return Envelope{}, fmt.Errorf("failed to decode ack body: %w", err)
		}
		env.Body = body
	case MsgReject:
		var body Reject
		if err := json.Unmarshal(raw.Body, &body); err != nil {
			return Envelope{}, fmt.Errorf("failed to decode reject body: %w", err)
		}
		env.Body = body
	case MsgFill:
		var body Fill
		if err := json.Unmarshal(raw.Body, &body); err != nil {
			return Envelope{}, fmt.Errorf("failed to decode fill body: %w", err)
		}
		env.Body = body
	default:
		var body map[string]any
		if err := json.Unmarshal(raw.Body, &body); err != nil {
			return Envelope{}, fmt.Errorf("failed to decode opaque body: %w", err)
		}
		env.Body = body
	}
	return env, nil
}
