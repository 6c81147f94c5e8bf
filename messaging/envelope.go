package messaging

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// NewEnvelope creates an outbound envelope with a fresh id and timestamp.
func NewEnvelope(msgType, src string, payload any) (*Envelope, error) {
	p, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &Envelope{
		Version:   Version,
		Type:      msgType,
		ID:        uuid.New().String(),
		Src:       src,
		Timestamp: time.Now().UTC(),
		Payload:   p,
	}, nil
}

// Encode marshals the envelope to JSON.
func (e *Envelope) Encode() ([]byte, error) {
	return json.Marshal(e)
}

// DecodePayload unmarshals the raw payload into target.
func (e *Envelope) DecodePayload(target any) error {
	return json.Unmarshal(e.Payload, target)
}

// DecodeEnvelope decodes in two stages: the routing header first, so an
// unsupported version or missing type is rejected before the body is read,
// then the full envelope. The payload stays raw for the handler.
func DecodeEnvelope(data []byte) (*Envelope, error) {
	var hdr RawHeader
	if err := json.Unmarshal(data, &hdr); err != nil {
		return nil, fmt.Errorf("decode header: %w", err)
	}
	if hdr.Version != Version {
		return nil, fmt.Errorf("unsupported envelope version %d", hdr.Version)
	}
	if hdr.Type == "" {
		return nil, fmt.Errorf("envelope %s has no type", hdr.ID)
	}
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}
	return &env, nil
}
