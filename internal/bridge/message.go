// Package bridge carries settings snapshots, audio features, scene selection
// and clock state between the primary window and a secondary output window.
// Messages are JSON lines over a plain TCP connection; every type has
// latest-value-wins semantics, so there is no acknowledgement, no buffering
// and no ordering guarantee across types.
package bridge

import (
	"encoding/json"

	"github.com/rotisserie/eris"

	"github.com/cybre/aurora-visualizer/internal/dsp"
)

// line ending terminating every encoded message
const lineEnding = "\n"

// MessageType tags one envelope of the sync protocol.
type MessageType string

// Primary -> secondary message types.
const (
	TypeSettings MessageType = "settings"
	TypeAudio    MessageType = "audio"
	TypeScene    MessageType = "scene"
	TypeTime     MessageType = "time"
)

// Secondary -> primary message types.
const (
	TypeSceneRequest MessageType = "sceneRequest"
	TypeStatus       MessageType = "status"
)

// Envelope wraps one message with its type tag.
type Envelope struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// ScenePayload carries a scene variant id.
type ScenePayload struct {
	ID string `json:"id"`
}

// TimePayload carries the primary's animation clock in seconds.
type TimePayload struct {
	Seconds float64 `json:"seconds"`
}

// StatusPayload reports whether the secondary wants frames at all.
type StatusPayload struct {
	Enabled bool `json:"enabled"`
}

// Encode marshals an envelope of the given type around payload, terminated
// by the line ending.
func Encode(msgType MessageType, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, eris.Wrapf(err, "marshal %s payload", msgType)
	}
	line, err := json.Marshal(Envelope{Type: msgType, Payload: raw})
	if err != nil {
		return nil, eris.Wrapf(err, "marshal %s envelope", msgType)
	}
	return append(line, lineEnding...), nil
}

// Decode parses one line into an envelope.
func Decode(line []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(line, &env); err != nil {
		return Envelope{}, eris.Wrap(err, "unmarshal envelope")
	}
	return env, nil
}

// DecodeAudio parses an audio payload.
func DecodeAudio(payload json.RawMessage) (dsp.Features, error) {
	var features dsp.Features
	if err := json.Unmarshal(payload, &features); err != nil {
		return dsp.Features{}, eris.Wrap(err, "unmarshal audio payload")
	}
	return features, nil
}

// DecodeSettings parses a settings snapshot payload.
func DecodeSettings(payload json.RawMessage) (map[string]any, error) {
	var snapshot map[string]any
	if err := json.Unmarshal(payload, &snapshot); err != nil {
		return nil, eris.Wrap(err, "unmarshal settings payload")
	}
	return snapshot, nil
}
