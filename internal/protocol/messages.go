// Package protocol defines the update-channel message shapes exchanged
// between non-authority clients and the elected authority, and validates
// inbound messages against an embedded JSON Schema.
package protocol

import "encoding/json"

// Message types. "update" carries a partial state document in Data; the
// legacy module variant uses "updateData"/"overrideData" with Payload.
// "state" is the authority's broadcast of the full snapshot.
const (
	TypeUpdate       = "update"
	TypeUpdateData   = "updateData"
	TypeOverrideData = "overrideData"
	TypeState        = "state"
)

// UpdateMsg is an inbound channel message.
type UpdateMsg struct {
	Type     string          `json:"type"`
	Data     json.RawMessage `json:"data,omitempty"`
	Payload  json.RawMessage `json:"payload,omitempty"`
	SenderID string          `json:"senderId,omitempty"`
}

// Partial returns the partial-state document the message carries,
// normalizing over the two wire variants.
func (m UpdateMsg) Partial() json.RawMessage {
	switch m.Type {
	case TypeUpdate:
		return m.Data
	case TypeUpdateData, TypeOverrideData:
		return m.Payload
	}
	return nil
}

// Override reports whether the message demands wholesale replacement
// rather than a merge.
func (m UpdateMsg) Override() bool {
	return m.Type == TypeOverrideData
}

// StateMsg is the authority's change broadcast. Observers re-render from
// the latest snapshot, so delivery only needs to be at-least-once.
type StateMsg struct {
	Type  string          `json:"type"`
	Week  int             `json:"week"`
	State json.RawMessage `json:"state"`
}

// NewStateMsg wraps a serialized snapshot for broadcast.
func NewStateMsg(week int, state json.RawMessage) StateMsg {
	return StateMsg{Type: TypeState, Week: week, State: state}
}
