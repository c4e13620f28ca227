package chat

import (
	"encoding/json"
	"errors"
	"time"
)

// Parse validates a raw inbound payload into exactly one message variant.
//
// Non-JSON input degrades to a bare chat message from the connection's known
// sender, taken as-is; this keeps plain-text clients working. A decoded
// payload without a type tag is treated as a chat message built from its
// content field. Parsing has no side effects; the caller decides whether to
// persist or broadcast the result.
func Parse(raw []byte, sender string) (Message, *DispatchError) {
	var m Message
	if err := json.Unmarshal(raw, &m); err != nil {
		if len(raw) == 0 {
			return Message{}, &DispatchError{Code: CodeInvalidFormat, Message: "empty payload"}
		}
		return NewChat(sender, string(raw), time.Now().UTC()), nil
	}

	if m.Type == "" {
		m.Type = TypeChat
	}
	if m.Username == "" {
		m.Username = sender
	}

	// Error and system notices are emitted by the server only.
	if m.Type == TypeError || m.Type == TypeSystem {
		return Message{}, &DispatchError{Code: CodeInvalidFormat, Message: "server-only message type: " + string(m.Type)}
	}

	if err := m.Validate(); err != nil {
		if errors.Is(err, ErrUnknownType) {
			return Message{}, &DispatchError{Code: CodeUnknownType, Message: "unknown message type: " + string(m.Type)}
		}
		return Message{}, &DispatchError{Code: CodeInvalidFormat, Message: err.Error()}
	}

	// Stamp at validation time, not receipt time.
	if m.Timestamp == nil {
		now := time.Now().UTC()
		m.Timestamp = &now
	}

	return m, nil
}
