package chat

import "errors"

// Error codes surfaced to clients in error messages.
const (
	CodeInvalidFormat = "INVALID_MESSAGE_FORMAT"
	CodeUnknownType   = "UNKNOWN_MESSAGE_TYPE"
)

// ErrUnknownType marks a message whose tag matches no known variant.
var ErrUnknownType = errors.New("unknown message type")

// DispatchError describes why an inbound payload was rejected. It is
// reported back to the offending connection only.
type DispatchError struct {
	Code    string
	Message string
}

func (e *DispatchError) Error() string {
	return e.Message
}
