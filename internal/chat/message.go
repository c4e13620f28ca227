package chat

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// Type discriminates message variants on the wire.
type Type string

const (
	// TypeChat is a regular text message from a user.
	TypeChat Type = "message"
	// TypeJoin announces that a user entered a room.
	TypeJoin Type = "join"
	// TypeLeave announces that a user left a room.
	TypeLeave Type = "leave"
	// TypeFile announces a shared file.
	TypeFile Type = "file"
	// TypeError reports a protocol or validation error. Server-originated only.
	TypeError Type = "error"
	// TypeSystem is an operator notice. Server-originated only.
	TypeSystem Type = "system"
	// TypeTypingStart signals that a user started typing.
	TypeTypingStart Type = "typing_start"
	// TypeTypingStop signals that a user stopped typing.
	TypeTypingStop Type = "typing_stop"
)

// Severity levels for system notices.
const (
	SeverityInfo    = "info"
	SeverityWarning = "warning"
	SeveritySuccess = "success"
)

const (
	maxUsernameLen = 50
	maxContentLen  = 5000
)

// Message is the flat wire shape shared by all variants. Which fields are
// populated depends on Type; the constructors below keep tag and fields
// consistent, and Validate enforces the per-type rules for inbound payloads.
type Message struct {
	Type      Type       `json:"type"`
	Username  string     `json:"username,omitempty"`
	Content   string     `json:"content,omitempty"`
	Notice    string     `json:"message,omitempty"`
	RoomUsers []string   `json:"room_users,omitempty"`
	FileURL   string     `json:"file_url,omitempty"`
	FileName  string     `json:"file_name,omitempty"`
	FileSize  *int64     `json:"file_size,omitempty"`
	FileType  string     `json:"file_type,omitempty"`
	ErrorCode string     `json:"error_code,omitempty"`
	Severity  string     `json:"severity,omitempty"`
	Timestamp *time.Time `json:"timestamp,omitempty"`
}

// Ephemeral reports whether the variant is never written to durable history.
func (m *Message) Ephemeral() bool {
	switch m.Type {
	case TypeChat, TypeFile:
		return false
	}
	return true
}

// Validate checks the per-type field rules and normalizes the message in
// place (chat bodies are trimmed). Returns ErrUnknownType for an
// unrecognized tag.
func (m *Message) Validate() error {
	v, ok := validators[m.Type]
	if !ok {
		return ErrUnknownType
	}
	return v(m)
}

var validators = map[Type]func(*Message) error{
	TypeChat:        validateChat,
	TypeJoin:        validateNotice,
	TypeLeave:       validateNotice,
	TypeFile:        validateFile,
	TypeError:       validateError,
	TypeSystem:      validateSystem,
	TypeTypingStart: validateTyping,
	TypeTypingStop:  validateTyping,
}

func validateUsername(name string) error {
	if name == "" {
		return fmt.Errorf("username is required")
	}
	if utf8.RuneCountInString(name) > maxUsernameLen {
		return fmt.Errorf("username must be at most %d characters", maxUsernameLen)
	}
	return nil
}

func validateChat(m *Message) error {
	if err := validateUsername(m.Username); err != nil {
		return err
	}
	trimmed := strings.TrimSpace(m.Content)
	if trimmed == "" {
		return fmt.Errorf("content must not be empty")
	}
	if utf8.RuneCountInString(trimmed) > maxContentLen {
		return fmt.Errorf("content must be at most %d characters", maxContentLen)
	}
	m.Content = trimmed
	return nil
}

func validateNotice(m *Message) error {
	if err := validateUsername(m.Username); err != nil {
		return err
	}
	if m.Notice == "" {
		return fmt.Errorf("message text is required")
	}
	return nil
}

func validateFile(m *Message) error {
	if err := validateUsername(m.Username); err != nil {
		return err
	}
	if m.FileURL == "" {
		return fmt.Errorf("file_url is required")
	}
	if m.FileName == "" {
		return fmt.Errorf("file_name is required")
	}
	if m.FileSize == nil {
		return fmt.Errorf("file_size is required")
	}
	if *m.FileSize < 0 {
		return fmt.Errorf("file_size must not be negative")
	}
	if m.FileType == "" {
		return fmt.Errorf("file_type is required")
	}
	return nil
}

func validateError(m *Message) error {
	if m.ErrorCode == "" {
		return fmt.Errorf("error_code is required")
	}
	if m.Notice == "" {
		return fmt.Errorf("message text is required")
	}
	return nil
}

func validateSystem(m *Message) error {
	if m.Notice == "" {
		return fmt.Errorf("message text is required")
	}
	switch m.Severity {
	case SeverityInfo, SeverityWarning, SeveritySuccess:
		return nil
	case "":
		m.Severity = SeverityInfo
		return nil
	}
	return fmt.Errorf("severity must be one of info, warning, success")
}

func validateTyping(m *Message) error {
	return validateUsername(m.Username)
}

// NewChat builds a chat message as-is, without validation.
func NewChat(username, content string, ts time.Time) Message {
	return Message{Type: TypeChat, Username: username, Content: content, Timestamp: &ts}
}

// NewJoin builds a join notice carrying the room's current member names.
func NewJoin(username string, roomUsers []string, ts time.Time) Message {
	return Message{
		Type:      TypeJoin,
		Username:  username,
		Notice:    fmt.Sprintf("%s joined the room", username),
		RoomUsers: roomUsers,
		Timestamp: &ts,
	}
}

// NewLeave builds a leave notice carrying the room's remaining member names.
func NewLeave(username string, roomUsers []string, ts time.Time) Message {
	return Message{
		Type:      TypeLeave,
		Username:  username,
		Notice:    fmt.Sprintf("%s left the room", username),
		RoomUsers: roomUsers,
		Timestamp: &ts,
	}
}

// NewFileShare builds a file-share notice.
func NewFileShare(username, fileURL, fileName string, fileSize int64, fileType string, ts time.Time) Message {
	return Message{
		Type:      TypeFile,
		Username:  username,
		FileURL:   fileURL,
		FileName:  fileName,
		FileSize:  &fileSize,
		FileType:  fileType,
		Timestamp: &ts,
	}
}

// NewError builds a server-originated error message.
func NewError(code, text string, ts time.Time) Message {
	return Message{Type: TypeError, ErrorCode: code, Notice: text, Timestamp: &ts}
}

// NewSystemNotice builds a server-originated system notice.
func NewSystemNotice(text, severity string, ts time.Time) Message {
	if severity == "" {
		severity = SeverityInfo
	}
	return Message{Type: TypeSystem, Notice: text, Severity: severity, Timestamp: &ts}
}

// NewTyping builds a typing indicator; start selects between start and stop.
func NewTyping(username string, start bool, ts time.Time) Message {
	t := TypeTypingStop
	if start {
		t = TypeTypingStart
	}
	return Message{Type: t, Username: username, Timestamp: &ts}
}
