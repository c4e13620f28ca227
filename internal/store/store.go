package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// Room represents a persisted chat room.
type Room struct {
	ID           int64
	Code         string
	Name         string
	Active       bool
	CreatedAt    time.Time
	LastActivity time.Time
}

// Record represents a persisted chat message.
type Record struct {
	ID        int64
	RoomCode  string
	Username  string
	Type      string
	Content   string
	FileURL   string
	CreatedAt time.Time
	Deleted   bool
}

// RoomStore handles room persistence.
type RoomStore interface {
	// CreateRoom creates a new room under the given unique code.
	CreateRoom(ctx context.Context, code, name string) (*Room, error)

	// RoomByCode retrieves a room by its code. Returns ErrNotFound if absent.
	RoomByCode(ctx context.Context, code string) (*Room, error)

	// ListActiveRooms lists all active rooms, newest first.
	ListActiveRooms(ctx context.Context) ([]*Room, error)

	// EnsureRoom creates the room if it does not exist and refreshes its
	// last-activity time if it does.
	EnsureRoom(ctx context.Context, code string) error
}

// UserStore handles user persistence.
type UserStore interface {
	// EnsureUser creates an anonymous user row if one does not exist.
	EnsureUser(ctx context.Context, username string) error
}

// MessageStore handles message persistence.
type MessageStore interface {
	// AppendMessage persists a message and returns the stored record with
	// its assigned ID.
	AppendMessage(ctx context.Context, rec *Record) (*Record, error)

	// RecentMessages returns up to limit non-deleted records for a room,
	// most recent first.
	RecentMessages(ctx context.Context, roomCode string, limit int) ([]*Record, error)
}

// Store aggregates all storage interfaces.
type Store interface {
	RoomStore
	UserStore
	MessageStore

	// Close closes the underlying database connection.
	Close() error
}
