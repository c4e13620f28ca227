package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/selimd/campuschat-server/internal/store"
)

const schema = `
CREATE TABLE IF NOT EXISTS rooms (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	code          TEXT NOT NULL UNIQUE,
	name          TEXT,
	is_active     BOOLEAN NOT NULL DEFAULT 1,
	created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	last_activity DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS users (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	username     TEXT NOT NULL UNIQUE,
	is_anonymous BOOLEAN NOT NULL DEFAULT 1,
	created_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS messages (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	room_code    TEXT NOT NULL,
	username     TEXT,
	message_type TEXT NOT NULL DEFAULT 'message',
	content      TEXT,
	file_url     TEXT,
	created_at   DATETIME NOT NULL,
	is_deleted   BOOLEAN NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_messages_room_created
	ON messages (room_code, created_at);
`

// SQLiteStore implements store.Store for SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// New creates a new SQLite store at dbPath and applies the schema.
func New(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// SQLite works best with a single connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// ==== RoomStore implementation ====

// CreateRoom creates a new room under the given unique code.
func (s *SQLiteStore) CreateRoom(ctx context.Context, code, name string) (*store.Room, error) {
	query := `
		INSERT INTO rooms (code, name)
		VALUES (?, ?)
	`
	if _, err := s.db.ExecContext(ctx, query, code, name); err != nil {
		return nil, fmt.Errorf("insert room: %w", err)
	}

	return s.RoomByCode(ctx, code)
}

// RoomByCode retrieves a room by its code.
func (s *SQLiteStore) RoomByCode(ctx context.Context, code string) (*store.Room, error) {
	query := `
		SELECT id, code, COALESCE(name, ''), is_active, created_at, last_activity
		FROM rooms
		WHERE code = ?
	`
	var room store.Room
	err := s.db.QueryRowContext(ctx, query, code).Scan(
		&room.ID,
		&room.Code,
		&room.Name,
		&room.Active,
		&room.CreatedAt,
		&room.LastActivity,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("room %q: %w", code, store.ErrNotFound)
		}
		return nil, fmt.Errorf("query room: %w", err)
	}

	return &room, nil
}

// ListActiveRooms lists all active rooms, newest first.
func (s *SQLiteStore) ListActiveRooms(ctx context.Context) ([]*store.Room, error) {
	query := `
		SELECT id, code, COALESCE(name, ''), is_active, created_at, last_activity
		FROM rooms
		WHERE is_active = 1
		ORDER BY created_at DESC
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query rooms: %w", err)
	}
	defer rows.Close()

	var rooms []*store.Room
	for rows.Next() {
		var room store.Room
		if err := rows.Scan(&room.ID, &room.Code, &room.Name, &room.Active, &room.CreatedAt, &room.LastActivity); err != nil {
			return nil, fmt.Errorf("scan room: %w", err)
		}
		rooms = append(rooms, &room)
	}

	return rooms, rows.Err()
}

// EnsureRoom creates the room if absent or refreshes its last activity.
func (s *SQLiteStore) EnsureRoom(ctx context.Context, code string) error {
	query := `
		INSERT INTO rooms (code, name)
		VALUES (?, ?)
		ON CONFLICT (code) DO UPDATE SET last_activity = CURRENT_TIMESTAMP
	`
	if _, err := s.db.ExecContext(ctx, query, code, code); err != nil {
		return fmt.Errorf("ensure room: %w", err)
	}
	return nil
}

// ==== UserStore implementation ====

// EnsureUser creates an anonymous user row if one does not exist.
func (s *SQLiteStore) EnsureUser(ctx context.Context, username string) error {
	query := `
		INSERT OR IGNORE INTO users (username, is_anonymous)
		VALUES (?, 1)
	`
	if _, err := s.db.ExecContext(ctx, query, username); err != nil {
		return fmt.Errorf("ensure user: %w", err)
	}
	return nil
}

// ==== MessageStore implementation ====

// AppendMessage persists a message and returns the stored record.
func (s *SQLiteStore) AppendMessage(ctx context.Context, rec *store.Record) (*store.Record, error) {
	query := `
		INSERT INTO messages (room_code, username, message_type, content, file_url, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	result, err := s.db.ExecContext(ctx, query,
		rec.RoomCode,
		rec.Username,
		rec.Type,
		rec.Content,
		rec.FileURL,
		rec.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert message: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("get last insert id: %w", err)
	}

	stored := *rec
	stored.ID = id
	return &stored, nil
}

// RecentMessages returns up to limit non-deleted records, most recent first.
func (s *SQLiteStore) RecentMessages(ctx context.Context, roomCode string, limit int) ([]*store.Record, error) {
	query := `
		SELECT id, room_code, COALESCE(username, ''), message_type,
		       COALESCE(content, ''), COALESCE(file_url, ''), created_at, is_deleted
		FROM messages
		WHERE room_code = ? AND is_deleted = 0
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`
	rows, err := s.db.QueryContext(ctx, query, roomCode, limit)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer rows.Close()

	var recs []*store.Record
	for rows.Next() {
		var rec store.Record
		if err := rows.Scan(
			&rec.ID,
			&rec.RoomCode,
			&rec.Username,
			&rec.Type,
			&rec.Content,
			&rec.FileURL,
			&rec.CreatedAt,
			&rec.Deleted,
		); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		recs = append(recs, &rec)
	}

	return recs, rows.Err()
}
