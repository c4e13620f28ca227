package chat

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"github.com/selimd/campuschat-server/internal/store"
)

func nopLogger() *zerolog.Logger {
	logger := zerolog.Nop()
	return &logger
}

// fakeConn records frames delivered to one member.
type fakeConn struct {
	mu     sync.Mutex
	frames [][]byte
	fail   bool
}

func (c *fakeConn) Send(_ context.Context, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fail {
		return errors.New("connection closed")
	}
	buf := make([]byte, len(data))
	copy(buf, data)
	c.frames = append(c.frames, buf)
	return nil
}

func (c *fakeConn) messages(t *testing.T) []Message {
	t.Helper()

	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]Message, 0, len(c.frames))
	for _, frame := range c.frames {
		var m Message
		if err := json.Unmarshal(frame, &m); err != nil {
			t.Fatalf("decode frame %q: %v", frame, err)
		}
		out = append(out, m)
	}
	return out
}

func (c *fakeConn) lastMessage(t *testing.T) Message {
	t.Helper()

	msgs := c.messages(t)
	if len(msgs) == 0 {
		t.Fatal("expected at least one delivered frame")
	}
	return msgs[len(msgs)-1]
}

// fakeStore is an in-memory store.Store.
type fakeStore struct {
	mu        sync.Mutex
	nextID    int64
	records   []*store.Record
	rooms     map[string]*store.Room
	users     map[string]bool
	appendErr error
	recentErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		rooms: make(map[string]*store.Room),
		users: make(map[string]bool),
	}
}

func (s *fakeStore) CreateRoom(_ context.Context, code, name string) (*store.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	room := &store.Room{ID: s.nextID, Code: code, Name: name, Active: true}
	s.rooms[code] = room
	return room, nil
}

func (s *fakeStore) RoomByCode(_ context.Context, code string) (*store.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	room, ok := s.rooms[code]
	if !ok {
		return nil, store.ErrNotFound
	}
	return room, nil
}

func (s *fakeStore) ListActiveRooms(context.Context) ([]*store.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rooms := make([]*store.Room, 0, len(s.rooms))
	for _, room := range s.rooms {
		rooms = append(rooms, room)
	}
	return rooms, nil
}

func (s *fakeStore) EnsureRoom(_ context.Context, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rooms[code]; !ok {
		s.nextID++
		s.rooms[code] = &store.Room{ID: s.nextID, Code: code, Name: code, Active: true}
	}
	return nil
}

func (s *fakeStore) EnsureUser(_ context.Context, username string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[username] = true
	return nil
}

func (s *fakeStore) AppendMessage(_ context.Context, rec *store.Record) (*store.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.appendErr != nil {
		return nil, s.appendErr
	}
	s.nextID++
	stored := *rec
	stored.ID = s.nextID
	s.records = append(s.records, &stored)
	return &stored, nil
}

func (s *fakeStore) RecentMessages(_ context.Context, roomCode string, limit int) ([]*store.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.recentErr != nil {
		return nil, s.recentErr
	}

	// Most recent first, like the real store.
	var out []*store.Record
	for i := len(s.records) - 1; i >= 0 && len(out) < limit; i-- {
		rec := s.records[i]
		if rec.RoomCode == roomCode && !rec.Deleted {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (s *fakeStore) Close() error { return nil }

func (s *fakeStore) recordCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}
