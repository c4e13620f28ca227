package chat

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/selimd/campuschat-server/internal/store"
)

// Bridge adapts chat traffic to the persistence store. Appends are
// best-effort: delivery is prioritized over durability, so failures are
// logged and never block a broadcast.
type Bridge struct {
	store store.Store
	log   *zerolog.Logger
}

// NewBridge builds a history bridge. A nil store disables persistence,
// which keeps the hub usable in tests and ephemeral deployments.
func NewBridge(st store.Store, logger *zerolog.Logger) *Bridge {
	return &Bridge{store: st, log: logger}
}

// Persist appends msg to durable history if its type is durable. Join,
// leave, error, system and typing messages are ephemeral and skipped.
func (b *Bridge) Persist(ctx context.Context, roomKey string, msg Message) {
	if b.store == nil || msg.Ephemeral() {
		return
	}

	var content, fileURL string
	switch msg.Type {
	case TypeChat:
		content = msg.Content
	case TypeFile:
		content = "File: " + msg.FileName
		fileURL = msg.FileURL
	}

	createdAt := time.Now().UTC()
	if msg.Timestamp != nil {
		createdAt = *msg.Timestamp
	}

	if err := b.store.EnsureRoom(ctx, roomKey); err != nil {
		b.log.Warn().Err(err).Str("room", roomKey).Msg("ensure room")
		return
	}
	if err := b.store.EnsureUser(ctx, msg.Username); err != nil {
		b.log.Warn().Err(err).Str("user", msg.Username).Msg("ensure user")
		return
	}

	rec := &store.Record{
		RoomCode:  roomKey,
		Username:  msg.Username,
		Type:      string(msg.Type),
		Content:   content,
		FileURL:   fileURL,
		CreatedAt: createdAt,
	}
	if _, err := b.store.AppendMessage(ctx, rec); err != nil {
		b.log.Warn().Err(err).Str("room", roomKey).Msg("append message")
	}
}

// Recent returns up to limit persisted messages for a room in chronological
// order, each mapped to its wire representation.
func (b *Bridge) Recent(ctx context.Context, roomKey string, limit int) ([]Message, error) {
	if b.store == nil {
		return nil, nil
	}

	recs, err := b.store.RecentMessages(ctx, roomKey, limit)
	if err != nil {
		return nil, err
	}

	msgs := make([]Message, 0, len(recs))
	for i := len(recs) - 1; i >= 0; i-- {
		msgs = append(msgs, recordToMessage(recs[i]))
	}
	return msgs, nil
}

func recordToMessage(rec *store.Record) Message {
	ts := rec.CreatedAt
	m := Message{
		Type:      Type(rec.Type),
		Username:  rec.Username,
		Timestamp: &ts,
	}
	if rec.Content != "" {
		m.Content = rec.Content
		m.Notice = rec.Content
	}
	if rec.FileURL != "" {
		m.FileURL = rec.FileURL
	}
	return m
}
