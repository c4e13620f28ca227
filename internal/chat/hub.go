package chat

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"

	"github.com/selimd/campuschat-server/internal/store"
)

// DefaultHistoryLimit bounds history replay when no limit is configured.
const DefaultHistoryLimit = 50

// Hub is the surface the transport layer talks to. It owns the room
// registry, the broadcaster and the history bridge; one hub instance is
// constructed at startup and shared by all connection handlers.
type Hub struct {
	registry     *Registry
	broadcaster  *Broadcaster
	history      *Bridge
	historyLimit int
	log          *zerolog.Logger
}

// NewHub builds a hub over the given store. st may be nil to disable
// persistence. historyLimit caps replay on join; zero selects the default.
func NewHub(st store.Store, historyLimit int, logger *zerolog.Logger) *Hub {
	if historyLimit <= 0 {
		historyLimit = DefaultHistoryLimit
	}
	registry := NewRegistry()
	return &Hub{
		registry:     registry,
		broadcaster:  NewBroadcaster(registry, logger),
		history:      NewBridge(st, logger),
		historyLimit: historyLimit,
		log:          logger,
	}
}

// Connect registers conn under roomKey, announces the join to the room and
// replays recent history to the new connection only.
func (h *Hub) Connect(ctx context.Context, roomKey string, conn Conn, username string) {
	users := h.registry.Join(roomKey, conn, username)
	h.log.Info().Str("room", roomKey).Str("user", username).Int("members", len(users)).Msg("user joined")

	h.broadcaster.Broadcast(ctx, roomKey, NewJoin(username, users, time.Now().UTC()), "")
	h.replayHistory(ctx, roomKey, conn)
}

// Disconnect removes conn from roomKey and announces the departure with the
// updated member list. Safe to call more than once per connection.
func (h *Hub) Disconnect(ctx context.Context, roomKey string, conn Conn) {
	username, ok := h.registry.Leave(conn, roomKey)
	if !ok {
		return
	}
	h.log.Info().Str("room", roomKey).Str("user", username).Msg("user left")

	h.broadcaster.Broadcast(ctx, roomKey, NewLeave(username, h.registry.Members(roomKey), time.Now().UTC()), "")
}

// HandleInbound processes one raw payload from username's connection:
// dispatch, persist if durable, then fan out. Validation failures are
// answered on the originating connection only and never reach the room.
func (h *Hub) HandleInbound(ctx context.Context, roomKey string, conn Conn, username string, raw []byte) {
	msg, derr := Parse(raw, username)
	if derr != nil {
		h.log.Debug().Str("room", roomKey).Str("user", username).Str("code", derr.Code).Msg("rejected inbound payload")
		h.sendError(ctx, conn, derr)
		return
	}

	// Member lists on join/leave notices are computed at emission time,
	// never taken from the client.
	if msg.Type == TypeJoin || msg.Type == TypeLeave {
		msg.RoomUsers = h.registry.Members(roomKey)
	}

	h.history.Persist(ctx, roomKey, msg)

	var exclude string
	if msg.Type == TypeTypingStart || msg.Type == TypeTypingStop {
		exclude = msg.Username
	}
	h.broadcaster.Broadcast(ctx, roomKey, msg, exclude)
}

// History returns up to limit persisted messages for roomKey in
// chronological order. limit <= 0 selects the configured default.
func (h *Hub) History(ctx context.Context, roomKey string, limit int) ([]Message, error) {
	if limit <= 0 || limit > h.historyLimit {
		limit = h.historyLimit
	}
	return h.history.Recent(ctx, roomKey, limit)
}

// RoomUsers returns the display names currently in roomKey.
func (h *Hub) RoomUsers(roomKey string) []string {
	return h.registry.Members(roomKey)
}

// RoomStatus describes one live room for the query surface.
type RoomStatus struct {
	Key   string
	Users []string
	Count int
}

// ActiveRooms snapshots every non-empty room with its member names.
func (h *Hub) ActiveRooms() []RoomStatus {
	keys := h.registry.Rooms()
	statuses := make([]RoomStatus, 0, len(keys))
	for _, key := range keys {
		users := h.registry.Members(key)
		statuses = append(statuses, RoomStatus{Key: key, Users: users, Count: len(users)})
	}
	return statuses
}

func (h *Hub) replayHistory(ctx context.Context, roomKey string, conn Conn) {
	msgs, err := h.history.Recent(ctx, roomKey, h.historyLimit)
	if err != nil {
		h.log.Warn().Err(err).Str("room", roomKey).Msg("fetch history for replay")
		return
	}
	for _, msg := range msgs {
		data, err := json.Marshal(msg)
		if err != nil {
			h.log.Error().Err(err).Str("room", roomKey).Msg("marshal history message")
			continue
		}
		if err := conn.Send(ctx, data); err != nil {
			// The connection will be reaped on the next broadcast.
			h.log.Warn().Err(err).Str("room", roomKey).Msg("history replay interrupted")
			return
		}
	}
}

func (h *Hub) sendError(ctx context.Context, conn Conn, derr *DispatchError) {
	data, err := json.Marshal(NewError(derr.Code, derr.Message, time.Now().UTC()))
	if err != nil {
		h.log.Error().Err(err).Msg("marshal error message")
		return
	}
	if err := conn.Send(ctx, data); err != nil {
		h.log.Warn().Err(err).Msg("send error message")
	}
}
