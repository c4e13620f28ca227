package chat

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Broadcaster fans messages out to room members. Delivery is best-effort
// and independent per member: a send failure evicts that member from the
// registry and announces their departure to the rest of the room, mirroring
// a disconnect. This is how dead peers are reaped without explicit
// disconnect notification.
type Broadcaster struct {
	registry *Registry
	log      *zerolog.Logger

	// mu serializes delivery so every member observes the same relative
	// message order within a room.
	mu sync.Mutex
}

// NewBroadcaster builds a broadcaster over the given registry.
func NewBroadcaster(registry *Registry, logger *zerolog.Logger) *Broadcaster {
	return &Broadcaster{registry: registry, log: logger}
}

// Broadcast delivers msg to every current member of roomKey. Members whose
// display name equals excludeName are skipped; pass "" to deliver to all.
// Broadcasting to an unknown room is a no-op. Errors never surface to the
// caller.
func (b *Broadcaster) Broadcast(ctx context.Context, roomKey string, msg Message, excludeName string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.deliver(ctx, roomKey, msg, excludeName)
}

func (b *Broadcaster) deliver(ctx context.Context, roomKey string, msg Message, excludeName string) {
	// Serialize once for the whole room.
	data, err := json.Marshal(msg)
	if err != nil {
		b.log.Error().Err(err).Str("room", roomKey).Msg("marshal broadcast message")
		return
	}

	members := b.registry.snapshot(roomKey)
	if members == nil {
		return
	}

	var dead []member
	for _, m := range members {
		if excludeName != "" && m.name == excludeName {
			continue
		}
		if err := m.conn.Send(ctx, data); err != nil {
			b.log.Warn().Err(err).Str("room", roomKey).Str("user", m.name).Msg("send failed, evicting member")
			dead = append(dead, m)
		}
	}

	for _, m := range dead {
		name, ok := b.registry.Leave(m.conn, roomKey)
		if !ok {
			continue
		}
		b.deliver(ctx, roomKey, NewLeave(name, b.registry.Members(roomKey), time.Now().UTC()), "")
	}
}
