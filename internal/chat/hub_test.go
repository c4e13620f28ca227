package chat

import (
	"context"
	"testing"
	"time"

	"github.com/selimd/campuschat-server/internal/store"
)

func TestHubJoinChatAndLeaveScenario(t *testing.T) {
	ctx := context.Background()
	st := newFakeStore()
	hub := NewHub(st, 0, nopLogger())

	alice, bob := &fakeConn{}, &fakeConn{}
	hub.Connect(ctx, "MATH-101", alice, "Alice")
	hub.Connect(ctx, "MATH-101", bob, "Bob")

	// Bob's join was announced to the whole room.
	join := alice.lastMessage(t)
	if join.Type != TypeJoin || join.Username != "Bob" {
		t.Fatalf("unexpected join notice: %+v", join)
	}
	if len(join.RoomUsers) != 2 || join.RoomUsers[0] != "Alice" || join.RoomUsers[1] != "Bob" {
		t.Fatalf("unexpected member list: %v", join.RoomUsers)
	}

	// Alice sends a chat message; both receive it with a server timestamp.
	hub.HandleInbound(ctx, "MATH-101", alice, "Alice", []byte(`{"type":"message","content":"hi"}`))

	for name, conn := range map[string]*fakeConn{"Alice": alice, "Bob": bob} {
		msg := conn.lastMessage(t)
		if msg.Type != TypeChat || msg.Content != "hi" || msg.Username != "Alice" {
			t.Fatalf("%s received unexpected message: %+v", name, msg)
		}
		if msg.Timestamp == nil {
			t.Fatalf("%s received message without timestamp", name)
		}
	}

	if st.recordCount() != 1 {
		t.Fatalf("expected exactly the chat message persisted, got %d records", st.recordCount())
	}

	// Bob disconnects; Alice sees a leave notice with the updated list.
	hub.Disconnect(ctx, "MATH-101", bob)

	leave := alice.lastMessage(t)
	if leave.Type != TypeLeave || leave.Username != "Bob" {
		t.Fatalf("unexpected leave notice: %+v", leave)
	}
	if len(leave.RoomUsers) != 1 || leave.RoomUsers[0] != "Alice" {
		t.Fatalf("unexpected member list: %v", leave.RoomUsers)
	}
}

func TestHubValidationErrorGoesToSenderOnly(t *testing.T) {
	ctx := context.Background()
	st := newFakeStore()
	hub := NewHub(st, 0, nopLogger())

	alice, bob := &fakeConn{}, &fakeConn{}
	hub.Connect(ctx, "MATH-101", alice, "Alice")
	hub.Connect(ctx, "MATH-101", bob, "Bob")
	bobFrames := len(bob.messages(t))

	hub.HandleInbound(ctx, "MATH-101", alice, "Alice", []byte(`{"type":"message","content":"   "}`))

	errMsg := alice.lastMessage(t)
	if errMsg.Type != TypeError || errMsg.ErrorCode != CodeInvalidFormat {
		t.Fatalf("expected error frame for alice, got %+v", errMsg)
	}
	if got := len(bob.messages(t)); got != bobFrames {
		t.Fatalf("no broadcast expected, bob got %d new frames", got-bobFrames)
	}
	if st.recordCount() != 0 {
		t.Fatalf("rejected message must not be persisted, got %d records", st.recordCount())
	}
}

func TestHubPlainTextFallbackIsBroadcastAndPersisted(t *testing.T) {
	ctx := context.Background()
	st := newFakeStore()
	hub := NewHub(st, 0, nopLogger())

	carol, dave := &fakeConn{}, &fakeConn{}
	hub.Connect(ctx, "MATH-101", carol, "Carol")
	hub.Connect(ctx, "MATH-101", dave, "Dave")

	hub.HandleInbound(ctx, "MATH-101", carol, "Carol", []byte("hello"))

	msg := dave.lastMessage(t)
	if msg.Type != TypeChat || msg.Username != "Carol" || msg.Content != "hello" {
		t.Fatalf("unexpected message: %+v", msg)
	}
	if st.recordCount() != 1 {
		t.Fatalf("expected fallback message persisted, got %d records", st.recordCount())
	}
}

func TestHubTypingIndicatorNotEchoedToSender(t *testing.T) {
	ctx := context.Background()
	hub := NewHub(nil, 0, nopLogger())

	alice, bob := &fakeConn{}, &fakeConn{}
	hub.Connect(ctx, "MATH-101", alice, "Alice")
	hub.Connect(ctx, "MATH-101", bob, "Bob")
	aliceFrames := len(alice.messages(t))

	hub.HandleInbound(ctx, "MATH-101", alice, "Alice", []byte(`{"type":"typing_start","username":"Alice"}`))

	if got := len(alice.messages(t)); got != aliceFrames {
		t.Fatal("typing indicator must not echo to its sender")
	}
	if msg := bob.lastMessage(t); msg.Type != TypeTypingStart || msg.Username != "Alice" {
		t.Fatalf("unexpected message for bob: %+v", msg)
	}
}

func TestHubReplaysHistoryToNewConnectionOnly(t *testing.T) {
	ctx := context.Background()
	st := newFakeStore()
	base := time.Date(2026, 2, 6, 12, 0, 0, 0, time.UTC)
	st.records = append(st.records,
		&store.Record{ID: 1, RoomCode: "MATH-101", Username: "Alice", Type: string(TypeChat), Content: "first", CreatedAt: base},
		&store.Record{ID: 2, RoomCode: "MATH-101", Username: "Bob", Type: string(TypeChat), Content: "second", CreatedAt: base.Add(time.Minute)},
	)

	hub := NewHub(st, 0, nopLogger())

	alice := &fakeConn{}
	hub.Connect(ctx, "MATH-101", alice, "Alice")
	aliceFrames := len(alice.messages(t))

	bob := &fakeConn{}
	hub.Connect(ctx, "MATH-101", bob, "Bob")

	msgs := bob.messages(t)
	// Bob sees his own join notice followed by the replay, oldest first.
	if len(msgs) != 3 {
		t.Fatalf("expected join + 2 history frames, got %d", len(msgs))
	}
	if msgs[0].Type != TypeJoin {
		t.Fatalf("expected join first, got %+v", msgs[0])
	}
	if msgs[1].Content != "first" || msgs[2].Content != "second" {
		t.Fatalf("history replay out of order: %+v", msgs[1:])
	}

	// Alice only saw Bob's join, no replay.
	if got := len(alice.messages(t)); got != aliceFrames+1 {
		t.Fatalf("expected exactly one new frame for alice, got %d", got-aliceFrames)
	}
}

func TestHubActiveRooms(t *testing.T) {
	ctx := context.Background()
	hub := NewHub(nil, 0, nopLogger())

	hub.Connect(ctx, "MATH-101", &fakeConn{}, "Alice")
	hub.Connect(ctx, "PHYS-202", &fakeConn{}, "Bob")

	statuses := hub.ActiveRooms()
	if len(statuses) != 2 {
		t.Fatalf("expected 2 rooms, got %v", statuses)
	}
	byKey := make(map[string]RoomStatus)
	for _, s := range statuses {
		byKey[s.Key] = s
	}
	if s := byKey["MATH-101"]; s.Count != 1 || len(s.Users) != 1 || s.Users[0] != "Alice" {
		t.Fatalf("unexpected room status: %+v", s)
	}
}

func TestHubDisconnectUnknownConnectionIsNoop(t *testing.T) {
	hub := NewHub(nil, 0, nopLogger())
	hub.Disconnect(context.Background(), "ghost", &fakeConn{})
}
