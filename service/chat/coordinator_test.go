package chat

import (
	"context"
	"errors"
	"sync"
	"testing"
)

// ===== 测试替身 =====

type sentFrame struct {
	connID string // Broadcast 时为空
	event  string
	data   any
}

type fakeSender struct {
	mu     sync.Mutex
	frames []sentFrame
}

func (f *fakeSender) SendTo(connID, event string, data any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.frames = append(f.frames, sentFrame{connID: connID, event: event, data: data})
	return nil
}

func (f *fakeSender) Broadcast(event string, data any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.frames = append(f.frames, sentFrame{event: event, data: data})
}

func (f *fakeSender) byEvent(event string) []sentFrame {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []sentFrame
	for _, fr := range f.frames {
		if fr.event == event {
			out = append(out, fr)
		}
	}
	return out
}

func (f *fakeSender) reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.frames = nil
}

type fakeSeenStore struct {
	mu    sync.Mutex
	calls []string
	err   error
}

func (s *fakeSeenStore) MarkChatSeen(_ context.Context, chatID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, chatID)
	return s.err
}

func newTestCoordinator() (*Coordinator, *fakeSender, *fakeSeenStore) {
	sender := &fakeSender{}
	store := &fakeSeenStore{}
	return NewCoordinator(NewDirectory(), sender, store), sender, store
}

// ===== 在线广播 =====

func TestConnectBroadcastsOnlineSet(t *testing.T) {
	coord, sender, _ := newTestCoordinator()

	coord.HandleConnect("alice", "c1")
	coord.HandleConnect("bob", "c2")

	frames := sender.byEvent(EventOnlineUsers)
	if len(frames) != 2 {
		t.Fatalf("expected one presence broadcast per connect, got %d", len(frames))
	}
	last, ok := frames[len(frames)-1].data.([]string)
	if !ok {
		t.Fatalf("presence payload type = %T, want []string", frames[len(frames)-1].data)
	}
	if len(last) != 2 || last[0] != "alice" || last[1] != "bob" {
		t.Fatalf("online set = %v, want [alice bob]", last)
	}
}

func TestDisconnectBroadcastsShrunkenSet(t *testing.T) {
	coord, sender, _ := newTestCoordinator()
	coord.HandleConnect("alice", "c1")
	coord.HandleConnect("bob", "c2")
	sender.reset()

	if removed := coord.HandleDisconnect("alice", "c1"); !removed {
		t.Fatalf("disconnect of current conn must report removed")
	}

	frames := sender.byEvent(EventOnlineUsers)
	if len(frames) != 1 {
		t.Fatalf("expected one presence broadcast after disconnect, got %d", len(frames))
	}
	set := frames[0].data.([]string)
	if len(set) != 1 || set[0] != "bob" {
		t.Fatalf("online set after disconnect = %v, want [bob]", set)
	}
}

func TestStaleDisconnectKeepsNewConnection(t *testing.T) {
	coord, _, _ := newTestCoordinator()
	coord.HandleConnect("alice", "c1")
	coord.HandleConnect("alice", "c2") // 重连

	if removed := coord.HandleDisconnect("alice", "c1"); removed {
		t.Fatalf("stale disconnect must not evict the newer registration")
	}
	if connID, ok := coord.Directory().Lookup("alice"); !ok || connID != "c2" {
		t.Fatalf("alice maps to %q,%v after stale disconnect, want c2,true", connID, ok)
	}
}

// ===== 消息转发 =====

func TestRelayDeliversToOnlineRecipient(t *testing.T) {
	coord, sender, _ := newTestCoordinator()
	coord.HandleConnect("bob", "c2")
	sender.reset()

	msg := map[string]any{"text": "hi", "sender": "alice"}
	coord.RelayNewMessage("bob", msg)

	frames := sender.byEvent(EventNewMessage)
	if len(frames) != 1 {
		t.Fatalf("expected exactly one newMessage, got %d", len(frames))
	}
	if frames[0].connID != "c2" {
		t.Fatalf("newMessage went to conn %q, want c2", frames[0].connID)
	}
}

func TestRelayDropsWhenRecipientOffline(t *testing.T) {
	coord, sender, _ := newTestCoordinator()

	coord.RelayNewMessage("nobody", map[string]any{"text": "hi"})

	if frames := sender.byEvent(EventNewMessage); len(frames) != 0 {
		t.Fatalf("offline recipient must be dropped silently, got %d frames", len(frames))
	}
}

// ===== 已读同步 =====

func TestMarkSeenPersistsAndNotifies(t *testing.T) {
	coord, sender, store := newTestCoordinator()
	coord.HandleConnect("alice", "c1")
	sender.reset()

	coord.MarkMessagesSeen(context.Background(), &SeenPayload{ChatID: "chat-1", UserID: "alice"})

	if len(store.calls) != 1 || store.calls[0] != "chat-1" {
		t.Fatalf("store calls = %v, want [chat-1]", store.calls)
	}
	frames := sender.byEvent(EventSeenMessages)
	if len(frames) != 1 || frames[0].connID != "c1" {
		t.Fatalf("seenMessages frames = %+v, want one to c1", frames)
	}
	data := frames[0].data.(map[string]any)
	if data["chatId"] != "chat-1" {
		t.Fatalf("seenMessages payload = %v, want chatId=chat-1", data)
	}
}

func TestMarkSeenIsIdempotentOverStore(t *testing.T) {
	coord, _, store := newTestCoordinator()

	p := &SeenPayload{ChatID: "chat-1", UserID: "alice"}
	coord.MarkMessagesSeen(context.Background(), p)
	coord.MarkMessagesSeen(context.Background(), p)

	// 每次都走落库，但两步写天然幂等；这里只校验传参不变
	if len(store.calls) != 2 {
		t.Fatalf("store invoked %d times, want 2", len(store.calls))
	}
	for _, id := range store.calls {
		if id != "chat-1" {
			t.Fatalf("unexpected chat id %q", id)
		}
	}
}

func TestMarkSeenSkipsNotifyWhenTargetOffline(t *testing.T) {
	coord, sender, store := newTestCoordinator()

	coord.MarkMessagesSeen(context.Background(), &SeenPayload{ChatID: "chat-1", UserID: "offline"})

	if len(store.calls) != 1 {
		t.Fatalf("store must still be invoked for offline target, calls=%v", store.calls)
	}
	if frames := sender.byEvent(EventSeenMessages); len(frames) != 0 {
		t.Fatalf("no seenMessages expected for offline target, got %d", len(frames))
	}
}

func TestMarkSeenStoreFailureSuppressesNotify(t *testing.T) {
	coord, sender, store := newTestCoordinator()
	coord.HandleConnect("alice", "c1")
	sender.reset()
	store.err = errors.New("write conflict")

	coord.MarkMessagesSeen(context.Background(), &SeenPayload{ChatID: "chat-1", UserID: "alice"})

	if frames := sender.byEvent(EventSeenMessages); len(frames) != 0 {
		t.Fatalf("failed persist must not notify, got %d frames", len(frames))
	}
}

// ===== 呼叫信令 =====

func TestCallForwardsToOnlineCallee(t *testing.T) {
	coord, sender, _ := newTestCoordinator()
	coord.HandleConnect("bob", "c2")
	sender.reset()

	p := &CallPayload{CallerID: "alice", CalleeID: "bob", ChannelName: "ch-1", CallerName: "Alice"}
	coord.HandleCall(p)

	frames := sender.byEvent(EventIncomingCall)
	if len(frames) != 1 || frames[0].connID != "c2" {
		t.Fatalf("incomingCall frames = %+v, want one to c2", frames)
	}
	got := frames[0].data.(*CallPayload)
	if got.ChannelName != "ch-1" || got.CallerName != "Alice" {
		t.Fatalf("call payload not passed through: %+v", got)
	}
}

func TestCallDroppedWhenCalleeOffline(t *testing.T) {
	coord, sender, _ := newTestCoordinator()
	coord.HandleConnect("alice", "c1")
	sender.reset()

	coord.HandleCall(&CallPayload{CallerID: "alice", CalleeID: "bob", ChannelName: "ch-1"})

	if frames := sender.byEvent(EventIncomingCall); len(frames) != 0 {
		t.Fatalf("offline callee must be dropped silently, got %d frames", len(frames))
	}
}

func TestAnswerForwardsToCaller(t *testing.T) {
	coord, sender, _ := newTestCoordinator()
	coord.HandleConnect("alice", "c1")
	sender.reset()

	coord.HandleAnswer(&AnswerPayload{CallerID: "alice", CalleeID: "bob", ChannelName: "ch-1", CallStatus: "accepted"})

	frames := sender.byEvent(EventCallAccepted)
	if len(frames) != 1 || frames[0].connID != "c1" {
		t.Fatalf("callAccepted frames = %+v, want one to c1", frames)
	}
}

func TestAnswerDroppedWhenCallerGone(t *testing.T) {
	coord, sender, _ := newTestCoordinator()

	coord.HandleAnswer(&AnswerPayload{CallerID: "alice", CalleeID: "bob", ChannelName: "ch-1"})

	if frames := sender.byEvent(EventCallAccepted); len(frames) != 0 {
		t.Fatalf("answer to a gone caller must be dropped, got %d frames", len(frames))
	}
}

// ===== 帧编解码 =====

func TestParseFrameRejectsMissingEvent(t *testing.T) {
	if _, err := ParseFrameJSON([]byte(`{"data":{"x":1}}`)); err == nil {
		t.Fatalf("frame without event must be rejected")
	}
	if _, err := ParseFrameJSON([]byte(`not json`)); err == nil {
		t.Fatalf("malformed json must be rejected")
	}
}

func TestExtractSeenPayload(t *testing.T) {
	p, err := ExtractSeenPayload(map[string]any{"chatId": "chat-9", "userId": "u-1"})
	if err != nil {
		t.Fatalf("extract seen payload: %v", err)
	}
	if p.ChatID != "chat-9" || p.UserID != "u-1" {
		t.Fatalf("payload = %+v", p)
	}
}
