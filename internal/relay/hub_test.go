package relay

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, h *Hub) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = h.ServeWS(w, r, r.URL.Query().Get("user"))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func dial(t *testing.T, srv *httptest.Server, user string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/?user=" + user
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, env Envelope) {
	t.Helper()
	require.NoError(t, conn.WriteJSON(env))
}

func expect(t *testing.T, conn *websocket.Conn) Envelope {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var env Envelope
	require.NoError(t, conn.ReadJSON(&env))
	return env
}

// expectSilence 读超时之后连接不可再读，只能放在用例末尾
func expectSilence(t *testing.T, conn *websocket.Conn, d time.Duration) {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(d)))
	_, data, err := conn.ReadMessage()
	require.Error(t, err, "unexpected frame: %s", data)
	var netErr net.Error
	require.True(t, errors.As(err, &netErr) && netErr.Timeout(), "expected timeout, got %v", err)
}

func TestTypingReachesOtherMembersOnly(t *testing.T) {
	h := NewHub(Config{}, nil)
	srv := newTestServer(t, h)

	alice := dial(t, srv, "alice")
	send(t, alice, Envelope{Event: EventCreateRoom, RoomID: "room-1"})
	created := expect(t, alice)
	assert.Equal(t, Envelope{Event: EventRoomCreated, RoomID: "room-1", UserID: "alice"}, created)

	bob := dial(t, srv, "bob")
	send(t, bob, Envelope{Event: EventJoinRoom, RoomID: "room-1"})
	joined := expect(t, alice)
	assert.Equal(t, Envelope{Event: EventUserJoined, RoomID: "room-1", UserID: "bob"}, joined)

	carol := dial(t, srv, "carol")
	send(t, carol, Envelope{Event: EventCreateRoom, RoomID: "room-2"})
	assert.Equal(t, EventRoomCreated, expect(t, carol).Event)

	send(t, alice, Envelope{Event: EventTyping, RoomID: "room-1", Content: "hello"})
	got := expect(t, bob)
	assert.Equal(t, Envelope{Event: EventTyping, RoomID: "room-1", Content: "hello", UserID: "alice"}, got)

	// alice 收到的下一帧是 bob 的输入，说明自己的输入没有回显
	send(t, bob, Envelope{Event: EventTyping, RoomID: "room-1", Content: "hello world"})
	echo := expect(t, alice)
	assert.Equal(t, "hello world", echo.Content)
	assert.Equal(t, "bob", echo.UserID)

	assert.Equal(t, []string{"alice", "bob"}, h.Peers("room-1"))
	assert.Equal(t, []string{"carol"}, h.Peers("room-2"))

	expectSilence(t, carol, 200*time.Millisecond)
}

func TestCreateRoomGeneratesID(t *testing.T) {
	h := NewHub(Config{}, nil)
	srv := newTestServer(t, h)

	conn := dial(t, srv, "")
	peer := uuid.NewString()
	send(t, conn, Envelope{Event: EventCreateRoom, UserID: peer})

	env := expect(t, conn)
	assert.Equal(t, EventRoomCreated, env.Event)
	assert.Equal(t, peer, env.UserID)
	_, err := uuid.Parse(env.RoomID)
	assert.NoError(t, err)
	assert.Equal(t, []string{peer}, h.Peers(env.RoomID))
}

func TestDisconnectNotifiesPeers(t *testing.T) {
	h := NewHub(Config{}, nil)
	srv := newTestServer(t, h)

	alice := dial(t, srv, "alice")
	send(t, alice, Envelope{Event: EventCreateRoom, RoomID: "audio"})
	require.Equal(t, EventRoomCreated, expect(t, alice).Event)

	bob := dial(t, srv, "bob")
	send(t, bob, Envelope{Event: EventJoinRoom, RoomID: "audio"})
	assert.Equal(t, EventUserJoined, expect(t, alice).Event)

	require.NoError(t, bob.Close())

	env := expect(t, alice)
	assert.Equal(t, Envelope{Event: EventDisconnectUser, RoomID: "audio", UserID: "bob"}, env)
	assert.Equal(t, []string{"alice"}, h.Peers("audio"))
}

func TestLeaveRoom(t *testing.T) {
	h := NewHub(Config{}, nil)
	srv := newTestServer(t, h)

	alice := dial(t, srv, "alice")
	send(t, alice, Envelope{Event: EventCreateRoom, RoomID: "r"})
	require.Equal(t, EventRoomCreated, expect(t, alice).Event)
	bob := dial(t, srv, "bob")
	send(t, bob, Envelope{Event: EventJoinRoom, RoomID: "r"})
	require.Equal(t, EventUserJoined, expect(t, alice).Event)

	send(t, bob, Envelope{Event: EventLeaveRoom, RoomID: "r"})
	env := expect(t, alice)
	assert.Equal(t, EventDisconnectUser, env.Event)
	assert.Equal(t, "bob", env.UserID)

	send(t, bob, Envelope{Event: EventTyping, RoomID: "r", Content: "late"})
	reply := expect(t, bob)
	assert.Equal(t, EventError, reply.Event)
	assert.Equal(t, ErrNotInRoom.Error(), reply.Content)
}

func TestMalformedFramesAreDropped(t *testing.T) {
	h := NewHub(Config{}, nil)
	srv := newTestServer(t, h)

	conn := dial(t, srv, "alice")
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("not json")))
	send(t, conn, Envelope{Event: "shout", RoomID: "r"})
	send(t, conn, Envelope{Event: EventJoinRoom})
	env := expect(t, conn)
	assert.Equal(t, EventError, env.Event)
	assert.Equal(t, ErrRoomRequired.Error(), env.Content)
}

func TestSlowClientIsDropped(t *testing.T) {
	h := NewHub(Config{SendBuffer: 1}, nil)

	slow := newClient(h, nil, "slow")
	sender := newClient(h, nil, "sender")
	h.join(slow, "r", "slow")
	h.join(sender, "r", "sender")

	h.deliverLocal("r", []byte("1"), sender)
	h.deliverLocal("r", []byte("2"), sender)

	select {
	case <-slow.done:
	default:
		t.Fatal("slow client should have been closed")
	}
	assert.Equal(t, []string{"sender"}, h.Peers("r"))
	assert.Equal(t, int64(1), h.Stats().Dropped)

	// sender 收到 slow 的离开通知
	msg := <-sender.send
	env, err := decodeEnvelope(msg)
	require.NoError(t, err)
	assert.Equal(t, EventDisconnectUser, env.Event)
	assert.Equal(t, "slow", env.UserID)
}

func TestCheckOrigin(t *testing.T) {
	tests := []struct {
		allowed string
		origin  string
		want    bool
	}{
		{"", "http://evil.example", true},
		{"*", "http://evil.example", true},
		{"http://app.example", "http://app.example", true},
		{"http://app.example", "http://evil.example", false},
	}
	for _, tt := range tests {
		t.Run(tt.allowed+"|"+tt.origin, func(t *testing.T) {
			h := NewHub(Config{AllowedOrigin: tt.allowed}, nil)
			r := httptest.NewRequest(http.MethodGet, "/ws", nil)
			r.Header.Set("Origin", tt.origin)
			assert.Equal(t, tt.want, h.checkOrigin(r))
		})
	}
}

type memBroker struct {
	mu       sync.Mutex
	handlers []func(Message)
}

func (b *memBroker) Name() string { return "memory" }

func (b *memBroker) Publish(_ context.Context, msg Message) error {
	b.mu.Lock()
	handlers := append([]func(Message){}, b.handlers...)
	b.mu.Unlock()
	for _, handle := range handlers {
		handle(msg)
	}
	return nil
}

func (b *memBroker) Subscribe(ctx context.Context, handle func(Message)) error {
	b.mu.Lock()
	b.handlers = append(b.handlers, handle)
	b.mu.Unlock()
	<-ctx.Done()
	return nil
}

func (b *memBroker) subscribers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.handlers)
}

func TestCrossInstanceFanOut(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	broker := &memBroker{}
	h1 := NewHub(Config{}, broker)
	h2 := NewHub(Config{}, broker)
	go func() { _ = h1.Run(ctx) }()
	go func() { _ = h2.Run(ctx) }()
	require.Eventually(t, func() bool { return broker.subscribers() == 2 }, time.Second, 10*time.Millisecond)

	srv1 := newTestServer(t, h1)
	srv2 := newTestServer(t, h2)

	alice := dial(t, srv1, "alice")
	send(t, alice, Envelope{Event: EventCreateRoom, RoomID: "shared"})
	require.Equal(t, EventRoomCreated, expect(t, alice).Event)

	bob := dial(t, srv2, "bob")
	send(t, bob, Envelope{Event: EventJoinRoom, RoomID: "shared"})
	joined := expect(t, alice)
	assert.Equal(t, "bob", joined.UserID)

	send(t, alice, Envelope{Event: EventTyping, RoomID: "shared", Content: "across"})
	got := expect(t, bob)
	assert.Equal(t, "across", got.Content)
	assert.Equal(t, "alice", got.UserID)

	assert.Equal(t, []string{"alice"}, h1.Peers("shared"))
	assert.Equal(t, []string{"bob"}, h2.Peers("shared"))
}
