package ws

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"roomrelay/internal/pkg/errs"
)

type inbound struct {
	connID string
	name   string
	data   string
}

type recordingSink struct {
	connected    chan string
	disconnected chan string
	events       chan inbound
}

func newRecordingSink() *recordingSink {
	return &recordingSink{
		connected:    make(chan string, 8),
		disconnected: make(chan string, 8),
		events:       make(chan inbound, 8),
	}
}

func (s *recordingSink) Connect(connID string) bool {
	s.connected <- connID
	return true
}

func (s *recordingSink) HandleEvent(connID, name string, data json.RawMessage) *errs.CustomError {
	if name == "BOOM" {
		return errs.NewError(errs.ErrUnsupportedEvent, name)
	}
	if name == "STOP" {
		return errs.NewError(errs.ErrCoordinatorStopped)
	}
	s.events <- inbound{connID: connID, name: name, data: string(data)}
	return nil
}

func (s *recordingSink) Disconnect(connID string) bool {
	s.disconnected <- connID
	return true
}

func startHub(t *testing.T, sink EventSink) (*Hub, string) {
	t.Helper()
	return startHubWithOptions(t, sink, Options{})
}

func startHubWithOptions(t *testing.T, sink EventSink, opts Options) (*Hub, string) {
	t.Helper()

	hub := NewHub(opts)
	upgrader := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		hub.Serve(conn, sink)
	}))

	t.Cleanup(func() {
		hub.Close()
		server.Close()
	})

	return hub, "ws" + strings.TrimPrefix(server.URL, "http")
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	return conn
}

func receive[T any](t *testing.T, ch <-chan T) T {
	t.Helper()

	select {
	case v := <-ch:
		return v
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for value")
	}

	var zero T
	return zero
}

func readEnvelope(t *testing.T, conn *websocket.Conn) Envelope {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))

	var envelope Envelope
	require.NoError(t, conn.ReadJSON(&envelope))
	return envelope
}

func TestHub_ServeLifecycle(t *testing.T) {
	sink := newRecordingSink()
	hub, url := startHub(t, sink)

	conn := dial(t, url)
	connID := receive(t, sink.connected)
	assert.NotEmpty(t, connID)
	assert.Equal(t, 1, hub.ConnectionCount())

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"event":"JOIN","data":{"roomId":"lobby"}}`)))

	got := receive(t, sink.events)
	assert.Equal(t, connID, got.connID)
	assert.Equal(t, "JOIN", got.name)
	assert.JSONEq(t, `{"roomId":"lobby"}`, got.data)

	require.NoError(t, conn.Close())

	assert.Equal(t, connID, receive(t, sink.disconnected))
	assert.Equal(t, 0, hub.ConnectionCount())
}

func TestHub_InvalidFramesAreSkipped(t *testing.T) {
	sink := newRecordingSink()
	_, url := startHub(t, sink)

	conn := dial(t, url)
	receive(t, sink.connected)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`not json`)))
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"data":{}}`)))
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"event":"BOOM"}`)))
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"event":"NEW_MESSAGE","data":{"text":"ok"}}`)))

	got := receive(t, sink.events)
	assert.Equal(t, "NEW_MESSAGE", got.name)
}

func TestHub_Emit(t *testing.T) {
	sink := newRecordingSink()
	hub, url := startHub(t, sink)

	conn := dial(t, url)
	connID := receive(t, sink.connected)

	hub.Emit(connID, "SET_USERS", []string{"alice"})
	hub.Emit("unknown-conn", "SET_USERS", []string{"nobody"})

	envelope := readEnvelope(t, conn)
	assert.Equal(t, "SET_USERS", envelope.Event)
	assert.JSONEq(t, `["alice"]`, string(envelope.Data))
}

func TestHub_EmitToGroupExcludesSender(t *testing.T) {
	sink := newRecordingSink()
	hub, url := startHub(t, sink)

	first := dial(t, url)
	firstID := receive(t, sink.connected)
	second := dial(t, url)
	secondID := receive(t, sink.connected)

	hub.JoinGroup(firstID, "lobby")
	hub.JoinGroup(secondID, "lobby")
	hub.JoinGroup("ghost", "lobby")
	assert.Equal(t, 2, hub.GroupMembers("lobby"))

	hub.EmitToGroup("lobby", firstID, "NEW_MESSAGE", map[string]string{"senderName": "alice", "text": "hi"})

	envelope := readEnvelope(t, second)
	assert.Equal(t, "NEW_MESSAGE", envelope.Event)
	assert.JSONEq(t, `{"senderName":"alice","text":"hi"}`, string(envelope.Data))

	require.NoError(t, first.SetReadDeadline(time.Now().Add(100*time.Millisecond)))
	_, _, err := first.ReadMessage()
	assert.Error(t, err)
}

func TestHub_DisconnectLeavesGroups(t *testing.T) {
	sink := newRecordingSink()
	hub, url := startHub(t, sink)

	conn := dial(t, url)
	connID := receive(t, sink.connected)

	hub.JoinGroup(connID, "r1")
	hub.JoinGroup(connID, "r2")
	hub.LeaveGroup(connID, "r2")
	assert.Equal(t, 1, hub.GroupMembers("r1"))
	assert.Equal(t, 0, hub.GroupMembers("r2"))

	require.NoError(t, conn.Close())
	receive(t, sink.disconnected)

	assert.Equal(t, 0, hub.GroupMembers("r1"))
}

func TestHub_CloseDisconnectsEveryone(t *testing.T) {
	sink := newRecordingSink()
	hub, url := startHub(t, sink)

	conn := dial(t, url)
	connID := receive(t, sink.connected)

	hub.Close()

	assert.Equal(t, connID, receive(t, sink.disconnected))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "got %v", err)
	assert.Equal(t, 0, hub.ConnectionCount())
}

func TestHub_SlowConsumerIsDisconnected(t *testing.T) {
	sink := newRecordingSink()
	hub, url := startHubWithOptions(t, sink, Options{SendBuffer: 1})

	// The peer never reads, so the server's writes back up.
	dial(t, url)
	connID := receive(t, sink.connected)

	payload := strings.Repeat("x", 64<<10)
	start := time.Now()
	timeout := time.After(5 * time.Second)

	for {
		select {
		case got := <-sink.disconnected:
			assert.Equal(t, connID, got)
			assert.Equal(t, 0, hub.ConnectionCount())
			assert.Less(t, time.Since(start), writeWait)
			return
		case <-timeout:
			t.Fatal("slow consumer was not disconnected")
		default:
			hub.Emit(connID, "NEW_MESSAGE", payload)
		}
	}
}

func TestHub_StoppedSinkEndsConnection(t *testing.T) {
	sink := newRecordingSink()
	hub, url := startHub(t, sink)

	conn := dial(t, url)
	connID := receive(t, sink.connected)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"event":"STOP","data":{}}`)))

	assert.Equal(t, connID, receive(t, sink.disconnected))
	assert.Equal(t, 0, hub.ConnectionCount())
}
