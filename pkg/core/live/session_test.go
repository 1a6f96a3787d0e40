package live

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newSessionTestServer runs handler against every accepted websocket and
// returns a host value suitable for Config.Host.
func newSessionTestServer(t *testing.T, handler func(conn *websocket.Conn)) (string, func()) {
	t.Helper()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		handler(conn)
	}))
	return "ws://" + srv.Listener.Addr().String(), srv.Close
}

// ackSetup consumes the setup frame and acknowledges it.
func ackSetup(t *testing.T, conn *websocket.Conn) bool {
	t.Helper()
	var setup map[string]any
	if err := conn.ReadJSON(&setup); err != nil {
		return false
	}
	if _, ok := setup["setup"]; !ok {
		t.Errorf("first frame missing setup: %v", setup)
		return false
	}
	return conn.WriteJSON(map[string]any{"setupComplete": map[string]any{}}) == nil
}

func normalClose(conn *websocket.Conn) {
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(2*time.Second))
	_ = conn.Close()
}

func TestConnect_MissingAPIKey(t *testing.T) {
	t.Parallel()

	_, err := Connect(context.Background(), Config{})
	require.Error(t, err)
}

func TestConnect_SetupNotAcknowledged(t *testing.T) {
	t.Parallel()

	host, closeServer := newSessionTestServer(t, func(conn *websocket.Conn) {
		defer conn.Close()
		var setup map[string]any
		if err := conn.ReadJSON(&setup); err != nil {
			return
		}
		_ = conn.WriteJSON(map[string]any{"serverContent": map[string]any{"turnComplete": true}})
	})
	defer closeServer()

	_, err := Connect(context.Background(), Config{APIKey: "k", Host: host})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "setup")
}

func TestSession_EventFlowAndClose(t *testing.T) {
	t.Parallel()

	host, closeServer := newSessionTestServer(t, func(conn *websocket.Conn) {
		if !ackSetup(t, conn) {
			return
		}
		_ = conn.WriteJSON(map[string]any{"serverContent": map[string]any{
			"outputTranscription": map[string]any{"text": "woof"},
		}})
		_ = conn.WriteJSON(map[string]any{"serverContent": map[string]any{"turnComplete": true}})
		normalClose(conn)
	})
	defer closeServer()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	s, err := Connect(ctx, Config{APIKey: "k", Host: host})
	require.NoError(t, err)
	defer s.Close()

	var types []string
	for event := range s.Events() {
		types = append(types, event.EventType())
	}
	assert.Equal(t, []string{"ready", "output_transcription", "turn_complete", "closed"}, types)
	assert.NoError(t, s.Err(), "normal close must not surface an error")
}

func TestSession_SendsReachServer(t *testing.T) {
	t.Parallel()

	got := make(chan map[string]any, 3)
	host, closeServer := newSessionTestServer(t, func(conn *websocket.Conn) {
		if !ackSetup(t, conn) {
			return
		}
		for i := 0; i < 3; i++ {
			var frame map[string]any
			if err := conn.ReadJSON(&frame); err != nil {
				return
			}
			got <- frame
		}
		normalClose(conn)
	})
	defer closeServer()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	s, err := Connect(ctx, Config{APIKey: "k", Host: host})
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.SendAudioFrame([]byte{0x01, 0x02}))
	require.NoError(t, s.SendText("hello"))
	require.NoError(t, s.SendToolResponse("call-1", "show_board", nil))

	for _, key := range []string{"realtimeInput", "clientContent", "toolResponse"} {
		select {
		case frame := <-got:
			assert.Contains(t, frame, key)
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for %q frame", key)
		}
	}
}

func TestSession_CloseIdempotent(t *testing.T) {
	t.Parallel()

	host, closeServer := newSessionTestServer(t, func(conn *websocket.Conn) {
		if !ackSetup(t, conn) {
			return
		}
		// Hold the connection open until the client closes it.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				conn.Close()
				return
			}
		}
	})
	defer closeServer()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	s, err := Connect(ctx, Config{APIKey: "k", Host: host})
	require.NoError(t, err)

	assert.NoError(t, s.Close())
	assert.NoError(t, s.Close())
	assert.Error(t, s.SendText("late"), "sends on a closed session must fail")
}
