package live

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/barky-ai/barky/pkg/core"
)

const defaultConnectTimeout = 15 * time.Second

// Session is one live bidirectional stream to the remote AI endpoint. It
// multiplexes three logical channels over a single websocket: realtime audio
// input frames, realtime text input, and structured server events.
//
// All send paths are best-effort once the session is closed; teardown is
// idempotent and safe from the error path, the close path and explicit
// restart alike.
type Session struct {
	conn *websocket.Conn
	cfg  Config

	events chan Event
	done   chan struct{}

	writeMu   sync.Mutex
	closeOnce sync.Once
	closed    atomic.Bool

	errMu sync.Mutex
	err   error
}

// Connect opens exactly one streaming connection, sends the setup frame and
// waits for the remote acknowledgment before returning.
func Connect(ctx context.Context, cfg Config) (*Session, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	cfg = cfg.withDefaults()

	dialCtx := ctx
	var cancel context.CancelFunc
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		dialCtx, cancel = context.WithTimeout(ctx, defaultConnectTimeout)
		defer cancel()
	}

	conn, _, err := websocket.DefaultDialer.DialContext(dialCtx, cfg.endpointURL(), nil)
	if err != nil {
		return nil, core.NewTransportError(fmt.Sprintf("dial %s: %v", cfg.Host, err))
	}

	if err := conn.WriteJSON(cfg.setupMessage()); err != nil {
		_ = conn.Close()
		return nil, core.NewTransportError(fmt.Sprintf("send setup: %v", err))
	}

	_ = conn.SetReadDeadline(time.Now().Add(defaultConnectTimeout))
	var first serverMessage
	if err := conn.ReadJSON(&first); err != nil {
		_ = conn.Close()
		return nil, core.NewTransportError(fmt.Sprintf("read setup ack: %v", err))
	}
	_ = conn.SetReadDeadline(time.Time{})
	if first.SetupComplete == nil {
		_ = conn.Close()
		return nil, core.NewTransportError("setup was not acknowledged")
	}

	s := &Session{
		conn:   conn,
		cfg:    cfg,
		events: make(chan Event, 256),
		done:   make(chan struct{}),
	}
	s.emit(ReadyEvent{})
	go s.readLoop()
	return s, nil
}

// Events yields decoded server events in server-send order. The channel is
// closed after a terminal ClosedEvent.
func (s *Session) Events() <-chan Event {
	if s == nil {
		return nil
	}
	return s.events
}

// Config returns the effective session configuration.
func (s *Session) Config() Config {
	return s.cfg
}

// SendAudioFrame transmits one capture frame of 16-bit PCM at the input rate.
func (s *Session) SendAudioFrame(pcm []byte) error {
	mime := fmt.Sprintf("audio/pcm;rate=%d", s.cfg.Input.SampleRateHz)
	return s.sendJSON(clientMessage{
		RealtimeInput: &realtimeInput{
			MediaChunks: []mediaChunk{{
				MIMEType: mime,
				Data:     base64.StdEncoding.EncodeToString(pcm),
			}},
		},
	})
}

// SendText submits a complete typed user turn.
func (s *Session) SendText(text string) error {
	return s.sendJSON(clientMessage{
		ClientContent: &clientContent{
			Turns: []content{{
				Role:  "user",
				Parts: []part{{Text: text}},
			}},
			TurnComplete: true,
		},
	})
}

// SendToolResponse acknowledges a tool invocation. The remote side will not
// continue the turn until the call identifier has been answered.
func (s *Session) SendToolResponse(id, name string, response map[string]any) error {
	if response == nil {
		response = map[string]any{"ok": true}
	}
	return s.sendJSON(clientMessage{
		ToolResponse: &toolResponse{
			FunctionResponses: []functionResponse{{
				ID:       id,
				Name:     name,
				Response: response,
			}},
		},
	})
}

func (s *Session) sendJSON(v any) error {
	if s == nil {
		return core.NewClosedError("session must not be nil")
	}
	if s.closed.Load() {
		return core.NewClosedError("session is closed")
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.conn.WriteJSON(v)
}

// Close tears the session down. Safe to invoke multiple times and from
// multiple call sites.
func (s *Session) Close() error {
	if s == nil {
		return nil
	}
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		s.writeMu.Lock()
		_ = s.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(2*time.Second))
		s.writeMu.Unlock()
		_ = s.conn.Close()
	})
	<-s.done
	return nil
}

// Err returns the terminal session error, if any, once the session ends.
func (s *Session) Err() error {
	if s == nil {
		return nil
	}
	<-s.done
	s.errMu.Lock()
	defer s.errMu.Unlock()
	return s.err
}

func (s *Session) setErr(err error) {
	if err == nil {
		return
	}
	s.errMu.Lock()
	defer s.errMu.Unlock()
	if s.err == nil {
		s.err = err
	}
}

func (s *Session) readLoop() {
	defer close(s.done)
	defer close(s.events)

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) || s.closed.Load() {
				s.emit(ClosedEvent{Reason: "closed"})
				return
			}
			terr := core.NewTransportError(err.Error())
			s.setErr(terr)
			s.emit(ErrorEvent{Err: terr})
			s.emit(ClosedEvent{Reason: "error"})
			return
		}

		var msg serverMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			s.debug("WIRE", "undecodable frame: "+err.Error())
			continue
		}
		if msg.GoAway != nil {
			s.debug("WIRE", "server go-away, time left "+msg.GoAway.TimeLeft)
			continue
		}

		events, err := decodeServerMessage(msg)
		if err != nil {
			s.debug("WIRE", "bad frame payload: "+err.Error())
			continue
		}
		for _, event := range events {
			s.emit(event)
		}
	}
}

func (s *Session) emit(event Event) {
	select {
	case s.events <- event:
	default:
		// Avoid deadlocking the read loop if the consumer stalls.
		s.debug("WIRE", "event channel full, dropping "+event.EventType())
	}
}

// debug logs session activity to stderr and mirrors it onto the event
// channel when Debug is set.
func (s *Session) debug(category, message string) {
	if !s.cfg.Debug {
		return
	}
	timestamp := time.Now().Format("15:04:05.000")
	fmt.Fprintf(os.Stderr, "%s [%-6s] %s\n", timestamp, category, message)
	select {
	case s.events <- DebugEvent{Category: category, Message: message}:
	default:
	}
}
