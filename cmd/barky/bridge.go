package main

import (
	"context"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"log/slog"
	"math"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"

	"github.com/barky-ai/barky/internal/config"
	"github.com/barky-ai/barky/internal/metrics"
	"github.com/barky-ai/barky/pkg/core/audio"
	"github.com/barky-ai/barky/pkg/core/avatar"
	"github.com/barky-ai/barky/pkg/core/board"
	"github.com/barky-ai/barky/pkg/core/live"
	"github.com/barky-ai/barky/pkg/core/playback"
)

// browserFrame is a message from the page: session control, captured audio
// (base64 little-endian float32 samples), typed text or a scripted action.
type browserFrame struct {
	Type string `json:"type"`
	Data string `json:"data,omitempty"`
	Text string `json:"text,omitempty"`
	Name string `json:"name,omitempty"`
}

// serverFrame is a message to the page.
type serverFrame struct {
	Type    string        `json:"type"`
	Mood    string        `json:"mood,omitempty"`
	Entries []avatar.Entry `json:"entries,omitempty"`
	Board   *board.Spec   `json:"board,omitempty"`
	Layout  *board.Layout `json:"layout,omitempty"`
	Data    string        `json:"data,omitempty"`
	Message string        `json:"message,omitempty"`
}

// Bridge accepts browser websocket connections and runs one upstream session
// per connection.
type Bridge struct {
	cfg *config.Config
	m   *metrics.Metrics
}

func newBridge(cfg *config.Config, m *metrics.Metrics) *Bridge {
	return &Bridge{cfg: cfg, m: m}
}

// ServeHTTP upgrades the connection and runs the bridge loop until the page
// disconnects.
func (b *Bridge) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	opts := &websocket.AcceptOptions{}
	if b.cfg.IsDevelopment() {
		opts.OriginPatterns = []string{"*"}
	}
	ws, err := websocket.Accept(w, r, opts)
	if err != nil {
		slog.Error("Failed to accept WebSocket", "error", err)
		return
	}

	c := &client{bridge: b, ws: ws}
	defer c.teardown()
	defer func() {
		if closeErr := ws.Close(websocket.StatusNormalClosure, "session ended"); closeErr != nil {
			slog.Debug("Failed to close websocket", "error", closeErr)
		}
	}()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	slog.Info("Browser connected", "ip", r.RemoteAddr)
	c.readLoop(ctx)
	slog.Info("Browser disconnected", "ip", r.RemoteAddr)
}

// client is the per-connection state: the browser socket plus, once started,
// the upstream session, scheduler and coordinator.
type client struct {
	bridge *Bridge
	ws     *websocket.Conn

	writeMu sync.Mutex

	mu    sync.Mutex
	sess  *live.Session
	sched *playback.Scheduler
	coord *avatar.Coordinator
}

func (c *client) readLoop(ctx context.Context) {
	for {
		_, message, err := c.ws.Read(ctx)
		if err != nil {
			if websocket.CloseStatus(err) != -1 {
				slog.Debug("WebSocket closed by client")
			} else {
				slog.Warn("WebSocket read error", "error", err)
			}
			return
		}

		var frame browserFrame
		if err := json.Unmarshal(message, &frame); err != nil {
			slog.Warn("Undecodable browser frame", "error", err)
			continue
		}

		switch frame.Type {
		case "start":
			c.start(ctx)
		case "stop":
			c.teardown()
			c.send(serverFrame{Type: "mood", Mood: avatar.MoodIdle.String()})
		case "audio":
			c.forwardAudio(frame.Data)
		case "text":
			if coord := c.coordinator(); coord != nil {
				coord.DispatchText(frame.Text)
			}
		case "action":
			if coord := c.coordinator(); coord != nil {
				coord.DispatchAction(frame.Name)
			}
		}
	}
}

// start opens the upstream session and wires scheduler and coordinator to it.
func (c *client) start(ctx context.Context) {
	c.mu.Lock()
	if c.sess != nil {
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()

	c.send(serverFrame{Type: "mood", Mood: avatar.MoodConnecting.String()})

	liveCfg := live.DefaultConfig()
	liveCfg.APIKey = c.bridge.cfg.APIKey
	liveCfg.Debug = c.bridge.cfg.Debug
	if c.bridge.cfg.Model != "" {
		liveCfg.Model = c.bridge.cfg.Model
	}
	if c.bridge.cfg.Voice != "" {
		liveCfg.Voice = c.bridge.cfg.Voice
	}
	if c.bridge.cfg.Language != "" {
		liveCfg.Language = c.bridge.cfg.Language
	}

	sess, err := live.Connect(ctx, liveCfg)
	if err != nil {
		slog.Error("Upstream connect failed", "error", err)
		c.bridge.m.SessionErrors.Inc()
		c.send(serverFrame{Type: "error", Message: "could not reach the professor, try again"})
		c.send(serverFrame{Type: "mood", Mood: avatar.MoodIdle.String()})
		return
	}

	drained := make(chan struct{}, 1)
	sched := playback.NewScheduler(&wsSink{client: c, m: c.bridge.m}, sess.Config().Output,
		playback.WithOnDrained(func() {
			select {
			case drained <- struct{}{}:
			default:
			}
		}))
	sched.Start()

	coord := avatar.NewCoordinator(
		&meteredTransport{Session: sess, m: c.bridge.m},
		sched, drained,
		avatar.Options{Debug: c.bridge.cfg.Debug},
	)
	coord.Start()

	c.mu.Lock()
	c.sess = sess
	c.sched = sched
	c.coord = coord
	c.mu.Unlock()

	c.bridge.m.SessionsOpened.Inc()
	c.bridge.m.ActiveSessions.Inc()

	go c.forwardUpdates(coord)
}

// forwardUpdates relays coordinator state changes to the page until the
// coordinator stops.
func (c *client) forwardUpdates(coord *avatar.Coordinator) {
	for update := range coord.Updates() {
		c.bridge.m.StateUpdates.WithLabelValues(update.UpdateType()).Inc()
		switch u := update.(type) {
		case avatar.MoodUpdate:
			c.send(serverFrame{Type: "mood", Mood: u.Mood.String()})
		case avatar.TranscriptUpdate:
			c.send(serverFrame{Type: "transcript", Entries: u.Entries})
		case avatar.BoardUpdate:
			b, l := u.Board, u.Layout
			c.send(serverFrame{Type: "board", Board: &b, Layout: &l})
		case avatar.ErrorUpdate:
			c.bridge.m.SessionErrors.Inc()
			c.send(serverFrame{Type: "error", Message: u.Message})
		}
	}
}

// forwardAudio turns one captured float32 frame into PCM and ships it
// upstream. Best-effort: frames arriving with no live session are dropped.
func (c *client) forwardAudio(data string) {
	c.mu.Lock()
	sess := c.sess
	c.mu.Unlock()
	if sess == nil {
		return
	}

	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		slog.Warn("Undecodable audio frame", "error", err)
		return
	}
	pcm := audio.EncodePCM16(decodeFloat32Samples(raw))
	if len(pcm) == 0 {
		return
	}
	if err := sess.SendAudioFrame(pcm); err != nil {
		slog.Debug("Audio frame dropped", "error", err)
		return
	}
	c.bridge.m.AudioFramesSent.Inc()
	c.bridge.m.AudioBytesSent.Add(float64(len(pcm)))
}

func (c *client) coordinator() *avatar.Coordinator {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.coord
}

// teardown releases the session, scheduler and coordinator. Idempotent; runs
// on explicit stop and on browser disconnect alike.
func (c *client) teardown() {
	c.mu.Lock()
	coord, sched := c.coord, c.sched
	active := c.sess != nil
	c.sess, c.sched, c.coord = nil, nil, nil
	c.mu.Unlock()

	if coord != nil {
		coord.Close()
	}
	if sched != nil {
		sched.Close()
	}
	if active {
		c.bridge.m.ActiveSessions.Dec()
	}
}

func (c *client) send(frame serverFrame) {
	data, err := json.Marshal(frame)
	if err != nil {
		slog.Error("Failed to marshal server frame", "error", err)
		return
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := c.ws.Write(ctx, websocket.MessageText, data); err != nil {
		slog.Debug("WebSocket write error", "error", err)
	}
}

// wsSink delivers scheduled agent audio to the page.
type wsSink struct {
	client *client
	m      *metrics.Metrics
}

func (s *wsSink) Write(pcm []byte) error {
	s.m.PlaybackChunks.Inc()
	s.m.PlaybackSeconds.Add(float64(audio.OutputFormat().DurationMs(len(pcm))) / 1000)
	s.client.send(serverFrame{Type: "audio", Data: base64.StdEncoding.EncodeToString(pcm)})
	return nil
}

// Flush tells the page to discard buffered audio, used on barge-in.
func (s *wsSink) Flush() error {
	s.client.send(serverFrame{Type: "flush"})
	return nil
}

// meteredTransport counts upstream events on their way to the coordinator.
type meteredTransport struct {
	*live.Session
	m *metrics.Metrics

	once   sync.Once
	events chan live.Event
}

func (t *meteredTransport) Events() <-chan live.Event {
	t.once.Do(func() {
		t.events = make(chan live.Event, 256)
		go func() {
			defer close(t.events)
			for ev := range t.Session.Events() {
				t.m.ServerEvents.WithLabelValues(ev.EventType()).Inc()
				if _, ok := ev.(live.ToolCallEvent); ok {
					t.m.ToolCalls.Inc()
				}
				t.events <- ev
			}
		}()
	})
	return t.events
}

// decodeFloat32Samples reads little-endian float32 samples, dropping any
// truncated trailing bytes.
func decodeFloat32Samples(raw []byte) []float32 {
	n := len(raw) / 4
	samples := make([]float32, n)
	for i := 0; i < n; i++ {
		bits := binary.LittleEndian.Uint32(raw[i*4:])
		samples[i] = math.Float32frombits(bits)
	}
	return samples
}
