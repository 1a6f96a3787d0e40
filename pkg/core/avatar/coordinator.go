// Package avatar reconciles interleaved session events into one consistent
// transcript, board and mood state. All state lives inside a single run loop;
// external callers interact through posted commands and a snapshot API, so no
// mutation happens outside the loop goroutine.
package avatar

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/barky-ai/barky/pkg/core/audio"
	"github.com/barky-ai/barky/pkg/core/board"
	"github.com/barky-ai/barky/pkg/core/live"
	"github.com/barky-ai/barky/pkg/core/playback"
)

// Transport is the upstream session surface the coordinator drives.
type Transport interface {
	Events() <-chan live.Event
	SendText(text string) error
	SendToolResponse(id, name string, response map[string]any) error
	Close() error
}

// Player is the playback surface. Active membership is the sole signal of
// "the agent is audibly speaking".
type Player interface {
	Play(pcm []byte) playback.Handle
	StopAll()
	Active() int
}

// Update is pushed on the Updates channel whenever visible state changes.
type Update interface {
	UpdateType() string
}

// MoodUpdate reports a mood transition.
type MoodUpdate struct {
	Mood Mood `json:"mood"`
}

func (u MoodUpdate) UpdateType() string { return "mood" }

// TranscriptUpdate carries the full transcript after a change.
type TranscriptUpdate struct {
	Entries []Entry `json:"entries"`
}

func (u TranscriptUpdate) UpdateType() string { return "transcript" }

// BoardUpdate carries the current board and its rendered layout.
type BoardUpdate struct {
	Board  board.Spec   `json:"board"`
	Layout board.Layout `json:"layout"`
}

func (u BoardUpdate) UpdateType() string { return "board" }

// ErrorUpdate surfaces a session-level error to the UI.
type ErrorUpdate struct {
	Message string `json:"message"`
}

func (u ErrorUpdate) UpdateType() string { return "error" }

// State is a point-in-time copy of coordinator state.
type State struct {
	Mood       Mood
	Transcript []Entry
	Board      board.Spec
}

// Options tune the coordinator's timing heuristics. Zero values select the
// production defaults; tests shrink the durations.
type Options struct {
	// AnnoyThreshold is how many consecutive repeats of an annoying action
	// trigger the angry mood. Default 3.
	AnnoyThreshold int

	// AngryRevert is how long the angry mood lasts untouched before
	// reverting to listening. Default 3s.
	AngryRevert time.Duration

	// WatchdogPeriod bounds how long the mood may stay stuck on speaking
	// with no active playback and no audible output. Default 2s.
	WatchdogPeriod time.Duration

	// SpeakingLevel is the RMS floor above which an output chunk counts as
	// audible for the watchdog. Default 0.01.
	SpeakingLevel float64

	Debug bool
}

func (o Options) withDefaults() Options {
	if o.AnnoyThreshold <= 0 {
		o.AnnoyThreshold = 3
	}
	if o.AngryRevert <= 0 {
		o.AngryRevert = 3 * time.Second
	}
	if o.WatchdogPeriod <= 0 {
		o.WatchdogPeriod = 2 * time.Second
	}
	if o.SpeakingLevel <= 0 {
		o.SpeakingLevel = 0.01
	}
	return o
}

// Coordinator owns the reconciliation loop for one session.
type Coordinator struct {
	transport Transport
	player    Player
	drained   <-chan struct{}
	opts      Options

	cmds    chan func()
	updates chan Update

	done      chan struct{} // closed by Close
	stopped   chan struct{} // closed when the run loop exits
	runOnce   sync.Once
	closeOnce sync.Once

	// Run-loop-owned state. Never touched outside the loop goroutine.
	mood          Mood
	transcript    transcript
	board         board.Spec
	agentTurnOpen bool
	userTurnOpen  bool
	lastAction    string
	annoyStreak   int
	lastAudible   time.Time
	revert        *time.Timer
}

// NewCoordinator wires a transport and a player together. drained should fire
// when the player's last active chunk finishes naturally; it may be nil.
func NewCoordinator(transport Transport, player Player, drained <-chan struct{}, opts Options) *Coordinator {
	return &Coordinator{
		transport: transport,
		player:    player,
		drained:   drained,
		opts:      opts.withDefaults(),
		cmds:      make(chan func(), 16),
		updates:   make(chan Update, 256),
		done:      make(chan struct{}),
		stopped:   make(chan struct{}),
		mood:      MoodConnecting,
	}
}

// Updates yields state change notifications. The channel is closed when the
// coordinator stops.
func (c *Coordinator) Updates() <-chan Update {
	return c.updates
}

// Start launches the run loop.
func (c *Coordinator) Start() {
	c.runOnce.Do(func() {
		go c.run()
	})
}

// DispatchText submits a typed user turn. Best-effort: dropped silently once
// the session is gone.
func (c *Coordinator) DispatchText(text string) {
	if text == "" {
		return
	}
	c.post(func() {
		c.onUserInput()
		c.transcript.appendFragment(SenderUser, text, false)
		c.userTurnOpen = false
		c.emit(TranscriptUpdate{Entries: c.transcript.snapshot()})
		if err := c.transport.SendText(text); err != nil {
			c.debug("SEND", "text dropped: "+err.Error())
		}
	})
}

// DispatchAction performs a scripted gesture by name. Unknown names are
// ignored.
func (c *Coordinator) DispatchAction(name string) {
	action, ok := ActionByName(name)
	if !ok {
		return
	}
	c.post(func() {
		c.onUserInput()
		c.applyActionMood(action)
		if err := c.transport.SendText(action.Prompt); err != nil {
			c.debug("SEND", "action dropped: "+err.Error())
		}
	})
}

// Snapshot returns a copy of the current state. Safe from any goroutine.
func (c *Coordinator) Snapshot() State {
	reply := make(chan State, 1)
	c.post(func() {
		reply <- State{
			Mood:       c.mood,
			Transcript: c.transcript.snapshot(),
			Board:      c.board,
		}
	})
	select {
	case s := <-reply:
		return s
	case <-c.stopped:
		return State{Mood: MoodIdle}
	}
}

// Close tears the coordinator down along with its transport and playback.
// Idempotent; safe from the error path and the explicit-stop path alike.
func (c *Coordinator) Close() {
	c.closeOnce.Do(func() {
		_ = c.transport.Close()
		c.player.StopAll()
		close(c.done)
	})
	<-c.stopped
}

func (c *Coordinator) post(fn func()) {
	select {
	case c.cmds <- fn:
	case <-c.stopped:
	}
}

func (c *Coordinator) run() {
	defer close(c.stopped)
	defer close(c.updates)

	watchdog := time.NewTicker(c.opts.WatchdogPeriod)
	defer watchdog.Stop()

	c.revert = time.NewTimer(c.opts.AngryRevert)
	if !c.revert.Stop() {
		<-c.revert.C
	}
	defer c.revert.Stop()

	events := c.transport.Events()
	for {
		select {
		case <-c.done:
			c.setMood(MoodIdle)
			return

		case fn := <-c.cmds:
			fn()

		case ev, ok := <-events:
			if !ok {
				c.setMood(MoodIdle)
				return
			}
			c.handleEvent(ev)

		case <-c.drained:
			// Audio drained naturally. Mood always resolves to listening,
			// angry included.
			if c.player.Active() == 0 && c.sessionLive() {
				c.setMood(MoodListening)
			}

		case <-watchdog.C:
			if c.mood == MoodSpeaking && c.player.Active() == 0 &&
				time.Since(c.lastAudible) >= c.opts.WatchdogPeriod {
				c.debug("MOOD", "watchdog: speaking with no playback, forcing listening")
				c.setMood(MoodListening)
			}

		case <-c.revert.C:
			if c.mood == MoodAngry {
				c.annoyStreak = 0
				c.setMood(MoodListening)
			}
		}
	}
}

func (c *Coordinator) handleEvent(ev live.Event) {
	switch e := ev.(type) {
	case live.ReadyEvent:
		c.setMood(MoodListening)

	case live.ToolCallEvent:
		c.handleToolCall(e)

	case live.AudioChunkEvent:
		if audio.RMSEnergy(e.PCM) >= c.opts.SpeakingLevel {
			c.lastAudible = time.Now()
		}
		c.player.Play(e.PCM)
		if c.mood != MoodAngry {
			c.setMood(MoodSpeaking)
		}

	case live.OutputTranscriptionEvent:
		changed := c.transcript.appendFragment(SenderAgent, e.Text, c.agentTurnOpen)
		c.agentTurnOpen = true
		c.userTurnOpen = false
		if changed {
			c.emit(TranscriptUpdate{Entries: c.transcript.snapshot()})
		}

	case live.InputTranscriptionEvent:
		if hasNonLatinScript(e.Text) {
			c.debug("FILTER", "dropped non-latin input fragment")
			return
		}
		changed := c.transcript.appendFragment(SenderUser, e.Text, c.userTurnOpen)
		c.userTurnOpen = true
		if changed {
			c.emit(TranscriptUpdate{Entries: c.transcript.snapshot()})
		}

	case live.GroundingEvent:
		if c.transcript.mergeSources(e.Sources) {
			c.emit(TranscriptUpdate{Entries: c.transcript.snapshot()})
		}

	case live.TurnCompleteEvent:
		c.agentTurnOpen = false
		c.userTurnOpen = false
		if c.player.Active() == 0 {
			c.setMood(MoodListening)
		}

	case live.InterruptedEvent:
		c.agentTurnOpen = false
		c.player.StopAll()
		c.setMood(MoodListening)

	case live.ErrorEvent:
		if e.Err != nil {
			c.emit(ErrorUpdate{Message: e.Err.Error()})
		}

	case live.ClosedEvent:
		c.player.StopAll()
		c.setMood(MoodIdle)
	}
}

// handleToolCall replaces the board wholesale and always acknowledges the
// call, whatever the rendering outcome; an unanswered call id stalls the
// remote turn.
func (c *Coordinator) handleToolCall(e live.ToolCallEvent) {
	if e.Name == live.BoardToolName {
		spec := board.Parse(e.Args)
		c.board = spec
		c.emit(BoardUpdate{Board: spec, Layout: board.Render(spec)})
	}
	if err := c.transport.SendToolResponse(e.ID, e.Name, nil); err != nil {
		c.debug("SEND", "tool ack dropped: "+err.Error())
	}
}

// onUserInput hides the board eagerly so stale content never shows ahead of
// the next turn's generation.
func (c *Coordinator) onUserInput() {
	c.userTurnOpen = false
	if c.board.Visible {
		c.board.Visible = false
		c.emit(BoardUpdate{Board: c.board, Layout: board.Render(c.board)})
	}
}

func (c *Coordinator) applyActionMood(action Action) {
	if action.Annoying && action.Name == c.lastAction {
		c.annoyStreak++
	} else if action.Annoying {
		c.annoyStreak = 1
	} else {
		c.annoyStreak = 0
	}
	c.lastAction = action.Name

	if c.annoyStreak >= c.opts.AnnoyThreshold {
		c.setMood(MoodAngry)
		return
	}
	c.setMood(action.Mood)
}

func (c *Coordinator) sessionLive() bool {
	return c.mood != MoodIdle && c.mood != MoodConnecting
}

func (c *Coordinator) setMood(m Mood) {
	if c.mood == m {
		return
	}
	c.debug("MOOD", c.mood.String()+" -> "+m.String())
	c.mood = m
	if m == MoodAngry && c.revert != nil {
		// Auto-revert fires only if the mood is still angry when it lands.
		if !c.revert.Stop() {
			select {
			case <-c.revert.C:
			default:
			}
		}
		c.revert.Reset(c.opts.AngryRevert)
	}
	c.emit(MoodUpdate{Mood: m})
}

func (c *Coordinator) emit(u Update) {
	select {
	case c.updates <- u:
	default:
		c.debug("STATE", "update channel full, dropping "+u.UpdateType())
	}
}

func (c *Coordinator) debug(category, message string) {
	if c.opts.Debug {
		timestamp := time.Now().Format("15:04:05.000")
		fmt.Fprintf(os.Stderr, "%s [%-6s] %s\n", timestamp, category, message)
	}
}
