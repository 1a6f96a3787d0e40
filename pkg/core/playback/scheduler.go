// Package playback serializes asynchronously arriving audio chunks into
// continuous, gap-free output. Chunks are scheduled against a monotonic
// watermark so that arrival order is preserved and no chunk starts before the
// previous one ends, even when decode completion order lags wall-clock
// availability.
package playback

import (
	"sync"
	"time"

	"github.com/barky-ai/barky/pkg/core/audio"
)

// Clock provides a monotonic time axis for scheduling decisions.
type Clock interface {
	Now() time.Duration
}

type realClock struct {
	start time.Time
}

// NewClock returns a monotonic clock anchored at construction time.
func NewClock() Clock {
	return &realClock{start: time.Now()}
}

func (c *realClock) Now() time.Duration {
	return time.Since(c.start)
}

// Sink receives PCM audio when its scheduled start time arrives.
type Sink interface {
	// Write delivers 16-bit little-endian PCM to the playback device.
	Write(pcm []byte) error

	// Flush discards any audio the device has buffered but not yet played.
	Flush() error
}

// Handle identifies one scheduled chunk.
type Handle struct {
	ID      int64
	StartAt time.Duration
	EndAt   time.Duration
}

// Scheduler queues decoded audio chunks for back-to-back playback.
//
// Invariant: the watermark never decreases while chunks are queued, so for any
// two chunks scheduled in order, start(next) >= end(prev). A chunk arriving
// behind schedule starts immediately, introducing a gap rather than an overlap.
type Scheduler struct {
	clock  Clock
	sink   Sink
	format audio.Format
	tick   time.Duration

	mu        sync.Mutex
	watermark time.Duration
	nextID    int64
	pending   []*queuedChunk // FIFO, start times non-decreasing
	playing   map[int64]Handle

	onDrained func()

	runOnce   sync.Once
	closeOnce sync.Once
	done      chan struct{}
}

type queuedChunk struct {
	handle Handle
	pcm    []byte
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithClock overrides the scheduling clock. Used by tests.
func WithClock(c Clock) Option {
	return func(s *Scheduler) { s.clock = c }
}

// WithTick overrides the internal pump interval.
func WithTick(d time.Duration) Option {
	return func(s *Scheduler) { s.tick = d }
}

// WithOnDrained registers a callback fired when the last active chunk
// finishes naturally. Not fired by StopAll.
func WithOnDrained(fn func()) Option {
	return func(s *Scheduler) { s.onDrained = fn }
}

// NewScheduler creates a scheduler writing to sink. Call Start to begin the
// pump loop; tests drive the scheduler manually instead.
func NewScheduler(sink Sink, format audio.Format, opts ...Option) *Scheduler {
	s := &Scheduler{
		sink:    sink,
		format:  format,
		tick:    20 * time.Millisecond,
		playing: make(map[int64]Handle),
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.clock == nil {
		s.clock = NewClock()
	}
	return s
}

// Start launches the pump loop that releases due chunks to the sink and
// retires finished ones.
func (s *Scheduler) Start() {
	s.runOnce.Do(func() {
		go s.run()
	})
}

func (s *Scheduler) run() {
	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()
	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.pump()
		}
	}
}

// Play schedules a decoded chunk to begin at max(watermark, now) and advances
// the watermark by the chunk's duration. The returned handle records the
// scheduled start and end.
func (s *Scheduler) Play(pcm []byte) Handle {
	dur := time.Duration(s.format.DurationMs(len(pcm))) * time.Millisecond

	s.mu.Lock()
	now := s.clock.Now()
	start := s.watermark
	if now > start {
		start = now
	}
	s.nextID++
	h := Handle{ID: s.nextID, StartAt: start, EndAt: start + dur}
	s.watermark = h.EndAt
	s.pending = append(s.pending, &queuedChunk{handle: h, pcm: pcm})
	s.mu.Unlock()

	s.pump()
	return h
}

// pump releases due pending chunks to the sink and retires finished handles.
func (s *Scheduler) pump() {
	var writes [][]byte
	var drained bool

	s.mu.Lock()
	now := s.clock.Now()
	for len(s.pending) > 0 && s.pending[0].handle.StartAt <= now {
		chunk := s.pending[0]
		s.pending = s.pending[1:]
		s.playing[chunk.handle.ID] = chunk.handle
		writes = append(writes, chunk.pcm)
	}
	hadActive := len(s.playing) > 0 || len(s.pending) > 0
	for id, h := range s.playing {
		if h.EndAt <= now {
			delete(s.playing, id)
		}
	}
	if hadActive && len(s.playing) == 0 && len(s.pending) == 0 {
		drained = true
	}
	onDrained := s.onDrained
	s.mu.Unlock()

	for _, pcm := range writes {
		// Sink errors are component-local; playback bookkeeping proceeds
		// so mood state stays consistent with the schedule.
		_ = s.sink.Write(pcm)
	}
	if drained && onDrained != nil {
		onDrained()
	}
}

// Active returns the number of chunks currently scheduled or sounding.
func (s *Scheduler) Active() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending) + len(s.playing)
}

// Playing reports whether any chunk is scheduled or sounding.
func (s *Scheduler) Playing() bool {
	return s.Active() > 0
}

// StopAll forcibly halts every queued and sounding chunk, clears the active
// set, and resets the watermark to zero. Safe to call with nothing active and
// safe to call repeatedly.
func (s *Scheduler) StopAll() {
	s.mu.Lock()
	s.pending = nil
	s.playing = make(map[int64]Handle)
	s.watermark = 0
	s.mu.Unlock()

	_ = s.sink.Flush()
}

// Close stops the pump loop. It does not flush the sink; callers that need
// barge-in semantics use StopAll.
func (s *Scheduler) Close() {
	s.closeOnce.Do(func() { close(s.done) })
}
