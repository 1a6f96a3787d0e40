// Package metrics exposes Prometheus instrumentation for the server.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains all Prometheus metrics for the avatar server.
type Metrics struct {
	ActiveSessions prometheus.Gauge
	SessionsOpened prometheus.Counter
	SessionErrors  prometheus.Counter

	AudioFramesSent prometheus.Counter
	AudioBytesSent  prometheus.Counter

	ServerEvents    *prometheus.CounterVec
	StateUpdates    *prometheus.CounterVec
	ToolCalls       prometheus.Counter
	PlaybackChunks  prometheus.Counter
	PlaybackSeconds prometheus.Counter
}

// New creates and registers all metrics on the default registry.
func New() *Metrics {
	return &Metrics{
		ActiveSessions: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "barky_active_sessions",
			Help: "Current number of live upstream sessions",
		}),
		SessionsOpened: promauto.NewCounter(prometheus.CounterOpts{
			Name: "barky_sessions_opened_total",
			Help: "Total number of upstream sessions opened",
		}),
		SessionErrors: promauto.NewCounter(prometheus.CounterOpts{
			Name: "barky_session_errors_total",
			Help: "Total number of sessions ended by a transport error",
		}),
		AudioFramesSent: promauto.NewCounter(prometheus.CounterOpts{
			Name: "barky_audio_frames_sent_total",
			Help: "Total number of microphone frames sent upstream",
		}),
		AudioBytesSent: promauto.NewCounter(prometheus.CounterOpts{
			Name: "barky_audio_bytes_sent_total",
			Help: "Total PCM bytes sent upstream",
		}),
		ServerEvents: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "barky_server_events_total",
			Help: "Total upstream events received by type",
		}, []string{"type"}),
		StateUpdates: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "barky_state_updates_total",
			Help: "Total state updates pushed to browsers by type",
		}, []string{"type"}),
		ToolCalls: promauto.NewCounter(prometheus.CounterOpts{
			Name: "barky_tool_calls_total",
			Help: "Total generative-UI tool calls handled",
		}),
		PlaybackChunks: promauto.NewCounter(prometheus.CounterOpts{
			Name: "barky_playback_chunks_total",
			Help: "Total agent audio chunks scheduled for playback",
		}),
		PlaybackSeconds: promauto.NewCounter(prometheus.CounterOpts{
			Name: "barky_playback_seconds_total",
			Help: "Total seconds of agent audio scheduled for playback",
		}),
	}
}
