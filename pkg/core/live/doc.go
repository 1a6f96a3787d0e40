// Package live implements the bidirectional streaming transport to the
// realtime AI endpoint.
//
// A Session owns one websocket connection. It sends microphone PCM frames,
// typed text turns and tool responses upstream, and decodes every server
// frame into a tagged Event delivered on a single ordered channel:
//
//	Audio In → SendAudioFrame ─┐
//	Text In  → SendText ───────┤→ websocket → server
//	Tool Ack → SendToolResponse┘
//
//	server → readLoop → decodeServerMessage → Events()
//
// Server frames are multiplexed: one frame may carry an audio part, a
// transcription delta and a turn marker together. decodeServerMessage keeps
// the intra-frame order stable (content before markers) so consumers can
// reconcile state from a single loop.
package live
