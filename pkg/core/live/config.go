package live

import (
	"net/url"
	"strings"

	"github.com/barky-ai/barky/pkg/core"
	"github.com/barky-ai/barky/pkg/core/audio"
)

const (
	// DefaultHost is the remote AI endpoint host.
	DefaultHost = "generativelanguage.googleapis.com"

	// bidiPath is the websocket path of the bidirectional generate API.
	bidiPath = "/ws/google.ai.generativelanguage.v1beta.GenerativeService.BidiGenerateContent"

	// BoardToolName is the function tool the agent calls to draw the board.
	BoardToolName = "show_board"
)

// DefaultSystemPrompt instructs the agent how to behave as the tutor avatar.
// Replies must be English-only and every answer must draw a board.
const DefaultSystemPrompt = "You are Professor Barky, a friendly dog professor who teaches with " +
	"short spoken explanations. Always reply in English, regardless of the language the user " +
	"speaks. For every answer, you MUST call the " + BoardToolName + " tool exactly once to put " +
	"a visual teaching aid on the board before or while you speak. Keep spoken replies under " +
	"four sentences."

// Config holds everything needed to open one streaming session.
type Config struct {
	// APIKey authenticates the websocket dial. Required.
	APIKey string

	// Host overrides the remote endpoint host. Default: DefaultHost.
	Host string

	// Model is the realtime model identifier, e.g. "models/gemini-2.0-flash-live-001".
	Model string

	// Voice selects the prebuilt output voice.
	Voice string

	// Language forces the input-transcription language code, e.g. "en-US".
	Language string

	// SystemPrompt overrides DefaultSystemPrompt when non-empty.
	SystemPrompt string

	// Input and Output are the audio formats of the capture and playback
	// sides. They commonly differ; both default to the standard rates.
	Input  audio.Format
	Output audio.Format

	// Debug enables stderr debug logging of session activity.
	Debug bool
}

// DefaultConfig returns a Config with sensible defaults. APIKey must still
// be provided by the caller.
func DefaultConfig() Config {
	return Config{
		Host:     DefaultHost,
		Model:    "models/gemini-2.0-flash-live-001",
		Voice:    "Puck",
		Language: "en-US",
		Input:    audio.InputFormat(),
		Output:   audio.OutputFormat(),
	}
}

func (c Config) withDefaults() Config {
	out := c
	if strings.TrimSpace(out.Host) == "" {
		out.Host = DefaultHost
	}
	if strings.TrimSpace(out.Model) == "" {
		out.Model = DefaultConfig().Model
	}
	if strings.TrimSpace(out.Voice) == "" {
		out.Voice = DefaultConfig().Voice
	}
	if strings.TrimSpace(out.Language) == "" {
		out.Language = DefaultConfig().Language
	}
	if strings.TrimSpace(out.SystemPrompt) == "" {
		out.SystemPrompt = DefaultSystemPrompt
	}
	if out.Input.SampleRateHz == 0 {
		out.Input = audio.InputFormat()
	}
	if out.Output.SampleRateHz == 0 {
		out.Output = audio.OutputFormat()
	}
	return out
}

func (c Config) validate() error {
	if strings.TrimSpace(c.APIKey) == "" {
		return core.NewConfigError("missing API key")
	}
	return nil
}

// endpointURL builds the websocket URL. Host may carry an explicit ws:// or
// http:// prefix for dialing local servers; bare hosts dial wss.
func (c Config) endpointURL() string {
	scheme := "wss"
	host := c.Host
	switch {
	case strings.HasPrefix(host, "ws://"):
		scheme, host = "ws", strings.TrimPrefix(host, "ws://")
	case strings.HasPrefix(host, "http://"):
		scheme, host = "ws", strings.TrimPrefix(host, "http://")
	case strings.HasPrefix(host, "wss://"):
		host = strings.TrimPrefix(host, "wss://")
	case strings.HasPrefix(host, "https://"):
		host = strings.TrimPrefix(host, "https://")
	}
	u := url.URL{
		Scheme:   scheme,
		Host:     host,
		Path:     bidiPath,
		RawQuery: url.Values{"key": {c.APIKey}}.Encode(),
	}
	return u.String()
}

// setupMessage builds the first frame of the stream: response modality,
// voice, forced transcription language, tools and system prompt.
func (c Config) setupMessage() clientMessage {
	return clientMessage{
		Setup: &setupPayload{
			Model: c.Model,
			GenerationConfig: &generationConfig{
				ResponseModalities: []string{"AUDIO"},
				SpeechConfig: &speechConfig{
					VoiceConfig: &voiceConfig{
						PrebuiltVoiceConfig: &prebuiltVoiceConfig{VoiceName: c.Voice},
					},
					LanguageCode: c.Language,
				},
			},
			SystemInstruction: &content{
				Parts: []part{{Text: c.SystemPrompt}},
			},
			Tools: []toolDeclaration{
				{GoogleSearch: &struct{}{}},
				{FunctionDeclarations: []functionDeclaration{boardToolDeclaration()}},
			},
			InputAudioTranscription:  &transcription{},
			OutputAudioTranscription: &transcription{},
		},
	}
}

func boardToolDeclaration() functionDeclaration {
	return functionDeclaration{
		Name:        BoardToolName,
		Description: "Show a visual teaching aid on the board. Call exactly once per answer.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"title": map[string]any{"type": "string"},
				"visual": map[string]any{
					"type": "string",
					"enum": []string{"list", "steps", "comparison", "code", "summary", "chart"},
				},
				"items": map[string]any{
					"type": "array",
					"items": map[string]any{
						"type": "object",
						"properties": map[string]any{
							"heading": map[string]any{"type": "string"},
							"content": map[string]any{"type": "string"},
						},
						"required": []string{"content"},
					},
				},
			},
			"required": []string{"title", "visual", "items"},
		},
	}
}
