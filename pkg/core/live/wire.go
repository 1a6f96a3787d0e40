package live

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// Wire shapes for the bidirectional stream. Client messages carry exactly one
// of setup, realtimeInput, clientContent or toolResponse; server frames carry
// one of setupComplete, serverContent or toolCall.

type clientMessage struct {
	Setup         *setupPayload  `json:"setup,omitempty"`
	RealtimeInput *realtimeInput `json:"realtimeInput,omitempty"`
	ClientContent *clientContent `json:"clientContent,omitempty"`
	ToolResponse  *toolResponse  `json:"toolResponse,omitempty"`
}

type setupPayload struct {
	Model                    string            `json:"model"`
	GenerationConfig         *generationConfig `json:"generationConfig,omitempty"`
	SystemInstruction        *content          `json:"systemInstruction,omitempty"`
	Tools                    []toolDeclaration `json:"tools,omitempty"`
	InputAudioTranscription  *transcription    `json:"inputAudioTranscription,omitempty"`
	OutputAudioTranscription *transcription    `json:"outputAudioTranscription,omitempty"`
}

type generationConfig struct {
	ResponseModalities []string      `json:"responseModalities,omitempty"`
	SpeechConfig       *speechConfig `json:"speechConfig,omitempty"`
}

type speechConfig struct {
	VoiceConfig  *voiceConfig `json:"voiceConfig,omitempty"`
	LanguageCode string       `json:"languageCode,omitempty"`
}

type voiceConfig struct {
	PrebuiltVoiceConfig *prebuiltVoiceConfig `json:"prebuiltVoiceConfig,omitempty"`
}

type prebuiltVoiceConfig struct {
	VoiceName string `json:"voiceName"`
}

type transcription struct{}

type toolDeclaration struct {
	GoogleSearch         *struct{}             `json:"googleSearch,omitempty"`
	FunctionDeclarations []functionDeclaration `json:"functionDeclarations,omitempty"`
}

type functionDeclaration struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Parameters  map[string]any `json:"parameters,omitempty"`
}

type realtimeInput struct {
	MediaChunks []mediaChunk `json:"mediaChunks"`
}

type mediaChunk struct {
	MIMEType string `json:"mimeType"`
	Data     string `json:"data"`
}

type clientContent struct {
	Turns        []content `json:"turns"`
	TurnComplete bool      `json:"turnComplete"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inlineData,omitempty"`
}

type inlineData struct {
	MIMEType string `json:"mimeType"`
	Data     string `json:"data"`
}

type toolResponse struct {
	FunctionResponses []functionResponse `json:"functionResponses"`
}

type functionResponse struct {
	ID       string         `json:"id,omitempty"`
	Name     string         `json:"name"`
	Response map[string]any `json:"response"`
}

type serverMessage struct {
	SetupComplete *struct{}      `json:"setupComplete,omitempty"`
	ServerContent *serverContent `json:"serverContent,omitempty"`
	ToolCall      *toolCall      `json:"toolCall,omitempty"`
	GoAway        *goAway        `json:"goAway,omitempty"`
}

type serverContent struct {
	ModelTurn           *content           `json:"modelTurn,omitempty"`
	OutputTranscription *transcriptionText `json:"outputTranscription,omitempty"`
	InputTranscription  *transcriptionText `json:"inputTranscription,omitempty"`
	GroundingMetadata   *groundingMetadata `json:"groundingMetadata,omitempty"`
	TurnComplete        bool               `json:"turnComplete,omitempty"`
	Interrupted         bool               `json:"interrupted,omitempty"`
}

type transcriptionText struct {
	Text string `json:"text"`
}

type groundingMetadata struct {
	GroundingChunks []groundingChunk `json:"groundingChunks,omitempty"`
}

type groundingChunk struct {
	Web *webSource `json:"web,omitempty"`
}

type webSource struct {
	URI   string `json:"uri"`
	Title string `json:"title"`
}

type toolCall struct {
	FunctionCalls []functionCall `json:"functionCalls"`
}

type functionCall struct {
	ID   string         `json:"id,omitempty"`
	Name string         `json:"name"`
	Args map[string]any `json:"args,omitempty"`
}

type goAway struct {
	TimeLeft string `json:"timeLeft,omitempty"`
}

// decodeServerMessage expands one server frame into tagged events. A single
// serverContent frame may carry several independent signals (an audio part,
// a transcription delta and a turn marker can arrive together), so the result
// is a slice in intra-frame order: content first, markers last.
func decodeServerMessage(msg serverMessage) ([]Event, error) {
	var events []Event

	if msg.SetupComplete != nil {
		events = append(events, ReadyEvent{})
	}

	if tc := msg.ToolCall; tc != nil {
		for _, call := range tc.FunctionCalls {
			events = append(events, ToolCallEvent{
				ID:   call.ID,
				Name: call.Name,
				Args: call.Args,
			})
		}
	}

	if sc := msg.ServerContent; sc != nil {
		if sc.ModelTurn != nil {
			for _, p := range sc.ModelTurn.Parts {
				if p.InlineData == nil || p.InlineData.Data == "" {
					continue
				}
				pcm, err := base64.StdEncoding.DecodeString(p.InlineData.Data)
				if err != nil {
					return nil, fmt.Errorf("decode audio payload: %w", err)
				}
				events = append(events, AudioChunkEvent{
					PCM:      pcm,
					MIMEType: p.InlineData.MIMEType,
				})
			}
		}
		if sc.OutputTranscription != nil && sc.OutputTranscription.Text != "" {
			events = append(events, OutputTranscriptionEvent{Text: sc.OutputTranscription.Text})
		}
		if sc.InputTranscription != nil && sc.InputTranscription.Text != "" {
			events = append(events, InputTranscriptionEvent{Text: sc.InputTranscription.Text})
		}
		if gm := sc.GroundingMetadata; gm != nil {
			var sources []Source
			for _, chunk := range gm.GroundingChunks {
				if chunk.Web == nil || strings.TrimSpace(chunk.Web.URI) == "" {
					continue
				}
				sources = append(sources, Source{URI: chunk.Web.URI, Title: chunk.Web.Title})
			}
			if len(sources) > 0 {
				events = append(events, GroundingEvent{Sources: sources})
			}
		}
		if sc.Interrupted {
			events = append(events, InterruptedEvent{})
		}
		if sc.TurnComplete {
			events = append(events, TurnCompleteEvent{})
		}
	}

	return events, nil
}
