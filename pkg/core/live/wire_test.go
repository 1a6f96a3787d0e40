package live

import (
	"encoding/base64"
	"encoding/json"
	"testing"
)

func decodeJSON(t *testing.T, raw string) []Event {
	t.Helper()
	var msg serverMessage
	if err := json.Unmarshal([]byte(raw), &msg); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	events, err := decodeServerMessage(msg)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	return events
}

func TestDecode_SetupComplete(t *testing.T) {
	events := decodeJSON(t, `{"setupComplete":{}}`)
	if len(events) != 1 {
		t.Fatalf("events = %d, want 1", len(events))
	}
	if _, ok := events[0].(ReadyEvent); !ok {
		t.Errorf("event = %T, want ReadyEvent", events[0])
	}
}

func TestDecode_ToolCall(t *testing.T) {
	events := decodeJSON(t, `{"toolCall":{"functionCalls":[
		{"id":"call-1","name":"show_board","args":{"title":"Gravity"}}]}}`)
	if len(events) != 1 {
		t.Fatalf("events = %d, want 1", len(events))
	}
	call, ok := events[0].(ToolCallEvent)
	if !ok {
		t.Fatalf("event = %T, want ToolCallEvent", events[0])
	}
	if call.ID != "call-1" || call.Name != "show_board" {
		t.Errorf("call = %+v", call)
	}
	if call.Args["title"] != "Gravity" {
		t.Errorf("Args = %v", call.Args)
	}
}

func TestDecode_AudioChunk(t *testing.T) {
	pcm := []byte{0x01, 0x02, 0x03, 0x04}
	raw := `{"serverContent":{"modelTurn":{"parts":[{"inlineData":{
		"mimeType":"audio/pcm;rate=24000","data":"` + base64.StdEncoding.EncodeToString(pcm) + `"}}]}}}`

	events := decodeJSON(t, raw)
	if len(events) != 1 {
		t.Fatalf("events = %d, want 1", len(events))
	}
	chunk, ok := events[0].(AudioChunkEvent)
	if !ok {
		t.Fatalf("event = %T, want AudioChunkEvent", events[0])
	}
	if string(chunk.PCM) != string(pcm) {
		t.Errorf("PCM = %v, want %v", chunk.PCM, pcm)
	}
	if chunk.MIMEType != "audio/pcm;rate=24000" {
		t.Errorf("MIMEType = %q", chunk.MIMEType)
	}
}

func TestDecode_BadAudioPayload(t *testing.T) {
	var msg serverMessage
	raw := `{"serverContent":{"modelTurn":{"parts":[{"inlineData":{"mimeType":"audio/pcm","data":"!!!"}}]}}}`
	if err := json.Unmarshal([]byte(raw), &msg); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if _, err := decodeServerMessage(msg); err == nil {
		t.Error("expected error for invalid base64 audio")
	}
}

func TestDecode_CombinedFrameOrder(t *testing.T) {
	raw := `{"serverContent":{
		"modelTurn":{"parts":[{"inlineData":{"mimeType":"audio/pcm","data":"AAA="}}]},
		"outputTranscription":{"text":"Hello"},
		"interrupted":true,
		"turnComplete":true}}`

	events := decodeJSON(t, raw)
	if len(events) != 4 {
		t.Fatalf("events = %d, want 4", len(events))
	}
	// Content first, markers last, interruption before the turn boundary.
	if _, ok := events[0].(AudioChunkEvent); !ok {
		t.Errorf("events[0] = %T, want AudioChunkEvent", events[0])
	}
	if _, ok := events[1].(OutputTranscriptionEvent); !ok {
		t.Errorf("events[1] = %T, want OutputTranscriptionEvent", events[1])
	}
	if _, ok := events[2].(InterruptedEvent); !ok {
		t.Errorf("events[2] = %T, want InterruptedEvent", events[2])
	}
	if _, ok := events[3].(TurnCompleteEvent); !ok {
		t.Errorf("events[3] = %T, want TurnCompleteEvent", events[3])
	}
}

func TestDecode_Grounding(t *testing.T) {
	raw := `{"serverContent":{"groundingMetadata":{"groundingChunks":[
		{"web":{"uri":"https://example.com/a","title":"A"}},
		{"web":{"uri":"","title":"empty"}},
		{}]}}}`

	events := decodeJSON(t, raw)
	if len(events) != 1 {
		t.Fatalf("events = %d, want 1", len(events))
	}
	g, ok := events[0].(GroundingEvent)
	if !ok {
		t.Fatalf("event = %T, want GroundingEvent", events[0])
	}
	if len(g.Sources) != 1 {
		t.Fatalf("Sources = %d, want 1 (blank and non-web chunks skipped)", len(g.Sources))
	}
	if g.Sources[0].URI != "https://example.com/a" || g.Sources[0].Title != "A" {
		t.Errorf("Sources[0] = %+v", g.Sources[0])
	}
}

func TestDecode_EmptyGroundingIsNoEvent(t *testing.T) {
	events := decodeJSON(t, `{"serverContent":{"groundingMetadata":{"groundingChunks":[]}}}`)
	if len(events) != 0 {
		t.Errorf("events = %d, want 0", len(events))
	}
}

func TestDecode_InputTranscription(t *testing.T) {
	events := decodeJSON(t, `{"serverContent":{"inputTranscription":{"text":"hi there"}}}`)
	if len(events) != 1 {
		t.Fatalf("events = %d, want 1", len(events))
	}
	in, ok := events[0].(InputTranscriptionEvent)
	if !ok || in.Text != "hi there" {
		t.Errorf("event = %#v", events[0])
	}
}

func TestSetupMessage_Shape(t *testing.T) {
	cfg := DefaultConfig()
	cfg.APIKey = "k"
	cfg = cfg.withDefaults()

	data, err := json.Marshal(cfg.setupMessage())
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var frame map[string]any
	if err := json.Unmarshal(data, &frame); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	setup, ok := frame["setup"].(map[string]any)
	if !ok {
		t.Fatalf("missing setup object: %v", frame)
	}
	if setup["model"] != cfg.Model {
		t.Errorf("model = %v, want %v", setup["model"], cfg.Model)
	}
	if _, ok := setup["inputAudioTranscription"]; !ok {
		t.Error("missing inputAudioTranscription")
	}
	if _, ok := setup["outputAudioTranscription"]; !ok {
		t.Error("missing outputAudioTranscription")
	}

	tools, ok := setup["tools"].([]any)
	if !ok || len(tools) != 2 {
		t.Fatalf("tools = %v, want search + function declarations", setup["tools"])
	}
}

func TestClientFrames_MarshalOneOf(t *testing.T) {
	data, err := json.Marshal(clientMessage{
		RealtimeInput: &realtimeInput{
			MediaChunks: []mediaChunk{{MIMEType: "audio/pcm;rate=16000", Data: "AAA="}},
		},
	})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var frame map[string]any
	if err := json.Unmarshal(data, &frame); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(frame) != 1 {
		t.Errorf("frame carries %d keys, want exactly 1: %v", len(frame), frame)
	}
	if _, ok := frame["realtimeInput"]; !ok {
		t.Error("missing realtimeInput")
	}
}
