package avatar

import (
	"testing"

	"github.com/barky-ai/barky/pkg/core/live"
)

func TestHasNonLatinScript(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"hello professor", false},
		{"what is 2 + 2?", false},
		{"café déjà vu", false},
		{"привет", true},
		{"こんにちは", true},
		{"hello мир", true},
		{"", false},
		{"...!?", false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := hasNonLatinScript(tt.in); got != tt.want {
				t.Errorf("hasNonLatinScript(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestAppendFragment_NewEntryWhenTurnClosed(t *testing.T) {
	var tr transcript
	tr.appendFragment(SenderAgent, "one", false)
	tr.appendFragment(SenderAgent, "two", false)
	if len(tr.entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(tr.entries))
	}
}

func TestAppendFragment_SenderChangeSplits(t *testing.T) {
	var tr transcript
	tr.appendFragment(SenderUser, "question", true)
	tr.appendFragment(SenderAgent, "answer", true)
	tr.appendFragment(SenderAgent, " more", true)

	if len(tr.entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(tr.entries))
	}
	if tr.entries[1].Text != "answer more" {
		t.Errorf("agent entry = %q, want %q", tr.entries[1].Text, "answer more")
	}
}

func TestAppendFragment_EmptyIsNoop(t *testing.T) {
	var tr transcript
	if tr.appendFragment(SenderUser, "", true) {
		t.Error("empty fragment reported a change")
	}
}

func TestMergeSources_Idempotent(t *testing.T) {
	var tr transcript
	tr.appendFragment(SenderAgent, "grounded claim", true)

	sources := []live.Source{{URI: "https://a.example", Title: "A"}}
	if !tr.mergeSources(sources) {
		t.Fatal("first merge reported no change")
	}
	if tr.mergeSources(sources) {
		t.Error("second merge of identical sources reported a change")
	}
	if len(tr.entries[0].Sources) != 1 {
		t.Errorf("sources = %d, want 1", len(tr.entries[0].Sources))
	}
}

func TestMergeSources_RequiresAgentTail(t *testing.T) {
	var tr transcript
	if tr.mergeSources([]live.Source{{URI: "https://a.example"}}) {
		t.Error("merge into empty transcript reported a change")
	}

	tr.appendFragment(SenderUser, "question", true)
	if tr.mergeSources([]live.Source{{URI: "https://a.example"}}) {
		t.Error("merge into user entry reported a change")
	}
}

func TestSnapshot_IsACopy(t *testing.T) {
	var tr transcript
	tr.appendFragment(SenderAgent, "original", true)
	tr.mergeSources([]live.Source{{URI: "https://a.example", Title: "A"}})

	snap := tr.snapshot()
	snap[0].Text = "mutated"
	snap[0].Sources[0].Title = "mutated"

	if tr.entries[0].Text != "original" {
		t.Error("snapshot shares entry backing with transcript")
	}
	if tr.entries[0].Sources[0].Title != "A" {
		t.Error("snapshot shares source backing with transcript")
	}
}
