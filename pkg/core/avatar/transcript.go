package avatar

import (
	"time"
	"unicode"

	"github.com/barky-ai/barky/pkg/core/live"
)

// Sender identifies who produced a transcript entry.
type Sender string

const (
	SenderUser  Sender = "user"
	SenderAgent Sender = "agent"
)

// Entry is one ordered transcript line. Entries are append-only except for
// the last entry of a given sender, which absorbs streamed text fragments and
// newly arriving citation sources while its turn stays open.
type Entry struct {
	Text      string        `json:"text"`
	Sender    Sender        `json:"sender"`
	CreatedAt time.Time     `json:"created_at"`
	Sources   []live.Source `json:"sources,omitempty"`
}

// transcript accumulates entries in strict arrival order.
type transcript struct {
	entries []Entry
}

// appendFragment extends the last entry when it belongs to sender and that
// sender's turn is still open, otherwise starts a new entry. Reports whether
// the transcript changed.
func (t *transcript) appendFragment(sender Sender, text string, turnOpen bool) bool {
	if text == "" {
		return false
	}
	if n := len(t.entries); n > 0 && t.entries[n-1].Sender == sender && turnOpen {
		t.entries[n-1].Text += text
		return true
	}
	t.entries = append(t.entries, Entry{
		Text:      text,
		Sender:    sender,
		CreatedAt: time.Now(),
	})
	return true
}

// mergeSources folds citation sources into the last agent entry, deduplicated
// by URI with first-arrival order preserved. Reports whether anything new was
// added; redelivering known sources is a no-op.
func (t *transcript) mergeSources(sources []live.Source) bool {
	n := len(t.entries)
	if n == 0 || t.entries[n-1].Sender != SenderAgent {
		return false
	}
	entry := &t.entries[n-1]

	seen := make(map[string]bool, len(entry.Sources))
	for _, s := range entry.Sources {
		seen[s.URI] = true
	}

	added := false
	for _, s := range sources {
		if s.URI == "" || seen[s.URI] {
			continue
		}
		seen[s.URI] = true
		entry.Sources = append(entry.Sources, s)
		added = true
	}
	return added
}

// snapshot returns a copy safe to hand outside the run loop.
func (t *transcript) snapshot() []Entry {
	out := make([]Entry, len(t.entries))
	copy(out, t.entries)
	for i := range out {
		if len(out[i].Sources) > 0 {
			sources := make([]live.Source, len(out[i].Sources))
			copy(sources, out[i].Sources)
			out[i].Sources = sources
		}
	}
	return out
}

// hasNonLatinScript reports whether text contains letters from a script other
// than Latin. Input transcription fragments failing this check are dropped
// entirely; it is a heuristic language filter, not a guarantee.
func hasNonLatinScript(text string) bool {
	for _, r := range text {
		if unicode.IsLetter(r) && !unicode.Is(unicode.Latin, r) {
			return true
		}
	}
	return false
}
