// Package board turns the model-produced teaching-aid payload into typed
// visual layouts. The producer controls both structure and content, so every
// field access tolerates missing or renamed keys and every text value passes
// through a sanitizer before display.
package board

import (
	"strings"
)

// Visual selects one of the six mutually exclusive board layouts.
type Visual string

const (
	VisualList       Visual = "list"
	VisualSteps      Visual = "steps"
	VisualComparison Visual = "comparison"
	VisualCode       Visual = "code"
	VisualSummary    Visual = "summary"
	VisualChart      Visual = "chart"
)

// Item is one entry on the board.
type Item struct {
	Heading string `json:"heading,omitempty"`
	Content string `json:"content"`
}

// Spec is the parsed board state. It is replaced wholesale on each tool call
// and hidden eagerly when a new user utterance begins.
type Spec struct {
	Title   string `json:"title"`
	Visual  Visual `json:"visual"`
	Items   []Item `json:"items"`
	Visible bool   `json:"visible"`
}

// Parse maps a weakly-typed tool-call payload into a Spec. Unknown visual
// types fall back to the list layout; missing fields render as empty rather
// than failing.
func Parse(args map[string]any) Spec {
	spec := Spec{
		Title:   Sanitize(pickString(args, "title", "boardTitle", "heading")),
		Visual:  parseVisual(pickString(args, "visual", "visualType", "type")),
		Visible: true,
	}

	for _, raw := range pickSlice(args, "items", "content", "data") {
		entry, ok := raw.(map[string]any)
		if !ok {
			if s, ok := raw.(string); ok {
				spec.Items = append(spec.Items, Item{Content: Sanitize(s)})
			}
			continue
		}
		spec.Items = append(spec.Items, Item{
			Heading: Sanitize(pickString(entry, "heading", "label", "term", "name")),
			Content: Sanitize(pickString(entry, "content", "value", "detail", "text", "description")),
		})
	}

	return spec
}

func parseVisual(s string) Visual {
	switch Visual(strings.ToLower(strings.TrimSpace(s))) {
	case VisualList:
		return VisualList
	case VisualSteps:
		return VisualSteps
	case VisualComparison:
		return VisualComparison
	case VisualCode:
		return VisualCode
	case VisualSummary:
		return VisualSummary
	case VisualChart:
		return VisualChart
	default:
		return VisualList
	}
}

// scaffoldLabels are prefixes models tend to prepend to item text.
var scaffoldLabels = []string{"detail", "content", "value", "description", "step"}

// Sanitize strips a leading scaffolding label ("Detail:", "content: ", ...)
// from a text value, case-insensitive, with optional colon and space.
func Sanitize(s string) string {
	trimmed := strings.TrimSpace(s)
	lower := strings.ToLower(trimmed)
	for _, label := range scaffoldLabels {
		if !strings.HasPrefix(lower, label) {
			continue
		}
		rest := trimmed[len(label):]
		if rest == "" {
			return ""
		}
		if rest[0] != ':' && rest[0] != ' ' {
			continue
		}
		rest = strings.TrimPrefix(rest, ":")
		return strings.TrimSpace(rest)
	}
	return trimmed
}

func pickString(m map[string]any, keys ...string) string {
	for _, key := range keys {
		if v, ok := m[key]; ok {
			if s, ok := v.(string); ok && strings.TrimSpace(s) != "" {
				return s
			}
		}
	}
	return ""
}

func pickSlice(m map[string]any, keys ...string) []any {
	for _, key := range keys {
		if v, ok := m[key]; ok {
			if items, ok := v.([]any); ok {
				return items
			}
		}
	}
	return nil
}
