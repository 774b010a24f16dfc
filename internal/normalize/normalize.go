// Package normalize turns free-form model replies into PlantUML markup and
// optional commentary. Every function here is pure.
package normalize

import (
	"regexp"
	"strings"
)

const (
	// StartMarker opens a PlantUML document.
	StartMarker = "@startuml"
	// EndMarker closes a PlantUML document.
	EndMarker = "@enduml"

	thinkOpen  = "<think>"
	thinkClose = "</think>"
	fence      = "```"
)

var (
	thinkBlock = regexp.MustCompile(`(?s)<think>.*?</think>`)
	// leadingFence matches an opening fence with an optional language tag.
	// Tags other than plantuml must end the line to count as a tag.
	leadingFence = regexp.MustCompile("^```(?:plantuml|puml|uml|[A-Za-z0-9_+-]*[ \t]*\r?\n)?\r?\n?")
	// anyFence matches every fence marker anywhere in the text. Only a
	// plantuml tag ending its line is consumed, so prose or markup glued to
	// a fence survives.
	anyFence = regexp.MustCompile("```(?:(?:plantuml|puml|uml)[ \t]*(?:\r?\n|$)|\r?\n)?")
)

// Result is a normalized model reply.
type Result struct {
	// Markup is set only when HasMarkup is true. It starts with StartMarker
	// and ends with EndMarker.
	Markup    string
	HasMarkup bool
	// Commentary is the prose left over around the markup. It is "" when the
	// reply was pure markup, never a sentinel.
	Commentary string
}

// StripReasoning removes <think>...</think> blocks. Text with only one of the
// two delimiters is returned unchanged.
func StripReasoning(text string) string {
	if !strings.Contains(text, thinkOpen) || !strings.Contains(text, thinkClose) {
		return text
	}
	// Repeated until stable so the result is idempotent: removing one block
	// can join two halves into a new one.
	for {
		next := thinkBlock.ReplaceAllString(text, "")
		if next == text {
			break
		}
		text = next
	}
	return strings.TrimSpace(text)
}

// StripFences removes a leading markdown code fence (tagged or plain) and a
// single trailing closing fence.
func StripFences(text string) string {
	cleaned := strings.TrimSpace(text)
	if !strings.HasPrefix(cleaned, fence) {
		return cleaned
	}
	cleaned = leadingFence.ReplaceAllString(cleaned, "")
	cleaned = strings.TrimSuffix(cleaned, fence)
	return strings.TrimSpace(cleaned)
}

// stripAllFences drops every fence marker, wherever it appears.
func stripAllFences(text string) string {
	if !strings.Contains(text, fence) {
		return strings.TrimSpace(text)
	}
	return strings.TrimSpace(anyFence.ReplaceAllString(text, ""))
}

// Extract pulls the first @startuml..@enduml span out of text. The end marker
// is searched from the start marker forward, so a stray @enduml earlier in
// the text is ignored. Later pairs are left in the commentary.
func Extract(text string) Result {
	start := strings.Index(text, StartMarker)
	if start < 0 {
		return Result{Commentary: text}
	}
	end := strings.Index(text[start:], EndMarker)
	if end < 0 {
		return Result{Commentary: text}
	}

	raw := text[start : start+end+len(EndMarker)]
	markup := stripAllFences(raw)

	res := Result{Markup: markup, HasMarkup: true}
	if markup == stripAllFences(text) {
		return res
	}
	res.Commentary = stripAllFences(strings.Replace(text, raw, "", 1))
	return res
}

// Normalize strips reasoning blocks and extracts markup plus commentary.
func Normalize(raw string) Result {
	return Extract(strings.TrimSpace(StripReasoning(raw)))
}

// CleanMarkup is the single-shot pipeline for replies expected to be markup only.
func CleanMarkup(raw string) string {
	return StripFences(StripReasoning(raw))
}
