package ollama

import (
	"strings"
	"unicode"
)

// fallbackSuggestions are substituted when a non-empty model response yields
// nothing usable after parsing and filtering.
var fallbackSuggestions = []string{
	"I'll review this and get back to you soon.",
	"Thanks for your email. Let me think about this.",
	"I've received your message and will respond shortly.",
}

// FallbackSuggestions returns a copy of the canned suggestion list.
func FallbackSuggestions() []string {
	return append([]string(nil), fallbackSuggestions...)
}

// parseSuggestions extracts individual suggestions from a raw model
// response. Numbered-list items are preferred; wrapped lines are joined onto
// the item they continue. When no numbered list is present, plausible
// free-standing lines are taken instead. Everything then passes a quality
// filter; if nothing survives, the canned fallback list is returned with
// fallback=true. An empty response yields an empty list.
func parseSuggestions(raw string) (suggestions []string, fallback bool) {
	if raw == "" {
		return nil, false
	}

	lines := strings.Split(strings.TrimSpace(raw), "\n")

	candidates := parseNumberedList(lines)
	if len(candidates) == 0 {
		candidates = parseFreeLines(lines)
	}

	filtered := filterSuggestions(candidates)
	if len(filtered) == 0 {
		return FallbackSuggestions(), true
	}
	return filtered, false
}

// parseNumberedList collects "1. ..." style items, joining continuation
// lines onto the current item. A space is inserted only when the item does
// not already end with punctuation.
func parseNumberedList(lines []string) []string {
	var suggestions []string
	var current string
	inList := false

	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if rest, ok := stripListNumber(line); ok {
			inList = true
			if current != "" {
				suggestions = append(suggestions, strings.TrimSpace(current))
			}
			current = rest
			continue
		}

		if inList {
			if current != "" && !strings.ContainsRune(".,:;!?", rune(current[len(current)-1])) {
				current += " "
			}
			current += line
		}
	}

	if current != "" {
		suggestions = append(suggestions, strings.TrimSpace(current))
	}
	return suggestions
}

// stripListNumber removes a leading "N." marker and reports whether the line
// carried one.
func stripListNumber(line string) (string, bool) {
	if line == "" || !unicode.IsDigit(rune(line[0])) {
		return line, false
	}
	rest := strings.TrimLeft(line, "0123456789")
	if !strings.HasPrefix(rest, ".") {
		return line, false
	}
	return strings.TrimSpace(rest[1:]), true
}

// parseFreeLines is the fallback extraction for responses without a
// numbered list: any plausible line counts, up to three.
func parseFreeLines(lines []string) []string {
	var suggestions []string
	for _, line := range lines {
		line = strings.TrimSpace(line)
		lower := strings.ToLower(line)

		if line == "" ||
			strings.HasPrefix(lower, "system:") ||
			strings.HasPrefix(lower, "user:") ||
			strings.HasPrefix(lower, "assistant:") {
			continue
		}
		if len(line) < 10 ||
			strings.HasPrefix(lower, "suggestion") ||
			strings.HasPrefix(lower, "reply") {
			continue
		}

		suggestions = append(suggestions, line)
		if len(suggestions) >= 3 {
			break
		}
	}
	return suggestions
}

// filterSuggestions drops residual numbering artifacts, short fragments, and
// lines that read as instructions instead of replies.
func filterSuggestions(candidates []string) []string {
	var filtered []string
	for _, s := range candidates {
		if len(s) >= 3 && unicode.IsDigit(rune(s[0])) && (s[1:3] == ". " || s[1:3] == ".)") {
			s = strings.TrimSpace(s[3:])
		}

		if len(s) < 10 {
			continue
		}

		lower := strings.ToLower(s)
		if strings.HasPrefix(lower, "suggest") || strings.HasPrefix(lower, "you could") {
			continue
		}

		filtered = append(filtered, s)
	}
	return filtered
}
