package chat

import "strings"

// Truncate bounds text to at most limit characters, preferring to cut at the
// sentence boundary nearest the limit, then at a word boundary, and only then
// mid-word. Truncation is deterministic.
func Truncate(text string, limit int) string {
	if limit <= 0 {
		return ""
	}
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	cut := string(runes[:limit])

	if idx := strings.LastIndexAny(cut, ".!?"); idx > limit/2 {
		return strings.TrimSpace(cut[:idx+1])
	}
	if idx := strings.LastIndexAny(cut, " \t\n"); idx > limit/2 {
		return strings.TrimSpace(cut[:idx])
	}
	return cut
}
