package utils

// Truncate shortens s to at most maxLen runes, marking the cut with an
// ellipsis. Memory contents are user prose and may contain multi-byte
// characters, so the cut happens on runes rather than bytes.
func Truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen]) + "..."
}
