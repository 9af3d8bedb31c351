package util

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// TruncateString truncates a string to maxRunes characters (rune-based, not byte-based)
// If truncated, appends "..." to the result
func TruncateString(s string, maxRunes int) string {
	runes := []rune(s)
	if len(runes) <= maxRunes {
		return s
	}
	return string(runes[:maxRunes]) + "..."
}

// Normalize performs basic string normalization (lowercase + trim)
func Normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// TrimPunctuation strips leading and trailing punctuation and symbols from a word.
func TrimPunctuation(word string) string {
	return strings.TrimFunc(word, func(r rune) bool {
		return unicode.IsPunct(r) || unicode.IsSymbol(r)
	})
}

// LastSentence returns the final sentence-like fragment of text.
func LastSentence(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}
	body := strings.TrimRight(text, ".!?…\"' ")
	cut := strings.LastIndexFunc(body, isSentenceBreak)
	if cut < 0 {
		return text
	}
	_, size := utf8.DecodeRuneInString(body[cut:])
	return strings.TrimSpace(text[cut+size:])
}

func isSentenceBreak(r rune) bool {
	switch r {
	case '.', '!', '?', '…', '\n':
		return true
	default:
		return false
	}
}

// SplitCSV splits a comma separated list and drops empty entries.
func SplitCSV(value string) []string {
	if value == "" {
		return []string{}
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
