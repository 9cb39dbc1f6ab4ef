// Package signatures groups failure log excerpts into comparable signatures.
package signatures

import (
	"regexp"
	"strings"
)

// Delimiter separates a volatile prefix (timestamp, counter, level marker) from the message.
const Delimiter = " | "

// NormalizeText normalizes a raw, possibly multi-line, log excerpt.
func NormalizeText(raw string) string {
	if raw == "" {
		return ""
	}
	return normalize(splitLines(raw))
}

// NormalizeLines normalizes an already split excerpt. Elements containing line breaks are
// split further, so NormalizeLines([]string{"a\nb"}) == NormalizeText("a\nb").
func NormalizeLines(lines []string) string {
	if len(lines) == 0 {
		return ""
	}
	flat := make([]string, 0, len(lines))
	for _, line := range lines {
		flat = append(flat, splitLines(line)...)
	}
	return normalize(flat)
}

func normalize(lines []string) string {
	trimmed := make([]string, len(lines))
	for i, line := range lines {
		trimmed[i] = trimLine(line)
	}
	return strings.Join(trimmed, "\n")
}

func trimLine(line string) string {
	parts := strings.Split(line, Delimiter)
	if len(parts) > 2 {
		parts = parts[1:]
	}
	return strings.Join(parts, Delimiter)
}

func splitLines(text string) []string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}
	return lines
}

var leadingPath = regexp.MustCompile(`/?([\w\d\-.]+/)+`)

// RemovePath strips the first directory path from a log line, keeping the file name.
func RemovePath(line string) string {
	loc := leadingPath.FindStringIndex(line)
	if loc == nil {
		return line
	}
	return line[:loc[0]] + line[loc[1]:]
}
