package process

import "strings"

// LineBuffer splits a stream of stderr chunks into lines. A line is only
// produced once its terminating newline has arrived, so the output does not
// depend on where chunk boundaries fall.
type LineBuffer struct {
	pending string
}

// Write appends chunk and returns the complete lines it finished, trimmed,
// with empty lines dropped
func (b *LineBuffer) Write(chunk []byte) []string {
	text := b.pending + string(chunk)
	parts := strings.Split(text, "\n")
	b.pending = parts[len(parts)-1]

	var lines []string
	for _, part := range parts[:len(parts)-1] {
		if line := strings.TrimSpace(part); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// Pending returns the unterminated tail that has not been emitted
func (b *LineBuffer) Pending() string {
	return b.pending
}
