package subagent

import "strings"

// LineFramer incrementally splits a byte stream on '\n', emitting complete
// trimmed non-empty lines and retaining a trailing partial line between
// Feed calls. It does not treat "\r\n" specially beyond the trim.
type LineFramer struct {
	remainder string
}

// Feed accepts one chunk of the stream (already decoded as UTF-8) and
// returns the complete lines it produced. Empty lines (after trimming) are
// discarded silently.
func (f *LineFramer) Feed(chunk string) []string {
	f.remainder += chunk

	var lines []string
	for {
		idx := strings.IndexByte(f.remainder, '\n')
		if idx < 0 {
			break
		}
		line := strings.TrimSpace(f.remainder[:idx])
		f.remainder = f.remainder[idx+1:]
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// Remainder returns the partial line retained since the last complete
// line, useful for diagnostics or final flush decisions. It is never
// itself emitted as a line.
func (f *LineFramer) Remainder() string {
	return f.remainder
}
