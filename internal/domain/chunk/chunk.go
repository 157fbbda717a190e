// Package chunk splits document text into overlapping fixed-size windows.
package chunk

import (
	"fmt"
	"strings"
)

// Window is a half-open [Start, End) range of rune offsets into normalized text.
type Window struct {
	Start int
	End   int
}

// Chunker holds validated window parameters.
type Chunker struct {
	size    int
	overlap int
}

// New validates size > 0 and overlap >= 0.
func New(size, overlap int) (Chunker, error) {
	if size <= 0 {
		return Chunker{}, fmt.Errorf("chunk size must be > 0, got %d", size)
	}
	if overlap < 0 {
		return Chunker{}, fmt.Errorf("chunk overlap must be >= 0, got %d", overlap)
	}
	return Chunker{size: size, overlap: overlap}, nil
}

// Size returns the window size in runes.
func (c Chunker) Size() int { return c.size }

// Overlap returns the overlap in runes.
func (c Chunker) Overlap() int { return c.overlap }

// Split returns the trimmed, non-empty windows of text.
func (c Chunker) Split(text string) []string {
	return Split(text, c.size, c.overlap)
}

// Normalize converts CRLF to LF and strips NUL characters.
func Normalize(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return strings.ReplaceAll(text, "\x00", "")
}

// Split normalizes text and returns its trimmed, non-empty windows in order.
// size must be positive; callers validate it through New.
func Split(text string, size, overlap int) []string {
	runes := []rune(Normalize(text))
	var out []string
	for _, w := range windows(len(runes), size, overlap) {
		if s := strings.TrimSpace(string(runes[w.Start:w.End])); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Windows returns the untrimmed window offsets Split would cut from text.
func Windows(text string, size, overlap int) []Window {
	return windows(len([]rune(Normalize(text))), size, overlap)
}

func windows(n, size, overlap int) []Window {
	if n == 0 || size <= 0 {
		return nil
	}
	var out []Window
	cursor := 0
	for cursor < n {
		end := min(n, cursor+size)
		out = append(out, Window{Start: cursor, End: end})
		if end >= n {
			break
		}
		next := max(0, end-overlap)
		if next <= cursor {
			next = end
		}
		cursor = next
	}
	return out
}
