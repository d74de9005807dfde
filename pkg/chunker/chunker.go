// Package chunker splits response text into Telegram-sized segments while
// trying to cut on paragraph or sentence boundaries instead of mid-word.
package chunker

import (
	"strings"
)

// EmptyPlaceholder is yielded for an input that is empty after trimming,
// so a delivery always has at least one segment to send.
const EmptyPlaceholder = "(respuesta vacía)"

// minSegmentRunes is how far into a window a boundary must lie before it is
// preferred over a raw cut, so snapping never produces tiny fragments.
const minSegmentRunes = 200

// Scanner yields the segments of one response in order. It is a single
// forward pass: once exhausted it cannot be restarted, in the manner of
// bufio.Scanner.
type Scanner struct {
	text    []rune
	max     int
	pos     int
	current string
	emitted bool
}

// NewScanner prepares a scanner over text with segments of at most maxChars
// characters. The input is trimmed once up front.
func NewScanner(text string, maxChars int) *Scanner {
	if maxChars < 1 {
		maxChars = 1
	}
	return &Scanner{
		text: []rune(strings.TrimSpace(text)),
		max:  maxChars,
	}
}

// Next advances to the following segment, returning false once the text is
// consumed. Segments are trimmed and never empty.
func (s *Scanner) Next() bool {
	if len(s.text) == 0 {
		if s.emitted {
			return false
		}
		s.current = EmptyPlaceholder
		s.emitted = true
		return true
	}

	for s.pos < len(s.text) {
		end := s.pos + s.max
		if end > len(s.text) {
			end = len(s.text)
		} else if end < len(s.text) {
			if pivot, ok := s.snapBack(s.pos, end); ok {
				end = pivot
			}
		}

		segment := strings.TrimSpace(string(s.text[s.pos:end]))
		s.pos = end
		if segment == "" {
			continue
		}
		s.current = segment
		s.emitted = true
		return true
	}
	return false
}

// Text returns the segment produced by the last successful Next.
func (s *Scanner) Text() string {
	return s.current
}

// snapBack looks for the nearest paragraph break or ". " sentence boundary
// before end. The boundary is only used when it lies more than
// minSegmentRunes into the window.
func (s *Scanner) snapBack(start, end int) (int, bool) {
	pivot := -1
	for i := end - 1; i > start; i-- {
		if s.text[i] == '\n' {
			pivot = i
			break
		}
		if s.text[i] == '.' && i+1 < end && s.text[i+1] == ' ' {
			pivot = i
			break
		}
	}

	if pivot <= start+minSegmentRunes {
		return 0, false
	}
	if s.text[pivot] == '\n' {
		// Cut before the newline; trimming drops it from the next segment.
		return pivot, true
	}
	// Cut after the period so the sentence stays whole.
	return pivot + 1, true
}

// Split consumes the whole text at once and returns all segments.
func Split(text string, maxChars int) []string {
	var segments []string
	sc := NewScanner(text, maxChars)
	for sc.Next() {
		segments = append(segments, sc.Text())
	}
	return segments
}
