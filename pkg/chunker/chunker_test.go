package chunker

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitEmptyInputYieldsPlaceholder(t *testing.T) {
	for _, input := range []string{"", "   ", "\n\t \n"} {
		segments := Split(input, 100)
		require.Len(t, segments, 1, "input %q", input)
		assert.Equal(t, EmptyPlaceholder, segments[0])
	}
}

func TestSplitShortTextIsSingleSegment(t *testing.T) {
	segments := Split("  hola hermano  ", 100)
	require.Len(t, segments, 1)
	assert.Equal(t, "hola hermano", segments[0])
}

func TestSplitRespectsMaxChars(t *testing.T) {
	text := strings.Repeat("abcde ", 500) // 3000 chars, no sentence boundaries
	for _, max := range []int{250, 600, 3900} {
		for i, seg := range Split(text, max) {
			assert.LessOrEqual(t, len([]rune(seg)), max, "segment %d with max %d", i, max)
			assert.NotEmpty(t, strings.TrimSpace(seg))
		}
	}
}

func TestSplitReconstructsContent(t *testing.T) {
	paragraphs := []string{
		strings.Repeat("La fe viene por el oír. ", 40),
		strings.Repeat("Examinadlo todo; retened lo bueno. ", 30),
		strings.Repeat("x", 900),
	}
	text := strings.Join(paragraphs, "\n\n")

	segments := Split(text, 700)
	require.NotEmpty(t, segments)

	// Concatenation ignoring boundary whitespace keeps every character.
	strip := func(s string) string {
		return strings.Join(strings.Fields(s), "")
	}
	assert.Equal(t, strip(text), strip(strings.Join(segments, "")))
}

func TestSplitPrefersSentenceBoundary(t *testing.T) {
	// One sentence ends 300 chars in, well past the 200-char minimum, so the
	// first cut should land right after its period instead of at max.
	text := strings.Repeat("a", 299) + ". " + strings.Repeat("b", 600)
	segments := Split(text, 500)

	require.GreaterOrEqual(t, len(segments), 2)
	assert.Equal(t, strings.Repeat("a", 299)+".", segments[0])
	assert.True(t, strings.HasPrefix(segments[1], "b"))
}

func TestSplitPrefersParagraphBreak(t *testing.T) {
	text := strings.Repeat("a", 300) + "\n" + strings.Repeat("b", 600)
	segments := Split(text, 500)

	require.GreaterOrEqual(t, len(segments), 2)
	assert.Equal(t, strings.Repeat("a", 300), segments[0])
	assert.True(t, strings.HasPrefix(segments[1], "b"))
}

func TestSplitIgnoresBoundaryTooCloseToStart(t *testing.T) {
	// The only boundary sits 50 chars in; snapping there would produce a
	// pathologically short segment, so the cut stays at the raw offset.
	text := strings.Repeat("a", 49) + ". " + strings.Repeat("b", 1000)
	segments := Split(text, 400)

	require.NotEmpty(t, segments)
	assert.Equal(t, 400, len([]rune(segments[0])))
}

func TestScannerIsForwardOnly(t *testing.T) {
	sc := NewScanner("corto", 100)
	require.True(t, sc.Next())
	assert.Equal(t, "corto", sc.Text())
	assert.False(t, sc.Next())
	assert.False(t, sc.Next(), "an exhausted scanner stays exhausted")
}

func TestSplitHandlesMultibyteRunes(t *testing.T) {
	text := strings.Repeat("á", 1000)
	segments := Split(text, 300)
	require.Len(t, segments, 4)
	for _, seg := range segments[:3] {
		assert.Equal(t, 300, len([]rune(seg)))
	}
	assert.Equal(t, 100, len([]rune(segments[3])))
}
