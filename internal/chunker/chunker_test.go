package chunker

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewSplitterRejectsBadConfig(t *testing.T) {
	cases := []struct {
		name    string
		min     int
		max     int
		overlap int
	}{
		{"zero min", 0, 1200, 100},
		{"zero max", 800, 0, 100},
		{"negative overlap", 800, 1200, -1},
		{"min above max", 1300, 1200, 100},
		{"overlap equals max", 800, 1200, 1200},
		{"overlap above max", 800, 1200, 1500},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewSplitter(tc.min, tc.max, tc.overlap)
			require.Error(t, err)
		})
	}
}

func TestChunkEmptyInput(t *testing.T) {
	splitter, err := NewSplitter(800, 1200, 100)
	require.NoError(t, err)

	require.Nil(t, splitter.Chunk(""))
	require.Nil(t, splitter.Chunk("   \n\t  "))
}

func TestChunkShortInput(t *testing.T) {
	splitter, err := NewSplitter(800, 1200, 100)
	require.NoError(t, err)

	chunks := splitter.Chunk("hello world")
	require.Len(t, chunks, 1)
	require.Equal(t, "hello world", chunks[0])
}

func TestChunkExactWindow(t *testing.T) {
	splitter, err := NewSplitter(800, 1200, 100)
	require.NoError(t, err)

	text := strings.Repeat("a", 1200)
	chunks := splitter.Chunk(text)
	require.Len(t, chunks, 1)
	require.Equal(t, text, chunks[0])
}

func TestChunkOverlappingWindows(t *testing.T) {
	splitter, err := NewSplitter(800, 1200, 100)
	require.NoError(t, err)

	text := strings.Repeat("x", 2500)
	chunks := splitter.Chunk(text)
	require.Len(t, chunks, 3)
	require.Len(t, []rune(chunks[0]), 1200)
	require.Len(t, []rune(chunks[1]), 1200)
	require.Len(t, []rune(chunks[2]), 300)
}

func TestChunkOverlapContent(t *testing.T) {
	splitter, err := NewSplitter(4, 6, 2)
	require.NoError(t, err)

	text := "abcdefghij"
	chunks := splitter.Chunk(text)
	require.Len(t, chunks, 2)
	require.Equal(t, "abcdef", chunks[0])
	// Second window starts two runes before the first one ended.
	require.Equal(t, "efghij", chunks[1])
}

func TestChunkCoversAllRunes(t *testing.T) {
	splitter, err := NewSplitter(800, 1200, 100)
	require.NoError(t, err)

	text := strings.Repeat("0123456789", 731)
	chunks := splitter.Chunk(text)
	require.NotEmpty(t, chunks)

	// Each window starts overlap runes before the previous one ends, so
	// rebuilding from the non-overlapping suffixes must give back the text.
	var rebuilt strings.Builder
	rebuilt.WriteString(chunks[0])
	for _, chunk := range chunks[1:] {
		runes := []rune(chunk)
		rebuilt.WriteString(string(runes[100:]))
	}
	require.Equal(t, text, rebuilt.String())
}

func TestChunkCountsRunesNotBytes(t *testing.T) {
	splitter, err := NewSplitter(4, 6, 2)
	require.NoError(t, err)

	text := strings.Repeat("é", 6)
	chunks := splitter.Chunk(text)
	require.Len(t, chunks, 1)
	require.Equal(t, text, chunks[0])
}

func TestChunkShortTailExtendsFinalWindow(t *testing.T) {
	splitter, err := NewSplitter(800, 1200, 100)
	require.NoError(t, err)

	// 2350 runes: the third window would start at 2200 with only 150 left,
	// below the minimum, so it still becomes its own final chunk.
	text := strings.Repeat("y", 2350)
	chunks := splitter.Chunk(text)
	require.Len(t, chunks, 3)
	require.Len(t, []rune(chunks[2]), 150)
}
