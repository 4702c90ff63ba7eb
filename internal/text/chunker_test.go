package text

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunk(t *testing.T) {
	t.Run("Short Text Single Chunk", func(t *testing.T) {
		chunks := Chunk("This is a simple paragraph.", 1000, 150)
		require.Len(t, chunks, 1)
		assert.Equal(t, "This is a simple paragraph.", chunks[0])
	})

	t.Run("Empty Input", func(t *testing.T) {
		assert.Nil(t, Chunk("", 1000, 150))
		assert.Nil(t, Chunk("   \n\t  ", 1000, 150))
	})

	t.Run("Size Bound", func(t *testing.T) {
		long := strings.Repeat("The quick brown fox jumps over the lazy dog. ", 200)
		chunks := Chunk(long, 100, 20)
		require.NotEmpty(t, chunks)
		for i, c := range chunks {
			assert.LessOrEqual(t, len([]rune(c)), 100, "chunk %d exceeds size", i)
		}
	})

	t.Run("Prefers Paragraph Boundaries", func(t *testing.T) {
		text := strings.Repeat("a", 60) + "\n\n" + strings.Repeat("b", 60)
		chunks := Chunk(text, 80, 0)
		require.Len(t, chunks, 2)
		assert.Equal(t, strings.Repeat("a", 60), chunks[0])
		assert.Equal(t, strings.Repeat("b", 60), chunks[1])
	})

	t.Run("Overlap Carried Between Chunks", func(t *testing.T) {
		text := strings.Repeat("word ", 100)
		chunks := Chunk(text, 100, 30)
		require.Greater(t, len(chunks), 1)
		for i := 1; i < len(chunks); i++ {
			prev := chunks[i-1]
			tail := prev[len(prev)-10:]
			assert.Contains(t, chunks[i], strings.TrimSpace(tail),
				"chunk %d should start with the tail of chunk %d", i, i-1)
		}
	})

	t.Run("Content Preserved Without Overlap", func(t *testing.T) {
		text := "One two three. Four five six.\n\nSeven eight nine ten eleven twelve. Thirteen fourteen."
		chunks := Chunk(text, 30, 0)
		joined := strings.Fields(strings.Join(chunks, " "))
		original := strings.Fields(text)
		assert.Equal(t, original, joined)
	})

	t.Run("Deterministic", func(t *testing.T) {
		text := strings.Repeat("Some sentence here. Another one follows! And a question? ", 50)
		first := Chunk(text, 200, 50)
		second := Chunk(text, 200, 50)
		assert.Equal(t, first, second)
	})

	t.Run("Word Longer Than Size Is Hard Split", func(t *testing.T) {
		text := strings.Repeat("x", 250)
		chunks := Chunk(text, 100, 10)
		require.NotEmpty(t, chunks)
		for _, c := range chunks {
			assert.LessOrEqual(t, len([]rune(c)), 100)
		}
		total := 0
		for _, c := range chunks {
			total += len(c)
		}
		assert.GreaterOrEqual(t, total, 250)
	})

	t.Run("Multibyte Runes Counted As Characters", func(t *testing.T) {
		text := strings.Repeat("Thông tin quan trọng về thuế. ", 30)
		chunks := Chunk(text, 100, 20)
		require.NotEmpty(t, chunks)
		for _, c := range chunks {
			assert.LessOrEqual(t, len([]rune(c)), 100)
		}
	})
}

func TestSplitSentences(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{
			name: "Basic",
			in:   "First sentence. Second sentence! Third?",
			want: []string{"First sentence.", "Second sentence!", "Third?"},
		},
		{
			name: "No Terminator",
			in:   "Trailing fragment without punctuation",
			want: []string{"Trailing fragment without punctuation"},
		},
		{
			name: "Decimal Not Split",
			in:   "The rate is 3.14 percent. Next.",
			want: []string{"The rate is 3.14 percent.", "Next."},
		},
		{
			name: "Ellipsis Kept Together",
			in:   "Well... Maybe.",
			want: []string{"Well...", "Maybe."},
		},
		{
			name: "Empty",
			in:   "   ",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SplitSentences(tt.in))
		})
	}
}
