package internal

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func hit(rank int, content string, distance float32) SearchHit {
	return SearchHit{Content: content, Distance: distance, Rank: rank}
}

func TestAssembleEmptyHits(t *testing.T) {
	a := NewContextAssembler()

	block := a.Assemble(nil, 4000)
	assert.Empty(t, block.Text)
	assert.Empty(t, block.Sources)
}

func TestAssembleZeroBudget(t *testing.T) {
	a := NewContextAssembler()

	hits := []SearchHit{
		hit(1, strings.Repeat("a", 200), 0.1),
		hit(2, strings.Repeat("b", 200), 0.2),
	}

	block := a.Assemble(hits, 0)
	assert.Empty(t, block.Text)
	assert.Empty(t, block.Sources)

	block = a.Assemble(hits, -5)
	assert.Empty(t, block.Text)
	assert.Empty(t, block.Sources)
}

func TestAssembleFullInclusion(t *testing.T) {
	a := NewContextAssembler()

	hits := []SearchHit{
		hit(1, "First document content.", 0.1),
		hit(2, "Second document content.", 0.4),
	}

	block := a.Assemble(hits, 4000)

	want := "[Document 1]: First document content.\n\n[Document 2]: Second document content."
	assert.Equal(t, want, block.Text)

	require.Len(t, block.Sources, 2)
	assert.Equal(t, 1, block.Sources[0].Rank)
	assert.Equal(t, float32(0.1), block.Sources[0].Score)
	assert.Equal(t, 2, block.Sources[1].Rank)
}

func TestAssemblePartialInclusion(t *testing.T) {
	a := NewContextAssembler()

	first := strings.Repeat("a", 150)
	second := strings.Repeat("b", 200)
	block := a.Assemble([]SearchHit{hit(1, first, 0.1), hit(2, second, 0.2)}, 300)

	// The second hit only fits truncated: rendered with an ellipsis but not
	// attributed as a source.
	require.Len(t, block.Sources, 1)
	assert.Equal(t, first, block.Sources[0].Content)

	parts := strings.Split(block.Text, "\n\n")
	require.Len(t, parts, 2)
	assert.Equal(t, "[Document 1]: "+first, parts[0])
	assert.True(t, strings.HasPrefix(parts[1], "[Document 2]: bbb"))
	assert.True(t, strings.HasSuffix(parts[1], "..."))
	// 150 budget left: 147 content characters plus the marker.
	assert.Equal(t, len("[Document 2]: ")+150, len(parts[1]))
}

func TestAssemblePartialCutRespectsRunes(t *testing.T) {
	a := NewContextAssembler()

	// The truncation point lands between the two bytes of a rune; the cut
	// must back up instead of emitting invalid UTF-8.
	first := strings.Repeat("a", 150)
	second := strings.Repeat("é", 200)
	block := a.Assemble([]SearchHit{hit(1, first, 0.1), hit(2, second, 0.2)}, 300)

	require.True(t, utf8.ValidString(block.Text))
	parts := strings.Split(block.Text, "\n\n")
	require.Len(t, parts, 2)
	assert.True(t, strings.HasSuffix(parts[1], "..."))
	assert.True(t, utf8.ValidString(strings.TrimSuffix(parts[1], "...")))
}

func TestAssembleSkipsTinyRemainder(t *testing.T) {
	a := NewContextAssembler()

	first := strings.Repeat("a", 250)
	second := strings.Repeat("b", 200)
	block := a.Assemble([]SearchHit{hit(1, first, 0.1), hit(2, second, 0.2)}, 300)

	// Only 50 characters left, below the usable minimum: stop entirely.
	require.Len(t, block.Sources, 1)
	assert.NotContains(t, block.Text, "[Document 2]")
}

func TestAssembleScoreThreshold(t *testing.T) {
	a := NewContextAssembler(WithScoreThreshold(1.0))

	hits := []SearchHit{
		hit(1, "close enough", 0.5),
		hit(2, "too far away", 2.5),
	}

	block := a.Assemble(hits, 4000)
	assert.Contains(t, block.Text, "close enough")
	assert.NotContains(t, block.Text, "too far away")
	require.Len(t, block.Sources, 1)
}

func TestAssembleDefaultBudget(t *testing.T) {
	a := NewContextAssembler(WithMaxContextLength(500))
	assert.Equal(t, 500, a.MaxContextLength())

	// Zero and negative options keep the default.
	a = NewContextAssembler(WithMaxContextLength(0))
	assert.Equal(t, DefaultMaxContextLength, a.MaxContextLength())
}
