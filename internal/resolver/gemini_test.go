package resolver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mekoros/sourcesheet-ocr-service/internal/models"
)

func TestParseCandidates(t *testing.T) {
	text := "```json\n[{\"sourceName\": \"Berakhot 55a\", \"ref\": \"Berakhot 55a\"}, {\"ref\": \"Genesis 1:1\"}]\n```"

	candidates := parseCandidates(t.Context(), text, nil)

	require.Len(t, candidates, 2)
	assert.Equal(t, "Berakhot 55a", candidates[0].SourceName)
	assert.Equal(t, models.OriginModel, candidates[0].Origin)
	// A missing sourceName falls back to the ref
	assert.Equal(t, "Genesis 1:1", candidates[1].SourceName)
	assert.Equal(t, "Genesis 1:1", candidates[1].CanonicalRef)
}

func TestParseCandidatesSkipsReflessEntries(t *testing.T) {
	candidates := parseCandidates(t.Context(), `[{"sourceName": "unknown source", "ref": ""}]`, nil)
	assert.Empty(t, candidates)
}

func TestParseCandidatesMalformedOutput(t *testing.T) {
	assert.Empty(t, parseCandidates(t.Context(), "", nil))
	assert.Empty(t, parseCandidates(t.Context(), "I am not sure what this source is.", nil))
}

func TestParseCandidatesRepairsTrailingComma(t *testing.T) {
	candidates := parseCandidates(t.Context(), `[{"sourceName": "Rashi", "ref": "Rashi on Genesis 1:1",},]`, nil)

	require.Len(t, candidates, 1)
	assert.Equal(t, "Rashi on Genesis 1:1", candidates[0].CanonicalRef)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abc...", truncate("abcdefgh", 3))
	// Rune-safe on Hebrew
	assert.Equal(t, "של...", truncate("שלום עולם", 2))
}

func TestGeminiStrategyRequiresKey(t *testing.T) {
	s := NewGeminiStrategy("", "gemini-1.5-flash", nil)
	_, err := s.Attempt(t.Context(), Input{Image: []byte{1}, MediaType: "image/jpeg"})
	assert.Error(t, err)
}
