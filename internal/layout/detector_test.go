package layout

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStripFence(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"bare json", `[{"title": "a"}]`, `[{"title": "a"}]`},
		{"json fence", "```json\n[{\"title\": \"a\"}]\n```", `[{"title": "a"}]`},
		{"plain fence", "```\n[]\n```", `[]`},
		{"surrounding whitespace", "  \n[]\n  ", `[]`},
		{"empty", "", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, StripFence(tc.in))
		})
	}
}

func TestParseModelJSONRepairsTrailingComma(t *testing.T) {
	var raw []struct {
		Title string    `json:"title"`
		Box2D []float64 `json:"box_2d"`
	}

	// Trailing comma is invalid JSON but a common model slip
	text := "```json\n[{\"title\": \"1. Berakhot 55a\", \"box_2d\": [100, 200, 400, 800],}]\n```"
	require.True(t, parseModelJSON(text, &raw))
	require.Len(t, raw, 1)
	assert.Equal(t, "1. Berakhot 55a", raw[0].Title)
	assert.Equal(t, []float64{100, 200, 400, 800}, raw[0].Box2D)
}

func TestParseModelJSONGivesUpQuietly(t *testing.T) {
	var raw []struct{}
	assert.False(t, parseModelJSON("", &raw))
	assert.False(t, parseModelJSON("I could not find any sources on this page.", &raw))
}

func TestDetectBoxesWithoutKey(t *testing.T) {
	d := NewDetector("", "gemini-1.5-flash")
	_, err := d.DetectBoxes(t.Context(), []byte{0xff}, "image/jpeg")
	assert.Error(t, err)
}
