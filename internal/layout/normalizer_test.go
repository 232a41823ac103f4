package layout

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mekoros/sourcesheet-ocr-service/internal/models"
)

func TestNormalizeClampsCoordinates(t *testing.T) {
	regions := Normalize([]Detected{
		{Title: "Off the page", Box: models.PercentBox{X: -10, Y: 105, Width: 120, Height: 2}},
	})

	require.Len(t, regions, 1)
	box := regions[0].Box
	assert.Equal(t, 0.0, box.X)
	assert.Equal(t, 100.0, box.Y)
	assert.Equal(t, 100.0, box.Width)
	// Small-but-positive dimensions are floored, not discarded
	assert.Equal(t, 5.0, box.Height)
}

func TestNormalizeDiscardsZeroArea(t *testing.T) {
	regions := Normalize([]Detected{
		{Title: "Degenerate", Box: models.PercentBox{X: 10, Y: 10, Width: 0, Height: 50}},
		{Title: "Negative", Box: models.PercentBox{X: 10, Y: 10, Width: 30, Height: -4}},
		{Title: "Real", Box: models.PercentBox{X: 10, Y: 10, Width: 30, Height: 20}},
	})

	require.Len(t, regions, 1)
	require.NotNil(t, regions[0].Title)
	assert.Equal(t, "Real", *regions[0].Title)
}

func TestNormalizeFullPageFallback(t *testing.T) {
	for _, detected := range [][]Detected{
		nil,
		{},
		{{Title: "Empty", Box: models.PercentBox{Width: 0, Height: 0}}},
	} {
		regions := Normalize(detected)

		require.Len(t, regions, 1)
		assert.Equal(t, models.PercentBox{X: 0, Y: 0, Width: 100, Height: 100}, regions[0].Box)
		require.NotNil(t, regions[0].Title)
		assert.Equal(t, "Source 1", *regions[0].Title)
		assert.Equal(t, models.LanguageEnglish, regions[0].Language)
	}
}

func TestNormalizeAssignsUniqueIDs(t *testing.T) {
	regions := Normalize([]Detected{
		{Box: models.PercentBox{X: 0, Y: 0, Width: 50, Height: 50}},
		{Box: models.PercentBox{X: 0, Y: 50, Width: 50, Height: 50}},
	})

	require.Len(t, regions, 2)
	assert.NotEmpty(t, regions[0].ID)
	assert.NotEmpty(t, regions[1].ID)
	assert.NotEqual(t, regions[0].ID, regions[1].ID)
}

func TestNormalizeLanguageFromTitle(t *testing.T) {
	regions := Normalize([]Detected{
		{Title: "רש\"י על בראשית", Box: models.PercentBox{X: 0, Y: 0, Width: 50, Height: 50}},
		{Title: "Rashi on Genesis", Box: models.PercentBox{X: 50, Y: 0, Width: 50, Height: 50}},
		{Box: models.PercentBox{X: 0, Y: 50, Width: 100, Height: 50}},
	})

	require.Len(t, regions, 3)
	assert.Equal(t, models.LanguageHebrew, regions[0].Language)
	assert.Equal(t, models.LanguageEnglish, regions[1].Language)
	assert.Nil(t, regions[2].Title)
	assert.Equal(t, models.LanguageEnglish, regions[2].Language)
}

func TestFromBoxesConvertsThousandConvention(t *testing.T) {
	detected := FromBoxes([]BoxRegion{
		{Title: "1. Berakhot 55a", Box: models.ThousandBox{YMin: 100, XMin: 200, YMax: 400, XMax: 800}},
	})

	require.Len(t, detected, 1)
	assert.Equal(t, models.PercentBox{X: 20, Y: 10, Width: 60, Height: 30}, detected[0].Box)
}

func TestFromBandsSpansFullWidth(t *testing.T) {
	detected := FromBands([]BandRegion{
		{Title: "Top half", Band: models.PercentBand{Y: 0, Height: 50}},
	})

	require.Len(t, detected, 1)
	assert.Equal(t, models.PercentBox{X: 0, Y: 0, Width: 100, Height: 50}, detected[0].Box)
}

// End to end over both conventions: model output in either schema must land
// inside the internal 0-100 space after normalization.
func TestNormalizeRoundTrip(t *testing.T) {
	boxes := Normalize(FromBoxes([]BoxRegion{
		{Box: models.ThousandBox{YMin: 0, XMin: 0, YMax: 1200, XMax: 1050}},
	}))
	bands := Normalize(FromBands([]BandRegion{
		{Band: models.PercentBand{Y: 90, Height: 40}},
	}))

	for _, regions := range [][]models.SourceRegion{boxes, bands} {
		require.Len(t, regions, 1)
		box := regions[0].Box
		assert.LessOrEqual(t, box.X, 100.0)
		assert.LessOrEqual(t, box.Y, 100.0)
		assert.GreaterOrEqual(t, box.Width, 5.0)
		assert.LessOrEqual(t, box.Width, 100.0)
		assert.GreaterOrEqual(t, box.Height, 5.0)
		assert.LessOrEqual(t, box.Height, 100.0)
	}
}
