package layout

import (
	"github.com/google/uuid"

	"github.com/mekoros/sourcesheet-ocr-service/internal/models"
	"github.com/mekoros/sourcesheet-ocr-service/internal/splitter"
)

const (
	// Regions narrower or shorter than this render as unclickable slivers
	minDimension = 5.0
	maxDimension = 100.0
)

// Detected is a region converted to percentage space but not yet validated.
type Detected struct {
	Title string
	Box   models.PercentBox
}

// FromBoxes converts canonical 0-1000 regions into percentage space.
func FromBoxes(regions []BoxRegion) []Detected {
	out := make([]Detected, 0, len(regions))
	for _, r := range regions {
		out = append(out, Detected{Title: r.Title, Box: r.Box.ToPercentBox()})
	}
	return out
}

// FromBands converts percentage bands into percentage boxes.
func FromBands(regions []BandRegion) []Detected {
	out := make([]Detected, 0, len(regions))
	for _, r := range regions {
		out = append(out, Detected{Title: r.Title, Box: r.Band.ToPercentBox()})
	}
	return out
}

// Normalize clamps every detected region into the internal schema and
// guarantees a non-empty result: a page that defeated detection still gets
// exactly one full-page region, so the viewer always has something to render.
func Normalize(detected []Detected) []models.SourceRegion {
	regions := make([]models.SourceRegion, 0, len(detected))
	for _, d := range detected {
		// Zero-area boxes are invariant violations, not candidates
		// for the minimum-size floor
		if d.Box.Width <= 0 || d.Box.Height <= 0 {
			continue
		}

		box := models.PercentBox{
			X:      clamp(d.Box.X, 0, 100),
			Y:      clamp(d.Box.Y, 0, 100),
			Width:  clamp(d.Box.Width, minDimension, maxDimension),
			Height: clamp(d.Box.Height, minDimension, maxDimension),
		}

		region := models.SourceRegion{
			ID:       uuid.New().String(),
			Box:      box,
			Language: models.LanguageEnglish,
		}
		if d.Title != "" {
			title := d.Title
			region.Title = &title
			if splitter.IsHebrew(title) {
				region.Language = models.LanguageHebrew
			}
		}
		regions = append(regions, region)
	}

	if len(regions) == 0 {
		title := "Source 1"
		regions = append(regions, models.SourceRegion{
			ID:       uuid.New().String(),
			Box:      models.PercentBox{X: 0, Y: 0, Width: 100, Height: 100},
			Title:    &title,
			Language: models.LanguageEnglish,
		})
	}
	return regions
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
