package models

// Language classifies the dominant script of a source block
type Language string

const (
	LanguageHebrew  Language = "hebrew"
	LanguageEnglish Language = "english"
)

// PercentBox is the single internal coordinate schema: percentage-of-page
// units, x/y in [0,100], width/height in [5,100] after normalization.
type PercentBox struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// ThousandBox is a bounding box in the 0-1000 normalized convention used by
// the multimodal layout prompt ([ymin, xmin, ymax, xmax]).
type ThousandBox struct {
	YMin float64
	XMin float64
	YMax float64
	XMax float64
}

// ToPercentBox converts 0-1000 coordinates to percentage space.
func (b ThousandBox) ToPercentBox() PercentBox {
	return PercentBox{
		X:      b.XMin / 10,
		Y:      b.YMin / 10,
		Width:  (b.XMax - b.XMin) / 10,
		Height: (b.YMax - b.YMin) / 10,
	}
}

// PercentBand is a full-width horizontal band given as percentage y/height.
type PercentBand struct {
	Y      float64
	Height float64
}

// ToPercentBox converts a band to a full-width percentage box.
func (b PercentBand) ToPercentBox() PercentBox {
	return PercentBox{X: 0, Y: b.Y, Width: 100, Height: b.Height}
}

// SourceRegion is a detected block on a source sheet page. Regions are
// request-scoped: they are built during one detection run and never reused.
type SourceRegion struct {
	ID       string     `json:"id"`
	Box      PercentBox `json:"box"`
	Text     string     `json:"text"`
	Title    *string    `json:"title"`
	Language Language   `json:"language"`
}

// ParsedBlock is one segment of raw OCR text produced by the splitter.
type ParsedBlock struct {
	ID    string `json:"id"`
	Text  string `json:"text"`
	Type  string `json:"type"` // "hebrew" or "english"
	Title string `json:"title,omitempty"`
}

// CandidateOrigin tags which resolution strategy produced a candidate.
type CandidateOrigin string

const (
	OriginModel      CandidateOrigin = "model"
	OriginTextSearch CandidateOrigin = "text-search"
	OriginOCROnly    CandidateOrigin = "ocr-only"
)

// ReferenceCandidate is the result of resolving a text snippet to a
// canonical reference in the external text database.
type ReferenceCandidate struct {
	SourceName   string          `json:"sourceName"`
	CanonicalRef string          `json:"canonicalRef"`
	PreviewText  string          `json:"previewText"`
	Origin       CandidateOrigin `json:"origin"`
}
