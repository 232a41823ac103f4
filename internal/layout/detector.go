package layout

import (
	"context"
	"encoding/json"
	"log"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/kaptinlin/jsonrepair"
	"google.golang.org/api/option"

	"github.com/mekoros/sourcesheet-ocr-service/internal/apperrors"
	"github.com/mekoros/sourcesheet-ocr-service/internal/models"
)

const requestTimeout = 20 * time.Second

// Detector asks a multimodal model to find the source blocks on a sheet
// image. Two prompt variants exist with incompatible coordinate
// conventions; the convention of a response is fixed by which prompt issued
// the request, never guessed from the response itself.
type Detector struct {
	apiKey string
	model  string
}

func NewDetector(apiKey, model string) *Detector {
	return &Detector{apiKey: apiKey, model: model}
}

// BoxRegion is a detected region in the canonical 0-1000 convention.
type BoxRegion struct {
	Title string
	Box   models.ThousandBox
}

// BandRegion is a detected full-width band in percentage convention.
type BandRegion struct {
	Title string
	Band  models.PercentBand
}

const boxPrompt = `You are analyzing a scanned Torah source sheet (dapei mekorot).
The page contains distinct source blocks: numbered excerpts, titled quotations,
and sometimes two-column layouts (Hebrew right, English left).

Find every distinct source block on the page. For each block return:
- "title": your best guess at the source heading (e.g. "1. Berakhot 55a",
  "Rashi, Bereshit 1:1"). Use the visible heading when there is one.
- "box_2d": the bounding box as [ymin, xmin, ymax, xmax], each coordinate
  normalized to the range 0-1000 relative to the page.

Respond with ONLY a JSON array, no markdown, no commentary:
[{"title": "...", "box_2d": [ymin, xmin, ymax, xmax]}]

If the page is a single continuous text return one block covering it.`

const bandPrompt = `You are analyzing a scanned Torah source sheet (dapei mekorot).
The page is a vertical sequence of distinct source blocks: numbered excerpts
and titled quotations.

Find every distinct source block. For each block return:
- "title": your best guess at the source heading.
- "y": the top of the block as a percentage of page height (0-100).
- "height": the height of the block as a percentage of page height (0-100).

Respond with ONLY a JSON array, no markdown, no commentary:
[{"title": "...", "y": 0, "height": 25}]

If the page is a single continuous text return one block covering it.`

// DetectBoxes runs the canonical 0-1000 box_2d prompt.
func (d *Detector) DetectBoxes(ctx context.Context, imageData []byte, mediaType string) ([]BoxRegion, error) {
	text, err := d.generate(ctx, boxPrompt, imageData, mediaType)
	if err != nil {
		return nil, err
	}

	var raw []struct {
		Title string    `json:"title"`
		Box2D []float64 `json:"box_2d"`
	}
	if !parseModelJSON(text, &raw) {
		// Malformed model output means no regions, never a failure
		return []BoxRegion{}, nil
	}

	regions := make([]BoxRegion, 0, len(raw))
	for _, r := range raw {
		if len(r.Box2D) != 4 {
			continue
		}
		regions = append(regions, BoxRegion{
			Title: r.Title,
			Box: models.ThousandBox{
				YMin: r.Box2D[0],
				XMin: r.Box2D[1],
				YMax: r.Box2D[2],
				XMax: r.Box2D[3],
			},
		})
	}
	return regions, nil
}

// DetectBands runs the percentage-band prompt variant.
func (d *Detector) DetectBands(ctx context.Context, imageData []byte, mediaType string) ([]BandRegion, error) {
	text, err := d.generate(ctx, bandPrompt, imageData, mediaType)
	if err != nil {
		return nil, err
	}

	var raw []struct {
		Title  string  `json:"title"`
		Y      float64 `json:"y"`
		Height float64 `json:"height"`
	}
	if !parseModelJSON(text, &raw) {
		return []BandRegion{}, nil
	}

	regions := make([]BandRegion, 0, len(raw))
	for _, r := range raw {
		regions = append(regions, BandRegion{
			Title: r.Title,
			Band:  models.PercentBand{Y: r.Y, Height: r.Height},
		})
	}
	return regions, nil
}

// generate issues one multimodal request and returns the text of the first
// candidate's first content part.
func (d *Detector) generate(ctx context.Context, prompt string, imageData []byte, mediaType string) (string, error) {
	if d.apiKey == "" {
		return "", apperrors.NewConfigurationError("GEMINI_API_KEY is not set")
	}

	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	client, err := genai.NewClient(ctx, option.WithAPIKey(d.apiKey))
	if err != nil {
		return "", apperrors.NewProviderError("gemini", 0, "failed to create client", err)
	}
	defer client.Close()

	model := client.GenerativeModel(d.model)
	resp, err := model.GenerateContent(ctx,
		genai.Text(prompt),
		genai.Blob{MIMEType: mediaType, Data: imageData},
	)
	if err != nil {
		return "", apperrors.NewProviderError("gemini", 0, "generate content failed", err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", nil
	}
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			return string(text), nil
		}
	}
	return "", nil
}

// parseModelJSON parses model output into v, stripping a fenced code block
// if present and attempting a JSON repair pass before giving up.
func parseModelJSON(text string, v interface{}) bool {
	cleaned := StripFence(text)
	if cleaned == "" {
		return false
	}
	if err := json.Unmarshal([]byte(cleaned), v); err == nil {
		return true
	}

	repaired, err := jsonrepair.JSONRepair(cleaned)
	if err != nil {
		log.Printf("[Layout] %v (%d chars)", apperrors.NewParseError("gemini", err), len(cleaned))
		return false
	}
	if err := json.Unmarshal([]byte(repaired), v); err != nil {
		log.Printf("[Layout] %v", apperrors.NewParseError("gemini", err))
		return false
	}
	return true
}

// StripFence removes a surrounding markdown code fence from model output.
func StripFence(text string) string {
	cleaned := strings.TrimSpace(text)
	if !strings.HasPrefix(cleaned, "```") {
		return cleaned
	}
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(strings.TrimSpace(cleaned), "```")
	return strings.TrimSpace(cleaned)
}
