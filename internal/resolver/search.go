package resolver

import (
	"context"
	"strings"

	"github.com/mekoros/sourcesheet-ocr-service/internal/models"
	"github.com/mekoros/sourcesheet-ocr-service/internal/ocr"
	"github.com/mekoros/sourcesheet-ocr-service/internal/sefaria"
)

// SearchStrategy is the last real strategy in the chain: OCR the excerpt,
// then keyword-search the text database with the recognized text. It always
// reports the raw OCR text so the chain can fall back to manual triage.
type SearchStrategy struct {
	ocr     *ocr.VisionOCR
	sefaria *sefaria.Client
	limit   int
}

func NewSearchStrategy(v *ocr.VisionOCR, sef *sefaria.Client, limit int) *SearchStrategy {
	if limit <= 0 {
		limit = 3
	}
	return &SearchStrategy{ocr: v, sefaria: sef, limit: limit}
}

func (s *SearchStrategy) Name() string {
	return "ocr+text-search"
}

func (s *SearchStrategy) Attempt(ctx context.Context, in Input) (Result, error) {
	text, err := s.ocr.ExtractText(ctx, in.Image, in.MediaType)
	if err != nil {
		return Result{}, err
	}

	cleaned := cleanForSearch(text)
	if cleaned == "" {
		return Result{}, nil
	}

	result := Result{RawText: strings.TrimSpace(text)}
	for _, hit := range s.sefaria.Search(ctx, cleaned, s.limit) {
		result.Candidates = append(result.Candidates, models.ReferenceCandidate{
			SourceName:   hit.Ref,
			CanonicalRef: hit.Ref,
			PreviewText:  truncate(hit.Text, 200),
			Origin:       models.OriginTextSearch,
		})
	}
	return result, nil
}

// cleanForSearch squeezes OCR text into a usable search query: collapsed
// whitespace, capped length so a full page does not blow up the query.
func cleanForSearch(text string) string {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return ""
	}
	if len(fields) > 25 {
		fields = fields[:25]
	}
	return strings.Join(fields, " ")
}
