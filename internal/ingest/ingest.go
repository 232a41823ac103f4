package ingest

import (
	"context"
	"log"
	"strings"

	"github.com/mekoros/sourcesheet-ocr-service/internal/ocr"
	"github.com/mekoros/sourcesheet-ocr-service/internal/pdftext"
)

// Ingestor normalizes an uploaded file into recognized text. Images go
// straight to OCR; documents get a best-effort embedded-text pass first and
// fall back to OCR when it recovers nothing.
type Ingestor struct {
	extractor pdftext.TextExtractor
	ocr       *ocr.VisionOCR
}

func NewIngestor(extractor pdftext.TextExtractor, v *ocr.VisionOCR) *Ingestor {
	return &Ingestor{extractor: extractor, ocr: v}
}

// ExtractText routes the upload and returns the recovered text plus whether
// OCR was the route that produced it.
func (i *Ingestor) ExtractText(ctx context.Context, data []byte, mediaType string, forceOCR bool) (string, bool, error) {
	if forceOCR || strings.HasPrefix(mediaType, "image/") {
		text, err := i.ocr.ExtractText(ctx, data, mediaType)
		return text, true, err
	}

	if text := i.extractor.ExtractText(data); strings.TrimSpace(text) != "" {
		return text, false, nil
	}

	log.Printf("[Ingest] no embedded text in document, falling back to OCR")
	text, err := i.ocr.ExtractText(ctx, data, mediaType)
	return text, true, err
}
