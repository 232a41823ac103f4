package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mekoros/sourcesheet-ocr-service/internal/apperrors"
	"github.com/mekoros/sourcesheet-ocr-service/internal/ocr"
)

type stubExtractor struct {
	text string
}

func (s stubExtractor) ExtractText(data []byte) string { return s.text }

// keylessOCR is a real OCR client with no credential, so any route that
// reaches it fails with a configuration error.
func keylessOCR() *ocr.VisionOCR {
	return ocr.NewVisionOCR("", nil, false)
}

func TestExtractTextUsesEmbeddedText(t *testing.T) {
	ing := NewIngestor(stubExtractor{text: "embedded document text"}, keylessOCR())

	text, usedOCR, err := ing.ExtractText(t.Context(), []byte("pdf"), "application/pdf", false)
	require.NoError(t, err)
	assert.Equal(t, "embedded document text", text)
	assert.False(t, usedOCR)
}

func TestExtractTextImagesGoToOCR(t *testing.T) {
	ing := NewIngestor(stubExtractor{text: "should never be used"}, keylessOCR())

	_, usedOCR, err := ing.ExtractText(t.Context(), []byte("img"), "image/jpeg", false)
	assert.True(t, usedOCR)
	assert.Equal(t, apperrors.CodeConfigurationError, apperrors.CodeOf(err))
}

func TestExtractTextForceOCRSkipsEmbeddedText(t *testing.T) {
	ing := NewIngestor(stubExtractor{text: "embedded document text"}, keylessOCR())

	_, usedOCR, err := ing.ExtractText(t.Context(), []byte("pdf"), "application/pdf", true)
	assert.True(t, usedOCR)
	assert.Error(t, err)
}

func TestExtractTextFallsBackToOCRWhenEmpty(t *testing.T) {
	ing := NewIngestor(stubExtractor{text: "   \n  "}, keylessOCR())

	_, usedOCR, err := ing.ExtractText(t.Context(), []byte("pdf"), "application/pdf", false)
	assert.True(t, usedOCR)
	assert.Error(t, err)
}
