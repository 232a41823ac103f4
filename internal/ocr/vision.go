package ocr

import (
	"context"
	"encoding/base64"
	"errors"
	"log"
	"time"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	vision "google.golang.org/api/vision/v1"

	"github.com/mekoros/sourcesheet-ocr-service/internal/apperrors"
)

const requestTimeout = 20 * time.Second

// VisionOCR calls Google Cloud Vision document text detection.
type VisionOCR struct {
	apiKey        string
	languageHints []string
	enhance       bool
	preprocessor  *Preprocessor
}

// NewVisionOCR creates the OCR adapter. Language hints bias recognition
// toward the scripts that actually appear on source sheets.
func NewVisionOCR(apiKey string, languageHints []string, enhance bool) *VisionOCR {
	if len(languageHints) == 0 {
		languageHints = []string{"he", "en", "yi"}
	}
	return &VisionOCR{
		apiKey:        apiKey,
		languageHints: languageHints,
		enhance:       enhance,
		preprocessor:  NewPreprocessor(),
	}
}

// ExtractText runs DOCUMENT_TEXT_DETECTION on the image and returns the full
// recognized text, or "" when the service finds none. Network failures and
// non-success statuses surface as provider errors so the caller can decide
// whether to fall back or abort.
func (v *VisionOCR) ExtractText(ctx context.Context, imageData []byte, mediaType string) (string, error) {
	if v.apiKey == "" {
		return "", apperrors.NewConfigurationError("VISION_API_KEY is not set")
	}

	if v.enhance {
		imageData = v.preprocessor.Enhance(imageData)
	}

	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	svc, err := vision.NewService(ctx, option.WithAPIKey(v.apiKey))
	if err != nil {
		return "", apperrors.NewProviderError("vision", 0, "failed to create client", err)
	}

	req := &vision.BatchAnnotateImagesRequest{
		Requests: []*vision.AnnotateImageRequest{{
			Image: &vision.Image{
				Content: base64.StdEncoding.EncodeToString(imageData),
			},
			Features: []*vision.Feature{{
				Type: "DOCUMENT_TEXT_DETECTION",
			}},
			ImageContext: &vision.ImageContext{
				LanguageHints: v.languageHints,
			},
		}},
	}

	resp, err := svc.Images.Annotate(req).Context(ctx).Do()
	if err != nil {
		return "", apperrors.NewProviderError("vision", statusOf(err), "annotate request failed", err)
	}
	if len(resp.Responses) == 0 {
		return "", nil
	}

	annotation := resp.Responses[0]
	if annotation.Error != nil {
		log.Printf("[OCR] Vision error %d: %s", annotation.Error.Code, annotation.Error.Message)
		return "", apperrors.NewProviderError("vision", int(annotation.Error.Code), annotation.Error.Message, nil)
	}
	if annotation.FullTextAnnotation == nil {
		// No text on the page is a normal outcome
		return "", nil
	}
	return annotation.FullTextAnnotation.Text, nil
}

// statusOf pulls the HTTP status out of a googleapi error if present.
func statusOf(err error) int {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return gerr.Code
	}
	return 0
}
