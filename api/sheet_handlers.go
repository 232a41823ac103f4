package api

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/mekoros/sourcesheet-ocr-service/internal/db"
	"github.com/mekoros/sourcesheet-ocr-service/internal/layout"
	"github.com/mekoros/sourcesheet-ocr-service/internal/models"
	"github.com/mekoros/sourcesheet-ocr-service/internal/splitter"
	"github.com/mekoros/sourcesheet-ocr-service/internal/storage"
)

// AnalyzeResponse is the result of a full sheet analysis.
type AnalyzeResponse struct {
	Success bool                  `json:"success"`
	Sources []models.SourceRegion `json:"sources"`
	Count   int                   `json:"count"`
	Error   string                `json:"error,omitempty"`
}

// AnalyzeSheet runs layout detection on an uploaded sheet image and returns
// normalized source regions. The response always contains at least one
// region on success: pages that defeat detection get a full-page region.
func (h *Handler) AnalyzeSheet(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	ctx := r.Context()

	data, contentType, filename, err := h.readUpload(w, r, "image", "file")
	if err != nil {
		h.sendError(w, http.StatusBadRequest, err.Error())
		return
	}

	boxes, err := h.detector.DetectBoxes(ctx, data, contentType)
	if err != nil {
		w.WriteHeader(statusFor(err))
		json.NewEncoder(w).Encode(AnalyzeResponse{
			Success: false,
			Error:   err.Error(),
			Sources: []models.SourceRegion{},
		})
		return
	}

	sources := layout.Normalize(layout.FromBoxes(boxes))

	// Archive and persist best-effort; analysis succeeds regardless
	imagePath := h.archiveUpload(r, data, contentType)
	if db.Pool != nil {
		sheet := &db.Sheet{Filename: filename, ImagePath: imagePath}
		if err := db.SaveSheet(ctx, sheet, sources); err != nil {
			log.Printf("Warning: failed to save sheet: %v", err)
		}
	}

	json.NewEncoder(w).Encode(AnalyzeResponse{
		Success: true,
		Sources: sources,
		Count:   len(sources),
	})
}

// ParseResponse is the result of text extraction plus splitting.
type ParseResponse struct {
	Success bool                 `json:"success"`
	RawText string               `json:"rawText"`
	Sources []models.ParsedBlock `json:"sources"`
	Error   string               `json:"error,omitempty"`
}

// ParseSheet extracts text from an uploaded file (embedded PDF text when
// possible, OCR otherwise) and segments it into source blocks.
func (h *Handler) ParseSheet(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	ctx := r.Context()

	data, contentType, _, err := h.readUpload(w, r, "file", "image")
	if err != nil {
		h.sendError(w, http.StatusBadRequest, err.Error())
		return
	}

	forceOCR := r.FormValue("useOCR") == "true"

	rawText, usedOCR, err := h.ingestor.ExtractText(ctx, data, contentType, forceOCR)
	if err != nil {
		w.WriteHeader(statusFor(err))
		json.NewEncoder(w).Encode(ParseResponse{
			Success: false,
			Error:   err.Error(),
			Sources: []models.ParsedBlock{},
		})
		return
	}
	log.Printf("[Parse] extracted %d chars (ocr=%v)", len(rawText), usedOCR)

	json.NewEncoder(w).Encode(ParseResponse{
		Success: true,
		RawText: rawText,
		Sources: splitter.Split(rawText),
	})
}

// BoxRegionPayload is the canonical 0-1000 wire schema.
type BoxRegionPayload struct {
	Title string    `json:"title"`
	Box2D []float64 `json:"box_2d"`
}

// DetectRegionsResponse carries raw 0-1000 regions plus the image for the
// caller's overlay renderer.
type DetectRegionsResponse struct {
	Success bool               `json:"success"`
	Image   string             `json:"image,omitempty"`
	Regions []BoxRegionPayload `json:"regions"`
	Error   string             `json:"error,omitempty"`
}

// DetectRegions returns model-detected regions in the canonical 0-1000
// box_2d convention. This schema is not interchangeable with the band
// schema served by DetectBands.
func (h *Handler) DetectRegions(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	ctx := r.Context()

	data, contentType, _, err := h.readUpload(w, r, "file", "image")
	if err != nil {
		h.sendError(w, http.StatusBadRequest, err.Error())
		return
	}

	boxes, err := h.detector.DetectBoxes(ctx, data, contentType)
	if err != nil {
		w.WriteHeader(statusFor(err))
		json.NewEncoder(w).Encode(DetectRegionsResponse{
			Success: false,
			Error:   err.Error(),
			Regions: []BoxRegionPayload{},
		})
		return
	}

	payload := make([]BoxRegionPayload, 0, len(boxes))
	for _, b := range boxes {
		payload = append(payload, BoxRegionPayload{
			Title: b.Title,
			Box2D: []float64{b.Box.YMin, b.Box.XMin, b.Box.YMax, b.Box.XMax},
		})
	}

	json.NewEncoder(w).Encode(DetectRegionsResponse{
		Success: true,
		Image:   dataURI(data, contentType),
		Regions: payload,
	})
}

// BandRegionPayload is the percentage-band wire schema.
type BandRegionPayload struct {
	Title  string  `json:"title"`
	Y      float64 `json:"y"`
	Height float64 `json:"height"`
}

// DetectBandsResponse carries percentage bands plus the image.
type DetectBandsResponse struct {
	Success bool                `json:"success"`
	Image   string              `json:"image,omitempty"`
	Regions []BandRegionPayload `json:"regions"`
	Error   string              `json:"error,omitempty"`
}

// DetectBands returns model-detected regions as percentage y/height bands.
func (h *Handler) DetectBands(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	ctx := r.Context()

	data, contentType, _, err := h.readUpload(w, r, "file", "image")
	if err != nil {
		h.sendError(w, http.StatusBadRequest, err.Error())
		return
	}

	bands, err := h.detector.DetectBands(ctx, data, contentType)
	if err != nil {
		w.WriteHeader(statusFor(err))
		json.NewEncoder(w).Encode(DetectBandsResponse{
			Success: false,
			Error:   err.Error(),
			Regions: []BandRegionPayload{},
		})
		return
	}

	payload := make([]BandRegionPayload, 0, len(bands))
	for _, b := range bands {
		payload = append(payload, BandRegionPayload{
			Title:  b.Title,
			Y:      b.Band.Y,
			Height: b.Band.Height,
		})
	}

	json.NewEncoder(w).Encode(DetectBandsResponse{
		Success: true,
		Image:   dataURI(data, contentType),
		Regions: payload,
	})
}

// archiveUpload stores the uploaded image when storage is configured and
// returns the stored path, or "" when archiving is off or failed.
func (h *Handler) archiveUpload(r *http.Request, data []byte, contentType string) string {
	if storage.Client == nil {
		return ""
	}

	filename := fmt.Sprintf("%s_%s%s",
		time.Now().Format("20060102_150405"),
		uuid.New().String()[:8],
		storage.GetFileExtension(contentType),
	)

	path, err := storage.UploadSheetImage(r.Context(), filename,
		bytes.NewReader(data), int64(len(data)), contentType)
	if err != nil {
		log.Printf("Warning: failed to upload sheet image: %v", err)
		return ""
	}
	return path
}

func dataURI(data []byte, contentType string) string {
	return fmt.Sprintf("data:%s;base64,%s", contentType, base64.StdEncoding.EncodeToString(data))
}
