package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"runtime"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/mekoros/sourcesheet-ocr-service/internal/apperrors"
	"github.com/mekoros/sourcesheet-ocr-service/internal/db"
	"github.com/mekoros/sourcesheet-ocr-service/internal/layout"
	"github.com/mekoros/sourcesheet-ocr-service/internal/models"
	"github.com/mekoros/sourcesheet-ocr-service/internal/resolver"
	"github.com/mekoros/sourcesheet-ocr-service/internal/sefaria"
	"github.com/mekoros/sourcesheet-ocr-service/internal/storage"
)

const (
	MaxUploadSize = 10 * 1024 * 1024 // 10MB
	Version       = "1.3.0"
)

// ingestor turns an upload into recognized text.
type ingestor interface {
	ExtractText(ctx context.Context, data []byte, mediaType string, forceOCR bool) (string, bool, error)
}

// regionDetector finds source blocks on a sheet image.
type regionDetector interface {
	DetectBoxes(ctx context.Context, imageData []byte, mediaType string) ([]layout.BoxRegion, error)
	DetectBands(ctx context.Context, imageData []byte, mediaType string) ([]layout.BandRegion, error)
}

// identifier resolves a sheet excerpt to reference candidates.
type identifier interface {
	Resolve(ctx context.Context, in resolver.Input) resolver.Outcome
}

// Handler handles HTTP requests for source sheet processing
type Handler struct {
	config   *models.Config
	ingestor ingestor
	detector regionDetector
	sefaria  *sefaria.Client
	chain    identifier
}

// NewHandler creates a new API handler
func NewHandler(config *models.Config, ing ingestor, det regionDetector, sef *sefaria.Client, chain identifier) *Handler {
	return &Handler{
		config:   config,
		ingestor: ing,
		detector: det,
		sefaria:  sef,
		chain:    chain,
	}
}

// SetupRoutes configures the HTTP routes
func (h *Handler) SetupRoutes() *mux.Router {
	router := mux.NewRouter()

	// Ingestion pipeline
	router.HandleFunc("/api/sheets/analyze", h.AnalyzeSheet).Methods("POST")
	router.HandleFunc("/api/sheets/parse", h.ParseSheet).Methods("POST")
	router.HandleFunc("/api/sheets/detect-regions", h.DetectRegions).Methods("POST")
	router.HandleFunc("/api/sheets/detect-bands", h.DetectBands).Methods("POST")

	// Reference resolution
	router.HandleFunc("/api/reference", h.LookupReference).Methods("GET")
	router.HandleFunc("/api/reference", h.SearchReferences).Methods("POST")
	router.HandleFunc("/api/reference/identify", h.IdentifySource).Methods("POST")

	// Admin (JWT protected by middleware)
	router.HandleFunc("/api/admin/sheets", h.GetSheets).Methods("GET")
	router.HandleFunc("/api/admin/sheets/{id}", h.GetSheet).Methods("GET")
	router.HandleFunc("/api/admin/sheets/{id}", h.DeleteSheet).Methods("DELETE")
	router.HandleFunc("/api/admin/sheets/{id}/image", h.GetSheetImage).Methods("GET")

	// Health check
	router.HandleFunc("/health", h.Health).Methods("GET")

	return router
}

// HealthResponse represents the health check response structure
type HealthResponse struct {
	Status    string        `json:"status"`
	Version   string        `json:"version"`
	Timestamp string        `json:"timestamp"`
	Uptime    string        `json:"uptime"`
	Memory    MemoryStats   `json:"memory"`
	OCR       ServiceStatus `json:"ocr"`
	Layout    ServiceStatus `json:"layout"`
	Database  ServiceStatus `json:"database"`
	Storage   ServiceStatus `json:"storage"`
}

// MemoryStats represents memory usage statistics
type MemoryStats struct {
	Allocated string `json:"allocated"`
	Total     string `json:"total"`
	System    string `json:"system"`
}

// ServiceStatus represents the status of a service dependency
type ServiceStatus struct {
	Available bool   `json:"available"`
	Version   string `json:"version,omitempty"`
	Error     string `json:"error,omitempty"`
}

var startTime = time.Now()

// Health endpoint - enhanced for monitoring
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	ocrStatus := ServiceStatus{Available: h.config.OCR.APIKey != ""}
	if !ocrStatus.Available {
		ocrStatus.Error = "VISION_API_KEY not configured"
	}
	layoutStatus := ServiceStatus{Available: h.config.AI.Gemini.APIKey != ""}
	if !layoutStatus.Available {
		layoutStatus.Error = "GEMINI_API_KEY not configured"
	}
	databaseStatus := ServiceStatus{Available: db.Pool != nil}
	if db.Pool == nil {
		databaseStatus.Error = "database pool not initialized"
	}
	storageStatus := ServiceStatus{Available: storage.Client != nil}
	if storage.Client == nil {
		storageStatus.Error = "storage client not initialized"
	}

	response := HealthResponse{
		Status:    "healthy",
		Version:   Version,
		Timestamp: time.Now().Format(time.RFC3339),
		Uptime:    time.Since(startTime).String(),
		Memory: MemoryStats{
			Allocated: fmt.Sprintf("%.2f MB", float64(m.Alloc)/1024/1024),
			Total:     fmt.Sprintf("%.2f MB", float64(m.TotalAlloc)/1024/1024),
			System:    fmt.Sprintf("%.2f MB", float64(m.Sys)/1024/1024),
		},
		OCR:      ocrStatus,
		Layout:   layoutStatus,
		Database: databaseStatus,
		Storage:  storageStatus,
	}

	// The pipeline cannot run at all without the model providers
	if !ocrStatus.Available && !layoutStatus.Available {
		response.Status = "degraded"
		w.WriteHeader(http.StatusServiceUnavailable)
	} else {
		w.WriteHeader(http.StatusOK)
	}

	json.NewEncoder(w).Encode(response)
}

// readUpload pulls the uploaded file from a multipart form, accepting any of
// the given field names.
func (h *Handler) readUpload(w http.ResponseWriter, r *http.Request, fields ...string) ([]byte, string, string, error) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxUploadSize)
	if err := r.ParseMultipartForm(MaxUploadSize); err != nil {
		return nil, "", "", apperrors.NewInvalidInput("file too large or invalid form data")
	}

	var file multipart.File
	var header *multipart.FileHeader
	var err error
	for _, field := range fields {
		file, header, err = r.FormFile(field)
		if err == nil {
			break
		}
	}
	if err != nil {
		return nil, "", "", apperrors.NewInvalidInput(
			fmt.Sprintf("no file provided (use %s field)", strings.Join(fields, " or ")))
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, "", "", fmt.Errorf("failed to read file: %w", err)
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "image/jpeg"
	}
	return data, contentType, header.Filename, nil
}

// sendError sends an error response
func (h *Handler) sendError(w http.ResponseWriter, statusCode int, message string) {
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(map[string]string{
		"error": message,
	})
}

// statusFor maps an error to the HTTP status the route layer reports.
func statusFor(err error) int {
	switch apperrors.CodeOf(err) {
	case apperrors.CodeInvalidInput:
		return http.StatusBadRequest
	case apperrors.CodeConfigurationError:
		return http.StatusInternalServerError
	default:
		return http.StatusOK
	}
}
