package main

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/mekoros/sourcesheet-ocr-service/api"
	"github.com/mekoros/sourcesheet-ocr-service/internal/auth"
	"github.com/mekoros/sourcesheet-ocr-service/internal/db"
	"github.com/mekoros/sourcesheet-ocr-service/internal/ingest"
	"github.com/mekoros/sourcesheet-ocr-service/internal/layout"
	"github.com/mekoros/sourcesheet-ocr-service/internal/models"
	"github.com/mekoros/sourcesheet-ocr-service/internal/ocr"
	"github.com/mekoros/sourcesheet-ocr-service/internal/pdftext"
	"github.com/mekoros/sourcesheet-ocr-service/internal/resolver"
	"github.com/mekoros/sourcesheet-ocr-service/internal/sefaria"
	"github.com/mekoros/sourcesheet-ocr-service/internal/storage"
)

func main() {
	// Best-effort .env for local development
	_ = godotenv.Load()

	// Initialize JWT for the admin surface; the public pipeline works
	// without it
	if err := auth.Init(); err != nil {
		log.Printf("Warning: admin auth disabled: %v", err)
	} else {
		log.Println("JWT authentication initialized")
	}

	// Initialize database connection pool
	if err := db.Init(); err != nil {
		log.Printf("Warning: Database not available: %v", err)
		log.Println("Running without persistence")
	} else {
		defer db.Close()
	}

	// Initialize MinIO storage
	if err := storage.Init(); err != nil {
		log.Printf("Warning: MinIO storage not available: %v", err)
		log.Println("Uploaded sheets will not be archived")
	} else {
		log.Println("MinIO storage initialized")
	}

	// Load configuration
	config, err := loadConfig("config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Wire the pipeline
	visionOCR := ocr.NewVisionOCR(config.OCR.APIKey, config.OCR.LanguageHints, config.OCR.Enhance)
	detector := layout.NewDetector(config.AI.Gemini.APIKey, config.AI.Gemini.LayoutModel)
	ingestor := ingest.NewIngestor(pdftext.NewCombinedExtractor(), visionOCR)
	sefariaClient := sefaria.NewClient(config.Sefaria.APIBase, config.Sefaria.SiteBase)
	chain := buildChain(config, visionOCR, sefariaClient)

	handler := api.NewHandler(config, ingestor, detector, sefariaClient, chain)
	router := handler.SetupRoutes()
	router.HandleFunc("/api/admin/login", auth.LoginHandler).Methods("POST")

	protectedRouter := auth.JWTMiddleware(router)

	addr := fmt.Sprintf("%s:%d", config.Host, config.Port)
	log.Printf("Starting Source Sheet OCR Service v%s on %s", api.Version, addr)
	log.Printf("Layout model: %s", config.AI.Gemini.LayoutModel)
	log.Printf("Identify variants: %s", strings.Join(config.AI.Gemini.Models, ", "))
	log.Printf("Database: %v", db.Pool != nil)
	log.Printf("Storage: %v", storage.Client != nil)
	log.Printf("Endpoints:")
	log.Printf("  POST http://%s/api/sheets/analyze        - Detect source regions", addr)
	log.Printf("  POST http://%s/api/sheets/parse          - Extract and split text", addr)
	log.Printf("  POST http://%s/api/sheets/detect-regions - Raw 0-1000 boxes", addr)
	log.Printf("  POST http://%s/api/sheets/detect-bands   - Percentage bands", addr)
	log.Printf("  GET  http://%s/api/reference?ref=...     - Direct reference lookup", addr)
	log.Printf("  POST http://%s/api/reference             - Keyword search", addr)
	log.Printf("  POST http://%s/api/reference/identify    - Identify a source image", addr)
	log.Printf("  GET  http://%s/health                    - Health check", addr)

	if err := http.ListenAndServe(addr, protectedRouter); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

// buildChain assembles the identification strategies in priority order:
// every Gemini model variant under every configured credential, then the
// OpenAI vision fallback, then OCR plus text search.
func buildChain(config *models.Config, visionOCR *ocr.VisionOCR, sef *sefaria.Client) *resolver.Chain {
	var strategies []resolver.Strategy

	for _, key := range splitKeys(config.AI.Gemini.APIKey) {
		for _, model := range config.AI.Gemini.Models {
			strategies = append(strategies, resolver.NewGeminiStrategy(key, model, sef))
		}
	}
	if config.AI.OpenAI.APIKey != "" {
		strategies = append(strategies, resolver.NewOpenAIStrategy(
			config.AI.OpenAI.APIKey, config.AI.OpenAI.BaseURL, config.AI.OpenAI.Model, sef))
	}
	strategies = append(strategies, resolver.NewSearchStrategy(visionOCR, sef, 3))

	return resolver.NewChain(strategies...)
}

// splitKeys supports a comma-separated credential list.
func splitKeys(keys string) []string {
	var out []string
	for _, key := range strings.Split(keys, ",") {
		if key = strings.TrimSpace(key); key != "" {
			out = append(out, key)
		}
	}
	return out
}

func loadConfig(path string) (*models.Config, error) {
	var config models.Config

	// The config file is optional; env vars can carry everything
	if data, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	// Override with environment variables if present
	if port := os.Getenv("PORT"); port != "" {
		fmt.Sscanf(port, "%d", &config.Port)
	}
	if host := os.Getenv("HOST"); host != "" {
		config.Host = host
	}
	if apiKey := os.Getenv("VISION_API_KEY"); apiKey != "" {
		config.OCR.APIKey = apiKey
	}
	if apiKey := os.Getenv("GEMINI_API_KEY"); apiKey != "" {
		config.AI.Gemini.APIKey = apiKey
	}
	if modelList := os.Getenv("GEMINI_MODELS"); modelList != "" {
		config.AI.Gemini.Models = splitKeys(modelList)
	}
	if model := os.Getenv("GEMINI_LAYOUT_MODEL"); model != "" {
		config.AI.Gemini.LayoutModel = model
	}
	if apiKey := os.Getenv("OPENAI_API_KEY"); apiKey != "" {
		config.AI.OpenAI.APIKey = apiKey
	}
	if baseURL := os.Getenv("OPENAI_BASE_URL"); baseURL != "" {
		config.AI.OpenAI.BaseURL = baseURL
	}
	if model := os.Getenv("OPENAI_MODEL"); model != "" {
		config.AI.OpenAI.Model = model
	}
	if base := os.Getenv("SEFARIA_API_BASE"); base != "" {
		config.Sefaria.APIBase = base
	}

	config.Defaults()
	return &config, nil
}
