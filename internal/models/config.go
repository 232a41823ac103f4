package models

// Config represents the service configuration
type Config struct {
	// Server config
	Port int    `yaml:"port"`
	Host string `yaml:"host"`

	// OCR config
	OCR OCRConfig `yaml:"ocr"`

	// AI config
	AI AIConfig `yaml:"ai"`

	// Sefaria text database (public API, no credentials)
	Sefaria SefariaConfig `yaml:"sefaria"`
}

// OCRConfig represents OCR-specific configuration
type OCRConfig struct {
	APIKey string `yaml:"api_key"`
	// Language hints sent with every text-detection request
	LanguageHints []string `yaml:"language_hints"`
	// Enhance runs the ImageMagick preprocessing pipeline before OCR
	Enhance bool `yaml:"enhance"`
}

// AIConfig represents multimodal model provider configuration
type AIConfig struct {
	Gemini GeminiConfig `yaml:"gemini"`
	OpenAI OpenAIConfig `yaml:"openai"`
}

// GeminiConfig for Google Gemini
type GeminiConfig struct {
	APIKey string `yaml:"api_key"`
	// Models are tried in order during source identification; the first
	// variant that returns a candidate wins.
	Models []string `yaml:"models"`
	// Model used for layout/region detection
	LayoutModel string `yaml:"layout_model"`
}

// OpenAIConfig for OpenAI vision fallback
type OpenAIConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url,omitempty"`
	Model   string `yaml:"model"`
}

// SefariaConfig for the external text database
type SefariaConfig struct {
	APIBase  string `yaml:"api_base"`  // default https://www.sefaria.org
	SiteBase string `yaml:"site_base"` // public URL prefix for built links
}

// Defaults fills unset fields with working values.
func (c *Config) Defaults() {
	if c.Host == "" {
		c.Host = "0.0.0.0"
	}
	if c.Port == 0 {
		c.Port = 8080
	}
	if len(c.OCR.LanguageHints) == 0 {
		c.OCR.LanguageHints = []string{"he", "en", "yi"}
	}
	if len(c.AI.Gemini.Models) == 0 {
		c.AI.Gemini.Models = []string{"gemini-1.5-pro", "gemini-1.5-flash"}
	}
	if c.AI.Gemini.LayoutModel == "" {
		c.AI.Gemini.LayoutModel = "gemini-1.5-flash"
	}
	if c.AI.OpenAI.Model == "" {
		c.AI.OpenAI.Model = "gpt-4o"
	}
	if c.Sefaria.APIBase == "" {
		c.Sefaria.APIBase = "https://www.sefaria.org"
	}
	if c.Sefaria.SiteBase == "" {
		c.Sefaria.SiteBase = "https://www.sefaria.org"
	}
}
