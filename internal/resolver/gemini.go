package resolver

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/kaptinlin/jsonrepair"
	"google.golang.org/api/option"

	"github.com/mekoros/sourcesheet-ocr-service/internal/apperrors"
	"github.com/mekoros/sourcesheet-ocr-service/internal/layout"
	"github.com/mekoros/sourcesheet-ocr-service/internal/models"
	"github.com/mekoros/sourcesheet-ocr-service/internal/sefaria"
)

const identifyPrompt = `You are looking at one excerpt from a Torah source sheet.
Identify which canonical source it is quoting. Consider the heading, any
chapter/verse or daf markers, and the text itself.

Respond with ONLY a JSON array of your best guesses, most confident first,
no markdown, no commentary:
[{"sourceName": "human-readable name", "ref": "Sefaria-style reference, e.g. Berakhot 55a or Genesis 1:1"}]

Return [] if you cannot identify the source.`

// GeminiStrategy identifies a source with one Gemini model variant and one
// credential. The chain holds one instance per (model, key) pair.
type GeminiStrategy struct {
	apiKey  string
	model   string
	sefaria *sefaria.Client
}

func NewGeminiStrategy(apiKey, model string, sef *sefaria.Client) *GeminiStrategy {
	return &GeminiStrategy{apiKey: apiKey, model: model, sefaria: sef}
}

func (g *GeminiStrategy) Name() string {
	return fmt.Sprintf("gemini/%s", g.model)
}

func (g *GeminiStrategy) Attempt(ctx context.Context, in Input) (Result, error) {
	if g.apiKey == "" {
		return Result{}, apperrors.NewConfigurationError("no Gemini API key configured")
	}

	ctx, cancel := context.WithTimeout(ctx, 20*time.Second)
	defer cancel()

	client, err := genai.NewClient(ctx, option.WithAPIKey(g.apiKey))
	if err != nil {
		return Result{}, apperrors.NewProviderError("gemini", 0, "failed to create client", err)
	}
	defer client.Close()

	model := client.GenerativeModel(g.model)
	resp, err := model.GenerateContent(ctx,
		genai.Text(identifyPrompt),
		genai.Blob{MIMEType: in.MediaType, Data: in.Image},
	)
	if err != nil {
		return Result{}, apperrors.NewProviderError("gemini", 0, "generate content failed", err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return Result{}, nil
	}
	var text string
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			text = string(t)
			break
		}
	}

	return Result{Candidates: parseCandidates(ctx, text, g.sefaria)}, nil
}

// parseCandidates turns model output into verified candidates. Malformed
// output is zero candidates, never an error.
func parseCandidates(ctx context.Context, text string, sef *sefaria.Client) []models.ReferenceCandidate {
	cleaned := layout.StripFence(text)
	if cleaned == "" {
		return nil
	}

	var raw []struct {
		SourceName string `json:"sourceName"`
		Ref        string `json:"ref"`
	}
	if err := json.Unmarshal([]byte(cleaned), &raw); err != nil {
		repaired, rerr := jsonrepair.JSONRepair(cleaned)
		if rerr != nil {
			log.Printf("[Resolver] %v", apperrors.NewParseError("model", rerr))
			return nil
		}
		if err := json.Unmarshal([]byte(repaired), &raw); err != nil {
			log.Printf("[Resolver] %v", apperrors.NewParseError("model", err))
			return nil
		}
	}

	candidates := make([]models.ReferenceCandidate, 0, len(raw))
	for _, r := range raw {
		if r.Ref == "" {
			continue
		}
		candidate := models.ReferenceCandidate{
			SourceName:   r.SourceName,
			CanonicalRef: r.Ref,
			Origin:       models.OriginModel,
		}
		if candidate.SourceName == "" {
			candidate.SourceName = r.Ref
		}
		// A preview excerpt makes disambiguation possible in the UI
		if sef != nil {
			if lookup := sef.Lookup(ctx, r.Ref); lookup.Found {
				candidate.CanonicalRef = lookup.Ref
				candidate.PreviewText = truncate(lookup.Text, 200)
			}
		}
		candidates = append(candidates, candidate)
	}
	return candidates
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
