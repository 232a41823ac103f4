package resolver

import (
	"context"
	"log"
	"strings"

	"github.com/mekoros/sourcesheet-ocr-service/internal/models"
)

// Input is one sheet image to identify.
type Input struct {
	Image     []byte
	MediaType string
}

// Result is what a strategy produced. RawText is only set by strategies
// that ran OCR, so the caller can offer manual identification when every
// strategy came up empty.
type Result struct {
	Candidates []models.ReferenceCandidate
	RawText    string
}

// Strategy is one way of turning a sheet image into reference candidates.
// Returning an empty result is normal; the chain simply moves on.
type Strategy interface {
	Name() string
	Attempt(ctx context.Context, in Input) (Result, error)
}

// Chain tries strategies in priority order and short-circuits on the first
// one that yields at least one candidate. Strategies run sequentially:
// model calls are billed per request and first-success-wins keeps cost and
// duplicate candidates under control.
type Chain struct {
	strategies []Strategy
}

func NewChain(strategies ...Strategy) *Chain {
	return &Chain{strategies: strategies}
}

// Outcome is the chain's aggregate result.
type Outcome struct {
	Candidates []models.ReferenceCandidate
	RawText    string
	Origin     models.CandidateOrigin
}

// Resolve walks the chain. It never returns an error for "nothing found":
// when every strategy is exhausted the outcome still carries any raw OCR
// text recovered along the way, tagged ocr-only.
func (c *Chain) Resolve(ctx context.Context, in Input) Outcome {
	var rawText string

	for _, s := range c.strategies {
		result, err := s.Attempt(ctx, in)
		if err != nil {
			log.Printf("[Resolver] strategy %s failed: %v", s.Name(), err)
			continue
		}
		if result.RawText != "" {
			rawText = result.RawText
		}
		if len(result.Candidates) > 0 {
			log.Printf("[Resolver] strategy %s returned %d candidate(s)", s.Name(), len(result.Candidates))
			return Outcome{
				Candidates: result.Candidates,
				RawText:    rawText,
				Origin:     result.Candidates[0].Origin,
			}
		}
	}

	return Outcome{
		Candidates: []models.ReferenceCandidate{},
		RawText:    strings.TrimSpace(rawText),
		Origin:     models.OriginOCROnly,
	}
}
