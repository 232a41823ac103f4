package resolver

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/mekoros/sourcesheet-ocr-service/internal/apperrors"
	"github.com/mekoros/sourcesheet-ocr-service/internal/sefaria"
)

// OpenAIStrategy is the secondary model-based identifier, tried after the
// Gemini variants are exhausted.
type OpenAIStrategy struct {
	apiKey  string
	baseURL string
	model   string
	sefaria *sefaria.Client
}

func NewOpenAIStrategy(apiKey, baseURL, model string, sef *sefaria.Client) *OpenAIStrategy {
	return &OpenAIStrategy{apiKey: apiKey, baseURL: baseURL, model: model, sefaria: sef}
}

func (o *OpenAIStrategy) Name() string {
	return fmt.Sprintf("openai/%s", o.model)
}

func (o *OpenAIStrategy) Attempt(ctx context.Context, in Input) (Result, error) {
	if o.apiKey == "" {
		return Result{}, apperrors.NewConfigurationError("no OpenAI API key configured")
	}

	ctx, cancel := context.WithTimeout(ctx, 20*time.Second)
	defer cancel()

	config := openai.DefaultConfig(o.apiKey)
	if o.baseURL != "" {
		config.BaseURL = o.baseURL
	}
	client := openai.NewClientWithConfig(config)

	dataURI := fmt.Sprintf("data:%s;base64,%s", in.MediaType,
		base64.StdEncoding.EncodeToString(in.Image))

	resp, err := client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{{
			Role: openai.ChatMessageRoleUser,
			MultiContent: []openai.ChatMessagePart{
				{
					Type: openai.ChatMessagePartTypeText,
					Text: identifyPrompt,
				},
				{
					Type: openai.ChatMessagePartTypeImageURL,
					ImageURL: &openai.ChatMessageImageURL{
						URL: dataURI,
					},
				},
			},
		}},
		MaxTokens: 1024,
	})
	if err != nil {
		return Result{}, apperrors.NewProviderError("openai", 0, "chat completion failed", err)
	}
	if len(resp.Choices) == 0 {
		return Result{}, nil
	}

	return Result{Candidates: parseCandidates(ctx, resp.Choices[0].Message.Content, o.sefaria)}, nil
}
