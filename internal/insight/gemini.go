package insight

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/finsum-dev/finsum/internal/prompt"
)

const DefaultGeminiModel = "gemini-2.5-flash"

// GeminiClient calls the Gemini API through the genai SDK.
type GeminiClient struct {
	client      *genai.Client
	model       string
	maxTokens   int
	temperature float64
}

// GeminiConfig holds the settings needed to build a GeminiClient.
type GeminiConfig struct {
	APIKey      string
	Model       string
	BaseURL     string // empty uses the SDK default
	MaxTokens   int
	Temperature float64
}

// NewGeminiClient creates the SDK client. No request is made.
func NewGeminiClient(ctx context.Context, cfg GeminiConfig) (*GeminiClient, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      cfg.APIKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{BaseURL: cfg.BaseURL},
	})
	if err != nil {
		return nil, fmt.Errorf("creating genai client: %w", err)
	}
	model := cfg.Model
	if model == "" {
		model = DefaultGeminiModel
	}
	return &GeminiClient{
		client:      client,
		model:       model,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
	}, nil
}

func (c *GeminiClient) Send(ctx context.Context, p prompt.Payload) (string, error) {
	gc := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(float32(c.temperature)),
		MaxOutputTokens: int32(c.maxTokens),
	}
	if p.System != "" {
		gc.SystemInstruction = genai.NewContentFromText(p.System, genai.RoleUser)
	}

	resp, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(p.User), gc)
	if err != nil {
		return "", classifyGenAIError(ctx, err)
	}
	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return "", &APIError{Kind: ErrEmptyResponse, Provider: "gemini", Message: "no text content"}
	}
	return text, nil
}

func classifyGenAIError(ctx context.Context, err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		kind := KindForStatus(apiErr.Code)
		if apiErr.Status == "RESOURCE_EXHAUSTED" {
			kind = ErrRateLimited
		}
		return &APIError{Kind: kind, Provider: "gemini", Status: apiErr.Code, Message: apiErr.Message}
	}
	return transportError(ctx, "gemini", err)
}
