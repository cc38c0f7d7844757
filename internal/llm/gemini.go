package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// GeminiModel is the subset of *genai.GenerativeModel used for completions.
type GeminiModel interface {
	GenerateContent(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
}

// GeminiModelFactory returns a model for modelID configured with cfg.
type GeminiModelFactory func(modelID string, cfg genai.GenerationConfig) GeminiModel

// GeminiClient completes prompts with a Google Gemini model.
type GeminiClient struct {
	client  *genai.Client
	models  GeminiModelFactory
	modelID string
}

// NewGeminiClient creates a Gemini client for modelID.
func NewGeminiClient(ctx context.Context, apiKey, modelID string) (*GeminiClient, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, ErrNotConfigured
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	c, err := NewGeminiClientWithModels(func(id string, cfg genai.GenerationConfig) GeminiModel {
		m := client.GenerativeModel(id)
		m.GenerationConfig = cfg
		return m
	}, modelID)
	if err != nil {
		_ = client.Close()
		return nil, err
	}
	c.client = client
	return c, nil
}

// NewGeminiClientWithModels builds a client over an existing model factory.
func NewGeminiClientWithModels(models GeminiModelFactory, modelID string) (*GeminiClient, error) {
	if models == nil {
		return nil, ErrNotConfigured
	}
	if strings.TrimSpace(modelID) == "" {
		modelID = "gemini-1.5-pro"
	}
	return &GeminiClient{models: models, modelID: modelID}, nil
}

// Provider returns "gemini".
func (c *GeminiClient) Provider() string { return "gemini" }

// Complete sends the prompt and concatenates the text parts of the first candidate.
func (c *GeminiClient) Complete(ctx context.Context, req Request) (string, error) {
	model := c.models(c.modelID, geminiGenerationConfig(req))
	resp, err := model.GenerateContent(ctx, genai.Text(req.Prompt))
	if err != nil {
		return "", fmt.Errorf("gemini completion failed: %w", err)
	}
	return geminiOutputText(resp)
}

func geminiGenerationConfig(req Request) genai.GenerationConfig {
	var cfg genai.GenerationConfig
	if req.Temperature >= 0 {
		cfg.SetTemperature(req.Temperature)
	}
	if req.MaxTokens > 0 {
		cfg.SetMaxOutputTokens(req.MaxTokens)
	}
	if req.Schema != nil {
		cfg.ResponseMIMEType = "application/json"
	}
	return cfg
}

func geminiOutputText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", errors.New("gemini returned no candidates")
	}
	candidate := resp.Candidates[0]
	if candidate == nil || candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", errors.New("gemini returned empty content")
	}

	var b strings.Builder
	for _, part := range candidate.Content.Parts {
		if text, ok := part.(genai.Text); ok {
			b.WriteString(string(text))
		}
	}
	out := strings.TrimSpace(b.String())
	if out == "" {
		return "", errors.New("gemini returned no text parts")
	}
	return out, nil
}

// Close releases the underlying client.
func (c *GeminiClient) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}
