package embedding

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"

	"github.com/hyperjump/carelens/pkg/utils"
)

// InvokeModelAPI is the subset of the Bedrock runtime client used for embeddings.
type InvokeModelAPI interface {
	InvokeModel(ctx context.Context, params *bedrockruntime.InvokeModelInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error)
}

// BedrockEmbedder embeds text with an Amazon Titan text embedding model.
type BedrockEmbedder struct {
	api        InvokeModelAPI
	modelID    string
	dimensions int
}

// NewBedrockEmbedder returns an embedder calling modelID through api. Titan v2 models are
// asked for vectors of the given dimensions; other models must already produce them.
func NewBedrockEmbedder(api InvokeModelAPI, modelID string, dimensions int) (*BedrockEmbedder, error) {
	if api == nil {
		return nil, errors.New("bedrock runtime client cannot be nil")
	}
	if strings.TrimSpace(modelID) == "" {
		return nil, errors.New("bedrock embedding model id is required")
	}
	if dimensions <= 0 {
		return nil, fmt.Errorf("dimensions must be positive")
	}
	return &BedrockEmbedder{api: api, modelID: modelID, dimensions: dimensions}, nil
}

// Embed returns the unit-length embedding for text.
func (b *BedrockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	req := map[string]any{"inputText": text}
	if strings.Contains(b.modelID, "titan-embed-text-v2") {
		req["dimensions"] = b.dimensions
		req["normalize"] = true
	}
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("embedding request marshal: %w", err)
	}

	out, err := b.api.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(b.modelID),
		ContentType: aws.String("application/json"),
		Accept:      aws.String("application/json"),
		Body:        payload,
	})
	if err != nil {
		return nil, fmt.Errorf("bedrock invoke %s: %w", b.modelID, err)
	}

	var decoded struct {
		Embedding []float64 `json:"embedding"`
	}
	if err := json.Unmarshal(out.Body, &decoded); err != nil {
		return nil, fmt.Errorf("embedding response parse: %w", err)
	}
	if len(decoded.Embedding) != b.dimensions {
		return nil, fmt.Errorf("embedding dimension mismatch: got %d, expected %d", len(decoded.Embedding), b.dimensions)
	}

	vec := make([]float32, len(decoded.Embedding))
	for i, f := range decoded.Embedding {
		vec[i] = float32(f)
	}
	utils.NormalizeL2(vec)
	return vec, nil
}

// EmbedBatch calls Embed for each text; the Titan API takes one input per request.
func (b *BedrockEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	return embedEach(ctx, texts, b.Embed)
}

// Dimensions returns the embedding dimension.
func (b *BedrockEmbedder) Dimensions() int {
	return b.dimensions
}

// Close is a no-op; the SDK client holds no resources needing release.
func (b *BedrockEmbedder) Close() error {
	return nil
}
