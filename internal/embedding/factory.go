package embedding

import (
	"context"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"

	"github.com/hyperjump/carelens/internal/config"
)

// New builds the embedder selected by cfg.Provider. Remote embedders are wrapped in an
// LRU cache; the ONNX embedder carries its own.
func New(ctx context.Context, cfg *config.EmbeddingConfig) (Embedder, error) {
	switch cfg.Provider {
	case "onnx":
		e, err := NewONNXEmbedder(cfg.ModelPath, cfg.Dimensions, cfg.MaxTokens, cfg.CacheSize)
		if err != nil {
			return nil, err
		}
		return e, nil
	case "bedrock":
		opts := []func(*awsconfig.LoadOptions) error{}
		if cfg.Region != "" {
			opts = append(opts, awsconfig.WithRegion(cfg.Region))
		}
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
		if err != nil {
			return nil, fmt.Errorf("load aws config: %w", err)
		}
		e, err := NewBedrockEmbedder(bedrockruntime.NewFromConfig(awsCfg), cfg.BedrockModelID, cfg.Dimensions)
		if err != nil {
			return nil, err
		}
		return NewCachedEmbedder(e, cfg.CacheSize), nil
	case "hash":
		return NewCachedEmbedder(NewHashEmbedder(cfg.Dimensions), cfg.CacheSize), nil
	default:
		return nil, fmt.Errorf("unknown embedding provider: %s (supported: onnx, bedrock, hash)", cfg.Provider)
	}
}
