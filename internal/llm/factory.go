package llm

import (
	"context"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"

	"github.com/hyperjump/carelens/internal/config"
)

// New builds the configured provider. It returns (nil, nil) when the provider has
// no credentials, which callers treat as "not configured".
func New(ctx context.Context, cfg *config.LLMConfig) (Completer, error) {
	switch cfg.Provider {
	case "openai":
		key := cfg.APIKey()
		if key == "" {
			return nil, nil
		}
		c, err := NewOpenAIClient(key, cfg.Model)
		if err != nil {
			return nil, err
		}
		return c, nil
	case "gemini":
		key := cfg.APIKey()
		if key == "" {
			return nil, nil
		}
		c, err := NewGeminiClient(ctx, key, cfg.Model)
		if err != nil {
			return nil, err
		}
		return c, nil
	case "bedrock":
		if cfg.Model == "" {
			return nil, nil
		}
		var opts []func(*awsconfig.LoadOptions) error
		if cfg.Region != "" {
			opts = append(opts, awsconfig.WithRegion(cfg.Region))
		}
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to load aws config: %w", err)
		}
		c, err := NewBedrockClient(bedrockruntime.NewFromConfig(awsCfg), cfg.Model)
		if err != nil {
			return nil, err
		}
		return c, nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}
