// Package recommend turns the fused risk assessments and retrieved guideline
// excerpts into a three-part care recommendation.
package recommend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/hyperjump/carelens/internal/llm"
	"github.com/hyperjump/carelens/internal/metrics"
	"github.com/hyperjump/carelens/internal/models"
	"github.com/hyperjump/carelens/internal/retrieval"
)

const (
	temperature = 0.5
	maxTokens   = 1500
	contextK    = 3
)

var errEmptyRecommendation = errors.New("response contained no recommendation fields")

type recommendationSchema struct {
	HIVRecommendation string `json:"hiv_recommendation"`
	MHRecommendation  string `json:"mh_recommendation"`
	IntegratedPlan    string `json:"integrated_plan"`
}

// rawRecommendation keeps each field raw; models sometimes answer with lists.
type rawRecommendation struct {
	HIVRecommendation json.RawMessage `json:"hiv_recommendation"`
	MHRecommendation  json.RawMessage `json:"mh_recommendation"`
	IntegratedPlan    json.RawMessage `json:"integrated_plan"`
}

// Generator produces recommendations grounded in retrieved guideline excerpts.
type Generator struct {
	completer  llm.Completer
	searcher   retrieval.Searcher
	structured bool
	logger     *zap.Logger
	metrics    *metrics.PipelineMetrics
}

// Option configures a Generator.
type Option func(*Generator)

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(g *Generator) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// WithMetrics records recommendation and retrieval outcomes.
func WithMetrics(m *metrics.PipelineMetrics) Option {
	return func(g *Generator) { g.metrics = m }
}

// WithStructuredOutput sends a JSON schema with each request.
func WithStructuredOutput(enabled bool) Option {
	return func(g *Generator) { g.structured = enabled }
}

// New creates a generator. A nil completer yields the unconfigured recommendation
// without touching the searcher.
func New(completer llm.Completer, searcher retrieval.Searcher, opts ...Option) *Generator {
	g := &Generator{completer: completer, searcher: searcher, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Recommend never returns an error; failures are reported inside the recommendation.
func (g *Generator) Recommend(ctx context.Context, hiv, mh models.FusedRiskAssessment, conversation string) models.Recommendation {
	rec := g.recommend(ctx, hiv, mh, conversation)
	g.metrics.ObserveRecommendation(string(rec.Status))
	if rec.Status == models.StatusError {
		g.logger.Warn("Recommendation degraded", zap.String("reason", rec.Reason), zap.String("detail", rec.IntegratedPlan))
	}
	return rec
}

func (g *Generator) recommend(ctx context.Context, hiv, mh models.FusedRiskAssessment, conversation string) models.Recommendation {
	if g.completer == nil {
		return models.UnconfiguredRecommendation()
	}
	if g.searcher == nil {
		return models.FailedRecommendation(models.ReasonRetrievalError, errors.New("no guideline retriever"))
	}

	hivContext, mhContext, err := g.retrieveContext(ctx, hiv.FinalCategory, mh.FinalCategory)
	if err != nil {
		return models.FailedRecommendation(models.ReasonRetrievalError, err)
	}

	req := llm.Request{
		Prompt:      BuildPrompt(hiv, mh, hivContext, mhContext, conversation),
		Temperature: temperature,
		MaxTokens:   maxTokens,
	}
	if g.structured {
		req.Schema = llm.GenerateSchema[recommendationSchema]()
		req.SchemaName = "care_recommendation"
	}

	out, err := g.completer.Complete(ctx, req)
	if err != nil {
		return models.FailedRecommendation(models.ReasonCapabilityError, err)
	}

	var raw rawRecommendation
	if err := llm.DecodeJSON(out, &raw); err != nil {
		return models.FailedRecommendation(models.ReasonMalformedResponse, fmt.Errorf("invalid JSON response: %w", err))
	}
	rec := models.Recommendation{
		Status:            models.StatusOK,
		HIVRecommendation: fieldText(raw.HIVRecommendation),
		MHRecommendation:  fieldText(raw.MHRecommendation),
		IntegratedPlan:    fieldText(raw.IntegratedPlan),
	}
	if rec.HIVRecommendation == "" && rec.MHRecommendation == "" && rec.IntegratedPlan == "" {
		return models.FailedRecommendation(models.ReasonMalformedResponse, errEmptyRecommendation)
	}
	return rec
}

// retrieveContext runs the HIV and mental health queries concurrently.
func (g *Generator) retrieveContext(ctx context.Context, hivCat, mhCat models.Category) (hivContext, mhContext []models.RetrievedChunk, err error) {
	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		var err error
		hivContext, err = g.searcher.Retrieve(egCtx, HIVQuery(hivCat), contextK)
		g.metrics.ObserveRetrieval(err)
		if err != nil {
			return fmt.Errorf("retrieve HIV guidelines: %w", err)
		}
		return nil
	})
	eg.Go(func() error {
		var err error
		mhContext, err = g.searcher.Retrieve(egCtx, MentalHealthQuery(mhCat), contextK)
		g.metrics.ObserveRetrieval(err)
		if err != nil {
			return fmt.Errorf("retrieve mental health guidelines: %w", err)
		}
		return nil
	})
	if err := eg.Wait(); err != nil {
		return nil, nil, err
	}
	return hivContext, mhContext, nil
}

// fieldText renders a response field: strings as-is, string lists one per line,
// anything else as its JSON text.
func fieldText(raw json.RawMessage) string {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return ""
	}
	var s string
	if json.Unmarshal(raw, &s) == nil {
		return strings.TrimSpace(s)
	}
	var list []string
	if json.Unmarshal(raw, &list) == nil {
		return strings.Join(list, "\n")
	}
	return trimmed
}
