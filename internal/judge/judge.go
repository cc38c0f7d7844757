// Package judge asks a generative model for a structured per-domain risk
// assessment of a conversation. Assess never fails: every problem becomes a
// degraded assessment carrying a reason code.
package judge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/hyperjump/carelens/internal/llm"
	"github.com/hyperjump/carelens/internal/metrics"
	"github.com/hyperjump/carelens/internal/models"
)

const (
	temperature = 0.3
	maxTokens   = 1000
)

var errInvalidScore = errors.New("score is not a number")

// assessmentSchema describes the expected response for structured output.
type assessmentSchema struct {
	Score             float64  `json:"score" jsonschema:"minimum=0,maximum=1"`
	Category          string   `json:"category" jsonschema:"enum=LOW,enum=MEDIUM,enum=HIGH"`
	Reasoning         string   `json:"reasoning"`
	RiskFactors       []string `json:"risk_factors"`
	ProtectiveFactors []string `json:"protective_factors"`
	UrgentFlags       bool     `json:"urgent_flags"`
}

// rawAssessment is the lenient decode target; score may arrive as a number or a numeric string.
type rawAssessment struct {
	Score             json.RawMessage `json:"score"`
	Category          string          `json:"category"`
	Reasoning         string          `json:"reasoning"`
	RiskFactors       []string        `json:"risk_factors"`
	ProtectiveFactors []string        `json:"protective_factors"`
	UrgentFlags       bool            `json:"urgent_flags"`
}

// Judge scores a conversation for one risk domain with a generative model.
type Judge struct {
	completer  llm.Completer
	structured bool
	logger     *zap.Logger
	metrics    *metrics.PipelineMetrics
}

// Option configures a Judge.
type Option func(*Judge)

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(j *Judge) {
		if logger != nil {
			j.logger = logger
		}
	}
}

// WithMetrics records assessment outcomes.
func WithMetrics(m *metrics.PipelineMetrics) Option {
	return func(j *Judge) { j.metrics = m }
}

// WithStructuredOutput sends a JSON schema with each request.
func WithStructuredOutput(enabled bool) Option {
	return func(j *Judge) { j.structured = enabled }
}

// New creates a judge. A nil completer yields a judge that always reports
// the unconfigured assessment.
func New(completer llm.Completer, opts ...Option) *Judge {
	j := &Judge{completer: completer, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(j)
	}
	return j
}

// Configured reports whether a generative model is available.
func (j *Judge) Configured() bool {
	return j.completer != nil
}

// Assess returns the model's risk assessment of text for domain.
func (j *Judge) Assess(ctx context.Context, text string, domain models.RiskDomain) models.ModelRiskAssessment {
	result := j.assess(ctx, text, domain)
	j.metrics.ObserveJudge(string(domain), string(result.Status))
	if result.Status == models.StatusError {
		j.logger.Warn("Risk assessment degraded",
			zap.String("domain", string(domain)),
			zap.String("reason", result.Reason),
			zap.String("detail", result.Reasoning))
	}
	return result
}

func (j *Judge) assess(ctx context.Context, text string, domain models.RiskDomain) models.ModelRiskAssessment {
	if !j.Configured() {
		return models.UnconfiguredAssessment()
	}

	req := llm.Request{
		Prompt:      BuildPrompt(text, domain),
		Temperature: temperature,
		MaxTokens:   maxTokens,
	}
	if j.structured {
		req.Schema = llm.GenerateSchema[assessmentSchema]()
		req.SchemaName = "risk_assessment"
	}

	out, err := j.completer.Complete(ctx, req)
	if err != nil {
		return models.FailedAssessment(models.ReasonCapabilityError, err)
	}

	var raw rawAssessment
	if err := llm.DecodeJSON(out, &raw); err != nil {
		return models.FailedAssessment(models.ReasonMalformedResponse, fmt.Errorf("invalid JSON response: %w", err))
	}
	score, err := parseScore(raw.Score)
	if err != nil {
		return models.FailedAssessment(models.ReasonInvalidScore, err)
	}

	j.logger.Debug("Risk assessment complete",
		zap.String("domain", string(domain)),
		zap.Float64("score", score),
		zap.String("category", raw.Category))

	return models.NewModelRiskAssessment(score, raw.Category, raw.Reasoning,
		raw.RiskFactors, raw.ProtectiveFactors, raw.UrgentFlags)
}

// parseScore accepts a JSON number or a numeric string. A missing or null score is 0.
func parseScore(raw json.RawMessage) (float64, error) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return 0, nil
	}

	var v float64
	if err := json.Unmarshal(raw, &v); err != nil {
		var s string
		if json.Unmarshal(raw, &s) != nil {
			return 0, fmt.Errorf("%w: %s", errInvalidScore, trimmed)
		}
		v, err = strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q", errInvalidScore, s)
		}
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%w: %s", errInvalidScore, trimmed)
	}
	return v, nil
}
