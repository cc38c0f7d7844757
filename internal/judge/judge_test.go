package judge

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperjump/carelens/internal/llm"
	"github.com/hyperjump/carelens/internal/models"
)

type stubCompleter struct {
	mu       sync.Mutex
	response string
	err      error
	requests []llm.Request
}

func (s *stubCompleter) Complete(_ context.Context, req llm.Request) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, req)
	return s.response, s.err
}

func (s *stubCompleter) Provider() string { return "stub" }

func TestAssessUnconfigured(t *testing.T) {
	j := New(nil)
	assert.False(t, j.Configured())

	got := j.Assess(context.Background(), "anything", models.DomainHIV)
	assert.Equal(t, models.StatusUnconfigured, got.Status)
	assert.Equal(t, 0.0, got.Score)
	assert.Equal(t, models.CategoryUnknown, got.Category)
	assert.Equal(t, "API key not configured", got.Reasoning)
	assert.Empty(t, got.RiskFactors)
}

func TestAssessSuccess(t *testing.T) {
	stub := &stubCompleter{response: "```json\n" + `{
		"score": 0.82,
		"category": "high",
		"reasoning": "Unprotected sex with a partner of unknown status.",
		"risk_factors": ["unprotected sex", "unknown partner status"],
		"protective_factors": [],
		"urgent_flags": true
	}` + "\n```"}
	j := New(stub)

	got := j.Assess(context.Background(), "I had unprotected sex", models.DomainHIV)
	require.Equal(t, models.StatusOK, got.Status)
	assert.Equal(t, 0.82, got.Score)
	assert.Equal(t, models.CategoryHigh, got.Category)
	assert.Equal(t, []string{"unprotected sex", "unknown partner status"}, got.RiskFactors)
	assert.Equal(t, []string{}, got.ProtectiveFactors)
	assert.True(t, got.Urgent)

	require.Len(t, stub.requests, 1)
	req := stub.requests[0]
	assert.InDelta(t, 0.3, req.Temperature, 1e-6)
	assert.Equal(t, int32(1000), req.MaxTokens)
	assert.Nil(t, req.Schema)
	assert.Contains(t, req.Prompt, "I had unprotected sex")
	assert.Contains(t, req.Prompt, "HIV RISK ASSESSMENT")
	assert.Contains(t, req.Prompt, "partner status")
}

func TestAssessScoreHandling(t *testing.T) {
	tests := []struct {
		name     string
		response string
		score    float64
		category models.Category
	}{
		{"clamped high", `{"score": 1.7, "category": "HIGH"}`, 1.0, models.CategoryHigh},
		{"clamped low", `{"score": -0.2, "category": "LOW"}`, 0.0, models.CategoryLow},
		{"numeric string", `{"score": "0.45", "category": "MEDIUM"}`, 0.45, models.CategoryMedium},
		{"missing score", `{"category": "LOW", "reasoning": "nothing"}`, 0.0, models.CategoryLow},
		{"invalid category rederived", `{"score": 0.75, "category": "SEVERE"}`, 0.75, models.CategoryHigh},
		{"missing category rederived", `{"score": 0.5}`, 0.5, models.CategoryMedium},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			j := New(&stubCompleter{response: tt.response})
			got := j.Assess(context.Background(), "text", models.DomainMentalHealth)
			require.Equal(t, models.StatusOK, got.Status)
			assert.Equal(t, tt.score, got.Score)
			assert.Equal(t, tt.category, got.Category)
		})
	}
}

func TestAssessFailures(t *testing.T) {
	tests := []struct {
		name     string
		stub     *stubCompleter
		reason   string
		contains string
	}{
		{"capability error", &stubCompleter{err: errors.New("connection refused")}, models.ReasonCapabilityError, "connection refused"},
		{"not json", &stubCompleter{response: "I cannot help with that."}, models.ReasonMalformedResponse, "invalid JSON"},
		{"empty", &stubCompleter{response: ""}, models.ReasonMalformedResponse, "invalid JSON"},
		{"null", &stubCompleter{response: "null"}, models.ReasonMalformedResponse, "null"},
		{"non numeric score", &stubCompleter{response: `{"score": "very high"}`}, models.ReasonInvalidScore, "very high"},
		{"object score", &stubCompleter{response: `{"score": {"v": 1}}`}, models.ReasonInvalidScore, "not a number"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := New(tt.stub).Assess(context.Background(), "text", models.DomainHIV)
			assert.Equal(t, models.StatusError, got.Status)
			assert.Equal(t, tt.reason, got.Reason)
			assert.Equal(t, 0.0, got.Score)
			assert.Equal(t, models.CategoryError, got.Category)
			assert.True(t, strings.HasPrefix(got.Reasoning, "Analysis error: "))
			assert.Contains(t, got.Reasoning, tt.contains)
			assert.Empty(t, got.RiskFactors)
			assert.Empty(t, got.ProtectiveFactors)
			assert.False(t, got.Urgent)
		})
	}
}

func TestAssessStructuredOutput(t *testing.T) {
	stub := &stubCompleter{response: `{"score":0.1,"category":"LOW","reasoning":"","risk_factors":[],"protective_factors":["support"],"urgent_flags":false}`}
	got := New(stub, WithStructuredOutput(true)).Assess(context.Background(), "text", models.DomainMentalHealth)
	assert.Equal(t, models.StatusOK, got.Status)

	require.Len(t, stub.requests, 1)
	assert.Equal(t, "risk_assessment", stub.requests[0].SchemaName)
	require.NotNil(t, stub.requests[0].Schema)
	props, ok := stub.requests[0].Schema["properties"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, props, "urgent_flags")
}

func TestBuildPrompt(t *testing.T) {
	p := BuildPrompt("feeling hopeless", models.DomainMentalHealth)
	assert.Contains(t, p, "Mental Health RISK ASSESSMENT")
	assert.Contains(t, p, "self-harm mentions")
	assert.Contains(t, p, "feeling hopeless")
	assert.NotContains(t, p, "partner status")
}
