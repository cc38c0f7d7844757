package recommend

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperjump/carelens/internal/embedding"
	"github.com/hyperjump/carelens/internal/indexer"
	"github.com/hyperjump/carelens/internal/llm"
	"github.com/hyperjump/carelens/internal/models"
	"github.com/hyperjump/carelens/internal/retrieval"
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

type stubSearcher struct {
	mu      sync.Mutex
	queries []string
	ks      []int
	err     error
}

func (s *stubSearcher) Retrieve(_ context.Context, query string, k int) ([]models.RetrievedChunk, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queries = append(s.queries, query)
	s.ks = append(s.ks, k)
	if s.err != nil {
		return nil, s.err
	}
	return []models.RetrievedChunk{{ChunkIndex: 0, Content: "excerpt for " + query}}, nil
}

func fused(domain models.RiskDomain, score float64, factors ...string) models.FusedRiskAssessment {
	return models.FusedRiskAssessment{
		Domain:        domain,
		FinalScore:    score,
		FinalCategory: models.Categorize(score),
		Model:         models.NewModelRiskAssessment(score, "", "", factors, nil, false),
	}
}

const validResponse = `{"hiv_recommendation":"Offer same-day HIV testing and PEP.","mh_recommendation":"Refer for counseling.","integrated_plan":"1. Test 2. PEP 3. Follow up"}`

func TestRecommendUnconfigured(t *testing.T) {
	searcher := &stubSearcher{}
	rec := New(nil, searcher).Recommend(context.Background(), fused(models.DomainHIV, 0.8), fused(models.DomainMentalHealth, 0.2), "text")

	assert.Equal(t, models.StatusUnconfigured, rec.Status)
	assert.Equal(t, "API not configured", rec.HIVRecommendation)
	assert.Equal(t, "API not configured", rec.MHRecommendation)
	assert.Equal(t, "API not configured", rec.IntegratedPlan)
	assert.Empty(t, searcher.queries)
}

func TestRecommendSuccess(t *testing.T) {
	completer := &stubCompleter{response: "```json\n" + validResponse + "\n```"}
	searcher := &stubSearcher{}
	g := New(completer, searcher)

	conversation := strings.Repeat("a", 900)
	rec := g.Recommend(context.Background(),
		fused(models.DomainHIV, 0.87, "unprotected sex", "partner status unknown"),
		fused(models.DomainMentalHealth, 0.3),
		conversation)

	require.Equal(t, models.StatusOK, rec.Status)
	assert.Equal(t, "Offer same-day HIV testing and PEP.", rec.HIVRecommendation)
	assert.Equal(t, "Refer for counseling.", rec.MHRecommendation)
	assert.Equal(t, "1. Test 2. PEP 3. Follow up", rec.IntegratedPlan)

	assert.ElementsMatch(t, []string{
		"HIV risk HIGH testing PrEP treatment",
		"mental health LOW counseling treatment",
	}, searcher.queries)
	assert.Equal(t, []int{3, 3}, searcher.ks)

	require.Len(t, completer.requests, 1)
	req := completer.requests[0]
	assert.InDelta(t, 0.5, req.Temperature, 1e-6)
	assert.Equal(t, int32(1500), req.MaxTokens)
	assert.Contains(t, req.Prompt, "HIV Risk: HIGH (Score: 0.87)")
	assert.Contains(t, req.Prompt, "Mental Health Risk: LOW (Score: 0.3)")
	assert.Contains(t, req.Prompt, "unprotected sex, partner status unknown")
	assert.Contains(t, req.Prompt, "MENTAL HEALTH CONCERNS:\nNone identified")
	assert.Contains(t, req.Prompt, "excerpt for HIV risk HIGH testing PrEP treatment")
	assert.Contains(t, req.Prompt, "excerpt for mental health LOW counseling treatment")
	assert.Contains(t, req.Prompt, strings.Repeat("a", 800)+"...")
	assert.NotContains(t, req.Prompt, strings.Repeat("a", 801))
}

func TestRecommendFailures(t *testing.T) {
	tests := []struct {
		name      string
		completer *stubCompleter
		searcher  *stubSearcher
		reason    string
		contains  string
	}{
		{"retrieval error", &stubCompleter{response: validResponse}, &stubSearcher{err: errors.New("index unavailable")}, models.ReasonRetrievalError, "index unavailable"},
		{"capability error", &stubCompleter{err: errors.New("quota exceeded")}, &stubSearcher{}, models.ReasonCapabilityError, "quota exceeded"},
		{"malformed", &stubCompleter{response: "Sure! Here are my thoughts."}, &stubSearcher{}, models.ReasonMalformedResponse, "invalid JSON"},
		{"null", &stubCompleter{response: "null"}, &stubSearcher{}, models.ReasonMalformedResponse, "null"},
		{"no fields", &stubCompleter{response: `{"other": "x"}`}, &stubSearcher{}, models.ReasonMalformedResponse, "no recommendation fields"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := New(tt.completer, tt.searcher).Recommend(context.Background(),
				fused(models.DomainHIV, 0.5), fused(models.DomainMentalHealth, 0.5), "text")
			assert.Equal(t, models.StatusError, rec.Status)
			assert.Equal(t, tt.reason, rec.Reason)
			assert.True(t, strings.HasPrefix(rec.HIVRecommendation, "Error generating recommendation: "))
			assert.True(t, strings.HasPrefix(rec.MHRecommendation, "Error generating recommendation: "))
			assert.True(t, strings.HasPrefix(rec.IntegratedPlan, "Error generating plan: "))
			assert.Contains(t, rec.IntegratedPlan, tt.contains)
		})
	}
}

func TestRecommendListFields(t *testing.T) {
	completer := &stubCompleter{response: `{"hiv_recommendation":"Test today.","mh_recommendation":["Screen with PHQ-9","Refer to counselor"],"integrated_plan":["Step 1","Step 2","Step 3"]}`}
	rec := New(completer, &stubSearcher{}).Recommend(context.Background(),
		fused(models.DomainHIV, 0.5), fused(models.DomainMentalHealth, 0.5), "text")

	require.Equal(t, models.StatusOK, rec.Status)
	assert.Equal(t, "Screen with PHQ-9\nRefer to counselor", rec.MHRecommendation)
	assert.Equal(t, "Step 1\nStep 2\nStep 3", rec.IntegratedPlan)
}

func TestRecommendWithGuidelineRetriever(t *testing.T) {
	emb := embedding.NewHashEmbedder(128)
	chunker, err := indexer.NewChunker(40, 5)
	require.NoError(t, err)
	r := retrieval.New(emb, indexer.NewIndexer(emb, chunker))
	t.Cleanup(func() { _ = r.Close() })

	completer := &stubCompleter{response: validResponse}
	rec := New(completer, r, WithStructuredOutput(true)).Recommend(context.Background(),
		fused(models.DomainHIV, 0.9), fused(models.DomainMentalHealth, 0.6), "I am scared after unprotected sex")

	require.Equal(t, models.StatusOK, rec.Status)
	assert.True(t, r.Status().Fallback)
	require.Len(t, completer.requests, 1)
	assert.Equal(t, "care_recommendation", completer.requests[0].SchemaName)
	assert.Contains(t, completer.requests[0].Prompt, "RELEVANT NDOH GUIDELINES - HIV:")
}
