package analyzer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperjump/carelens/internal/judge"
	"github.com/hyperjump/carelens/internal/llm"
	"github.com/hyperjump/carelens/internal/models"
	"github.com/hyperjump/carelens/internal/recommend"
)

const exampleText = "I had unprotected sex with multiple partners, worried about symptoms"

// scriptedCompleter answers judge and recommendation prompts with fixed JSON.
type scriptedCompleter struct {
	mu    sync.Mutex
	calls int
	delay time.Duration
}

func (s *scriptedCompleter) Complete(ctx context.Context, req llm.Request) (string, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	switch {
	case strings.Contains(req.Prompt, "HIV RISK ASSESSMENT"):
		return `{"score": 0.85, "category": "HIGH", "reasoning": "exposure", "risk_factors": ["unprotected sex"], "protective_factors": [], "urgent_flags": true}`, nil
	case strings.Contains(req.Prompt, "Mental Health RISK ASSESSMENT"):
		return `{"score": 0.3, "category": "LOW", "reasoning": "mild worry", "risk_factors": [], "protective_factors": ["seeking help"], "urgent_flags": false}`, nil
	default:
		return `{"hiv_recommendation": "Test and start PEP.", "mh_recommendation": "Offer counseling.", "integrated_plan": "1. Test 2. PEP 3. Follow up"}`, nil
	}
}

func (s *scriptedCompleter) Provider() string { return "scripted" }

// failingCompleter fails every prompt containing failOn and answers the rest like
// scriptedCompleter.
type failingCompleter struct {
	scriptedCompleter
	failOn string
}

func (f *failingCompleter) Complete(ctx context.Context, req llm.Request) (string, error) {
	if strings.Contains(req.Prompt, f.failOn) {
		return "", errors.New("upstream unavailable")
	}
	return f.scriptedCompleter.Complete(ctx, req)
}

// cancellingCompleter cancels the batch context on its nth call.
type cancellingCompleter struct {
	scriptedCompleter
	cancelAt int
	cancel   context.CancelFunc
}

func (c *cancellingCompleter) Complete(ctx context.Context, req llm.Request) (string, error) {
	c.mu.Lock()
	n := c.calls + 1
	c.mu.Unlock()
	if n >= c.cancelAt {
		c.cancel()
		c.mu.Lock()
		c.calls++
		c.mu.Unlock()
		return "", context.Canceled
	}
	return c.scriptedCompleter.Complete(ctx, req)
}

type staticSearcher struct{}

func (staticSearcher) Retrieve(_ context.Context, query string, _ int) ([]models.RetrievedChunk, error) {
	return []models.RetrievedChunk{{Content: "guideline for " + query}}, nil
}

func newAnalyzer(c llm.Completer, opts ...Option) *Analyzer {
	return New(judge.New(c), recommend.New(c, staticSearcher{}), opts...)
}

func conversation(id, text string) *models.Conversation {
	return models.NewConversation(id, []models.Message{{Role: models.RoleUser, Text: text}})
}

func TestAnalyzeConfigured(t *testing.T) {
	a := newAnalyzer(&scriptedCompleter{})
	rec := a.Analyze(context.Background(), conversation("conv-001", exampleText))

	assert.NotEmpty(t, rec.RunID)
	assert.Equal(t, "conv-001", rec.ConversationID)
	assert.Equal(t, 1, rec.Conversation.MessageCount)
	assert.Equal(t, exampleText+"...", rec.Conversation.TextPreview)

	assert.Equal(t, 0.9, rec.HIV.Rule.Score)
	assert.Equal(t, 0.85, rec.HIV.Model.Score)
	assert.Equal(t, 0.87, rec.HIV.FinalScore)
	assert.Equal(t, models.CategoryHigh, rec.HIV.FinalCategory)
	assert.False(t, rec.HIV.RequiresReview)

	assert.Equal(t, 0.45, rec.MentalHealth.Rule.Score)
	assert.Equal(t, 0.36, rec.MentalHealth.FinalScore)
	assert.Equal(t, models.CategoryLow, rec.MentalHealth.FinalCategory)

	assert.Equal(t, models.StatusOK, rec.Recommendation.Status)
	assert.Equal(t, "Test and start PEP.", rec.Recommendation.HIVRecommendation)
}

func TestAnalyzeUnconfigured(t *testing.T) {
	a := newAnalyzer(nil)
	rec := a.Analyze(context.Background(), conversation("conv-001", exampleText))

	assert.Equal(t, models.CategoryHigh, rec.HIV.Rule.Category)
	assert.Equal(t, models.StatusUnconfigured, rec.HIV.Model.Status)
	assert.Equal(t, 0.36, rec.HIV.FinalScore)
	assert.True(t, rec.HIV.RequiresReview)
	assert.Equal(t, models.StatusUnconfigured, rec.Recommendation.Status)

	row := rec.Summarize()
	assert.True(t, row.RequiresReview)
	assert.Equal(t, 0.9, row.HIVRuleScore)
	assert.Equal(t, 0.0, row.HIVModelScore)
}

func TestAnalyzeEmptyConversation(t *testing.T) {
	rec := newAnalyzer(nil).Analyze(context.Background(), &models.Conversation{ID: "empty"})
	for _, fused := range []models.FusedRiskAssessment{rec.HIV, rec.MentalHealth} {
		assert.Equal(t, 0.0, fused.Rule.Score)
		assert.Equal(t, models.CategoryLow, fused.Rule.Category)
		assert.Empty(t, fused.Rule.HighMatches)
		assert.Empty(t, fused.Rule.MediumMatches)
		assert.Empty(t, fused.Rule.LowMatches)
		assert.Empty(t, fused.Rule.SymptomMatches)
		assert.Equal(t, models.CategoryLow, fused.FinalCategory)
	}
	assert.Equal(t, "...", rec.Conversation.TextPreview)
}

func TestAnalyzeTimeoutDegrades(t *testing.T) {
	a := newAnalyzer(&scriptedCompleter{delay: time.Second}, WithTimeout(20*time.Millisecond))
	rec := a.Analyze(context.Background(), conversation("slow", exampleText))

	assert.Equal(t, models.StatusError, rec.HIV.Model.Status)
	assert.Equal(t, models.ReasonCapabilityError, rec.HIV.Model.Reason)
	assert.True(t, rec.HIV.RequiresReview)
	assert.Equal(t, models.StatusError, rec.Recommendation.Status)
}

func TestAnalyzeBatchKeepsOrder(t *testing.T) {
	completer := &scriptedCompleter{}
	a := newAnalyzer(completer, WithWorkers(3))

	var convs []*models.Conversation
	for i := 1; i <= 10; i++ {
		convs = append(convs, conversation(fmt.Sprintf("conv-%03d", i), exampleText))
	}

	records, err := a.AnalyzeBatch(context.Background(), convs, 0)
	require.NoError(t, err)
	require.Len(t, records, 10)
	runID := records[0].RunID
	for i, r := range records {
		assert.Equal(t, convs[i].ID, r.ConversationID)
		assert.Equal(t, runID, r.RunID)
	}
	assert.Equal(t, 30, completer.calls)

	rows := Summarize(records)
	require.Len(t, rows, 10)
	assert.Equal(t, "conv-010", rows[9].ConversationID)
	assert.Equal(t, models.CategoryHigh, rows[0].HIVCategory)
}

func TestAnalyzeBatchLimit(t *testing.T) {
	a := newAnalyzer(nil)
	convs := []*models.Conversation{
		conversation("a", "hello"),
		conversation("b", "hello"),
		conversation("c", "hello"),
	}
	records, err := a.AnalyzeBatch(context.Background(), convs, 2)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "b", records[1].ConversationID)

	records, err = a.AnalyzeBatch(context.Background(), nil, 0)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestAnalyzeBatchCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := newAnalyzer(nil).AnalyzeBatch(ctx, []*models.Conversation{conversation("a", "x")}, 0)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAnalyzeDomainFailureIsIsolated(t *testing.T) {
	a := newAnalyzer(&failingCompleter{failOn: "HIV RISK ASSESSMENT"})
	rec := a.Analyze(context.Background(), conversation("conv-001", exampleText))

	assert.Equal(t, models.StatusError, rec.HIV.Model.Status)
	assert.Equal(t, models.ReasonCapabilityError, rec.HIV.Model.Reason)
	assert.True(t, rec.HIV.RequiresReview)
	assert.Equal(t, 0.36, rec.HIV.FinalScore)

	assert.Equal(t, models.StatusOK, rec.MentalHealth.Model.Status)
	assert.Equal(t, 0.3, rec.MentalHealth.Model.Score)
	assert.Equal(t, 0.36, rec.MentalHealth.FinalScore)
	assert.False(t, rec.MentalHealth.RequiresReview)

	a = newAnalyzer(&failingCompleter{failOn: "Mental Health RISK ASSESSMENT"})
	rec = a.Analyze(context.Background(), conversation("conv-002", exampleText))
	assert.Equal(t, models.StatusOK, rec.HIV.Model.Status)
	assert.Equal(t, 0.87, rec.HIV.FinalScore)
	assert.Equal(t, models.StatusError, rec.MentalHealth.Model.Status)
	assert.True(t, rec.MentalHealth.RequiresReview)
}

func TestAnalyzeBatchCancelledMidBatchKeepsCompleted(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	// Each conversation makes three calls; the seventh is the first of the third conversation.
	completer := &cancellingCompleter{cancelAt: 7, cancel: cancel}
	a := newAnalyzer(completer, WithWorkers(1))

	var convs []*models.Conversation
	for i := 1; i <= 20; i++ {
		convs = append(convs, conversation(fmt.Sprintf("conv-%03d", i), exampleText))
	}

	records, err := a.AnalyzeBatch(ctx, convs, 0)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Contains(t, err.Error(), "conv-020")

	require.GreaterOrEqual(t, len(records), 2)
	require.Less(t, len(records), 20)
	for i, r := range records {
		assert.Equal(t, convs[i].ID, r.ConversationID, "records keep input order")
	}
	assert.Equal(t, models.StatusOK, records[0].HIV.Model.Status)
	assert.Equal(t, models.StatusOK, records[1].MentalHealth.Model.Status)
	assert.Equal(t, 0.87, records[1].HIV.FinalScore)
}
