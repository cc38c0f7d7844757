// Package analyzer runs the full risk pipeline for conversations: rule scoring,
// model judgment, fusion, and the grounded recommendation.
package analyzer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"

	"github.com/hyperjump/carelens/internal/fusion"
	"github.com/hyperjump/carelens/internal/judge"
	"github.com/hyperjump/carelens/internal/metrics"
	"github.com/hyperjump/carelens/internal/models"
	"github.com/hyperjump/carelens/internal/recommend"
	"github.com/hyperjump/carelens/internal/rules"
	"github.com/hyperjump/carelens/pkg/utils"
)

const (
	previewLen     = 200
	defaultWorkers = 4
)

// Analyzer wires the pipeline stages together. It is safe for concurrent use.
type Analyzer struct {
	judge       *judge.Judge
	recommender *recommend.Generator
	workers     int
	timeout     time.Duration
	logger      *zap.Logger
	metrics     *metrics.PipelineMetrics
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(a *Analyzer) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// WithMetrics records per-conversation outcomes.
func WithMetrics(m *metrics.PipelineMetrics) Option {
	return func(a *Analyzer) { a.metrics = m }
}

// WithWorkers bounds how many conversations a batch analyzes at once.
func WithWorkers(n int) Option {
	return func(a *Analyzer) {
		if n > 0 {
			a.workers = n
		}
	}
}

// WithTimeout limits the time spent on each conversation. Zero means no limit.
func WithTimeout(d time.Duration) Option {
	return func(a *Analyzer) { a.timeout = d }
}

// New creates an analyzer.
func New(j *judge.Judge, g *recommend.Generator, opts ...Option) *Analyzer {
	a := &Analyzer{
		judge:       j,
		recommender: g,
		workers:     defaultWorkers,
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Score computes both fused assessments. The two model calls run concurrently.
func (a *Analyzer) Score(ctx context.Context, text string) (hiv, mh models.FusedRiskAssessment) {
	hivRule := rules.ScoreDomain(text, models.DomainHIV)
	mhRule := rules.ScoreDomain(text, models.DomainMentalHealth)

	var hivModel, mhModel models.ModelRiskAssessment
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		hivModel = a.judge.Assess(ctx, text, models.DomainHIV)
	}()
	go func() {
		defer wg.Done()
		mhModel = a.judge.Assess(ctx, text, models.DomainMentalHealth)
	}()
	wg.Wait()

	return fusion.Fuse(models.DomainHIV, hivRule, hivModel),
		fusion.Fuse(models.DomainMentalHealth, mhRule, mhModel)
}

// Analyze runs the whole pipeline for one conversation under a new run ID.
func (a *Analyzer) Analyze(ctx context.Context, conv *models.Conversation) *models.AnalysisRecord {
	return a.analyze(ctx, uuid.NewString(), conv)
}

func (a *Analyzer) analyze(ctx context.Context, runID string, conv *models.Conversation) *models.AnalysisRecord {
	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}
	start := time.Now()

	hiv, mh := a.Score(ctx, conv.FullText)
	rec := a.recommender.Recommend(ctx, hiv, mh, conv.FullText)

	elapsed := time.Since(start)
	a.metrics.ObserveAnalysis(string(hiv.FinalCategory), string(mh.FinalCategory), a.judge.Configured(), elapsed.Seconds())
	a.logger.Info("Conversation analyzed",
		zap.String("conversation", conv.ID),
		zap.Float64("hiv_score", hiv.FinalScore),
		zap.String("hiv_category", string(hiv.FinalCategory)),
		zap.Float64("mh_score", mh.FinalScore),
		zap.String("mh_category", string(mh.FinalCategory)),
		zap.Duration("elapsed", elapsed))

	return &models.AnalysisRecord{
		RunID:          runID,
		ConversationID: conv.ID,
		Conversation: models.ConversationSummary{
			MessageCount: conv.MessageCount,
			TextPreview:  utils.Excerpt(conv.FullText, previewLen),
		},
		HIV:            hiv,
		MentalHealth:   mh,
		Recommendation: rec,
		AnalyzedAt:     start.UTC(),
		DurationMS:     elapsed.Milliseconds(),
	}
}

// AnalyzeBatch analyzes up to limit conversations (all when limit <= 0) on a
// bounded worker pool. Records come back in input order and share one run ID.
// When the context is cancelled or a submit fails, the records that did complete
// are returned with an error naming the conversations that were not analyzed.
func (a *Analyzer) AnalyzeBatch(ctx context.Context, convs []*models.Conversation, limit int) ([]*models.AnalysisRecord, error) {
	if limit > 0 && limit < len(convs) {
		convs = convs[:limit]
	}
	if len(convs) == 0 {
		return []*models.AnalysisRecord{}, nil
	}

	pool, err := ants.NewPool(a.workers, ants.WithPanicHandler(func(p interface{}) {
		a.logger.Error("Analysis worker panic recovered", zap.Any("panic", p))
	}))
	if err != nil {
		return nil, fmt.Errorf("failed to create worker pool: %w", err)
	}
	defer pool.Release()

	runID := uuid.NewString()
	a.logger.Info("Starting batch analysis",
		zap.String("run_id", runID),
		zap.Int("conversations", len(convs)),
		zap.Int("workers", a.workers))

	records := make([]*models.AnalysisRecord, len(convs))
	var wg sync.WaitGroup
	var submitErr error
	for i, conv := range convs {
		if err := ctx.Err(); err != nil {
			submitErr = err
			break
		}
		wg.Add(1)
		if err := pool.Submit(func() {
			defer wg.Done()
			records[i] = a.analyze(ctx, runID, conv)
		}); err != nil {
			wg.Done()
			submitErr = fmt.Errorf("failed to submit %s: %w", conv.ID, err)
			break
		}
	}
	wg.Wait()

	done := make([]*models.AnalysisRecord, 0, len(records))
	var missing []string
	for i, r := range records {
		if r == nil {
			missing = append(missing, convs[i].ID)
			continue
		}
		done = append(done, r)
	}
	var errs []error
	if submitErr != nil {
		errs = append(errs, submitErr)
	}
	if len(missing) > 0 {
		errs = append(errs, fmt.Errorf("%d of %d conversations not analyzed: %s",
			len(missing), len(convs), strings.Join(missing, ", ")))
	}
	return done, errors.Join(errs...)
}

// Summarize flattens records into summary rows, in order.
func Summarize(records []*models.AnalysisRecord) []models.SummaryRow {
	rows := make([]models.SummaryRow, 0, len(records))
	for _, r := range records {
		rows = append(rows, r.Summarize())
	}
	return rows
}
