// Package fusion blends the rule score and the model score into the final
// per-domain assessment.
package fusion

import (
	"github.com/hyperjump/carelens/internal/models"
	"github.com/hyperjump/carelens/pkg/utils"
)

const (
	RuleWeight  = 0.4
	ModelWeight = 0.6
)

// Fuse computes round(0.4*rule + 0.6*model, 3) and its category. A degraded
// model assessment contributes 0 and marks the result for review.
func Fuse(domain models.RiskDomain, rule models.RuleScoreResult, model models.ModelRiskAssessment) models.FusedRiskAssessment {
	modelScore := model.Score
	if model.Degraded() {
		modelScore = 0
	}
	final := utils.Round(utils.Clamp01(RuleWeight*rule.Score+ModelWeight*modelScore), 3)
	return models.FusedRiskAssessment{
		Domain:         domain,
		FinalScore:     final,
		FinalCategory:  models.Categorize(final),
		Rule:           rule,
		Model:          model,
		RequiresReview: model.Degraded(),
	}
}
