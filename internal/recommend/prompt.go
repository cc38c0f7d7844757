package recommend

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/hyperjump/carelens/internal/models"
	"github.com/hyperjump/carelens/pkg/utils"
)

const conversationContextLen = 800

const promptTemplate = `You are a South African healthcare professional providing evidence-based recommendations according to NDOH guidelines.

RISK ASSESSMENT SUMMARY:
- HIV Risk: %s (Score: %s)
- Mental Health Risk: %s (Score: %s)

HIV RISK FACTORS:
%s

MENTAL HEALTH CONCERNS:
%s

RELEVANT NDOH GUIDELINES - HIV:
%s

RELEVANT NDOH GUIDELINES - MENTAL HEALTH:
%s

CONVERSATION CONTEXT:
%s

Provide:
1. HIV RECOMMENDATION: Specific evidence-based actions (testing, PrEP, counseling) per SA guidelines
2. MENTAL HEALTH RECOMMENDATION: Appropriate interventions and referrals per SA guidelines
3. INTEGRATED TREATMENT PLAN: Holistic 3-step action plan addressing both concerns

Format as JSON:
{
  "hiv_recommendation": "...",
  "mh_recommendation": "...",
  "integrated_plan": "..."
}`

// HIVQuery is the retrieval query for the HIV guideline excerpts.
func HIVQuery(category models.Category) string {
	return fmt.Sprintf("HIV risk %s testing PrEP treatment", category)
}

// MentalHealthQuery is the retrieval query for the mental health guideline excerpts.
func MentalHealthQuery(category models.Category) string {
	return fmt.Sprintf("mental health %s counseling treatment", category)
}

// BuildPrompt renders the recommendation prompt.
func BuildPrompt(hiv, mh models.FusedRiskAssessment, hivContext, mhContext []models.RetrievedChunk, conversation string) string {
	return fmt.Sprintf(promptTemplate,
		hiv.FinalCategory, formatScore(hiv.FinalScore),
		mh.FinalCategory, formatScore(mh.FinalScore),
		riskFactors(hiv.Model.RiskFactors),
		riskFactors(mh.Model.RiskFactors),
		joinChunks(hivContext),
		joinChunks(mhContext),
		utils.Excerpt(conversation, conversationContextLen),
	)
}

func formatScore(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func riskFactors(factors []string) string {
	if len(factors) == 0 {
		return "None identified"
	}
	return strings.Join(factors, ", ")
}

func joinChunks(chunks []models.RetrievedChunk) string {
	parts := make([]string, 0, len(chunks))
	for _, c := range chunks {
		parts = append(parts, c.Content)
	}
	return strings.Join(parts, "\n")
}
