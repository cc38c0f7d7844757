package judge

import (
	"fmt"

	"github.com/hyperjump/carelens/internal/models"
)

var rubrics = map[models.RiskDomain]string{
	models.DomainHIV:          "sexual behavior, exposure risks, symptoms, partner status, prevention practices",
	models.DomainMentalHealth: "mood indicators, self-harm mentions, functioning, support systems, trauma",
}

const promptTemplate = `You are a clinical risk assessment expert analyzing a conversation between an AI chatbot and a healthcare client.

Analyze the following conversation for %s RISK ASSESSMENT.

Conversation:
%s

Provide a structured risk assessment in JSON format with:
1. "score": A numerical score from 0.0 (no risk) to 1.0 (extreme risk)
2. "category": Classification as "LOW", "MEDIUM", or "HIGH"
3. "reasoning": Brief explanation of the assessment (2-3 sentences)
4. "risk_factors": List of specific concerns identified
5. "protective_factors": List of positive/protective elements identified
6. "urgent_flags": Boolean indicating if immediate intervention needed

Consider for %s: %s

Respond ONLY with valid JSON, no other text.`

// BuildPrompt renders the assessment prompt for one domain.
func BuildPrompt(text string, domain models.RiskDomain) string {
	label := domain.Label()
	return fmt.Sprintf(promptTemplate, label, text, label, rubrics[domain])
}
