package models

import "github.com/hyperjump/carelens/pkg/utils"

// Category is a risk level. LOW, MEDIUM and HIGH come from Categorize; UNKNOWN and
// ERROR only appear on degraded model assessments.
type Category string

const (
	CategoryLow     Category = "LOW"
	CategoryMedium  Category = "MEDIUM"
	CategoryHigh    Category = "HIGH"
	CategoryUnknown Category = "UNKNOWN"
	CategoryError   Category = "ERROR"
)

const (
	highThreshold   = 0.7
	mediumThreshold = 0.4
)

// Categorize maps a score to its category: >=0.7 HIGH, >=0.4 MEDIUM, else LOW.
func Categorize(score float64) Category {
	switch {
	case score >= highThreshold:
		return CategoryHigh
	case score >= mediumThreshold:
		return CategoryMedium
	default:
		return CategoryLow
	}
}

// ParseCategory normalizes a model-supplied category. ok is false for anything
// other than LOW, MEDIUM or HIGH.
func ParseCategory(s string) (Category, bool) {
	switch c := Category(utils.NormalizeUpper(s)); c {
	case CategoryLow, CategoryMedium, CategoryHigh:
		return c, true
	default:
		return "", false
	}
}

// RiskDomain is one of the two independently scored risk types.
type RiskDomain string

const (
	DomainHIV          RiskDomain = "hiv"
	DomainMentalHealth RiskDomain = "mental_health"
)

// Label is the human-readable domain name used in prompts.
func (d RiskDomain) Label() string {
	switch d {
	case DomainHIV:
		return "HIV"
	case DomainMentalHealth:
		return "Mental Health"
	default:
		return string(d)
	}
}

// Domains lists the scored domains in report order.
func Domains() []RiskDomain {
	return []RiskDomain{DomainHIV, DomainMentalHealth}
}

// RuleScoreResult is the keyword scorer's output. Score is clamped to [0,1] and
// rounded to three places; Category is always Categorize(Score).
type RuleScoreResult struct {
	Score          float64  `json:"score"`
	Category       Category `json:"category"`
	HighMatches    []string `json:"high_risk_matches"`
	MediumMatches  []string `json:"medium_risk_matches"`
	LowMatches     []string `json:"low_risk_matches"`
	SymptomMatches []string `json:"symptom_matches"`
}

// NewRuleScoreResult builds a result whose category is consistent with its score.
func NewRuleScoreResult(score float64, high, medium, low, symptoms []string) RuleScoreResult {
	s := utils.Round(utils.Clamp01(score), 3)
	return RuleScoreResult{
		Score:          s,
		Category:       Categorize(s),
		HighMatches:    nonNil(high),
		MediumMatches:  nonNil(medium),
		LowMatches:     nonNil(low),
		SymptomMatches: nonNil(symptoms),
	}
}

// AssessmentStatus tags a model assessment or recommendation as success or failure.
type AssessmentStatus string

const (
	StatusOK           AssessmentStatus = "ok"
	StatusError        AssessmentStatus = "error"
	StatusUnconfigured AssessmentStatus = "unconfigured"
)

// Reason codes carried by degraded payloads.
const (
	ReasonUnconfigured      = "unconfigured"
	ReasonCapabilityError   = "capability_error"
	ReasonMalformedResponse = "malformed_response"
	ReasonInvalidScore      = "invalid_score"
	ReasonRetrievalError    = "retrieval_error"
)

// ModelRiskAssessment is the risk model judge's output. Degraded variants keep
// the same shape: zero score, empty factor lists, Reasoning describing the failure.
type ModelRiskAssessment struct {
	Status            AssessmentStatus `json:"status"`
	Reason            string           `json:"reason,omitempty"`
	Score             float64          `json:"score"`
	Category          Category         `json:"category"`
	Reasoning         string           `json:"reasoning"`
	RiskFactors       []string         `json:"risk_factors"`
	ProtectiveFactors []string         `json:"protective_factors"`
	Urgent            bool             `json:"urgent_flags"`
}

// NewModelRiskAssessment builds a successful assessment. The score is clamped to
// [0,1]; a category outside LOW/MEDIUM/HIGH is replaced by Categorize(score).
func NewModelRiskAssessment(score float64, category, reasoning string, risk, protective []string, urgent bool) ModelRiskAssessment {
	s := utils.Clamp01(score)
	cat, ok := ParseCategory(category)
	if !ok {
		cat = Categorize(s)
	}
	return ModelRiskAssessment{
		Status:            StatusOK,
		Score:             s,
		Category:          cat,
		Reasoning:         reasoning,
		RiskFactors:       nonNil(risk),
		ProtectiveFactors: nonNil(protective),
		Urgent:            urgent,
	}
}

// UnconfiguredAssessment is returned when no generative model is configured.
func UnconfiguredAssessment() ModelRiskAssessment {
	return ModelRiskAssessment{
		Status:            StatusUnconfigured,
		Reason:            ReasonUnconfigured,
		Category:          CategoryUnknown,
		Reasoning:         "API key not configured",
		RiskFactors:       []string{},
		ProtectiveFactors: []string{},
	}
}

// FailedAssessment is returned when the judge call or its parsing failed.
func FailedAssessment(reason string, err error) ModelRiskAssessment {
	return ModelRiskAssessment{
		Status:            StatusError,
		Reason:            reason,
		Category:          CategoryError,
		Reasoning:         "Analysis error: " + errString(err),
		RiskFactors:       []string{},
		ProtectiveFactors: []string{},
	}
}

// Degraded reports whether the assessment carries no model judgment.
func (a ModelRiskAssessment) Degraded() bool {
	return a.Status != StatusOK
}

// FusedRiskAssessment is the final per-domain result.
type FusedRiskAssessment struct {
	Domain        RiskDomain          `json:"domain"`
	FinalScore    float64             `json:"final_score"`
	FinalCategory Category            `json:"final_category"`
	Rule          RuleScoreResult     `json:"rule_based"`
	Model         ModelRiskAssessment `json:"llm_based"`
	// RequiresReview is set when the model component is degraded, so the blended
	// score reflects the rule score alone.
	RequiresReview bool `json:"requires_review"`
}

// Recommendation is the generator's three-part care recommendation.
type Recommendation struct {
	Status            AssessmentStatus `json:"status"`
	Reason            string           `json:"reason,omitempty"`
	HIVRecommendation string           `json:"hiv_recommendation"`
	MHRecommendation  string           `json:"mh_recommendation"`
	IntegratedPlan    string           `json:"integrated_plan"`
}

// UnconfiguredRecommendation is returned when no generative model is configured.
func UnconfiguredRecommendation() Recommendation {
	const msg = "API not configured"
	return Recommendation{
		Status:            StatusUnconfigured,
		Reason:            ReasonUnconfigured,
		HIVRecommendation: msg,
		MHRecommendation:  msg,
		IntegratedPlan:    msg,
	}
}

// FailedRecommendation states the failure in every field.
func FailedRecommendation(reason string, err error) Recommendation {
	cause := errString(err)
	return Recommendation{
		Status:            StatusError,
		Reason:            reason,
		HIVRecommendation: "Error generating recommendation: " + cause,
		MHRecommendation:  "Error generating recommendation: " + cause,
		IntegratedPlan:    "Error generating plan: " + cause,
	}
}

func errString(err error) string {
	if err == nil {
		return "unknown error"
	}
	return err.Error()
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
