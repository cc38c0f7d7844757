package models

import "time"

// ConversationSummary is the short description of a conversation kept in a record.
type ConversationSummary struct {
	MessageCount int    `json:"message_count"`
	TextPreview  string `json:"text_preview"`
}

// AnalysisRecord is the full result for one conversation.
type AnalysisRecord struct {
	RunID          string              `json:"run_id"`
	ConversationID string              `json:"conversation_id"`
	Conversation   ConversationSummary `json:"conversation"`
	HIV            FusedRiskAssessment `json:"hiv_risk"`
	MentalHealth   FusedRiskAssessment `json:"mental_health_risk"`
	Recommendation Recommendation      `json:"recommendations"`
	AnalyzedAt     time.Time           `json:"analyzed_at"`
	DurationMS     int64               `json:"duration_ms"`
}

// SummaryRow is one line of the tabular batch summary.
type SummaryRow struct {
	ConversationID string   `json:"conversation_id"`
	MessageCount   int      `json:"message_count"`
	HIVScore       float64  `json:"hiv_score"`
	HIVCategory    Category `json:"hiv_category"`
	MHScore        float64  `json:"mh_score"`
	MHCategory     Category `json:"mh_category"`
	HIVRuleScore   float64  `json:"hiv_rule_score"`
	HIVModelScore  float64  `json:"hiv_llm_score"`
	MHRuleScore    float64  `json:"mh_rule_score"`
	MHModelScore   float64  `json:"mh_llm_score"`
	RequiresReview bool     `json:"requires_review"`
}

// Summarize flattens a record into a summary row.
func (r *AnalysisRecord) Summarize() SummaryRow {
	return SummaryRow{
		ConversationID: r.ConversationID,
		MessageCount:   r.Conversation.MessageCount,
		HIVScore:       r.HIV.FinalScore,
		HIVCategory:    r.HIV.FinalCategory,
		MHScore:        r.MentalHealth.FinalScore,
		MHCategory:     r.MentalHealth.FinalCategory,
		HIVRuleScore:   r.HIV.Rule.Score,
		HIVModelScore:  r.HIV.Model.Score,
		MHRuleScore:    r.MentalHealth.Rule.Score,
		MHModelScore:   r.MentalHealth.Model.Score,
		RequiresReview: r.HIV.RequiresReview || r.MentalHealth.RequiresReview,
	}
}

// AnalyzeRequest is the HTTP request body for a single analysis.
// Either Text or Messages must be set.
type AnalyzeRequest struct {
	ID       string    `json:"id,omitempty"`
	Text     string    `json:"text,omitempty"`
	Messages []Message `json:"messages,omitempty"`
}

// RetrieveRequest asks for the top-K guideline excerpts for Query.
type RetrieveRequest struct {
	Query string `json:"query"`
	K     int    `json:"k,omitempty"`
}
