// Package cli renders analysis results for the command line.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/gosuri/uitable"

	"github.com/hyperjump/carelens/internal/models"
	"github.com/hyperjump/carelens/pkg/utils"
)

// OutputFormat is the format for command output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
	// OutputTable is an aligned one-row-per-conversation summary.
	OutputTable OutputFormat = "table"
)

// ParseOutputFormat validates a --output flag value.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(strings.ToLower(strings.TrimSpace(s))); f {
	case "", OutputText:
		return OutputText, nil
	case OutputJSON, OutputTable:
		return f, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want text, json or table)", s)
	}
}

const rule = "─────────────────────────────────────────────────────────"

// WriteRecords writes full analysis records to w.
func WriteRecords(w io.Writer, records []*models.AnalysisRecord, format OutputFormat) error {
	switch format {
	case OutputJSON:
		return writeJSON(w, records)
	case OutputTable:
		rows := make([]models.SummaryRow, 0, len(records))
		for _, r := range records {
			rows = append(rows, r.Summarize())
		}
		return WriteSummary(w, rows, OutputTable)
	default:
		for _, r := range records {
			writeRecordText(w, r)
		}
		return nil
	}
}

func writeRecordText(w io.Writer, r *models.AnalysisRecord) {
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "Conversation %s (%d messages, %dms)\n", r.ConversationID, r.Conversation.MessageCount, r.DurationMS)
	fmt.Fprintf(w, "Preview: %s\n\n", r.Conversation.TextPreview)
	writeFusedText(w, r.HIV)
	writeFusedText(w, r.MentalHealth)

	rec := r.Recommendation
	fmt.Fprintln(w, "Recommendations:")
	fmt.Fprintf(w, "  HIV: %s\n", rec.HIVRecommendation)
	fmt.Fprintf(w, "  Mental health: %s\n", rec.MHRecommendation)
	fmt.Fprintf(w, "  Plan: %s\n\n", rec.IntegratedPlan)
}

func writeFusedText(w io.Writer, f models.FusedRiskAssessment) {
	review := ""
	if f.RequiresReview {
		review = "  [requires review]"
	}
	fmt.Fprintf(w, "%s risk: %s (%.3f)%s\n", f.Domain.Label(), f.FinalCategory, f.FinalScore, review)
	fmt.Fprintf(w, "  Rule-based: %.3f %s", f.Rule.Score, f.Rule.Category)
	if matches := ruleMatches(f.Rule); matches != "" {
		fmt.Fprintf(w, " [%s]", matches)
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  Model: %.3f %s", f.Model.Score, f.Model.Category)
	if f.Model.Urgent {
		fmt.Fprint(w, " URGENT")
	}
	fmt.Fprintln(w)
	if f.Model.Reasoning != "" {
		fmt.Fprintf(w, "  Reasoning: %s\n", f.Model.Reasoning)
	}
	if len(f.Model.RiskFactors) > 0 {
		fmt.Fprintf(w, "  Risk factors: %s\n", strings.Join(f.Model.RiskFactors, ", "))
	}
	fmt.Fprintln(w)
}

func ruleMatches(r models.RuleScoreResult) string {
	var all []string
	all = append(all, r.HighMatches...)
	all = append(all, r.MediumMatches...)
	all = append(all, r.LowMatches...)
	all = append(all, r.SymptomMatches...)
	return strings.Join(all, ", ")
}

// WriteSummary writes one row per conversation. OutputText and OutputTable both
// produce the aligned table.
func WriteSummary(w io.Writer, rows []models.SummaryRow, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, rows)
	}
	table := uitable.New()
	table.MaxColWidth = 40
	table.AddRow("CONVERSATION", "MESSAGES", "HIV", "HIV CATEGORY", "MH", "MH CATEGORY",
		"HIV RULE", "HIV MODEL", "MH RULE", "MH MODEL", "REVIEW")
	for _, r := range rows {
		review := ""
		if r.RequiresReview {
			review = "yes"
		}
		table.AddRow(r.ConversationID, r.MessageCount,
			score(r.HIVScore), r.HIVCategory, score(r.MHScore), r.MHCategory,
			score(r.HIVRuleScore), score(r.HIVModelScore), score(r.MHRuleScore), score(r.MHModelScore),
			review)
	}
	_, err := fmt.Fprintln(w, table)
	return err
}

// WriteRetrieval writes retrieved guideline excerpts.
func WriteRetrieval(w io.Writer, query string, chunks []models.RetrievedChunk, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, struct {
			Query   string                  `json:"query"`
			Results []models.RetrievedChunk `json:"results"`
		}{query, chunks})
	}
	fmt.Fprintf(w, "\nFound %d excerpts for %q\n\n", len(chunks), query)
	for i, c := range chunks {
		fmt.Fprintln(w, rule)
		fmt.Fprintf(w, "Rank: %d | Chunk: %d | Distance: %.4f\n", i+1, c.ChunkIndex, c.Distance)
		fmt.Fprintf(w, "\n%s\n\n", utils.Truncate(c.Content, 400))
	}
	return nil
}

func score(v float64) string {
	return fmt.Sprintf("%.3f", v)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
