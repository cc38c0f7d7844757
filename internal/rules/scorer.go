// Package rules scores conversation text against static keyword tiers.
package rules

import (
	"strings"

	"github.com/hyperjump/carelens/internal/models"
)

const (
	highBase  = 0.7
	highStep  = 0.1
	medBase   = 0.4
	medStep   = 0.05
	lowBase   = 0.1
	lowStep   = 0.02
	sympStep  = 0.1
	sympBonus = 0.3
)

// Score rates text against set. Only the highest matching tier contributes to the
// base score; symptom matches add 0.1 each, capped at 0.3. All tier matches are
// still reported. Score never fails and makes no external calls.
func Score(text string, set KeywordSet) models.RuleScoreResult {
	lower := strings.ToLower(text)

	high := matches(lower, set.High)
	medium := matches(lower, set.Medium)
	low := matches(lower, set.Low)
	symptoms := matches(lower, set.Symptoms)

	var score float64
	switch {
	case len(high) > 0:
		score = highBase + highStep*float64(len(high))
	case len(medium) > 0:
		score = medBase + medStep*float64(len(medium))
	case len(low) > 0:
		score = lowBase + lowStep*float64(len(low))
	}
	score += min(sympStep*float64(len(symptoms)), sympBonus)

	return models.NewRuleScoreResult(score, high, medium, low, symptoms)
}

// ScoreDomain scores text with the keyword set of domain.
func ScoreDomain(text string, domain models.RiskDomain) models.RuleScoreResult {
	return Score(text, KeywordsFor(domain))
}

// KeywordsFor returns the keyword set of domain. Unknown domains get an empty set.
func KeywordsFor(domain models.RiskDomain) KeywordSet {
	switch domain {
	case models.DomainHIV:
		return HIVKeywords
	case models.DomainMentalHealth:
		return MentalHealthKeywords
	default:
		return KeywordSet{}
	}
}

// matches returns the phrases found in lower, in list order, each at most once.
func matches(lower string, phrases []string) []string {
	found := make([]string, 0, len(phrases))
	seen := make(map[string]struct{}, len(phrases))
	for _, p := range phrases {
		if p == "" {
			continue
		}
		if _, dup := seen[p]; dup {
			continue
		}
		if strings.Contains(lower, strings.ToLower(p)) {
			seen[p] = struct{}{}
			found = append(found, p)
		}
	}
	return found
}
