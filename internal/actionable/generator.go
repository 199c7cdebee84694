// Package actionable turns a batch rollup into a few recommendation cards for
// the overview sheet.
package actionable

import (
	"fmt"

	"call-insights-go/internal/aggregator"
)

type ActionCard struct {
	Insight string `json:"insight"`
	Action  string `json:"action"`
	Impact  string `json:"impact"`
}

const (
	churnThreshold    = 0.30
	qualityThreshold  = 70.0
	fallbackThreshold = 0.5
)

var coachingCategories = []string{"responsiveness", "empathy", "problemSolving", "communication", "followUp"}

// Generate returns at least one card. Cards come in a fixed order: churn,
// weakest quality category, AI coverage.
func Generate(ins aggregator.Insight) []ActionCard {
	var cards []ActionCard
	if ins.Calls == 0 {
		return []ActionCard{noPattern()}
	}

	if ins.ChurnRiskRate >= churnThreshold {
		cards = append(cards, ActionCard{
			Insight: fmt.Sprintf("Churn risk flagged in %.0f%% of calls", ins.ChurnRiskRate*100),
			Action:  "Route complaint calls to retention specialists and review recurring complaint causes",
			Impact:  "Reduce cancellations and refund requests",
		})
	}

	worst, lowest := "", qualityThreshold
	for _, c := range coachingCategories {
		if v, ok := ins.AvgQuality[c]; ok && v < lowest {
			worst, lowest = c, v
		}
	}
	if worst != "" {
		cards = append(cards, ActionCard{
			Insight: fmt.Sprintf("Lowest quality category is %s (%.0f)", worst, lowest),
			Action:  fmt.Sprintf("Run targeted agent coaching on %s", worst),
			Impact:  "Raise the overall quality score",
		})
	}

	if share := float64(ins.FallbackCounts["businessIntelligence"]) / float64(ins.Calls); share >= fallbackThreshold {
		cards = append(cards, ActionCard{
			Insight: fmt.Sprintf("Rule-based analysis used for %.0f%% of calls", share*100),
			Action:  "Check language model credentials, quota and timeout settings",
			Impact:  "Richer per-call insights",
		})
	}

	if len(cards) == 0 {
		return []ActionCard{noPattern()}
	}
	return cards
}

func noPattern() ActionCard {
	return ActionCard{
		Insight: "No strong pattern detected",
		Action:  "Monitor and collect more data",
		Impact:  "Low immediate intervention",
	}
}
