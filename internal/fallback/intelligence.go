package fallback

import (
	"fmt"
	"strings"

	"call-insights-go/internal/types"
)

// text selects which blob of the Input a rule looks at.
type text int

const (
	agentText text = iota
	customerText
	fullText
)

func (t text) of(in Input) string {
	switch t {
	case agentText:
		return in.AgentText
	case customerText:
		return in.CustomerText
	default:
		return in.FullText
	}
}

type biRule struct {
	name  string
	on    text
	match predicate
	apply func(r *types.BusinessIntelligence, in Input)
}

var (
	negativeEmotion = anyOf(
		"frustrated", "angry", "upset", "annoyed", "irritated", "disappointed",
		"unhappy", "dissatisfied", "fed up", "tired of", "sick of", "had enough",
		"exasperated", "exhausted", "stressed", "worried", "concerned", "confused",
	)
	neglect = anyOf(
		"no one is telling us anything", "no one is saying anything", "no one is updating us",
		"no one is helping", "not being informed", "not being updated", "left in the dark",
		"no communication", "no updates", "haven't heard back",
	)
	agentEmpathy = anyOf("sorry", "apologize", "regret")
)

var breakdownRule = biRule{
	name: "communication-breakdown", on: fullText, match: neglect,
	apply: func(r *types.BusinessIntelligence, in Input) {
		r.RiskFactors = append(r.RiskFactors, fmt.Sprintf("Communication breakdown: %s reported no updates", in.lower()))
		r.AreasOfImprovement = append(r.AreasOfImprovement, fmt.Sprintf("Improve proactive communication and %s updates", in.lower()))
	},
}

// biRules are independent; each one that matches contributes. Order only
// decides list order and which score override lands last.
var biRules = []biRule{
	{
		name: "negative-emotion", on: customerText, match: negativeEmotion,
		apply: func(r *types.BusinessIntelligence, in Input) {
			r.CustomerExperienceInsights = append(r.CustomerExperienceInsights, fmt.Sprintf("%s expressed negative emotions during the call", in.role()))
			r.RiskFactors = append(r.RiskFactors, fmt.Sprintf("High risk of %s churn due to negative experience", in.lower()))
			r.QualityScore.Categories.Empathy = 60
		},
	},
	{
		name: "poor-service", on: customerText,
		match: anyOf("poor service", "bad service", "terrible service", "service was terrible", "bad experience"),
		apply: func(r *types.BusinessIntelligence, in Input) {
			r.AreasOfImprovement = append(r.AreasOfImprovement, "Improve overall service quality")
			r.ProcessGaps = append(r.ProcessGaps, "Service quality standards not being met")
			r.OperationalRecommendations = append(r.OperationalRecommendations, "Review and enhance service delivery processes")
		},
	},
	{
		name: "wrong-items", on: customerText,
		match: either(
			anyOf("wrong item", "wrong order", "wrong food", "wrong product", "incorrect item", "incorrect order"),
			allOf(anyOf("ordered"), anyOf("received", "got")),
		),
		apply: func(r *types.BusinessIntelligence, in Input) {
			r.AreasOfImprovement = append(r.AreasOfImprovement, "Improve order accuracy and fulfillment")
			r.ProcessGaps = append(r.ProcessGaps, "Order fulfillment process failing")
			r.PreventiveMeasures = append(r.PreventiveMeasures, "Implement double-check system for order accuracy")
			r.OperationalRecommendations = append(r.OperationalRecommendations, "Review order processing and fulfillment procedures")
		},
	},
	{
		name: "food-quality", on: customerText,
		match: allOf(anyOf("cold", "damaged", "spoiled"), foodWords),
		apply: func(r *types.BusinessIntelligence, in Input) {
			r.AreasOfImprovement = append(r.AreasOfImprovement, "Improve food quality and delivery standards")
			r.ProcessGaps = append(r.ProcessGaps, "Food quality control failing")
			r.PreventiveMeasures = append(r.PreventiveMeasures, "Implement food quality checks before delivery")
			r.OperationalRecommendations = append(r.OperationalRecommendations, "Review food preparation and delivery processes")
		},
	},
	{
		name: "cancellation", on: customerText, match: anyOf("cancel"),
		apply: func(r *types.BusinessIntelligence, in Input) {
			r.CustomerExperienceInsights = append(r.CustomerExperienceInsights, fmt.Sprintf("%s requested service cancellation", in.role()))
			r.RiskFactors = append(r.RiskFactors, fmt.Sprintf("%s churn risk - service cancellation requested", in.role()))
			r.PreventiveMeasures = append(r.PreventiveMeasures, fmt.Sprintf("Address service quality issues before %ss request cancellation", in.lower()))
		},
	},
	{
		name: "billing-accuracy", on: customerText,
		match: anyOf("overcharged", "wrong charge", "incorrect bill", "billing error", "charged twice", "double charged", "wrong amount"),
		apply: func(r *types.BusinessIntelligence, in Input) {
			r.AreasOfImprovement = append(r.AreasOfImprovement, "Improve billing accuracy")
			r.ProcessGaps = append(r.ProcessGaps, "Billing system errors occurring")
			r.PreventiveMeasures = append(r.PreventiveMeasures, "Implement billing verification processes")
		},
	},
	{
		name: "wait-time", on: customerText, match: anyOf("wait", "long time", "forever"),
		apply: func(r *types.BusinessIntelligence, in Input) {
			r.AreasOfImprovement = append(r.AreasOfImprovement, fmt.Sprintf("Reduce %s wait times", in.lower()))
			r.QualityScore.Categories.Responsiveness = 60
		},
	},
	{
		name: "communication-clarity", on: customerText, match: anyOf("don't understand", "confused", "unclear"),
		apply: func(r *types.BusinessIntelligence, in Input) {
			r.TrainingOpportunities = append(r.TrainingOpportunities, "Improve communication clarity")
			r.QualityScore.Categories.Communication = 65
		},
	},
	breakdownRule,
	{
		name: "agent-empathy", on: agentText, match: agentEmpathy,
		apply: func(r *types.BusinessIntelligence, in Input) {
			r.QualityScore.Categories.Empathy = 85
		},
	},
	{
		name: "agent-no-empathy", on: agentText, match: not(agentEmpathy),
		apply: func(r *types.BusinessIntelligence, in Input) {
			r.TrainingOpportunities = append(r.TrainingOpportunities, "Enhance empathetic communication")
			r.QualityScore.Categories.Empathy = 60
		},
	},
	{
		name: "agent-follow-up", on: agentText, match: anyOf("follow up", "call back"),
		apply: func(r *types.BusinessIntelligence, in Input) {
			r.OperationalRecommendations = append(r.OperationalRecommendations, "Follow-up procedures were mentioned")
			r.QualityScore.Categories.FollowUp = 85
		},
	},
	{
		name: "agent-investigation", on: agentText, match: anyOf("investigate", "look into"),
		apply: func(r *types.BusinessIntelligence, in Input) {
			r.OperationalRecommendations = append(r.OperationalRecommendations, "Issue investigation process initiated")
			r.QualityScore.Categories.ProblemSolving = 80
		},
	},
}

func baseline() types.BusinessIntelligence {
	return types.BusinessIntelligence{
		AreasOfImprovement:         []string{},
		ProcessGaps:                []string{},
		TrainingOpportunities:      []string{},
		PreventiveMeasures:         []string{},
		CustomerExperienceInsights: []string{},
		OperationalRecommendations: []string{},
		RiskFactors:                []string{},
		QualityScore: types.QualityScore{
			Overall: 75,
			Categories: types.QualityCategories{
				Responsiveness: 80,
				Empathy:        75,
				ProblemSolving: 70,
				Communication:  80,
				FollowUp:       75,
			},
		},
	}
}

// EmptyReport is the report for a call with no utterances: empty lists and every score at 50.
func EmptyReport() types.BusinessIntelligence {
	r := baseline()
	r.QualityScore.Categories = types.QualityCategories{
		Responsiveness: 50, Empathy: 50, ProblemSolving: 50, Communication: 50, FollowUp: 50,
	}
	r.RecomputeOverall()
	return r
}

// BusinessIntelligence runs every rule over the input and returns the report.
// Lists are deduplicated and overall is always the category mean.
func BusinessIntelligence(in Input) types.BusinessIntelligence {
	if !in.HasContent {
		return EmptyReport()
	}
	r := baseline()
	for _, rule := range biRules {
		if rule.match(rule.on.of(in)) {
			rule.apply(&r, in)
		}
	}
	if len(r.CustomerExperienceInsights) == 0 {
		r.CustomerExperienceInsights = append(r.CustomerExperienceInsights, fmt.Sprintf("%s contacted support for assistance", in.role()))
	}
	if len(r.OperationalRecommendations) == 0 {
		r.OperationalRecommendations = append(r.OperationalRecommendations, "Continue monitoring call quality and agent performance")
	}
	Normalize(&r)
	return r
}

// FiredRules lists the names of the business-intelligence rules that match the input.
func FiredRules(in Input) []string {
	var out []string
	for _, rule := range biRules {
		if rule.match(rule.on.of(in)) {
			out = append(out, rule.name)
		}
	}
	return out
}

// Normalize dedupes every list, replaces nil lists with empty ones and
// recomputes overall from the categories. It is applied to AI reports too.
func Normalize(r *types.BusinessIntelligence) {
	r.AreasOfImprovement = dedupe(r.AreasOfImprovement)
	r.ProcessGaps = dedupe(r.ProcessGaps)
	r.TrainingOpportunities = dedupe(r.TrainingOpportunities)
	r.PreventiveMeasures = dedupe(r.PreventiveMeasures)
	r.CustomerExperienceInsights = dedupe(r.CustomerExperienceInsights)
	r.OperationalRecommendations = dedupe(r.OperationalRecommendations)
	r.RiskFactors = dedupe(r.RiskFactors)
	r.RecomputeOverall()
}

// FlagCommunicationBreakdown adds the communication-breakdown risk to a report
// produced elsewhere (the AI path) when the call mentions being left without updates.
func FlagCommunicationBreakdown(r *types.BusinessIntelligence, in Input) bool {
	if !in.HasContent || !breakdownRule.match(breakdownRule.on.of(in)) {
		return false
	}
	breakdownRule.apply(r, in)
	Normalize(r)
	return true
}

// Neglected reports whether the full call text contains a neglect phrase.
func Neglected(fullText string) bool { return neglect(strings.ToLower(fullText)) }
