package extractor

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strings"

	"call-insights-go/internal/types"
)

// extractJSON returns the first balanced JSON object in s. Markdown fences are
// ignored and braces inside string literals do not count toward the balance.
func extractJSON(s string) (string, bool) {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	for _, fence := range []string{"```json", "```JSON", "```"} {
		s = strings.ReplaceAll(s, fence, "")
	}

	start := strings.IndexByte(s, '{')
	if start == -1 {
		return "", false
	}
	depth := 0
	inString, escaped := false, false
	for i := start; i < len(s); i++ {
		ch := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return strings.TrimSpace(s[start : i+1]), true
			}
		}
	}
	return "", false
}

// rawReport mirrors BusinessIntelligence with pointer fields so a missing key
// can be told apart from an empty one.
type rawReport struct {
	AreasOfImprovement         *[]string `json:"areasOfImprovement"`
	ProcessGaps                *[]string `json:"processGaps"`
	TrainingOpportunities      *[]string `json:"trainingOpportunities"`
	PreventiveMeasures         *[]string `json:"preventiveMeasures"`
	CustomerExperienceInsights *[]string `json:"customerExperienceInsights"`
	OperationalRecommendations *[]string `json:"operationalRecommendations"`
	RiskFactors                *[]string `json:"riskFactors"`
	QualityScore               *struct {
		Overall    *float64 `json:"overall"`
		Categories *struct {
			Responsiveness *float64 `json:"responsiveness"`
			Empathy        *float64 `json:"empathy"`
			ProblemSolving *float64 `json:"problemSolving"`
			Communication  *float64 `json:"communication"`
			FollowUp       *float64 `json:"followUp"`
		} `json:"categories"`
	} `json:"qualityScore"`
}

// parseReport decodes a business-intelligence answer. Any missing list, missing
// category, wrong type or out-of-range score rejects the whole answer.
// The model's overall value is ignored and recomputed from the categories.
func parseReport(content string) (types.BusinessIntelligence, error) {
	raw, ok := extractJSON(content)
	if !ok {
		return types.BusinessIntelligence{}, fmt.Errorf("%w: no JSON object in completion", ErrMalformed)
	}
	var r rawReport
	if err := json.Unmarshal([]byte(raw), &r); err != nil {
		return types.BusinessIntelligence{}, fmt.Errorf("%w: %w", ErrMalformed, err)
	}

	lists := []struct {
		name string
		v    *[]string
	}{
		{"areasOfImprovement", r.AreasOfImprovement},
		{"processGaps", r.ProcessGaps},
		{"trainingOpportunities", r.TrainingOpportunities},
		{"preventiveMeasures", r.PreventiveMeasures},
		{"customerExperienceInsights", r.CustomerExperienceInsights},
		{"operationalRecommendations", r.OperationalRecommendations},
		{"riskFactors", r.RiskFactors},
	}
	for _, l := range lists {
		if l.v == nil {
			return types.BusinessIntelligence{}, fmt.Errorf("%w: missing %s", ErrMalformed, l.name)
		}
	}
	if r.QualityScore == nil || r.QualityScore.Categories == nil {
		return types.BusinessIntelligence{}, fmt.Errorf("%w: missing qualityScore.categories", ErrMalformed)
	}

	out := types.BusinessIntelligence{
		AreasOfImprovement:         *r.AreasOfImprovement,
		ProcessGaps:                *r.ProcessGaps,
		TrainingOpportunities:      *r.TrainingOpportunities,
		PreventiveMeasures:         *r.PreventiveMeasures,
		CustomerExperienceInsights: *r.CustomerExperienceInsights,
		OperationalRecommendations: *r.OperationalRecommendations,
		RiskFactors:                *r.RiskFactors,
	}
	c, cat := r.QualityScore.Categories, &out.QualityScore.Categories
	scores := []struct {
		name string
		v    *float64
		dst  *int
	}{
		{"responsiveness", c.Responsiveness, &cat.Responsiveness},
		{"empathy", c.Empathy, &cat.Empathy},
		{"problemSolving", c.ProblemSolving, &cat.ProblemSolving},
		{"communication", c.Communication, &cat.Communication},
		{"followUp", c.FollowUp, &cat.FollowUp},
	}
	for _, s := range scores {
		if s.v == nil {
			return types.BusinessIntelligence{}, fmt.Errorf("%w: missing qualityScore.categories.%s", ErrMalformed, s.name)
		}
		if *s.v < 0 || *s.v > 100 || math.IsNaN(*s.v) {
			return types.BusinessIntelligence{}, fmt.Errorf("%w: %s=%v out of range", ErrMalformed, s.name, *s.v)
		}
		if *s.v != math.Trunc(*s.v) {
			return types.BusinessIntelligence{}, fmt.Errorf("%w: %s=%v is not an integer", ErrMalformed, s.name, *s.v)
		}
		*s.dst = int(*s.v)
	}
	out.RecomputeOverall()
	return out, nil
}

var (
	listMarker = regexp.MustCompile(`^(\d+[.)]|[-*•])\s*`)
	noAction   = regexp.MustCompile(`(?i)^no (specific )?action (items? )?(needed|required|identified)( in this call)?[.!]?$`)
)

const (
	maxActionItems = 4
	minActionLen   = 10
)

// parseActionItems reads a numbered or bulleted list. An answer that is only
// "no action needed" maps to the canonical sentinel; an answer with no usable
// lines is malformed.
func parseActionItems(content string) ([]string, error) {
	if noAction.MatchString(strings.Trim(strings.TrimSpace(content), "\"*`")) {
		return []string{types.NoActionItems}, nil
	}
	var items []string
	for _, line := range strings.Split(content, "\n") {
		item := strings.TrimSpace(listMarker.ReplaceAllString(strings.TrimSpace(line), ""))
		item = strings.Trim(item, `"*`)
		if len(item) <= minActionLen || strings.HasSuffix(item, ":") {
			continue
		}
		items = append(items, item)
		if len(items) == maxActionItems {
			break
		}
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: no action items in completion", ErrMalformed)
	}
	return items, nil
}

var summaryLabel = regexp.MustCompile(`(?i)^(summary|call reason)\s*:\s*`)

// parseSummary keeps the first non-empty line of the answer.
func parseSummary(content string) (string, error) {
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(summaryLabel.ReplaceAllString(strings.TrimSpace(line), ""))
		line = strings.Trim(line, "\"'`*")
		if line != "" {
			return line, nil
		}
	}
	return "", fmt.Errorf("%w: empty summary", ErrMalformed)
}
