// Package aggregator rolls sentiment segments up into a per-call summary and
// rolls finished calls up into batch-level insight.
package aggregator

import (
	"math"
	"regexp"

	"call-insights-go/internal/fallback"
	"call-insights-go/internal/types"
)

// complaintPatterns mark a segment as a complaint regardless of how politely it is phrased.
var complaintPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)i (ordered|requested|expected) .+ (but|and) (got|received) .+`),
	regexp.MustCompile(`(?i)not what i expected`),
	regexp.MustCompile(`(?i)not satisfied`),
	regexp.MustCompile(`(?i)this is wrong`),
	regexp.MustCompile(`(?i)this isn't working as advertised`),
	regexp.MustCompile(`(?i)this doesn't meet my needs`),
	regexp.MustCompile(`(?i)i want to (complain|escalate|cancel)`),
	regexp.MustCompile(`(?i)i want a refund`),
	regexp.MustCompile(`(?i)(wrong|incorrect) (item|order|product|food)`),
	regexp.MustCompile(`(?i)damaged|spoiled|broken`),
	regexp.MustCompile(`(?i)overcharged|wrong charge|billing error`),
	regexp.MustCompile(`(?i)no one is (saying anything|telling us anything|updating us|helping)`),
	regexp.MustCompile(`(?i)not being (informed|updated)`),
	regexp.MustCompile(`(?i)left in the dark|no communication|no updates`),
}

// IsComplaint reports whether text matches any complaint pattern.
func IsComplaint(text string) bool {
	for _, re := range complaintPatterns {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}

// tie order when counts are equal
var precedence = []types.Sentiment{types.Negative, types.Neutral, types.Positive}

// Summarize flags complaint segments, picks the dominant sentiment and computes
// the informational score. fullText is the whole transcript; a neglect phrase
// anywhere in it forces the overall sentiment to NEGATIVE.
func Summarize(segments []types.SentimentSegment, fullText string) types.SentimentSummary {
	out := types.SentimentSummary{
		Overall:    types.Neutral,
		Confidence: 0.5,
		Score:      50,
		Segments:   make([]types.SegmentSentiment, 0, len(segments)),
	}
	counts := map[types.Sentiment]int{}
	for _, s := range segments {
		seg := types.SegmentSentiment{Text: s.Text, Sentiment: normalize(s.Sentiment), Confidence: s.Confidence}
		if seg.Sentiment != types.Negative && IsComplaint(s.Text) {
			seg.Sentiment = types.Negative
			seg.Confidence = math.Max(seg.Confidence, 0.8)
			seg.ChurnRisk = true
		}
		counts[seg.Sentiment]++
		out.Segments = append(out.Segments, seg)
	}

	if total := len(out.Segments); total > 0 {
		best := precedence[0]
		for _, s := range precedence[1:] {
			if counts[s] > counts[best] {
				best = s
			}
		}
		out.Overall = best
		out.Confidence = float64(counts[best]) / float64(total)
		out.Score = Score(counts[types.Positive], counts[types.Negative], total)
	}

	if fallback.Neglected(fullText) {
		out.Overall = types.Negative
	}
	return out
}

// Score is round(clamp(0,100, 50 + 100*(pos-neg)/total)). It is never used as the quality score.
func Score(pos, neg, total int) int {
	if total <= 0 {
		return 50
	}
	v := 50 + 100*float64(pos-neg)/float64(total)
	return int(math.Round(math.Max(0, math.Min(100, v))))
}

func normalize(s types.Sentiment) types.Sentiment {
	switch s {
	case types.Positive, types.Negative:
		return s
	default:
		return types.Neutral
	}
}

// Insight is the batch-level rollup written to the overview sheet.
type Insight struct {
	Calls           int                `json:"calls"`
	SentimentCounts map[string]int     `json:"sentiment_counts"`
	ChurnRiskRate   float64            `json:"churn_risk_rate"`
	AvgQuality      map[string]float64 `json:"avg_quality"`
	FallbackCounts  map[string]int     `json:"fallback_counts"`
}

var categoryNames = []string{"overall", "responsiveness", "empathy", "problemSolving", "communication", "followUp"}

// Aggregate summarizes a set of analyzed calls.
func Aggregate(results []types.AnalysisResult) Insight {
	in := Insight{
		Calls:           len(results),
		SentimentCounts: map[string]int{},
		AvgQuality:      map[string]float64{},
		FallbackCounts:  map[string]int{},
	}
	if len(results) == 0 {
		return in
	}
	churned := 0
	sums := make([]int, len(categoryNames))
	for _, r := range results {
		in.SentimentCounts[string(r.Sentiment.Overall)]++
		for _, s := range r.Sentiment.Segments {
			if s.ChurnRisk {
				churned++
				break
			}
		}
		q := r.BusinessIntelligence.QualityScore
		for i, v := range append([]int{q.Overall}, q.Categories.Values()...) {
			sums[i] += v
		}
		if r.Sources.Summary != types.SourceAI {
			in.FallbackCounts["summary"]++
		}
		if r.Sources.BusinessIntelligence != types.SourceAI {
			in.FallbackCounts["businessIntelligence"]++
		}
		if r.Sources.ActionItems != types.SourceAI {
			in.FallbackCounts["actionItems"]++
		}
	}
	n := float64(len(results))
	in.ChurnRiskRate = float64(churned) / n
	for i, name := range categoryNames {
		in.AvgQuality[name] = float64(sums[i]) / n
	}
	return in
}
