// internal/types/analysis_models.go
package types

import "math"

// NoActionItems is the one sentinel used whenever a call yields no action items,
// regardless of whether the AI or the fallback path produced the list.
const NoActionItems = "No specific action items identified in this call"

// --------------------------------------------
// Business intelligence report
// --------------------------------------------
type BusinessIntelligence struct {
	AreasOfImprovement         []string     `json:"areasOfImprovement" jsonschema:"required"`
	ProcessGaps                []string     `json:"processGaps" jsonschema:"required"`
	TrainingOpportunities      []string     `json:"trainingOpportunities" jsonschema:"required"`
	PreventiveMeasures         []string     `json:"preventiveMeasures" jsonschema:"required"`
	CustomerExperienceInsights []string     `json:"customerExperienceInsights" jsonschema:"required"`
	OperationalRecommendations []string     `json:"operationalRecommendations" jsonschema:"required"`
	RiskFactors                []string     `json:"riskFactors" jsonschema:"required"`
	QualityScore               QualityScore `json:"qualityScore" jsonschema:"required"`
}

type QualityScore struct {
	Overall    int               `json:"overall" jsonschema:"required,minimum=0,maximum=100"`
	Categories QualityCategories `json:"categories" jsonschema:"required"`
}

type QualityCategories struct {
	Responsiveness int `json:"responsiveness" jsonschema:"required,minimum=0,maximum=100"`
	Empathy        int `json:"empathy" jsonschema:"required,minimum=0,maximum=100"`
	ProblemSolving int `json:"problemSolving" jsonschema:"required,minimum=0,maximum=100"`
	Communication  int `json:"communication" jsonschema:"required,minimum=0,maximum=100"`
	FollowUp       int `json:"followUp" jsonschema:"required,minimum=0,maximum=100"`
}

func (c QualityCategories) Values() []int {
	return []int{c.Responsiveness, c.Empathy, c.ProblemSolving, c.Communication, c.FollowUp}
}

// Mean is round(mean(categories)).
func (c QualityCategories) Mean() int {
	vals := c.Values()
	sum := 0
	for _, v := range vals {
		sum += v
	}
	return int(math.Round(float64(sum) / float64(len(vals))))
}

// RecomputeOverall overwrites Overall with the category mean. Upstream values are never trusted.
func (b *BusinessIntelligence) RecomputeOverall() {
	b.QualityScore.Overall = b.QualityScore.Categories.Mean()
}

// --------------------------------------------
// Sentiment summary
// --------------------------------------------
type SegmentSentiment struct {
	Text       string    `json:"text"`
	Sentiment  Sentiment `json:"sentiment"`
	Confidence float64   `json:"confidence"`
	ChurnRisk  bool      `json:"churnRisk"`
}

type SentimentSummary struct {
	Overall    Sentiment          `json:"overall"`
	Confidence float64            `json:"confidence"`
	Score      int                `json:"score"` // informational only, never feeds qualityScore
	Segments   []SegmentSentiment `json:"segments"`
}

// --------------------------------------------
// Provenance of each analysis field
// --------------------------------------------
type Source string

const (
	SourceAI       Source = "ai"
	SourceFallback Source = "fallback"
	SourceChapters Source = "chapters"
)

type Sources struct {
	Summary              Source `json:"summary"`
	BusinessIntelligence Source `json:"businessIntelligence"`
	ActionItems          Source `json:"actionItems"`
}

// --------------------------------------------
// FINAL output delivered to clients and webhooks
// --------------------------------------------
type AnalysisResult struct {
	ID                   string               `json:"id"`
	Status               string               `json:"status,omitempty"`
	FileName             string               `json:"fileName,omitempty"`
	Transcription        string               `json:"transcription"`
	Summary              string               `json:"summary"`
	ActionItems          []string             `json:"actionItems"`
	Sentiment            SentimentSummary     `json:"sentiment"`
	BusinessIntelligence BusinessIntelligence `json:"businessIntelligence"`
	Vcon                 *VconRecord          `json:"vcon,omitempty"`
	Sources              Sources              `json:"sources"`
	Error                string               `json:"error,omitempty"`
	DurationMs           int64                `json:"durationMs"`
	ReceivedAt           string               `json:"receivedAt,omitempty"`
}
