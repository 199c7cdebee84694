package extractor

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/invopop/jsonschema"

	"call-insights-go/internal/types"
)

const systemPrompt = "You are an expert business analyst specializing in customer service call analysis. " +
	"Provide concise, actionable insights based on conversation transcripts. Focus on identifying business " +
	"opportunities, customer experience improvements, and operational recommendations."

// Request is everything a prompt may embed about one call.
type Request struct {
	Transcript   string // formatted, role-labelled script
	AgentText    string
	CustomerText string
	Sentiments   []types.SentimentSegment
	Domain       types.DomainRole
}

func (r Request) role() string {
	if r.Domain == "" {
		return types.Customer.Lower()
	}
	return r.Domain.Lower()
}

// reportSchema is the JSON schema of BusinessIntelligence, embedded in the BI prompt.
var reportSchema = generateSchema[types.BusinessIntelligence]()

func generateSchema[T any]() string {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties:  false,
		DoNotReference:             true,
		RequiredFromJSONSchemaTags: true,
	}
	var v T
	b, err := json.MarshalIndent(reflector.Reflect(v), "", "  ")
	if err != nil {
		panic(err)
	}
	return string(b)
}

func roleInstructions(r Request) string {
	return fmt.Sprintf(`Instructions:
- The non-agent party in this call is the '%[1]s'. Always refer to them as '%[1]s'.
- Always refer to the agent as 'agent'.
- Use the '%[1]s' label consistently in every sentence you write.`, r.role())
}

func sentimentLabels(segs []types.SentimentSegment) string {
	if len(segs) == 0 {
		return "none"
	}
	labels := make([]string, 0, len(segs))
	for _, s := range segs {
		labels = append(labels, string(s.Sentiment))
	}
	return strings.Join(labels, ", ")
}

func buildSummaryPrompt(r Request) string {
	return fmt.Sprintf(`Summarize why the %[1]s called, in ONE sentence.

TRANSCRIPT:
%[2]s

%[3]s

Respond with the sentence only, starting with "The %[1]s". No preamble, no quotes.`,
		r.role(), r.Transcript, roleInstructions(r))
}

func buildReportPrompt(r Request) string {
	return fmt.Sprintf(`Analyze this specific customer service conversation for business intelligence insights.

AGENT: %[1]s

%[2]s: %[3]s

SENTIMENT: %[4]s

%[5]s

Look for emotions (frustration, anger, disappointment, stress), feelings of neglect or lack of updates,
complaints stated politely or indirectly, order accuracy, food quality, billing accuracy and service quality.
Judge the agent specifically: active listening, concrete solutions, empathy, ownership, appropriate
escalation, follow-up on promises, and keeping the %[6]s informed.

Score each category from 0 to 100 based on how THIS agent handled THIS %[6]s.

Return ONLY a JSON object that validates against this schema. Every key is required:
%[7]s`,
		r.AgentText, strings.ToUpper(r.role()), r.CustomerText, sentimentLabels(r.Sentiments),
		roleInstructions(r), r.role(), reportSchema)
}

func buildActionItemsPrompt(r Request) string {
	return fmt.Sprintf(`Based on this specific customer service conversation, list the follow-up actions it requires.

AGENT: %[1]s

%[2]s: %[3]s

%[4]s

If the conversation was resolved with no outstanding issues, respond with exactly: "No action needed"

Otherwise list 2-4 specific, actionable items, one per line, each starting with "- ".
Every item must relate directly to what was discussed in THIS conversation.`,
		r.AgentText, strings.ToUpper(r.role()), r.CustomerText, roleInstructions(r))
}
