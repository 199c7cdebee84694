package fallback

import (
	"fmt"

	"call-insights-go/internal/types"
)

type actionRule struct {
	match predicate
	item  func(in Input) string
}

var actionRules = []actionRule{
	{anyOf("follow up", "call back"), func(in Input) string {
		return fmt.Sprintf("Follow up with the %s as promised", in.lower())
	}},
	{anyOf("investigate", "look into"), func(Input) string { return "Investigate the reported issue" }},
	{anyOf("escalate", "supervisor"), func(Input) string { return "Escalate issue to appropriate department" }},
	{anyOf("document", "record"), func(Input) string { return "Document the conversation and actions taken" }},
}

// ActionItems checks what the agent committed to. With no commitments, or no
// utterances at all, the result is the single NoActionItems sentinel.
func ActionItems(in Input) []string {
	if !in.HasContent {
		return []string{types.NoActionItems}
	}
	var items []string
	for _, r := range actionRules {
		if r.match(in.AgentText) {
			items = append(items, r.item(in))
		}
	}
	if len(items) == 0 {
		return []string{types.NoActionItems}
	}
	return items
}
