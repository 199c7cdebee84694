package fallback

import (
	"fmt"
	"regexp"
	"strings"

	"call-insights-go/internal/types"
)

// NoContentSummary is returned when the transcript has no utterances.
const NoContentSummary = "No conversation content available for summary."

type summaryVariant struct {
	match    predicate
	template string // %s is the domain role label
}

type summaryRule struct {
	name     string
	match    predicate
	variants []summaryVariant // first match wins, the last entry always matches
}

var foodWords = anyOf("food", "pizza", "meal")

// summaryRules are evaluated top to bottom against the caller's text; the first hit wins.
var summaryRules = []summaryRule{
	{
		name:  "cancellation",
		match: anyOf("cancel", "terminate"),
		variants: []summaryVariant{
			{anyOf("poor service", "bad service", "terrible", "awful", "frustrated", "upset", "disappointed"),
				"%s called to cancel their membership due to poor service quality and dissatisfaction."},
			{anyOf("wrong", "incorrect", "ordered", "received"),
				"%s called to cancel their membership due to receiving incorrect or wrong items."},
			{always, "%s called to cancel their membership or subscription."},
		},
	},
	{
		name:  "billing",
		match: anyOf("bill", "payment", "charge"),
		variants: []summaryVariant{
			{anyOf("wrong", "incorrect", "overcharged", "twice"),
				"%s called to report incorrect billing or overcharging issues."},
			{always, "%s called regarding billing or payment issues."},
		},
	},
	{
		name:  "wrong-item",
		match: either(anyOf("wrong", "incorrect"), allOf(anyOf("ordered"), anyOf("received"))),
		variants: []summaryVariant{
			{foodWords, "%s called to report receiving wrong food order or cold/damaged food items."},
			{always, "%s called to report receiving incorrect or wrong items instead of what was ordered."},
		},
	},
	{
		name:  "damaged-item",
		match: anyOf("cold", "damaged", "broken"),
		variants: []summaryVariant{
			{foodWords, "%s called to report receiving cold, damaged, or poor quality food items."},
			{always, "%s called to report receiving damaged or defective items."},
		},
	},
	{
		name:     "technical",
		match:    anyOf("problem", "issue", "not working"),
		variants: []summaryVariant{{always, "%s called to report a problem or technical issue with their service or product."}},
	},
	{
		name:     "scheduling",
		match:    anyOf("appointment", "schedule", "booking"),
		variants: []summaryVariant{{always, "%s called to schedule or modify an appointment or booking."}},
	},
	{
		name:     "inquiry",
		match:    anyOf("question", "information", "ask"),
		variants: []summaryVariant{{always, "%s called seeking information or to ask questions about their service."}},
	},
	{
		name:     "hospitality",
		match:    anyOf("hotel", "room", "reservation"),
		variants: []summaryVariant{{always, "%s called regarding hotel services, room issues, or reservation problems."}},
	},
	{
		name:     "account",
		match:    anyOf("membership", "account"),
		variants: []summaryVariant{{always, "%s called regarding their membership or account-related issues."}},
	},
	{
		name:     "general",
		match:    always,
		variants: []summaryVariant{{always, "%s called for general assistance with their service or account."}},
	},
}

// Summary returns the one-sentence call reason for the caller's text.
func Summary(in Input) string {
	if !in.HasContent {
		return NoContentSummary
	}
	_, s := summarize(in)
	return s
}

// SummaryRule names the rule that Summary would select. Useful for logs and tests.
func SummaryRule(in Input) string {
	if !in.HasContent {
		return "no-content"
	}
	name, _ := summarize(in)
	return name
}

func summarize(in Input) (string, string) {
	text := in.CustomerText
	for _, r := range summaryRules {
		if !r.match(text) {
			continue
		}
		for _, v := range r.variants {
			if v.match(text) {
				return r.name, fmt.Sprintf(v.template, in.role())
			}
		}
	}
	// unreachable: the general rule always matches
	return "general", fmt.Sprintf("%s called for general assistance with their service or account.", in.role())
}

var (
	headlinePrefixes = []*regexp.Regexp{
		regexp.MustCompile(`(?i)^(i'm calling about|i'm calling to|i need to|i want to|i would like to|i'm here to|i'm calling because)`),
		regexp.MustCompile(`(?i)^(the caller|the customer|the guest|the patient)`),
		regexp.MustCompile(`(?i)^(says|said|mentioning|mention|stating|state)`),
	}
	issueWords = []string{
		"cancel", "refund", "complaint", "reschedule", "change", "update", "fix", "help", "assist",
		"support", "billing", "charge", "payment", "appointment", "reservation", "booking",
		"service", "issue", "problem",
	}
)

// ChapterSummary builds "The <role> wanted to <issue>." from the first chapter
// headline. It reports false when there are no chapters or the headline is empty.
func ChapterSummary(chapters []types.Chapter, domain types.DomainRole) (string, bool) {
	if len(chapters) == 0 {
		return "", false
	}
	issue := strings.ToLower(strings.TrimSpace(chapters[0].Headline))
	for _, re := range headlinePrefixes {
		issue = strings.TrimSpace(re.ReplaceAllString(issue, ""))
	}
	issue = strings.TrimRight(issue, ".!? ")
	if issue == "" {
		return "", false
	}
	if len(issue) > 50 || strings.ContainsAny(issue, `"'`) {
		for _, w := range issueWords {
			if strings.Contains(issue, w) {
				issue = w
				break
			}
		}
		if len(issue) > 20 {
			issue = "get assistance"
		}
	}
	if domain == "" {
		domain = types.Customer
	}
	return fmt.Sprintf("The %s wanted to %s.", domain.Lower(), issue), true
}
