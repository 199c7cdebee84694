package roles

import (
	"strings"

	"call-insights-go/internal/types"
)

var medicalTerms = []string{
	"hospital", "clinic", "doctor", "nurse", "treatment", "appointment",
	"medical", "medicine", "prescription", "patient", "pharmacy", "symptom",
}

var hospitalityTerms = []string{
	"hotel", "room", "check-in", "checkin", "check-out", "reservation",
	"hospitality", "guest", "suite", "concierge", "lobby",
}

var retailTerms = []string{
	"order", "delivery", "refund", "purchase", "product", "item",
	"store", "shipping", "package", "billing", "subscription", "membership",
}

// DomainScores are the lexicon totals behind an InferDomain decision.
type DomainScores struct {
	Medical     int `json:"medical"`
	Hospitality int `json:"hospitality"`
	Retail      int `json:"retail"`
}

// ScoreDomain counts lexicon occurrences over the utterance texts, or over the
// plain transcript text when there are no utterances.
func ScoreDomain(text string, utts []types.Utterance) DomainScores {
	var sc DomainScores
	add := func(s string) {
		s = strings.ToLower(s)
		sc.Medical += countTerms(s, medicalTerms)
		sc.Hospitality += countTerms(s, hospitalityTerms)
		sc.Retail += countTerms(s, retailTerms)
	}
	if len(utts) == 0 {
		add(text)
		return sc
	}
	for _, u := range utts {
		add(u.Text)
	}
	return sc
}

// InferDomain picks the label for the non-agent party. Only a strict winner
// selects Patient or Guest; everything else, ties included, is Customer.
func InferDomain(text string, utts []types.Utterance) types.DomainRole {
	sc := ScoreDomain(text, utts)
	switch {
	case sc.Medical > sc.Hospitality && sc.Medical > sc.Retail:
		return types.Patient
	case sc.Hospitality > sc.Medical && sc.Hospitality > sc.Retail:
		return types.Guest
	default:
		return types.Customer
	}
}

func countTerms(s string, terms []string) int {
	n := 0
	for _, t := range terms {
		n += strings.Count(s, t)
	}
	return n
}
