// Package fallback derives summary, business intelligence and action items from
// transcript text alone. Everything here is deterministic and makes no network calls.
package fallback

import (
	"strings"

	"call-insights-go/internal/types"
)

// Input is the lowercased view of one transcript that every rule reads.
type Input struct {
	AgentText    string
	CustomerText string
	FullText     string
	Sentiments   []types.SentimentSegment
	Domain       types.DomainRole
	HasContent   bool
}

// NewInput splits the transcript by role. The transcript is only read.
func NewInput(t types.Transcript, roles types.SpeakerRoleMap, domain types.DomainRole) Input {
	full := t.Text
	if strings.TrimSpace(full) == "" {
		parts := make([]string, 0, len(t.Utterances))
		for _, u := range t.Utterances {
			parts = append(parts, u.Text)
		}
		full = strings.Join(parts, " ")
	}
	if domain == "" {
		domain = types.Customer
	}
	return Input{
		AgentText:    strings.ToLower(roles.TextFor(t.Utterances, types.RoleAgent)),
		CustomerText: strings.ToLower(roles.TextFor(t.Utterances, types.RoleCustomer)),
		FullText:     strings.ToLower(full),
		Sentiments:   t.Sentiments,
		Domain:       domain,
		HasContent:   len(t.Utterances) > 0,
	}
}

// role is the display label, e.g. "Patient".
func (in Input) role() string { return string(in.Domain) }

// lower is the inline label, e.g. "patient".
func (in Input) lower() string { return in.Domain.Lower() }
