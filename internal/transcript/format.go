// Package transcript renders diarized utterances into a readable, role-labelled script.
package transcript

import (
	"fmt"
	"strings"

	"call-insights-go/internal/types"
)

const (
	agentIcon = "🎧"
	otherIcon = "👤"
)

// Format renders one line per utterance, separated by blank lines:
//
//	[12:05] 🎧 Agent: text
//
// The left timestamp field is whole seconds and the right field is hundredths.
// Without utterances the plain transcript text is returned unchanged.
func Format(text string, utts []types.Utterance, roles types.SpeakerRoleMap, domain types.DomainRole) string {
	if len(utts) == 0 {
		return text
	}
	lines := make([]string, 0, len(utts))
	for _, u := range utts {
		lines = append(lines, fmt.Sprintf("%s %s: %s", Timestamp(u.StartMs), label(roles.RoleOf(u.Speaker), domain), u.Text))
	}
	return strings.Join(lines, "\n\n")
}

// Timestamp formats a millisecond offset as [seconds:hundredths].
func Timestamp(ms int64) string {
	if ms < 0 {
		ms = 0
	}
	return fmt.Sprintf("[%d:%02d]", ms/1000, (ms%1000)/10)
}

func label(role types.Role, domain types.DomainRole) string {
	switch role {
	case types.RoleAgent:
		return agentIcon + " Agent"
	case types.RoleCustomer:
		return otherIcon + " " + string(domain)
	default:
		return otherIcon + " " + string(types.RoleUnknown)
	}
}
