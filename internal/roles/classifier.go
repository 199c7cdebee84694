// Package roles labels anonymous diarized speakers and infers who the caller is.
package roles

import (
	"sort"
	"strings"

	"call-insights-go/internal/types"
)

var agentPhrases = []string{
	"thank you for calling",
	"how can i help",
	"i understand",
	"let me help",
	"i apologize",
	"i can assist",
	"welcome to",
	"my name is",
	"i'm here to help",
	"customer service",
	"support team",
}

var customerPhrases = []string{
	"i want to",
	"i need",
	"i have a problem",
	"i'm calling about",
	"i ordered",
	"i received",
	"my order",
	"my account",
	"i'm not happy",
	"this is wrong",
	"i want to cancel",
	"i want a refund",
}

// SpeakerStats holds the signals gathered for one distinct speaker tag.
type SpeakerStats struct {
	Speaker      string `json:"speaker"`
	Utterances   int    `json:"utterances"`
	Words        int    `json:"words"`
	FirstStartMs int64  `json:"firstStartMs"`
	AgentHits    int    `json:"agentHits"`
	CustomerHits int    `json:"customerHits"`
}

func (s SpeakerStats) AvgWords() float64 {
	if s.Utterances == 0 {
		return 0
	}
	return float64(s.Words) / float64(s.Utterances)
}

// Classify assigns the agent role to the best-scoring speaker and the customer
// role to the runner-up. Further speakers stay unmapped.
//
// A transcript with a single distinct speaker maps that speaker to agent.
func Classify(utts []types.Utterance) types.SpeakerRoleMap {
	out := types.SpeakerRoleMap{}
	if len(utts) == 0 {
		return out
	}

	stats := Profile(utts)
	if len(stats) == 1 {
		out[stats[0].Speaker] = types.RoleAgent
		return out
	}

	scores := make(map[string]int, len(stats))
	for _, s := range stats {
		score := s.AgentHits * 3
		if s.AvgWords() > 8 {
			score++
		}
		if speaksFirst(s, stats) {
			score++
		}
		scores[s.Speaker] = score
	}

	// stats are in order of first appearance, so a stable sort keeps the
	// earlier speaker ahead on ties
	ranked := make([]SpeakerStats, len(stats))
	copy(ranked, stats)
	sort.SliceStable(ranked, func(i, j int) bool {
		return scores[ranked[i].Speaker] > scores[ranked[j].Speaker]
	})

	out[ranked[0].Speaker] = types.RoleAgent
	out[ranked[1].Speaker] = types.RoleCustomer
	return out
}

// Profile returns per-speaker stats in order of first appearance.
func Profile(utts []types.Utterance) []SpeakerStats {
	idx := map[string]int{}
	var stats []SpeakerStats
	texts := map[string][]string{}
	for _, u := range utts {
		i, ok := idx[u.Speaker]
		if !ok {
			i = len(stats)
			idx[u.Speaker] = i
			stats = append(stats, SpeakerStats{Speaker: u.Speaker, FirstStartMs: u.StartMs})
		}
		stats[i].Utterances++
		stats[i].Words += len(strings.Fields(u.Text))
		texts[u.Speaker] = append(texts[u.Speaker], strings.ToLower(u.Text))
	}
	for i := range stats {
		lines := texts[stats[i].Speaker]
		stats[i].AgentHits = countPhrases(lines, agentPhrases)
		stats[i].CustomerHits = countPhrases(lines, customerPhrases)
	}
	return stats
}

// countPhrases counts how many phrases occur in at least one of the lines.
func countPhrases(lines, phrases []string) int {
	n := 0
	for _, p := range phrases {
		for _, l := range lines {
			if strings.Contains(l, p) {
				n++
				break
			}
		}
	}
	return n
}

// speaksFirst reports whether s opens strictly before every other speaker.
func speaksFirst(s SpeakerStats, all []SpeakerStats) bool {
	for _, o := range all {
		if o.Speaker == s.Speaker {
			continue
		}
		if s.FirstStartMs >= o.FirstStartMs {
			return false
		}
	}
	return true
}
