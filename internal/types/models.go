package types

import "strings"

// Sentiment is the label attached to a sentiment segment.
type Sentiment string

const (
	Positive Sentiment = "POSITIVE"
	Negative Sentiment = "NEGATIVE"
	Neutral  Sentiment = "NEUTRAL"
)

// Utterance is one diarized turn. Offsets are milliseconds from the start of the recording.
type Utterance struct {
	Speaker    string  `json:"speaker"`
	Text       string  `json:"text"`
	StartMs    int64   `json:"start"`
	EndMs      int64   `json:"end"`
	Confidence float64 `json:"confidence"`
}

type SentimentSegment struct {
	Text       string    `json:"text"`
	Sentiment  Sentiment `json:"sentiment"`
	Confidence float64   `json:"confidence"`
	StartMs    int64     `json:"start"`
	EndMs      int64     `json:"end"`
}

// Chapter is an auto-generated section of the call, when the speech service provides one.
type Chapter struct {
	Headline string `json:"headline"`
	Gist     string `json:"gist"`
	Summary  string `json:"summary"`
	StartMs  int64  `json:"start"`
	EndMs    int64  `json:"end"`
}

// Transcript is the completed result of the transcription collaborator.
// It is never mutated after the client hands it out.
type Transcript struct {
	ID               string             `json:"id"`
	Status           string             `json:"status"`
	Text             string             `json:"text"`
	Utterances       []Utterance        `json:"utterances"`
	Sentiments       []SentimentSegment `json:"sentimentSegments"`
	Chapters         []Chapter          `json:"chapters,omitempty"`
	AudioDurationSec float64            `json:"audioDurationSec,omitempty"`
}

// Role is the semantic identity assigned to an anonymous speaker tag.
type Role string

const (
	RoleAgent    Role = "agent"
	RoleCustomer Role = "customer"
	RoleUnknown  Role = "unknown"
)

// SpeakerRoleMap maps speaker tags to roles. Tags beyond the first two are absent.
type SpeakerRoleMap map[string]Role

func (m SpeakerRoleMap) RoleOf(speaker string) Role {
	if r, ok := m[speaker]; ok {
		return r
	}
	return RoleUnknown
}

// TextFor joins the texts of all utterances spoken by the given role.
func (m SpeakerRoleMap) TextFor(utts []Utterance, role Role) string {
	parts := make([]string, 0, len(utts))
	for _, u := range utts {
		if m.RoleOf(u.Speaker) == role {
			parts = append(parts, u.Text)
		}
	}
	return strings.Join(parts, " ")
}

// DomainRole is the display label for the non-agent party.
type DomainRole string

const (
	Patient  DomainRole = "Patient"
	Guest    DomainRole = "Guest"
	Customer DomainRole = "Customer"
)

func (d DomainRole) Lower() string { return strings.ToLower(string(d)) }
