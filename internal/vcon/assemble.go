// Package vcon packages one analyzed call into a conversation-record envelope.
package vcon

import (
	"errors"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"call-insights-go/internal/types"
)

var ErrNilTranscript = errors.New("vcon: nil transcript")

const (
	speechVendor   = "AssemblyAI"
	fallbackVendor = "call-insights"
)

// Input is everything the envelope is built from. Optional fields may be zero.
type Input struct {
	Transcript           *types.Transcript
	AudioURL             string
	FileName             string
	Transcription        string
	Summary              string
	ActionItems          []string
	BusinessIntelligence types.BusinessIntelligence
	Domain               types.DomainRole
	Sources              types.Sources
	// Model labels AI-produced entries, e.g. "google/gemma-3n-4b".
	Model string
}

var mimetypes = map[string]string{
	".mp3":  "audio/mpeg",
	".wav":  "audio/wav",
	".m4a":  "audio/mp4",
	".mp4":  "audio/mp4",
	".ogg":  "audio/ogg",
	".webm": "audio/webm",
	".flac": "audio/flac",
}

// Mimetype guesses the audio type from the file name; unknown is audio/mpeg.
func Mimetype(fileName string) string {
	if m, ok := mimetypes[strings.ToLower(filepath.Ext(fileName))]; ok {
		return m
	}
	return "audio/mpeg"
}

// Assemble builds a fresh record. Identity fields are new on every call; the
// analysis bodies depend only on in.
func Assemble(in Input) (*types.VconRecord, error) {
	if in.Transcript == nil {
		return nil, ErrNilTranscript
	}
	now := time.Now().UTC().Format(time.RFC3339)
	domain := in.Domain
	if domain == "" {
		domain = types.Customer
	}
	mime := Mimetype(in.FileName)

	sentiments := in.Transcript.Sentiments
	if sentiments == nil {
		sentiments = []types.SentimentSegment{}
	}
	actions := in.ActionItems
	if actions == nil {
		actions = []string{}
	}

	return &types.VconRecord{
		Vcon:      types.VconVersion,
		UUID:      uuid.New().String(),
		CreatedAt: now,
		UpdatedAt: now,
		Subject:   "Conversation Analysis - " + in.FileName,
		Parties: []types.VconParty{
			{Name: "Agent", Role: string(types.RoleAgent)},
			{Name: string(domain), Role: domain.Lower()},
		},
		Dialog: []types.VconDialog{{
			Type:     "recording",
			Start:    now,
			Duration: in.Transcript.AudioDurationSec,
			Parties:  []int{0, 1},
			Mimetype: mime,
			Filename: in.FileName,
			URL:      in.AudioURL,
		}},
		Analysis: []types.VconAnalysis{
			{Type: types.AnalysisTranscript, Body: in.Transcription, Vendor: speechVendor, Product: "Speech-to-Text API"},
			entry(types.AnalysisSummary, in.Summary, in.Sources.Summary, in.Model, "Summary"),
			{Type: types.AnalysisSentiment, Body: sentiments, Vendor: speechVendor, Product: "Sentiment Analysis"},
			entry(types.AnalysisBusinessIntelligence, in.BusinessIntelligence, in.Sources.BusinessIntelligence, in.Model, "Business Intelligence"),
			entry(types.AnalysisActionItems, actions, in.Sources.ActionItems, in.Model, "Action Items"),
		},
		Attachments: []types.VconAttachment{{
			Type:     mime,
			Filename: in.FileName,
			URL:      in.AudioURL,
			Body:     "Original conversation audio file",
		}},
	}, nil
}

// entry tags a generated field with whoever produced it.
func entry(typ string, body any, src types.Source, model, product string) types.VconAnalysis {
	a := types.VconAnalysis{Type: typ, Body: body}
	switch src {
	case types.SourceAI:
		a.Vendor, a.Product = model, "AI "+product
	case types.SourceChapters:
		a.Vendor, a.Product = speechVendor, "Auto Chapters "+product
	default:
		a.Vendor, a.Product = fallbackVendor, "Rule-based "+product
	}
	if a.Vendor == "" {
		a.Vendor = "LLM"
	}
	return a
}
