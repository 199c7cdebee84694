// Package pipeline turns a finished transcript into the analysis fields of a
// result. Each field comes from the language model when it answers usefully
// and from the deterministic fallback otherwise; the stage itself never fails.
package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"call-insights-go/internal/aggregator"
	"call-insights-go/internal/extractor"
	"call-insights-go/internal/fallback"
	"call-insights-go/internal/logger"
	"call-insights-go/internal/roles"
	"call-insights-go/internal/transcript"
	"call-insights-go/internal/types"
)

// Generator produces the AI version of each field. extractor.Analyzer implements it.
type Generator interface {
	Summary(ctx context.Context, req extractor.Request) (string, error)
	BusinessIntelligence(ctx context.Context, req extractor.Request) (types.BusinessIntelligence, error)
	ActionItems(ctx context.Context, req extractor.Request) ([]string, error)
}

// Analysis is everything derived from one transcript.
type Analysis struct {
	Transcription        string
	Roles                types.SpeakerRoleMap
	Domain               types.DomainRole
	Summary              string
	ActionItems          []string
	Sentiment            types.SentimentSummary
	BusinessIntelligence types.BusinessIntelligence
	Sources              types.Sources
}

type Pipeline struct {
	gen Generator
	log *logrus.Entry
}

// New builds a pipeline. A nil generator means fallback only.
func New(gen Generator) *Pipeline {
	return &Pipeline{gen: gen, log: logger.Component("pipeline")}
}

// Analyze runs role inference, formatting, the three analysis branches and
// sentiment aggregation. The transcript is only read.
func (p *Pipeline) Analyze(ctx context.Context, t types.Transcript) Analysis {
	log := logger.ForJob(ctx, p.log)
	start := time.Now()

	roleMap := roles.Classify(t.Utterances)
	domain := roles.InferDomain(t.Text, t.Utterances)
	in := fallback.NewInput(t, roleMap, domain)

	out := Analysis{
		Transcription: transcript.Format(t.Text, t.Utterances, roleMap, domain),
		Roles:         roleMap,
		Domain:        domain,
	}
	req := extractor.Request{
		Transcript:   out.Transcription,
		AgentText:    roleMap.TextFor(t.Utterances, types.RoleAgent),
		CustomerText: roleMap.TextFor(t.Utterances, types.RoleCustomer),
		Sentiments:   t.Sentiments,
		Domain:       domain,
	}
	useAI := p.gen != nil && in.HasContent

	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		out.Summary, out.Sources.Summary = p.summary(ctx, log, req, in, t.Chapters, useAI)
	}()
	go func() {
		defer wg.Done()
		out.BusinessIntelligence, out.Sources.BusinessIntelligence = p.intelligence(ctx, log, req, in, useAI)
	}()
	go func() {
		defer wg.Done()
		out.ActionItems, out.Sources.ActionItems = p.actionItems(ctx, log, req, in, useAI)
	}()
	wg.Wait()

	out.BusinessIntelligence.RecomputeOverall()
	out.Sentiment = aggregator.Summarize(t.Sentiments, in.FullText)

	log.WithFields(logrus.Fields{
		"domain":      domain,
		"speakers":    len(roleMap),
		"summary_src": out.Sources.Summary,
		"bi_src":      out.Sources.BusinessIntelligence,
		"actions_src": out.Sources.ActionItems,
		"overall":     out.BusinessIntelligence.QualityScore.Overall,
		"elapsed_ms":  time.Since(start).Milliseconds(),
	}).Info("analysis complete")
	return out
}

func (p *Pipeline) summary(ctx context.Context, log *logrus.Entry, req extractor.Request, in fallback.Input, chapters []types.Chapter, useAI bool) (string, types.Source) {
	if useAI {
		s, err := p.gen.Summary(ctx, req)
		if err == nil {
			return s, types.SourceAI
		}
		log.WithError(err).Warn("ai summary failed, using fallback")
	}
	if in.HasContent {
		if s, ok := fallback.ChapterSummary(chapters, in.Domain); ok {
			return s, types.SourceChapters
		}
	}
	log.WithField("rule", fallback.SummaryRule(in)).Debug("fallback summary")
	return fallback.Summary(in), types.SourceFallback
}

func (p *Pipeline) intelligence(ctx context.Context, log *logrus.Entry, req extractor.Request, in fallback.Input, useAI bool) (types.BusinessIntelligence, types.Source) {
	if useAI {
		r, err := p.gen.BusinessIntelligence(ctx, req)
		if err == nil {
			fallback.Normalize(&r)
			fallback.FlagCommunicationBreakdown(&r, in)
			return r, types.SourceAI
		}
		log.WithError(err).Warn("ai business intelligence failed, using fallback")
	}
	log.WithField("rules", fallback.FiredRules(in)).Debug("fallback business intelligence")
	return fallback.BusinessIntelligence(in), types.SourceFallback
}

func (p *Pipeline) actionItems(ctx context.Context, log *logrus.Entry, req extractor.Request, in fallback.Input, useAI bool) ([]string, types.Source) {
	if useAI {
		items, err := p.gen.ActionItems(ctx, req)
		if err == nil {
			return items, types.SourceAI
		}
		log.WithError(err).Warn("ai action items failed, using fallback")
	}
	return fallback.ActionItems(in), types.SourceFallback
}
