// Package extractor asks a language model for the summary, business
// intelligence and action items of a call and parses the answers strictly.
// Every failure is returned as ErrUnavailable or ErrMalformed so the caller
// can substitute its deterministic output.
package extractor

import (
	"context"

	"call-insights-go/internal/types"
)

// Analyzer turns a Request into the three analysis fields, one model call each.
type Analyzer struct {
	llm Completer
}

func NewAnalyzer(llm Completer) *Analyzer {
	return &Analyzer{llm: llm}
}

func (a *Analyzer) Summary(ctx context.Context, req Request) (string, error) {
	content, err := a.llm.Complete(ctx, systemPrompt, buildSummaryPrompt(req))
	if err != nil {
		return "", err
	}
	return parseSummary(content)
}

func (a *Analyzer) BusinessIntelligence(ctx context.Context, req Request) (types.BusinessIntelligence, error) {
	content, err := a.llm.Complete(ctx, systemPrompt, buildReportPrompt(req))
	if err != nil {
		return types.BusinessIntelligence{}, err
	}
	return parseReport(content)
}

func (a *Analyzer) ActionItems(ctx context.Context, req Request) ([]string, error) {
	content, err := a.llm.Complete(ctx, systemPrompt, buildActionItemsPrompt(req))
	if err != nil {
		return nil, err
	}
	return parseActionItems(content)
}
