package dataset

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/xuri/excelize/v2"

	"call-insights-go/internal/actionable"
	"call-insights-go/internal/aggregator"
	"call-insights-go/internal/types"
)

const (
	SheetOverview     = "Overview"
	SheetCalls        = "Calls"
	SheetIntelligence = "Business Intelligence"
	SheetActions      = "Action Items"
	SheetTranscript   = "Transcript"
)

type workbook struct {
	f    *excelize.File
	bold int
	rows map[string]int
}

func newWorkbook() (*workbook, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", SheetOverview); err != nil {
		return nil, err
	}
	for _, s := range []string{SheetCalls, SheetIntelligence, SheetActions, SheetTranscript} {
		if _, err := f.NewSheet(s); err != nil {
			return nil, fmt.Errorf("new sheet %s: %w", s, err)
		}
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}
	return &workbook{f: f, bold: bold, rows: map[string]int{}}, nil
}

// add appends one row to sheet.
func (w *workbook) add(sheet string, values ...any) error {
	w.rows[sheet]++
	cell, err := excelize.CoordinatesToCellName(1, w.rows[sheet])
	if err != nil {
		return err
	}
	return w.f.SetSheetRow(sheet, cell, &values)
}

func (w *workbook) header(sheet string, values ...any) error {
	if err := w.add(sheet, values...); err != nil {
		return err
	}
	return w.f.SetRowStyle(sheet, w.rows[sheet], w.rows[sheet], w.bold)
}

// WriteResults writes one workbook covering every result: a batch overview,
// one row per call, and per-call detail sheets.
func WriteResults(out io.Writer, results []types.AnalysisResult) error {
	w, err := newWorkbook()
	if err != nil {
		return fmt.Errorf("create workbook: %w", err)
	}
	defer w.f.Close()

	steps := []func([]types.AnalysisResult) error{w.overview, w.calls, w.intelligence, w.actions, w.transcripts}
	for _, step := range steps {
		if err := step(results); err != nil {
			return fmt.Errorf("write workbook: %w", err)
		}
	}
	w.f.SetColWidth(SheetCalls, "G", "G", 60)
	w.f.SetColWidth(SheetTranscript, "B", "B", 100)
	return w.f.Write(out)
}

// WriteResult is WriteResults for a single call.
func WriteResult(out io.Writer, r types.AnalysisResult) error {
	return WriteResults(out, []types.AnalysisResult{r})
}

func (w *workbook) overview(results []types.AnalysisResult) error {
	ins := aggregator.Aggregate(results)
	if err := w.header(SheetOverview, "Metric", "Value"); err != nil {
		return err
	}
	rows := [][]any{
		{"Calls", ins.Calls},
		{"Churn risk rate", ins.ChurnRiskRate},
	}
	for _, k := range sortedKeys(ins.SentimentCounts) {
		rows = append(rows, []any{"Sentiment " + k, ins.SentimentCounts[k]})
	}
	for _, k := range sortedKeys(ins.AvgQuality) {
		rows = append(rows, []any{"Avg quality " + k, ins.AvgQuality[k]})
	}
	for _, k := range sortedKeys(ins.FallbackCounts) {
		rows = append(rows, []any{"Non-AI " + k, ins.FallbackCounts[k]})
	}
	for _, r := range rows {
		if err := w.add(SheetOverview, r...); err != nil {
			return err
		}
	}

	w.rows[SheetOverview]++ // blank spacer
	if err := w.header(SheetOverview, "Insight", "Action", "Impact"); err != nil {
		return err
	}
	for _, c := range actionable.Generate(ins) {
		if err := w.add(SheetOverview, c.Insight, c.Action, c.Impact); err != nil {
			return err
		}
	}
	return nil
}

func (w *workbook) calls(results []types.AnalysisResult) error {
	err := w.header(SheetCalls, "ID", "File", "Status", "Sentiment", "Sentiment Score", "Quality", "Summary",
		"Summary Source", "BI Source", "Actions Source", "Error", "Duration (ms)")
	if err != nil {
		return err
	}
	for _, r := range results {
		err := w.add(SheetCalls, r.ID, r.FileName, r.Status, string(r.Sentiment.Overall), r.Sentiment.Score,
			r.BusinessIntelligence.QualityScore.Overall, r.Summary,
			string(r.Sources.Summary), string(r.Sources.BusinessIntelligence), string(r.Sources.ActionItems),
			r.Error, r.DurationMs)
		if err != nil {
			return err
		}
	}
	return nil
}

func (w *workbook) intelligence(results []types.AnalysisResult) error {
	if err := w.header(SheetIntelligence, "ID", "Section", "Item"); err != nil {
		return err
	}
	for _, r := range results {
		bi := r.BusinessIntelligence
		sections := []struct {
			name  string
			items []string
		}{
			{"Areas of improvement", bi.AreasOfImprovement},
			{"Process gaps", bi.ProcessGaps},
			{"Training opportunities", bi.TrainingOpportunities},
			{"Preventive measures", bi.PreventiveMeasures},
			{"Customer experience", bi.CustomerExperienceInsights},
			{"Operational recommendations", bi.OperationalRecommendations},
			{"Risk factors", bi.RiskFactors},
		}
		for _, s := range sections {
			for _, item := range s.items {
				if err := w.add(SheetIntelligence, r.ID, s.name, item); err != nil {
					return err
				}
			}
		}
		c := bi.QualityScore.Categories
		scores := []struct {
			name string
			v    int
		}{
			{"overall", bi.QualityScore.Overall},
			{"responsiveness", c.Responsiveness},
			{"empathy", c.Empathy},
			{"problemSolving", c.ProblemSolving},
			{"communication", c.Communication},
			{"followUp", c.FollowUp},
		}
		for _, s := range scores {
			if err := w.add(SheetIntelligence, r.ID, "Score "+s.name, s.v); err != nil {
				return err
			}
		}
	}
	return nil
}

func (w *workbook) actions(results []types.AnalysisResult) error {
	if err := w.header(SheetActions, "ID", "#", "Action Item"); err != nil {
		return err
	}
	for _, r := range results {
		for i, item := range r.ActionItems {
			if err := w.add(SheetActions, r.ID, i+1, item); err != nil {
				return err
			}
		}
	}
	return nil
}

func (w *workbook) transcripts(results []types.AnalysisResult) error {
	if err := w.header(SheetTranscript, "ID", "Transcript"); err != nil {
		return err
	}
	for _, r := range results {
		if err := w.add(SheetTranscript, r.ID, strings.TrimSpace(r.Transcription)); err != nil {
			return err
		}
	}
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
