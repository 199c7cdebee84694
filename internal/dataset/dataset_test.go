package dataset

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"

	"call-insights-go/internal/types"
)

func writeManifest(t *testing.T, rows [][]any) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, r := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow("Sheet1", cell, &r); err != nil {
			t.Fatal(err)
		}
	}
	path := filepath.Join(t.TempDir(), "manifest.xlsx")
	if err := f.SaveAs(path); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	t.Parallel()
	path := writeManifest(t, [][]any{
		{"Call ID", "Call Type", "Recording Link"},
		{"c-1", "inbound", "https://calls.example/1.wav"},
		{"c-2", "inbound", "not a url"},
		{"", "outbound", "HTTP://calls.example/3.mp3"},
	})
	recs, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("records=%+v", recs)
	}
	if recs[0].CallID != "c-1" || recs[0].CallType != "inbound" || recs[0].AudioURL != "https://calls.example/1.wav" {
		t.Fatalf("first=%+v", recs[0])
	}
	if recs[1].CallID != "row-4" || recs[1].Row != 4 {
		t.Fatalf("second=%+v", recs[1])
	}
}

func TestLoadErrors(t *testing.T) {
	t.Parallel()
	if _, err := Load(writeManifest(t, [][]any{{"Call ID", "Notes"}, {"c-1", "x"}})); err == nil {
		t.Fatalf("expected error without an audio column")
	}
	if _, err := Load(writeManifest(t, [][]any{{"Audio URL"}})); err == nil {
		t.Fatalf("expected error without data rows")
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.xlsx")); err == nil {
		t.Fatalf("expected error for a missing file")
	}
}

func sampleResult(id string) types.AnalysisResult {
	return types.AnalysisResult{
		ID:            id,
		FileName:      id + ".wav",
		Status:        "completed",
		Transcription: "[0:00] 🎧 Agent: hello",
		Summary:       "Customer called about billing.",
		ActionItems:   []string{"Follow up with the customer as promised", "Escalate to supervisor"},
		Sentiment:     types.SentimentSummary{Overall: types.Negative, Score: 30},
		BusinessIntelligence: types.BusinessIntelligence{
			AreasOfImprovement: []string{"Billing accuracy"},
			RiskFactors:        []string{"Churn"},
			QualityScore: types.QualityScore{
				Overall:    70,
				Categories: types.QualityCategories{Responsiveness: 70, Empathy: 70, ProblemSolving: 70, Communication: 70, FollowUp: 70},
			},
		},
		Sources: types.Sources{Summary: types.SourceFallback, BusinessIntelligence: types.SourceFallback, ActionItems: types.SourceAI},
	}
}

func TestWriteResults(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	if err := WriteResults(&buf, []types.AnalysisResult{sampleResult("a"), sampleResult("b")}); err != nil {
		t.Fatalf("WriteResults: %v", err)
	}
	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	defer f.Close()

	want := []string{SheetOverview, SheetCalls, SheetIntelligence, SheetActions, SheetTranscript}
	got := f.GetSheetList()
	if len(got) != len(want) {
		t.Fatalf("sheets=%v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("sheets=%v want %v", got, want)
		}
	}

	calls, _ := f.GetRows(SheetCalls)
	if len(calls) != 3 || calls[1][0] != "a" || calls[1][3] != "NEGATIVE" || calls[2][6] != "Customer called about billing." {
		t.Fatalf("calls=%v", calls)
	}
	actions, _ := f.GetRows(SheetActions)
	if len(actions) != 5 || actions[2][2] != "Escalate to supervisor" {
		t.Fatalf("actions=%v", actions)
	}
	bi, _ := f.GetRows(SheetIntelligence)
	// header + 2 calls * (2 items + 6 scores)
	if len(bi) != 17 {
		t.Fatalf("business intelligence rows=%d", len(bi))
	}
	overview, _ := f.GetRows(SheetOverview)
	if overview[1][0] != "Calls" || overview[1][1] != "2" {
		t.Fatalf("overview=%v", overview)
	}
}

func TestWriteResultEmptyFields(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	if err := WriteResult(&buf, types.AnalysisResult{ID: "x"}); err != nil {
		t.Fatalf("WriteResult: %v", err)
	}
	if buf.Len() == 0 {
		t.Fatalf("empty workbook")
	}
}
