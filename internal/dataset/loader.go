// Package dataset reads batch manifests and writes analysis workbooks.
package dataset

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"call-insights-go/internal/logger"
)

// CallRecord is one manifest row worth transcribing.
type CallRecord struct {
	Row      int    `json:"row"`
	CallID   string `json:"call_id"`
	CallType string `json:"call_type,omitempty"`
	AudioURL string `json:"audio_url"`
}

type columns struct {
	audio, callID, callType int
}

// detectColumns finds columns by header heuristics. Audio wins over id when a
// header matches both, e.g. "recording id".
func detectColumns(header []string) columns {
	c := columns{audio: -1, callID: -1, callType: -1}
	for i, h := range header {
		l := strings.ToLower(strings.TrimSpace(h))
		switch {
		case strings.Contains(l, "audio") || strings.Contains(l, "record") || strings.Contains(l, "url") ||
			strings.Contains(l, "call") && strings.Contains(l, "link"):
			if c.audio == -1 {
				c.audio = i
			}
		case strings.Contains(l, "call id") || strings.Contains(l, "callid") || l == "id" || strings.HasSuffix(l, "_id"):
			if c.callID == -1 {
				c.callID = i
			}
		case strings.Contains(l, "type"):
			if c.callType == -1 {
				c.callType = i
			}
		}
	}
	return c
}

func cell(row []string, idx int) string {
	if idx >= 0 && idx < len(row) {
		return strings.TrimSpace(row[idx])
	}
	return ""
}

// Load reads the first sheet of the manifest. Rows whose audio cell is not an
// http(s) URL are skipped; rows without an id get "row-<n>".
func Load(path string) ([]CallRecord, error) {
	log := logger.Component("dataset").WithField("path", path)

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}
	if len(rows) <= 1 {
		return nil, fmt.Errorf("no data rows")
	}
	cols := detectColumns(rows[0])
	if cols.audio == -1 {
		return nil, fmt.Errorf("no audio url column in header %v", rows[0])
	}
	log.WithField("audio_col", cols.audio).WithField("id_col", cols.callID).Debug("detected manifest columns")

	var out []CallRecord
	skipped := 0
	for i, r := range rows[1:] {
		rec := CallRecord{
			Row:      i + 2,
			CallID:   cell(r, cols.callID),
			CallType: cell(r, cols.callType),
			AudioURL: cell(r, cols.audio),
		}
		u := strings.ToLower(rec.AudioURL)
		if !strings.HasPrefix(u, "http://") && !strings.HasPrefix(u, "https://") {
			skipped++
			continue
		}
		if rec.CallID == "" {
			rec.CallID = fmt.Sprintf("row-%d", rec.Row)
		}
		out = append(out, rec)
	}
	log.WithField("calls", len(out)).WithField("skipped", skipped).Info("manifest loaded")
	return out, nil
}
