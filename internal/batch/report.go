package batch

import (
	"encoding/json"
	"os"
	"path/filepath"

	"go.uber.org/multierr"
)

// ReportEntry is one asset in report.json.
type ReportEntry struct {
	Asset      string   `json:"asset"`
	Status     string   `json:"status"`
	Kind       string   `json:"kind,omitempty"`
	Written    int      `json:"written"`
	Warnings   int      `json:"warnings,omitempty"`
	Messages   []string `json:"messages,omitempty"`
	DurationMS int64    `json:"duration_ms"`
}

// ReportFile is the document written to report.json.
type ReportFile struct {
	Processed int           `json:"processed"`
	Succeeded int           `json:"succeeded"`
	Skipped   int           `json:"skipped"`
	Errored   int           `json:"errored"`
	Canceled  bool          `json:"canceled,omitempty"`
	Seconds   float64       `json:"seconds"`
	Assets    []ReportEntry `json:"assets"`
}

// Status values of a report entry.
const (
	StatusOK      = "ok"
	StatusSkipped = "skipped"
	StatusFailed  = "failed"
)

// NewReportFile builds the report document of a summary.
func NewReportFile(s Summary) ReportFile {
	f := ReportFile{
		Processed: s.Processed,
		Succeeded: s.Succeeded,
		Skipped:   s.Skipped,
		Errored:   s.Errored,
		Canceled:  s.Canceled,
		Seconds:   s.Duration.Seconds(),
		Assets:    make([]ReportEntry, 0, len(s.Reports)),
	}
	for _, r := range s.Reports {
		e := ReportEntry{
			Asset:      r.Asset,
			Status:     StatusOK,
			Written:    r.Written,
			Warnings:   len(multierr.Errors(r.Warnings)),
			Messages:   r.Messages,
			DurationMS: r.Duration.Milliseconds(),
		}
		switch {
		case r.Err != nil:
			e.Status = StatusFailed
			e.Kind = string(r.Kind())
		case r.Skipped:
			e.Status = StatusSkipped
		}
		f.Assets = append(f.Assets, e)
	}
	return f
}

// WriteReport writes the summary as JSON to path.
func WriteReport(path string, s Summary) error {
	data, err := json.MarshalIndent(NewReportFile(s), "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
