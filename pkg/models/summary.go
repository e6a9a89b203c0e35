package models

import "time"

// RunSummary reports the per-outcome counts of one pipeline stage run.
type RunSummary struct {
	RunID      string        `json:"run_id"`
	Stage      string        `json:"stage"`
	Discovered int           `json:"discovered,omitempty"`
	Skipped    int           `json:"skipped,omitempty"`
	Scraped    int           `json:"scraped,omitempty"`
	Identified int           `json:"identified,omitempty"`
	Ignored    int           `json:"ignored,omitempty"`
	Failed     int           `json:"failed"`
	StartedAt  time.Time     `json:"started_at"`
	Duration   time.Duration `json:"duration"`
}

// Processed returns the number of ads the run advanced to a terminal or
// next-stage state.
func (s *RunSummary) Processed() int {
	return s.Discovered + s.Scraped + s.Identified + s.Ignored
}
