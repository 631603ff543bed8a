package model

import "time"

// Comparison is one recorded pipeline run.
type Comparison struct {
	ID             int64     `json:"id"`
	RunID          string    `json:"run_id"`
	Directory      string    `json:"directory"`
	Newest         string    `json:"newest"`
	Previous       string    `json:"previous"`
	Strategy       string    `json:"strategy"`
	Outcome        string    `json:"outcome"`
	Score          float64   `json:"score"`
	Threshold      float64   `json:"threshold"`
	ChangeDetected bool      `json:"change_detected"`
	Notified       bool      `json:"notified"`
	DurationMs     int64     `json:"duration_ms"`
	CreatedAt      time.Time `json:"created_at"`
}
