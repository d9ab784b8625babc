package model

import "time"

type PollerState struct {
	Cursor        int64         `json:"cursor"`
	LastError     string        `json:"last_error,omitempty"`
	LastCycleAt   *time.Time    `json:"last_cycle_at"`
	LastSuccessAt *time.Time    `json:"last_success_at"`
	Cycles        int64         `json:"cycles"`
	Failures      int64         `json:"failures"`
	Interval      time.Duration `json:"interval_ns"`
}
