package types

import "time"

// SyncStats tracks the health of the background refresh loop.
type SyncStats struct {
	StartTime          time.Time `json:"start_time"`
	LastUpdate         time.Time `json:"last_update"`
	CompletedRefreshes int64     `json:"completed_refreshes"`
	FailedRefreshes    int64     `json:"failed_refreshes"`
	ActiveSessions     int       `json:"active_sessions"`
	HistoryRecords     int       `json:"history_records"`
}
