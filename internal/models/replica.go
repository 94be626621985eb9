package models

// Replica is the V2 persistence envelope for the local store: the habit
// table, the weekly history table and the rollover cursor, with an explicit
// version field. V1 files (bare habit map, no envelope) still decode via the
// FileManager's fallback ladder.
type Replica struct {
	Version    int                             `json:"version"`
	Habits     map[string]*HabitRecord         `json:"habits"`
	History    map[string]*WeeklyScoreSnapshot `json:"history"`
	SyncCursor string                          `json:"sync_cursor"`
	// PendingDeletes carries queued remote delete-by-id requests across
	// restarts so an offline delete still reaches the ledger.
	PendingDeletes []string `json:"pending_deletes,omitempty"`
}

const ReplicaVersion = 2
