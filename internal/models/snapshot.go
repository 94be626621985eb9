package models

// WeeklyScoreSnapshot is the archived score of one closed week.
// Append-only: written once at rollover, never recomputed.
type WeeklyScoreSnapshot struct {
	WeekStart string `json:"week_start"`
	Score     int    `json:"score"`
}
