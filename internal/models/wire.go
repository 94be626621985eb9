package models

import (
	"strings"
	"time"

	json "github.com/goccy/go-json"
)

// RemoteTask is a habit row as the remote ledger returns it: snake_case
// columns, completions as a JSON-encoded string. Every field is decoded
// defensively — a row missing fields still yields a usable stand-in record.
type RemoteTask struct {
	UUID        string          `json:"uuid"`
	Name        string          `json:"name"`
	TargetFreq  int             `json:"target_freq"`
	Completions json.RawMessage `json:"completions"`
	CreatedAt   string          `json:"created_at"`
	UpdatedAt   string          `json:"updated_at"`
}

// PushTask is the upsert body the remote ledger expects (camelCase).
type PushTask struct {
	UUID        string   `json:"uuid"`
	Name        string   `json:"name"`
	TargetFreq  int      `json:"targetFreq"`
	Completions []string `json:"completions"`
	UpdatedAt   string   `json:"updatedAt"`
}

// ToRecord converts a pulled row into a HabitRecord scoped to owner,
// substituting safe defaults for anything malformed.
func (rt *RemoteTask) ToRecord(owner string) *HabitRecord {
	target := rt.TargetFreq
	if target < 1 {
		target = 1
	}
	created := ParseWireTime(rt.CreatedAt)
	updated := ParseWireTime(rt.UpdatedAt)
	if updated.Before(created) {
		updated = created
	}
	completions := CompletionSet{}
	if len(rt.Completions) > 0 {
		completions = DecodeCompletions(rt.Completions)
	}
	return &HabitRecord{
		ID:              rt.UUID,
		OwnerID:         owner,
		Name:            rt.Name,
		TargetFrequency: target,
		Completions:     completions,
		CreatedAt:       created,
		UpdatedAt:       updated,
	}
}

// NewPushTask builds the upsert body for a record. The completion log is
// sent in its sorted array form so identical records encode identically,
// keeping the upsert retry-safe.
func NewPushTask(rec *HabitRecord) PushTask {
	return PushTask{
		UUID:        rec.ID,
		Name:        rec.Name,
		TargetFreq:  rec.TargetFrequency,
		Completions: rec.Completions.Dates(),
		UpdatedAt:   FormatWireTime(rec.UpdatedAt),
	}
}

// ParseWireTime reads a remote timestamp. The ledger writes RFC 3339 on
// upsert but its column default is SQL "YYYY-MM-DD HH:MM:SS"; both forms
// occur in old rows. Anything else decodes to the zero time, which loses
// every recency comparison.
func ParseWireTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t
	}
	if t, err := time.Parse("2006-01-02 15:04:05", strings.TrimSpace(s)); err == nil {
		return t.UTC()
	}
	return time.Time{}
}

func FormatWireTime(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z07:00")
}
