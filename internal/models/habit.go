package models

import "time"

// HabitRecord is one recurring habit as held in the local replica.
// ID is the merge key across replicas and never changes; OwnerID scopes
// every remote call and never changes either.
type HabitRecord struct {
	ID              string        `json:"id"`
	OwnerID         string        `json:"owner_id"`
	Name            string        `json:"name"`
	TargetFrequency int           `json:"target_frequency"`
	Completions     CompletionSet `json:"completions"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

func (h *HabitRecord) Clone() *HabitRecord {
	if h == nil {
		return nil
	}
	out := *h
	out.Completions = h.Completions.Clone()
	return &out
}
