package services

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/atomic"

	"habitd/internal/models"
	"habitd/internal/week"
)

var (
	ErrHabitNotFound = errors.New("habit not found")
	ErrInvalidHabit  = errors.New("invalid habit")
	ErrInvalidDate   = errors.New("invalid completion date")
)

// HabitServiceInterface is the local replica store: the habit table, the
// weekly history table and the sync cursor, plus the dirty bookkeeping the
// orchestrator drains on each push. All writes serialize on one mutex; the
// orchestrator, the rollover engine and user edits all go through here.
type HabitServiceInterface interface {
	List() []*models.HabitRecord
	Get(id string) (*models.HabitRecord, bool)
	Count() int

	Create(owner, name string, targetFrequency int) (*models.HabitRecord, error)
	Update(id, name string, targetFrequency int) (*models.HabitRecord, error)
	ToggleCompletion(id, date string) (*models.HabitRecord, error)
	ResetCompletions(id string) (*models.HabitRecord, error)
	Delete(id string) (*models.HabitRecord, bool)

	ApplyReconciled(rec *models.HabitRecord, base time.Time) bool
	DirtyIDs() []string
	ClearDirty(id string, stamp time.Time) bool
	PendingDeletes() []string
	ClearPendingDelete(id string)

	Snapshots() []*models.WeeklyScoreSnapshot
	PutSnapshot(s *models.WeeklyScoreSnapshot) bool
	SnapshotCount() int

	SyncCursor() string
	SetSyncCursor(weekStart string)

	GetReplica() *models.Replica
	PutReplica(r *models.Replica)

	Generation() uint64
}

type HabitService struct {
	mu         sync.RWMutex
	habits     map[string]*models.HabitRecord
	history    map[string]*models.WeeklyScoreSnapshot
	dirty      map[string]struct{}
	deletes    map[string]struct{}
	cursor     string
	generation atomic.Uint64
	now        func() time.Time
}

func NewHabitService() HabitServiceInterface {
	return &HabitService{
		habits:  make(map[string]*models.HabitRecord),
		history: make(map[string]*models.WeeklyScoreSnapshot),
		dirty:   make(map[string]struct{}),
		deletes: make(map[string]struct{}),
		now:     time.Now,
	}
}

func (hs *HabitService) List() []*models.HabitRecord {
	hs.mu.RLock()
	defer hs.mu.RUnlock()

	out := make([]*models.HabitRecord, 0, len(hs.habits))
	for _, h := range hs.habits {
		out = append(out, h.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (hs *HabitService) Get(id string) (*models.HabitRecord, bool) {
	hs.mu.RLock()
	defer hs.mu.RUnlock()
	h, ok := hs.habits[id]
	if !ok {
		return nil, false
	}
	return h.Clone(), true
}

func (hs *HabitService) Count() int {
	hs.mu.RLock()
	defer hs.mu.RUnlock()
	return len(hs.habits)
}

func (hs *HabitService) Create(owner, name string, targetFrequency int) (*models.HabitRecord, error) {
	if name == "" || targetFrequency < 1 {
		return nil, ErrInvalidHabit
	}

	now := hs.now()
	rec := &models.HabitRecord{
		ID:              uuid.NewString(),
		OwnerID:         owner,
		Name:            name,
		TargetFrequency: targetFrequency,
		Completions:     models.CompletionSet{},
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	hs.mu.Lock()
	defer hs.mu.Unlock()
	hs.habits[rec.ID] = rec
	hs.dirty[rec.ID] = struct{}{}
	hs.generation.Inc()
	return rec.Clone(), nil
}

func (hs *HabitService) Update(id, name string, targetFrequency int) (*models.HabitRecord, error) {
	if name == "" || targetFrequency < 1 {
		return nil, ErrInvalidHabit
	}

	hs.mu.Lock()
	defer hs.mu.Unlock()
	rec, ok := hs.habits[id]
	if !ok {
		return nil, ErrHabitNotFound
	}
	rec.Name = name
	rec.TargetFrequency = targetFrequency
	rec.UpdatedAt = hs.now()
	hs.dirty[id] = struct{}{}
	hs.generation.Inc()
	return rec.Clone(), nil
}

func (hs *HabitService) ToggleCompletion(id, date string) (*models.HabitRecord, error) {
	if !week.ValidDate(date) {
		return nil, ErrInvalidDate
	}

	hs.mu.Lock()
	defer hs.mu.Unlock()
	rec, ok := hs.habits[id]
	if !ok {
		return nil, ErrHabitNotFound
	}
	if rec.Completions.Has(date) {
		rec.Completions.Remove(date)
	} else {
		rec.Completions.Add(date)
	}
	rec.UpdatedAt = hs.now()
	hs.dirty[id] = struct{}{}
	hs.generation.Inc()
	return rec.Clone(), nil
}

// ResetCompletions clears the completion log at a week boundary and stamps
// UpdatedAt so the reset wins over stale remote copies. Clearing an already
// empty set still bumps the stamp, keeping a crashed rollover retry safe.
func (hs *HabitService) ResetCompletions(id string) (*models.HabitRecord, error) {
	hs.mu.Lock()
	defer hs.mu.Unlock()
	rec, ok := hs.habits[id]
	if !ok {
		return nil, ErrHabitNotFound
	}
	rec.Completions = models.CompletionSet{}
	rec.UpdatedAt = hs.now()
	hs.dirty[id] = struct{}{}
	hs.generation.Inc()
	return rec.Clone(), nil
}

// Delete removes the record locally and queues the terminal remote
// delete-by-id. A delete is never inferred from sync: this is the only way a
// record leaves the replica.
func (hs *HabitService) Delete(id string) (*models.HabitRecord, bool) {
	hs.mu.Lock()
	defer hs.mu.Unlock()
	rec, ok := hs.habits[id]
	if !ok {
		return nil, false
	}
	delete(hs.habits, id)
	delete(hs.dirty, id)
	hs.deletes[id] = struct{}{}
	hs.generation.Inc()
	return rec, true
}

// ApplyReconciled installs a merge result as the canonical local state, but
// only while the stored record still matches the snapshot the merge consumed:
// base is that snapshot's UpdatedAt, zero when no local record existed. A
// user edit landing mid-merge moves the stamp, the install is refused and the
// record stays dirty for the next pass to re-merge. The record is not marked
// dirty on install — the merge engine decides separately whether the remote
// needs a write-back. Returns whether the install happened.
func (hs *HabitService) ApplyReconciled(rec *models.HabitRecord, base time.Time) bool {
	hs.mu.Lock()
	defer hs.mu.Unlock()
	if _, deleted := hs.deletes[rec.ID]; deleted {
		// A pull raced a local delete; the delete is terminal.
		return false
	}
	cur, ok := hs.habits[rec.ID]
	if ok {
		if !cur.UpdatedAt.Equal(base) {
			return false
		}
	} else if !base.IsZero() {
		// The record vanished while the merge ran.
		return false
	}
	hs.habits[rec.ID] = rec.Clone()
	hs.generation.Inc()
	return true
}

func (hs *HabitService) DirtyIDs() []string {
	hs.mu.RLock()
	defer hs.mu.RUnlock()
	return sortedKeys(hs.dirty)
}

// ClearDirty drops the push marker, but only while the record still carries
// the stamp the push consumed. An edit landing after that snapshot was taken
// moves the stamp and keeps the record queued for the next pass.
func (hs *HabitService) ClearDirty(id string, stamp time.Time) bool {
	hs.mu.Lock()
	defer hs.mu.Unlock()
	if cur, ok := hs.habits[id]; ok && !cur.UpdatedAt.Equal(stamp) {
		return false
	}
	delete(hs.dirty, id)
	return true
}

func (hs *HabitService) PendingDeletes() []string {
	hs.mu.RLock()
	defer hs.mu.RUnlock()
	return sortedKeys(hs.deletes)
}

func (hs *HabitService) ClearPendingDelete(id string) {
	hs.mu.Lock()
	defer hs.mu.Unlock()
	delete(hs.deletes, id)
}

func (hs *HabitService) Snapshots() []*models.WeeklyScoreSnapshot {
	hs.mu.RLock()
	defer hs.mu.RUnlock()

	out := make([]*models.WeeklyScoreSnapshot, 0, len(hs.history))
	for _, s := range hs.history {
		cp := *s
		out = append(out, &cp)
	}
	// Newest week first, the order the history view wants.
	sort.Slice(out, func(i, j int) bool { return out[i].WeekStart > out[j].WeekStart })
	return out
}

// PutSnapshot archives a weekly score. Snapshots are write-once: a second
// write for the same weekStart is a no-op and returns false.
func (hs *HabitService) PutSnapshot(s *models.WeeklyScoreSnapshot) bool {
	hs.mu.Lock()
	defer hs.mu.Unlock()
	if _, exists := hs.history[s.WeekStart]; exists {
		return false
	}
	cp := *s
	hs.history[s.WeekStart] = &cp
	hs.generation.Inc()
	return true
}

func (hs *HabitService) SnapshotCount() int {
	hs.mu.RLock()
	defer hs.mu.RUnlock()
	return len(hs.history)
}

func (hs *HabitService) SyncCursor() string {
	hs.mu.RLock()
	defer hs.mu.RUnlock()
	return hs.cursor
}

func (hs *HabitService) SetSyncCursor(weekStart string) {
	hs.mu.Lock()
	defer hs.mu.Unlock()
	hs.cursor = weekStart
	hs.generation.Inc()
}

// GetReplica deep-copies the whole store into the persistence envelope.
func (hs *HabitService) GetReplica() *models.Replica {
	hs.mu.RLock()
	defer hs.mu.RUnlock()

	r := &models.Replica{
		Version:        models.ReplicaVersion,
		Habits:         make(map[string]*models.HabitRecord, len(hs.habits)),
		History:        make(map[string]*models.WeeklyScoreSnapshot, len(hs.history)),
		SyncCursor:     hs.cursor,
		PendingDeletes: sortedKeys(hs.deletes),
	}
	for id, h := range hs.habits {
		r.Habits[id] = h.Clone()
	}
	for wk, s := range hs.history {
		cp := *s
		r.History[wk] = &cp
	}
	return r
}

// PutReplica restores the store from a decoded envelope. Restored habits are
// marked dirty so anything edited just before a crash is pushed again —
// the remote upsert is idempotent, re-pushing clean records is harmless.
func (hs *HabitService) PutReplica(r *models.Replica) {
	hs.mu.Lock()
	defer hs.mu.Unlock()

	hs.habits = make(map[string]*models.HabitRecord, len(r.Habits))
	hs.dirty = make(map[string]struct{}, len(r.Habits))
	for id, h := range r.Habits {
		if h == nil || id == "" {
			continue
		}
		if h.Completions == nil {
			h.Completions = models.CompletionSet{}
		}
		hs.habits[id] = h
		hs.dirty[id] = struct{}{}
	}

	hs.history = make(map[string]*models.WeeklyScoreSnapshot, len(r.History))
	for wk, s := range r.History {
		if s != nil {
			hs.history[wk] = s
		}
	}

	hs.deletes = make(map[string]struct{}, len(r.PendingDeletes))
	for _, id := range r.PendingDeletes {
		hs.deletes[id] = struct{}{}
	}

	hs.cursor = r.SyncCursor
	hs.generation.Inc()
}

// Generation increments on every replica mutation; read caches key on it so
// they invalidate without explicit flushes.
func (hs *HabitService) Generation() uint64 {
	return hs.generation.Load()
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
