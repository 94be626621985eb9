package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"habitd/internal/models"
)

func TestHabitService_CreateAssignsIdentityAndStamps(t *testing.T) {
	hs := NewHabitService().(*HabitService)
	fixed := time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC)
	hs.now = func() time.Time { return fixed }

	rec, err := hs.Create("dev@example.com", "run", 3)
	require.NoError(t, err)
	assert.NotEmpty(t, rec.ID)
	assert.Equal(t, "dev@example.com", rec.OwnerID)
	assert.Equal(t, fixed, rec.CreatedAt)
	assert.Equal(t, fixed, rec.UpdatedAt)
	assert.NotNil(t, rec.Completions)

	assert.Equal(t, []string{rec.ID}, hs.DirtyIDs())
	assert.Equal(t, 1, hs.Count())
}

func TestHabitService_CreateRejectsInvalid(t *testing.T) {
	hs := NewHabitService()

	_, err := hs.Create("o", "", 3)
	assert.ErrorIs(t, err, ErrInvalidHabit)

	_, err = hs.Create("o", "run", 0)
	assert.ErrorIs(t, err, ErrInvalidHabit)
}

func TestHabitService_UpdateBumpsStampAndDirty(t *testing.T) {
	hs := NewHabitService().(*HabitService)
	rec, err := hs.Create("o", "run", 3)
	require.NoError(t, err)
	hs.ClearDirty(rec.ID, rec.UpdatedAt)

	later := rec.UpdatedAt.Add(time.Hour)
	hs.now = func() time.Time { return later }

	got, err := hs.Update(rec.ID, "run daily", 5)
	require.NoError(t, err)
	assert.Equal(t, "run daily", got.Name)
	assert.Equal(t, 5, got.TargetFrequency)
	assert.Equal(t, later, got.UpdatedAt)
	assert.Equal(t, []string{rec.ID}, hs.DirtyIDs())

	_, err = hs.Update("missing", "x", 1)
	assert.ErrorIs(t, err, ErrHabitNotFound)
}

func TestHabitService_ToggleCompletion(t *testing.T) {
	hs := NewHabitService()
	rec, err := hs.Create("o", "run", 3)
	require.NoError(t, err)

	got, err := hs.ToggleCompletion(rec.ID, "2024-01-08")
	require.NoError(t, err)
	assert.True(t, got.Completions.Has("2024-01-08"))

	// Toggling again removes it.
	got, err = hs.ToggleCompletion(rec.ID, "2024-01-08")
	require.NoError(t, err)
	assert.False(t, got.Completions.Has("2024-01-08"))

	_, err = hs.ToggleCompletion(rec.ID, "January 8th")
	assert.ErrorIs(t, err, ErrInvalidDate)

	_, err = hs.ToggleCompletion("missing", "2024-01-08")
	assert.ErrorIs(t, err, ErrHabitNotFound)
}

func TestHabitService_ResetCompletionsStampsEvenWhenEmpty(t *testing.T) {
	hs := NewHabitService().(*HabitService)
	rec, err := hs.Create("o", "run", 3)
	require.NoError(t, err)
	hs.ClearDirty(rec.ID, rec.UpdatedAt)

	later := rec.UpdatedAt.Add(time.Hour)
	hs.now = func() time.Time { return later }

	got, err := hs.ResetCompletions(rec.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Completions)
	assert.Equal(t, later, got.UpdatedAt)
	assert.Equal(t, []string{rec.ID}, hs.DirtyIDs())
}

func TestHabitService_DeleteQueuesTerminalDelete(t *testing.T) {
	hs := NewHabitService()
	rec, err := hs.Create("o", "run", 3)
	require.NoError(t, err)

	_, ok := hs.Delete(rec.ID)
	require.True(t, ok)
	assert.Equal(t, 0, hs.Count())
	assert.Empty(t, hs.DirtyIDs())
	assert.Equal(t, []string{rec.ID}, hs.PendingDeletes())

	_, ok = hs.Delete(rec.ID)
	assert.False(t, ok)

	hs.ClearPendingDelete(rec.ID)
	assert.Empty(t, hs.PendingDeletes())
}

func TestHabitService_ApplyReconciledRespectsTerminalDelete(t *testing.T) {
	hs := NewHabitService()
	rec, err := hs.Create("o", "run", 3)
	require.NoError(t, err)
	hs.Delete(rec.ID)

	assert.False(t, hs.ApplyReconciled(&models.HabitRecord{ID: rec.ID, Name: "zombie"}, rec.UpdatedAt))
	_, ok := hs.Get(rec.ID)
	assert.False(t, ok)

	// A different id installs normally, without marking dirty.
	assert.True(t, hs.ApplyReconciled(&models.HabitRecord{ID: "fresh", Name: "pulled"}, time.Time{}))
	got, ok := hs.Get("fresh")
	require.True(t, ok)
	assert.Equal(t, "pulled", got.Name)
	assert.Empty(t, hs.DirtyIDs())
}

func TestHabitService_ApplyReconciledRefusesMovedStamp(t *testing.T) {
	hs := NewHabitService().(*HabitService)
	rec, err := hs.Create("o", "run", 3)
	require.NoError(t, err)
	base := rec.UpdatedAt

	// An edit lands after the sync pass snapshotted the record.
	hs.now = func() time.Time { return base.Add(time.Minute) }
	edited, err := hs.ToggleCompletion(rec.ID, "2024-01-03")
	require.NoError(t, err)

	stale := rec.Clone()
	stale.Completions = models.NewCompletionSet("2024-01-01")
	assert.False(t, hs.ApplyReconciled(stale, base))

	got, ok := hs.Get(rec.ID)
	require.True(t, ok)
	assert.True(t, got.Completions.Has("2024-01-03"), "the racing edit must survive")
	assert.Equal(t, edited.UpdatedAt, got.UpdatedAt)

	// A record that appeared where none was snapshotted is refused too.
	assert.False(t, hs.ApplyReconciled(stale, time.Time{}))

	// With the matching stamp the install goes through.
	stale.UpdatedAt = edited.UpdatedAt
	assert.True(t, hs.ApplyReconciled(stale, edited.UpdatedAt))
}

func TestHabitService_ClearDirtyRespectsStamp(t *testing.T) {
	hs := NewHabitService()
	rec, err := hs.Create("o", "run", 3)
	require.NoError(t, err)

	assert.False(t, hs.ClearDirty(rec.ID, rec.UpdatedAt.Add(-time.Second)))
	assert.Equal(t, []string{rec.ID}, hs.DirtyIDs(), "a stale stamp must not drop the push marker")

	assert.True(t, hs.ClearDirty(rec.ID, rec.UpdatedAt))
	assert.Empty(t, hs.DirtyIDs())

	// A marker for a record that no longer exists always clears.
	assert.True(t, hs.ClearDirty("gone", time.Time{}))
}

func TestHabitService_ListOrderedByCreation(t *testing.T) {
	hs := NewHabitService().(*HabitService)
	base := time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC)

	hs.now = func() time.Time { return base.Add(time.Hour) }
	second, _ := hs.Create("o", "second", 1)
	hs.now = func() time.Time { return base }
	first, _ := hs.Create("o", "first", 1)

	list := hs.List()
	require.Len(t, list, 2)
	assert.Equal(t, first.ID, list[0].ID)
	assert.Equal(t, second.ID, list[1].ID)

	// List hands out copies.
	list[0].Name = "mutated"
	got, _ := hs.Get(first.ID)
	assert.Equal(t, "first", got.Name)
}

func TestHabitService_SnapshotsWriteOnce(t *testing.T) {
	hs := NewHabitService()

	assert.True(t, hs.PutSnapshot(&models.WeeklyScoreSnapshot{WeekStart: "2024-01-07", Score: 67}))
	assert.False(t, hs.PutSnapshot(&models.WeeklyScoreSnapshot{WeekStart: "2024-01-07", Score: 0}))
	assert.True(t, hs.PutSnapshot(&models.WeeklyScoreSnapshot{WeekStart: "2024-01-14", Score: 10}))

	snaps := hs.Snapshots()
	require.Len(t, snaps, 2)
	// Newest first, the first write preserved.
	assert.Equal(t, "2024-01-14", snaps[0].WeekStart)
	assert.Equal(t, "2024-01-07", snaps[1].WeekStart)
	assert.Equal(t, 67, snaps[1].Score)
	assert.Equal(t, 2, hs.SnapshotCount())
}

func TestHabitService_GenerationTracksMutations(t *testing.T) {
	hs := NewHabitService()
	g0 := hs.Generation()

	rec, _ := hs.Create("o", "run", 3)
	g1 := hs.Generation()
	assert.Greater(t, g1, g0)

	hs.List()
	assert.Equal(t, g1, hs.Generation(), "reads must not advance the generation")

	hs.ToggleCompletion(rec.ID, "2024-01-08")
	assert.Greater(t, hs.Generation(), g1)
}

func TestHabitService_ReplicaRoundTrip(t *testing.T) {
	hs := NewHabitService()
	rec, err := hs.Create("o", "run", 3)
	require.NoError(t, err)
	_, err = hs.ToggleCompletion(rec.ID, "2024-01-08")
	require.NoError(t, err)
	hs.PutSnapshot(&models.WeeklyScoreSnapshot{WeekStart: "2024-01-07", Score: 50})
	hs.SetSyncCursor("2024-01-14")
	deleted, err := hs.Create("o", "doomed", 1)
	require.NoError(t, err)
	hs.Delete(deleted.ID)

	replica := hs.GetReplica()
	assert.Equal(t, models.ReplicaVersion, replica.Version)

	// Mutating the envelope must not touch the live store.
	replica.Habits[rec.ID].Name = "mutated"
	got, _ := hs.Get(rec.ID)
	assert.Equal(t, "run", got.Name)
	replica.Habits[rec.ID].Name = "run"

	restored := NewHabitService()
	restored.PutReplica(replica)

	assert.Equal(t, 1, restored.Count())
	assert.Equal(t, "2024-01-14", restored.SyncCursor())
	assert.Equal(t, 1, restored.SnapshotCount())
	assert.Equal(t, []string{deleted.ID}, restored.PendingDeletes())

	rt, ok := restored.Get(rec.ID)
	require.True(t, ok)
	assert.True(t, rt.Completions.Has("2024-01-08"))

	// Everything restored is dirty: the next pass re-pushes, harmlessly.
	assert.Equal(t, []string{rec.ID}, restored.DirtyIDs())
}
