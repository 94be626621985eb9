package syncer

import (
	"time"

	"habitd/internal/models"
)

type MergeAction string

const (
	ActionNoOp        MergeAction = "no-op"
	ActionCreateLocal MergeAction = "create-local"
	ActionAdoptRemote MergeAction = "adopt-remote"
	ActionKeepLocal   MergeAction = "keep-local"
	ActionWriteBack   MergeAction = "write-back"
)

// MergeResult is the outcome of reconciling one local/remote record pair.
// Record is the canonical reconciled state; UpdateLocal and WriteBack say
// which side must be brought up to it.
type MergeResult struct {
	Record      *models.HabitRecord
	Action      MergeAction
	UpdateLocal bool
	WriteBack   bool
}

// Merge reconciles a local and a remote record sharing an id. Either side
// may be nil (absent). The completion log only ever merges by set union —
// either replica may hold a completion the other missed, so union is the
// only operation that cannot lose one. Scalar fields follow whichever side
// has the newer updatedAt, as one group. Merge never fails; malformed input
// is degraded to defaults before it gets here.
//
// now is used to stamp a growth-only write-back so its timestamp is never
// behind the remote's: a push carrying an older updatedAt would be discarded
// by the next reader of the remote store.
func Merge(local, remote *models.HabitRecord, now time.Time) MergeResult {
	switch {
	case local == nil && remote == nil:
		return MergeResult{Action: ActionNoOp}
	case local == nil:
		return MergeResult{Record: remote.Clone(), Action: ActionCreateLocal, UpdateLocal: true}
	case remote == nil:
		// Created offline; the remote has never seen it.
		return MergeResult{Record: local.Clone(), Action: ActionWriteBack, WriteBack: true}
	}

	combined := local.Completions.Union(remote.Completions)
	remoteNewer := remote.UpdatedAt.After(local.UpdatedAt)
	localNewer := local.UpdatedAt.After(remote.UpdatedAt)

	rec := &models.HabitRecord{
		ID:          local.ID,
		OwnerID:     local.OwnerID,
		Completions: combined,
		CreatedAt:   earliestCreated(local.CreatedAt, remote.CreatedAt),
	}
	if remoteNewer {
		rec.Name = remote.Name
		rec.TargetFrequency = remote.TargetFrequency
	} else {
		rec.Name = local.Name
		rec.TargetFrequency = local.TargetFrequency
	}

	localGrew := len(combined) > len(local.Completions)
	remoteGrew := len(combined) > len(remote.Completions)

	updateLocal := remoteNewer || localGrew
	writeBack := remoteGrew || localNewer

	rec.UpdatedAt = latest(local.UpdatedAt, remote.UpdatedAt)
	if writeBack && !localNewer {
		// Write-back triggered purely by completion growth: stamp fresh so
		// the pushed record is at least as new as what the remote holds.
		if now.After(rec.UpdatedAt) {
			rec.UpdatedAt = now
		}
	}

	action := ActionNoOp
	switch {
	case writeBack:
		action = ActionWriteBack
	case updateLocal:
		action = ActionAdoptRemote
	case rec.Name != remote.Name || rec.TargetFrequency != remote.TargetFrequency:
		// Equal timestamps, differing scalars: local stays canonical.
		action = ActionKeepLocal
	}

	return MergeResult{
		Record:      rec,
		Action:      action,
		UpdateLocal: updateLocal,
		WriteBack:   writeBack,
	}
}

// earliestCreated picks the earlier creation time, guarding against a
// malformed side whose zero value would otherwise always win.
func earliestCreated(a, b time.Time) time.Time {
	if a.IsZero() {
		return b
	}
	if b.IsZero() {
		return a
	}
	if b.Before(a) {
		return b
	}
	return a
}

func latest(a, b time.Time) time.Time {
	if b.After(a) {
		return b
	}
	return a
}
