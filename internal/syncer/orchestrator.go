package syncer

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/atomic"

	"habitd/internal/models"
	"habitd/internal/providers"
	"habitd/internal/services"
)

// SyncReport summarizes one sync pass.
type SyncReport struct {
	CreatedLocal  int  `json:"created_local"`
	UpdatedLocal  int  `json:"updated_local"`
	Pushed        int  `json:"pushed"`
	DeletedRemote int  `json:"deleted_remote"`
	FailedRecords int  `json:"failed_records"`
	Offline       bool `json:"offline"`
	Skipped       bool `json:"skipped"`
}

type OrchestratorInterface interface {
	RunSync(ctx context.Context, owner string) (SyncReport, error)
	PushOne(ctx context.Context, owner string, rec *models.HabitRecord) error
	Running(owner string) bool
}

// Orchestrator drives full sync passes: pull the owner's remote set, merge
// record by record against the local replica, apply local writes, then push
// whatever the remote is missing. Per owner, at most one pass is in flight;
// a trigger landing during a pass is skipped, not queued.
type Orchestrator struct {
	service services.HabitServiceInterface
	remote  RemoteClientInterface
	metrics providers.MetricsProviderInterface
	logger  providers.Logger

	mu      sync.Mutex
	running map[string]*atomic.Bool
	now     func() time.Time
}

func NewOrchestrator(service services.HabitServiceInterface, remote RemoteClientInterface, metrics providers.MetricsProviderInterface, logger providers.Logger) OrchestratorInterface {
	return &Orchestrator{
		service: service,
		remote:  remote,
		metrics: metrics,
		logger:  logger,
		running: make(map[string]*atomic.Bool),
		now:     time.Now,
	}
}

func (o *Orchestrator) state(owner string) *atomic.Bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	st, ok := o.running[owner]
	if !ok {
		st = atomic.NewBool(false)
		o.running[owner] = st
	}
	return st
}

func (o *Orchestrator) Running(owner string) bool {
	return o.state(owner).Load()
}

// RunSync never surfaces transport failures: the remote being unreachable
// degrades the pass to local-only mode and the next scheduled run retries.
// The only error it returns is a missing owner — syncing without a verified
// scope is refused outright.
func (o *Orchestrator) RunSync(ctx context.Context, owner string) (SyncReport, error) {
	var report SyncReport

	if owner == "" {
		return report, fmt.Errorf("%w: sync requires an owner", providers.ErrIdentity)
	}

	st := o.state(owner)
	if !st.CompareAndSwap(false, true) {
		report.Skipped = true
		o.metrics.IncSyncPasses("skipped")
		return report, nil
	}
	defer st.Store(false)

	start := o.now()
	defer func() { o.metrics.ObserveSyncDuration(time.Since(start)) }()

	o.flushDeletes(ctx, owner, &report)

	rows, err := o.remote.List(ctx, owner)
	if err != nil {
		o.logger.Warnf(providers.TypeSync, "Pull failed, staying local-only: %s", err)
		o.metrics.IncSyncPasses("offline")
		report.Offline = true
		return report, nil
	}
	o.metrics.AddRecordsPulled(len(rows))

	remoteSeen := o.mergeRemote(ctx, owner, rows, &report)
	o.pushLocalOnly(ctx, owner, remoteSeen, &report)

	if report.Offline {
		o.metrics.IncSyncPasses("offline")
	} else {
		o.metrics.IncSyncPasses("ok")
	}
	o.logger.Infof(providers.TypeSync,
		"Sync pass for %s: pulled=%d created=%d updated=%d pushed=%d deleted=%d",
		owner, len(rows), report.CreatedLocal, report.UpdatedLocal, report.Pushed, report.DeletedRemote)
	return report, nil
}

// flushDeletes sends queued terminal deletes before merging, so a pulled row
// for a locally deleted record cannot resurrect it. Failures keep the id
// queued for the next pass.
func (o *Orchestrator) flushDeletes(ctx context.Context, owner string, report *SyncReport) {
	for _, id := range o.service.PendingDeletes() {
		if err := o.remote.Delete(ctx, owner, id); err != nil {
			o.logger.Warnf(providers.TypeSync, "Remote delete of %s deferred: %s", id, err)
			report.Offline = true
			continue
		}
		o.service.ClearPendingDelete(id)
		report.DeletedRemote++
	}
}

// mergeRemote merges the pulled rows sequentially by id and returns the set
// of ids the remote knows about. A malformed row degrades to a stand-in
// record; a row without an id cannot be merged and is dropped with a warning.
func (o *Orchestrator) mergeRemote(ctx context.Context, owner string, rows []*models.RemoteTask, report *SyncReport) map[string]struct{} {
	sort.Slice(rows, func(i, j int) bool { return rows[i].UUID < rows[j].UUID })

	seen := make(map[string]struct{}, len(rows))
	for _, row := range rows {
		if row == nil || row.UUID == "" {
			o.logger.Warnf(providers.TypeSync, "Dropping remote row without id")
			report.FailedRecords++
			continue
		}
		seen[row.UUID] = struct{}{}

		remote := row.ToRecord(owner)
		local, hadLocal := o.service.Get(row.UUID)
		base := time.Time{}
		if hadLocal {
			base = local.UpdatedAt
		}

		res := Merge(local, remote, o.now())
		o.metrics.IncMergeAction(string(res.Action))

		if res.UpdateLocal {
			if !o.service.ApplyReconciled(res.Record, base) {
				// An edit or delete landed between the snapshot read and
				// here; the record stays dirty and the next pass re-merges
				// the fresh state.
				o.logger.Infof(providers.TypeSync, "Record %s changed during merge, deferring", res.Record.ID)
				continue
			}
			if hadLocal {
				report.UpdatedLocal++
			} else {
				report.CreatedLocal++
			}
		}

		// The stamp the stored record carries now, assuming no edit raced us.
		stamp := base
		if res.UpdateLocal {
			stamp = res.Record.UpdatedAt
		}

		if res.WriteBack {
			if err := o.PushOne(ctx, owner, res.Record); err != nil {
				o.logger.Warnf(providers.TypeSync, "Write-back of %s deferred: %s", res.Record.ID, err)
				report.Offline = true
				continue
			}
			report.Pushed++
			o.service.ClearDirty(res.Record.ID, stamp)
		} else if hadLocal && res.Action != ActionKeepLocal {
			// Remote already holds everything local had; nothing left to push.
			o.service.ClearDirty(res.Record.ID, stamp)
		}
	}
	return seen
}

// pushLocalOnly uploads every record the pull did not mention — offline
// creations, but also clean records the remote has lost and must be handed
// back. The upsert is idempotent, so re-sending a record the remote merely
// forgot to list is harmless.
func (o *Orchestrator) pushLocalOnly(ctx context.Context, owner string, remoteSeen map[string]struct{}, report *SyncReport) {
	for _, rec := range o.service.List() {
		if _, ok := remoteSeen[rec.ID]; ok {
			continue
		}
		if err := o.PushOne(ctx, owner, rec); err != nil {
			o.logger.Warnf(providers.TypeSync, "Push of %s deferred: %s", rec.ID, err)
			report.Offline = true
			continue
		}
		report.Pushed++
		o.service.ClearDirty(rec.ID, rec.UpdatedAt)
	}
}

// PushOne is an idempotent upsert of a single record, safe to retry with
// identical content.
func (o *Orchestrator) PushOne(ctx context.Context, owner string, rec *models.HabitRecord) error {
	if err := o.remote.Upsert(ctx, owner, rec); err != nil {
		return err
	}
	o.metrics.AddRecordsPushed(1)
	return nil
}
