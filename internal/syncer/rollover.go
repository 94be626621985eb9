package syncer

import (
	"context"
	"math"
	"time"

	"habitd/internal/models"
	"habitd/internal/providers"
	"habitd/internal/services"
	"habitd/internal/structures"
	"habitd/internal/week"
)

// RolloverEngine closes out a scoring week: when the canonical week key
// moves past the persisted cursor it archives the closing week's score,
// clears every record's completions and pushes the resets out. The cursor
// makes the whole transition idempotent — re-running after a crash rewrites
// nothing (the snapshot is write-once, clearing an empty set is a no-op).
type RolloverEngine struct {
	conf         *structures.Config
	service      services.HabitServiceInterface
	orchestrator OrchestratorInterface
	metrics      providers.MetricsProviderInterface
	logger       providers.Logger
	now          func() time.Time
}

func NewRolloverEngine(conf *structures.Config, service services.HabitServiceInterface, orchestrator OrchestratorInterface, metrics providers.MetricsProviderInterface, logger providers.Logger) *RolloverEngine {
	return &RolloverEngine{
		conf:         conf,
		service:      service,
		orchestrator: orchestrator,
		metrics:      metrics,
		logger:       logger,
		now:          time.Now,
	}
}

// Check detects a week-boundary crossing and runs the transition. The
// cursor advances unconditionally; on the very first run (no cursor yet)
// nothing is archived.
func (re *RolloverEngine) Check(ctx context.Context, owner string) {
	current := week.Key(re.now(), re.conf.Sync.WeekStartsOn)
	cursor := re.service.SyncCursor()

	if cursor != "" && cursor != current {
		re.transition(ctx, owner, cursor)
	}

	re.service.SetSyncCursor(current)
}

func (re *RolloverEngine) transition(ctx context.Context, owner, closingWeek string) {
	habits := re.service.List()
	if len(habits) == 0 {
		re.logger.Infof(providers.TypeSync, "Week %s closed with no habits, nothing to archive", closingWeek)
		return
	}

	start := week.ParseKey(closingWeek)
	if start.IsZero() {
		re.logger.Warnf(providers.TypeSync, "Cursor %q is not a week key, skipping archive", closingWeek)
	} else {
		score := WeeklyScore(habits, week.Dates(start))
		if re.service.PutSnapshot(&models.WeeklyScoreSnapshot{WeekStart: closingWeek, Score: score}) {
			re.logger.Infof(providers.TypeSync, "Archived week %s with score %d", closingWeek, score)
		}
	}

	for _, h := range habits {
		rec, err := re.service.ResetCompletions(h.ID)
		if err != nil {
			continue
		}
		if owner == "" {
			// No verified owner; the record stays dirty and the next
			// authenticated sync pass pushes the reset.
			continue
		}
		if err := re.orchestrator.PushOne(ctx, owner, rec); err != nil {
			// Still dirty; the next sync pass carries the reset out.
			re.logger.Warnf(providers.TypeSync, "Reset push of %s deferred: %s", rec.ID, err)
		}
	}

	re.metrics.IncRollovers()
}

// RecordScore is the per-record weekly score:
// min(round(100 * completionsInWeek / targetFrequency), 100).
func RecordScore(rec *models.HabitRecord, dates [7]string) int {
	if rec.TargetFrequency < 1 {
		return 0
	}
	done := rec.Completions.CountIn(dates)
	score := int(math.Round(100 * float64(done) / float64(rec.TargetFrequency)))
	if score > 100 {
		return 100
	}
	return score
}

// WeeklyScore is the rounded mean of per-record scores, 0 with no records.
func WeeklyScore(habits []*models.HabitRecord, dates [7]string) int {
	if len(habits) == 0 {
		return 0
	}
	sum := 0
	for _, h := range habits {
		sum += RecordScore(h, dates)
	}
	return int(math.Round(float64(sum) / float64(len(habits))))
}
