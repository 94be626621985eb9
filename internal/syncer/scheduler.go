package syncer

import (
	"context"
	"sync"
	"time"

	"github.com/roylee0704/gron"

	"habitd/internal/providers"
	"habitd/internal/store"
	"habitd/internal/structures"
	"habitd/internal/syncer/interfaces"
)

// Scheduler owns the daemon's periodic work: sync passes, rollover checks
// and replica persistence. opsMu serializes the jobs against each other and
// against shutdown — the local store has exactly one writer at a time.
type Scheduler struct {
	config       *structures.Config
	logger       providers.Logger
	identity     providers.IdentityProviderInterface
	orchestrator OrchestratorInterface
	rollover     *RolloverEngine
	fileManager  *store.FileManager
	metrics      providers.MetricsProviderInterface
	cron         *gron.Cron
	opsMu        sync.Mutex
}

func NewScheduler(config *structures.Config, logger providers.Logger, identity providers.IdentityProviderInterface, orchestrator OrchestratorInterface, rollover *RolloverEngine, fileManager *store.FileManager, metrics providers.MetricsProviderInterface) interfaces.SchedulerInterface {
	return &Scheduler{
		config:       config,
		logger:       logger,
		identity:     identity,
		orchestrator: orchestrator,
		rollover:     rollover,
		fileManager:  fileManager,
		metrics:      metrics,
	}
}

func (s *Scheduler) Init() {
	s.cron = gron.New()
	syncInterval := s.config.Sync.Interval
	rolloverInterval := s.config.Sync.RolloverInterval
	saveInterval := s.config.Persistence.SaveInterval

	s.cron.AddFunc(gron.Every(syncInterval*time.Second), s.syncJob)

	s.cron.AddFunc(gron.Every(rolloverInterval*time.Second), s.rolloverJob)

	s.cron.AddFunc(gron.Every(saveInterval*time.Second), func() {
		s.opsMu.Lock()
		defer s.opsMu.Unlock()

		start := time.Now()
		err := s.fileManager.SaveToFile(s.config.Persistence.FilePath)
		s.metrics.ObservePersistenceDuration(time.Since(start))
		if err != nil {
			s.logger.Errorf(providers.TypeApp, "Error while persisting replica: %s", err)
			return
		}
		s.logger.Infof(providers.TypeApp, "Persisted replica to file %s", s.config.Persistence.FilePath)
	})

	// Rollover runs once per process start, then the first sync follows it
	// so the resets ride the same push path.
	go func() {
		s.rolloverJob()
		s.syncJob()
	}()

	s.cron.Start()
}

func (s *Scheduler) syncJob() {
	s.opsMu.Lock()
	defer s.opsMu.Unlock()

	ctx, cancel := s.jobContext()
	defer cancel()

	owner, err := s.identity.Resolve(ctx)
	if err != nil {
		s.logger.Errorf(providers.TypeSync, "Refusing to sync: %s", err)
		return
	}

	if _, err := s.orchestrator.RunSync(ctx, owner); err != nil {
		s.logger.Errorf(providers.TypeSync, "Sync pass failed: %s", err)
	}
}

func (s *Scheduler) rolloverJob() {
	s.opsMu.Lock()
	defer s.opsMu.Unlock()

	ctx, cancel := s.jobContext()
	defer cancel()

	owner, err := s.identity.Resolve(ctx)
	if err != nil {
		// Rollover archives and resets locally even without a verified
		// owner; the pushes are deferred to the next sync pass.
		s.logger.Warnf(providers.TypeSync, "Rollover without owner, pushes deferred: %s", err)
		owner = ""
	}

	s.rollover.Check(ctx, owner)
}

func (s *Scheduler) jobContext() (context.Context, context.CancelFunc) {
	timeout := s.config.Sync.RequestTimeout * time.Second
	// A pass makes one request per record; give it room.
	return context.WithTimeout(context.Background(), 10*timeout)
}

func (s *Scheduler) Stop() {
	if s.cron != nil {
		s.cron.Stop()
	}
}

func (s *Scheduler) Restore() error {
	err := s.fileManager.LoadFromFile(s.config.Persistence.FilePath)
	if err != nil {
		return err
	}
	return nil
}

func (s *Scheduler) Persist() error {
	s.opsMu.Lock()
	defer s.opsMu.Unlock()

	s.logger.Infof(providers.TypeApp, "Persisting replica to file...")
	err := s.fileManager.SaveToFile(s.config.Persistence.FilePath)
	if err != nil {
		s.logger.Errorf(providers.TypeApp, "Error while persisting replica: %s", err)
		return err
	}
	return nil
}
