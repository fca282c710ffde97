package scheduler

import (
	"context"
	"fmt"
	"time"

	"attendance_notice_bot/internal/app"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

const (
	digestTimeout = 2 * time.Minute
	sweepTimeout  = 1 * time.Minute
)

type MaintenanceScheduler struct {
	cronEngine     *cron.Cron
	service        app.MaintenanceService
	logger         *logrus.Entry
	cronSpecDigest string
	cronSpecSweep  string
	now            func() time.Time
}

func NewMaintenanceScheduler(
	service app.MaintenanceService,
	logger *logrus.Entry,
	loc *time.Location,
	cronSpecDigest string, // e.g., "0 18 * * 1-5" (18:00 on weekdays)
	cronSpecSweep string, // e.g., "0 3 * * *" (03:00 daily)
) *MaintenanceScheduler {
	if loc == nil {
		loc = time.Local
	}
	return &MaintenanceScheduler{
		cronEngine:     cron.New(cron.WithLocation(loc)),
		service:        service,
		logger:         logger,
		cronSpecDigest: cronSpecDigest,
		cronSpecSweep:  cronSpecSweep,
		now:            time.Now,
	}
}

// Start registers the jobs and starts the cron engine. An empty cron expression disables its job.
func (s *MaintenanceScheduler) Start() error {
	s.logger.Info("Starting maintenance scheduler...")

	if s.cronSpecDigest != "" {
		if _, err := s.cronEngine.AddFunc(s.cronSpecDigest, s.runDigest); err != nil {
			return fmt.Errorf("could not add digest cron job: %w", err)
		}
	}
	if s.cronSpecSweep != "" {
		if _, err := s.cronEngine.AddFunc(s.cronSpecSweep, s.runSweep); err != nil {
			return fmt.Errorf("could not add sweep cron job: %w", err)
		}
	}

	s.cronEngine.Start()
	s.logger.WithField("jobs", len(s.cronEngine.Entries())).Info("Maintenance scheduler started")
	return nil
}

func (s *MaintenanceScheduler) runDigest() {
	log := s.logger.WithField("job", "digest")
	log.Info("Cron job triggered")
	ctx, cancel := context.WithTimeout(context.Background(), digestTimeout)
	defer cancel()
	if err := s.service.SendDailyDigest(ctx, s.now()); err != nil {
		log.WithError(err).Error("Daily digest failed")
	}
}

func (s *MaintenanceScheduler) runSweep() {
	log := s.logger.WithField("job", "sweep")
	log.Info("Cron job triggered")
	ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
	defer cancel()
	n, err := s.service.SweepStaleActions(ctx, s.now())
	if err != nil {
		log.WithError(err).Error("Stale action sweep failed")
		return
	}
	log.WithField("deleted", n).Info("Stale action sweep finished")
}

func (s *MaintenanceScheduler) Stop() {
	s.logger.Info("Stopping maintenance scheduler...")
	ctx := s.cronEngine.Stop() // waits for running jobs
	<-ctx.Done()
	s.logger.Info("Maintenance scheduler gracefully stopped")
}
