package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"attendance_notice_bot/internal/domain/action"
	"attendance_notice_bot/internal/domain/notice"
	"attendance_notice_bot/internal/domain/store"

	"github.com/sirupsen/logrus"
)

// MaintenanceService defines the jobs run by the scheduler.
type MaintenanceService interface {
	// SendDailyDigest emails the notices registered on now's calendar date to staff.
	SendDailyDigest(ctx context.Context, now time.Time) error
	// SweepStaleActions deletes in-flight actions started before now minus the TTL.
	SweepStaleActions(ctx context.Context, now time.Time) (int64, error)
}

// MaintenanceServiceImpl implements the MaintenanceService interface.
type MaintenanceServiceImpl struct {
	actions  action.Repository
	sent     action.SentRepository
	staff    *StaffService
	tx       store.Transactor
	mailer   notice.Sender
	location *time.Location
	ttl      time.Duration
	logger   *logrus.Entry
}

func NewMaintenanceServiceImpl(
	ar action.Repository,
	sr action.SentRepository,
	staff *StaffService,
	tx store.Transactor,
	mailer notice.Sender,
	loc *time.Location,
	ttl time.Duration,
	logger *logrus.Entry,
) *MaintenanceServiceImpl {
	if loc == nil {
		loc = time.UTC
	}
	return &MaintenanceServiceImpl{
		actions:  ar,
		sent:     sr,
		staff:    staff,
		tx:       tx,
		mailer:   mailer,
		location: loc,
		ttl:      ttl,
		logger:   logger,
	}
}

func (s *MaintenanceServiceImpl) SendDailyDigest(ctx context.Context, now time.Time) error {
	date := now.In(s.location).Format(action.DateLayout)
	log := s.logger.WithField("date", date)

	items, err := s.sent.ListByRegisteredDate(ctx, date)
	if err != nil {
		return fmt.Errorf("failed to list notices for digest: %w", err)
	}
	if len(items) == 0 {
		log.Info("No notices today, skipping digest")
		return nil
	}

	to, err := s.staff.StaffEmail(ctx)
	if err != nil {
		return err
	}
	mail, err := notice.ComposeDigest(to, date, items)
	if errors.Is(err, notice.ErrNoRecipient) {
		log.Warn("Staff email not configured, skipping digest")
		return nil
	}
	if err != nil {
		return err
	}
	if err := s.mailer.Send(ctx, mail); err != nil {
		return fmt.Errorf("failed to send digest: %w", err)
	}
	log.WithField("count", len(items)).Info("Digest sent")
	return nil
}

func (s *MaintenanceServiceImpl) SweepStaleActions(ctx context.Context, now time.Time) (int64, error) {
	if s.ttl <= 0 {
		return 0, nil
	}
	cutoff := now.Add(-s.ttl)
	var removed int64
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		n, err := s.actions.DeleteCreatedBefore(ctx, cutoff)
		if err != nil {
			return fmt.Errorf("failed to sweep actions: %w", err)
		}
		removed = n
		return nil
	})
	if err != nil {
		return 0, err
	}
	s.logger.WithFields(logrus.Fields{"cutoff": cutoff, "removed": removed}).Info("Stale actions swept")
	return removed, nil
}
