package app

import (
	"context"
	"fmt"
	"time"

	"attendance_notice_bot/internal/domain/action"
	"attendance_notice_bot/internal/domain/settings"
	"attendance_notice_bot/internal/domain/store"
	"attendance_notice_bot/internal/domain/user"

	"github.com/go-playground/validator/v10"
)

var ErrNotTeacher = fmt.Errorf("performing user is not in teacher mode")
var ErrInvalidEmail = fmt.Errorf("invalid email address")
var ErrInvalidDate = fmt.Errorf("invalid date")

// StaffService holds the operations available in teacher mode.
type StaffService struct {
	users    user.Repository
	sent     action.SentRepository
	settings settings.Repository
	tx       store.Transactor
	validate *validator.Validate
}

func NewStaffService(ur user.Repository, sr action.SentRepository, cr settings.Repository, tx store.Transactor) *StaffService {
	return &StaffService{
		users:    ur,
		sent:     sr,
		settings: cr,
		tx:       tx,
		validate: validator.New(),
	}
}

// SetTeacherMode toggles the teacher role of u and persists it.
func (s *StaffService) SetTeacherMode(ctx context.Context, u *user.User, on bool, at time.Time) error {
	u.RoleTeacher = on
	u.UpdatedAt = at
	return s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.users.Save(ctx, u); err != nil {
			return fmt.Errorf("failed to save teacher mode: %w", err)
		}
		return nil
	})
}

// StaffEmail returns the configured notification address, empty when unset.
func (s *StaffService) StaffEmail(ctx context.Context) (string, error) {
	cfg, err := s.settings.Get(ctx, settings.KeyEmail)
	if err != nil {
		return "", fmt.Errorf("failed to read staff email: %w", err)
	}
	return cfg.Email, nil
}

// SetEmail validates and stores the staff notification address.
func (s *StaffService) SetEmail(ctx context.Context, performer *user.User, address string, at time.Time) error {
	if !performer.RoleTeacher {
		return ErrNotTeacher
	}
	if err := s.validate.Var(address, "required,email"); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidEmail, address)
	}
	return s.saveEmail(ctx, address, at)
}

// ResetEmail clears the address so the next text in teacher mode sets it.
func (s *StaffService) ResetEmail(ctx context.Context, performer *user.User, at time.Time) error {
	if !performer.RoleTeacher {
		return ErrNotTeacher
	}
	return s.saveEmail(ctx, "", at)
}

func (s *StaffService) saveEmail(ctx context.Context, address string, at time.Time) error {
	return s.tx.RunInTx(ctx, func(ctx context.Context) error {
		err := s.settings.Save(ctx, &settings.Configuration{Key: settings.KeyEmail, Email: address, UpdatedAt: at})
		if err != nil {
			return fmt.Errorf("failed to save staff email: %w", err)
		}
		return nil
	})
}

// ListSentActions returns archived notices, all of them when date is empty.
func (s *StaffService) ListSentActions(ctx context.Context, performer *user.User, date string) ([]*action.SentAction, error) {
	if !performer.RoleTeacher {
		return nil, ErrNotTeacher
	}
	var (
		items []*action.SentAction
		err   error
	)
	if date == "" {
		items, err = s.sent.ListAll(ctx)
	} else {
		if _, perr := time.Parse(action.DateLayout, date); perr != nil {
			return nil, fmt.Errorf("%w %q: %v", ErrInvalidDate, date, perr)
		}
		items, err = s.sent.ListByRegisteredDate(ctx, date)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list sent actions: %w", err)
	}
	return items, nil
}

func (s *StaffService) ListUsers(ctx context.Context, performer *user.User) ([]*user.User, error) {
	if !performer.RoleTeacher {
		return nil, ErrNotTeacher
	}
	users, err := s.users.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// DeleteSelf removes the performer's own registration, used to test the flow from scratch.
func (s *StaffService) DeleteSelf(ctx context.Context, performer *user.User) error {
	if !performer.RoleTeacher {
		return ErrNotTeacher
	}
	return s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.users.Delete(ctx, performer.SenderID); err != nil {
			return fmt.Errorf("failed to delete user %s: %w", performer.SenderID, err)
		}
		return nil
	})
}
