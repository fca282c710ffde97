package action

import (
	"context"
	"time"
)

// Repository persists the in-flight Action of each user.
type Repository interface {
	GetBySenderID(ctx context.Context, senderID string) (*Action, error)
	// Save creates or overwrites the action of a.SenderID.
	Save(ctx context.Context, a *Action) error
	// Delete is a no-op when no action exists.
	Delete(ctx context.Context, senderID string) error
	// DeleteCreatedBefore removes abandoned actions and returns how many were removed.
	DeleteCreatedBefore(ctx context.Context, before time.Time) (int64, error)
}

// SentRepository is the append-only archive of submitted notices.
type SentRepository interface {
	// Create ignores a duplicate (SenderID, StartedAt) pair so one Action is archived at most once.
	Create(ctx context.Context, s *SentAction) error
	ListAll(ctx context.Context) ([]*SentAction, error)
	ListByRegisteredDate(ctx context.Context, date string) ([]*SentAction, error)
}
