package user

import (
	"context"
)

// Repository defines the operations for persisting and retrieving User entities.
type Repository interface {
	// GetBySenderID returns ErrNotFound when the sender never talked to the bot.
	GetBySenderID(ctx context.Context, senderID string) (*User, error)
	// Save creates or overwrites the user.
	Save(ctx context.Context, u *User) error
	// Delete removes the user and its in-flight action. Deleting a missing user is not an error.
	Delete(ctx context.Context, senderID string) error
	ListAll(ctx context.Context) ([]*User, error)
}
