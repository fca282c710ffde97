package settings

import (
	"context"
	"time"
)

// KeyEmail is the key of the singleton holding the staff notification address.
const KeyEmail = "email"

// Configuration is runtime-settable by staff through teacher mode.
type Configuration struct {
	Key       string
	Email     string // empty until a teacher sets it
	UpdatedAt time.Time
}

// Repository stores Configuration singletons.
type Repository interface {
	// Get returns an empty Configuration (not an error) when the key was never written.
	Get(ctx context.Context, key string) (*Configuration, error)
	Save(ctx context.Context, c *Configuration) error
}
