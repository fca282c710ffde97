package action

import (
	"fmt"
	"time"
)

var ErrNotFound = fmt.Errorf("action not found")

// Stage is derived from which action fields are still empty.
type Stage int

const (
	StageAwaitingCategory Stage = iota
	StageAwaitingWhen
	StageAwaitingReason
	StageAwaitingConfirmation
)

func (s Stage) String() string {
	switch s {
	case StageAwaitingCategory:
		return "awaiting_category"
	case StageAwaitingWhen:
		return "awaiting_when"
	case StageAwaitingReason:
		return "awaiting_reason"
	case StageAwaitingConfirmation:
		return "awaiting_confirmation"
	default:
		return "unknown"
	}
}

// Action is the single in-flight notice of a user, keyed by the user's sender id.
type Action struct {
	SenderID  string
	Category  Category
	When      string
	Reason    string
	CreatedAt time.Time
}

// New starts an action for the chosen category. Categories without a date get When=NA right away.
func New(senderID string, c Category, createdAt time.Time) *Action {
	a := &Action{SenderID: senderID, Category: c, CreatedAt: createdAt}
	if !c.IsGroup() && c.WhenKind() == WhenNone {
		a.When = NotApplicable
	}
	return a
}

func (a *Action) Stage() Stage {
	switch {
	case a.Category.IsGroup():
		return StageAwaitingCategory
	case a.When == "":
		return StageAwaitingWhen
	case a.Reason == "":
		return StageAwaitingReason
	default:
		return StageAwaitingConfirmation
	}
}

// ValidateWhen checks a picker value against the layout the category expects.
func ValidateWhen(c Category, value string) error {
	var layout string
	switch c.WhenKind() {
	case WhenDate:
		layout = DateLayout
	case WhenDateTime:
		layout = DateTimeLayout
	default:
		return fmt.Errorf("category %s takes no date", c)
	}
	if _, err := time.Parse(layout, value); err != nil {
		return fmt.Errorf("invalid %s value %q: %w", c, value, err)
	}
	return nil
}
