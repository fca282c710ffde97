package action

import "time"

// SentAction is the immutable archive entry written when a notice is submitted.
type SentAction struct {
	ID             int64
	SenderID       string
	ChildName      string
	Grade          int
	Classroom      int
	Category       Category
	When           string
	Reason         string
	RegisteredDate string    // calendar date, DateLayout
	StartedAt      time.Time // CreatedAt of the submitted Action
	CreatedAt      time.Time
}
