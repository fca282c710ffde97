package user

import (
	"fmt"
	"time"
)

// Language selects the localisation table used for a conversation.
type Language string

const (
	LanguageJapanese Language = "ja" // default table
	LanguageEnglish  Language = "en" // alternate table
)

const (
	MinGrade     = 1
	MaxGrade     = 6
	MinClassroom = 1
	MaxClassroom = 5

	// Unset marks a grade or classroom that has not been chosen yet.
	Unset = -1
)

var ErrNotFound = fmt.Errorf("user not found")

// RegistrationStage is derived from which registration fields are still unset.
type RegistrationStage int

const (
	StageAwaitingGrade RegistrationStage = iota
	StageAwaitingClassroom
	StageAwaitingChildName
	StageRegistered
)

func (s RegistrationStage) String() string {
	switch s {
	case StageAwaitingGrade:
		return "awaiting_grade"
	case StageAwaitingClassroom:
		return "awaiting_classroom"
	case StageAwaitingChildName:
		return "awaiting_child_name"
	case StageRegistered:
		return "registered"
	default:
		return "unknown"
	}
}

// User is a parent (or staff member) talking to the bot, keyed by the transport's sender id.
type User struct {
	SenderID    string
	Language    Language
	RoleTeacher bool
	ChildName   string
	Grade       int
	Classroom   int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// New returns a user with nothing registered yet.
func New(senderID string, createdAt time.Time) *User {
	return &User{
		SenderID:  senderID,
		Language:  LanguageJapanese,
		Grade:     Unset,
		Classroom: Unset,
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}
}

// Stage reports the next registration step. Child name is collected last.
func (u *User) Stage() RegistrationStage {
	switch {
	case u.ChildName != "":
		return StageRegistered
	case u.Grade == Unset:
		return StageAwaitingGrade
	case u.Classroom == Unset:
		return StageAwaitingClassroom
	default:
		return StageAwaitingChildName
	}
}

// Registered reports whether the user may use the main menu.
func (u *User) Registered() bool {
	return u.ChildName != "" && u.Grade != Unset && u.Classroom != Unset
}

func ValidGrade(n int) bool     { return n >= MinGrade && n <= MaxGrade }
func ValidClassroom(n int) bool { return n >= MinClassroom && n <= MaxClassroom }
