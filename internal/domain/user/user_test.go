package user

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStage(t *testing.T) {
	now := time.Date(2024, 4, 8, 9, 0, 0, 0, time.UTC)

	u := New("U1", now)
	assert.Equal(t, StageAwaitingGrade, u.Stage())
	assert.False(t, u.Registered())

	u.Grade = 3
	assert.Equal(t, StageAwaitingClassroom, u.Stage())

	u.Classroom = 2
	assert.Equal(t, StageAwaitingChildName, u.Stage())

	u.ChildName = "Alice"
	assert.Equal(t, StageRegistered, u.Stage())
	assert.True(t, u.Registered())
}

func TestNewDefaults(t *testing.T) {
	u := New("U1", time.Unix(0, 0))
	assert.Equal(t, LanguageJapanese, u.Language)
	assert.Equal(t, Unset, u.Grade)
	assert.Equal(t, Unset, u.Classroom)
	assert.False(t, u.RoleTeacher)
}

func TestRanges(t *testing.T) {
	assert.False(t, ValidGrade(0))
	assert.True(t, ValidGrade(1))
	assert.True(t, ValidGrade(6))
	assert.False(t, ValidGrade(7))
	assert.True(t, ValidClassroom(5))
	assert.False(t, ValidClassroom(6))
	assert.False(t, ValidClassroom(Unset))
}
