package action

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewSetsNotApplicable(t *testing.T) {
	now := time.Now()
	tests := []struct {
		category Category
		wantWhen string
		want     Stage
	}{
		{CategoryAbsence, "", StageAwaitingWhen},
		{CategoryTardiness, "", StageAwaitingWhen},
		{CategoryLeaveEarly, "", StageAwaitingWhen},
		{CategoryQuestion, NotApplicable, StageAwaitingReason},
		{CategoryOther, NotApplicable, StageAwaitingReason},
		{CategoryContactQuestion, "", StageAwaitingCategory},
		{CategoryOthers, "", StageAwaitingCategory},
	}
	for _, tt := range tests {
		t.Run(string(tt.category), func(t *testing.T) {
			a := New("U1", tt.category, now)
			assert.Equal(t, tt.wantWhen, a.When)
			assert.Equal(t, tt.want, a.Stage())
		})
	}
}

func TestStageProgression(t *testing.T) {
	a := New("U1", CategoryAbsence, time.Now())
	a.When = "2024-04-08"
	assert.Equal(t, StageAwaitingReason, a.Stage())
	a.Reason = "fever"
	assert.Equal(t, StageAwaitingConfirmation, a.Stage())
}

func TestValidateWhen(t *testing.T) {
	assert.NoError(t, ValidateWhen(CategoryAbsence, "2024-04-08"))
	assert.Error(t, ValidateWhen(CategoryAbsence, "2024-04-08T10:00"))
	assert.NoError(t, ValidateWhen(CategoryTardiness, "2024-04-08T10:00"))
	assert.Error(t, ValidateWhen(CategoryLeaveEarly, "2024-04-08"))
	assert.Error(t, ValidateWhen(CategoryQuestion, "2024-04-08"))
}

func TestParseCategory(t *testing.T) {
	c, ok := ParseCategory("leave_early")
	assert.True(t, ok)
	assert.Equal(t, CategoryLeaveEarly, c)

	c, ok = ParseCategory("others")
	assert.True(t, ok)
	assert.True(t, c.IsGroup())

	_, ok = ParseCategory("answerSubmit")
	assert.False(t, ok)
	_, ok = ParseCategory("")
	assert.False(t, ok)
}
