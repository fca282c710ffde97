package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"attendance_notice_bot/internal/domain/action"
	"attendance_notice_bot/internal/domain/chat"
	"attendance_notice_bot/internal/domain/settings"
	"attendance_notice_bot/internal/domain/user"
)

func TestTeacherModeSetsEmailThenToggles(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.register(t, "T1", "english")

	msgs := h.text(t, "T1", testTeacherCommand)
	assert.Equal(t, []chat.StickerKind{chat.StickerTeacherOn}, stickers(msgs))
	on := lastText(t, msgs)
	assert.Equal(t, "en:teacherMode: ON", on.Text)
	assert.Equal(t, []string{
		"teacher_seeActionsByDate", "teacher_seeActionsAll", "teacher_seeUsers",
		"teacher_setEmail", "teacher_deleteUser", "teacher_teacherOff",
	}, buttonData(on.QuickReplies))

	u, err := h.users.GetBySenderID(ctx, "T1")
	require.NoError(t, err)
	assert.True(t, u.RoleTeacher)

	msgs = h.text(t, "T1", "not an email")
	assert.Equal(t, "en:invalidEmail", lastText(t, msgs).Text)
	cfg, err := h.settings.Get(ctx, settings.KeyEmail)
	require.NoError(t, err)
	assert.Empty(t, cfg.Email)

	msgs = h.text(t, "T1", "office@school.example.com")
	assert.Equal(t, []chat.StickerKind{chat.StickerOkay}, stickers(msgs))
	assert.Equal(t, "en:setEmailDone", lastText(t, msgs).Text)
	cfg, err = h.settings.Get(ctx, settings.KeyEmail)
	require.NoError(t, err)
	assert.Equal(t, "office@school.example.com", cfg.Email)

	// With an address configured, any text leaves teacher mode.
	msgs = h.text(t, "T1", "bye")
	assert.Equal(t, []chat.StickerKind{chat.StickerTeacherOff}, stickers(msgs))
	assert.Equal(t, "en:teacherMode: OFF", lastText(t, msgs).Text)
	u, err = h.users.GetBySenderID(ctx, "T1")
	require.NoError(t, err)
	assert.False(t, u.RoleTeacher)
}

func TestTeacherQueries(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.register(t, "T1", "english")
	h.text(t, "T1", testTeacherCommand)

	day := time.Date(2024, 4, 8, 9, 0, 0, 0, time.UTC)
	require.NoError(t, h.sent.Create(ctx, &action.SentAction{
		SenderID: "P1", ChildName: "Hanako", Grade: 2, Classroom: 4,
		Category: action.CategoryAbsence, When: "2024-04-09", Reason: "cold",
		RegisteredDate: "2024-04-08", CreatedAt: day,
	}))
	require.NoError(t, h.sent.Create(ctx, &action.SentAction{
		SenderID: "P2", ChildName: "Ken", Grade: 1, Classroom: 1,
		Category: action.CategoryQuestion, When: action.NotApplicable, Reason: "trip?",
		RegisteredDate: "2024-04-07", CreatedAt: day.Add(-24 * time.Hour),
	}))

	msgs := h.postback(t, "T1", "teacher_seeActionsAll")
	all := lastText(t, msgs)
	assert.Contains(t, all.Text, "Hanako")
	assert.Contains(t, all.Text, "Ken")
	assert.Contains(t, all.Text, "\n\n")
	assert.Len(t, all.QuickReplies, 6)

	msgs = h.postback(t, "T1", "teacher_seeActionsByDate", chat.PostbackParams{Date: "2024-04-08"})
	byDate := lastText(t, msgs).Text
	assert.Contains(t, byDate, "Hanako")
	assert.NotContains(t, byDate, "Ken")

	msgs = h.postback(t, "T1", "teacher_seeActionsByDate", chat.PostbackParams{Date: "2023-01-01"})
	assert.Equal(t, "en:noResults", lastText(t, msgs).Text)

	msgs = h.postback(t, "T1", "teacher_seeActionsByDate", chat.PostbackParams{Date: "yesterday"})
	assert.Equal(t, "en:noResults", lastText(t, msgs).Text)

	msgs = h.postback(t, "T1", "teacher_seeUsers")
	users := lastText(t, msgs).Text
	assert.Contains(t, users, "en:userLine")
	assert.Contains(t, users, "Taro")
}

func TestTeacherPostbacksRequireTeacherRole(t *testing.T) {
	h := newHarness(t)
	h.register(t, "U1", "english")

	for _, cmd := range []string{"teacher_seeActionsAll", "teacher_seeUsers", "teacher_setEmail", "teacher_deleteUser"} {
		msgs := h.postback(t, "U1", cmd)
		assert.Equal(t, "en:dontKnow", lastText(t, msgs).Text, cmd)
	}
	_, err := h.users.GetBySenderID(context.Background(), "U1")
	assert.NoError(t, err)
}

func TestTeacherResetsEmailAndDeletesSelf(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.setStaffEmail(t, "old@example.com")
	h.register(t, "T1", "japanese")
	h.text(t, "T1", testTeacherCommand)

	msgs := h.postback(t, "T1", "teacher_setEmail")
	assert.Equal(t, "ja:askEmail", lastText(t, msgs).Text)
	cfg, err := h.settings.Get(ctx, settings.KeyEmail)
	require.NoError(t, err)
	assert.Empty(t, cfg.Email)

	h.text(t, "T1", "new@example.com")
	cfg, err = h.settings.Get(ctx, settings.KeyEmail)
	require.NoError(t, err)
	assert.Equal(t, "new@example.com", cfg.Email)

	msgs = h.postback(t, "T1", "teacher_deleteUser")
	assert.Equal(t, "ja:deleteUserDone", lastText(t, msgs).Text)
	_, err = h.users.GetBySenderID(ctx, "T1")
	assert.ErrorIs(t, err, user.ErrNotFound)

	msgs = h.text(t, "T1", "hello again")
	assert.IsType(t, chat.Confirm{}, msgs[0])
}

func TestTeacherOffPostback(t *testing.T) {
	h := newHarness(t)
	h.register(t, "T1", "english")
	h.text(t, "T1", testTeacherCommand)

	msgs := h.postback(t, "T1", "teacher_teacherOff")
	assert.Equal(t, "en:teacherMode: OFF", lastText(t, msgs).Text)
	assert.Contains(t, buttonData(lastText(t, msgs).QuickReplies), "menu_absence")
}

func TestTeacherCommandWaitsForActionInFlight(t *testing.T) {
	h := newHarness(t)
	h.register(t, "U1", "english")
	h.postback(t, "U1", "menu_question")

	msgs := h.text(t, "U1", testTeacherCommand)
	assert.IsType(t, chat.Confirm{}, msgs[len(msgs)-1])
	u, err := h.users.GetBySenderID(context.Background(), "U1")
	require.NoError(t, err)
	assert.False(t, u.RoleTeacher)
}

func TestStaffServiceRejectsNonTeachers(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	parent := user.New("P1", h.now)

	assert.ErrorIs(t, h.staff.SetEmail(ctx, parent, "a@example.com", h.now), ErrNotTeacher)
	assert.ErrorIs(t, h.staff.ResetEmail(ctx, parent, h.now), ErrNotTeacher)
	assert.ErrorIs(t, h.staff.DeleteSelf(ctx, parent), ErrNotTeacher)
	_, err := h.staff.ListUsers(ctx, parent)
	assert.ErrorIs(t, err, ErrNotTeacher)
	_, err = h.staff.ListSentActions(ctx, parent, "")
	assert.ErrorIs(t, err, ErrNotTeacher)

	teacher := user.New("T1", h.now)
	teacher.RoleTeacher = true
	assert.ErrorIs(t, h.staff.SetEmail(ctx, teacher, "nope", h.now), ErrInvalidEmail)
	_, err = h.staff.ListSentActions(ctx, teacher, "2024-13-01")
	assert.ErrorIs(t, err, ErrInvalidDate)
}
