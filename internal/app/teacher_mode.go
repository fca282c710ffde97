package app

import (
	"context"
	"errors"
	"strings"
	"time"

	"attendance_notice_bot/internal/domain/action"
	"attendance_notice_bot/internal/domain/chat"
	"attendance_notice_bot/internal/domain/user"
)

const listTimeLayout = "2006-01-02 15:04"

func (s *ConversationService) enterTeacherMode(ctx context.Context, u *user.User, at time.Time) ([]chat.Message, error) {
	if err := s.staff.SetTeacherMode(ctx, u, true, at); err != nil {
		return nil, err
	}
	s.turnLogger(u).Info("Teacher mode on")
	return []chat.Message{
		chat.Sticker{Kind: chat.StickerTeacherOn},
		chat.Text{Text: s.words.T(u.Language, "teacherMode") + ": ON", QuickReplies: s.teacherButtons(u.Language)},
	}, nil
}

func (s *ConversationService) leaveTeacherMode(ctx context.Context, u *user.User, at time.Time) ([]chat.Message, error) {
	if err := s.staff.SetTeacherMode(ctx, u, false, at); err != nil {
		return nil, err
	}
	s.turnLogger(u).Info("Teacher mode off")
	return []chat.Message{
		chat.Sticker{Kind: chat.StickerTeacherOff},
		chat.Text{Text: s.words.T(u.Language, "teacherMode") + ": OFF", QuickReplies: s.menuButtons(u.Language)},
	}, nil
}

// teacherText sets the staff email while it is unset, otherwise leaves teacher mode.
func (s *ConversationService) teacherText(ctx context.Context, u *user.User, text string, at time.Time) ([]chat.Message, error) {
	current, err := s.staff.StaffEmail(ctx)
	if err != nil {
		return nil, err
	}
	if current != "" {
		return s.leaveTeacherMode(ctx, u, at)
	}

	err = s.staff.SetEmail(ctx, u, text, at)
	if errors.Is(err, ErrInvalidEmail) {
		return []chat.Message{chat.Text{Text: s.words.T(u.Language, "invalidEmail")}}, nil
	}
	if err != nil {
		return nil, err
	}
	s.turnLogger(u).Info("Staff email updated")
	return []chat.Message{
		chat.Sticker{Kind: chat.StickerOkay},
		chat.Text{Text: s.words.T(u.Language, "setEmailDone"), QuickReplies: s.teacherButtons(u.Language)},
	}, nil
}

func (s *ConversationService) teacherPostback(ctx context.Context, u *user.User, cmd string, params chat.PostbackParams, at time.Time) ([]chat.Message, error) {
	if !u.RoleTeacher {
		return s.menuReply(u.Language, "dontKnow"), nil
	}
	lang := u.Language

	switch cmd {
	case teacherSeeActionsByDate, teacherSeeActionsAll:
		date := ""
		if cmd == teacherSeeActionsByDate {
			date = params.Date
			if date == "" {
				return s.teacherReply(lang, s.words.T(lang, "noResults")), nil
			}
		}
		items, err := s.staff.ListSentActions(ctx, u, date)
		if errors.Is(err, ErrInvalidDate) {
			s.turnLogger(u).WithError(err).Warn("Rejected actions query")
			return s.teacherReply(lang, s.words.T(lang, "noResults")), nil
		}
		if err != nil {
			return nil, err
		}
		return s.teacherReply(lang, s.formatSentActions(lang, items)), nil

	case teacherSeeUsers:
		users, err := s.staff.ListUsers(ctx, u)
		if err != nil {
			return nil, err
		}
		return s.teacherReply(lang, s.formatUsers(lang, users)), nil

	case teacherSetEmail:
		if err := s.staff.ResetEmail(ctx, u, at); err != nil {
			return nil, err
		}
		return []chat.Message{chat.Text{Text: s.words.T(lang, "askEmail")}}, nil

	case teacherDeleteUser:
		if err := s.staff.DeleteSelf(ctx, u); err != nil {
			return nil, err
		}
		s.turnLogger(u).Info("Teacher deleted own registration")
		return []chat.Message{chat.Text{Text: s.words.T(lang, "deleteUserDone")}}, nil

	case teacherOff:
		return s.leaveTeacherMode(ctx, u, at)

	default:
		return s.teacherReply(lang, s.words.T(lang, "dontKnow")), nil
	}
}

func (s *ConversationService) teacherReply(lang user.Language, text string) []chat.Message {
	return []chat.Message{chat.Text{Text: text, QuickReplies: s.teacherButtons(lang)}}
}

func (s *ConversationService) formatSentActions(lang user.Language, items []*action.SentAction) string {
	if len(items) == 0 {
		return s.words.T(lang, "noResults")
	}
	lines := make([]string, 0, len(items))
	for _, it := range items {
		lines = append(lines, s.words.Tf(lang, "actionLine",
			it.ChildName, it.Grade, it.Classroom, s.words.T(lang, string(it.Category)),
			it.When, it.Reason, it.CreatedAt.In(s.location).Format(listTimeLayout)))
	}
	return strings.Join(lines, "\n\n")
}

func (s *ConversationService) formatUsers(lang user.Language, users []*user.User) string {
	if len(users) == 0 {
		return s.words.T(lang, "noResults")
	}
	lines := make([]string, 0, len(users))
	for _, it := range users {
		lines = append(lines, s.words.Tf(lang, "userLine",
			it.ChildName, it.Grade, it.Classroom, it.Language == user.LanguageEnglish, it.RoleTeacher,
			it.CreatedAt.In(s.location).Format(listTimeLayout)))
	}
	return strings.Join(lines, "\n\n")
}
