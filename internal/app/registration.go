package app

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"attendance_notice_bot/internal/domain/chat"
	"attendance_notice_bot/internal/domain/user"
)

// startRegistration creates the user on first contact and asks for a language.
func (s *ConversationService) startRegistration(ctx context.Context, ev chat.Event) ([]chat.Message, error) {
	u := user.New(ev.SenderID, ev.Timestamp)
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		return s.users.Save(ctx, u)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create user %s: %w", ev.SenderID, err)
	}
	s.logger.WithField("sender_id", ev.SenderID).Info("New user, starting registration")
	return []chat.Message{s.languagePrompt(u.Language)}, nil
}

func (s *ConversationService) languagePrompt(lang user.Language) chat.Confirm {
	text := s.words.T(lang, "welcome")
	return chat.Confirm{
		Text:    text,
		AltText: text,
		Left:    chat.PostbackButton{Label: s.words.T(lang, "languageJapanese"), Data: prefixLanguage + languageJapanese},
		Right:   chat.PostbackButton{Label: s.words.T(lang, "languageEnglish"), Data: prefixLanguage + languageEnglish},
	}
}

func parseLanguage(s string) (user.Language, bool) {
	switch s {
	case languageJapanese:
		return user.LanguageJapanese, true
	case languageEnglish:
		return user.LanguageEnglish, true
	default:
		return "", false
	}
}

// registrationPostback advances language, grade and classroom selection.
func (s *ConversationService) registrationPostback(ctx context.Context, u *user.User, data string, at time.Time) ([]chat.Message, error) {
	switch {
	case strings.HasPrefix(data, prefixLanguage):
		lang, ok := parseLanguage(strings.TrimPrefix(data, prefixLanguage))
		if !ok {
			return s.registrationBug(ctx, u, "unknown language "+data)
		}
		u.Language = lang
		if err := s.saveUser(ctx, u, at); err != nil {
			return nil, err
		}
		return s.registrationPrompt(u), nil

	case strings.HasPrefix(data, prefixGrade):
		n, err := strconv.Atoi(strings.TrimPrefix(data, prefixGrade))
		if err != nil || !user.ValidGrade(n) {
			return s.rejectChoice(u, data), nil
		}
		u.Grade = n
		if err := s.saveUser(ctx, u, at); err != nil {
			return nil, err
		}
		return s.registrationPrompt(u), nil

	case strings.HasPrefix(data, prefixClassroom):
		if u.Grade == user.Unset {
			return s.registrationBug(ctx, u, "classroom chosen before grade")
		}
		n, err := strconv.Atoi(strings.TrimPrefix(data, prefixClassroom))
		if err != nil || !user.ValidClassroom(n) {
			return s.rejectChoice(u, data), nil
		}
		u.Classroom = n
		if err := s.saveUser(ctx, u, at); err != nil {
			return nil, err
		}
		return s.registrationPrompt(u), nil

	default:
		return s.registrationPrompt(u), nil
	}
}

// rejectChoice fails closed on an out-of-range registration value: nothing is committed
// and the same step is asked again.
func (s *ConversationService) rejectChoice(u *user.User, data string) []chat.Message {
	s.turnLogger(u).WithField("data", data).Warn("Rejected registration value")
	msgs := []chat.Message{chat.Sticker{Kind: chat.StickerApology}, chat.Text{Text: s.words.T(u.Language, "bug")}}
	return append(msgs, s.registrationPrompt(u)...)
}

// registrationPrompt asks for whatever registration field comes next.
func (s *ConversationService) registrationPrompt(u *user.User) []chat.Message {
	lang := u.Language
	switch u.Stage() {
	case user.StageAwaitingGrade:
		return []chat.Message{chat.Text{Text: s.words.T(lang, "grade"), QuickReplies: numberButtons(user.MaxGrade, prefixGrade)}}
	case user.StageAwaitingClassroom:
		return []chat.Message{chat.Text{Text: s.words.T(lang, "classroom"), QuickReplies: numberButtons(user.MaxClassroom, prefixClassroom)}}
	case user.StageAwaitingChildName:
		return []chat.Message{chat.Text{Text: s.words.T(lang, "childName")}}
	default:
		return s.menuReply(lang, "registerCompleted")
	}
}

// commitChildName finishes registration. Child name is only accepted after grade and classroom.
func (s *ConversationService) commitChildName(ctx context.Context, u *user.User, name string, at time.Time) ([]chat.Message, error) {
	if u.Classroom == user.Unset {
		return s.registrationBug(ctx, u, "child name sent before classroom")
	}
	if name == "" {
		return s.registrationPrompt(u), nil
	}
	u.ChildName = name
	if err := s.saveUser(ctx, u, at); err != nil {
		return nil, err
	}
	s.turnLogger(u).Info("Registration completed")
	return append([]chat.Message{chat.Sticker{Kind: chat.StickerCelebrate}}, s.menuReply(u.Language, "registerCompleted")...), nil
}

// switchLanguage lets a registered user change the reply language.
func (s *ConversationService) switchLanguage(ctx context.Context, u *user.User, value string, at time.Time) ([]chat.Message, error) {
	lang, ok := parseLanguage(value)
	if !ok {
		return s.menuReply(u.Language, "dontKnow"), nil
	}
	u.Language = lang
	if err := s.saveUser(ctx, u, at); err != nil {
		return nil, err
	}
	return s.menuReply(lang, "languageSet"), nil
}
