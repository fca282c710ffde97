package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"attendance_notice_bot/internal/domain/action"
	"attendance_notice_bot/internal/domain/chat"
	"attendance_notice_bot/internal/domain/notice"
	"attendance_notice_bot/internal/domain/store"
	"attendance_notice_bot/internal/domain/user"

	"github.com/sirupsen/logrus"
)

// Translator resolves localised strings.
type Translator interface {
	T(lang user.Language, key string) string
	Tf(lang user.Language, key string, args ...any) string
}

// Responder answers free text that matched no conversation state.
type Responder interface {
	Respond(text string) (reply string, understood bool)
}

// ConversationDeps collects the collaborators of a ConversationService.
type ConversationDeps struct {
	Users          user.Repository
	Actions        action.Repository
	Sent           action.SentRepository
	Tx             store.Transactor
	Staff          *StaffService
	Mailer         notice.Sender
	Words          Translator
	Responder      Responder
	TeacherCommand string
	Location       *time.Location
	Logger         *logrus.Entry
}

// ConversationService turns one inbound event into the replies for that turn.
// All state lives in the store, so the service itself is safe for concurrent use.
type ConversationService struct {
	users          user.Repository
	actions        action.Repository
	sent           action.SentRepository
	tx             store.Transactor
	staff          *StaffService
	mailer         notice.Sender
	words          Translator
	responder      Responder
	teacherCommand string
	location       *time.Location
	logger         *logrus.Entry
	turns          *senderLocks
}

func NewConversationService(d ConversationDeps) *ConversationService {
	loc := d.Location
	if loc == nil {
		loc = time.UTC
	}
	return &ConversationService{
		users:          d.Users,
		actions:        d.Actions,
		sent:           d.Sent,
		tx:             d.Tx,
		staff:          d.Staff,
		mailer:         d.Mailer,
		words:          d.Words,
		responder:      d.Responder,
		teacherCommand: d.TeacherCommand,
		location:       loc,
		logger:         d.Logger,
		turns:          newSenderLocks(),
	}
}

// Handle processes one event. A returned error means the store failed and nothing
// should be sent back; the caller logs it. Turns of the same sender run one at a time.
func (s *ConversationService) Handle(ctx context.Context, ev chat.Event) ([]chat.Message, error) {
	unlock := s.turns.lock(ev.SenderID)
	defer unlock()

	switch ev.Kind {
	case chat.EventSticker:
		return []chat.Message{chat.Sticker{Kind: chat.StickerAck}}, nil
	case chat.EventText:
		return s.handleText(ctx, ev)
	case chat.EventPostback:
		return s.handlePostback(ctx, ev)
	default:
		return nil, fmt.Errorf("unsupported event kind %s", ev.Kind)
	}
}

func (s *ConversationService) handleText(ctx context.Context, ev chat.Event) ([]chat.Message, error) {
	u, err := s.users.GetBySenderID(ctx, ev.SenderID)
	if errors.Is(err, user.ErrNotFound) {
		return s.startRegistration(ctx, ev)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user %s: %w", ev.SenderID, err)
	}
	text := strings.TrimSpace(ev.Text)

	if u.ChildName == "" {
		return s.commitChildName(ctx, u, text, ev.Timestamp)
	}

	a, err := s.pendingAction(ctx, u.SenderID)
	if err != nil {
		return nil, err
	}
	if a != nil {
		return s.continueAction(ctx, u, a, text)
	}

	if text == s.teacherCommand {
		return s.enterTeacherMode(ctx, u, ev.Timestamp)
	}
	if u.RoleTeacher {
		return s.teacherText(ctx, u, text, ev.Timestamp)
	}
	return s.fallback(u, text), nil
}

func (s *ConversationService) handlePostback(ctx context.Context, ev chat.Event) ([]chat.Message, error) {
	u, err := s.users.GetBySenderID(ctx, ev.SenderID)
	if errors.Is(err, user.ErrNotFound) {
		return s.startRegistration(ctx, ev)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user %s: %w", ev.SenderID, err)
	}
	data := ev.Postback.Data

	if !u.Registered() {
		return s.registrationPostback(ctx, u, data, ev.Timestamp)
	}

	switch {
	case strings.HasPrefix(data, prefixLanguage):
		return s.switchLanguage(ctx, u, strings.TrimPrefix(data, prefixLanguage), ev.Timestamp)
	case strings.HasPrefix(data, prefixMenu):
		return s.openMenu(ctx, u, strings.TrimPrefix(data, prefixMenu), ev.Timestamp)
	case strings.HasPrefix(data, prefixOthers):
		return s.chooseSubCategory(ctx, u, strings.TrimPrefix(data, prefixOthers))
	case strings.HasPrefix(data, prefixIrregular):
		return s.commitWhen(ctx, u, strings.TrimPrefix(data, prefixIrregular), ev.Postback.Params)
	case data == dataSubmit || data == dataSubmitLegacy:
		return s.submit(ctx, u, ev.Timestamp)
	case data == dataCancel:
		return s.cancel(ctx, u)
	case strings.HasPrefix(data, prefixTeacher):
		return s.teacherPostback(ctx, u, strings.TrimPrefix(data, prefixTeacher), ev.Postback.Params, ev.Timestamp)
	default:
		s.turnLogger(u).WithField("data", data).Info("Unknown postback, re-offering the menu")
		return s.menuReply(u.Language, "dontKnow"), nil
	}
}

// fallback asks the responder and keeps the user pointed at the menu.
func (s *ConversationService) fallback(u *user.User, text string) []chat.Message {
	reply, understood := s.responder.Respond(text)
	if !understood {
		return append([]chat.Message{chat.Sticker{Kind: chat.StickerConfused}}, s.menuReply(u.Language, "dontKnow")...)
	}
	return []chat.Message{chat.Text{Text: reply, QuickReplies: s.menuButtons(u.Language)}}
}

// pendingAction returns nil without error when the user has no action in flight.
func (s *ConversationService) pendingAction(ctx context.Context, senderID string) (*action.Action, error) {
	a, err := s.actions.GetBySenderID(ctx, senderID)
	if errors.Is(err, action.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load action of %s: %w", senderID, err)
	}
	return a, nil
}

func (s *ConversationService) saveUser(ctx context.Context, u *user.User, at time.Time) error {
	u.UpdatedAt = at
	return s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.users.Save(ctx, u); err != nil {
			return fmt.Errorf("failed to save user %s: %w", u.SenderID, err)
		}
		return nil
	})
}

func (s *ConversationService) saveAction(ctx context.Context, a *action.Action) error {
	return s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.actions.Save(ctx, a); err != nil {
			return fmt.Errorf("failed to save action of %s: %w", a.SenderID, err)
		}
		return nil
	})
}

// updateAction saves a only while it is still the sender's action in flight.
func (s *ConversationService) updateAction(ctx context.Context, a *action.Action) error {
	return s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.requireAction(ctx, a); err != nil {
			return err
		}
		if err := s.actions.Save(ctx, a); err != nil {
			return fmt.Errorf("failed to save action of %s: %w", a.SenderID, err)
		}
		return nil
	})
}

// requireAction reports errActionGone unless the stored action is the one started at a.CreatedAt.
func (s *ConversationService) requireAction(ctx context.Context, a *action.Action) error {
	current, err := s.actions.GetBySenderID(ctx, a.SenderID)
	if errors.Is(err, action.ErrNotFound) {
		return errActionGone
	}
	if err != nil {
		return fmt.Errorf("failed to load action of %s: %w", a.SenderID, err)
	}
	if !current.CreatedAt.Equal(a.CreatedAt) {
		return errActionGone
	}
	return nil
}

func (s *ConversationService) deleteAction(ctx context.Context, senderID string) error {
	return s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.actions.Delete(ctx, senderID); err != nil {
			return fmt.Errorf("failed to delete action of %s: %w", senderID, err)
		}
		return nil
	})
}

// actionBug drops a corrupted action and sends the user back to the menu.
func (s *ConversationService) actionBug(ctx context.Context, u *user.User, reason string) ([]chat.Message, error) {
	s.turnLogger(u).WithField("reason", reason).Warn("Inconsistent action, deleting it")
	if err := s.deleteAction(ctx, u.SenderID); err != nil {
		return nil, err
	}
	return append([]chat.Message{chat.Sticker{Kind: chat.StickerApology}}, s.menuReply(u.Language, "bug")...), nil
}

// registrationBug drops a user whose registration sequence is corrupted.
func (s *ConversationService) registrationBug(ctx context.Context, u *user.User, reason string) ([]chat.Message, error) {
	s.turnLogger(u).WithField("reason", reason).Warn("Inconsistent registration, deleting user")
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		return s.users.Delete(ctx, u.SenderID)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to delete user %s: %w", u.SenderID, err)
	}
	return []chat.Message{
		chat.Text{Text: s.words.T(u.Language, "bug")},
		chat.Sticker{Kind: chat.StickerApology},
	}, nil
}

func (s *ConversationService) menuReply(lang user.Language, key string) []chat.Message {
	return []chat.Message{chat.Text{Text: s.words.T(lang, key), QuickReplies: s.menuButtons(lang)}}
}

func (s *ConversationService) turnLogger(u *user.User) *logrus.Entry {
	return s.logger.WithFields(logrus.Fields{
		"sender_id": u.SenderID,
		"stage":     u.Stage().String(),
	})
}
