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
	"attendance_notice_bot/internal/domain/user"
)

// errActionGone means the action a turn loaded was cancelled, submitted or replaced meanwhile.
var errActionGone = errors.New("action no longer in flight")

// openMenu starts a new action for the chosen menu entry, replacing any action in flight.
func (s *ConversationService) openMenu(ctx context.Context, u *user.User, item string, at time.Time) ([]chat.Message, error) {
	lang := u.Language
	if item == menuAnswerSubmit {
		return append([]chat.Message{chat.Sticker{Kind: chat.StickerUnderConstruction}}, s.menuReply(lang, "underConstruction")...), nil
	}
	c, ok := action.ParseCategory(item)
	if !ok {
		return s.menuReply(lang, "dontKnow"), nil
	}

	a := action.New(u.SenderID, c, at)
	if err := s.saveAction(ctx, a); err != nil {
		return nil, err
	}
	s.turnLogger(u).WithField("category", c).Info("Action started")

	switch {
	case c.IsGroup():
		return []chat.Message{chat.Text{Text: s.words.T(lang, "proceed_"+string(c)), QuickReplies: s.subCategoryButtons(lang, c)}}, nil
	case c.WhenKind() == action.WhenNone:
		return s.askDescription(lang), nil
	default:
		return []chat.Message{chat.Text{Text: s.words.T(lang, "proceed_"+string(c)), QuickReplies: s.whenButtons(lang, c)}}, nil
	}
}

func (s *ConversationService) askDescription(lang user.Language) []chat.Message {
	return []chat.Message{chat.Text{Text: s.words.T(lang, "askDescription"), QuickReplies: []chat.Button{s.cancelButton(lang)}}}
}

// chooseSubCategory resolves a group placeholder into a concrete category.
func (s *ConversationService) chooseSubCategory(ctx context.Context, u *user.User, value string) ([]chat.Message, error) {
	a, err := s.pendingAction(ctx, u.SenderID)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return s.menuReply(u.Language, "noPendingAction"), nil
	}
	c, ok := action.ParseCategory(value)
	if !ok || c.IsGroup() || c.WhenKind() != action.WhenNone {
		return s.actionBug(ctx, u, "invalid sub-category "+value)
	}
	if a.Category == c && a.Stage() == action.StageAwaitingReason {
		return s.askDescription(u.Language), nil
	}
	if !a.Category.IsGroup() {
		return s.actionBug(ctx, u, fmt.Sprintf("sub-category %s for %s action", c, a.Category))
	}

	a.Category = c
	a.When = action.NotApplicable
	if err := s.updateAction(ctx, a); err != nil {
		return s.actionGone(u, err)
	}
	return s.askDescription(u.Language), nil
}

// commitWhen stores the picker value of a date or datetime category.
func (s *ConversationService) commitWhen(ctx context.Context, u *user.User, value string, params chat.PostbackParams) ([]chat.Message, error) {
	a, err := s.pendingAction(ctx, u.SenderID)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return s.menuReply(u.Language, "noPendingAction"), nil
	}
	if string(a.Category) != value {
		return s.actionBug(ctx, u, fmt.Sprintf("picker for %s while action is %s", value, a.Category))
	}

	when := params.Date
	if a.Category.WhenKind() == action.WhenDateTime {
		when = params.Datetime
	}
	if err := action.ValidateWhen(a.Category, when); err != nil {
		return s.actionBug(ctx, u, err.Error())
	}

	a.When = when
	if err := s.updateAction(ctx, a); err != nil {
		return s.actionGone(u, err)
	}
	if a.Reason != "" {
		return []chat.Message{s.confirmation(u.Language, a)}, nil
	}
	return s.askReason(u.Language, a), nil
}

func (s *ConversationService) askReason(lang user.Language, a *action.Action) []chat.Message {
	if a.When == action.NotApplicable {
		return s.askDescription(lang)
	}
	return []chat.Message{chat.Text{Text: s.words.T(lang, "askReason"), QuickReplies: []chat.Button{s.cancelButton(lang)}}}
}

// continueAction handles free text while an action is in flight.
func (s *ConversationService) continueAction(ctx context.Context, u *user.User, a *action.Action, text string) ([]chat.Message, error) {
	if s.isCancelWord(u.Language, text) {
		return s.cancel(ctx, u)
	}
	switch a.Stage() {
	case action.StageAwaitingCategory, action.StageAwaitingWhen:
		return s.actionBug(ctx, u, "text received while "+a.Stage().String())
	case action.StageAwaitingReason:
		if text == "" {
			return s.askReason(u.Language, a), nil
		}
		a.Reason = text
		if err := s.updateAction(ctx, a); err != nil {
			return s.actionGone(u, err)
		}
		return []chat.Message{s.confirmation(u.Language, a)}, nil
	default:
		return []chat.Message{s.confirmation(u.Language, a)}, nil
	}
}

func (s *ConversationService) isCancelWord(lang user.Language, text string) bool {
	return strings.EqualFold(text, s.words.T(lang, "cancel")) || strings.EqualFold(text, "cancel")
}

// confirmation summarises the action and offers submit or cancel.
func (s *ConversationService) confirmation(lang user.Language, a *action.Action) chat.Confirm {
	var b strings.Builder
	b.WriteString(s.words.T(lang, "confirmSubmit"))
	b.WriteString("\n" + s.words.T(lang, string(a.Category)))
	if a.When != action.NotApplicable {
		b.WriteString("\n" + s.words.T(lang, "dateTime") + ": " + a.When)
	}
	b.WriteString("\n" + s.words.T(lang, "description") + ": " + a.Reason)
	text := b.String()
	return chat.Confirm{
		Text:    text,
		AltText: text,
		Left:    chat.PostbackButton{Label: s.words.T(lang, "yes"), Data: dataSubmit},
		Right:   chat.PostbackButton{Label: s.words.T(lang, "cancel"), Data: dataCancel},
	}
}

// submit notifies staff, then archives and deletes the action in one transaction.
// A failed notification keeps the action so the user can retry.
func (s *ConversationService) submit(ctx context.Context, u *user.User, at time.Time) ([]chat.Message, error) {
	a, err := s.pendingAction(ctx, u.SenderID)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return s.menuReply(u.Language, "noPendingAction"), nil
	}
	if a.Stage() != action.StageAwaitingConfirmation || !a.Category.Submittable() {
		return s.actionBug(ctx, u, "submit while "+a.Stage().String())
	}
	log := s.turnLogger(u).WithField("category", a.Category)

	if err := s.notify(ctx, u, a); err != nil {
		log.WithError(err).Error("Failed to notify staff, keeping action")
		return []chat.Message{
			chat.Sticker{Kind: chat.StickerApology},
			chat.Text{Text: s.words.T(u.Language, "bug")},
			s.confirmation(u.Language, a),
		}, nil
	}

	record := &action.SentAction{
		SenderID:       u.SenderID,
		ChildName:      u.ChildName,
		Grade:          u.Grade,
		Classroom:      u.Classroom,
		Category:       a.Category,
		When:           a.When,
		Reason:         a.Reason,
		RegisteredDate: at.In(s.location).Format(action.DateLayout),
		StartedAt:      a.CreatedAt,
		CreatedAt:      at,
	}
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.requireAction(ctx, a); err != nil {
			return err
		}
		if err := s.sent.Create(ctx, record); err != nil {
			return fmt.Errorf("failed to archive action: %w", err)
		}
		if err := s.actions.Delete(ctx, u.SenderID); err != nil {
			return fmt.Errorf("failed to delete submitted action: %w", err)
		}
		return nil
	})
	if errors.Is(err, errActionGone) {
		log.Warn("Action left flight before it was archived, skipping archive")
		return s.menuReply(u.Language, "noPendingAction"), nil
	}
	if err != nil {
		return nil, err
	}
	log.Info("Action submitted")
	return append([]chat.Message{chat.Sticker{Kind: chat.StickerSent}}, s.menuReply(u.Language, string(a.Category)+"Sent")...), nil
}

func (s *ConversationService) notify(ctx context.Context, u *user.User, a *action.Action) error {
	to, err := s.staff.StaffEmail(ctx)
	if err != nil {
		return err
	}
	mail, err := notice.ComposeNotice(to, notice.Notice{
		ChildName: u.ChildName,
		Grade:     u.Grade,
		Classroom: u.Classroom,
		Category:  a.Category,
		When:      a.When,
		Reason:    a.Reason,
	})
	if err != nil {
		return err
	}
	return s.mailer.Send(ctx, mail)
}

// actionGone answers a turn whose action vanished under it. Other errors pass through.
func (s *ConversationService) actionGone(u *user.User, err error) ([]chat.Message, error) {
	if errors.Is(err, errActionGone) {
		return s.menuReply(u.Language, "noPendingAction"), nil
	}
	return nil, err
}

// cancel deletes the action in flight. Cancelling twice is harmless.
func (s *ConversationService) cancel(ctx context.Context, u *user.User) ([]chat.Message, error) {
	if err := s.deleteAction(ctx, u.SenderID); err != nil {
		return nil, err
	}
	return s.menuReply(u.Language, "cancelDone"), nil
}
