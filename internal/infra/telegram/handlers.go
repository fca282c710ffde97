package telegram

import (
	"context"
	"strconv"
	"time"

	"attendance_notice_bot/internal/domain/chat"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

const turnTimeout = 30 * time.Second

// Conversation handles one canonical event.
type Conversation interface {
	Handle(ctx context.Context, ev chat.Event) ([]chat.Message, error)
}

type conversationHandlers struct {
	ctx          context.Context
	conversation Conversation
	replier      chat.Replier
	logger       *logrus.Entry
	now          func() time.Time
}

// RegisterConversationHandlers routes text, callback and sticker updates to the conversation.
// Failures are logged and never returned to telebot, so the transport always sees success.
func RegisterConversationHandlers(ctx context.Context, b *telebot.Bot, conversation Conversation, replier chat.Replier, baseLogger *logrus.Entry) {
	h := &conversationHandlers{
		ctx:          ctx,
		conversation: conversation,
		replier:      replier,
		logger:       baseLogger.WithField("handler_group", "conversation"),
		now:          time.Now,
	}
	b.Handle(telebot.OnText, h.onText)
	b.Handle(telebot.OnCallback, h.onCallback)
	b.Handle(telebot.OnSticker, h.onSticker)
}

func (h *conversationHandlers) onText(c telebot.Context) error {
	ev := h.baseEvent(c, chat.EventText)
	ev.Timestamp = c.Message().Time()
	ev.Text = c.Text()
	h.dispatch(ev)
	return nil
}

func (h *conversationHandlers) onSticker(c telebot.Context) error {
	ev := h.baseEvent(c, chat.EventSticker)
	ev.Timestamp = c.Message().Time()
	h.dispatch(ev)
	return nil
}

func (h *conversationHandlers) onCallback(c telebot.Context) error {
	data := c.Callback().Data
	log := h.logger.WithFields(logrus.Fields{"sender_id": c.Sender().ID, "callback": data})

	if err := c.Respond(); err != nil {
		log.WithError(err).Warn("Failed to answer callback query")
	}

	// First step of a datetime picker stays inside the adapter.
	if target, date, ok := parseDayCallback(data); ok && c.Message() != nil {
		if err := c.Edit(c.Message().Text, hourKeyboard(target, date)); err != nil {
			log.WithError(err).Error("Failed to show hour picker")
		}
		return nil
	}

	ev := h.baseEvent(c, chat.EventPostback)
	ev.Timestamp = h.now()
	ev.Postback = chat.DecodePostback(data)
	h.dispatch(ev)
	return nil
}

func (h *conversationHandlers) baseEvent(c telebot.Context, kind chat.EventKind) chat.Event {
	sender := strconv.FormatInt(c.Sender().ID, 10)
	replyTo := sender
	if ch := c.Chat(); ch != nil {
		replyTo = strconv.FormatInt(ch.ID, 10)
	}
	return chat.Event{
		ID:         strconv.Itoa(c.Update().ID),
		Kind:       kind,
		SenderID:   sender,
		ReplyToken: replyTo,
	}
}

func (h *conversationHandlers) dispatch(ev chat.Event) {
	ctx, cancel := context.WithTimeout(h.ctx, turnTimeout)
	defer cancel()

	log := h.logger.WithFields(logrus.Fields{
		"turn_id":    uuid.NewString(),
		"event_id":   ev.ID,
		"event_kind": ev.Kind.String(),
		"sender_id":  ev.SenderID,
	})
	log.Debug("Processing event")

	msgs, err := h.conversation.Handle(ctx, ev)
	if err != nil {
		log.WithError(err).Error("Failed to handle event")
		return
	}
	if len(msgs) == 0 {
		return
	}
	if err := h.replier.Reply(ctx, ev.ReplyToken, msgs...); err != nil {
		log.WithError(err).Warn("Failed to deliver replies")
	}
}
