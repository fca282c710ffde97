package telegram

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"attendance_notice_bot/internal/domain/chat"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

// messenger is the part of *telebot.Bot used to deliver replies.
type messenger interface {
	Send(to telebot.Recipient, what interface{}, opts ...interface{}) (*telebot.Message, error)
}

// TelebotAdapter implements chat.Replier using the gopkg.in/telebot.v3 library.
// The reply token is the Telegram chat id.
type TelebotAdapter struct {
	bot      messenger
	render   renderer
	stickers map[string]string
	logger   *logrus.Entry
}

var _ chat.Replier = (*TelebotAdapter)(nil)

// NewTelebotAdapter takes sticker file ids keyed by sticker kind; kinds without one are sent as emoji.
func NewTelebotAdapter(b messenger, stickerFileIDs map[string]string, loc *time.Location, logger *logrus.Entry) *TelebotAdapter {
	if loc == nil {
		loc = time.UTC
	}
	return &TelebotAdapter{
		bot:      b,
		render:   renderer{location: loc, now: time.Now},
		stickers: stickerFileIDs,
		logger:   logger,
	}
}

func (a *TelebotAdapter) Reply(ctx context.Context, replyToken string, msgs ...chat.Message) error {
	chatID, err := strconv.ParseInt(replyToken, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid reply token %q: %w", replyToken, err)
	}
	to := telebot.ChatID(chatID)
	for _, m := range msgs {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := a.send(to, m); err != nil {
			return fmt.Errorf("failed to send %T to chat %d: %w", m, chatID, err)
		}
	}
	return nil
}

func (a *TelebotAdapter) send(to telebot.Recipient, m chat.Message) error {
	switch v := m.(type) {
	case chat.Text:
		parts := splitText(v.Text, maxMessageLength)
		markup := a.render.keyboard(v.QuickReplies)
		for i, part := range parts {
			var opts []interface{}
			if i == len(parts)-1 && markup != nil {
				opts = append(opts, markup)
			}
			if _, err := a.bot.Send(to, part, opts...); err != nil {
				return err
			}
		}
		return nil

	case chat.Confirm:
		_, err := a.bot.Send(to, v.Text, a.render.confirm(v))
		return err

	case chat.Sticker:
		if id, ok := a.stickers[string(v.Kind)]; ok && id != "" {
			_, err := a.bot.Send(to, &telebot.Sticker{File: telebot.File{FileID: id}})
			return err
		}
		emoji, ok := stickerEmoji[v.Kind]
		if !ok {
			a.logger.WithField("sticker", v.Kind).Debug("No sticker mapping, skipping")
			return nil
		}
		_, err := a.bot.Send(to, emoji)
		return err

	default:
		return fmt.Errorf("unsupported message type %T", m)
	}
}
