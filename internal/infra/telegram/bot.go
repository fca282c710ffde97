package telegram

import (
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

const pollTimeout = 10 * time.Second

// BotSettings configures telebot for either transport. Handlers always run on their own
// goroutine, so ProcessUpdate returns at once and a webhook call is acknowledged before
// the turn runs. Turns of one sender are serialized by the conversation itself.
func BotSettings(token string, polling bool, logger *logrus.Entry) telebot.Settings {
	pref := telebot.Settings{
		Token: token,
		OnError: func(err error, c telebot.Context) {
			entry := logger.WithError(err)
			if c != nil && c.Sender() != nil {
				entry = entry.WithField("sender_id", c.Sender().ID)
			}
			entry.Error("Unhandled telebot error")
		},
	}
	if polling {
		pref.Poller = &telebot.LongPoller{Timeout: pollTimeout}
	}
	return pref
}
