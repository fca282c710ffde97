package telegram

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/telebot.v3"

	"attendance_notice_bot/internal/domain/chat"
)

// blockingConversation holds each turn until release is closed.
type blockingConversation struct {
	started chan chat.Event
	release chan struct{}
}

func (b *blockingConversation) Handle(_ context.Context, ev chat.Event) ([]chat.Message, error) {
	b.started <- ev
	<-b.release
	return nil, nil
}

func TestBotSettings(t *testing.T) {
	polling := BotSettings("TOKEN", true, quietLogger())
	assert.Equal(t, "TOKEN", polling.Token)
	assert.IsType(t, &telebot.LongPoller{}, polling.Poller)
	assert.False(t, polling.Synchronous)
	assert.NotNil(t, polling.OnError)

	webhook := BotSettings("TOKEN", false, quietLogger())
	assert.Nil(t, webhook.Poller)
	assert.False(t, webhook.Synchronous)
}

func TestWebhookAcknowledgesBeforeTurnFinishes(t *testing.T) {
	api := httptest.NewServer(&fakeBotAPI{})
	t.Cleanup(api.Close)

	pref := BotSettings("TEST", false, quietLogger())
	pref.URL = api.URL
	pref.Offline = true
	b, err := telebot.NewBot(pref)
	require.NoError(t, err)

	conv := &blockingConversation{started: make(chan chat.Event, 1), release: make(chan struct{})}
	defer close(conv.release)
	RegisterConversationHandlers(context.Background(), b, conv, NewTelebotAdapter(b, nil, time.UTC, quietLogger()), quietLogger())
	hook := NewWebhookServer(b, "s3cret", quietLogger())

	req := httptest.NewRequest(http.MethodPost, WebhookPath, strings.NewReader(
		`{"update_id":7,"message":{"message_id":1,"date":1712563200,"chat":{"id":42,"type":"private"},"from":{"id":42},"text":"hello"}}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(SecretHeader, "s3cret")
	rec := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		hook.ServeHTTP(rec, req)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("webhook call waited for the turn to finish")
	}
	assert.Equal(t, http.StatusOK, rec.Code)

	select {
	case ev := <-conv.started:
		assert.Equal(t, "hello", ev.Text)
	case <-time.After(time.Second):
		t.Fatal("turn never started")
	}
}
