package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/telebot.v3"

	"attendance_notice_bot/internal/domain/chat"
)

type apiCall struct {
	method string
	params map[string]any
}

// fakeBotAPI answers every Bot API method with a minimal message.
type fakeBotAPI struct {
	mu    sync.Mutex
	calls []apiCall
}

func (f *fakeBotAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	params := map[string]any{}
	_ = json.NewDecoder(r.Body).Decode(&params)
	f.mu.Lock()
	f.calls = append(f.calls, apiCall{method: r.URL.Path[strings.LastIndex(r.URL.Path, "/")+1:], params: params})
	f.mu.Unlock()
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"ok":true,"result":{"message_id":1,"date":0,"chat":{"id":42,"type":"private"}}}`))
}

func (f *fakeBotAPI) methods() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.calls))
	for _, c := range f.calls {
		out = append(out, c.method)
	}
	return out
}

func (f *fakeBotAPI) last(method string) apiCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.calls) - 1; i >= 0; i-- {
		if f.calls[i].method == method {
			return f.calls[i]
		}
	}
	return apiCall{}
}

type fakeConversation struct {
	events []chat.Event
	reply  []chat.Message
	err    error
}

func (f *fakeConversation) Handle(_ context.Context, ev chat.Event) ([]chat.Message, error) {
	f.events = append(f.events, ev)
	return f.reply, f.err
}

func newTestBot(t *testing.T, conv Conversation) (*telebot.Bot, *fakeBotAPI) {
	t.Helper()
	api := &fakeBotAPI{}
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	b, err := telebot.NewBot(telebot.Settings{Token: "TEST", URL: srv.URL, Offline: true, Synchronous: true})
	require.NoError(t, err)
	replier := NewTelebotAdapter(b, nil, time.UTC, quietLogger())
	RegisterConversationHandlers(context.Background(), b, conv, replier, quietLogger())
	return b, api
}

func TestTextUpdateBecomesTextEvent(t *testing.T) {
	conv := &fakeConversation{reply: []chat.Message{chat.Text{Text: "welcome"}}}
	b, api := newTestBot(t, conv)

	b.ProcessUpdate(telebot.Update{ID: 10, Message: &telebot.Message{
		ID: 1, Unixtime: 1712563200, Text: "hello",
		Sender: &telebot.User{ID: 42}, Chat: &telebot.Chat{ID: 42},
	}})

	require.Len(t, conv.events, 1)
	ev := conv.events[0]
	assert.Equal(t, chat.EventText, ev.Kind)
	assert.Equal(t, "10", ev.ID)
	assert.Equal(t, "42", ev.SenderID)
	assert.Equal(t, "42", ev.ReplyToken)
	assert.Equal(t, "hello", ev.Text)
	assert.True(t, ev.Timestamp.Equal(time.Unix(1712563200, 0)))

	assert.Equal(t, []string{"sendMessage"}, api.methods())
	assert.Equal(t, "welcome", api.last("sendMessage").params["text"])
}

func TestCallbackUpdateBecomesPostbackEvent(t *testing.T) {
	conv := &fakeConversation{reply: []chat.Message{chat.Text{Text: "why?"}}}
	b, api := newTestBot(t, conv)

	b.ProcessUpdate(telebot.Update{ID: 11, Callback: &telebot.Callback{
		ID: "cb1", Sender: &telebot.User{ID: 42},
		Message: &telebot.Message{ID: 5, Chat: &telebot.Chat{ID: 42}, Text: "pick a day"},
		Data:    "action_irregular_absence|date=2024-04-09",
	}})

	require.Len(t, conv.events, 1)
	ev := conv.events[0]
	assert.Equal(t, chat.EventPostback, ev.Kind)
	assert.Equal(t, "action_irregular_absence", ev.Postback.Data)
	assert.Equal(t, "2024-04-09", ev.Postback.Params.Date)
	assert.False(t, ev.Timestamp.IsZero())

	assert.Equal(t, []string{"answerCallbackQuery", "sendMessage"}, api.methods())
}

func TestDayCallbackShowsHourPicker(t *testing.T) {
	conv := &fakeConversation{}
	b, api := newTestBot(t, conv)

	b.ProcessUpdate(telebot.Update{ID: 12, Callback: &telebot.Callback{
		ID: "cb2", Sender: &telebot.User{ID: 42},
		Message: &telebot.Message{ID: 6, Chat: &telebot.Chat{ID: 42}, Text: "When?"},
		Data:    "dtday|action_irregular_tardiness|2024-04-09",
	}})

	assert.Empty(t, conv.events)
	assert.Equal(t, []string{"answerCallbackQuery", "editMessageText"}, api.methods())
	markup, _ := api.last("editMessageText").params["reply_markup"].(string)
	assert.Contains(t, markup, "action_irregular_tardiness|datetime=2024-04-09T07:00")
}

func TestStickerUpdateBecomesStickerEvent(t *testing.T) {
	conv := &fakeConversation{reply: []chat.Message{chat.Sticker{Kind: chat.StickerAck}}}
	b, api := newTestBot(t, conv)

	b.ProcessUpdate(telebot.Update{ID: 13, Message: &telebot.Message{
		ID: 2, Unixtime: 1712563200, Sticker: &telebot.Sticker{File: telebot.File{FileID: "abc"}},
		Sender: &telebot.User{ID: 42}, Chat: &telebot.Chat{ID: 42},
	}})

	require.Len(t, conv.events, 1)
	assert.Equal(t, chat.EventSticker, conv.events[0].Kind)
	assert.Equal(t, stickerEmoji[chat.StickerAck], api.last("sendMessage").params["text"])
}

func TestConversationErrorSendsNothing(t *testing.T) {
	conv := &fakeConversation{err: errors.New("db down")}
	b, api := newTestBot(t, conv)

	b.ProcessUpdate(telebot.Update{ID: 14, Message: &telebot.Message{
		ID: 3, Unixtime: 1712563200, Text: "hello",
		Sender: &telebot.User{ID: 42}, Chat: &telebot.Chat{ID: 42},
	}})

	assert.Len(t, conv.events, 1)
	assert.Empty(t, api.methods())
}
