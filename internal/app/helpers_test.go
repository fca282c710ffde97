package app

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"attendance_notice_bot/internal/domain/chat"
	"attendance_notice_bot/internal/domain/notice"
	"attendance_notice_bot/internal/domain/settings"
	"attendance_notice_bot/internal/domain/user"
	"attendance_notice_bot/internal/infra/memstore"
)

const testTeacherCommand = "Teacher on"

// fakeWords renders keys as "<lang>:<key>" so assertions can check language and key together.
type fakeWords struct{}

func (fakeWords) T(lang user.Language, key string) string { return string(lang) + ":" + key }

func (fakeWords) Tf(lang user.Language, key string, args ...any) string {
	return string(lang) + ":" + key + fmt.Sprint(args...)
}

type fakeSender struct {
	mu    sync.Mutex
	err   error
	mails []notice.Mail
}

func (f *fakeSender) Send(_ context.Context, m notice.Mail) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.mails = append(f.mails, m)
	return nil
}

type fakeResponder map[string]string

func (f fakeResponder) Respond(text string) (string, bool) {
	r, ok := f[strings.ToLower(text)]
	return r, ok
}

type harness struct {
	svc      *ConversationService
	staff    *StaffService
	db       *memstore.DB
	users    *memstore.UserRepository
	actions  *memstore.ActionRepository
	sent     *memstore.SentActionRepository
	settings *memstore.SettingsRepository
	tx       *memstore.Transactor
	mailer   *fakeSender
	now      time.Time
	seq      int
}

func quietLogger() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	db := memstore.Open()
	h := &harness{
		db:       db,
		users:    memstore.NewUserRepository(db),
		actions:  memstore.NewActionRepository(db),
		sent:     memstore.NewSentActionRepository(db),
		settings: memstore.NewSettingsRepository(db),
		tx:       memstore.NewTransactor(db),
		mailer:   &fakeSender{},
		now:      time.Date(2024, 4, 8, 7, 30, 0, 0, time.UTC),
	}
	h.staff = NewStaffService(h.users, h.sent, h.settings, h.tx)
	h.svc = h.serviceWith(h.mailer)
	return h
}

// serviceWith builds a service over the harness store that mails through m.
func (h *harness) serviceWith(m notice.Sender) *ConversationService {
	return NewConversationService(ConversationDeps{
		Users:          h.users,
		Actions:        h.actions,
		Sent:           h.sent,
		Tx:             h.tx,
		Staff:          h.staff,
		Mailer:         m,
		Words:          fakeWords{},
		Responder:      fakeResponder{"hello": "Hi there!"},
		TeacherCommand: testTeacherCommand,
		Location:       time.UTC,
		Logger:         quietLogger(),
	})
}

func (h *harness) event(sender string, kind chat.EventKind) chat.Event {
	h.seq++
	h.now = h.now.Add(time.Minute)
	return chat.Event{
		ID:         fmt.Sprintf("ev-%d", h.seq),
		Kind:       kind,
		SenderID:   sender,
		ReplyToken: fmt.Sprintf("token-%d", h.seq),
		Timestamp:  h.now,
	}
}

func (h *harness) text(t *testing.T, sender, text string) []chat.Message {
	t.Helper()
	ev := h.event(sender, chat.EventText)
	ev.Text = text
	msgs, err := h.svc.Handle(context.Background(), ev)
	require.NoError(t, err)
	return msgs
}

func (h *harness) postback(t *testing.T, sender, data string, params ...chat.PostbackParams) []chat.Message {
	t.Helper()
	ev := h.event(sender, chat.EventPostback)
	ev.Postback = chat.Postback{Data: data}
	if len(params) > 0 {
		ev.Postback.Params = params[0]
	}
	msgs, err := h.svc.Handle(context.Background(), ev)
	require.NoError(t, err)
	return msgs
}

// register walks a sender through the whole registration sequence.
func (h *harness) register(t *testing.T, sender string, lang string) {
	t.Helper()
	h.text(t, sender, "hi")
	h.postback(t, sender, prefixLanguage+lang)
	h.postback(t, sender, "grade_3")
	h.postback(t, sender, "classroom_2")
	h.text(t, sender, "Taro")
}

func (h *harness) setStaffEmail(t *testing.T, address string) {
	t.Helper()
	require.NoError(t, h.settings.Save(context.Background(), &settings.Configuration{Key: settings.KeyEmail, Email: address}))
}

func texts(msgs []chat.Message) []string {
	var out []string
	for _, m := range msgs {
		switch v := m.(type) {
		case chat.Text:
			out = append(out, v.Text)
		case chat.Confirm:
			out = append(out, v.Text)
		}
	}
	return out
}

func stickers(msgs []chat.Message) []chat.StickerKind {
	var out []chat.StickerKind
	for _, m := range msgs {
		if s, ok := m.(chat.Sticker); ok {
			out = append(out, s.Kind)
		}
	}
	return out
}

func lastText(t *testing.T, msgs []chat.Message) chat.Text {
	t.Helper()
	for i := len(msgs) - 1; i >= 0; i-- {
		if v, ok := msgs[i].(chat.Text); ok {
			return v
		}
	}
	t.Fatalf("no text message in %#v", msgs)
	return chat.Text{}
}

func lastConfirm(t *testing.T, msgs []chat.Message) chat.Confirm {
	t.Helper()
	for i := len(msgs) - 1; i >= 0; i-- {
		if v, ok := msgs[i].(chat.Confirm); ok {
			return v
		}
	}
	t.Fatalf("no confirm message in %#v", msgs)
	return chat.Confirm{}
}

func buttonData(buttons []chat.Button) []string {
	out := make([]string, 0, len(buttons))
	for _, b := range buttons {
		switch v := b.(type) {
		case chat.PostbackButton:
			out = append(out, v.Data)
		case chat.DatePickerButton:
			out = append(out, v.Data)
		}
	}
	return out
}
