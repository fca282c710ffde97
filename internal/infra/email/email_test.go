package email

import (
	"context"
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"attendance_notice_bot/internal/domain/notice"
)

func quietLogger() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

func TestConsoleSenderRecords(t *testing.T) {
	s := NewConsoleSender(quietLogger())
	m := notice.Mail{To: "office@example.com", Subject: "absence: Alice (3-2)", Text: "body"}
	require.NoError(t, s.Send(context.Background(), m))
	assert.Equal(t, []notice.Mail{m}, s.Sent())
}

func TestSendgridPrepare(t *testing.T) {
	s := NewSendgridSender("key", "School", "noreply@example.com", quietLogger())
	msg := s.prepare(notice.Mail{To: "office@example.com", Subject: "subject", Text: "body"})

	require.Len(t, msg.Personalizations, 1)
	assert.Equal(t, "subject", msg.Personalizations[0].Subject)
	require.Len(t, msg.Personalizations[0].To, 1)
	assert.Equal(t, "office@example.com", msg.Personalizations[0].To[0].Address)
	assert.Equal(t, "noreply@example.com", msg.From.Address)
	require.Len(t, msg.Content, 1)
	assert.Equal(t, "body", msg.Content[0].Value)
}
