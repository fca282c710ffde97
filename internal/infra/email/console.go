package email

import (
	"context"
	"sync"

	"attendance_notice_bot/internal/domain/notice"

	"github.com/sirupsen/logrus"
)

// ConsoleSender logs mail instead of delivering it. Used when no SendGrid key is configured.
type ConsoleSender struct {
	logger *logrus.Entry

	mu   sync.Mutex
	sent []notice.Mail
}

var _ notice.Sender = (*ConsoleSender)(nil)

func NewConsoleSender(logger *logrus.Entry) *ConsoleSender {
	return &ConsoleSender{logger: logger}
}

func (s *ConsoleSender) Send(_ context.Context, m notice.Mail) error {
	s.mu.Lock()
	s.sent = append(s.sent, m)
	s.mu.Unlock()

	s.logger.WithFields(logrus.Fields{"to": m.To, "subject": m.Subject}).Info(m.Text)
	return nil
}

// Sent returns a copy of everything sent so far.
func (s *ConsoleSender) Sent() []notice.Mail {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]notice.Mail(nil), s.sent...)
}
