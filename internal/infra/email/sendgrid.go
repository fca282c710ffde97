package email

import (
	"context"
	"fmt"
	"net/http"

	"attendance_notice_bot/internal/domain/notice"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/sirupsen/logrus"
)

type SendgridSender struct {
	client *sendgrid.Client
	from   *sgmail.Email
	logger *logrus.Entry
}

var _ notice.Sender = (*SendgridSender)(nil)

func NewSendgridSender(apiKey, fromName, fromAddress string, logger *logrus.Entry) *SendgridSender {
	return &SendgridSender{
		client: sendgrid.NewSendClient(apiKey),
		from:   sgmail.NewEmail(fromName, fromAddress),
		logger: logger,
	}
}

func (s *SendgridSender) prepare(m notice.Mail) *sgmail.SGMailV3 {
	p := sgmail.NewPersonalization()
	p.Subject = m.Subject
	p.AddTos(sgmail.NewEmail("", m.To))

	msg := sgmail.NewV3Mail()
	msg.SetFrom(s.from)
	msg.AddPersonalizations(p)
	msg.AddContent(sgmail.NewContent("text/plain", m.Text))
	return msg
}

// Send delivers synchronously so the caller knows whether the notice went out.
func (s *SendgridSender) Send(ctx context.Context, m notice.Mail) error {
	res, err := s.client.SendWithContext(ctx, s.prepare(m))
	if err != nil {
		return fmt.Errorf("sending email: %w", err)
	}
	if res.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("sending email: status %d: %s", res.StatusCode, res.Body)
	}
	s.logger.WithFields(logrus.Fields{"to": m.To, "subject": m.Subject}).Info("Email sent")
	return nil
}
