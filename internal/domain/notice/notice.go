package notice

import (
	"bytes"
	"context"
	"fmt"
	"text/template"

	"attendance_notice_bot/internal/domain/action"
)

// ErrNoRecipient is returned when no staff address has been configured yet.
var ErrNoRecipient = fmt.Errorf("no staff notification address configured")

// Mail is a rendered plain-text email to one recipient.
type Mail struct {
	To      string
	Subject string
	Text    string
}

// Sender delivers mail to the staff address. Errors are returned to the caller.
type Sender interface {
	Send(ctx context.Context, m Mail) error
}

// Notice holds the fields of one submitted action.
type Notice struct {
	ChildName string
	Grade     int
	Classroom int
	Category  action.Category
	When      string
	Reason    string
}

var noticeTmpl = template.Must(template.New("notice").Parse(
	`A new notice was submitted.

Name:      {{.ChildName}}
Grade:     {{.Grade}}
Classroom: {{.Classroom}}
Category:  {{.Category}}
When:      {{.When}}
Reason:    {{.Reason}}
`))

var digestTmpl = template.Must(template.New("digest").Parse(
	`Notices registered on {{.Date}}: {{len .Items}}
{{range .Items}}
- {{.ChildName}} (grade {{.Grade}}, class {{.Classroom}}) {{.Category}} {{.When}}: {{.Reason}}{{end}}
`))

// ComposeNotice renders the email sent for a single submission.
func ComposeNotice(to string, n Notice) (Mail, error) {
	if to == "" {
		return Mail{}, ErrNoRecipient
	}
	var buf bytes.Buffer
	if err := noticeTmpl.Execute(&buf, n); err != nil {
		return Mail{}, fmt.Errorf("rendering notice: %w", err)
	}
	return Mail{
		To:      to,
		Subject: fmt.Sprintf("%s: %s (%d-%d)", n.Category, n.ChildName, n.Grade, n.Classroom),
		Text:    buf.String(),
	}, nil
}

// ComposeDigest renders the daily summary of archived notices.
func ComposeDigest(to, date string, items []*action.SentAction) (Mail, error) {
	if to == "" {
		return Mail{}, ErrNoRecipient
	}
	var buf bytes.Buffer
	data := struct {
		Date  string
		Items []*action.SentAction
	}{date, items}
	if err := digestTmpl.Execute(&buf, data); err != nil {
		return Mail{}, fmt.Errorf("rendering digest: %w", err)
	}
	return Mail{
		To:      to,
		Subject: fmt.Sprintf("Daily digest %s (%d)", date, len(items)),
		Text:    buf.String(),
	}, nil
}
