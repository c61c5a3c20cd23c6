package service

import (
	"bytes"
	"html/template"
	"log"

	mail "github.com/go-mail/mail/v2"

	"tasktracker/internal/model"
)

const welcomeTemplate = `{{define "subject"}}Welcome to Task Tracker{{end}}
{{define "plainBody"}}Hi {{.Username}},

Your account is ready. Log in to start organizing your tasks.
{{end}}
{{define "htmlBody"}}<p>Hi {{.Username}},</p>
<p>Your account is ready. Log in to start organizing your tasks.</p>
{{end}}`

// MailService sends account emails. With no SMTP host configured it is a
// no-op, so local setups work without a mail server.
type MailService struct {
	dialer *mail.Dialer
	sender string
	tmpl   *template.Template
}

func NewMailService(host string, port int, username, password, sender string) *MailService {
	if host == "" {
		return &MailService{}
	}
	return &MailService{
		dialer: mail.NewDialer(host, port, username, password),
		sender: sender,
		tmpl:   template.Must(template.New("welcome").Parse(welcomeTemplate)),
	}
}

func (s *MailService) Enabled() bool {
	return s.dialer != nil
}

// SendWelcome delivers the welcome mail in the background. Registration never
// fails because SMTP is down.
func (s *MailService) SendWelcome(user *model.User) {
	if !s.Enabled() {
		return
	}
	to := user.Email
	data := struct{ Username string }{Username: user.Username}
	go func() {
		if err := s.send(to, data); err != nil {
			log.Printf("welcome mail to %s: %v", to, err)
		}
	}()
}

func (s *MailService) send(to string, data any) error {
	var subject, plainBody, htmlBody bytes.Buffer
	if err := s.tmpl.ExecuteTemplate(&subject, "subject", data); err != nil {
		return err
	}
	if err := s.tmpl.ExecuteTemplate(&plainBody, "plainBody", data); err != nil {
		return err
	}
	if err := s.tmpl.ExecuteTemplate(&htmlBody, "htmlBody", data); err != nil {
		return err
	}

	msg := mail.NewMessage()
	msg.SetHeader("To", to)
	msg.SetHeader("From", s.sender)
	msg.SetHeader("Subject", subject.String())
	msg.SetBody("text/plain", plainBody.String())
	msg.AddAlternative("text/html", htmlBody.String())

	var err error
	for i := 0; i < 3; i++ {
		if err = s.dialer.DialAndSend(msg); err == nil {
			return nil
		}
	}
	return err
}
