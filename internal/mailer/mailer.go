package mailer

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/go-mail/mail/v2"
)

//go:embed "templates"
var templateFS embed.FS

var functions = template.FuncMap{
	"join": strings.Join,
}

type Mailer interface {
	Send(recipient, templateFile string, data any) error
}

// SMTPMailer renders a template file holding "subject", "plainBody" and
// "htmlBody" blocks and delivers it over SMTP.
type SMTPMailer struct {
	dialer *mail.Dialer
	sender string
}

func NewSMTPMailer(host string, port int, username, password, sender string) *SMTPMailer {
	dialer := mail.NewDialer(host, port, username, password)
	dialer.Timeout = 5 * time.Second

	return &SMTPMailer{
		dialer: dialer,
		sender: sender,
	}
}

func (m *SMTPMailer) Send(recipient, templateFile string, data any) error {
	msg, err := render(templateFile, data)
	if err != nil {
		return err
	}

	message := mail.NewMessage()
	message.SetHeader("To", recipient)
	message.SetHeader("From", m.sender)
	message.SetHeader("Subject", msg.subject)
	message.SetBody("text/plain", msg.plainBody)
	message.AddAlternative("text/html", msg.htmlBody)

	return m.dialer.DialAndSend(message)
}

type rendered struct {
	subject   string
	plainBody string
	htmlBody  string
}

func render(templateFile string, data any) (*rendered, error) {
	tmpl, err := template.New("email").Funcs(functions).ParseFS(templateFS, "templates/"+templateFile)
	if err != nil {
		return nil, fmt.Errorf("parse template %s: %w", templateFile, err)
	}

	var msg rendered

	for name, dst := range map[string]*string{
		"subject":   &msg.subject,
		"plainBody": &msg.plainBody,
		"htmlBody":  &msg.htmlBody,
	} {
		buf := new(bytes.Buffer)
		if err := tmpl.ExecuteTemplate(buf, name, data); err != nil {
			return nil, fmt.Errorf("execute %s of %s: %w", name, templateFile, err)
		}
		*dst = buf.String()
	}

	return &msg, nil
}
