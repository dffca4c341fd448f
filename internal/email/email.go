package email

import (
	"bytes"
	"fmt"
	"html/template"
	"net/smtp"

	"github.com/rs/zerolog"
)

type Sender struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
	Logger   zerolog.Logger
}

func NewSender(host, port, username, password, from string, logger zerolog.Logger) *Sender {
	return &Sender{
		Host:     host,
		Port:     port,
		Username: username,
		Password: password,
		From:     from,
		Logger:   logger,
	}
}

const verificationTemplate = `
<!DOCTYPE html>
<html>
<body>
    <p>Hi {{.Username}},</p>
    <p>Thanks for signing up for Pairchat. Please verify your email address to get started.</p>
    <p><a href="{{.Link}}">Verify Email</a></p>
    <p>If you didn't create an account, you can safely ignore this email.</p>
</body>
</html>
`

func (s *Sender) SendVerificationEmail(to, username, link string) error {
	t, err := template.New("verification").Parse(verificationTemplate)
	if err != nil {
		return fmt.Errorf("failed to parse template: %w", err)
	}

	var body bytes.Buffer
	if err := t.Execute(&body, map[string]string{"Username": username, "Link": link}); err != nil {
		return fmt.Errorf("failed to execute template: %w", err)
	}

	headers := map[string]string{
		"From":         s.From,
		"To":           to,
		"Subject":      "Verify your Pairchat email",
		"MIME-Version": "1.0",
		"Content-Type": `text/html; charset="UTF-8"`,
	}

	message := ""
	for k, v := range headers {
		message += fmt.Sprintf("%s: %s\r\n", k, v)
	}
	message += "\r\n" + body.String()

	// No SMTP host configured: log the email instead of sending it.
	if s.Host == "" {
		s.Logger.Info().
			Str("to", to).
			Str("link", link).
			Msg("verification email (smtp not configured)")
		return nil
	}

	auth := smtp.PlainAuth("", s.Username, s.Password, s.Host)
	addr := fmt.Sprintf("%s:%s", s.Host, s.Port)
	return smtp.SendMail(addr, auth, s.From, []string{to}, []byte(message))
}
