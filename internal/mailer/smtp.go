package mailer

import (
	"bytes"
	"context"
	"fmt"
	"net/smtp"
	"strings"
)

// SMTPMailer delivers mail through a plain SMTP relay (Mailpit in dev,
// whatever the host offers in prod).
type SMTPMailer struct {
	host string
	port int
	from string
	user string
	pass string
}

func NewSMTPMailer(host string, port int, from, user, pass string) *SMTPMailer {
	return &SMTPMailer{
		host: strings.TrimSpace(host),
		port: port,
		from: strings.TrimSpace(from),
		user: strings.TrimSpace(user),
		pass: pass,
	}
}

func (m *SMTPMailer) SendPasswordReset(ctx context.Context, in PasswordResetInput) error {
	subject := fmt.Sprintf("Your password reset token (valid for %s)", in.Validity)
	text := fmt.Sprintf(
		"Forgot your password? Submit a PATCH request with your new password to %s.\nIf you didn't request a password reset, please ignore this email.",
		in.ResetURL,
	)
	html := fmt.Sprintf(
		`<p>Forgot your password? Submit a PATCH request with your new password to <a href="%s">%s</a>.</p><p>If you didn't request a password reset, please ignore this email.</p>`,
		in.ResetURL, in.ResetURL,
	)

	return m.send(ctx, in.Email, subject, text, html)
}

func (m *SMTPMailer) send(ctx context.Context, toEmail, subject, text, html string) error {
	toEmail = strings.TrimSpace(toEmail)

	if toEmail == "" {
		return fmt.Errorf("empty recipient email")
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	var buf bytes.Buffer

	boundary := "alt-boundary"

	fmt.Fprintf(&buf, "From: %s\r\n", m.from)
	fmt.Fprintf(&buf, "To: %s\r\n", toEmail)
	fmt.Fprintf(&buf, "Subject: %s\r\n", subject)
	fmt.Fprintf(&buf, "MIME-Version: 1.0\r\n")
	fmt.Fprintf(&buf, "Content-Type: multipart/alternative; boundary=%s\r\n\r\n", boundary)

	// text part
	fmt.Fprintf(&buf, "--%s\r\n", boundary)
	fmt.Fprintf(&buf, "Content-Type: text/plain; charset=utf-8\r\n\r\n")
	fmt.Fprintf(&buf, "%s\r\n\r\n", text)

	// html part
	fmt.Fprintf(&buf, "--%s\r\n", boundary)
	fmt.Fprintf(&buf, "Content-Type: text/html; charset=utf-8\r\n\r\n")
	fmt.Fprintf(&buf, "%s\r\n\r\n", html)

	fmt.Fprintf(&buf, "--%s--\r\n", boundary)

	addr := fmt.Sprintf("%s:%d", m.host, m.port)

	// Mailpit-style relay: no auth advertised
	if m.user == "" {
		return smtp.SendMail(addr, nil, m.from, []string{toEmail}, buf.Bytes())
	}

	auth := smtp.PlainAuth("", m.user, m.pass, m.host)

	return smtp.SendMail(addr, auth, m.from, []string{toEmail}, buf.Bytes())
}
