package mail

import (
	"fmt"
	"net/url"

	"gopkg.in/gomail.v2"
)

// Mailer sends account notification emails. Implementations are fire-and-forget
// side effects of user management; a failed send surfaces as an error to the
// caller, never silently.
type Mailer interface {
	SendPasswordCreationLink(toEmail, username, token string) error
	SendPasswordResetLink(toEmail, username, token string) error
}

// SMTPMailer sends emails through an SMTP relay using gomail.
type SMTPMailer struct {
	dialer      *gomail.Dialer
	senderEmail string
	senderName  string
	baseURL     string
}

// NewSMTPMailer creates a mailer for the given SMTP relay. baseURL is the
// public address of the web app, used to build the links inside emails.
func NewSMTPMailer(host string, port int, username, password, senderEmail, senderName, baseURL string) *SMTPMailer {
	return &SMTPMailer{
		dialer:      gomail.NewDialer(host, port, username, password),
		senderEmail: senderEmail,
		senderName:  senderName,
		baseURL:     baseURL,
	}
}

// SendPasswordCreationLink emails a new user a link to set their first password.
func (m *SMTPMailer) SendPasswordCreationLink(toEmail, username, token string) error {
	link := fmt.Sprintf("%s/account/create-password?token=%s&email=%s",
		m.baseURL, url.QueryEscape(token), url.QueryEscape(toEmail))

	body := fmt.Sprintf(`<h3>Hello %s,</h3>
<p>Your library account has been created.</p>
<p>To set your password:</p>
<a href="%s">Set My Password</a>
<br/><br/>
<small>This link may expire after a short period.</small>`, username, link)

	return m.send(toEmail, "Librarium - Password Creation", body)
}

// SendPasswordResetLink emails an existing user a link to reset their password.
func (m *SMTPMailer) SendPasswordResetLink(toEmail, username, token string) error {
	link := fmt.Sprintf("%s/account/reset-password?token=%s&email=%s",
		m.baseURL, url.QueryEscape(token), url.QueryEscape(toEmail))

	body := fmt.Sprintf(`<h3>Hello %s,</h3>
<p>We received a password reset request.</p>
<p>Click the link below to set a new password:</p>
<a href="%s">Reset My Password</a>
<br/><br/>
<small>If you did not request this, you can safely ignore this email.</small>`, username, link)

	return m.send(toEmail, "Librarium - Password Reset", body)
}

func (m *SMTPMailer) send(toEmail, subject, htmlBody string) error {
	msg := gomail.NewMessage()
	msg.SetAddressHeader("From", m.senderEmail, m.senderName)
	msg.SetHeader("To", toEmail)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", htmlBody)

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("send email to %s: %w", toEmail, err)
	}
	return nil
}
