// Package email delivers transactional mail and meters how much of it the
// account is allowed to send.
package email

import (
	"fmt"

	"gopkg.in/gomail.v2"
)

// Sender abstracts the mail capability so handlers and the queue consumer
// can be tested with fakes.  OTP delivery failures are surfaced to callers
// (a generated-but-undelivered code must fail the registration request);
// everything else is fire-and-forget from the caller's perspective.
type Sender interface {
	SendOTP(to, name, code string) error
	SendWelcome(to, name string) error
	SendCatalogReview(to, name, fishName string) error
	SendCatalogApproved(to, name, fishName string) error
	SendCatalogRejected(to, name, fishName, reason string) error
}

// SMTPSender sends mail through a plain SMTP account.  A dialer is created
// per send; the SMTP session is short-lived and there is no connection
// state to share.
type SMTPSender struct {
	Host     string
	Port     int
	User     string
	Pass     string
	FromName string
}

func NewSMTPSender(host string, port int, user, pass, fromName string) *SMTPSender {
	return &SMTPSender{Host: host, Port: port, User: user, Pass: pass, FromName: fromName}
}

func (s *SMTPSender) SendOTP(to, name, code string) error {
	body := fmt.Sprintf(
		"<p>Hi <strong>%s</strong>,</p>"+
			"<p>Thanks for signing up for Fishmap AI! Enter this verification code to finish registering:</p>"+
			"<h1 style=\"letter-spacing:5px\">%s</h1>"+
			"<p>The code is valid for 10 minutes. If you did not request it, ignore this email.</p>",
		name, code)
	return s.send(to, "Your Fishmap AI verification code", body)
}

func (s *SMTPSender) SendWelcome(to, name string) error {
	body := fmt.Sprintf(
		"<p>Hi <strong>%s</strong>,</p>"+
			"<p>Your email is verified and your Fishmap AI account is ready. "+
			"Scan a fish to get started!</p>", name)
	return s.send(to, "Welcome to Fishmap AI", body)
}

func (s *SMTPSender) SendCatalogReview(to, name, fishName string) error {
	body := fmt.Sprintf(
		"<p>Hi <strong>%s</strong>,</p>"+
			"<p>Your catalog submission <strong>%s</strong> was received and is waiting for review. "+
			"We will let you know once a decision is made.</p>", name, fishName)
	return s.send(to, "Catalog submission received", body)
}

func (s *SMTPSender) SendCatalogApproved(to, name, fishName string) error {
	body := fmt.Sprintf(
		"<p>Hi <strong>%s</strong>,</p>"+
			"<p>Good news: your catalog submission <strong>%s</strong> was approved and is now visible to everyone.</p>",
		name, fishName)
	return s.send(to, "Catalog submission approved", body)
}

func (s *SMTPSender) SendCatalogRejected(to, name, fishName, reason string) error {
	body := fmt.Sprintf(
		"<p>Hi <strong>%s</strong>,</p>"+
			"<p>Unfortunately your catalog submission <strong>%s</strong> was not approved.</p>",
		name, fishName)
	if reason != "" {
		body += fmt.Sprintf("<p>Reason: %s</p>", reason)
	}
	return s.send(to, "Catalog submission rejected", body)
}

func (s *SMTPSender) send(to, subject, htmlBody string) error {
	m := gomail.NewMessage()
	m.SetAddressHeader("From", s.User, s.FromName)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", htmlBody)

	d := gomail.NewDialer(s.Host, s.Port, s.User, s.Pass)
	return d.DialAndSend(m)
}
