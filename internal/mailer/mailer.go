// Package mailer delivers outbound mail. Registration depends on it to get
// confirmation codes to users, so send failures must propagate.
package mailer

import (
	"context"
	"fmt"
	"net/smtp"
	"sync"
)

type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// SMTPMailer sends plain-text mail through a single SMTP relay.
type SMTPMailer struct {
	host     string
	port     int
	from     string
	password string
}

func NewSMTPMailer(host string, port int, from, password string) *SMTPMailer {
	return &SMTPMailer{host: host, port: port, from: from, password: password}
}

func (m *SMTPMailer) Send(_ context.Context, to, subject, body string) error {
	auth := smtp.PlainAuth("", m.from, m.password, m.host)

	message := []byte("Subject: " + subject + "\r\n" +
		"From: " + m.from + "\r\n" +
		"To: " + to + "\r\n" +
		"Content-Type: text/plain; charset=UTF-8\r\n" +
		"\r\n" +
		body + "\r\n")

	addr := fmt.Sprintf("%s:%d", m.host, m.port)
	if err := smtp.SendMail(addr, auth, m.from, []string{to}, message); err != nil {
		return fmt.Errorf("send mail to %s: %w", to, err)
	}
	return nil
}

// RecordingMailer captures sent mail for tests.
type RecordingMailer struct {
	mu   sync.Mutex
	sent []RecordedMail
	// Err, when set, is returned from every Send.
	Err error
}

type RecordedMail struct {
	To      string
	Subject string
	Body    string
}

func NewRecordingMailer() *RecordingMailer {
	return &RecordingMailer{}
}

func (m *RecordingMailer) Send(_ context.Context, to, subject, body string) error {
	if m.Err != nil {
		return m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, RecordedMail{To: to, Subject: subject, Body: body})
	return nil
}

func (m *RecordingMailer) Sent() []RecordedMail {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]RecordedMail(nil), m.sent...)
}
