// Package mail sends notification e-mail over SMTP.
//
//	msg := mail.To("owner@example.com").
//	    ReplyTo("maria@example.com").
//	    Subject("New inquiry from Maria").
//	    Text("Looking for wedding decor")
//	err := sender.Send(ctx, msg)
package mail

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"strings"
	"time"

	"github.com/decorhub/decorhub/config"
	"github.com/decorhub/decorhub/pkg/logger"
)

// ------------------- Config -------------------

// Config holds SMTP credentials.
type Config struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
	FromName string
}

// ConfigFromEnv reads MAIL_* settings.
func ConfigFromEnv() Config {
	return Config{
		Host:     config.Get("MAIL_HOST", ""),
		Port:     config.Get("MAIL_PORT", "587"),
		Username: config.Get("MAIL_USERNAME", ""),
		Password: config.Get("MAIL_PASSWORD", ""),
		From:     config.Get("MAIL_FROM", "no-reply@decorhub.local"),
		FromName: config.Get("MAIL_FROM_NAME", "Decorhub"),
	}
}

// ------------------- Message -------------------

// Message is a fluent builder for one e-mail.
type Message struct {
	to      []string
	replyTo string
	subject string
	body    string
	isHTML  bool
}

// To starts a message for the given recipients.
func To(addresses ...string) *Message {
	return &Message{to: addresses}
}

func (m *Message) ReplyTo(address string) *Message {
	m.replyTo = address
	return m
}

func (m *Message) Subject(s string) *Message {
	m.subject = s
	return m
}

// Text sets a plain-text body.
func (m *Message) Text(text string) *Message {
	m.body = text
	m.isHTML = false
	return m
}

// HTML sets an HTML body.
func (m *Message) HTML(html string) *Message {
	m.body = html
	m.isHTML = true
	return m
}

func (m *Message) Recipients() []string { return m.to }

func (m *Message) SubjectLine() string { return m.subject }

func (m *Message) BodyText() string { return m.body }

// Build renders the RFC 5322 message. Header values are stripped of CR/LF so
// user-supplied text cannot inject headers.
func (m *Message) Build(from string, now time.Time) []byte {
	contentType := "text/plain"
	if m.isHTML {
		contentType = "text/html"
	}

	var b strings.Builder
	b.WriteString("From: " + headerSafe(from) + "\r\n")
	b.WriteString("To: " + headerSafe(strings.Join(m.to, ", ")) + "\r\n")
	if m.replyTo != "" {
		b.WriteString("Reply-To: " + headerSafe(m.replyTo) + "\r\n")
	}
	b.WriteString("Subject: " + headerSafe(m.subject) + "\r\n")
	b.WriteString("Date: " + now.Format(time.RFC1123Z) + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString(fmt.Sprintf("Content-Type: %s; charset=\"UTF-8\"\r\n", contentType))
	b.WriteString("\r\n")
	b.WriteString(strings.ReplaceAll(strings.ReplaceAll(m.body, "\r\n", "\n"), "\n", "\r\n"))
	return []byte(b.String())
}

func headerSafe(s string) string {
	return strings.NewReplacer("\r", " ", "\n", " ").Replace(s)
}

// ------------------- Senders -------------------

// Sender delivers a message.
type Sender interface {
	Send(ctx context.Context, m *Message) error
}

// NewSender returns an SMTP sender when MAIL_HOST is configured and a
// logging sender otherwise.
func NewSender(cfg Config) Sender {
	if cfg.Host == "" {
		return LogSender{}
	}
	return &SMTPSender{cfg: cfg}
}

// SMTPSender delivers over SMTP: implicit TLS on port 465, STARTTLS when the
// server offers it elsewhere.
type SMTPSender struct {
	cfg Config
}

func NewSMTPSender(cfg Config) *SMTPSender { return &SMTPSender{cfg: cfg} }

func (s *SMTPSender) Send(ctx context.Context, m *Message) error {
	if len(m.to) == 0 {
		return fmt.Errorf("mail: no recipients")
	}
	cfg := s.cfg
	addr := net.JoinHostPort(cfg.Host, cfg.Port)

	dialer := &net.Dialer{Timeout: 10 * time.Second}
	var (
		conn net.Conn
		err  error
	)
	if cfg.Port == "465" {
		conn, err = (&tls.Dialer{NetDialer: dialer, Config: &tls.Config{ServerName: cfg.Host}}).DialContext(ctx, "tcp", addr)
	} else {
		conn, err = dialer.DialContext(ctx, "tcp", addr)
	}
	if err != nil {
		return fmt.Errorf("mail: dial %s: %w", addr, err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	client, err := smtp.NewClient(conn, cfg.Host)
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("mail: smtp handshake: %w", err)
	}
	defer client.Close()

	if ok, _ := client.Extension("STARTTLS"); ok && cfg.Port != "465" {
		if err := client.StartTLS(&tls.Config{ServerName: cfg.Host}); err != nil {
			return fmt.Errorf("mail: starttls: %w", err)
		}
	}
	if cfg.Username != "" {
		if err := client.Auth(smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)); err != nil {
			return fmt.Errorf("mail: auth: %w", err)
		}
	}
	if err := client.Mail(cfg.From); err != nil {
		return fmt.Errorf("mail: MAIL FROM: %w", err)
	}
	for _, rcpt := range m.to {
		if err := client.Rcpt(rcpt); err != nil {
			return fmt.Errorf("mail: RCPT TO %s: %w", rcpt, err)
		}
	}
	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("mail: DATA: %w", err)
	}
	from := fmt.Sprintf("%s <%s>", cfg.FromName, cfg.From)
	if _, err := w.Write(m.Build(from, time.Now())); err != nil {
		_ = w.Close()
		return fmt.Errorf("mail: write body: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("mail: finish DATA: %w", err)
	}
	return client.Quit()
}

// LogSender writes messages to the log instead of sending them.
type LogSender struct{}

func (LogSender) Send(ctx context.Context, m *Message) error {
	logger.WithCtx(ctx).Info("mail: not sent (MAIL_HOST unset)",
		"to", strings.Join(m.to, ","),
		"subject", m.subject,
	)
	return nil
}
