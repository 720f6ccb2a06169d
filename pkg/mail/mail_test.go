package mail_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/decorhub/decorhub/pkg/mail"
)

func TestBuildPlainText(t *testing.T) {
	raw := string(mail.To("owner@example.com").
		ReplyTo("maria@example.com").
		Subject("New inquiry").
		Text("line one\nline two").
		Build("Decorhub <no-reply@example.com>", time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)))

	assert.Contains(t, raw, "To: owner@example.com\r\n")
	assert.Contains(t, raw, "Reply-To: maria@example.com\r\n")
	assert.Contains(t, raw, "Content-Type: text/plain")
	assert.True(t, strings.HasSuffix(raw, "\r\n\r\nline one\r\nline two"))
}

func TestBuildStripsHeaderInjection(t *testing.T) {
	raw := string(mail.To("owner@example.com").
		Subject("Hi\r\nBcc: victim@example.com").
		Text("x").
		Build("a@example.com", time.Now()))

	assert.NotContains(t, raw, "\r\nBcc:")
	assert.Contains(t, raw, "Subject: Hi  Bcc: victim@example.com\r\n")
}

func TestNewSenderWithoutHostLogs(t *testing.T) {
	s := mail.NewSender(mail.Config{})
	assert.IsType(t, mail.LogSender{}, s)
	assert.NoError(t, s.Send(context.Background(), mail.To("a@example.com").Subject("s")))
}

func TestSMTPSenderRequiresRecipients(t *testing.T) {
	err := mail.NewSMTPSender(mail.Config{Host: "127.0.0.1", Port: "1"}).Send(context.Background(), mail.To())
	assert.ErrorContains(t, err, "no recipients")
}
