// Package listeners reacts to domain events. New inquiries are mailed to the
// shop owner on a worker pool and pushed to connected admin dashboards.
package listeners

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/decorhub/decorhub/app/models"
	"github.com/decorhub/decorhub/app/services"
	"github.com/decorhub/decorhub/pkg/event"
	"github.com/decorhub/decorhub/pkg/logger"
	"github.com/decorhub/decorhub/pkg/mail"
	"github.com/decorhub/decorhub/pkg/metrics"
	"github.com/decorhub/decorhub/pkg/workerpool"
)

const mailTimeout = 30 * time.Second

// Submitter is satisfied by *workerpool.Pool.
type Submitter interface {
	Submit(task workerpool.Task) error
}

// Publisher is satisfied by *ws.Hub.
type Publisher interface {
	Publish(eventType string, data interface{})
}

// Inquiry wires the inquiry.created listeners. Zero-valued fields disable
// the matching side effect.
type Inquiry struct {
	Pool     Submitter
	Mailer   mail.Sender
	NotifyTo []string
	Live     Publisher
}

// Register subscribes l to bus.
func (l Inquiry) Register(bus *event.Bus) {
	if l.Pool != nil && l.Mailer != nil && len(l.NotifyTo) > 0 {
		bus.Listen(services.EventInquiryCreated, l.notify)
	}
	if l.Live != nil {
		bus.Listen(services.EventInquiryCreated, l.broadcast)
	}
}

func (l Inquiry) notify(ctx context.Context, payload interface{}) {
	inq, ok := payload.(models.Inquiry)
	if !ok {
		return
	}
	msg := NotificationMail(inq, l.NotifyTo)
	log := logger.WithCtx(ctx).With("inquiry_id", inq.ID)

	err := l.Pool.Submit(func(ctx context.Context) {
		ctx, cancel := context.WithTimeout(ctx, mailTimeout)
		defer cancel()

		start := time.Now()
		err := l.Mailer.Send(ctx, msg)
		metrics.RecordMailJob(err, start)
		if err != nil {
			log.Error("inquiry mail failed", "error", err)
			return
		}
		log.Info("inquiry mail sent", "to", l.NotifyTo)
	})
	if err != nil {
		metrics.RecordMailJob(err, time.Now())
		log.Warn("inquiry mail not queued", "error", err)
	}
}

func (l Inquiry) broadcast(_ context.Context, payload interface{}) {
	if inq, ok := payload.(models.Inquiry); ok {
		l.Live.Publish(services.EventInquiryCreated, inq)
	}
}

// NotificationMail is the message sent to the shop for a new inquiry. Replies
// go straight to the customer.
func NotificationMail(inq models.Inquiry, to []string) *mail.Message {
	body := fmt.Sprintf("New inquiry #%d received %s\n\nName:    %s\nEmail:   %s\nPhone:   %s\n\n%s\n",
		inq.ID, inq.CreatedAt.Format(time.RFC1123), inq.Name, inq.Email, inq.Phone, inq.Message)
	return mail.To(to...).
		ReplyTo(inq.Email).
		Subject("New inquiry from " + inq.Name).
		Text(body)
}

// ParseRecipients splits a comma-separated address list.
func ParseRecipients(raw string) []string {
	return lo.Compact(lo.Map(strings.Split(raw, ","), func(s string, _ int) string { return strings.TrimSpace(s) }))
}
