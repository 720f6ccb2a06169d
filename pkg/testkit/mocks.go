package testkit

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/decorhub/decorhub/pkg/mail"
)

// MockMailer is a testify mock implementing mail.Sender.
//
//	m := new(testkit.MockMailer)
//	m.On("Send", mock.Anything, mock.Anything).Return(nil)
type MockMailer struct {
	mock.Mock
	sent chan *mail.Message
}

// NewMockMailer returns a mailer that accepts every message and reports each
// one on Sent.
func NewMockMailer() *MockMailer {
	m := &MockMailer{sent: make(chan *mail.Message, 16)}
	m.On("Send", mock.Anything, mock.Anything).Return(nil)
	return m
}

func (m *MockMailer) Send(ctx context.Context, msg *mail.Message) error {
	args := m.Called(ctx, msg)
	if m.sent != nil {
		select {
		case m.sent <- msg:
		default:
		}
	}
	return args.Error(0)
}

// Sent delivers each message passed to Send (buffered).
func (m *MockMailer) Sent() <-chan *mail.Message { return m.sent }
