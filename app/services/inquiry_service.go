package services

import (
	"context"

	"github.com/decorhub/decorhub/app/models"
	"github.com/decorhub/decorhub/app/schema"
	"github.com/decorhub/decorhub/pkg/event"
	"github.com/decorhub/decorhub/pkg/metrics"
)

// EventInquiryCreated carries the stored models.Inquiry.
const EventInquiryCreated = "inquiry.created"

type Inquiries interface {
	CreateInquiry(ctx context.Context, inq models.Inquiry) (models.Inquiry, error)
	ListInquiries(ctx context.Context) ([]models.Inquiry, error)
}

type InquiryService struct {
	store Inquiries
	bus   *event.Bus
}

func NewInquiryService(store Inquiries, bus *event.Bus) *InquiryService {
	return &InquiryService{store: store, bus: bus}
}

// Submit stores a contact-form inquiry and announces it. Listeners only see
// inquiries that were persisted.
func (s *InquiryService) Submit(ctx context.Context, in schema.InquiryInput) (models.Inquiry, error) {
	inq, err := s.store.CreateInquiry(ctx, in.ToModel())
	if err != nil {
		return models.Inquiry{}, err
	}
	metrics.InquiriesReceived.Inc()
	s.bus.Dispatch(ctx, EventInquiryCreated, inq)
	return inq, nil
}

// List returns every inquiry, newest first.
func (s *InquiryService) List(ctx context.Context) ([]models.Inquiry, error) {
	return s.store.ListInquiries(ctx)
}
